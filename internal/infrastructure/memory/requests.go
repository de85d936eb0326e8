package memory

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vid-verifier/internal/domain"
	"github.com/vid-verifier/internal/pkg/ttlstore"
)

// RetentionGrace keeps a request correlatable for a while after the provider's
// nominal expiry so that late callbacks still find their context.
const RetentionGrace = 5 * time.Minute

// requestContext is everything remembered about one presentation request.
// Status and Expiration are written by RecordStatus, the caller fields by
// RecordCallerContext. All of them share the record's ttl.
type requestContext struct {
	Status      string
	Expiration  int64
	CallbackURL string
	CallerName  string
	HasName     bool
}

// RequestRepo correlates provider request ids with caller context between the
// start call and the provider's callback.
type RequestRepo struct {
	store *ttlstore.Store[uuid.UUID, requestContext]
	now   func() time.Time
}

// Option configures a RequestRepo.
type Option func(*RequestRepo)

// WithClock replaces time.Now for both ttl derivation and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(r *RequestRepo) { r.now = now }
}

func NewRequestRepo(opts ...Option) *RequestRepo {
	r := &RequestRepo{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	r.store = ttlstore.New[uuid.UUID, requestContext](ttlstore.WithClock(r.now))
	return r
}

// RunSweeper reclaims expired records every interval until ctx is done.
// Reads never depend on it; it only bounds memory.
func (r *RequestRepo) RunSweeper(ctx context.Context, interval time.Duration) error {
	return r.store.Run(ctx, interval)
}

// Len reports the number of records held, live or awaiting a sweep.
func (r *RequestRepo) Len() int {
	return r.store.Len()
}

// retention returns how long a record must live for a flow that expires at
// the given Unix time: the remaining time (never negative) plus RetentionGrace.
func (r *RequestRepo) retention(expiration int64) time.Duration {
	remaining := expiration - r.now().Unix()
	if remaining < 0 {
		remaining = 0
	}
	return time.Duration(remaining)*time.Second + RetentionGrace
}

// RecordStatus creates the context for requestID or overwrites its status,
// re-deriving the retention window from expiration.
func (r *RequestRepo) RecordStatus(requestID uuid.UUID, status string, expiration int64) {
	ttl := r.retention(expiration)
	r.store.Update(requestID, ttl, func(cur requestContext, _ bool) requestContext {
		cur.Status = status
		cur.Expiration = expiration
		return cur
	})
	slog.Info("updated request status",
		"request_id", requestID, "status", status, "ttl_seconds", int64(ttl/time.Second))
}

// RecordCallerContext stores where and how to report back to the caller.
// It must be given the same expiration as RecordStatus so every field expires together.
// A nil callerName leaves the name unset and CallerName falls back to the default label.
func (r *RequestRepo) RecordCallerContext(requestID uuid.UUID, callbackURL string, callerName *string, expiration int64) {
	r.store.Update(requestID, r.retention(expiration), func(cur requestContext, _ bool) requestContext {
		cur.CallbackURL = callbackURL
		if callerName != nil {
			cur.CallerName = *callerName
			cur.HasName = true
		}
		return cur
	})
}

// TryGetCallbackURL returns the caller callback URL, if one is on file.
func (r *RequestRepo) TryGetCallbackURL(requestID uuid.UUID) (string, bool) {
	rc, ok := r.store.Get(requestID)
	if !ok || rc.CallbackURL == "" {
		slog.Warn("caller callback url not found", "request_id", requestID)
		return "", false
	}
	return rc.CallbackURL, true
}

// CallerName returns the caller's display name or domain.DefaultCallerName.
func (r *RequestRepo) CallerName(requestID uuid.UUID) string {
	rc, ok := r.store.Get(requestID)
	if !ok || !rc.HasName {
		return domain.DefaultCallerName
	}
	return rc.CallerName
}

// TryGetStatus returns the last recorded provider status.
func (r *RequestRepo) TryGetStatus(requestID uuid.UUID) (string, bool) {
	rc, ok := r.store.Get(requestID)
	if !ok || rc.Status == "" {
		slog.Warn("request status not found", "request_id", requestID)
		return "", false
	}
	return rc.Status, true
}

// TryGetExpiration returns the expiration recorded with the status. A record
// without a status, or with an expiration of 0, counts as not found.
func (r *RequestRepo) TryGetExpiration(requestID uuid.UUID) (int64, bool) {
	rc, ok := r.store.Get(requestID)
	if !ok || rc.Status == "" || rc.Expiration == 0 {
		slog.Warn("request expiration not found", "request_id", requestID)
		return 0, false
	}
	return rc.Expiration, true
}
