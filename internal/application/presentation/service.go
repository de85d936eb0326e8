package presentation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/vid-verifier/internal/domain"
	"github.com/vid-verifier/internal/pkg/id"
	"github.com/vid-verifier/internal/pkg/validate"
)

const (
	callbackPath    = "/api/callback"
	verifiedMessage = "Verified ID presentation completed successfully."
	verifiedStatus  = "verified"

	sourcePhotoClaimName = "photo"
)

type Service interface {
	Start(ctx context.Context, req domain.StartRequest) (*domain.StartResponse, error)
	HandleCallback(ctx context.Context, req domain.CallbackRequest) error
	Status(ctx context.Context, requestID uuid.UUID) (string, error)
}

type tokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

type presentationClient interface {
	CreatePresentationRequest(ctx context.Context, accessToken string, req *domain.PresentationRequest) (*domain.CreateRequestResponse, error)
}

type requestStore interface {
	RecordStatus(requestID uuid.UUID, status string, expiration int64)
	RecordCallerContext(requestID uuid.UUID, callbackURL string, callerName *string, expiration int64)
	TryGetCallbackURL(requestID uuid.UUID) (string, bool)
	CallerName(requestID uuid.UUID) string
	TryGetExpiration(requestID uuid.UUID) (int64, bool)
	TryGetStatus(requestID uuid.UUID) (string, bool)
}

type notifier interface {
	Notify(ctx context.Context, note domain.Notification) error
}

type poster interface {
	PostJSON(ctx context.Context, url string, payload any) error
}

type dispatcher interface {
	Go(name string, task func(ctx context.Context) error)
}

type recorder interface {
	IncrementStarted()
	IncrementStartFailure(reason string)
	IncrementCallback(status string)
	IncrementUnknownCallback()
	IncrementCallerCallback(result string)
	ObserveNotification(kind string, err error)
}

// Settings are the deployment-specific values stamped into every provider request.
type Settings struct {
	Authority             string
	DefaultCredentialType string
	Origin                string
}

type ServiceDeps struct {
	Tokens     tokenProvider
	Client     presentationClient
	Requests   requestStore
	Notifier   notifier
	Poster     poster
	Dispatcher dispatcher
	Metrics    recorder
	Settings   Settings
}

type service struct {
	tokens     tokenProvider
	client     presentationClient
	requests   requestStore
	notifier   notifier
	poster     poster
	dispatcher dispatcher
	metrics    recorder
	settings   Settings
}

func NewService(deps ServiceDeps) Service {
	return &service{
		tokens:     deps.Tokens,
		client:     deps.Client,
		requests:   deps.Requests,
		notifier:   deps.Notifier,
		poster:     deps.Poster,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		settings:   deps.Settings,
	}
}

// Start creates a presentation request with the provider and remembers the
// caller's context under the provider request id. Nothing is recorded unless
// the provider call fully succeeds.
func (s *service) Start(ctx context.Context, req domain.StartRequest) (*domain.StartResponse, error) {
	if err := validate.Struct(req); err != nil {
		s.metrics.IncrementStartFailure("invalid")
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}

	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		s.metrics.IncrementStartFailure("auth")
		slog.Error("failed to acquire access token", "err", err)
		return nil, err
	}

	created, err := s.client.CreatePresentationRequest(ctx, token, s.buildRequest(req))
	if err != nil {
		s.metrics.IncrementStartFailure("creation")
		slog.Error("failed to create presentation request", "err", err)
		return nil, err
	}
	if created.QRCode == nil || *created.QRCode == "" {
		s.metrics.IncrementStartFailure("creation")
		return nil, fmt.Errorf("empty qr code for %s: %w", created.RequestID, domain.ErrUpstreamCreation)
	}
	if created.Expiration == nil || *created.Expiration <= 0 {
		s.metrics.IncrementStartFailure("creation")
		return nil, fmt.Errorf("missing expiry for %s: %w", created.RequestID, domain.ErrUpstreamCreation)
	}

	expiration := *created.Expiration
	s.requests.RecordStatus(created.RequestID, domain.StatusRequestCreated, expiration)
	s.requests.RecordCallerContext(created.RequestID, req.CallerCallbackURL, callerName(req), expiration)
	s.metrics.IncrementStarted()

	s.emit(domain.Notification{
		Kind:       domain.NotificationPresentationPending,
		RequestID:  created.RequestID,
		CallerName: s.requests.CallerName(created.RequestID),
		QRCode:     *created.QRCode,
	})

	return &domain.StartResponse{RequestID: created.RequestID, URL: created.URL}, nil
}

// callerName returns the supplied display name, or nil when it is blank.
func callerName(req domain.StartRequest) *string {
	if req.CallerName == nil || strings.TrimSpace(*req.CallerName) == "" {
		return nil
	}
	return req.CallerName
}

func (s *service) buildRequest(req domain.StartRequest) *domain.PresentationRequest {
	name := domain.DefaultCallerName
	if n := callerName(req); n != nil {
		name = *n
	}
	credentialType := s.settings.DefaultCredentialType
	if req.CredentialType != nil && *req.CredentialType != "" {
		credentialType = *req.CredentialType
	}
	purpose := "Verified ID presentation for " + name

	credential := domain.RequestedCredential{
		Type:    credentialType,
		Purpose: purpose,
		Schema:  domain.CredentialSchema{URI: credentialType},
	}
	if req.RequireFaceCheck == nil || *req.RequireFaceCheck {
		credential.Configuration = &domain.CredentialConfiguration{
			Validation: domain.CredentialValidation{
				FaceCheck: &domain.FaceCheckValidation{SourcePhotoClaimName: sourcePhotoClaimName},
			},
		}
	}

	return &domain.PresentationRequest{
		Authority:    s.settings.Authority,
		Registration: domain.Registration{ClientName: name, Purpose: purpose},
		Callback: domain.ProviderCallback{
			URL:   strings.TrimRight(s.settings.Origin, "/") + callbackPath,
			State: req.State,
		},
		IncludeQRCode:        true,
		IncludeReceipt:       false,
		RequestedCredentials: []domain.RequestedCredential{credential},
	}
}

// HandleCallback records the provider's status for a live request. Only the
// verified status triggers notifications and delivery to the caller, and both
// run in the background so the provider is acknowledged regardless of outcome.
func (s *service) HandleCallback(ctx context.Context, req domain.CallbackRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}

	expiration, ok := s.requests.TryGetExpiration(req.RequestID)
	if !ok {
		s.metrics.IncrementUnknownCallback()
		slog.Error("callback for unknown or expired request", "request_id", req.RequestID, "status", req.RequestStatus)
		return fmt.Errorf("request %s: %w", req.RequestID, domain.ErrUnknownCorrelation)
	}

	s.requests.RecordStatus(req.RequestID, req.RequestStatus, expiration)
	s.metrics.IncrementCallback(statusLabel(req.RequestStatus))

	if req.RequestStatus != domain.StatusPresentationVerified {
		return nil
	}

	s.emit(domain.Notification{
		Kind:       domain.NotificationPresentationVerified,
		RequestID:  req.RequestID,
		CallerName: s.requests.CallerName(req.RequestID),
	})

	callbackURL, ok := s.requests.TryGetCallbackURL(req.RequestID)
	if !ok {
		s.metrics.IncrementCallerCallback("skipped")
		slog.Warn("no caller callback url on file, skipping delivery", "request_id", req.RequestID)
		return nil
	}

	result := domain.VerificationResult{
		RequestID: req.State,
		Status:    verifiedStatus,
		Message:   verifiedMessage,
		FaceCheck: req.FaceCheck,
	}
	s.dispatcher.Go("deliver caller callback", func(ctx context.Context) error {
		return s.deliver(ctx, req.RequestID, callbackURL, result)
	})
	return nil
}

// statusLabel bounds the metric label set: provider statuses are open-ended.
func statusLabel(status string) string {
	switch status {
	case domain.StatusRequestCreated, domain.StatusRequestRetrieved,
		domain.StatusPresentationVerified, domain.StatusPresentationError:
		return status
	}
	return "other"
}

func (s *service) deliver(ctx context.Context, requestID uuid.UUID, callbackURL string, result domain.VerificationResult) error {
	if err := s.poster.PostJSON(ctx, callbackURL, result); err != nil {
		s.metrics.IncrementCallerCallback("failed")
		return fmt.Errorf("deliver result for %s: %w", requestID, err)
	}
	s.metrics.IncrementCallerCallback("delivered")
	slog.Info("delivered result to caller", "request_id", requestID)

	s.emit(domain.Notification{
		Kind:       domain.NotificationCallbackCompleted,
		RequestID:  requestID,
		CallerName: s.requests.CallerName(requestID),
	})
	return nil
}

// Status returns the last recorded provider status of a live request.
func (s *service) Status(_ context.Context, requestID uuid.UUID) (string, error) {
	status, ok := s.requests.TryGetStatus(requestID)
	if !ok {
		return "", fmt.Errorf("request %s: %w", requestID, domain.ErrNotFound)
	}
	return status, nil
}

// emit sends note to the notifier without blocking the caller.
func (s *service) emit(note domain.Notification) {
	note.ID = id.New()
	s.dispatcher.Go("notify "+string(note.Kind), func(ctx context.Context) error {
		err := s.notifier.Notify(ctx, note)
		s.metrics.ObserveNotification(string(note.Kind), err)
		if err != nil {
			return fmt.Errorf("notify %s for %s: %w", note.Kind, note.RequestID, err)
		}
		return nil
	})
}
