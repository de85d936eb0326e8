package verifiedid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/vid-verifier/internal/domain"
)

// DefaultEndpoint is the Verified ID request service createPresentationRequest URL.
const DefaultEndpoint = "https://verifiedid.did.msidentity.com/v1.0/verifiableCredentials/createPresentationRequest"

// Client creates presentation requests against the Verified ID request service.
type Client struct {
	http     *http.Client
	endpoint string
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{http: &http.Client{Timeout: timeout}, endpoint: endpoint}
}

// CreatePresentationRequest posts req with the given bearer token. Any non-2xx
// answer, an undecodable body, or a response without request id, QR code or
// expiry is reported as domain.ErrUpstreamCreation.
func (c *Client) CreatePresentationRequest(ctx context.Context, accessToken string, req *domain.PresentationRequest) (*domain.CreateRequestResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal presentation request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build presentation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call request service: %v: %w", err, domain.ErrUpstreamCreation)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := "unknown reason"
		if b, rerr := io.ReadAll(io.LimitReader(resp.Body, 4096)); rerr == nil && len(b) > 0 {
			reason = string(b)
		}
		slog.Error("failed to create presentation request", "status", resp.StatusCode, "body", reason)
		return nil, fmt.Errorf("request service answered %d: %w", resp.StatusCode, domain.ErrUpstreamCreation)
	}

	var out domain.CreateRequestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode request service response: %v: %w", err, domain.ErrUpstreamCreation)
	}
	if out.RequestID == uuid.Nil || out.URL == "" {
		return nil, fmt.Errorf("response without request id or url: %w", domain.ErrUpstreamCreation)
	}
	if out.QRCode == nil || *out.QRCode == "" {
		slog.Error("received empty QR code for presentation request", "request_id", out.RequestID)
		return nil, fmt.Errorf("response without qr code: %w", domain.ErrUpstreamCreation)
	}
	if out.Expiration == nil || *out.Expiration <= 0 {
		return nil, fmt.Errorf("response without expiry: %w", domain.ErrUpstreamCreation)
	}
	return &out, nil
}
