package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vid-verifier/internal/application/presentation"
	"github.com/vid-verifier/internal/config"
	"github.com/vid-verifier/internal/domain"
	"github.com/vid-verifier/internal/infrastructure/memory"
	"github.com/vid-verifier/internal/metrics"
	"github.com/vid-verifier/internal/pkg/background"
)

type stubTokens struct{}

func (stubTokens) AccessToken(context.Context) (string, error) { return "at", nil }

type stubClient struct{ id uuid.UUID }

func (c stubClient) CreatePresentationRequest(context.Context, string, *domain.PresentationRequest) (*domain.CreateRequestResponse, error) {
	exp := time.Now().Add(10 * time.Minute).Unix()
	qr := "data:image/png;base64,QR"
	return &domain.CreateRequestResponse{RequestID: c.id, URL: "openid-vc://x", Expiration: &exp, QRCode: &qr}, nil
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(ctx context.Context, note domain.Notification) error {
	return m.Called(ctx, note).Error(0)
}

type mockPoster struct{ mock.Mock }

func (m *mockPoster) PostJSON(ctx context.Context, url string, payload any) error {
	return m.Called(ctx, url, payload).Error(0)
}

// TestRouter_EndToEnd drives a full start, status and verified callback
// through the router with only the outbound edges stubbed.
func TestRouter_EndToEnd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	id := uuid.New()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	repo := memory.NewRequestRepo()
	m.TrackRequests(repo.Len)
	dispatcher := background.NewDispatcher(time.Second)

	notifier := &mockNotifier{}
	notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)
	poster := &mockPoster{}
	poster.On("PostJSON", mock.Anything, "https://caller.example/hook", mock.MatchedBy(func(v domain.VerificationResult) bool {
		return v.RequestID == "caller-state" && v.Status == "verified"
	})).Return(nil).Once()

	svc := presentation.NewService(presentation.ServiceDeps{
		Tokens:     stubTokens{},
		Client:     stubClient{id: id},
		Requests:   repo,
		Notifier:   notifier,
		Poster:     poster,
		Dispatcher: dispatcher,
		Metrics:    m,
		Settings:   presentation.Settings{Authority: "did:web:x", DefaultCredentialType: "VerifiedEmployee", Origin: "https://verifier.example"},
	})
	cfg := &config.Config{AllowedOrigins: []string{"*"}, StartRateLimit: 100, StartRateBurst: 100}
	srv := httptest.NewServer(NewRouter(ctx, cfg, &Deps{Presentations: svc, Gatherer: reg}))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/createPresentationRequest", "application/json",
		bytes.NewBufferString(`{"state":"caller-state","callerCallbackUrl":"https://caller.example/hook"}`))
	require.NoError(t, err)
	var started domain.StartResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&started))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, id, started.RequestID)

	resp, err = http.Get(srv.URL + "/api/presentations/" + id.String() + "/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := json.Marshal(map[string]string{
		"requestId": id.String(), "requestStatus": domain.StatusPresentationVerified, "state": "caller-state",
	})
	resp, err = http.Post(srv.URL+"/api/callback", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	require.NoError(t, dispatcher.Wait(waitCtx))
	poster.AssertExpectations(t)
	notifier.AssertNumberOfCalls(t, "Notify", 3)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	assert.True(t, strings.Contains(buf.String(), "vid_verifier_tracked_requests 1"))
	assert.True(t, strings.Contains(buf.String(), `vid_verifier_caller_callbacks_total{result="delivered"} 1`))
}

func TestRouter_UnknownCallback(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := presentation.NewService(presentation.ServiceDeps{
		Requests:   memory.NewRequestRepo(),
		Dispatcher: background.NewDispatcher(time.Second),
		Metrics:    metrics.New(prometheus.NewRegistry()),
	})
	cfg := &config.Config{StartRateLimit: 1, StartRateBurst: 1}
	h := NewRouter(ctx, cfg, &Deps{Presentations: svc})

	body, _ := json.Marshal(map[string]string{"requestId": uuid.NewString(), "requestStatus": "request_retrieved", "state": "s"})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/callback", bytes.NewReader(body)))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_StartLimiterIgnoresForwardingHeadersUnlessTrusted(t *testing.T) {
	tests := []struct {
		name        string
		trustProxy  bool
		wantAllowed int
	}{
		{"untrusted", false, 1},
		{"trusted proxy", true, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			svc := presentation.NewService(presentation.ServiceDeps{
				Requests:   memory.NewRequestRepo(),
				Dispatcher: background.NewDispatcher(time.Second),
				Metrics:    metrics.New(prometheus.NewRegistry()),
			})
			cfg := &config.Config{StartRateLimit: 0.001, StartRateBurst: 1, TrustProxyHeaders: tt.trustProxy}
			h := NewRouter(ctx, cfg, &Deps{Presentations: svc})

			allowed := 0
			for _, fwd := range []string{"198.51.100.1", "198.51.100.2", "198.51.100.3"} {
				// An empty body fails decoding, so admitted requests answer 400.
				req := httptest.NewRequest(http.MethodPost, "/api/createPresentationRequest", strings.NewReader(""))
				req.RemoteAddr = "203.0.113.9:40000"
				req.Header.Set("X-Forwarded-For", fwd)
				rr := httptest.NewRecorder()
				h.ServeHTTP(rr, req)
				if rr.Code != http.StatusTooManyRequests {
					allowed++
				}
			}
			assert.Equal(t, tt.wantAllowed, allowed)
		})
	}
}
