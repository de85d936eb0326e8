package verifiedid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vid-verifier/internal/domain"
)

const validResponse = `{
	"requestId": "6f1c1f7e-7f62-4a5d-9b2c-0f3a3f6a1a11",
	"url": "openid-vc://?request_uri=https://example/abc",
	"expiry": 1750000600,
	"qrCode": "data:image/png;base64,AAAA"
}`

func sampleRequest() *domain.PresentationRequest {
	return &domain.PresentationRequest{
		Authority:     "did:web:example",
		Registration:  domain.Registration{ClientName: "Alice", Purpose: "test"},
		Callback:      domain.ProviderCallback{URL: "https://origin/api/callback", State: "s1"},
		IncludeQRCode: true,
		RequestedCredentials: []domain.RequestedCredential{
			{Type: "VerifiedEmployee", Purpose: "test", Schema: domain.CredentialSchema{URI: "VerifiedEmployee"}},
		},
	}
}

func TestCreatePresentationRequest_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["includeQRCode"])
		assert.Equal(t, false, body["includeReceipt"])
		assert.Equal(t, "did:web:example", body["authority"])
		_, _ = w.Write([]byte(validResponse))
	}))
	defer srv.Close()

	out, err := NewClient(srv.URL, time.Second).CreatePresentationRequest(context.Background(), "tok", sampleRequest())

	require.NoError(t, err)
	assert.Equal(t, "6f1c1f7e-7f62-4a5d-9b2c-0f3a3f6a1a11", out.RequestID.String())
	assert.Equal(t, int64(1750000600), *out.Expiration)
	assert.Equal(t, "data:image/png;base64,AAAA", *out.QRCode)
}

func TestCreatePresentationRequest_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"upstream error", http.StatusUnauthorized, `{"error":{"code":"Unauthorized"}}`},
		{"invalid json", http.StatusOK, `not-json`},
		{"missing qr code", http.StatusOK, `{"requestId":"6f1c1f7e-7f62-4a5d-9b2c-0f3a3f6a1a11","url":"u","expiry":1750000600}`},
		{"missing expiry", http.StatusOK, `{"requestId":"6f1c1f7e-7f62-4a5d-9b2c-0f3a3f6a1a11","url":"u","qrCode":"q"}`},
		{"missing request id", http.StatusOK, `{"url":"u","expiry":1750000600,"qrCode":"q"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Second).CreatePresentationRequest(context.Background(), "tok", sampleRequest())
			assert.ErrorIs(t, err, domain.ErrUpstreamCreation)
		})
	}
}

func TestNewClient_DefaultEndpoint(t *testing.T) {
	assert.Equal(t, DefaultEndpoint, NewClient("", time.Second).endpoint)
}
