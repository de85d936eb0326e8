package domain

import "github.com/google/uuid"

// Request status tokens reported by the provider. The set is open-ended; only
// StatusPresentationVerified triggers caller delivery.
const (
	StatusRequestCreated       = "request_created"
	StatusRequestRetrieved     = "request_retrieved"
	StatusPresentationVerified = "presentation_verified"
	StatusPresentationError    = "presentation_error"
)

// DefaultCallerName is shown in notifications when the caller gave no display name.
const DefaultCallerName = "Verified ID verification"

// StartRequest is the caller's request to begin a verification.
type StartRequest struct {
	State             string  `json:"state" validate:"required"`
	CallerCallbackURL string  `json:"callerCallbackUrl" validate:"required,http_url"`
	CallerName        *string `json:"callerName,omitempty" validate:"omitempty,max=200"`
	CredentialType    *string `json:"credentialType,omitempty" validate:"omitempty,max=200"`
	RequireFaceCheck  *bool   `json:"requireFaceCheck,omitempty"`
}

// StartResponse is returned to the caller. The QR code and expiry are never included.
type StartResponse struct {
	RequestID uuid.UUID `json:"requestId"`
	URL       string    `json:"url"`
}

// CallbackRequest is the provider's presentation callback.
type CallbackRequest struct {
	RequestStatus string         `json:"requestStatus" validate:"required"`
	RequestID     uuid.UUID      `json:"requestId" validate:"required"`
	State         string         `json:"state" validate:"required"`
	FaceCheck     map[string]any `json:"faceCheck,omitempty"`
}

// VerificationResult is posted to the caller's callback URL once verified.
// RequestID carries the caller's state token, not the provider request id.
type VerificationResult struct {
	RequestID string         `json:"requestId"`
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	FaceCheck map[string]any `json:"faceCheck,omitempty"`
}

// PresentationRequest is the body sent to the provider's createPresentationRequest API.
type PresentationRequest struct {
	Authority            string                `json:"authority"`
	Registration         Registration          `json:"registration"`
	Callback             ProviderCallback      `json:"callback"`
	IncludeQRCode        bool                  `json:"includeQRCode"`
	IncludeReceipt       bool                  `json:"includeReceipt"`
	RequestedCredentials []RequestedCredential `json:"requestedCredentials"`
}

type Registration struct {
	ClientName string `json:"clientName"`
	Purpose    string `json:"purpose"`
}

type ProviderCallback struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

type RequestedCredential struct {
	Type          string                   `json:"type"`
	Purpose       string                   `json:"purpose"`
	Schema        CredentialSchema         `json:"schema"`
	Configuration *CredentialConfiguration `json:"configuration,omitempty"`
}

type CredentialSchema struct {
	URI string `json:"uri"`
}

type CredentialConfiguration struct {
	Validation CredentialValidation `json:"validation"`
}

type CredentialValidation struct {
	FaceCheck *FaceCheckValidation `json:"faceCheck,omitempty"`
}

type FaceCheckValidation struct {
	SourcePhotoClaimName string `json:"sourcePhotoClaimName"`
}

// CreateRequestResponse is the provider's answer to a creation call.
// Expiration is Unix seconds.
type CreateRequestResponse struct {
	RequestID  uuid.UUID `json:"requestId"`
	URL        string    `json:"url"`
	Expiration *int64    `json:"expiry,omitempty"`
	QRCode     *string   `json:"qrCode,omitempty"`
}
