package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vid-verifier/internal/application/presentation"
	"github.com/vid-verifier/internal/domain"
)

// maxBodyBytes bounds inbound JSON bodies; provider callbacks carry face check
// detail but nothing large.
const maxBodyBytes = 1 << 20

// PresentationHandler handles the start, callback and status endpoints.
type PresentationHandler struct {
	svc presentation.Service
}

func NewPresentationHandler(svc presentation.Service) *PresentationHandler {
	return &PresentationHandler{svc: svc}
}

// Start begins a verification for the caller. The QR code and expiry are
// never echoed back.
func (h *PresentationHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req domain.StartRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := h.svc.Start(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Callback receives the provider's status updates. It answers as soon as the
// status is recorded; delivery to the caller happens afterwards.
func (h *PresentationHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req domain.CallbackRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.HandleCallback(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "callback received"})
}

func (h *PresentationHandler) Status(w http.ResponseWriter, r *http.Request) {
	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request id")
		return
	}
	status, err := h.svc.Status(r.Context(), requestID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusEnvelope{RequestID: requestID, Status: status})
}
