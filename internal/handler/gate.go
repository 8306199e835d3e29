package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/eventpass/internal/model"
)

// SetPin handles PUT /v1/events/{id}/pin
// The plaintext PIN appears in this response only.
func (h *Handler) SetPin(w http.ResponseWriter, r *http.Request) {
	pin, err := h.gate.SetPin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, map[string]string{"pin": pin})
}

// HasPin handles GET /v1/events/{id}/pin
func (h *Handler) HasPin(w http.ResponseWriter, r *http.Request) {
	ok, err := h.gate.HasPin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"has_pin": ok})
}

// RemovePin handles DELETE /v1/events/{id}/pin
func (h *Handler) RemovePin(w http.ResponseWriter, r *http.Request) {
	if err := h.gate.RemovePin(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"has_pin": false})
}

// VerifyPin handles POST /v1/events/{id}/pin/verify
func (h *Handler) VerifyPin(w http.ResponseWriter, r *http.Request) {
	var req model.VerifyPinRequest
	if err := bind(r, &req); err != nil {
		h.bindError(w, r, err)
		return
	}

	ok, err := h.gate.VerifyAttempt(r.Context(), chi.URLParam(r, "id"), req.OperatorID, req.Pin)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"valid": ok})
}
