package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/eventpass/internal/model"
)

// CreateChannel handles POST /v1/events/{id}/channels
func (h *Handler) CreateChannel(w http.ResponseWriter, r *http.Request) {
	var req model.CreateChannelRequest
	if err := decodeJSON(r, &req); err != nil {
		h.bindError(w, r, err)
		return
	}

	ch, err := h.payments.CreateChannel(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, ch)
}

// SetChannelActive handles PATCH /v1/channels/{id}
func (h *Handler) SetChannelActive(w http.ResponseWriter, r *http.Request) {
	var req model.SetChannelActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		h.bindError(w, r, err)
		return
	}

	ch, err := h.payments.SetChannelActive(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ch)
}

// AllocateChannel handles POST /v1/events/{id}/channels/allocate
func (h *Handler) AllocateChannel(w http.ResponseWriter, r *http.Request) {
	var req model.AllocateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.bindError(w, r, err)
		return
	}

	ch, err := h.payments.AllocatePaymentChannel(r.Context(), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ch)
}

// ChannelStats handles GET /v1/events/{id}/channels/stats
func (h *Handler) ChannelStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.payments.ChannelStats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if stats == nil {
		stats = []model.ChannelStats{}
	}
	writeJSON(w, r, http.StatusOK, stats)
}

// StartPayment handles POST /v1/registrations/{id}/payments
func (h *Handler) StartPayment(w http.ResponseWriter, r *http.Request) {
	start, err := h.payments.StartPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, start)
}

// LatestPayment handles GET /v1/registrations/{id}/payment
func (h *Handler) LatestPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.payments.LatestPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

// GetPayment handles GET /v1/payments/{id}
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.payments.GetPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

// ResendTicket handles POST /v1/registrations/{id}/ticket
func (h *Handler) ResendTicket(w http.ResponseWriter, r *http.Request) {
	if err := h.payments.ResendTicket(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusAccepted, map[string]string{"status": "sent"})
}

// ReviewQueue handles GET /v1/events/{id}/payments/review
func (h *Handler) ReviewQueue(w http.ResponseWriter, r *http.Request) {
	payments, err := h.payments.ListForReview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if payments == nil {
		payments = []model.Payment{}
	}
	writeJSON(w, r, http.StatusOK, payments)
}

// AttachProof handles POST /v1/payments/{id}/proof
func (h *Handler) AttachProof(w http.ResponseWriter, r *http.Request) {
	var req model.ProofRequest
	if err := decodeJSON(r, &req); err != nil {
		h.bindError(w, r, err)
		return
	}

	p, err := h.payments.RecordPaymentProof(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

// ConfirmPayment handles POST /v1/payments/{id}/confirm
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req model.ConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		h.bindError(w, r, err)
		return
	}

	p, err := h.payments.ConfirmPayment(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

// RejectPayment handles POST /v1/payments/{id}/reject
func (h *Handler) RejectPayment(w http.ResponseWriter, r *http.Request) {
	var req model.RejectRequest
	if err := decodeJSON(r, &req); err != nil {
		h.bindError(w, r, err)
		return
	}

	p, err := h.payments.RejectPayment(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}
