package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/eventpass/internal/model"
)

// CreateEvent handles POST /v1/events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		h.bindError(w, r, err)
		return
	}

	event, err := h.regs.CreateEvent(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, event)
}

// GetEvent handles GET /v1/events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.regs.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, event)
}

// CreateTicketType handles POST /v1/events/{id}/ticket-types
func (h *Handler) CreateTicketType(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTicketTypeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.bindError(w, r, err)
		return
	}

	tt, err := h.regs.CreateTicketType(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, tt)
}

// ListTicketTypes handles GET /v1/events/{id}/ticket-types
func (h *Handler) ListTicketTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.regs.ListTicketTypes(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if types == nil {
		types = []model.TicketType{}
	}
	writeJSON(w, r, http.StatusOK, types)
}

// EnsureUser handles POST /v1/users
func (h *Handler) EnsureUser(w http.ResponseWriter, r *http.Request) {
	var req model.EnsureUserRequest
	if err := decodeJSON(r, &req); err != nil {
		h.bindError(w, r, err)
		return
	}

	user, err := h.regs.EnsureUser(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

// Register handles POST /v1/events/{id}/registrations
// Performs a concurrency-safe registration for the specified event.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")

	var req model.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		h.bindError(w, r, err)
		return
	}

	reg, err := h.regs.CreateRegistration(r.Context(), eventID, req)
	if err != nil {
		h.logger(r).Debug("registration refused",
			slog.String("event_id", eventID),
			slog.String("reason", err.Error()))
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, reg)
}

// ListRegistrations handles GET /v1/events/{id}/registrations
// Optional query parameters: status, ticket_type_id.
func (h *Handler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	filter := model.RegistrationFilter{
		Status:       model.RegistrationStatus(r.URL.Query().Get("status")),
		TicketTypeID: r.URL.Query().Get("ticket_type_id"),
	}

	regs, err := h.regs.ListRegistrations(r.Context(), chi.URLParam(r, "id"), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if regs == nil {
		regs = []model.Registration{}
	}
	writeJSON(w, r, http.StatusOK, regs)
}

// GetRegistration handles GET /v1/registrations/{id}
func (h *Handler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	reg, err := h.regs.GetRegistration(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, reg)
}

// CancelRegistration handles POST /v1/registrations/{id}/cancel
func (h *Handler) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	reg, err := h.regs.CancelRegistration(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, reg)
}

// TicketCode handles GET /v1/registrations/{id}/code
func (h *Handler) TicketCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.regs.EncodeTicket(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"code": code})
}

// DecodeTicket handles POST /v1/tickets/decode
// An invalid code is a normal outcome, reported with valid=false.
func (h *Handler) DecodeTicket(w http.ResponseWriter, r *http.Request) {
	var req model.DecodeRequest
	if err := bind(r, &req); err != nil {
		h.bindError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, h.regs.DecodeTicket(req.Code))
}
