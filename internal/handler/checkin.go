package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/eventpass/internal/model"
)

func checkinStatus(res *model.CheckInResult) int {
	if res.AlreadyRedeemed {
		return http.StatusOK
	}
	return http.StatusCreated
}

// Scan handles POST /v1/checkin/scan
// A second scan of the same ticket succeeds with already_redeemed=true and
// the original check-in.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var req model.ScanRequest
	if err := decodeJSON(r, &req); err != nil {
		h.bindError(w, r, err)
		return
	}

	res, err := h.checkins.Scan(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, checkinStatus(res), res)
}

// CheckIn handles POST /v1/registrations/{id}/checkin
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req model.CheckinRequest
	if err := decodeJSON(r, &req); err != nil {
		h.bindError(w, r, err)
		return
	}

	res, err := h.checkins.CheckIn(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, checkinStatus(res), res)
}

// CheckinStats handles GET /v1/events/{id}/checkin/stats
func (h *Handler) CheckinStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.checkins.Stats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}

// ListCheckins handles GET /v1/events/{id}/checkins
func (h *Handler) ListCheckins(w http.ResponseWriter, r *http.Request) {
	list, err := h.checkins.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []model.CheckIn{}
	}
	writeJSON(w, r, http.StatusOK, list)
}
