package api

import (
	"net/http"
)

func (h *Handler) allAlerts(w http.ResponseWriter, r *http.Request) {
	list, err := h.Alerts.All(r.Context(), h.now())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	threshold, err := queryInt(r, "threshold", h.Alerts.Settings().LowStockThreshold)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	list, err := h.Alerts.LowStock(r.Context(), threshold)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) expired(w http.ResponseWriter, r *http.Request) {
	list, err := h.Alerts.Expired(r.Context(), h.now())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) expiring(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", int64(h.Alerts.Settings().ExpiryWindowDays))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	list, err := h.Alerts.ExpiringWithin(r.Context(), h.now(), int(days))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) reorder(w http.ResponseWriter, r *http.Request) {
	threshold, err := queryInt(r, "threshold", h.Alerts.Settings().LowStockThreshold)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	list, err := h.Alerts.ReorderSuggestions(r.Context(), threshold)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}
