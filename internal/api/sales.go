package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"medeasy/pharmacy/domain"
)

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req domain.SaleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	op, _ := operatorFrom(r.Context())
	receipt, err := h.Sales.ProcessSale(r.Context(), req, op)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, receipt)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid sale id")
		return
	}
	sale, err := h.Sales.GetSale(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sale)
}

// listSales returns the most recent sales, or with ?from=&to= (inclusive
// calendar days) every sale in that range oldest first.
func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	from, err := h.queryDate(r, "from")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	to, err := h.queryDate(r, "to")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if from == nil && to == nil {
		limit, err := queryInt(r, "limit", 10)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		recent, err := h.Sales.RecentSales(r.Context(), int(limit))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, recent)
		return
	}

	if to != nil {
		next := to.AddDate(0, 0, 1)
		to = &next
	}
	list, err := h.Sales.ListSales(r.Context(), from, to)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}
