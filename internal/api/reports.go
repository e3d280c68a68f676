package api

import (
	"net/http"
	"strings"
	"time"

	"medeasy/pharmacy/internal/reports"
)

// dailyReport serves ?date=YYYY-MM-DD, defaulting to today.
func (h *Handler) dailyReport(w http.ResponseWriter, r *http.Request) {
	date, err := h.queryDate(r, "date")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	day := h.now()
	if date != nil {
		day = *date
	}
	rep, err := h.Reports.Daily(r.Context(), day)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

// monthlyReport serves ?month=YYYY-MM, defaulting to the current month.
func (h *Handler) monthlyReport(w http.ResponseWriter, r *http.Request) {
	month := h.now().In(h.loc)
	if raw := strings.TrimSpace(r.URL.Query().Get("month")); raw != "" {
		parsed, err := time.ParseInLocation("2006-01", raw, h.loc)
		if err != nil {
			respondError(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		month = parsed
	}
	rep, err := h.Reports.Monthly(r.Context(), month.Year(), month.Month())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

func (h *Handler) inventoryReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.Reports.Inventory(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

// topSelling serves ?window=7d|30d|90d|all.
func (h *Handler) topSelling(w http.ResponseWriter, r *http.Request) {
	window, err := reports.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	rows, err := h.Reports.TopSelling(r.Context(), window)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) financial(w http.ResponseWriter, r *http.Request) {
	rep, err := h.Reports.Financial(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	rep, err := h.Reports.Dashboard(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

