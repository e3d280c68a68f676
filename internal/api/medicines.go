package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"medeasy/pharmacy/domain"
	"medeasy/pharmacy/internal/store"
)

type medicineRequest struct {
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Quantity   int64           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	MfgDate    string          `json:"mfg_date,omitempty"`
	ExpiryDate string          `json:"expiry_date,omitempty"`
	Purpose    string          `json:"purpose"`
	Category   string          `json:"category,omitempty"`
}

func (req medicineRequest) toNewMedicine() (domain.NewMedicine, error) {
	mfg, err := domain.ParseDate(req.MfgDate)
	if err != nil {
		return domain.NewMedicine{}, err
	}
	expiry, err := domain.ParseDate(req.ExpiryDate)
	if err != nil {
		return domain.NewMedicine{}, err
	}
	return domain.NewMedicine{
		Code:       req.Code,
		Name:       req.Name,
		Quantity:   req.Quantity,
		UnitPrice:  req.UnitPrice,
		MfgDate:    mfg,
		ExpiryDate: expiry,
		Purpose:    req.Purpose,
		Category:   req.Category,
	}, nil
}

var medicineOrders = map[string]store.MedicineOrder{
	"name":     store.OrderByName,
	"code":     store.OrderByCode,
	"quantity": store.OrderByQuantity,
	"expiry":   store.OrderByExpiry,
	"recent":   store.OrderByCreated,
}

// listMedicines serves ?q= substring search, ?in_stock=true, ?order= and ?limit=.
func (h *Handler) listMedicines(w http.ResponseWriter, r *http.Request) {
	filter := store.MedicineFilter{Search: r.URL.Query().Get("q"), OrderBy: store.OrderByName}
	if raw := r.URL.Query().Get("order"); raw != "" {
		order, ok := medicineOrders[raw]
		if !ok {
			respondError(w, http.StatusBadRequest, "order must be one of name, code, quantity, expiry, recent")
			return
		}
		filter.OrderBy = order
	}
	if raw := r.URL.Query().Get("in_stock"); raw != "" {
		inStock, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "in_stock must be a boolean")
			return
		}
		filter.InStockOnly = inStock
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	filter.Limit = int(limit)

	meds, err := h.Ledger.List(r.Context(), filter)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, meds)
}

func (h *Handler) getMedicine(w http.ResponseWriter, r *http.Request) {
	m, err := h.Ledger.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (h *Handler) addMedicine(w http.ResponseWriter, r *http.Request) {
	var req medicineRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	in, err := req.toNewMedicine()
	if err != nil {
		respondErr(w, r, err)
		return
	}
	m, err := h.Ledger.AddMedicine(r.Context(), in)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

func (h *Handler) restock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int64 `json:"quantity"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	code := chi.URLParam(r, "code")
	qty, err := h.Ledger.Restock(r.Context(), code, req.Quantity)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"code": code, "quantity": qty})
}

func (h *Handler) setPrice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UnitPrice decimal.Decimal `json:"unit_price"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	m, err := h.Ledger.SetPrice(r.Context(), chi.URLParam(r, "code"), req.UnitPrice)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}
