package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"medeasy/pharmacy/domain"
	"medeasy/pharmacy/internal/alerts"
	"medeasy/pharmacy/internal/api"
	"medeasy/pharmacy/internal/auth"
	"medeasy/pharmacy/internal/inventory"
	"medeasy/pharmacy/internal/reports"
	"medeasy/pharmacy/internal/sales"
	"medeasy/pharmacy/internal/seed"
	"medeasy/pharmacy/internal/store/storetest"
)

var now = time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)

type server struct {
	t      *testing.T
	srv    *httptest.Server
	ledger *inventory.Ledger
	tokens map[string]string
}

func newServer(t *testing.T) *server {
	ctx := context.Background()
	st := storetest.Open(t)
	clock := func() time.Time { return now }
	settings := alerts.Settings{LowStockThreshold: 20, ExpiryWindowDays: 30, Location: time.UTC}

	ledger := inventory.NewLedger(st, 0)
	gate := auth.NewGate(st, "test-secret", auth.WithBcryptCost(bcrypt.MinCost), auth.WithClock(clock))
	_, err := seed.Users(ctx, st, gate)
	require.NoError(t, err)

	h := api.New(api.Services{
		Ledger:  ledger,
		Sales:   sales.NewProcessor(st, ledger, sales.WithClock(clock)),
		Alerts:  alerts.NewEngine(ledger, settings),
		Reports: reports.NewAggregator(st, time.UTC, reports.WithClock(clock), reports.WithAlertSettings(settings)),
		Gate:    gate,
	}, api.WithClock(clock))

	s := &server{t: t, srv: httptest.NewServer(h.Router()), ledger: ledger, tokens: map[string]string{}}
	t.Cleanup(s.srv.Close)
	return s
}

func (s *server) do(method, path, user string, body any) (*http.Response, []byte) {
	s.t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		rdr = bytes.NewReader(raw)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, rdr)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(user))
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(s.t, err)
	return resp, buf.Bytes()
}

var passwords = map[string]string{
	"admin": "admin123", "pharmacist": "pharma123", "cashier": "cash123", "manager": "manager123",
}

func (s *server) token(user string) string {
	if tok, ok := s.tokens[user]; ok {
		return tok
	}
	resp, body := s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"username": user, "password": passwords[user], "role": user,
	})
	require.Equal(s.t, http.StatusOK, resp.StatusCode, string(body))
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(body, &out))
	s.tokens[user] = out.Token
	return out.Token
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	resp, _ := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	s := newServer(t)

	resp, body := s.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "cashier", "password": "cash123", "role": "cashier"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[struct {
		Token    string          `json:"token"`
		Operator domain.Operator `json:"operator"`
	}](t, body)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, "Alice Cashier", out.Operator.DisplayName)

	resp, _ = s.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "cashier", "password": "cash123", "role": "admin"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "cashier", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/medicines", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/auth/me", "manager", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.RoleManager, decode[domain.Operator](t, body).Role)
}

func TestMedicineLifecycle(t *testing.T) {
	s := newServer(t)

	resp, body := s.do(http.MethodPost, "/medicines", "pharmacist", map[string]any{
		"code": "M001", "name": "Paracetamol", "quantity": 50, "unit_price": "10.00",
		"expiry_date": "2026-10-27", "purpose": "Pain relief",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, _ = s.do(http.MethodPost, "/medicines", "pharmacist", map[string]any{"code": "M001", "name": "Dup", "quantity": 1, "unit_price": "1"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = s.do(http.MethodPost, "/medicines", "pharmacist", map[string]any{"code": "M009", "name": "Bad", "quantity": 1, "unit_price": "1", "expiry_date": "27/10/2026"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(http.MethodPost, "/medicines", "cashier", map[string]any{"code": "M002", "name": "X", "quantity": 1, "unit_price": "1"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = s.do(http.MethodPost, "/medicines/M001/restock", "manager", map[string]int{"quantity": 25})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.EqualValues(t, 75, decode[map[string]any](t, body)["quantity"])

	resp, _ = s.do(http.MethodPost, "/medicines/NOPE/restock", "manager", map[string]int{"quantity": 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = s.do(http.MethodPut, "/medicines/M001/price", "admin", map[string]string{"unit_price": "12.50"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = s.do(http.MethodGet, "/medicines/M001", "cashier", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	m := decode[domain.Medicine](t, body)
	assert.Equal(t, int64(75), m.Quantity)
	assert.True(t, m.UnitPrice.Equal(decimal.RequireFromString("12.50")))

	resp, body = s.do(http.MethodGet, "/medicines?q=pain", "cashier", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]domain.Medicine](t, body), 1)
}

func TestListMedicinesOrder(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()
	for _, code := range []string{"B", "C", "A"} {
		_, err := s.ledger.AddMedicine(ctx, domain.NewMedicine{Code: code, Name: "Med " + code, Quantity: 1, UnitPrice: decimal.RequireFromString("1.00")})
		require.NoError(t, err)
	}
	codes := func(body []byte) []string {
		var out []string
		for _, m := range decode[[]domain.Medicine](t, body) {
			out = append(out, m.Code)
		}
		return out
	}

	resp, body := s.do(http.MethodGet, "/medicines?order=recent", "cashier", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"A", "C", "B"}, codes(body))

	resp, body = s.do(http.MethodGet, "/medicines?order=recent&limit=2", "cashier", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"A", "C"}, codes(body))

	resp, body = s.do(http.MethodGet, "/medicines", "cashier", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"A", "B", "C"}, codes(body))

	resp, _ = s.do(http.MethodGet, "/medicines?order=price", "cashier", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSaleFlow(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()
	_, err := s.ledger.AddMedicine(ctx, domain.NewMedicine{Code: "M001", Name: "Paracetamol", Quantity: 50, UnitPrice: decimal.RequireFromString("10.00")})
	require.NoError(t, err)
	_, err = s.ledger.AddMedicine(ctx, domain.NewMedicine{Code: "M002", Name: "Amoxicillin", Quantity: 3, UnitPrice: decimal.RequireFromString("4.00")})
	require.NoError(t, err)

	resp, body := s.do(http.MethodPost, "/sales", "cashier", map[string]any{"medicine_code": "M001", "quantity": 5})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	receipt := decode[domain.SaleReceipt](t, body)
	assert.Equal(t, "50.00", receipt.Total.StringFixed(2))
	assert.Equal(t, int64(45), receipt.RemainingStock)
	assert.Equal(t, "Alice Cashier", receipt.Operator.DisplayName)

	resp, _ = s.do(http.MethodPost, "/sales", "cashier", map[string]any{"medicine_code": "M002", "quantity": 5})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = s.do(http.MethodPost, "/sales", "cashier", map[string]any{"medicine_code": "M002", "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(http.MethodPost, "/sales", "manager", map[string]any{"medicine_code": "M001", "quantity": 1})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/sales", "cashier", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]domain.Sale](t, body), 1)

	resp, body = s.do(http.MethodGet, "/sales?from=2026-10-17&to=2026-10-17", "cashier", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]domain.Sale](t, body), 1)

	resp, body = s.do(http.MethodGet, "/sales?from=2026-10-18", "cashier", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]domain.Sale](t, body))

	resp, body = s.do(http.MethodGet, "/sales/1", "cashier", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "M001", decode[domain.Sale](t, body).MedicineCode)

	resp, _ = s.do(http.MethodGet, "/sales/99", "cashier", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/sales/abc", "cashier", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAlertsAndReports(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()
	soon := time.Date(2026, 10, 22, 0, 0, 0, 0, time.UTC)
	_, err := s.ledger.AddMedicine(ctx, domain.NewMedicine{Code: "M001", Name: "Paracetamol", Quantity: 50, UnitPrice: decimal.RequireFromString("10.00"), ExpiryDate: &soon})
	require.NoError(t, err)
	_, err = s.ledger.AddMedicine(ctx, domain.NewMedicine{Code: "M002", Name: "Amoxicillin", Quantity: 5, UnitPrice: decimal.RequireFromString("4.00")})
	require.NoError(t, err)

	resp, body := s.do(http.MethodGet, "/alerts/expiring", "cashier", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	expiring := decode[[]domain.ExpiringMedicine](t, body)
	require.Len(t, expiring, 1)
	assert.Equal(t, 5, expiring[0].DaysRemaining)

	resp, body = s.do(http.MethodGet, "/alerts/low-stock?threshold=10", "cashier", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]domain.Medicine](t, body), 1)

	resp, _ = s.do(http.MethodGet, "/alerts/low-stock?threshold=-1", "cashier", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/alerts", "cashier", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	all := decode[[]domain.Alert](t, body)
	require.Len(t, all, 2)
	assert.Equal(t, domain.PriorityHigh, all[0].Priority)

	resp, body = s.do(http.MethodGet, "/alerts/reorder", "manager", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reorder := decode[[]domain.ReorderLine](t, body)
	require.Len(t, reorder, 1)
	assert.Equal(t, int64(15), reorder[0].NeedToOrder)

	resp, _ = s.do(http.MethodPost, "/sales", "pharmacist", map[string]any{"medicine_code": "M001", "quantity": 10})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/reports/financial", "manager", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fin := decode[reports.FinancialSummary](t, body)
	assert.Equal(t, "100.00", fin.AllTimeRevenue.StringFixed(2))
	assert.Equal(t, "420.00", fin.InventoryValue.StringFixed(2))
	assert.Equal(t, int64(2), fin.ProductCount)

	resp, body = s.do(http.MethodGet, "/reports/daily?date=2026-10-17", "manager", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[reports.DailyReport](t, body).Transactions)

	resp, body = s.do(http.MethodGet, "/reports/monthly?month=2026-10", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[reports.MonthlyReport](t, body).Days, 1)

	resp, _ = s.do(http.MethodGet, "/reports/monthly?month=October", "admin", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/reports/top-selling?window=7d", "pharmacist", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]reports.TopSeller](t, body), 1)

	resp, _ = s.do(http.MethodGet, "/reports/top-selling?window=1y", "pharmacist", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/reports/inventory", "manager", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/reports/dashboard", "manager", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	dash := decode[reports.Dashboard](t, body)
	assert.Equal(t, int64(2), dash.TotalMedicines)
	assert.Equal(t, 1, dash.TodaySales)
	require.Len(t, dash.Trend, 7)
	assert.Equal(t, "100.00", dash.Trend[6].Revenue.StringFixed(2))
	require.Len(t, dash.RecentMedicines, 2)
	assert.Equal(t, "M002", dash.RecentMedicines[0].Code)

	resp, _ = s.do(http.MethodGet, "/reports/financial", "cashier", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUserAdministration(t *testing.T) {
	s := newServer(t)

	resp, _ := s.do(http.MethodPost, "/users", "manager", map[string]string{"username": "x", "password": "secret1", "role": "cashier", "full_name": "X"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := s.do(http.MethodPost, "/users", "admin", map[string]string{"username": "cashier2", "password": "secret1", "role": "cashier", "full_name": "Second Cashier"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.NotContains(t, string(body), "secret1")
	assert.NotContains(t, string(body), "password")

	resp, _ = s.do(http.MethodPost, "/users", "admin", map[string]string{"username": "cashier2", "password": "secret1", "role": "cashier", "full_name": "Again"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = s.do(http.MethodPost, "/users", "admin", map[string]string{"username": "x", "password": "secret1", "role": "owner", "full_name": "X"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/users", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]domain.User](t, body), 5)

	resp, _ = s.do(http.MethodPost, "/auth/change-password", "cashier", map[string]string{"new_password": "brand-new"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = s.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "cashier", "password": "brand-new"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
