package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/op/go-logging"

	"medeasy/pharmacy/domain"
	"medeasy/pharmacy/internal/alerts"
	"medeasy/pharmacy/internal/auth"
	"medeasy/pharmacy/internal/inventory"
	"medeasy/pharmacy/internal/reports"
	"medeasy/pharmacy/internal/sales"
)

var log = logging.MustGetLogger("api")

type ctxKey string

const ctxOperator ctxKey = "operator"

var (
	sellRoles   = []domain.Role{domain.RoleAdmin, domain.RolePharmacist, domain.RoleCashier}
	stockRoles  = []domain.Role{domain.RoleAdmin, domain.RolePharmacist, domain.RoleManager}
	reportRoles = []domain.Role{domain.RoleAdmin, domain.RoleManager, domain.RolePharmacist}
)

// Services are the core components the HTTP layer calls into.
type Services struct {
	Ledger  *inventory.Ledger
	Sales   *sales.Processor
	Alerts  *alerts.Engine
	Reports *reports.Aggregator
	Gate    *auth.Gate
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	Services
	corsOrigins []string
	loc         *time.Location
	now         func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithCORSOrigins sets the allowed browser origins.
func WithCORSOrigins(origins []string) Option {
	return func(h *Handler) { h.corsOrigins = origins }
}

// WithLocation sets the zone used to interpret YYYY-MM-DD query parameters.
func WithLocation(loc *time.Location) Option {
	return func(h *Handler) { h.loc = loc }
}

// WithClock overrides "now" for alert queries.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// New constructs a Handler.
func New(svc Services, opts ...Option) *Handler {
	h := &Handler{Services: svc, corsOrigins: []string{"*"}, loc: time.UTC, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.login)
		r.Group(func(protected chi.Router) {
			protected.Use(h.authMiddleware)
			protected.Get("/me", h.me)
			protected.Post("/change-password", h.changePassword)
		})
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.Route("/medicines", func(r chi.Router) {
			r.Get("/", h.listMedicines)
			r.Get("/{code}", h.getMedicine)
			r.With(requireRole(stockRoles...)).Post("/", h.addMedicine)
			r.With(requireRole(stockRoles...)).Post("/{code}/restock", h.restock)
			r.With(requireRole(stockRoles...)).Put("/{code}/price", h.setPrice)
		})

		pr.Route("/sales", func(r chi.Router) {
			r.With(requireRole(sellRoles...)).Post("/", h.createSale)
			r.Get("/", h.listSales)
			r.Get("/{id}", h.getSale)
		})

		pr.Route("/alerts", func(r chi.Router) {
			r.Get("/", h.allAlerts)
			r.Get("/low-stock", h.lowStock)
			r.Get("/expired", h.expired)
			r.Get("/expiring", h.expiring)
			r.Get("/reorder", h.reorder)
		})

		pr.Route("/reports", func(r chi.Router) {
			r.Use(requireRole(reportRoles...))
			r.Get("/daily", h.dailyReport)
			r.Get("/monthly", h.monthlyReport)
			r.Get("/inventory", h.inventoryReport)
			r.Get("/top-selling", h.topSelling)
			r.Get("/financial", h.financial)
			r.Get("/dashboard", h.dashboard)
		})

		pr.Route("/users", func(r chi.Router) {
			r.Use(requireRole(domain.RoleAdmin))
			r.Get("/", h.listUsers)
			r.Post("/", h.createUser)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Authentication helpers

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		op, err := h.Gate.ParseToken(strings.TrimSpace(header[len("Bearer "):]))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxOperator, op)))
	})
}

func operatorFrom(ctx context.Context) (domain.Operator, bool) {
	op, ok := ctx.Value(ctxOperator).(domain.Operator)
	return op, ok
}

func requireRole(allowed ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			op, ok := operatorFrom(r.Context())
			if !ok {
				respondError(w, http.StatusUnauthorized, "missing operator")
				return
			}
			if !op.Can(allowed...) {
				respondError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Helpers

// statusFor maps the domain error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPreconditionFailed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		log.Errorf("%s %s [%s]: %v", r.Method, r.URL.Path, middleware.GetReqID(r.Context()), err)
		if status == http.StatusInternalServerError {
			msg = "internal error"
		}
	}
	respondError(w, status, msg)
}

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func queryInt(r *http.Request, key string, def int64) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
	}
	return n, nil
}

// queryDate parses a YYYY-MM-DD parameter as midnight in the handler's location.
func (h *Handler) queryDate(r *http.Request, key string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(domain.DateLayout, raw, h.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", domain.ErrInvalidInput, key)
	}
	return &t, nil
}
