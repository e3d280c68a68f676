package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/op/go-logging"

	"medeasy/pharmacy/domain"
	"medeasy/pharmacy/internal/store"
)

var log = logging.MustGetLogger("alerts")

// Source scans medicines. *inventory.Ledger satisfies it.
type Source interface {
	List(ctx context.Context, filter store.MedicineFilter) ([]domain.Medicine, error)
}

// Engine answers alert queries against the live medicine records.
type Engine struct {
	source   Source
	settings Settings
}

// NewEngine builds an Engine over source. A nil Location means UTC.
func NewEngine(source Source, settings Settings) *Engine {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	return &Engine{source: source, settings: settings}
}

// Settings returns the configured thresholds.
func (e *Engine) Settings() Settings {
	return e.settings
}

// LowStock returns medicines with quantity <= threshold, lowest first.
func (e *Engine) LowStock(ctx context.Context, threshold int64) ([]domain.Medicine, error) {
	if threshold < 0 {
		return nil, fmt.Errorf("%w: threshold cannot be negative", domain.ErrInvalidInput)
	}
	meds, err := e.source.List(ctx, store.MedicineFilter{MaxQuantity: &threshold, OrderBy: store.OrderByQuantity})
	if err != nil {
		return nil, err
	}
	return LowStock(meds, threshold), nil
}

// Expired returns in-stock medicines whose expiry date is before asOf's calendar day.
func (e *Engine) Expired(ctx context.Context, asOf time.Time) ([]domain.Medicine, error) {
	meds, err := e.withExpiry(ctx)
	if err != nil {
		return nil, err
	}
	return Expired(meds, e.settings.today(asOf)), nil
}

// ExpiringWithin returns medicines expiring within windowDays of asOf, with days remaining.
func (e *Engine) ExpiringWithin(ctx context.Context, asOf time.Time, windowDays int) ([]domain.ExpiringMedicine, error) {
	if windowDays < 0 {
		return nil, fmt.Errorf("%w: window cannot be negative", domain.ErrInvalidInput)
	}
	meds, err := e.withExpiry(ctx)
	if err != nil {
		return nil, err
	}
	return ExpiringWithin(meds, e.settings.today(asOf), windowDays), nil
}

// Classify returns the priority of m as of asOf, or domain.PriorityNone.
func (e *Engine) Classify(m domain.Medicine, asOf time.Time) domain.Priority {
	a, _ := Classify(m, e.settings.today(asOf), e.settings)
	return a.Priority
}

// All is the combined alert listing, critical first.
func (e *Engine) All(ctx context.Context, asOf time.Time) ([]domain.Alert, error) {
	meds, err := e.source.List(ctx, store.MedicineFilter{})
	if err != nil {
		return nil, err
	}
	alerts := Combined(meds, e.settings.today(asOf), e.settings)
	log.Debugf("%d alerts over %d medicines", len(alerts), len(meds))
	return alerts, nil
}

// ReorderSuggestions lists low-stock medicines with the units and cost needed to reach threshold.
func (e *Engine) ReorderSuggestions(ctx context.Context, threshold int64) ([]domain.ReorderLine, error) {
	low, err := e.LowStock(ctx, threshold)
	if err != nil {
		return nil, err
	}
	return Reorder(low, threshold), nil
}

func (e *Engine) withExpiry(ctx context.Context) ([]domain.Medicine, error) {
	return e.source.List(ctx, store.MedicineFilter{HasExpiry: true, OrderBy: store.OrderByExpiry})
}
