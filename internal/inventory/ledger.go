package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/op/go-logging"
	"github.com/shopspring/decimal"

	"medeasy/pharmacy/domain"
	"medeasy/pharmacy/internal/store"
)

var log = logging.MustGetLogger("inventory")

// DefaultRetries bounds how often a lost compare-and-set race is retried.
const DefaultRetries = 5

// Ledger owns medicine stock quantities. Every quantity change goes through a
// version-checked update, so concurrent changes to one medicine are linearized.
type Ledger struct {
	store      *store.Store
	maxRetries int
}

// NewLedger constructs a Ledger. maxRetries <= 0 selects DefaultRetries.
func NewLedger(st *store.Store, maxRetries int) *Ledger {
	if maxRetries <= 0 {
		maxRetries = DefaultRetries
	}
	return &Ledger{store: st, maxRetries: maxRetries}
}

// AddMedicine validates and stores a new medicine record.
func (l *Ledger) AddMedicine(ctx context.Context, in domain.NewMedicine) (*domain.Medicine, error) {
	m := domain.Medicine{
		Code:       strings.TrimSpace(in.Code),
		Name:       strings.TrimSpace(in.Name),
		Quantity:   in.Quantity,
		UnitPrice:  in.UnitPrice,
		MfgDate:    in.MfgDate,
		ExpiryDate: in.ExpiryDate,
		Purpose:    strings.TrimSpace(in.Purpose),
		Category:   strings.TrimSpace(in.Category),
	}
	if err := validateMedicine(m); err != nil {
		return nil, err
	}
	if err := l.store.InsertMedicine(ctx, l.store.DB(), &m); err != nil {
		return nil, err
	}
	log.Infof("added medicine %s (%s) qty=%d price=%s", m.Code, m.Name, m.Quantity, m.UnitPrice.StringFixed(2))
	return &m, nil
}

func validateMedicine(m domain.Medicine) error {
	switch {
	case m.Code == "":
		return fmt.Errorf("%w: code is required", domain.ErrInvalidInput)
	case m.Name == "":
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	case m.Quantity < 0 || m.Quantity > domain.MaxQuantity:
		return fmt.Errorf("%w: quantity must be between 0 and %d", domain.ErrInvalidInput, domain.MaxQuantity)
	case m.UnitPrice.IsNegative():
		return fmt.Errorf("%w: unit price cannot be negative", domain.ErrInvalidInput)
	case m.MfgDate != nil && m.ExpiryDate != nil && m.ExpiryDate.Before(*m.MfgDate):
		return fmt.Errorf("%w: expiry date precedes manufacture date", domain.ErrInvalidInput)
	}
	return nil
}

// Get returns one medicine by code.
func (l *Ledger) Get(ctx context.Context, code string) (*domain.Medicine, error) {
	return l.store.GetMedicine(ctx, l.store.DB(), code)
}

// CurrentStock returns the live quantity on hand.
func (l *Ledger) CurrentStock(ctx context.Context, code string) (int64, error) {
	m, err := l.store.GetMedicine(ctx, l.store.DB(), code)
	if err != nil {
		return 0, err
	}
	return m.Quantity, nil
}

// ReserveAndDecrement takes quantity units out of stock in its own transaction
// and returns the new stock level.
func (l *Ledger) ReserveAndDecrement(ctx context.Context, code string, quantity int64) (int64, error) {
	var remaining int64
	err := l.store.WithTx(ctx, func(q store.Querier) error {
		m, err := l.ReserveAndDecrementTx(ctx, q, code, quantity)
		if err != nil {
			return err
		}
		remaining = m.Quantity
		return nil
	})
	return remaining, err
}

// ReserveAndDecrementTx is ReserveAndDecrement within the caller's transaction.
// It returns the medicine as written, so callers can snapshot the price of the
// exact version they decremented.
func (l *Ledger) ReserveAndDecrementTx(ctx context.Context, q store.Querier, code string, quantity int64) (*domain.Medicine, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %d", domain.ErrInvalidInput, quantity)
	}
	return l.update(ctx, q, code, func(m *domain.Medicine) error {
		if quantity > m.Quantity {
			return fmt.Errorf("%w: %s has %d on hand, requested %d", domain.ErrInsufficientStock, code, m.Quantity, quantity)
		}
		m.Quantity -= quantity
		return nil
	})
}

// Restock adds delta units and returns the new stock level.
func (l *Ledger) Restock(ctx context.Context, code string, delta int64) (int64, error) {
	if delta <= 0 {
		return 0, fmt.Errorf("%w: restock quantity must be positive, got %d", domain.ErrInvalidInput, delta)
	}
	var remaining int64
	err := l.store.WithTx(ctx, func(q store.Querier) error {
		m, err := l.update(ctx, q, code, func(m *domain.Medicine) error {
			if m.Quantity > domain.MaxQuantity-delta {
				return fmt.Errorf("%w: restocking %s by %d exceeds %d units", domain.ErrInvalidInput, code, delta, domain.MaxQuantity)
			}
			m.Quantity += delta
			return nil
		})
		if err != nil {
			return err
		}
		remaining = m.Quantity
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Infof("restocked %s by %d, now %d", code, delta, remaining)
	return remaining, nil
}

// SetPrice changes the current unit price. Recorded sales keep their own price.
func (l *Ledger) SetPrice(ctx context.Context, code string, price decimal.Decimal) (*domain.Medicine, error) {
	if price.IsNegative() {
		return nil, fmt.Errorf("%w: unit price cannot be negative", domain.ErrInvalidInput)
	}
	var updated *domain.Medicine
	err := l.store.WithTx(ctx, func(q store.Querier) error {
		var err error
		updated, err = l.update(ctx, q, code, func(m *domain.Medicine) error {
			m.UnitPrice = price
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Infof("price of %s set to %s", code, price.StringFixed(2))
	return updated, nil
}

// Search does a case-insensitive partial match over name, code and purpose.
func (l *Ledger) Search(ctx context.Context, query string) ([]domain.Medicine, error) {
	return l.store.ListMedicines(ctx, l.store.DB(), store.MedicineFilter{Search: query, OrderBy: store.OrderByName})
}

// List scans medicines with an arbitrary filter.
func (l *Ledger) List(ctx context.Context, filter store.MedicineFilter) ([]domain.Medicine, error) {
	return l.store.ListMedicines(ctx, l.store.DB(), filter)
}

// update re-reads the record and retries the conditional write while it keeps losing races.
func (l *Ledger) update(ctx context.Context, q store.Querier, code string, mutate func(m *domain.Medicine) error) (*domain.Medicine, error) {
	var lastErr error
	for attempt := 1; attempt <= l.maxRetries; attempt++ {
		current, err := l.store.GetMedicine(ctx, q, code)
		if err != nil {
			return nil, err
		}
		updated, err := l.store.UpdateMedicine(ctx, q, code, current.Version, mutate)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, domain.ErrPreconditionFailed) {
			return nil, err
		}
		lastErr = err
		log.Debugf("update of %s lost a race (attempt %d/%d)", code, attempt, l.maxRetries)
	}
	log.Warningf("giving up on %s after %d attempts", code, l.maxRetries)
	return nil, fmt.Errorf("update %s after %d attempts: %w", code, l.maxRetries, lastErr)
}
