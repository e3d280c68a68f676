package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MaxQuantity bounds the stock a single medicine may hold.
const MaxQuantity int64 = 1_000_000_000

// DateLayout is the calendar date format used for manufacture and expiry dates.
const DateLayout = "2006-01-02"

// Medicine is a stock record identified by its code.
type Medicine struct {
	Code       string          `db:"code" json:"code"`
	Name       string          `db:"name" json:"name"`
	Quantity   int64           `db:"quantity" json:"quantity"`
	UnitPrice  decimal.Decimal `db:"unit_price" json:"unit_price"`
	MfgDate    *time.Time      `db:"-" json:"mfg_date,omitempty"`
	ExpiryDate *time.Time      `db:"-" json:"expiry_date,omitempty"`
	Purpose    string          `db:"purpose" json:"purpose"`
	Category   string          `db:"category" json:"category,omitempty"`
	Version    int64           `db:"version" json:"-"`
	CreatedAt  time.Time       `db:"-" json:"created_at"`
	UpdatedAt  time.Time       `db:"-" json:"updated_at"`
}

// StockValue is quantity times unit price.
func (m Medicine) StockValue() decimal.Decimal {
	return m.UnitPrice.Mul(decimal.NewFromInt(m.Quantity))
}

// NewMedicine carries the fields accepted by the "add medicine" operation.
type NewMedicine struct {
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Quantity   int64           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	MfgDate    *time.Time      `json:"mfg_date,omitempty"`
	ExpiryDate *time.Time      `json:"expiry_date,omitempty"`
	Purpose    string          `json:"purpose"`
	Category   string          `json:"category,omitempty"`
}

// CalendarDate returns midnight UTC of the calendar date t falls on in loc.
// Values produced this way can be subtracted to get whole days.
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts calendar days from a to b. Both must come from CalendarDate.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// ParseDate parses a YYYY-MM-DD string into a calendar date. Empty input yields nil.
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidInput, s)
	}
	return &t, nil
}
