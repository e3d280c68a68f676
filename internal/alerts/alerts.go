// Package alerts derives low-stock and expiry alerts from current stock records.
// Nothing here is persisted; every call recomputes from a fresh scan.
package alerts

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"medeasy/pharmacy/domain"
)

// UrgentDays is the expiry horizon at or under which an expiring medicine is high priority.
const UrgentDays = 7

// Settings are the deployment-level alert thresholds.
type Settings struct {
	LowStockThreshold int64
	ExpiryWindowDays  int
	// Location decides which calendar day "today" is. Nil means UTC.
	Location *time.Location
}

func (s Settings) today(asOf time.Time) time.Time {
	return domain.CalendarDate(asOf, s.Location)
}

// LowStock keeps medicines with quantity <= threshold, lowest quantity first.
func LowStock(meds []domain.Medicine, threshold int64) []domain.Medicine {
	out := make([]domain.Medicine, 0)
	for _, m := range meds {
		if m.Quantity <= threshold {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity < out[j].Quantity
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// Expired keeps medicines still in stock whose expiry date is before today.
func Expired(meds []domain.Medicine, today time.Time) []domain.Medicine {
	out := make([]domain.Medicine, 0)
	for _, m := range meds {
		if isExpired(m, today) {
			out = append(out, m)
		}
	}
	sortByExpiry(out)
	return out
}

// ExpiringWithin keeps medicines expiring in [today, today+windowDays], soonest first.
func ExpiringWithin(meds []domain.Medicine, today time.Time, windowDays int) []domain.ExpiringMedicine {
	out := make([]domain.ExpiringMedicine, 0)
	for _, m := range meds {
		if days, ok := daysToExpiry(m, today, windowDays); ok {
			out = append(out, domain.ExpiringMedicine{Medicine: m, DaysRemaining: days})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DaysRemaining != out[j].DaysRemaining {
			return out[i].DaysRemaining < out[j].DaysRemaining
		}
		return out[i].Medicine.Code < out[j].Medicine.Code
	})
	return out
}

// Classify combines the individual checks into one alert for m.
// ok is false when m raises no alert at all.
func Classify(m domain.Medicine, today time.Time, s Settings) (alert domain.Alert, ok bool) {
	alert = domain.Alert{Medicine: m, Priority: domain.PriorityNone}

	expired := isExpired(m, today)
	low := m.Quantity <= s.LowStockThreshold
	days, expiring := daysToExpiry(m, today, s.ExpiryWindowDays)

	if expired {
		alert.Kinds = append(alert.Kinds, domain.AlertExpired)
	}
	if low {
		alert.Kinds = append(alert.Kinds, domain.AlertLowStock)
	}
	if expiring {
		alert.Kinds = append(alert.Kinds, domain.AlertExpiringSoon)
		alert.DaysRemaining = &days
	}

	switch {
	case expired:
		alert.Priority = domain.PriorityCritical
	case low || (expiring && days <= UrgentDays):
		alert.Priority = domain.PriorityHigh
	case expiring:
		alert.Priority = domain.PriorityMedium
	}
	return alert, alert.Priority != domain.PriorityNone
}

// Combined classifies every medicine and orders the alerts critical, high, medium.
func Combined(meds []domain.Medicine, today time.Time, s Settings) []domain.Alert {
	out := make([]domain.Alert, 0)
	for _, m := range meds {
		if a, ok := Classify(m, today, s); ok {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Priority.Rank(), out[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return out[i].Medicine.Code < out[j].Medicine.Code
	})
	return out
}

// Reorder suggests topping each low-stock medicine back up to the threshold.
func Reorder(meds []domain.Medicine, threshold int64) []domain.ReorderLine {
	low := LowStock(meds, threshold)
	out := make([]domain.ReorderLine, 0, len(low))
	for _, m := range low {
		need := threshold - m.Quantity
		if need < 0 {
			need = 0
		}
		out = append(out, domain.ReorderLine{
			Code:          m.Code,
			Name:          m.Name,
			Quantity:      m.Quantity,
			Threshold:     threshold,
			NeedToOrder:   need,
			EstimatedCost: m.UnitPrice.Mul(decimal.NewFromInt(need)),
		})
	}
	return out
}

// expiryDay reads the expiry date in the zone it was written in, so a zoned
// date keeps its calendar day.
func expiryDay(m domain.Medicine) time.Time {
	return domain.CalendarDate(*m.ExpiryDate, nil)
}

func isExpired(m domain.Medicine, today time.Time) bool {
	return m.ExpiryDate != nil && m.Quantity > 0 && expiryDay(m).Before(today)
}

func daysToExpiry(m domain.Medicine, today time.Time, windowDays int) (int, bool) {
	if m.ExpiryDate == nil {
		return 0, false
	}
	days := domain.DaysBetween(today, expiryDay(m))
	if days < 0 || days > windowDays {
		return 0, false
	}
	return days, true
}

func sortByExpiry(meds []domain.Medicine) {
	sort.SliceStable(meds, func(i, j int) bool {
		a, b := expiryDay(meds[i]), expiryDay(meds[j])
		if !a.Equal(b) {
			return a.Before(b)
		}
		return meds[i].Code < meds[j].Code
	})
}
