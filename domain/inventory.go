package domain

import "github.com/shopspring/decimal"

// Priority ranks an alert. Lower rank sorts first.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityNone     Priority = ""
)

// Rank orders priorities critical < high < medium < none.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 1
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 3
	default:
		return 4
	}
}

// AlertKind names the condition that raised an alert.
type AlertKind string

const (
	AlertLowStock     AlertKind = "low_stock"
	AlertExpired      AlertKind = "expired"
	AlertExpiringSoon AlertKind = "expiring_soon"
)

// ExpiringMedicine is a medicine whose expiry falls inside the alert window.
type ExpiringMedicine struct {
	Medicine      Medicine `json:"medicine"`
	DaysRemaining int      `json:"days_remaining"`
}

// Alert is a derived, never persisted, notification about one medicine.
type Alert struct {
	Medicine      Medicine    `json:"medicine"`
	Priority      Priority    `json:"priority"`
	Kinds         []AlertKind `json:"kinds"`
	DaysRemaining *int        `json:"days_remaining,omitempty"`
}

// ReorderLine suggests how many units bring a low-stock medicine back to the threshold.
type ReorderLine struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Quantity      int64           `json:"quantity"`
	Threshold     int64           `json:"threshold"`
	NeedToOrder   int64           `json:"need_to_order"`
	EstimatedCost decimal.Decimal `json:"estimated_cost"`
}
