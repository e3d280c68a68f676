// Package reports aggregates sales and stock records into read-only summaries.
//
// Monetary sums are accumulated as decimal.Decimal and quantities as int64, so
// totals are exact. Means are rounded to cents. An empty scan produces a
// zero-valued report, never an error.
package reports

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"medeasy/pharmacy/domain"
)

// ── Report types ──────────────────────────────────────────────────────────────

// ProductQuantity is one row of the daily top-products breakdown.
type ProductQuantity struct {
	Name     string          `json:"name"`
	Quantity int64           `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// DailyReport covers every sale whose timestamp falls on Date in the reporting location.
type DailyReport struct {
	Date          string            `json:"date"`
	Sales         []domain.Sale     `json:"sales"`
	Transactions  int               `json:"transactions"`
	TotalQuantity int64             `json:"total_quantity"`
	TotalRevenue  decimal.Decimal   `json:"total_revenue"`
	AverageSale   decimal.Decimal   `json:"average_sale"`
	TopProducts   []ProductQuantity `json:"top_products"`
}

// DayTotals aggregates one calendar day.
type DayTotals struct {
	Date         string          `json:"date"`
	Transactions int             `json:"transactions"`
	Quantity     int64           `json:"quantity"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// MonthlyReport groups a month's sales by day. Days without sales are omitted,
// and DailyAverage divides by the number of days that had sales.
type MonthlyReport struct {
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	Days          []DayTotals     `json:"days"`
	Transactions  int             `json:"transactions"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	DailyAverage  decimal.Decimal `json:"daily_average"`
}

// InventoryGroup aggregates the medicines sharing one category.
type InventoryGroup struct {
	Group        string          `json:"group"`
	Products     int             `json:"products"`
	Quantity     int64           `json:"quantity"`
	AveragePrice decimal.Decimal `json:"average_price"`
	Value        decimal.Decimal `json:"value"`
}

// InventoryReport lists groups by descending stock value.
type InventoryReport struct {
	Groups        []InventoryGroup `json:"groups"`
	TotalProducts int              `json:"total_products"`
	TotalQuantity int64            `json:"total_quantity"`
	TotalValue    decimal.Decimal  `json:"total_value"`
}

// TopSeller is one medicine's sales within a window.
type TopSeller struct {
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Sales        int             `json:"sales"`
	Quantity     int64           `json:"quantity"`
	Revenue      decimal.Decimal `json:"revenue"`
	AveragePrice decimal.Decimal `json:"average_price"`
}

// MonthTotals is one calendar month of the financial summary.
type MonthTotals struct {
	Month        string          `json:"month"` // YYYY-MM
	Transactions int             `json:"transactions"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// FinancialSummary is the store-wide money picture. Months holds the last six
// calendar months including the current one, most recent first.
type FinancialSummary struct {
	AllTimeRevenue decimal.Decimal `json:"all_time_revenue"`
	TodayRevenue   decimal.Decimal `json:"today_revenue"`
	InventoryValue decimal.Decimal `json:"inventory_value"`
	ProductCount   int64           `json:"product_count"`
	Months         []MonthTotals   `json:"months"`
}

// Dashboard holds the headline counters of the landing page.
type Dashboard struct {
	TotalMedicines int64           `json:"total_medicines"`
	LowStock       int             `json:"low_stock"`
	Expired        int             `json:"expired"`
	ExpiringSoon   int             `json:"expiring_soon"`
	TodaySales     int             `json:"today_sales"`
	TodayRevenue   decimal.Decimal `json:"today_revenue"`
	// Trend covers the last seven calendar days ending today, oldest first,
	// with zero rows for days without sales.
	Trend           []DayTotals       `json:"trend"`
	RecentMedicines []domain.Medicine `json:"recent_medicines"`
}

// Window is a trailing number of days for the top-selling report. Zero means all time.
type Window int

const (
	WindowAllTime Window = 0
	Window7Days   Window = 7
	Window30Days  Window = 30
	Window90Days  Window = 90
)

// ParseWindow accepts 7d, 30d, 90d or all.
func ParseWindow(s string) (Window, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "7d", "7":
		return Window7Days, nil
	case "", "30d", "30":
		return Window30Days, nil
	case "90d", "90":
		return Window90Days, nil
	case "all":
		return WindowAllTime, nil
	}
	return 0, fmt.Errorf("%w: unknown window %q", domain.ErrInvalidInput, s)
}

const (
	topProductsLimit = 5
	topSellersLimit  = 10
	financialMonths  = 6
	trendDays        = 7
	recentMedicines  = 10
)

// GroupKey is the inventory grouping of m: its category, else the first word of
// its purpose, else "Unspecified".
func GroupKey(m domain.Medicine) string {
	if c := strings.TrimSpace(m.Category); c != "" {
		return c
	}
	if fields := strings.Fields(m.Purpose); len(fields) > 0 {
		if k := strings.Trim(fields[0], ",;.:"); k != "" {
			return k
		}
	}
	return "Unspecified"
}

func mean(sum decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(n))).Round(2)
}
