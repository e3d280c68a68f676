package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/op/go-logging"
	"github.com/shopspring/decimal"

	"medeasy/pharmacy/domain"
	"medeasy/pharmacy/internal/alerts"
	"medeasy/pharmacy/internal/store"
)

var log = logging.MustGetLogger("reports")

// Aggregator computes reports. Each report reads inside one transaction, so it
// reflects a single snapshot of the store.
type Aggregator struct {
	store    *store.Store
	loc      *time.Location
	now      func() time.Time
	settings alerts.Settings
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock overrides the time source used for "today" and trailing windows.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithAlertSettings sets the thresholds the dashboard counters use.
func WithAlertSettings(s alerts.Settings) Option {
	return func(a *Aggregator) { a.settings = s }
}

// NewAggregator builds an Aggregator whose calendar days are taken in loc.
func NewAggregator(st *store.Store, loc *time.Location, opts ...Option) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	a := &Aggregator{
		store:    st,
		loc:      loc,
		now:      time.Now,
		settings: alerts.Settings{LowStockThreshold: 20, ExpiryWindowDays: 30},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.settings.Location = loc
	return a
}

// dayBounds returns [midnight, next midnight) of t's calendar day in the reporting location.
func (a *Aggregator) dayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.In(a.loc).Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, a.loc)
	return from, from.AddDate(0, 0, 1)
}

func (a *Aggregator) salesBetween(ctx context.Context, q store.Querier, from, to time.Time) ([]domain.Sale, error) {
	return a.store.ListSales(ctx, q, store.SaleFilter{From: &from, To: &to})
}

// ── Daily ─────────────────────────────────────────────────────────────────────

// Daily reports every sale made on date's calendar day.
func (a *Aggregator) Daily(ctx context.Context, date time.Time) (*DailyReport, error) {
	from, to := a.dayBounds(date)
	sales, err := a.salesBetween(ctx, a.store.DB(), from, to)
	if err != nil {
		return nil, err
	}

	r := &DailyReport{Date: from.Format(domain.DateLayout), Sales: sales, Transactions: len(sales)}
	byName := map[string]*ProductQuantity{}
	for _, s := range sales {
		r.TotalQuantity += s.Quantity
		r.TotalRevenue = r.TotalRevenue.Add(s.Total)

		name := s.MedicineName
		if name == "" {
			name = s.MedicineCode
		}
		p, ok := byName[name]
		if !ok {
			p = &ProductQuantity{Name: name}
			byName[name] = p
		}
		p.Quantity += s.Quantity
		p.Revenue = p.Revenue.Add(s.Total)
	}
	r.AverageSale = mean(r.TotalRevenue, len(sales))

	r.TopProducts = make([]ProductQuantity, 0, len(byName))
	for _, p := range byName {
		r.TopProducts = append(r.TopProducts, *p)
	}
	sort.Slice(r.TopProducts, func(i, j int) bool {
		pi, pj := r.TopProducts[i], r.TopProducts[j]
		if pi.Quantity != pj.Quantity {
			return pi.Quantity > pj.Quantity
		}
		return pi.Name < pj.Name
	})
	if len(r.TopProducts) > topProductsLimit {
		r.TopProducts = r.TopProducts[:topProductsLimit]
	}
	return r, nil
}

// ── Monthly ───────────────────────────────────────────────────────────────────

// Monthly groups the sales of one calendar month by day.
func (a *Aggregator) Monthly(ctx context.Context, year int, month time.Month) (*MonthlyReport, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month must be 1-12", domain.ErrInvalidInput)
	}
	from := time.Date(year, month, 1, 0, 0, 0, 0, a.loc)
	sales, err := a.salesBetween(ctx, a.store.DB(), from, from.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}

	r := &MonthlyReport{Year: year, Month: int(month), Days: make([]DayTotals, 0), Transactions: len(sales)}
	byDay := map[string]*DayTotals{}
	for _, s := range sales {
		key := s.SoldAt.In(a.loc).Format(domain.DateLayout)
		d, ok := byDay[key]
		if !ok {
			d = &DayTotals{Date: key}
			byDay[key] = d
		}
		d.Transactions++
		d.Quantity += s.Quantity
		d.Revenue = d.Revenue.Add(s.Total)

		r.TotalQuantity += s.Quantity
		r.TotalRevenue = r.TotalRevenue.Add(s.Total)
	}
	for _, d := range byDay {
		r.Days = append(r.Days, *d)
	}
	sort.Slice(r.Days, func(i, j int) bool { return r.Days[i].Date < r.Days[j].Date })
	r.DailyAverage = mean(r.TotalRevenue, len(r.Days))
	return r, nil
}

// ── Inventory ─────────────────────────────────────────────────────────────────

// Inventory groups current stock by GroupKey, highest stock value first.
func (a *Aggregator) Inventory(ctx context.Context) (*InventoryReport, error) {
	meds, err := a.store.ListMedicines(ctx, a.store.DB(), store.MedicineFilter{})
	if err != nil {
		return nil, err
	}
	return inventoryReport(meds), nil
}

func inventoryReport(meds []domain.Medicine) *InventoryReport {
	r := &InventoryReport{Groups: make([]InventoryGroup, 0), TotalProducts: len(meds)}
	type acc struct {
		InventoryGroup
		priceSum decimal.Decimal
	}
	groups := map[string]*acc{}
	for _, m := range meds {
		key := GroupKey(m)
		g, ok := groups[key]
		if !ok {
			g = &acc{InventoryGroup: InventoryGroup{Group: key}}
			groups[key] = g
		}
		value := m.StockValue()
		g.Products++
		g.Quantity += m.Quantity
		g.Value = g.Value.Add(value)
		g.priceSum = g.priceSum.Add(m.UnitPrice)

		r.TotalQuantity += m.Quantity
		r.TotalValue = r.TotalValue.Add(value)
	}
	for _, g := range groups {
		g.AveragePrice = mean(g.priceSum, g.Products)
		r.Groups = append(r.Groups, g.InventoryGroup)
	}
	sort.Slice(r.Groups, func(i, j int) bool {
		gi, gj := r.Groups[i], r.Groups[j]
		if c := gi.Value.Cmp(gj.Value); c != 0 {
			return c > 0
		}
		return gi.Group < gj.Group
	})
	return r
}

// ── Top selling ───────────────────────────────────────────────────────────────

// TopSelling ranks medicines by revenue over the trailing window, which starts
// at midnight w days before today. At most ten rows are returned.
func (a *Aggregator) TopSelling(ctx context.Context, w Window) ([]TopSeller, error) {
	if w < 0 {
		return nil, fmt.Errorf("%w: negative window", domain.ErrInvalidInput)
	}
	filter := store.SaleFilter{}
	if w != WindowAllTime {
		today, _ := a.dayBounds(a.now())
		from := today.AddDate(0, 0, -int(w))
		filter.From = &from
	}
	sales, err := a.store.ListSales(ctx, a.store.DB(), filter)
	if err != nil {
		return nil, err
	}

	type acc struct {
		TopSeller
		priceSum decimal.Decimal
	}
	byCode := map[string]*acc{}
	for _, s := range sales {
		t, ok := byCode[s.MedicineCode]
		if !ok {
			t = &acc{TopSeller: TopSeller{Code: s.MedicineCode, Name: s.MedicineName}}
			byCode[s.MedicineCode] = t
		}
		t.Sales++
		t.Quantity += s.Quantity
		t.Revenue = t.Revenue.Add(s.Total)
		t.priceSum = t.priceSum.Add(s.UnitPrice)
	}

	out := make([]TopSeller, 0, len(byCode))
	for _, t := range byCode {
		t.AveragePrice = mean(t.priceSum, t.Sales)
		out = append(out, t.TopSeller)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].Code < out[j].Code
	})
	if len(out) > topSellersLimit {
		out = out[:topSellersLimit]
	}
	return out, nil
}

// ── Financial ─────────────────────────────────────────────────────────────────

// Financial summarizes revenue and stock value from one consistent snapshot.
func (a *Aggregator) Financial(ctx context.Context) (*FinancialSummary, error) {
	now := a.now()
	todayFrom, todayTo := a.dayBounds(now)
	y, m, _ := now.In(a.loc).Date()

	months := make([]MonthTotals, financialMonths)
	starts := make([]time.Time, financialMonths)
	for i := range months {
		starts[i] = time.Date(y, m-time.Month(i), 1, 0, 0, 0, 0, a.loc)
		months[i] = MonthTotals{Month: starts[i].Format("2006-01")}
	}

	r := &FinancialSummary{}
	err := a.store.WithTx(ctx, func(q store.Querier) error {
		sales, err := a.store.ListSales(ctx, q, store.SaleFilter{})
		if err != nil {
			return err
		}
		for _, s := range sales {
			r.AllTimeRevenue = r.AllTimeRevenue.Add(s.Total)
			if !s.SoldAt.Before(todayFrom) && s.SoldAt.Before(todayTo) {
				r.TodayRevenue = r.TodayRevenue.Add(s.Total)
			}
			for i, start := range starts {
				if !s.SoldAt.Before(start) && s.SoldAt.Before(start.AddDate(0, 1, 0)) {
					months[i].Transactions++
					months[i].Revenue = months[i].Revenue.Add(s.Total)
					break
				}
			}
		}

		meds, err := a.store.ListMedicines(ctx, q, store.MedicineFilter{})
		if err != nil {
			return err
		}
		for _, med := range meds {
			r.InventoryValue = r.InventoryValue.Add(med.StockValue())
		}
		r.ProductCount, err = a.store.CountMedicines(ctx, q)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.Months = months
	log.Debugf("financial summary: all-time %s, today %s, inventory %s",
		r.AllTimeRevenue.StringFixed(2), r.TodayRevenue.StringFixed(2), r.InventoryValue.StringFixed(2))
	return r, nil
}

// ── Dashboard ─────────────────────────────────────────────────────────────────

// Dashboard returns the headline counters for today, the seven-day sales
// trend and the most recently added medicines.
func (a *Aggregator) Dashboard(ctx context.Context) (*Dashboard, error) {
	now := a.now()
	from, to := a.dayBounds(now)
	today := domain.CalendarDate(now, a.loc)
	trendFrom := from.AddDate(0, 0, -(trendDays - 1))

	r := &Dashboard{}
	err := a.store.WithTx(ctx, func(q store.Querier) error {
		meds, err := a.store.ListMedicines(ctx, q, store.MedicineFilter{})
		if err != nil {
			return err
		}
		r.TotalMedicines = int64(len(meds))
		r.LowStock = len(alerts.LowStock(meds, a.settings.LowStockThreshold))
		r.Expired = len(alerts.Expired(meds, today))
		r.ExpiringSoon = len(alerts.ExpiringWithin(meds, today, a.settings.ExpiryWindowDays))

		r.RecentMedicines, err = a.store.ListMedicines(ctx, q, store.MedicineFilter{OrderBy: store.OrderByCreated, Limit: recentMedicines})
		if err != nil {
			return err
		}

		sales, err := a.salesBetween(ctx, q, trendFrom, to)
		if err != nil {
			return err
		}
		r.Trend = make([]DayTotals, trendDays)
		index := map[string]int{}
		for i := range r.Trend {
			key := trendFrom.AddDate(0, 0, i).Format(domain.DateLayout)
			r.Trend[i] = DayTotals{Date: key}
			index[key] = i
		}
		for _, s := range sales {
			d := &r.Trend[index[s.SoldAt.In(a.loc).Format(domain.DateLayout)]]
			d.Transactions++
			d.Quantity += s.Quantity
			d.Revenue = d.Revenue.Add(s.Total)
			if !s.SoldAt.Before(from) {
				r.TodaySales++
				r.TodayRevenue = r.TodayRevenue.Add(s.Total)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}
