package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/op/go-logging"

	"medeasy/pharmacy/domain"
	"medeasy/pharmacy/internal/inventory"
	"medeasy/pharmacy/internal/store"
)

var log = logging.MustGetLogger("sales")

// Processor records sales: stock decrement and sale append commit together or not at all.
type Processor struct {
	store  *store.Store
	ledger *inventory.Ledger
	now    func() time.Time
}

// Option configures a Processor.
type Option func(*Processor)

// WithClock overrides the time source used to stamp sales.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// NewProcessor builds a Processor that decrements stock through ledger.
func NewProcessor(st *store.Store, ledger *inventory.Ledger, opts ...Option) *Processor {
	p := &Processor{store: st, ledger: ledger, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessSale sells req.Quantity units of req.MedicineCode on behalf of operator.
//
// Validation failures return domain.ErrInvalidInput before anything is touched.
// domain.ErrNotFound and domain.ErrInsufficientStock leave stock and the sales
// table exactly as they were. If the sale record cannot be appended the stock
// decrement is rolled back with it.
func (p *Processor) ProcessSale(ctx context.Context, req domain.SaleRequest, operator domain.Operator) (*domain.SaleReceipt, error) {
	code := strings.TrimSpace(req.MedicineCode)
	switch {
	case code == "":
		return nil, fmt.Errorf("%w: medicine code is required", domain.ErrInvalidInput)
	case req.Quantity <= 0:
		return nil, fmt.Errorf("%w: quantity must be positive, got %d", domain.ErrInvalidInput, req.Quantity)
	case req.Discount.IsNegative():
		return nil, fmt.Errorf("%w: discount cannot be negative", domain.ErrInvalidInput)
	case operator.UserID <= 0:
		return nil, fmt.Errorf("%w: operator is required", domain.ErrInvalidInput)
	}

	var receipt *domain.SaleReceipt
	err := p.store.WithTx(ctx, func(q store.Querier) error {
		med, err := p.ledger.ReserveAndDecrementTx(ctx, q, code, req.Quantity)
		if err != nil {
			return err
		}

		subtotal, total := domain.SaleTotal(req.Quantity, med.UnitPrice, req.Discount)

		soldAt, err := p.timestamp(ctx, q)
		if err != nil {
			return err
		}

		sale := &domain.Sale{
			MedicineCode: med.Code,
			MedicineName: med.Name,
			Quantity:     req.Quantity,
			UnitPrice:    med.UnitPrice,
			Discount:     req.Discount,
			Total:        total,
			SoldAt:       soldAt,
			OperatorID:   operator.UserID,
			OperatorName: operator.DisplayName,
		}
		if err := p.store.InsertSale(ctx, q, sale); err != nil {
			return err
		}

		receipt = &domain.SaleReceipt{
			SaleID:         sale.ID,
			MedicineCode:   med.Code,
			MedicineName:   med.Name,
			Quantity:       sale.Quantity,
			UnitPrice:      sale.UnitPrice,
			Subtotal:       subtotal,
			Discount:       sale.Discount,
			Total:          sale.Total,
			Operator:       operator,
			SoldAt:         sale.SoldAt,
			RemainingStock: med.Quantity,
		}
		return nil
	})
	if err != nil {
		log.Warningf("sale of %d x %s by user %d rejected: %v", req.Quantity, code, operator.UserID, err)
		return nil, err
	}

	log.Infof("sale #%d: %d x %s = %s by %s", receipt.SaleID, receipt.Quantity, receipt.MedicineCode,
		receipt.Total.StringFixed(2), operator.DisplayName)
	return receipt, nil
}

// timestamp keeps sale times non-decreasing in insertion order even if the clock steps back.
func (p *Processor) timestamp(ctx context.Context, q store.Querier) (time.Time, error) {
	now := p.now().UTC()
	last, err := p.store.LastSaleTime(ctx, q)
	if err != nil {
		return time.Time{}, err
	}
	if now.Before(last) {
		return last, nil
	}
	return now, nil
}

// GetSale returns a recorded sale.
func (p *Processor) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	return p.store.GetSale(ctx, p.store.DB(), id)
}

// RecentSales returns up to limit sales, newest first.
func (p *Processor) RecentSales(ctx context.Context, limit int) ([]domain.Sale, error) {
	if limit <= 0 {
		limit = 10
	}
	return p.store.ListSales(ctx, p.store.DB(), store.SaleFilter{Limit: limit, Desc: true})
}

// ListSales returns sales in [from, to) oldest first. Nil bounds are open.
func (p *Processor) ListSales(ctx context.Context, from, to *time.Time) ([]domain.Sale, error) {
	return p.store.ListSales(ctx, p.store.DB(), store.SaleFilter{From: from, To: to})
}
