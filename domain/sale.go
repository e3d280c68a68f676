package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is an immutable record of units sold. UnitPrice is the price at the moment of sale.
type Sale struct {
	ID           int64           `db:"id" json:"id"`
	MedicineCode string          `db:"medicine_code" json:"medicine_code"`
	MedicineName string          `db:"medicine_name" json:"medicine_name,omitempty"`
	Quantity     int64           `db:"quantity" json:"quantity"`
	UnitPrice    decimal.Decimal `db:"unit_price" json:"unit_price"`
	Discount     decimal.Decimal `db:"discount" json:"discount"`
	Total        decimal.Decimal `db:"total" json:"total"`
	SoldAt       time.Time       `db:"-" json:"sold_at"`
	OperatorID   int64           `db:"operator_id" json:"operator_id"`
	OperatorName string          `db:"operator_name" json:"operator_name"`
}

// Subtotal is quantity times the snapshot unit price, before discount.
func (s Sale) Subtotal() decimal.Decimal {
	return s.UnitPrice.Mul(decimal.NewFromInt(s.Quantity))
}

// SaleRequest is the input to sale processing.
type SaleRequest struct {
	MedicineCode string          `json:"medicine_code"`
	Quantity     int64           `json:"quantity"`
	Discount     decimal.Decimal `json:"discount"`
}

// SaleReceipt is the receipt-ready result of a processed sale.
type SaleReceipt struct {
	SaleID         int64           `json:"sale_id"`
	MedicineCode   string          `json:"medicine_code"`
	MedicineName   string          `json:"medicine_name"`
	Quantity       int64           `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount"`
	Total          decimal.Decimal `json:"total"`
	Operator       Operator        `json:"operator"`
	SoldAt         time.Time       `json:"sold_at"`
	RemainingStock int64           `json:"remaining_stock"`
}

// SaleTotal applies discount to quantity × unit price, never going below zero.
func SaleTotal(quantity int64, unitPrice, discount decimal.Decimal) (subtotal, total decimal.Decimal) {
	subtotal = unitPrice.Mul(decimal.NewFromInt(quantity))
	total = subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return subtotal, total
}
