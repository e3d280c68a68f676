package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"medeasy/pharmacy/domain"
)

// SaleFilter is the predicate of a sale scan. From is inclusive, To exclusive.
type SaleFilter struct {
	From         *time.Time
	To           *time.Time
	MedicineCode string
	Limit        int
	// Newest first when set; oldest first otherwise.
	Desc bool
}

type saleRow struct {
	ID           int64           `db:"id"`
	MedicineCode string          `db:"medicine_code"`
	MedicineName sql.NullString  `db:"medicine_name"`
	Quantity     int64           `db:"quantity"`
	UnitPrice    decimal.Decimal `db:"unit_price"`
	Discount     decimal.Decimal `db:"discount"`
	Total        decimal.Decimal `db:"total"`
	SoldAt       string          `db:"sold_at"`
	OperatorID   int64           `db:"operator_id"`
	OperatorName string          `db:"operator_name"`
}

func (r saleRow) toDomain() (domain.Sale, error) {
	soldAt, err := parseTime(r.SoldAt)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("sale %d: bad sold_at: %w", r.ID, err)
	}
	return domain.Sale{
		ID:           r.ID,
		MedicineCode: r.MedicineCode,
		MedicineName: r.MedicineName.String,
		Quantity:     r.Quantity,
		UnitPrice:    r.UnitPrice,
		Discount:     r.Discount,
		Total:        r.Total,
		SoldAt:       soldAt,
		OperatorID:   r.OperatorID,
		OperatorName: r.OperatorName,
	}, nil
}

const saleSelect = `SELECT s.id, s.medicine_code, m.name AS medicine_name, s.quantity, s.unit_price, s.discount, s.total,
        s.sold_at, s.operator_id, s.operator_name
    FROM sales s
    LEFT JOIN medicines m ON m.code = s.medicine_code`

// InsertSale appends a sale and assigns its sequence id.
// A medicine code that does not exist yields domain.ErrNotFound.
func (s *Store) InsertSale(ctx context.Context, q Querier, sale *domain.Sale) error {
	var id int64
	err := sqlx.GetContext(ctx, q, &id, `INSERT INTO sales (medicine_code, quantity, unit_price, discount, total, sold_at, operator_id, operator_name)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		sale.MedicineCode, sale.Quantity, sale.UnitPrice, sale.Discount, sale.Total,
		formatTime(sale.SoldAt), sale.OperatorID, sale.OperatorName)
	if err != nil {
		return mapErr(fmt.Sprintf("insert sale for %s", sale.MedicineCode), err)
	}
	sale.ID = id
	return nil
}

// GetSale returns one sale by id.
func (s *Store) GetSale(ctx context.Context, q Querier, id int64) (*domain.Sale, error) {
	var row saleRow
	if err := sqlx.GetContext(ctx, q, &row, saleSelect+` WHERE s.id = ?`, id); err != nil {
		return nil, mapErr(fmt.Sprintf("get sale %d", id), err)
	}
	sale, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// ListSales scans sales matching filter ordered by insertion.
func (s *Store) ListSales(ctx context.Context, q Querier, filter SaleFilter) ([]domain.Sale, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.From != nil {
		clauses = append(clauses, "s.sold_at >= ?")
		args = append(args, formatTime(*filter.From))
	}
	if filter.To != nil {
		clauses = append(clauses, "s.sold_at < ?")
		args = append(args, formatTime(*filter.To))
	}
	if filter.MedicineCode != "" {
		clauses = append(clauses, "s.medicine_code = ?")
		args = append(args, filter.MedicineCode)
	}

	query := saleSelect
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	if filter.Desc {
		query += " ORDER BY s.id DESC"
	} else {
		query += " ORDER BY s.id"
	}
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	var rows []saleRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, mapErr("list sales", err)
	}
	sales := make([]domain.Sale, 0, len(rows))
	for _, row := range rows {
		sale, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, nil
}

// LastSaleTime returns the timestamp of the most recently appended sale, or the zero time.
func (s *Store) LastSaleTime(ctx context.Context, q Querier) (time.Time, error) {
	var soldAt string
	err := sqlx.GetContext(ctx, q, &soldAt, `SELECT sold_at FROM sales ORDER BY id DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, mapErr("last sale time", err)
	}
	return parseTime(soldAt)
}
