package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"medeasy/pharmacy/domain"
)

// MedicineOrder selects the ordering of a medicine scan.
type MedicineOrder int

const (
	OrderByCode MedicineOrder = iota
	OrderByName
	OrderByQuantity
	OrderByExpiry
	// OrderByCreated lists the most recently added medicines first.
	OrderByCreated
)

// MedicineFilter is the predicate of a medicine scan. Zero value matches everything.
type MedicineFilter struct {
	// Search is a case-insensitive substring matched against name, code and purpose.
	Search      string
	MaxQuantity *int64
	InStockOnly bool
	HasExpiry   bool
	OrderBy     MedicineOrder
	Limit       int
}

const medicineColumns = `code, name, quantity, unit_price, mfg_date, expiry_date, purpose, category, version, created_at, updated_at`

type medicineRow struct {
	Code       string          `db:"code"`
	Name       string          `db:"name"`
	Quantity   int64           `db:"quantity"`
	UnitPrice  decimal.Decimal `db:"unit_price"`
	MfgDate    sql.NullString  `db:"mfg_date"`
	ExpiryDate sql.NullString  `db:"expiry_date"`
	Purpose    string          `db:"purpose"`
	Category   string          `db:"category"`
	Version    int64           `db:"version"`
	CreatedAt  string          `db:"created_at"`
	UpdatedAt  string          `db:"updated_at"`
}

func (r medicineRow) toDomain() (domain.Medicine, error) {
	m := domain.Medicine{
		Code:      r.Code,
		Name:      r.Name,
		Quantity:  r.Quantity,
		UnitPrice: r.UnitPrice,
		Purpose:   r.Purpose,
		Category:  r.Category,
		Version:   r.Version,
	}
	var err error
	if m.MfgDate, err = parseDate(r.MfgDate); err != nil {
		return m, fmt.Errorf("medicine %s: bad mfg_date: %w", r.Code, err)
	}
	if m.ExpiryDate, err = parseDate(r.ExpiryDate); err != nil {
		return m, fmt.Errorf("medicine %s: bad expiry_date: %w", r.Code, err)
	}
	if m.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return m, fmt.Errorf("medicine %s: bad created_at: %w", r.Code, err)
	}
	if m.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return m, fmt.Errorf("medicine %s: bad updated_at: %w", r.Code, err)
	}
	return m, nil
}

// GetMedicine returns the medicine with the given code or domain.ErrNotFound.
func (s *Store) GetMedicine(ctx context.Context, q Querier, code string) (*domain.Medicine, error) {
	var row medicineRow
	err := sqlx.GetContext(ctx, q, &row, `SELECT `+medicineColumns+` FROM medicines WHERE code = ?`, code)
	if err != nil {
		return nil, mapErr(fmt.Sprintf("get medicine %s", code), err)
	}
	m, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMedicines scans medicines matching filter in the requested order.
func (s *Store) ListMedicines(ctx context.Context, q Querier, filter MedicineFilter) ([]domain.Medicine, error) {
	var (
		clauses []string
		args    []any
	)
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := likePattern(search)
		clauses = append(clauses, `(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(code) LIKE ? ESCAPE '\' OR LOWER(purpose) LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like)
	}
	if filter.MaxQuantity != nil {
		clauses = append(clauses, "quantity <= ?")
		args = append(args, *filter.MaxQuantity)
	}
	if filter.InStockOnly {
		clauses = append(clauses, "quantity > 0")
	}
	if filter.HasExpiry {
		clauses = append(clauses, "expiry_date IS NOT NULL")
	}

	query := `SELECT ` + medicineColumns + ` FROM medicines`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	switch filter.OrderBy {
	case OrderByName:
		query += " ORDER BY name, code"
	case OrderByQuantity:
		query += " ORDER BY quantity, code"
	case OrderByExpiry:
		query += " ORDER BY expiry_date IS NULL, expiry_date, code"
	case OrderByCreated:
		query += " ORDER BY created_at DESC, rowid DESC"
	default:
		query += " ORDER BY code"
	}
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	var rows []medicineRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, mapErr("list medicines", err)
	}
	medicines := make([]domain.Medicine, 0, len(rows))
	for _, row := range rows {
		m, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		medicines = append(medicines, m)
	}
	return medicines, nil
}

// CountMedicines returns the number of medicine records.
func (s *Store) CountMedicines(ctx context.Context, q Querier) (int64, error) {
	var n int64
	if err := sqlx.GetContext(ctx, q, &n, `SELECT COUNT(*) FROM medicines`); err != nil {
		return 0, mapErr("count medicines", err)
	}
	return n, nil
}

// InsertMedicine stores a new medicine. A duplicate code yields domain.ErrAlreadyExists.
func (s *Store) InsertMedicine(ctx context.Context, q Querier, m *domain.Medicine) error {
	now := time.Now().UTC()
	m.Version = 1
	m.CreatedAt, m.UpdatedAt = now, now
	_, err := q.ExecContext(ctx, `INSERT INTO medicines (`+medicineColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Code, m.Name, m.Quantity, m.UnitPrice, formatDate(m.MfgDate), formatDate(m.ExpiryDate),
		m.Purpose, m.Category, m.Version, formatTime(now), formatTime(now))
	if err != nil {
		return mapErr(fmt.Sprintf("insert medicine %s", m.Code), err)
	}
	return nil
}

// UpdateMedicine applies mutate to the medicine only if its version still equals expectedVersion.
// It returns domain.ErrPreconditionFailed when another writer got there first and
// domain.ErrNotFound when the code is unknown. Code and version cannot be mutated.
func (s *Store) UpdateMedicine(ctx context.Context, q Querier, code string, expectedVersion int64, mutate func(m *domain.Medicine) error) (*domain.Medicine, error) {
	current, err := s.GetMedicine(ctx, q, code)
	if err != nil {
		return nil, err
	}
	if current.Version != expectedVersion {
		return nil, fmt.Errorf("update medicine %s: version %d, expected %d: %w", code, current.Version, expectedVersion, domain.ErrPreconditionFailed)
	}

	next := *current
	if err := mutate(&next); err != nil {
		return nil, err
	}
	if next.Quantity < 0 || next.Quantity > domain.MaxQuantity {
		return nil, fmt.Errorf("update medicine %s: quantity %d out of range: %w", code, next.Quantity, domain.ErrInvalidInput)
	}
	next.Code = current.Code
	next.Version = current.Version + 1
	next.UpdatedAt = time.Now().UTC()

	res, err := q.ExecContext(ctx, `UPDATE medicines
        SET name = ?, quantity = ?, unit_price = ?, mfg_date = ?, expiry_date = ?, purpose = ?, category = ?,
            version = ?, updated_at = ?
        WHERE code = ? AND version = ?`,
		next.Name, next.Quantity, next.UnitPrice, formatDate(next.MfgDate), formatDate(next.ExpiryDate),
		next.Purpose, next.Category, next.Version, formatTime(next.UpdatedAt), code, expectedVersion)
	if err != nil {
		return nil, mapErr(fmt.Sprintf("update medicine %s", code), err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, mapErr(fmt.Sprintf("update medicine %s", code), err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("update medicine %s: %w", code, domain.ErrPreconditionFailed)
	}
	return &next, nil
}
