package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"medeasy/pharmacy/domain"
	"medeasy/pharmacy/internal/inventory"
)

// Result counts what a catalog load did.
type Result struct {
	Added   int
	Skipped int
}

var requiredColumns = []string{"code", "name", "quantity", "unit_price"}

// LoadMedicines ingests a CSV catalog through the ledger. The header row names
// the columns in any order: code, name, quantity and unit_price are required;
// mfg_date, expiry_date, purpose and category are optional. Rows that fail
// validation or whose code already exists are skipped and logged.
func LoadMedicines(ctx context.Context, ledger *inventory.Ledger, path string) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open medicine catalog %s: %w", path, err)
	}
	defer file.Close()
	return ReadMedicines(ctx, ledger, file)
}

// ReadMedicines is LoadMedicines over an already open reader.
func ReadMedicines(ctx context.Context, ledger *inventory.Ledger, r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return Result{}, fmt.Errorf("read medicine header: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return Result{}, fmt.Errorf("%w: catalog is missing column %q", domain.ErrInvalidInput, name)
		}
	}

	var res Result
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warningf("catalog line %d: %v", line, err)
			res.Skipped++
			continue
		}
		in, err := parseRow(record, cols)
		if err != nil {
			log.Warningf("catalog line %d: %v", line, err)
			res.Skipped++
			continue
		}
		if _, err := ledger.AddMedicine(ctx, in); err != nil {
			if errors.Is(err, domain.ErrStorageUnavailable) || ctx.Err() != nil {
				return res, err
			}
			log.Warningf("catalog line %d: %v", line, err)
			res.Skipped++
			continue
		}
		res.Added++
	}
	log.Infof("seeded medicine catalog: %d added, %d skipped", res.Added, res.Skipped)
	return res, nil
}

func parseRow(record []string, cols map[string]int) (domain.NewMedicine, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	qty, err := strconv.ParseInt(field("quantity"), 10, 64)
	if err != nil {
		return domain.NewMedicine{}, fmt.Errorf("%w: quantity %q", domain.ErrInvalidInput, field("quantity"))
	}
	price, err := decimal.NewFromString(field("unit_price"))
	if err != nil {
		return domain.NewMedicine{}, fmt.Errorf("%w: unit price %q", domain.ErrInvalidInput, field("unit_price"))
	}
	mfg, err := domain.ParseDate(field("mfg_date"))
	if err != nil {
		return domain.NewMedicine{}, err
	}
	expiry, err := domain.ParseDate(field("expiry_date"))
	if err != nil {
		return domain.NewMedicine{}, err
	}
	return domain.NewMedicine{
		Code:       field("code"),
		Name:       field("name"),
		Quantity:   qty,
		UnitPrice:  price,
		MfgDate:    mfg,
		ExpiryDate: expiry,
		Purpose:    field("purpose"),
		Category:   field("category"),
	}, nil
}
