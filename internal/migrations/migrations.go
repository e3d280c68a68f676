package migrations

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Run creates the database schema required for the pharmacy ledger.
func Run(db *sqlx.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            username TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            role TEXT NOT NULL CHECK (role IN ('admin', 'pharmacist', 'manager', 'cashier')),
            full_name TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT '',
            created_at TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS medicines (
            code TEXT PRIMARY KEY,
            name TEXT NOT NULL CHECK (name <> ''),
            quantity INTEGER NOT NULL CHECK (quantity >= 0),
            unit_price TEXT NOT NULL,
            mfg_date TEXT,
            expiry_date TEXT,
            purpose TEXT NOT NULL DEFAULT '',
            category TEXT NOT NULL DEFAULT '',
            version INTEGER NOT NULL DEFAULT 1,
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS sales (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            medicine_code TEXT NOT NULL,
            quantity INTEGER NOT NULL CHECK (quantity > 0),
            unit_price TEXT NOT NULL,
            discount TEXT NOT NULL DEFAULT '0',
            total TEXT NOT NULL,
            sold_at TEXT NOT NULL,
            operator_id INTEGER NOT NULL,
            operator_name TEXT NOT NULL DEFAULT '',
            FOREIGN KEY(medicine_code) REFERENCES medicines(code)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_sales_sold_at ON sales(sold_at);`,
		`CREATE INDEX IF NOT EXISTS idx_sales_medicine_code ON sales(medicine_code);`,
		`CREATE INDEX IF NOT EXISTS idx_medicines_expiry_date ON medicines(expiry_date);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
