// Package seed populates an empty database with demo accounts and a medicine catalog.
package seed

import (
	"context"
	"fmt"

	"github.com/op/go-logging"

	"medeasy/pharmacy/domain"
	"medeasy/pharmacy/internal/auth"
	"medeasy/pharmacy/internal/store"
)

var log = logging.MustGetLogger("seed")

// DemoUsers are the accounts created on first start.
var DemoUsers = []domain.NewUser{
	{Username: "admin", Password: "admin123", Role: string(domain.RoleAdmin), FullName: "Administrator", Email: "admin@pharmacy.com"},
	{Username: "pharmacist", Password: "pharma123", Role: string(domain.RolePharmacist), FullName: "John Pharmacist", Email: "pharma@pharmacy.com"},
	{Username: "cashier", Password: "cash123", Role: string(domain.RoleCashier), FullName: "Alice Cashier", Email: "cashier@pharmacy.com"},
	{Username: "manager", Password: "manager123", Role: string(domain.RoleManager), FullName: "Bob Manager", Email: "manager@pharmacy.com"},
}

// Users creates DemoUsers when the users table is empty. It reports how many were created.
func Users(ctx context.Context, st *store.Store, gate *auth.Gate) (int, error) {
	n, err := st.CountUsers(ctx, st.DB())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Debugf("users table holds %d accounts, skipping demo users", n)
		return 0, nil
	}
	for i, u := range DemoUsers {
		if _, err := gate.CreateUser(ctx, u); err != nil {
			return i, fmt.Errorf("seed user %s: %w", u.Username, err)
		}
	}
	log.Infof("created %d demo users", len(DemoUsers))
	return len(DemoUsers), nil
}
