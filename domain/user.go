package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is one of the fixed set of staff roles.
type Role string

const (
	RoleAdmin      Role = "admin"
	RolePharmacist Role = "pharmacist"
	RoleManager    Role = "manager"
	RoleCashier    Role = "cashier"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RolePharmacist, RoleManager, RoleCashier}

// ParseRole normalises s and checks it against the closed role set.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Roles {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
}

type User struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Password  string    `json:"-" db:"password"`
	Role      Role      `json:"role" db:"role"`
	FullName  string    `json:"full_name" db:"full_name"`
	Email     string    `json:"email,omitempty" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"-"`
}

// NewUser is the input to user creation. Password is the plain secret.
type NewUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// Operator is the identity resolved for an authenticated session.
type Operator struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}

// Can reports whether the operator holds one of the allowed roles.
func (o Operator) Can(allowed ...Role) bool {
	for _, r := range allowed {
		if o.Role == r {
			return true
		}
	}
	return false
}
