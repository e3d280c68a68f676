package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"medeasy/pharmacy/domain"
)

type claims struct {
	UserID int64       `json:"user_id"`
	Name   string      `json:"name"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token carrying op.
func (g *Gate) IssueToken(op domain.Operator) (string, error) {
	now := g.now()
	c := claims{
		UserID: op.UserID,
		Name:   op.DisplayName,
		Role:   op.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(g.secret)
}

// ParseToken verifies a token and returns the operator it carries.
func (g *Gate) ParseToken(token string) (domain.Operator, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (interface{}, error) {
		return g.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(g.now), jwt.WithExpirationRequired())
	if err != nil {
		return domain.Operator{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if _, err := domain.ParseRole(string(c.Role)); err != nil || c.UserID == 0 {
		return domain.Operator{}, fmt.Errorf("%w: malformed claims", domain.ErrUnauthorized)
	}
	return domain.Operator{UserID: c.UserID, DisplayName: c.Name, Role: c.Role}, nil
}
