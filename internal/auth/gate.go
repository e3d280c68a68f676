// Package auth resolves staff credentials into an operator identity and
// issues the bearer tokens that carry it between requests.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/op/go-logging"
	"golang.org/x/crypto/bcrypt"

	"medeasy/pharmacy/domain"
	"medeasy/pharmacy/internal/store"
)

var log = logging.MustGetLogger("auth")

const (
	DefaultTokenTTL   = 24 * time.Hour
	MinPasswordLength = 6
)

// Gate authenticates users and manages their accounts.
type Gate struct {
	store  *store.Store
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

// Option configures a Gate.
type Option func(*Gate)

// WithTokenTTL sets how long issued tokens stay valid.
func WithTokenTTL(ttl time.Duration) Option {
	return func(g *Gate) { g.ttl = ttl }
}

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(g *Gate) { g.cost = cost }
}

// WithClock overrides the time source used for token timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// NewGate builds a Gate that signs tokens with secret.
func NewGate(st *store.Store, secret string, opts ...Option) *Gate {
	g := &Gate{
		store:  st,
		secret: []byte(secret),
		ttl:    DefaultTokenTTL,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authenticate checks username, password and role against the stored user.
// An empty role accepts whatever role the user holds. Every mismatch is
// reported as domain.ErrUnauthorized without saying which part failed.
func (g *Gate) Authenticate(ctx context.Context, username, password string, role domain.Role) (domain.Operator, error) {
	username = strings.TrimSpace(username)
	u, err := g.store.GetUserByUsername(ctx, g.store.DB(), username)
	if errors.Is(err, domain.ErrNotFound) {
		log.Warningf("login for unknown user %q", username)
		return domain.Operator{}, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	if err != nil {
		return domain.Operator{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		log.Warningf("bad password for %q", username)
		return domain.Operator{}, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	if role != "" && u.Role != role {
		log.Warningf("user %q tried to log in as %s, holds %s", username, role, u.Role)
		return domain.Operator{}, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	return operatorOf(u), nil
}

func operatorOf(u *domain.User) domain.Operator {
	name := u.FullName
	if name == "" {
		name = u.Username
	}
	return domain.Operator{UserID: u.ID, DisplayName: name, Role: u.Role}
}

// CreateUser validates in and stores a new user with a hashed password.
func (g *Gate) CreateUser(ctx context.Context, in domain.NewUser) (*domain.User, error) {
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Username: strings.TrimSpace(in.Username),
		Role:     role,
		FullName: strings.TrimSpace(in.FullName),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
	}
	switch {
	case u.Username == "":
		return nil, fmt.Errorf("%w: username is required", domain.ErrInvalidInput)
	case u.FullName == "":
		return nil, fmt.Errorf("%w: full name is required", domain.ErrInvalidInput)
	}
	if u.Email != "" {
		if _, err := mail.ParseAddress(u.Email); err != nil {
			return nil, fmt.Errorf("%w: invalid email %q", domain.ErrInvalidInput, in.Email)
		}
	}
	if u.Password, err = g.hash(in.Password); err != nil {
		return nil, err
	}
	if err := g.store.InsertUser(ctx, g.store.DB(), u); err != nil {
		return nil, err
	}
	log.Infof("created %s user %q", u.Role, u.Username)
	return u, nil
}

// ChangePassword replaces the password of an existing user.
func (g *Gate) ChangePassword(ctx context.Context, userID int64, password string) error {
	hash, err := g.hash(password)
	if err != nil {
		return err
	}
	return g.store.UpdateUserPassword(ctx, g.store.DB(), userID, hash)
}

// Users lists every account; password hashes are never serialized.
func (g *Gate) Users(ctx context.Context) ([]domain.User, error) {
	return g.store.ListUsers(ctx, g.store.DB())
}

func (g *Gate) hash(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, MinPasswordLength)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), g.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return string(hashed), nil
}
