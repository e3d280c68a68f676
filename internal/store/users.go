package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"medeasy/pharmacy/domain"
)

const userColumns = `id, username, password, role, full_name, email, created_at`

type userRow struct {
	ID        int64  `db:"id"`
	Username  string `db:"username"`
	Password  string `db:"password"`
	Role      string `db:"role"`
	FullName  string `db:"full_name"`
	Email     string `db:"email"`
	CreatedAt string `db:"created_at"`
}

func (r userRow) toDomain() (domain.User, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return domain.User{}, fmt.Errorf("user %s: bad created_at: %w", r.Username, err)
	}
	return domain.User{
		ID:        r.ID,
		Username:  r.Username,
		Password:  r.Password,
		Role:      domain.Role(r.Role),
		FullName:  r.FullName,
		Email:     r.Email,
		CreatedAt: createdAt,
	}, nil
}

// InsertUser stores a user. Password must already be hashed.
func (s *Store) InsertUser(ctx context.Context, q Querier, u *domain.User) error {
	u.CreatedAt = time.Now().UTC()
	err := sqlx.GetContext(ctx, q, &u.ID, `INSERT INTO users (username, password, role, full_name, email, created_at)
        VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		u.Username, u.Password, string(u.Role), u.FullName, u.Email, formatTime(u.CreatedAt))
	if err != nil {
		return mapErr(fmt.Sprintf("insert user %s", u.Username), err)
	}
	return nil
}

func (s *Store) GetUserByUsername(ctx context.Context, q Querier, username string) (*domain.User, error) {
	return s.getUser(ctx, q, "username = ?", username)
}

func (s *Store) GetUserByID(ctx context.Context, q Querier, id int64) (*domain.User, error) {
	return s.getUser(ctx, q, "id = ?", id)
}

func (s *Store) getUser(ctx context.Context, q Querier, where string, arg any) (*domain.User, error) {
	var row userRow
	if err := sqlx.GetContext(ctx, q, &row, `SELECT `+userColumns+` FROM users WHERE `+where, arg); err != nil {
		return nil, mapErr(fmt.Sprintf("get user %v", arg), err)
	}
	u, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns every user ordered by username.
func (s *Store) ListUsers(ctx context.Context, q Querier) ([]domain.User, error) {
	var rows []userRow
	if err := sqlx.SelectContext(ctx, q, &rows, `SELECT `+userColumns+` FROM users ORDER BY username`); err != nil {
		return nil, mapErr("list users", err)
	}
	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		u, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *Store) CountUsers(ctx context.Context, q Querier) (int64, error) {
	var n int64
	if err := sqlx.GetContext(ctx, q, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, mapErr("count users", err)
	}
	return n, nil
}

// UpdateUserPassword replaces the stored password hash of a user.
func (s *Store) UpdateUserPassword(ctx context.Context, q Querier, id int64, hash string) error {
	res, err := q.ExecContext(ctx, `UPDATE users SET password = ? WHERE id = ?`, hash, id)
	if err != nil {
		return mapErr(fmt.Sprintf("update password of user %d", id), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr(fmt.Sprintf("update password of user %d", id), err)
	}
	if n == 0 {
		return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
