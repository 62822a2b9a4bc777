package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cryptoalert/internal/core"
	"cryptoalert/internal/store"
	"github.com/google/uuid"
)

// UserStore is the notification recipient repository.
type UserStore struct {
	db *sql.DB
}

var _ store.UserStore = (*UserStore)(nil)

// CreateUser inserts a new user, assigning its ID and creation time.
func (s *UserStore) CreateUser(ctx context.Context, user *core.User) error {
	user.ID = uuid.New().String()
	user.CreatedAt = time.Now().UTC()

	const query = `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query, user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return core.WrapError(core.ErrStoreFailed, err)
	}
	return nil
}

// FindUserByID returns one user or ErrUserNotFound.
func (s *UserStore) FindUserByID(ctx context.Context, id string) (*core.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindUserByEmail returns one user or ErrUserNotFound.
func (s *UserStore) FindUserByEmail(ctx context.Context, email string) (*core.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*core.User, error) {
	var user core.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrUserNotFound
	}
	if err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	return &user, nil
}
