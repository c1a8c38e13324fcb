package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/coursekit/apiserver/types"
	"github.com/jmoiron/sqlx"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// NormalizeEmail lowercases and trims an email so identity is
// case-insensitive throughout.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `
		SELECT id, email, name, password_hash, has_purchased, created_at
		FROM users
		WHERE id = ?`
	var user types.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(query), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `
		SELECT id, email, name, password_hash, has_purchased, created_at
		FROM users
		WHERE email = ?`
	var user types.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(query), NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	user.Email = NormalizeEmail(user.Email)
	user.CreatedAt = time.Now().UTC()

	const query = `
		INSERT INTO users (email, name, password_hash, has_purchased, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`
	err := r.db.QueryRowContext(
		ctx,
		r.db.Rebind(query),
		user.Email,
		user.Name,
		user.PasswordHash,
		user.HasPurchased,
		user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return types.User{}, ErrEmailExists
		}
		return types.User{}, err
	}
	return user, nil
}

// SetHasPurchased flips the purchase flag, the only mutable user attribute.
func (r *UserRepository) SetHasPurchased(ctx context.Context, id int, purchased bool) error {
	const query = `UPDATE users SET has_purchased = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), purchased, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user; the sessions foreign key cascades.
func (r *UserRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM users WHERE id = ?`
	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// sqlite reports "UNIQUE constraint failed", postgres "duplicate key
	// value violates unique constraint".
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
