package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/coursekit/apiserver/types"
	"github.com/jmoiron/sqlx"
)

// SessionRepository handles persistence for bearer sessions.
type SessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, userID int, token string, expiresAt time.Time) (types.Session, error) {
	session := types.Session{
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}

	const query = `
		INSERT INTO sessions (user_id, token, expires_at, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`
	err := r.db.QueryRowContext(
		ctx,
		r.db.Rebind(query),
		session.UserID,
		session.Token,
		session.ExpiresAt,
		session.CreatedAt,
	).Scan(&session.ID)
	if err != nil {
		return types.Session{}, err
	}
	return session, nil
}

// GetUserByToken resolves a token to its owning user. Expiry is re-checked
// at lookup time; a matching but expired row yields ErrNotFound. The read
// has no side effects (no sliding expiry).
func (r *SessionRepository) GetUserByToken(ctx context.Context, token string, now time.Time) (types.User, error) {
	const query = `
		SELECT u.id, u.email, u.name, u.password_hash, u.has_purchased, u.created_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = ? AND s.expires_at > ?`
	var user types.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(query), token, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// DeleteByToken removes a single session. Deleting an absent token is a
// no-op, not an error.
func (r *SessionRepository) DeleteByToken(ctx context.Context, token string) error {
	const query = `DELETE FROM sessions WHERE token = ?`
	_, err := r.db.ExecContext(ctx, r.db.Rebind(query), token)
	return err
}

// DeleteExpired sweeps expired rows. Storage hygiene only: validation
// already filters expired sessions, so correctness never depends on this.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM sessions WHERE expires_at <= ?`
	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
