package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/coursekit/apiserver/internal/store"
	"github.com/coursekit/apiserver/types"
)

// SessionTTL is the fixed lifetime of a session. Expiry is absolute from
// creation; validation never extends it.
const SessionTTL = 24 * time.Hour

const sessionTokenBytes = 32

// ErrInvalidCredentials is returned for an unknown email or a wrong
// password. The two cases are indistinguishable on purpose.
var ErrInvalidCredentials = errors.New("invalid email or password")

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	SetHasPurchased(ctx context.Context, id int, purchased bool) error
	Delete(ctx context.Context, id int) error
}

// SessionRepository defines persistence operations for sessions.
type SessionRepository interface {
	Create(ctx context.Context, userID int, token string, expiresAt time.Time) (types.Session, error)
	GetUserByToken(ctx context.Context, token string, now time.Time) (types.User, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// AuthService issues, validates, and revokes bearer sessions.
type AuthService struct {
	users    UserRepository
	sessions SessionRepository
}

func NewAuthService(users UserRepository, sessions SessionRepository) *AuthService {
	return &AuthService{users: users, sessions: sessions}
}

// Register creates an account and an initial session. A duplicate email
// (case-insensitive) yields store.ErrEmailExists.
func (s *AuthService) Register(ctx context.Context, email, password string, name *string) (types.User, types.Session, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return types.User{}, types.Session{}, store.ErrEmailExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, types.Session{}, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return types.User{}, types.Session{}, err
	}

	user, err := s.users.Create(ctx, types.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	})
	if err != nil {
		return types.User{}, types.Session{}, err
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return types.User{}, types.Session{}, err
	}
	return user, session, nil
}

// Login verifies credentials and issues a new session. Multiple concurrent
// sessions per user are allowed.
func (s *AuthService) Login(ctx context.Context, email, password string) (types.User, types.Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, types.Session{}, ErrInvalidCredentials
		}
		return types.User{}, types.Session{}, err
	}

	if !VerifyPassword(user.PasswordHash, password) {
		return types.User{}, types.Session{}, ErrInvalidCredentials
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return types.User{}, types.Session{}, err
	}

	// Opportunistic hygiene; expired rows are already inert.
	_, _ = s.sessions.DeleteExpired(ctx, time.Now().UTC())

	return user, session, nil
}

// CurrentUser resolves a session token. Absent, revoked, or expired tokens
// yield store.ErrNotFound.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (types.User, error) {
	return s.sessions.GetUserByToken(ctx, token, time.Now().UTC())
}

// Logout revokes a single session. Revoking an absent token is a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.DeleteByToken(ctx, token)
}

// DeleteUser removes an account; its sessions go with it.
func (s *AuthService) DeleteUser(ctx context.Context, id int) error {
	return s.users.Delete(ctx, id)
}

// SetHasPurchased records a purchase state change for a user.
func (s *AuthService) SetHasPurchased(ctx context.Context, id int, purchased bool) error {
	return s.users.SetHasPurchased(ctx, id, purchased)
}

// SweepExpiredSessions deletes expired session rows and reports how many
// were removed.
func (s *AuthService) SweepExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, time.Now().UTC())
}

func (s *AuthService) createSession(ctx context.Context, userID int) (types.Session, error) {
	token, err := newSessionToken()
	if err != nil {
		return types.Session{}, err
	}
	expiresAt := time.Now().UTC().Add(SessionTTL)
	return s.sessions.Create(ctx, userID, token, expiresAt)
}

// newSessionToken returns 32 random bytes hex-encoded: 256 bits of entropy,
// collision probability negligible.
func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
