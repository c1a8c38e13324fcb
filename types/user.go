package types

import "time"

// User represents an account in the system.
// Emails are normalized to lowercase before storage and lookup, so two
// registrations differing only in case refer to the same identity.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Email is the user's email address, stored lowercased.
	Email string `json:"email" db:"email"`

	// Name is the user's optional display name.
	Name *string `json:"name" db:"name"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// HasPurchased records whether the user bought the course.
	HasPurchased bool `json:"hasPurchased" db:"has_purchased"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Session is a server-side proof of authentication. The token is an opaque
// 256-bit bearer credential referenced by the session cookie; a session is
// valid only while now < ExpiresAt. Expired rows stay in place until revoked
// or swept and are filtered out at validation time.
type Session struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	Token     string    `json:"-" db:"token"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
