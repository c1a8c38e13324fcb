package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a registration reuses an existing email.
var ErrEmailExists = errors.New("email already registered")
