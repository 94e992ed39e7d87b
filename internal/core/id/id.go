// Package id provides the identifier type shared by every entity.
// Identifiers are UUIDv7, so variants, movements and orders sort by
// creation time on their primary key alone; the movement listing's
// newest-first order rides on this.
package id

import (
	"github.com/google/uuid"
)

// ID aliases uuid.UUID so callers get the full UUID API.
type ID = uuid.UUID

// New returns a fresh UUIDv7.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does; fall back to v4
		// rather than propagate an error nobody can handle.
		return uuid.New()
	}
	return v
}

// Parse validates and converts the string form.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse is Parse that panics. For fixtures and tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns the zero id.
func Nil() ID {
	return uuid.Nil
}

// IsNil reports whether v is the zero id.
func IsNil(v ID) bool {
	return v == uuid.Nil
}
