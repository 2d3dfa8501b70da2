// Package namespace resolves public schema identifiers to schema locations.
//
// Resolution never fails from the caller's point of view: when a location
// cannot be determined the identifier itself is returned.
package namespace

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by lookups when the registry has no location for an identifier
	ErrNotFound = errors.New("namespace not found")

	// ErrMiss is returned by a Store when a key is absent or expired
	ErrMiss = errors.New("namespace cache miss")
)

// Resolver maps a public identifier to a schema location
type Resolver interface {
	Resolve(ctx context.Context, publicID string) string
}

// Identity resolves every identifier to itself
type Identity struct{}

// Resolve returns publicID unchanged
func (Identity) Resolve(_ context.Context, publicID string) string {
	return publicID
}

// IsNotFound returns true if the error is ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
