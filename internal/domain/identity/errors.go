package identity

import "errors"

var (
	// ErrIdentityNotFound indicates nothing is remembered for the site.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrInvalidInput indicates invalid identity input.
	ErrInvalidInput = errors.New("invalid identity input")
)
