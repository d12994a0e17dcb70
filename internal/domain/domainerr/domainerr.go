// Package domainerr holds error kinds shared by the pure engine packages.
package domainerr

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks a violated precondition: negative window, malformed
// discount, negative stock or rate. Never retried.
var ErrInvalidInput = errors.New("invalid input")

// Invalidf wraps ErrInvalidInput with a formatted detail.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
