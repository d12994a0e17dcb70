package orchestrators

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"dojo/internal/domain/domainerr"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateInput checks struct tags on an orchestrator input.
// POST: failures wrap domainerr.ErrInvalidInput
func validateInput(in any) error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %w", domainerr.ErrInvalidInput, err)
	}
	return nil
}

// invalid wraps a domain validation error so callers can map it to a 400.
func invalid(err error) error {
	return fmt.Errorf("%w: %w", domainerr.ErrInvalidInput, err)
}
