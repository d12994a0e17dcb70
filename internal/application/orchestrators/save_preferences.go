package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"

	"dojo/internal/application/projections"
	"dojo/internal/domain/preference"
)

// SavePreferencesInput is a staff member's payment history view settings.
type SavePreferencesInput struct {
	OwnerID    string `validate:"required"`
	ViewMode   string `validate:"required,oneof=table grouped"`
	SortColumn string `validate:"required"`
	SortDir    string `validate:"required,oneof=asc desc"`
}

// SavePreferencesDeps holds dependencies for SavePreferences.
type SavePreferencesDeps struct {
	PreferenceStore PreferenceWriter
}

// ExecuteSavePreferences stores view preferences for the owner.
// POST: projections.QueryGetPreferences returns the saved values
func ExecuteSavePreferences(ctx context.Context, input SavePreferencesInput, deps SavePreferencesDeps) (preference.ViewPreferences, error) {
	if err := validateInput(input); err != nil {
		return preference.ViewPreferences{}, err
	}
	p := preference.ViewPreferences{
		OwnerID:    input.OwnerID,
		ViewMode:   input.ViewMode,
		SortColumn: input.SortColumn,
		SortDir:    input.SortDir,
	}
	if err := p.Validate(); err != nil {
		return preference.ViewPreferences{}, invalid(err)
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return preference.ViewPreferences{}, fmt.Errorf("encode preferences: %w", err)
	}
	if err := deps.PreferenceStore.Set(ctx, projections.PreferenceKey(p.OwnerID), string(raw)); err != nil {
		return preference.ViewPreferences{}, fmt.Errorf("save preferences: %w", err)
	}
	return p, nil
}
