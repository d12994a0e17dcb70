package projections

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"dojo/internal/domain/preference"
)

// PreferenceKey is the key under which an owner's view preferences are stored.
func PreferenceKey(ownerID string) string {
	return "view_preferences:" + ownerID
}

// GetPreferencesQuery carries input for the preferences projection.
type GetPreferencesQuery struct {
	OwnerID string
}

// GetPreferencesDeps holds dependencies for the preferences projection.
type GetPreferencesDeps struct {
	PreferenceStore PreferenceStore
}

// QueryGetPreferences returns the owner's saved view preferences, or the
// defaults when none are saved. A stored value that no longer decodes or
// validates is logged and replaced by the defaults.
func QueryGetPreferences(ctx context.Context, query GetPreferencesQuery, deps GetPreferencesDeps) (preference.ViewPreferences, error) {
	def := preference.Default(query.OwnerID)
	if deps.PreferenceStore == nil {
		return def, nil
	}

	raw, ok, err := deps.PreferenceStore.Get(ctx, PreferenceKey(query.OwnerID))
	if err != nil {
		return preference.ViewPreferences{}, fmt.Errorf("get preferences: %w", err)
	}
	if !ok {
		return def, nil
	}

	var p preference.ViewPreferences
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		slog.Warn("preferences_unreadable", "owner_id", query.OwnerID, "error", err)
		return def, nil
	}
	p.OwnerID = query.OwnerID
	if err := p.Validate(); err != nil {
		slog.Warn("preferences_invalid", "owner_id", query.OwnerID, "error", err)
		return def, nil
	}
	return p, nil
}
