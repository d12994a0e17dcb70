package outbox

import (
	"errors"
	"time"
)

// Status constants for outbox entry lifecycle.
const (
	StatusPending   = "pending"
	StatusRetrying  = "retrying"
	StatusDone      = "done"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

// Action types the retry worker knows how to replay.
const (
	ActionTypeEmail = "email"
)

// DefaultMaxAttempts is applied when an entry does not set its own.
const DefaultMaxAttempts = 5

// Domain errors.
var (
	ErrEmptyActionType = errors.New("action type is required")
	ErrEmptyPayload    = errors.New("payload is required")
	ErrMissingCreated  = errors.New("created_at must be set")
)

// Entry is an external side effect (an email) waiting to be delivered.
type Entry struct {
	ID              string    `json:"id"`
	ActionType      string    `json:"action_type"`
	Payload         string    `json:"payload"` // JSON, replayed verbatim
	Status          string    `json:"status"`
	Attempts        int       `json:"attempts"`
	MaxAttempts     int       `json:"max_attempts"`
	LastAttemptedAt time.Time `json:"last_attempted_at"`
	CreatedAt       time.Time `json:"created_at"`
	ExternalID      string    `json:"external_id,omitempty"` // provider message id once delivered
	ErrorMessage    string    `json:"error_message,omitempty"`
}

// Validate checks that the Entry has valid data.
// PRE: Entry struct is populated
// POST: Returns nil if valid; MaxAttempts defaulted when unset
func (e *Entry) Validate() error {
	if e.ActionType == "" {
		return ErrEmptyActionType
	}
	if e.Payload == "" {
		return ErrEmptyPayload
	}
	if e.CreatedAt.IsZero() {
		return ErrMissingCreated
	}
	if e.MaxAttempts <= 0 {
		e.MaxAttempts = DefaultMaxAttempts
	}
	return nil
}

// CanRetry reports whether another delivery attempt is allowed.
func (e *Entry) CanRetry() bool {
	switch e.Status {
	case StatusPending, StatusRetrying, StatusFailed:
		return e.Attempts < e.MaxAttempts
	}
	return false
}

// IsTerminal reports whether the entry will never be attempted again.
func (e *Entry) IsTerminal() bool {
	switch e.Status {
	case StatusDone, StatusAbandoned:
		return true
	case StatusFailed:
		return e.Attempts >= e.MaxAttempts
	}
	return false
}

// MarkAttempt records a delivery attempt at now.
// POST: Attempts incremented, status retrying
func (e *Entry) MarkAttempt(now time.Time) {
	e.Attempts++
	e.LastAttemptedAt = now
	e.Status = StatusRetrying
}

// MarkSuccess marks the entry delivered.
func (e *Entry) MarkSuccess(externalID string) {
	e.Status = StatusDone
	e.ExternalID = externalID
	e.ErrorMessage = ""
}

// MarkFailed records the failure; the entry fails permanently once attempts run out.
func (e *Entry) MarkFailed(err error) {
	e.ErrorMessage = err.Error()
	if e.Attempts >= e.MaxAttempts {
		e.Status = StatusFailed
	}
}

// MarkAbandoned stops further attempts.
func (e *Entry) MarkAbandoned() {
	e.Status = StatusAbandoned
}

// NextRetryDelay returns base * 2^attempts, capped at max.
func (e *Entry) NextRetryDelay(base, max time.Duration) time.Duration {
	if e.Attempts >= 30 {
		return max
	}
	delay := base * (1 << e.Attempts)
	if delay > max || delay <= 0 {
		return max
	}
	return delay
}

// Due reports whether the backoff since the last attempt has elapsed.
func (e *Entry) Due(now time.Time, base, max time.Duration) bool {
	if e.LastAttemptedAt.IsZero() {
		return true
	}
	return !now.Before(e.LastAttemptedAt.Add(e.NextRetryDelay(base, max)))
}
