// Package email delivers staff notifications: risk reports and stock alerts.
package email

import (
	"context"
	"errors"
	"time"
)

// ErrNoRecipients is returned when a request has no addresses.
var ErrNoRecipients = errors.New("email has no recipients")

// SendRequest is one message to one or more staff addresses.
type SendRequest struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"` // plain-text alternative
	ReplyTo string   `json:"reply_to,omitempty"`
}

// Validate checks the request can be handed to a provider.
func (r SendRequest) Validate() error {
	if len(r.To) == 0 {
		return ErrNoRecipients
	}
	if r.Subject == "" {
		return errors.New("email subject is required")
	}
	return nil
}

// SendResult is the provider's acknowledgement.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers email through an external provider.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}
