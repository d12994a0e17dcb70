package email

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// NoopSender logs messages instead of delivering them.
// Used when no Resend key is configured.
type NoopSender struct {
	sent atomic.Int64
}

// NewNoopSender creates a new NoopSender.
func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

// Send logs the email and reports it as accepted.
func (s *NoopSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	if err := req.Validate(); err != nil {
		return SendResult{}, err
	}
	s.sent.Add(1)
	slog.Info("noop_email_send", "to", req.To, "subject", req.Subject)
	return SendResult{MessageID: "noop-" + uuid.NewString(), SentAt: time.Now()}, nil
}

// Sent returns how many messages were accepted.
func (s *NoopSender) Sent() int64 {
	return s.sent.Load()
}
