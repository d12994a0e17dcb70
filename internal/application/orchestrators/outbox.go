package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"dojo/internal/adapters/email"
	"dojo/internal/domain/outbox"
)

// Backoff defaults for the retry worker.
const (
	DefaultOutboxBaseDelay = 30 * time.Second
	DefaultOutboxMaxDelay  = time.Hour
	DefaultOutboxBatchSize = 20
)

// ErrEntryTerminal is returned when a manual retry targets a finished entry.
var ErrEntryTerminal = errors.New("outbox entry is terminal")

// ActionExecutor replays one kind of queued side effect.
type ActionExecutor interface {
	// Execute runs the action and returns the provider's id for it.
	Execute(ctx context.Context, payload string) (string, error)
}

// EmailExecutor replays queued emails through a Sender.
type EmailExecutor struct {
	Sender email.Sender
}

// Execute decodes an email.SendRequest payload and sends it.
// PRE: payload is a JSON email.SendRequest
// POST: returns the provider message id
func (e EmailExecutor) Execute(ctx context.Context, payload string) (string, error) {
	if e.Sender == nil {
		return "", errors.New("no email sender configured")
	}
	var req email.SendRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", fmt.Errorf("decode email payload: %w", err)
	}
	res, err := e.Sender.Send(ctx, req)
	if err != nil {
		return "", err
	}
	return res.MessageID, nil
}

// Delivery reports how a notification left the process.
type Delivery struct {
	Sent      bool   `json:"sent"`
	MessageID string `json:"message_id,omitempty"`
	OutboxID  string `json:"outbox_id,omitempty"` // set when queued for retry
}

// EmailDeps are the collaborators for sending an email with outbox fallback.
type EmailDeps struct {
	Sender      email.Sender // optional; nil queues every message
	OutboxStore OutboxStore
	GenerateID  func() string
	Now         func() time.Time
}

// deliverEmail sends req now, or queues it in the outbox when sending fails.
// An error is returned only when the message could be neither sent nor queued.
func deliverEmail(ctx context.Context, req email.SendRequest, deps EmailDeps) (Delivery, error) {
	if err := req.Validate(); err != nil {
		return Delivery{}, invalid(err)
	}
	var sendErr error
	if deps.Sender != nil {
		res, err := deps.Sender.Send(ctx, req)
		if err == nil {
			return Delivery{Sent: true, MessageID: res.MessageID}, nil
		}
		sendErr = err
		slog.Warn("email_send_failed_queueing", "subject", req.Subject, "error", err)
	}
	if deps.OutboxStore == nil {
		if sendErr == nil {
			sendErr = errors.New("no email sender configured")
		}
		return Delivery{}, fmt.Errorf("deliver email: %w", sendErr)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return Delivery{}, fmt.Errorf("encode email payload: %w", err)
	}
	entry := outbox.Entry{
		ID:          idOrUUID(deps.GenerateID),
		ActionType:  outbox.ActionTypeEmail,
		Payload:     string(payload),
		Status:      outbox.StatusPending,
		MaxAttempts: outbox.DefaultMaxAttempts,
		CreatedAt:   nowOrUTC(deps.Now),
	}
	if sendErr != nil {
		entry.ErrorMessage = sendErr.Error()
	}
	if err := entry.Validate(); err != nil {
		return Delivery{}, err
	}
	if err := deps.OutboxStore.Save(ctx, entry); err != nil {
		return Delivery{}, fmt.Errorf("queue email: %w", err)
	}
	slog.Info("email_queued", "outbox_id", entry.ID, "subject", req.Subject)
	return Delivery{OutboxID: entry.ID}, nil
}

// OutboxRetryDeps provides the dependencies for retrying outbox entries.
type OutboxRetryDeps struct {
	OutboxStore OutboxStore
	Executors   map[string]ActionExecutor
	Metrics     OutboxObserver
	Now         func() time.Time
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	BatchSize   int
}

func (d OutboxRetryDeps) withDefaults() OutboxRetryDeps {
	if d.BaseDelay <= 0 {
		d.BaseDelay = DefaultOutboxBaseDelay
	}
	if d.MaxDelay <= 0 {
		d.MaxDelay = DefaultOutboxMaxDelay
	}
	if d.BatchSize <= 0 {
		d.BatchSize = DefaultOutboxBatchSize
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

// OutboxRetryResult summarises one pass.
type OutboxRetryResult struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"` // still backing off
}

// ExecuteOutboxRetry processes one batch of pending entries with exponential
// backoff.
// PRE: Deps.OutboxStore is non-nil
// POST: every due entry was attempted once and saved
func ExecuteOutboxRetry(ctx context.Context, deps OutboxRetryDeps) (OutboxRetryResult, error) {
	deps = deps.withDefaults()
	entries, err := deps.OutboxStore.ListPending(ctx, deps.BatchSize)
	if err != nil {
		return OutboxRetryResult{}, fmt.Errorf("list pending outbox entries: %w", err)
	}

	var res OutboxRetryResult
	now := deps.Now()
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if !entry.Due(now, deps.BaseDelay, deps.MaxDelay) {
			res.Skipped++
			continue
		}
		res.Processed++
		ok, err := attemptEntry(ctx, &entry, now, deps)
		if err != nil {
			slog.Error("outbox_save_failed", "entry_id", entry.ID, "error", err)
		}
		if ok {
			res.Succeeded++
		} else {
			res.Failed++
		}
	}

	if res.Processed > 0 {
		slog.Info("outbox_retry_complete", "processed", res.Processed, "succeeded", res.Succeeded, "failed", res.Failed, "skipped", res.Skipped)
	}
	return res, nil
}

// RetryOutboxEntryInput names one entry for a manual retry.
type RetryOutboxEntryInput struct {
	ID string `validate:"required"`
}

// ExecuteRetryOutboxEntry attempts a single entry immediately, ignoring backoff.
// Entries that failed permanently get one more attempt; delivered and
// abandoned entries are refused.
// PRE: the entry exists
// POST: entry attempted once and saved
func ExecuteRetryOutboxEntry(ctx context.Context, input RetryOutboxEntryInput, deps OutboxRetryDeps) (outbox.Entry, error) {
	if err := validateInput(input); err != nil {
		return outbox.Entry{}, err
	}
	deps = deps.withDefaults()
	entry, err := deps.OutboxStore.GetByID(ctx, input.ID)
	if err != nil {
		return outbox.Entry{}, fmt.Errorf("get outbox entry: %w", err)
	}
	if entry.Status == outbox.StatusDone || entry.Status == outbox.StatusAbandoned {
		return entry, fmt.Errorf("%w: %s is %s", ErrEntryTerminal, entry.ID, entry.Status)
	}
	if entry.Attempts >= entry.MaxAttempts {
		entry.MaxAttempts = entry.Attempts + 1
	}
	if _, err := attemptEntry(ctx, &entry, deps.Now(), deps); err != nil {
		return entry, fmt.Errorf("save outbox entry: %w", err)
	}
	return entry, nil
}

// attemptEntry runs the entry's executor and saves the outcome.
// The bool reports delivery; the error reports a failed save.
func attemptEntry(ctx context.Context, entry *outbox.Entry, now time.Time, deps OutboxRetryDeps) (bool, error) {
	executor, ok := deps.Executors[entry.ActionType]
	if !ok {
		entry.MarkAbandoned()
		entry.ErrorMessage = "no executor for action type " + entry.ActionType
		slog.Error("outbox_no_executor", "entry_id", entry.ID, "action_type", entry.ActionType)
		deps.observe(false)
		return false, deps.OutboxStore.Save(ctx, *entry)
	}

	entry.MarkAttempt(now)
	externalID, err := executor.Execute(ctx, entry.Payload)
	if err != nil {
		entry.MarkFailed(err)
		slog.Warn("outbox_action_failed", "entry_id", entry.ID, "attempt", entry.Attempts, "max_attempts", entry.MaxAttempts, "error", err)
	} else {
		entry.MarkSuccess(externalID)
		slog.Info("outbox_action_succeeded", "entry_id", entry.ID, "action_type", entry.ActionType, "external_id", externalID)
	}
	deps.observe(err == nil)
	return err == nil, deps.OutboxStore.Save(ctx, *entry)
}

func (d OutboxRetryDeps) observe(ok bool) {
	if d.Metrics != nil {
		d.Metrics.OutboxResult(ok)
	}
}

// StartOutboxWorker runs ExecuteOutboxRetry every interval until ctx is
// cancelled or the returned stop function is called. stop waits for the
// current pass to finish.
// PRE: interval > 0
func StartOutboxWorker(ctx context.Context, deps OutboxRetryDeps, interval time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				slog.Info("outbox_worker_stopped")
				return
			case <-ticker.C:
				if _, err := ExecuteOutboxRetry(ctx, deps); err != nil && ctx.Err() == nil {
					slog.Error("outbox_worker_pass_failed", "error", err)
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func idOrUUID(gen func() string) string {
	if gen != nil {
		return gen()
	}
	return uuid.NewString()
}

func nowOrUTC(now func() time.Time) time.Time {
	if now != nil {
		return now()
	}
	return time.Now().UTC()
}
