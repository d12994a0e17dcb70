package web

import (
	"net/http"

	"dojo/internal/application/orchestrators"
	"dojo/internal/domain/outbox"
)

// handleListOutbox lists queued side effects.
// Query: status (failed, the default, or pending), limit (1-100, default 50).
func (s *server) handleListOutbox(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := queryInt(q, "limit", 50)
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var (
		entries []outbox.Entry
		err     error
	)
	switch q.Get("status") {
	case "", outbox.StatusFailed:
		entries, err = s.stores.OutboxStore.ListFailed(r.Context(), limit)
	case outbox.StatusPending:
		entries, err = s.stores.OutboxStore.ListPending(r.Context(), limit)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "status must be failed or pending"})
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	if entries == nil {
		entries = []outbox.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleRetryOutbox attempts one entry now, ignoring backoff.
func (s *server) handleRetryOutbox(w http.ResponseWriter, r *http.Request) {
	entry, err := orchestrators.ExecuteRetryOutboxEntry(r.Context(),
		orchestrators.RetryOutboxEntryInput{ID: r.PathValue("id")},
		s.outboxDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// outboxDeps wires the retry worker the same way for the API and the
// background loop.
func (s *server) outboxDeps() orchestrators.OutboxRetryDeps {
	return OutboxRetryDeps(s.stores.OutboxStore, s.opts)
}

// OutboxRetryDeps builds the retry dependencies from the service options.
func OutboxRetryDeps(store orchestrators.OutboxStore, opts Options) orchestrators.OutboxRetryDeps {
	now := opts.Now
	if now == nil {
		now = timeNowUTC
	}
	return orchestrators.OutboxRetryDeps{
		OutboxStore: store,
		Executors: map[string]orchestrators.ActionExecutor{
			outbox.ActionTypeEmail: orchestrators.EmailExecutor{Sender: opts.EmailSender},
		},
		Metrics:   opts.Metrics,
		Now:       now,
		BaseDelay: opts.Config.Outbox.BaseDelay,
		MaxDelay:  opts.Config.Outbox.MaxDelay,
		BatchSize: opts.Config.Outbox.BatchSize,
	}
}
