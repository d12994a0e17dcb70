package web

import (
	"net/http"

	"dojo/internal/application/orchestrators"
	"dojo/internal/application/projections"
)

// handleInventoryStats serves stock statistics and per-item status.
// Query: category, status.
func (s *server) handleInventoryStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := projections.QueryGetInventoryStats(r.Context(), projections.GetInventoryStatsQuery{
		Category: q.Get("category"),
		Status:   q.Get("status"),
	}, projections.GetInventoryStatsDeps{
		InventoryStore: s.stores.InventoryStore,
		Metrics:        s.opts.Metrics,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleMovementHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r.URL.Query(), "limit", 50)
	if limit < 0 {
		limit = 50
	}
	res, err := projections.QueryGetMovementHistory(r.Context(), projections.GetMovementHistoryQuery{
		ItemID: r.PathValue("id"),
		Limit:  limit,
	}, projections.GetMovementHistoryDeps{
		MovementStore: s.stores.InventoryStore,
		Metrics:       s.opts.Metrics,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type recordMovementRequest struct {
	Type          string `json:"type"`
	Quantity      int    `json:"quantity"`
	UnitCost      int64  `json:"unit_cost"`
	ReferenceKind string `json:"reference_kind"`
	ReferenceID   string `json:"reference_id"`
	Notes         string `json:"notes"`
}

// handleRecordMovement appends a ledger entry. A transition into low or out
// of stock alerts the configured staff recipients.
func (s *server) handleRecordMovement(w http.ResponseWriter, r *http.Request) {
	var req recordMovementRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := orchestrators.ExecuteRecordStockMovement(r.Context(), orchestrators.RecordStockMovementInput{
		ItemID:        r.PathValue("id"),
		Type:          req.Type,
		Quantity:      req.Quantity,
		UnitCost:      req.UnitCost,
		ReferenceKind: req.ReferenceKind,
		ReferenceID:   req.ReferenceID,
		Notes:         req.Notes,
	}, orchestrators.RecordStockMovementDeps{
		InventoryStore:  s.stores.InventoryStore,
		AlertRecipients: s.opts.Config.Email.StaffRecipients,
		ReplyTo:         s.opts.Config.Email.ReplyTo,
		Email:           s.emailDeps(),
		GenerateID:      generateID,
		Now:             s.now,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *server) emailDeps() orchestrators.EmailDeps {
	return orchestrators.EmailDeps{
		Sender:      s.opts.EmailSender,
		OutboxStore: s.stores.OutboxStore,
		GenerateID:  generateID,
		Now:         s.now,
	}
}
