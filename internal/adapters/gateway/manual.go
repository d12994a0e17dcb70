package gateway

import (
	"context"
	"sync"
)

// ManualGateway settles every request immediately without contacting a
// processor. It is used in development and when no server key is configured,
// and records calls for inspection.
type ManualGateway struct {
	mu      sync.Mutex
	Charges []ChargeRequest
	Refunds []RefundRequest
	// Decline, when set, makes every call report a declined result.
	Decline string
}

// NewManualGateway returns an accepting ManualGateway.
func NewManualGateway() *ManualGateway {
	return &ManualGateway{}
}

// Charge records the request and settles it.
func (g *ManualGateway) Charge(ctx context.Context, req ChargeRequest) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Charges = append(g.Charges, req)
	if g.Decline != "" {
		return Result{Success: false, Error: g.Decline}, nil
	}
	return Result{Success: true, Amount: req.Amount, Reference: "manual-" + req.OrderID}, nil
}

// Refund records the request and settles it.
func (g *ManualGateway) Refund(ctx context.Context, req RefundRequest) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Refunds = append(g.Refunds, req)
	if g.Decline != "" {
		return Result{Success: false, Error: g.Decline}, nil
	}
	return Result{Success: true, Amount: req.Amount, Reference: "manual-refund-" + req.RefundKey}, nil
}
