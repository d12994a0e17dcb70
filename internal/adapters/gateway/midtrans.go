package gateway

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
)

// Transaction statuses reported by Midtrans.
const (
	TxCapture    = "capture"
	TxSettlement = "settlement"
	TxPending    = "pending"
	TxDeny       = "deny"
	TxCancel     = "cancel"
	TxExpire     = "expire"
	TxFailure    = "failure"
	TxRefund     = "refund"
)

// coreClient is the subset of coreapi.Client the gateway calls.
type coreClient interface {
	ChargeTransaction(req *coreapi.ChargeReq) (*coreapi.ChargeResponse, *midtrans.Error)
	RefundTransaction(orderID string, req *coreapi.RefundReq) (*coreapi.RefundResponse, *midtrans.Error)
}

// MidtransGateway charges saved cards through the Midtrans Core API.
// Amounts are passed through unchanged, so they must already be in the
// account currency's smallest unit Midtrans accepts.
type MidtransGateway struct {
	client    coreClient
	serverKey string
}

// NewMidtransGateway returns a gateway bound to the sandbox or production environment.
// PRE: serverKey is non-empty
func NewMidtransGateway(serverKey string, production bool) *MidtransGateway {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	c := &coreapi.Client{}
	c.New(serverKey, env)
	return &MidtransGateway{client: c, serverKey: serverKey}
}

// Charge runs a one-click card charge with the member's saved token.
// PRE: req.OrderID unique per attempt; req.Amount > 0
// POST: Success for capture/settlement, Pending for pending, declined otherwise
func (g *MidtransGateway) Charge(ctx context.Context, req ChargeRequest) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	resp, mErr := g.client.ChargeTransaction(&coreapi.ChargeReq{
		PaymentType: coreapi.PaymentTypeCreditCard,
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: req.Amount,
		},
		CreditCard: &coreapi.CreditCardDetails{
			TokenID:        req.PaymentToken,
			Authentication: false,
		},
	})
	if mErr != nil {
		// 4xx from Midtrans is a decline; anything else is transport.
		if mErr.StatusCode >= 400 && mErr.StatusCode < 500 {
			slog.Info("gateway_charge_declined", "order_id", req.OrderID, "status", mErr.StatusCode)
			return Result{Success: false, Error: mErr.Message}, nil
		}
		return Result{}, fmt.Errorf("%w: charge %s: %s", ErrUnavailable, req.OrderID, mErr.Message)
	}
	if resp == nil {
		return Result{}, fmt.Errorf("%w: charge %s: empty response", ErrUnavailable, req.OrderID)
	}

	res := Result{Amount: req.Amount, Reference: resp.TransactionID}
	switch resp.TransactionStatus {
	case TxCapture, TxSettlement:
		res.Success = true
	case TxPending:
		res.Pending = true
	default:
		res.Error = fmt.Sprintf("%s: %s", resp.TransactionStatus, resp.StatusMessage)
	}
	return res, nil
}

// Refund returns part or all of a settled order.
// PRE: req.Amount > 0
func (g *MidtransGateway) Refund(ctx context.Context, req RefundRequest) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	resp, mErr := g.client.RefundTransaction(req.OrderID, &coreapi.RefundReq{
		RefundKey: req.RefundKey,
		Amount:    req.Amount,
		Reason:    req.Reason,
	})
	if mErr != nil {
		if mErr.StatusCode >= 400 && mErr.StatusCode < 500 {
			return Result{Success: false, Error: mErr.Message}, nil
		}
		return Result{}, fmt.Errorf("%w: refund %s: %s", ErrUnavailable, req.OrderID, mErr.Message)
	}
	if resp == nil {
		return Result{}, fmt.Errorf("%w: refund %s: empty response", ErrUnavailable, req.OrderID)
	}
	if resp.StatusCode != "200" {
		return Result{Success: false, Error: resp.StatusMessage}, nil
	}
	return Result{Success: true, Amount: req.Amount, Reference: resp.TransactionID}, nil
}

// Verify checks signature_key = SHA512(order_id + status_code + gross_amount + server_key).
func (g *MidtransGateway) Verify(n Notification) bool {
	return VerifySignature(g.serverKey, n)
}

// VerifySignature authenticates a Midtrans notification against serverKey.
func VerifySignature(serverKey string, n Notification) bool {
	sum := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + serverKey))
	want := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(want), []byte(n.SignatureKey)) == 1
}
