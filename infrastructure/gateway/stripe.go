package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"savoria/domain/directory"
	"savoria/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"go.uber.org/zap"
)

type stripeRefundAPI interface {
	New(params *stripe.RefundParams) (*stripe.Refund, error)
}

// StripeConfig configures StripeGateway. Refunds is only set by tests.
type StripeConfig struct {
	APIKey    string
	AccountID string
	Backends  *stripe.Backends
	Refunds   stripeRefundAPI

	// Fallback receives refunds of payments that were not captured through
	// Stripe (slips, cash). It is required.
	Fallback directory.RefundGateway
}

type StripeGateway struct {
	refunds  stripeRefundAPI
	account  string
	fallback directory.RefundGateway
}

func NewStripeGateway(cfg StripeConfig) (*StripeGateway, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" && cfg.Refunds == nil {
		return nil, errors.New("stripe: api key is required")
	}
	if cfg.Fallback == nil {
		return nil, errors.New("stripe: fallback gateway is required")
	}

	refunds := cfg.Refunds
	if refunds == nil {
		sc := client.New(apiKey, cfg.Backends)
		refunds = sc.Refunds
	}

	return &StripeGateway{
		refunds:  refunds,
		account:  strings.TrimSpace(cfg.AccountID),
		fallback: cfg.Fallback,
	}, nil
}

// Refund refunds against the original payment intent. GatewayRef must be a
// payment intent id (pi_...) or a charge id (ch_...).
func (g *StripeGateway) Refund(ctx context.Context, req directory.RefundRequest) (*directory.RefundResult, error) {
	ref := strings.TrimSpace(req.GatewayRef)
	if ref == "" {
		return g.fallback.Refund(ctx, req)
	}

	params := &stripe.RefundParams{
		Amount: stripe.Int64(minorUnits(req.Amount.Decimal())),
		Reason: stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
		Metadata: map[string]string{
			"payment_id": req.PaymentID,
			"order_id":   req.OrderID,
		},
	}
	if strings.HasPrefix(ref, "ch_") {
		params.Charge = stripe.String(ref)
	} else {
		params.PaymentIntent = stripe.String(ref)
	}
	if req.Reason != "" {
		params.Metadata["reason"] = req.Reason
	}
	params.Context = ctx
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		params.SetIdempotencyKey(key)
	}
	if g.account != "" {
		params.SetStripeAccount(g.account)
	}

	refund, err := g.refunds.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: refund %s: %w", ref, err)
	}
	if refund.Status == stripe.RefundStatusFailed || refund.Status == stripe.RefundStatusCanceled {
		return nil, fmt.Errorf("stripe: refund %s ended %s", refund.ID, refund.Status)
	}

	logger.FromContext(ctx).Info("stripe refund created",
		zap.String("payment_id", req.PaymentID),
		zap.String("refund_id", refund.ID),
		zap.String("status", string(refund.Status)))
	return &directory.RefundResult{Reference: refund.ID}, nil
}

// minorUnits converts a 2 dp amount to cents.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

var _ directory.RefundGateway = (*StripeGateway)(nil)
