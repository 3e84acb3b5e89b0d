/*
Package gateway holds the refund gateway adapters.

SimulatedGateway stands in for a real processor in development and tests.
Its failures are switched on explicitly and never random. StripeGateway
refunds captures taken through Stripe and hands every other refund to a
fallback gateway.
*/
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"savoria/domain/directory"
	"savoria/pkg/logger"

	"go.uber.org/zap"
)

// ErrRefundDeclined is returned by SimulatedGateway when failures are switched on.
var ErrRefundDeclined = errors.New("refund declined by gateway")

type SimulatedGateway struct {
	mu      sync.Mutex
	fail    bool
	latency time.Duration
	issued  map[string]directory.RefundResult
	calls   []directory.RefundRequest
}

func NewSimulatedGateway(failRefunds bool) *SimulatedGateway {
	return &SimulatedGateway{
		fail:   failRefunds,
		issued: make(map[string]directory.RefundResult),
	}
}

// SetFailRefunds switches failures on or off at runtime.
func (g *SimulatedGateway) SetFailRefunds(fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail = fail
}

// SetLatency delays every call, honouring ctx cancellation.
func (g *SimulatedGateway) SetLatency(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.latency = d
}

// Refund replays the earlier result for a repeated idempotency key.
func (g *SimulatedGateway) Refund(ctx context.Context, req directory.RefundRequest) (*directory.RefundResult, error) {
	g.mu.Lock()
	latency := g.latency
	g.mu.Unlock()

	if latency > 0 {
		timer := time.NewTimer(latency)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)

	if req.IdempotencyKey != "" {
		if prev, ok := g.issued[req.IdempotencyKey]; ok {
			return &prev, nil
		}
	}
	if g.fail {
		logger.FromContext(ctx).Warn("simulated refund declined",
			zap.String("payment_id", req.PaymentID),
			zap.String("amount", req.Amount.String()))
		return nil, fmt.Errorf("payment %s: %w", req.PaymentID, ErrRefundDeclined)
	}

	result := directory.RefundResult{Reference: fmt.Sprintf("sim_re_%d", len(g.issued)+1)}
	if req.IdempotencyKey != "" {
		g.issued[req.IdempotencyKey] = result
	}
	return &result, nil
}

// Calls returns every request received, failed ones included.
func (g *SimulatedGateway) Calls() []directory.RefundRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]directory.RefundRequest, len(g.calls))
	copy(out, g.calls)
	return out
}

var _ directory.RefundGateway = (*SimulatedGateway)(nil)
