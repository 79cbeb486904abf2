package payment

import (
	"context"
	"time"

	"tienda-be/internal/order"
)

// PollPolicy bounds the gateway polling loop: how many attempts, how
// long between them, and which statuses stop it. Sleep can be swapped
// out in tests so no test waits on the wall clock.
type PollPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	IsTerminal  func(TransactionStatus) bool
	Sleep       func(ctx context.Context, d time.Duration) error
}

func NewPollPolicy(maxAttempts int, delay time.Duration) PollPolicy {
	return PollPolicy{
		MaxAttempts: maxAttempts,
		Delay:       delay,
		IsTerminal:  TransactionStatus.Terminal,
	}
}

// wait suspends between attempts. A cancelled context interrupts the
// timer immediately.
func (p PollPolicy) wait(ctx context.Context) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, p.Delay)
	}

	timer := time.NewTimer(p.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// PollResult is success-shaped even when attempts run out: exhaustion
// means "still pending, retry later", not an error.
type PollResult struct {
	Status             TransactionStatus `json:"status"`
	OrderStatus        order.OrderStatus `json:"order_status"`
	Attempts           int               `json:"attempts"`
	Pending            bool              `json:"pending"`
	SideEffectsApplied bool              `json:"-"`
}
