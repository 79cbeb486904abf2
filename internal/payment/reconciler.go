package payment

import (
	"context"
	"encoding/json"
	"time"

	"tienda-be/internal/logger"
	"tienda-be/internal/metrics"
	"tienda-be/internal/order"

	"go.uber.org/zap"
)

type ReconcileResult struct {
	Reference          string
	PreviousStatus     TransactionStatus
	NewStatus          TransactionStatus
	OrderStatus        order.OrderStatus
	SideEffectsApplied bool
}

// Reconciler merges gateway-reported statuses into local state, exactly
// once per real transition. Polling and webhook delivery feed the same
// merge and may race or duplicate freely; the storage-level transition
// keeps stock and delivery from being applied twice.
type Reconciler struct {
	repo      Repository
	gateway   Gateway
	publisher ApprovalPublisher
	policy    PollPolicy

	appliedCount   metrics.Counter
	duplicateCount metrics.Counter
}

func NewReconciler(repo Repository, gateway Gateway, publisher ApprovalPublisher, policy PollPolicy) *Reconciler {
	if policy.IsTerminal == nil {
		policy.IsTerminal = TransactionStatus.Terminal
	}
	return &Reconciler{
		repo:      repo,
		gateway:   gateway,
		publisher: publisher,
		policy:    policy,
	}
}

// ReconcileStatus merges one reported status. Safe under redelivery:
// the transaction row's previous status decides whether side effects
// fire, inside a single storage transaction.
func (r *Reconciler) ReconcileStatus(ctx context.Context, wompiID string, newStatus TransactionStatus, payload json.RawMessage) (*ReconcileResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("wompi_id", wompiID),
		zap.String("new_status", string(newStatus)),
	)

	// The transaction must already exist; callbacks never create one.
	txn, err := r.repo.GetByWompiID(ctx, wompiID)
	if err != nil {
		return nil, err
	}

	mapped := MapToOrderStatus(newStatus)

	previous, applied, err := r.repo.ApplyGatewayStatus(ctx, ApplyStatusParams{
		WompiID:           wompiID,
		NewStatus:         newStatus,
		OrderStatus:       mapped,
		PaymentData:       payload,
		EstimatedDelivery: time.Now().Add(deliveryLeadTime),
	})
	if err != nil {
		return nil, err
	}

	if applied {
		r.appliedCount.Inc()
		r.notifyApproved(ctx, txn.Reference)
	} else if newStatus == StatusApproved {
		r.duplicateCount.Inc()
		log.Info("duplicate approval ignored", zap.String("previous", string(previous)))
	}

	log.Info("status reconciled",
		zap.String("previous", string(previous)),
		zap.String("order_status", string(mapped)),
		zap.Bool("side_effects", applied),
	)

	return &ReconcileResult{
		Reference:          txn.Reference,
		PreviousStatus:     previous,
		NewStatus:          newStatus,
		OrderStatus:        mapped,
		SideEffectsApplied: applied,
	}, nil
}

// PollTransaction asks the gateway for the transaction's status up to
// MaxAttempts times, reconciling and stopping at the first terminal
// status. Exhaustion is a "still pending" result, not a failure.
func (r *Reconciler) PollTransaction(ctx context.Context, wompiID string) (*PollResult, error) {
	log := logger.FromCtx(ctx).With(zap.String("wompi_id", wompiID))

	var (
		attempts int
		last     = StatusPending
		lastRaw  json.RawMessage
	)

	for attempts < r.policy.MaxAttempts {
		if attempts > 0 {
			if err := r.policy.wait(ctx); err != nil {
				return nil, err
			}
		}
		attempts++

		gwTxn, err := r.gateway.GetTransaction(ctx, wompiID)
		if err != nil {
			return nil, &ServerError{Step: "poll_transaction", Err: err}
		}

		last = TransactionStatus(gwTxn.Status)
		lastRaw = gwTxn.Raw

		if r.policy.IsTerminal(last) {
			res, err := r.ReconcileStatus(ctx, wompiID, last, lastRaw)
			if err != nil {
				return nil, err
			}
			log.Info("poll reached terminal status",
				zap.String("status", string(last)),
				zap.Int("attempts", attempts),
			)
			return &PollResult{
				Status:             last,
				OrderStatus:        res.OrderStatus,
				Attempts:           attempts,
				SideEffectsApplied: res.SideEffectsApplied,
			}, nil
		}
	}

	// Record the non-terminal status so the order shows processing,
	// then hand back to the caller to retry later.
	res, err := r.ReconcileStatus(ctx, wompiID, last, lastRaw)
	if err != nil {
		return nil, err
	}

	log.Info("poll attempts exhausted", zap.Int("attempts", attempts))

	return &PollResult{
		Status:      last,
		OrderStatus: res.OrderStatus,
		Attempts:    attempts,
		Pending:     true,
	}, nil
}

// Stats exposes reconciliation counters for diagnostics.
func (r *Reconciler) Stats() (applied, duplicates uint64) {
	return r.appliedCount.Load(), r.duplicateCount.Load()
}

func (r *Reconciler) notifyApproved(ctx context.Context, reference string) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.OrderApproved(ctx, reference); err != nil {
		logger.FromCtx(ctx).Warn("order approved event not published",
			zap.String("reference", reference),
			zap.Error(err),
		)
	}
}
