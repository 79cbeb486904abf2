package payment

import (
	"errors"
	"fmt"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrGatewayUnavailable marks transport failures and timeouts
	// against the gateway. Never interpreted as a decline.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrOrderAlreadyPaid   = errors.New("order already paid")
)

// GatewayRejection is the gateway explicitly refusing a request
// (invalid charge, bad token). Distinct from ErrGatewayUnavailable.
type GatewayRejection struct {
	Detail string
}

func (e *GatewayRejection) Error() string {
	return "gateway rejected request: " + e.Detail
}

// PaymentFailedError reports a charge the gateway declined or errored.
// The order is left in error/declined state with no partial side
// effects.
type PaymentFailedError struct {
	Reference string
	Reason    string
}

func (e *PaymentFailedError) Error() string {
	return fmt.Sprintf("payment failed for order %s: %s", e.Reference, e.Reason)
}

// ServerError carries which pipeline step broke, so operations can
// diagnose without guessing.
type ServerError struct {
	Step string
	Err  error
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *ServerError) Unwrap() error {
	return e.Err
}
