package order

import (
	"errors"
	"fmt"
)

var ErrOrderNotFound = errors.New("order not found")

// ValidationError covers malformed or incomplete input. It is always
// reported to the caller and never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// PriceMismatchError is the price-integrity rejection: the client
// claimed an amount that does not match the server-computed total.
// Both values are kept so the caller can see exactly what diverged.
type PriceMismatchError struct {
	Provided   int64
	Calculated int64
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("amount mismatch: provided %d, calculated %d", e.Provided, e.Calculated)
}
