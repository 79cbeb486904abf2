package payment

import "tienda-be/internal/order"

// MapToOrderStatus translates the gateway vocabulary into the order
// state machine. Total: any unrecognized gateway string maps to
// pending.
func MapToOrderStatus(s TransactionStatus) order.OrderStatus {
	switch s {
	case StatusApproved:
		return order.StatusApproved
	case StatusDeclined:
		return order.StatusDeclined
	case StatusVoided:
		return order.StatusVoided
	case StatusError:
		return order.StatusError
	case StatusPending:
		return order.StatusProcessing
	default:
		return order.StatusPending
	}
}
