package payment

import (
	"encoding/json"
	"time"
)

// TransactionStatus is the gateway's own vocabulary. It is a distinct
// namespace from order.OrderStatus; the two meet only in
// MapToOrderStatus.
type TransactionStatus string

const (
	StatusPending  TransactionStatus = "PENDING"
	StatusApproved TransactionStatus = "APPROVED"
	StatusDeclined TransactionStatus = "DECLINED"
	StatusVoided   TransactionStatus = "VOIDED"
	StatusError    TransactionStatus = "ERROR"
)

// Terminal reports whether the gateway can still move the transaction.
func (s TransactionStatus) Terminal() bool {
	switch s {
	case StatusApproved, StatusDeclined, StatusVoided, StatusError:
		return true
	}
	return false
}

type Transaction struct {
	ID                uint
	WompiID           *string
	Reference         string
	AmountInCents     int64
	Currency          string
	Status            TransactionStatus
	PaymentMethodType string
	// PaymentData keeps the last raw gateway payload for audit/debug.
	PaymentData json.RawMessage
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const (
	MethodCard  = "CARD"
	MethodNequi = "NEQUI"
)

type PaymentMethod struct {
	Type         string `json:"type" validate:"required,oneof=CARD NEQUI"`
	Token        string `json:"token,omitempty"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	Installments int    `json:"installments,omitempty"`
}

type PayOrderInput struct {
	Reference string        `json:"reference" validate:"required"`
	Method    PaymentMethod `json:"payment_method" validate:"required"`
}

type PaymentResult struct {
	Reference         string            `json:"reference"`
	WompiID           string            `json:"wompi_id"`
	TransactionStatus TransactionStatus `json:"transaction_status"`
	OrderStatus       string            `json:"order_status"`
}
