package order

import "time"

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusApproved   OrderStatus = "approved"
	StatusDeclined   OrderStatus = "declined"
	StatusVoided     OrderStatus = "voided"
	StatusError      OrderStatus = "error"
)

// Terminal reports whether the status admits no further payment-driven
// transitions or side effects.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusApproved, StatusDeclined, StatusVoided, StatusError:
		return true
	}
	return false
}

type Order struct {
	ID            uint
	Reference     string
	CustomerID    *uint
	DeliveryID    *uint
	TransactionID *uint
	AmountInCents int64
	Currency      string
	Status        OrderStatus
	Items         []OrderItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Items are immutable after creation; quantities here are what stock
// decrement uses once the payment is approved.
type OrderItem struct {
	ID        uint
	OrderID   uint
	ProductID uint
	Quantity  int
}

type ItemInput struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,gt=0"`
}

type AddressInput struct {
	AddressLine1 string  `json:"address_line1" validate:"required"`
	AddressLine2 *string `json:"address_line2"`
	City         string  `json:"city" validate:"required"`
	Region       string  `json:"region" validate:"required"`
	Country      string  `json:"country" validate:"required,len=2"`
	PostalCode   *string `json:"postal_code"`
}

type CreateOrderInput struct {
	CustomerEmail   string        `json:"customer_email" validate:"required,email"`
	CustomerName    string        `json:"customer_name" validate:"required"`
	PhoneNumber     *string       `json:"phone_number"`
	AmountInCents   int64         `json:"amount_in_cents" validate:"required,gt=0"`
	Currency        string        `json:"currency" validate:"required,len=3"`
	Items           []ItemInput   `json:"items" validate:"required,min=1,dive"`
	ShippingAddress *AddressInput `json:"shipping_address" validate:"omitempty"`
}

type CreateOrderResult struct {
	OrderID       uint        `json:"order_id"`
	Reference     string      `json:"reference"`
	Status        OrderStatus `json:"status"`
	AmountInCents int64       `json:"amount_in_cents"`
	Currency      string      `json:"currency"`
	CustomerID    uint        `json:"customer_id"`
	DeliveryID    *uint       `json:"delivery_id,omitempty"`
}
