package order

import (
	"time"

	"tienda-be/internal/customer"
	"tienda-be/internal/delivery"
)

// TransactionInfo is the slice of a payment transaction the read model
// exposes.
type TransactionInfo struct {
	WompiID           *string `json:"wompi_id,omitempty"`
	Status            string  `json:"status"`
	AmountInCents     int64   `json:"amount_in_cents"`
	PaymentMethodType string  `json:"payment_method_type,omitempty"`
}

type CustomerSummary struct {
	Email       string  `json:"email"`
	FullName    string  `json:"full_name"`
	PhoneNumber *string `json:"phone_number,omitempty"`
}

type DeliverySummary struct {
	AddressLine1          string     `json:"address_line1"`
	City                  string     `json:"city"`
	Region                string     `json:"region"`
	Country               string     `json:"country"`
	Status                string     `json:"status"`
	EstimatedDeliveryDate *time.Time `json:"estimated_delivery_date,omitempty"`
}

// OrderSummary is the flattened view joining the order with whichever
// relations exist. Absent relations are omitted from the payload, not
// emitted as null placeholders.
type OrderSummary struct {
	Reference     string           `json:"reference"`
	Status        OrderStatus      `json:"status"`
	AmountInCents int64            `json:"amount_in_cents"`
	Currency      string           `json:"currency"`
	Items         []OrderItem      `json:"items"`
	Customer      *CustomerSummary `json:"customer,omitempty"`
	Transaction   *TransactionInfo `json:"transaction,omitempty"`
	Delivery      *DeliverySummary `json:"delivery,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

func BuildSummary(o *Order, c *customer.Customer, txn *TransactionInfo, d *delivery.Delivery) *OrderSummary {
	s := &OrderSummary{
		Reference:     o.Reference,
		Status:        o.Status,
		AmountInCents: o.AmountInCents,
		Currency:      o.Currency,
		Items:         o.Items,
		Transaction:   txn,
		CreatedAt:     o.CreatedAt,
	}

	if c != nil {
		s.Customer = &CustomerSummary{
			Email:       c.Email,
			FullName:    c.FullName,
			PhoneNumber: c.PhoneNumber,
		}
	}

	if d != nil {
		s.Delivery = &DeliverySummary{
			AddressLine1:          d.AddressLine1,
			City:                  d.City,
			Region:                d.Region,
			Country:               d.Country,
			Status:                string(d.Status),
			EstimatedDeliveryDate: d.EstimatedDeliveryDate,
		}
	}

	return s
}
