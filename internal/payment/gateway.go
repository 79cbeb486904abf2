package payment

import (
	"context"
	"encoding/json"
)

type CustomerData struct {
	FullName    string `json:"full_name,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

type ShippingAddress struct {
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2,omitempty"`
	City         string `json:"city"`
	Region       string `json:"region"`
	Country      string `json:"country"`
	PostalCode   string `json:"postal_code,omitempty"`
}

type ChargeParams struct {
	AcceptanceToken string
	AmountInCents   int64
	Currency        string
	CustomerEmail   string
	Reference       string
	Method          PaymentMethod
	CustomerData    *CustomerData
	ShippingAddress *ShippingAddress
}

// GatewayTransaction is the gateway's view of a charge. Status stays a
// raw string here; the reconciler owns interpretation.
type GatewayTransaction struct {
	ID                string
	Reference         string
	Status            string
	AmountInCents     int64
	Currency          string
	PaymentMethodType string
	Raw               json.RawMessage
}

type Gateway interface {
	GetAcceptanceToken(ctx context.Context) (string, error)
	CreateTransaction(ctx context.Context, params ChargeParams) (*GatewayTransaction, error)
	GetTransaction(ctx context.Context, id string) (*GatewayTransaction, error)
}
