package delivery

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusAssigned  Status = "assigned"
	StatusInTransit Status = "in_transit"
	StatusDelivered Status = "delivered"
)

type Delivery struct {
	ID                    uint
	AddressLine1          string
	AddressLine2          *string
	City                  string
	Region                string
	Country               string
	PostalCode            *string
	Status                Status
	EstimatedDeliveryDate *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Cancellable reports whether the delivery can still be cancelled.
// Once a courier takes the package it is too late.
func (d *Delivery) Cancellable() bool {
	return d.Status == StatusPending || d.Status == StatusAssigned
}
