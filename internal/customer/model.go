package customer

import "time"

type Customer struct {
	ID          uint
	Email       string
	FullName    string
	PhoneNumber *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
