package delivery

import "errors"

var (
	ErrDeliveryNotFound  = errors.New("delivery not found")
	ErrInvalidTransition = errors.New("invalid delivery status transition")
)
