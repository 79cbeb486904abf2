package order

import (
	"fmt"
	"sort"
	"strings"

	"tienda-be/internal/product"
)

// Prices are kept in whole COP; the gateway charges in cents.
const (
	FreeShippingThreshold int64 = 50000
	ShippingSurcharge     int64 = 10000
	centsPerUnit          int64 = 100
)

type Quote struct {
	Subtotal     int64
	Shipping     int64
	TotalInCents int64
}

// CalculateQuote recomputes the authoritative order total from current
// product prices. Product ids the catalog does not know fail the quote;
// clients cannot invent products.
func CalculateQuote(items []ItemInput, products map[uint]*product.Product) (*Quote, error) {
	var subtotal int64
	var missing []uint

	for _, item := range items {
		p, ok := products[item.ProductID]
		if !ok {
			missing = append(missing, item.ProductID)
			continue
		}
		subtotal += p.Price * int64(item.Quantity)
	}

	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		ids := make([]string, 0, len(missing))
		for _, id := range missing {
			ids = append(ids, fmt.Sprint(id))
		}
		return nil, &ValidationError{
			Message: "unknown product ids: " + strings.Join(ids, ", "),
		}
	}

	shipping := ShippingSurcharge
	if subtotal >= FreeShippingThreshold {
		shipping = 0
	}

	return &Quote{
		Subtotal:     subtotal,
		Shipping:     shipping,
		TotalInCents: (subtotal + shipping) * centsPerUnit,
	}, nil
}

// ValidateAmount rejects a client-submitted amount that disagrees with
// the computed quote. Never coerces; the mismatch is the anti-fraud
// signal.
func ValidateAmount(claimed int64, q *Quote) error {
	if claimed != q.TotalInCents {
		return &PriceMismatchError{Provided: claimed, Calculated: q.TotalInCents}
	}
	return nil
}
