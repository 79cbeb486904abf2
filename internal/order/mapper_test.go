package order

import (
	"encoding/json"
	"testing"
	"time"

	"tienda-be/internal/customer"
	"tienda-be/internal/delivery"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSummary_AllRelations(t *testing.T) {
	est := time.Now().Add(72 * time.Hour)

	s := BuildSummary(
		&Order{Reference: "ORD-1", Status: StatusApproved, AmountInCents: 6000000, Currency: "COP"},
		&customer.Customer{Email: "ana@example.com", FullName: "Ana Perez"},
		&TransactionInfo{Status: "APPROVED", AmountInCents: 6000000},
		&delivery.Delivery{
			AddressLine1:          "Calle 10 # 43-12",
			City:                  "Medellin",
			Region:                "Antioquia",
			Country:               "CO",
			Status:                delivery.StatusAssigned,
			EstimatedDeliveryDate: &est,
		},
	)

	require.NotNil(t, s.Customer)
	require.NotNil(t, s.Transaction)
	require.NotNil(t, s.Delivery)
	assert.Equal(t, "assigned", s.Delivery.Status)
	assert.NotNil(t, s.Delivery.EstimatedDeliveryDate)
}

func TestBuildSummary_OmitsAbsentRelations(t *testing.T) {
	s := BuildSummary(
		&Order{Reference: "ORD-2", Status: StatusPending, AmountInCents: 3000000, Currency: "COP"},
		nil, nil, nil,
	)

	payload, err := json.Marshal(s)
	require.NoError(t, err)

	// absent relations are omitted, not rendered as null
	assert.NotContains(t, string(payload), "customer")
	assert.NotContains(t, string(payload), "transaction")
	assert.NotContains(t, string(payload), "delivery")
}
