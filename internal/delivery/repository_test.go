package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deliveryRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "address_line1", "address_line2", "city", "region", "country",
		"postal_code", "status", "estimated_delivery_date", "created_at", "updated_at",
	})
}

func TestRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
		AddRow(1, time.Now(), time.Now())

	mock.ExpectQuery(`INSERT INTO deliveries`).
		WillReturnRows(rows)

	d, err := repo.Create(ctx, &Delivery{
		AddressLine1: "Calle 10 # 43-12",
		City:         "Medellin",
		Region:       "Antioquia",
		Country:      "CO",
	})
	assert.NoError(t, err)
	assert.Equal(t, uint(1), d.ID)
	assert.Equal(t, StatusPending, d.Status)
}

func TestRepository_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("AssignedToInTransit", func(t *testing.T) {
		rows := deliveryRows().
			AddRow(1, "Calle 10", nil, "Medellin", "Antioquia", "CO", nil, "assigned", nil, time.Now(), time.Now())

		mock.ExpectQuery(`SELECT .* FROM deliveries WHERE id = \$1`).
			WithArgs(1).
			WillReturnRows(rows)
		mock.ExpectExec(`UPDATE deliveries`).
			WithArgs(StatusInTransit, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatus(ctx, 1, StatusInTransit)
		assert.NoError(t, err)
	})

	t.Run("PendingToDeliveredRejected", func(t *testing.T) {
		rows := deliveryRows().
			AddRow(1, "Calle 10", nil, "Medellin", "Antioquia", "CO", nil, "pending", nil, time.Now(), time.Now())

		mock.ExpectQuery(`SELECT .* FROM deliveries WHERE id = \$1`).
			WithArgs(1).
			WillReturnRows(rows)

		err := repo.UpdateStatus(ctx, 1, StatusDelivered)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestRepository_Cancel(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("WhilePending", func(t *testing.T) {
		mock.ExpectExec(`UPDATE deliveries`).
			WithArgs(1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Cancel(ctx, 1))
	})

	t.Run("AlreadyInTransit", func(t *testing.T) {
		mock.ExpectExec(`UPDATE deliveries`).
			WithArgs(2).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Cancel(ctx, 2), ErrInvalidTransition)
	})
}

func TestDelivery_Cancellable(t *testing.T) {
	assert.True(t, (&Delivery{Status: StatusPending}).Cancellable())
	assert.True(t, (&Delivery{Status: StatusAssigned}).Cancellable())
	assert.False(t, (&Delivery{Status: StatusInTransit}).Cancellable())
	assert.False(t, (&Delivery{Status: StatusDelivered}).Cancellable())
}
