package customer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_UpsertByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("InsertNew", func(t *testing.T) {
		phone := "+573001112233"
		rows := sqlmock.NewRows([]string{"id", "email", "full_name", "phone_number", "created_at", "updated_at"}).
			AddRow(1, "ana@example.com", "Ana Perez", phone, time.Now(), time.Now())

		mock.ExpectQuery(`INSERT INTO customers .* ON CONFLICT \(email\)`).
			WithArgs("ana@example.com", "Ana Perez", phone).
			WillReturnRows(rows)

		c, err := repo.UpsertByEmail(ctx, &Customer{
			Email:       "ana@example.com",
			FullName:    "Ana Perez",
			PhoneNumber: &phone,
		})
		assert.NoError(t, err)
		assert.Equal(t, uint(1), c.ID)
		assert.Equal(t, "ana@example.com", c.Email)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO customers`).
			WillReturnError(errors.New("db error"))

		_, err := repo.UpsertByEmail(ctx, &Customer{Email: "x@example.com", FullName: "X"})
		assert.Error(t, err)
	})
}

func TestRepository_GetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "email", "full_name", "phone_number", "created_at", "updated_at"}).
			AddRow(7, "ana@example.com", "Ana Perez", nil, time.Now(), time.Now())

		mock.ExpectQuery(`SELECT .* FROM customers WHERE email = \$1`).
			WithArgs("ana@example.com").
			WillReturnRows(rows)

		c, err := repo.GetByEmail(ctx, "ana@example.com")
		assert.NoError(t, err)
		assert.Equal(t, uint(7), c.ID)
		assert.Nil(t, c.PhoneNumber)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM customers WHERE email = \$1`).
			WithArgs("missing@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetByEmail(ctx, "missing@example.com")
		assert.ErrorIs(t, err, ErrCustomerNotFound)
	})
}
