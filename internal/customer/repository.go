package customer

import (
	"context"
	"database/sql"
	"errors"
)

var ErrCustomerNotFound = errors.New("customer not found")

type Repository interface {
	UpsertByEmail(ctx context.Context, c *Customer) (*Customer, error)
	GetByEmail(ctx context.Context, email string) (*Customer, error)
	GetByID(ctx context.Context, id uint) (*Customer, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// UpsertByEmail creates the customer or refreshes name/phone for an
// existing email. Safe to call once per order.
func (r *repository) UpsertByEmail(ctx context.Context, c *Customer) (*Customer, error) {
	const q = `
		INSERT INTO customers (email, full_name, phone_number)
		VALUES ($1, $2, $3)
		ON CONFLICT (email)
		DO UPDATE SET
			full_name = EXCLUDED.full_name,
			phone_number = COALESCE(EXCLUDED.phone_number, customers.phone_number),
			updated_at = now()
		RETURNING id, email, full_name, phone_number, created_at, updated_at
	`

	var out Customer
	err := r.db.QueryRowContext(ctx, q, c.Email, c.FullName, c.PhoneNumber).
		Scan(&out.ID, &out.Email, &out.FullName, &out.PhoneNumber, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*Customer, error) {
	const q = `
		SELECT id, email, full_name, phone_number, created_at, updated_at
		FROM customers
		WHERE email = $1
	`

	var c Customer
	err := r.db.QueryRowContext(ctx, q, email).
		Scan(&c.ID, &c.Email, &c.FullName, &c.PhoneNumber, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Customer, error) {
	const q = `
		SELECT id, email, full_name, phone_number, created_at, updated_at
		FROM customers
		WHERE id = $1
	`

	var c Customer
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&c.ID, &c.Email, &c.FullName, &c.PhoneNumber, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}

	return &c, nil
}
