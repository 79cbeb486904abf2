package delivery

import (
	"context"
	"database/sql"
	"errors"
)

type Repository interface {
	Create(ctx context.Context, d *Delivery) (*Delivery, error)
	GetByID(ctx context.Context, id uint) (*Delivery, error)
	UpdateStatus(ctx context.Context, id uint, status Status) error
	Cancel(ctx context.Context, id uint) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, d *Delivery) (*Delivery, error) {
	const q = `
		INSERT INTO deliveries (
			address_line1, address_line2, city, region, country, postal_code, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	if d.Status == "" {
		d.Status = StatusPending
	}

	err := r.db.QueryRowContext(ctx, q,
		d.AddressLine1, d.AddressLine2, d.City, d.Region, d.Country, d.PostalCode, d.Status,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return d, nil
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Delivery, error) {
	const q = `
		SELECT id, address_line1, address_line2, city, region, country, postal_code,
		       status, estimated_delivery_date, created_at, updated_at
		FROM deliveries
		WHERE id = $1
	`

	var d Delivery
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.AddressLine1, &d.AddressLine2, &d.City, &d.Region, &d.Country,
		&d.PostalCode, &d.Status, &d.EstimatedDeliveryDate, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDeliveryNotFound
	}
	if err != nil {
		return nil, err
	}

	return &d, nil
}

// legalNext lists the transitions fulfillment is allowed to make.
// Assignment (pending -> assigned) happens only through the payment
// reconciliation transaction, not through this method.
var legalNext = map[Status][]Status{
	StatusAssigned:  {StatusInTransit},
	StatusInTransit: {StatusDelivered},
}

func (r *repository) UpdateStatus(ctx context.Context, id uint, status Status) error {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	allowed := false
	for _, next := range legalNext[current.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrInvalidTransition
	}

	const q = `
		UPDATE deliveries
		SET status = $1, updated_at = now()
		WHERE id = $2
	`
	_, err = r.db.ExecContext(ctx, q, status, id)
	return err
}

// Cancel resets the delivery to pending and clears the estimate, but
// only while it is still cancellable. The guard is in the WHERE clause
// so it cannot race with an in_transit handoff.
func (r *repository) Cancel(ctx context.Context, id uint) error {
	const q = `
		UPDATE deliveries
		SET status = 'pending', estimated_delivery_date = NULL, updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'assigned')
	`

	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidTransition
	}

	return nil
}
