package order

import (
	"context"
	"database/sql"
	"errors"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uint) (*Order, error)
	GetByReference(ctx context.Context, reference string) (*Order, error)
	UpdateStatus(ctx context.Context, id uint, status OrderStatus) error
	LinkTransaction(ctx context.Context, orderID, transactionID uint) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// Create inserts the order and its items in one transaction. Items are
// immutable after this point.
func (r *repository) Create(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			reference, customer_id, delivery_id,
			amount_in_cents, currency, status
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`,
		o.Reference, o.CustomerID, o.DeliveryID,
		o.AmountInCents, o.Currency, o.Status,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return err
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity)
			VALUES ($1, $2, $3)
			RETURNING id
		`, item.OrderID, item.ProductID, item.Quantity).Scan(&item.ID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Order, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *repository) GetByReference(ctx context.Context, reference string) (*Order, error) {
	return r.getOne(ctx, `WHERE reference = $1`, reference)
}

func (r *repository) getOne(ctx context.Context, where string, arg any) (*Order, error) {
	query := `
		SELECT id, reference, customer_id, delivery_id, transaction_id,
		       amount_in_cents, currency, status, created_at, updated_at
		FROM orders
	` + where

	var o Order
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&o.ID, &o.Reference, &o.CustomerID, &o.DeliveryID, &o.TransactionID,
		&o.AmountInCents, &o.Currency, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, o.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &o, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uint, status OrderStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = now()
		WHERE id = $2
	`, status, id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func (r *repository) LinkTransaction(ctx context.Context, orderID, transactionID uint) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET transaction_id = $1, updated_at = now()
		WHERE id = $2
	`, transactionID, orderID)
	return err
}
