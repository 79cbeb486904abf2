package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"tienda-be/internal/order"
)

type ApplyStatusParams struct {
	WompiID     string
	NewStatus   TransactionStatus
	OrderStatus order.OrderStatus
	PaymentData json.RawMessage
	// EstimatedDelivery is set on the delivery row when the transition
	// newly approves the payment.
	EstimatedDelivery time.Time
}

type Repository interface {
	Save(ctx context.Context, t *Transaction) error
	GetByWompiID(ctx context.Context, wompiID string) (*Transaction, error)
	GetByReference(ctx context.Context, reference string) (*Transaction, error)

	// ApplyGatewayStatus performs the whole reconciliation transition
	// in one database transaction: lock the transaction row, read the
	// previous status, write the new transaction and order statuses,
	// and iff the payment is newly approved decrement stock and assign
	// the delivery. Returns the previous status and whether side
	// effects ran. Concurrent calls for the same wompi id serialize on
	// the row lock, so only one of them can observe previous !=
	// APPROVED.
	ApplyGatewayStatus(ctx context.Context, params ApplyStatusParams) (previous TransactionStatus, applied bool, err error)

	// FindInfoByReference implements order.TransactionSource for the
	// read model.
	FindInfoByReference(ctx context.Context, reference string) (*order.TransactionInfo, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Save(ctx context.Context, t *Transaction) error {
	const q = `
		INSERT INTO transactions (
			wompi_id, reference, amount_in_cents, currency,
			status, payment_method_type, payment_data
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	return r.db.QueryRowContext(ctx, q,
		t.WompiID, t.Reference, t.AmountInCents, t.Currency,
		t.Status, t.PaymentMethodType, t.PaymentData,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *repository) GetByWompiID(ctx context.Context, wompiID string) (*Transaction, error) {
	return r.getOne(ctx, `WHERE wompi_id = $1`, wompiID)
}

func (r *repository) GetByReference(ctx context.Context, reference string) (*Transaction, error) {
	return r.getOne(ctx, `WHERE reference = $1 ORDER BY id DESC LIMIT 1`, reference)
}

func (r *repository) getOne(ctx context.Context, where string, arg any) (*Transaction, error) {
	query := `
		SELECT id, wompi_id, reference, amount_in_cents, currency,
		       status, payment_method_type, payment_data, created_at, updated_at
		FROM transactions
	` + where

	var t Transaction
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&t.ID, &t.WompiID, &t.Reference, &t.AmountInCents, &t.Currency,
		&t.Status, &t.PaymentMethodType, &t.PaymentData, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func (r *repository) ApplyGatewayStatus(ctx context.Context, params ApplyStatusParams) (TransactionStatus, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, err
	}
	defer tx.Rollback()

	// 1. Lock the transaction row and retain the previous status. A
	//    callback for an unknown transaction is not created on the fly.
	var (
		txnID     uint
		previous  TransactionStatus
		reference string
	)
	err = tx.QueryRowContext(ctx, `
		SELECT id, status, reference
		FROM transactions
		WHERE wompi_id = $1
		FOR UPDATE
	`, params.WompiID).Scan(&txnID, &previous, &reference)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, ErrTransactionNotFound
	}
	if err != nil {
		return "", false, err
	}

	// 2. Overwrite the transaction status and keep the raw payload.
	_, err = tx.ExecContext(ctx, `
		UPDATE transactions
		SET status = $1,
		    payment_data = COALESCE($2, payment_data),
		    updated_at = now()
		WHERE id = $3
	`, params.NewStatus, params.PaymentData, txnID)
	if err != nil {
		return previous, false, err
	}

	// 3. Move the order through the status mapping.
	var (
		orderID    uint
		deliveryID sql.NullInt64
	)
	err = tx.QueryRowContext(ctx, `
		SELECT id, delivery_id
		FROM orders
		WHERE reference = $1
		FOR UPDATE
	`, reference).Scan(&orderID, &deliveryID)
	if err != nil {
		return previous, false, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = now()
		WHERE id = $2
	`, params.OrderStatus, orderID)
	if err != nil {
		return previous, false, err
	}

	// 4. Side effects fire only on the first transition into APPROVED.
	//    This guard is what makes duplicate and out-of-order
	//    notifications safe.
	applied := params.NewStatus == StatusApproved && previous != StatusApproved
	if applied {
		if err := decrementStock(ctx, tx, orderID); err != nil {
			return previous, false, err
		}

		if deliveryID.Valid {
			_, err = tx.ExecContext(ctx, `
				UPDATE deliveries
				SET status = 'assigned',
				    estimated_delivery_date = $1,
				    updated_at = now()
				WHERE id = $2 AND status = 'pending'
			`, params.EstimatedDelivery, deliveryID.Int64)
			if err != nil {
				return previous, false, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return previous, false, err
	}

	return previous, applied, nil
}

// decrementStock reduces stock for every order item, floored at zero.
func decrementStock(ctx context.Context, tx *sql.Tx, orderID uint) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT product_id, quantity
		FROM order_items
		WHERE order_id = $1
	`, orderID)
	if err != nil {
		return err
	}

	type line struct {
		productID uint
		quantity  int
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.productID, &l.quantity); err != nil {
			rows.Close()
			return err
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, l := range lines {
		_, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = GREATEST(stock - $1, 0), updated_at = now()
			WHERE id = $2
		`, l.quantity, l.productID)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *repository) FindInfoByReference(ctx context.Context, reference string) (*order.TransactionInfo, error) {
	t, err := r.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	return &order.TransactionInfo{
		WompiID:           t.WompiID,
		Status:            string(t.Status),
		AmountInCents:     t.AmountInCents,
		PaymentMethodType: t.PaymentMethodType,
	}, nil
}
