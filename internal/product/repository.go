package product

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

var ErrProductNotFound = errors.New("product not found")

type Repository interface {
	GetByID(ctx context.Context, id uint) (*Product, error)
	GetByIDs(ctx context.Context, ids []uint) (map[uint]*Product, error)
	List(ctx context.Context, limit, offset int32) ([]*Product, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Product, error) {
	const q = `
		SELECT id, name, description, price, stock, image_url, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var p Product
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// GetByIDs loads the products referenced by an order in one round trip.
// Missing ids are simply absent from the map; the caller decides whether
// that is an error.
func (r *repository) GetByIDs(ctx context.Context, ids []uint) (map[uint]*Product, error) {
	const q = `
		SELECT id, name, description, price, stock, image_url, created_at, updated_at
		FROM products
		WHERE id = ANY($1)
	`

	int64IDs := make([]int64, 0, len(ids))
	for _, id := range ids {
		int64IDs = append(int64IDs, int64(id))
	}

	rows, err := r.db.QueryContext(ctx, q, pq.Array(int64IDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uint]*Product, len(ids))
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out[p.ID] = &p
	}

	return out, rows.Err()
}

func (r *repository) List(ctx context.Context, limit, offset int32) ([]*Product, error) {
	const q = `
		SELECT id, name, description, price, stock, image_url, created_at, updated_at
		FROM products
		ORDER BY id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}

	return out, rows.Err()
}
