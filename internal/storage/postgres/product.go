package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/orderdesk/internal/domain/product"
)

const (
	productColumns = `id, name, description, price, image_url, category, highlight`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products ORDER BY id`

	getProductsByIDsSQL = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	createProductSQL = `INSERT INTO products (name, description, price, image_url, category, highlight)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	replaceProductSQL = `UPDATE products
		SET name = $2, description = $3, price = $4, image_url = $5, category = $6, highlight = $7
		WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return products, nil
}

// GetByIDs returns products matching any of the given IDs. Unknown IDs are
// absent from the result.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products by ids")
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, errors.Wrap(err, "get products by ids")
	}
	return products, nil
}

// Create inserts p and sets its ID.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	err := r.pool.QueryRow(ctx, createProductSQL,
		p.Name, p.Description, p.Price, p.ImageURL, p.Category, p.Highlight,
	).Scan(&p.ID)
	if err != nil {
		return errors.Wrap(err, "create product")
	}
	return nil
}

// Replace overwrites every field of the product with p.ID.
func (r *ProductRepository) Replace(ctx context.Context, p *product.Product) error {
	tag, err := r.pool.Exec(ctx, replaceProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.ImageURL, p.Category, p.Highlight,
	)
	if err != nil {
		return errors.Wrapf(err, "replace product %d", p.ID)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Delete removes the product and reports whether it existed.
func (r *ProductRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return false, errors.Wrapf(err, "delete product %d", id)
	}
	return tag.RowsAffected() > 0, nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.Category, &p.Highlight)
	return p, err
}
