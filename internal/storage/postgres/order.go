package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/orderdesk/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (
			customer_name, customer_phone, customer_address, postal_code, city,
			items, payment, coupon_code, discount, total, status, delivery_method
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`

	listOrdersSQL = `SELECT id, customer_name, customer_phone, customer_address, postal_code, city,
			items, payment, coupon_code, discount, total, status, delivery_method, created_at
		FROM orders ORDER BY created_at DESC, id DESC`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order with its items snapshot in a single INSERT.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	c := o.Customer
	err := r.pool.QueryRow(ctx, createOrderSQL,
		c.Name, c.Phone, c.Address, c.PostalCode, c.City,
		string(order.EncodeItems(o.Items)), o.Payment, o.CouponCode,
		o.Discount, o.Total, string(o.Status), o.DeliveryMethod,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "insert order")
	}
	return nil
}

// List returns all orders, newest first.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		items  []byte
		status string
	)
	err := row.Scan(
		&o.ID, &o.Customer.Name, &o.Customer.Phone, &o.Customer.Address,
		&o.Customer.PostalCode, &o.Customer.City,
		&items, &o.Payment, &o.CouponCode, &o.Discount, &o.Total, &status,
		&o.DeliveryMethod, &o.CreatedAt,
	)
	if err != nil {
		return o, err
	}
	o.Status = order.Status(status)
	o.Items, err = order.DecodeItems(items)
	return o, err
}
