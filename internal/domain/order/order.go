package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order. Orders are created as
// StatusReceived; no transitions are defined yet.
type Status string

// StatusReceived is the state of every newly placed order.
const StatusReceived Status = "received"

// Customer holds the contact details captured with an order.
type Customer struct {
	Name       string
	Phone      string
	Address    string
	PostalCode string
	City       string
}

// LineItem is a snapshot of one ordered product taken when the order was
// placed. Later catalog changes do not affect it.
type LineItem struct {
	ProductID int64
	Name      string
	Price     decimal.Decimal
	Quantity  int
	Note      string
}

// Order represents a placed customer order.
type Order struct {
	ID             int64
	Customer       Customer
	Items          []LineItem
	Payment        string
	CouponCode     string
	Discount       decimal.Decimal
	Total          decimal.Decimal
	Status         Status
	DeliveryMethod string
	CreatedAt      time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create inserts the order in a single statement and fills ID and
	// CreatedAt.
	Create(ctx context.Context, o *Order) error
	// List returns all orders, newest first.
	List(ctx context.Context) ([]Order, error)
}
