package product

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/orderdesk/internal/domain/validate"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a menu item available for ordering.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	Category    string
	Highlight   bool
}

// Normalize sanitises the free-text fields in place. The image URL is
// opaque and only trimmed.
func (p *Product) Normalize() {
	p.Name = validate.CleanText(p.Name)
	p.Description = validate.CleanText(p.Description)
	p.Category = validate.CleanText(p.Category)
	p.ImageURL = strings.TrimSpace(p.ImageURL)
}

// Validate checks the fields required for insertion or replacement.
func (p *Product) Validate() error {
	var es validate.Errors
	validate.Required(&es, "name", p.Name)
	validate.Amount(&es, "price", p.Price)
	return es.Err()
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByIDs(ctx context.Context, ids []int64) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Replace(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) (bool, error)
}
