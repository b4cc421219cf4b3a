package coupon

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/orderdesk/internal/domain/validate"
)

var (
	// ErrNotFound is returned when no coupon matches the normalised code.
	ErrNotFound = errors.New("coupon not found")
	// ErrDuplicateCode is returned when a coupon with the same code exists.
	ErrDuplicateCode = errors.New("coupon code already exists")
)

var hundred = decimal.NewFromInt(100)

// Coupon is a named percentage discount applied to an order's base total.
type Coupon struct {
	ID              int64
	Code            string
	DiscountPercent decimal.Decimal
}

// NormalizeCode trims the code and upper-cases it. Codes are stored and
// looked up in this form only.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Normalize rewrites the code into its canonical form.
func (c *Coupon) Normalize() {
	c.Code = NormalizeCode(c.Code)
}

// Validate checks the code is present and the percentage lies in (0, 100]
// with at most two decimal places, the precision it is stored with.
func (c *Coupon) Validate() error {
	var es validate.Errors
	validate.Required(&es, "code", c.Code)
	switch pct := c.DiscountPercent; {
	case !pct.IsPositive() || pct.GreaterThan(hundred):
		es.Add("discount_percent", "must be greater than 0 and at most 100")
	case !pct.Equal(pct.Truncate(2)):
		es.Add("discount_percent", "must have at most 2 decimal places")
	}
	return es.Err()
}

// Repository provides coupon persistence.
type Repository interface {
	List(ctx context.Context) ([]Coupon, error)
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	Create(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, id int64) (bool, error)
}
