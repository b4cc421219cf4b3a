// Package payment bridges order items to a hosted payment page.
//
// The bridge stores nothing locally. It converts items to minor-unit line
// items, asks a Provider for a checkout session and returns its URL.
package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/orderdesk/internal/domain/pricing"
	"github.com/xenking/orderdesk/internal/domain/validate"
)

// ErrDisabled is returned when no payment provider is configured.
var ErrDisabled = errors.New("checkout disabled")

// ProviderError wraps a failed call to the payment provider.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Item is a line item submitted for checkout.
type Item struct {
	Name     string
	Price    decimal.Decimal
	Quantity *int
}

// LineItem is a provider line item priced in minor currency units.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// SessionRequest is what a Provider needs to open a hosted checkout.
type SessionRequest struct {
	Items          []LineItem
	Currency       string
	SuccessURL     string
	CancelURL      string
	IdempotencyKey string
}

// Session is an opened hosted checkout.
type Session struct {
	ID  string
	URL string
}

// Provider opens checkout sessions with an external payment service.
type Provider interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
}

// Checkout builds provider requests from submitted items.
type Checkout struct {
	provider    Provider
	currency    string
	frontendURL string
}

// NewCheckout creates a Checkout. A nil provider disables it.
func NewCheckout(provider Provider, currency, frontendURL string) *Checkout {
	return &Checkout{
		provider:    provider,
		currency:    strings.ToLower(strings.TrimSpace(currency)),
		frontendURL: strings.TrimRight(strings.TrimSpace(frontendURL), "/"),
	}
}

// Enabled reports whether a provider is configured.
func (c *Checkout) Enabled() bool { return c.provider != nil }

// Currency returns the ISO currency code used for sessions.
func (c *Checkout) Currency() string { return c.currency }

// CreateSession validates items and requests a hosted checkout session.
func (c *Checkout) CreateSession(ctx context.Context, items []Item) (*Session, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	lines, err := lineItems(items)
	if err != nil {
		return nil, err
	}

	s, err := c.provider.CreateSession(ctx, SessionRequest{
		Items:          lines,
		Currency:       c.currency,
		SuccessURL:     c.frontendURL + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:      c.frontendURL + "/cancel",
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		var perr *ProviderError
		if errors.As(err, &perr) {
			return nil, err
		}
		return nil, &ProviderError{Provider: "checkout", Err: err}
	}
	return s, nil
}

func lineItems(items []Item) ([]LineItem, error) {
	var es validate.Errors
	if len(items) == 0 {
		es.Add("items", "must not be empty")
		return nil, es.Err()
	}

	out := make([]LineItem, len(items))
	for i, it := range items {
		field := fmt.Sprintf("items[%d]", i)

		name := validate.CleanText(it.Name)
		validate.Required(&es, field+".name", name)
		validate.Amount(&es, field+".price", it.Price)
		qty := pricing.DefaultQuantity
		if it.Quantity != nil {
			qty = *it.Quantity
		}
		switch {
		case qty < 1:
			es.Add(field+".qty", "must be at least 1")
		case qty > pricing.MaxQuantity:
			es.Add(field+".qty", fmt.Sprintf("must be at most %d", pricing.MaxQuantity))
		}

		out[i] = LineItem{
			Name:       name,
			UnitAmount: pricing.MinorUnits(it.Price),
			Quantity:   int64(qty),
		}
	}
	if err := es.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
