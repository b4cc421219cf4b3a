package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

type sessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeConfig configures the Stripe provider.
type StripeConfig struct {
	SecretKey string
	Timeout   time.Duration
	// Backends overrides the Stripe API backends, mainly for tests.
	Backends *stripe.Backends
}

// StripeProvider opens Stripe Checkout sessions behind a circuit breaker.
type StripeProvider struct {
	sessions sessionAPI
	timeout  time.Duration
	cb       *gobreaker.CircuitBreaker[*stripe.CheckoutSession]
}

var _ Provider = (*StripeProvider)(nil)

// NewStripeProvider creates a StripeProvider from the secret key.
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("stripe: secret key is required")
	}
	sc := client.New(cfg.SecretKey, cfg.Backends)
	return newStripeProvider(sc.CheckoutSessions, cfg.Timeout), nil
}

func newStripeProvider(api sessionAPI, timeout time.Duration) *StripeProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &StripeProvider{
		sessions: api,
		timeout:  timeout,
		cb: gobreaker.NewCircuitBreaker[*stripe.CheckoutSession](gobreaker.Settings{
			Name:    "stripe-checkout",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
			// Card and request errors are the caller's problem, not an outage.
			IsSuccessful: func(err error) bool {
				if err == nil {
					return true
				}
				var serr *stripe.Error
				return errors.As(err, &serr) && serr.HTTPStatusCode >= 400 && serr.HTTPStatusCode < 500
			},
		}),
	}
}

// CreateSession implements Provider.
func (p *StripeProvider) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	params.LineItems = make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, it := range req.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(it.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(it.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(it.Name),
				},
			},
		})
	}

	s, err := p.cb.Execute(func() (*stripe.CheckoutSession, error) {
		return p.sessions.New(params)
	})
	if err != nil {
		return nil, &ProviderError{Provider: "stripe", Err: err}
	}
	if s.URL == "" {
		return nil, &ProviderError{Provider: "stripe", Err: errors.Errorf("session %s has no url", s.ID)}
	}
	return &Session{ID: s.ID, URL: s.URL}, nil
}
