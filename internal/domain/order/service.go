package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/orderdesk/internal/domain/coupon"
	"github.com/xenking/orderdesk/internal/domain/pricing"
	"github.com/xenking/orderdesk/internal/domain/product"
	"github.com/xenking/orderdesk/internal/domain/shop"
	"github.com/xenking/orderdesk/internal/domain/validate"
)

// ItemInput is a line item as submitted by the customer.
type ItemInput struct {
	ProductID int64
	Name      string
	Price     decimal.Decimal
	// Quantity is nil when the client omitted it; pricing.DefaultQuantity
	// applies then.
	Quantity *int
	Note     string
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	Customer       Customer
	Items          []ItemInput
	Payment        string
	CouponCode     string
	DeliveryMethod string
}

// PlaceOrderResult holds the output of a successfully placed order.
type PlaceOrderResult struct {
	Order *Order
}

// OpenChecker reports whether the shop accepts orders right now.
type OpenChecker interface {
	Open(ctx context.Context) (bool, error)
}

// Config toggles the optional intake rules.
type Config struct {
	// EnforceHours rejects orders while the shop is closed.
	EnforceHours bool
	// RequirePostalAddress makes postal code and city mandatory.
	RequirePostalAddress bool
	// CatalogPricing replaces submitted names and prices with the catalog's.
	CatalogPricing bool
}

// Option configures a Service.
type Option func(*Service)

// WithTelemetry records spans and counters with the given providers.
func WithTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) Option {
	return func(s *Service) {
		s.tracer = tp.Tracer("orderdesk/order")
		s.meter = mp.Meter("orderdesk/order")
	}
}

// Service encapsulates order placement business logic.
type Service struct {
	cfg      Config
	status   OpenChecker
	products product.Repository
	coupons  coupon.Resolver
	orders   Repository

	tracer   trace.Tracer
	meter    metric.Meter
	placed   metric.Int64Counter
	rejected metric.Int64Counter
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	cfg Config,
	status OpenChecker,
	products product.Repository,
	coupons coupon.Resolver,
	orders Repository,
	opts ...Option,
) (*Service, error) {
	s := &Service{
		cfg:      cfg,
		status:   status,
		products: products,
		coupons:  coupons,
		orders:   orders,
		tracer:   tracenoop.NewTracerProvider().Tracer("orderdesk/order"),
		meter:    metricnoop.NewMeterProvider().Meter("orderdesk/order"),
	}
	for _, o := range opts {
		o(s)
	}

	var err error
	if s.placed, err = s.meter.Int64Counter("orders.placed",
		metric.WithDescription("Orders accepted and stored"),
	); err != nil {
		return nil, errors.Wrap(err, "create placed counter")
	}
	if s.rejected, err = s.meter.Int64Counter("orders.rejected",
		metric.WithDescription("Orders rejected before storage"),
	); err != nil {
		return nil, errors.Wrap(err, "create rejected counter")
	}
	return s, nil
}

// PlaceOrder gates on opening hours, validates the request, prices the items
// with the optional coupon, persists the order and returns it.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (_ *PlaceOrderResult, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.Place")
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	if s.cfg.EnforceHours {
		open, err := s.status.Open(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "check opening hours")
		}
		if !open {
			s.reject(ctx, "closed")
			return nil, shop.ErrClosed
		}
	}

	items, err := s.validate(req)
	if err != nil {
		s.reject(ctx, "invalid")
		return nil, err
	}

	if s.cfg.CatalogPricing {
		if err := s.applyCatalog(ctx, items); err != nil {
			return nil, err
		}
	}

	c, err := s.coupons.Resolve(ctx, req.CouponCode)
	if err != nil {
		return nil, errors.Wrap(err, "resolve coupon")
	}

	lines := make([]pricing.Line, len(items))
	for i, it := range items {
		lines[i] = pricing.Line{Price: it.Price, Quantity: it.Quantity}
	}

	var (
		percent    *decimal.Decimal
		couponCode string
	)
	if c != nil {
		percent = &c.DiscountPercent
		couponCode = c.Code
	}
	quote := pricing.Total(lines, percent)
	if quote.Subtotal.GreaterThanOrEqual(validate.MaxAmount) {
		s.reject(ctx, "invalid")
		return nil, validate.Field("items", "order total must be less than "+validate.MaxAmount.String())
	}
	span.SetAttributes(
		attribute.Int("order.items", len(items)),
		attribute.Bool("order.coupon_applied", c != nil),
	)

	o := &Order{
		Customer:       normalizeCustomer(req.Customer),
		Items:          items,
		Payment:        strings.TrimSpace(req.Payment),
		CouponCode:     couponCode,
		Discount:       quote.Discount,
		Total:          quote.Total,
		Status:         StatusReceived,
		DeliveryMethod: strings.TrimSpace(req.DeliveryMethod),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	span.SetAttributes(attribute.Int64("order.id", o.ID))
	s.placed.Add(ctx, 1)
	return &PlaceOrderResult{Order: o}, nil
}

// List returns all orders, newest first.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

func (s *Service) reject(ctx context.Context, reason string) {
	s.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// validate checks the customer block and items and returns the line-item
// snapshot with defaults applied and free text sanitised.
func (s *Service) validate(req PlaceOrderRequest) ([]LineItem, error) {
	var es validate.Errors

	c := normalizeCustomer(req.Customer)
	validate.Required(&es, "customer.name", c.Name)
	validate.Required(&es, "customer.phone", c.Phone)
	validate.Required(&es, "customer.address", c.Address)
	if s.cfg.RequirePostalAddress {
		validate.Required(&es, "customer.postal_code", c.PostalCode)
		validate.Required(&es, "customer.city", c.City)
	}

	if len(req.Items) == 0 {
		es.Add("items", "must not be empty")
		return nil, es.Err()
	}

	items := make([]LineItem, len(req.Items))
	for i, in := range req.Items {
		field := fmt.Sprintf("items[%d]", i)

		qty := pricing.DefaultQuantity
		if in.Quantity != nil {
			qty = *in.Quantity
		}
		switch {
		case qty < 1:
			es.Add(field+".qty", "must be at least 1")
		case qty > pricing.MaxQuantity:
			es.Add(field+".qty", fmt.Sprintf("must be at most %d", pricing.MaxQuantity))
		}
		validate.Amount(&es, field+".price", in.Price)
		name := validate.CleanText(in.Name)
		if name == "" && !s.cfg.CatalogPricing {
			es.Add(field+".name", "is required")
		}

		items[i] = LineItem{
			ProductID: in.ProductID,
			Name:      name,
			Price:     in.Price,
			Quantity:  qty,
			Note:      validate.CleanText(in.Note),
		}
	}

	if err := es.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// applyCatalog overwrites item names and prices with current catalog values.
func (s *Service) applyCatalog(ctx context.Context, items []LineItem) error {
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return errors.Wrap(err, "get products")
	}
	byID := make(map[int64]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	var es validate.Errors
	for i := range items {
		p, ok := byID[items[i].ProductID]
		if !ok {
			es.Add(fmt.Sprintf("items[%d].product_id", i), fmt.Sprintf("product %d not found", items[i].ProductID))
			continue
		}
		items[i].Name = p.Name
		items[i].Price = p.Price
	}
	return es.Err()
}

func normalizeCustomer(c Customer) Customer {
	return Customer{
		Name:       validate.CleanText(c.Name),
		Phone:      validate.CleanText(c.Phone),
		Address:    validate.CleanText(c.Address),
		PostalCode: validate.CleanText(c.PostalCode),
		City:       validate.CleanText(c.City),
	}
}
