package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/orderdesk/internal/domain/coupon"
	"github.com/xenking/orderdesk/internal/domain/pricing"
	"github.com/xenking/orderdesk/internal/domain/product"
	"github.com/xenking/orderdesk/internal/domain/shop"
	"github.com/xenking/orderdesk/internal/domain/validate"
)

// --- Mock implementations ---

type mockOpen struct {
	open bool
	err  error
}

func (m *mockOpen) Open(context.Context) (bool, error) { return m.open, m.err }

type mockProductRepo struct {
	byID   map[int64]product.Product
	getErr error
}

func (m *mockProductRepo) List(context.Context) ([]product.Product, error) { return nil, nil }

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []int64) ([]product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) Create(context.Context, *product.Product) error  { return nil }
func (m *mockProductRepo) Replace(context.Context, *product.Product) error { return nil }
func (m *mockProductRepo) Delete(context.Context, int64) (bool, error)     { return false, nil }

type mockResolver struct {
	coupons  map[string]*coupon.Coupon
	err      error
	lastCode string
}

func (m *mockResolver) Resolve(_ context.Context, code string) (*coupon.Coupon, error) {
	m.lastCode = code
	if m.err != nil {
		return nil, m.err
	}
	return m.coupons[coupon.NormalizeCode(code)], nil
}

type mockOrderRepo struct {
	created []*Order
	list    []Order
	err     error
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if m.err != nil {
		return m.err
	}
	o.ID = int64(len(m.created) + 1)
	m.created = append(m.created, o)
	return nil
}

func (m *mockOrderRepo) List(context.Context) ([]Order, error) { return m.list, m.err }

// --- Helpers ---

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func qty(n int) *int { return &n }

func customer() Customer {
	return Customer{Name: "Ada", Phone: "+49 30 1234", Address: "Hauptstr. 1"}
}

func newTestService(t *testing.T, cfg Config, open *mockOpen, orders *mockOrderRepo) *Service {
	t.Helper()
	resolver := &mockResolver{coupons: map[string]*coupon.Coupon{
		"SAVE20": {ID: 1, Code: "SAVE20", DiscountPercent: d("20")},
	}}
	products := &mockProductRepo{byID: map[int64]product.Product{
		1: {ID: 1, Name: "Margherita", Price: d("9.50")},
	}}
	svc, err := NewService(cfg, open, products, resolver, orders)
	require.NoError(t, err)
	return svc
}

func pizzaRequest() PlaceOrderRequest {
	return PlaceOrderRequest{
		Customer: customer(),
		Items: []ItemInput{
			{ProductID: 1, Name: "Pizza", Price: d("10.00"), Quantity: qty(2)},
			{ProductID: 2, Name: "Salad", Price: d("15.00")},
		},
		Payment: "cash",
	}
}

// --- Tests ---

func TestPlaceOrder_Gating(t *testing.T) {
	tests := []struct {
		name    string
		enforce bool
		open    *mockOpen
		wantErr error
	}{
		{name: "closed rejects", enforce: true, open: &mockOpen{open: false}, wantErr: shop.ErrClosed},
		{name: "open accepts", enforce: true, open: &mockOpen{open: true}},
		{name: "not enforced ignores hours", enforce: false, open: &mockOpen{open: false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &mockOrderRepo{}
			svc := newTestService(t, Config{EnforceHours: tt.enforce}, tt.open, orders)

			res, err := svc.PlaceOrder(context.Background(), pizzaRequest())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, orders.created)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StatusReceived, res.Order.Status)
			assert.Len(t, orders.created, 1)
		})
	}
}

func TestPlaceOrder_StatusLookupError(t *testing.T) {
	orders := &mockOrderRepo{}
	svc := newTestService(t, Config{EnforceHours: true}, &mockOpen{err: errors.New("db down")}, orders)

	_, err := svc.PlaceOrder(context.Background(), pizzaRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check opening hours")
	assert.Empty(t, orders.created)
}

func TestPlaceOrder_Validation(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		mutate    func(r *PlaceOrderRequest)
		wantField string
	}{
		{
			name:      "empty items",
			mutate:    func(r *PlaceOrderRequest) { r.Items = nil },
			wantField: "items",
		},
		{
			name:      "missing customer name",
			mutate:    func(r *PlaceOrderRequest) { r.Customer.Name = "  " },
			wantField: "customer.name",
		},
		{
			name:      "markup only phone",
			mutate:    func(r *PlaceOrderRequest) { r.Customer.Phone = "<b></b>" },
			wantField: "customer.phone",
		},
		{
			name:      "postal code when required",
			cfg:       Config{RequirePostalAddress: true},
			mutate:    func(r *PlaceOrderRequest) { r.Customer.City = "Berlin" },
			wantField: "customer.postal_code",
		},
		{
			name:      "zero quantity",
			mutate:    func(r *PlaceOrderRequest) { r.Items[0].Quantity = qty(0) },
			wantField: "items[0].qty",
		},
		{
			name:      "negative price",
			mutate:    func(r *PlaceOrderRequest) { r.Items[1].Price = d("-1") },
			wantField: "items[1].price",
		},
		{
			name:      "quantity above limit",
			mutate:    func(r *PlaceOrderRequest) { r.Items[0].Quantity = qty(2_000_000_000) },
			wantField: "items[0].qty",
		},
		{
			name:      "price beyond storage",
			mutate:    func(r *PlaceOrderRequest) { r.Items[0].Price = d("1e12") },
			wantField: "items[0].price",
		},
		{
			name:      "sub-cent price",
			mutate:    func(r *PlaceOrderRequest) { r.Items[1].Price = d("4.999") },
			wantField: "items[1].price",
		},
		{
			name: "total beyond storage",
			mutate: func(r *PlaceOrderRequest) {
				r.Items[0].Price = d("99999999.99")
				r.Items[0].Quantity = qty(pricing.MaxQuantity)
			},
			wantField: "items",
		},
		{
			name:      "blank item name",
			mutate:    func(r *PlaceOrderRequest) { r.Items[1].Name = "" },
			wantField: "items[1].name",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &mockOrderRepo{}
			svc := newTestService(t, tt.cfg, &mockOpen{open: true}, orders)

			req := pizzaRequest()
			tt.mutate(&req)
			_, err := svc.PlaceOrder(context.Background(), req)

			verr, ok := validate.As(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Equal(t, tt.wantField, verr.Field)
			assert.Empty(t, orders.created)
		})
	}
}

func TestPlaceOrder_Pricing(t *testing.T) {
	tests := []struct {
		name         string
		coupon       string
		wantTotal    string
		wantDiscount string
		wantCoupon   string
	}{
		{name: "no coupon", wantTotal: "35", wantDiscount: "0"},
		{name: "known coupon", coupon: " save20 ", wantTotal: "28", wantDiscount: "7", wantCoupon: "SAVE20"},
		{name: "unknown coupon ignored", coupon: "BOGUS", wantTotal: "35", wantDiscount: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &mockOrderRepo{}
			svc := newTestService(t, Config{}, &mockOpen{open: true}, orders)

			req := pizzaRequest()
			req.CouponCode = tt.coupon
			res, err := svc.PlaceOrder(context.Background(), req)
			require.NoError(t, err)

			o := res.Order
			assert.True(t, d(tt.wantTotal).Equal(o.Total), "total %s", o.Total)
			assert.True(t, d(tt.wantDiscount).Equal(o.Discount), "discount %s", o.Discount)
			assert.Equal(t, tt.wantCoupon, o.CouponCode)
			assert.Equal(t, int64(1), o.ID)
		})
	}
}

func TestPlaceOrder_DefaultsAndSanitising(t *testing.T) {
	orders := &mockOrderRepo{}
	svc := newTestService(t, Config{}, &mockOpen{open: true}, orders)

	req := PlaceOrderRequest{
		Customer: Customer{Name: " <i>Ada</i> ", Phone: "123", Address: "Main St"},
		Items: []ItemInput{
			{Name: "Tiramisu", Price: d("5.5"), Note: `extra <script>alert(1)</script>cocoa`},
		},
		Payment:        " card ",
		DeliveryMethod: " pickup ",
	}
	res, err := svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, res.Order.Items, 1)
	item := res.Order.Items[0]
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, "extra cocoa", item.Note)
	assert.Equal(t, "Ada", res.Order.Customer.Name)
	assert.Equal(t, "card", res.Order.Payment)
	assert.Equal(t, "pickup", res.Order.DeliveryMethod)
	assert.True(t, d("5.50").Equal(res.Order.Total))
}

func TestPlaceOrder_CatalogPricing(t *testing.T) {
	t.Run("catalog overrides submitted price", func(t *testing.T) {
		orders := &mockOrderRepo{}
		svc := newTestService(t, Config{CatalogPricing: true}, &mockOpen{open: true}, orders)

		res, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
			Customer: customer(),
			Items:    []ItemInput{{ProductID: 1, Price: d("0.01"), Quantity: qty(2)}},
		})
		require.NoError(t, err)
		assert.Equal(t, "Margherita", res.Order.Items[0].Name)
		assert.True(t, d("19").Equal(res.Order.Total))
	})

	t.Run("unknown product", func(t *testing.T) {
		orders := &mockOrderRepo{}
		svc := newTestService(t, Config{CatalogPricing: true}, &mockOpen{open: true}, orders)

		_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
			Customer: customer(),
			Items:    []ItemInput{{ProductID: 42, Price: d("1")}},
		})
		verr, ok := validate.As(err)
		require.True(t, ok)
		assert.Equal(t, "items[0].product_id", verr.Field)
		assert.Empty(t, orders.created)
	})
}

func TestPlaceOrder_StoreErrors(t *testing.T) {
	t.Run("coupon lookup", func(t *testing.T) {
		orders := &mockOrderRepo{}
		resolver := &mockResolver{err: errors.New("timeout")}
		svc, err := NewService(Config{}, &mockOpen{open: true}, &mockProductRepo{}, resolver, orders)
		require.NoError(t, err)

		req := pizzaRequest()
		req.CouponCode = "SAVE20"
		_, err = svc.PlaceOrder(context.Background(), req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "resolve coupon")
		assert.Empty(t, orders.created)
	})

	t.Run("create", func(t *testing.T) {
		orders := &mockOrderRepo{err: errors.New("db write failed")}
		svc := newTestService(t, Config{}, &mockOpen{open: true}, orders)

		_, err := svc.PlaceOrder(context.Background(), pizzaRequest())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "create order")
		_, isValidation := validate.As(err)
		assert.False(t, isValidation)
	})
}

func TestService_List(t *testing.T) {
	orders := &mockOrderRepo{list: []Order{{ID: 2}, {ID: 1}}}
	svc := newTestService(t, Config{}, &mockOpen{open: true}, orders)

	got, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
}
