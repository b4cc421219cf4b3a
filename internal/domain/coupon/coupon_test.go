package coupon

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/orderdesk/internal/domain/validate"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestCoupon_Validate(t *testing.T) {
	tests := []struct {
		name      string
		coupon    Coupon
		wantField string
	}{
		{name: "full discount", coupon: Coupon{Code: "FREE", DiscountPercent: d("100")}},
		{name: "fractional percent", coupon: Coupon{Code: "HALFPCT", DiscountPercent: d("0.5")}},
		{name: "zero percent", coupon: Coupon{Code: "ZERO", DiscountPercent: d("0")}, wantField: "discount_percent"},
		{name: "negative percent", coupon: Coupon{Code: "NEG", DiscountPercent: d("-5")}, wantField: "discount_percent"},
		{name: "over hundred", coupon: Coupon{Code: "MORE", DiscountPercent: d("101")}, wantField: "discount_percent"},
		{name: "two decimals", coupon: Coupon{Code: "THIRD", DiscountPercent: d("33.33")}},
		{name: "below storable precision", coupon: Coupon{Code: "TINY", DiscountPercent: d("0.001")}, wantField: "discount_percent"},
		{name: "three decimals", coupon: Coupon{Code: "THIRD", DiscountPercent: d("33.333")}, wantField: "discount_percent"},
		{name: "blank code", coupon: Coupon{Code: "  ", DiscountPercent: d("10")}, wantField: "code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coupon.Validate()
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			verr, ok := validate.As(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SAVE10", NormalizeCode(" save10 "))
	assert.Equal(t, "SAVE10", NormalizeCode("SaVe10"))
	assert.Equal(t, "", NormalizeCode("   "))
}

type mockCouponRepo struct {
	byCode   map[string]*Coupon
	err      error
	lastCode string
}

func (m *mockCouponRepo) List(context.Context) ([]Coupon, error) { return nil, nil }

func (m *mockCouponRepo) FindByCode(_ context.Context, code string) (*Coupon, error) {
	m.lastCode = code
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.byCode[code]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (m *mockCouponRepo) Create(context.Context, *Coupon) error { return nil }

func (m *mockCouponRepo) Delete(context.Context, int64) (bool, error) { return false, nil }

func TestRepoResolver_Resolve(t *testing.T) {
	save20 := &Coupon{ID: 1, Code: "SAVE20", DiscountPercent: d("20")}

	t.Run("found with case-insensitive code", func(t *testing.T) {
		repo := &mockCouponRepo{byCode: map[string]*Coupon{"SAVE20": save20}}
		got, err := NewRepoResolver(repo).Resolve(context.Background(), " save20")
		require.NoError(t, err)
		assert.Equal(t, save20, got)
		assert.Equal(t, "SAVE20", repo.lastCode)
	})

	t.Run("unknown code is ignored", func(t *testing.T) {
		repo := &mockCouponRepo{byCode: map[string]*Coupon{}}
		got, err := NewRepoResolver(repo).Resolve(context.Background(), "BOGUS")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("blank code skips lookup", func(t *testing.T) {
		repo := &mockCouponRepo{}
		got, err := NewRepoResolver(repo).Resolve(context.Background(), " ")
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Empty(t, repo.lastCode)
	})

	t.Run("store failure propagates", func(t *testing.T) {
		repo := &mockCouponRepo{err: errors.New("connection reset")}
		_, err := NewRepoResolver(repo).Resolve(context.Background(), "SAVE20")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lookup coupon")
	})
}
