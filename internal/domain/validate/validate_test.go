package validate

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors_Err(t *testing.T) {
	var es Errors
	require.NoError(t, es.Err())

	es.Add("name", "is required")
	err := es.Err()
	require.Error(t, err)
	assert.Equal(t, "name: is required", err.Error())

	es.Add("phone", "is required")
	assert.Equal(t, "name: is required; phone: is required", es.Err().Error())
}

func TestAs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantField string
		wantOK    bool
	}{
		{name: "single", err: Field("price", "must not be negative"), wantField: "price", wantOK: true},
		{name: "wrapped", err: errors.Wrap(Field("code", "is required"), "create coupon"), wantField: "code", wantOK: true},
		{name: "list", err: Errors{Field("items", "is empty"), Field("name", "is required")}, wantField: "items", wantOK: true},
		{name: "other", err: errors.New("db down")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := As(tt.err)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantField, got.Field)
			}
		})
	}
}

func TestRequired(t *testing.T) {
	var es Errors
	Required(&es, "name", "  ")
	Required(&es, "phone", "0151 123")
	require.Len(t, es, 1)
	assert.Equal(t, "name", es[0].Field)
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  no onions ", want: "no onions"},
		{in: "<b>extra</b> cheese", want: "extra cheese"},
		{in: "<B>bold</B> crust", want: "bold crust"},
		{in: `<script>alert("x")</script>spicy`, want: "spicy"},
		{in: `<img src=x onerror="alert(1)">hi`, want: "hi"},
		{in: "Salt & pepper", want: "Salt & pepper"},
		{in: "Mama's \"best\"", want: "Mama's \"best\""},
		{in: "&lt;b&gt;", want: "&lt;b&gt;"},
		{in: "&lt;script&gt;alert(1)&lt;/script&gt;", want: "&lt;script&gt;alert(1)&lt;/script&gt;"},
		{in: "Pizza <Hawaii>", want: "Pizza <Hawaii>"},
		{in: "Menu a<b", want: "Menu a<b"},
		{in: "3 < 5 > 2", want: "3 < 5 > 2"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanText(tt.in), "input %q", tt.in)
	}
}

func TestAmount(t *testing.T) {
	tests := []struct {
		in      string
		wantMsg string
	}{
		{in: "0"},
		{in: "9.5"},
		{in: "12.30"},
		{in: "99999999.99"},
		{in: "-0.01", wantMsg: "must not be negative"},
		{in: "100000000", wantMsg: "must be less than 100000000"},
		{in: "1e12", wantMsg: "must be less than 100000000"},
		{in: "9.999", wantMsg: "must have at most 2 decimal places"},
		{in: "0.001", wantMsg: "must have at most 2 decimal places"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var es Errors
			Amount(&es, "price", decimal.RequireFromString(tt.in))
			if tt.wantMsg == "" {
				assert.Empty(t, es)
				return
			}
			require.Len(t, es, 1)
			assert.Equal(t, "price", es[0].Field)
			assert.Equal(t, tt.wantMsg, es[0].Message)
		})
	}
}
