package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatUSD(t *testing.T) {
	cases := map[string]string{
		"0":        "$0.00",
		"6.95":     "$6.95",
		"59.5":     "$59.50",
		"999.999":  "$1,000.00",
		"1234.5":   "$1,234.50",
		"1234567":  "$1,234,567.00",
		"-1500.25": "-$1,500.25",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatUSD(decimal.RequireFromString(in)), in)
	}
}

func TestEffectiveUnitPrice(t *testing.T) {
	unit := decimal.RequireFromString("8")
	product := &Product{Price: decimal.RequireFromString("10")}

	assert.True(t, unit.Equal(CartItem{UnitPrice: &unit, Product: product}.EffectiveUnitPrice()))
	assert.True(t, product.Price.Equal(CartItem{Product: product}.EffectiveUnitPrice()))
	assert.True(t, CartItem{}.EffectiveUnitPrice().IsZero())
}

func TestInStock(t *testing.T) {
	zero, some := 0, 3
	assert.False(t, Product{}.InStock())
	assert.False(t, Product{Stock: &zero}.InStock())
	assert.True(t, Product{Stock: &some}.InStock())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(LoginPayload{Email: "ada@example.com", Password: "x"}))
	assert.EqualError(t, Validate(LoginPayload{Email: "nope"}),
		`invalid input: email: failed "email", password: failed "required"`)
	assert.Error(t, Validate(CartItemCreate{ProductID: 1, Quantity: 0}))
}
