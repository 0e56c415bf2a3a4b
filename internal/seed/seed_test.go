package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductsAreNumberedByPosition(t *testing.T) {
	products, err := Products()
	require.NoError(t, err)
	require.NotEmpty(t, products)

	for i, p := range products {
		assert.Equal(t, int64(i+1), p.ID)
		assert.NotEmpty(t, p.Name)
	}
}

func TestProductsIncludeBirthdayCard(t *testing.T) {
	var found bool
	for _, p := range MustProducts() {
		if p.Name == "Birthday Bakery Blue Gold Card" {
			found = true
			assert.Equal(t, "6.95", p.Price.String())
			assert.True(t, p.InStock())
		}
	}
	assert.True(t, found)
}
