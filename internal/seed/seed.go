// Package seed holds the catalog dataset bundled at build time.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"pulsecart/internal/models"
)

//go:embed products_seed.json
var productsSeed []byte

// Products decodes the bundled catalog; entries without an id are numbered from 1 by position.
func Products() ([]models.Product, error) {
	var products []models.Product
	if err := json.Unmarshal(productsSeed, &products); err != nil {
		return nil, fmt.Errorf("decode product seed: %w", err)
	}
	for i := range products {
		if products[i].ID == 0 {
			products[i].ID = int64(i + 1)
		}
	}
	return products, nil
}

// MustProducts is Products for package-level initialization of fixed data.
func MustProducts() []models.Product {
	products, err := Products()
	if err != nil {
		panic(err)
	}
	return products
}
