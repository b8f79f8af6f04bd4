package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// Product is one sellable item. UnitPrice is in minor currency units.
type Product struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Digital   bool   `json:"digital"`
	// File is the deliverable filename for digital products, relative to
	// the configured download directory.
	File string `json:"file,omitempty"`
}

// Catalog is the immutable product set loaded at startup and injected into
// pricing and order building. It is never mutated after New.
type Catalog struct {
	products map[int]Product
}

func New(products []Product) *Catalog {
	m := make(map[int]Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return &Catalog{products: m}
}

// Load reads the catalog from a JSON file holding an array of products.
func Load(path string) (*Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to open catalog file: %w", err)
	}
	defer file.Close()

	var products []Product
	if err := json.NewDecoder(file).Decode(&products); err != nil {
		return nil, fmt.Errorf("catalog: invalid catalog file: %w", err)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("catalog: catalog file %s holds no products", path)
	}
	return New(products), nil
}

func (c *Catalog) Product(id int) (Product, bool) {
	p, ok := c.products[id]
	return p, ok
}

func (c *Catalog) Len() int {
	return len(c.products)
}
