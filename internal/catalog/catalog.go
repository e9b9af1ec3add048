// Package catalog holds the read-only product list shown by the storefront.
// It is loaded once at start from the embedded default catalog or from a
// YAML file named in the store configuration.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed products.yaml
var defaultCatalogYAML []byte

// ErrNotFound is returned when a product ID is not in the catalog.
var ErrNotFound = errors.New("catalog: product not found")

// Catalog is an immutable, ordered product list.
type Catalog struct {
	products []Product
	byID     map[string]int
}

type catalogFile struct {
	Products []Product `yaml:"products"`
}

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalogYAML)
}

// Load reads a catalog file. An empty path yields the default catalog.
func Load(path string) (*Catalog, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return Default()
	}
	data, err := os.ReadFile(trimmed)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", trimmed, err)
	}
	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", trimmed, err)
	}
	return cat, nil
}

// Parse decodes and validates a catalog YAML document.
func Parse(data []byte) (*Catalog, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("catalog: payload is empty")
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	return New(file.Products)
}

// New builds a catalog from products, rejecting invalid or duplicate entries.
func New(products []Product) (*Catalog, error) {
	cat := &Catalog{
		products: make([]Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	for i, p := range products {
		p = p.normalized()
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("catalog: products[%d]: %w", i, err)
		}
		if _, exists := cat.byID[p.ID]; exists {
			return nil, fmt.Errorf("catalog: products[%d]: duplicate id %q", i, p.ID)
		}
		cat.byID[p.ID] = len(cat.products)
		cat.products = append(cat.products, p)
	}
	return cat, nil
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.products)
}

// All returns the products in catalog order.
func (c *Catalog) All() []Product {
	if c == nil {
		return nil
	}
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Get looks a product up by ID.
func (c *Catalog) Get(id string) (Product, error) {
	if c == nil {
		return Product{}, ErrNotFound
	}
	idx, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return Product{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c.products[idx], nil
}

// Categories returns the distinct categories, sorted.
func (c *Catalog) Categories() []string {
	if c == nil {
		return nil
	}
	seen := map[string]struct{}{}
	var out []string
	for _, p := range c.products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out
}
