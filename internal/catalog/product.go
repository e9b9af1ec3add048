package catalog

import (
	"fmt"
	"strings"
	"time"
)

// Money is an amount in whole rupiah.
type Money int64

// Review is a single customer review attached to a product.
type Review struct {
	User    string  `yaml:"user"`
	Rating  float64 `yaml:"rating"`
	Comment string  `yaml:"comment"`
}

// Product is an immutable catalog entry. Optional fields are nil or empty
// when the catalog does not provide them.
type Product struct {
	ID            string            `yaml:"id"`
	Name          string            `yaml:"name"`
	Price         Money             `yaml:"price"`
	Category      string            `yaml:"category"`
	ImageRef      string            `yaml:"image"`
	Description   string            `yaml:"description"`
	Rating        *float64          `yaml:"rating,omitempty"`
	Features      []string          `yaml:"features,omitempty"`
	Specs         map[string]string `yaml:"specs,omitempty"`
	Reviews       []Review          `yaml:"reviews,omitempty"`
	OriginalPrice *Money            `yaml:"original_price,omitempty"`
	Featured      bool              `yaml:"featured,omitempty"`
	InStock       bool              `yaml:"in_stock"`
	AddedAt       time.Time         `yaml:"added_at,omitempty"`
}

// HasRating reports whether the product carries a rating.
func (p Product) HasRating() bool {
	return p.Rating != nil
}

// RatingValue returns the rating or zero when absent.
func (p Product) RatingValue() float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// Discounted reports whether the product is sold below its original price.
func (p Product) Discounted() bool {
	return p.OriginalPrice != nil && *p.OriginalPrice != p.Price
}

// Validate checks required fields.
func (p Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if p.Price <= 0 {
		return fmt.Errorf("price must be > 0")
	}
	if strings.TrimSpace(p.Category) == "" {
		return fmt.Errorf("category is required")
	}
	if p.Rating != nil && (*p.Rating < 0 || *p.Rating > 5) {
		return fmt.Errorf("rating must be between 0 and 5")
	}
	return nil
}

func (p Product) normalized() Product {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	p.Description = strings.TrimSpace(p.Description)
	if len(p.Features) == 0 {
		p.Features = nil
	}
	if len(p.Specs) == 0 {
		p.Specs = nil
	}
	if len(p.Reviews) == 0 {
		p.Reviews = nil
	}
	return p
}

// Stars renders the rating as five filled/empty stars.
func Stars(rating float64) string {
	full := int(rating)
	if full < 0 {
		full = 0
	}
	if full > 5 {
		full = 5
	}
	return strings.Repeat("★", full) + strings.Repeat("☆", 5-full)
}
