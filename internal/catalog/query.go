package catalog

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// AllCategories is the category filter value that matches every product.
const AllCategories = "All"

// SortOption orders query results.
type SortOption int

const (
	SortDefault SortOption = iota // catalog order, or best match first when searching
	SortPriceAsc
	SortPriceDesc
	SortRating
	SortNewest
)

// SortOptions lists the options in the order the storefront cycles them.
var SortOptions = []SortOption{SortDefault, SortPriceAsc, SortPriceDesc, SortRating, SortNewest}

func (s SortOption) String() string {
	switch s {
	case SortPriceAsc:
		return "Price: Low to High"
	case SortPriceDesc:
		return "Price: High to Low"
	case SortRating:
		return "Rating"
	case SortNewest:
		return "Newest"
	default:
		return "Featured"
	}
}

// Key is the stable identifier used in configuration files.
func (s SortOption) Key() string {
	switch s {
	case SortPriceAsc:
		return "price_asc"
	case SortPriceDesc:
		return "price_desc"
	case SortRating:
		return "rating"
	case SortNewest:
		return "newest"
	default:
		return "featured"
	}
}

// ParseSortOption maps a configuration key back to a SortOption.
func ParseSortOption(key string) (SortOption, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, opt := range SortOptions {
		if opt.Key() == key {
			return opt, true
		}
	}
	return SortDefault, false
}

// Next cycles to the following sort option.
func (s SortOption) Next() SortOption {
	for i, opt := range SortOptions {
		if opt == s {
			return SortOptions[(i+1)%len(SortOptions)]
		}
	}
	return SortDefault
}

// Filter narrows the catalog. Zero values match everything; a MaxPrice of
// zero means no upper bound.
type Filter struct {
	Category string
	MinPrice Money
	MaxPrice Money
	Search   string
	Sort     SortOption
}

func (f Filter) matches(p Product) bool {
	category := strings.TrimSpace(f.Category)
	if category != "" && !strings.EqualFold(category, AllCategories) && !strings.EqualFold(category, p.Category) {
		return false
	}
	if p.Price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && p.Price > f.MaxPrice {
		return false
	}
	if pattern := strings.ToLower(strings.TrimSpace(f.Search)); pattern != "" && !strings.Contains(strings.ToLower(p.Name), pattern) {
		return false
	}
	return true
}

type productNames []Product

func (n productNames) String(i int) string { return strings.ToLower(n[i].Name) }
func (n productNames) Len() int            { return len(n) }

// Query applies the filter and sort to the catalog.
func (c *Catalog) Query(f Filter) []Product {
	if c == nil {
		return nil
	}
	var filtered []Product
	for _, p := range c.products {
		if f.matches(p) {
			filtered = append(filtered, p)
		}
	}
	if pattern := strings.TrimSpace(f.Search); pattern != "" && f.Sort == SortDefault {
		filtered = rankByMatch(filtered, strings.ToLower(pattern))
	}
	sortProducts(filtered, f.Sort)
	return filtered
}

// rankByMatch orders substring hits by fuzzy score, best first. Equal scores
// keep catalog order.
func rankByMatch(products []Product, pattern string) []Product {
	matches := fuzzy.FindFrom(pattern, productNames(products))
	ranked := make([]Product, 0, len(products))
	seen := make(map[int]bool, len(matches))
	for _, m := range matches {
		ranked = append(ranked, products[m.Index])
		seen[m.Index] = true
	}
	for i, p := range products {
		if !seen[i] {
			ranked = append(ranked, p)
		}
	}
	return ranked
}

func sortProducts(products []Product, option SortOption) {
	switch option {
	case SortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price < products[j].Price })
	case SortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price > products[j].Price })
	case SortRating:
		sort.SliceStable(products, func(i, j int) bool { return products[i].RatingValue() > products[j].RatingValue() })
	case SortNewest:
		sort.SliceStable(products, func(i, j int) bool { return products[i].AddedAt.After(products[j].AddedAt) })
	}
}
