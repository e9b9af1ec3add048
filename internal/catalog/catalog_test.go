package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultCatalogLoads(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	if cat.Len() == 0 {
		t.Fatalf("expected products in default catalog")
	}
	p, err := cat.Get("cabe-merah-ori")
	if err != nil {
		t.Fatalf("get cabe-merah-ori: %v", err)
	}
	if p.Name != "Cabe Merah Ori" || p.Price != 21000 {
		t.Fatalf("unexpected product: %+v", p)
	}
	if p.AddedAt.IsZero() {
		t.Fatalf("expected added_at to be decoded")
	}
}

func TestParseRejectsInvalidProducts(t *testing.T) {
	cases := map[string]string{
		"missing name": `
products:
  - id: a
    price: 100
    category: X
`,
		"zero price": `
products:
  - id: a
    name: A
    price: 0
    category: X
`,
		"duplicate id": `
products:
  - id: a
    name: A
    price: 100
    category: X
  - id: a
    name: B
    price: 200
    category: X
`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(strings.TrimSpace(payload))); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadFromFileAndMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	payload := strings.TrimSpace(`
products:
  - id: gochujang
    name: Gochujang
    price: 45000
    category: Condiments
`)
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}
	cat, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cat.Len() != 1 {
		t.Fatalf("len = %d, want 1", cat.Len())
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestCategoriesAreDistinctAndSorted(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	got := cat.Categories()
	want := []string{"Condiments", "Vegetables"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("categories = %v, want %v", got, want)
	}
}

func TestQueryFilterAndSort(t *testing.T) {
	cat := mustCatalog(t)
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "all in catalog order", filter: Filter{Category: AllCategories}, want: []string{"a", "b", "c"}},
		{name: "category", filter: Filter{Category: "spice"}, want: []string{"b", "c"}},
		{name: "price range", filter: Filter{MinPrice: 150, MaxPrice: 250}, want: []string{"b"}},
		{name: "price ascending", filter: Filter{Sort: SortPriceAsc}, want: []string{"a", "b", "c"}},
		{name: "price descending", filter: Filter{Sort: SortPriceDesc}, want: []string{"c", "b", "a"}},
		{name: "rating puts unrated last", filter: Filter{Sort: SortRating}, want: []string{"b", "a", "c"}},
		{name: "search", filter: Filter{Search: "rawit"}, want: []string{"b"}},
		{name: "search is case-insensitive substring", filter: Filter{Search: "RAWIT"}, want: []string{"b"}},
		{name: "search ignores scattered letters", filter: Filter{Search: "cmh"}, want: []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(cat.Query(tc.filter))
			if strings.Join(got, ",") != strings.Join(tc.want, ",") {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestStars(t *testing.T) {
	if got := Stars(3.7); got != "★★★☆☆" {
		t.Fatalf("Stars(3.7) = %q", got)
	}
	if got := Stars(9); got != "★★★★★" {
		t.Fatalf("Stars(9) = %q", got)
	}
}

func mustCatalog(t *testing.T) *Catalog {
	t.Helper()
	r4, r5 := 4.0, 5.0
	cat, err := New([]Product{
		{ID: "a", Name: "Cabe Merah", Price: 100, Category: "Veg", Rating: &r4},
		{ID: "b", Name: "Cabe Rawit", Price: 200, Category: "Spice", Rating: &r5},
		{ID: "c", Name: "Lada Hitam", Price: 300, Category: "Spice"},
	})
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	return cat
}

func ids(products []Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestSortOptionKeys(t *testing.T) {
	for _, opt := range SortOptions {
		parsed, ok := ParseSortOption(opt.Key())
		if !ok || parsed != opt {
			t.Fatalf("key %q did not map back to %v", opt.Key(), opt)
		}
	}
	if _, ok := ParseSortOption("cheapest"); ok {
		t.Fatalf("unknown key should not parse")
	}
	if SortNewest.Next() != SortDefault || SortDefault.Next() != SortPriceAsc {
		t.Fatalf("unexpected cycle order")
	}
}
