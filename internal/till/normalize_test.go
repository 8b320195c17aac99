package till_test

import (
	"math"
	"testing"

	"till-go/internal/testutil"
	"till-go/internal/till"
)

func TestNormalizeProduct(t *testing.T) {
	idgen := testutil.NewStubIDGenerator()

	t.Run("name is required and trimmed", func(t *testing.T) {
		p, err := till.NormalizeProduct(till.RawProduct{Name: "  Soap  "}, idgen)
		if err != nil {
			t.Fatalf("NormalizeProduct() error = %v", err)
		}
		if p.Name != "Soap" {
			t.Errorf("Name = %q, want %q", p.Name, "Soap")
		}

		for _, name := range []any{nil, "", "   "} {
			if _, err := till.NormalizeProduct(till.RawProduct{Name: name}, idgen); err == nil {
				t.Errorf("NormalizeProduct(name=%v) error = nil, want error", name)
			}
		}
	})

	t.Run("numeric name is kept as its string form", func(t *testing.T) {
		p, err := till.NormalizeProduct(till.RawProduct{Name: 42.0}, idgen)
		if err != nil {
			t.Fatalf("NormalizeProduct() error = %v", err)
		}
		if p.Name != "42" {
			t.Errorf("Name = %q, want %q", p.Name, "42")
		}
	})

	t.Run("category defaults to General", func(t *testing.T) {
		for _, category := range []any{nil, "", "  "} {
			p, err := till.NormalizeProduct(till.RawProduct{Name: "Soap", Category: category}, idgen)
			if err != nil {
				t.Fatalf("NormalizeProduct() error = %v", err)
			}
			if p.Category != "General" {
				t.Errorf("Category = %q, want General for %v", p.Category, category)
			}
		}

		p, _ := till.NormalizeProduct(till.RawProduct{Name: "Soap", Category: " Bath "}, idgen)
		if p.Category != "Bath" {
			t.Errorf("Category = %q, want %q", p.Category, "Bath")
		}
	})

	t.Run("absent and unparseable numerics stay nil", func(t *testing.T) {
		cases := []struct {
			label string
			value any
		}{
			{"nil", nil},
			{"empty string", ""},
			{"blank string", "   "},
			{"garbage string", "abc"},
			{"NaN", math.NaN()},
			{"positive infinity", math.Inf(1)},
			{"negative infinity", math.Inf(-1)},
			{"bool", true},
		}
		for _, tc := range cases {
			p, err := till.NormalizeProduct(till.RawProduct{Name: "Soap", Price: tc.value}, idgen)
			if err != nil {
				t.Fatalf("NormalizeProduct(%s) error = %v", tc.label, err)
			}
			if p.Price != nil {
				t.Errorf("Price for %s = %v, want nil", tc.label, *p.Price)
			}
		}
	})

	t.Run("numeric strings and numbers parse", func(t *testing.T) {
		p, err := till.NormalizeProduct(till.RawProduct{Name: "Soap", Price: "19.99", Stock: 7.0, MinStock: " 2 "}, idgen)
		if err != nil {
			t.Fatalf("NormalizeProduct() error = %v", err)
		}
		if p.Price == nil || *p.Price != 19.99 {
			t.Errorf("Price = %v, want 19.99", p.Price)
		}
		if p.Stock == nil || *p.Stock != 7 {
			t.Errorf("Stock = %v, want 7", p.Stock)
		}
		if p.MinStock == nil || *p.MinStock != 2 {
			t.Errorf("MinStock = %v, want 2", p.MinStock)
		}
		if p.Price != nil && *p.Price == 0 {
			t.Error("a known price must not collapse to zero")
		}
	})

	t.Run("barcode and unit are nullable strings", func(t *testing.T) {
		p, err := till.NormalizeProduct(till.RawProduct{Name: "Soap", Barcode: "  ", Unit: " pc "}, idgen)
		if err != nil {
			t.Fatalf("NormalizeProduct() error = %v", err)
		}
		if p.Barcode != nil {
			t.Errorf("Barcode = %v, want nil for blank", *p.Barcode)
		}
		if p.Unit == nil || *p.Unit != "pc" {
			t.Errorf("Unit = %v, want pc", p.Unit)
		}
	})

	t.Run("hasVariants is declared or inferred", func(t *testing.T) {
		p, _ := till.NormalizeProduct(till.RawProduct{Name: "Soap", HasVariants: true}, idgen)
		if !p.HasVariants {
			t.Error("declared true lost")
		}

		p, _ = till.NormalizeProduct(till.RawProduct{Name: "Soap", HasVariants: "true"}, idgen)
		if !p.HasVariants {
			t.Error("declared string true lost")
		}

		p, _ = till.NormalizeProduct(till.RawProduct{
			Name:     "Soap",
			Variants: []any{map[string]any{"name": "Small"}},
		}, idgen)
		if !p.HasVariants {
			t.Error("surviving variants must imply true")
		}

		p, _ = till.NormalizeProduct(till.RawProduct{Name: "Soap"}, idgen)
		if p.HasVariants {
			t.Error("no declaration and no variants must stay false")
		}
	})
}

func TestNormalizeProduct_Variants(t *testing.T) {
	t.Run("variants parse from a structured array", func(t *testing.T) {
		idgen := testutil.NewStubIDGenerator()
		p, err := till.NormalizeProduct(till.RawProduct{
			Name: "Shirt",
			Variants: []any{
				map[string]any{"id": "v1", "name": "Small", "price": 10.0, "size": "S"},
				map[string]any{"name": "Large", "price": "12.50"},
			},
		}, idgen)
		if err != nil {
			t.Fatalf("NormalizeProduct() error = %v", err)
		}
		if len(p.Variants) != 2 {
			t.Fatalf("variants = %d, want 2", len(p.Variants))
		}
		if p.Variants[0].ID != "v1" || p.Variants[0].Size != "S" {
			t.Errorf("first variant = %+v, want provided id and size", p.Variants[0])
		}
		if p.Variants[1].ID != "id-1" {
			t.Errorf("second variant id = %q, want generated id-1", p.Variants[1].ID)
		}
		if p.Variants[1].Price != 12.5 {
			t.Errorf("second variant price = %v, want 12.5", p.Variants[1].Price)
		}
	})

	t.Run("variants parse from an embedded JSON string", func(t *testing.T) {
		idgen := testutil.NewStubIDGenerator()
		p, err := till.NormalizeProduct(till.RawProduct{
			Name:     "Shirt",
			Variants: `[{"name":"Red","color":"red","stock":3}]`,
		}, idgen)
		if err != nil {
			t.Fatalf("NormalizeProduct() error = %v", err)
		}
		if len(p.Variants) != 1 {
			t.Fatalf("variants = %d, want 1", len(p.Variants))
		}
		if p.Variants[0].Color != "red" || p.Variants[0].Stock != 3 {
			t.Errorf("variant = %+v, want red with stock 3", p.Variants[0])
		}
	})

	t.Run("unnamed variants are discarded", func(t *testing.T) {
		idgen := testutil.NewStubIDGenerator()
		p, err := till.NormalizeProduct(till.RawProduct{
			Name: "Shirt",
			Variants: []any{
				map[string]any{"name": "  "},
				map[string]any{"color": "blue"},
				map[string]any{"name": "Kept"},
				"not an object",
			},
		}, idgen)
		if err != nil {
			t.Fatalf("NormalizeProduct() error = %v", err)
		}
		if len(p.Variants) != 1 || p.Variants[0].Name != "Kept" {
			t.Errorf("variants = %+v, want only Kept", p.Variants)
		}
	})

	t.Run("unparseable variant payloads yield no variants", func(t *testing.T) {
		idgen := testutil.NewStubIDGenerator()
		for _, value := range []any{"not json", "  ", 42.0, map[string]any{"name": "Obj"}} {
			p, err := till.NormalizeProduct(till.RawProduct{Name: "Shirt", Variants: value}, idgen)
			if err != nil {
				t.Fatalf("NormalizeProduct(%v) error = %v", value, err)
			}
			if len(p.Variants) != 0 {
				t.Errorf("variants for %v = %+v, want none", value, p.Variants)
			}
		}
	})

	t.Run("variant numerics default to zero", func(t *testing.T) {
		idgen := testutil.NewStubIDGenerator()
		p, err := till.NormalizeProduct(till.RawProduct{
			Name:     "Shirt",
			Variants: []any{map[string]any{"name": "Bare", "price": "junk"}},
		}, idgen)
		if err != nil {
			t.Fatalf("NormalizeProduct() error = %v", err)
		}
		v := p.Variants[0]
		if v.Price != 0 || v.Stock != 0 || v.MinStock != 0 || v.CostPrice != 0 {
			t.Errorf("variant numerics = %+v, want all zero", v)
		}
	})
}
