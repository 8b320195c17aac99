package till

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"till-go/internal/model"
)

// RawProduct is the intermediate record both import parsers produce. JSON
// objects and CSV rows converge on this shape before normalization, so the
// normalization rules live in exactly one place. Field values are untyped:
// JSON delivers numbers, strings, bools and nulls; CSV delivers strings.
type RawProduct struct {
	Name        any
	Category    any
	HasVariants any
	Price       any
	Stock       any
	MinStock    any
	Barcode     any
	Unit        any
	CostPrice   any
	Variants    any // structured array, embedded JSON string, or absent
}

// rawFromJSONObject maps one decoded JSON object to a RawProduct.
func rawFromJSONObject(obj map[string]any) RawProduct {
	return RawProduct{
		Name:        obj["name"],
		Category:    obj["category"],
		HasVariants: obj["hasVariants"],
		Price:       obj["price"],
		Stock:       obj["stock"],
		MinStock:    obj["minStock"],
		Barcode:     obj["barcode"],
		Unit:        obj["unit"],
		CostPrice:   obj["costPrice"],
		Variants:    obj["variants"],
	}
}

// rawFromCSVRow maps one CSV data row to a RawProduct using the
// lowercased header row for column lookup. Missing columns stay nil.
func rawFromCSVRow(header map[string]int, row []string) RawProduct {
	field := func(name string) any {
		idx, ok := header[name]
		if !ok || idx >= len(row) {
			return nil
		}
		return row[idx]
	}
	return RawProduct{
		Name:        field("name"),
		Category:    field("category"),
		HasVariants: field("hasvariants"),
		Price:       field("price"),
		Stock:       field("stock"),
		MinStock:    field("minstock"),
		Barcode:     field("barcode"),
		Unit:        field("unit"),
		CostPrice:   field("costprice"),
		Variants:    field("variants"),
	}
}

// NormalizeProduct converts a raw record to the canonical product shape.
// It is a pure function: a row either normalizes or returns an error, and
// the caller decides what a dropped row means.
func NormalizeProduct(raw RawProduct, idgen IDGenerator) (model.Product, error) {
	name := strings.TrimSpace(asString(raw.Name))
	if name == "" {
		return model.Product{}, fmt.Errorf("product name is empty")
	}

	category := strings.TrimSpace(asString(raw.Category))
	if category == "" {
		category = "General"
	}

	variants := normalizeVariants(raw.Variants, idgen)

	// hasVariants is declared-or-inferred: an explicit true survives even
	// with no usable variants, and surviving variants imply true.
	declared := asBool(raw.HasVariants)

	return model.Product{
		Name:        name,
		Category:    category,
		HasVariants: declared || len(variants) > 0,
		Variants:    variants,
		Price:       asNullableNumber(raw.Price),
		Stock:       asNullableNumber(raw.Stock),
		MinStock:    asNullableNumber(raw.MinStock),
		Barcode:     asNullableString(raw.Barcode),
		Unit:        asNullableString(raw.Unit),
		CostPrice:   asNullableNumber(raw.CostPrice),
	}, nil
}

// normalizeVariants accepts a structured array or an embedded JSON string.
// Variants whose name is empty after trimming are discarded; anything
// unparseable yields no variants rather than an error, matching the
// forgiving treatment of optional fields.
func normalizeVariants(value any, idgen IDGenerator) []model.Variant {
	var items []any

	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		items = v
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
			return nil
		}
	default:
		return nil
	}

	var variants []model.Variant
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name := strings.TrimSpace(asString(obj["name"]))
		if name == "" {
			continue
		}
		id := strings.TrimSpace(asString(obj["id"]))
		if id == "" {
			id = idgen.New()
		}
		variants = append(variants, model.Variant{
			ID:                   id,
			Name:                 name,
			Design:               strings.TrimSpace(asString(obj["design"])),
			Size:                 strings.TrimSpace(asString(obj["size"])),
			Color:                strings.TrimSpace(asString(obj["color"])),
			Material:             strings.TrimSpace(asString(obj["material"])),
			Price:                asNumberOrZero(obj["price"]),
			Stock:                asNumberOrZero(obj["stock"]),
			MinStock:             asNumberOrZero(obj["minStock"]),
			Barcode:              strings.TrimSpace(asString(obj["barcode"])),
			CostPrice:            asNumberOrZero(obj["costPrice"]),
			CustomAttributeLabel: strings.TrimSpace(asString(obj["customAttributeLabel"])),
			CustomAttributeValue: strings.TrimSpace(asString(obj["customAttributeValue"])),
		})
	}
	return variants
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	case float64:
		return b != 0
	default:
		return false
	}
}

// asNullableNumber coerces a numeric field. Empty strings and non-finite
// values are absent, not zero: an unknown price must not read as free.
func asNullableNumber(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case nil:
		return nil
	case float64:
		f = n
	case string:
		trimmed := strings.TrimSpace(n)
		if trimmed == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// asNumberOrZero is the variant-field rule: absent numbers default to 0.
func asNumberOrZero(v any) float64 {
	if p := asNullableNumber(v); p != nil {
		return *p
	}
	return 0
}

func asNullableString(v any) *string {
	s := strings.TrimSpace(asString(v))
	if s == "" {
		return nil
	}
	return &s
}
