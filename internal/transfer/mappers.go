package transfer

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/jrmonge/recordhub/internal/store"
)

// Built-in row mappers for the two spreadsheet shapes the extraction
// service produces. Cell access is explicit per field; a missing or
// mistyped cell takes the field's fallback instead of failing the row.

// GenericMapper stores every cell as extracted, with no typed coercion.
// Collections without a dedicated shape use this.
func GenericMapper(row map[string]any) store.Record {
	rec := make(store.Record, len(row))
	for k, v := range row {
		rec[k] = v
	}
	return rec
}

// PetMapper maps a pet row: nombre, edad, raza.
func PetMapper(row map[string]any) store.Record {
	return store.Record{
		"nombre": stringCell(row, "nombre", "Sin nombre"),
		"edad":   intCell(row, "edad", 0),
		"raza":   stringCell(row, "raza", "Sin raza"),
	}
}

// BikeMapper maps a bicycle row: marca, modelo, precio, color.
func BikeMapper(row map[string]any) store.Record {
	return store.Record{
		"marca":  stringCell(row, "marca", "Sin marca"),
		"modelo": stringCell(row, "modelo", "Sin modelo"),
		"precio": floatCell(row, "precio", 0),
		"color":  stringCell(row, "color", "Sin color"),
	}
}

func stringCell(row map[string]any, key, fallback string) string {
	s, ok := row[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return fallback
	}
	return strings.TrimSpace(s)
}

// floatCell accepts the numeric shapes a JSON decode or a lenient
// spreadsheet export can produce: numbers, or numeric text.
func floatCell(row map[string]any, key string, fallback float64) float64 {
	switch v := row[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return fallback
}

func intCell(row map[string]any, key string, fallback int) int {
	switch v := row[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}
