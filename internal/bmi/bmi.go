// Package bmi computes and classifies body mass index measurements.
//
// Classification uses four half-open bands [lo, hi); a boundary value
// belongs to the band whose lower bound equals it. The functions are pure
// and assume positive inputs; callers validate weight and height first.
package bmi

import (
	"math"
	"time"
)

// Category is one of the four ordered classification bands.
type Category int

const (
	Underweight Category = iota
	Normal
	Overweight
	Obese
)

// String returns the display label for the category.
func (c Category) String() string {
	switch c {
	case Underweight:
		return "Underweight"
	case Normal:
		return "Normal"
	case Overweight:
		return "Overweight"
	case Obese:
		return "Obese"
	default:
		return "Unknown"
	}
}

// Index computes weight / height² with height given in centimeters,
// rounded to 2 decimal places. The rounding happens before classification
// so stored and classified values agree.
func Index(weightKg, heightCm float64) float64 {
	m := heightCm / 100
	return math.Round(weightKg/(m*m)*100) / 100
}

// Classify maps an index value to its band. Intervals are [lo, hi):
// 18.5 is Normal, 25.0 is Overweight, 30.0 is Obese.
func Classify(index float64) Category {
	switch {
	case index < 18.5:
		return Underweight
	case index < 25:
		return Normal
	case index < 30:
		return Overweight
	default:
		return Obese
	}
}

// Measurement is one computed BMI entry for the history collection.
type Measurement struct {
	Name       string
	WeightKg   float64
	HeightCm   float64
	Index      float64
	Category   Category
	RecordedAt time.Time
}

// NewMeasurement computes and classifies a measurement in one step.
func NewMeasurement(name string, weightKg, heightCm float64, at time.Time) Measurement {
	idx := Index(weightKg, heightCm)
	return Measurement{
		Name:       name,
		WeightKg:   weightKg,
		HeightCm:   heightCm,
		Index:      idx,
		Category:   Classify(idx),
		RecordedAt: at,
	}
}

// Fields converts the measurement to a store record mapping.
// RecordedAt is serialized as RFC 3339 so history reconciliation can sort
// on it.
func (m Measurement) Fields() map[string]any {
	return map[string]any{
		"name":        m.Name,
		"weight_kg":   m.WeightKg,
		"height_cm":   m.HeightCm,
		"index":       m.Index,
		"category":    m.Category.String(),
		"recorded_at": m.RecordedAt.Format(time.RFC3339),
	}
}
