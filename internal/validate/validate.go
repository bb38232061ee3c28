// Package validate provides pure form-field validation helpers.
//
// Every function returns a boolean verdict and never panics. Inputs are not
// coerced: empty or non-numeric strings are rejected, not defaulted.
package validate

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// emailPattern accepts local@domain.tld with no whitespace. It is
// deliberately loose compared to RFC 5321; the identity provider performs
// the authoritative check.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Email reports whether s looks like a plausible email address.
func Email(s string) bool {
	return emailPattern.MatchString(s)
}

// Required reports whether every field is non-empty after trimming whitespace.
func Required(fields ...string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}
	return true
}

// PositiveNumber reports whether s parses to a finite number strictly
// greater than zero. Used for weight, height, and price fields.
func PositiveNumber(s string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v > 0
}

// NonNegativeInt reports whether s parses to an integer >= 0.
// Used for quantity fields.
func NonNegativeInt(s string) bool {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return v >= 0
}
