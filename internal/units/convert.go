// Package units implements measurement conversion and display rules for
// recipe ingredient quantities.
package units

import (
	"fmt"
	"math"
	"strings"
)

// ErrInvalidAmount is returned when an amount is not a finite positive number.
var ErrInvalidAmount = fmt.Errorf("amount must be a positive number")

// ErrUnknownUnit is returned when a unit is outside the convertible set.
var ErrUnknownUnit = fmt.Errorf("unknown unit")

// Unit is one of the five convertible measurement units.
type Unit string

const (
	Gram       Unit = "grams"
	Cup        Unit = "cups"
	Tablespoon Unit = "tbsp"
	Teaspoon   Unit = "tsp"
	Milliliter Unit = "ml"
)

// conversionTable holds direct factors between units. Every unit carries a
// factor to grams so missing pairs can be bridged in two hops. All factors are
// approximate: true gram weight depends on ingredient density.
var conversionTable = map[Unit]map[Unit]float64{
	Gram: {
		Gram: 1,
	},
	Cup: {
		Gram:       240,
		Tablespoon: 16,
		Teaspoon:   48,
		Milliliter: 240,
	},
	Tablespoon: {
		Gram:       15,
		Teaspoon:   3,
		Milliliter: 15,
	},
	Teaspoon: {
		Gram:       5,
		Milliliter: 5,
	},
	Milliliter: {
		Gram: 1,
	},
}

// ParseUnit resolves free-text unit input to one of the known units.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "g", "gram", "grams":
		return Gram, nil
	case "cup", "cups":
		return Cup, nil
	case "tbsp", "tablespoon", "tablespoons":
		return Tablespoon, nil
	case "tsp", "teaspoon", "teaspoons":
		return Teaspoon, nil
	case "ml", "milliliter", "milliliters":
		return Milliliter, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, s)
	}
}

// Convert translates an amount between two known units. Same-unit conversions
// return the amount untouched; direct table hits use the stored factor; any
// other pair is bridged through grams. Results are rounded to two decimals.
func Convert(amount float64, from, to Unit) (float64, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	fromTable, ok := conversionTable[from]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, from)
	}
	toTable, ok := conversionTable[to]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, to)
	}

	if from == to {
		return amount, nil
	}

	if factor, ok := fromTable[to]; ok {
		return Round2(amount * factor), nil
	}

	// No direct factor; go through grams.
	grams := amount * fromTable[Gram]
	return Round2(grams / toTable[Gram]), nil
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
