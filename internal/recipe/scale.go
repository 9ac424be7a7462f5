package recipe

import (
	"math"
	"strconv"

	"kitchenbook/internal/units"
)

// Scale returns the recipe's ingredient list with every non-heading amount
// multiplied. Heading entries come back with amount 0 regardless of the
// multiplier. A multiplier of 1 is the identity transform.
func Scale(r Recipe, multiplier float64) []Ingredient {
	scaled := make([]Ingredient, len(r.Ingredients))
	for idx, ing := range r.Ingredients {
		if ing.IsHeading() {
			ing.Amount = 0
		} else {
			ing.Amount = ing.Amount * multiplier
		}
		scaled[idx] = ing
	}
	return scaled
}

// ScaledServings formats the scaled servings count for display, rounded to
// two decimals with trailing zeros trimmed: servings 4 at multiplier 2 reads
// "8", servings 3 at multiplier 0.5 reads "1.5".
func ScaledServings(r Recipe, multiplier float64) string {
	return strconv.FormatFloat(units.Round2(r.Servings*multiplier), 'f', -1, 64)
}

// ClampMultiplier maps invalid form input back to the identity multiplier so
// zero, negative or unparseable values never reach the scaling math.
func ClampMultiplier(m float64) float64 {
	if m <= 0 || math.IsNaN(m) || math.IsInf(m, 0) {
		return 1
	}
	return m
}
