package units

// singularForms maps plural display units to their singular form. Units
// outside the table pass through DisplayUnit untouched, so free-text
// vocabularies keep working.
var singularForms = map[string]string{
	"cups":        "cup",
	"teaspoons":   "teaspoon",
	"tablespoons": "tablespoon",
	"grams":       "gram",
}

var pluralForms = func() map[string]string {
	inverse := make(map[string]string, len(singularForms))
	for plural, singular := range singularForms {
		inverse[singular] = plural
	}
	return inverse
}()

// DisplayUnit returns the display form of a unit for a given amount:
// singular for amounts up to one, plural above one. Only the fixed
// vocabulary is rewritten; any other unit is returned unchanged.
func DisplayUnit(amount float64, unit string) string {
	if amount <= 1 {
		if singular, ok := singularForms[unit]; ok {
			return singular
		}
		return unit
	}
	if plural, ok := pluralForms[unit]; ok {
		return plural
	}
	return unit
}
