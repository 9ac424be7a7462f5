package recipe

// Draft is the recipe-shaped object the AI extraction collaborator returns.
// It prefills the manual creation form for human review; a Draft is never
// persisted directly.
type Draft struct {
	Name         string            `json:"name"`
	Source       string            `json:"source,omitempty"`
	PrepTime     string            `json:"prep_time,omitempty"`
	CookTime     string            `json:"cook_time,omitempty"`
	Servings     float64           `json:"servings,omitempty"`
	ServingUnit  string            `json:"serving_unit,omitempty"`
	Freezable    bool              `json:"freezable,omitempty"`
	Ingredients  []DraftIngredient `json:"ingredients"`
	Instructions []string          `json:"instructions"`
	ImageURL     string            `json:"image_url,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
}

// DraftIngredient is the minimal ingredient shape the extractor produces.
type DraftIngredient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// ToRecipe expands the draft into a full Recipe ready for the creation form.
func (d Draft) ToRecipe() Recipe {
	r := Recipe{
		Name:        d.Name,
		Source:      d.Source,
		PrepTime:    d.PrepTime,
		CookTime:    d.CookTime,
		Servings:    d.Servings,
		ServingUnit: d.ServingUnit,
		Freezable:   d.Freezable,
		ImageURL:    d.ImageURL,
		Tags:        d.Tags,
	}
	for _, ing := range d.Ingredients {
		r.Ingredients = append(r.Ingredients, Ingredient{
			Kind:   KindItem,
			Name:   ing.Name,
			Amount: ing.Amount,
			Unit:   ing.Unit,
		})
	}
	for _, text := range d.Instructions {
		r.Instructions = append(r.Instructions, InstructionStep{
			Kind: KindItem,
			Text: text,
		})
	}
	r.Normalize()
	return r
}
