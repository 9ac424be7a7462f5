// Package recipe owns the recipe entity: its model, persistent store and
// the service that enforces creation and update rules.
package recipe

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntryKind distinguishes real ingredient/instruction entries from the
// section-heading pseudo entries that divide a list.
type EntryKind string

const (
	KindItem    EntryKind = "item"
	KindHeading EntryKind = "heading"
)

// Ingredient is one entry in a recipe's ordered ingredient list. For heading
// entries only Name carries meaning; Amount, Unit, Optional and Notes are
// kept at their zero values.
type Ingredient struct {
	ID       string    `json:"id"`
	Kind     EntryKind `json:"kind"`
	Name     string    `json:"name"`
	Amount   float64   `json:"amount"`
	Unit     string    `json:"unit"`
	Optional bool      `json:"optional,omitempty"`
	Notes    string    `json:"notes,omitempty"`
}

// IsHeading reports whether the entry is a section divider.
func (i Ingredient) IsHeading() bool {
	return i.Kind == KindHeading
}

// InstructionStep is one entry in a recipe's ordered instruction list.
type InstructionStep struct {
	ID       string    `json:"id"`
	Kind     EntryKind `json:"kind"`
	Text     string    `json:"text"`
	ImageURL string    `json:"image_url,omitempty"`
}

// IsHeading reports whether the step is a section divider.
func (s InstructionStep) IsHeading() bool {
	return s.Kind == KindHeading
}

// Recipe is the full recipe document as stored and served.
type Recipe struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Source       string            `json:"source"`
	PrepTime     string            `json:"prep_time"`
	CookTime     string            `json:"cook_time"`
	Servings     float64           `json:"servings"`
	ServingUnit  string            `json:"serving_unit"`
	Freezable    bool              `json:"freezable"`
	Ingredients  []Ingredient      `json:"ingredients"`
	Instructions []InstructionStep `json:"instructions"`
	ImageURL     string            `json:"image_url,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Normalize fills in entry kinds and ids and strips quantity fields from
// heading entries so headings never carry amounts into scaling or shopping
// lists.
func (r *Recipe) Normalize() {
	for idx := range r.Ingredients {
		ing := &r.Ingredients[idx]
		if ing.Kind == "" {
			ing.Kind = KindItem
		}
		if ing.ID == "" {
			ing.ID = uuid.NewString()
		}
		if ing.Kind == KindHeading {
			ing.Amount = 0
			ing.Unit = ""
			ing.Optional = false
			ing.Notes = ""
		}
	}
	for idx := range r.Instructions {
		step := &r.Instructions[idx]
		if step.Kind == "" {
			step.Kind = KindItem
		}
		if step.ID == "" {
			step.ID = uuid.NewString()
		}
	}
}

// Validate checks form-level constraints before the recipe reaches the store.
func (r *Recipe) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: recipe name", ErrMissingName)
	}
	if r.Servings < 0 {
		return fmt.Errorf("%w: servings %v", ErrInvalidAmount, r.Servings)
	}
	for _, ing := range r.Ingredients {
		if !ing.IsHeading() && ing.Amount < 0 {
			return fmt.Errorf("%w: ingredient %q amount %v", ErrInvalidAmount, ing.Name, ing.Amount)
		}
	}
	return nil
}

// DuplicateKey builds the case-insensitive identity used to reject recipes
// that repeat an existing name/source pair. Empty sources compare equal.
func DuplicateKey(name, source string) string {
	return strings.ToLower(strings.TrimSpace(name)) + "\x00" + strings.ToLower(strings.TrimSpace(source))
}

// StepNumbers assigns display numbers to instruction steps: headings get 0,
// real steps count up from 1.
func StepNumbers(steps []InstructionStep) []int {
	numbers := make([]int, len(steps))
	n := 0
	for idx, step := range steps {
		if step.IsHeading() {
			continue
		}
		n++
		numbers[idx] = n
	}
	return numbers
}
