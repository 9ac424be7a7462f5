// Package mealplan implements named collections of recipe references with
// per-recipe multipliers, and their export into the shopping list.
package mealplan

import (
	"errors"
	"time"
)

var (
	// ErrMissingName is returned when a plan is created without a name.
	ErrMissingName = errors.New("plan name is required")

	// ErrNotFound is returned when no plan exists for an id.
	ErrNotFound = errors.New("meal plan not found")

	// ErrItemNotFound is returned when a plan has no item for an id.
	ErrItemNotFound = errors.New("meal plan item not found")
)

// Plan is a named collection of recipe references.
type Plan struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Items     []Item    `json:"items"`
}

// Item references one recipe inside a plan. A plan holds at most one item
// per recipe id; re-adding a recipe bumps Multiplier instead.
type Item struct {
	ID         string  `json:"id"`
	RecipeID   string  `json:"recipe_id"`
	Multiplier float64 `json:"multiplier"`
}

// itemIndexByRecipe finds the position of an item by recipe id, or -1.
func (p *Plan) itemIndexByRecipe(recipeID string) int {
	for idx, it := range p.Items {
		if it.RecipeID == recipeID {
			return idx
		}
	}
	return -1
}

// itemIndexByID finds the position of an item by item id, or -1.
func (p *Plan) itemIndexByID(itemID string) int {
	for idx, it := range p.Items {
		if it.ID == itemID {
			return idx
		}
	}
	return -1
}
