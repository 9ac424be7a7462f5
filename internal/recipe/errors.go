package recipe

import "errors"

var (
	// ErrNotFound is returned when no recipe exists for an id.
	ErrNotFound = errors.New("recipe not found")

	// ErrDuplicateRecipe is returned when a recipe's name/source pair
	// already exists (case-insensitive). Creation is blocked entirely,
	// never merged.
	ErrDuplicateRecipe = errors.New("a recipe with this name and source already exists")

	// ErrMissingName is returned when a required name is empty.
	ErrMissingName = errors.New("name is required")

	// ErrInvalidAmount is returned for negative quantity input.
	ErrInvalidAmount = errors.New("invalid amount")
)
