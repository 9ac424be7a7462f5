// Package shopping implements the shopping-list aggregator: scaled recipe
// ingredients and manual entries collected into purchasable line items.
package shopping

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kitchenbook/internal/recipe"
)

// ErrMissingName is returned when a manual item has no name.
var ErrMissingName = errors.New("item name is required")

// ErrInvalidAmount is returned when a manual item's amount is not positive.
var ErrInvalidAmount = errors.New("item amount must be positive")

const cacheKey = "shoppingList"

// Item is one line in the shopping list. Items sourced from a recipe carry
// provenance; manual items leave it empty.
type Item struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	Amount               float64 `json:"amount"`
	Unit                 string  `json:"unit"`
	OriginalIngredientID string  `json:"original_ingredient_id,omitempty"`
	RecipeID             string  `json:"recipe_id,omitempty"`
	RecipeName           string  `json:"recipe_name,omitempty"`
}

// LocalCache persists the full list after every mutation.
type LocalCache interface {
	Put(key string, v any) error
	Get(key string, v any) error
}

// Service owns the shopping list. Adding the same ingredient twice produces
// two separate line items; per-recipe provenance is only representable with
// split entries, so no merging happens on the stored list.
type Service struct {
	mu    sync.Mutex
	items []Item
	cache LocalCache
	log   *zap.SugaredLogger
}

// NewService hydrates the list from the last persisted snapshot.
func NewService(cache LocalCache, log *zap.SugaredLogger) *Service {
	s := &Service{cache: cache, log: log}
	if err := cache.Get(cacheKey, &s.items); err != nil {
		s.items = nil
	}
	return s
}

// AddIngredients appends one item per real ingredient, tagged with the source
// recipe. Headings and entries without an amount or unit are silently
// skipped. Each item gets a fresh id, so repeated adds never collide.
func (s *Service) AddIngredients(ingredients []recipe.Ingredient, recipeID, recipeName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, ing := range ingredients {
		if ing.IsHeading() || ing.Amount <= 0 || ing.Unit == "" {
			continue
		}
		s.items = append(s.items, Item{
			ID:                   uuid.NewString(),
			Name:                 ing.Name,
			Amount:               ing.Amount,
			Unit:                 ing.Unit,
			OriginalIngredientID: ing.ID,
			RecipeID:             recipeID,
			RecipeName:           recipeName,
		})
		added++
	}
	s.persistLocked()
	s.log.Debugw("ingredients added to shopping list", "recipe", recipeName, "added", added, "skipped", len(ingredients)-added)
}

// AddManualItem appends an item with no recipe provenance.
func (s *Service) AddManualItem(name string, amount float64, unit string) (Item, error) {
	if strings.TrimSpace(name) == "" {
		return Item{}, ErrMissingName
	}
	if amount <= 0 {
		return Item{}, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := Item{
		ID:     uuid.NewString(),
		Name:   strings.TrimSpace(name),
		Amount: amount,
		Unit:   unit,
	}
	s.items = append(s.items, item)
	s.persistLocked()
	return item, nil
}

// RemoveItem deletes one entry. An unknown id is a no-op.
func (s *Service) RemoveItem(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for idx, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:idx], s.items[idx+1:]...)
			s.persistLocked()
			return
		}
	}
}

// UpdateAmount replaces an item's amount. Amounts at or below zero delete
// the entry.
func (s *Service) UpdateAmount(id string, amount float64) {
	if amount <= 0 {
		s.RemoveItem(id)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for idx := range s.items {
		if s.items[idx].ID == id {
			s.items[idx].Amount = amount
			s.persistLocked()
			return
		}
	}
}

// Clear empties the list unconditionally.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.persistLocked()
}

// Items returns a copy of the current list in insertion order.
func (s *Service) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Merged returns a consolidated view summing amounts across entries that
// share a name (case-insensitive) and unit. It is a derived view only: the
// stored list keeps its split entries and their provenance.
func (s *Service) Merged() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	type key struct{ name, unit string }
	sums := make(map[key]*Item)
	order := []key{}
	for _, item := range s.items {
		k := key{strings.ToLower(item.Name), item.Unit}
		if existing, ok := sums[k]; ok {
			existing.Amount += item.Amount
			continue
		}
		merged := Item{ID: item.ID, Name: item.Name, Amount: item.Amount, Unit: item.Unit}
		sums[k] = &merged
		order = append(order, k)
	}

	out := make([]Item, 0, len(order))
	for _, k := range order {
		out = append(out, *sums[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// persistLocked writes the full list through to the durable snapshot. A
// failed write is logged and the in-memory state stands.
func (s *Service) persistLocked() {
	if err := s.cache.Put(cacheKey, s.items); err != nil {
		s.log.Warnw("failed to persist shopping list", "error", err)
	}
}
