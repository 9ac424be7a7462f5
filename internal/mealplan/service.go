package mealplan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kitchenbook/internal/recipe"
)

const cacheKey = "mealPlans"

// PlanStore is the authoritative meal-plan repository.
type PlanStore interface {
	List(ctx context.Context) ([]Plan, error)
	Get(ctx context.Context, id string) (*Plan, error)
	Save(ctx context.Context, p *Plan) error
	Delete(ctx context.Context, id string) error
}

// RecipeResolver resolves a plan item's recipe reference.
type RecipeResolver interface {
	Get(ctx context.Context, id string) (*recipe.Recipe, error)
}

// ShoppingList receives a plan's scaled ingredients on export.
type ShoppingList interface {
	AddIngredients(ingredients []recipe.Ingredient, recipeID, recipeName string)
}

// LocalCache is the durable snapshot fallback for plan reads.
type LocalCache interface {
	Put(key string, v any) error
	Get(key string, v any) error
}

// Service owns the meal-plan collection and its multiplier math.
type Service struct {
	store    PlanStore
	recipes  RecipeResolver
	shopping ShoppingList
	cache    LocalCache
	log      *zap.SugaredLogger
}

// NewService wires the meal-plan service to its collaborators.
func NewService(store PlanStore, recipes RecipeResolver, shopping ShoppingList, cache LocalCache, log *zap.SugaredLogger) *Service {
	return &Service{store: store, recipes: recipes, shopping: shopping, cache: cache, log: log}
}

// Plans lists all plans newest first, falling back to the cached snapshot
// when the remote store fails.
func (s *Service) Plans(ctx context.Context) ([]Plan, error) {
	plans, err := s.store.List(ctx)
	if err != nil {
		s.log.Warnw("meal plan list from remote store failed, falling back to cache", "error", err)
		var cached []Plan
		if cacheErr := s.cache.Get(cacheKey, &cached); cacheErr != nil {
			return nil, fmt.Errorf("remote store failed and no cached snapshot: %w", err)
		}
		return cached, nil
	}
	if err := s.cache.Put(cacheKey, plans); err != nil {
		s.log.Warnw("failed to refresh meal plan snapshot", "error", err)
	}
	return plans, nil
}

// CreatePlan creates an empty plan. Whitespace names are rejected.
func (s *Service) CreatePlan(ctx context.Context, name string) (*Plan, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingName
	}

	p := &Plan{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Items:     []Item{},
	}
	if err := s.store.Save(ctx, p); err != nil {
		return nil, err
	}
	s.refreshSnapshot(ctx)
	s.log.Infow("meal plan created", "id", p.ID, "name", p.Name)
	return p, nil
}

// DeletePlan removes a plan entirely.
func (s *Service) DeletePlan(ctx context.Context, planID string) error {
	if err := s.store.Delete(ctx, planID); err != nil {
		return err
	}
	s.refreshSnapshot(ctx)
	return nil
}

// AddRecipeToPlan adds a recipe reference with multiplier 1, or bumps the
// multiplier when the recipe is already in the plan.
func (s *Service) AddRecipeToPlan(ctx context.Context, planID, recipeID string) (*Plan, error) {
	p, err := s.getPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	if idx := p.itemIndexByRecipe(recipeID); idx >= 0 {
		p.Items[idx].Multiplier++
	} else {
		p.Items = append(p.Items, Item{
			ID:         uuid.NewString(),
			RecipeID:   recipeID,
			Multiplier: 1,
		})
	}

	if err := s.store.Save(ctx, p); err != nil {
		return nil, err
	}
	s.refreshSnapshot(ctx)
	return p, nil
}

// ChangeMultiplier adjusts an item's multiplier by delta. A result at or
// below zero removes the item from the plan.
func (s *Service) ChangeMultiplier(ctx context.Context, planID, itemID string, delta float64) (*Plan, error) {
	p, err := s.getPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	idx := p.itemIndexByID(itemID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}

	p.Items[idx].Multiplier += delta
	if p.Items[idx].Multiplier <= 0 {
		p.Items = append(p.Items[:idx], p.Items[idx+1:]...)
	}

	if err := s.store.Save(ctx, p); err != nil {
		return nil, err
	}
	s.refreshSnapshot(ctx)
	return p, nil
}

// RemoveRecipeFromPlan removes an item unconditionally.
func (s *Service) RemoveRecipeFromPlan(ctx context.Context, planID, itemID string) (*Plan, error) {
	p, err := s.getPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	idx := p.itemIndexByID(itemID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	p.Items = append(p.Items[:idx], p.Items[idx+1:]...)

	if err := s.store.Save(ctx, p); err != nil {
		return nil, err
	}
	s.refreshSnapshot(ctx)
	return p, nil
}

// ExportToShoppingList resolves each plan item, scales the recipe's real,
// non-optional ingredients by the item's multiplier and forwards them to the
// shopping list tagged with the recipe. Items pointing at deleted recipes are
// skipped silently. Each item is exported independently; a failure partway
// leaves earlier items on the list.
func (s *Service) ExportToShoppingList(ctx context.Context, planID string) error {
	p, err := s.getPlan(ctx, planID)
	if err != nil {
		return err
	}

	for _, item := range p.Items {
		r, err := s.recipes.Get(ctx, item.RecipeID)
		if err != nil {
			if errors.Is(err, recipe.ErrNotFound) {
				s.log.Debugw("skipping dangling plan item", "plan", planID, "recipe", item.RecipeID)
				continue
			}
			return err
		}

		scaled := recipe.Scale(*r, item.Multiplier)
		exported := make([]recipe.Ingredient, 0, len(scaled))
		for _, ing := range scaled {
			if ing.IsHeading() || ing.Optional {
				continue
			}
			exported = append(exported, ing)
		}
		s.shopping.AddIngredients(exported, r.ID, r.Name)
	}

	s.log.Infow("meal plan exported to shopping list", "plan", planID, "items", len(p.Items))
	return nil
}

func (s *Service) getPlan(ctx context.Context, planID string) (*Plan, error) {
	p, err := s.store.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, planID)
	}
	return p, nil
}

func (s *Service) refreshSnapshot(ctx context.Context) {
	plans, err := s.store.List(ctx)
	if err != nil {
		s.log.Warnw("failed to refresh meal plan snapshot after write", "error", err)
		return
	}
	if err := s.cache.Put(cacheKey, plans); err != nil {
		s.log.Warnw("failed to persist meal plan snapshot", "error", err)
	}
}
