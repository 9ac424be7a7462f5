// Package api exposes the recipe, shopping-list, meal-plan and import
// operations over HTTP.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"kitchenbook/internal/importer"
	"kitchenbook/internal/mealplan"
	"kitchenbook/internal/recipe"
	"kitchenbook/internal/shopping"
	"kitchenbook/internal/units"
)

const (
	storeTimeout  = 5 * time.Second
	importTimeout = 45 * time.Second
)

// RecipeService defines the recipe operations the handlers depend on.
type RecipeService interface {
	List(ctx context.Context) ([]recipe.Recipe, error)
	Get(ctx context.Context, id string) (*recipe.Recipe, error)
	Create(ctx context.Context, r recipe.Recipe) (*recipe.Recipe, error)
	Update(ctx context.Context, id string, r recipe.Recipe) (*recipe.Recipe, error)
	Delete(ctx context.Context, id string) error
	Touch(id string)
	RecentlyViewed(ctx context.Context) ([]recipe.Recipe, error)
}

// ShoppingService defines the shopping-list operations the handlers depend on.
type ShoppingService interface {
	Items() []shopping.Item
	Merged() []shopping.Item
	AddIngredients(ingredients []recipe.Ingredient, recipeID, recipeName string)
	AddManualItem(name string, amount float64, unit string) (shopping.Item, error)
	RemoveItem(id string)
	UpdateAmount(id string, amount float64)
	Clear()
}

// PlanService defines the meal-plan operations the handlers depend on.
type PlanService interface {
	Plans(ctx context.Context) ([]mealplan.Plan, error)
	CreatePlan(ctx context.Context, name string) (*mealplan.Plan, error)
	DeletePlan(ctx context.Context, planID string) error
	AddRecipeToPlan(ctx context.Context, planID, recipeID string) (*mealplan.Plan, error)
	ChangeMultiplier(ctx context.Context, planID, itemID string, delta float64) (*mealplan.Plan, error)
	RemoveRecipeFromPlan(ctx context.Context, planID, itemID string) (*mealplan.Plan, error)
	ExportToShoppingList(ctx context.Context, planID string) error
}

// ImportService defines the single-file import operation.
type ImportService interface {
	Import(ctx context.Context, filename string, r io.ReaderAt, size int64) (*recipe.Draft, error)
}

// Handler handles HTTP requests.
type Handler struct {
	Recipes  RecipeService
	Shopping ShoppingService
	Plans    PlanService
	Importer ImportService
}

// NewHandler creates a new Handler.
func NewHandler(recipes RecipeService, shoppingList ShoppingService, plans PlanService, imp ImportService) *Handler {
	return &Handler{Recipes: recipes, Shopping: shoppingList, Plans: plans, Importer: imp}
}

// RegisterRoutes attaches every route to the router.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/recipes", h.ListRecipes)
	r.POST("/recipes", h.CreateRecipe)
	r.GET("/recipes/recent", h.RecentRecipes)
	r.GET("/recipes/:id", h.GetRecipe)
	r.PUT("/recipes/:id", h.UpdateRecipe)
	r.DELETE("/recipes/:id", h.DeleteRecipe)
	r.GET("/recipes/:id/scaled", h.ScaledRecipe)

	r.GET("/convert", h.ConvertAmount)

	r.GET("/shopping-list", h.ShoppingList)
	r.GET("/shopping-list/merged", h.MergedShoppingList)
	r.POST("/shopping-list/items", h.AddManualItem)
	r.POST("/shopping-list/recipes/:id", h.AddRecipeToShoppingList)
	r.PATCH("/shopping-list/items/:id", h.UpdateShoppingAmount)
	r.DELETE("/shopping-list/items/:id", h.RemoveShoppingItem)
	r.DELETE("/shopping-list", h.ClearShoppingList)

	r.GET("/meal-plans", h.ListPlans)
	r.POST("/meal-plans", h.CreatePlan)
	r.DELETE("/meal-plans/:id", h.DeletePlan)
	r.POST("/meal-plans/:id/recipes/:recipeId", h.AddRecipeToPlan)
	r.PATCH("/meal-plans/:id/items/:itemId", h.ChangeMultiplier)
	r.DELETE("/meal-plans/:id/items/:itemId", h.RemoveRecipeFromPlan)
	r.POST("/meal-plans/:id/export", h.ExportPlan)

	r.POST("/import", h.ImportRecipe)
}

// ListRecipes returns the full recipe collection.
func (h *Handler) ListRecipes(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	recipes, err := h.Recipes.List(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

// CreateRecipe validates and persists a new recipe.
func (h *Handler) CreateRecipe(c *gin.Context) {
	var r recipe.Recipe
	if err := c.ShouldBindJSON(&r); err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("invalid recipe payload: %s", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	created, err := h.Recipes.Create(ctx, r)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetRecipe returns one recipe and records the view.
func (h *Handler) GetRecipe(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	r, err := h.Recipes.Get(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.Recipes.Touch(r.ID)
	c.JSON(http.StatusOK, r)
}

// UpdateRecipe replaces a stored recipe wholesale.
func (h *Handler) UpdateRecipe(c *gin.Context) {
	var r recipe.Recipe
	if err := c.ShouldBindJSON(&r); err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("invalid recipe payload: %s", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	updated, err := h.Recipes.Update(ctx, c.Param("id"), r)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteRecipe removes a recipe by id.
func (h *Handler) DeleteRecipe(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	if err := h.Recipes.Delete(ctx, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// scaledIngredient pairs a scaled ingredient with its display-form unit.
type scaledIngredient struct {
	recipe.Ingredient
	DisplayUnit string `json:"display_unit"`
}

// ScaledRecipe returns a recipe's ingredient list scaled by the multiplier
// query parameter. Invalid multipliers fall back to 1.
func (h *Handler) ScaledRecipe(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	r, err := h.Recipes.Get(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	multiplier, parseErr := strconv.ParseFloat(c.DefaultQuery("multiplier", "1"), 64)
	if parseErr != nil {
		multiplier = 1
	}
	multiplier = recipe.ClampMultiplier(multiplier)

	scaled := recipe.Scale(*r, multiplier)
	out := make([]scaledIngredient, len(scaled))
	for idx, ing := range scaled {
		out[idx] = scaledIngredient{Ingredient: ing, DisplayUnit: units.DisplayUnit(ing.Amount, ing.Unit)}
	}

	c.JSON(http.StatusOK, gin.H{
		"recipe_id":        r.ID,
		"recipe_name":      r.Name,
		"multiplier":       multiplier,
		"ingredients":      out,
		"servings_display": recipe.ScaledServings(*r, multiplier),
		"serving_unit":     r.ServingUnit,
		"step_numbers":     recipe.StepNumbers(r.Instructions),
	})
}

// RecentRecipes returns the recently viewed recipes, most recent first.
func (h *Handler) RecentRecipes(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	recipes, err := h.Recipes.RecentlyViewed(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

// ConvertAmount converts an amount between two measurement units.
func (h *Handler) ConvertAmount(c *gin.Context) {
	amount, err := strconv.ParseFloat(c.Query("amount"), 64)
	if err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("invalid amount: %s", c.Query("amount")))
		return
	}
	from, err := units.ParseUnit(c.Query("from"))
	if err != nil {
		h.fail(c, err)
		return
	}
	to, err := units.ParseUnit(c.Query("to"))
	if err != nil {
		h.fail(c, err)
		return
	}

	result, err := units.Convert(amount, from, to)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"amount":       result,
		"unit":         to,
		"display_unit": units.DisplayUnit(result, string(to)),
	})
}

// ShoppingList returns the stored list with split entries and provenance.
func (h *Handler) ShoppingList(c *gin.Context) {
	c.JSON(http.StatusOK, h.Shopping.Items())
}

// MergedShoppingList returns the consolidated name+unit view.
func (h *Handler) MergedShoppingList(c *gin.Context) {
	c.JSON(http.StatusOK, h.Shopping.Merged())
}

// AddManualItem appends an untracked item to the shopping list.
func (h *Handler) AddManualItem(c *gin.Context) {
	var req struct {
		Name   string  `json:"name"`
		Amount float64 `json:"amount"`
		Unit   string  `json:"unit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("invalid item payload: %s", err.Error()))
		return
	}

	item, err := h.Shopping.AddManualItem(req.Name, req.Amount, req.Unit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// AddRecipeToShoppingList scales one recipe's ingredients and appends them.
func (h *Handler) AddRecipeToShoppingList(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	r, err := h.Recipes.Get(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	multiplier, parseErr := strconv.ParseFloat(c.DefaultQuery("multiplier", "1"), 64)
	if parseErr != nil {
		multiplier = 1
	}
	multiplier = recipe.ClampMultiplier(multiplier)

	h.Shopping.AddIngredients(recipe.Scale(*r, multiplier), r.ID, r.Name)
	c.JSON(http.StatusOK, h.Shopping.Items())
}

// UpdateShoppingAmount edits one item's amount; zero or below removes it.
func (h *Handler) UpdateShoppingAmount(c *gin.Context) {
	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("invalid payload: %s", err.Error()))
		return
	}

	h.Shopping.UpdateAmount(c.Param("id"), req.Amount)
	c.JSON(http.StatusOK, h.Shopping.Items())
}

// RemoveShoppingItem deletes one item.
func (h *Handler) RemoveShoppingItem(c *gin.Context) {
	h.Shopping.RemoveItem(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// ClearShoppingList empties the list.
func (h *Handler) ClearShoppingList(c *gin.Context) {
	h.Shopping.Clear()
	c.Status(http.StatusNoContent)
}

// ListPlans returns all meal plans, newest first.
func (h *Handler) ListPlans(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	plans, err := h.Plans.Plans(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, plans)
}

// CreatePlan creates an empty named plan.
func (h *Handler) CreatePlan(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("invalid plan payload: %s", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	p, err := h.Plans.CreatePlan(ctx, req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// DeletePlan removes a plan.
func (h *Handler) DeletePlan(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	if err := h.Plans.DeletePlan(ctx, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddRecipeToPlan adds a recipe reference or bumps its multiplier.
func (h *Handler) AddRecipeToPlan(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	p, err := h.Plans.AddRecipeToPlan(ctx, c.Param("id"), c.Param("recipeId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ChangeMultiplier adjusts a plan item's multiplier by the request delta.
func (h *Handler) ChangeMultiplier(c *gin.Context) {
	var req struct {
		Delta float64 `json:"delta"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("invalid payload: %s", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	p, err := h.Plans.ChangeMultiplier(ctx, c.Param("id"), c.Param("itemId"), req.Delta)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// RemoveRecipeFromPlan removes one plan item.
func (h *Handler) RemoveRecipeFromPlan(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	p, err := h.Plans.RemoveRecipeFromPlan(ctx, c.Param("id"), c.Param("itemId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ExportPlan forwards a plan's scaled ingredients to the shopping list.
func (h *Handler) ExportPlan(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	if err := h.Plans.ExportToShoppingList(ctx, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.Shopping.Items())
}

// ImportRecipe runs the PDF import pipeline and returns the parsed draft as
// a prefilled recipe for the creation form. Nothing is persisted here.
func (h *Handler) ImportRecipe(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("get form err: %s", err.Error()))
		return
	}

	src, err := file.Open()
	if err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("open file err: %s", err.Error()))
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("read file err: %s", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), importTimeout)
	defer cancel()

	draft, err := h.Importer.Import(ctx, file.Filename, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		h.fail(c, err)
		return
	}

	prefilled := draft.ToRecipe()
	c.JSON(http.StatusOK, gin.H{"draft": prefilled})
}

// fail maps domain errors to HTTP status codes.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		c.String(http.StatusRequestTimeout, "operation timed out")
	case errors.Is(err, recipe.ErrNotFound), errors.Is(err, mealplan.ErrNotFound), errors.Is(err, mealplan.ErrItemNotFound):
		c.String(http.StatusNotFound, err.Error())
	case errors.Is(err, recipe.ErrDuplicateRecipe):
		c.String(http.StatusConflict, err.Error())
	case errors.Is(err, recipe.ErrMissingName),
		errors.Is(err, recipe.ErrInvalidAmount),
		errors.Is(err, mealplan.ErrMissingName),
		errors.Is(err, shopping.ErrMissingName),
		errors.Is(err, shopping.ErrInvalidAmount),
		errors.Is(err, units.ErrInvalidAmount),
		errors.Is(err, units.ErrUnknownUnit):
		c.String(http.StatusBadRequest, err.Error())
	case errors.Is(err, importer.ErrUnsupportedFile):
		c.String(http.StatusBadRequest, err.Error())
	case errors.Is(err, importer.ErrEmptyDocument), errors.Is(err, importer.ErrMissingFields):
		c.String(http.StatusUnprocessableEntity, err.Error())
	default:
		c.String(http.StatusInternalServerError, err.Error())
	}
}
