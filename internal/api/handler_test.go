package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kitchenbook/internal/importer"
	"kitchenbook/internal/mealplan"
	"kitchenbook/internal/recipe"
	"kitchenbook/internal/shopping"
)

// mockRecipeService is an in-memory RecipeService.
type mockRecipeService struct {
	recipes map[string]*recipe.Recipe
	touched []string
	nextID  int
}

func newMockRecipeService() *mockRecipeService {
	return &mockRecipeService{recipes: make(map[string]*recipe.Recipe)}
}

func (m *mockRecipeService) List(ctx context.Context) ([]recipe.Recipe, error) {
	out := []recipe.Recipe{}
	for _, r := range m.recipes {
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockRecipeService) Get(ctx context.Context, id string) (*recipe.Recipe, error) {
	r, ok := m.recipes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", recipe.ErrNotFound, id)
	}
	return r, nil
}

func (m *mockRecipeService) Create(ctx context.Context, r recipe.Recipe) (*recipe.Recipe, error) {
	r.Normalize()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	key := recipe.DuplicateKey(r.Name, r.Source)
	for _, other := range m.recipes {
		if recipe.DuplicateKey(other.Name, other.Source) == key {
			return nil, recipe.ErrDuplicateRecipe
		}
	}
	m.nextID++
	r.ID = fmt.Sprintf("r%d", m.nextID)
	m.recipes[r.ID] = &r
	return &r, nil
}

func (m *mockRecipeService) Update(ctx context.Context, id string, r recipe.Recipe) (*recipe.Recipe, error) {
	if _, ok := m.recipes[id]; !ok {
		return nil, recipe.ErrNotFound
	}
	r.ID = id
	m.recipes[id] = &r
	return &r, nil
}

func (m *mockRecipeService) Delete(ctx context.Context, id string) error {
	delete(m.recipes, id)
	return nil
}

func (m *mockRecipeService) Touch(id string) {
	m.touched = append(m.touched, id)
}

func (m *mockRecipeService) RecentlyViewed(ctx context.Context) ([]recipe.Recipe, error) {
	out := []recipe.Recipe{}
	for _, id := range m.touched {
		if r, ok := m.recipes[id]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

// mockTextExtractor and mockRecipeExtractor drive the import route.
type mockTextExtractor struct {
	text string
}

func (m *mockTextExtractor) Extract(r io.ReaderAt, size int64) (string, error) {
	return m.text, nil
}

type mockRecipeExtractor struct {
	draft *recipe.Draft
	calls int
}

func (m *mockRecipeExtractor) ExtractRecipe(ctx context.Context, text string) (*recipe.Draft, error) {
	m.calls++
	return m.draft, nil
}

// memCache backs the real shopping service in handler tests.
type memCache struct {
	data map[string][]byte
}

func (c *memCache) Put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if c.data == nil {
		c.data = make(map[string][]byte)
	}
	c.data[key] = raw
	return nil
}

func (c *memCache) Get(key string, v any) error {
	raw, ok := c.data[key]
	if !ok {
		return fmt.Errorf("no snapshot for %q", key)
	}
	return json.Unmarshal(raw, v)
}

type fixture struct {
	router   *gin.Engine
	recipes  *mockRecipeService
	shopping *shopping.Service
	plans    *mealplan.Service
	ai       *mockRecipeExtractor
	texts    *mockTextExtractor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	recipes := newMockRecipeService()
	shoppingSvc := shopping.NewService(&memCache{}, testLogger())
	plans := mealplan.NewService(newMemPlanStore(), recipes, shoppingSvc, &memCache{}, testLogger())
	texts := &mockTextExtractor{text: "some recipe text"}
	ai := &mockRecipeExtractor{draft: &recipe.Draft{
		Name:         "Imported Soup",
		Ingredients:  []recipe.DraftIngredient{{Name: "lentils", Amount: 2, Unit: "cups"}},
		Instructions: []string{"Simmer."},
	}}
	imp := importer.NewService(texts, ai, testLogger())

	handler := NewHandler(recipes, shoppingSvc, plans, imp)
	router := gin.New()
	handler.RegisterRoutes(router)

	return &fixture{router: router, recipes: recipes, shopping: shoppingSvc, plans: plans, ai: ai, texts: texts}
}

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// memPlanStore is an in-memory mealplan.PlanStore.
type memPlanStore struct {
	plans map[string]*mealplan.Plan
	order []string
}

func newMemPlanStore() *memPlanStore {
	return &memPlanStore{plans: make(map[string]*mealplan.Plan)}
}

func (m *memPlanStore) List(ctx context.Context) ([]mealplan.Plan, error) {
	out := []mealplan.Plan{}
	for i := len(m.order) - 1; i >= 0; i-- {
		if p, ok := m.plans[m.order[i]]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memPlanStore) Get(ctx context.Context, id string) (*mealplan.Plan, error) {
	p, ok := m.plans[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	cp.Items = append([]mealplan.Item{}, p.Items...)
	return &cp, nil
}

func (m *memPlanStore) Save(ctx context.Context, p *mealplan.Plan) error {
	if _, exists := m.plans[p.ID]; !exists {
		m.order = append(m.order, p.ID)
	}
	cp := *p
	cp.Items = append([]mealplan.Item{}, p.Items...)
	m.plans[p.ID] = &cp
	return nil
}

func (m *memPlanStore) Delete(ctx context.Context, id string) error {
	delete(m.plans, id)
	return nil
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func TestCreateRecipeAndDuplicateConflict(t *testing.T) {
	f := newFixture(t)

	payload := gin.H{"name": "Soup", "source": "Grandma", "servings": 4}
	rr := f.do(t, http.MethodPost, "/recipes", payload)
	assert.Equal(t, http.StatusCreated, rr.Code)

	rr = f.do(t, http.MethodPost, "/recipes", gin.H{"name": "SOUP", "source": "grandma"})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Len(t, f.recipes.recipes, 1, "rejected duplicate leaves the store unchanged")
}

func TestCreateRecipeValidation(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/recipes", gin.H{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetRecipeTouchesRecentlyViewed(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/recipes", gin.H{"name": "Soup"})
	require.Equal(t, http.StatusCreated, rr.Code)
	var created recipe.Recipe
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	rr = f.do(t, http.MethodGet, "/recipes/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{created.ID}, f.recipes.touched)

	rr = f.do(t, http.MethodGet, "/recipes/missing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestScaledRecipe(t *testing.T) {
	f := newFixture(t)

	payload := gin.H{
		"name":         "Soup",
		"servings":     4,
		"serving_unit": "bowls",
		"ingredients": []gin.H{
			{"kind": "heading", "name": "Base"},
			{"kind": "item", "name": "lentils", "amount": 1, "unit": "cup"},
		},
	}
	rr := f.do(t, http.MethodPost, "/recipes", payload)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created recipe.Recipe
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	rr = f.do(t, http.MethodGet, "/recipes/"+created.ID+"/scaled?multiplier=2", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Multiplier      float64 `json:"multiplier"`
		ServingsDisplay string  `json:"servings_display"`
		ServingUnit     string  `json:"serving_unit"`
		Ingredients     []struct {
			Name        string  `json:"name"`
			Amount      float64 `json:"amount"`
			DisplayUnit string  `json:"display_unit"`
		} `json:"ingredients"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 2.0, resp.Multiplier)
	assert.Equal(t, "8", resp.ServingsDisplay)
	assert.Equal(t, "bowls", resp.ServingUnit)
	require.Len(t, resp.Ingredients, 2)
	assert.Equal(t, 0.0, resp.Ingredients[0].Amount, "heading stays at zero")
	assert.Equal(t, 2.0, resp.Ingredients[1].Amount)
	assert.Equal(t, "cups", resp.Ingredients[1].DisplayUnit, "2 of a cup reads cups")
}

func TestScaledRecipeClampsInvalidMultiplier(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/recipes", gin.H{"name": "Soup", "servings": 4})
	require.Equal(t, http.StatusCreated, rr.Code)
	var created recipe.Recipe
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	for _, q := range []string{"0", "-3", "abc", ""} {
		rr = f.do(t, http.MethodGet, "/recipes/"+created.ID+"/scaled?multiplier="+q, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var resp struct {
			Multiplier float64 `json:"multiplier"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, 1.0, resp.Multiplier, "query %q clamps to identity", q)
	}
}

func TestConvertEndpoint(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/convert?amount=2&from=cups&to=tbsp", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Amount float64 `json:"amount"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 32.0, resp.Amount)

	rr = f.do(t, http.MethodGet, "/convert?amount=-1&from=cups&to=tbsp", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodGet, "/convert?amount=1&from=cups&to=pinches", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestShoppingListFlow(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/shopping-list/items", gin.H{"name": "olive oil", "amount": 1, "unit": "cups"})
	require.Equal(t, http.StatusCreated, rr.Code)
	var item shopping.Item
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &item))

	rr = f.do(t, http.MethodPatch, "/shopping-list/items/"+item.ID, gin.H{"amount": 0.0})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, f.shopping.Items(), "zero amount removes the entry")

	rr = f.do(t, http.MethodPost, "/shopping-list/items", gin.H{"name": "", "amount": 1, "unit": "cups"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAddRecipeToShoppingList(t *testing.T) {
	f := newFixture(t)

	payload := gin.H{
		"name": "Bread",
		"ingredients": []gin.H{
			{"kind": "item", "name": "flour", "amount": 3, "unit": "cups"},
		},
	}
	rr := f.do(t, http.MethodPost, "/recipes", payload)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created recipe.Recipe
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	rr = f.do(t, http.MethodPost, "/shopping-list/recipes/"+created.ID+"?multiplier=2", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	items := f.shopping.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 6.0, items[0].Amount)
	assert.Equal(t, created.ID, items[0].RecipeID)
	assert.Equal(t, "Bread", items[0].RecipeName)
}

func TestMealPlanFlowAndExport(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/recipes", gin.H{
		"name": "Bread",
		"ingredients": []gin.H{
			{"kind": "item", "name": "flour", "amount": 3, "unit": "cups"},
		},
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	var created recipe.Recipe
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	rr = f.do(t, http.MethodPost, "/meal-plans", gin.H{"name": "Week 35"})
	require.Equal(t, http.StatusCreated, rr.Code)
	var plan mealplan.Plan
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &plan))

	rr = f.do(t, http.MethodPost, "/meal-plans/"+plan.ID+"/recipes/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = f.do(t, http.MethodPost, "/meal-plans/"+plan.ID+"/recipes/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &plan))
	require.Len(t, plan.Items, 1)
	assert.Equal(t, 2.0, plan.Items[0].Multiplier)

	rr = f.do(t, http.MethodPost, "/meal-plans/"+plan.ID+"/export", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	items := f.shopping.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 6.0, items[0].Amount, "exported amounts reflect the multiplier")

	rr = f.do(t, http.MethodPost, "/meal-plans", gin.H{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestImportRecipe(t *testing.T) {
	f := newFixture(t)

	rr := doMultipart(t, f.router, "dinner.pdf")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Draft recipe.Recipe `json:"draft"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Imported Soup", resp.Draft.Name)
	require.Len(t, resp.Draft.Ingredients, 1)
	assert.Empty(t, resp.Draft.ID, "import never persists; the draft has no id")
	assert.Empty(t, f.recipes.recipes, "recipe store untouched by import")
}

func TestImportRejectsUnsupportedFileType(t *testing.T) {
	f := newFixture(t)

	rr := doMultipart(t, f.router, "dinner.docx")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Zero(t, f.ai.calls)
}

func TestImportEmptyDocument(t *testing.T) {
	f := newFixture(t)
	f.texts.text = "   "

	rr := doMultipart(t, f.router, "dinner.pdf")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Zero(t, f.ai.calls, "AI collaborator not invoked for an empty document")
}

func doMultipart(t *testing.T, router *gin.Engine, filename string) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/import", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}
