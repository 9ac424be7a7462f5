// Package gemini adapts the Gemini API into the structured recipe extractor
// the import pipeline depends on.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"kitchenbook/internal/recipe"
)

// Client is a client for the Gemini API.
type Client struct {
	model *genai.GenerativeModel
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &Client{model: client.GenerativeModel("gemini-1.5-flash")}, nil
}

const extractionPrompt = "Extract the recipe from the following text. Return a single, clean JSON object with these keys and data types: 'name' (string), 'source' (string), 'prep_time' (string), 'cook_time' (string), 'servings' (number), 'serving_unit' (string), 'freezable' (boolean), 'ingredients' (array of objects with 'name' (string), 'amount' (number), 'unit' (string)), 'instructions' (array of strings), and 'tags' (array of strings). The JSON response should be clean and not contain any markdown formatting (e.g., ```json). Recipe text follows:\n\n"

// ExtractRecipe turns raw recipe text into a structured draft. It fails when
// the model's response cannot be shaped into the recipe schema; the caller
// decides whether the draft is usable.
func (c *Client) ExtractRecipe(ctx context.Context, text string) (*recipe.Draft, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(extractionPrompt+text))
	if err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	jsonString, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, fmt.Errorf("unexpected response format from Gemini")
	}

	// Extract the JSON from the response, which might be wrapped in markdown
	startIndex := strings.Index(string(jsonString), "{")
	endIndex := strings.LastIndex(string(jsonString), "}")

	if startIndex == -1 || endIndex == -1 || startIndex > endIndex {
		return nil, fmt.Errorf("could not find JSON object in response: %s", jsonString)
	}

	cleanJSON := string(jsonString)[startIndex : endIndex+1]

	var d recipe.Draft
	if err := json.Unmarshal([]byte(cleanJSON), &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe JSON: %w. Raw response: %s", err, cleanJSON)
	}

	return &d, nil
}
