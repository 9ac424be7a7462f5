// Package importer sequences the recipe import flow: document text
// extraction, AI structured extraction and draft validation. The pipeline
// only produces a prefilled draft for the creation form; it never writes to
// the recipe store.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"kitchenbook/internal/recipe"
)

var (
	// ErrUnsupportedFile is returned when the selected file is not a
	// recognized document format.
	ErrUnsupportedFile = errors.New("unsupported file type, only PDF documents are accepted")

	// ErrEmptyDocument is returned when no text could be extracted.
	ErrEmptyDocument = errors.New("document contains no extractable text")

	// ErrMissingFields is returned when the AI output lacks a name, any
	// ingredient or any instruction. The output is considered unusable and
	// is not retried.
	ErrMissingFields = errors.New("extracted recipe is missing essential fields")

	errNoFileSelected = errors.New("no file selected")
)

// State names the pipeline's position in the import flow.
type State string

const (
	StateIdle           State = "idle"
	StateFileSelected   State = "file_selected"
	StateExtractingText State = "extracting_text"
	StateAwaitingAI     State = "awaiting_ai_result"
	StateParsed         State = "parsed"
	StateFailed         State = "failed"
)

// TextExtractor is the document text-extraction collaborator.
type TextExtractor interface {
	Extract(r io.ReaderAt, size int64) (string, error)
}

// RecipeExtractor is the AI structured-extraction collaborator.
type RecipeExtractor interface {
	ExtractRecipe(ctx context.Context, text string) (*recipe.Draft, error)
}

// Pipeline runs one import from file selection to a parsed draft. It is
// single-use: build a fresh pipeline per import.
type Pipeline struct {
	texts   TextExtractor
	recipes RecipeExtractor
	log     *zap.SugaredLogger
	state   State
}

// NewPipeline builds an idle pipeline over the two collaborators.
func NewPipeline(texts TextExtractor, recipes RecipeExtractor, log *zap.SugaredLogger) *Pipeline {
	return &Pipeline{texts: texts, recipes: recipes, log: log, state: StateIdle}
}

// State reports the pipeline's current state.
func (p *Pipeline) State() State {
	return p.state
}

// SelectFile checks the chosen file's type. An unsupported extension keeps
// the pipeline idle so the user can pick another file.
func (p *Pipeline) SelectFile(filename string) error {
	if strings.ToLower(filepath.Ext(filename)) != ".pdf" {
		return fmt.Errorf("%w: %q", ErrUnsupportedFile, filename)
	}
	p.state = StateFileSelected
	return nil
}

// Run executes the import against a selected file and returns the parsed
// draft. Any failure is terminal for this pipeline; retries are a fresh
// user-initiated import.
func (p *Pipeline) Run(ctx context.Context, r io.ReaderAt, size int64) (*recipe.Draft, error) {
	if p.state != StateFileSelected {
		return nil, errNoFileSelected
	}

	p.state = StateExtractingText
	text, err := p.texts.Extract(r, size)
	if err != nil {
		p.state = StateFailed
		return nil, fmt.Errorf("text extraction failed: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		// Terminal: the AI collaborator is never invoked for empty text.
		p.state = StateFailed
		return nil, ErrEmptyDocument
	}

	p.state = StateAwaitingAI
	draft, err := p.recipes.ExtractRecipe(ctx, text)
	if err != nil {
		p.state = StateFailed
		return nil, fmt.Errorf("recipe extraction failed: %w", err)
	}

	if err := validateDraft(draft); err != nil {
		p.state = StateFailed
		return nil, err
	}

	p.state = StateParsed
	p.log.Infow("recipe draft parsed", "name", draft.Name, "ingredients", len(draft.Ingredients), "instructions", len(draft.Instructions))
	return draft, nil
}

func validateDraft(d *recipe.Draft) error {
	var missing []string
	if strings.TrimSpace(d.Name) == "" {
		missing = append(missing, "name")
	}
	if len(d.Ingredients) == 0 {
		missing = append(missing, "ingredients")
	}
	if len(d.Instructions) == 0 {
		missing = append(missing, "instructions")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}
	return nil
}

// Service builds a fresh pipeline per import request.
type Service struct {
	texts   TextExtractor
	recipes RecipeExtractor
	log     *zap.SugaredLogger
}

// NewService wires the import service to its collaborators.
func NewService(texts TextExtractor, recipes RecipeExtractor, log *zap.SugaredLogger) *Service {
	return &Service{texts: texts, recipes: recipes, log: log}
}

// Import runs a full single-file import and returns the parsed draft.
func (s *Service) Import(ctx context.Context, filename string, r io.ReaderAt, size int64) (*recipe.Draft, error) {
	p := NewPipeline(s.texts, s.recipes, s.log)
	if err := p.SelectFile(filename); err != nil {
		return nil, err
	}
	return p.Run(ctx, r, size)
}
