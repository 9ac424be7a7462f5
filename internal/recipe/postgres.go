package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgresStore persists recipes in a PostgreSQL table, with the nested
// ingredient and instruction arrays stored as JSONB.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore connects and bootstraps the recipes table.
func NewPostgresStore(dataSourceName string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS recipes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		prep_time TEXT,
		cook_time TEXT,
		servings DOUBLE PRECISION,
		serving_unit TEXT,
		freezable BOOLEAN,
		ingredients JSONB,
		instructions JSONB,
		image_url TEXT,
		tags JSONB,
		notes TEXT,
		created_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create recipes table: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

const recipeColumns = "id, name, source, prep_time, cook_time, servings, serving_unit, freezable, ingredients, instructions, image_url, tags, notes, created_at, updated_at"

// Get retrieves a recipe by id. Returns (nil, nil) when no row exists.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Recipe, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+recipeColumns+" FROM recipes WHERE id = $1", id)
	r, err := scanRecipe(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Recipe not found
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return r, nil
}

// List retrieves all recipes, oldest first.
func (s *PostgresStore) List(ctx context.Context) ([]Recipe, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT "+recipeColumns+" FROM recipes ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	recipes := []Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe row: %w", err)
		}
		recipes = append(recipes, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return recipes, nil
}

// Save upserts a recipe, replacing the full document on conflict.
func (s *PostgresStore) Save(ctx context.Context, r *Recipe) error {
	ingredientsJSON, err := json.Marshal(r.Ingredients)
	if err != nil {
		return fmt.Errorf("failed to marshal ingredients: %w", err)
	}
	instructionsJSON, err := json.Marshal(r.Instructions)
	if err != nil {
		return fmt.Errorf("failed to marshal instructions: %w", err)
	}
	tagsJSON, err := json.Marshal(r.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO recipes (`+recipeColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET name = $2, source = $3, prep_time = $4, cook_time = $5, servings = $6, serving_unit = $7, freezable = $8, ingredients = $9, instructions = $10, image_url = $11, tags = $12, notes = $13, created_at = $14, updated_at = $15`,
		r.ID,
		r.Name,
		r.Source,
		r.PrepTime,
		r.CookTime,
		r.Servings,
		r.ServingUnit,
		r.Freezable,
		ingredientsJSON,
		instructionsJSON,
		r.ImageURL,
		tagsJSON,
		r.Notes,
		r.CreatedAt,
		r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save recipe: %w", err)
	}
	return nil
}

// Delete removes a recipe by id. Deleting an absent id is not an error.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM recipes WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner) (*Recipe, error) {
	var r Recipe
	var ingredientsJSON, instructionsJSON, tagsJSON []byte

	err := row.Scan(
		&r.ID,
		&r.Name,
		&r.Source,
		&r.PrepTime,
		&r.CookTime,
		&r.Servings,
		&r.ServingUnit,
		&r.Freezable,
		&ingredientsJSON,
		&instructionsJSON,
		&r.ImageURL,
		&tagsJSON,
		&r.Notes,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(ingredientsJSON, &r.Ingredients); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ingredients: %w", err)
	}
	if err := json.Unmarshal(instructionsJSON, &r.Instructions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal instructions: %w", err)
	}
	if err := json.Unmarshal(tagsJSON, &r.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	return &r, nil
}
