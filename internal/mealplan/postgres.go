package mealplan

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgresStore persists meal plans with the item array stored as JSONB.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore connects and bootstraps the meal_plans table.
func NewPostgresStore(dataSourceName string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS meal_plans (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ,
		items JSONB
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create meal_plans table: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// List retrieves all plans, newest first.
func (s *PostgresStore) List(ctx context.Context) ([]Plan, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT id, name, created_at, items FROM meal_plans ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list meal plans: %w", err)
	}
	defer rows.Close()

	plans := []Plan{}
	for rows.Next() {
		var p Plan
		var itemsJSON []byte
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &itemsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan meal plan row: %w", err)
		}
		if err := json.Unmarshal(itemsJSON, &p.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal plan items: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return plans, nil
}

// Get retrieves a plan by id. Returns (nil, nil) when no row exists.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Plan, error) {
	var p Plan
	var itemsJSON []byte
	err := s.db.QueryRowContext(ctx, "SELECT id, name, created_at, items FROM meal_plans WHERE id = $1", id).
		Scan(&p.ID, &p.Name, &p.CreatedAt, &itemsJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Plan not found
		}
		return nil, fmt.Errorf("failed to get meal plan: %w", err)
	}
	if err := json.Unmarshal(itemsJSON, &p.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan items: %w", err)
	}
	return &p, nil
}

// Save upserts a plan, replacing the full item array on conflict.
func (s *PostgresStore) Save(ctx context.Context, p *Plan) error {
	itemsJSON, err := json.Marshal(p.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal plan items: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO meal_plans (id, name, created_at, items) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO UPDATE SET name = $2, created_at = $3, items = $4",
		p.ID,
		p.Name,
		p.CreatedAt,
		itemsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save meal plan: %w", err)
	}
	return nil
}

// Delete removes a plan by id.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM meal_plans WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete meal plan: %w", err)
	}
	return nil
}
