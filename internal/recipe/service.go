package recipe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RemoteStore is the authoritative recipe repository.
type RemoteStore interface {
	List(ctx context.Context) ([]Recipe, error)
	Get(ctx context.Context, id string) (*Recipe, error)
	Save(ctx context.Context, r *Recipe) error
	Delete(ctx context.Context, id string) error
}

// LocalCache is the durable local snapshot store used as read fallback and
// write-through target.
type LocalCache interface {
	Put(key string, v any) error
	Get(key string, v any) error
}

const (
	cacheKeyRecipes = "recipes"
	cacheKeyRecent  = "recentlyViewed"

	// recentLimit bounds the recently-viewed list to the 8 most recent ids.
	recentLimit = 8
)

// Service owns the recipe collection. Reads go to the remote store first and
// fall back to the last cached snapshot when it is unreachable; every write
// goes through the remote store and refreshes the snapshot.
type Service struct {
	remote RemoteStore
	cache  LocalCache
	log    *zap.SugaredLogger

	mu     sync.Mutex
	recent []string
}

// NewService builds the service and rehydrates the recently-viewed list.
func NewService(remote RemoteStore, cache LocalCache, log *zap.SugaredLogger) *Service {
	s := &Service{remote: remote, cache: cache, log: log}
	if err := cache.Get(cacheKeyRecent, &s.recent); err != nil {
		s.recent = nil
	}
	return s
}

// List returns all recipes, falling back to the cached snapshot when the
// remote store fails.
func (s *Service) List(ctx context.Context) ([]Recipe, error) {
	recipes, err := s.remote.List(ctx)
	if err != nil {
		s.log.Warnw("recipe list from remote store failed, falling back to cache", "error", err)
		var cached []Recipe
		if cacheErr := s.cache.Get(cacheKeyRecipes, &cached); cacheErr != nil {
			return nil, fmt.Errorf("remote store failed and no cached snapshot: %w", err)
		}
		return cached, nil
	}
	if err := s.cache.Put(cacheKeyRecipes, recipes); err != nil {
		s.log.Warnw("failed to refresh recipe snapshot", "error", err)
	}
	return recipes, nil
}

// Get returns one recipe by id.
func (s *Service) Get(ctx context.Context, id string) (*Recipe, error) {
	r, err := s.remote.Get(ctx, id)
	if err != nil {
		s.log.Warnw("recipe get from remote store failed, falling back to cache", "id", id, "error", err)
		var cached []Recipe
		if cacheErr := s.cache.Get(cacheKeyRecipes, &cached); cacheErr != nil {
			return nil, fmt.Errorf("remote store failed and no cached snapshot: %w", err)
		}
		for i := range cached {
			if cached[i].ID == id {
				return &cached[i], nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, nil
}

// Create validates the recipe, rejects name/source duplicates and persists it
// with a generated id and timestamps.
func (s *Service) Create(ctx context.Context, r Recipe) (*Recipe, error) {
	r.Normalize()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkDuplicate(ctx, r, ""); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	r.ID = uuid.NewString()
	r.CreatedAt = now
	r.UpdatedAt = now

	if err := s.remote.Save(ctx, &r); err != nil {
		return nil, err
	}
	s.refreshSnapshot(ctx)
	s.log.Infow("recipe created", "id", r.ID, "name", r.Name)
	return &r, nil
}

// Update replaces the stored recipe wholesale. The id and creation time are
// immutable.
func (s *Service) Update(ctx context.Context, id string, r Recipe) (*Recipe, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	r.Normalize()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkDuplicate(ctx, r, id); err != nil {
		return nil, err
	}

	r.ID = existing.ID
	r.CreatedAt = existing.CreatedAt
	r.UpdatedAt = time.Now().UTC()

	if err := s.remote.Save(ctx, &r); err != nil {
		return nil, err
	}
	s.refreshSnapshot(ctx)
	return &r, nil
}

// Delete removes a recipe. Meal plans referencing it are left alone; their
// dangling items are filtered out when read.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.remote.Delete(ctx, id); err != nil {
		return err
	}
	s.refreshSnapshot(ctx)
	s.log.Infow("recipe deleted", "id", id)
	return nil
}

// Touch records a recipe view in the recently-viewed list: most recent first,
// deduplicated, capped at the limit. The list is persisted on every touch.
func (s *Service) Touch(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]string, 0, recentLimit)
	next = append(next, id)
	for _, existing := range s.recent {
		if existing == id {
			continue
		}
		next = append(next, existing)
		if len(next) == recentLimit {
			break
		}
	}
	s.recent = next

	if err := s.cache.Put(cacheKeyRecent, s.recent); err != nil {
		s.log.Warnw("failed to persist recently-viewed list", "error", err)
	}
}

// RecentlyViewed resolves the recently-viewed ids against the store, silently
// dropping ids whose recipe was deleted since.
func (s *Service) RecentlyViewed(ctx context.Context) ([]Recipe, error) {
	s.mu.Lock()
	ids := make([]string, len(s.recent))
	copy(ids, s.recent)
	s.mu.Unlock()

	recipes, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Recipe, len(recipes))
	for _, r := range recipes {
		byID[r.ID] = r
	}

	out := []Recipe{}
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Service) checkDuplicate(ctx context.Context, r Recipe, excludeID string) error {
	existing, err := s.List(ctx)
	if err != nil {
		return err
	}
	key := DuplicateKey(r.Name, r.Source)
	for _, other := range existing {
		if other.ID != excludeID && DuplicateKey(other.Name, other.Source) == key {
			return fmt.Errorf("%w: %q / %q", ErrDuplicateRecipe, r.Name, r.Source)
		}
	}
	return nil
}

func (s *Service) refreshSnapshot(ctx context.Context) {
	recipes, err := s.remote.List(ctx)
	if err != nil {
		s.log.Warnw("failed to refresh recipe snapshot after write", "error", err)
		return
	}
	if err := s.cache.Put(cacheKeyRecipes, recipes); err != nil {
		s.log.Warnw("failed to persist recipe snapshot", "error", err)
	}
}
