package exercises

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/2beens/gymflow/internal/gymflow"
	"github.com/2beens/gymflow/internal/gymflow/storage"
	"github.com/2beens/gymflow/internal/telemetry/tracing"
)

var ErrEmptyName = errors.New("exercise name is empty")

type catalogStore interface {
	AddExercise(ctx context.Context, exercise gymflow.Exercise) (*gymflow.Exercise, error)
	GetExercise(ctx context.Context, id uuid.UUID) (*gymflow.Exercise, error)
	FindExerciseByName(ctx context.Context, name string) (*gymflow.Exercise, error)
	ListExercises(ctx context.Context) ([]*gymflow.Exercise, error)
}

// Catalog is every exercise a session can plan: the library plus custom ones.
type Catalog struct {
	store catalogStore
}

func NewCatalog(store catalogStore) *Catalog {
	return &Catalog{
		store: store,
	}
}

func (c *Catalog) List(ctx context.Context) ([]*gymflow.Exercise, error) {
	return c.store.ListExercises(ctx)
}

func (c *Catalog) Get(ctx context.Context, id uuid.UUID) (*gymflow.Exercise, error) {
	return c.store.GetExercise(ctx, id)
}

// Search returns at most limit catalog exercises matching query, skipping the excluded ids.
func (c *Catalog) Search(ctx context.Context, query string, exclude map[uuid.UUID]bool, limit int) ([]*gymflow.Exercise, error) {
	all, err := c.store.ListExercises(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	return Match(all, query, exclude, limit), nil
}

// AddCustom returns the existing exercise with the same name (any case), or
// creates a new custom one.
func (c *Catalog) AddCustom(ctx context.Context, name string) (_ *gymflow.Exercise, created bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "exercises.catalog.addcustom")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, ErrEmptyName
	}

	existing, err := c.store.FindExerciseByName(ctx, name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, storage.ErrExerciseNotFound) {
		return nil, false, fmt.Errorf("find exercise: %w", err)
	}

	exercise, err := c.store.AddExercise(ctx, gymflow.Exercise{
		Name:     name,
		IsCustom: true,
	})
	if errors.Is(err, storage.ErrExerciseExists) {
		// added concurrently
		existing, err := c.store.FindExerciseByName(ctx, name)
		return existing, false, err
	}
	if err != nil {
		return nil, false, fmt.Errorf("add exercise: %w", err)
	}
	return exercise, true, nil
}

// Match filters exercises by a trimmed, case-insensitive substring of the name.
// An empty query matches nothing. limit <= 0 means no limit.
func Match(all []*gymflow.Exercise, query string, exclude map[uuid.UUID]bool, limit int) []*gymflow.Exercise {
	query = strings.ToLower(strings.TrimSpace(query))
	matches := make([]*gymflow.Exercise, 0)
	if query == "" {
		return matches
	}
	for _, e := range all {
		if exclude[e.ID] {
			continue
		}
		if !strings.Contains(strings.ToLower(e.Name), query) {
			continue
		}
		matches = append(matches, e)
		if limit > 0 && len(matches) == limit {
			break
		}
	}
	return matches
}
