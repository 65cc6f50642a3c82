package exercises

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/2beens/gymflow/internal/gymflow"
	"github.com/2beens/gymflow/internal/gymflow/storage"
)

//go:embed library.yaml
var libraryYAML []byte

type MuscleGroup struct {
	Group     string   `yaml:"group"`
	Exercises []string `yaml:"exercises"`
}

// Library returns the built-in exercises grouped by muscle group.
func Library() ([]MuscleGroup, error) {
	return ParseLibrary(libraryYAML)
}

func ParseLibrary(data []byte) ([]MuscleGroup, error) {
	var groups []MuscleGroup
	if err := yaml.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("unmarshal library: %w", err)
	}
	seen := map[string]bool{}
	for _, g := range groups {
		if strings.TrimSpace(g.Group) == "" {
			return nil, errors.New("library: muscle group without a name")
		}
		for _, name := range g.Exercises {
			key := strings.ToLower(strings.TrimSpace(name))
			if key == "" {
				return nil, fmt.Errorf("library: empty exercise name in group %s", g.Group)
			}
			if seen[key] {
				return nil, fmt.Errorf("library: duplicate exercise %s", name)
			}
			seen[key] = true
		}
	}
	return groups, nil
}

type seedStore interface {
	AddExercise(ctx context.Context, exercise gymflow.Exercise) (*gymflow.Exercise, error)
}

// Seed adds every library exercise missing from the store. Safe to run on
// every start; returns the number of exercises added.
func Seed(ctx context.Context, store seedStore, groups []MuscleGroup) (int, error) {
	added := 0
	for _, g := range groups {
		for _, name := range g.Exercises {
			_, err := store.AddExercise(ctx, gymflow.Exercise{
				Name:        name,
				MuscleGroup: g.Group,
				IsCustom:    false,
			})
			if errors.Is(err, storage.ErrExerciseExists) {
				continue
			}
			if err != nil {
				return added, fmt.Errorf("seed exercise %s: %w", name, err)
			}
			added++
		}
	}
	log.Debugf("exercise library seeded, %d new exercises", added)
	return added, nil
}
