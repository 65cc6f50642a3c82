package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2beens/gymflow/internal/gymflow"
	"github.com/2beens/gymflow/internal/gymflow/storage"
)

const dateLayout = "2006-01-02"

var errAmbiguous = errors.New("ambiguous name")

type memberLookup interface {
	GetMember(ctx context.Context, id uuid.UUID) (*gymflow.Member, error)
	ListMembers(ctx context.Context) ([]*gymflow.Member, error)
}

// resolveMember accepts a member id or a (case insensitive) member name.
func resolveMember(ctx context.Context, store memberLookup, ref string) (*gymflow.Member, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.New("member is required")
	}
	if id, err := uuid.Parse(ref); err == nil {
		return store.GetMember(ctx, id)
	}

	members, err := store.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	var found *gymflow.Member
	for _, m := range members {
		if !strings.EqualFold(m.Name, ref) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: more than one member named %q, use the member id", errAmbiguous, ref)
		}
		found = m
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrMemberNotFound, ref)
	}
	return found, nil
}

// resolvePlanned picks the planned exercise of a session by exercise id or name.
func resolvePlanned(planned []*gymflow.PlannedExercise, ref string) (*gymflow.PlannedExercise, error) {
	ref = strings.TrimSpace(ref)
	id, idErr := uuid.Parse(ref)
	for _, pe := range planned {
		if idErr == nil && pe.ExerciseID == id {
			return pe, nil
		}
		if idErr != nil && strings.EqualFold(pe.ExerciseName, ref) {
			return pe, nil
		}
	}
	names := make([]string, 0, len(planned))
	for _, pe := range planned {
		names = append(names, pe.ExerciseName)
	}
	return nil, fmt.Errorf("exercise %q is not planned in this session (planned: %s)", ref, strings.Join(names, ", "))
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD", s)
	}
	return d, nil
}

func formatWeight(r *gymflow.SetResult) string {
	if r.Weight == nil {
		return "bodyweight"
	}
	return fmt.Sprintf("%g %s", *r.Weight, r.Unit)
}
