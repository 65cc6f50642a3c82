// Package storage persists members, exercises, sessions with their plans and
// set results. Backends are injected as a Store; there is no global handle.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2beens/gymflow/internal/gymflow"
)

var (
	ErrMemberNotFound           = errors.New("member not found")
	ErrExerciseNotFound         = errors.New("exercise not found")
	ErrSessionNotFound          = errors.New("session not found")
	ErrExerciseExists           = errors.New("exercise already exists")
	ErrDuplicatePlannedExercise = errors.New("exercise planned more than once")
	ErrSetNumberTaken           = errors.New("set number already taken")
	ErrInvalidSetResult         = errors.New("invalid set result")
	ErrInvalidMember            = errors.New("invalid member")
	ErrInvalidExercise          = errors.New("invalid exercise")
)

// SessionFilter narrows ListSessions. Zero value lists every session.
type SessionFilter struct {
	MemberID *uuid.UUID
	From     *time.Time
	To       *time.Time
}

func (f SessionFilter) match(s *gymflow.Session) bool {
	if f.MemberID != nil && s.MemberID != *f.MemberID {
		return false
	}
	if f.From != nil && s.Date.Before(gymflow.DateOnly(*f.From)) {
		return false
	}
	if f.To != nil && s.Date.After(gymflow.DateOnly(*f.To)) {
		return false
	}
	return true
}

// MaxWeight is the exclusive upper bound of a stored weight.
const MaxWeight = gymflow.MaxWeight

type Store interface {
	AddMember(ctx context.Context, member gymflow.Member) (*gymflow.Member, error)
	GetMember(ctx context.Context, id uuid.UUID) (*gymflow.Member, error)
	ListMembers(ctx context.Context) ([]*gymflow.Member, error)
	DeleteMember(ctx context.Context, id uuid.UUID) error

	AddExercise(ctx context.Context, exercise gymflow.Exercise) (*gymflow.Exercise, error)
	GetExercise(ctx context.Context, id uuid.UUID) (*gymflow.Exercise, error)
	FindExerciseByName(ctx context.Context, name string) (*gymflow.Exercise, error)
	ListExercises(ctx context.Context) ([]*gymflow.Exercise, error)

	// CreateSession stores the session and its planned exercises atomically.
	CreateSession(ctx context.Context, session gymflow.NewSession) (*gymflow.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*gymflow.Session, error)
	// ListSessions returns sessions newest date first, with the member name set.
	ListSessions(ctx context.Context, filter SessionFilter) ([]*gymflow.Session, error)
	// ListPlannedExercises returns the plan ordered by order_index.
	ListPlannedExercises(ctx context.Context, sessionID uuid.UUID) ([]*gymflow.PlannedExercise, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error

	// MaxSetNumber is the highest set number of the exercise in the session, 0 if none.
	MaxSetNumber(ctx context.Context, sessionID, exerciseID uuid.UUID) (int, error)
	AddSetResult(ctx context.Context, result gymflow.SetResult) (*gymflow.SetResult, error)
	// ListSetResults returns the session results ordered by exercise id and set number.
	ListSetResults(ctx context.Context, sessionID uuid.UUID) ([]*gymflow.SetResult, error)

	Close() error
}

func prepareMember(m *gymflow.Member) error {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidMember)
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return nil
}

func prepareExercise(e *gymflow.Exercise) error {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidExercise)
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return nil
}

func prepareSetResult(r *gymflow.SetResult) error {
	switch {
	case r.SetNumber <= 0:
		return fmt.Errorf("%w: set number %d", ErrInvalidSetResult, r.SetNumber)
	case r.Reps <= 0:
		return fmt.Errorf("%w: reps %d", ErrInvalidSetResult, r.Reps)
	case !r.Unit.IsValid():
		return fmt.Errorf("%w: unit %q", ErrInvalidSetResult, r.Unit)
	case r.Weight != nil && !gymflow.ValidWeight(*r.Weight):
		return fmt.Errorf("%w: weight %v", ErrInvalidSetResult, *r.Weight)
	}
	if r.Weight != nil {
		w := gymflow.RoundWeight(*r.Weight)
		r.Weight = &w
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Source == "" {
		r.Source = gymflow.SourceManual
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return nil
}

func checkPlanUnique(ids []uuid.UUID) error {
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return fmt.Errorf("%w: %s", ErrDuplicatePlannedExercise, id)
		}
		seen[id] = true
	}
	return nil
}
