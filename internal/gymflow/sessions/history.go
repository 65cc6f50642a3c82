package sessions

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/2beens/gymflow/internal/gymflow"
	"github.com/2beens/gymflow/internal/gymflow/storage"
	"github.com/2beens/gymflow/internal/telemetry/tracing"
)

// detailLoadLimit bounds the concurrent session detail loads of one member history.
const detailLoadLimit = 4

type historyStore interface {
	GetSession(ctx context.Context, id uuid.UUID) (*gymflow.Session, error)
	ListSessions(ctx context.Context, filter storage.SessionFilter) ([]*gymflow.Session, error)
	ListPlannedExercises(ctx context.Context, sessionID uuid.UUID) ([]*gymflow.PlannedExercise, error)
	ListSetResults(ctx context.Context, sessionID uuid.UUID) ([]*gymflow.SetResult, error)
	GetExercise(ctx context.Context, id uuid.UUID) (*gymflow.Exercise, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
}

// ExerciseResults are the sets done for one exercise of a session.
type ExerciseResults struct {
	ExerciseID   uuid.UUID            `json:"exerciseId"`
	ExerciseName string               `json:"exerciseName"`
	OrderIndex   int                  `json:"orderIndex"`
	Sets         []*gymflow.SetResult `json:"sets"`
}

type SessionDetail struct {
	Session   *gymflow.Session   `json:"session"`
	Exercises []*ExerciseResults `json:"exercises"`
}

// SetCount is the number of stored sets over all exercises.
func (d *SessionDetail) SetCount() int {
	n := 0
	for _, e := range d.Exercises {
		n += len(e.Sets)
	}
	return n
}

type History struct {
	store historyStore
}

func NewHistory(store historyStore) *History {
	return &History{
		store: store,
	}
}

func (h *History) List(ctx context.Context, filter storage.SessionFilter) (_ []*gymflow.Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sessions.history.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return h.store.ListSessions(ctx, filter)
}

// Detail loads the session with its plan and results, sets grouped by
// exercise in plan order.
func (h *History) Detail(ctx context.Context, id uuid.UUID) (_ *SessionDetail, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sessions.history.detail")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var (
		session *gymflow.Session
		planned []*gymflow.PlannedExercise
		results []*gymflow.SetResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		session, err = h.store.GetSession(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		planned, err = h.store.ListPlannedExercises(gctx, id)
		if err != nil {
			return fmt.Errorf("list planned exercises: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		results, err = h.store.ListSetResults(gctx, id)
		if err != nil {
			return fmt.Errorf("list set results: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	groups := make([]*ExerciseResults, 0, len(planned))
	byExercise := make(map[uuid.UUID]*ExerciseResults, len(planned))
	for _, p := range planned {
		group := &ExerciseResults{
			ExerciseID:   p.ExerciseID,
			ExerciseName: p.ExerciseName,
			OrderIndex:   p.OrderIndex,
			Sets:         make([]*gymflow.SetResult, 0),
		}
		groups = append(groups, group)
		byExercise[p.ExerciseID] = group
	}

	for _, r := range results {
		group, ok := byExercise[r.ExerciseID]
		if !ok {
			// results of an exercise dropped from the plan go last
			group = &ExerciseResults{
				ExerciseID: r.ExerciseID,
				OrderIndex: len(groups) + 1,
				Sets:       make([]*gymflow.SetResult, 0),
			}
			if exercise, err := h.store.GetExercise(ctx, r.ExerciseID); err == nil {
				group.ExerciseName = exercise.Name
			}
			groups = append(groups, group)
			byExercise[r.ExerciseID] = group
		}
		group.Sets = append(group.Sets, r)
	}

	return &SessionDetail{
		Session:   session,
		Exercises: groups,
	}, nil
}

// MemberHistory loads the details of every session of the member in the
// filter's date range, newest first.
func (h *History) MemberHistory(ctx context.Context, filter storage.SessionFilter) (_ []*SessionDetail, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sessions.history.member")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	list, err := h.store.ListSessions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	details := make([]*SessionDetail, len(list))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailLoadLimit)
	for i, s := range list {
		g.Go(func() error {
			detail, err := h.Detail(gctx, s.ID)
			if err != nil {
				return fmt.Errorf("session %s: %w", s.ID, err)
			}
			details[i] = detail
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return details, nil
}

func (h *History) Delete(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sessions.history.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return h.store.DeleteSession(ctx, id)
}
