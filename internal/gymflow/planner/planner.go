package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymflow/internal/gymflow"
	"github.com/2beens/gymflow/internal/gymflow/exercises"
	"github.com/2beens/gymflow/internal/telemetry/tracing"
)

var ErrDraftNotFound = errors.New("draft not found")

type exerciseCatalog interface {
	List(ctx context.Context) ([]*gymflow.Exercise, error)
	Get(ctx context.Context, id uuid.UUID) (*gymflow.Exercise, error)
	AddCustom(ctx context.Context, name string) (*gymflow.Exercise, bool, error)
}

type sessionCreator interface {
	GetMember(ctx context.Context, id uuid.UUID) (*gymflow.Member, error)
	CreateSession(ctx context.Context, session gymflow.NewSession) (*gymflow.Session, error)
}

// Suggestions returns at most MaxSuggestions catalog exercises whose name
// contains query, skipping the planned ones. An empty query suggests nothing.
func Suggestions(catalog []*gymflow.Exercise, query string, planned map[uuid.UUID]bool) []*gymflow.Exercise {
	return exercises.Match(catalog, query, planned, MaxSuggestions)
}

// DraftUpdate changes the plan header. Nil fields are left as they are.
type DraftUpdate struct {
	MemberID *uuid.UUID
	Date     *time.Time
	Notes    *string
}

// Planner runs draft edits one at a time, so a draft never sees two
// concurrent transitions.
type Planner struct {
	mu       sync.Mutex
	drafts   *DraftStore
	catalog  exerciseCatalog
	sessions sessionCreator
}

func NewPlanner(drafts *DraftStore, catalog exerciseCatalog, sessions sessionCreator) *Planner {
	return &Planner{
		drafts:   drafts,
		catalog:  catalog,
		sessions: sessions,
	}
}

func (p *Planner) New() *Draft {
	d := NewDraft(time.Now())
	p.drafts.Put(d)
	log.Debugf("planner: new draft %s", d.ID)
	return d.clone()
}

func (p *Planner) Get(id uuid.UUID) (*Draft, error) {
	d, ok := p.drafts.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	return d, nil
}

func (p *Planner) Discard(id uuid.UUID) {
	p.drafts.Delete(id)
}

// edit applies fn to the stored draft and saves it back when fn succeeds.
func (p *Planner) edit(id uuid.UUID, fn func(d *Draft) error) (*Draft, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	d, ok := p.drafts.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	if err := fn(d); err != nil {
		return nil, err
	}
	p.drafts.Put(d)
	return d.clone(), nil
}

func (p *Planner) Update(ctx context.Context, id uuid.UUID, update DraftUpdate) (_ *Draft, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "planner.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if update.MemberID != nil {
		if _, err := p.sessions.GetMember(ctx, *update.MemberID); err != nil {
			return nil, fmt.Errorf("get member: %w", err)
		}
	}

	return p.edit(id, func(d *Draft) error {
		if update.MemberID != nil {
			if err := d.SetMember(*update.MemberID); err != nil {
				return err
			}
		}
		if update.Date != nil {
			if err := d.SetDate(*update.Date); err != nil {
				return err
			}
		}
		if update.Notes != nil {
			if err := d.SetNotes(*update.Notes); err != nil {
				return err
			}
		}
		return nil
	})
}

func (p *Planner) AddExercise(ctx context.Context, id, exerciseID uuid.UUID) (_ *Draft, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "planner.addexercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	exercise, err := p.catalog.Get(ctx, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("get exercise: %w", err)
	}
	return p.edit(id, func(d *Draft) error {
		return d.AddExercise(exercise)
	})
}

// AddCustom plans the exercise with the given name, creating a custom one
// when the catalog has no exercise of that name.
func (p *Planner) AddCustom(ctx context.Context, id uuid.UUID, name string) (_ *Draft, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "planner.addcustom")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	// fail fast, before a custom exercise gets created for a draft that cannot take it
	d, err := p.Get(id)
	if err != nil {
		return nil, err
	}
	if !d.editable() {
		return nil, fmt.Errorf("%w: edit in state %s", ErrInvalidTransition, d.State)
	}
	if len(d.Exercises) >= MaxPlanned {
		return nil, fmt.Errorf("%w: at most %d exercises", ErrPlanFull, MaxPlanned)
	}

	exercise, created, err := p.catalog.AddCustom(ctx, name)
	if err != nil {
		return nil, err
	}
	if created {
		log.Debugf("planner: custom exercise created: %s [%s]", exercise.Name, exercise.ID)
	}
	return p.edit(id, func(d *Draft) error {
		return d.AddExercise(exercise)
	})
}

func (p *Planner) RemoveExercise(id, exerciseID uuid.UUID) (*Draft, error) {
	return p.edit(id, func(d *Draft) error {
		return d.RemoveExercise(exerciseID)
	})
}

func (p *Planner) Suggestions(ctx context.Context, id uuid.UUID, query string) ([]*gymflow.Exercise, error) {
	d, err := p.Get(id)
	if err != nil {
		return nil, err
	}
	all, err := p.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	return Suggestions(all, query, d.Planned()), nil
}

// Submit stores the draft as a session. A storage failure leaves the draft
// in the failed state, from where it can be edited or submitted again.
func (p *Planner) Submit(ctx context.Context, id uuid.UUID) (_ *Draft, _ *gymflow.Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "planner.submit")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	d, err := p.edit(id, func(d *Draft) error {
		return d.BeginSubmit()
	})
	if err != nil {
		return nil, nil, err
	}

	session, createErr := p.sessions.CreateSession(ctx, d.NewSession())

	d, err = p.edit(id, func(d *Draft) error {
		if createErr != nil {
			return d.Fail(createErr)
		}
		return d.Complete(session.ID)
	})
	if err != nil {
		// draft expired while submitting
		if createErr != nil {
			return nil, nil, fmt.Errorf("create session: %w", createErr)
		}
		return nil, session, err
	}
	if createErr != nil {
		log.Errorf("planner: submit draft %s: %s", id, createErr)
		return d, nil, fmt.Errorf("create session: %w", createErr)
	}

	log.Debugf("planner: draft %s submitted as session %s", id, session.ID)
	return d, session, nil
}
