// Package planner builds a session plan step by step and submits it as a session.
package planner

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/2beens/gymflow/internal/gymflow"
)

const (
	MinPlanned     = 5
	MaxPlanned     = 8
	MaxSuggestions = 8
)

var (
	ErrInvalidTransition = errors.New("invalid draft transition")
	ErrPlanFull          = errors.New("plan is full")
	ErrAlreadyPlanned    = errors.New("exercise already planned")
	ErrNotPlanned        = errors.New("exercise not planned")
	ErrNoMember          = errors.New("no member selected")
	ErrTooFewExercises   = errors.New("too few exercises planned")
)

type State string

const (
	StateIdle       State = "idle"
	StateDrafting   State = "drafting"
	StateSubmitting State = "submitting"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Draft is a session plan in the making.
//
//	idle -> drafting -> submitting -> done | failed
//	failed -> drafting (edit), failed -> submitting (retry)
type Draft struct {
	ID        uuid.UUID           `json:"id"`
	State     State               `json:"state"`
	MemberID  *uuid.UUID          `json:"memberId"`
	Date      time.Time           `json:"date"`
	Notes     *string             `json:"notes"`
	Exercises []*gymflow.Exercise `json:"exercises"`
	SessionID *uuid.UUID          `json:"sessionId,omitempty"`
	LastError string              `json:"lastError,omitempty"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

func NewDraft(now time.Time) *Draft {
	return &Draft{
		ID:        uuid.New(),
		State:     StateIdle,
		Date:      gymflow.DateOnly(now),
		Exercises: make([]*gymflow.Exercise, 0, MaxPlanned),
		UpdatedAt: now,
	}
}

func (d *Draft) editable() bool {
	return d.State == StateIdle || d.State == StateDrafting || d.State == StateFailed
}

func (d *Draft) beginEdit() error {
	if !d.editable() {
		return fmt.Errorf("%w: edit in state %s", ErrInvalidTransition, d.State)
	}
	d.State = StateDrafting
	d.LastError = ""
	d.UpdatedAt = time.Now()
	return nil
}

func (d *Draft) SetMember(id uuid.UUID) error {
	if err := d.beginEdit(); err != nil {
		return err
	}
	d.MemberID = &id
	return nil
}

func (d *Draft) SetDate(date time.Time) error {
	if err := d.beginEdit(); err != nil {
		return err
	}
	d.Date = gymflow.DateOnly(date)
	return nil
}

// SetNotes stores trimmed notes, blank notes clear them.
func (d *Draft) SetNotes(notes string) error {
	if err := d.beginEdit(); err != nil {
		return err
	}
	d.Notes = gymflow.TrimmedOrNil(notes)
	return nil
}

func (d *Draft) IsPlanned(id uuid.UUID) bool {
	return slices.ContainsFunc(d.Exercises, func(e *gymflow.Exercise) bool {
		return e.ID == id
	})
}

// Planned is the set of planned exercise ids.
func (d *Draft) Planned() map[uuid.UUID]bool {
	planned := make(map[uuid.UUID]bool, len(d.Exercises))
	for _, e := range d.Exercises {
		planned[e.ID] = true
	}
	return planned
}

func (d *Draft) AddExercise(exercise *gymflow.Exercise) error {
	if !d.editable() {
		return fmt.Errorf("%w: edit in state %s", ErrInvalidTransition, d.State)
	}
	if d.IsPlanned(exercise.ID) {
		return fmt.Errorf("%w: %s", ErrAlreadyPlanned, exercise.Name)
	}
	if len(d.Exercises) >= MaxPlanned {
		return fmt.Errorf("%w: at most %d exercises", ErrPlanFull, MaxPlanned)
	}
	if err := d.beginEdit(); err != nil {
		return err
	}
	d.Exercises = append(d.Exercises, exercise)
	return nil
}

func (d *Draft) RemoveExercise(id uuid.UUID) error {
	if !d.editable() {
		return fmt.Errorf("%w: edit in state %s", ErrInvalidTransition, d.State)
	}
	i := slices.IndexFunc(d.Exercises, func(e *gymflow.Exercise) bool {
		return e.ID == id
	})
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotPlanned, id)
	}
	if err := d.beginEdit(); err != nil {
		return err
	}
	d.Exercises = slices.Delete(d.Exercises, i, i+1)
	return nil
}

// CanSubmit reports whether the draft has a member and an allowed number of exercises.
func (d *Draft) CanSubmit() error {
	if d.MemberID == nil {
		return ErrNoMember
	}
	if n := len(d.Exercises); n < MinPlanned || n > MaxPlanned {
		return fmt.Errorf("%w: %d planned, %d to %d required", ErrTooFewExercises, n, MinPlanned, MaxPlanned)
	}
	return nil
}

func (d *Draft) BeginSubmit() error {
	if d.State != StateDrafting && d.State != StateFailed {
		return fmt.Errorf("%w: submit in state %s", ErrInvalidTransition, d.State)
	}
	if err := d.CanSubmit(); err != nil {
		return err
	}
	d.State = StateSubmitting
	d.LastError = ""
	d.UpdatedAt = time.Now()
	return nil
}

func (d *Draft) Complete(sessionID uuid.UUID) error {
	if d.State != StateSubmitting {
		return fmt.Errorf("%w: complete in state %s", ErrInvalidTransition, d.State)
	}
	d.State = StateDone
	d.SessionID = &sessionID
	d.UpdatedAt = time.Now()
	return nil
}

func (d *Draft) Fail(cause error) error {
	if d.State != StateSubmitting {
		return fmt.Errorf("%w: fail in state %s", ErrInvalidTransition, d.State)
	}
	d.State = StateFailed
	if cause != nil {
		d.LastError = cause.Error()
	}
	d.UpdatedAt = time.Now()
	return nil
}

// NewSession is the storage request for a submitted draft, plan order kept.
func (d *Draft) NewSession() gymflow.NewSession {
	ids := make([]uuid.UUID, 0, len(d.Exercises))
	for _, e := range d.Exercises {
		ids = append(ids, e.ID)
	}
	ns := gymflow.NewSession{
		Date:        d.Date,
		Notes:       d.Notes,
		ExerciseIDs: ids,
	}
	if d.MemberID != nil {
		ns.MemberID = *d.MemberID
	}
	return ns
}

func (d *Draft) clone() *Draft {
	c := *d
	c.Exercises = slices.Clone(d.Exercises)
	return &c
}
