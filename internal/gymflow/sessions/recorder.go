// Package sessions records set results into planned sessions and reads the
// workout history back.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymflow/internal/gymflow"
	"github.com/2beens/gymflow/internal/gymflow/capture"
	"github.com/2beens/gymflow/internal/gymflow/storage"
	"github.com/2beens/gymflow/internal/telemetry/metrics"
	"github.com/2beens/gymflow/internal/telemetry/tracing"
)

const maxRecordAttempts = 3

var (
	ErrCaptureInFlight    = errors.New("capture already in flight")
	ErrExerciseNotPlanned = errors.New("exercise not planned in session")
)

// Key identifies the exercise of a session that sets are recorded for.
type Key struct {
	SessionID  uuid.UUID
	ExerciseID uuid.UUID
}

func (k Key) String() string {
	return k.SessionID.String() + "/" + k.ExerciseID.String()
}

type recorderStore interface {
	GetSession(ctx context.Context, id uuid.UUID) (*gymflow.Session, error)
	ListPlannedExercises(ctx context.Context, sessionID uuid.UUID) ([]*gymflow.PlannedExercise, error)
	MaxSetNumber(ctx context.Context, sessionID, exerciseID uuid.UUID) (int, error)
	AddSetResult(ctx context.Context, result gymflow.SetResult) (*gymflow.SetResult, error)
}

// CaptureResponse reports one capture: how it went and, unless it was
// aborted, the stored set.
type CaptureResponse struct {
	Source     gymflow.Source     `json:"source,omitempty"`
	Transcript string             `json:"transcript,omitempty"`
	Fallback   string             `json:"fallback,omitempty"`
	Aborted    bool               `json:"aborted"`
	SetResult  *gymflow.SetResult `json:"setResult,omitempty"`
}

type Recorder struct {
	store   recorderStore
	flow    *capture.Flow
	metrics *metrics.Manager

	mu       sync.Mutex
	inFlight map[Key]struct{}
}

func NewRecorder(store recorderStore, flow *capture.Flow, metricsManager *metrics.Manager) *Recorder {
	return &Recorder{
		store:    store,
		flow:     flow,
		metrics:  metricsManager,
		inFlight: make(map[Key]struct{}),
	}
}

func (r *Recorder) SpeechAvailable() bool {
	return r.flow.SpeechAvailable()
}

func (r *Recorder) acquire(key Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inFlight[key]; busy {
		return false
	}
	r.inFlight[key] = struct{}{}
	return true
}

func (r *Recorder) release(key Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, key)
}

func (r *Recorder) checkPlanned(ctx context.Context, key Key) error {
	if _, err := r.store.GetSession(ctx, key.SessionID); err != nil {
		return err
	}
	planned, err := r.store.ListPlannedExercises(ctx, key.SessionID)
	if err != nil {
		return fmt.Errorf("list planned exercises: %w", err)
	}
	for _, p := range planned {
		if p.ExerciseID == key.ExerciseID {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrExerciseNotPlanned, key)
}

// Capture runs one capture for the key and stores its result. Only one
// capture per key runs at a time; a concurrent one gets ErrCaptureInFlight.
// An aborted capture stores nothing and is not an error.
func (r *Recorder) Capture(ctx context.Context, key Key, act capture.Activation, manual capture.ManualEntry) (_ *CaptureResponse, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sessions.recorder.capture")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if !r.acquire(key) {
		return nil, fmt.Errorf("%w: %s", ErrCaptureInFlight, key)
	}
	defer r.release(key)

	if err := r.checkPlanned(ctx, key); err != nil {
		return nil, err
	}

	outcome := r.flow.Run(ctx, act, manual)
	resp := &CaptureResponse{
		Source:     outcome.Source,
		Transcript: outcome.Transcript,
		Fallback:   outcome.FallbackReason(),
		Aborted:    outcome.Aborted,
	}
	if outcome.Aborted {
		r.countCapture("aborted", resp.Fallback)
		return resp, nil
	}

	result, err := r.record(ctx, key, *outcome.Result, outcome.Source)
	if err != nil {
		r.countCapture("failed", resp.Fallback)
		return nil, err
	}
	r.countCapture("recorded", resp.Fallback)
	resp.SetResult = result
	return resp, nil
}

// Record appends one result under the next set number of the key.
func (r *Recorder) Record(ctx context.Context, key Key, result capture.CapturedResult, source gymflow.Source) (_ *gymflow.SetResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sessions.recorder.record")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.record(ctx, key, result, source)
}

// RecordScheme appends one set per scheme set, numbered consecutively.
func (r *Recorder) RecordScheme(ctx context.Context, key Key, scheme capture.SetScheme) (_ []*gymflow.SetResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sessions.recorder.scheme")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if !r.acquire(key) {
		return nil, fmt.Errorf("%w: %s", ErrCaptureInFlight, key)
	}
	defer r.release(key)

	if err := r.checkPlanned(ctx, key); err != nil {
		return nil, err
	}

	stored := make([]*gymflow.SetResult, 0, scheme.Sets)
	for _, result := range scheme.Results() {
		setResult, err := r.record(ctx, key, result, gymflow.SourceScheme)
		if err != nil {
			return stored, err
		}
		stored = append(stored, setResult)
	}
	return stored, nil
}

// record retries when another writer took the set number in between.
func (r *Recorder) record(ctx context.Context, key Key, result capture.CapturedResult, source gymflow.Source) (*gymflow.SetResult, error) {
	for attempt := 1; ; attempt++ {
		maxSet, err := r.store.MaxSetNumber(ctx, key.SessionID, key.ExerciseID)
		if err != nil {
			return nil, fmt.Errorf("max set number: %w", err)
		}

		stored, err := r.store.AddSetResult(ctx, gymflow.SetResult{
			SessionID:  key.SessionID,
			ExerciseID: key.ExerciseID,
			SetNumber:  maxSet + 1,
			Reps:       result.Reps,
			Weight:     result.Weight,
			Unit:       result.Unit,
			Source:     source,
		})
		if errors.Is(err, storage.ErrSetNumberTaken) && attempt < maxRecordAttempts {
			log.Debugf("recorder: set %d of %s taken, retrying", maxSet+1, key)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("add set result: %w", err)
		}

		if r.metrics != nil {
			r.metrics.CounterSetResults.WithLabelValues(string(source)).Inc()
		}
		log.Debugf("recorder: %s set %d stored: %d reps [%s]", key, stored.SetNumber, stored.Reps, source)
		return stored, nil
	}
}

func (r *Recorder) countCapture(outcome, fallback string) {
	if r.metrics == nil {
		return
	}
	if fallback == "" {
		fallback = "none"
	}
	r.metrics.CounterCaptures.WithLabelValues(outcome, fallback).Inc()
}
