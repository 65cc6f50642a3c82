// Package gymflow holds the records shared by the capture flow, the planner
// and the storage backends.
package gymflow

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Unit string

const (
	UnitLb Unit = "lb"
	UnitKg Unit = "kg"
)

// ParseUnit maps free text to a unit: "kg" (any case, surrounding spaces ignored)
// is kilograms, everything else falls back to pounds.
func ParseUnit(s string) Unit {
	if strings.EqualFold(strings.TrimSpace(s), string(UnitKg)) {
		return UnitKg
	}
	return UnitLb
}

func (u Unit) IsValid() bool {
	return u == UnitLb || u == UnitKg
}

// MaxWeight is the exclusive upper bound of a weight, NUMERIC(7,2) in postgres.
const MaxWeight = 100000

// RoundWeight keeps the two decimals every backend stores.
func RoundWeight(w float64) float64 {
	return math.Round(w*100) / 100
}

// ValidWeight reports whether w survives storage as a positive weight.
func ValidWeight(w float64) bool {
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return false
	}
	rounded := RoundWeight(w)
	return rounded > 0 && rounded < MaxWeight
}

// Source tells how a set result was captured.
type Source string

const (
	SourceVoice  Source = "voice"
	SourceManual Source = "manual"
	SourceScheme Source = "scheme"
	SourceScan   Source = "scan"
)

type Member struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Exercise struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	MuscleGroup string    `json:"muscleGroup,omitempty"`
	IsCustom    bool      `json:"isCustom"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Session struct {
	ID         uuid.UUID `json:"id"`
	MemberID   uuid.UUID `json:"memberId"`
	MemberName string    `json:"memberName"`
	Date       time.Time `json:"date"`
	Notes      *string   `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewSession is everything needed to create a session together with its plan.
// ExerciseIDs are stored in the given order, with order_index starting at 1.
type NewSession struct {
	MemberID    uuid.UUID
	Date        time.Time
	Notes       *string
	ExerciseIDs []uuid.UUID
}

type PlannedExercise struct {
	ID           uuid.UUID `json:"id"`
	SessionID    uuid.UUID `json:"sessionId"`
	ExerciseID   uuid.UUID `json:"exerciseId"`
	ExerciseName string    `json:"exerciseName"`
	OrderIndex   int       `json:"orderIndex"`
}

type SetResult struct {
	ID         uuid.UUID `json:"id"`
	SessionID  uuid.UUID `json:"sessionId"`
	ExerciseID uuid.UUID `json:"exerciseId"`
	SetNumber  int       `json:"setNumber"`
	Reps       int       `json:"reps"`
	Weight     *float64  `json:"weight"`
	Unit       Unit      `json:"unit"`
	Source     Source    `json:"source"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TrimmedOrNil returns nil for blank text, otherwise a pointer to the trimmed text.
func TrimmedOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
