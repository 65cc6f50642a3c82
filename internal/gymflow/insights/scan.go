package insights

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/2beens/gymflow/internal/gymflow"
	"github.com/2beens/gymflow/internal/gymflow/capture"
)

var (
	ErrScanUnparsable = errors.New("could not parse workout data from image")
	ErrScanEmpty      = errors.New("no workout data found in image")
)

var jsonArrayRegex = regexp.MustCompile(`\[[\s\S]*\]`)

var scanDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ScannedSession is one workout read from a paper log.
type ScannedSession struct {
	Date      time.Time
	Exercises []ScannedExercise
}

type ScannedExercise struct {
	Name string
	Sets []capture.CapturedResult
}

type rawScannedSession struct {
	Date      string               `json:"date"`
	Exercises []rawScannedExercise `json:"exercises"`
}

type rawScannedExercise struct {
	ExerciseName string          `json:"exerciseName"`
	Sets         []rawScannedSet `json:"sets"`
}

type rawScannedSet struct {
	Reps   capture.FieldValue `json:"reps"`
	Weight capture.FieldValue `json:"weight"`
}

// ParseScannedLog reads the model's answer to the scan prompt. The first JSON
// array in text is used, or the whole text when there is none. Sets are
// validated like manual entries in pounds; invalid sets, and exercises or
// sessions left without sets, are dropped. Missing or unreadable dates become now.
func ParseScannedLog(text string, now time.Time) ([]ScannedSession, error) {
	payload := text
	if match := jsonArrayRegex.FindString(text); match != "" {
		payload = match
	}

	var raw []rawScannedSession
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanUnparsable, err)
	}

	scanned := make([]ScannedSession, 0, len(raw))
	for _, rs := range raw {
		session := ScannedSession{
			Date: scanDate(rs.Date, now),
		}
		for _, re := range rs.Exercises {
			name := strings.TrimSpace(re.ExerciseName)
			if name == "" {
				continue
			}
			exercise := ScannedExercise{Name: name}
			for _, set := range re.Sets {
				result, err := capture.ManualInput{
					Reps:   string(set.Reps),
					Weight: string(set.Weight),
					Unit:   string(gymflow.UnitLb),
				}.Validate()
				if err != nil {
					continue
				}
				exercise.Sets = append(exercise.Sets, result)
			}
			if len(exercise.Sets) > 0 {
				session.Exercises = append(session.Exercises, exercise)
			}
		}
		if len(session.Exercises) > 0 {
			scanned = append(scanned, session)
		}
	}

	if len(scanned) == 0 {
		return nil, ErrScanEmpty
	}
	return scanned, nil
}

func scanDate(s string, now time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "unknown") {
		return gymflow.DateOnly(now)
	}
	for _, layout := range scanDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return gymflow.DateOnly(t)
		}
	}
	return gymflow.DateOnly(now)
}
