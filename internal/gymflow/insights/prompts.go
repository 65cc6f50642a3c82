package insights

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/2beens/gymflow/internal/gymflow"
	"github.com/2beens/gymflow/internal/gymflow/sessions"
)

const historyDateLayout = "2006-01-02"

const trainerSystem = "You are a professional personal trainer. You read workout logs carefully and base every statement on the data you are given."

const trainerPromptTemplate = `You are a professional personal trainer analyzing workout history for %s.

Workout History:
%s

Provide a comprehensive analysis with:
1. **Progress Summary**: Overall trends (strength gains, consistency, improvements)
2. **Exercise-Specific Insights**: For each major exercise, note progression or plateaus
3. **Areas of Concern**: Stagnation, imbalances, potential overtraining
4. **Recommendations**: Specific actionable advice to improve training

Be encouraging but honest. Use data to support your insights. Format in clear sections with bullet points.`

const scanPrompt = `Extract workout data from this paper log. Return ONLY a JSON array in this exact format:
[
  {
    "date": "2024-01-15",
    "exercises": [
      {
        "exerciseName": "Bench Press",
        "sets": [
          {"reps": "10", "weight": "135"},
          {"reps": "8", "weight": "145"}
        ]
      }
    ]
  }
]

Extract all visible workout sessions with dates, exercise names, sets, reps, and weights. If no date is visible, use "Unknown". Return only the JSON array, no other text.`

func TrainerPrompt(memberName, history string) string {
	return fmt.Sprintf(trainerPromptTemplate, memberName, history)
}

// HistoryText renders sessions oldest first, one line per session:
//
//	2025-01-02: Bench Press: Set 1: 10 reps @ 135lbs, Set 2: 8 reps; Squat: Set 1: 5 reps @ 100kg
//
// Exercises without sets are left out, as are sessions without any set.
func HistoryText(details []*sessions.SessionDetail) string {
	ordered := make([]*sessions.SessionDetail, 0, len(details))
	ordered = append(ordered, details...)
	// history comes newest first
	for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	}

	lines := make([]string, 0, len(ordered))
	for _, d := range ordered {
		exercises := make([]string, 0, len(d.Exercises))
		for _, e := range d.Exercises {
			if len(e.Sets) == 0 {
				continue
			}
			sets := make([]string, 0, len(e.Sets))
			for i, s := range e.Sets {
				sets = append(sets, formatSet(i+1, s))
			}
			exercises = append(exercises, e.ExerciseName+": "+strings.Join(sets, ", "))
		}
		if len(exercises) == 0 {
			continue
		}
		lines = append(lines, d.Session.Date.Format(historyDateLayout)+": "+strings.Join(exercises, "; "))
	}
	return strings.Join(lines, "\n")
}

func formatSet(n int, s *gymflow.SetResult) string {
	set := fmt.Sprintf("Set %d: %d reps", n, s.Reps)
	if s.Weight == nil {
		return set
	}
	unit := "lbs"
	if s.Unit == gymflow.UnitKg {
		unit = "kg"
	}
	return set + " @ " + strconv.FormatFloat(*s.Weight, 'f', -1, 64) + unit
}
