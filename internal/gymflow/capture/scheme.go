package capture

import (
	"strings"

	"github.com/2beens/gymflow/internal/gymflow"
)

// MaxSchemeSets caps how many identical sets one scheme utterance may expand to.
const MaxSchemeSets = 20

// SetScheme is a "3 sets of 10 reps at 135 pounds" style utterance.
type SetScheme struct {
	Sets   int          `json:"sets"`
	Reps   int          `json:"reps"`
	Weight *float64     `json:"weight"`
	Unit   gymflow.Unit `json:"unit"`
}

// ParseSetScheme anchors every number to the word right after it: "set" marks
// the set count, "rep" the rep count and "pound", "lb" or "kg" the weight.
// Numbers followed by anything else are ignored. Both a set count and a rep
// count are required.
func ParseSetScheme(transcript string) (SetScheme, bool) {
	words := strings.Fields(transcript)
	scheme := SetScheme{Unit: gymflow.UnitLb}

	for i, word := range words {
		if i+1 >= len(words) {
			break
		}
		next := strings.ToLower(words[i+1])

		switch {
		case strings.Contains(next, "set"):
			if n, ok := parseReps(word); ok {
				scheme.Sets = n
			}
		case strings.Contains(next, "rep"):
			if n, ok := parseReps(word); ok {
				scheme.Reps = n
			}
		case strings.Contains(next, "pound"), strings.Contains(next, "lb"), strings.Contains(next, "kg"):
			if w, ok := parseWeight(word); ok {
				scheme.Weight = &w
				if strings.Contains(next, "kg") {
					scheme.Unit = gymflow.UnitKg
				} else {
					scheme.Unit = gymflow.UnitLb
				}
			}
		}
	}

	if scheme.Sets <= 0 || scheme.Reps <= 0 || scheme.Sets > MaxSchemeSets {
		return SetScheme{}, false
	}
	return scheme, true
}

// Results expands the scheme into one captured result per set.
func (s SetScheme) Results() []CapturedResult {
	results := make([]CapturedResult, 0, s.Sets)
	for i := 0; i < s.Sets; i++ {
		r := CapturedResult{Reps: s.Reps, Unit: s.Unit}
		if s.Weight != nil {
			w := *s.Weight
			r.Weight = &w
		}
		results = append(results, r)
	}
	return results
}
