package capture

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/2beens/gymflow/internal/gymflow"
)

var (
	numericTokenRegex = regexp.MustCompile(`\d+(?:\.\d+)?`)
	leadingIntRegex   = regexp.MustCompile(`^[+-]?\d+`)
	leadingFloatRegex = regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d*)?|\.\d+)`)
)

// ParseTranscript reads "N reps at W pounds|kg" style utterances by token order:
// the first number is the rep count, the second (if any) the weight. The unit is
// kg whenever "kg" appears anywhere in the transcript, lb otherwise.
// The second return value is false when no valid rep count was found.
func ParseTranscript(transcript string) (CapturedResult, bool) {
	normalized := strings.ToLower(transcript)
	tokens := numericTokenRegex.FindAllString(normalized, -1)
	if len(tokens) == 0 {
		return CapturedResult{}, false
	}

	reps, ok := parseReps(tokens[0])
	if !ok {
		return CapturedResult{}, false
	}

	result := CapturedResult{
		Reps: reps,
		Unit: gymflow.UnitLb,
	}
	if len(tokens) > 1 {
		if weight, ok := parseWeight(tokens[1]); ok {
			result.Weight = &weight
		}
	}
	if strings.Contains(normalized, "kg") {
		result.Unit = gymflow.UnitKg
	}

	return result, true
}

// parseReps takes the leading integer of s ("12", "12 reps", "10.5" -> 10)
// and accepts it only when positive.
func parseReps(s string) (int, bool) {
	digits := leadingIntRegex.FindString(strings.TrimSpace(s))
	if digits == "" {
		return 0, false
	}
	reps, err := strconv.Atoi(digits)
	if err != nil || reps <= 0 {
		return 0, false
	}
	return reps, true
}

// parseWeight takes the leading decimal of s ("62.5", "135lb") and accepts
// only values that are still positive after rounding to two decimals and
// below gymflow.MaxWeight.
func parseWeight(s string) (float64, bool) {
	num := leadingFloatRegex.FindString(strings.TrimSpace(s))
	if num == "" {
		return 0, false
	}
	weight, err := strconv.ParseFloat(num, 64)
	if err != nil || !gymflow.ValidWeight(weight) {
		return 0, false
	}
	return weight, true
}
