// Package capture turns one spoken or typed utterance into a set result:
// reps, an optional weight and a unit.
package capture

import (
	"errors"

	"github.com/2beens/gymflow/internal/gymflow"
)

var (
	ErrNoTranscript         = errors.New("no transcript")
	ErrUnparsableTranscript = errors.New("unparsable transcript")
	ErrManualEntryAborted   = errors.New("manual entry aborted")
	ErrSpeechUnavailable    = errors.New("speech capture unavailable")
)

// CapturedResult is one captured set. Reps is always positive; a nil Weight
// means the weight was not stated.
type CapturedResult struct {
	Reps   int          `json:"reps"`
	Weight *float64     `json:"weight"`
	Unit   gymflow.Unit `json:"unit"`
}
