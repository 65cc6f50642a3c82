package capture

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/gymflow/internal/gymflow"
	"github.com/2beens/gymflow/internal/telemetry/tracing"
)

const DefaultListenTimeout = 15 * time.Second

// Outcome is the result of one capture. Exactly one of Result and Aborted is set.
// Fallback tells why voice capture was skipped or failed, nil for a voice result.
type Outcome struct {
	Result     *CapturedResult
	Source     gymflow.Source
	Transcript string
	Fallback   error
	Aborted    bool
}

// FallbackReason is the short machine readable name of Fallback.
func (o Outcome) FallbackReason() string {
	switch {
	case o.Fallback == nil:
		return ""
	case errors.Is(o.Fallback, ErrSpeechUnavailable):
		return "speech_unavailable"
	case errors.Is(o.Fallback, ErrUnparsableTranscript):
		return "unparsable_transcript"
	default:
		return "no_transcript"
	}
}

// Flow runs a single capture: transcript, parse, and manual entry when any
// of the voice steps fails. It never returns an error; a user abort is
// reported through Outcome.Aborted.
type Flow struct {
	speech        SpeechCapture
	listenTimeout time.Duration
}

func NewFlow(speech SpeechCapture, listenTimeout time.Duration) *Flow {
	if speech == nil {
		speech = UnavailableSpeech{}
	}
	if listenTimeout <= 0 {
		listenTimeout = DefaultListenTimeout
	}
	return &Flow{
		speech:        speech,
		listenTimeout: listenTimeout,
	}
}

func (f *Flow) SpeechAvailable() bool {
	return f.speech.Available()
}

func (f *Flow) Run(ctx context.Context, act Activation, manual ManualEntry) (outcome Outcome) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "capture.flow.run")
	defer func() {
		span.SetAttributes(
			attribute.String("capture.source", string(outcome.Source)),
			attribute.String("capture.fallback", outcome.FallbackReason()),
			attribute.Bool("capture.aborted", outcome.Aborted),
		)
		span.End()
	}()

	transcript, err := f.transcript(ctx, act)
	if err == nil {
		if result, ok := ParseTranscript(transcript); ok {
			return Outcome{
				Result:     &result,
				Source:     gymflow.SourceVoice,
				Transcript: transcript,
			}
		}
		err = ErrUnparsableTranscript
	}

	log.Debugf("capture: falling back to manual entry: %s", err)
	outcome = Outcome{
		Transcript: transcript,
		Fallback:   err,
	}

	if manual == nil {
		outcome.Aborted = true
		return outcome
	}
	input, err := manual.Prompt(ctx)
	if err != nil {
		log.Debugf("capture: manual entry prompt failed: %s", err)
		outcome.Aborted = true
		return outcome
	}
	result, err := input.Validate()
	if err != nil {
		log.Tracef("capture: manual entry aborted: %s", err)
		outcome.Aborted = true
		return outcome
	}

	outcome.Result = &result
	outcome.Source = gymflow.SourceManual
	return outcome
}

func (f *Flow) transcript(ctx context.Context, act Activation) (string, error) {
	if transcript := strings.TrimSpace(act.Transcript); transcript != "" {
		return transcript, nil
	}
	if !f.speech.Available() {
		return "", ErrSpeechUnavailable
	}

	listenCtx, cancel := context.WithTimeout(ctx, f.listenTimeout)
	defer cancel()
	return f.speech.Listen(listenCtx, act)
}
