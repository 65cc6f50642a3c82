package capture_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/gymflow/internal/gymflow"
	"github.com/2beens/gymflow/internal/gymflow/capture"
)

type speechSpy struct {
	available bool
	text      string
	err       error
	listened  int
}

func (s *speechSpy) Available() bool {
	return s.available
}

func (s *speechSpy) Listen(context.Context, capture.Activation) (string, error) {
	s.listened++
	return s.text, s.err
}

type manualSpy struct {
	input    capture.ManualInput
	err      error
	prompted int
}

func (m *manualSpy) Prompt(context.Context) (capture.ManualInput, error) {
	m.prompted++
	return m.input, m.err
}

func TestFlow_Run_Voice(t *testing.T) {
	speech := &speechSpy{available: true, text: "8 reps at 50 kg"}
	manual := &manualSpy{}
	flow := capture.NewFlow(speech, time.Second)

	outcome := flow.Run(context.Background(), capture.Activation{Audio: audio()}, manual)

	require.NotNil(t, outcome.Result)
	assert.False(t, outcome.Aborted)
	assert.Equal(t, gymflow.SourceVoice, outcome.Source)
	assert.Equal(t, 8, outcome.Result.Reps)
	assert.Equal(t, 50.0, *outcome.Result.Weight)
	assert.Equal(t, gymflow.UnitKg, outcome.Result.Unit)
	assert.Equal(t, "8 reps at 50 kg", outcome.Transcript)
	assert.Nil(t, outcome.Fallback)
	assert.Empty(t, outcome.FallbackReason())
	assert.Equal(t, 1, speech.listened)
	assert.Zero(t, manual.prompted)
}

func TestFlow_Run_DeviceTranscript(t *testing.T) {
	// a transcript recognized on the device is parsed even without server side speech
	speech := &speechSpy{available: false}
	manual := &manualSpy{}
	flow := capture.NewFlow(speech, time.Second)

	outcome := flow.Run(context.Background(), capture.Activation{Transcript: "12 reps"}, manual)

	require.NotNil(t, outcome.Result)
	assert.Equal(t, gymflow.SourceVoice, outcome.Source)
	assert.Equal(t, 12, outcome.Result.Reps)
	assert.Nil(t, outcome.Result.Weight)
	assert.Zero(t, speech.listened)
	assert.Zero(t, manual.prompted)
}

func TestFlow_Run_SpeechUnavailable(t *testing.T) {
	speech := &speechSpy{available: false}
	manual := &manualSpy{input: capture.ManualInput{Reps: "10", Weight: "135"}}
	flow := capture.NewFlow(speech, time.Second)

	outcome := flow.Run(context.Background(), capture.Activation{Audio: audio()}, manual)

	require.NotNil(t, outcome.Result)
	assert.Equal(t, gymflow.SourceManual, outcome.Source)
	assert.Equal(t, 10, outcome.Result.Reps)
	assert.Equal(t, 135.0, *outcome.Result.Weight)
	assert.Equal(t, gymflow.UnitLb, outcome.Result.Unit)
	assert.ErrorIs(t, outcome.Fallback, capture.ErrSpeechUnavailable)
	assert.Equal(t, "speech_unavailable", outcome.FallbackReason())
	assert.Zero(t, speech.listened)
	assert.Equal(t, 1, manual.prompted)
}

func TestFlow_Run_UnparsableTranscript(t *testing.T) {
	speech := &speechSpy{available: true, text: "twelve reps"}
	manual := &manualSpy{input: capture.ManualInput{Reps: "12"}}
	flow := capture.NewFlow(speech, time.Second)

	outcome := flow.Run(context.Background(), capture.Activation{Audio: audio()}, manual)

	require.NotNil(t, outcome.Result)
	assert.Equal(t, gymflow.SourceManual, outcome.Source)
	assert.Equal(t, 12, outcome.Result.Reps)
	assert.Equal(t, "twelve reps", outcome.Transcript)
	assert.Equal(t, "unparsable_transcript", outcome.FallbackReason())
	assert.Equal(t, 1, manual.prompted)
}

func TestFlow_Run_NoTranscript(t *testing.T) {
	speech := &speechSpy{available: true, err: capture.ErrNoTranscript}
	manual := &manualSpy{input: capture.ManualInput{Reps: "5", Weight: "100", Unit: "kg"}}
	flow := capture.NewFlow(speech, time.Second)

	outcome := flow.Run(context.Background(), capture.Activation{Audio: audio()}, manual)

	require.NotNil(t, outcome.Result)
	assert.Equal(t, gymflow.SourceManual, outcome.Source)
	assert.Equal(t, gymflow.UnitKg, outcome.Result.Unit)
	assert.Equal(t, "no_transcript", outcome.FallbackReason())
}

func TestFlow_Run_ListenTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	speech := capture.NewAvailableSpeech(blockingTranscriber(release, "10 reps"))
	manual := &manualSpy{input: capture.ManualInput{Reps: "7"}}
	flow := capture.NewFlow(speech, 20*time.Millisecond)

	outcome := flow.Run(context.Background(), capture.Activation{Audio: audio()}, manual)

	require.NotNil(t, outcome.Result)
	assert.Equal(t, gymflow.SourceManual, outcome.Source)
	assert.Equal(t, 7, outcome.Result.Reps)
	assert.ErrorIs(t, outcome.Fallback, capture.ErrNoTranscript)
	assert.ErrorIs(t, outcome.Fallback, context.DeadlineExceeded)
}

func TestFlow_Run_Aborted(t *testing.T) {
	testCases := []struct {
		name   string
		manual capture.ManualEntry
	}{
		{
			name:   "blank reps",
			manual: &manualSpy{input: capture.ManualInput{Reps: "", Weight: "100"}},
		},
		{
			name:   "invalid reps",
			manual: &manualSpy{input: capture.ManualInput{Reps: "lots"}},
		},
		{
			name:   "prompt failed",
			manual: &manualSpy{err: errors.New("stdin closed")},
		},
		{
			name:   "no manual entry",
			manual: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			flow := capture.NewFlow(&speechSpy{available: true, text: "no numbers here"}, time.Second)
			outcome := flow.Run(context.Background(), capture.Activation{Audio: audio()}, tc.manual)

			assert.True(t, outcome.Aborted)
			assert.Nil(t, outcome.Result)
			assert.Empty(t, outcome.Source)
			assert.Equal(t, "unparsable_transcript", outcome.FallbackReason())
		})
	}
}

func TestNewFlow_Defaults(t *testing.T) {
	flow := capture.NewFlow(nil, 0)
	assert.False(t, flow.SpeechAvailable())

	outcome := flow.Run(context.Background(), capture.Activation{}, capture.StaticEntry{Input: capture.ManualInput{Reps: "3"}})
	require.NotNil(t, outcome.Result)
	assert.Equal(t, 3, outcome.Result.Reps)
	assert.Equal(t, "speech_unavailable", outcome.FallbackReason())
}
