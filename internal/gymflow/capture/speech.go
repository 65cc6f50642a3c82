package capture

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Activation is one press of the "record" button. Transcript is set when the
// client device already ran speech recognition; otherwise Audio carries the clip.
type Activation struct {
	Transcript string
	Audio      io.Reader
	AudioName  string
}

// Transcriber is a speech-to-text backend.
type Transcriber interface {
	Transcribe(ctx context.Context, name string, audio io.Reader) (string, error)
}

// SpeechCapture produces at most one transcript per activation.
type SpeechCapture interface {
	Available() bool
	Listen(ctx context.Context, act Activation) (string, error)
}

var (
	_ SpeechCapture = (*AvailableSpeech)(nil)
	_ SpeechCapture = UnavailableSpeech{}
)

// NewSpeechCapture picks the variant once, at startup: no transcriber means
// speech capture is not available and every capture goes to manual entry.
func NewSpeechCapture(transcriber Transcriber) SpeechCapture {
	if transcriber == nil {
		return UnavailableSpeech{}
	}
	return NewAvailableSpeech(transcriber)
}

type UnavailableSpeech struct{}

func (UnavailableSpeech) Available() bool {
	return false
}

func (UnavailableSpeech) Listen(context.Context, Activation) (string, error) {
	return "", ErrSpeechUnavailable
}

type AvailableSpeech struct {
	transcriber Transcriber
}

func NewAvailableSpeech(transcriber Transcriber) *AvailableSpeech {
	return &AvailableSpeech{
		transcriber: transcriber,
	}
}

func (s *AvailableSpeech) Available() bool {
	return true
}

// Listen transcribes the activation audio. It returns when the transcriber
// delivers or ctx is done, whichever happens first; a delivery after that is dropped.
// Every failure, an empty transcript included, is reported as ErrNoTranscript.
func (s *AvailableSpeech) Listen(ctx context.Context, act Activation) (string, error) {
	if act.Audio == nil {
		return "", fmt.Errorf("%w: no audio", ErrNoTranscript)
	}

	type delivery struct {
		text string
		err  error
	}
	// buffered, so a late delivery never blocks the transcriber goroutine
	delivered := make(chan delivery, 1)
	go func() {
		text, err := s.transcriber.Transcribe(ctx, act.AudioName, act.Audio)
		delivered <- delivery{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", ErrNoTranscript, ctx.Err())
	case d := <-delivered:
		if d.err != nil {
			return "", fmt.Errorf("%w: %w", ErrNoTranscript, d.err)
		}
		text := strings.TrimSpace(d.text)
		if text == "" {
			return "", fmt.Errorf("%w: no match", ErrNoTranscript)
		}
		return text, nil
	}
}
