package capture

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/2beens/gymflow/internal/gymflow"
)

// FieldValue is a raw manual entry field decoded from a JSON string, number
// or null.
type FieldValue string

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = FieldValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*v = FieldValue(n.String())
		return nil
	}
	return fmt.Errorf("unexpected value %s", data)
}

// ManualInput holds the raw answers of a manual entry, before validation.
type ManualInput struct {
	Reps   string `json:"reps"`
	Weight string `json:"weight"`
	Unit   string `json:"unit"`
}

// Validate applies the same rules as ParseTranscript: reps must be a positive
// integer (blank or invalid aborts the entry), weight is kept only when it is
// a finite positive number, unit is kg or defaults to lb.
func (in ManualInput) Validate() (CapturedResult, error) {
	if strings.TrimSpace(in.Reps) == "" {
		return CapturedResult{}, ErrManualEntryAborted
	}

	reps, ok := parseReps(in.Reps)
	if !ok {
		return CapturedResult{}, fmt.Errorf("%w: invalid reps [%s]", ErrManualEntryAborted, in.Reps)
	}

	result := CapturedResult{
		Reps: reps,
		Unit: gymflow.ParseUnit(in.Unit),
	}
	if weight, ok := parseWeight(in.Weight); ok {
		result.Weight = &weight
	}
	return result, nil
}

// ManualEntry obtains reps, weight and unit from the user when voice capture
// did not produce a result.
type ManualEntry interface {
	Prompt(ctx context.Context) (ManualInput, error)
}

var (
	_ ManualEntry = StaticEntry{}
	_ ManualEntry = (*PromptEntry)(nil)
)

// StaticEntry answers with values the client already sent along, e.g. the
// manual fields of an HTTP form.
type StaticEntry struct {
	Input ManualInput
}

func (e StaticEntry) Prompt(ctx context.Context) (ManualInput, error) {
	if err := ctx.Err(); err != nil {
		return ManualInput{}, err
	}
	return e.Input, nil
}

// PromptEntry asks for the values line by line, e.g. on a terminal.
type PromptEntry struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPromptEntry(in io.Reader, out io.Writer) *PromptEntry {
	return &PromptEntry{
		in:  bufio.NewReader(in),
		out: out,
	}
}

func (p *PromptEntry) Prompt(ctx context.Context) (ManualInput, error) {
	reps, err := p.ask(ctx, "Reps (required): ")
	if err != nil {
		return ManualInput{}, err
	}
	if _, ok := parseReps(reps); !ok {
		// nothing else to ask, Validate aborts the entry
		return ManualInput{Reps: reps}, nil
	}

	weight, err := p.ask(ctx, "Weight (optional): ")
	if err != nil && !errors.Is(err, io.EOF) {
		return ManualInput{}, err
	}
	unit, err := p.ask(ctx, "Unit (lb or kg). Default lb: ")
	if err != nil && !errors.Is(err, io.EOF) {
		return ManualInput{}, err
	}

	return ManualInput{
		Reps:   reps,
		Weight: weight,
		Unit:   unit,
	}, nil
}

func (p *PromptEntry) ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := fmt.Fprint(p.out, question); err != nil {
		return "", err
	}
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
