package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/2beens/gymflow/internal/gymflow/capture"
	"github.com/2beens/gymflow/internal/gymflow/sessions"
)

func newRecordCmd(a *app) *cobra.Command {
	var (
		sessionRef  string
		exerciseRef string
		audioPath   string
		transcript  string
		scheme      string
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a set of a planned exercise",
		Long: `Record a set of a planned exercise.

The set comes from an audio clip (needs GYMFLOW_STT_API_KEY), from an already
transcribed utterance, or from a set scheme that records several sets at once.
When none of these yields reps, the reps, weight and unit are asked for.

  gymflow record --session <id> --exercise "Bench Press" --audio set.m4a
  gymflow record --session <id> --exercise "Bench Press" --transcript "8 reps at 135 pounds"
  gymflow record --session <id> --exercise "Bench Press" --scheme "3 sets of 10 reps at 50 kg"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}

			sessionID, err := uuid.Parse(sessionRef)
			if err != nil {
				return fmt.Errorf("invalid session id %q", sessionRef)
			}
			if _, err := store.GetSession(ctx, sessionID); err != nil {
				return err
			}
			planned, err := store.ListPlannedExercises(ctx, sessionID)
			if err != nil {
				return fmt.Errorf("get session plan: %w", err)
			}
			pe, err := resolvePlanned(planned, exerciseRef)
			if err != nil {
				return err
			}
			key := sessions.Key{SessionID: sessionID, ExerciseID: pe.ExerciseID}

			flow := capture.NewFlow(a.speechCapture(), a.v.GetDuration("capture_timeout"))
			recorder := sessions.NewRecorder(store, flow, nil)

			if scheme != "" {
				parsed, ok := capture.ParseSetScheme(scheme)
				if !ok {
					return fmt.Errorf("could not read a set scheme from %q, try e.g. \"3 sets of 10 reps at 50 kg\"", scheme)
				}
				stored, err := recorder.RecordScheme(ctx, key, parsed)
				for _, r := range stored {
					fmt.Fprintf(a.out, "%s set %d: %d reps, %s [%s]\n", pe.ExerciseName, r.SetNumber, r.Reps, formatWeight(r), r.Source)
				}
				return err
			}

			act := capture.Activation{Transcript: transcript}
			if audioPath != "" {
				if !flow.SpeechAvailable() {
					log.Warnln("speech capture not available, the audio clip is ignored")
				}
				f, err := os.Open(audioPath)
				if err != nil {
					return fmt.Errorf("open audio: %w", err)
				}
				defer f.Close()
				act.Audio = f
				act.AudioName = filepath.Base(audioPath)
			}

			resp, err := recorder.Capture(ctx, key, act, capture.NewPromptEntry(a.in, a.errOut))
			if err != nil {
				return err
			}
			if resp.Fallback != "" {
				fmt.Fprintf(a.errOut, "voice capture skipped: %s\n", resp.Fallback)
			}
			if resp.Aborted {
				fmt.Fprintln(a.out, "nothing recorded")
				return nil
			}
			r := resp.SetResult
			fmt.Fprintf(a.out, "%s set %d: %d reps, %s [%s]\n", pe.ExerciseName, r.SetNumber, r.Reps, formatWeight(r), r.Source)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionRef, "session", "", "session id")
	cmd.Flags().StringVarP(&exerciseRef, "exercise", "e", "", "planned exercise id or name")
	cmd.Flags().StringVar(&audioPath, "audio", "", "audio clip of the spoken set")
	cmd.Flags().StringVar(&transcript, "transcript", "", "spoken set as text, e.g. \"8 reps at 135 pounds\"")
	cmd.Flags().StringVar(&scheme, "scheme", "", "set scheme, e.g. \"3 sets of 10 reps at 50 kg\"")
	_ = cmd.MarkFlagRequired("session")
	_ = cmd.MarkFlagRequired("exercise")
	cmd.MarkFlagsMutuallyExclusive("audio", "transcript", "scheme")
	return cmd
}
