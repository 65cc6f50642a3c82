package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/2beens/gymflow/internal/gymflow/exercises"
	"github.com/2beens/gymflow/internal/gymflow/planner"
)

func newPlanCmd(a *app) *cobra.Command {
	var (
		memberRef    string
		exerciseRefs []string
		date         string
		notes        string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan a workout session for a member",
		Long: `Plan a workout session for a member.

Exercises are given by id or by name; a name missing from the library is
added as a custom exercise.

  gymflow plan --member Ana --exercise "Bench Press" --exercise "Deadlift"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}

			member, err := resolveMember(ctx, store, memberRef)
			if err != nil {
				return err
			}
			update := planner.DraftUpdate{MemberID: &member.ID}
			if date != "" {
				d, err := parseDate(date)
				if err != nil {
					return err
				}
				update.Date = &d
			}
			if notes != "" {
				update.Notes = &notes
			}

			p := planner.NewPlanner(planner.NewDraftStore(time.Hour), exercises.NewCatalog(store), store)
			draft := p.New()
			defer p.Discard(draft.ID)

			if _, err := p.Update(ctx, draft.ID, update); err != nil {
				return err
			}
			for _, ref := range exerciseRefs {
				if id, parseErr := uuid.Parse(ref); parseErr == nil {
					_, err = p.AddExercise(ctx, draft.ID, id)
				} else {
					_, err = p.AddCustom(ctx, draft.ID, ref)
				}
				if err != nil {
					return fmt.Errorf("plan exercise %q: %w", ref, err)
				}
			}

			submitted, session, err := p.Submit(ctx, draft.ID)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "planned session %s for %s on %s\n",
				session.ID, member.Name, session.Date.Format(dateLayout))
			for i, e := range submitted.Exercises {
				fmt.Fprintf(a.out, "  %d. %s\n", i+1, e.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&memberRef, "member", "m", "", "member id or name")
	cmd.Flags().StringArrayVarP(&exerciseRefs, "exercise", "e", nil, "exercise id or name, repeat for more")
	cmd.Flags().StringVar(&date, "date", "", "session date, YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&notes, "notes", "", "session notes")
	_ = cmd.MarkFlagRequired("member")
	_ = cmd.MarkFlagRequired("exercise")
	return cmd
}
