package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/2beens/gymflow/internal/gymflow/sessions"
	"github.com/2beens/gymflow/internal/gymflow/storage"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		memberRef  string
		sessionRef string
		from       string
		to         string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded sessions",
		Long: `Show recorded sessions.

Without flags all sessions are listed. With --session the session is shown
with its sets; with --member every session of the member is shown that way.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			history := sessions.NewHistory(store)

			if sessionRef != "" {
				id, err := uuid.Parse(sessionRef)
				if err != nil {
					return fmt.Errorf("invalid session id %q", sessionRef)
				}
				detail, err := history.Detail(ctx, id)
				if err != nil {
					return err
				}
				printDetail(a.out, detail)
				return nil
			}

			var filter storage.SessionFilter
			if from != "" {
				d, err := parseDate(from)
				if err != nil {
					return err
				}
				filter.From = &d
			}
			if to != "" {
				d, err := parseDate(to)
				if err != nil {
					return err
				}
				filter.To = &d
			}

			if memberRef == "" {
				list, err := history.List(ctx, filter)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "SESSION\tDATE\tMEMBER")
				for _, s := range list {
					fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.Date.Format(dateLayout), s.MemberName)
				}
				return w.Flush()
			}

			member, err := resolveMember(ctx, store, memberRef)
			if err != nil {
				return err
			}
			filter.MemberID = &member.ID
			details, err := history.MemberHistory(ctx, filter)
			if err != nil {
				return err
			}
			if len(details) == 0 {
				fmt.Fprintf(a.out, "no sessions for %s\n", member.Name)
				return nil
			}
			for i, d := range details {
				if i > 0 {
					fmt.Fprintln(a.out)
				}
				printDetail(a.out, d)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&memberRef, "member", "m", "", "member id or name")
	cmd.Flags().StringVar(&sessionRef, "session", "", "session id")
	cmd.Flags().StringVar(&from, "from", "", "first session date, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last session date, YYYY-MM-DD")
	cmd.MarkFlagsMutuallyExclusive("member", "session")
	return cmd
}

func printDetail(out io.Writer, d *sessions.SessionDetail) {
	s := d.Session
	fmt.Fprintf(out, "%s  %s  (%s)\n", s.Date.Format(dateLayout), s.MemberName, s.ID)
	if s.Notes != nil && *s.Notes != "" {
		fmt.Fprintf(out, "  notes: %s\n", *s.Notes)
	}
	for _, e := range d.Exercises {
		fmt.Fprintf(out, "  %d. %s\n", e.OrderIndex, e.ExerciseName)
		if len(e.Sets) == 0 {
			fmt.Fprintln(out, "     no sets recorded")
			continue
		}
		for _, r := range e.Sets {
			fmt.Fprintf(out, "     set %d: %d reps, %s [%s]\n", r.SetNumber, r.Reps, formatWeight(r), r.Source)
		}
	}
}
