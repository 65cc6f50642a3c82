package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/2beens/gymflow/internal/gymflow"
	"github.com/2beens/gymflow/internal/gymflow/exercises"
)

func newMemberCmd(a *app) *cobra.Command {
	memberCmd := &cobra.Command{
		Use:   "member",
		Short: "Manage gym members",
	}

	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a member",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			member, err := store.AddMember(ctx, gymflow.Member{
				Name:      strings.Join(args, " "),
				CreatedAt: a.now().UTC(),
			})
			if err != nil {
				return fmt.Errorf("add member: %w", err)
			}
			fmt.Fprintf(a.out, "added member %s (%s)\n", member.Name, member.ID)
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			members, err := store.ListMembers(ctx)
			if err != nil {
				return fmt.Errorf("list members: %w", err)
			}
			if len(members) == 0 {
				fmt.Fprintln(a.out, "no members yet, add one with: gymflow member add <name>")
				return nil
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSINCE")
			for _, m := range members {
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.ID, m.Name, m.CreatedAt.Format(dateLayout))
			}
			return w.Flush()
		},
	}

	memberCmd.AddCommand(addCmd, listCmd)
	return memberCmd
}

func newExercisesCmd(a *app) *cobra.Command {
	var search string
	var limit int

	cmd := &cobra.Command{
		Use:   "exercises",
		Short: "List the exercise library, or search it by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			catalog := exercises.NewCatalog(store)

			var list []*gymflow.Exercise
			if search != "" {
				list, err = catalog.Search(ctx, search, nil, limit)
			} else {
				list, err = catalog.List(ctx)
			}
			if err != nil {
				return fmt.Errorf("list exercises: %w", err)
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tGROUP")
			for _, e := range list {
				group := e.MuscleGroup
				if e.IsCustom {
					group = "custom"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.ID, e.Name, group)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "search exercises by name")
	cmd.Flags().IntVar(&limit, "limit", 10, "max search results")
	return cmd
}
