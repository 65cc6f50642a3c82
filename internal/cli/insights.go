package cli

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2beens/gymflow/internal/gymflow/exercises"
	"github.com/2beens/gymflow/internal/gymflow/insights"
	"github.com/2beens/gymflow/internal/gymflow/sessions"
	"github.com/2beens/gymflow/internal/gymflow/storage"
)

func (a *app) insightsService(store storage.Store) (*insights.Service, error) {
	provider, err := a.insightsProvider()
	if err != nil {
		return nil, err
	}
	return insights.NewService(insights.ServiceParams{
		Provider:  provider,
		Store:     store,
		History:   sessions.NewHistory(store),
		Exercises: exercises.NewCatalog(store),
		Now:       a.now,
	}), nil
}

func newInsightsCmd(a *app) *cobra.Command {
	var memberRef string

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Ask the trainer model for an analysis of a member's history",
		Args:  cobra.NoArgs,
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
			service, err := a.insightsService(store)
			if err != nil {
				return err
			}

			result, err := service.Insights(ctx, member.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Insights for %s (%d sessions, %s)\n\n", result.MemberName, result.SessionCount, result.Provider)
			fmt.Fprintln(a.out, strings.TrimSpace(result.Analysis))
			return nil
		},
	}
	cmd.Flags().StringVarP(&memberRef, "member", "m", "", "member id or name")
	_ = cmd.MarkFlagRequired("member")
	return cmd
}

func newScanCmd(a *app) *cobra.Command {
	var (
		memberRef string
		imagePath string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Import workouts from a photo of a paper log",
		Args:  cobra.NoArgs,
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

			data, err := os.ReadFile(imagePath)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			mediaType := http.DetectContentType(data)
			if !strings.HasPrefix(mediaType, "image/") {
				return fmt.Errorf("%s is not an image (%s)", imagePath, mediaType)
			}

			service, err := a.insightsService(store)
			if err != nil {
				return err
			}
			imported, err := service.ImportScan(ctx, member.ID, insights.Image{MediaType: mediaType, Data: data})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "imported %d sessions for %s: %d exercises, %d sets\n",
				len(imported.SessionIDs), member.Name, imported.Exercises, imported.SetResults)
			for _, id := range imported.SessionIDs {
				fmt.Fprintf(a.out, "  session %s\n", id)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&memberRef, "member", "m", "", "member id or name")
	cmd.Flags().StringVar(&imagePath, "image", "", "photo of the workout log")
	_ = cmd.MarkFlagRequired("member")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}
