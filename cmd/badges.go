package cmd

import (
	"fmt"
	"strings"

	"github.com/habedi/cardidle/badge"
	"github.com/habedi/cardidle/pkg/clierr"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// badgesCmd groups the commands that read the profile's badge pages.
func badgesCmd(svc *services) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "badges",
		Short: "Show the titles with card drops",
	}

	cmd.AddCommand(
		badgesListCmd(svc),
		badgesRefreshCmd(svc),
	)

	return cmd
}

func badgesListCmd(svc *services) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the titles read by the last refresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := svc.titles.List(cmd.Context())
			if err != nil {
				return clierr.New(clierr.Internal, "Unable to list titles. Please check the logs for details.", err)
			}
			if len(entries) == 0 {
				cmd.Println("No titles found. Use `cardidle badges refresh` to read your badge pages.")
				return nil
			}
			printTitles(cmd, svc, entries, all)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include titles that cannot be idled")
	return cmd
}

func badgesRefreshCmd(svc *services) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Read the badge pages again and show the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !svc.auth.SessionValid() || !svc.auth.HasProfile() {
				return clierr.New(clierr.Auth, "Not logged in. Run 'cardidle login' first.", nil)
			}
			log.Info().Msg("Refreshing badge pages")
			cmd.Println("Reading badge pages, please wait...")

			loader := cachingLoader{Loader: svc.steam, titles: svc.titles}
			entries, err := loader.LoadTitles(cmd.Context())
			if err != nil {
				return clierr.New(clierr.Idle, "Failed to read the badge pages.", err)
			}
			printTitles(cmd, svc, entries, false)
			return nil
		},
	}
}

// printTitles renders entries in the configured order with their eligibility.
func printTitles(cmd *cobra.Command, svc *services, entries []badge.Entry, all bool) {
	s := svc.cfg.Snapshot()
	f := s.Filter()
	reg := badge.NewRegistry()
	for _, e := range entries {
		reg.Upsert(e.ID, e.Name, e.Remaining, e.HoursPlayed)
	}
	reg.SortBy(s.Sort)

	table := newTable(cmd.OutOrStdout(), []string{"#", "App ID", "Title", "Drops", "Hours", "Idle"})
	table.SetColMinWidth(2, 40)
	row := 0
	for _, t := range reg.Titles() {
		ok := badge.CanIdle(t, f)
		if !ok && !all {
			continue
		}
		row++
		mark := "yes"
		if !ok {
			mark = "no"
		}
		table.Append([]string{
			fmt.Sprintf("%d", row),
			t.ID,
			strings.ReplaceAll(t.Name, "\n", " "),
			t.Remaining.String(),
			fmt.Sprintf("%.1f", t.HoursPlayed),
			mark,
		})
	}
	table.Render()
	cmd.Printf("%d titles can be idled, %d card drops remaining.\n", reg.EligibleCount(f), reg.TotalRemainingDrops(f))
}
