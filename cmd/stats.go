package cmd

import (
	"strconv"

	"github.com/habedi/cardidle/pkg/clierr"
	"github.com/spf13/cobra"
)

func statsCmd(svc *services) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show lifetime idling statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := svc.stats.Get(cmd.Context())
			if err != nil {
				return clierr.New(clierr.Internal, "Unable to read statistics.", err)
			}
			table := newTable(cmd.OutOrStdout(), []string{"Statistic", "Value"})
			table.Append([]string{"Time idled", formatMinutes(s.MinutesIdled)})
			table.Append([]string{"Cards idled", strconv.Itoa(s.CardsIdled)})
			table.Render()
			return nil
		},
	}
}
