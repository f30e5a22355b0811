package cmd

import (
	"fmt"
	"strings"

	"github.com/habedi/cardidle/config"
	"github.com/habedi/cardidle/pkg/clierr"
	"github.com/habedi/cardidle/pkg/validation"
	"github.com/spf13/cobra"
)

// settingsCmd shows and changes the settings file.
func settingsCmd(svc *services) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the idling settings",
	}

	cmd.AddCommand(
		settingsShowCmd(svc),
		settingsSetCmd(svc),
		listCmd(svc, config.Blacklist, "Titles that are never idled"),
		listCmd(svc, config.Whitelist, "Titles idled in whitelist mode"),
	)

	return cmd
}

func settingsShowCmd(svc *services) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := svc.cfg.Values()
			table := newTable(cmd.OutOrStdout(), []string{"Key", "Value"})
			rows := [][]string{
				{"only_one_game_idle", fmt.Sprint(v.OnlyOneGameIdle)},
				{"one_then_many", fmt.Sprint(v.OneThenMany)},
				{"fast_mode", fmt.Sprint(v.FastMode)},
				{"whitelist_mode", fmt.Sprint(v.WhitelistMode)},
				{"idle_only_played", fmt.Sprint(v.IdleOnlyPlayed)},
				{"sort", v.Sort},
				{"blacklist", strings.Join(v.Blacklist, ", ")},
				{"whitelist", strings.Join(v.Whitelist, ", ")},
				{"shutdown_on_done", fmt.Sprint(v.ShutdownOnDone)},
				{"no_sleep", fmt.Sprint(v.NoSleep)},
				{"ignore_client", fmt.Sprint(v.IgnoreClient)},
				{"helper_path", v.HelperPath},
				{"sound_file", v.SoundFile},
				{"threads", fmt.Sprint(v.Threads)},
				{"requests_per_second", fmt.Sprint(v.RequestsPerSecond)},
			}
			for _, r := range rows {
				table.Append(r)
			}
			table.Render()
			cmd.Println("Settings file:", svc.cfg.Path())
			return nil
		},
	}
}

func settingsSetCmd(svc *services) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting",
		Long:  "Change one setting. Keys: " + strings.Join(config.Keys(), ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateNonEmptyString("key", args[0]); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			if err := svc.cfg.Set(args[0], args[1]); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			cmd.Printf("%s set to %s\n", args[0], args[1])
			return nil
		},
	}
}

// listCmd manages the blacklist or the whitelist.
func listCmd(svc *services, l config.List, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(l),
		Short: short,
	}

	edit := func(use, short string, apply func(l config.List, id string) error, done string) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <app-id>...",
			Short: short,
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				for _, id := range args {
					if err := validation.ValidateTitleID(id); err != nil {
						return clierr.New(clierr.Validation, err.Error(), err)
					}
				}
				for _, id := range args {
					if err := apply(l, id); err != nil {
						return clierr.New(clierr.Internal, fmt.Sprintf("Failed to update the %s.", l), err)
					}
					cmd.Printf("%s %s %s\n", id, done, l)
				}
				return nil
			},
		}
	}

	cmd.AddCommand(
		edit("add", "Add titles to the "+string(l), svc.cfg.Add, "added to the"),
		edit("remove", "Remove titles from the "+string(l), svc.cfg.Remove, "removed from the"),
	)
	return cmd
}
