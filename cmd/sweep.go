package cmd

import (
	"errors"

	"github.com/habedi/cardidle/host"
	"github.com/habedi/cardidle/pkg/clierr"
	"github.com/spf13/cobra"
)

// sweepCmd kills idle helpers left behind by a crashed run.
func sweepCmd(svc *services) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Stop idle helpers left over from an earlier run",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := svc.newSupervisor().SweepOrphans()
			if n > 0 {
				cmd.Printf("Stopped %d leftover idle helpers.\n", n)
			} else if err == nil {
				cmd.Println("No leftover idle helpers found.")
			}
			if err != nil {
				return clierr.New(clierr.Internal, "Some idle helpers could not be stopped.", err)
			}
			return nil
		},
	}
}

// shutdownCmd cancels a shutdown scheduled after idling completed.
func shutdownCmd(svc *services) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shutdown",
		Short: "Manage the shutdown scheduled when idling completes",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "abort",
		Short: "Cancel a scheduled shutdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := svc.host.AbortShutdown(); err != nil {
				if errors.Is(err, host.ErrUnsupported) {
					return clierr.New(clierr.Validation, "Aborting a shutdown is not supported on this platform.", err)
				}
				return clierr.New(clierr.Internal, "Failed to abort the shutdown.", err)
			}
			cmd.Println("Scheduled shutdown cancelled.")
			return nil
		},
	})
	return cmd
}
