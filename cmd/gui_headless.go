//go:build headless

package cmd

import (
	"github.com/spf13/cobra"
)

func guiCmd(svc *services) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gui",
		Short: "Start the Cardidle GUI (not available in headless build)",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("Error: GUI is not available in this build.")
			cmd.Println("This is a headless (CLI-only) version of Cardidle.")
			cmd.Println("Use 'cardidle idle' instead, or build from source without the 'headless' tag.")
		},
	}
	return cmd
}
