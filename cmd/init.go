package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/habedi/cardidle/config"
	"github.com/habedi/cardidle/db"
	"github.com/habedi/cardidle/pkg/clierr"
	"github.com/spf13/cobra"
)

// initCmd prepares cardidle for first-time use by asking for the idle helper location.
func initCmd(svc *services) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize cardidle for first-time use",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			cur := svc.cfg.Values().HelperPath
			helper := promptForInput(cmd, in, fmt.Sprintf("Path to the idle helper [%s]: ", cur))
			if helper != "" {
				if err := svc.cfg.Set("helper_path", helper); err != nil {
					return clierr.New(clierr.Validation, "Invalid helper path.", err)
				}
			}
			cmd.Println("Settings:", svc.cfg.Path())
			cmd.Println("Database:", db.Path)
			cmd.Println("Data directory:", config.Dir())
			cmd.Println("Next, run 'cardidle login' to sign in to Steam Community.")
			return nil
		},
	}

	return cmd
}

// promptForInput prompts the user for input and returns the trimmed string.
func promptForInput(cmd *cobra.Command, in *bufio.Reader, prompt string) string {
	cmd.Print(prompt)
	input, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return ""
	}
	return strings.TrimSpace(input)
}
