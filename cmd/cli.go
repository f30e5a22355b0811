package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/habedi/cardidle/config"
	"github.com/habedi/cardidle/db"
	"github.com/habedi/cardidle/pkg/clierr"
	"github.com/habedi/cardidle/proc"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func Execute() {
	cfg, err := config.NewConfig(config.Dir())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load settings")
		fmt.Fprintln(os.Stderr, "Error: Failed to load settings:", err)
		os.Exit(1)
	}

	db.Path = filepath.Join(config.Dir(), "cardidle.db")
	initializeDatabase()

	svc := newServices(db.GetDB(), cfg, proc.SystemTable{})
	rootCmd := createRootCmd(svc)
	rootCmd.PersistentFlags().BoolP("help", "h", false, "Show help for a command")

	if err := rootCmd.Execute(); err != nil {
		code := reportError(rootCmd, err)
		closeDatabase()
		os.Exit(code)
	}
	closeDatabase()
}

func createRootCmd(svc *services) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cardidle",
		Short:         "Idle Steam trading card drops",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		initCmd(svc),
		loginCmd(svc),
		logoutCmd(svc),
		authCmd(svc),
		badgesCmd(svc),
		idleCmd(svc),
		settingsCmd(svc),
		statsCmd(svc),
		sweepCmd(svc),
		shutdownCmd(svc),
		guiCmd(svc),
		versionCmd(svc),
	)

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})

	return rootCmd
}

func initializeDatabase() {
	if err := db.InitDB(); err != nil {
		log.Error().Err(err).Msg("Failed to initialize database")
		os.Exit(1)
	}
}

func closeDatabase() {
	if err := db.CloseDB(); err != nil {
		log.Error().Err(err).Msg("Failed to close the database.")
	}
}

// reportError prints a friendly line for err and returns the exit code.
// The underlying error only goes to the log.
func reportError(cmd *cobra.Command, err error) int {
	var ce *clierr.Error
	if errors.As(err, &ce) {
		cmd.PrintErrln("Error: " + ce.Message)
		log.Error().Err(ce.Err).Str("type", string(ce.Type)).Msg(ce.Message)
		return ce.ExitCode()
	}
	cmd.PrintErrln("Error:", err)
	log.Error().Err(err).Msg("Command execution failed.")
	return 1
}
