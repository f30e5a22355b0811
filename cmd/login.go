package cmd

import (
	"context"
	"path/filepath"

	"github.com/habedi/cardidle/client"
	"github.com/habedi/cardidle/config"
	"github.com/habedi/cardidle/db"
	"github.com/habedi/cardidle/pkg/clierr"
	"github.com/habedi/cardidle/pkg/validation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// browserLogin is replaced in tests.
var browserLogin = client.Login

// loginCmd signs in to Steam Community through a browser and stores the session cookies.
func loginCmd(svc *services) *cobra.Command {
	var headless bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to Steam Community",
		Long:  "Open a browser on the Steam Community sign-in page and store the session once you are signed in",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Println("Sign in to Steam Community in the browser window. Waiting...")
			sess, err := browserLogin(cmd.Context(), filepath.Join(config.Dir(), "browser"), headless)
			if err != nil {
				return clierr.New(clierr.Auth, "Failed to login to Steam Community.", err)
			}
			return saveLogin(cmd, svc, sess)
		},
	}

	cmd.Flags().BoolVarP(&headless, "headless", "n", false, "Try a headless browser with the saved browser profile first [true, false]")

	return cmd
}

func saveLogin(cmd *cobra.Command, svc *services, sess *db.Session) error {
	if err := validation.ValidateProfileURL(sess.ProfileURL); err != nil {
		return clierr.New(clierr.Validation, "Login did not reach a profile page.", err)
	}
	if err := svc.auth.SaveSession(sess); err != nil {
		return clierr.New(clierr.Internal, "Failed to save the session.", err)
	}
	log.Info().Str("profile", sess.ProfileURL).Msg("Session saved")
	cmd.Println("Login was successful. Profile:", sess.ProfileURL)
	return nil
}

// logoutCmd forgets the stored session and the cached titles.
func logoutCmd(svc *services) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored Steam Community session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := svc.auth.Reset(); err != nil {
				return clierr.New(clierr.Internal, "Failed to clear the session.", err)
			}
			if err := svc.titles.Clear(context.Background()); err != nil {
				log.Warn().Err(err).Msg("Failed to clear cached titles")
			}
			cmd.Println("Logged out.")
			return nil
		},
	}
}
