package cmd

import (
	"github.com/habedi/cardidle/pkg/clierr"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// authCmd checks the stored session against Steam Community and refreshes its cookies.
func authCmd(svc *services) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Check the stored session and refresh its login cookies",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !svc.auth.SessionValid() {
				return clierr.New(clierr.Auth, "Not logged in. Run 'cardidle login' first.", nil)
			}
			log.Info().Msg("Checking the session with Steam Community")

			ok, err := svc.steam.IsLoggedIn(cmd.Context())
			if err != nil {
				return clierr.New(clierr.Auth, "Failed to reach Steam Community.", err)
			}
			if !ok {
				if !refresh {
					return clierr.New(clierr.Auth, "The session has expired. Run 'cardidle login' again.", nil)
				}
				if err := svc.steam.RefreshLoginToken(cmd.Context()); err != nil {
					return clierr.New(clierr.Auth, "Failed to refresh the login token.", err)
				}
				if ok, err = svc.steam.IsLoggedIn(cmd.Context()); err != nil || !ok {
					return clierr.New(clierr.Auth, "The session has expired. Run 'cardidle login' again.", err)
				}
			}

			sess, err := svc.auth.Session()
			if err != nil {
				return clierr.New(clierr.Internal, "Failed to read the session.", err)
			}
			cmd.Println("Session is valid. Profile:", sess.ProfileURL)
			if !svc.auth.ClientReady() {
				cmd.Println("The Steam client is not running; idling waits until it starts.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&refresh, "refresh", "r", true, "Try to refresh the login cookies when the session has expired [true, false]")

	return cmd
}
