package cmd

import (
	"os"
	"runtime"

	"github.com/habedi/cardidle/config"
	"github.com/spf13/cobra"
)

var (
	version   = "0.1.0"
	goVersion = runtime.Version()
	platform  = runtime.GOOS + "/" + runtime.GOARCH
)

// versionCmd prints build information and the paths this installation uses.
func versionCmd(svc *services) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("Cardidle version:", version)
			cmd.Println("Go version:", goVersion)
			cmd.Println("Platform:", platform)
			cmd.Println("Data directory:", config.Dir())

			helper := svc.cfg.Values().HelperPath
			switch {
			case helper == "":
				cmd.Println("Idle helper: not set, run 'cardidle init'")
			case !fileExists(helper):
				cmd.Println("Idle helper:", helper, "(missing)")
			default:
				cmd.Println("Idle helper:", helper)
			}
		},
	}
	return cmd
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
