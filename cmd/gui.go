//go:build !headless

package cmd

import (
	"github.com/habedi/cardidle/gui"
	"github.com/habedi/cardidle/idle"
	"github.com/spf13/cobra"
)

func guiCmd(svc *services) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gui",
		Short: "Start the Cardidle GUI",
		Run: func(cmd *cobra.Command, args []string) {
			gui.Run(gui.Options{
				Version: version,
				Config:  svc.cfg,
				NewOrchestrator: func(observer func(idle.Status), onComplete func()) *idle.Orchestrator {
					return svc.newOrchestrator(svc.newSupervisor(), observer, onComplete)
				},
			})
		},
	}
	return cmd
}
