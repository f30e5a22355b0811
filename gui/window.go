package gui

import (
	"context"
	"errors"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"github.com/habedi/cardidle/config"
	"github.com/habedi/cardidle/idle"
	"github.com/habedi/cardidle/pkg/sound"
	"github.com/rs/zerolog/log"
)

// Options wires the window to the idler.
type Options struct {
	Version string
	Config  *config.Instance
	// NewOrchestrator builds the idler with the window's observer and completion hook.
	NewOrchestrator func(observer func(idle.Status), onComplete func()) *idle.Orchestrator
}

func Run(opts Options) {
	myApp := app.NewWithID("com.github.habedi.cardidle")
	myApp.SetIcon(AppLogo)
	myApp.Settings().SetTheme(CreateThemeFromPreferences())

	myWindow := myApp.NewWindow("Cardidle")
	view := NewIdleView()
	o := opts.NewOrchestrator(view.Update, func() {
		myApp.SendNotification(fyne.NewNotification("Cardidle", idle.PhaseComplete))
		path := opts.Config.Values().SoundFile
		go func() {
			if err := sound.Play(path); err != nil {
				log.Warn().Err(err).Msg("Failed to play completion sound")
			}
		}()
	})
	view.Bind(o.Post)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := o.Run(ctx, nil); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Idler stopped")
		}
	}()

	mainTabs := container.NewAppTabs(
		container.NewTabItemWithIcon("Idle", theme.MediaPlayIcon(), view.Content()),
		container.NewTabItemWithIcon("Settings", theme.SettingsIcon(), SettingsTabUI(myWindow, opts.Config)),
		container.NewTabItemWithIcon("About", theme.InfoIcon(), ShowAboutUI(opts.Version, opts.Config)),
	)
	mainTabs.SetTabLocation(container.TabLocationTop)

	myWindow.SetContent(mainTabs)
	myWindow.Resize(fyne.NewSize(720, 560))
	myWindow.ShowAndRun()

	cancel()
	<-done
}
