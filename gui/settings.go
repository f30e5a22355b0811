package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/habedi/cardidle/badge"
	"github.com/habedi/cardidle/config"
	"github.com/habedi/cardidle/pkg/sound"
	"github.com/rs/zerolog/log"
)

// Strategy names shown in the settings tab.
const (
	StrategyDefault     = "Simultaneous, then one by one"
	StrategyOnlyOne     = "Only one game at a time"
	StrategyOneThenMany = "One by one, then simultaneous"
	StrategyFastMode    = "Fast mode"
)

var strategies = []string{StrategyDefault, StrategyOnlyOne, StrategyOneThenMany, StrategyFastMode}

func strategyOf(v config.Values) string {
	switch {
	case v.OnlyOneGameIdle:
		return StrategyOnlyOne
	case v.OneThenMany:
		return StrategyOneThenMany
	case v.FastMode:
		return StrategyFastMode
	default:
		return StrategyDefault
	}
}

// applyStrategy sets exactly the flag that belongs to name.
func applyStrategy(v *config.Values, name string) {
	v.OnlyOneGameIdle = name == StrategyOnlyOne
	v.OneThenMany = name == StrategyOneThenMany
	v.FastMode = name == StrategyFastMode
}

func SettingsTabUI(win fyne.Window, cfg *config.Instance) fyne.CanvasObject {
	prefs := fyne.CurrentApp().Preferences()
	a := fyne.CurrentApp()
	vals := cfg.Values()

	update := func(fn func(v *config.Values)) {
		if err := cfg.Update(func(v *config.Values) error { fn(v); return nil }); err != nil {
			log.Error().Err(err).Msg("Failed to save settings")
			dialog.ShowError(err, win)
		}
	}

	// --- Idling Settings ---
	strategyRadio := widget.NewRadioGroup(strategies, func(selected string) {
		if selected == "" {
			return
		}
		update(func(v *config.Values) { applyStrategy(v, selected) })
	})
	strategyRadio.SetSelected(strategyOf(vals))

	sortSelect := widget.NewSelect([]string{badge.SortDefault, badge.SortMostCards, badge.SortLeastCards}, func(s string) {
		update(func(v *config.Values) { v.Sort = s })
	})
	sortSelect.SetSelected(vals.Sort)

	check := func(label string, value bool, set func(v *config.Values, on bool)) *widget.Check {
		c := widget.NewCheck(label, func(on bool) {
			update(func(v *config.Values) { set(v, on) })
		})
		c.SetChecked(value)
		return c
	}

	idleBox := container.NewVBox(
		widget.NewLabel("Idling strategy"), strategyRadio,
		widget.NewLabel("Order"), sortSelect,
		check("Only idle games in the whitelist", vals.WhitelistMode, func(v *config.Values, on bool) { v.WhitelistMode = on }),
		check("Only idle games I have played", vals.IdleOnlyPlayed, func(v *config.Values, on bool) { v.IdleOnlyPlayed = on }),
		check("Shut down when idling completes", vals.ShutdownOnDone, func(v *config.Values, on bool) { v.ShutdownOnDone = on }),
		check("Keep the computer awake while idling", vals.NoSleep, func(v *config.Values, on bool) { v.NoSleep = on }),
	)

	// --- Theme Settings ---
	themeRadio := widget.NewRadioGroup([]string{"System Default", "Light", "Dark"}, func(selected string) {
		prefs.SetString("theme", selected)
		a.Settings().SetTheme(CreateThemeFromPreferences())
	})
	themeRadio.SetSelected(prefs.StringWithFallback("theme", "System Default"))

	fontSizeSelect := widget.NewSelect([]string{"Small", "Normal", "Large", "Extra Large"}, func(s string) {
		prefs.SetString("fontSize", s)
		a.Settings().SetTheme(CreateThemeFromPreferences())
	})
	fontSizeSelect.SetSelected(prefs.StringWithFallback("fontSize", "Normal"))

	themeBox := container.NewVBox(
		widget.NewLabel("UI Theme"), themeRadio,
		widget.NewLabel("Font Size"), fontSizeSelect,
	)

	// --- Sound Settings ---
	soundPathLabel := widget.NewLabel("")
	soundStatusLabel := widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Italic: true})

	showSoundPath := func(path string) {
		if path == "" {
			soundPathLabel.SetText("Built-in chime")
			soundStatusLabel.Hide()
			return
		}
		soundPathLabel.SetText(path)
		if err := sound.ValidateFile(path); err != nil {
			soundStatusLabel.SetText(fmt.Sprintf("⚠ %s. Using the chime.", err.Error()))
		} else {
			soundStatusLabel.SetText("✓ Valid audio file")
		}
		soundStatusLabel.Show()
	}
	showSoundPath(vals.SoundFile)

	selectSoundBtn := widget.NewButton("Select Custom Sound...", func() {
		fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, win)
				return
			}
			if reader == nil {
				return
			}
			path := reader.URI().Path()
			_ = reader.Close()

			if err := sound.ValidateFile(path); err != nil {
				dialog.ShowError(fmt.Errorf("invalid audio file: %w\n\nSupported formats: .mp3, .wav, .ogg", err), win)
				return
			}
			update(func(v *config.Values) { v.SoundFile = path })
			showSoundPath(path)
		}, win)
		fd.SetFilter(storage.NewExtensionFileFilter([]string{".mp3", ".wav", ".ogg"}))
		fd.Resize(fyne.NewSize(800, 600))
		fd.Show()
	})

	resetSoundBtn := widget.NewButton("Reset", func() {
		update(func(v *config.Values) { v.SoundFile = "" })
		showSoundPath("")
	})

	testSoundBtn := widget.NewButton("Test", func() {
		path := cfg.Values().SoundFile
		go func() {
			if err := sound.Play(path); err != nil {
				log.Warn().Err(err).Msg("Failed to play sound")
			}
		}()
	})

	soundBox := container.NewVBox(
		widget.NewLabel("Completion sound:"),
		soundPathLabel,
		soundStatusLabel,
		container.NewHBox(selectSoundBtn, resetSoundBtn, testSoundBtn),
	)

	mainCard := widget.NewCard("Settings", cfg.Path(), container.NewVBox(
		idleBox,
		widget.NewSeparator(),
		themeBox,
		widget.NewSeparator(),
		soundBox,
	))

	return container.NewVScroll(mainCard)
}
