package gui

import (
	"fmt"
	"path/filepath"
	"runtime"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/habedi/cardidle/config"
)

// ShowAboutUI shows the version and where cardidle keeps its files. Tapping a
// path copies it.
func ShowAboutUI(version string, cfg *config.Instance) fyne.CanvasObject {
	platform := fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
	lbl := widget.NewLabel(fmt.Sprintf(
		"Cardidle: idles Steam trading card drops\nVersion: %s, Platform: %s, Go Version: %s",
		version, platform, runtime.Version(),
	))
	lbl.Alignment = fyne.TextAlignCenter
	lbl.TextStyle = fyne.TextStyle{Bold: true}

	dir := config.Dir()
	helper := cfg.Values().HelperPath
	if helper == "" {
		helper = "(not set)"
	}
	paths := container.NewGridWithColumns(2,
		widget.NewLabel("Data directory"), NewCopyableLabel(dir),
		widget.NewLabel("Settings file"), NewCopyableLabel(cfg.Path()),
		widget.NewLabel("Log file"), NewCopyableLabel(filepath.Join(dir, "cardidle.log")),
		widget.NewLabel("Idle helper"), NewCopyableLabel(helper),
	)

	copyright := widget.NewLabel("© 2025 Hassan Abedi")
	return container.NewVBox(
		container.NewCenter(lbl),
		widget.NewCard("Files", "Tap a path to copy it", paths),
		container.NewCenter(copyright),
	)
}
