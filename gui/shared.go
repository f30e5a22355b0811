package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
)

// runOnMain schedules fn to run on the main Fyne thread
func runOnMain(fn func()) {
	fyne.Do(fn)
}

// formatSeconds renders a countdown as m:ss.
func formatSeconds(s int) string {
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
