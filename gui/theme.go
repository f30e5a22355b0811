package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

var (
	colorSteamBlue = &color.NRGBA{R: 0x66, G: 0xC0, B: 0xF4, A: 0xff}
	colorSteamNavy = &color.NRGBA{R: 0x1B, G: 0x28, B: 0x38, A: 0xff}
)

// CardidleTheme supports a forced color variant and a custom text size.
type CardidleTheme struct {
	fyne.Theme
	variant  *fyne.ThemeVariant // nil follows the system
	textSize float32
}

// Color overrides the default to use our forced variant and custom colors.
func (t *CardidleTheme) Color(name fyne.ThemeColorName, v fyne.ThemeVariant) color.Color {
	finalVariant := v
	if t.variant != nil {
		finalVariant = *t.variant
	}

	switch name {
	case theme.ColorNamePrimary, theme.ColorNameFocus:
		return colorSteamBlue
	case theme.ColorNameBackground:
		if finalVariant == theme.VariantDark {
			return colorSteamNavy
		}
	case theme.ColorNameSeparator:
		if finalVariant == theme.VariantDark {
			return &color.NRGBA{R: 0x4A, B: 0x4A, G: 0x4A, A: 0xff}
		}
		return &color.NRGBA{R: 0xD0, B: 0xD0, G: 0xD0, A: 0xff}
	}

	return t.Theme.Color(name, finalVariant)
}

func (t *CardidleTheme) Size(name fyne.ThemeSizeName) float32 {
	if t.textSize > 0 && name == theme.SizeNameText {
		return t.textSize
	}
	return t.Theme.Size(name)
}

// NewTheme builds a theme for a variant name ("Light", "Dark" or anything else
// for the system default) and a size name.
func NewTheme(variantName, sizeName string) *CardidleTheme {
	customTheme := &CardidleTheme{Theme: theme.DefaultTheme()}

	switch variantName {
	case "Light":
		lightVariant := theme.VariantLight
		customTheme.variant = &lightVariant
	case "Dark":
		darkVariant := theme.VariantDark
		customTheme.variant = &darkVariant
	}

	switch sizeName {
	case "Small":
		customTheme.textSize = 12
	case "Normal":
		customTheme.textSize = 14
	case "Large":
		customTheme.textSize = 16
	case "Extra Large":
		customTheme.textSize = 18
	}
	return customTheme
}

// CreateThemeFromPreferences reads the UI preferences and constructs the appropriate theme.
func CreateThemeFromPreferences() fyne.Theme {
	prefs := fyne.CurrentApp().Preferences()
	return NewTheme(
		prefs.StringWithFallback("theme", "System Default"),
		prefs.StringWithFallback("fontSize", "Normal"),
	)
}
