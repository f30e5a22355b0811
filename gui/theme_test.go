package gui_test

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/theme"
	"github.com/habedi/cardidle/gui"
	"github.com/stretchr/testify/assert"
)

func TestNewTheme(t *testing.T) {
	def := theme.DefaultTheme()

	t.Run("forced dark variant", func(t *testing.T) {
		th := gui.NewTheme("Dark", "Normal")
		assert.Equal(t,
			def.Color(theme.ColorNameForeground, theme.VariantDark),
			th.Color(theme.ColorNameForeground, theme.VariantLight),
			"should ignore the requested variant")
		assert.NotEqual(t,
			def.Color(theme.ColorNameBackground, theme.VariantDark),
			th.Color(theme.ColorNameBackground, theme.VariantLight))
	})

	t.Run("system variant", func(t *testing.T) {
		th := gui.NewTheme("System Default", "")
		assert.Equal(t,
			def.Color(theme.ColorNameForeground, theme.VariantLight),
			th.Color(theme.ColorNameForeground, theme.VariantLight))
		assert.Equal(t, def.Size(theme.SizeNameText), th.Size(theme.SizeNameText))
	})

	t.Run("text size", func(t *testing.T) {
		th := gui.NewTheme("Light", "Large")
		assert.Equal(t, float32(16), th.Size(theme.SizeNameText))
		assert.Equal(t, def.Size(theme.SizeNamePadding), th.Size(theme.SizeNamePadding))
	})

	t.Run("delegates icons and fonts", func(t *testing.T) {
		th := gui.NewTheme("Dark", "Small")
		assert.Equal(t, def.Icon(theme.IconNameHome), th.Icon(theme.IconNameHome))
		assert.Equal(t, def.Font(fyne.TextStyle{Bold: true}), th.Font(fyne.TextStyle{Bold: true}))
	})
}

func TestCreateThemeFromPreferences(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()
	a.Preferences().SetString("fontSize", "Extra Large")
	th := gui.CreateThemeFromPreferences()
	assert.Equal(t, float32(18), th.Size(theme.SizeNameText))
}
