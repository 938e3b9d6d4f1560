package tui

import (
	"btrbk-restore/internal/theme"
)

// UITheme holds lipgloss color strings for every styled element.
type UITheme theme.PaletteResolved

func defaultUITheme() UITheme {
	return ThemeFromPalette(theme.DefaultPaletteHex())
}

// ThemeFromPalette resolves p for the current terminal.
func ThemeFromPalette(p theme.PaletteHex) UITheme {
	return UITheme(theme.ResolveForTerminal(p, theme.DetectTrueColor()))
}

func (t UITheme) withDefaults() UITheme {
	if t == (UITheme{}) {
		return defaultUITheme()
	}
	return t
}
