package views

import (
	"github.com/charmbracelet/lipgloss"

	"recipefinder/internal/storage"
)

// Palette is the set of styles for one theme.
type Palette struct {
	Name     string
	Title    lipgloss.Style
	Tag      lipgloss.Style
	Fav      lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Status   lipgloss.Style
	Error    lipgloss.Style
	Pane     lipgloss.Style
	Dialog   lipgloss.Style
	Header   lipgloss.Style
}

// DarkPalette is the default theme.
func DarkPalette() *Palette {
	return &Palette{
		Name:     storage.ThemeDark,
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")),
		Tag:      lipgloss.NewStyle().Foreground(lipgloss.Color("109")),
		Fav:      lipgloss.NewStyle().Foreground(lipgloss.Color("204")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		Status: lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1),
		Error: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		Pane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		Dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
		Header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("215")),
	}
}

// LightPalette is the light theme.
func LightPalette() *Palette {
	return &Palette{
		Name:     storage.ThemeLight,
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("235")),
		Tag:      lipgloss.NewStyle().Foreground(lipgloss.Color("24")),
		Fav:      lipgloss.NewStyle().Foreground(lipgloss.Color("161")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("126")),
		Status: lipgloss.NewStyle().
			Background(lipgloss.Color("254")).
			Foreground(lipgloss.Color("235")).
			Padding(0, 1),
		Error: lipgloss.NewStyle().Foreground(lipgloss.Color("160")),
		Pane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("250")).
			Padding(0, 1),
		Dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(1, 2),
		Header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("166")),
	}
}

// PaletteFor returns the palette for a stored theme name; anything but
// "light" is dark.
func PaletteFor(theme string) *Palette {
	if theme == storage.ThemeLight {
		return LightPalette()
	}
	return DarkPalette()
}
