package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"recipefinder/internal/views"
)

// View renders the TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		m.width = 80
		m.height = 24
	}

	switch m.mode {
	case ModeHelp:
		return m.renderHelpDialog()
	case ModePicker:
		return m.renderPickerDialog()
	case ModeConfirmClear:
		return m.renderConfirmClearDialog()
	}

	var body string
	switch m.mode {
	case ModeDetail:
		body = m.renderDetailPane()
	case ModeFavorites:
		body = m.renderFavoritesPane()
	default:
		body = m.renderGridPane()
	}

	paneHeight := m.height - 5
	if paneHeight < 3 {
		paneHeight = 3
	}
	pane := m.palette.Pane.Width(m.width - 2).Height(paneHeight).Render(body)

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(pane)
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m *Model) renderHeader() string {
	title := m.palette.Header.Render("Recipe Finder")
	search := m.search.View()
	if m.mode != ModeSearch && m.search.Value() == "" {
		search = m.palette.Muted.Render("/ to search")
	}

	var filters []string
	if m.selCategory != "" {
		filters = append(filters, "category: "+m.selCategory)
	}
	if m.selArea != "" {
		filters = append(filters, "area: "+m.selArea)
	}
	filterText := ""
	if len(filters) > 0 {
		filterText = "  " + m.palette.Tag.Render("["+strings.Join(filters, ", ")+"]")
	}

	favs := 0
	if m.favs != nil {
		favs = m.favs.Len()
	}
	right := m.palette.Fav.Render(fmt.Sprintf("♥ %d", favs)) + "  " + m.palette.Muted.Render(m.theme)

	left := title + "  " + search + filterText
	pad := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if pad < 1 {
		pad = 1
	}
	return left + strings.Repeat(" ", pad) + right
}

func (m *Model) renderGridPane() string {
	var b strings.Builder
	b.WriteString(m.palette.Title.Render(m.heading))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", max(1, m.width-6)))
	b.WriteString("\n")

	if m.loading[regionGrid] && len(m.grid) == 0 {
		b.WriteString(m.palette.Muted.Render(msgLoading))
		b.WriteString("\n")
		return b.String()
	}
	if len(m.grid) == 0 {
		b.WriteString(msgNoRecipes + "\n")
		return b.String()
	}

	titleWidth := max(20, m.width-36)
	start, end := window(m.cursor, len(m.grid), max(1, m.height-9))
	for i := start; i < end; i++ {
		b.WriteString(m.renderCard(m.grid[i], i == m.cursor, titleWidth))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderCard(c views.Card, selected bool, titleWidth int) string {
	cursor := " "
	title := fmt.Sprintf("%-*s", titleWidth, views.Truncate(c.Title, titleWidth))
	if selected {
		cursor = ">"
		title = m.palette.Selected.Render(title)
	}
	label := m.palette.Muted.Render(c.FavLabel)
	if c.Favorite {
		label = m.palette.Fav.Render(c.FavLabel)
	}
	tag := m.palette.Tag.Render(fmt.Sprintf("%-12s", views.Truncate(c.Tag, 12)))
	return cursor + " " + title + " " + tag + " " + label
}

func (m *Model) renderDetailPane() string {
	if m.detail == nil {
		return m.palette.Muted.Render(msgLoading)
	}
	d := m.detail

	var b strings.Builder
	b.WriteString(m.palette.Header.Render(d.Title))
	b.WriteString("\n")
	meta := strings.TrimSpace(d.Category + "  " + d.Area)
	if meta != "" {
		b.WriteString(m.palette.Tag.Render(meta))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.palette.Title.Render("Ingredients"))
	b.WriteString("\n")
	for _, line := range d.Ingredients {
		b.WriteString("  • " + line + "\n")
	}

	if d.Instructions != "" {
		b.WriteString("\n")
		b.WriteString(m.palette.Title.Render("Instructions"))
		b.WriteString("\n")
		b.WriteString(views.Wrap(d.Instructions, max(20, m.width-8)))
		b.WriteString("\n")
	}
	if d.YouTube != "" {
		b.WriteString("\nVideo: " + d.YouTube + "\n")
	}

	label := m.palette.Muted.Render("[" + d.FavLabel + "]")
	if d.Favorite {
		label = m.palette.Fav.Render("[" + d.FavLabel + "]")
	}
	b.WriteString("\n" + label + "  " + m.palette.Muted.Render("f: toggle  esc: back"))
	return b.String()
}

func (m *Model) renderFavoritesPane() string {
	var b strings.Builder
	b.WriteString(m.palette.Title.Render("Favorites"))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", max(1, m.width-6)))
	b.WriteString("\n")

	if m.loading[regionFavorites] {
		b.WriteString(m.palette.Muted.Render(msgLoading) + "\n")
		return b.String()
	}
	if len(m.favCards) == 0 {
		b.WriteString(views.NoFavorites + "\n")
		return b.String()
	}

	for i, c := range m.favCards {
		cursor := " "
		title := c.Title
		if i == m.favCursor {
			cursor = ">"
			title = m.palette.Selected.Render(title)
		}
		b.WriteString(cursor + " " + title + "\n")
	}
	b.WriteString("\n" + m.palette.Muted.Render("enter: view  x: remove  C: clear all  esc: close"))
	return b.String()
}

func (m *Model) renderStatusBar() string {
	left := m.status.text
	if m.status.isErr {
		left = m.palette.Error.Render(left)
	}

	right := "q:quit  ?:help"
	padding := m.width - lipgloss.Width(left) - len(right) - 2
	if padding < 1 {
		padding = 1
	}

	return m.palette.Status.Width(m.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m *Model) renderPickerDialog() string {
	title := "Filter by category"
	if m.picker == pickArea {
		title = "Filter by area"
	}

	items := m.pickerItems()
	start, end := window(m.pickerCursor, len(items), max(3, m.height-10))

	var b strings.Builder
	b.WriteString(title + "\n\n")
	for i := start; i < end; i++ {
		line := "  " + items[i]
		if i == m.pickerCursor {
			line = m.palette.Selected.Render("> " + items[i])
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n" + m.palette.Muted.Render("Enter: select  Esc: cancel"))
	return m.centerDialog(m.palette.Dialog.Render(b.String()))
}

func (m *Model) renderHelpDialog() string {
	help := `Help - Key Bindings

Navigation:
  j/↓    Move down
  k/↑    Move up
  Enter  Open recipe
  Esc    Back

Browse:
  /      Search (Enter submits)
  c      Filter by category
  a      Filter by area
  r      Random recipes
  f      Toggle favorite
  F      Favorites drawer
  t      Toggle light/dark theme

Favorites drawer:
  x      Remove favorite
  C      Clear all favorites

General:
  ?      Show this help
  q      Quit

Press any key to close`

	return m.centerDialog(m.palette.Dialog.Render(help))
}

func (m *Model) renderConfirmClearDialog() string {
	dialog := m.palette.Dialog.Render(
		"Clear all favorites?\n\n" +
			m.palette.Muted.Render("y: yes  n: no"),
	)
	return m.centerDialog(dialog)
}

func (m *Model) centerDialog(dialog string) string {
	lines := strings.Split(dialog, "\n")
	dialogHeight := len(lines)
	dialogWidth := lipgloss.Width(dialog)

	topPad := (m.height - dialogHeight) / 2
	leftPad := (m.width - dialogWidth) / 2
	if topPad < 0 {
		topPad = 0
	}
	if leftPad < 0 {
		leftPad = 0
	}

	var b strings.Builder
	for i := 0; i < topPad; i++ {
		b.WriteString("\n")
	}
	for _, line := range lines {
		b.WriteString(strings.Repeat(" ", leftPad))
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// window returns the visible [start, end) slice of n rows of which at most
// size fit, keeping cursor on screen.
func window(cursor, n, size int) (int, int) {
	if n <= size {
		return 0, n
	}
	start := cursor - size/2
	if start < 0 {
		start = 0
	}
	if start+size > n {
		start = n - size
	}
	return start, start + size
}
