package views

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 80

// Renderer writes cards, details and label lists as text
type Renderer struct {
	writer  io.Writer
	width   int
	palette *Palette
}

// NewRenderer creates a new text renderer. width <= 0 means DefaultWidth.
func NewRenderer(writer io.Writer, width int, palette *Palette) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	if palette == nil {
		palette = DarkPalette()
	}
	return &Renderer{writer: writer, width: width, palette: palette}
}

// Cards renders a recipe grid as one line per card.
func (r *Renderer) Cards(cards []Card) {
	if len(cards) == 0 {
		_, _ = fmt.Fprintln(r.writer, NoRecipesMessage)
		return
	}

	titleWidth := r.width - 32
	if titleWidth < 20 {
		titleWidth = 20
	}
	for _, c := range cards {
		_, _ = fmt.Fprintln(r.writer, r.cardLine(c, titleWidth))
	}
}

func (r *Renderer) cardLine(c Card, titleWidth int) string {
	fav := "♡"
	if c.Favorite {
		fav = r.palette.Fav.Render("♥")
	}
	title := fmt.Sprintf("%-*s", titleWidth, Truncate(c.Title, titleWidth))
	tag := fmt.Sprintf("%-14s", Truncate(c.Tag, 14))
	return fmt.Sprintf("%s %s %s %s", fav, r.palette.Title.Render(title), r.palette.Tag.Render(tag), r.palette.Muted.Render(c.ID))
}

// Favorites renders the favorites drawer listing.
func (r *Renderer) Favorites(cards []Card) {
	if len(cards) == 0 {
		_, _ = fmt.Fprintln(r.writer, NoFavorites)
		return
	}
	_, _ = fmt.Fprintf(r.writer, "Favorites (%d):\n\n", len(cards))
	r.Cards(cards)
}

// Detail renders one recipe in full.
func (r *Renderer) Detail(d Detail) {
	_, _ = fmt.Fprintln(r.writer, r.palette.Header.Render(d.Title))

	var meta []string
	if d.Category != "" {
		meta = append(meta, d.Category)
	}
	if d.Area != "" {
		meta = append(meta, d.Area)
	}
	if len(meta) > 0 {
		_, _ = fmt.Fprintln(r.writer, r.palette.Tag.Render(strings.Join(meta, " · ")))
	}
	if len(d.Tags) > 0 {
		_, _ = fmt.Fprintln(r.writer, r.palette.Muted.Render("Tags: "+strings.Join(d.Tags, ", ")))
	}

	_, _ = fmt.Fprintln(r.writer)
	_, _ = fmt.Fprintln(r.writer, r.palette.Title.Render("Ingredients"))
	for _, line := range d.Ingredients {
		_, _ = fmt.Fprintf(r.writer, "  • %s\n", line)
	}

	if d.Instructions != "" {
		_, _ = fmt.Fprintln(r.writer)
		_, _ = fmt.Fprintln(r.writer, r.palette.Title.Render("Instructions"))
		_, _ = fmt.Fprintln(r.writer, Wrap(d.Instructions, r.width))
	}

	if d.YouTube != "" || d.Source != "" {
		_, _ = fmt.Fprintln(r.writer)
	}
	if d.YouTube != "" {
		_, _ = fmt.Fprintf(r.writer, "Video:  %s\n", d.YouTube)
	}
	if d.Source != "" {
		_, _ = fmt.Fprintf(r.writer, "Source: %s\n", d.Source)
	}

	_, _ = fmt.Fprintln(r.writer)
	_, _ = fmt.Fprintf(r.writer, "[%s]  id %s\n", d.FavLabel, d.ID)
}

// Labels renders a titled list of filter labels.
func (r *Renderer) Labels(title string, labels []string) {
	_, _ = fmt.Fprintf(r.writer, "%s (%d):\n", title, len(labels))
	for _, l := range labels {
		_, _ = fmt.Fprintf(r.writer, "  %s\n", l)
	}
}

// Wrap word-wraps text to width, keeping paragraph breaks.
func Wrap(text string, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return lipgloss.NewStyle().Width(width).Render(text)
}

// Truncate shortens s to at most n runes, ending in "…" when cut.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(runes) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(runes[:n-1]) + "…"
}

// WriteJSON writes v as a single JSON line.
func WriteJSON(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
