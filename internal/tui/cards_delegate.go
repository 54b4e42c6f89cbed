package tui

import (
	"image"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"rio-cli/internal/grid"
	"rio-cli/internal/lightbox"
	"rio-cli/internal/model"
)

// renderCard draws one card, cardHeight lines tall and width cells wide.
// The checkbox sits at row 1, columns 1-3, which cardAt relies on.
func renderCard(c grid.Card, width int, cursor bool) string {
	inner := max(width-2, 4)

	box := "[ ]"
	if c.Checked {
		box = "[x]"
	}
	kind := strings.ToUpper(c.Kind)
	if kind == "" {
		kind = "?"
	}
	lines := []string{
		fitLine(box+" "+styleMuted().Render("#"+strconv.Itoa(c.Index+1)), inner),
		fitLine(kind+" "+c.Format, inner),
		fitLine(c.Dims+"  "+c.Size, inner),
		fitLine(styleMuted().Render(xansi.Truncate(c.URL, inner, "…")), inner),
	}

	border := lipgloss.RoundedBorder()
	fg := colorCardBorder
	if c.Checked {
		fg = colorCheckedBorder
	}
	if cursor {
		border = lipgloss.ThickBorder()
		fg = colorCursorBorder
	}
	st := lipgloss.NewStyle().
		Border(border).
		BorderForeground(fg).
		Foreground(colorCardMetaFg).
		Width(inner)
	if c.Checked {
		st = st.Background(colorSelectedBg).Foreground(colorSelectedFg)
	}
	return st.Render(strings.Join(lines, "\n"))
}

// renderGrid lays out the visible rows of cards. Rows before scroll are
// skipped.
func renderGrid(v grid.View, size model.ThumbSize, width, height, scroll, cursor int) string {
	if len(v.Cards) == 0 {
		return ""
	}
	cw := grid.CardWidth(size)
	cols := grid.Columns(width, size)
	rows := max(height/cardHeight, 1)

	var out []string
	for r := scroll; r < scroll+rows; r++ {
		start := r * cols
		if start >= len(v.Cards) {
			break
		}
		end := min(start+cols, len(v.Cards))
		var cells []string
		for i := start; i < end; i++ {
			if i > start {
				cells = append(cells, " ")
			}
			cells = append(cells, renderCard(v.Cards[i], cw, i == cursor))
		}
		out = append(out, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(out, "\n")
}

// lightboxPaint renders img centered in a cols x rows area.
func lightboxPaint(img image.Image, cols, rows int) string {
	return lipgloss.Place(cols, rows, lipgloss.Center, lipgloss.Center, lightbox.Paint(img, cols, rows))
}
