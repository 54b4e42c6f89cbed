// Package grid projects items, filter and selection into a render-ready view.
// It holds no state; painting is left to the caller.
package grid

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"rio-cli/internal/filter"
	"rio-cli/internal/model"
)

// Hint explains an empty grid.
type Hint int

const (
	HintNone Hint = iota
	// HintEmpty: the job produced nothing displayable.
	HintEmpty
	// HintFiltered: items exist but the current filter hides all of them.
	HintFiltered
)

func (h Hint) Message() string {
	switch h {
	case HintEmpty:
		return "No items."
	case HintFiltered:
		return "All items are hidden by the current filters."
	default:
		return ""
	}
}

type Card struct {
	Index   int
	ID      string
	Kind    string
	Format  string
	Dims    string
	URL     string
	Tooltip string
	Checked bool
	Thumb   string
	Size    string
	IsImage bool
}

type View struct {
	Cards         []Card
	Total         int
	Visible       int
	Hidden        int
	SelectedCount int
	Hint          Hint
}

// ThumbFunc resolves the thumbnail reference for an item of a job.
type ThumbFunc func(jobID, itemID string) string

// Project builds the view for items under st. Given equal inputs it returns
// an equal View.
func Project(items []model.Item, st model.FilterState, selected map[string]bool, jobID string, thumb ThumbFunc) View {
	visible := filter.Apply(items, st)
	v := View{
		Total:   len(items),
		Visible: len(visible),
		Hidden:  filter.Hidden(items, st),
		Cards:   make([]Card, 0, len(visible)),
	}
	for i, it := range visible {
		c := Card{
			Index:   i,
			ID:      it.ID,
			Kind:    strings.ToUpper(string(it.Kind)),
			Format:  FormatBadge(it),
			Dims:    Dims(it),
			URL:     it.URL,
			Tooltip: it.URL,
			Checked: selected[it.ID],
			IsImage: it.IsImage(),
		}
		if thumb != nil && jobID != "" {
			c.Thumb = thumb(jobID, it.ID)
		}
		if it.Size > 0 {
			c.Size = humanize.Bytes(uint64(it.Size))
		}
		if c.Checked {
			v.SelectedCount++
		}
		v.Cards = append(v.Cards, c)
	}
	if len(visible) == 0 {
		if filter.Displayable(items) == 0 {
			v.Hint = HintEmpty
		} else {
			v.Hint = HintFiltered
		}
	}
	return v
}

// FormatBadge prefers the probed format and falls back to the content type.
func FormatBadge(it model.Item) string {
	if f := strings.TrimSpace(it.Fmt); f != "" {
		return f
	}
	return strings.TrimSpace(it.CT)
}

func Dims(it model.Item) string {
	if !it.HasDimensions() {
		return "-"
	}
	return strconv.Itoa(it.W) + "x" + strconv.Itoa(it.H)
}

// CardWidth is the terminal cell width of one card for a thumbnail class.
func CardWidth(size model.ThumbSize) int {
	return size.Pixels()/8 + 2
}

// Columns returns how many cards fit side by side in width cells, with a
// one-cell gutter between cards. Never less than one.
func Columns(width int, size model.ThumbSize) int {
	cw := CardWidth(size)
	if width <= cw {
		return 1
	}
	return (width + 1) / (cw + 1)
}
