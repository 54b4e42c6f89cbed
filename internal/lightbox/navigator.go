// Package lightbox implements the modal image browser: navigation over the
// filtered images, the source fallback chain, and terminal painting.
package lightbox

import (
	"fmt"

	"rio-cli/internal/model"
)

// Navigator tracks which image of the filtered set is on screen. Its scope
// is rebuilt on every Open and never shared with the selection.
type Navigator struct {
	items   []model.Item
	index   int
	visible bool
}

// Open scopes the navigator to the images in filtered and shows id. It is a
// no-op returning false when id is not among them.
func (n *Navigator) Open(filtered []model.Item, id string) bool {
	var images []model.Item
	at := -1
	for _, it := range filtered {
		if !it.IsImage() {
			continue
		}
		if it.ID == id {
			at = len(images)
		}
		images = append(images, it)
	}
	if at < 0 {
		return false
	}
	n.items = images
	n.index = at
	n.visible = true
	return true
}

func (n *Navigator) Close() {
	n.visible = false
	n.items = nil
	n.index = 0
}

func (n *Navigator) Visible() bool { return n.visible }

func (n *Navigator) Len() int { return len(n.items) }

func (n *Navigator) Index() int { return n.index }

func (n *Navigator) Current() (model.Item, bool) {
	if !n.visible || len(n.items) == 0 {
		return model.Item{}, false
	}
	return n.items[n.index], true
}

func (n *Navigator) Next() {
	if !n.visible || len(n.items) == 0 {
		return
	}
	n.index = (n.index + 1) % len(n.items)
}

func (n *Navigator) Prev() {
	if !n.visible || len(n.items) == 0 {
		return
	}
	n.index = (n.index - 1 + len(n.items)) % len(n.items)
}

// Counter renders the 1-based position, e.g. "2 / 5".
func (n *Navigator) Counter() string {
	if !n.visible || len(n.items) == 0 {
		return ""
	}
	return fmt.Sprintf("%d / %d", n.index+1, len(n.items))
}

// HandleKey applies esc/left/right while visible and reports whether the key
// was consumed.
func (n *Navigator) HandleKey(key string) bool {
	if !n.visible {
		return false
	}
	switch key {
	case "esc":
		n.Close()
	case "left", "h":
		n.Prev()
	case "right", "l":
		n.Next()
	default:
		return false
	}
	return true
}
