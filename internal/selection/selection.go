// Package selection tracks which scanned items the user has picked.
//
// Operations that take an index work on the filtered sequence the caller
// passes in. The range anchor is remembered by item id and resolved against
// that sequence on every use, so changing the filter never leaves a stale
// index behind.
package selection

import (
	"sort"

	"rio-cli/internal/model"
)

// Modifiers describes the keys held during a click.
type Modifiers struct {
	Shift bool
	// Ctrl also covers Cmd on macOS terminals.
	Ctrl bool
}

type Manager struct {
	selected map[string]struct{}

	anchorID string
	// rangeTarget is the membership a shift-range from a toggle-set anchor
	// applies: the direction the plain or ctrl click went. When the anchor
	// came from a range click (rangeFromState), the target is instead the
	// inverse of the anchor's membership at the time of the next range click.
	rangeTarget    bool
	rangeFromState bool
}

func New() *Manager {
	return &Manager{selected: map[string]struct{}{}}
}

func (m *Manager) Has(id string) bool {
	_, ok := m.selected[id]
	return ok
}

func (m *Manager) Count() int { return len(m.selected) }

// IDs returns the selected ids in sorted order.
func (m *Manager) IDs() []string {
	out := make([]string, 0, len(m.selected))
	for id := range m.selected {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns a copy of the selected set for read-only consumers.
func (m *Manager) Snapshot() map[string]bool {
	out := make(map[string]bool, len(m.selected))
	for id := range m.selected {
		out[id] = true
	}
	return out
}

// Set forces membership of id. This is the checkbox path: it does not move
// the range anchor.
func (m *Manager) Set(id string, on bool) {
	if id == "" {
		return
	}
	if on {
		m.selected[id] = struct{}{}
		return
	}
	delete(m.selected, id)
}

// Toggle flips membership of id and returns the new membership.
func (m *Manager) Toggle(id string) bool {
	on := !m.Has(id)
	m.Set(id, on)
	return on
}

// AnchorIndex resolves the anchor within filtered. It returns -1 when there
// is no anchor or the anchor item is not part of filtered.
func (m *Manager) AnchorIndex(filtered []model.Item) int {
	if m.anchorID == "" {
		return -1
	}
	for i, it := range filtered {
		if it.ID == m.anchorID {
			return i
		}
	}
	return -1
}

// Click applies click semantics to filtered[i].
//
// Shift with a visible anchor applies the anchor's range target to the
// inclusive range between anchor and i. Any other click toggles the item;
// plain and ctrl clicks behave the same. The clicked item always becomes the
// new anchor.
func (m *Manager) Click(filtered []model.Item, i int, mods Modifiers) {
	if i < 0 || i >= len(filtered) {
		return
	}
	it := filtered[i]

	if mods.Shift {
		if a := m.AnchorIndex(filtered); a >= 0 {
			target := m.rangeTarget
			if m.rangeFromState {
				target = !m.Has(m.anchorID)
			}
			lo, hi := min(a, i), max(a, i)
			for k := lo; k <= hi; k++ {
				m.Set(filtered[k].ID, target)
			}
			m.anchorID = it.ID
			m.rangeFromState = true
			return
		}
	}

	m.rangeTarget = m.Toggle(it.ID)
	m.rangeFromState = false
	m.anchorID = it.ID
}

// SelectAll adds every filtered item.
func (m *Manager) SelectAll(filtered []model.Item) {
	for _, it := range filtered {
		m.selected[it.ID] = struct{}{}
	}
}

func (m *Manager) UnselectAll() {
	m.selected = map[string]struct{}{}
}

// Invert replaces the selection with the filtered items that were not
// selected. Selected items hidden by the filter do not survive.
func (m *Manager) Invert(filtered []model.Item) {
	next := make(map[string]struct{}, len(filtered))
	for _, it := range filtered {
		if !m.Has(it.ID) {
			next[it.ID] = struct{}{}
		}
	}
	m.selected = next
}

// Reset clears the selection and forgets the anchor (new job).
func (m *Manager) Reset() {
	m.UnselectAll()
	m.anchorID = ""
	m.rangeTarget = false
	m.rangeFromState = false
}

// Prune drops selected ids that are not present in items.
func (m *Manager) Prune(items []model.Item) {
	present := make(map[string]struct{}, len(items))
	for _, it := range items {
		present[it.ID] = struct{}{}
	}
	for id := range m.selected {
		if _, ok := present[id]; !ok {
			delete(m.selected, id)
		}
	}
	if _, ok := present[m.anchorID]; !ok {
		m.anchorID = ""
	}
}
