// Package filter decides which scanned items are visible for a given filter
// state. Everything here is pure: inputs are never mutated and output order
// equals input order.
package filter

import (
	"strings"

	"rio-cli/internal/model"
)

// SupportedFormats lists the format filter keys in display order.
var SupportedFormats = []string{"jpg", "png", "gif", "webp"}

// Apply returns the items visible under st.
func Apply(items []model.Item, st model.FilterState) []model.Item {
	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if Keep(it, st) {
			out = append(out, it)
		}
	}
	return out
}

// Keep evaluates the filter rules for a single item.
func Keep(it model.Item, st model.FilterState) bool {
	if it.Excluded() {
		return false
	}
	if !it.IsImage() {
		return true
	}
	if len(st.Formats) > 0 && !MatchesAny(it.Fmt, st.Formats) {
		return false
	}
	if it.HasDimensions() && (it.W < st.MinW || it.H < st.MinH) {
		return false
	}
	return true
}

// Hidden counts displayable items that the current filter hides. Items the
// backend excluded (ERR/BIG) are not counted.
func Hidden(items []model.Item, st model.FilterState) int {
	n := 0
	for _, it := range items {
		if it.Excluded() {
			continue
		}
		if !Keep(it, st) {
			n++
		}
	}
	return n
}

// Displayable counts items that are not permanently excluded.
func Displayable(items []model.Item) int {
	n := 0
	for _, it := range items {
		if !it.Excluded() {
			n++
		}
	}
	return n
}

// MatchesAny reports whether the item format satisfies one of the requested
// filter keys.
func MatchesAny(format string, keys map[string]bool) bool {
	for k, on := range keys {
		if on && Matches(format, k) {
			return true
		}
	}
	return false
}

// Matches compares an item format code against a filter key,
// case-insensitively. "jpg" accepts both JPG and any JPEG variant.
func Matches(format, key string) bool {
	f := strings.ToUpper(strings.TrimSpace(format))
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "jpg", "jpeg":
		return f == "JPG" || strings.Contains(f, "JPEG")
	case "png":
		return f == "PNG"
	case "gif":
		return f == "GIF"
	case "webp":
		return f == "WEBP"
	default:
		return f != "" && f == strings.ToUpper(strings.TrimSpace(key))
	}
}
