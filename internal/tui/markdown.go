package tui

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	mdRendererMu sync.Mutex
	// Renderers are cached per style and wrap width. WithAutoStyle is avoided
	// because its terminal queries can block.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	width = max(width, 10)

	style := markdownStyle()
	key := style + ":" + strconv.Itoa(width)

	mdRendererMu.Lock()
	defer mdRendererMu.Unlock()
	r := mdRenderers[key]
	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mdRenderers[key] = rr
		r = rr
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

// markdownStyle follows the TUI theme so help text stays legible when the
// theme is forced.
func markdownStyle() string {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("RIO_TUI_THEME"))) {
	case "light":
		return "light"
	case "dark":
		return "dark"
	}
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

const helpMarkdown = `# rio

Scan a page for media, pick what you want, download it.

## Scanning

| Key | Action |
|---|---|
| ` + "`/`" + ` | edit the URL (enter scans, esc returns to the grid) |
| ` + "`U`" + ` | toggle ultra scan |
| ` + "`s`" + ` | stop the running job |
| ` + "`c`" + ` | clear the job and its items |
| ` + "`G`" + ` / ` + "`Y`" + ` | download the URL directly with gallery-dl / yt-dlp |

## Selecting

| Key / mouse | Action |
|---|---|
| arrows, ` + "`hjkl`" + ` | move the cursor |
| ` + "`space`" + `, click | toggle the card and make it the anchor |
| ` + "`v`" + `, shift+click, shift+arrows | apply the anchor's action to the range up to the cursor |
| ` + "`x`" + `, click on ` + "`[ ]`" + ` | toggle only the checkbox |
| ` + "`a`" + ` / ` + "`A`" + ` / ` + "`i`" + ` | select all / unselect all / invert (visible items only) |
| ` + "`enter`" + `, double-click | open the image in the lightbox |
| ` + "`y`" + ` | copy the item URL |

## Filtering

| Key | Action |
|---|---|
| ` + "`f`" + ` | set minimum width and height |
| ` + "`1`" + `-` + "`4`" + ` | toggle jpg, png, gif, webp |
| ` + "`r`" + ` | reset filters |
| ` + "`t`" + ` | cycle thumbnail size |

Images without known dimensions and non-image items are never hidden by the
size filter; non-image items also ignore the format toggles.

## Downloading

| Key | Action |
|---|---|
| ` + "`d`" + ` | download the selection |
| ` + "`e`" + ` | cycle the engine (builtin, gallery-dl, yt-dlp) |
| ` + "`o`" + ` | change the destination folder |
| ` + "`T`" + ` | tools panel (versions, updates) |
`
