package tui

import (
	"context"
	"image"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"rio-cli/internal/app"
	"rio-cli/internal/grid"
	"rio-cli/internal/model"
)

type appModel struct {
	session *app.Session
	ctx     context.Context
	now     func() time.Time

	width          int
	height         int
	seenWindowSize bool

	// st is refreshed from the session after every state change; View only
	// reads it.
	st app.State

	focus focusArea
	url   textinput.Model

	cursor int
	// scroll is the first visible grid row.
	scroll int

	modal modalKind

	noticeTitle string
	noticeBody  string
	noticeErr   bool

	confirmFocus confirmModalFocus
	pendingTool  model.Tool

	minW        textinput.Model
	minH        textinput.Model
	filterFocus int
	destInput   textinput.Model

	helpView viewport.Model

	keys     keyMap
	help     help.Model
	progress progress.Model
	spinner  spinner.Model

	// busy names an in-flight request; repeated keys are ignored meanwhile.
	busy string

	lbSeq    int
	lbID     string
	lbImg    image.Image
	lbSrc    string
	lbErr    error
	lbPaint  string
	lbPaintW int
	lbPaintH int

	minibufferText  string
	minibufferSetAt time.Time
}

func newAppModel(ctx context.Context, s *app.Session) appModel {
	if ctx == nil {
		ctx = context.Background()
	}
	url := textinput.New()
	url.Placeholder = "https://example.com/gallery"
	url.Prompt = "URL: "
	url.CharLimit = 4096

	minW := textinput.New()
	minW.Prompt = "Min width:  "
	minW.CharLimit = 6
	minH := textinput.New()
	minH.Prompt = "Min height: "
	minH.CharLimit = 6

	dest := textinput.New()
	dest.Prompt = "Folder: "
	dest.CharLimit = 4096

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := appModel{
		session:   s,
		ctx:       ctx,
		now:       time.Now,
		url:       url,
		minW:      minW,
		minH:      minH,
		destInput: dest,
		helpView:  viewport.New(0, 0),
		keys:      defaultKeyMap(),
		help:      help.New(),
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		spinner:   sp,
		width:     100,
		height:    30,
	}
	m.refresh()
	m.focusURL()
	return m
}

// refresh re-reads the session and keeps the cursor and scroll in range.
func (m *appModel) refresh() {
	m.st = m.session.Snapshot()
	n := len(m.st.Grid.Cards)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.syncToolKeys()
	m.ensureCursorVisible()
}

// syncToolKeys disables the direct-download keys for unavailable tools.
func (m *appModel) syncToolKeys() {
	gdl := !m.st.ToolsLoaded || m.st.Tools.Info(model.ToolGalleryDL).Available
	ytdlp := !m.st.ToolsLoaded || m.st.Tools.Info(model.ToolYTDLP).Available
	m.keys.DirectGDL.SetEnabled(gdl)
	m.keys.DirectYTDLP.SetEnabled(ytdlp)
}

func (m appModel) columns() int {
	return grid.Columns(m.width, m.st.ThumbSize)
}

func (m appModel) gridHeight() int {
	return max(m.height-headerHeight-footerHeight, cardHeight)
}

func (m appModel) visibleRows() int {
	return max(m.gridHeight()/cardHeight, 1)
}

func (m *appModel) ensureCursorVisible() {
	cols := m.columns()
	row := m.cursor / cols
	rows := m.visibleRows()
	if row < m.scroll {
		m.scroll = row
	}
	if row >= m.scroll+rows {
		m.scroll = row - rows + 1
	}
	total := (len(m.st.Grid.Cards) + cols - 1) / cols
	if m.scroll > max(total-rows, 0) {
		m.scroll = max(total-rows, 0)
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

func (m *appModel) moveCursor(delta int) {
	n := len(m.st.Grid.Cards)
	if n == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), n-1)
	m.ensureCursorVisible()
}

// currentCard returns the card under the cursor.
func (m appModel) currentCard() (grid.Card, bool) {
	if m.cursor < 0 || m.cursor >= len(m.st.Grid.Cards) {
		return grid.Card{}, false
	}
	return m.st.Grid.Cards[m.cursor], true
}

func (m *appModel) showMinibuffer(text string) {
	m.minibufferText = strings.TrimSpace(text)
	m.minibufferSetAt = m.now()
}

func (m *appModel) showNotice(title, body string, isErr bool) {
	m.modal = modalNotice
	m.noticeTitle = title
	m.noticeBody = body
	m.noticeErr = isErr
}

func (m *appModel) focusURL() {
	m.focus = focusURL
	m.url.Focus()
}

func (m *appModel) blurURL() {
	m.focus = focusGrid
	m.url.Blur()
}

func (m *appModel) openFilterModal() {
	m.modal = modalFilter
	m.filterFocus = 0
	m.minW.SetValue(intField(m.st.Filter.MinW))
	m.minH.SetValue(intField(m.st.Filter.MinH))
	m.minW.Focus()
	m.minH.Blur()
}

func (m *appModel) openDestModal() {
	m.modal = modalDest
	m.destInput.SetValue(m.st.DestDir)
	m.destInput.CursorEnd()
	m.destInput.Focus()
}

func (m *appModel) openHelp() {
	m.modal = modalHelp
	w := modalBodyWidth(m.width)
	m.helpView.Width = w
	m.helpView.Height = max(m.height-10, 5)
	m.helpView.SetContent(renderMarkdown(helpMarkdown, w))
	m.helpView.GotoTop()
}

func intField(v int) string {
	if v <= 0 {
		return ""
	}
	return strconv.Itoa(v)
}
