package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"rio-cli/internal/app"
	"rio-cli/internal/grid"
	"rio-cli/internal/model"
	"rio-cli/internal/poller"
	"rio-cli/internal/selection"
)

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(_ time.Time) tea.Msg { return tickMsg{} })
}

// waitForPollEvent blocks on the session's event stream. It is re-issued
// after every delivered event.
func waitForPollEvent(ch <-chan poller.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return pollEventMsg{ev: ev}
	}
}

func (m appModel) initCmd() tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg { return initDoneMsg{err: s.Init(ctx)} }
}

func (m appModel) scanCmd(pageURL string) tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		id, err := s.StartScan(ctx, pageURL)
		return scanStartedMsg{jobID: id, err: err}
	}
}

func (m appModel) directCmd(engine model.Engine, pageURL string) tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		id, err := s.StartDirect(ctx, engine, pageURL, "")
		return directStartedMsg{engine: engine, jobID: id, err: err}
	}
}

func (m appModel) stopCmd() tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg { return stopDoneMsg{err: s.StopScan(ctx)} }
}

func (m appModel) downloadCmd() tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		res, err := s.DownloadSelected(ctx)
		return downloadDoneMsg{res: res, err: err}
	}
}

func (m appModel) loadToolsCmd() tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		_, err := s.LoadTools(ctx)
		return toolsLoadedMsg{err: err}
	}
}

func (m appModel) updateToolCmd(tool model.Tool) tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		res, err := s.UpdateTool(ctx, tool)
		return toolUpdatedMsg{tool: tool, res: res, err: err}
	}
}

func (m appModel) setDestCmd(path string) tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg { return destSetMsg{path: path, err: s.SetDest(ctx, path)} }
}

func (m appModel) loadLightboxCmd() tea.Cmd {
	s, ctx, seq := m.session, m.ctx, m.lbSeq
	return func() tea.Msg {
		img, src, err := s.LoadLightboxImage(ctx)
		return lightboxLoadedMsg{seq: seq, img: img, src: src, err: err}
	}
}

func copyCmd(what, text string) tea.Cmd {
	return func() tea.Msg { return copyDoneMsg{what: what, err: copyToClipboard(text)} }
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.seenWindowSize = true
		m.url.Width = max(msg.Width-len(m.url.Prompt)-2, 10)
		m.progress.Width = max(min(msg.Width/3, 40), 10)
		m.help.Width = msg.Width
		m.ensureCursorVisible()
		if m.modal == modalHelp {
			m.openHelp()
		}
		if m.modal == modalLightbox {
			m.repaintLightbox()
		}
		return m, nil

	case tickMsg:
		if m.minibufferText != "" && m.now().Sub(m.minibufferSetAt) >= minibufferAutoClearAfter {
			m.minibufferText = ""
		}
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case initDoneMsg:
		m.refresh()
		if msg.err != nil {
			m.showMinibuffer("Backend unavailable: " + msg.err.Error())
		}
		return m, nil

	case pollEventMsg:
		out := m.session.Apply(msg.ev)
		m.refresh()
		next := waitForPollEvent(m.session.Events())
		if !out.Applied || !out.Finished {
			return m, next
		}
		switch {
		case out.Err != nil:
			m.showNotice("Job failed", out.Err.Error(), true)
		case m.st.JobMode == poller.ModeDirect:
			m.showMinibuffer(fmt.Sprintf("Direct download %s: %s", out.Final.Status, out.Final.DisplayMessage()))
		case out.Final.Status == model.JobDone:
			m.cursor = 0
			m.scroll = 0
			m.showMinibuffer(fmt.Sprintf("Scan finished: %d item(s).", out.Items))
		default:
			m.showMinibuffer(fmt.Sprintf("Scan %s.", out.Final.Status))
		}
		return m, next

	case scanStartedMsg:
		m.busy = ""
		if msg.err != nil {
			m.refresh()
			return m, m.handleActionErr("Scan", msg.err)
		}
		m.cursor = 0
		m.scroll = 0
		m.refresh()
		m.blurURL()
		m.showMinibuffer("Scanning… (job " + msg.jobID + ")")
		return m, nil

	case directStartedMsg:
		m.busy = ""
		m.refresh()
		if msg.err != nil {
			return m, m.handleActionErr("Direct download", msg.err)
		}
		m.showMinibuffer(fmt.Sprintf("%s download started (job %s)", msg.engine, msg.jobID))
		return m, nil

	case stopDoneMsg:
		m.busy = ""
		m.refresh()
		if msg.err != nil {
			return m, m.handleActionErr("Stop", msg.err)
		}
		m.showMinibuffer("Stop requested.")
		return m, nil

	case downloadDoneMsg:
		m.busy = ""
		m.refresh()
		if msg.err != nil {
			return m, m.handleActionErr("Download", msg.err)
		}
		m.showNotice("Download finished", downloadSummary(msg.res), false)
		return m, nil

	case toolsLoadedMsg:
		m.refresh()
		if msg.err != nil {
			m.showMinibuffer("Tools status failed: " + msg.err.Error())
		}
		return m, nil

	case toolUpdatedMsg:
		m.busy = ""
		m.refresh()
		switch {
		case errors.Is(msg.err, app.ErrUpdateUnsupported):
			m.showNotice("Update "+string(msg.tool), msg.err.Error(), false)
		case msg.err != nil:
			m.showNotice("Update "+string(msg.tool), msg.err.Error(), true)
		default:
			body := strings.TrimSpace(msg.res.Message)
			if body == "" {
				body = "Done."
			}
			m.showNotice("Update "+string(msg.tool), body, !msg.res.OK)
		}
		return m, nil

	case destSetMsg:
		m.busy = ""
		m.refresh()
		if msg.err != nil {
			return m, m.handleActionErr("Destination", msg.err)
		}
		m.showMinibuffer("Destination: " + msg.path)
		return m, nil

	case lightboxLoadedMsg:
		if msg.seq != m.lbSeq {
			return m, nil
		}
		m.lbImg = msg.img
		m.lbSrc = msg.src
		m.lbErr = msg.err
		m.lbPaint = ""
		m.repaintLightbox()
		return m, nil

	case copyDoneMsg:
		if msg.err != nil {
			m.showMinibuffer("Copy failed: " + msg.err.Error())
		} else {
			m.showMinibuffer("Copied " + msg.what)
		}
		return m, nil

	case tea.MouseMsg:
		return m.updateMouse(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.modal != modalNone {
			return m.updateModal(msg)
		}
		if m.focus == focusURL {
			return m.updateURL(msg)
		}
		return m.updateGrid(msg)
	}
	return m, nil
}

// handleActionErr turns validation errors into prompts and everything else
// into a notice.
func (m *appModel) handleActionErr(action string, err error) tea.Cmd {
	switch {
	case errors.Is(err, app.ErrEmptyURL):
		m.focusURL()
		m.showMinibuffer("Enter a URL first.")
	case errors.Is(err, app.ErrNoDestination):
		m.openDestModal()
		m.showMinibuffer("Choose a destination folder first.")
	case errors.Is(err, app.ErrNoSelection):
		m.showMinibuffer("Nothing selected.")
	case errors.Is(err, app.ErrNoJob):
		m.showMinibuffer("No job to stop.")
	default:
		m.showNotice(action+" failed", err.Error(), true)
	}
	return nil
}

func downloadSummary(res *model.DownloadResult) string {
	if res == nil {
		return "Done."
	}
	if res.Fail > 0 {
		return fmt.Sprintf("Downloaded %d, failed %d.", res.OK, res.Fail)
	}
	return fmt.Sprintf("Downloaded %d.", res.OK)
}

func (m appModel) updateURL(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if m.busy != "" {
			return m, nil
		}
		m.busy = "scan"
		m.showMinibuffer("Starting scan…")
		return m, m.scanCmd(m.url.Value())
	case "esc", "tab":
		m.blurURL()
		return m, nil
	}
	var cmd tea.Cmd
	m.url, cmd = m.url.Update(msg)
	return m, cmd
}

func (m appModel) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cols := m.columns()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.URL):
		m.focusURL()
		return m, nil
	case key.Matches(msg, m.keys.Ultra):
		if m.session.ToggleUltra() {
			m.showMinibuffer("Ultra scan on.")
		} else {
			m.showMinibuffer("Ultra scan off.")
		}
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.Stop):
		if m.busy != "" {
			return m, nil
		}
		m.busy = "stop"
		return m, m.stopCmd()
	case key.Matches(msg, m.keys.Clear):
		m.session.ClearJob()
		m.cursor, m.scroll = 0, 0
		m.refresh()
		m.showMinibuffer("Cleared.")
		return m, nil
	case key.Matches(msg, m.keys.DirectGDL):
		return m.startDirect(model.EngineGalleryDL)
	case key.Matches(msg, m.keys.DirectYTDLP):
		return m.startDirect(model.EngineYTDLP)

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-cols)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(cols)
	case key.Matches(msg, m.keys.Left):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Right):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.RangeUp):
		m.moveCursor(-cols)
		m.activate(true)
	case key.Matches(msg, m.keys.RangeDown):
		m.moveCursor(cols)
		m.activate(true)
	case key.Matches(msg, m.keys.RangeLeft):
		m.moveCursor(-1)
		m.activate(true)
	case key.Matches(msg, m.keys.RangeRight):
		m.moveCursor(1)
		m.activate(true)

	case key.Matches(msg, m.keys.Toggle):
		m.activate(false)
	case key.Matches(msg, m.keys.Range):
		m.activate(true)
	case key.Matches(msg, m.keys.Checkbox):
		if c, ok := m.currentCard(); ok {
			m.session.ToggleCheckbox(c.ID)
			m.refresh()
		}
	case key.Matches(msg, m.keys.SelectAll):
		m.session.SelectAll()
		m.refresh()
	case key.Matches(msg, m.keys.UnselectAll):
		m.session.UnselectAll()
		m.refresh()
	case key.Matches(msg, m.keys.Invert):
		m.session.Invert()
		m.refresh()
	case key.Matches(msg, m.keys.Open):
		if c, ok := m.currentCard(); ok {
			if !c.IsImage {
				m.showMinibuffer("Only images open in the viewer.")
				return m, nil
			}
			if m.session.OpenLightbox(c.ID) {
				return m, m.enterLightbox()
			}
		}
	case key.Matches(msg, m.keys.Copy):
		if c, ok := m.currentCard(); ok {
			return m, copyCmd("URL", c.URL)
		}

	case key.Matches(msg, m.keys.Filter):
		m.openFilterModal()
	case key.Matches(msg, m.keys.Format):
		k := formatKeys[msg.String()]
		m.session.ToggleFormat(k)
		m.refresh()
		if m.st.Filter.HasFormat(k) {
			m.showMinibuffer("Showing " + strings.ToUpper(k))
		} else {
			m.showMinibuffer("Format " + strings.ToUpper(k) + " off")
		}
	case key.Matches(msg, m.keys.ResetFilter):
		err := m.session.ResetFilter(m.ctx)
		m.refresh()
		if err != nil {
			m.showMinibuffer(err.Error())
		} else {
			m.showMinibuffer("Filters reset.")
		}
	case key.Matches(msg, m.keys.Thumb):
		ts, err := m.session.CycleThumbSize(m.ctx)
		m.refresh()
		if err != nil {
			m.showMinibuffer(err.Error())
		} else {
			m.showMinibuffer("Thumbnail size " + string(ts))
		}

	case key.Matches(msg, m.keys.Download):
		if m.busy != "" {
			return m, nil
		}
		if m.st.Selected == 0 {
			m.showMinibuffer("Nothing selected.")
			return m, nil
		}
		m.busy = "download"
		m.showMinibuffer(fmt.Sprintf("Downloading %d item(s)…", m.st.Selected))
		return m, m.downloadCmd()
	case key.Matches(msg, m.keys.Engine):
		e := m.session.CycleEngine()
		m.refresh()
		m.showMinibuffer("Engine: " + string(e))
	case key.Matches(msg, m.keys.Dest):
		m.openDestModal()
	case key.Matches(msg, m.keys.Tools):
		m.modal = modalTools
		return m, m.loadToolsCmd()
	case key.Matches(msg, m.keys.Help):
		m.openHelp()
	}
	return m, nil
}

func (m *appModel) activate(shift bool) {
	if len(m.st.Grid.Cards) == 0 {
		return
	}
	m.session.Activate(m.cursor, selection.Modifiers{Shift: shift})
	m.refresh()
}

func (m appModel) startDirect(engine model.Engine) (tea.Model, tea.Cmd) {
	if m.busy != "" {
		return m, nil
	}
	pageURL := strings.TrimSpace(m.url.Value())
	if pageURL == "" {
		m.focusURL()
		m.showMinibuffer("Enter a URL first.")
		return m, nil
	}
	m.busy = "direct"
	return m, m.directCmd(engine, pageURL)
}

func (m *appModel) enterLightbox() tea.Cmd {
	m.refresh()
	m.modal = modalLightbox
	m.lbSeq++
	m.lbID = m.st.Lightbox.Item.ID
	m.lbImg = nil
	m.lbSrc = ""
	m.lbErr = nil
	m.lbPaint = ""
	return m.loadLightboxCmd()
}

// repaintLightbox caches the painted image for the current screen size.
func (m *appModel) repaintLightbox() {
	if m.lbImg == nil {
		return
	}
	w, h := max(m.width-2, 1), max(m.height-4, 1)
	if m.lbPaint != "" && m.lbPaintW == w && m.lbPaintH == h {
		return
	}
	m.lbPaint = lightboxPaint(m.lbImg, w, h)
	m.lbPaintW, m.lbPaintH = w, h
}

func (m appModel) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.modal {
	case modalNotice:
		switch msg.String() {
		case "enter", "esc", "q", " ":
			m.modal = modalNone
		}
		return m, nil

	case modalHelp:
		switch msg.String() {
		case "esc", "q", "?":
			m.modal = modalNone
			return m, nil
		}
		var cmd tea.Cmd
		m.helpView, cmd = m.helpView.Update(msg)
		return m, cmd

	case modalLightbox:
		return m.updateLightbox(msg)

	case modalFilter:
		return m.updateFilterModal(msg)

	case modalDest:
		switch msg.String() {
		case "esc":
			m.modal = modalNone
			m.destInput.Blur()
			return m, nil
		case "enter":
			path := strings.TrimSpace(m.destInput.Value())
			if path == "" {
				m.showMinibuffer("Destination cannot be empty.")
				return m, nil
			}
			m.modal = modalNone
			m.destInput.Blur()
			m.busy = "dest"
			return m, m.setDestCmd(path)
		}
		var cmd tea.Cmd
		m.destInput, cmd = m.destInput.Update(msg)
		return m, cmd

	case modalTools:
		switch msg.String() {
		case "esc", "q", "T":
			m.modal = modalNone
		case "r":
			return m, m.loadToolsCmd()
		case "1":
			m.askUpdate(model.ToolGalleryDL)
		case "2":
			m.askUpdate(model.ToolYTDLP)
		}
		return m, nil

	case modalConfirmUpdate:
		switch msg.String() {
		case "esc":
			m.modal = modalTools
		case "tab", "shift+tab", "left", "right", "h", "l":
			if m.confirmFocus == confirmFocusConfirm {
				m.confirmFocus = confirmFocusCancel
			} else {
				m.confirmFocus = confirmFocusConfirm
			}
		case "enter":
			if m.confirmFocus == confirmFocusCancel {
				m.modal = modalTools
				return m, nil
			}
			m.modal = modalTools
			m.busy = "update"
			m.showMinibuffer("Updating " + string(m.pendingTool) + "…")
			return m, m.updateToolCmd(m.pendingTool)
		}
		return m, nil
	}
	return m, nil
}

func (m *appModel) askUpdate(tool model.Tool) {
	if m.busy != "" {
		return
	}
	m.pendingTool = tool
	m.confirmFocus = confirmFocusConfirm
	m.modal = modalConfirmUpdate
}

func (m appModel) updateLightbox(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	switch k {
	case "q":
		k = "esc"
	case "y":
		if m.st.Lightbox.Visible {
			return m, copyCmd("URL", m.st.Lightbox.Item.URL)
		}
		return m, nil
	}
	if !m.session.LightboxKey(k) {
		return m, nil
	}
	m.refresh()
	if !m.st.Lightbox.Visible {
		m.modal = modalNone
		m.lbSeq++
		m.lbImg = nil
		m.lbPaint = ""
		return m, nil
	}
	if m.st.Lightbox.Item.ID != m.lbID {
		return m, m.enterLightbox()
	}
	return m, nil
}

func (m appModel) updateFilterModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.modal = modalNone
		m.minW.Blur()
		m.minH.Blur()
		return m, nil
	case "tab", "shift+tab", "up", "down":
		m.filterFocus = 1 - m.filterFocus
		if m.filterFocus == 0 {
			m.minW.Focus()
			m.minH.Blur()
		} else {
			m.minH.Focus()
			m.minW.Blur()
		}
		return m, nil
	case "enter":
		w, errW := parseDimension(m.minW.Value())
		h, errH := parseDimension(m.minH.Value())
		if err := errors.Join(errW, errH); err != nil {
			m.showMinibuffer(err.Error())
			return m, nil
		}
		m.modal = modalNone
		m.minW.Blur()
		m.minH.Blur()
		err := m.session.SetMinSize(m.ctx, w, h)
		m.refresh()
		if err != nil {
			m.showMinibuffer(err.Error())
		} else {
			m.showMinibuffer(fmt.Sprintf("Minimum size %d×%d", m.st.Filter.MinW, m.st.Filter.MinH))
		}
		return m, nil
	}
	var cmd tea.Cmd
	if m.filterFocus == 0 {
		m.minW, cmd = m.minW.Update(msg)
	} else {
		m.minH, cmd = m.minH.Update(msg)
	}
	return m, cmd
}

// parseDimension reads a pixel threshold; empty means no minimum.
func parseDimension(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid size %q: use a whole number of pixels", s)
	}
	return v, nil
}

func (m appModel) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.modal != modalNone {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.scroll = max(m.scroll-1, 0)
		return m, nil
	case tea.MouseButtonWheelDown:
		cols := m.columns()
		total := (len(m.st.Grid.Cards) + cols - 1) / cols
		m.scroll = min(m.scroll+1, max(total-m.visibleRows(), 0))
		return m, nil
	}
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	if msg.Y == 1 {
		m.focusURL()
		return m, nil
	}
	idx, onCheckbox, ok := m.cardAt(msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	if m.focus == focusURL {
		m.blurURL()
	}
	m.cursor = idx
	if onCheckbox {
		m.session.ToggleCheckbox(m.st.Grid.Cards[idx].ID)
		m.refresh()
		return m, nil
	}
	out := m.session.Click(idx, selection.Modifiers{Shift: msg.Shift, Ctrl: msg.Ctrl || msg.Alt}, m.now())
	if out.Opened {
		return m, m.enterLightbox()
	}
	m.refresh()
	return m, nil
}

// cardAt maps a screen cell to a card index. onCheckbox is true when the cell
// is the card's "[ ]" box.
func (m appModel) cardAt(x, y int) (idx int, onCheckbox bool, ok bool) {
	gy := y - headerHeight
	if gy < 0 || gy >= m.gridHeight() || x < 0 {
		return 0, false, false
	}
	cw := grid.CardWidth(m.st.ThumbSize)
	col := x / (cw + 1)
	within := x % (cw + 1)
	if col >= m.columns() || within >= cw {
		return 0, false, false
	}
	row := gy/cardHeight + m.scroll
	idx = row*m.columns() + col
	if idx >= len(m.st.Grid.Cards) {
		return 0, false, false
	}
	ry := gy % cardHeight
	return idx, ry == 1 && within >= 1 && within <= 3, true
}
