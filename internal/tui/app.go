package tui

import (
	"fmt"
	"runtime"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"rio-cli/internal/model"
)

func (m appModel) Init() tea.Cmd {
	return tea.Batch(
		m.initCmd(),
		waitForPollEvent(m.session.Events()),
		m.spinner.Tick,
		tick(),
	)
}

func (m appModel) View() string {
	if m.modal == modalLightbox {
		return m.viewLightbox()
	}

	header := normalizePane(m.viewHeader(), m.width, headerHeight)
	body := normalizePane(m.viewGrid(), m.width, m.gridHeight())
	footer := normalizePane(m.viewFooter(), m.width, footerHeight)
	screen := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)

	var modal string
	switch m.modal {
	case modalNotice:
		modal = renderNoticeModal(m.width, m.noticeTitle, m.noticeBody, m.noticeErr)
	case modalFilter:
		modal = m.viewFilterModal()
	case modalDest:
		modal = renderModalBox(m.width, "Destination folder", strings.Join([]string{
			m.destInput.View(),
			"",
			styleMuted().Render("enter: save   esc: cancel"),
		}, "\n"))
	case modalTools:
		modal = m.viewToolsModal()
	case modalConfirmUpdate:
		modal = renderConfirmModal(m.width, "Update "+string(m.pendingTool),
			fmt.Sprintf("Download and install the latest %s?", m.pendingTool),
			"Update", "Cancel", m.confirmFocus)
	case modalHelp:
		modal = renderModalBox(m.width, "Help", m.helpView.View())
	}
	if modal != "" {
		return placeCentered(m.width, m.height, modal)
	}
	return screen
}

func (m appModel) viewHeader() string {
	title := styleTitle().Render("rio")
	var meta []string
	meta = append(meta, "engine "+string(m.st.Engine))
	if m.st.Ultra {
		meta = append(meta, styleWarn().Render("ultra"))
	}
	dest := m.st.DestDir
	if dest == "" {
		dest = styleWarn().Render("no destination")
	}
	meta = append(meta, "dest "+dest)
	meta = append(meta, m.toolBadge(model.ToolGalleryDL), m.toolBadge(model.ToolYTDLP))
	line1 := title + "  " + strings.Join(meta, styleMuted().Render(" · "))

	line2 := m.url.View()

	var status []string
	if m.st.Running {
		status = append(status, m.spinner.View())
	}
	status = append(status, m.st.Status)
	if m.st.Running && m.st.HasPercent {
		status = append(status, m.progress.ViewAs(m.st.Percent/100), fmt.Sprintf("%3.0f%%", m.st.Percent))
	}
	line3 := strings.Join(status, " ")

	g := m.st.Grid
	counts := fmt.Sprintf("%d selected · %d shown", g.SelectedCount, g.Visible)
	if g.Hidden > 0 {
		counts += fmt.Sprintf(" · %d hidden", g.Hidden)
	}
	if f := m.filterSummary(); f != "" {
		counts += " · " + f
	}
	counts += " · size " + string(m.st.ThumbSize)
	line4 := styleMuted().Render(counts)

	return strings.Join([]string{line1, line2, line3, line4}, "\n")
}

// toolBadge shows a tool's availability. Unavailable tools render dimmed.
func (m appModel) toolBadge(t model.Tool) string {
	if !m.st.ToolsLoaded {
		return styleMuted().Render(string(t) + " ?")
	}
	info := m.st.Tools.Info(t)
	if !info.Available {
		return styleMuted().Render(string(t) + " ✗")
	}
	s := string(t) + " ✓"
	if info.HasUpdate {
		return styleWarn().Render(s + " (update)")
	}
	return styleOK().Render(s)
}

func (m appModel) filterSummary() string {
	var parts []string
	if m.st.Filter.MinW > 0 || m.st.Filter.MinH > 0 {
		parts = append(parts, fmt.Sprintf("min %d×%d", m.st.Filter.MinW, m.st.Filter.MinH))
	}
	if keys := m.st.Filter.FormatKeys(); len(keys) > 0 {
		parts = append(parts, strings.ToUpper(strings.Join(keys, "/")))
	}
	return strings.Join(parts, " ")
}

func (m appModel) viewGrid() string {
	g := m.st.Grid
	if len(g.Cards) == 0 {
		msg := g.Hint.Message()
		switch {
		case m.st.Running:
			msg = "Scanning…"
		case m.st.ItemsJob == "" && len(m.st.Items) == 0:
			msg = "Enter a URL and press enter to scan."
		}
		return placeCentered(m.width, m.gridHeight(), styleMuted().Render(msg))
	}
	return renderGrid(g, m.st.ThumbSize, m.width, m.gridHeight(), m.scroll, m.cursor)
}

func (m appModel) viewFooter() string {
	return m.help.View(m.keys) + "\n" + m.minibufferText
}

func (m appModel) viewFilterModal() string {
	var formats []string
	for _, d := range []string{"1", "2", "3", "4"} {
		k := formatKeys[d]
		box := "[ ]"
		if m.st.Filter.HasFormat(k) {
			box = "[x]"
		}
		formats = append(formats, box+" "+strings.ToUpper(k))
	}
	content := strings.Join([]string{
		m.minW.View(),
		m.minH.View(),
		"",
		"Formats: " + strings.Join(formats, "  "),
		styleMuted().Render("Toggle formats with 1-4 in the grid."),
		"",
		styleMuted().Render("tab: switch field   enter: apply   esc: cancel"),
	}, "\n")
	return renderModalBox(m.width, "Filter", content)
}

func (m appModel) viewToolsModal() string {
	var lines []string
	platform := m.st.Tools.Platform
	if platform == "" {
		platform = m.st.AppInfo.Platform
	}
	if platform == "" {
		platform = runtime.GOOS
	}
	lines = append(lines, styleMuted().Render("Backend platform: "+platform), "")
	if m.st.ToolsErr != nil {
		lines = append(lines, styleError().Render(m.st.ToolsErr.Error()), "")
	}
	for i, t := range []model.Tool{model.ToolGalleryDL, model.ToolYTDLP} {
		info := m.st.Tools.Info(t)
		var line string
		switch {
		case !m.st.ToolsLoaded:
			line = styleMuted().Render("loading…")
		case !info.Available:
			line = styleError().Render("not installed")
			if info.Error != "" {
				line += styleMuted().Render(" (" + info.Error + ")")
			}
		case info.HasUpdate:
			line = info.Version + styleWarn().Render(" → "+info.LatestVersion+" available")
		default:
			line = info.Version + styleOK().Render(" up to date")
		}
		lines = append(lines, fmt.Sprintf("%d  %-11s %s", i+1, t, line))
	}
	if platform == model.PlatformMacOS {
		lines = append(lines, "", styleWarn().Render("Updating from here is not supported on macOS. Install the tools with your package manager."))
	}
	lines = append(lines, "", styleMuted().Render("1/2: update   r: refresh   esc: close"))
	return renderModalBox(m.width, "Tools", strings.Join(lines, "\n"))
}

func (m appModel) viewLightbox() string {
	lb := m.st.Lightbox
	title := styleTitle().Render(lb.Counter) + "  " + styleMuted().Render(lb.Item.URL)

	var body string
	switch {
	case m.lbErr != nil:
		body = placeCentered(max(m.width-2, 1), max(m.height-4, 1), styleError().Render("Could not load image: "+m.lbErr.Error()))
	case m.lbPaint == "":
		body = placeCentered(max(m.width-2, 1), max(m.height-4, 1), styleMuted().Render("Loading…"))
	default:
		body = m.lbPaint
	}

	meta := []string{lb.Item.Fmt}
	if lb.Item.HasDimensions() {
		meta = append(meta, fmt.Sprintf("%dx%d", lb.Item.W, lb.Item.H))
	}
	if m.lbSrc != "" && m.lbSrc != lb.Item.URL {
		meta = append(meta, "thumbnail")
	}
	footer := styleMuted().Render(strings.Join(meta, " · ") + "   ←/→: prev/next   y: copy url   esc: close")

	return lipgloss.JoinVertical(lipgloss.Left,
		normalizePane(title, m.width, 1),
		normalizePane(body, m.width, max(m.height-4, 1)),
		"",
		normalizePane(footer, m.width, 1),
	)
}
