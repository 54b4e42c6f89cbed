package tui

import (
	"image"
	"time"

	"rio-cli/internal/model"
	"rio-cli/internal/poller"
)

type modalKind int

const (
	modalNone modalKind = iota
	modalNotice
	modalFilter
	modalDest
	modalTools
	modalConfirmUpdate
	modalHelp
	modalLightbox
)

type focusArea int

const (
	focusGrid focusArea = iota
	focusURL
)

const (
	headerHeight = 4
	footerHeight = 2
	cardHeight   = 6

	minibufferAutoClearAfter = 4 * time.Second
	tickInterval             = time.Second
)

type tickMsg struct{}

type pollEventMsg struct{ ev poller.Event }

type initDoneMsg struct{ err error }

type scanStartedMsg struct {
	jobID string
	err   error
}

type directStartedMsg struct {
	engine model.Engine
	jobID  string
	err    error
}

type stopDoneMsg struct{ err error }

type downloadDoneMsg struct {
	res *model.DownloadResult
	err error
}

type toolsLoadedMsg struct{ err error }

type toolUpdatedMsg struct {
	tool model.Tool
	res  model.ToolUpdateResult
	err  error
}

type destSetMsg struct {
	path string
	err  error
}

type lightboxLoadedMsg struct {
	seq int
	img image.Image
	src string
	err error
}

type copyDoneMsg struct {
	what string
	err  error
}
