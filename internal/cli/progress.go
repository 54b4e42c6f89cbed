package cli

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// jobBar draws job progress on w when it is a terminal; elsewhere every
// method is a no-op so piped output stays clean.
type jobBar struct {
	bar *progressbar.ProgressBar
}

func newJobBar(w io.Writer, desc string) *jobBar {
	if !isTerminal(w) {
		return &jobBar{}
	}
	return &jobBar{bar: progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)}
}

func (b *jobBar) update(msg string, pct float64, hasPct bool) {
	if b.bar == nil {
		return
	}
	if msg != "" {
		b.bar.Describe(msg)
	}
	if hasPct {
		_ = b.bar.Set(int(pct))
	}
}

func (b *jobBar) finish() {
	if b.bar == nil {
		return
	}
	_ = b.bar.Finish()
}
