package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the grid bindings. Modal keys are matched inline.
type keyMap struct {
	URL         key.Binding
	Ultra       key.Binding
	Stop        key.Binding
	Clear       key.Binding
	DirectGDL   key.Binding
	DirectYTDLP key.Binding

	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	RangeUp    key.Binding
	RangeDown  key.Binding
	RangeLeft  key.Binding
	RangeRight key.Binding

	Toggle      key.Binding
	Range       key.Binding
	Checkbox    key.Binding
	SelectAll   key.Binding
	UnselectAll key.Binding
	Invert      key.Binding
	Open        key.Binding
	Copy        key.Binding

	Filter      key.Binding
	Format      key.Binding
	ResetFilter key.Binding
	Thumb       key.Binding

	Download key.Binding
	Engine   key.Binding
	Dest     key.Binding
	Tools    key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		URL:         key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "url")),
		Ultra:       key.NewBinding(key.WithKeys("U"), key.WithHelp("U", "ultra")),
		Stop:        key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		Clear:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
		DirectGDL:   key.NewBinding(key.WithKeys("G"), key.WithHelp("G", "gallery-dl")),
		DirectYTDLP: key.NewBinding(key.WithKeys("Y"), key.WithHelp("Y", "yt-dlp")),

		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		RangeUp:    key.NewBinding(key.WithKeys("shift+up")),
		RangeDown:  key.NewBinding(key.WithKeys("shift+down")),
		RangeLeft:  key.NewBinding(key.WithKeys("shift+left")),
		RangeRight: key.NewBinding(key.WithKeys("shift+right")),

		Toggle:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		Range:       key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "range")),
		Checkbox:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "check")),
		SelectAll:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all")),
		UnselectAll: key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "none")),
		Invert:      key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "invert")),
		Open:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "view")),
		Copy:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy url")),

		Filter:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		Format:      key.NewBinding(key.WithKeys("1", "2", "3", "4"), key.WithHelp("1-4", "formats")),
		ResetFilter: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Thumb:       key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "size")),

		Download: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download")),
		Engine:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "engine")),
		Dest:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "dest")),
		Tools:    key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "tools")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.URL, k.Toggle, k.Range, k.Open, k.Filter, k.Download, k.Engine, k.Tools, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.URL, k.Ultra, k.Stop, k.Clear, k.DirectGDL, k.DirectYTDLP},
		{k.Up, k.Down, k.Left, k.Right},
		{k.Toggle, k.Range, k.Checkbox, k.SelectAll, k.UnselectAll, k.Invert, k.Open, k.Copy},
		{k.Filter, k.Format, k.ResetFilter, k.Thumb},
		{k.Download, k.Engine, k.Dest, k.Tools, k.Help, k.Quit},
	}
}

// formatKeys maps the digit toggles to format filter keys.
var formatKeys = map[string]string{
	"1": "jpg",
	"2": "png",
	"3": "gif",
	"4": "webp",
}
