package model

type Tool string

const (
	ToolGalleryDL Tool = "gallery-dl"
	ToolYTDLP     Tool = "yt-dlp"
)

func ParseTool(s string) (Tool, bool) {
	switch Tool(s) {
	case ToolGalleryDL, ToolYTDLP:
		return Tool(s), true
	}
	switch s {
	case "gdl", "gallery_dl":
		return ToolGalleryDL, true
	case "ytdlp", "yt_dlp":
		return ToolYTDLP, true
	}
	return "", false
}

// ReleasesURL is where users on platforms without self-update fetch new builds.
func (t Tool) ReleasesURL() string {
	switch t {
	case ToolGalleryDL:
		return "https://github.com/mikf/gallery-dl/releases"
	case ToolYTDLP:
		return "https://github.com/yt-dlp/yt-dlp/releases"
	default:
		return ""
	}
}

// Engine selects the backend downloader for bulk downloads.
type Engine string

const (
	EngineBuiltin   Engine = "builtin"
	EngineGalleryDL Engine = "gallery-dl"
	EngineYTDLP     Engine = "yt-dlp"
)

var Engines = []Engine{EngineBuiltin, EngineGalleryDL, EngineYTDLP}

func ParseEngine(s string) (Engine, bool) {
	switch s {
	case "", "builtin":
		return EngineBuiltin, true
	case "gallery-dl", "gdl":
		return EngineGalleryDL, true
	case "yt-dlp", "ytdlp":
		return EngineYTDLP, true
	}
	return "", false
}

// Tool returns the external tool backing the engine, if any.
func (e Engine) Tool() (Tool, bool) {
	switch e {
	case EngineGalleryDL:
		return ToolGalleryDL, true
	case EngineYTDLP:
		return ToolYTDLP, true
	}
	return "", false
}

const (
	PlatformWindows = "windows"
	PlatformLinux   = "linux"
	PlatformMacOS   = "macos"
)

type ToolInfo struct {
	Available     bool   `json:"available"`
	Version       string `json:"version,omitempty"`
	HasUpdate     bool   `json:"has_update"`
	LatestVersion string `json:"latest_version,omitempty"`
	Error         string `json:"error,omitempty"`
}

type ToolsStatus struct {
	Platform  string   `json:"platform"`
	GalleryDL ToolInfo `json:"gallery_dl"`
	YTDLP     ToolInfo `json:"yt_dlp"`
}

func (ts ToolsStatus) Info(t Tool) ToolInfo {
	if t == ToolYTDLP {
		return ts.YTDLP
	}
	return ts.GalleryDL
}

type ToolUpdateResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type AppConfig struct {
	DestDir string `json:"dest_dir,omitempty"`
}

type AppInfo struct {
	App             string    `json:"app,omitempty"`
	DataDir         string    `json:"data_dir,omitempty"`
	Platform        string    `json:"platform,omitempty"`
	HasLoginProfile bool      `json:"has_login_profile"`
	Config          AppConfig `json:"config"`
}

type DownloadResult struct {
	OK   int `json:"ok"`
	Fail int `json:"fail"`
}
