package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"rio-cli/internal/app"
	"rio-cli/internal/model"
	"rio-cli/internal/store"
	"rio-cli/internal/testsupport"
)

// newEnv points a config dir at a fake backend with a fast poll interval.
func newEnv(t *testing.T) (*testsupport.Backend, string) {
	t.Helper()
	t.Setenv("RIO_SERVER", "")
	t.Setenv("RIO_FORMAT", "")
	b := testsupport.NewBackend(t)
	dir := t.TempDir()
	cfg := store.DefaultConfig()
	cfg.Server = b.URL()
	cfg.PollIntervalMS = 5
	cfg.LogLevel = "error"
	if err := (store.Store{Dir: dir}).SaveConfig(cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	return b, dir
}

func runCLI(t *testing.T, dir string, stdin io.Reader, args ...string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(append([]string{"--config-dir", dir}, args...))

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

func mustJSON(t *testing.T, dir string, args ...string) map[string]any {
	t.Helper()
	stdout, stderr, err := runCLI(t, dir, nil, args...)
	if err != nil {
		t.Fatalf("command failed: rio %v\nerr: %v\nstderr:\n%s", args, err, stderr)
	}
	var out map[string]any
	if err := json.Unmarshal(stdout, &out); err != nil {
		t.Fatalf("unmarshal stdout: %v\nstdout:\n%s", err, stdout)
	}
	return out
}

func sampleItems() []model.Item {
	return []model.Item{
		{ID: "a", Kind: model.KindImage, Fmt: "JPG", W: 1600, H: 900, Size: 2048, URL: "https://x/a.jpg"},
		{ID: "b", Kind: model.KindImage, Fmt: "PNG", W: 100, H: 100, URL: "https://x/b.png"},
		{ID: "v", Kind: model.KindVideo, CT: "video/mp4", URL: "https://x/v.mp4"},
		{ID: "e", Kind: model.KindImage, Fmt: "ERR", URL: "https://x/e.jpg"},
	}
}

func TestScan_NoWaitPrintsJobID(t *testing.T) {
	b, dir := newEnv(t)
	b.QueueJobIDs("j1")

	out := mustJSON(t, dir, "scan", "https://example.com/g", "--ultra")
	if out["job_id"] != "j1" || out["status"] != "running" {
		t.Fatalf("unexpected output: %v", out)
	}
	scans, _, _, _ := b.Snapshot()
	if len(scans) != 1 || !scans[0].Ultra || scans[0].URL != "https://example.com/g" {
		t.Fatalf("unexpected scan requests: %+v", scans)
	}
}

func TestScan_WaitPrintsItems(t *testing.T) {
	b, dir := newEnv(t)
	b.QueueJobIDs("j1")
	b.ScriptStatus("j1",
		model.Job{Status: model.JobRunning, ProgressIndex: 1, ProgressTotal: 4},
		model.Job{Status: model.JobDone, Message: "Found 4"},
	)
	b.SetItems("j1", sampleItems())

	out := mustJSON(t, dir, "scan", "https://example.com/g", "--wait")
	if out["status"] != "done" || out["message"] != "Found 4" {
		t.Fatalf("unexpected output: %v", out)
	}
	items, _ := out["items"].([]any)
	if len(items) != 4 {
		t.Fatalf("expected 4 items; got %d", len(items))
	}
}

func TestScan_WaitFailedJobReturnsError(t *testing.T) {
	b, dir := newEnv(t)
	b.QueueJobIDs("j1")
	b.ScriptStatus("j1", model.Job{Status: model.JobError, Message: "blocked"})

	stdout, _, err := runCLI(t, dir, nil, "scan", "https://example.com/g", "--wait")
	if err == nil || !strings.Contains(err.Error(), "blocked") {
		t.Fatalf("expected job error; got %v", err)
	}
	if !strings.Contains(string(stdout), `"status":"error"`) {
		t.Fatalf("expected final status in output; got %s", stdout)
	}
}

func TestScan_URLAfterDoubleDash(t *testing.T) {
	b, dir := newEnv(t)
	b.QueueJobIDs("j1")

	out := mustJSON(t, dir, "scan", "--", "https://example.com/g")
	if out["job_id"] != "j1" {
		t.Fatalf("unexpected output: %v", out)
	}
	scans, _, _, _ := b.Snapshot()
	if len(scans) != 1 || scans[0].URL != "https://example.com/g" {
		t.Fatalf("expected one scan of the url; got %+v", scans)
	}
}

func TestScan_EmptyURL(t *testing.T) {
	_, dir := newEnv(t)
	_, _, err := runCLI(t, dir, nil, "scan", "  ")
	if !errors.Is(err, app.ErrEmptyURL) {
		t.Fatalf("expected ErrEmptyURL; got %v", err)
	}
}

func TestStatus_UnknownJob(t *testing.T) {
	_, dir := newEnv(t)
	_, _, err := runCLI(t, dir, nil, "status", "nope")
	if err == nil || !strings.Contains(err.Error(), "job not found") {
		t.Fatalf("expected not found error; got %v", err)
	}
}

func TestItems_FiltersAndTable(t *testing.T) {
	b, dir := newEnv(t)
	b.SetItems("j1", sampleItems())

	stdout, _, err := runCLI(t, dir, nil, "items", "j1", "--min-w", "500")
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	var items []model.Item
	if err := json.Unmarshal(stdout, &items); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, stdout)
	}
	var ids []string
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	if got := strings.Join(ids, ","); got != "a,v" {
		t.Fatalf("expected a,v; got %q", got)
	}

	stdout, _, err = runCLI(t, dir, nil, "--format", "table", "items", "j1", "--format-filter", "png")
	if err != nil {
		t.Fatalf("items table: %v", err)
	}
	table := string(stdout)
	for _, want := range []string{"https://x/b.png", "100x100", "https://x/v.mp4"} {
		if !strings.Contains(table, want) {
			t.Fatalf("expected %q in table:\n%s", want, table)
		}
	}
	if strings.Contains(table, "https://x/a.jpg") {
		t.Fatalf("expected jpg row to be filtered out:\n%s", table)
	}
}

func TestStop_PostsStop(t *testing.T) {
	b, dir := newEnv(t)
	out := mustJSON(t, dir, "stop", "j9")
	if out["stop_requested"] != true {
		t.Fatalf("unexpected output: %v", out)
	}
	if _, _, _, stops := b.Snapshot(); len(stops) != 1 || stops[0] != "j9" {
		t.Fatalf("unexpected stops: %v", stops)
	}
}

func TestDirect_UsesBackendDestination(t *testing.T) {
	b, dir := newEnv(t)
	b.QueueJobIDs("d1")

	out := mustJSON(t, dir, "direct", "gdl", "https://example.com/g")
	if out["job_id"] != "d1" {
		t.Fatalf("unexpected output: %v", out)
	}
	_, directs, _, _ := b.Snapshot()
	if len(directs) != 1 || directs[0].DestDir != "/downloads" {
		t.Fatalf("unexpected direct requests: %+v", directs)
	}
	if got := b.DestChanges(); len(got) != 0 {
		t.Fatalf("expected no dest change; got %v", got)
	}
}

func TestDirect_RejectsBuiltin(t *testing.T) {
	_, dir := newEnv(t)
	_, _, err := runCLI(t, dir, nil, "direct", "builtin", "https://example.com/g")
	if err == nil || !strings.Contains(err.Error(), "invalid engine") {
		t.Fatalf("expected invalid engine error; got %v", err)
	}
}

func TestDirect_UnavailableTool(t *testing.T) {
	b, dir := newEnv(t)
	b.SetTools(model.ToolsStatus{Platform: model.PlatformLinux, GalleryDL: model.ToolInfo{Available: true}})

	_, _, err := runCLI(t, dir, nil, "direct", "yt-dlp", "https://example.com/v")
	if !errors.Is(err, app.ErrToolUnavailable) {
		t.Fatalf("expected ErrToolUnavailable; got %v", err)
	}
}

func TestDownload_PicksIDsInItemOrder(t *testing.T) {
	b, dir := newEnv(t)
	b.SetItems("j1", sampleItems())
	b.SetDownloadResult(&model.DownloadResult{OK: 2})

	out := mustJSON(t, dir, "download", "j1", "--id", "v", "--id", "a", "--engine", "gallery-dl", "--dest", "/tmp/x")
	if out["requested"] != float64(2) || out["ok"] != float64(2) {
		t.Fatalf("unexpected output: %v", out)
	}
	_, _, downloads, _ := b.Snapshot()
	if len(downloads) != 1 {
		t.Fatalf("expected one download; got %d", len(downloads))
	}
	d := downloads[0]
	if d.Engine != "gallery-dl" || d.DestDir != "/tmp/x" || len(d.Items) != 2 || d.Items[0].URL != "https://x/a.jpg" {
		t.Fatalf("unexpected download request: %+v", d)
	}
}

func TestDownload_NothingSelected(t *testing.T) {
	b, dir := newEnv(t)
	b.SetItems("j1", sampleItems())

	_, _, err := runCLI(t, dir, nil, "download", "j1", "--id", "zzz")
	if !errors.Is(err, app.ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection; got %v", err)
	}
}

func TestTools_StatusAndUpdate(t *testing.T) {
	b, dir := newEnv(t)
	b.SetUpdateResult(model.ToolUpdateResult{OK: true, Message: "updated to 1.2"})

	out := mustJSON(t, dir, "tools", "status")
	if out["platform"] != "linux" {
		t.Fatalf("unexpected tools status: %v", out)
	}

	_, _, err := runCLI(t, dir, strings.NewReader("n\n"), "tools", "update", "yt-dlp")
	if err == nil || !strings.Contains(err.Error(), "cancelled") {
		t.Fatalf("expected cancelled update; got %v", err)
	}
	if len(b.ToolUpdates()) != 0 {
		t.Fatalf("expected no update call; got %v", b.ToolUpdates())
	}

	stdout, _, err := runCLI(t, dir, strings.NewReader("y\n"), "tools", "update", "yt-dlp")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !strings.Contains(string(stdout), "updated to 1.2") {
		t.Fatalf("unexpected output: %s", stdout)
	}
}

func TestTools_UpdateUnsupportedOffLinux(t *testing.T) {
	b, dir := newEnv(t)
	b.SetTools(model.ToolsStatus{Platform: model.PlatformMacOS})

	_, _, err := runCLI(t, dir, nil, "tools", "update", "gallery-dl", "--yes")
	if !errors.Is(err, app.ErrUpdateUnsupported) {
		t.Fatalf("expected ErrUpdateUnsupported; got %v", err)
	}
	if !strings.Contains(err.Error(), "github.com/mikf/gallery-dl/releases") {
		t.Fatalf("expected releases link; got %v", err)
	}
}

func TestDest_ShowAndSet(t *testing.T) {
	_, dir := newEnv(t)

	out := mustJSON(t, dir, "dest", "set", "/media/new")
	if out["dest_dir"] != "/media/new" {
		t.Fatalf("unexpected output: %v", out)
	}
	info := mustJSON(t, dir, "dest", "show")
	cfg, _ := info["config"].(map[string]any)
	if cfg["dest_dir"] != "/media/new" {
		t.Fatalf("expected new dest in appinfo; got %v", info)
	}

	_, _, err := runCLI(t, dir, nil, "dest", "set", " ")
	if !errors.Is(err, app.ErrNoDestination) {
		t.Fatalf("expected ErrNoDestination; got %v", err)
	}
}

func TestSettings_SetAndShow(t *testing.T) {
	_, dir := newEnv(t)

	mustJSON(t, dir, "settings", "set", "default_engine", "yt-dlp")
	mustJSON(t, dir, "settings", "set", "min_w", "640")
	mustJSON(t, dir, "settings", "set", "thumb_size", "xl")

	out := mustJSON(t, dir, "settings", "show")
	cfg, _ := out["config"].(map[string]any)
	if cfg["default_engine"] != "yt-dlp" {
		t.Fatalf("expected engine saved; got %v", cfg)
	}
	g, _ := out["grid"].(map[string]any)
	if g["min_w"] != float64(640) || g["thumb_size"] != "XL" {
		t.Fatalf("expected grid prefs saved; got %v", g)
	}

	if _, _, err := runCLI(t, dir, nil, "settings", "set", "bogus", "1"); err == nil {
		t.Fatalf("expected unknown key error")
	}
	if _, _, err := runCLI(t, dir, nil, "settings", "set", "thumb_size", "huge"); err == nil {
		t.Fatalf("expected invalid thumb size error")
	}
}

func TestFormat_YAMLAndEDN(t *testing.T) {
	_, dir := newEnv(t)

	stdout, _, err := runCLI(t, dir, nil, "--format", "yaml", "dest", "show")
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if !strings.Contains(string(stdout), "dest_dir: /downloads") {
		t.Fatalf("unexpected yaml:\n%s", stdout)
	}
	stdout, _, err = runCLI(t, dir, nil, "--format", "edn", "dest", "show")
	if err != nil {
		t.Fatalf("edn: %v", err)
	}
	if !strings.Contains(string(stdout), `:dest-dir "/downloads"`) {
		t.Fatalf("unexpected edn:\n%s", stdout)
	}
}
