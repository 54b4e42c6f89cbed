// Package testsupport provides a scriptable in-process stand-in for the
// scraping backend.
package testsupport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"rio-cli/internal/model"
)

type ScanRequest struct {
	URL   string `json:"url"`
	Ultra bool   `json:"ultra"`
}

type DirectRequest struct {
	Path    string `json:"-"`
	URL     string `json:"url"`
	DestDir string `json:"dest_dir"`
}

type DownloadRequest struct {
	Items []struct {
		URL string `json:"url"`
	} `json:"items"`
	Engine  string `json:"engine"`
	DestDir string `json:"dest_dir"`
}

// Backend serves the backend's HTTP surface from scripted state.
type Backend struct {
	t      testing.TB
	server *httptest.Server

	mu sync.Mutex

	// statuses holds a scripted status sequence per job; the last entry
	// repeats once the sequence is exhausted.
	statuses    map[string][]model.Job
	statusCalls map[string]int
	statusFail  map[string]int
	itemsCalls  map[string]int
	items       map[string][]model.Item
	jobIDs      []string
	jobSeq      int

	tools      model.ToolsStatus
	appInfo    model.AppInfo
	download   *model.DownloadResult
	updateResp model.ToolUpdateResult
	media      map[string][]byte

	Scans     []ScanRequest
	Directs   []DirectRequest
	Downloads []DownloadRequest
	Stops     []string
	DestDirs  []string
	Updates   []string
}

func NewBackend(t testing.TB) *Backend {
	t.Helper()

	b := &Backend{
		t:           t,
		statuses:    map[string][]model.Job{},
		statusCalls: map[string]int{},
		statusFail:  map[string]int{},
		itemsCalls:  map[string]int{},
		items:       map[string][]model.Item{},
		media:       map[string][]byte{},
		tools: model.ToolsStatus{
			Platform:  model.PlatformLinux,
			GalleryDL: model.ToolInfo{Available: true, Version: "1.26.0"},
			YTDLP:     model.ToolInfo{Available: true, Version: "2024.05.27"},
		},
		appInfo:    model.AppInfo{App: "rio", Config: model.AppConfig{DestDir: "/downloads"}},
		download:   &model.DownloadResult{},
		updateResp: model.ToolUpdateResult{OK: true, Message: "updated"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tools/status", b.handleTools)
	mux.HandleFunc("POST /api/tools/update/{tool}", b.handleUpdate)
	mux.HandleFunc("GET /api/appinfo", b.handleAppInfo)
	mux.HandleFunc("POST /api/set_dest_dir", b.handleSetDest)
	mux.HandleFunc("POST /api/scan", b.handleScan)
	mux.HandleFunc("POST /api/stop/{id}", b.handleStop)
	mux.HandleFunc("GET /api/status/{id}", b.handleStatus)
	mux.HandleFunc("GET /api/items/{id}", b.handleItems)
	mux.HandleFunc("POST /api/gdl_direct", b.handleDirect)
	mux.HandleFunc("POST /api/ytdlp/direct", b.handleDirect)
	mux.HandleFunc("POST /api/download", b.handleDownload)
	mux.HandleFunc("GET /", b.handleMedia)

	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func (b *Backend) URL() string { return b.server.URL }

// QueueJobIDs fixes the ids returned by the next job-starting calls.
func (b *Backend) QueueJobIDs(ids ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jobIDs = append(b.jobIDs, ids...)
}

func (b *Backend) ScriptStatus(jobID string, seq ...model.Job) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range seq {
		if seq[i].ID == "" {
			seq[i].ID = jobID
		}
	}
	b.statuses[jobID] = seq
}

// FailStatus makes status polls for jobID answer with code.
func (b *Backend) FailStatus(jobID string, code int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statusFail[jobID] = code
}

func (b *Backend) SetItems(jobID string, items []model.Item) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items[jobID] = items
}

func (b *Backend) SetTools(ts model.ToolsStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tools = ts
}

func (b *Backend) SetAppInfo(info model.AppInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.appInfo = info
}

func (b *Backend) SetDownloadResult(r *model.DownloadResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.download = r
}

func (b *Backend) SetUpdateResult(r model.ToolUpdateResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updateResp = r
}

// SetMedia serves body at path (e.g. "/api/thumb/j1/a.jpg").
func (b *Backend) SetMedia(path string, body []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.media[path] = body
}

func (b *Backend) StatusCalls(jobID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.statusCalls[jobID]
}

func (b *Backend) ItemsCalls(jobID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.itemsCalls[jobID]
}

// Snapshot returns copies of the recorded requests.
func (b *Backend) Snapshot() (scans []ScanRequest, directs []DirectRequest, downloads []DownloadRequest, stops []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ScanRequest(nil), b.Scans...),
		append([]DirectRequest(nil), b.Directs...),
		append([]DownloadRequest(nil), b.Downloads...),
		append([]string(nil), b.Stops...)
}

// ToolUpdates returns the tools an update was requested for.
func (b *Backend) ToolUpdates() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.Updates...)
}

// DestChanges returns the paths sent to set_dest_dir.
func (b *Backend) DestChanges() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.DestDirs...)
}

func (b *Backend) nextJobID() string {
	if len(b.jobIDs) > 0 {
		id := b.jobIDs[0]
		b.jobIDs = b.jobIDs[1:]
		return id
	}
	b.jobSeq++
	return fmt.Sprintf("job%d", b.jobSeq)
}

func (b *Backend) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		b.t.Errorf("fake backend: encode response: %v", err)
	}
}

func (b *Backend) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, `{"detail":"bad json"}`, http.StatusBadRequest)
		return false
	}
	return true
}

func detail(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": msg})
}

func (b *Backend) handleTools(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	ts := b.tools
	b.mu.Unlock()
	b.writeJSON(w, ts)
}

func (b *Backend) handleUpdate(w http.ResponseWriter, r *http.Request) {
	tool := r.PathValue("tool")
	if tool != string(model.ToolGalleryDL) && tool != string(model.ToolYTDLP) {
		detail(w, http.StatusBadRequest, "Invalid tool")
		return
	}
	b.mu.Lock()
	b.Updates = append(b.Updates, tool)
	resp := b.updateResp
	b.mu.Unlock()
	b.writeJSON(w, resp)
}

func (b *Backend) handleAppInfo(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	info := b.appInfo
	b.mu.Unlock()
	b.writeJSON(w, info)
}

func (b *Backend) handleSetDest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path string `json:"path"`
	}
	if !b.decode(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Path) == "" {
		detail(w, http.StatusBadRequest, "path required")
		return
	}
	b.mu.Lock()
	b.DestDirs = append(b.DestDirs, body.Path)
	b.appInfo.Config.DestDir = body.Path
	b.mu.Unlock()
	b.writeJSON(w, map[string]any{"ok": true, "dest_dir": body.Path})
}

func (b *Backend) handleScan(w http.ResponseWriter, r *http.Request) {
	var body ScanRequest
	if !b.decode(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.URL) == "" {
		detail(w, http.StatusBadRequest, "url required")
		return
	}
	b.mu.Lock()
	b.Scans = append(b.Scans, body)
	id := b.nextJobID()
	b.mu.Unlock()
	b.writeJSON(w, map[string]string{"job_id": id})
}

func (b *Backend) handleDirect(w http.ResponseWriter, r *http.Request) {
	var body DirectRequest
	if !b.decode(w, r, &body) {
		return
	}
	body.Path = r.URL.Path
	b.mu.Lock()
	b.Directs = append(b.Directs, body)
	id := b.nextJobID()
	b.mu.Unlock()
	b.writeJSON(w, map[string]string{"job_id": id})
}

func (b *Backend) handleStop(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.Stops = append(b.Stops, r.PathValue("id"))
	b.mu.Unlock()
	b.writeJSON(w, map[string]bool{"ok": true})
}

func (b *Backend) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b.mu.Lock()
	if code := b.statusFail[id]; code != 0 {
		b.statusCalls[id]++
		b.mu.Unlock()
		detail(w, code, "status failure")
		return
	}
	seq, ok := b.statuses[id]
	if !ok {
		b.mu.Unlock()
		detail(w, http.StatusNotFound, "job not found")
		return
	}
	n := b.statusCalls[id]
	b.statusCalls[id]++
	if n >= len(seq) {
		n = len(seq) - 1
	}
	st := seq[n]
	b.mu.Unlock()
	b.writeJSON(w, st)
}

func (b *Backend) handleItems(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b.mu.Lock()
	b.itemsCalls[id]++
	items, ok := b.items[id]
	b.mu.Unlock()
	if !ok {
		items = []model.Item{}
	}
	b.writeJSON(w, map[string]any{"items": items})
}

func (b *Backend) handleDownload(w http.ResponseWriter, r *http.Request) {
	var body DownloadRequest
	if !b.decode(w, r, &body) {
		return
	}
	if len(body.Items) == 0 {
		detail(w, http.StatusBadRequest, "urls required")
		return
	}
	b.mu.Lock()
	b.Downloads = append(b.Downloads, body)
	res := b.download
	b.mu.Unlock()
	out := map[string]any{"ok": true}
	if res != nil {
		out["result"] = res
	}
	b.writeJSON(w, out)
}

func (b *Backend) handleMedia(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	body, ok := b.media[r.URL.Path]
	b.mu.Unlock()
	if !ok {
		detail(w, http.StatusNotFound, "not found")
		return
	}
	_, _ = w.Write(body)
}
