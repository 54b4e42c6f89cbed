// Package app holds the client session: the single owner of job, items,
// filter, selection and lightbox state. Renderers read it through Snapshot.
package app

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"rio-cli/internal/filter"
	"rio-cli/internal/grid"
	"rio-cli/internal/lightbox"
	"rio-cli/internal/logging"
	"rio-cli/internal/model"
	"rio-cli/internal/poller"
	"rio-cli/internal/selection"
	"rio-cli/internal/store"
)

const StatusReady = "Ready."

// Backend is the subset of api.Client the session uses.
type Backend interface {
	poller.Backend
	lightbox.ThumbResolver
	lightbox.Fetcher
	Scan(ctx context.Context, pageURL string, ultra bool) (string, error)
	Stop(ctx context.Context, jobID string) error
	Direct(ctx context.Context, engine model.Engine, pageURL, destDir string) (string, error)
	Download(ctx context.Context, items []model.Item, engine model.Engine, destDir string) (*model.DownloadResult, error)
	ToolsStatus(ctx context.Context) (model.ToolsStatus, error)
	UpdateTool(ctx context.Context, tool model.Tool) (model.ToolUpdateResult, error)
	AppInfo(ctx context.Context) (model.AppInfo, error)
	SetDestDir(ctx context.Context, path string) error
}

// Prefs persists filter sizes and thumbnail size. *store.Prefs implements it.
type Prefs interface {
	LoadFilterSettings(ctx context.Context) store.FilterSettings
	SaveFilterSettings(ctx context.Context, fs store.FilterSettings) error
	LoadThumbSize(ctx context.Context) model.ThumbSize
	SaveThumbSize(ctx context.Context, ts model.ThumbSize) error
}

type Options struct {
	Prefs        Prefs
	Logger       *slog.Logger
	PollInterval time.Duration
	Engine       model.Engine
}

type Session struct {
	backend Backend
	prefs   Prefs
	runner  *poller.Runner
	logger  *slog.Logger
	base    context.Context
	stop    context.CancelFunc

	mu sync.Mutex

	jobID      string
	jobMode    poller.Mode
	job        model.Job
	running    bool
	status     string
	percent    float64
	hasPercent bool

	items    []model.Item
	itemsJob string

	filter model.FilterState
	sel    *selection.Manager
	clicks selection.ClickCounter
	lb     lightbox.Navigator
	thumb  model.ThumbSize

	tools       model.ToolsStatus
	toolsLoaded bool
	toolsErr    error
	appInfo     model.AppInfo
	destDir     string
	engine      model.Engine
	ultra       bool
}

// New builds a session and restores persisted settings, so the first render
// already reflects them.
func New(backend Backend, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	prefs := opts.Prefs
	if prefs == nil {
		prefs = (*store.Prefs)(nil)
	}
	engine := opts.Engine
	if engine == "" {
		engine = model.EngineBuiltin
	}
	base, stop := context.WithCancel(context.Background())
	s := &Session{
		backend: backend,
		prefs:   prefs,
		runner:  poller.NewRunner(backend, opts.PollInterval, logger),
		logger:  logger,
		base:    base,
		stop:    stop,
		status:  StatusReady,
		sel:     selection.New(),
		clicks:  selection.ClickCounter{Window: selection.DefaultDoubleClickWindow},
		engine:  engine,
	}

	ctx := context.Background()
	fs := prefs.LoadFilterSettings(ctx)
	s.filter.SetMinSize(fs.MinW, fs.MinH)
	s.thumb = prefs.LoadThumbSize(ctx)
	return s
}

// Init fetches the app info and tool status concurrently.
func (s *Session) Init(ctx context.Context) error {
	var (
		info    model.AppInfo
		infoErr error
		ts      model.ToolsStatus
		tsErr   error
	)
	var g errgroup.Group
	g.Go(func() error {
		info, infoErr = s.backend.AppInfo(ctx)
		return infoErr
	})
	g.Go(func() error {
		ts, tsErr = s.backend.ToolsStatus(ctx)
		return tsErr
	})
	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if infoErr == nil {
		s.appInfo = info
		s.destDir = info.Config.DestDir
	}
	if tsErr == nil {
		s.tools = ts
		s.toolsLoaded = true
		s.toolsErr = nil
	} else {
		s.toolsErr = tsErr
	}
	if err != nil {
		s.logger.Warn("session init", "error", err)
		return fmt.Errorf("load backend state: %w", err)
	}
	return nil
}

// Close stops any poll loop.
func (s *Session) Close() {
	s.runner.Stop()
	s.stop()
}

// Events delivers poller events; pass each one to Apply.
func (s *Session) Events() <-chan poller.Event { return s.runner.Events() }

func (s *Session) StartScan(ctx context.Context, pageURL string) (string, error) {
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		return "", ErrEmptyURL
	}
	s.mu.Lock()
	ultra := s.ultra
	s.mu.Unlock()

	id, err := s.backend.Scan(ctx, pageURL, ultra)
	if err != nil {
		s.logger.Error("start scan", "url", pageURL, "error", err)
		return "", fmt.Errorf("start scan: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.beginJobLocked(id, poller.ModeScan)
	s.items = nil
	s.itemsJob = ""
	s.sel.Reset()
	s.clicks.Reset()
	s.lb.Close()
	s.runner.Start(s.base, id, poller.ModeScan)
	s.logger.Info("scan started", "job_id", id, "url", pageURL, "ultra", ultra)
	return id, nil
}

func (s *Session) beginJobLocked(id string, mode poller.Mode) {
	s.jobID = id
	s.jobMode = mode
	s.job = model.Job{ID: id, Status: model.JobRunning}
	s.running = true
	s.status = "Starting…"
	s.percent = 0
	s.hasPercent = false
}

// StopScan asks the backend to cancel the current job. The poll loop keeps
// running until it observes the terminal status.
func (s *Session) StopScan(ctx context.Context) error {
	s.mu.Lock()
	id := s.jobID
	s.mu.Unlock()
	if id == "" {
		return ErrNoJob
	}
	if err := s.backend.Stop(ctx, id); err != nil {
		s.logger.Error("stop job", "job_id", id, "error", err)
		return fmt.Errorf("stop job %s: %w", id, err)
	}
	s.logger.Info("stop requested", "job_id", id)
	return nil
}

// ClearJob abandons the current job and its items.
func (s *Session) ClearJob() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runner.Stop()
	s.jobID = ""
	s.job = model.Job{}
	s.running = false
	s.status = StatusReady
	s.percent = 0
	s.hasPercent = false
	s.items = nil
	s.itemsJob = ""
	s.sel.Reset()
	s.clicks.Reset()
	s.lb.Close()
}

// StartDirect downloads pageURL through the engine's tool without scanning.
// An empty dest uses the configured destination.
func (s *Session) StartDirect(ctx context.Context, engine model.Engine, pageURL, dest string) (string, error) {
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		return "", ErrEmptyURL
	}
	tool, ok := engine.Tool()
	if !ok {
		return "", fmt.Errorf("direct download needs gallery-dl or yt-dlp, not %q", engine)
	}
	s.mu.Lock()
	if strings.TrimSpace(dest) == "" {
		dest = s.destDir
	}
	toolsLoaded, info := s.toolsLoaded, s.tools.Info(tool)
	s.mu.Unlock()
	if strings.TrimSpace(dest) == "" {
		return "", ErrNoDestination
	}
	if toolsLoaded && !info.Available {
		return "", fmt.Errorf("%w: %s", ErrToolUnavailable, tool)
	}

	id, err := s.backend.Direct(ctx, engine, pageURL, dest)
	if err != nil {
		s.logger.Error("start direct download", "engine", string(engine), "error", err)
		return "", fmt.Errorf("start %s download: %w", tool, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.beginJobLocked(id, poller.ModeDirect)
	s.runner.Start(s.base, id, poller.ModeDirect)
	s.logger.Info("direct download started", "job_id", id, "engine", string(engine), "dest", dest)
	return id, nil
}

// EventOutcome tells the caller what an applied event changed.
type EventOutcome struct {
	Applied  bool
	Finished bool
	Final    model.Job
	Items    int
	Err      error
}

// Apply folds a poller event into the session. Events from superseded loops
// are ignored.
func (s *Session) Apply(ev poller.Event) EventOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.runner.Current(ev.Gen) {
		return EventOutcome{}
	}
	out := EventOutcome{Applied: true}

	if u := ev.Update; u != nil {
		s.job = u.Job
		s.status = u.Job.DisplayMessage()
		if u.HasPercent {
			s.percent = u.Percent
			s.hasPercent = true
		}
	}
	if r := ev.Result; r != nil {
		out.Finished = true
		out.Final = r.Final
		out.Err = r.Err
		s.running = false
		if r.Err != nil {
			s.logger.Error("poll failed", "job_id", r.JobID, "error", r.Err)
		}
		if r.ItemsFetched {
			s.items = r.Items
			s.itemsJob = r.JobID
			s.sel.Prune(s.items)
			s.lb.Close()
			out.Items = len(r.Items)
			s.logger.Info("items loaded", "job_id", r.JobID, "count", len(r.Items))
		}
	}
	return out
}

// DownloadSelected sends every selected item, visible or not, to the bulk
// download endpoint.
func (s *Session) DownloadSelected(ctx context.Context) (*model.DownloadResult, error) {
	s.mu.Lock()
	var picked []model.Item
	for _, it := range s.items {
		if s.sel.Has(it.ID) {
			picked = append(picked, it)
		}
	}
	engine, dest := s.engine, s.destDir
	s.mu.Unlock()

	if len(picked) == 0 {
		return nil, ErrNoSelection
	}
	if strings.TrimSpace(dest) == "" {
		return nil, ErrNoDestination
	}
	s.setStatus(fmt.Sprintf("Downloading %d item(s) with %s…", len(picked), engine))
	res, err := s.backend.Download(ctx, picked, engine, dest)
	s.setStatus(StatusReady)
	if err != nil {
		s.logger.Error("download", "engine", string(engine), "count", len(picked), "error", err)
		return nil, fmt.Errorf("download: %w", err)
	}
	s.logger.Info("download finished", "engine", string(engine), "count", len(picked))
	return res, nil
}

func (s *Session) setStatus(msg string) {
	s.mu.Lock()
	s.status = msg
	s.mu.Unlock()
}

func (s *Session) LoadTools(ctx context.Context) (model.ToolsStatus, error) {
	ts, err := s.backend.ToolsStatus(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.toolsErr = err
		return model.ToolsStatus{}, fmt.Errorf("tools status: %w", err)
	}
	s.tools = ts
	s.toolsLoaded = true
	s.toolsErr = nil
	return ts, nil
}

// UpdateTool triggers the backend self-update. Only Linux backends support
// it; elsewhere the error points at the tool's releases page.
func (s *Session) UpdateTool(ctx context.Context, tool model.Tool) (model.ToolUpdateResult, error) {
	s.mu.Lock()
	platform := s.tools.Platform
	if platform == "" {
		platform = s.appInfo.Platform
	}
	s.mu.Unlock()
	if platform != "" && platform != model.PlatformLinux {
		return model.ToolUpdateResult{}, fmt.Errorf("%w on %s: download %s from %s", ErrUpdateUnsupported, platform, tool, tool.ReleasesURL())
	}
	res, err := s.backend.UpdateTool(ctx, tool)
	if err != nil {
		s.logger.Error("tool update", "tool", string(tool), "error", err)
		return model.ToolUpdateResult{}, fmt.Errorf("update %s: %w", tool, err)
	}
	s.logger.Info("tool update", "tool", string(tool), "ok", res.OK, "message", res.Message)
	if res.OK {
		if _, err := s.LoadTools(ctx); err != nil {
			s.logger.Warn("reload tools after update", "error", err)
		}
	}
	return res, nil
}

func (s *Session) SetDest(ctx context.Context, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return ErrNoDestination
	}
	if err := s.backend.SetDestDir(ctx, path); err != nil {
		return fmt.Errorf("set destination: %w", err)
	}
	s.mu.Lock()
	s.destDir = path
	s.appInfo.Config.DestDir = path
	s.mu.Unlock()
	return nil
}

func (s *Session) SetEngine(e model.Engine) {
	s.mu.Lock()
	s.engine = e
	s.mu.Unlock()
}

// CycleEngine advances builtin -> gallery-dl -> yt-dlp -> builtin.
func (s *Session) CycleEngine() model.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range model.Engines {
		if e == s.engine {
			s.engine = model.Engines[(i+1)%len(model.Engines)]
			return s.engine
		}
	}
	s.engine = model.EngineBuiltin
	return s.engine
}

func (s *Session) ToggleUltra() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ultra = !s.ultra
	return s.ultra
}

// --- filter ---

// SetMinSize commits new minimum dimensions and persists them.
func (s *Session) SetMinSize(ctx context.Context, w, h int) error {
	s.mu.Lock()
	s.filter.SetMinSize(w, h)
	fs := store.FilterSettings{MinW: s.filter.MinW, MinH: s.filter.MinH}
	s.mu.Unlock()
	return s.saveFilter(ctx, fs)
}

// ResetFilter clears sizes and format toggles and persists the zero sizes.
func (s *Session) ResetFilter(ctx context.Context) error {
	s.mu.Lock()
	s.filter = model.FilterState{}
	s.mu.Unlock()
	return s.saveFilter(ctx, store.FilterSettings{})
}

func (s *Session) saveFilter(ctx context.Context, fs store.FilterSettings) error {
	if err := s.prefs.SaveFilterSettings(ctx, fs); err != nil {
		s.logger.Warn("save filter settings", "error", err)
		return fmt.Errorf("save filter settings: %w", err)
	}
	return nil
}

func (s *Session) ToggleFormat(key string) {
	s.mu.Lock()
	s.filter.Toggle(key)
	s.mu.Unlock()
}

func (s *Session) SetThumbSize(ctx context.Context, ts model.ThumbSize) error {
	s.mu.Lock()
	s.thumb = ts
	s.mu.Unlock()
	if err := s.prefs.SaveThumbSize(ctx, ts); err != nil {
		s.logger.Warn("save thumb size", "error", err)
		return fmt.Errorf("save thumbnail size: %w", err)
	}
	return nil
}

func (s *Session) CycleThumbSize(ctx context.Context) (model.ThumbSize, error) {
	s.mu.Lock()
	next := s.thumb.Next()
	s.mu.Unlock()
	return next, s.SetThumbSize(ctx, next)
}

// --- selection ---

func (s *Session) filteredLocked() []model.Item {
	return filter.Apply(s.items, s.filter)
}

// ClickOutcome reports what a card click did.
type ClickOutcome struct {
	Toggled bool
	Opened  bool
}

// Click applies a card click at index i of the filtered view. The second
// unmodified click on the same image within the double-click window opens the
// lightbox instead of toggling.
func (s *Session) Click(i int, mods selection.Modifiers, at time.Time) ClickOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	filtered := s.filteredLocked()
	if i < 0 || i >= len(filtered) {
		return ClickOutcome{}
	}
	it := filtered[i]
	n := s.clicks.Register(it.ID, at)
	if n >= 2 && it.IsImage() && !mods.Shift && !mods.Ctrl {
		s.clicks.Reset()
		return ClickOutcome{Opened: s.lb.Open(filtered, it.ID)}
	}
	s.sel.Click(filtered, i, mods)
	return ClickOutcome{Toggled: true}
}

// Activate applies click selection semantics from the keyboard. It never
// counts toward a double-click.
func (s *Session) Activate(i int, mods selection.Modifiers) {
	s.mu.Lock()
	defer s.mu.Unlock()
	filtered := s.filteredLocked()
	if i < 0 || i >= len(filtered) {
		return
	}
	s.clicks.Reset()
	s.sel.Click(filtered, i, mods)
}

// ToggleCheckbox flips one item without touching the range anchor.
func (s *Session) ToggleCheckbox(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.Set(id, !s.sel.Has(id))
}

func (s *Session) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.SelectAll(s.filteredLocked())
}

func (s *Session) UnselectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.UnselectAll()
}

func (s *Session) Invert() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.Invert(s.filteredLocked())
}

// --- lightbox ---

func (s *Session) OpenLightbox(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lb.Open(s.filteredLocked(), id)
}

// LightboxKey routes esc/left/right to the lightbox while it is visible.
func (s *Session) LightboxKey(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lb.HandleKey(key)
}

func (s *Session) CloseLightbox() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lb.Close()
}

// LoadLightboxImage loads the current lightbox image through the fallback
// chain and reports which source worked.
func (s *Session) LoadLightboxImage(ctx context.Context) (image.Image, string, error) {
	s.mu.Lock()
	it, ok := s.lb.Current()
	jobID := s.itemsJob
	s.mu.Unlock()
	if !ok {
		return nil, "", fmt.Errorf("lightbox is closed")
	}
	return lightbox.Load(ctx, s.backend, lightbox.Sources(s.backend, jobID, it))
}

// --- snapshot ---

type LightboxView struct {
	Visible bool
	Item    model.Item
	Counter string
}

// State is a read-only copy of the session for rendering.
type State struct {
	JobID      string
	JobMode    poller.Mode
	Job        model.Job
	Running    bool
	Status     string
	Percent    float64
	HasPercent bool

	Items    []model.Item
	ItemsJob string
	Filtered []model.Item
	Filter   model.FilterState
	Grid     grid.View
	Selected int

	ThumbSize   model.ThumbSize
	Tools       model.ToolsStatus
	ToolsLoaded bool
	ToolsErr    error
	AppInfo     model.AppInfo
	DestDir     string
	Engine      model.Engine
	Ultra       bool
	Lightbox    LightboxView
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		JobID:       s.jobID,
		JobMode:     s.jobMode,
		Job:         s.job,
		Running:     s.running,
		Status:      s.status,
		Percent:     s.percent,
		HasPercent:  s.hasPercent,
		Items:       s.items,
		ItemsJob:    s.itemsJob,
		Filtered:    s.filteredLocked(),
		Filter:      s.filter.Clone(),
		Selected:    s.sel.Count(),
		ThumbSize:   s.thumb,
		Tools:       s.tools,
		ToolsLoaded: s.toolsLoaded,
		ToolsErr:    s.toolsErr,
		AppInfo:     s.appInfo,
		DestDir:     s.destDir,
		Engine:      s.engine,
		Ultra:       s.ultra,
	}
	st.Grid = grid.Project(s.items, s.filter, s.sel.Snapshot(), s.itemsJob, s.backend.ThumbURL)
	if it, ok := s.lb.Current(); ok {
		st.Lightbox = LightboxView{Visible: true, Item: it, Counter: s.lb.Counter()}
	}
	return st
}

// SelectedIDs returns the selected ids in stable order.
func (s *Session) SelectedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.IDs()
}
