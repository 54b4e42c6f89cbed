package cli

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"rio-cli/internal/app"
	"rio-cli/internal/filter"
	"rio-cli/internal/grid"
	"rio-cli/internal/model"
)

// session builds a non-persistent session for one command.
func (a *App) session(cmd *cobra.Command) (*app.Session, error) {
	c, err := a.client(cmd)
	if err != nil {
		return nil, err
	}
	return app.New(c, app.Options{
		Logger:       a.logger,
		PollInterval: a.cfg.PollInterval(),
		Engine:       a.cfg.Engine(),
	}), nil
}

// waitJob applies poll events until the current job finishes.
func waitJob(cmd *cobra.Command, s *app.Session, desc string) (app.EventOutcome, error) {
	bar := newJobBar(cmd.ErrOrStderr(), desc)
	defer bar.finish()
	ctx := cmd.Context()
	for {
		select {
		case ev := <-s.Events():
			out := s.Apply(ev)
			if !out.Applied {
				continue
			}
			st := s.Snapshot()
			bar.update(st.Status, st.Percent, st.HasPercent)
			if out.Finished {
				return out, out.Err
			}
		case <-ctx.Done():
			return app.EventOutcome{}, ctx.Err()
		}
	}
}

type jobOutput struct {
	JobID   string          `json:"job_id"`
	Status  model.JobStatus `json:"status"`
	Message string          `json:"message,omitempty"`
	Items   []model.Item    `json:"items,omitempty"`
}

func finalOutput(id string, out app.EventOutcome) jobOutput {
	return jobOutput{JobID: id, Status: out.Final.Status, Message: out.Final.Message}
}

func jobErr(o jobOutput) error {
	if o.Status == model.JobDone {
		return nil
	}
	return jobFailedError{jobID: o.JobID, status: string(o.Status), message: o.Message}
}

func newScanCmd(a *App) *cobra.Command {
	var ultra, wait bool
	cmd := &cobra.Command{
		Use:   "scan <url>",
		Short: "Start a scan of a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			if ultra {
				s.ToggleUltra()
			}
			id, err := s.StartScan(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !wait {
				return writeOut(cmd, a, jobOutput{JobID: id, Status: model.JobRunning})
			}
			out, err := waitJob(cmd, s, "scanning")
			if err != nil {
				return err
			}
			o := finalOutput(id, out)
			o.Items = s.Snapshot().Items
			if err := writeOut(cmd, a, o); err != nil {
				return err
			}
			return jobErr(o)
		},
	}
	cmd.Flags().BoolVar(&ultra, "ultra", false, "Deep scan (slower, finds more)")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the scan to finish and print its items")
	return cmd
}

func newStatusCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show a job's status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd)
			if err != nil {
				return err
			}
			job, err := c.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeOut(cmd, a, job)
		},
	}
}

func newStopCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <job-id>",
		Short: "Ask the backend to cancel a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd)
			if err != nil {
				return err
			}
			if err := c.Stop(cmd.Context(), args[0]); err != nil {
				return err
			}
			return writeOut(cmd, a, map[string]any{"job_id": args[0], "stop_requested": true})
		},
	}
}

type filterFlags struct {
	minW    int
	minH    int
	formats []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.minW, "min-w", 0, "Hide images narrower than this (unknown sizes are kept)")
	cmd.Flags().IntVar(&f.minH, "min-h", 0, "Hide images shorter than this (unknown sizes are kept)")
	cmd.Flags().StringSliceVar(&f.formats, "format-filter", nil, "Only keep images of these formats (jpg, png, gif, webp); repeatable")
}

func (f filterFlags) state() model.FilterState {
	var st model.FilterState
	st.SetMinSize(f.minW, f.minH)
	for _, k := range f.formats {
		st.Toggle(k)
	}
	return st
}

// itemList renders as a table with one row per item.
type itemList []model.Item

func (l itemList) TableHeader() []string {
	return []string{"id", "kind", "format", "dims", "size", "url"}
}

func (l itemList) TableRows() [][]any {
	rows := make([][]any, 0, len(l))
	for _, it := range l {
		size := ""
		if it.Size > 0 {
			size = humanize.Bytes(uint64(it.Size))
		}
		rows = append(rows, []any{it.ID, string(it.Kind), grid.FormatBadge(it), grid.Dims(it), size, it.URL})
	}
	return rows
}

func newItemsCmd(a *App) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "items <job-id>",
		Short: "List the items a finished scan found",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd)
			if err != nil {
				return err
			}
			items, err := c.Items(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeOut(cmd, a, itemList(filter.Apply(items, ff.state())))
		},
	}
	ff.register(cmd)
	return cmd
}

func newDirectCmd(a *App) *cobra.Command {
	var dest string
	var wait bool
	cmd := &cobra.Command{
		Use:   "direct <gallery-dl|yt-dlp> <url>",
		Short: "Download a page with gallery-dl or yt-dlp without scanning",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, ok := model.ParseEngine(args[0])
			if !ok || engine == model.EngineBuiltin {
				return errInvalidArg("engine", args[0], string(model.EngineGalleryDL), string(model.EngineYTDLP))
			}
			s, err := a.session(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.Init(cmd.Context()); err != nil {
				return err
			}
			id, err := s.StartDirect(cmd.Context(), engine, args[1], dest)
			if err != nil {
				return err
			}
			if !wait {
				return writeOut(cmd, a, jobOutput{JobID: id, Status: model.JobRunning})
			}
			out, err := waitJob(cmd, s, string(engine))
			if err != nil {
				return err
			}
			o := finalOutput(id, out)
			if err := writeOut(cmd, a, o); err != nil {
				return err
			}
			return jobErr(o)
		},
	}
	cmd.Flags().StringVar(&dest, "dest", "", "Destination folder (default: the backend's configured folder)")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the download to finish")
	return cmd
}

func newDownloadCmd(a *App) *cobra.Command {
	var (
		ff     filterFlags
		engine string
		dest   string
		ids    []string
	)
	cmd := &cobra.Command{
		Use:   "download <job-id>",
		Short: "Download items of a finished scan",
		Long: strings.TrimSpace(`
Downloads every item of the scan that passes the filters, or only the items
named with --id.`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd)
			if err != nil {
				return err
			}
			e := a.cfg.Engine()
			if engine != "" {
				var ok bool
				if e, ok = model.ParseEngine(engine); !ok {
					return errInvalidArg("engine", engine, engineNames()...)
				}
			}
			ctx := cmd.Context()
			items, err := c.Items(ctx, args[0])
			if err != nil {
				return err
			}
			picked := pickItems(filter.Apply(items, ff.state()), ids)
			if len(picked) == 0 {
				return app.ErrNoSelection
			}
			if strings.TrimSpace(dest) == "" {
				info, err := c.AppInfo(ctx)
				if err != nil {
					return err
				}
				dest = info.Config.DestDir
			}
			if strings.TrimSpace(dest) == "" {
				return app.ErrNoDestination
			}
			a.logger.Info("download", "job_id", args[0], "count", len(picked), "engine", string(e), "dest", dest)
			res, err := c.Download(ctx, picked, e, dest)
			if err != nil {
				return err
			}
			out := map[string]any{"job_id": args[0], "engine": e, "dest_dir": dest, "requested": len(picked)}
			if res != nil {
				out["ok"] = res.OK
				out["fail"] = res.Fail
			}
			return writeOut(cmd, a, out)
		},
	}
	ff.register(cmd)
	cmd.Flags().StringVar(&engine, "engine", "", "Downloader: "+strings.Join(engineNames(), ", ")+" (default from config)")
	cmd.Flags().StringVar(&dest, "dest", "", "Destination folder (default: the backend's configured folder)")
	cmd.Flags().StringSliceVar(&ids, "id", nil, "Only download these item ids; repeatable")
	return cmd
}

// pickItems keeps items named in ids, in item order. No ids keeps everything.
func pickItems(items []model.Item, ids []string) []model.Item {
	if len(ids) == 0 {
		return items
	}
	want := map[string]bool{}
	for _, id := range ids {
		want[strings.TrimSpace(id)] = true
	}
	var out []model.Item
	for _, it := range items {
		if want[it.ID] {
			out = append(out, it)
		}
	}
	return out
}

func engineNames() []string {
	names := make([]string, 0, len(model.Engines))
	for _, e := range model.Engines {
		names = append(names, string(e))
	}
	return names
}
