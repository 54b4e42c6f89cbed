package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"rio-cli/internal/api"
	"rio-cli/internal/app"
	"rio-cli/internal/format"
	"rio-cli/internal/logging"
	"rio-cli/internal/store"
	"rio-cli/internal/tui"
)

type App struct {
	Server    string
	Format    string
	Pretty    bool
	LogLevel  string
	LogFile   string
	ConfigDir string

	store  store.Store
	cfg    store.Config
	logger *slog.Logger
	closer io.Closer
}

func NewRootCmd() *cobra.Command {
	a := &App{}

	cmd := &cobra.Command{
		Use:          "rio",
		Short:        "Scan pages for media, pick items, download them",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive grid
  rio

  # Scan a page and wait for the result
  rio scan https://example.com/gallery --wait

  # List large JPEGs of a finished scan as a table
  rio items job-123 --min-w 1000 --format-filter jpg --format table

  # Download a page with yt-dlp
  rio direct yt-dlp https://example.com/video --wait
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) == 0 {
				return runTUI(cmd, a)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.setup(cmd)
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if a.closer != nil {
			return a.closer.Close()
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&a.Server, "server", envOr("RIO_SERVER", ""), "Backend address (default from config.toml, then "+store.DefaultServer+")")
	cmd.PersistentFlags().StringVar(&a.Format, "format", envOr("RIO_FORMAT", "json"), "Output format ("+strings.Join(format.Formats, "|")+")")
	cmd.PersistentFlags().BoolVar(&a.Pretty, "pretty", false, "Pretty-print JSON/EDN output")
	cmd.PersistentFlags().StringVar(&a.LogLevel, "log-level", envOr("RIO_LOG_LEVEL", ""), "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&a.LogFile, "log-file", envOr("RIO_LOG_FILE", ""), "Append logs to this file instead of stderr")
	cmd.PersistentFlags().StringVar(&a.ConfigDir, "config-dir", envOr("RIO_CONFIG_DIR", ""), "Directory holding config.toml and saved settings (default ~/.rio)")

	cmd.AddCommand(newScanCmd(a))
	cmd.AddCommand(newStatusCmd(a))
	cmd.AddCommand(newItemsCmd(a))
	cmd.AddCommand(newStopCmd(a))
	cmd.AddCommand(newDirectCmd(a))
	cmd.AddCommand(newDownloadCmd(a))
	cmd.AddCommand(newToolsCmd(a))
	cmd.AddCommand(newDestCmd(a))
	cmd.AddCommand(newSettingsCmd(a))

	return cmd
}

// setup resolves the store and config, then fills unset flags from the
// config file.
func (a *App) setup(cmd *cobra.Command) error {
	st, err := store.Open(a.ConfigDir)
	if err != nil {
		return err
	}
	a.store = st
	cfg, err := st.LoadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg
	if strings.TrimSpace(a.Server) == "" {
		a.Server = cfg.Server
	}
	if strings.TrimSpace(a.LogLevel) == "" {
		a.LogLevel = cfg.LogLevel
	}
	if strings.TrimSpace(a.LogFile) == "" {
		a.LogFile = cfg.LogFile
	}
	return nil
}

// initLogger builds the logger once. Interactive sessions always log to a
// file because the TUI owns the terminal.
func (a *App) initLogger(cmd *cobra.Command, interactive bool) (*slog.Logger, error) {
	if a.logger != nil {
		return a.logger, nil
	}
	opts := logging.Options{Level: a.LogLevel, Path: a.LogFile, Writer: cmd.ErrOrStderr()}
	if interactive && opts.Path == "" {
		if err := a.store.Ensure(); err != nil {
			return nil, err
		}
		opts.Path = filepath.Join(a.store.Dir, "rio.log")
	}
	l, c, err := logging.New(opts)
	if err != nil {
		return nil, err
	}
	a.logger, a.closer = l, c
	return l, nil
}

func (a *App) client(cmd *cobra.Command) (*api.Client, error) {
	l, err := a.initLogger(cmd, false)
	if err != nil {
		return nil, err
	}
	return api.New(a.Server, api.WithLogger(l), api.WithTimeout(a.cfg.RequestTimeout()))
}

func runTUI(cmd *cobra.Command, a *App) error {
	l, err := a.initLogger(cmd, true)
	if err != nil {
		return err
	}
	c, err := api.New(a.Server, api.WithLogger(l), api.WithTimeout(a.cfg.RequestTimeout()))
	if err != nil {
		return err
	}
	if err := a.store.Ensure(); err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	prefs, err := a.store.OpenPrefs(ctx)
	if err != nil {
		// Settings only persist for the session when the database is unusable.
		l.Warn("open prefs", "error", err)
		prefs = nil
	}
	defer prefs.Close()

	var p app.Prefs
	if prefs != nil {
		p = prefs
	}
	s := app.New(c, app.Options{
		Prefs:        p,
		Logger:       l,
		PollInterval: a.cfg.PollInterval(),
		Engine:       a.cfg.Engine(),
	})
	defer s.Close()
	l.Info("tui start", "server", c.BaseURL())
	return tui.Run(ctx, s)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, a *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, a.Format, a.Pretty)
}
