package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"rio-cli/internal/model"
	"rio-cli/internal/store"
)

// Keys stored in the settings database rather than config.toml. They are the
// values the grid restores on startup.
const (
	prefMinW      = "min_w"
	prefMinH      = "min_h"
	prefThumbSize = "thumb_size"
)

type settingsOutput struct {
	ConfigPath string            `json:"config_path"`
	Config     map[string]string `json:"config"`
	Grid       gridPrefs         `json:"grid"`
}

type gridPrefs struct {
	MinW      int             `json:"min_w"`
	MinH      int             `json:"min_h"`
	ThumbSize model.ThumbSize `json:"thumb_size"`
}

func newSettingsCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change saved settings",
		Long: strings.TrimSpace(`
Settings live in two places under the config dir: config.toml holds the
client configuration (` + strings.Join(store.ConfigKeys(), ", ") + `) and the
settings database holds the grid state (` + strings.Join([]string{prefMinW, prefMinH, prefThumbSize}, ", ") + `).`),
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print all settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := settingsOutput{ConfigPath: a.store.ConfigPath(), Config: map[string]string{}}
			for _, k := range store.ConfigKeys() {
				v, _ := a.cfg.Get(k)
				out.Config[k] = v
			}
			g, err := loadGridPrefs(cmd.Context(), a.store)
			if err != nil {
				return err
			}
			out.Grid = g
			return writeOut(cmd, a, out)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := strings.TrimSpace(args[0]), args[1]
			switch key {
			case prefMinW, prefMinH, prefThumbSize:
				if err := setGridPref(cmd.Context(), a.store, key, value); err != nil {
					return err
				}
			default:
				cfg := a.cfg
				if err := cfg.Set(key, value); err != nil {
					return err
				}
				if err := a.store.SaveConfig(cfg); err != nil {
					return err
				}
				a.cfg = cfg
			}
			return writeOut(cmd, a, map[string]any{"key": key, "value": strings.TrimSpace(value)})
		},
	})
	return cmd
}

func loadGridPrefs(ctx context.Context, st store.Store) (gridPrefs, error) {
	if err := st.Ensure(); err != nil {
		return gridPrefs{}, err
	}
	p, err := st.OpenPrefs(ctx)
	if err != nil {
		return gridPrefs{}, err
	}
	defer p.Close()
	fs := p.LoadFilterSettings(ctx)
	return gridPrefs{MinW: fs.MinW, MinH: fs.MinH, ThumbSize: p.LoadThumbSize(ctx)}, nil
}

func setGridPref(ctx context.Context, st store.Store, key, value string) error {
	if err := st.Ensure(); err != nil {
		return err
	}
	p, err := st.OpenPrefs(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	if key == prefThumbSize {
		ts, ok := model.ParseThumbSize(value)
		if !ok {
			return errInvalidArg(key, value, "S", "M", "L", "XL")
		}
		return p.SaveThumbSize(ctx, ts)
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return errInvalidArg(key, value, "a whole number of pixels")
	}
	fs := p.LoadFilterSettings(ctx)
	if key == prefMinW {
		fs.MinW = n
	} else {
		fs.MinH = n
	}
	return p.SaveFilterSettings(ctx, fs)
}
