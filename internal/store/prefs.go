package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"rio-cli/internal/model"
)

const (
	prefsFileName = "prefs.sqlite"

	KeyFilterSettings = "rio_filter_settings"
	KeyThumbSize      = "rio_thumb_size"
)

// FilterSettings is the persisted part of the filter. Format toggles are
// per-session and not stored.
type FilterSettings struct {
	MinW int `json:"minW"`
	MinH int `json:"minH"`
}

// Prefs is a small key-value table. A nil *Prefs is valid: loads return
// defaults and saves are no-ops.
type Prefs struct {
	db *sql.DB
}

func (s Store) prefsPath() string {
	return filepath.Join(s.Dir, prefsFileName)
}

func (s Store) OpenPrefs(ctx context.Context) (*Prefs, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.prefsPath())
	if err != nil {
		return nil, err
	}
	// Pragmas for multi-process local usage (TUI + CLI at once).
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS prefs (k TEXT PRIMARY KEY, v TEXT NOT NULL)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create prefs table: %w", err)
	}
	return &Prefs{db: db}, nil
}

func (p *Prefs) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

// Get returns the stored value and whether the key exists.
func (p *Prefs) Get(ctx context.Context, key string) (string, bool, error) {
	if p == nil || p.db == nil {
		return "", false, nil
	}
	var v string
	err := p.db.QueryRowContext(ctx, `SELECT v FROM prefs WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (p *Prefs) Put(ctx context.Context, key, value string) error {
	if p == nil || p.db == nil {
		return nil
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO prefs (k, v) VALUES (?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`,
		key, value)
	return err
}

// LoadFilterSettings returns zero sizes when the record is missing, corrupt
// or unreadable.
func (p *Prefs) LoadFilterSettings(ctx context.Context) FilterSettings {
	raw, ok, err := p.Get(ctx, KeyFilterSettings)
	if err != nil || !ok {
		return FilterSettings{}
	}
	var fs FilterSettings
	if err := json.Unmarshal([]byte(raw), &fs); err != nil {
		return FilterSettings{}
	}
	fs.MinW = max(fs.MinW, 0)
	fs.MinH = max(fs.MinH, 0)
	return fs
}

func (p *Prefs) SaveFilterSettings(ctx context.Context, fs FilterSettings) error {
	fs.MinW = max(fs.MinW, 0)
	fs.MinH = max(fs.MinH, 0)
	b, err := json.Marshal(fs)
	if err != nil {
		return err
	}
	return p.Put(ctx, KeyFilterSettings, string(b))
}

// LoadThumbSize accepts a size class or a legacy pixel width and falls back
// to the default size.
func (p *Prefs) LoadThumbSize(ctx context.Context) model.ThumbSize {
	raw, ok, err := p.Get(ctx, KeyThumbSize)
	if err != nil || !ok {
		return model.DefaultThumbSize
	}
	ts, _ := model.ParseThumbSize(strings.TrimSpace(raw))
	return ts
}

func (p *Prefs) SaveThumbSize(ctx context.Context, ts model.ThumbSize) error {
	if _, ok := model.ParseThumbSize(string(ts)); !ok {
		return fmt.Errorf("invalid thumbnail size %q", ts)
	}
	return p.Put(ctx, KeyThumbSize, string(ts))
}
