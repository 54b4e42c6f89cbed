package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"rio-cli/internal/model"
)

func openPrefs(t *testing.T) (Store, *Prefs) {
	t.Helper()
	s := Store{Dir: t.TempDir()}
	p, err := s.OpenPrefs(context.Background())
	if err != nil {
		t.Fatalf("OpenPrefs: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return s, p
}

func TestPrefs_FilterSettingsRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, p := openPrefs(t)

	if got := p.LoadFilterSettings(ctx); got != (FilterSettings{}) {
		t.Fatalf("expected zero settings when missing; got %+v", got)
	}
	if err := p.SaveFilterSettings(ctx, FilterSettings{MinW: 640, MinH: 480}); err != nil {
		t.Fatalf("SaveFilterSettings: %v", err)
	}
	_ = p.Close()

	p2, err := s.OpenPrefs(ctx)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer p2.Close()
	got := p2.LoadFilterSettings(ctx)
	if got.MinW != 640 || got.MinH != 480 {
		t.Fatalf("expected 640x480 after reopen; got %+v", got)
	}
	raw, ok, err := p2.Get(ctx, KeyFilterSettings)
	if err != nil || !ok || raw != `{"minW":640,"minH":480}` {
		t.Fatalf("expected JSON record; got %q ok=%v err=%v", raw, ok, err)
	}
}

func TestPrefs_CorruptRecordsFailSoft(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, p := openPrefs(t)

	if err := p.Put(ctx, KeyFilterSettings, "{not json"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := p.Put(ctx, KeyThumbSize, "gigantic"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if got := p.LoadFilterSettings(ctx); got != (FilterSettings{}) {
		t.Fatalf("expected zero settings for corrupt record; got %+v", got)
	}
	if got := p.LoadThumbSize(ctx); got != model.ThumbM {
		t.Fatalf("expected M for corrupt size; got %q", got)
	}

	if err := p.Put(ctx, KeyFilterSettings, `{"minW":-5,"minH":20}`); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if got := p.LoadFilterSettings(ctx); got.MinW != 0 || got.MinH != 20 {
		t.Fatalf("expected negative width clamped; got %+v", got)
	}
}

func TestPrefs_ThumbSizeClassAndLegacyPixels(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, p := openPrefs(t)

	if got := p.LoadThumbSize(ctx); got != model.DefaultThumbSize {
		t.Fatalf("expected default size; got %q", got)
	}
	if err := p.SaveThumbSize(ctx, model.ThumbXL); err != nil {
		t.Fatalf("SaveThumbSize: %v", err)
	}
	if got := p.LoadThumbSize(ctx); got != model.ThumbXL {
		t.Fatalf("expected XL; got %q", got)
	}
	if err := p.Put(ctx, KeyThumbSize, "200"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if got := p.LoadThumbSize(ctx); got != model.ThumbL {
		t.Fatalf("expected legacy 200px to load as L; got %q", got)
	}
	if err := p.SaveThumbSize(ctx, model.ThumbSize("huge")); err == nil {
		t.Fatalf("expected invalid size to be rejected")
	}
}

func TestPrefs_NilIsDefaults(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	var p *Prefs

	if got := p.LoadFilterSettings(ctx); got != (FilterSettings{}) {
		t.Fatalf("expected zero settings; got %+v", got)
	}
	if got := p.LoadThumbSize(ctx); got != model.ThumbM {
		t.Fatalf("expected M; got %q", got)
	}
	if err := p.SaveThumbSize(ctx, model.ThumbS); err != nil {
		t.Fatalf("expected nil prefs save to be a no-op; got %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpenPrefs_UnopenableDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := (Store{Dir: blocker}).OpenPrefs(context.Background()); err == nil {
		t.Fatalf("expected error when the config dir is a file")
	}
}
