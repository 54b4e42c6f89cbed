package filter

import (
	"reflect"
	"testing"

	"rio-cli/internal/model"
)

func ids(items []model.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func sampleItems() []model.Item {
	return []model.Item{
		{ID: "a", Kind: model.KindImage, Fmt: "JPEG", W: 800, H: 600},
		{ID: "b", Kind: model.KindImage, Fmt: "PNG", W: 100, H: 100},
		{ID: "c", Kind: model.KindVideo, CT: "video/mp4"},
		{ID: "d", Kind: model.KindImage, Fmt: "ERR"},
		{ID: "e", Kind: model.KindImage, Fmt: "GIF"},
		{ID: "f", Kind: model.KindVideo, Fmt: "BIG"},
		{ID: "g", Kind: model.KindImage, Fmt: "jpg", W: 1920, H: 1080},
		{ID: "h", Kind: model.KindImage, Fmt: "WEBP", W: 400, H: 2000},
	}
}

func TestApply_NoFilterKeepsAllButErrAndBig(t *testing.T) {
	t.Parallel()

	got := ids(Apply(sampleItems(), model.FilterState{}))
	want := []string{"a", "b", "c", "e", "g", "h"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v; got %v", want, got)
	}
}

func TestApply_ErrAndBigExcludedForAnyState(t *testing.T) {
	t.Parallel()

	states := []model.FilterState{
		{},
		{MinW: 10000, MinH: 10000},
		{Formats: map[string]bool{"png": true}},
		{Formats: map[string]bool{"jpg": true, "gif": true, "webp": true, "png": true}},
	}
	for _, st := range states {
		for _, it := range Apply(sampleItems(), st) {
			if it.Fmt == "ERR" || it.Fmt == "BIG" {
				t.Fatalf("state %+v: expected %s to be excluded", st, it.ID)
			}
		}
	}
}

func TestApply_FormatFilterExemptsNonImages(t *testing.T) {
	t.Parallel()

	items := []model.Item{
		{ID: "v1", Kind: model.KindVideo, Fmt: "MP4", W: 1, H: 1},
		{ID: "x", Kind: "audio", CT: "audio/mpeg"},
		{ID: "p", Kind: model.KindImage, Fmt: "PNG"},
		{ID: "j", Kind: model.KindImage, Fmt: "JPEG"},
	}
	got := ids(Apply(items, model.FilterState{Formats: map[string]bool{"png": true}, MinW: 500, MinH: 500}))
	want := []string{"v1", "x", "p"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v; got %v", want, got)
	}
}

func TestApply_JpgKeyMatchesJpegVariants(t *testing.T) {
	t.Parallel()

	got := ids(Apply(sampleItems(), model.FilterState{Formats: map[string]bool{"jpg": true}}))
	want := []string{"a", "c", "g"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v; got %v", want, got)
	}
}

func TestApply_MinSizeSkipsItemsWithoutDimensions(t *testing.T) {
	t.Parallel()

	got := ids(Apply(sampleItems(), model.FilterState{MinW: 500, MinH: 500}))
	// b is too small; e has no dimensions and passes; h passes (400 < 500 wide -> dropped).
	want := []string{"a", "c", "e", "g"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v; got %v", want, got)
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := sampleItems()
	before := append([]model.Item(nil), in...)
	_ = Apply(in, model.FilterState{MinW: 1000, Formats: map[string]bool{"gif": true}})
	if !reflect.DeepEqual(in, before) {
		t.Fatalf("expected input to be untouched")
	}
}

func TestHidden_CountsOnlyFilterDrops(t *testing.T) {
	t.Parallel()

	items := sampleItems()
	if n := Hidden(items, model.FilterState{}); n != 0 {
		t.Fatalf("expected 0 hidden without filters; got %d", n)
	}
	if n := Hidden(items, model.FilterState{Formats: map[string]bool{"gif": true}}); n != 4 {
		t.Fatalf("expected 4 hidden by gif filter; got %d", n)
	}
	if n := Displayable(items); n != 6 {
		t.Fatalf("expected 6 displayable; got %d", n)
	}
}

func TestMatches(t *testing.T) {
	t.Parallel()

	cases := []struct {
		fmt, key string
		want     bool
	}{
		{"JPEG", "jpg", true},
		{"jpg", "JPG", true},
		{"MPO-JPEG", "jpg", true},
		{"PNG", "jpg", false},
		{"png", "png", true},
		{"WEBP", "webp", true},
		{"", "gif", false},
		{"AVIF", "avif", true},
	}
	for _, tc := range cases {
		if got := Matches(tc.fmt, tc.key); got != tc.want {
			t.Fatalf("Matches(%q,%q): expected %v; got %v", tc.fmt, tc.key, tc.want, got)
		}
	}
}
