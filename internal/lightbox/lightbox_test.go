package lightbox

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"rio-cli/internal/model"
)

func images(ids ...string) []model.Item {
	out := make([]model.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Item{ID: id, Kind: model.KindImage, URL: "https://x/" + id})
	}
	return out
}

func TestNavigator_WrapsBothWays(t *testing.T) {
	t.Parallel()

	var n Navigator
	if !n.Open(images("a", "b", "c"), "c") {
		t.Fatalf("expected open to succeed")
	}
	if n.Index() != 2 {
		t.Fatalf("expected index 2; got %d", n.Index())
	}
	n.Next()
	if n.Index() != 0 {
		t.Fatalf("expected next from 2 to wrap to 0; got %d", n.Index())
	}
	n.Prev()
	if n.Index() != 2 {
		t.Fatalf("expected prev from 0 to wrap to 2; got %d", n.Index())
	}
	if got := n.Counter(); got != "3 / 3" {
		t.Fatalf("expected counter 3 / 3; got %q", got)
	}
}

func TestNavigator_ScopeIsImagesOnly(t *testing.T) {
	t.Parallel()

	filtered := []model.Item{
		{ID: "a", Kind: model.KindImage},
		{ID: "v", Kind: model.KindVideo},
		{ID: "b", Kind: model.KindImage},
	}
	var n Navigator
	if n.Open(filtered, "v") {
		t.Fatalf("expected open on a video to be a no-op")
	}
	if n.Visible() {
		t.Fatalf("expected lightbox hidden")
	}
	if !n.Open(filtered, "b") {
		t.Fatalf("expected open on b")
	}
	if n.Len() != 2 || n.Index() != 1 {
		t.Fatalf("expected scope of 2 images at index 1; got len=%d index=%d", n.Len(), n.Index())
	}
}

func TestNavigator_OpenMissingIsNoop(t *testing.T) {
	t.Parallel()

	var n Navigator
	if n.Open(images("a", "b"), "zzz") {
		t.Fatalf("expected no-op for an item outside the filtered view")
	}
	if _, ok := n.Current(); ok {
		t.Fatalf("expected no current item")
	}
}

func TestNavigator_KeysOnlyWhileVisible(t *testing.T) {
	t.Parallel()

	var n Navigator
	if n.HandleKey("right") {
		t.Fatalf("expected keys ignored while hidden")
	}
	n.Open(images("a", "b"), "a")
	if !n.HandleKey("right") || n.Index() != 1 {
		t.Fatalf("expected right to advance; got index %d", n.Index())
	}
	if !n.HandleKey("left") || n.Index() != 0 {
		t.Fatalf("expected left to go back; got index %d", n.Index())
	}
	if n.HandleKey("x") {
		t.Fatalf("expected unrelated key not consumed")
	}
	if !n.HandleKey("esc") || n.Visible() {
		t.Fatalf("expected esc to close")
	}
}

type resolver struct{}

func (resolver) ThumbURL(jobID, id string) string      { return "small/" + jobID + "/" + id }
func (resolver) ThumbLargeURL(jobID, id string) string { return "large/" + jobID + "/" + id }

func TestSources_Order(t *testing.T) {
	t.Parallel()

	got := Sources(resolver{}, "j1", model.Item{ID: "a", URL: "https://x/a.jpg"})
	want := []string{"https://x/a.jpg", "large/j1/a", "small/j1/a"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v; got %v", want, got)
	}
}

type fakeFetcher struct {
	bodies map[string][]byte
	calls  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, ref string) ([]byte, error) {
	f.calls = append(f.calls, ref)
	b, ok := f.bodies[ref]
	if !ok {
		return nil, errors.New("not found")
	}
	return b, nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestLoad_FallsBackInOrder(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{bodies: map[string][]byte{
		"large": []byte("not an image"),
		"small": pngBytes(t, 4, 4),
	}}
	img, src, err := Load(context.Background(), f, []string{"full", "large", "small"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if src != "small" {
		t.Fatalf("expected small thumbnail to be used; got %q", src)
	}
	if img.Bounds().Dx() != 4 {
		t.Fatalf("expected decoded 4px image; got %v", img.Bounds())
	}
	if !reflect.DeepEqual(f.calls, []string{"full", "large", "small"}) {
		t.Fatalf("expected each stage tried once in order; got %v", f.calls)
	}
}

func TestLoad_StopsAtFirstSuccess(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{bodies: map[string][]byte{"full": pngBytes(t, 2, 2)}}
	_, src, err := Load(context.Background(), f, []string{"full", "large", "small"})
	if err != nil || src != "full" {
		t.Fatalf("expected full source; got %q, %v", src, err)
	}
	if len(f.calls) != 1 {
		t.Fatalf("expected a single fetch; got %v", f.calls)
	}
}

func TestLoad_AllFail(t *testing.T) {
	t.Parallel()

	_, _, err := Load(context.Background(), &fakeFetcher{}, []string{"a", "b"})
	if err == nil || !strings.Contains(err.Error(), "fetch b") {
		t.Fatalf("expected joined error mentioning every stage; got %v", err)
	}
}

func TestPaint_FitsBox(t *testing.T) {
	t.Parallel()

	img, _, err := image.Decode(bytes.NewReader(pngBytes(t, 20, 10)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	out := Paint(img, 10, 10)
	lines := strings.Split(out, "\n")
	// 20x10 into 10 cols -> 10x5 pixels -> 3 rows of half blocks.
	if len(lines) != 3 {
		t.Fatalf("expected 3 rows; got %d", len(lines))
	}
	for _, l := range lines {
		if w := ansi.StringWidth(l); w != 10 {
			t.Fatalf("expected row width 10; got %d", w)
		}
	}
}

func TestFit(t *testing.T) {
	t.Parallel()

	if w, h := Fit(image.Rect(0, 0, 100, 400), 40, 10); w != 5 || h != 20 {
		t.Fatalf("expected 5x20 for a tall image; got %dx%d", w, h)
	}
	if w, h := Fit(image.Rect(0, 0, 0, 0), 40, 10); w != 0 || h != 0 {
		t.Fatalf("expected 0x0 for an empty image; got %dx%d", w, h)
	}
}
