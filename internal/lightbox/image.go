package lightbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"rio-cli/internal/model"
)

// ThumbResolver builds backend thumbnail references.
type ThumbResolver interface {
	ThumbURL(jobID, itemID string) string
	ThumbLargeURL(jobID, itemID string) string
}

type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// Sources returns the load order for an item: full resolution, then the
// large thumbnail, then the small one.
func Sources(r ThumbResolver, jobID string, it model.Item) []string {
	var out []string
	if u := strings.TrimSpace(it.URL); u != "" {
		out = append(out, u)
	}
	if r != nil && jobID != "" {
		out = append(out, r.ThumbLargeURL(jobID, it.ID), r.ThumbURL(jobID, it.ID))
	}
	return out
}

// Load fetches and decodes the first source that works. A stage is tried
// only after the previous one failed to fetch or decode.
func Load(ctx context.Context, f Fetcher, sources []string) (image.Image, string, error) {
	if len(sources) == 0 {
		return nil, "", errors.New("lightbox: no image sources")
	}
	var errs []error
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		b, err := f.Fetch(ctx, src)
		if err != nil {
			errs = append(errs, fmt.Errorf("fetch %s: %w", src, err))
			continue
		}
		img, _, err := image.Decode(bytes.NewReader(b))
		if err != nil {
			errs = append(errs, fmt.Errorf("decode %s: %w", src, err))
			continue
		}
		return img, src, nil
	}
	return nil, "", errors.Join(errs...)
}

// Fit returns the largest size with img's aspect ratio that fits in
// cols x rows terminal cells, counting two pixels per cell vertically.
func Fit(b image.Rectangle, cols, rows int) (int, int) {
	iw, ih := b.Dx(), b.Dy()
	if iw <= 0 || ih <= 0 || cols <= 0 || rows <= 0 {
		return 0, 0
	}
	maxH := rows * 2
	w, h := cols, ih*cols/iw
	if h > maxH {
		h = maxH
		w = iw * maxH / ih
	}
	return max(w, 1), max(h, 1)
}

// Paint renders img as upper-half-block cells within cols x rows.
func Paint(img image.Image, cols, rows int) string {
	if img == nil {
		return ""
	}
	w, h := Fit(img.Bounds(), cols, rows)
	if w == 0 {
		return ""
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	var sb strings.Builder
	for y := 0; y < h; y += 2 {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := 0; x < w; x++ {
			st := lipgloss.NewStyle().Foreground(hex(dst.RGBAAt(x, y)))
			if y+1 < h {
				st = st.Background(hex(dst.RGBAAt(x, y+1)))
			}
			sb.WriteString(st.Render("▀"))
		}
	}
	return sb.String()
}

func hex(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}
