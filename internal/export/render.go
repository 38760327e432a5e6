package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"sync"
	"time"

	"github.com/cabcoat/cabcoat/internal/models"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
	_ "golang.org/x/image/webp"
)

// Quality is the JPEG quality of exported artifacts.
const Quality = 95

// Artifact is an encoded export ready for download.
type Artifact struct {
	Filename string
	MimeType string
	Data     []byte
	Width    int
	Height   int
}

// Filename returns the download name for an export created at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("cabcoat-design-%d.jpg", t.UnixMilli())
}

// Export decodes the generated image, composites the footer for col and encodes the result.
func Export(generated models.Image, col *models.Color, now time.Time) (*Artifact, error) {
	src, _, err := image.Decode(bytes.NewReader(generated.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode generated image: %w", err)
	}

	canvas := Compose(src, col)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}

	b := canvas.Bounds()
	slog.Info("Export composed", "width", b.Dx(), "height", b.Dy(), "bytes", buf.Len())
	return &Artifact{
		Filename: Filename(now),
		MimeType: "image/jpeg",
		Data:     buf.Bytes(),
		Width:    b.Dx(),
		Height:   b.Dy(),
	}, nil
}

// Compose lays out and draws the export canvas for src.
func Compose(src image.Image, col *models.Color) *image.RGBA {
	b := src.Bounds()
	plan := Layout(b.Dx(), b.Dy(), col)
	return Render(src, plan)
}

// Render draws plan onto a new canvas. Text that cannot be drawn is skipped.
func Render(src image.Image, plan Plan) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, plan.Width, plan.Height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(plan.Background), image.Point{}, draw.Src)
	draw.Draw(dst, plan.Image, src, src.Bounds().Min, draw.Src)
	draw.Draw(dst, plan.Footer, image.NewUniform(plan.Background), image.Point{}, draw.Src)
	draw.Draw(dst, plan.Divider, image.NewUniform(plan.DividerRGB), image.Point{}, draw.Src)

	if s := plan.Swatch; s != nil {
		cx, cy := float32(s.Center.X), float32(s.Center.Y)
		half := float32(s.StrokeWidth) / 2
		fillCircle(dst, cx, cy, float32(s.Radius)+half, s.Stroke)
		fillCircle(dst, cx, cy, float32(s.Radius)-half, s.Fill)
	}

	for _, line := range plan.Lines {
		if err := drawText(dst, line); err != nil {
			slog.Warn("Skipping export text", "text", line.Text, "err", err)
		}
	}

	return dst
}

// fillCircle rasterises a circle approximated by four cubic Béziers.
func fillCircle(dst draw.Image, cx, cy, r float32, c color.Color) {
	if r <= 0 {
		return
	}
	rect := image.Rect(int(cx-r)-1, int(cy-r)-1, int(cx+r)+2, int(cy+r)+2).Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}

	ox, oy := cx-float32(rect.Min.X), cy-float32(rect.Min.Y)
	const k = 0.5522847498
	z := vector.NewRasterizer(rect.Dx(), rect.Dy())
	z.MoveTo(ox+r, oy)
	z.CubeTo(ox+r, oy+k*r, ox+k*r, oy+r, ox, oy+r)
	z.CubeTo(ox-k*r, oy+r, ox-r, oy+k*r, ox-r, oy)
	z.CubeTo(ox-r, oy-k*r, ox-k*r, oy-r, ox, oy-r)
	z.CubeTo(ox+k*r, oy-r, ox+r, oy-k*r, ox+r, oy)
	z.ClosePath()
	z.Draw(dst, rect, image.NewUniform(c), image.Point{})
}

var (
	boldOnce sync.Once
	boldFont *opentype.Font
	boldErr  error
)

func face(size float64) (font.Face, error) {
	boldOnce.Do(func() {
		boldFont, boldErr = opentype.Parse(gobold.TTF)
	})
	if boldErr != nil {
		return nil, boldErr
	}
	return opentype.NewFace(boldFont, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func drawText(dst draw.Image, line TextLine) error {
	if line.Text == "" {
		return nil
	}
	f, err := face(line.Size)
	if err != nil {
		return err
	}
	defer f.Close()

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(line.Color),
		Face: f,
	}
	x := fixed.I(line.X)
	if line.Align == AlignRight {
		x -= d.MeasureString(line.Text)
	}
	d.Dot = fixed.Point26_6{X: x, Y: fixed.I(line.Baseline)}
	d.DrawString(line.Text)
	return nil
}
