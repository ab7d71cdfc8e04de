package chart

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	_ "gonum.org/v1/plot/vg/vgeps"
	"gonum.org/v1/plot/vg/vgimg"
	_ "gonum.org/v1/plot/vg/vgpdf"
	_ "gonum.org/v1/plot/vg/vgsvg"

	"github.com/ccollicutt/yawlog/internal/logger"
	"github.com/ccollicutt/yawlog/pkg/series"
)

// Defaults for rendering.
const (
	DefaultFormat = "png"
	DefaultDPI    = 300
)

// ErrNoData is returned when the series has no samples to draw.
var ErrNoData = errors.New("no samples to plot")

// Options controls the output encoding.
type Options struct {
	// Format is one of png, jpg, jpeg, tif, tiff, svg, pdf, eps.
	Format string

	// DPI applies to raster formats.
	DPI int
}

func (o Options) normalized() Options {
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	o.Format = strings.ToLower(o.Format)
	if o.DPI <= 0 {
		o.DPI = DefaultDPI
	}
	return o
}

// SupportedFormat reports whether format can be rendered.
func SupportedFormat(format string) bool {
	switch strings.ToLower(format) {
	case "png", "jpg", "jpeg", "tif", "tiff", "svg", "pdf", "eps":
		return true
	}
	return false
}

// Render draws s into w using layout. Panels are stacked top to bottom and
// share the x range of the first column.
func Render(ctx context.Context, w io.Writer, s *series.Series, layout *Layout, opts Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.Len() == 0 {
		return ErrNoData
	}
	if len(layout.Panels) == 0 {
		return errors.New("layout has no panels")
	}
	opts = opts.normalized()

	plots, err := buildPlots(s, layout)
	if err != nil {
		return err
	}

	cw, err := newCanvas(vg.Length(layout.Width)*vg.Inch, vg.Length(layout.Height)*vg.Inch, opts)
	if err != nil {
		return err
	}

	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      2 * vg.Millimeter,
		PadTop:    2 * vg.Millimeter,
		PadBottom: 2 * vg.Millimeter,
		PadLeft:   2 * vg.Millimeter,
		PadRight:  2 * vg.Millimeter,
	}
	canvases := plot.Align(plots, tiles, draw.New(cw))
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	if _, err := cw.WriteTo(w); err != nil {
		return fmt.Errorf("encoding %s: %w", opts.Format, err)
	}
	return nil
}

// RenderFile renders into path, creating parent directories as needed.
func RenderFile(ctx context.Context, path string, s *series.Series, layout *Layout, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating image directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- output path comes from config
	if err != nil {
		return fmt.Errorf("creating image: %w", err)
	}
	if err := Render(ctx, f, s, layout, opts); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

func buildPlots(s *series.Series, layout *Layout) ([][]*plot.Plot, error) {
	xs := s.X()
	xmin, xmax := math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		if !finite(x) {
			continue
		}
		xmin = math.Min(xmin, x)
		xmax = math.Max(xmax, x)
	}

	plots := make([][]*plot.Plot, len(layout.Panels))
	for i, panel := range layout.Panels {
		p := plot.New()
		if i == 0 {
			p.Title.Text = layout.Title
		}
		if i == len(layout.Panels)-1 {
			p.X.Label.Text = layout.XLabel
		}
		p.Y.Label.Text = panel.YLabel
		p.Add(plotter.NewGrid())

		for _, tr := range panel.Traces {
			ys := s.Column(tr.Column)
			if ys == nil {
				return nil, fmt.Errorf("panel %q: unknown column %q", panel.YLabel, tr.Column)
			}
			sc, dropped, err := newScatter(xs, ys, tr)
			if err != nil {
				return nil, fmt.Errorf("panel %q: %w", panel.YLabel, err)
			}
			if dropped > 0 {
				logger.Warn("dropped non-finite points", "column", tr.Column, "count", dropped)
			}
			p.Add(sc)
			p.Legend.Add(tr.Legend, sc)
		}

		if xmin <= xmax {
			p.X.Min, p.X.Max = xmin, xmax
		}
		if panel.YRange != nil {
			p.Y.Min, p.Y.Max = panel.YRange.Min, panel.YRange.Max
		}
		plots[i] = []*plot.Plot{p}
	}
	return plots, nil
}

// newScatter builds the glyphs for one trace. Points with a NaN or infinite
// coordinate are left out and counted.
func newScatter(xs, ys []float64, tr Trace) (*plotter.Scatter, int, error) {
	pts := make(plotter.XYs, 0, len(xs))
	for i := range xs {
		if !finite(xs[i]) || !finite(ys[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: xs[i], Y: ys[i]})
	}
	dropped := len(xs) - len(pts)

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, dropped, fmt.Errorf("column %s: %w", tr.Column, err)
	}

	c, err := traceColor(tr)
	if err != nil {
		return nil, dropped, err
	}
	sc.GlyphStyle.Color = c
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	sc.GlyphStyle.Radius = vg.Points(1.5)
	return sc, dropped, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func traceColor(tr Trace) (color.Color, error) {
	name := strings.ToLower(tr.Color)
	if name == "" {
		name = "black"
	}
	c, ok := colornames.Map[name]
	if !ok {
		return nil, fmt.Errorf("column %s: unknown color %q", tr.Column, tr.Color)
	}
	if tr.Alpha <= 0 || tr.Alpha >= 1 {
		return c, nil
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(tr.Alpha * 255))}, nil
}

func newCanvas(w, h vg.Length, opts Options) (vg.CanvasWriterTo, error) {
	switch opts.Format {
	case "png", "jpg", "jpeg", "tif", "tiff":
		c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(opts.DPI))
		switch opts.Format {
		case "png":
			return vgimg.PngCanvas{Canvas: c}, nil
		case "jpg", "jpeg":
			return vgimg.JpegCanvas{Canvas: c}, nil
		default:
			return vgimg.TiffCanvas{Canvas: c}, nil
		}
	case "svg", "pdf", "eps":
		return draw.NewFormattedCanvas(w, h, opts.Format)
	default:
		return nil, fmt.Errorf("unsupported image format %q", opts.Format)
	}
}
