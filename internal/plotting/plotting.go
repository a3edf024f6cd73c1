// Package plotting renders evaluation results with gonum/plot. The output
// format follows the file extension (.png, .pdf, .svg, ...); multi-page
// figures are written as one PDF or, for image formats, one file per page.
package plotting

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"
)

var (
	black     = color.Black
	white     = color.White
	red       = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	grey      = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	darkBlue  = color.RGBA{R: 0x00, G: 0x00, B: 0x8b, A: 0xff}
	green     = color.RGBA{R: 0x00, G: 0x80, B: 0x00, A: 0xff}
	orange    = color.RGBA{R: 0xe6, G: 0x9f, B: 0x00, A: 0xff}
	skyBlue   = color.RGBA{R: 0x56, G: 0xb4, B: 0xe9, A: 0xff}
	obsBlue   = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	seriesSet = []color.Color{orange, skyBlue, darkBlue, green, red}
)

// seriesColor returns the colour of the i-th model curve.
func seriesColor(i int) color.Color {
	return seriesSet[i%len(seriesSet)]
}

// translucent returns c with the given opacity.
func translucent(c color.Color, alpha float64) color.Color {
	r, g, b, _ := c.RGBA()
	a := uint8(alpha * 255)
	// Premultiplied.
	return color.RGBA{
		R: uint8(float64(r>>8) * alpha),
		G: uint8(float64(g>>8) * alpha),
		B: uint8(float64(b>>8) * alpha),
		A: a,
	}
}

var monthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// monthTicks labels every step-th month starting in January.
func monthTicks(step int) plot.Ticker {
	var ticks []plot.Tick
	for m := 1; m <= 12; m++ {
		t := plot.Tick{Value: float64(m)}
		if (m-1)%step == 0 {
			t.Label = monthNames[m-1]
		}
		ticks = append(ticks, t)
	}
	return plot.ConstantTicks(ticks)
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(10)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.X.Label.TextStyle.Font.Size = vg.Points(9)
	p.Y.Label.TextStyle.Font.Size = vg.Points(9)
	p.Legend.TextStyle.Font.Size = vg.Points(8)
	p.Legend.Top = true
	return p
}

func addGrid(p *plot.Plot) {
	g := plotter.NewGrid()
	dash := []vg.Length{vg.Points(2), vg.Points(2)}
	g.Vertical.Dashes, g.Horizontal.Dashes = dash, dash
	g.Vertical.Width, g.Horizontal.Width = vg.Points(0.5), vg.Points(0.5)
	p.Add(g)
}

// errorPlot is the panel drawn in place of a failed computation.
func errorPlot(title string, err error) (*plot.Plot, error) {
	p := newPlot(title, "", "")
	p.HideAxes()
	p.X.Min, p.X.Max, p.Y.Min, p.Y.Max = 0, 1, 0, 1
	l, e := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: 0.5, Y: 0.5}},
		Labels: []string{wrap(err.Error(), 40)},
	})
	if e != nil {
		return nil, e
	}
	l.TextStyle[0].Font.Size = vg.Points(7)
	l.TextStyle[0].XAlign = draw.XCenter
	l.TextStyle[0].YAlign = draw.YCenter
	p.Add(l)
	return p, nil
}

// wrap breaks s into lines of at most n characters at spaces.
func wrap(s string, n int) string {
	var b strings.Builder
	line := 0
	for i, w := range strings.Fields(s) {
		if i > 0 {
			if line+1+len(w) > n {
				b.WriteByte('\n')
				line = 0
			} else {
				b.WriteByte(' ')
				line++
			}
		}
		b.WriteString(w)
		line += len(w)
	}
	return b.String()
}

// errPoints are points with asymmetric error bars in x or y.
type errPoints struct {
	xys    plotter.XYs
	lo, hi []float64
}

func (e errPoints) Len() int                        { return len(e.xys) }
func (e errPoints) XY(i int) (float64, float64)     { return e.xys[i].X, e.xys[i].Y }
func (e errPoints) YError(i int) (float64, float64) { return e.lo[i], e.hi[i] }
func (e errPoints) XError(i int) (float64, float64) { return e.lo[i], e.hi[i] }

// symmetric builds error points from values and one-sided errors, dropping
// points where any input is NaN.
func symmetric(xs, ys, errs []float64) errPoints {
	var e errPoints
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) || math.IsNaN(errs[i]) {
			continue
		}
		e.xys = append(e.xys, plotter.XY{X: xs[i], Y: ys[i]})
		e.lo = append(e.lo, errs[i])
		e.hi = append(e.hi, errs[i])
	}
	return e
}

// points pairs xs and ys, dropping NaN pairs.
func points(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(xs))
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: xs[i], Y: ys[i]})
	}
	return pts
}

func line(pts plotter.XYs, c color.Color, width float64) (*plotter.Line, error) {
	l, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	l.LineStyle.Color = c
	l.LineStyle.Width = vg.Points(width)
	return l, nil
}

func markers(pts plotter.XYs, c color.Color) (*plotter.Scatter, error) {
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Radius = vg.Points(2.5)
	return s, nil
}

// bandX shades the region between lo(y) and hi(y), the horizontal spread of
// a vertical profile. Rows with NaN bounds are skipped.
func bandX(ys, lo, hi []float64, c color.Color) (*plotter.Polygon, error) {
	var left, right plotter.XYs
	for i := range ys {
		if math.IsNaN(ys[i]) || math.IsNaN(lo[i]) || math.IsNaN(hi[i]) {
			continue
		}
		left = append(left, plotter.XY{X: lo[i], Y: ys[i]})
		right = append(right, plotter.XY{X: hi[i], Y: ys[i]})
	}
	return polygon(left, right, c)
}

// bandY shades the region between lo(x) and hi(x).
func bandY(xs, lo, hi []float64, c color.Color) (*plotter.Polygon, error) {
	var bottom, top plotter.XYs
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(lo[i]) || math.IsNaN(hi[i]) {
			continue
		}
		bottom = append(bottom, plotter.XY{X: xs[i], Y: lo[i]})
		top = append(top, plotter.XY{X: xs[i], Y: hi[i]})
	}
	return polygon(bottom, top, c)
}

func polygon(a, b plotter.XYs, c color.Color) (*plotter.Polygon, error) {
	if len(a) < 2 {
		return nil, nil
	}
	ring := make(plotter.XYs, 0, 2*len(a))
	ring = append(ring, a...)
	for i := len(b) - 1; i >= 0; i-- {
		ring = append(ring, b[i])
	}
	poly, err := plotter.NewPolygon(ring)
	if err != nil {
		return nil, err
	}
	poly.Color = c
	poly.LineStyle.Width = 0
	return poly, nil
}

// page draws one page of a figure.
type page struct {
	name string
	draw func(dc draw.Canvas) error
}

func format(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// save writes a single-page figure of the given size.
func save(path string, w, h vg.Length, fn func(dc draw.Canvas) error) error {
	return savePages(path, w, h, []page{{draw: fn}})
}

// savePages writes the pages into one PDF, or into one image per page named
// <stem>_<page name><ext> for other formats.
func savePages(path string, w, h vg.Length, pages []page) error {
	if len(pages) == 0 {
		return fmt.Errorf("%s: nothing to draw", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if format(path) == "pdf" {
		c := vgpdf.New(w, h)
		for i, pg := range pages {
			if i > 0 {
				c.NextPage()
			}
			if err := pg.draw(draw.New(c)); err != nil {
				return fmt.Errorf("%s page %d: %w", path, i+1, err)
			}
		}
		return writeTo(path, c)
	}

	for _, pg := range pages {
		out := path
		if len(pages) > 1 {
			ext := filepath.Ext(path)
			out = strings.TrimSuffix(path, ext) + "_" + pg.name + ext
		}
		c, err := draw.NewFormattedCanvas(w, h, format(path))
		if err != nil {
			return fmt.Errorf("%s: %w", out, err)
		}
		if err := pg.draw(draw.New(c)); err != nil {
			return fmt.Errorf("%s: %w", out, err)
		}
		if err := writeTo(out, c); err != nil {
			return err
		}
	}
	return nil
}

func writeTo(path string, c interface {
	WriteTo(w io.Writer) (int64, error)
}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Pages returns the files savePages produces for path and the page names.
func Pages(path string, names ...string) []string {
	if format(path) == "pdf" || len(names) <= 1 {
		return []string{path}
	}
	ext := filepath.Ext(path)
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.TrimSuffix(path, ext) + "_" + n + ext
	}
	return out
}

// grid lays plots out in rows and cols tiles on dc. Nil plots leave their
// tile blank.
func grid(dc draw.Canvas, plots [][]*plot.Plot) {
	rows, cols := len(plots), len(plots[0])
	aligned := make([][]*plot.Plot, rows)
	for r := range plots {
		aligned[r] = make([]*plot.Plot, cols)
		for c, p := range plots[r] {
			if p == nil {
				p = plot.New()
				p.HideAxes()
			}
			aligned[r][c] = p
		}
	}
	t := draw.Tiles{
		Rows: rows, Cols: cols,
		PadX: vg.Millimeter * 4, PadY: vg.Millimeter * 4,
		PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2,
		PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2,
	}
	canvases := plot.Align(aligned, t, dc)
	for r := range plots {
		for c, p := range plots[r] {
			if p != nil {
				p.Draw(canvases[r][c])
			}
		}
	}
}

// titled reserves a strip at the top of dc for a figure title and returns
// the remaining canvas.
func titled(dc draw.Canvas, title string) draw.Canvas {
	if title == "" {
		return dc
	}
	sty := draw.TextStyle{
		Color:   black,
		Font:    plot.DefaultFont,
		XAlign:  draw.XCenter,
		YAlign:  draw.YTop,
		Handler: plot.DefaultTextHandler,
	}
	sty.Font.Size = vg.Points(13)
	h := sty.Height(title) + vg.Millimeter*3
	dc.FillText(sty, vg.Point{X: dc.Center().X, Y: dc.Max.Y - vg.Millimeter*2}, title)
	return draw.Crop(dc, 0, 0, 0, -h)
}
