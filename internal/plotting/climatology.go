package plotting

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/rtm0/ukcaeval/internal/eval"
	"github.com/rtm0/ukcaeval/internal/field"
)

// ClimatologyOptions configures Climatology.
type ClimatologyOptions struct {
	ModelTitle string
	DiffTitle  string
	// Units labels both colour bars, e.g. "DU".
	Units string
}

// fieldGrid adapts a two-dimensional field to plotter.GridXYZ. The first
// dimension runs along x unless yFirst is set, as for (lat, lon) maps. A
// descending y coordinate is presented in ascending order.
type fieldGrid struct {
	x, y   []float64
	z      []float64
	yFirst bool
	flip   bool
}

func newFieldGrid(f *field.Field, yFirst bool) (*fieldGrid, error) {
	if len(f.Dims) != 2 {
		return nil, fmt.Errorf("field %s: want 2 dimensions, have %v", f.Name, f.Dims)
	}
	g := &fieldGrid{x: f.Coords[0], y: f.Coords[1], z: f.Data, yFirst: yFirst}
	if yFirst {
		g.x, g.y = f.Coords[1], f.Coords[0]
	}
	g.flip = len(g.y) > 1 && g.y[0] > g.y[len(g.y)-1]
	return g, nil
}

func (g *fieldGrid) Dims() (c, r int) { return len(g.x), len(g.y) }
func (g *fieldGrid) X(c int) float64  { return g.x[c] }
func (g *fieldGrid) Y(r int) float64  { return g.y[g.row(r)] }

func (g *fieldGrid) row(r int) int {
	if g.flip {
		return len(g.y) - 1 - r
	}
	return r
}

func (g *fieldGrid) Z(c, r int) float64 {
	if g.yFirst {
		return g.z[g.row(r)*len(g.x)+c]
	}
	return g.z[c*len(g.y)+g.row(r)]
}

// whiteLines colours every contour white.
type whiteLines struct{}

func (whiteLines) Colors() []color.Color { return []color.Color{color.White} }

// Climatology draws the model monthly climatology (left) and the model
// minus observation difference (right) as filled maps of month against
// latitude with white contour lines.
func Climatology(path string, c *eval.Climatology, opts ClimatologyOptions) error {
	if len(c.Levels) < 2 || len(c.DiffLevels) < 2 {
		return fmt.Errorf("climatology needs at least two contour levels")
	}
	model, err := newFieldGrid(c.Model, false)
	if err != nil {
		return err
	}
	diff, err := newFieldGrid(c.Diff, false)
	if err != nil {
		return err
	}

	mcm := moreland.BlackBody()
	left, leftBar := contourPanel(model, c.Levels, mcm, opts.ModelTitle, opts.Units)
	left.Y.Label.Text = "Latitude (°)"
	dcm := moreland.SmoothBlueRed()
	right, rightBar := contourPanel(diff, c.DiffLevels, dcm, opts.DiffTitle, opts.Units)

	return save(path, 14*vg.Inch, 6*vg.Inch, func(dc draw.Canvas) error {
		half := (dc.Max.X - dc.Min.X) / 2
		drawWithBar(draw.Crop(dc, 0, -half, 0, 0), left, leftBar)
		drawWithBar(draw.Crop(dc, half, 0, 0, 0), right, rightBar)
		return nil
	})
}

// contourPanel builds a filled map with white contour lines at levels and
// the matching colour bar.
func contourPanel(g plotter.GridXYZ, levels []float64, cm palette.ColorMap, title, units string) (*plot.Plot, *plot.Plot) {
	lo, hi := levels[0], levels[len(levels)-1]
	cm.SetMin(lo)
	cm.SetMax(hi)

	p := newPlot(title, "Month", "")
	p.X.Tick.Marker = monthTicks(1)
	hm := plotter.NewHeatMap(g, cm.Palette(len(levels)-1))
	hm.Min, hm.Max = lo, hi
	hm.NaN = color.Transparent
	p.Add(hm)
	ct := plotter.NewContour(g, levels, whiteLines{})
	ct.LineStyles[0].Width = vg.Points(0.6)
	p.Add(ct)

	bar := plot.New()
	bar.HideX()
	bar.Y.Label.Text = fmt.Sprintf("(%s)", units)
	bar.Add(&plotter.ColorBar{ColorMap: cm, Vertical: true})
	return p, bar
}

func drawWithBar(dc draw.Canvas, p, bar *plot.Plot) {
	w := dc.Max.X - dc.Min.X
	barW := w * 0.12
	p.Draw(draw.Crop(dc, 0, -barW, 0, 0))
	bar.Draw(draw.Crop(dc, w-barW+vg.Millimeter*2, 0, vg.Millimeter*8, -vg.Millimeter*6))
}
