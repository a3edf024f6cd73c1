package plotting

import (
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/rtm0/ukcaeval/internal/eval"
	"github.com/rtm0/ukcaeval/internal/field"
	"github.com/rtm0/ukcaeval/internal/stats"
)

// Surface draws a (lat, lon) map of f, typically the lowest level at the
// first time step, as a heat map with a colour bar.
func Surface(path string, f *field.Field, title string) error {
	g, err := newFieldGrid(f, true)
	if err != nil {
		return err
	}
	s := stats.Summarize(f.Data)
	if s.NaNs == s.Count {
		return fmt.Errorf("field %s: no valid values", f.Name)
	}
	lo, hi := s.Min, s.Max
	if lo == hi {
		hi = lo + 1
	}

	cm := moreland.SmoothBlueRed()
	cm.SetMin(lo)
	cm.SetMax(hi)
	if title == "" {
		title = f.LongName
	}
	p := newPlot(title, "Longitude (°)", "Latitude (°)")
	hm := plotter.NewHeatMap(g, cm.Palette(64))
	hm.Min, hm.Max = lo, hi
	hm.NaN = color.Transparent
	p.Add(hm)
	p.X.Min, p.X.Max = floats.Min(g.x), floats.Max(g.x)
	p.Y.Min, p.Y.Max = floats.Min(g.y), floats.Max(g.y)

	bar := plot.New()
	bar.HideY()
	bar.X.Label.Text = fmt.Sprintf("%s (%s)", f.Name, f.Units)
	bar.Add(&plotter.ColorBar{ColorMap: cm})

	return save(path, 10*vg.Inch, 6*vg.Inch, func(dc draw.Canvas) error {
		h := dc.Max.Y - dc.Min.Y
		p.Draw(draw.Crop(dc, 0, 0, h*0.18, 0))
		bar.Draw(draw.Crop(dc, vg.Inch, -vg.Inch, 0, -h*0.85))
		return nil
	})
}

// SurfaceOf is Surface applied to eval.Surface(f).
func SurfaceOf(path string, f *field.Field, title string) error {
	s, err := eval.Surface(f)
	if err != nil {
		return err
	}
	return Surface(path, s, title)
}
