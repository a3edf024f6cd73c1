package plotting

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/rtm0/ukcaeval/internal/eval"
)

// BandOptions configures LatBand.
type BandOptions struct {
	Title string
	Units string
	// YMin and YMax fix the y range when YMax > YMin.
	YMin, YMax float64
}

var bandModelColors = []color.Color{darkBlue, green, orange, red}

// LatBand draws the time series of one latitude band: observations in blue
// with their uncertainty as error bars when present, and one line per model.
func LatBand(path string, bs eval.BandSeries, opts BandOptions) error {
	p, err := latBandPlot(bs, opts)
	if err != nil {
		return err
	}
	return save(path, 10*vg.Inch, 5*vg.Inch, func(dc draw.Canvas) error {
		p.Draw(dc)
		return nil
	})
}

func latBandPlot(bs eval.BandSeries, opts BandOptions) (*plot.Plot, error) {
	title := opts.Title
	if title == "" {
		title = "Latitude band " + bs.Band.String()
	}
	p := newPlot(title, "Year", fmt.Sprintf("(%s)", opts.Units))
	addGrid(p)
	if opts.YMax > opts.YMin {
		p.Y.Min, p.Y.Max = opts.YMin, opts.YMax
	}

	if bs.ObsSigma != nil {
		ep := symmetric(bs.Obs.X, bs.Obs.Y, bs.ObsSigma)
		if ep.Len() > 0 {
			bars, err := plotter.NewYErrorBars(ep)
			if err != nil {
				return nil, err
			}
			bars.LineStyle.Color = translucent(obsBlue, 0.6)
			bars.CapWidth = vg.Points(3)
			p.Add(bars)
		}
	}
	if pts := points(bs.Obs.X, bs.Obs.Y); len(pts) > 0 {
		l, err := line(pts, obsBlue, 1.5)
		if err != nil {
			return nil, err
		}
		p.Add(l)
		p.Legend.Add(bs.Obs.Name, l)
	}
	for i, m := range bs.Models {
		pts := points(m.X, m.Y)
		if len(pts) == 0 {
			continue
		}
		l, err := line(pts, bandModelColors[i%len(bandModelColors)], 1.5)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.Name, err)
		}
		p.Add(l)
		p.Legend.Add(m.Name, l)
	}
	return p, nil
}
