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

// ZonalOptions configures SeasonalZonal.
type ZonalOptions struct {
	ObsName string
	Units   string
	// XMin and XMax restrict the latitude axis when XMax > XMin.
	XMin, XMax float64
}

// SeasonalZonal draws one page per season with three stacked panels: the
// model zonal means with their interannual spread, the observed zonal mean
// with its spread, and the percent bias of each model with its propagated
// uncertainty.
func SeasonalZonal(path string, seasons []eval.SeasonZonal, opts ZonalOptions) error {
	if opts.ObsName == "" {
		opts.ObsName = "Obs"
	}
	pages := make([]page, 0, len(seasons))
	for _, sz := range seasons {
		pages = append(pages, page{
			name: sz.Season,
			draw: func(dc draw.Canvas) error {
				return zonalPage(dc, sz, opts)
			},
		})
	}
	return savePages(path, 8*vg.Inch, 11*vg.Inch, pages)
}

// SeasonPageNames lists the page names SeasonalZonal uses, for Pages.
func SeasonPageNames(seasons []eval.SeasonZonal) []string {
	names := make([]string, len(seasons))
	for i, sz := range seasons {
		names[i] = sz.Season
	}
	return names
}

func zonalPage(dc draw.Canvas, sz eval.SeasonZonal, opts ZonalOptions) error {
	dc = titled(dc, "Seasonal Zonal Mean: "+sz.Season)
	units := fmt.Sprintf("(%s)", opts.Units)

	models := newPlot("Models", "", units)
	obs := newPlot(opts.ObsName, "", units)
	bias := newPlot("Percent bias", "Latitude (°)", "Bias (%)")
	for _, p := range []*plot.Plot{models, obs, bias} {
		addGrid(p)
		if opts.XMax > opts.XMin {
			p.X.Min, p.X.Max = opts.XMin, opts.XMax
		}
	}

	for i, m := range sz.Models {
		c := seriesColor(i)
		if err := addBandLine(models, m.Name, sz.Lat, m.Mean, m.Std, c); err != nil {
			return fmt.Errorf("%s: %w", m.Name, err)
		}
		if err := addBandLine(bias, m.Name, sz.Lat, m.Bias, m.Band, c); err != nil {
			return fmt.Errorf("%s bias: %w", m.Name, err)
		}
	}
	if err := addBandLine(obs, opts.ObsName, sz.Lat, sz.Obs.Mean, sz.Obs.Std, black); err != nil {
		return fmt.Errorf("%s: %w", opts.ObsName, err)
	}

	if len(sz.Lat) == 0 {
		return fmt.Errorf("season %s: no latitudes", sz.Season)
	}
	zero, err := line(plotter.XYs{{X: sz.Lat[0], Y: 0}, {X: sz.Lat[len(sz.Lat)-1], Y: 0}}, black, 0.8)
	if err != nil {
		return err
	}
	zero.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	bias.Add(zero)

	grid(dc, [][]*plot.Plot{{models}, {obs}, {bias}})
	return nil
}

// addBandLine adds y(x) with a shaded band of ±spread and a legend entry.
// Curves that are entirely missing are skipped.
func addBandLine(p *plot.Plot, name string, x, y, spread []float64, c color.Color) error {
	lo := make([]float64, len(y))
	hi := make([]float64, len(y))
	for i := range y {
		lo[i], hi[i] = y[i]-spread[i], y[i]+spread[i]
	}
	band, err := bandY(x, lo, hi, translucent(c, 0.2))
	if err != nil {
		return err
	}
	if band != nil {
		p.Add(band)
	}
	pts := points(x, y)
	if len(pts) == 0 {
		return nil
	}
	l, err := line(pts, c, 1.5)
	if err != nil {
		return err
	}
	p.Add(l)
	p.Legend.Add(name, l)
	return nil
}
