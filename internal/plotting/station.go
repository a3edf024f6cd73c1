package plotting

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/rtm0/ukcaeval/internal/eval"
)

// StationGridOptions configures StationGrid.
type StationGridOptions struct {
	Rows, Cols int
	// Species and Units label the y axis, e.g. "CO (ppbv)".
	Species string
	Units   string
	// YLim fixes the y range of every panel when it holds two values.
	YLim []float64
}

func (o *StationGridOptions) defaults() {
	if o.Rows <= 0 {
		o.Rows = 6
	}
	if o.Cols <= 0 {
		o.Cols = 3
	}
}

// StationGrid draws one seasonal-cycle panel per site: observed monthly mean
// with standard deviation error bars in black, model monthly mean in red and
// the r/MBE scores at the bottom. Failed sites get an error panel. PDF
// output holds Rows x Cols panels per page; other formats grow the grid to
// fit every site.
func StationGrid(path string, panels []eval.SeasonalPanel, opts StationGridOptions) error {
	opts.defaults()
	rows := opts.Rows
	if format(path) != "pdf" {
		rows = max(1, (len(panels)+opts.Cols-1)/opts.Cols)
	}
	perPage := rows * opts.Cols

	var pages []page
	for start := 0; start == 0 || start < len(panels); start += perPage {
		chunk := panels[start:min(start+perPage, len(panels))]
		pages = append(pages, page{
			name: fmt.Sprint(len(pages) + 1),
			draw: func(dc draw.Canvas) error {
				return stationPage(dc, chunk, rows, opts)
			},
		})
	}
	w := vg.Length(opts.Cols) * 4 * vg.Inch
	h := vg.Length(rows)*3*vg.Inch + vg.Inch/2
	return savePages(path, w, h, pages)
}

func stationPage(dc draw.Canvas, panels []eval.SeasonalPanel, rows int, opts StationGridOptions) error {
	dc = titled(dc, "obs (black) / model (red)")
	plots := make([][]*plot.Plot, rows)
	for r := range plots {
		plots[r] = make([]*plot.Plot, opts.Cols)
	}
	for i, pn := range panels {
		var p *plot.Plot
		var err error
		if pn.Err != nil {
			p, err = errorPlot(pn.Site.Name+" (Error)", pn.Err)
		} else {
			p, err = seasonalPlot(pn, opts)
		}
		if err != nil {
			return fmt.Errorf("panel %s: %w", pn.Site.Name, err)
		}
		plots[i/opts.Cols][i%opts.Cols] = p
	}
	grid(dc, plots)
	return nil
}

func seasonalPlot(pn eval.SeasonalPanel, opts StationGridOptions) (*plot.Plot, error) {
	p := newPlot(pn.Site.Label(), "", fmt.Sprintf("%s (%s)", opts.Species, opts.Units))
	p.X.Tick.Marker = monthTicks(2)
	p.X.Min, p.X.Max = 0.5, 12.5
	addGrid(p)

	obs := symmetric(pn.Months, pn.ObsMean, pn.ObsStd)
	if obs.Len() > 0 {
		bars, err := plotter.NewYErrorBars(obs)
		if err != nil {
			return nil, err
		}
		bars.LineStyle.Color = black
		bars.CapWidth = vg.Points(6)
		l, err := line(obs.xys, black, 1)
		if err != nil {
			return nil, err
		}
		m, err := markers(obs.xys, black)
		if err != nil {
			return nil, err
		}
		p.Add(bars, l, m)
		p.Legend.Add("obs", l, m)
	}
	if mod := points(pn.Months, pn.ModMean); len(mod) > 0 {
		l, err := line(mod, red, 1)
		if err != nil {
			return nil, err
		}
		m, err := markers(mod, red)
		if err != nil {
			return nil, err
		}
		p.Add(l, m)
		p.Legend.Add("model", l, m)
	}

	lo, hi := yRange(pn)
	if len(opts.YLim) == 2 {
		lo, hi = opts.YLim[0], opts.YLim[1]
	}
	p.Y.Min, p.Y.Max = lo, hi
	score, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: 6.5, Y: lo + 0.05*(hi-lo)}},
		Labels: []string{fmt.Sprintf("r = %.3f   MBE = %.1f%%", pn.R, pn.MBE)},
	})
	if err != nil {
		return nil, err
	}
	score.TextStyle[0].Font.Size = vg.Points(8)
	score.TextStyle[0].XAlign = draw.XCenter
	p.Add(score)
	return p, nil
}

// yRange spans the error bars and model curve with a little padding.
func yRange(pn eval.SeasonalPanel) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for i := range pn.Months {
		for _, v := range []float64{pn.ObsMean[i] - pn.ObsStd[i], pn.ObsMean[i] + pn.ObsStd[i], pn.ModMean[i]} {
			if !math.IsNaN(v) {
				lo, hi = math.Min(lo, v), math.Max(hi, v)
			}
		}
	}
	if math.IsInf(lo, 0) {
		return 0, 1
	}
	pad := 0.1 * (hi - lo)
	if pad == 0 {
		pad = 1
	}
	return lo - pad, hi + pad
}
