package plotting

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/rtm0/ukcaeval/internal/eval"
	"github.com/rtm0/ukcaeval/internal/obsstat"
)

// BoxProfileOptions configures BoxProfile.
type BoxProfileOptions struct {
	Title     string
	ModelName string
	XLabel    string
	// XMin and XMax fix the x range when XMax > XMin.
	XMin, XMax float64
	// MaxLevels caps the number of model levels drawn. Zero draws as many
	// as there are observation rows.
	MaxLevels int
}

// BoxProfile compares model quartiles in a box with an observed profile.
// Model level k is drawn at the altitude of observation row k.
func BoxProfile(path string, q *eval.Quartiles, obs *obsstat.Profile, opts BoxProfileOptions) error {
	p, err := boxProfilePlot(q, obs, opts)
	if err != nil {
		return err
	}
	return save(path, 8*vg.Inch, 6*vg.Inch, func(dc draw.Canvas) error {
		p.Draw(dc)
		return nil
	})
}

// BoxPanel is one box of a BoxProfiles figure.
type BoxPanel struct {
	Quartiles *eval.Quartiles
	Obs       *obsstat.Profile
	Options   BoxProfileOptions
}

// BoxProfiles draws several box comparisons on a rows x cols grid
// (default 4 x 3). Panels beyond the grid are dropped.
func BoxProfiles(path string, panels []BoxPanel, rows, cols int) error {
	if rows <= 0 {
		rows = 4
	}
	if cols <= 0 {
		cols = 3
	}
	plots := make([][]*plot.Plot, rows)
	for r := range plots {
		plots[r] = make([]*plot.Plot, cols)
	}
	for i, pn := range panels[:min(len(panels), rows*cols)] {
		p, err := boxProfilePlot(pn.Quartiles, pn.Obs, pn.Options)
		if err != nil {
			return fmt.Errorf("panel %s: %w", pn.Options.Title, err)
		}
		plots[i/cols][i%cols] = p
	}
	return save(path, vg.Length(cols)*5*vg.Inch, vg.Length(rows)*4*vg.Inch, func(dc draw.Canvas) error {
		grid(dc, plots)
		return nil
	})
}

func boxProfilePlot(q *eval.Quartiles, obs *obsstat.Profile, opts BoxProfileOptions) (*plot.Plot, error) {
	p := newPlot(opts.Title, opts.XLabel, "Altitude (km)")
	addGrid(p)
	if opts.XMax > opts.XMin {
		p.X.Min, p.X.Max = opts.XMin, opts.XMax
	}

	n := min(len(q.Lev), obs.Len())
	if opts.MaxLevels > 0 {
		n = min(n, opts.MaxLevels)
	}
	alt := obs.Alt[:n]
	band, err := bandX(alt, q.P25[:n], q.P75[:n], translucent(red, 0.4))
	if err != nil {
		return nil, err
	}
	if band != nil {
		p.Add(band)
	}
	med, err := line(points(q.P50[:n], alt), red, 1.5)
	if err != nil {
		return nil, err
	}
	name := opts.ModelName
	if name == "" {
		name = "Model"
	}
	p.Add(med)
	p.Legend.Add(name+" median (IQR)", med)

	lower, upper := obs.SDBounds()
	if sd, err := bandX(obs.Alt, lower, upper, translucent(grey, 0.3)); err != nil {
		return nil, err
	} else if sd != nil {
		p.Add(sd)
	}
	ep := symmetric(obs.Mean, obs.Alt, obs.StdDev)
	if ep.Len() > 0 {
		bars, err := plotter.NewXErrorBars(ep)
		if err != nil {
			return nil, err
		}
		bars.CapWidth = vg.Points(6)
		ol, err := line(ep.xys, black, 1.5)
		if err != nil {
			return nil, err
		}
		om, err := markers(ep.xys, black)
		if err != nil {
			return nil, err
		}
		p.Add(bars, ol, om)
		p.Legend.Add("Obs ±1σ", ol, om)
	}
	return p, nil
}

// ProfilePanel is one pair of pre-computed model and observed statistics
// profiles.
type ProfilePanel struct {
	Model *obsstat.Profile
	Obs   *obsstat.Profile
}

// ProfilesOptions configures VerticalProfiles.
type ProfilesOptions struct {
	Rows, Cols int
	ModelName  string
	XLabel     string
}

// VerticalProfiles draws a grid of panels, each with the model mean ± one
// standard deviation and the observed median with its interquartile range.
// Panels beyond Rows x Cols are dropped; unused tiles stay blank.
func VerticalProfiles(path string, panels []ProfilePanel, opts ProfilesOptions) error {
	if opts.Rows <= 0 {
		opts.Rows = 3
	}
	if opts.Cols <= 0 {
		opts.Cols = 3
	}
	if opts.ModelName == "" {
		opts.ModelName = "Model"
	}
	plots := make([][]*plot.Plot, opts.Rows)
	for r := range plots {
		plots[r] = make([]*plot.Plot, opts.Cols)
	}
	for i, pn := range panels[:min(len(panels), opts.Rows*opts.Cols)] {
		p, err := profilePanel(pn, opts, i == 0)
		if err != nil {
			return fmt.Errorf("panel %s: %w", pn.Model.Title, err)
		}
		plots[i/opts.Cols][i%opts.Cols] = p
	}
	w := vg.Length(opts.Cols) * 4 * vg.Inch
	h := vg.Length(opts.Rows) * 5 * vg.Inch
	return save(path, w, h, func(dc draw.Canvas) error {
		grid(dc, plots)
		return nil
	})
}

func profilePanel(pn ProfilePanel, opts ProfilesOptions, legend bool) (*plot.Plot, error) {
	p := newPlot(pn.Model.Title, opts.XLabel, "Altitude (km)")
	p.Y.Scale = plot.InvertedScale{Normalizer: p.Y.Scale}
	addGrid(p)

	m := pn.Model
	lower, upper := m.SDBounds()
	if band, err := bandX(m.Alt, lower, upper, translucent(red, 0.25)); err != nil {
		return nil, err
	} else if band != nil {
		p.Add(band)
	}
	ml, err := line(points(m.Mean, m.Alt), red, 2)
	if err != nil {
		return nil, err
	}
	p.Add(ml)

	o := pn.Obs
	if band, err := bandX(o.Alt, o.P25, o.P75, translucent(grey, 0.3)); err != nil {
		return nil, err
	} else if band != nil {
		p.Add(band)
	}
	ol, err := line(points(o.Median, o.Alt), black, 2)
	if err != nil {
		return nil, err
	}
	p.Add(ol)

	if legend {
		p.Legend.Add(opts.ModelName, ml)
		p.Legend.Add("Obs", ol)
	}
	return p, nil
}

// VerticalOptions configures Vertical.
type VerticalOptions struct {
	Title  string
	XLabel string
	YLabel string
}

// Vertical overlays a model and an observed profile against a pressure-like
// coordinate that decreases upwards.
func Vertical(path string, modelLev, model, obsLev, obs []float64, opts VerticalOptions) error {
	p := newPlot(opts.Title, opts.XLabel, opts.YLabel)
	p.Y.Scale = plot.InvertedScale{Normalizer: p.Y.Scale}
	addGrid(p)

	ml, err := line(points(model, modelLev), red, 1.5)
	if err != nil {
		return fmt.Errorf("model profile: %w", err)
	}
	ol, err := line(points(obs, obsLev), black, 1.5)
	if err != nil {
		return fmt.Errorf("obs profile: %w", err)
	}
	ol.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(ml, ol)
	p.Legend.Add("Model", ml)
	p.Legend.Add("Obs", ol)

	return save(path, 6*vg.Inch, 6*vg.Inch, func(dc draw.Canvas) error {
		p.Draw(dc)
		return nil
	})
}
