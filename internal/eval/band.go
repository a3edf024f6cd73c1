package eval

import (
	"fmt"

	"github.com/rtm0/ukcaeval/internal/field"
)

// Band is an inclusive latitude range.
type Band struct {
	LatMin float64
	LatMax float64
}

func (b Band) String() string {
	return fmt.Sprintf("[%g, %g]", b.LatMin, b.LatMax)
}

// Series is a time series against decimal years.
type Series struct {
	Name string
	X    []float64
	Y    []float64
}

// BandSeries holds the curves of one latitude band. ObsSigma is nil when no
// uncertainty field was given.
type BandSeries struct {
	Band     Band
	Obs      Series
	ObsSigma []float64
	Models   []Series
}

// LatBandSeries computes area-weighted means over each latitude band. The
// observations (and their uncertainty) are restricted to the period covered
// by the time cells of the models taken together: an observation is kept
// when the lower bound of the earliest cell <= its date < the upper bound of
// the latest cell.
func LatBandSeries(obs, sigma *field.Field, obsName string, models []Named, bands []Band) ([]BandSeries, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("no models to compare")
	}
	var start, end field.Date
	for i, m := range models {
		first, last, err := m.Field.CellSpan()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.Name, err)
		}
		if i == 0 || first.Before(start) {
			start = first
		}
		if i == 0 || end.Before(last) {
			end = last
		}
	}
	obs, err := obs.SliceTimeBefore(start, end)
	if err != nil {
		return nil, fmt.Errorf("obs within [%s, %s): %w", start, end, err)
	}
	if sigma != nil {
		if sigma, err = sigma.SliceTimeBefore(start, end); err != nil {
			return nil, fmt.Errorf("obs uncertainty within [%s, %s): %w", start, end, err)
		}
	}

	out := make([]BandSeries, 0, len(bands))
	for _, b := range bands {
		bs := BandSeries{Band: b}
		if bs.Obs, err = bandMean(obs, obsName, b); err != nil {
			return nil, err
		}
		if sigma != nil {
			s, err := bandMean(sigma, obsName, b)
			if err != nil {
				return nil, err
			}
			if len(s.Y) != len(bs.Obs.Y) {
				return nil, fmt.Errorf("band %s: %d uncertainty steps for %d observations", b, len(s.Y), len(bs.Obs.Y))
			}
			bs.ObsSigma = s.Y
		}
		for _, m := range models {
			s, err := bandMean(m.Field, m.Name, b)
			if err != nil {
				return nil, err
			}
			bs.Models = append(bs.Models, s)
		}
		out = append(out, bs)
	}
	return out, nil
}

func bandMean(f *field.Field, name string, b Band) (Series, error) {
	m, err := f.AreaWeightedMean(b.LatMin, b.LatMax)
	if err != nil {
		return Series{}, fmt.Errorf("%s band %s: %w", name, b, err)
	}
	if len(m.Dims) != 1 || m.Dims[0] != field.Time {
		return Series{}, fmt.Errorf("%s band %s: expected a time series, have dims %v", name, b, m.Dims)
	}
	s := Series{Name: name, X: make([]float64, len(m.Times)), Y: m.Data}
	for i, d := range m.Times {
		s.X[i] = d.DecimalYear()
	}
	return s, nil
}
