package field

import (
	"fmt"
	"math"
	"slices"

	"github.com/rtm0/ukcaeval/internal/stats"
)

// MeanOver collapses dim with a NaN-skipping mean. MeanOver(Lon) is the
// zonal mean.
func (f *Field) MeanOver(dim string) (*Field, error) {
	ax, err := f.Axis(dim)
	if err != nil {
		return nil, err
	}
	return f.reduce(ax, stats.Mean), nil
}

// StdOver collapses dim with a NaN-skipping population standard deviation.
func (f *Field) StdOver(dim string) (*Field, error) {
	ax, err := f.Axis(dim)
	if err != nil {
		return nil, err
	}
	return f.reduce(ax, func(xs []float64) float64 {
		_, s := stats.MeanStd(xs)
		return s
	}), nil
}

// SumOver collapses dim by summing its non-NaN values. A line with no valid
// values sums to NaN.
func (f *Field) SumOver(dim string) (*Field, error) {
	ax, err := f.Axis(dim)
	if err != nil {
		return nil, err
	}
	return f.reduce(ax, func(xs []float64) float64 {
		sum, n := 0.0, 0
		for _, x := range xs {
			if !math.IsNaN(x) {
				sum += x
				n++
			}
		}
		if n == 0 {
			return math.NaN()
		}
		return sum
	}), nil
}

// weightedMeanOver collapses dim with weights w, skipping NaN values.
func (f *Field) weightedMeanOver(dim string, w []float64) (*Field, error) {
	ax, err := f.Axis(dim)
	if err != nil {
		return nil, err
	}
	if len(w) != len(f.Coords[ax]) {
		return nil, fmt.Errorf("%w: %d weights for %d %s values", ErrShape, len(w), len(f.Coords[ax]), dim)
	}
	return f.reduce(ax, func(xs []float64) float64 {
		var sum, ws float64
		for j, x := range xs {
			if math.IsNaN(x) {
				continue
			}
			sum += w[j] * x
			ws += w[j]
		}
		if ws == 0 {
			return math.NaN()
		}
		return sum / ws
	}), nil
}

// AreaWeightedMean averages the field over the latitude band [latMin,
// latMax] and all longitudes, weighting each cell by its area on the sphere.
// The lat and lon dimensions are removed.
func (f *Field) AreaWeightedMean(latMin, latMax float64) (*Field, error) {
	band, err := f.SliceRange(Lat, latMin, latMax)
	if err != nil {
		return nil, err
	}
	if band.Has(Lon) {
		lon, _ := band.Coord(Lon)
		w := make([]float64, len(lon))
		for i, b := range GuessBounds(lon) {
			w[i] = math.Abs(b[1] - b[0])
		}
		if band, err = band.weightedMeanOver(Lon, w); err != nil {
			return nil, err
		}
	}
	lat, _ := band.Coord(Lat)
	w := make([]float64, len(lat))
	for i, b := range latBounds(lat) {
		w[i] = math.Abs(math.Sin(rad(b[1])) - math.Sin(rad(b[0])))
	}
	return band.weightedMeanOver(Lat, w)
}

// group collapses axis into len(groups) entries, each the result of fn over
// the indices of one group. The collapsed axis is renamed to dim with the
// given coordinate values.
func (f *Field) group(axis int, groups [][]int, dim string, coords []float64, fn func([]float64) float64) *Field {
	outer, n, inner := f.span(axis)
	out := f.meta()
	out.Dims[axis] = dim
	out.Coords[axis] = coords
	out.Times, out.TimeBnds = nil, nil
	g := len(groups)
	out.Data = make([]float64, outer*g*inner)
	var buf []float64
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			for k, idx := range groups {
				buf = buf[:0]
				for _, j := range idx {
					buf = append(buf, f.Data[(o*n+j)*inner+i])
				}
				out.Data[(o*g+k)*inner+i] = fn(buf)
			}
		}
	}
	return out
}

// GroupByMonth builds the monthly climatology of the field: the time
// dimension is replaced by a month dimension (only months present in the
// data, ascending) holding the mean and population standard deviation.
func (f *Field) GroupByMonth() (mean, std *Field, err error) {
	ax, err := f.Axis(Time)
	if err != nil {
		return nil, nil, err
	}
	if len(f.Times) != len(f.Coords[ax]) {
		return nil, nil, fmt.Errorf("field %s: time axis has no decoded dates", f.Name)
	}
	byMonth := map[int][]int{}
	for i, d := range f.Times {
		byMonth[d.Month] = append(byMonth[d.Month], i)
	}
	months := make([]int, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	slices.Sort(months)
	groups := make([][]int, len(months))
	coords := make([]float64, len(months))
	for k, m := range months {
		groups[k] = byMonth[m]
		coords[k] = float64(m)
	}
	mean = f.group(ax, groups, Month, coords, stats.Mean)
	std = f.group(ax, groups, Month, coords, func(xs []float64) float64 {
		_, s := stats.MeanStd(xs)
		return s
	})
	return mean, std, nil
}

// selectTimes keeps the time steps whose date satisfies keep.
func (f *Field) selectTimes(keep func(Date) bool) (*Field, error) {
	ax, err := f.Axis(Time)
	if err != nil {
		return nil, err
	}
	if len(f.Times) != len(f.Coords[ax]) {
		return nil, fmt.Errorf("field %s: time axis has no decoded dates", f.Name)
	}
	var idx []int
	for i, d := range f.Times {
		if keep(d) {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return nil, fmt.Errorf("field %s: %w: no matching time steps", f.Name, ErrEmpty)
	}
	return f.take(ax, idx), nil
}

// SelectSeason keeps the time steps of a meteorological season (DJF, MAM,
// JJA, SON). Annual keeps every step.
func (f *Field) SelectSeason(season string) (*Field, error) {
	if season == Annual {
		return f.selectTimes(func(Date) bool { return true })
	}
	if !slices.Contains(Seasons, season) {
		return nil, fmt.Errorf("unknown season %q", season)
	}
	return f.selectTimes(func(d Date) bool { return d.Season() == season })
}

// SelectMonth keeps the time steps of calendar month m across all years.
func (f *Field) SelectMonth(m int) (*Field, error) {
	return f.selectTimes(func(d Date) bool { return d.Month == m })
}

// SelectYear keeps the time steps of year y.
func (f *Field) SelectYear(y int) (*Field, error) {
	return f.selectTimes(func(d Date) bool { return d.Year == y })
}

// SliceTime keeps the time steps within [start, end].
func (f *Field) SliceTime(start, end Date) (*Field, error) {
	return f.selectTimes(func(d Date) bool { return !d.Before(start) && !end.Before(d) })
}

// SliceTimeBefore keeps the time steps within [start, end).
func (f *Field) SliceTimeBefore(start, end Date) (*Field, error) {
	return f.selectTimes(func(d Date) bool { return !d.Before(start) && d.Before(end) })
}

// TimeCells returns the [lower, upper) dates of every time step. The CF
// bounds of the field are used when present. Otherwise the bounds are the
// midpoints between neighbouring steps, and a lone step spans its calendar
// month.
func (f *Field) TimeCells() ([][2]Date, error) {
	ax, err := f.Axis(Time)
	if err != nil {
		return nil, err
	}
	n := len(f.Coords[ax])
	if len(f.Times) != n {
		return nil, fmt.Errorf("field %s: time axis has no decoded dates", f.Name)
	}
	if n == 0 {
		return nil, fmt.Errorf("field %s: %w: no dates", f.Name, ErrEmpty)
	}
	bnds := f.TimeBnds
	if bnds == nil && n > 1 {
		bnds = GuessBounds(f.Coords[ax])
	}
	cells := make([][2]Date, n)
	if bnds == nil || f.TimeUnits == "" {
		for i, d := range f.Times {
			first := Date{Year: d.Year, Month: d.Month, Day: 1}
			cells[i] = [2]Date{first, addMonths(first, 1)}
		}
		return cells, nil
	}
	lower, upper := make([]float64, n), make([]float64, n)
	for i, b := range bnds {
		lower[i], upper[i] = min(b[0], b[1]), max(b[0], b[1])
	}
	lo, err := DecodeTimes(lower, f.TimeUnits, f.Calendar)
	if err != nil {
		return nil, fmt.Errorf("field %s: time bounds: %w", f.Name, err)
	}
	hi, err := DecodeTimes(upper, f.TimeUnits, f.Calendar)
	if err != nil {
		return nil, fmt.Errorf("field %s: time bounds: %w", f.Name, err)
	}
	for i := range cells {
		cells[i] = [2]Date{lo[i], hi[i]}
	}
	return cells, nil
}

// CellSpan returns the lower bound of the earliest time cell and the upper
// bound of the latest.
func (f *Field) CellSpan() (start, end Date, err error) {
	cells, err := f.TimeCells()
	if err != nil {
		return Date{}, Date{}, err
	}
	start, end = cells[0][0], cells[0][1]
	for _, c := range cells[1:] {
		if c[0].Before(start) {
			start = c[0]
		}
		if end.Before(c[1]) {
			end = c[1]
		}
	}
	return start, end, nil
}

// TimeBounds returns the earliest and latest date of the field.
func (f *Field) TimeBounds() (first, last Date, err error) {
	if len(f.Times) == 0 {
		return Date{}, Date{}, fmt.Errorf("field %s: %w: no dates", f.Name, ErrEmpty)
	}
	first, last = f.Times[0], f.Times[0]
	for _, d := range f.Times[1:] {
		if d.Before(first) {
			first = d
		}
		if last.Before(d) {
			last = d
		}
	}
	return first, last, nil
}

// TimeIntersect returns the window of dates covered by every field.
func TimeIntersect(fields ...*Field) (start, end Date, err error) {
	for i, f := range fields {
		first, last, err := f.TimeBounds()
		if err != nil {
			return Date{}, Date{}, err
		}
		if i == 0 || start.Before(first) {
			start = first
		}
		if i == 0 || last.Before(end) {
			end = last
		}
	}
	if end.Before(start) {
		return Date{}, Date{}, fmt.Errorf("%w: time ranges do not overlap", ErrEmpty)
	}
	return start, end, nil
}
