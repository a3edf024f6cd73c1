// Package field models a gridded geophysical variable (time, level,
// latitude, longitude) and the coordinate-based selections and reductions
// applied to it during model evaluation.
package field

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

// Canonical dimension names.
const (
	Time  = "time"
	Lev   = "lev"
	Lat   = "lat"
	Lon   = "lon"
	Month = "month"
)

var (
	// ErrNoDim is returned when a field lacks a requested dimension.
	ErrNoDim = errors.New("no such dimension")
	// ErrShape is returned when two fields cannot be combined element-wise.
	ErrShape = errors.New("shape mismatch")
	// ErrEmpty is returned when a selection keeps no points.
	ErrEmpty = errors.New("empty selection")
)

var aliases = map[string]string{
	"t":                                   Time,
	"time":                                Time,
	"lat":                                 Lat,
	"latitude":                            Lat,
	"lon":                                 Lon,
	"longitude":                           Lon,
	"lev":                                 Lev,
	"level":                               Lev,
	"plev":                                Lev,
	"pressure":                            Lev,
	"air_pressure":                        Lev,
	"altitude":                            Lev,
	"model_level_number":                  Lev,
	"atmosphere_hybrid_height_coordinate": Lev,
	"hybrid_ht":                           Lev,
}

// Canonical maps the coordinate names used by different products (t,
// latitude, plev, ...) onto the canonical dimension names.
func Canonical(name string) string {
	if c, ok := aliases[strings.ToLower(name)]; ok {
		return c
	}
	return name
}

// Field is a labelled n-dimensional array stored row-major, outermost
// dimension first. Missing values are NaN.
type Field struct {
	Name     string
	Units    string
	LongName string

	Dims   []string
	Coords [][]float64

	// Times holds the decoded dates of the time coordinate, whose raw values
	// (in TimeUnits) stay in Coords.
	Times     []Date
	TimeUnits string
	Calendar  string
	// TimeBnds holds the CF cell bounds of each time step in TimeUnits, or
	// nil when the source had none.
	TimeBnds [][2]float64

	Data []float64
}

// Shape returns the length of each dimension.
func (f *Field) Shape() []int {
	s := make([]int, len(f.Coords))
	for i, c := range f.Coords {
		s[i] = len(c)
	}
	return s
}

// Validate checks that the data, coordinates and dates agree in size.
func (f *Field) Validate() error {
	if len(f.Dims) != len(f.Coords) {
		return fmt.Errorf("field %s: %d dims but %d coordinates", f.Name, len(f.Dims), len(f.Coords))
	}
	if n := prod(f.Shape()); n != len(f.Data) {
		return fmt.Errorf("field %s: %w: shape %v holds %d values, have %d", f.Name, ErrShape, f.Shape(), n, len(f.Data))
	}
	if ax := slices.Index(f.Dims, Time); ax >= 0 && f.Times != nil && len(f.Times) != len(f.Coords[ax]) {
		return fmt.Errorf("field %s: %d dates for %d time steps", f.Name, len(f.Times), len(f.Coords[ax]))
	}
	if ax := slices.Index(f.Dims, Time); ax >= 0 && f.TimeBnds != nil && len(f.TimeBnds) != len(f.Coords[ax]) {
		return fmt.Errorf("field %s: %d time bounds for %d time steps", f.Name, len(f.TimeBnds), len(f.Coords[ax]))
	}
	return nil
}

// Has reports whether the field has the dimension.
func (f *Field) Has(dim string) bool {
	return slices.Contains(f.Dims, dim)
}

// Axis returns the position of dim.
func (f *Field) Axis(dim string) (int, error) {
	i := slices.Index(f.Dims, dim)
	if i < 0 {
		return 0, fmt.Errorf("field %s %v: %w %q", f.Name, f.Dims, ErrNoDim, dim)
	}
	return i, nil
}

// Coord returns the coordinate values of dim.
func (f *Field) Coord(dim string) ([]float64, error) {
	ax, err := f.Axis(dim)
	if err != nil {
		return nil, err
	}
	return f.Coords[ax], nil
}

// meta copies everything but the data.
func (f *Field) meta() *Field {
	out := &Field{
		Name:      f.Name,
		Units:     f.Units,
		LongName:  f.LongName,
		Dims:      slices.Clone(f.Dims),
		Coords:    slices.Clone(f.Coords),
		Times:     slices.Clone(f.Times),
		TimeUnits: f.TimeUnits,
		Calendar:  f.Calendar,
		TimeBnds:  slices.Clone(f.TimeBnds),
	}
	return out
}

// Clone returns a deep copy of the data with shared coordinate values.
func (f *Field) Clone() *Field {
	out := f.meta()
	out.Data = slices.Clone(f.Data)
	return out
}

// span returns the product of the dimensions before, at and after axis.
func (f *Field) span(axis int) (outer, n, inner int) {
	s := f.Shape()
	return prod(s[:axis]), s[axis], prod(s[axis+1:])
}

// take keeps the given indices along axis, in order.
func (f *Field) take(axis int, idx []int) *Field {
	outer, n, inner := f.span(axis)
	out := f.meta()
	c := make([]float64, len(idx))
	for k, j := range idx {
		c[k] = f.Coords[axis][j]
	}
	out.Coords[axis] = c
	if f.Dims[axis] == Time && f.Times != nil {
		out.Times = make([]Date, len(idx))
		for k, j := range idx {
			out.Times[k] = f.Times[j]
		}
	}
	if f.Dims[axis] == Time && f.TimeBnds != nil {
		out.TimeBnds = make([][2]float64, len(idx))
		for k, j := range idx {
			out.TimeBnds[k] = f.TimeBnds[j]
		}
	}
	out.Data = make([]float64, outer*len(idx)*inner)
	for o := 0; o < outer; o++ {
		for k, j := range idx {
			src := (o*n + j) * inner
			dst := (o*len(idx) + k) * inner
			copy(out.Data[dst:dst+inner], f.Data[src:src+inner])
		}
	}
	return out
}

// without removes axis from the metadata of f.
func (f *Field) without(axis int) *Field {
	out := f.meta()
	if f.Dims[axis] == Time {
		out.Times, out.TimeBnds = nil, nil
	}
	out.Dims = slices.Delete(out.Dims, axis, axis+1)
	out.Coords = slices.Delete(out.Coords, axis, axis+1)
	return out
}

// reduce collapses axis by applying fn to every line of values along it.
// fn must not retain its argument.
func (f *Field) reduce(axis int, fn func([]float64) float64) *Field {
	outer, n, inner := f.span(axis)
	out := f.without(axis)
	out.Data = make([]float64, outer*inner)
	buf := make([]float64, n)
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			for j := 0; j < n; j++ {
				buf[j] = f.Data[(o*n+j)*inner+i]
			}
			out.Data[o*inner+i] = fn(buf)
		}
	}
	return out
}

func prod(s []int) int {
	n := 1
	for _, v := range s {
		n *= v
	}
	return n
}

// Nearest returns the index of the coordinate value closest to v. Longitudes
// are compared on the circle so -170 matches 190.
func (f *Field) Nearest(dim string, v float64) (int, error) {
	c, err := f.Coord(dim)
	if err != nil {
		return 0, err
	}
	if len(c) == 0 {
		return 0, fmt.Errorf("field %s: %w: %s has no values", f.Name, ErrEmpty, dim)
	}
	best, bestD := 0, math.Inf(1)
	for i, x := range c {
		d := math.Abs(x - v)
		if dim == Lon {
			d = math.Mod(d, 360)
			d = math.Min(d, 360-d)
		}
		if d < bestD {
			best, bestD = i, d
		}
	}
	return best, nil
}

// SelectIndex picks index i of dim and drops the dimension.
func (f *Field) SelectIndex(dim string, i int) (*Field, error) {
	ax, err := f.Axis(dim)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(f.Coords[ax]) {
		return nil, fmt.Errorf("field %s: index %d out of range for %s (len %d)", f.Name, i, dim, len(f.Coords[ax]))
	}
	t := f.take(ax, []int{i})
	out := t.without(ax)
	out.Data = t.Data
	return out, nil
}

// SelectNearest picks the coordinate nearest to v and drops the dimension.
func (f *Field) SelectNearest(dim string, v float64) (*Field, error) {
	i, err := f.Nearest(dim, v)
	if err != nil {
		return nil, err
	}
	return f.SelectIndex(dim, i)
}

// SliceRange keeps the points of dim whose coordinate lies within [lo, hi],
// regardless of the coordinate order.
func (f *Field) SliceRange(dim string, lo, hi float64) (*Field, error) {
	ax, err := f.Axis(dim)
	if err != nil {
		return nil, err
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	var idx []int
	for i, x := range f.Coords[ax] {
		if x >= lo && x <= hi {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return nil, fmt.Errorf("field %s: %w: no %s within [%g, %g]", f.Name, ErrEmpty, dim, lo, hi)
	}
	return f.take(ax, idx), nil
}

// Where keeps the points of dim whose coordinate satisfies keep.
func (f *Field) Where(dim string, keep func(float64) bool) (*Field, error) {
	ax, err := f.Axis(dim)
	if err != nil {
		return nil, err
	}
	var idx []int
	for i, x := range f.Coords[ax] {
		if keep(x) {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return nil, fmt.Errorf("field %s: %w: no matching %s", f.Name, ErrEmpty, dim)
	}
	return f.take(ax, idx), nil
}

// Sub returns f - o for fields of identical shape.
func (f *Field) Sub(o *Field) (*Field, error) {
	return f.zip(o, func(a, b float64) float64 { return a - b })
}

// Mul returns f * o for fields of identical shape.
func (f *Field) Mul(o *Field) (*Field, error) {
	return f.zip(o, func(a, b float64) float64 { return a * b })
}

func (f *Field) zip(o *Field, fn func(a, b float64) float64) (*Field, error) {
	if !slices.Equal(f.Shape(), o.Shape()) {
		return nil, fmt.Errorf("%w: %s %v vs %s %v", ErrShape, f.Name, f.Shape(), o.Name, o.Shape())
	}
	out := f.meta()
	out.Data = make([]float64, len(f.Data))
	for i := range f.Data {
		out.Data[i] = fn(f.Data[i], o.Data[i])
	}
	return out, nil
}

// Scale multiplies every value by k in place and returns f.
func (f *Field) Scale(k float64) *Field {
	for i := range f.Data {
		f.Data[i] *= k
	}
	return f
}

// Series returns the values and coordinate of a one-dimensional field.
func (f *Field) Series() (x, y []float64, err error) {
	if len(f.Dims) != 1 {
		return nil, nil, fmt.Errorf("field %s: expected 1 dimension, have %v", f.Name, f.Dims)
	}
	return slices.Clone(f.Coords[0]), slices.Clone(f.Data), nil
}

// At returns the value at the given per-dimension indices.
func (f *Field) At(idx ...int) float64 {
	s := f.Shape()
	k := 0
	for i, j := range idx {
		k = k*s[i] + j
	}
	return f.Data[k]
}
