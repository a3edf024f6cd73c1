// Package ncio reads and writes the NetCDF files exchanged with the UKCA
// model and observation archives.
package ncio

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/rtm0/ukcaeval/internal/field"
)

var (
	// ErrNoMatch is returned when no variable matches a long-name fragment.
	ErrNoMatch = errors.New("no matching variable")
	// ErrAmbiguous is returned when several variables match a long-name fragment.
	ErrAmbiguous = errors.New("ambiguous variable")
)

// Dataset is an open NetCDF file.
type Dataset struct {
	path string
	nc   api.Group
}

// Open opens a NetCDF classic or NetCDF-4 file.
func Open(filePath string) (*Dataset, error) {
	nc, err := netcdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filePath, err)
	}
	return &Dataset{path: filePath, nc: nc}, nil
}

// Close closes the dataset.
func (d *Dataset) Close() {
	d.nc.Close()
}

// Path returns the file the dataset was opened from.
func (d *Dataset) Path() string { return d.path }

// Variables lists the variable names in file order.
func (d *Dataset) Variables() []string {
	return d.nc.ListVariables()
}

// Summary returns the summary information about the dataset suitable for
// logging.
func (d *Dataset) Summary() []any {
	vars := d.Variables()
	dims := map[string]bool{}
	for _, name := range vars {
		vg, err := d.nc.GetVarGetter(name)
		if err != nil {
			continue
		}
		for _, dim := range vg.Dimensions() {
			dims[dim] = true
		}
	}
	dimNames := make([]string, 0, len(dims))
	for dim := range dims {
		dimNames = append(dimNames, dim)
	}
	slices.Sort(dimNames)
	return []any{
		"file", d.path,
		"dims", dimNames,
		"vars", vars,
		"varCnt", len(vars),
	}
}

// Describe returns the dimensions and a few attributes of one variable.
func (d *Dataset) Describe(name string) ([]string, map[string]string, error) {
	vg, err := d.nc.GetVarGetter(name)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: variable %q: %w", d.path, name, err)
	}
	attrs := map[string]string{}
	for _, key := range []string{"units", "long_name", "standard_name"} {
		if s, ok := attrString(vg.Attributes(), key); ok {
			attrs[key] = s
		}
	}
	return vg.Dimensions(), attrs, nil
}

// FindByLongName returns the one variable whose long_name contains fragment.
func (d *Dataset) FindByLongName(fragment string) (string, error) {
	var matches, names []string
	for _, name := range d.Variables() {
		vg, err := d.nc.GetVarGetter(name)
		if err != nil {
			continue
		}
		ln, ok := attrString(vg.Attributes(), "long_name")
		if !ok {
			continue
		}
		if strings.Contains(ln, fragment) {
			matches = append(matches, name)
			names = append(names, ln)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s: %w for long name %q", d.path, ErrNoMatch, fragment)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%s: %w: all of %q match %q", d.path, ErrAmbiguous, names, fragment)
	}
}

// Field decodes a variable and its coordinates into a field. Dimension names
// are mapped to their canonical form, packed values are unpacked, fill
// values become NaN and a CF time axis is decoded into dates, along with its
// cell bounds when the file has them.
func (d *Dataset) Field(name string) (*field.Field, error) {
	v, err := d.nc.GetVariable(name)
	if err != nil {
		return nil, fmt.Errorf("%s: variable %q: %w", d.path, name, err)
	}
	data, shape, err := flatten(v.Values)
	if err != nil {
		return nil, fmt.Errorf("%s: variable %q: %w", d.path, name, err)
	}
	if len(shape) != len(v.Dimensions) {
		return nil, fmt.Errorf("%s: variable %q has %d dimensions but rank %d data", d.path, name, len(v.Dimensions), len(shape))
	}
	newUnpacker(v.Attributes).apply(data)

	f := &field.Field{
		Name:   name,
		Dims:   make([]string, len(v.Dimensions)),
		Coords: make([][]float64, len(v.Dimensions)),
		Data:   data,
	}
	f.Units, _ = attrString(v.Attributes, "units")
	f.LongName, _ = attrString(v.Attributes, "long_name")

	for i, dim := range v.Dimensions {
		canon := field.Canonical(dim)
		if slices.Contains(f.Dims[:i], canon) {
			canon = dim
		}
		f.Dims[i] = canon
		c, attrs, err := d.coordinate(dim, shape[i])
		if err != nil {
			return nil, err
		}
		f.Coords[i] = c
		if canon == field.Time && attrs != nil {
			units, _ := attrString(attrs, "units")
			if !strings.Contains(units, " since ") {
				continue
			}
			cal, _ := attrString(attrs, "calendar")
			if f.Times, err = field.DecodeTimes(c, units, cal); err != nil {
				return nil, fmt.Errorf("%s: decode %s: %w", d.path, dim, err)
			}
			f.TimeUnits, f.Calendar = units, cal
			if bname, ok := attrString(attrs, "bounds"); ok {
				if f.TimeBnds, err = d.timeBounds(bname, len(c)); err != nil {
					return nil, err
				}
			}
		}
	}
	return f, f.Validate()
}

// timeBounds reads the n x 2 bounds variable named by the bounds attribute
// of a time coordinate. A missing variable yields nil.
func (d *Dataset) timeBounds(name string, n int) ([][2]float64, error) {
	bv, err := d.nc.GetVariable(name)
	if err != nil {
		return nil, nil
	}
	vals, shape, err := flatten(bv.Values)
	if err != nil {
		return nil, fmt.Errorf("%s: time bounds %q: %w", d.path, name, err)
	}
	if len(shape) != 2 || shape[0] != n || shape[1] != 2 {
		return nil, fmt.Errorf("%s: time bounds %q have shape %v, want [%d 2]", d.path, name, shape, n)
	}
	out := make([][2]float64, n)
	for i := range out {
		out[i] = [2]float64{vals[2*i], vals[2*i+1]}
	}
	return out, nil
}

// coordinate reads the coordinate variable of dim, falling back to indices
// when the file has none.
func (d *Dataset) coordinate(dim string, n int) ([]float64, api.AttributeMap, error) {
	cv, err := d.nc.GetVariable(dim)
	if err != nil {
		c := make([]float64, n)
		for i := range c {
			c[i] = float64(i)
		}
		return c, nil, nil
	}
	c, _, err := flatten(cv.Values)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: coordinate %q: %w", d.path, dim, err)
	}
	if len(c) != n {
		return nil, nil, fmt.Errorf("%s: coordinate %q has %d values, dimension has %d", d.path, dim, len(c), n)
	}
	return c, cv.Attributes, nil
}

// flatten converts the nested slices returned by the NetCDF reader into a
// row-major float64 slice and its shape.
func flatten(values any) ([]float64, []int, error) {
	rv := reflect.ValueOf(values)
	if !rv.IsValid() {
		return nil, nil, errors.New("no values")
	}
	var shape []int
	for t := rv; t.Kind() == reflect.Slice; t = t.Index(0) {
		shape = append(shape, t.Len())
		if t.Len() == 0 {
			break
		}
	}
	n := 1
	for _, s := range shape {
		n *= s
	}
	out := make([]float64, 0, n)
	var walk func(reflect.Value) error
	walk = func(x reflect.Value) error {
		switch x.Kind() {
		case reflect.Slice:
			for i := 0; i < x.Len(); i++ {
				if err := walk(x.Index(i)); err != nil {
					return err
				}
			}
		case reflect.Float32, reflect.Float64:
			out = append(out, x.Float())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			out = append(out, float64(x.Int()))
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			out = append(out, float64(x.Uint()))
		default:
			return fmt.Errorf("unsupported value type %s", x.Type())
		}
		return nil
	}
	if err := walk(rv); err != nil {
		return nil, nil, err
	}
	return out, shape, nil
}

func attrString(attrs api.AttributeMap, key string) (string, bool) {
	if attrs == nil {
		return "", false
	}
	v, ok := attrs.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func attrFloat(attrs api.AttributeMap, key string) (float64, bool) {
	if attrs == nil {
		return 0, false
	}
	v, ok := attrs.Get(key)
	if !ok {
		return 0, false
	}
	xs, _, err := flatten(v)
	if err != nil || len(xs) == 0 {
		return 0, false
	}
	return xs[0], true
}

// unpacker applies the CF packing and missing-value attributes.
type unpacker struct {
	fills         []float64
	scale, offset float64
}

func newUnpacker(attrs api.AttributeMap) unpacker {
	u := unpacker{scale: 1}
	for _, key := range []string{"_FillValue", "missing_value"} {
		if v, ok := attrFloat(attrs, key); ok {
			u.fills = append(u.fills, v)
		}
	}
	if v, ok := attrFloat(attrs, "scale_factor"); ok {
		u.scale = v
	}
	if v, ok := attrFloat(attrs, "add_offset"); ok {
		u.offset = v
	}
	return u
}

func (u unpacker) apply(data []float64) {
	for i, x := range data {
		if slices.Contains(u.fills, x) {
			data[i] = math.NaN()
			continue
		}
		data[i] = x*u.scale + u.offset
	}
}
