package ncio

import (
	"fmt"
	"math"
	"reflect"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"

	"github.com/rtm0/ukcaeval/internal/field"
)

// FillValue is written in place of NaN.
const FillValue = 9.969209968386869e36

// Name of the time bounds variable and its second dimension.
const (
	timeBndsVar = "time_bnds"
	bndsDim     = "bnds"
)

var coordUnits = map[string]string{
	field.Lat: "degrees_north",
	field.Lon: "degrees_east",
}

// WriteField writes f, its coordinate variables and its attributes to a new
// NetCDF classic file.
func WriteField(filePath string, f *field.Field) error {
	return WriteFields(filePath, f)
}

// WriteFields writes several fields to one new NetCDF classic file. Each
// coordinate variable is written once, so fields sharing a dimension must
// agree on its coordinates.
func WriteFields(filePath string, fs ...*field.Field) error {
	coords := map[string][]float64{}
	for _, f := range fs {
		if err := f.Validate(); err != nil {
			return err
		}
		for i, dim := range f.Dims {
			c, ok := coords[dim]
			if !ok {
				coords[dim] = f.Coords[i]
				continue
			}
			if !field.AllClose(c, f.Coords[i], 0) {
				return fmt.Errorf("field %s: coordinates of %s differ from an earlier field", f.Name, dim)
			}
		}
	}

	cw, err := cdf.OpenWriter(filePath)
	if err != nil {
		return fmt.Errorf("create %s: %w", filePath, err)
	}
	written := map[string]bool{}
	for _, f := range fs {
		for i, dim := range f.Dims {
			if written[dim] {
				continue
			}
			if err := addCoord(cw, f, i); err != nil {
				cw.Close()
				return err
			}
			written[dim] = true
		}
		if err := addData(cw, f); err != nil {
			cw.Close()
			return err
		}
	}
	return cw.Close()
}

type varAdder interface {
	AddVar(name string, v api.Variable) error
}

func addCoord(cw varAdder, f *field.Field, i int) error {
	dim := f.Dims[i]
	keys, vals := []string{}, map[string]any{}
	if u, ok := coordUnits[dim]; ok {
		keys, vals["units"] = append(keys, "units"), u
	}
	withBnds := dim == field.Time && f.TimeUnits != "" && f.TimeBnds != nil
	if dim == field.Time && f.TimeUnits != "" {
		keys, vals["units"] = append(keys, "units"), f.TimeUnits
		if f.Calendar != "" {
			keys, vals["calendar"] = append(keys, "calendar"), f.Calendar
		}
		if withBnds {
			keys, vals["bounds"] = append(keys, "bounds"), timeBndsVar
		}
	}
	attrs, err := util.NewOrderedMap(keys, vals)
	if err != nil {
		return err
	}
	if err := cw.AddVar(dim, api.Variable{
		Values:     append([]float64(nil), f.Coords[i]...),
		Dimensions: []string{dim},
		Attributes: attrs,
	}); err != nil {
		return fmt.Errorf("write coordinate %s: %w", dim, err)
	}
	if !withBnds {
		return nil
	}
	bnds := make([][]float64, len(f.TimeBnds))
	for k, b := range f.TimeBnds {
		bnds[k] = []float64{b[0], b[1]}
	}
	none, err := util.NewOrderedMap(nil, nil)
	if err != nil {
		return err
	}
	if err := cw.AddVar(timeBndsVar, api.Variable{
		Values:     bnds,
		Dimensions: []string{dim, bndsDim},
		Attributes: none,
	}); err != nil {
		return fmt.Errorf("write %s: %w", timeBndsVar, err)
	}
	return nil
}

func addData(cw varAdder, f *field.Field) error {
	data := make([]float64, len(f.Data))
	for i, x := range f.Data {
		if math.IsNaN(x) {
			x = FillValue
		}
		data[i] = x
	}
	keys := []string{"_FillValue"}
	vals := map[string]any{"_FillValue": FillValue}
	if f.Units != "" {
		keys, vals["units"] = append(keys, "units"), f.Units
	}
	if f.LongName != "" {
		keys, vals["long_name"] = append(keys, "long_name"), f.LongName
	}
	attrs, err := util.NewOrderedMap(keys, vals)
	if err != nil {
		return err
	}
	if err := cw.AddVar(f.Name, api.Variable{
		Values:     nest(data, f.Shape()).Interface(),
		Dimensions: append([]string(nil), f.Dims...),
		Attributes: attrs,
	}); err != nil {
		return fmt.Errorf("write %s: %w", f.Name, err)
	}
	return nil
}

// nest rebuilds the nested slices the NetCDF writer expects from row-major
// data.
func nest(data []float64, shape []int) reflect.Value {
	if len(shape) <= 1 {
		return reflect.ValueOf(data)
	}
	elem := reflect.TypeOf(float64(0))
	for range shape[1:] {
		elem = reflect.SliceOf(elem)
	}
	out := reflect.MakeSlice(reflect.SliceOf(elem), shape[0], shape[0])
	if shape[0] == 0 {
		return out
	}
	step := len(data) / shape[0]
	for i := 0; i < shape[0]; i++ {
		out.Index(i).Set(nest(data[i*step:(i+1)*step], shape[1:]))
	}
	return out
}
