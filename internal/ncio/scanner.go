package ncio

import (
	"fmt"
	"math"

	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/rtm0/ukcaeval/internal/field"
)

// Scanner retrieves the values of one variable from a file one timestamp at
// a time. Variables are (time, lat, lon) or (time, lev, lat, lon); for the
// latter a single level is read.
type Scanner struct {
	ds     *Dataset
	name   string
	vg     api.VarGetter
	la     []float64
	lo     []float64
	ts     []int64
	nlev   int
	lev    int
	levVal float64
	unpack unpacker
	pos    int
	recs   []Record
	err    error
}

// NewScanner creates a new scanner over variable varName of a NetCDF file.
// When the variable has a vertical dimension the level nearest to level is
// scanned.
func NewScanner(filePath, varName string, level float64) (*Scanner, error) {
	ds, err := Open(filePath)
	if err != nil {
		return nil, err
	}
	s, err := newScanner(ds, varName, level)
	if err != nil {
		ds.Close()
		return nil, err
	}
	return s, nil
}

func newScanner(ds *Dataset, varName string, level float64) (*Scanner, error) {
	vg, err := ds.nc.GetVarGetter(varName)
	if err != nil {
		return nil, fmt.Errorf("%s: variable %q: %w", ds.path, varName, err)
	}
	dims := vg.Dimensions()
	canon := make([]string, len(dims))
	for i, d := range dims {
		canon[i] = field.Canonical(d)
	}
	switch {
	case len(dims) == 3 && canon[0] == field.Time && canon[1] == field.Lat && canon[2] == field.Lon:
	case len(dims) == 4 && canon[0] == field.Time && canon[1] == field.Lev && canon[2] == field.Lat && canon[3] == field.Lon:
	default:
		return nil, fmt.Errorf("%s: variable %q has dimensions %v, want (time, [lev,] lat, lon)", ds.path, varName, dims)
	}

	s := &Scanner{ds: ds, name: varName, vg: vg, nlev: 1, unpack: newUnpacker(vg.Attributes())}
	n := int(vg.Len())
	if s.lo, err = s.dimValues(dims[len(dims)-1]); err != nil {
		return nil, err
	}
	if s.la, err = s.dimValues(dims[len(dims)-2]); err != nil {
		return nil, err
	}
	if len(dims) == 4 {
		levs, err := s.dimValues(dims[1])
		if err != nil {
			return nil, err
		}
		s.nlev = len(levs)
		s.lev = nearest(levs, level)
		s.levVal = levs[s.lev]
	}

	tf, err := ds.timeAxis(dims[0])
	if err != nil {
		return nil, err
	}
	if len(tf) != n {
		return nil, fmt.Errorf("%s: %d time steps but %q has %d", ds.path, len(tf), varName, n)
	}
	s.ts = make([]int64, len(tf))
	for i, d := range tf {
		s.ts[i] = d.Time().UnixMilli()
	}
	return s, nil
}

func (s *Scanner) dimValues(dim string) ([]float64, error) {
	cv, err := s.ds.nc.GetVariable(dim)
	if err != nil {
		return nil, fmt.Errorf("%s: coordinate %q: %w", s.ds.path, dim, err)
	}
	c, _, err := flatten(cv.Values)
	if err != nil {
		return nil, fmt.Errorf("%s: coordinate %q: %w", s.ds.path, dim, err)
	}
	return c, nil
}

// timeAxis decodes the CF time coordinate named dim.
func (d *Dataset) timeAxis(dim string) ([]field.Date, error) {
	cv, err := d.nc.GetVariable(dim)
	if err != nil {
		return nil, fmt.Errorf("%s: time coordinate %q: %w", d.path, dim, err)
	}
	c, _, err := flatten(cv.Values)
	if err != nil {
		return nil, fmt.Errorf("%s: time coordinate %q: %w", d.path, dim, err)
	}
	units, _ := attrString(cv.Attributes, "units")
	cal, _ := attrString(cv.Attributes, "calendar")
	dates, err := field.DecodeTimes(c, units, cal)
	if err != nil {
		return nil, fmt.Errorf("%s: decode %s: %w", d.path, dim, err)
	}
	return dates, nil
}

func nearest(xs []float64, v float64) int {
	best, bestD := 0, math.Inf(1)
	for i, x := range xs {
		if d := math.Abs(x - v); d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

// Close closes the scanner.
func (s *Scanner) Close() {
	s.ds.Close()
}

// Summary returns the summary information about the scanned variable
// suitable for logging.
func (s *Scanner) Summary() []any {
	attrs := []any{
		"var", s.name,
		"tsCnt", len(s.ts),
		"laCnt", len(s.la),
		"loCnt", len(s.lo),
		"totalRecCnt", s.TotalRecCount(),
	}
	if s.nlev > 1 {
		attrs = append(attrs, "lev", s.levVal)
	}
	return attrs
}

// TotalRecCount returns the total number of records within the variable at
// the scanned level, including missing values that Scan skips.
func (s *Scanner) TotalRecCount() int {
	return len(s.ts) * len(s.la) * len(s.lo)
}

// Scan reads all records for the next timestamp.
func (s *Scanner) Scan() bool {
	if s.err != nil || s.pos >= len(s.ts) {
		return false
	}
	v, err := s.vg.GetSlice(int64(s.pos), int64(s.pos)+1)
	if err != nil {
		s.err = err
		return false
	}
	vals, _, err := flatten(v)
	if err != nil {
		s.err = err
		return false
	}
	plane := len(s.la) * len(s.lo)
	if len(vals) != s.nlev*plane {
		s.err = fmt.Errorf("time step %d: read %d values, want %d", s.pos, len(vals), s.nlev*plane)
		return false
	}
	vals = vals[s.lev*plane : (s.lev+1)*plane]
	s.unpack.apply(vals)

	s.recs = make([]Record, 0, plane)
	k := 0
	for _, la := range s.la {
		for _, lo := range s.lo {
			if !math.IsNaN(vals[k]) {
				s.recs = append(s.recs, Record{
					Timestamp: s.ts[s.pos],
					Latitude:  float32(la),
					Longitude: float32(lo),
					Value:     vals[k],
				})
			}
			k++
		}
	}
	s.pos++
	return true
}

// Err returns the error that stopped the scan, if any.
func (s *Scanner) Err() error {
	return s.err
}

// Records returns the records that have been read by the last Scan() operation.
// The function transfers ownership of records to the caller and the subsequent
// calls to this function without prior invocation of Scan() will return nil.
func (s *Scanner) Records() []Record {
	recs := s.recs
	s.recs = nil
	return recs
}
