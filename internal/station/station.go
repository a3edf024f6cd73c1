// Package station loads the surface station tables used to sample model
// output at observation sites.
package station

import (
	"errors"
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/rtm0/ukcaeval/internal/field"
)

// Required column names.
const (
	ColName = "Site Name"
	ColLat  = "Latitude"
	ColLon  = "Longitude"
)

// ErrColumn is returned when a station table lacks a required column.
var ErrColumn = errors.New("missing column")

// Site is one sampling location.
type Site struct {
	Name string
	Lat  float64
	Lon  float64
}

// Label formats the site as "Mace Head (53.3°N, 9.9°W)".
func (s Site) Label() string {
	ns, ew := "N", "E"
	if s.Lat < 0 {
		ns = "S"
	}
	if s.Lon < 0 {
		ew = "W"
	}
	return fmt.Sprintf("%s (%.1f°%s, %.1f°%s)", s.Name, math.Abs(s.Lat), ns, math.Abs(s.Lon), ew)
}

// Bounds is an inclusive latitude/longitude box.
type Bounds struct {
	LatMin, LatMax float64
	LonMin, LonMax float64
}

// Load reads a station CSV table. Columns other than the required ones are
// kept as strings, exactly as read (station codes keep leading zeros).
func Load(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer f.Close()

	df := dataframe.ReadCSV(f,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.WithTypes(map[string]series.Type{
			ColName: series.String,
			ColLat:  series.Float,
			ColLon:  series.Float,
		}),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%s: %w", path, df.Err)
	}
	names := df.Names()
	for _, col := range []string{ColName, ColLat, ColLon} {
		if !slices.Contains(names, col) {
			return dataframe.DataFrame{}, fmt.Errorf("%s: %w %q (have %q)", path, ErrColumn, col, names)
		}
	}
	return df, nil
}

// Filter keeps the stations inside b, bounds included.
func Filter(df dataframe.DataFrame, b Bounds) dataframe.DataFrame {
	return FilterStations(df, b.LatMin, b.LatMax, b.LonMin, b.LonMax)
}

// FilterStations keeps the rows whose latitude and longitude lie within the
// inclusive bounds. Each Filter call ORs its conditions, so the four bounds
// are chained.
func FilterStations(df dataframe.DataFrame, latMin, latMax, lonMin, lonMax float64) dataframe.DataFrame {
	return df.
		Filter(dataframe.F{Colname: ColLat, Comparator: series.GreaterEq, Comparando: latMin}).
		Filter(dataframe.F{Colname: ColLat, Comparator: series.LessEq, Comparando: latMax}).
		Filter(dataframe.F{Colname: ColLon, Comparator: series.GreaterEq, Comparando: lonMin}).
		Filter(dataframe.F{Colname: ColLon, Comparator: series.LessEq, Comparando: lonMax})
}

// Sites returns the stations in table order.
func Sites(df dataframe.DataFrame) []Site {
	if df.Nrow() == 0 {
		return nil
	}
	names := df.Col(ColName).Records()
	lats := df.Col(ColLat).Float()
	lons := df.Col(ColLon).Float()
	sites := make([]Site, len(names))
	for i := range names {
		sites[i] = Site{Name: names[i], Lat: lats[i], Lon: lons[i]}
	}
	return sites
}

// BoundsOf returns the lat/lon extent of a field. A grid that wraps the
// globe in longitude accepts both the -180..180 and 0..360 conventions.
func BoundsOf(f *field.Field) (Bounds, error) {
	lat, err := f.Coord(field.Lat)
	if err != nil {
		return Bounds{}, err
	}
	lon, err := f.Coord(field.Lon)
	if err != nil {
		return Bounds{}, err
	}
	if len(lat) == 0 || len(lon) == 0 {
		return Bounds{}, field.ErrEmpty
	}
	b := Bounds{
		LatMin: slices.Min(lat), LatMax: slices.Max(lat),
		LonMin: slices.Min(lon), LonMax: slices.Max(lon),
	}
	if len(lon) > 1 {
		step := (b.LonMax - b.LonMin) / float64(len(lon)-1)
		if b.LonMax-b.LonMin+step >= 359.999 {
			b.LonMin, b.LonMax = -180, 360
		}
	}
	return b, nil
}
