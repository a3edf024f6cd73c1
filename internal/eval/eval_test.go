package eval

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtm0/ukcaeval/internal/field"
	"github.com/rtm0/ukcaeval/internal/station"
	"github.com/rtm0/ukcaeval/internal/stats"
	"github.com/rtm0/ukcaeval/internal/units"
)

var (
	testLat = []float64{-30, 0, 30}
	testLon = []float64{0, 90, 180, 270}
)

// monthlyField builds a (time, lat, lon) field with one step per month from
// firstYear for nYears.
func monthlyField(name string, firstYear, nYears int, lat []float64, fn func(d field.Date, i, j int) float64) *field.Field {
	f := &field.Field{Name: name, Dims: []string{field.Time, field.Lat, field.Lon}}
	var tc []float64
	for y := 0; y < nYears; y++ {
		for m := 1; m <= 12; m++ {
			d := field.Date{Year: firstYear + y, Month: m, Day: 16}
			tc = append(tc, float64(len(tc)))
			f.Times = append(f.Times, d)
			for i := range lat {
				for j := range testLon {
					f.Data = append(f.Data, fn(d, i, j))
				}
			}
		}
	}
	f.Coords = [][]float64{tc, lat, testLon}
	return f
}

// withLevels adds a lev dimension after time; fn receives the level index.
func withLevels(name string, levs []float64, fn func(d field.Date, l, i, j int) float64) *field.Field {
	f := &field.Field{Name: name, Dims: []string{field.Time, field.Lev, field.Lat, field.Lon}}
	var tc []float64
	for m := 1; m <= 12; m++ {
		d := field.Date{Year: 2006, Month: m, Day: 16}
		tc = append(tc, float64(m))
		f.Times = append(f.Times, d)
		for l := range levs {
			for i := range testLat {
				for j := range testLon {
					f.Data = append(f.Data, fn(d, l, i, j))
				}
			}
		}
	}
	f.Coords = [][]float64{tc, levs, testLat, testLon}
	return f
}

func TestStationSeasonal(t *testing.T) {
	obs := monthlyField("co", 2000, 2, testLat, func(d field.Date, i, j int) float64 {
		return (50 + float64(d.Month) + float64(d.Year-2000)) * 1e-9
	})
	mod := obs.Clone().Scale(1.1)
	// The southern row has no model data.
	for k := range mod.Data {
		if (k/len(testLon))%len(testLat) == 0 {
			mod.Data[k] = math.NaN()
		}
	}
	sites := []station.Site{
		{Name: "Mace Head", Lat: 28, Lon: -9.9},
		{Name: "Cape Grim", Lat: -40.7, Lon: 144.7},
	}

	panels, err := StationSeasonal(context.Background(), obs, mod, sites, SeasonalOptions{
		ModelUnits:  "mol/mol",
		PlotUnits:   "ppbv",
		Concurrency: 2,
	})
	require.NoError(t, err)
	require.Len(t, panels, 2)

	mh := panels[0]
	require.NoError(t, mh.Err)
	assert.Equal(t, sites[0], mh.Site)
	assert.Len(t, mh.Months, 12)
	assert.InDelta(t, 1.0, mh.R, 1e-9)
	assert.InDelta(t, 10.0, mh.MBE, 1e-9)
	assert.InDelta(t, 51.5, mh.ObsMean[0], 1e-9)
	assert.InDelta(t, 0.5, mh.ObsStd[0], 1e-9)
	assert.InDelta(t, 56.65, mh.ModMean[0], 1e-9)

	cg := panels[1]
	assert.Equal(t, sites[1], cg.Site)
	assert.ErrorIs(t, cg.Err, stats.ErrTooShort)
}

func TestStationSeasonal_UnitErrorIsPerPanel(t *testing.T) {
	obs := monthlyField("co", 2000, 1, testLat, func(d field.Date, i, j int) float64 { return float64(d.Month) })
	panels, err := StationSeasonal(context.Background(), obs, obs, []station.Site{{Name: "Alert", Lat: 82.5, Lon: -62.5}},
		SeasonalOptions{ModelUnits: "ppbv", PlotUnits: "ppmv"})
	require.NoError(t, err)
	assert.ErrorIs(t, panels[0].Err, units.ErrNoConversion)
}

func TestStationSeasonal_Cancelled(t *testing.T) {
	obs := monthlyField("co", 2000, 1, testLat, func(d field.Date, i, j int) float64 { return 1 })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := StationSeasonal(ctx, obs, obs, []station.Site{{Name: "Alert"}}, SeasonalOptions{})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestBoxProfile(t *testing.T) {
	f := withLevels("co", []float64{1, 2}, func(d field.Date, l, i, j int) float64 {
		if d.Month != 7 {
			return 1e6
		}
		return float64(100*l + j)
	})
	// The box straddles the 0/360 seam: longitudes 270, 0 and 90.
	box := Box{Name: "INTEX-NA CT", LatMin: 0, LatMax: 30, LonMin: -100, LonMax: 100}

	q, err := BoxProfile(f, box, 7, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, q.Lev)
	assert.InDeltaSlice(t, []float64{0.5, 200.5}, q.P25, 1e-9)
	assert.InDeltaSlice(t, []float64{2, 202}, q.P50, 1e-9)
	assert.InDeltaSlice(t, []float64{5, 205}, q.P75, 1e-9)

	_, err = BoxProfile(f, Box{Name: "Antarctic", LatMin: -90, LatMax: -60, LonMin: 0, LonMax: 10}, 7, 1)
	assert.ErrorIs(t, err, field.ErrEmpty)
}

func TestBoxProfile_CampaignYear(t *testing.T) {
	early := withLevels("co", []float64{1}, func(field.Date, int, int, int) float64 { return 50 })
	late := withLevels("co", []float64{1}, func(field.Date, int, int, int) float64 { return 150 })
	for i := range late.Times {
		late.Times[i].Year = 2007
	}
	f := early.Clone()
	f.Times = append(f.Times, late.Times...)
	f.Coords[0] = append(append([]float64(nil), early.Coords[0]...), late.Coords[0]...)
	f.Data = append(f.Data, late.Data...)
	require.NoError(t, f.Validate())

	box := Box{Name: "all", LatMin: -90, LatMax: 90, LonMin: 0, LonMax: 360}
	q, err := BoxProfile(f, box, 7, 1)
	require.NoError(t, err)
	assert.InDelta(t, 100, q.P50[0], 1e-9)

	box.Year = 2007
	q, err = BoxProfile(f, box, 7, 1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{150, 150, 150}, []float64{q.P25[0], q.P50[0], q.P75[0]}, 1e-9)

	box.Year = 1999
	_, err = BoxProfile(f, box, 7, 1)
	assert.ErrorIs(t, err, field.ErrEmpty)
}

func TestDomainProfile(t *testing.T) {
	f := withLevels("o3", []float64{1000, 500}, func(d field.Date, l, i, j int) float64 {
		return float64(10 * (l + 1))
	})
	lev, vals, err := DomainProfile(f)
	require.NoError(t, err)
	assert.Equal(t, []float64{1000, 500}, lev)
	assert.InDeltaSlice(t, []float64{10, 20}, vals, 1e-9)

	_, _, err = DomainProfile(monthlyField("tco", 2000, 1, testLat, func(field.Date, int, int) float64 { return 1 }))
	assert.Error(t, err)
}

func TestZonalClimatology(t *testing.T) {
	model := monthlyField("tco", 2005, 2, testLat, func(d field.Date, i, j int) float64 {
		return float64(d.Month) + 10*float64(i)
	})
	obs := monthlyField("tco", 2005, 1, testLat, func(d field.Date, i, j int) float64 {
		return float64(d.Month) + 10*float64(i) - 2
	})

	c, err := ZonalClimatology(model, obs, DefaultClimOptions)
	require.NoError(t, err)
	assert.Equal(t, []string{field.Month, field.Lat}, c.Diff.Dims)
	for _, v := range c.Diff.Data {
		assert.InDelta(t, 2.0, v, 1e-9)
	}
	assert.False(t, c.Diag.Interpolated)
	require.Len(t, c.Levels, 30)
	assert.Equal(t, 1.0, c.Levels[0])
	assert.Equal(t, 32.0, c.Levels[29])
	require.Len(t, c.DiffLevels, 31)
	assert.InDelta(t, 1.95, c.DiffLevels[0], 1e-9)
	assert.InDelta(t, 2.05, c.DiffLevels[30], 1e-9)
}

func TestZonalClimatology_InterpolatesObs(t *testing.T) {
	model := monthlyField("tco", 2005, 1, testLat, func(d field.Date, i, j int) float64 {
		return testLat[i]
	})
	coarse := []float64{-30, 30}
	obs := monthlyField("tco", 2005, 1, coarse, func(d field.Date, i, j int) float64 {
		return coarse[i]
	})

	c, err := ZonalClimatology(model, obs, ClimOptions{Levels: 5, DiffLimit: 4, DiffStep: 2})
	require.NoError(t, err)
	assert.True(t, c.Diag.Interpolated)
	assert.Zero(t, c.Diag.Diff.NaNs)
	for _, v := range c.Diff.Data {
		assert.InDelta(t, 0, v, 1e-9)
	}
	assert.Equal(t, []float64{-4, -2, 0, 2, 4}, c.DiffLevels)
	assert.Len(t, c.Levels, 5)
}

func TestZonalClimatology_MonthsMustMatch(t *testing.T) {
	model := monthlyField("tco", 2005, 1, testLat, func(field.Date, int, int) float64 { return 300 })
	model, err := model.SelectSeason("DJF")
	require.NoError(t, err)
	obs := monthlyField("tco", 2005, 1, testLat, func(field.Date, int, int) float64 { return 290 })
	obs, err = obs.SelectSeason("JJA")
	require.NoError(t, err)

	_, err = ZonalClimatology(model, obs, DefaultClimOptions)
	assert.ErrorIs(t, err, field.ErrShape)
}

func TestSeasonalZonal(t *testing.T) {
	obs := monthlyField("obs", 1999, 3, testLat, func(d field.Date, i, j int) float64 { return 20 })
	m1 := monthlyField("m1", 2000, 1, testLat, func(d field.Date, i, j int) float64 { return 22 })
	m2 := monthlyField("m2", 2000, 2, testLat, func(d field.Date, i, j int) float64 {
		if d.Season() == "JJA" {
			return 18
		}
		return 20
	})

	got, err := SeasonalZonal(obs, []Named{{"UKESM-1.1", m1}, {"UKESM-1.3", m2}})
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, []string{"DJF", "MAM", "JJA", "SON", "Annual"},
		[]string{got[0].Season, got[1].Season, got[2].Season, got[3].Season, got[4].Season})

	jja := got[2]
	assert.Equal(t, testLat, jja.Lat)
	assert.InDeltaSlice(t, []float64{20, 20, 20}, jja.Obs.Mean, 1e-9)
	assert.InDeltaSlice(t, []float64{10, 10, 10}, jja.Models[0].Bias, 1e-9)
	assert.InDeltaSlice(t, []float64{-10, -10, -10}, jja.Models[1].Bias, 1e-9)
	assert.InDeltaSlice(t, []float64{0, 0, 0}, jja.Models[0].Band, 1e-9)
	assert.Equal(t, "UKESM-1.3", jja.Models[1].Name)

	annual := got[4]
	// Three of twelve months at 18.
	assert.InDelta(t, 19.5, annual.Models[1].Mean[0], 1e-9)
	assert.InDelta(t, math.Sqrt(0.75), annual.Models[1].Std[0], 1e-9)
}

func TestSeasonalZonal_NoOverlap(t *testing.T) {
	obs := monthlyField("obs", 2000, 1, testLat, func(field.Date, int, int) float64 { return 1 })
	m1 := monthlyField("m1", 1990, 1, testLat, func(field.Date, int, int) float64 { return 1 })
	m2 := monthlyField("m2", 1995, 1, testLat, func(field.Date, int, int) float64 { return 1 })
	_, err := SeasonalZonal(obs, []Named{{"a", m1}, {"b", m2}})
	assert.ErrorIs(t, err, field.ErrEmpty)
}

func TestLatBandSeries(t *testing.T) {
	obs := monthlyField("tco", 2000, 3, testLat, func(d field.Date, i, j int) float64 { return 300 + float64(i) })
	sigma := monthlyField("sigma", 2000, 3, testLat, func(field.Date, int, int) float64 { return 5 })
	model := monthlyField("tco", 2001, 1, testLat, func(field.Date, int, int) float64 { return 310 })

	bands := []Band{{-90, 90}, {-30, -30}}
	got, err := LatBandSeries(obs, sigma, "Bodeker", []Named{{"UKESM-1.1", model}}, bands)
	require.NoError(t, err)
	require.Len(t, got, 2)

	all := got[0]
	require.Len(t, all.Obs.Y, 12)
	assert.Equal(t, "Bodeker", all.Obs.Name)
	assert.InDelta(t, 2001+(15.0/31)/12, all.Obs.X[0], 1e-9)
	// Equal-area weights at -30 and 30, larger at the equator.
	assert.InDelta(t, 301, all.Obs.Y[0], 1e-9)
	assert.InDeltaSlice(t, []float64{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5}, all.ObsSigma, 1e-9)
	assert.InDelta(t, 310, all.Models[0].Y[11], 1e-9)

	south := got[1]
	assert.InDelta(t, 300, south.Obs.Y[0], 1e-9)
	assert.Equal(t, "[-30, -30]", south.Band.String())

	noSigma, err := LatBandSeries(obs, nil, "OMI", []Named{{"UKESM-1.1", model}}, bands[:1])
	require.NoError(t, err)
	assert.Nil(t, noSigma[0].ObsSigma)
}

func TestLatBandSeries_ObsWithinModelCells(t *testing.T) {
	model := monthlyField("tco", 2000, 1, testLat, func(field.Date, int, int) float64 { return 310 })
	model.TimeUnits = "days since 2000-01-01"
	ref := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, d := range model.Times {
		model.Coords[0][i] = d.Time().Sub(ref).Hours() / 24
	}
	// Observations sit a day before each model step.
	obs := monthlyField("tco", 1999, 3, testLat, func(field.Date, int, int) float64 { return 300 })
	for i := range obs.Times {
		obs.Times[i].Day = 15
	}

	got, err := LatBandSeries(obs, nil, "OMI", []Named{{"UKESM-1.1", model}}, []Band{{-90, 90}})
	require.NoError(t, err)
	require.Len(t, got[0].Obs.X, 12)
	assert.InDelta(t, 2000+(14.0/31)/12, got[0].Obs.X[0], 1e-9)
	assert.InDelta(t, 2000+(11+14.0/31)/12, got[0].Obs.X[11], 1e-9)
}

func TestSurface(t *testing.T) {
	f := withLevels("co", []float64{1, 2}, func(d field.Date, l, i, j int) float64 {
		return float64(d.Month*1000 + l*100 + i*10 + j)
	})
	s, err := Surface(f)
	require.NoError(t, err)
	assert.Equal(t, []string{field.Lat, field.Lon}, s.Dims)
	assert.Equal(t, 1023.0, s.At(2, 3))

	_, err = Surface(&field.Field{Dims: []string{field.Lev}, Coords: [][]float64{{1}}, Data: []float64{1}})
	assert.Error(t, err)
}
