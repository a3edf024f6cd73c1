package field

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monthly builds a (time, lat, lon) field of nYears*12 monthly steps where
// value = month + 100*lat index + 1000*lon index.
func monthly(nYears int) *Field {
	lat := []float64{-30, 0, 30}
	lon := []float64{0, 120, 240}
	var tc []float64
	var dates []Date
	for y := 0; y < nYears; y++ {
		for m := 1; m <= 12; m++ {
			tc = append(tc, float64(len(tc)*30+15))
			dates = append(dates, Date{Year: 2000 + y, Month: m, Day: 16})
		}
	}
	f := &Field{
		Name:   "o3",
		Dims:   []string{Time, Lat, Lon},
		Coords: [][]float64{tc, lat, lon},
		Times:  dates,
	}
	for _, d := range dates {
		for i := range lat {
			for j := range lon {
				f.Data = append(f.Data, float64(d.Month+100*i+1000*j+(d.Year-2000)))
			}
		}
	}
	return f
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, Lat, Canonical("latitude"))
	assert.Equal(t, Lon, Canonical("Longitude"))
	assert.Equal(t, Time, Canonical("t"))
	assert.Equal(t, Lev, Canonical("atmosphere_hybrid_height_coordinate"))
	assert.Equal(t, "bnds", Canonical("bnds"))
}

func TestValidate(t *testing.T) {
	f := monthly(1)
	require.NoError(t, f.Validate())
	f.Data = f.Data[1:]
	assert.ErrorIs(t, f.Validate(), ErrShape)
}

func TestNearest(t *testing.T) {
	f := monthly(1)
	i, err := f.Nearest(Lat, 12)
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	i, err = f.Nearest(Lon, -110)
	require.NoError(t, err)
	assert.Equal(t, 2, i, "-110 is 250 on the circle")

	_, err = f.Nearest(Lev, 850)
	assert.ErrorIs(t, err, ErrNoDim)
}

func TestSelectNearestPoint(t *testing.T) {
	f := monthly(1)
	p, err := f.SelectNearest(Lat, 29)
	require.NoError(t, err)
	p, err = p.SelectNearest(Lon, 125)
	require.NoError(t, err)

	assert.Equal(t, []string{Time}, p.Dims)
	require.Len(t, p.Data, 12)
	assert.Equal(t, float64(1+200+1000), p.Data[0])
	assert.Len(t, p.Times, 12)
}

func TestSliceRange(t *testing.T) {
	f := monthly(1)
	s, err := f.SliceRange(Lat, 40, -5)
	require.NoError(t, err)
	lat, _ := s.Coord(Lat)
	assert.Equal(t, []float64{0, 30}, lat)
	assert.Equal(t, 12*2*3, len(s.Data))

	_, err = f.SliceRange(Lat, 50, 60)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestMeanOverLon(t *testing.T) {
	f := monthly(1)
	z, err := f.MeanOver(Lon)
	require.NoError(t, err)
	assert.Equal(t, []string{Time, Lat}, z.Dims)
	// lon contribution averages (0+1000+2000)/3.
	assert.Equal(t, float64(1+1000), z.At(0, 0))
	assert.Equal(t, float64(12+200+1000), z.At(11, 2))
}

func TestMeanOverSkipsNaN(t *testing.T) {
	f := &Field{Dims: []string{Lon}, Coords: [][]float64{{0, 1, 2}}, Data: []float64{1, math.NaN(), 3}}
	m, err := f.MeanOver(Lon)
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, m.Data)
}

func TestGroupByMonth(t *testing.T) {
	f := monthly(2)
	mean, std, err := f.GroupByMonth()
	require.NoError(t, err)

	assert.Equal(t, []string{Month, Lat, Lon}, mean.Dims)
	months, _ := mean.Coord(Month)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, months)
	// two years differ by 1, so mean is +0.5 and population std 0.5.
	assert.Equal(t, 3.5, mean.At(2, 0, 0))
	assert.Equal(t, 0.5, std.At(2, 0, 0))
	assert.Nil(t, mean.Times)
}

func TestSelectSeason(t *testing.T) {
	f := monthly(1)
	djf, err := f.SelectSeason("DJF")
	require.NoError(t, err)
	require.Len(t, djf.Times, 3)
	assert.Equal(t, []int{1, 2, 12}, []int{djf.Times[0].Month, djf.Times[1].Month, djf.Times[2].Month})

	all, err := f.SelectSeason(Annual)
	require.NoError(t, err)
	assert.Len(t, all.Times, 12)

	_, err = f.SelectSeason("XYZ")
	assert.Error(t, err)
}

func TestInterpLat(t *testing.T) {
	f := &Field{
		Dims:   []string{Lat},
		Coords: [][]float64{{30, 0, -30}},
		Data:   []float64{3, 0, -3},
	}
	g, err := f.InterpLat([]float64{-45, -15, 0, 10, 30})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(g.Data[0]))
	assert.InDeltaSlice(t, []float64{-1.5, 0, 1, 3}, g.Data[1:], 1e-12)
}

func TestAreaWeightedMean(t *testing.T) {
	f := &Field{
		Dims:   []string{Lat, Lon},
		Coords: [][]float64{{-45, 45}, {0, 180}},
		Data:   []float64{1, 1, 3, 3},
	}
	m, err := f.AreaWeightedMean(-90, 90)
	require.NoError(t, err)
	require.Len(t, m.Data, 1)
	assert.InDelta(t, 2.0, m.Data[0], 1e-12, "symmetric bands carry equal weight")

	f.Coords[0] = []float64{0, 60}
	m, err = f.AreaWeightedMean(-90, 90)
	require.NoError(t, err)
	assert.Less(t, m.Data[0], 2.0, "equatorial band outweighs the polar one")
}

func TestTimeIntersect(t *testing.T) {
	a := monthly(2)
	b := monthly(1)
	b.Times = b.Times[:6]
	b.Coords[0] = b.Coords[0][:6]
	b.Data = b.Data[:6*9]

	start, end, err := TimeIntersect(a, b)
	require.NoError(t, err)
	assert.Equal(t, Date{2000, 1, 16, 0}, start)
	assert.Equal(t, Date{2000, 6, 16, 0}, end)

	s, err := a.SliceTime(start, end)
	require.NoError(t, err)
	assert.Len(t, s.Times, 6)
}

func TestTimeCells(t *testing.T) {
	f := monthly(1)
	f.TimeUnits, f.Calendar = "days since 2000-01-01", "360_day"

	// Midpoints between steps, half a step beyond the ends.
	cells, err := f.TimeCells()
	require.NoError(t, err)
	require.Len(t, cells, 12)
	assert.Equal(t, [2]Date{{2000, 1, 1, 0}, {2000, 2, 1, 0}}, cells[0])
	assert.Equal(t, [2]Date{{2000, 12, 1, 0}, {2001, 1, 1, 0}}, cells[11])

	f.TimeBnds = make([][2]float64, 12)
	for i := range f.TimeBnds {
		f.TimeBnds[i] = [2]float64{float64(30 * i), float64(30*i + 10)}
	}
	cells, err = f.TimeCells()
	require.NoError(t, err)
	assert.Equal(t, [2]Date{{2000, 12, 1, 0}, {2000, 12, 11, 0}}, cells[11])

	f.TimeBnds, f.TimeUnits = nil, ""
	start, end, err := f.CellSpan()
	require.NoError(t, err)
	assert.Equal(t, Date{2000, 1, 1, 0}, start)
	assert.Equal(t, Date{2001, 1, 1, 0}, end)
}

func TestSliceTimeBefore(t *testing.T) {
	f := monthly(1)
	f.TimeUnits = "days since 2000-01-01"
	f.TimeBnds = make([][2]float64, 12)
	for i := range f.TimeBnds {
		f.TimeBnds[i] = [2]float64{float64(30 * i), float64(30*i + 30)}
	}

	s, err := f.SliceTimeBefore(Date{2000, 3, 16, 0}, Date{2000, 5, 16, 0})
	require.NoError(t, err)
	assert.Equal(t, []Date{{2000, 3, 16, 0}, {2000, 4, 16, 0}}, s.Times)
	assert.Equal(t, [][2]float64{{60, 90}, {90, 120}}, s.TimeBnds)
	require.NoError(t, s.Validate())

	m, _, err := f.GroupByMonth()
	require.NoError(t, err)
	assert.Nil(t, m.TimeBnds)
}

func TestSubShapeMismatch(t *testing.T) {
	a := monthly(1)
	b, err := a.SliceRange(Lat, 0, 90)
	require.NoError(t, err)
	_, err = a.Sub(b)
	assert.ErrorIs(t, err, ErrShape)

	d, err := a.Sub(a)
	require.NoError(t, err)
	for _, v := range d.Data {
		assert.Zero(t, v)
	}
}

func TestCellAreasSumToSphere(t *testing.T) {
	lat := []float64{-67.5, -22.5, 22.5, 67.5}
	lon := []float64{45, 135, 225, 315}
	total := 0.0
	for _, row := range CellAreas(lat, lon) {
		for _, a := range row {
			total += a
		}
	}
	assert.InDelta(t, 4*math.Pi*EarthRadius*EarthRadius, total, 1)
}

func TestWhereAcrossSeam(t *testing.T) {
	f := monthly(1)
	got, err := f.Where(Lon, func(x float64) bool { return x >= 240 || x <= 0 })
	require.NoError(t, err)
	lon, _ := got.Coord(Lon)
	assert.Equal(t, []float64{0, 240}, lon)
	assert.Equal(t, f.At(0, 1, 2), got.At(0, 1, 1))

	_, err = f.Where(Lon, func(float64) bool { return false })
	assert.ErrorIs(t, err, ErrEmpty)
}
