package dobson

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtm0/ukcaeval/internal/field"
)

// grid is two levels on a four-cell globe; every cell covers a quarter of
// the sphere.
func grid(name string, fill func(l, i, j int) float64) *field.Field {
	f := &field.Field{
		Name:   name,
		Dims:   []string{field.Lev, field.Lat, field.Lon},
		Coords: [][]float64{{1, 2}, {-45, 45}, {0, 180}},
	}
	for l := 0; l < 2; l++ {
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				f.Data = append(f.Data, fill(l, i, j))
			}
		}
	}
	return f
}

var quarterSphere = math.Pi * field.EarthRadius * field.EarthRadius

func TestFactor(t *testing.T) {
	assert.InDelta(t, 46696.09, Factor(), 0.01)
}

func TestColumn_Total(t *testing.T) {
	o3 := grid("o3", func(l, i, j int) float64 { return 5e-3 })
	air := grid("air", func(l, i, j int) float64 { return quarterSphere })

	col, err := Column(o3, air, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{field.Lat, field.Lon}, col.Dims)
	assert.Equal(t, "DU", col.Units)
	assert.Equal(t, TotalLongName, col.LongName)
	// 2 levels x 5e-3 kg m-2 of ozone.
	for _, v := range col.Data {
		assert.InDelta(t, 1e-2*Factor(), v, 1e-6)
	}
}

func TestColumn_TroposphereMask(t *testing.T) {
	o3 := grid("o3", func(l, i, j int) float64 { return 5e-3 })
	air := grid("air", func(l, i, j int) float64 { return quarterSphere })
	mask := grid("mask", func(l, i, j int) float64 {
		if l == 0 {
			return 1
		}
		return 0
	})

	col, err := Column(o3, air, mask)
	require.NoError(t, err)
	assert.Equal(t, TropoLongName, col.LongName)
	assert.InDelta(t, 5e-3*Factor(), col.Data[3], 1e-6)
}

func TestColumn_Errors(t *testing.T) {
	o3 := grid("o3", func(l, i, j int) float64 { return 1 })
	short := &field.Field{Dims: []string{field.Lev}, Coords: [][]float64{{1, 2}}, Data: []float64{1, 1}}

	_, err := Column(o3, short, nil)
	assert.ErrorIs(t, err, field.ErrShape)

	_, err = Column(short, short, nil)
	assert.Error(t, err)
}
