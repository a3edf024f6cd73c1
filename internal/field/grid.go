package field

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// EarthRadius is the spherical Earth radius in metres used for cell areas.
const EarthRadius = 6367470.0

func rad(deg float64) float64 { return deg * math.Pi / 180 }

// GuessBounds returns cell bounds for point coordinates: midpoints between
// neighbours, with the outer cells extended by half their neighbour spacing.
func GuessBounds(c []float64) [][2]float64 {
	b := make([][2]float64, len(c))
	switch len(c) {
	case 0:
		return b
	case 1:
		b[0] = [2]float64{c[0] - 0.5, c[0] + 0.5}
		return b
	}
	for i := range c {
		var lo, hi float64
		if i == 0 {
			lo = c[0] - (c[1]-c[0])/2
		} else {
			lo = (c[i-1] + c[i]) / 2
		}
		if i == len(c)-1 {
			hi = c[i] + (c[i]-c[i-1])/2
		} else {
			hi = (c[i] + c[i+1]) / 2
		}
		b[i] = [2]float64{lo, hi}
	}
	return b
}

// latBounds guesses latitude bounds clipped to the poles.
func latBounds(lat []float64) [][2]float64 {
	b := GuessBounds(lat)
	for i := range b {
		for k := range b[i] {
			b[i][k] = math.Max(-90, math.Min(90, b[i][k]))
		}
	}
	return b
}

// CellAreas returns the area in m² of every (lat, lon) cell, indexed
// [lat][lon], from guessed bounds.
func CellAreas(lat, lon []float64) [][]float64 {
	lb, ob := latBounds(lat), GuessBounds(lon)
	out := make([][]float64, len(lat))
	for i, b := range lb {
		out[i] = make([]float64, len(lon))
		band := math.Abs(math.Sin(rad(b[1])) - math.Sin(rad(b[0])))
		for j, c := range ob {
			out[i][j] = EarthRadius * EarthRadius * band * math.Abs(rad(c[1]-c[0]))
		}
	}
	return out
}

// AllClose reports whether two coordinate axes match within tol.
func AllClose(a, b []float64, tol float64) bool {
	return len(a) == len(b) && floats.EqualApprox(a, b, tol)
}

// InterpLat linearly interpolates the field onto the target latitudes.
// Targets outside the source range become NaN.
func (f *Field) InterpLat(target []float64) (*Field, error) {
	ax, err := f.Axis(Lat)
	if err != nil {
		return nil, err
	}
	src := f.Coords[ax]
	if len(src) == 0 {
		return nil, fmt.Errorf("field %s: %w: no latitudes", f.Name, ErrEmpty)
	}
	outer, n, inner := f.span(ax)
	out := f.meta()
	out.Coords[ax] = append([]float64(nil), target...)
	t := len(target)
	out.Data = make([]float64, outer*t*inner)

	for k, y := range target {
		j0, j1, w := bracket(src, y)
		for o := 0; o < outer; o++ {
			for i := 0; i < inner; i++ {
				dst := (o*t+k)*inner + i
				if j0 < 0 {
					out.Data[dst] = math.NaN()
					continue
				}
				a := f.Data[(o*n+j0)*inner+i]
				b := f.Data[(o*n+j1)*inner+i]
				out.Data[dst] = a + w*(b-a)
			}
		}
	}
	return out, nil
}

// bracket finds the neighbouring indices j0, j1 of xs around y and the
// interpolation weight of j1. xs may be ascending or descending; j0 is -1
// when y is outside the axis.
func bracket(xs []float64, y float64) (j0, j1 int, w float64) {
	for j := 0; j < len(xs); j++ {
		if xs[j] == y {
			return j, j, 0
		}
	}
	for j := 0; j+1 < len(xs); j++ {
		a, b := xs[j], xs[j+1]
		if (a < y && y < b) || (b < y && y < a) {
			return j, j + 1, (y - a) / (b - a)
		}
	}
	return -1, -1, 0
}
