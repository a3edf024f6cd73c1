package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert_Identity(t *testing.T) {
	for _, u := range []string{"mol/mol", "ppbv", "DU", "made-up"} {
		for _, v := range []float64{0, 1.5, -3e-9, 1e12} {
			got, err := Convert(v, u, u)
			require.NoError(t, err)
			assert.Equal(t, v, got)
		}
	}
}

func TestConvert_MolPerMolToPPBV(t *testing.T) {
	v := 1.2e-7
	got, err := Convert(v, "mol/mol", "ppbv")
	require.NoError(t, err)
	assert.Equal(t, v*1e9, got)
	assert.InDelta(t, v, PPBVToMolPerMol(got), 1e-22)
}

func TestConvert_PPTV(t *testing.T) {
	got, err := Convert(2e-12, "mol/mol", "pptv")
	require.NoError(t, err)
	assert.InDelta(t, 2.0, got, 1e-12)

	back, err := Convert(got, "pptv", "mol/mol")
	require.NoError(t, err)
	assert.InDelta(t, 2e-12, back, 1e-24)
}

func TestConvert_Missing(t *testing.T) {
	_, err := Convert(1, "ppbv", "ppmv")
	require.ErrorIs(t, err, ErrNoConversion)
	assert.Contains(t, err.Error(), "ppbv")
	assert.Contains(t, err.Error(), "ppmv")
}

func TestConvertSlice(t *testing.T) {
	in := []float64{1e-9, 2e-9}
	out, err := ConvertSlice(in, "mol/mol", "ppbv")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 2}, out, 1e-12)
	assert.Equal(t, 1e-9, in[0], "input must not be modified")

	same, err := ConvertSlice(in, "ppbv", "ppbv")
	require.NoError(t, err)
	assert.Equal(t, in, same)

	_, err = ConvertSlice(in, "ppmv", "ppbv")
	assert.ErrorIs(t, err, ErrNoConversion)
}

func TestFactor(t *testing.T) {
	f, err := Factor("CO", "kg/kg", "ppbv")
	require.NoError(t, err)
	assert.InDelta(t, MolarMassAir/28.01*1e9, f, 1e-3)

	f, err = Factor("co", "mol/mol", "ppbv")
	require.NoError(t, err)
	assert.Equal(t, 1e9, f)

	_, err = Factor("XYZ", "kg/kg", "ppbv")
	assert.Error(t, err)
}
