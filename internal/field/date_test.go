package field

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTimes(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		units    string
		calendar string
		want     []Date
	}{
		{
			name:   "gregorian days",
			values: []float64{0, 31, 59.5},
			units:  "days since 2005-01-01 00:00:00",
			want:   []Date{{2005, 1, 1, 0}, {2005, 2, 1, 0}, {2005, 3, 1, 43200}},
		},
		{
			name:   "hours since 1900 like ERA5",
			values: []float64{24 * 365},
			units:  "hours since 1900-01-01 00:00:00.0",
			want:   []Date{{1901, 1, 1, 0}},
		},
		{
			name:     "360 day calendar has 30 February",
			values:   []float64{59, 360 + 15},
			units:    "days since 1850-01-01",
			calendar: "360_day",
			want:     []Date{{1850, 2, 30, 0}, {1851, 1, 16, 0}},
		},
		{
			name:     "noleap skips 29 February",
			values:   []float64{59},
			units:    "days since 2004-01-01",
			calendar: "noleap",
			want:     []Date{{2004, 3, 1, 0}},
		},
		{
			name:   "months since",
			values: []float64{0, 13},
			units:  "months since 2004-11-01",
			want:   []Date{{2004, 11, 1, 0}, {2005, 12, 1, 0}},
		},
		{
			name:   "ISO reference",
			values: []float64{86400},
			units:  "seconds since 1970-01-01T00:00:00Z",
			want:   []Date{{1970, 1, 2, 0}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeTimes(tt.values, tt.units, tt.calendar)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeTimes_SubDaily(t *testing.T) {
	got, err := DecodeTimes([]float64{0, 6, 12, 18, 24}, "hours since 2000-01-01 00:00:00", "standard")
	require.NoError(t, err)
	want := []Date{{2000, 1, 1, 0}, {2000, 1, 1, 21600}, {2000, 1, 1, 43200}, {2000, 1, 1, 64800}, {2000, 1, 2, 0}}
	assert.Equal(t, want, got)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].Before(got[i]))
		assert.Equal(t, 6*time.Hour, got[i].Time().Sub(got[i-1].Time()))
	}

	got, err = DecodeTimes([]float64{0.25}, "days since 1850-01-01 06:00", "360_day")
	require.NoError(t, err)
	assert.Equal(t, []Date{{1850, 1, 1, 43200}}, got)
}

func TestDecodeTimes_Errors(t *testing.T) {
	_, err := DecodeTimes([]float64{1}, "days", "")
	assert.Error(t, err)
	_, err = DecodeTimes([]float64{1}, "fortnights since 2000-01-01", "")
	assert.Error(t, err)
	_, err = DecodeTimes([]float64{1}, "days since 2000-01-01", "julian_ish")
	assert.Error(t, err)
}

func TestDateSeason(t *testing.T) {
	assert.Equal(t, "DJF", Date{Month: 12}.Season())
	assert.Equal(t, "MAM", Date{Month: 4}.Season())
	assert.Equal(t, "JJA", Date{Month: 8}.Season())
	assert.Equal(t, "SON", Date{Month: 11}.Season())
	assert.True(t, Date{2000, 2, 30, 0}.Before(Date{2000, 3, 1, 0}))
	assert.True(t, Date{2000, 3, 1, 0}.Before(Date{2000, 3, 1, 21600}))
	assert.Equal(t, "2000-02-30", Date{2000, 2, 30, 0}.String())
	assert.Equal(t, "2000-03-01 06:30:00", Date{2000, 3, 1, 23400}.String())
}
