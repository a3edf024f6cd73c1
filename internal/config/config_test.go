package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.Pushgateway)
	assert.Equal(t, 6, cfg.Seasonal.Rows)
	assert.Equal(t, 3, cfg.Seasonal.Cols)
	assert.Equal(t, "mol/mol", cfg.Seasonal.ModelUnits)
	assert.Equal(t, "ppbv", cfg.Seasonal.PlotUnits)
	assert.Equal(t, "_model.txt", cfg.Profiles.ModelSuffix)
	assert.Equal(t, "_obs.txt", cfg.Profiles.ObsSuffix)
	assert.Equal(t, 30, cfg.Climatology.Levels)
	assert.Equal(t, "DU", cfg.Dobson.Format)
	assert.Equal(t, "http://localhost:8428/write", cfg.Export.VMInsertURL)
	assert.Equal(t, 500, cfg.Export.RecsPerInsert)
	assert.Positive(t, cfg.Export.Concurrency)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
log_format: json
seasonal:
  obs_file: data/obs.nc
  model_file: data/model.nc
  stations_csv: data/stations.csv
  var_name: co
  level: 850
  plot_units: pptv
  output_pdf: out/co.pdf
  ylim: [0, 250]
satellite:
  obs:
    name: OMI
    file: data/omi.nc
    var: tropo_o3
  models:
    - {name: UKESM-1.1, file: data/a.nc, var: "Troposphere-only"}
    - {name: UKESM-1.3, file: data/b.nc, var: "Troposphere-only"}
  bands:
    - {lat_min: -30, lat_max: 30}
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.LogFormat)
	s := cfg.Seasonal
	assert.Equal(t, "data/obs.nc", s.ObsFile)
	assert.Equal(t, 850.0, s.Level)
	assert.Equal(t, "pptv", s.PlotUnits)
	assert.Equal(t, "mol/mol", s.ModelUnits, "unset keys keep their defaults")
	assert.Equal(t, 6, s.Rows)
	assert.Equal(t, []float64{0, 250}, s.YLim)
	require.NoError(t, s.Validate())

	sat := cfg.Satellite
	assert.Equal(t, "OMI", sat.Obs.Name)
	require.Len(t, sat.Models, 2)
	assert.Equal(t, "UKESM-1.3", sat.Models[1].Name)
	assert.Equal(t, []Band{{LatMin: -30, LatMax: 30}}, sat.Bands)
	assert.Equal(t, "outputs", sat.OutputDir)
	require.NoError(t, sat.Validate())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "log_level: warn\npushgateway: http://file:9091\n")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PUSHGATEWAY_URL", "http://env:9091")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "http://env:9091", cfg.Pushgateway)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	_, err := Load(writeConfig(t, "log_format: xml\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}

func TestLoad_UnknownKey(t *testing.T) {
	_, err := Load(writeConfig(t, "seasonal:\n  modle_file: x.nc\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "modle_file")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	d := Default()
	tests := []struct {
		name      string
		validate  func() error
		errSubstr string
	}{
		{"seasonal missing files", d.Seasonal.Validate, "seasonal.model_file is required"},
		{"seasonal bad ylim", func() error {
			s := d.Seasonal
			s.ObsFile, s.ModelFile, s.StationsCSV = "o.nc", "m.nc", "s.csv"
			s.YLim = []float64{10, 5}
			return s.Validate()
		}, "seasonal.ylim"},
		{"box profile without boxes", func() error {
			b := d.BoxProfile
			b.ModelFile, b.VarName, b.ObsDir = "m.nc", "co", "obs"
			return b.Validate()
		}, "box_profile.boxes is required"},
		{"box profile bad month", func() error {
			b := d.BoxProfile
			b.ModelFile, b.VarName, b.ObsDir = "m.nc", "co", "obs"
			b.Boxes = []Box{{Name: "INTEX-NA EC", ObsPath: "a.stat", Month: 13}}
			return b.Validate()
		}, "box_profile.boxes[0].month"},
		{"profiles missing dirs", d.Profiles.Validate, "profiles.model_dir is required"},
		{"climatology too few levels", func() error {
			c := d.Climatology
			c.ModelFile, c.ModelVar, c.ObsFile, c.ObsVar = "m.nc", "toz", "o.nc", "TCO"
			c.Levels = 1
			return c.Validate()
		}, "climatology.levels"},
		{"seasonal zonal incomplete obs", d.SeasonalZonal.Validate, "seasonal_zonal.obs"},
		{"dobson other format", func() error {
			return Dobson{Input: "in.nc", Output: "out.nc", Format: "kg/m2"}.Validate()
		}, "dobson.format"},
		{"satellite inverted band", func() error {
			s := d.Satellite
			s.Obs = Source{Name: "OMI", File: "o.nc", Var: "o3"}
			s.Models = []Source{{Name: "A", File: "a.nc", Var: "o3"}}
			s.Bands = []Band{{LatMin: 30, LatMax: -30}}
			return s.Validate()
		}, "satellite.bands[0]"},
		{"export missing file", d.Export.Validate, "export.file is required"},
		{"vertical missing species", func() error {
			return Vertical{ModelFile: "m.nc", ObsFile: "o.nc"}.Validate()
		}, "vertical.species is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}
