// Package config loads the YAML run configuration. Each subcommand reads its
// own section; command-line flags override file values.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds every command's settings.
type Config struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	Pushgateway string `yaml:"pushgateway"`

	Seasonal      Seasonal      `yaml:"seasonal"`
	BoxProfile    BoxProfile    `yaml:"box_profile"`
	Profiles      Profiles      `yaml:"profiles"`
	Climatology   Climatology   `yaml:"climatology"`
	SeasonalZonal SeasonalZonal `yaml:"seasonal_zonal"`
	Dobson        Dobson        `yaml:"dobson"`
	Satellite     Satellite     `yaml:"satellite"`
	Export        Export        `yaml:"export"`
	Vertical      Vertical      `yaml:"vertical"`
}

// Seasonal configures the station seasonal-cycle grid.
type Seasonal struct {
	ObsFile     string    `yaml:"obs_file"`
	ModelFile   string    `yaml:"model_file"`
	StationsCSV string    `yaml:"stations_csv"`
	VarName     string    `yaml:"var_name"`
	Level       float64   `yaml:"level"`
	ModelUnits  string    `yaml:"model_units"`
	PlotUnits   string    `yaml:"plot_units"`
	Species     string    `yaml:"species"`
	Output      string    `yaml:"output_pdf"`
	Rows        int       `yaml:"rows"`
	Cols        int       `yaml:"cols"`
	YLim        []float64 `yaml:"ylim"`
	Concurrency int       `yaml:"concurrency"`
}

// Validate reports the first missing or invalid key.
func (s Seasonal) Validate() error {
	if err := required("seasonal", map[string]string{
		"obs_file":     s.ObsFile,
		"model_file":   s.ModelFile,
		"stations_csv": s.StationsCSV,
		"var_name":     s.VarName,
		"output_pdf":   s.Output,
	}); err != nil {
		return err
	}
	if len(s.YLim) != 0 && (len(s.YLim) != 2 || s.YLim[0] >= s.YLim[1]) {
		return errors.New("seasonal.ylim must be [min, max] with min < max")
	}
	if s.Rows <= 0 || s.Cols <= 0 {
		return errors.New("seasonal.rows and seasonal.cols must be positive")
	}
	return nil
}

// Box is one region of a box-profile comparison.
type Box struct {
	Name    string  `yaml:"name"`
	ObsPath string  `yaml:"obs_path"`
	Month   int     `yaml:"month"`
	Year    int     `yaml:"year"`
	LatMin  float64 `yaml:"lat_min"`
	LatMax  float64 `yaml:"lat_max"`
	LonMin  float64 `yaml:"lon_min"`
	LonMax  float64 `yaml:"lon_max"`
	// Levels caps the model levels drawn; zero draws all matched rows.
	Levels int `yaml:"hgt"`
}

// BoxProfile configures model quartiles in lat/lon boxes against
// aircraft-campaign profiles.
type BoxProfile struct {
	ModelFile string `yaml:"model_file"`
	VarName   string `yaml:"var_name"`
	ModelName string `yaml:"model_name"`
	ObsDir    string `yaml:"obs_dir"`
	Species   string `yaml:"species"`
	// ModelUnits and Units are the units of the model variable and of the
	// x axis.
	ModelUnits string  `yaml:"model_units"`
	Units      string  `yaml:"units"`
	XMin       float64 `yaml:"xmin"`
	XMax       float64 `yaml:"xmax"`
	Output     string  `yaml:"output"`
	Rows       int     `yaml:"rows"`
	Cols       int     `yaml:"cols"`
	Boxes      []Box   `yaml:"boxes"`
}

// Validate reports the first missing or invalid key.
func (b BoxProfile) Validate() error {
	if err := required("box_profile", map[string]string{
		"model_file": b.ModelFile,
		"var_name":   b.VarName,
		"obs_dir":    b.ObsDir,
		"species":    b.Species,
		"output":     b.Output,
	}); err != nil {
		return err
	}
	if len(b.Boxes) == 0 {
		return errors.New("box_profile.boxes is required")
	}
	for i, box := range b.Boxes {
		key := fmt.Sprintf("box_profile.boxes[%d]", i)
		if box.Name == "" || box.ObsPath == "" {
			return fmt.Errorf("%s: name and obs_path are required", key)
		}
		if box.Month < 1 || box.Month > 12 {
			return fmt.Errorf("%s.month %d out of range 1-12", key, box.Month)
		}
		if box.LatMin > box.LatMax {
			return fmt.Errorf("%s: lat_min %g > lat_max %g", key, box.LatMin, box.LatMax)
		}
	}
	return nil
}

// Profiles configures the matched statistics-file profile grid.
type Profiles struct {
	ModelDir    string `yaml:"model_dir"`
	ObsDir      string `yaml:"obs_dir"`
	ModelSuffix string `yaml:"model_suffix"`
	ObsSuffix   string `yaml:"obs_suffix"`
	ModelName   string `yaml:"model_name"`
	Species     string `yaml:"species_label"`
	Output      string `yaml:"output_pdf"`
	Rows        int    `yaml:"nrows"`
	Cols        int    `yaml:"ncols"`
}

// Validate reports the first missing key.
func (p Profiles) Validate() error {
	return required("profiles", map[string]string{
		"model_dir":  p.ModelDir,
		"obs_dir":    p.ObsDir,
		"output_pdf": p.Output,
	})
}

// Climatology configures the zonal monthly climatology comparison.
type Climatology struct {
	ModelFile  string  `yaml:"model_file"`
	ModelVar   string  `yaml:"model_var"`
	ObsFile    string  `yaml:"obs_file"`
	ObsVar     string  `yaml:"obs_var"`
	ModelTitle string  `yaml:"model_title"`
	DiffTitle  string  `yaml:"diff_title"`
	Units      string  `yaml:"units"`
	Levels     int     `yaml:"levels"`
	DiffLimit  float64 `yaml:"diff_limit"`
	DiffStep   float64 `yaml:"diff_step"`
	Output     string  `yaml:"output"`
}

// Validate reports the first missing or invalid key.
func (c Climatology) Validate() error {
	if err := required("climatology", map[string]string{
		"model_file": c.ModelFile,
		"model_var":  c.ModelVar,
		"obs_file":   c.ObsFile,
		"obs_var":    c.ObsVar,
		"output":     c.Output,
	}); err != nil {
		return err
	}
	if c.Levels < 2 {
		return fmt.Errorf("climatology.levels must be at least 2, have %d", c.Levels)
	}
	if c.DiffLimit < 0 || c.DiffStep < 0 {
		return errors.New("climatology.diff_limit and climatology.diff_step must not be negative")
	}
	return nil
}

// Source names one variable in one NetCDF file.
type Source struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
	// Var is a variable name or, when no variable has that name, a
	// long_name fragment.
	Var string `yaml:"var"`
}

func (s Source) validate(key string) error {
	if s.Name == "" || s.File == "" || s.Var == "" {
		return fmt.Errorf("%s: name, file and var are required", key)
	}
	return nil
}

func validateSources(key string, srcs []Source) error {
	if len(srcs) == 0 {
		return fmt.Errorf("%s is required", key)
	}
	for i, s := range srcs {
		if err := s.validate(fmt.Sprintf("%s[%d]", key, i)); err != nil {
			return err
		}
	}
	return nil
}

// SeasonalZonal configures the per-season zonal mean comparison.
type SeasonalZonal struct {
	Obs    Source   `yaml:"obs"`
	Models []Source `yaml:"models"`
	Units  string   `yaml:"units"`
	LatMin float64  `yaml:"lat_min"`
	LatMax float64  `yaml:"lat_max"`
	Output string   `yaml:"output"`
}

// Validate reports the first missing key.
func (s SeasonalZonal) Validate() error {
	if err := s.Obs.validate("seasonal_zonal.obs"); err != nil {
		return err
	}
	if err := validateSources("seasonal_zonal.models", s.Models); err != nil {
		return err
	}
	return required("seasonal_zonal", map[string]string{"output": s.Output})
}

// Dobson configures the ozone column conversion.
type Dobson struct {
	Input     string `yaml:"input_file"`
	Output    string `yaml:"output_file"`
	TropoOnly bool   `yaml:"tropo_only"`
	Format    string `yaml:"format"`
}

// Validate reports the first missing or unsupported key.
func (d Dobson) Validate() error {
	if err := required("dobson", map[string]string{
		"input_file":  d.Input,
		"output_file": d.Output,
	}); err != nil {
		return err
	}
	if d.Format != "DU" {
		return fmt.Errorf("dobson.format %q not supported, only DU", d.Format)
	}
	return nil
}

// Band is an inclusive latitude range in degrees.
type Band struct {
	LatMin float64 `yaml:"lat_min"`
	LatMax float64 `yaml:"lat_max"`
}

// Satellite configures latitude-band time series against a satellite
// product.
type Satellite struct {
	Obs Source `yaml:"obs"`
	// SigmaVar names the observation uncertainty variable in Obs.File.
	SigmaVar  string   `yaml:"sigma_var"`
	Models    []Source `yaml:"models"`
	Bands     []Band   `yaml:"bands"`
	Units     string   `yaml:"units"`
	YMin      float64  `yaml:"ymin"`
	YMax      float64  `yaml:"ymax"`
	OutputDir string   `yaml:"output_dir"`
}

// Validate reports the first missing or invalid key.
func (s Satellite) Validate() error {
	if err := s.Obs.validate("satellite.obs"); err != nil {
		return err
	}
	if err := validateSources("satellite.models", s.Models); err != nil {
		return err
	}
	if len(s.Bands) == 0 {
		return errors.New("satellite.bands is required")
	}
	for i, b := range s.Bands {
		if b.LatMin > b.LatMax {
			return fmt.Errorf("satellite.bands[%d]: lat_min %g > lat_max %g", i, b.LatMin, b.LatMax)
		}
	}
	return required("satellite", map[string]string{"output_dir": s.OutputDir})
}

// Export configures streaming a variable into VictoriaMetrics.
type Export struct {
	File          string  `yaml:"file"`
	VarName       string  `yaml:"var_name"`
	Level         float64 `yaml:"level"`
	VMInsertURL   string  `yaml:"vm_insert_url"`
	MetricPrefix  string  `yaml:"metric_prefix"`
	Concurrency   int     `yaml:"concurrency"`
	RecsPerInsert int     `yaml:"recs_per_insert"`
}

// Validate reports the first missing or invalid key.
func (e Export) Validate() error {
	if err := required("export", map[string]string{
		"file":          e.File,
		"var_name":      e.VarName,
		"vm_insert_url": e.VMInsertURL,
	}); err != nil {
		return err
	}
	if e.Concurrency <= 0 {
		return fmt.Errorf("export.concurrency must be positive, have %d", e.Concurrency)
	}
	if e.RecsPerInsert <= 0 {
		return fmt.Errorf("export.recs_per_insert must be positive, have %d", e.RecsPerInsert)
	}
	return nil
}

// Vertical configures the single domain-mean profile comparison.
type Vertical struct {
	ModelFile string `yaml:"model_file"`
	ObsFile   string `yaml:"obs_file"`
	Species   string `yaml:"species"`
	OutputDir string `yaml:"output_dir"`
}

// Validate reports the first missing key.
func (v Vertical) Validate() error {
	return required("vertical", map[string]string{
		"model_file": v.ModelFile,
		"obs_file":   v.ObsFile,
		"species":    v.Species,
	})
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Seasonal: Seasonal{
			VarName:     "co",
			ModelUnits:  "mol/mol",
			PlotUnits:   "ppbv",
			Species:     "CO",
			Output:      "outputs/co_station_seasonal.pdf",
			Rows:        6,
			Cols:        3,
			Concurrency: runtime.NumCPU(),
		},
		BoxProfile: BoxProfile{
			ModelName:  "Model",
			Species:    "CO",
			ModelUnits: "kg/kg",
			Units:      "ppbv",
			Output:    "outputs/emmons_box_profiles.png",
			Rows:      4,
			Cols:      3,
		},
		Profiles: Profiles{
			ModelSuffix: "_model.txt",
			ObsSuffix:   "_obs.txt",
			ModelName:   "Model",
			Species:     "H2O2 (pptv)",
			Output:      "outputs/emmons_vertical_profiles.pdf",
			Rows:        3,
			Cols:        3,
		},
		Climatology: Climatology{
			ModelTitle: "Model total ozone",
			DiffTitle:  "Model - Obs",
			Units:      "DU",
			Levels:     30,
			Output:     "outputs/ozone_climatology.png",
		},
		SeasonalZonal: SeasonalZonal{
			Units:  "DU",
			LatMin: -90,
			LatMax: 90,
			Output: "outputs/seasonal_zonal.pdf",
		},
		Dobson: Dobson{Format: "DU"},
		Satellite: Satellite{
			Units:     "DU",
			OutputDir: "outputs",
		},
		Export: Export{
			VMInsertURL:   "http://localhost:8428/write",
			MetricPrefix:  "ukca",
			Concurrency:   runtime.NumCPU(),
			RecsPerInsert: 500,
		},
		Vertical: Vertical{OutputDir: "outputs"},
	}
}

// Load reads the YAML file at path over the defaults, then applies the
// LOG_LEVEL, LOG_FORMAT and PUSHGATEWAY_URL environment variables. An empty
// path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		defer f.Close()
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("PUSHGATEWAY_URL"); v != "" {
		cfg.Pushgateway = v
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid LOG_LEVEL %q", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q", cfg.LogFormat)
	}
	return cfg, nil
}

// required returns an error naming the first empty key in sorted order.
func required(section string, values map[string]string) error {
	var missing []string
	for k, v := range values {
		if v == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return fmt.Errorf("%s.%s is required", section, missing[0])
}
