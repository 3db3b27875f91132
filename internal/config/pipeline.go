package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// PipelineConfig holds the parameters shared by the export tools. Keys match
// the tools' flag names with underscores in place of dashes, so one file can
// pin a whole publishing run while flags still override single values.
type PipelineConfig struct {
	// Hexagon aggregation
	Resolution *int     `json:"resolution,omitempty"`
	Threshold  *float64 `json:"threshold,omitempty"`
	MaxPixels  *int     `json:"max_pixels,omitempty"`
	Seed       *int64   `json:"seed,omitempty"`

	// Image and tile rendering
	Opacity *float64 `json:"opacity,omitempty"`
	Width   *int     `json:"width,omitempty"`
	MinZoom *int     `json:"min_zoom,omitempty"`
	MaxZoom *int     `json:"max_zoom,omitempty"`

	// Point sampling
	Step      *int     `json:"step,omitempty"`
	MaxPoints *int     `json:"max_points,omitempty"`
	MinValue  *float64 `json:"min_value,omitempty"`

	// Region statistics
	HaPerPoint *float64 `json:"ha_per_point,omitempty"`

	// Land classes
	GradeField *string `json:"grade_field,omitempty"`

	// Source CRS override (PROJ string)
	SrcProj *string `json:"src_proj,omitempty"`
}

// EmptyPipelineConfig returns a PipelineConfig with all fields set to nil.
func EmptyPipelineConfig() *PipelineConfig {
	return &PipelineConfig{}
}

// LoadPipelineConfig loads a PipelineConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Omitted fields
// keep their defaults through the Get* methods.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyPipelineConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configured values are in range.
func (c *PipelineConfig) Validate() error {
	if c.Resolution != nil && (*c.Resolution < 0 || *c.Resolution > 15) {
		return fmt.Errorf("resolution must be between 0 and 15, got %d", *c.Resolution)
	}
	if c.MaxPixels != nil && *c.MaxPixels < 0 {
		return fmt.Errorf("max_pixels must be non-negative, got %d", *c.MaxPixels)
	}
	if c.Opacity != nil && (*c.Opacity < 0 || *c.Opacity > 1) {
		return fmt.Errorf("opacity must be between 0 and 1, got %f", *c.Opacity)
	}
	if c.Width != nil && *c.Width <= 0 {
		return fmt.Errorf("width must be positive, got %d", *c.Width)
	}
	if c.MinZoom != nil && *c.MinZoom < 0 {
		return fmt.Errorf("min_zoom must be non-negative, got %d", *c.MinZoom)
	}
	if c.MaxZoom != nil && *c.MaxZoom > 24 {
		return fmt.Errorf("max_zoom must be at most 24, got %d", *c.MaxZoom)
	}
	if c.MinZoom != nil && c.MaxZoom != nil && *c.MinZoom > *c.MaxZoom {
		return fmt.Errorf("min_zoom (%d) exceeds max_zoom (%d)", *c.MinZoom, *c.MaxZoom)
	}
	if c.Step != nil && *c.Step < 1 {
		return fmt.Errorf("step must be at least 1, got %d", *c.Step)
	}
	if c.MaxPoints != nil && *c.MaxPoints < 1 {
		return fmt.Errorf("max_points must be at least 1, got %d", *c.MaxPoints)
	}
	if c.MinValue != nil && (*c.MinValue < 0 || *c.MinValue > 1) {
		return fmt.Errorf("min_value must be between 0 and 1, got %f", *c.MinValue)
	}
	if c.HaPerPoint != nil && *c.HaPerPoint <= 0 {
		return fmt.Errorf("ha_per_point must be positive, got %f", *c.HaPerPoint)
	}
	return nil
}

// GetResolution returns the H3 resolution or the default.
func (c *PipelineConfig) GetResolution() int {
	if c.Resolution == nil {
		return 8 // ~1.2km edge
	}
	return *c.Resolution
}

// GetMaxPixels returns the hexagon pixel cap or the default. Zero disables the cap.
func (c *PipelineConfig) GetMaxPixels() int {
	if c.MaxPixels == nil {
		return 1_000_000
	}
	return *c.MaxPixels
}

// GetSeed returns the sampling seed or the default.
func (c *PipelineConfig) GetSeed() int64 {
	if c.Seed == nil {
		return 42
	}
	return *c.Seed
}

// GetOpacity returns the overlay alpha or the default.
func (c *PipelineConfig) GetOpacity() float64 {
	if c.Opacity == nil {
		return 0.85
	}
	return *c.Opacity
}

// GetWidth returns the overlay PNG width or the default.
func (c *PipelineConfig) GetWidth() int {
	if c.Width == nil {
		return 1200
	}
	return *c.Width
}

// GetMinZoom returns the lowest tile zoom or the default.
func (c *PipelineConfig) GetMinZoom() int {
	if c.MinZoom == nil {
		return 0
	}
	return *c.MinZoom
}

// GetMaxZoom returns the highest tile zoom or the default.
func (c *PipelineConfig) GetMaxZoom() int {
	if c.MaxZoom == nil {
		return 12
	}
	return *c.MaxZoom
}

// GetStep returns the point sampling stride or the default.
func (c *PipelineConfig) GetStep() int {
	if c.Step == nil {
		return 1
	}
	return *c.Step
}

// GetMaxPoints returns the point cap or the default.
func (c *PipelineConfig) GetMaxPoints() int {
	if c.MaxPoints == nil {
		return 500_000
	}
	return *c.MaxPoints
}

// GetHaPerPoint returns the hectares represented by one point or the default.
func (c *PipelineConfig) GetHaPerPoint() float64 {
	if c.HaPerPoint == nil {
		return 1.0
	}
	return *c.HaPerPoint
}

// GetGradeField returns the shapefile grade attribute or the default.
func (c *PipelineConfig) GetGradeField() string {
	if c.GradeField == nil || *c.GradeField == "" {
		return "alc_grade"
	}
	return *c.GradeField
}

// flagValues returns the set fields keyed by flag name.
func (c *PipelineConfig) flagValues() map[string]string {
	out := make(map[string]string)
	putInt := func(name string, v *int) {
		if v != nil {
			out[name] = strconv.Itoa(*v)
		}
	}
	putFloat := func(name string, v *float64) {
		if v != nil {
			out[name] = strconv.FormatFloat(*v, 'g', -1, 64)
		}
	}
	putString := func(name string, v *string) {
		if v != nil {
			out[name] = *v
		}
	}

	putInt("resolution", c.Resolution)
	putFloat("threshold", c.Threshold)
	putInt("max-pixels", c.MaxPixels)
	if c.Seed != nil {
		out["seed"] = strconv.FormatInt(*c.Seed, 10)
	}
	putFloat("opacity", c.Opacity)
	putInt("width", c.Width)
	putInt("min-zoom", c.MinZoom)
	putInt("max-zoom", c.MaxZoom)
	putInt("step", c.Step)
	putInt("max-points", c.MaxPoints)
	putFloat("min-value", c.MinValue)
	putFloat("ha-per-point", c.HaPerPoint)
	putString("grade-field", c.GradeField)
	putString("src-proj", c.SrcProj)
	return out
}

// ApplyToFlags copies config values onto flags the user did not set on the
// command line. Flags the tool does not define are ignored. Call it after
// fs.Parse.
func ApplyToFlags(fs *flag.FlagSet, cfg *PipelineConfig) error {
	if cfg == nil {
		return nil
	}
	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	for name, value := range cfg.flagValues() {
		if explicit[name] || fs.Lookup(name) == nil {
			continue
		}
		if err := fs.Set(name, value); err != nil {
			return fmt.Errorf("config value for -%s: %w", name, err)
		}
	}
	return nil
}
