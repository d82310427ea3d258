// Package config handles terramesh configuration loading and management.
package config

// Config holds all mesh generation settings.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Tile      TileConfig      `yaml:"tile"`
	Input     InputConfig     `yaml:"input"`
	Elevation ElevationConfig `yaml:"elevation"`
	Output    OutputConfig    `yaml:"output"`
	Styles    []StyleConfig   `yaml:"styles"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// TileConfig selects the tiles to build.
type TileConfig struct {
	QuadKeys []string `yaml:"quadkeys"`
	Workers  int      `yaml:"workers"` // 0 = one per CPU
}

// InputConfig holds feature source paths.
type InputConfig struct {
	Features string `yaml:"features"` // GeoJSON feature collection
}

// ElevationConfig selects the elevation provider.
type ElevationConfig struct {
	Provider string  `yaml:"provider"` // flat | grid
	Height   float64 `yaml:"height"`   // flat provider height
	GridFile string  `yaml:"grid_file"`
}

// OutputConfig holds mesh output settings.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // obj | tmsh
}

// StyleConfig maps features to a builder and its options. A feature matches
// when every Match entry equals its property; the value "*" only requires
// the property to exist.
type StyleConfig struct {
	Name       string            `yaml:"name"`
	Match      map[string]string `yaml:"match"`
	Builder    string            `yaml:"builder"` // area | building | barrier
	Geometry   GeometryConfig    `yaml:"geometry"`
	Appearance AppearanceConfig  `yaml:"appearance"`
}

// GeometryConfig mirrors the mesh builder geometry options.
type GeometryConfig struct {
	Area         float64  `yaml:"area"`
	HeightOffset float64  `yaml:"height_offset"`
	Elevation    *float64 `yaml:"elevation"` // nil = elevation provider
	EleNoiseFreq float64  `yaml:"ele_noise_freq"`
	SegmentSplit int      `yaml:"segment_split"`
	FlipSide     bool     `yaml:"flip_side"`
	HasBackSide  bool     `yaml:"has_back_side"`
}

// AppearanceConfig mirrors the mesh builder appearance options.
type AppearanceConfig struct {
	Gradient       string              `yaml:"gradient"`
	ColorNoiseFreq float64             `yaml:"color_noise_freq"`
	TextureScale   float64             `yaml:"texture_scale"`
	TextureRegion  TextureRegionConfig `yaml:"texture_region"`
}

// TextureRegionConfig is an atlas rectangle in pixels.
type TextureRegionConfig struct {
	AtlasWidth  int `yaml:"atlas_width"`
	AtlasHeight int `yaml:"atlas_height"`
	X           int `yaml:"x"`
	Y           int `yaml:"y"`
	Width       int `yaml:"width"`
	Height      int `yaml:"height"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Tile: TileConfig{
			Workers: 0,
		},
		Elevation: ElevationConfig{
			Provider: "flat",
			Height:   0,
		},
		Output: OutputConfig{
			Dir:    "out",
			Format: "obj",
		},
		Styles: DefaultStyles(),
	}
}

// DefaultStyles returns the built-in style profiles.
func DefaultStyles() []StyleConfig {
	return []StyleConfig{
		{
			Name:    "water",
			Match:   map[string]string{"natural": "water"},
			Builder: "area",
			Geometry: GeometryConfig{
				HeightOffset: -0.5,
			},
			Appearance: AppearanceConfig{
				Gradient:       "gradient(#1d4e89, #2e86ab)",
				ColorNoiseFreq: 0.05,
			},
		},
		{
			Name:    "grass",
			Match:   map[string]string{"landuse": "grass"},
			Builder: "area",
			Appearance: AppearanceConfig{
				Gradient:       "gradient(#3a7d44, #6a994e 60%, #a7c957)",
				ColorNoiseFreq: 0.1,
			},
		},
		{
			Name:    "building",
			Match:   map[string]string{"building": "*"},
			Builder: "building",
			Geometry: GeometryConfig{
				HeightOffset: 10,
			},
			Appearance: AppearanceConfig{
				Gradient: "gradient(#8d8d8d, #b5b5b5)",
			},
		},
		{
			Name:    "barrier",
			Match:   map[string]string{"barrier": "*"},
			Builder: "barrier",
			Geometry: GeometryConfig{
				HeightOffset: 2,
			},
			Appearance: AppearanceConfig{
				Gradient: "#6b4f3a",
			},
		},
	}
}
