package config

import (
	"flag"
	"strings"
)

// Flags holds CLI overrides. Zero values leave the loaded config untouched.
type Flags struct {
	Config   string
	Debug    bool
	QuadKeys stringList
	Input    string
	Output   string
	Format   string
	Workers  int
}

// RegisterFlags binds the config flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.Var(&f.QuadKeys, "quadkey", "Tile quadkey to build (repeatable)")
	fs.StringVar(&f.Input, "input", "", "GeoJSON feature collection")
	fs.StringVar(&f.Output, "output", "", "Output directory")
	fs.StringVar(&f.Format, "format", "", "Output format: obj or tmsh")
	fs.IntVar(&f.Workers, "workers", 0, "Tiles built in parallel (0 = one per CPU)")
	return f
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return f.Config
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if len(f.QuadKeys) > 0 {
		cfg.Tile.QuadKeys = append([]string(nil), f.QuadKeys...)
	}
	if f.Input != "" {
		cfg.Input.Features = f.Input
	}
	if f.Output != "" {
		cfg.Output.Dir = f.Output
	}
	if f.Format != "" {
		cfg.Output.Format = strings.ToLower(f.Format)
	}
	if f.Workers > 0 {
		cfg.Tile.Workers = f.Workers
	}
}

// stringList collects repeated string flags.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}
