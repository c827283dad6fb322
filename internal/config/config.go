// Package config reads the optional YAML file whose values override the
// command line flags.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Grid struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

type Vec3 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

type Vec2 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type Ocean struct {
	Grid                   Grid    `yaml:"grid"`
	TilePhysical           Vec3    `yaml:"tile_physical"` // meters
	TileLogical            Vec3    `yaml:"tile_logical"`  // render units
	Amplitude              float64 `yaml:"amplitude"`
	WavelengthLowThreshold float64 `yaml:"wavelength_low_threshold"`
	Wind                   *Vec2   `yaml:"wind,omitempty"`
	Seed                   int64   `yaml:"seed"`
}

type Config struct {
	Backend   string  `yaml:"backend"` // "host" | "opencl"
	KernelDir string  `yaml:"kernel_dir"`
	LogLevel  string  `yaml:"log_level"`
	TimeScale float64 `yaml:"time_scale"`
	Workers   int     `yaml:"workers"`
	DiagAddr  string  `yaml:"diag_addr,omitempty"`

	Ocean Ocean `yaml:"ocean"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Validate rejects values that can never be right. Zero values mean "not
// set" and are left to the flags.
func (c *Config) Validate() error {
	switch c.Backend {
	case "", "host", "opencl":
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.TimeScale < 0 {
		return fmt.Errorf("time_scale %g is negative", c.TimeScale)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers %d is negative", c.Workers)
	}
	g := c.Ocean.Grid
	if g.X < 0 || g.Y < 0 || g.X%2 != 0 {
		return fmt.Errorf("ocean grid %dx%d: width must be even and sizes non-negative", g.X, g.Y)
	}
	if c.Ocean.Amplitude < 0 {
		return fmt.Errorf("ocean amplitude %g is negative", c.Ocean.Amplitude)
	}
	if c.Ocean.WavelengthLowThreshold < 0 {
		return fmt.Errorf("ocean wavelength_low_threshold %g is negative", c.Ocean.WavelengthLowThreshold)
	}
	return nil
}
