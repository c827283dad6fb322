package main

import (
	"errors"
	"io/fs"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"OSR/internal/config"
	"OSR/internal/ocean"
)

// settings are the effective run parameters after the config file has been
// applied over the flags.
type settings struct {
	backend        string
	kernelDir      string
	logLevel       zerolog.Level
	timeScale      float64
	workers        int
	diagAddr       string
	headlessFrames int
	ocean          ocean.Params
}

// flagSettings collects the command line values.
func flagSettings() settings {
	s := settings{
		backend:        *backendFlag,
		kernelDir:      *kernelDirFlag,
		logLevel:       zerolog.InfoLevel,
		timeScale:      *timeScaleFlag,
		workers:        *workersFlag,
		diagAddr:       *diagAddrFlag,
		headlessFrames: *headlessFramesFlag,
		ocean:          ocean.DefaultParams(),
	}
	if lvl, err := zerolog.ParseLevel(*logLevelFlag); err == nil {
		s.logLevel = lvl
	} else {
		log.Warn().Str("level", *logLevelFlag).Msg("unknown log level; using info")
	}
	if *gridFlag > 0 {
		s.ocean.Grid = ocean.Grid{X: *gridFlag, Y: *gridFlag}
	}
	if *seedFlag != 0 {
		s.ocean.Seed = *seedFlag
	}
	return s
}

// loadSettings reads path, if present, and applies it over the flags. A
// missing file is not an error.
func loadSettings(path string) (settings, error) {
	s := flagSettings()
	if path == "" {
		return s, nil
	}
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug().Str("path", path).Msg("no config file; using flags")
		return s, nil
	}
	if err != nil {
		return s, err
	}
	s.apply(cfg)
	return s, nil
}

func (s *settings) apply(cfg *config.Config) {
	if cfg.Backend != "" {
		s.backend = cfg.Backend
	}
	if cfg.KernelDir != "" {
		s.kernelDir = cfg.KernelDir
	}
	if cfg.LogLevel != "" {
		if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
			s.logLevel = lvl
		}
	}
	s.timeScale = firstNonZeroFloat(cfg.TimeScale, s.timeScale)
	if cfg.Workers > 0 {
		s.workers = cfg.Workers
	}
	if cfg.DiagAddr != "" {
		s.diagAddr = cfg.DiagAddr
	}

	o := cfg.Ocean
	if o.Grid.X > 0 && o.Grid.Y > 0 {
		s.ocean.Grid = ocean.Grid{X: o.Grid.X, Y: o.Grid.Y}
	}
	if o.TilePhysical != (config.Vec3{}) {
		s.ocean.TilePhysical = r3.Vec{X: o.TilePhysical.X, Y: o.TilePhysical.Y, Z: o.TilePhysical.Z}
	}
	if o.TileLogical != (config.Vec3{}) {
		s.ocean.TileLogical = r3.Vec{X: o.TileLogical.X, Y: o.TileLogical.Y, Z: o.TileLogical.Z}
	}
	s.ocean.Amplitude = firstNonZeroFloat(o.Amplitude, s.ocean.Amplitude)
	s.ocean.WavelengthLowThreshold = firstNonZeroFloat(o.WavelengthLowThreshold, s.ocean.WavelengthLowThreshold)
	// A present wind entry applies even when it is zero.
	if o.Wind != nil {
		s.ocean.SetWindVector(r2.Vec{X: o.Wind.X, Y: o.Wind.Y})
	}
	if o.Seed != 0 {
		s.ocean.Seed = o.Seed
	}
}

func firstNonZeroFloat(v, fallback float64) float64 {
	if v != 0 {
		return v
	}
	return fallback
}
