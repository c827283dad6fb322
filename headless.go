package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"OSR/internal/diag"
	"OSR/internal/ocean"
)

// stageStats accumulates per-frame stage timings.
type stageStats struct {
	phase, fft, export, mipmap, total []float64
}

func (s *stageStats) add(t ocean.Timings) {
	s.phase = append(s.phase, t.PhaseShiftMs)
	s.fft = append(s.fft, t.FFTMs)
	s.export = append(s.export, t.ExportMs)
	s.mipmap = append(s.mipmap, t.MipmapMs)
	s.total = append(s.total, t.TotalMs())
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Sum(v) / float64(len(v))
}

// Mean returns the average of every stage.
func (s *stageStats) Mean() ocean.Timings {
	return ocean.Timings{
		PhaseShiftMs: mean(s.phase),
		FFTMs:        mean(s.fft),
		ExportMs:     mean(s.export),
		MipmapMs:     mean(s.mipmap),
	}
}

// MaxTotalMs is the slowest frame.
func (s *stageStats) MaxTotalMs() float64 {
	if len(s.total) == 0 {
		return 0
	}
	return floats.Max(s.total)
}

func (s *stageStats) log(l zerolog.Logger, msg string) {
	m := s.Mean()
	l.Info().
		Int("frames", len(s.total)).
		Float64("phase_ms", m.PhaseShiftMs).
		Float64("fft_ms", m.FFTMs).
		Float64("export_ms", m.ExportMs).
		Float64("mipmap_ms", m.MipmapMs).
		Float64("total_ms", m.TotalMs()).
		Float64("max_total_ms", s.MaxTotalMs()).
		Msg(msg)
}

// runHeadless generates frames at a fixed 60 Hz simulated rate and returns
// the collected timings.
func runHeadless(geom *ocean.Geometry, frames int, timeScale float64, hub *diag.Hub, l zerolog.Logger) (*stageStats, error) {
	stats := &stageStats{}
	window := &stageStats{}
	for i := 0; i < frames; i++ {
		t := float64(i) * timeScale / defaultTPS
		if err := geom.Generate(t, nil); err != nil {
			return stats, fmt.Errorf("frame %d: %w", i, err)
		}
		timings := geom.Timings()
		stats.add(timings)
		window.add(timings)
		if hub != nil {
			hub.Publish(geom.Frames(), t, timings)
		}
		if (i+1)%headlessReport == 0 {
			window.log(l, "frame timings")
			window = &stageStats{}
		}
	}
	stats.log(l, "headless run complete")
	return stats, nil
}
