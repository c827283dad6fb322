package ocean

import (
	"errors"
	"time"

	"OSR/internal/compute"
)

// Timings are the stage durations of the last completed frame in
// milliseconds. Device stages are zero when the queue does not profile.
type Timings struct {
	PhaseShiftMs float64 `json:"phase_shift_ms"`
	FFTMs        float64 `json:"fft_ms"`
	ExportMs     float64 `json:"export_ms"`
	MipmapMs     float64 `json:"mipmap_ms"`
}

// TotalMs sums every stage.
func (t Timings) TotalMs() float64 {
	return t.PhaseShiftMs + t.FFTMs + t.ExportMs + t.MipmapMs
}

func eventMs(ev compute.Event) (float64, error) {
	p, err := ev.Profile()
	if err != nil {
		return 0, err
	}
	return p.Milliseconds(), nil
}

func spanMs(first, last compute.Event) (float64, error) {
	d, err := compute.Span(first, last)
	if err != nil {
		return 0, err
	}
	return float64(d) / float64(time.Millisecond), nil
}

// collectTimings reads the device profile of each stage. A queue without
// profiling yields zeros; other profile errors are returned.
func collectTimings(phase, fft compute.Event, exp ExportEvents, mipmap time.Duration) (Timings, error) {
	t := Timings{MipmapMs: float64(mipmap) / float64(time.Millisecond)}
	var errs []error
	keep := func(v float64, err error, dst *float64) {
		if err == nil {
			*dst = v
			return
		}
		if !errors.Is(err, compute.ErrProfilingUnavailable) {
			errs = append(errs, err)
		}
	}
	v, err := eventMs(phase)
	keep(v, err, &t.PhaseShiftMs)
	v, err = eventMs(fft)
	keep(v, err, &t.FFTMs)
	v, err = spanMs(exp.Acquire, exp.Release)
	keep(v, err, &t.ExportMs)
	return t, errors.Join(errs...)
}
