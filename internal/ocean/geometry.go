// Package ocean generates an animated ocean height field on a compute
// device. Each frame evolves a Phillips spectrum in time, transforms it back
// to the spatial domain and exports displacement and height gradient
// textures for the renderer.
package ocean

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/spatial/r2"

	"OSR/internal/compute"
	"OSR/internal/gfx"
)

// State is the stage of the frame in flight.
type State int32

const (
	Idle State = iota
	SpectrumQueued
	TransformQueued
	ExportQueued
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case SpectrumQueued:
		return "spectrum queued"
	case TransformQueued:
		return "transform queued"
	case ExportQueued:
		return "export queued"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Option configures a Geometry.
type Option func(*Geometry)

// WithKernelDir sets the directory holding the program sources.
func WithKernelDir(dir string) Option {
	return func(g *Geometry) { g.kernelDir = dir }
}

// WithLogger sets the logger for construction and per-frame diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Geometry) { g.log = l }
}

// Geometry chains spectrum, transform and export for every frame and owns
// the two output textures.
type Geometry struct {
	dev       compute.Device
	queue     compute.Queue
	graphics  *gfx.Context
	kernelDir string
	log       zerolog.Logger

	spectrum *Spectrum
	fft      *InverseFFT
	fftBuf   compute.Buffer
	disp     *SharedTexture
	grad     *SharedTexture
	export   *ExportKernel

	// frame serializes Generate against spectrum rebuilds.
	frame  sync.Mutex
	state  atomic.Int32
	frames atomic.Uint64

	mu      sync.Mutex
	timings Timings
}

// NewGeometry builds every pipeline stage on dev. Missing program files are
// reported before any device object is created.
func NewGeometry(dev compute.Device, graphics *gfx.Context, params Params, opts ...Option) (*Geometry, error) {
	g := &Geometry{
		dev:       dev,
		queue:     dev.Queue(),
		graphics:  graphics,
		kernelDir: DefaultKernelDir,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	for _, name := range []string{phaseShiftProgram, exportProgram} {
		if _, _, err := loadProgramSource(g.kernelDir, name); err != nil {
			return nil, err
		}
	}

	var err error
	if g.spectrum, err = NewSpectrum(dev, params, g.kernelDir, g.log); err != nil {
		return nil, fmt.Errorf("wave spectrum: %w", err)
	}
	if g.fft, err = NewInverseFFT(dev, g.queue, params.Grid, FFTBatches); err != nil {
		g.Close()
		return nil, fmt.Errorf("inverse fft: %w", err)
	}
	if g.fftBuf, err = dev.NewBuffer(g.fft.BufferLen()); err != nil {
		g.Close()
		return nil, fmt.Errorf("allocating fft buffer: %w", err)
	}
	if g.disp, err = NewSharedTexture(dev, graphics, params.Grid.X, params.Grid.Y, gfx.FormatRGBA8); err != nil {
		g.Close()
		return nil, fmt.Errorf("displacement texture: %w", err)
	}
	if g.grad, err = NewSharedTexture(dev, graphics, params.Grid.X, params.Grid.Y, gfx.FormatRG16F); err != nil {
		g.Close()
		return nil, fmt.Errorf("height gradient texture: %w", err)
	}
	if g.export, err = NewExportKernel(dev, g.kernelDir, g.fftBuf, params.Grid, params.DisplacementScale(), g.disp, g.grad); err != nil {
		g.Close()
		return nil, fmt.Errorf("export kernel: %w", err)
	}
	g.log.Info().
		Str("device", dev.Name()).
		Stringer("grid", params.Grid).
		Int("fft_floats", g.fft.BufferLen()).
		Msg("surface geometry ready")
	return g, nil
}

func (g *Geometry) setState(s State) { g.state.Store(int32(s)) }

// State reports the stage of the frame in flight. After a failed Generate it
// keeps the stage that failed.
func (g *Geometry) State() State { return State(g.state.Load()) }

// Generate produces the textures for time t in seconds. The stages are
// chained on the device through their events; the host blocks once, on the
// release of the textures, and then rebuilds their mip chains.
func (g *Geometry) Generate(t float64, wait []compute.Event) error {
	g.frame.Lock()
	defer g.frame.Unlock()

	g.setState(SpectrumQueued)
	phase, err := g.spectrum.EnqueueGenerate(g.queue, float32(t), g.fftBuf, wait)
	if err != nil {
		return err
	}
	defer phase.Release()

	g.setState(TransformQueued)
	fft, err := g.fft.EnqueueTransform(g.queue, g.fftBuf, []compute.Event{phase})
	if err != nil {
		return err
	}
	defer fft.Release()

	g.setState(ExportQueued)
	exp, err := g.export.Enqueue(g.queue, []compute.Event{fft})
	defer exp.release()
	if err != nil {
		// Keep the textures consistent before reporting.
		if exp.Release != nil {
			_ = exp.Release.Wait()
		}
		return err
	}
	if err := exp.Release.Wait(); err != nil {
		return fmt.Errorf("frame at t=%.4f: %w", t, err)
	}

	start := time.Now()
	if err := g.disp.GenerateMipmap(); err != nil {
		return err
	}
	if err := g.grad.GenerateMipmap(); err != nil {
		return err
	}
	mipmap := time.Since(start)
	g.setState(Complete)

	timings, terr := collectTimings(phase, fft, exp, mipmap)
	if terr != nil {
		g.log.Warn().Err(terr).Msg("reading stage timings")
	}
	g.mu.Lock()
	g.timings = timings
	g.mu.Unlock()

	n := g.frames.Add(1)
	g.log.Debug().
		Uint64("frame", n).
		Float64("t", t).
		Float64("phase_ms", timings.PhaseShiftMs).
		Float64("fft_ms", timings.FFTMs).
		Float64("export_ms", timings.ExportMs).
		Float64("mipmap_ms", timings.MipmapMs).
		Msg("frame generated")
	g.setState(Idle)
	return nil
}

// Timings returns the stage durations of the last completed frame.
func (g *Geometry) Timings() Timings {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.timings
}

// Frames is the number of frames generated so far.
func (g *Geometry) Frames() uint64 { return g.frames.Load() }

func (g *Geometry) Params() Params {
	g.frame.Lock()
	defer g.frame.Unlock()
	return g.spectrum.Params()
}

// SetWindVector changes the wind and rebuilds the initial spectrum.
func (g *Geometry) SetWindVector(v r2.Vec) error {
	g.frame.Lock()
	defer g.frame.Unlock()
	p := g.spectrum.Params()
	p.SetWindVector(v)
	return g.spectrum.Rebuild(g.queue, p)
}

// SetAmplitude changes the spectrum amplitude and rebuilds it.
func (g *Geometry) SetAmplitude(a float64) error {
	g.frame.Lock()
	defer g.frame.Unlock()
	p := g.spectrum.Params()
	p.Amplitude = a
	return g.spectrum.Rebuild(g.queue, p)
}

func (g *Geometry) DisplacementTexture() *gfx.Texture { return g.disp.Texture() }

func (g *Geometry) HeightGradientTexture() *gfx.Texture { return g.grad.Texture() }

func (g *Geometry) BindDisplacementTexture(unit int) error { return g.disp.Bind(unit) }

func (g *Geometry) BindHeightGradientTexture(unit int) error { return g.grad.Bind(unit) }

// Close waits for pending device work and releases every stage.
func (g *Geometry) Close() {
	if err := g.queue.Finish(); err != nil {
		g.log.Warn().Err(err).Msg("draining queue on close")
	}
	if g.export != nil {
		g.export.Release()
		g.export = nil
	}
	if g.grad != nil {
		g.grad.Release()
		g.grad = nil
	}
	if g.disp != nil {
		g.disp.Release()
		g.disp = nil
	}
	if g.fftBuf != nil {
		g.fftBuf.Release()
		g.fftBuf = nil
	}
	if g.fft != nil {
		g.fft.Release()
		g.fft = nil
	}
	if g.spectrum != nil {
		g.spectrum.Release()
		g.spectrum = nil
	}
}
