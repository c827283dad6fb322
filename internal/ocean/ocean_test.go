package ocean

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"OSR/internal/compute"
	"OSR/internal/compute/host"
	"OSR/internal/gfx"
)

var kernelDir = filepath.Join("..", "..", "kernels")

func newHostDevice(t *testing.T, opts ...host.Option) *host.Device {
	t.Helper()
	d := host.NewDevice(opts...)
	t.Cleanup(d.Close)
	return d
}

func nopLogger() zerolog.Logger { return zerolog.Nop() }

func smallParams() Params {
	p := DefaultParams()
	p.Grid = Grid{X: 16, Y: 8}
	return p
}

func TestSpectrumLen(t *testing.T) {
	for _, n := range []int{2, 4, 16, 64, 256, 512} {
		for _, m := range []int{1, 8, 128} {
			p := DefaultParams()
			p.Grid = Grid{X: n, Y: m}
			assert.Equal(t, (n/2+1)*m*2, p.SpectrumLen(), "grid %dx%d", n, m)
			assert.Len(t, InitialSpectrum(p), p.SpectrumLen())
		}
	}
	assert.Equal(t, 5*512*514, FFTBufferLen(Grid{X: 512, Y: 512}, FFTBatches))
}

func TestPhillipsSuppressesDC(t *testing.T) {
	winds := []r2.Vec{{X: 15}, {X: -3, Y: 4}, {Y: 40}, {}}
	for _, w := range winds {
		p := DefaultParams()
		p.SetWindVector(w)
		assert.Zero(t, p.Phillips(0, 0), "wind %v", w)
	}
}

func TestPhillipsNonNegative(t *testing.T) {
	p := smallParams()
	p.SetWindVector(r2.Vec{X: 7, Y: -2})
	for _, amp := range []float64{0, 1e-3, 1, 50} {
		p.Amplitude = amp
		for j := 0; j < p.Grid.Y; j++ {
			for i := 0; i < p.Grid.HalfX(); i++ {
				v := p.Phillips(i, j)
				require.False(t, math.IsNaN(v), "P(%d,%d) is NaN", i, j)
				require.GreaterOrEqual(t, v, 0.0, "P(%d,%d)", i, j)
			}
		}
	}
}

func TestPhillipsZeroWind(t *testing.T) {
	p := smallParams()
	p.SetWindVector(r2.Vec{})
	for j := 0; j < p.Grid.Y; j++ {
		for i := 0; i < p.Grid.HalfX(); i++ {
			assert.Zero(t, p.Phillips(i, j))
		}
	}
}

func TestPhillipsPerpendicularToWind(t *testing.T) {
	p := smallParams()
	// Cell (0, 1) has a wave vector along Z, perpendicular to a +X wind.
	assert.Zero(t, p.Phillips(0, 1))
	assert.Positive(t, p.Phillips(1, 0))
}

func TestSignedIndex(t *testing.T) {
	assert.Equal(t, 0, signedIndex(0, 8))
	assert.Equal(t, 3, signedIndex(3, 8))
	assert.Equal(t, -4, signedIndex(4, 8))
	assert.Equal(t, -1, signedIndex(7, 8))
}

func TestSetWindVector(t *testing.T) {
	tests := []struct {
		name  string
		in    r2.Vec
		speed float64
		dir   r2.Vec
	}{
		{name: "along x", in: r2.Vec{X: 15}, speed: 15, dir: r2.Vec{X: 1}},
		{name: "diagonal", in: r2.Vec{X: 3, Y: 4}, speed: 5, dir: r2.Vec{X: 0.6, Y: 0.8}},
		{name: "zero", in: r2.Vec{}, speed: 0, dir: r2.Vec{X: 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var p Params
			p.SetWindVector(tc.in)
			assert.Equal(t, tc.speed, p.WindSpeed)
			if diff := cmp.Diff(tc.dir, p.WindDirection, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
				t.Errorf("direction (-want +got):\n%s", diff)
			}
			assert.False(t, math.IsNaN(p.WindDirection.X) || math.IsNaN(p.WindDirection.Y))
			if diff := cmp.Diff(tc.in, p.WindVector(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
				t.Errorf("wind vector (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{name: "odd grid", mutate: func(p *Params) { p.Grid.X = 15 }},
		{name: "empty grid", mutate: func(p *Params) { p.Grid.Y = 0 }},
		{name: "flat tile", mutate: func(p *Params) { p.TilePhysical = r3.Vec{X: 20, Y: 20} }},
		{name: "negative amplitude", mutate: func(p *Params) { p.Amplitude = -1 }},
		{name: "negative threshold", mutate: func(p *Params) { p.WavelengthLowThreshold = -0.1 }},
		{name: "unnormalized direction", mutate: func(p *Params) { p.WindDirection = r2.Vec{X: 2} }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultParams()
			tc.mutate(&p)
			assert.ErrorIs(t, p.Validate(), compute.ErrInvalidArgument)
		})
	}
}

func TestInitialSpectrumDeterministic(t *testing.T) {
	p := smallParams()
	a := InitialSpectrum(p)
	b := InitialSpectrum(p)
	assert.Equal(t, a, b)

	p.Seed = 42
	c := InitialSpectrum(p)
	assert.NotEqual(t, a, c)

	// The DC cell carries no energy.
	assert.Zero(t, a[0])
	assert.Zero(t, a[1])
}

func TestSpectrumAtTimeZeroMatchesInitial(t *testing.T) {
	dev := newHostDevice(t)
	p := smallParams()
	s, err := NewSpectrum(dev, p, kernelDir, nopLogger())
	require.NoError(t, err)
	defer s.Release()

	out, err := dev.NewBuffer(FFTBufferLen(p.Grid, FFTBatches))
	require.NoError(t, err)
	ev, err := s.EnqueueGenerate(dev.Queue(), 0, out, nil)
	require.NoError(t, err)
	require.NoError(t, ev.Wait())

	data, err := host.Data(out)
	require.NoError(t, err)
	initial := s.InitialCoefficients()
	half := p.Grid.HalfX()
	plane := p.Grid.Y * (p.Grid.X + 2)
	for j := 0; j < p.Grid.Y; j++ {
		for i := 0; i < half; i++ {
			src := 2 * (j*half + i)
			dst := j*(p.Grid.X+2) + 2*i
			require.Equal(t, initial[src], data[dst], "re(%d,%d)", i, j)
			require.Equal(t, initial[src+1], data[dst+1], "im(%d,%d)", i, j)
		}
	}
	for b := batchDisplacementX; b <= batchGradientZ; b++ {
		assert.Zero(t, data[b*plane], "batch %d at DC", b)
		assert.Zero(t, data[b*plane+1], "batch %d at DC", b)
	}
}

func TestSpectrumEvolvesPhase(t *testing.T) {
	dev := newHostDevice(t)
	p := smallParams()
	s, err := NewSpectrum(dev, p, kernelDir, nopLogger())
	require.NoError(t, err)
	defer s.Release()

	out, err := dev.NewBuffer(FFTBufferLen(p.Grid, FFTBatches))
	require.NoError(t, err)
	const tm = 0.75
	ev, err := s.EnqueueGenerate(dev.Queue(), tm, out, nil)
	require.NoError(t, err)
	require.NoError(t, ev.Wait())
	data, _ := host.Data(out)

	i, j := 1, 0
	kx, kz := p.wavevector(i, j)
	k := math.Hypot(kx, kz)
	h0 := complex(float64(s.InitialCoefficients()[2*i]), float64(s.InitialCoefficients()[2*i+1]))
	omega := math.Sqrt(Gravity * k)
	want := h0 * complex(math.Cos(omega*tm), math.Sin(omega*tm))
	got := complex(float64(data[2*i]), float64(data[2*i+1]))
	assert.InDelta(t, real(want), real(got), 1e-6)
	assert.InDelta(t, imag(want), imag(got), 1e-6)

	// Magnitude is preserved by the rotation.
	assert.InDelta(t, cmplxAbs(h0), cmplxAbs(got), 1e-6)

	// i·kx·h for the gradient batch.
	plane := p.Grid.Y * (p.Grid.X + 2)
	grad := complex(float64(data[batchGradientX*plane+2*i]), float64(data[batchGradientX*plane+2*i+1]))
	wantGrad := complex(0, kx) * got
	assert.InDelta(t, real(wantGrad), real(grad), 1e-5)
	assert.InDelta(t, imag(wantGrad), imag(grad), 1e-5)
}

func cmplxAbs(c complex128) float64 { return math.Hypot(real(c), imag(c)) }

func TestSpectrumRebuild(t *testing.T) {
	dev := newHostDevice(t)
	p := smallParams()
	s, err := NewSpectrum(dev, p, kernelDir, nopLogger())
	require.NoError(t, err)
	defer s.Release()
	before := append([]float32(nil), s.InitialCoefficients()...)

	p.SetWindVector(r2.Vec{Y: 30})
	require.NoError(t, s.Rebuild(dev.Queue(), p))
	assert.NotEqual(t, before, s.InitialCoefficients())
	assert.Equal(t, InitialSpectrum(p), s.InitialCoefficients())

	p.Grid = Grid{X: 32, Y: 8}
	assert.ErrorIs(t, s.Rebuild(dev.Queue(), p), compute.ErrInvalidArgument)
}

func TestMissingProgramIsResourceNotFound(t *testing.T) {
	dev := newHostDevice(t)
	_, err := NewSpectrum(dev, smallParams(), t.TempDir(), nopLogger())
	assert.ErrorIs(t, err, compute.ErrResourceNotFound)

	_, err = NewGeometry(dev, gfx.NewContext(2), smallParams(), WithKernelDir(t.TempDir()))
	assert.ErrorIs(t, err, compute.ErrResourceNotFound)
}

func TestBuildFailureCarriesLog(t *testing.T) {
	dir := t.TempDir()
	src := []byte("__kernel void phase_shift_v2(__global float* out) {}\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, phaseShiftProgram), src, 0o644))

	dev := newHostDevice(t)
	_, err := NewSpectrum(dev, smallParams(), dir, nopLogger())
	var buildErr *compute.BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.NotEmpty(t, buildErr.Logs)
	assert.Contains(t, err.Error(), "phase_shift_v2")
}

func TestInverseFFTSingleCosine(t *testing.T) {
	dev := newHostDevice(t)
	grid := Grid{X: 8, Y: 4}
	f, err := NewInverseFFT(dev, dev.Queue(), grid, 1)
	require.NoError(t, err)
	defer f.Release()
	require.Equal(t, grid.Y*(grid.X+2), f.BufferLen())

	data := make([]float32, f.BufferLen())
	// H(kx=1, kz=0) = 0.5 stands for itself and its mirror: cos(2πx/8).
	data[2] = 0.5
	buf, err := dev.NewBufferFromData(data)
	require.NoError(t, err)
	ev, err := f.EnqueueTransform(dev.Queue(), buf, nil)
	require.NoError(t, err)
	require.NoError(t, ev.Wait())

	out, _ := host.Data(buf)
	for y := 0; y < grid.Y; y++ {
		for x := 0; x < grid.X; x++ {
			want := math.Cos(2 * math.Pi * float64(x) / float64(grid.X))
			assert.InDelta(t, want, out[y*(grid.X+2)+x], 1e-5, "(%d,%d)", x, y)
		}
	}

	small, err := dev.NewBuffer(4)
	require.NoError(t, err)
	_, err = f.EnqueueTransform(dev.Queue(), small, nil)
	assert.ErrorIs(t, err, compute.ErrInvalidArgument)
}

func TestSharedTextureSetup(t *testing.T) {
	dev := newHostDevice(t)
	graphics := gfx.NewContext(4)
	st, err := NewSharedTexture(dev, graphics, 8, 4, gfx.FormatRG16F)
	require.NoError(t, err)

	tex := st.Texture()
	assert.Equal(t, gfx.WrapRepeat, tex.Wrap())
	assert.Equal(t, gfx.FilterMipmap, tex.MinFilter())
	assert.Equal(t, gfx.FilterLinear, tex.MagFilter())
	assert.Equal(t, float32(2), tex.MaxAnisotropy())
	assert.Equal(t, 4, tex.LevelCount())
	assert.Equal(t, compute.GraphicsOwned, st.Owner())

	require.NoError(t, st.Bind(3))
	assert.Same(t, tex, graphics.Bound(3))
	assert.Error(t, st.Bind(4))

	acq, err := dev.Queue().EnqueueAcquire([]compute.Image{st.Image()}, nil)
	require.NoError(t, err)
	require.NoError(t, acq.Wait())
	assert.ErrorIs(t, st.GenerateMipmap(), compute.ErrOwnership)
	rel, err := dev.Queue().EnqueueRelease([]compute.Image{st.Image()}, nil)
	require.NoError(t, err)
	require.NoError(t, rel.Wait())
	assert.NoError(t, st.GenerateMipmap())
}

// recordingQueue logs the commands an export enqueues and can refuse
// kernel launches.
type recordingQueue struct {
	compute.Queue

	mu         sync.Mutex
	calls      []string
	failKernel bool
}

func (q *recordingQueue) record(s string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls = append(q.calls, s)
}

func (q *recordingQueue) EnqueueAcquire(images []compute.Image, wait []compute.Event) (compute.Event, error) {
	q.record("acquire")
	return q.Queue.EnqueueAcquire(images, wait)
}

func (q *recordingQueue) EnqueueRelease(images []compute.Image, wait []compute.Event) (compute.Event, error) {
	q.record("release")
	return q.Queue.EnqueueRelease(images, wait)
}

func (q *recordingQueue) EnqueueKernel(k compute.Kernel, global []int, wait []compute.Event) (compute.Event, error) {
	q.record("kernel")
	if q.failKernel {
		return nil, &compute.DeviceError{Op: "enqueue " + k.Name(), Code: -5, Err: errors.New("out of resources")}
	}
	return q.Queue.EnqueueKernel(k, global, wait)
}

type exportFixture struct {
	dev    *host.Device
	grid   Grid
	buf    compute.Buffer
	disp   *SharedTexture
	grad   *SharedTexture
	export *ExportKernel
}

func newExportFixture(t *testing.T, grid Grid, scale [4]float32) *exportFixture {
	t.Helper()
	dev := newHostDevice(t)
	graphics := gfx.NewContext(2)
	f := &exportFixture{dev: dev, grid: grid}
	var err error
	f.buf, err = dev.NewBuffer(FFTBufferLen(grid, FFTBatches))
	require.NoError(t, err)
	f.disp, err = NewSharedTexture(dev, graphics, grid.X, grid.Y, gfx.FormatRGBA8)
	require.NoError(t, err)
	f.grad, err = NewSharedTexture(dev, graphics, grid.X, grid.Y, gfx.FormatRG16F)
	require.NoError(t, err)
	f.export, err = NewExportKernel(dev, kernelDir, f.buf, grid, scale, f.disp, f.grad)
	require.NoError(t, err)
	t.Cleanup(f.export.Release)
	return f
}

func TestExportPairsAcquireAndRelease(t *testing.T) {
	f := newExportFixture(t, Grid{X: 4, Y: 4}, [4]float32{1, 1, 1, 0})

	q := &recordingQueue{Queue: f.dev.Queue()}
	evs, err := f.export.Enqueue(q, nil)
	require.NoError(t, err)
	require.NoError(t, evs.Release.Wait())
	assert.Equal(t, []string{"acquire", "kernel", "release"}, q.calls)
	assert.Equal(t, compute.GraphicsOwned, f.disp.Owner())
	assert.Equal(t, compute.GraphicsOwned, f.grad.Owner())
	evs.release()

	q = &recordingQueue{Queue: f.dev.Queue(), failKernel: true}
	evs, err = f.export.Enqueue(q, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of resources")
	assert.Equal(t, []string{"acquire", "kernel", "release"}, q.calls)
	require.NotNil(t, evs.Release)
	assert.Nil(t, evs.Kernel)
	require.NoError(t, evs.Release.Wait())
	assert.Equal(t, compute.GraphicsOwned, f.disp.Owner())
	assert.Equal(t, compute.GraphicsOwned, f.grad.Owner())
}

func TestExportReleasesAfterFailedPrerequisite(t *testing.T) {
	f := newExportFixture(t, Grid{X: 4, Y: 4}, [4]float32{1, 1, 1, 0})

	// A texture already held by compute makes the acquire fail on the device.
	held, err := f.dev.Queue().EnqueueAcquire([]compute.Image{f.grad.Image()}, nil)
	require.NoError(t, err)
	require.NoError(t, held.Wait())

	evs, err := f.export.Enqueue(f.dev.Queue(), nil)
	require.NoError(t, err)
	assert.ErrorIs(t, evs.Acquire.Wait(), compute.ErrOwnership)
	assert.ErrorIs(t, evs.Kernel.Wait(), compute.ErrDependencyFailed)
	assert.ErrorIs(t, evs.Release.Wait(), compute.ErrDependencyFailed)
}

func TestExportPacksTexels(t *testing.T) {
	grid := Grid{X: 4, Y: 2}
	scale := [4]float32{0.5, 0.5, 0.25, 0}
	f := newExportFixture(t, grid, scale)

	data := make([]float32, FFTBufferLen(grid, FFTBatches))
	plane := grid.Y * (grid.X + 2)
	x, y := 2, 1
	src := y*(grid.X+2) + x
	data[batchHeight*plane+src] = 0.5
	data[batchDisplacementX*plane+src] = 0.25
	data[batchDisplacementZ*plane+src] = -1
	data[batchGradientX*plane+src] = 0.1
	data[batchGradientZ*plane+src] = 0.2
	w, err := f.dev.Queue().EnqueueWriteBuffer(f.buf, data, nil)
	require.NoError(t, err)

	evs, err := f.export.Enqueue(f.dev.Queue(), []compute.Event{w})
	require.NoError(t, err)
	require.NoError(t, evs.Release.Wait())

	assert.Equal(t, gfx.FormatRGBA8, f.disp.Texture().Format())
	disp := f.disp.Texture().Texel(x, y)
	got := [4]float32{DecodeDisplacement(disp[0]), DecodeDisplacement(disp[1]), DecodeDisplacement(disp[2]), disp[3]}
	want := [4]float32{0.125, 0.25, -0.25, 1}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 2.0/255)); diff != "" {
		t.Errorf("displacement texel (-want +got):\n%s", diff)
	}
	grad := f.grad.Texture().Texel(x, y)
	assert.InDelta(t, 0.1, grad[0], 1e-3)
	assert.InDelta(t, 0.4, grad[1], 1e-3)

	// Every other texel encodes zero displacement.
	assert.Equal(t, []byte{128, 128, 128, 255}, f.disp.Texture().Pixels()[0:4])
	assert.Equal(t, [4]float32{}, f.grad.Texture().Texel(3, 1))
}

func TestZeroSpectrumExportsZero(t *testing.T) {
	dev := newHostDevice(t)
	p := smallParams()
	p.Amplitude = 0
	g, err := NewGeometry(dev, gfx.NewContext(2), p, WithKernelDir(kernelDir))
	require.NoError(t, err)
	defer g.Close()

	require.NoError(t, g.Generate(0.5, nil))

	// Zero displacement is the exact midpoint byte of the unsigned format.
	disp := g.DisplacementTexture()
	require.Equal(t, gfx.FormatRGBA8, disp.Format())
	for l := 0; l < disp.LevelCount(); l++ {
		level := disp.Level(l)
		for off := 0; off < len(level); off += 4 {
			require.Equal(t, []byte{128, 128, 128, 255}, level[off:off+4], "level %d offset %d", l, off)
		}
	}
	grad := g.HeightGradientTexture()
	for l := 0; l < grad.LevelCount(); l++ {
		level := grad.Level(l)
		for off := 0; off < len(level); off += grad.Format().BytesPerPixel() {
			v := gfx.DecodeTexel(grad.Format(), level[off:])
			require.Equal(t, [4]float32{}, v, "level %d offset %d", l, off)
		}
	}
}

func TestGeometryEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("512x512 frames")
	}
	dev := newHostDevice(t)
	graphics := gfx.NewContext(2)
	g, err := NewGeometry(dev, graphics, DefaultParams(), WithKernelDir(kernelDir))
	require.NoError(t, err)
	defer g.Close()
	assert.Equal(t, Idle, g.State())

	require.NoError(t, g.Generate(0, nil))
	disp := g.DisplacementTexture()
	first := append([]byte(nil), disp.Pixels()...)
	w, h, format := disp.Width(), disp.Height(), disp.Format()
	gen := disp.Generation()

	require.NoError(t, g.Generate(1.0/60, nil))
	assert.Equal(t, Idle, g.State())
	assert.Equal(t, uint64(2), g.Frames())
	assert.False(t, bytes.Equal(first, disp.Pixels()), "displacement did not change between frames")
	assert.Equal(t, 512, w)
	assert.Equal(t, 512, h)
	assert.Equal(t, w, disp.Width())
	assert.Equal(t, h, disp.Height())
	assert.Equal(t, format, disp.Format())
	assert.Equal(t, gfx.FormatRG16F, g.HeightGradientTexture().Format())
	assert.Greater(t, disp.Generation(), gen)

	tm := g.Timings()
	assert.GreaterOrEqual(t, tm.PhaseShiftMs, 0.0)
	assert.GreaterOrEqual(t, tm.FFTMs, 0.0)
	assert.GreaterOrEqual(t, tm.ExportMs, 0.0)
	assert.GreaterOrEqual(t, tm.MipmapMs, 0.0)
	assert.Positive(t, tm.TotalMs())

	require.NoError(t, g.BindDisplacementTexture(0))
	require.NoError(t, g.BindHeightGradientTexture(1))
	assert.Same(t, disp, graphics.Bound(0))
	assert.Same(t, g.HeightGradientTexture(), graphics.Bound(1))
}

func TestGeometryWithoutProfiling(t *testing.T) {
	dev := newHostDevice(t, host.WithoutProfiling())
	g, err := NewGeometry(dev, gfx.NewContext(2), smallParams(), WithKernelDir(kernelDir))
	require.NoError(t, err)
	defer g.Close()

	require.NoError(t, g.Generate(0.1, nil))
	tm := g.Timings()
	assert.Zero(t, tm.PhaseShiftMs)
	assert.Zero(t, tm.FFTMs)
	assert.Zero(t, tm.ExportMs)
}

func TestGeometryWindChangesOutput(t *testing.T) {
	dev := newHostDevice(t)
	g, err := NewGeometry(dev, gfx.NewContext(2), smallParams(), WithKernelDir(kernelDir))
	require.NoError(t, err)
	defer g.Close()

	require.NoError(t, g.Generate(1, nil))
	before := append([]byte(nil), g.HeightGradientTexture().Pixels()...)

	require.NoError(t, g.SetWindVector(r2.Vec{Y: 25}))
	p := g.Params()
	assert.Equal(t, 25.0, p.WindSpeed)
	require.NoError(t, g.SetAmplitude(4e-3))
	assert.Equal(t, 4e-3, g.Params().Amplitude)

	require.NoError(t, g.Generate(1, nil))
	assert.NotEqual(t, before, g.HeightGradientTexture().Pixels())

	assert.ErrorIs(t, g.SetAmplitude(-1), compute.ErrInvalidArgument)
}

func TestGeometryFailedFrameKeepsStage(t *testing.T) {
	dev := host.NewDevice()
	g, err := NewGeometry(dev, gfx.NewContext(2), smallParams(), WithKernelDir(kernelDir))
	require.NoError(t, err)
	dev.Close()

	err = g.Generate(0, nil)
	assert.ErrorIs(t, err, compute.ErrReleased)
	assert.Equal(t, SpectrumQueued, g.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "transform queued", TransformQueued.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestReleaseTwice(t *testing.T) {
	dev := newHostDevice(t)
	p := smallParams()

	s, err := NewSpectrum(dev, p, kernelDir, nopLogger())
	require.NoError(t, err)
	assert.Equal(t, p, s.Params())
	s.Release()
	s.Release()

	f, err := NewInverseFFT(dev, dev.Queue(), p.Grid, FFTBatches)
	require.NoError(t, err)
	assert.Equal(t, compute.HermitianInverseDesc(p.Grid.X, p.Grid.Y, FFTBatches), f.Desc())
	f.Release()
	f.Release()

	fx := newExportFixture(t, Grid{X: 4, Y: 4}, [4]float32{1, 1, 1, 0})
	fx.export.Release()
	fx.export.Release()

	tex, err := NewSharedTexture(dev, gfx.NewContext(1), 4, 4, gfx.FormatRGBA8)
	require.NoError(t, err)
	assert.Equal(t, compute.GraphicsOwned, tex.Owner())
	assert.Equal(t, 3, tex.Texture().LevelCount())
	tex.Release()
	tex.Release()
	assert.Nil(t, tex.Image())
}
