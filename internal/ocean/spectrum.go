package ocean

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"OSR/internal/compute"
)

const (
	phaseShiftProgram = "phase_shift.cl"
	phaseShiftKernel  = "phase_shift"
)

// Argument slots of the phase shift kernel.
const (
	phaseArgInitial = iota
	phaseArgTileX
	phaseArgTileZ
	phaseArgGridX
	phaseArgGridY
	phaseArgTime
	phaseArgOut
)

// DefaultKernelDir is where program sources are looked up.
const DefaultKernelDir = "kernels"

// loadProgramSource reads a program file. A missing file is reported as
// compute.ErrResourceNotFound.
func loadProgramSource(dir, name string) (string, []byte, error) {
	path := filepath.Join(dir, name)
	src, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return path, nil, fmt.Errorf("loading program %s: %w", path, compute.ErrResourceNotFound)
	}
	if err != nil {
		return path, nil, fmt.Errorf("loading program %s: %w", path, err)
	}
	return path, src, nil
}

// InitialSpectrum fills the Hermitian half of the t=0 spectrum. Cells are
// stored row by row, real part first, each part drawn from a standard normal
// and scaled by sqrt(P/2).
func InitialSpectrum(p Params) []float32 {
	rng := rand.New(rand.NewSource(p.Seed))
	half := p.Grid.HalfX()
	data := make([]float32, p.SpectrumLen())
	for j := 0; j < p.Grid.Y; j++ {
		for i := 0; i < half; i++ {
			mag := math.Sqrt(p.Phillips(i, j) / 2)
			re, im := rng.NormFloat64(), rng.NormFloat64()
			idx := 2 * (j*half + i)
			data[idx] = float32(re * mag)
			data[idx+1] = float32(im * mag)
		}
	}
	return data
}

// Spectrum owns the initial spectrum buffer and the phase shift kernel that
// evolves it in time.
type Spectrum struct {
	dev    compute.Device
	params Params
	log    zerolog.Logger

	host    []float32
	initial compute.Buffer
	program compute.Program
	kernel  compute.Kernel
}

// NewSpectrum reads the phase shift program from kernelDir, uploads the
// initial spectrum and binds the fixed kernel arguments.
func NewSpectrum(dev compute.Device, params Params, kernelDir string, log zerolog.Logger) (*Spectrum, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	path, src, err := loadProgramSource(kernelDir, phaseShiftProgram)
	if err != nil {
		return nil, err
	}

	s := &Spectrum{dev: dev, params: params, log: log}
	s.host = InitialSpectrum(params)
	if s.initial, err = dev.NewBufferFromData(s.host); err != nil {
		return nil, fmt.Errorf("allocating initial spectrum: %w", err)
	}
	if s.program, err = dev.BuildProgram(path, src); err != nil {
		s.Release()
		return nil, err
	}
	if s.kernel, err = s.program.CreateKernel(phaseShiftKernel); err != nil {
		s.Release()
		return nil, fmt.Errorf("creating phase shift kernel: %w", err)
	}
	if err := s.bindFixedArgs(); err != nil {
		s.Release()
		return nil, err
	}
	log.Info().
		Stringer("grid", params.Grid).
		Float64("wind_speed", params.WindSpeed).
		Float64("amplitude", params.Amplitude).
		Msg("wave spectrum ready")
	return s, nil
}

func (s *Spectrum) bindFixedArgs() error {
	if err := s.kernel.SetArgs(
		s.initial,
		float32(s.params.TilePhysical.X),
		float32(s.params.TilePhysical.Z),
		int32(s.params.Grid.X),
		int32(s.params.Grid.Y),
	); err != nil {
		return fmt.Errorf("setting phase shift kernel arguments: %w", err)
	}
	return nil
}

// Params returns the parameters the spectrum was last built from.
func (s *Spectrum) Params() Params { return s.params }

// InitialCoefficients returns the host copy of the uploaded t=0 spectrum.
// It must not be modified.
func (s *Spectrum) InitialCoefficients() []float32 { return s.host }

// EnqueueGenerate writes the spectrum at time t into the five batches of out
// once every event in wait completed.
func (s *Spectrum) EnqueueGenerate(q compute.Queue, t float32, out compute.Buffer, wait []compute.Event) (compute.Event, error) {
	if err := s.kernel.SetArg(phaseArgTime, t); err != nil {
		return nil, fmt.Errorf("setting phase shift time: %w", err)
	}
	if err := s.kernel.SetArg(phaseArgOut, out); err != nil {
		return nil, fmt.Errorf("setting phase shift output: %w", err)
	}
	ev, err := q.EnqueueKernel(s.kernel, []int{s.params.Grid.HalfX(), s.params.Grid.Y}, wait)
	if err != nil {
		return nil, fmt.Errorf("enqueueing phase shift: %w", err)
	}
	return ev, nil
}

// Rebuild regenerates the initial spectrum for params and uploads it. The
// grid cannot change because the device buffers are sized for it.
func (s *Spectrum) Rebuild(q compute.Queue, params Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	if params.Grid != s.params.Grid {
		return fmt.Errorf("rebuild from grid %s to %s: %w", s.params.Grid, params.Grid, compute.ErrInvalidArgument)
	}
	host := InitialSpectrum(params)
	ev, err := q.EnqueueWriteBuffer(s.initial, host, nil)
	if err != nil {
		return fmt.Errorf("uploading initial spectrum: %w", err)
	}
	defer ev.Release()
	if err := ev.Wait(); err != nil {
		return fmt.Errorf("uploading initial spectrum: %w", err)
	}
	s.params = params
	s.host = host
	if err := s.bindFixedArgs(); err != nil {
		return err
	}
	s.log.Debug().
		Float64("wind_speed", params.WindSpeed).
		Float64("amplitude", params.Amplitude).
		Msg("wave spectrum rebuilt")
	return nil
}

// Release frees the kernel, program and initial spectrum. It is safe to call twice.
func (s *Spectrum) Release() {
	if s.kernel != nil {
		s.kernel.Release()
		s.kernel = nil
	}
	if s.program != nil {
		s.program.Release()
		s.program = nil
	}
	if s.initial != nil {
		s.initial.Release()
		s.initial = nil
	}
}
