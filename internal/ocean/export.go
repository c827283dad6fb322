package ocean

import (
	"errors"
	"fmt"

	"OSR/internal/compute"
)

const (
	exportProgram = "export_to_texture.cl"
	exportKernel  = "export_to_texture"
)

// EncodeDisplacement maps a signed displacement in render units onto the
// [0, 1] range of the unsigned displacement texture. Zero encodes as 128.
func EncodeDisplacement(v float32) float32 { return v*0.5 + 0.5 }

// DecodeDisplacement inverts EncodeDisplacement.
func DecodeDisplacement(v float32) float32 { return v*2 - 1 }

// ExportEvents are the three commands of one export. Kernel is nil when the
// kernel could not be enqueued; Release is nil only if acquiring failed.
type ExportEvents struct {
	Acquire compute.Event
	Kernel  compute.Event
	Release compute.Event
}

// release drops every event handle.
func (e ExportEvents) release() {
	compute.ReleaseEvents(e.Acquire, e.Kernel, e.Release)
}

// ExportKernel converts the transformed FFT batches into the displacement
// and height gradient textures.
type ExportKernel struct {
	grid    Grid
	disp    *SharedTexture
	grad    *SharedTexture
	images  []compute.Image
	program compute.Program
	kernel  compute.Kernel
}

// NewExportKernel builds the export program and binds all of its arguments.
// scale converts meters into render units per axis.
func NewExportKernel(dev compute.Device, kernelDir string, fftBuf compute.Buffer, grid Grid, scale [4]float32, disp, grad *SharedTexture) (*ExportKernel, error) {
	for _, st := range []*SharedTexture{disp, grad} {
		if w, h := st.Texture().Width(), st.Texture().Height(); w != grid.X || h != grid.Y {
			return nil, fmt.Errorf("texture %dx%d does not match grid %s: %w", w, h, grid, compute.ErrInvalidArgument)
		}
	}
	path, src, err := loadProgramSource(kernelDir, exportProgram)
	if err != nil {
		return nil, err
	}
	e := &ExportKernel{
		grid:   grid,
		disp:   disp,
		grad:   grad,
		images: []compute.Image{disp.Image(), grad.Image()},
	}
	if e.program, err = dev.BuildProgram(path, src); err != nil {
		return nil, err
	}
	if e.kernel, err = e.program.CreateKernel(exportKernel); err != nil {
		e.Release()
		return nil, fmt.Errorf("creating export kernel: %w", err)
	}
	if err := e.kernel.SetArgs(
		fftBuf,
		int32(grid.X),
		int32(grid.Y),
		disp.Image(),
		grad.Image(),
		scale,
	); err != nil {
		e.Release()
		return nil, fmt.Errorf("setting export kernel arguments: %w", err)
	}
	return e, nil
}

// Enqueue acquires both textures after wait, runs the kernel over the grid
// and releases the textures again. Once the acquire is enqueued the release
// is enqueued too, whatever happens to the kernel.
func (e *ExportKernel) Enqueue(q compute.Queue, wait []compute.Event) (ExportEvents, error) {
	var evs ExportEvents
	acq, err := q.EnqueueAcquire(e.images, wait)
	if err != nil {
		return evs, fmt.Errorf("acquiring shared textures: %w", err)
	}
	evs.Acquire = acq

	relWait := []compute.Event{acq}
	kev, kerr := q.EnqueueKernel(e.kernel, []int{e.grid.X, e.grid.Y}, relWait)
	if kerr != nil {
		kerr = fmt.Errorf("enqueueing export kernel: %w", kerr)
	} else {
		evs.Kernel = kev
		relWait = []compute.Event{kev}
	}

	rel, err := q.EnqueueRelease(e.images, relWait)
	if err != nil {
		return evs, errors.Join(kerr, fmt.Errorf("releasing shared textures: %w", err))
	}
	evs.Release = rel
	return evs, kerr
}

// Release frees the kernel and program. It is safe to call twice.
func (e *ExportKernel) Release() {
	if e.kernel != nil {
		e.kernel.Release()
		e.kernel = nil
	}
	if e.program != nil {
		e.program.Release()
		e.program = nil
	}
}
