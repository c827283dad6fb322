package ocean

import (
	"fmt"

	"OSR/internal/compute"
)

// FFTBatches is the number of fields transformed per frame: height, the two
// horizontal displacements and the two height derivatives.
const FFTBatches = 5

// Batch offsets inside the FFT buffer, in units of one grid.
const (
	batchHeight = iota
	batchDisplacementX
	batchDisplacementZ
	batchGradientX
	batchGradientZ
)

// FFTBufferLen is the float32 count of an FFT buffer for batches grids.
func FFTBufferLen(grid Grid, batches int) int {
	return batches * grid.Y * (grid.X + 2)
}

// InverseFFT runs the in-place Hermitian to real backward transform over a
// fixed number of batches. The transform is not normalized.
type InverseFFT struct {
	desc compute.FFTDesc
	plan compute.FFTPlan
	tmp  compute.Buffer
}

// NewInverseFFT creates and bakes the plan and allocates the scratch buffer
// the device asks for.
func NewInverseFFT(dev compute.Device, q compute.Queue, grid Grid, batches int) (*InverseFFT, error) {
	desc := compute.HermitianInverseDesc(grid.X, grid.Y, batches)
	plan, err := dev.NewFFTPlan(q, desc)
	if err != nil {
		return nil, fmt.Errorf("creating fft plan for %s x%d: %w", grid, batches, err)
	}
	f := &InverseFFT{desc: desc, plan: plan}
	if n := plan.TempBufferLen(); n > 0 {
		if f.tmp, err = dev.NewBuffer(n); err != nil {
			plan.Release()
			return nil, fmt.Errorf("allocating fft scratch buffer: %w", err)
		}
	}
	return f, nil
}

// Desc returns the transform layout the plan was baked for.
func (f *InverseFFT) Desc() compute.FFTDesc { return f.desc }

// BufferLen is the size in float32 values buf must have.
func (f *InverseFFT) BufferLen() int { return f.desc.BufferLen() }

// EnqueueTransform transforms buf in place after wait completed.
func (f *InverseFFT) EnqueueTransform(q compute.Queue, buf compute.Buffer, wait []compute.Event) (compute.Event, error) {
	if buf.Len() < f.desc.BufferLen() {
		return nil, fmt.Errorf("fft buffer holds %d values, need %d: %w", buf.Len(), f.desc.BufferLen(), compute.ErrInvalidArgument)
	}
	ev, err := f.plan.Enqueue(q, buf, f.tmp, wait)
	if err != nil {
		return nil, fmt.Errorf("enqueueing fft: %w", err)
	}
	return ev, nil
}

// Release frees the plan and its scratch buffer. It is safe to call twice.
func (f *InverseFFT) Release() {
	if f.tmp != nil {
		f.tmp.Release()
		f.tmp = nil
	}
	if f.plan != nil {
		f.plan.Release()
		f.plan = nil
	}
}
