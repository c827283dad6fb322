// Package compute describes the device contract the ocean pipeline is written
// against: buffers, programs, kernels, shared images, FFT plans and an ordered
// command queue whose operations are chained through completion events.
//
// Two devices implement it: internal/compute/host runs everything in-process,
// internal/compute/opencl (built with -tags opencl) drives an OpenCL device.
package compute

import (
	"OSR/internal/gfx"
)

// Device owns a context, a single command queue and every object created
// through it.
type Device interface {
	Name() string
	Queue() Queue

	// NewBuffer allocates n float32 values of device memory.
	NewBuffer(n int) (Buffer, error)
	// NewBufferFromData allocates a buffer initialized with data.
	NewBufferFromData(data []float32) (Buffer, error)

	// BuildProgram compiles source for every device of the context. path is
	// only used for diagnostics.
	BuildProgram(path string, source []byte) (Program, error)

	// NewSharedImage wraps a renderer texture as a compute-writable image.
	// The image starts out owned by the graphics side.
	NewSharedImage(tex *gfx.Texture) (Image, error)

	// NewFFTPlan creates and bakes a plan. Baking may enqueue work on q and
	// waits for it.
	NewFFTPlan(q Queue, desc FFTDesc) (FFTPlan, error)

	Close()
}

// Queue is an in-order command queue. Every Enqueue call returns without
// blocking; the command starts only once all events in wait are complete.
type Queue interface {
	EnqueueKernel(k Kernel, global []int, wait []Event) (Event, error)
	EnqueueWriteBuffer(buf Buffer, data []float32, wait []Event) (Event, error)
	EnqueueReadBuffer(buf Buffer, dst []float32, wait []Event) (Event, error)

	// EnqueueAcquire moves images to the compute domain.
	EnqueueAcquire(images []Image, wait []Event) (Event, error)
	// EnqueueRelease hands images back to the graphics domain. Unlike other
	// commands it executes even when a prerequisite failed; the failure is
	// still reported through the returned event.
	EnqueueRelease(images []Image, wait []Event) (Event, error)

	// Finish blocks until every enqueued command completed.
	Finish() error
}

// Event is the handle of an enqueued command.
type Event interface {
	// Wait blocks the calling goroutine until the command completed and
	// returns its execution error, if any.
	Wait() error
	// Profile reports device timestamps. It is only meaningful after Wait.
	Profile() (Profile, error)
	Release()
}

type Buffer interface {
	// Len is the size in float32 values.
	Len() int
	Release()
}

type Program interface {
	CreateKernel(name string) (Kernel, error)
	Release()
}

type Kernel interface {
	Name() string
	// SetArg binds argument index. Accepted values are Buffer, Image, int32,
	// float32 and [4]float32.
	SetArg(index int, value any) error
	SetArgs(values ...any) error
	Release()
}

// Image is the compute view of a renderer texture.
type Image interface {
	Texture() *gfx.Texture
	Owner() Domain
	Release()
}

// WaitForEvents waits for every event and returns the first error.
func WaitForEvents(events ...Event) error {
	var first error
	for _, e := range events {
		if e == nil {
			continue
		}
		if err := e.Wait(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ReleaseEvents releases every non-nil event.
func ReleaseEvents(events ...Event) {
	for _, e := range events {
		if e != nil {
			e.Release()
		}
	}
}
