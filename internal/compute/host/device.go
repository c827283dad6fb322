// Package host implements compute.Device inside the process. Commands run on
// a per-queue goroutine in submission order, kernels are Go functions
// registered under the name they carry in the program source and are spread
// across worker goroutines row by row.
package host

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"OSR/internal/compute"
	"OSR/internal/gfx"
)

// Option configures a Device.
type Option func(*Device)

// WithWorkers sets how many goroutines a kernel dispatch may use.
func WithWorkers(n int) Option {
	return func(d *Device) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithoutProfiling creates the queue without timestamp collection.
func WithoutProfiling() Option {
	return func(d *Device) { d.profiling = false }
}

// WithLogger sets the logger used for device diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Device) { d.log = l }
}

// Device is the in-process compute device.
type Device struct {
	workers   int
	profiling bool
	epoch     time.Time
	log       zerolog.Logger

	queue  *Queue
	closed atomic.Bool
	once   sync.Once
}

// NewDevice creates a device with one in-order queue.
func NewDevice(opts ...Option) *Device {
	d := &Device{
		workers:   runtime.NumCPU(),
		profiling: true,
		epoch:     time.Now(),
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.queue = newQueue(d)
	d.log.Info().Int("workers", d.workers).Bool("profiling", d.profiling).Msg("host compute device ready")
	return d
}

func (d *Device) Name() string {
	return fmt.Sprintf("host (%d workers)", d.workers)
}

func (d *Device) Queue() compute.Queue { return d.queue }

// now returns the device clock in nanoseconds.
func (d *Device) now() int64 {
	return int64(time.Since(d.epoch))
}

func (d *Device) NewBuffer(n int) (compute.Buffer, error) {
	if d.closed.Load() {
		return nil, compute.ErrReleased
	}
	if n <= 0 {
		return nil, &compute.DeviceError{Op: "create buffer", Code: -61, Err: compute.ErrInvalidArgument}
	}
	return &buffer{dev: d, data: make([]float32, n)}, nil
}

func (d *Device) NewBufferFromData(data []float32) (compute.Buffer, error) {
	b, err := d.NewBuffer(len(data))
	if err != nil {
		return nil, err
	}
	copy(b.(*buffer).data, data)
	return b, nil
}

func (d *Device) NewSharedImage(tex *gfx.Texture) (compute.Image, error) {
	if d.closed.Load() {
		return nil, compute.ErrReleased
	}
	if tex == nil {
		return nil, &compute.DeviceError{Op: "create shared image", Code: -60, Err: compute.ErrInvalidArgument}
	}
	return &Image{dev: d, tex: tex}, nil
}

func (d *Device) NewFFTPlan(q compute.Queue, desc compute.FFTDesc) (compute.FFTPlan, error) {
	if d.closed.Load() {
		return nil, compute.ErrReleased
	}
	if _, ok := q.(*Queue); !ok {
		return nil, &compute.DeviceError{Op: "create fft plan", Code: -36, Err: compute.ErrForeignObject}
	}
	return newFFTPlan(desc)
}

// Close stops the queue after it drained every pending command.
func (d *Device) Close() {
	d.once.Do(func() {
		d.closed.Store(true)
		d.queue.close()
	})
}

type buffer struct {
	dev      *Device
	data     []float32
	released atomic.Bool
}

func (b *buffer) Len() int { return len(b.data) }

func (b *buffer) Release() { b.released.Store(true) }

// Data exposes the storage of a host buffer. It is meant for kernels and
// tests running against the host device.
func Data(b compute.Buffer) ([]float32, error) {
	hb, ok := b.(*buffer)
	if !ok {
		return nil, compute.ErrForeignObject
	}
	if hb.released.Load() {
		return nil, compute.ErrReleased
	}
	return hb.data, nil
}

// Image is a shared image whose storage is the texture's level 0.
type Image struct {
	dev *Device
	tex *gfx.Texture
	own compute.Ownership
}

func (i *Image) Texture() *gfx.Texture { return i.tex }

func (i *Image) Owner() compute.Domain { return i.own.Owner() }

func (i *Image) Release() {}

// Pixels returns the storage for writing. The image must be acquired.
func (i *Image) Pixels() ([]byte, error) {
	if owner := i.Owner(); owner != compute.ComputeOwned {
		return nil, fmt.Errorf("write to %s owned image: %w", owner, compute.ErrOwnership)
	}
	return i.tex.Pixels(), nil
}
