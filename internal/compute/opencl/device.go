//go:build opencl

// Package opencl implements compute.Device on an OpenCL device. Shared images
// are device buffers holding the texel bytes; releasing them reads the bytes
// back into the texture's level 0.
package opencl

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"
	"github.com/rs/zerolog"

	"OSR/internal/compute"
	"OSR/internal/gfx"
)

const floatSize = int(unsafe.Sizeof(float32(0)))

// Option configures a Device.
type Option func(*Device)

// WithLogger sets the logger used for device diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Device) { d.log = l }
}

// PreferCPU picks a CPU device even when a GPU is available.
func PreferCPU() Option {
	return func(d *Device) { d.preferCPU = true }
}

type Device struct {
	device  *cl.Device
	context *cl.Context
	queue   *Queue
	name    string

	preferCPU bool
	log       zerolog.Logger
	once      sync.Once
}

func pickDevice(platforms []*cl.Platform, kind cl.DeviceType) *cl.Device {
	for _, p := range platforms {
		devices, err := p.GetDevices(kind)
		if err != nil && err != cl.ErrDeviceNotFound {
			continue
		}
		if len(devices) > 0 {
			return devices[0]
		}
	}
	return nil
}

// NewDevice opens the first GPU device (or CPU device as a fallback) with a
// profiling command queue.
func NewDevice(opts ...Option) (*Device, error) {
	d := &Device{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(d)
	}

	platforms, err := cl.GetPlatforms()
	if err != nil {
		msg := "querying OpenCL platforms"
		if strings.Contains(err.Error(), "-1001") {
			msg += ": no ICD loader reported any platforms; install OpenCL drivers and verify with `clinfo`"
			return nil, &compute.DeviceError{Op: msg, Code: -1001, Err: err}
		}
		return nil, fmt.Errorf("%s: %w", msg, err)
	}
	if len(platforms) == 0 {
		return nil, errors.New("no OpenCL platforms available; ensure a vendor driver is installed and detected by `clinfo`")
	}
	kinds := []cl.DeviceType{cl.DeviceTypeGPU, cl.DeviceTypeCPU}
	if d.preferCPU {
		kinds = []cl.DeviceType{cl.DeviceTypeCPU, cl.DeviceTypeGPU}
	}
	for _, kind := range kinds {
		if d.device = pickDevice(platforms, kind); d.device != nil {
			break
		}
	}
	if d.device == nil {
		return nil, &compute.DeviceError{Op: "selecting OpenCL device", Code: -1, Err: errors.New("no suitable OpenCL devices found")}
	}
	d.name = d.device.Name()

	if d.context, err = cl.CreateContext([]*cl.Device{d.device}); err != nil {
		return nil, fmt.Errorf("creating OpenCL context: %w", err)
	}
	clQueue, err := d.context.CreateCommandQueue(d.device, cl.CommandQueueProfilingEnable)
	if err != nil {
		d.context.Release()
		return nil, fmt.Errorf("creating OpenCL command queue: %w", err)
	}
	d.queue = &Queue{dev: d, queue: clQueue}
	d.log.Info().Str("device", d.name).Msg("OpenCL compute device ready")
	return d, nil
}

func (d *Device) Name() string { return d.name }

func (d *Device) Queue() compute.Queue { return d.queue }

func (d *Device) NewBuffer(n int) (compute.Buffer, error) {
	if n <= 0 {
		return nil, &compute.DeviceError{Op: "create buffer", Code: -61, Err: compute.ErrInvalidArgument}
	}
	mem, err := d.context.CreateEmptyBuffer(cl.MemReadWrite, n*floatSize)
	if err != nil {
		return nil, &compute.DeviceError{Op: fmt.Sprintf("allocating %d floats", n), Code: -4, Err: err}
	}
	return &buffer{mem: mem, n: n}, nil
}

func (d *Device) NewBufferFromData(data []float32) (compute.Buffer, error) {
	b, err := d.NewBuffer(len(data))
	if err != nil {
		return nil, err
	}
	if _, err := d.queue.queue.EnqueueWriteBufferFloat32(b.(*buffer).mem, true, 0, data, nil); err != nil {
		b.Release()
		return nil, &compute.DeviceError{Op: "writing initial buffer data", Err: err}
	}
	return b, nil
}

func (d *Device) BuildProgram(path string, source []byte) (compute.Program, error) {
	p, err := d.context.CreateProgramWithSource([]string{string(source)})
	if err != nil {
		return nil, &compute.DeviceError{Op: "creating OpenCL program " + path, Err: err}
	}
	if err := p.BuildProgram([]*cl.Device{d.device}, ""); err != nil {
		p.Release()
		if buildErr, ok := err.(cl.BuildError); ok {
			return nil, &compute.BuildError{Program: path, Logs: map[string]string{d.name: string(buildErr)}}
		}
		return nil, &compute.BuildError{Program: path, Logs: map[string]string{d.name: err.Error()}}
	}
	d.log.Debug().Str("program", path).Msg("program built")
	return &program{path: path, program: p}, nil
}

func (d *Device) NewSharedImage(tex *gfx.Texture) (compute.Image, error) {
	if tex == nil {
		return nil, &compute.DeviceError{Op: "create shared image", Code: -60, Err: compute.ErrInvalidArgument}
	}
	size := len(tex.Pixels())
	mem, err := d.context.CreateEmptyBuffer(cl.MemReadWrite, size)
	if err != nil {
		return nil, &compute.DeviceError{Op: fmt.Sprintf("allocating %dx%d %s image", tex.Width(), tex.Height(), tex.Format()), Code: -4, Err: err}
	}
	return &Image{tex: tex, mem: mem, size: size}, nil
}

func (d *Device) NewFFTPlan(q compute.Queue, desc compute.FFTDesc) (compute.FFTPlan, error) {
	if _, ok := q.(*Queue); !ok {
		return nil, &compute.DeviceError{Op: "create fft plan", Code: -36, Err: compute.ErrForeignObject}
	}
	return newFFTPlan(d, desc)
}

func (d *Device) Close() {
	d.once.Do(func() {
		if d.queue != nil {
			if err := d.queue.queue.Finish(); err != nil {
				d.log.Warn().Err(err).Msg("finishing queue on close")
			}
			d.queue.queue.Release()
		}
		if d.context != nil {
			d.context.Release()
		}
	})
}

type buffer struct {
	mem *cl.MemObject
	n   int
}

func (b *buffer) Len() int { return b.n }

func (b *buffer) Release() {
	if b.mem != nil {
		b.mem.Release()
		b.mem = nil
	}
}

func memOf(b compute.Buffer) (*cl.MemObject, error) {
	cb, ok := b.(*buffer)
	if !ok {
		return nil, compute.ErrForeignObject
	}
	if cb.mem == nil {
		return nil, compute.ErrReleased
	}
	return cb.mem, nil
}

// Image mirrors a texture's level 0 in a device buffer.
type Image struct {
	tex  *gfx.Texture
	mem  *cl.MemObject
	size int
	own  compute.Ownership
}

func (i *Image) Texture() *gfx.Texture { return i.tex }

func (i *Image) Owner() compute.Domain { return i.own.Owner() }

func (i *Image) Release() {
	if i.mem != nil {
		i.mem.Release()
		i.mem = nil
	}
}
