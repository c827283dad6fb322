//go:build opencl

package opencl

import (
	"errors"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"

	"OSR/internal/compute"
)

// Queue wraps the profiling command queue of a Device.
type Queue struct {
	dev   *Device
	queue *cl.CommandQueue
}

func (q *Queue) EnqueueKernel(k compute.Kernel, global []int, wait []compute.Event) (compute.Event, error) {
	ck, ok := k.(*kernel)
	if !ok {
		return nil, &compute.DeviceError{Op: "enqueue kernel", Code: -48, Err: compute.ErrForeignObject}
	}
	if ck.kernel == nil {
		return nil, &compute.DeviceError{Op: "enqueue " + ck.name, Code: -48, Err: compute.ErrReleased}
	}
	deps, err := clEvents(wait)
	if err != nil {
		return nil, err
	}
	ev, err := q.queue.EnqueueNDRangeKernel(ck.kernel, nil, global, nil, deps)
	if err != nil {
		return nil, &compute.DeviceError{Op: "enqueue " + ck.name, Err: err}
	}
	return single(ck.name, ev, nil), nil
}

func (q *Queue) EnqueueWriteBuffer(buf compute.Buffer, data []float32, wait []compute.Event) (compute.Event, error) {
	mem, err := memOf(buf)
	if err != nil {
		return nil, &compute.DeviceError{Op: "write buffer", Code: -38, Err: err}
	}
	if len(data) > buf.Len() || len(data) == 0 {
		return nil, &compute.DeviceError{Op: "write buffer", Code: -30, Err: compute.ErrInvalidArgument}
	}
	deps, err := clEvents(wait)
	if err != nil {
		return nil, err
	}
	// The write is non-blocking, so the caller may reuse data right away.
	src := append([]float32(nil), data...)
	ev, err := q.queue.EnqueueWriteBufferFloat32(mem, false, 0, src, deps)
	if err != nil {
		return nil, &compute.DeviceError{Op: "write buffer", Err: err}
	}
	return single("write buffer", ev, src), nil
}

func (q *Queue) EnqueueReadBuffer(buf compute.Buffer, dst []float32, wait []compute.Event) (compute.Event, error) {
	mem, err := memOf(buf)
	if err != nil {
		return nil, &compute.DeviceError{Op: "read buffer", Code: -38, Err: err}
	}
	if len(dst) > buf.Len() || len(dst) == 0 {
		return nil, &compute.DeviceError{Op: "read buffer", Code: -30, Err: compute.ErrInvalidArgument}
	}
	deps, err := clEvents(wait)
	if err != nil {
		return nil, err
	}
	ev, err := q.queue.EnqueueReadBufferFloat32(mem, false, 0, dst, deps)
	if err != nil {
		return nil, &compute.DeviceError{Op: "read buffer", Err: err}
	}
	return single("read buffer", ev, dst), nil
}

func clImages(op string, images []compute.Image) ([]*Image, error) {
	out := make([]*Image, len(images))
	for i, img := range images {
		ci, ok := img.(*Image)
		if !ok {
			return nil, &compute.DeviceError{Op: op, Code: -38, Err: compute.ErrForeignObject}
		}
		if ci.mem == nil {
			return nil, &compute.DeviceError{Op: op, Code: -38, Err: compute.ErrReleased}
		}
		out[i] = ci
	}
	return out, nil
}

// EnqueueAcquire joins the wait list in a marker. Texel data moves on
// release only, since kernels overwrite the whole image. The ownership tag
// flips to compute when the command is enqueued, not when the device runs
// the marker, so graphics-side checks must not treat the tag as completion.
func (q *Queue) EnqueueAcquire(images []compute.Image, wait []compute.Event) (compute.Event, error) {
	imgs, err := clImages("acquire images", images)
	if err != nil {
		return nil, err
	}
	deps, err := clEvents(wait)
	if err != nil {
		return nil, err
	}
	for i, img := range imgs {
		if err := img.own.Acquire(); err != nil {
			for _, done := range imgs[:i] {
				_ = done.own.Release()
			}
			return nil, &compute.DeviceError{Op: "acquire images", Code: -59, Err: err}
		}
	}
	ev, err := q.queue.EnqueueMarkerWithWaitList(deps)
	if err != nil {
		for _, img := range imgs {
			_ = img.own.Release()
		}
		return nil, &compute.DeviceError{Op: "acquire images", Err: err}
	}
	return single("acquire images", ev, nil), nil
}

// EnqueueRelease copies every image back into its texture. Ownership returns
// to the graphics side when the event is waited on, whether or not the copy
// ran.
func (q *Queue) EnqueueRelease(images []compute.Image, wait []compute.Event) (compute.Event, error) {
	imgs, err := clImages("release images", images)
	if err != nil {
		return nil, err
	}
	if len(imgs) == 0 {
		return nil, &compute.DeviceError{Op: "release images", Code: -30, Err: compute.ErrInvalidArgument}
	}
	for _, img := range imgs {
		if img.Owner() != compute.ComputeOwned {
			return nil, &compute.DeviceError{Op: "release images", Code: -59, Err: compute.ErrOwnership}
		}
	}
	deps, err := clEvents(wait)
	if err != nil {
		return nil, err
	}
	var evs []*cl.Event
	for _, img := range imgs {
		pix := img.tex.Pixels()
		ev, err := q.queue.EnqueueReadBuffer(img.mem, false, 0, img.size, unsafe.Pointer(&pix[0]), deps)
		if err != nil {
			if len(evs) > 0 {
				_ = cl.WaitForEvents(evs)
			}
			for _, e := range evs {
				e.Release()
			}
			for _, img := range imgs {
				_ = img.own.Release()
			}
			return nil, &compute.DeviceError{Op: "release images", Err: err}
		}
		evs = append(evs, ev)
	}
	return &event{
		name:  "release images",
		first: evs[0],
		last:  evs[len(evs)-1],
		all:   evs,
		keep:  imgs,
		onWait: func(err error) error {
			errs := []error{err}
			for _, img := range imgs {
				errs = append(errs, img.own.Release())
			}
			return errors.Join(errs...)
		},
	}, nil
}

func (q *Queue) Finish() error {
	if err := q.queue.Finish(); err != nil {
		return &compute.DeviceError{Op: "finish", Err: err}
	}
	return nil
}
