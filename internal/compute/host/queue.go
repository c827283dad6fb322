package host

import (
	"fmt"
	"sync"

	"OSR/internal/compute"
)

type command struct {
	name string
	wait []*event
	run  func() error
	// always runs the command even if a prerequisite failed.
	always bool
	ev     *event
}

// Queue is an in-order command queue drained by one goroutine.
type Queue struct {
	dev *Device

	mu      sync.Mutex
	cond    *sync.Cond
	pending []*command
	closed  bool
	done    chan struct{}
}

func newQueue(dev *Device) *Queue {
	q := &Queue{dev: dev, done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.loop()
	return q
}

func (q *Queue) loop() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		cmd := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		q.execute(cmd)
	}
}

func (q *Queue) execute(cmd *command) {
	var depErr error
	for _, w := range cmd.wait {
		if err := w.Wait(); err != nil && depErr == nil {
			depErr = fmt.Errorf("%w: %w", compute.ErrDependencyFailed, err)
		}
	}
	ev := cmd.ev
	ev.start = q.dev.now()
	var err error
	if depErr == nil || cmd.always {
		err = cmd.run()
	}
	ev.end = q.dev.now()
	switch {
	case depErr != nil && err != nil:
		ev.err = fmt.Errorf("%s: %w (%v)", cmd.name, depErr, err)
	case depErr != nil:
		ev.err = fmt.Errorf("%s: %w", cmd.name, depErr)
	case err != nil:
		ev.err = fmt.Errorf("%s: %w", cmd.name, err)
	}
	close(ev.done)
}

func (q *Queue) enqueue(cmd *command, wait []compute.Event) (compute.Event, error) {
	deps, err := hostEvents(wait)
	if err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", cmd.name, err)
	}
	cmd.wait = deps
	cmd.ev = &event{
		name:      cmd.name,
		done:      make(chan struct{}),
		profiling: q.dev.profiling,
		queued:    q.dev.now(),
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, fmt.Errorf("enqueue %s: %w", cmd.name, compute.ErrReleased)
	}
	q.pending = append(q.pending, cmd)
	q.cond.Signal()
	return cmd.ev, nil
}

func hostEvents(wait []compute.Event) ([]*event, error) {
	deps := make([]*event, 0, len(wait))
	for _, w := range wait {
		if w == nil {
			continue
		}
		e, ok := w.(*event)
		if !ok {
			return nil, &compute.DeviceError{Op: "wait list", Code: -57, Err: compute.ErrForeignObject}
		}
		deps = append(deps, e)
	}
	return deps, nil
}

func (q *Queue) EnqueueKernel(k compute.Kernel, global []int, wait []compute.Event) (compute.Event, error) {
	hk, ok := k.(*kernel)
	if !ok {
		return nil, &compute.DeviceError{Op: "enqueue kernel", Code: -48, Err: compute.ErrForeignObject}
	}
	if len(global) < 1 || len(global) > 2 {
		return nil, &compute.DeviceError{Op: "enqueue " + hk.name, Code: -53, Err: compute.ErrInvalidArgument}
	}
	for _, g := range global {
		if g <= 0 {
			return nil, &compute.DeviceError{Op: "enqueue " + hk.name, Code: -63, Err: compute.ErrInvalidArgument}
		}
	}
	// Arguments are captured at enqueue time; rebinding afterwards only
	// affects later launches.
	args, err := hk.snapshot()
	if err != nil {
		return nil, err
	}
	size := append([]int(nil), global...)
	return q.enqueue(&command{
		name: hk.name,
		run: func() error {
			item, err := hk.fn(args, size)
			if err != nil {
				return &compute.DeviceError{Op: "launch " + hk.name, Code: -52, Err: err}
			}
			return dispatch(hk.name, size, q.dev.workers, item)
		},
	}, wait)
}

func (q *Queue) EnqueueWriteBuffer(buf compute.Buffer, data []float32, wait []compute.Event) (compute.Event, error) {
	dst, err := Data(buf)
	if err != nil {
		return nil, &compute.DeviceError{Op: "write buffer", Code: -38, Err: err}
	}
	if len(data) > len(dst) {
		return nil, &compute.DeviceError{Op: "write buffer", Code: -30, Err: compute.ErrInvalidArgument}
	}
	return q.enqueue(&command{
		name: "write buffer",
		run: func() error {
			copy(dst, data)
			return nil
		},
	}, wait)
}

func (q *Queue) EnqueueReadBuffer(buf compute.Buffer, dst []float32, wait []compute.Event) (compute.Event, error) {
	src, err := Data(buf)
	if err != nil {
		return nil, &compute.DeviceError{Op: "read buffer", Code: -38, Err: err}
	}
	if len(dst) > len(src) {
		return nil, &compute.DeviceError{Op: "read buffer", Code: -30, Err: compute.ErrInvalidArgument}
	}
	return q.enqueue(&command{
		name: "read buffer",
		run: func() error {
			copy(dst, src)
			return nil
		},
	}, wait)
}

func hostImages(op string, images []compute.Image) ([]*Image, error) {
	out := make([]*Image, len(images))
	for i, img := range images {
		hi, ok := img.(*Image)
		if !ok {
			return nil, &compute.DeviceError{Op: op, Code: -38, Err: compute.ErrForeignObject}
		}
		out[i] = hi
	}
	return out, nil
}

func (q *Queue) EnqueueAcquire(images []compute.Image, wait []compute.Event) (compute.Event, error) {
	imgs, err := hostImages("acquire images", images)
	if err != nil {
		return nil, err
	}
	return q.enqueue(&command{
		name: "acquire images",
		run: func() error {
			for _, img := range imgs {
				if err := img.own.Acquire(); err != nil {
					return err
				}
			}
			return nil
		},
	}, wait)
}

func (q *Queue) EnqueueRelease(images []compute.Image, wait []compute.Event) (compute.Event, error) {
	imgs, err := hostImages("release images", images)
	if err != nil {
		return nil, err
	}
	return q.enqueue(&command{
		name:   "release images",
		always: true,
		run: func() error {
			var first error
			for _, img := range imgs {
				if err := img.own.Release(); err != nil && first == nil {
					first = err
				}
			}
			return first
		},
	}, wait)
}

// Finish enqueues a marker and waits for it.
func (q *Queue) Finish() error {
	ev, err := q.enqueue(&command{name: "finish", always: true, run: func() error { return nil }}, nil)
	if err != nil {
		return err
	}
	return ev.Wait()
}

func (q *Queue) close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
	<-q.done
}
