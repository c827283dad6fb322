//go:build opencl

package opencl

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jgillich/go-opencl/cl"

	"OSR/internal/compute"
)

// event covers one or more device commands. Profiles span from the start of
// first to the end of last.
type event struct {
	name        string
	first, last *cl.Event
	all         []*cl.Event

	// onWait runs once after the commands completed, with their error.
	onWait func(error) error
	// keep pins host memory the device reads from or writes to.
	keep any

	once     sync.Once
	err      error
	waited   atomic.Bool
	released atomic.Bool
}

func single(name string, ev *cl.Event, keep any) *event {
	return &event{name: name, first: ev, last: ev, all: []*cl.Event{ev}, keep: keep}
}

func (e *event) Wait() error {
	e.once.Do(func() {
		if err := cl.WaitForEvents(e.all); err != nil {
			e.err = &compute.DeviceError{Op: "wait " + e.name, Err: fmt.Errorf("%w: %w", compute.ErrDependencyFailed, err)}
		}
		if e.onWait != nil {
			e.err = e.onWait(e.err)
		}
		e.keep = nil
		e.waited.Store(true)
	})
	return e.err
}

func (e *event) Profile() (compute.Profile, error) {
	if !e.waited.Load() || e.released.Load() {
		return compute.Profile{}, compute.ErrProfilingUnavailable
	}
	queued, err := e.first.GetEventProfilingInfo(cl.ProfilingInfoCommandQueued)
	if err != nil {
		return compute.Profile{}, fmt.Errorf("%s: %w: %v", e.name, compute.ErrProfilingUnavailable, err)
	}
	start, err := e.first.GetEventProfilingInfo(cl.ProfilingInfoCommandStart)
	if err != nil {
		return compute.Profile{}, fmt.Errorf("%s: %w: %v", e.name, compute.ErrProfilingUnavailable, err)
	}
	end, err := e.last.GetEventProfilingInfo(cl.ProfilingInfoCommandEnd)
	if err != nil {
		return compute.Profile{}, fmt.Errorf("%s: %w: %v", e.name, compute.ErrProfilingUnavailable, err)
	}
	return compute.Profile{Queued: queued, Start: start, End: end}, nil
}

func (e *event) Release() {
	if e.released.Swap(true) {
		return
	}
	for _, ev := range e.all {
		ev.Release()
	}
}

func (e *event) String() string { return e.name }

// clEvents flattens a wait list into driver events.
func clEvents(wait []compute.Event) ([]*cl.Event, error) {
	var out []*cl.Event
	for _, w := range wait {
		if w == nil {
			continue
		}
		e, ok := w.(*event)
		if !ok {
			return nil, &compute.DeviceError{Op: "wait list", Code: -57, Err: compute.ErrForeignObject}
		}
		if e.released.Load() {
			return nil, &compute.DeviceError{Op: "wait list", Code: -58, Err: compute.ErrReleased}
		}
		out = append(out, e.all...)
	}
	return out, nil
}
