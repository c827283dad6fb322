package host

import "OSR/internal/compute"

type event struct {
	name      string
	done      chan struct{}
	err       error
	profiling bool

	queued, start, end int64
}

func (e *event) Wait() error {
	<-e.done
	return e.err
}

func (e *event) Profile() (compute.Profile, error) {
	if !e.profiling {
		return compute.Profile{}, compute.ErrProfilingUnavailable
	}
	select {
	case <-e.done:
	default:
		return compute.Profile{}, compute.ErrProfilingUnavailable
	}
	return compute.Profile{Queued: e.queued, Start: e.start, End: e.end}, nil
}

func (e *event) Release() {}

func (e *event) String() string { return e.name }
