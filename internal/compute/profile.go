package compute

import "time"

// Profile holds device timestamps in nanoseconds, as reported for
// CL_PROFILING_COMMAND_QUEUED/START/END.
type Profile struct {
	Queued int64
	Start  int64
	End    int64
}

func (p Profile) Duration() time.Duration {
	return time.Duration(p.End - p.Start)
}

// Milliseconds is the execution time as a float, the unit used by the
// timing overlay.
func (p Profile) Milliseconds() float64 {
	return float64(p.End-p.Start) * 1e-6
}

// Span returns the time from the start of first to the end of last.
func Span(first, last Event) (time.Duration, error) {
	a, err := first.Profile()
	if err != nil {
		return 0, err
	}
	b, err := last.Profile()
	if err != nil {
		return 0, err
	}
	return time.Duration(b.End - a.Start), nil
}
