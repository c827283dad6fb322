package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"OSR/internal/compute"
	"OSR/internal/compute/host"
)

// openDevice creates the compute device named by backend.
func openDevice(backend string, workers int, l zerolog.Logger) (compute.Device, error) {
	switch backend {
	case "", "host":
		opts := []host.Option{host.WithLogger(l)}
		if workers > 0 {
			opts = append(opts, host.WithWorkers(workers))
		}
		return host.NewDevice(opts...), nil
	case "opencl":
		return openCLDevice(l)
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}
