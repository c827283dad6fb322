//go:build opencl

package main

import (
	"github.com/rs/zerolog"

	"OSR/internal/compute"
	"OSR/internal/compute/opencl"
)

func openCLDevice(l zerolog.Logger) (compute.Device, error) {
	d, err := opencl.NewDevice(opencl.WithLogger(l))
	if err != nil {
		return nil, err
	}
	return d, nil
}
