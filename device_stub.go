//go:build !opencl

package main

import (
	"errors"

	"github.com/rs/zerolog"

	"OSR/internal/compute"
)

func openCLDevice(zerolog.Logger) (compute.Device, error) {
	return nil, errors.New("OpenCL support is not enabled; rebuild with -tags opencl")
}
