package main

import "flag"

// Command-line flags. Non-zero values of the optional config file override
// them.
var (
	configFlag = flag.String("config", defaultConfig, "path to an optional config.yaml")

	// backendFlag selects the compute device: host or opencl.
	backendFlag = flag.String("backend", "host", "compute backend: host | opencl (needs -tags opencl)")

	kernelDirFlag = flag.String("kernel-dir", "kernels", "directory holding phase_shift.cl and export_to_texture.cl")

	// debugFlag enables the FPS and timings overlay.
	debugFlag = flag.Bool("debug", false, "show FPS and stage timings overlay")

	logLevelFlag = flag.String("log-level", "info", "log level: trace | debug | info | warn | error")

	// timeScaleFlag multiplies the simulated time advanced per tick.
	timeScaleFlag = flag.Float64("time-scale", 1.0, "simulated seconds per wall-clock second")

	headlessFramesFlag = flag.Int("headless-frames", 0, "generate N frames without a window and log timing averages")

	cpuProfileFlag = flag.String("cpuprofile", "", "write a CPU profile to this path")
	memProfileFlag = flag.String("memprofile", "", "write a heap profile to this path on exit")

	// diagAddrFlag serves /timings (websocket) and /health when set.
	diagAddrFlag = flag.String("diag-addr", "", "listen address for the diagnostics server, e.g. :8080")

	workersFlag = flag.Int("workers", 0, "goroutines per host kernel dispatch (0 = NumCPU)")

	gridFlag = flag.Int("grid", 0, "square height field size (power of two; 0 = default 512)")

	seedFlag = flag.Int64("seed", 0, "seed of the initial spectrum")
)
