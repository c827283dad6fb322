package main

import "math"

// Window, control and preview constants for the ocean viewer.
const (
	previewSize    = 320
	windowScale    = 2
	defaultTPS     = 60.0
	textureUnits   = 4
	windSpeedStep  = 1.0
	maxWindSpeed   = 40.0
	windTurnStep   = math.Pi / 36
	amplitudeStep  = 1.25
	minAmplitude   = 1e-6
	maxAmplitude   = 1.0
	defaultConfig  = "config.yaml"
	headlessReport = 60

	// Preview gains map the decoded displacement and the gradient range onto
	// visible colors.
	displacementGain = 1.0
	gradientGain     = 0.5
)
