package ocean

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"OSR/internal/compute"
)

// Gravity is standard gravity in m/s².
const Gravity = 9.80665

// minWavenumber suppresses the DC term and any cell closer to it.
const minWavenumber = 1e-5

// Grid is the sample count of the height field along X and Z.
type Grid struct {
	X, Y int
}

// HalfX is the number of stored complex columns of a Hermitian row.
func (g Grid) HalfX() int { return g.X/2 + 1 }

func (g Grid) String() string { return fmt.Sprintf("%dx%d", g.X, g.Y) }

// Params describes the simulated ocean patch.
type Params struct {
	Grid Grid
	// TilePhysical is the patch size in meters. Y is unused by the spectrum.
	TilePhysical r3.Vec
	// TileLogical is the patch size in render units.
	TileLogical            r3.Vec
	Amplitude              float64
	WavelengthLowThreshold float64
	WindDirection          r2.Vec
	WindSpeed              float64
	// Seed feeds the normal samples of the initial spectrum.
	Seed int64
}

// DefaultParams returns a 512x512 patch of 20 m driven by a 15 m/s wind
// along +X.
func DefaultParams() Params {
	p := Params{
		Grid:                   Grid{X: 512, Y: 512},
		TilePhysical:           r3.Vec{X: 20, Y: 20, Z: 20},
		TileLogical:            r3.Vec{X: 10, Y: 10, Z: 10},
		Amplitude:              1e-3,
		WavelengthLowThreshold: 0.25,
	}
	p.SetWindVector(r2.Vec{X: 15, Y: 0})
	return p
}

// SetWindVector stores the magnitude of v as wind speed and its direction.
// A zero vector means no wind: speed 0 with direction +X.
func (p *Params) SetWindVector(v r2.Vec) {
	speed := r2.Norm(v)
	if speed == 0 || math.IsNaN(speed) {
		p.WindSpeed = 0
		p.WindDirection = r2.Vec{X: 1}
		return
	}
	p.WindSpeed = speed
	p.WindDirection = r2.Scale(1/speed, v)
}

// WindVector is the wind velocity in m/s.
func (p Params) WindVector() r2.Vec {
	return r2.Scale(p.WindSpeed, p.WindDirection)
}

// SpectrumLen is the float32 count of the initial spectrum buffer.
func (p Params) SpectrumLen() int {
	return p.Grid.HalfX() * p.Grid.Y * 2
}

// DisplacementScale converts meters into render units per axis.
func (p Params) DisplacementScale() [4]float32 {
	return [4]float32{
		float32(p.TileLogical.X / p.TilePhysical.X),
		float32(p.TileLogical.Y / p.TilePhysical.Y),
		float32(p.TileLogical.Z / p.TilePhysical.Z),
		0,
	}
}

func (p Params) Validate() error {
	switch {
	case p.Grid.X < 2 || p.Grid.Y < 1 || p.Grid.X%2 != 0:
		return fmt.Errorf("grid %s: %w", p.Grid, compute.ErrInvalidArgument)
	case p.TilePhysical.X <= 0 || p.TilePhysical.Y <= 0 || p.TilePhysical.Z <= 0:
		return fmt.Errorf("physical tile size %v: %w", p.TilePhysical, compute.ErrInvalidArgument)
	case p.TileLogical.X <= 0 || p.TileLogical.Y <= 0 || p.TileLogical.Z <= 0:
		return fmt.Errorf("logical tile size %v: %w", p.TileLogical, compute.ErrInvalidArgument)
	case p.Amplitude < 0 || math.IsNaN(p.Amplitude):
		return fmt.Errorf("amplitude %g: %w", p.Amplitude, compute.ErrInvalidArgument)
	case p.WavelengthLowThreshold < 0 || math.IsNaN(p.WavelengthLowThreshold):
		return fmt.Errorf("wavelength threshold %g: %w", p.WavelengthLowThreshold, compute.ErrInvalidArgument)
	case p.WindSpeed < 0 || math.IsNaN(p.WindSpeed):
		return fmt.Errorf("wind speed %g: %w", p.WindSpeed, compute.ErrInvalidArgument)
	}
	if n := r2.Norm(p.WindDirection); math.Abs(n-1) > 1e-6 {
		return fmt.Errorf("wind direction %v is not a unit vector: %w", p.WindDirection, compute.ErrInvalidArgument)
	}
	return nil
}

// signedIndex wraps i into [-n/2, n/2).
func signedIndex(i, n int) int {
	if i >= n/2 {
		return i - n
	}
	return i
}

// wavevector returns the wave vector of stored cell (i, j).
func (p Params) wavevector(i, j int) (kx, kz float64) {
	kx = 2 * math.Pi * float64(signedIndex(i, p.Grid.X)) / p.TilePhysical.X
	kz = 2 * math.Pi * float64(signedIndex(j, p.Grid.Y)) / p.TilePhysical.Z
	return kx, kz
}

// Phillips evaluates the wind driven power spectrum at cell (i, j) with a
// capillary cutoff below WavelengthLowThreshold.
func (p Params) Phillips(i, j int) float64 {
	kx, kz := p.wavevector(i, j)
	k := math.Hypot(kx, kz)
	if k < minWavenumber || p.WindSpeed == 0 {
		return 0
	}
	l := p.WindSpeed * p.WindSpeed / Gravity
	k2 := k * k
	dampLarge := math.Exp(-1 / (k2 * l * l))
	dampSmall := math.Exp(-k2 * p.WavelengthLowThreshold * p.WavelengthLowThreshold)
	cos := r2.Dot(r2.Vec{X: kx, Y: kz}, p.WindDirection) / k
	return p.Amplitude * dampLarge * dampSmall * cos * cos / (k2 * k2)
}
