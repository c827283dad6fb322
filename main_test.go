package main

import (
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"OSR/internal/compute"
	"OSR/internal/compute/host"
	"OSR/internal/gfx"
	"OSR/internal/ocean"
)

func TestLoadSettingsMissingFileKeepsFlags(t *testing.T) {
	s, err := loadSettings(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "host", s.backend)
	assert.Equal(t, ocean.DefaultParams(), s.ocean)
	assert.Equal(t, zerolog.InfoLevel, s.logLevel)
}

func TestLoadSettingsAppliesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `backend: opencl
log_level: debug
time_scale: 2
diag_addr: ":9000"
ocean:
  grid: {x: 128, y: 64}
  amplitude: 0.01
  wind: {x: 0, y: 0}
  seed: 42
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	s, err := loadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "opencl", s.backend)
	assert.Equal(t, zerolog.DebugLevel, s.logLevel)
	assert.Equal(t, 2.0, s.timeScale)
	assert.Equal(t, ":9000", s.diagAddr)
	assert.Equal(t, ocean.Grid{X: 128, Y: 64}, s.ocean.Grid)
	assert.Equal(t, 0.01, s.ocean.Amplitude)
	assert.Equal(t, int64(42), s.ocean.Seed)
	assert.Zero(t, s.ocean.WindSpeed)
	assert.Equal(t, r2.Vec{X: 1}, s.ocean.WindDirection)
	// Unset values keep their defaults.
	assert.Equal(t, ocean.DefaultParams().TilePhysical, s.ocean.TilePhysical)
}

func TestLoadSettingsRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: vulkan\n"), 0o644))
	_, err := loadSettings(path)
	assert.Error(t, err)
}

func TestOpenDeviceUnknownBackend(t *testing.T) {
	_, err := openDevice("metal", 0, zerolog.Nop())
	assert.Error(t, err)
}

func TestWindVector(t *testing.T) {
	assert.Equal(t, r2.Vec{}, windVector(0, 1))
	v := windVector(10, math.Pi/2)
	assert.InDelta(t, 0, v.X, 1e-9)
	assert.InDelta(t, 10, v.Y, 1e-9)
}

func TestClampAmplitude(t *testing.T) {
	assert.Equal(t, minAmplitude, clampAmplitude(0))
	assert.Equal(t, maxAmplitude, clampAmplitude(5))
	assert.Equal(t, 0.01, clampAmplitude(0.01))
}

func TestToByte(t *testing.T) {
	assert.Equal(t, uint8(0), toByte(-1))
	assert.Equal(t, uint8(128), toByte(0))
	assert.Equal(t, uint8(255), toByte(1))
	assert.Equal(t, uint8(255), toByte(3))
}

func TestDisplacementColorDecodesBias(t *testing.T) {
	zero := ocean.EncodeDisplacement(0)
	assert.Equal(t, color.RGBA{R: 128, G: 128, B: 128, A: 255}, displacementColor([4]float32{zero, zero, zero, 1}))
	c := displacementColor([4]float32{ocean.EncodeDisplacement(-1), ocean.EncodeDisplacement(1), zero, 1})
	assert.Equal(t, uint8(0), c.R)
	assert.Equal(t, uint8(255), c.G)
}

func TestPreviewTracksGeneration(t *testing.T) {
	tex, err := gfx.NewTexture(8, 8, gfx.FormatRG16F)
	require.NoError(t, err)
	p := newPreview(tex, 4, gradientColor)

	assert.True(t, p.Update())
	assert.False(t, p.Update())
	assert.Equal(t, color.RGBA{R: 128, G: 128, B: 128, A: 255}, p.Image().RGBAAt(1, 1))

	tex.GenerateMipmap()
	assert.True(t, p.Update())
}

func TestRunHeadless(t *testing.T) {
	dev := host.NewDevice(host.WithWorkers(2))
	defer dev.Close()
	params := ocean.DefaultParams()
	params.Grid = ocean.Grid{X: 32, Y: 32}
	geom, err := ocean.NewGeometry(dev, gfx.NewContext(textureUnits), params, ocean.WithKernelDir("kernels"))
	require.NoError(t, err)
	defer geom.Close()

	stats, err := runHeadless(geom, 3, 1, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Len(t, stats.total, 3)
	assert.Equal(t, uint64(3), geom.Frames())
	assert.GreaterOrEqual(t, stats.MaxTotalMs()+1e-9, stats.Mean().TotalMs())
}

func TestStepReturnsGenerateError(t *testing.T) {
	dev := host.NewDevice()
	params := ocean.DefaultParams()
	params.Grid = ocean.Grid{X: 32, Y: 32}
	geom, err := ocean.NewGeometry(dev, gfx.NewContext(textureUnits), params, ocean.WithKernelDir("kernels"))
	require.NoError(t, err)
	g := &Game{geom: geom, timeScale: 1}

	require.NoError(t, g.step())
	advanced := g.simTime
	assert.Positive(t, advanced)

	dev.Close()
	err = g.step()
	assert.ErrorIs(t, err, compute.ErrReleased)
	assert.Contains(t, err.Error(), "frame at t=")
	assert.Equal(t, advanced, g.simTime)
	assert.Equal(t, uint64(1), geom.Frames())
}
