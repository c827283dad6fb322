package main

import (
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"OSR/internal/diag"
	"OSR/internal/ocean"
)

// Game drives one ocean geometry from the ebiten loop and shows its two
// textures side by side.
type Game struct {
	geom      *ocean.Geometry
	hub       *diag.Hub
	timeScale float64

	simTime         float64
	lastGenDuration time.Duration

	disp, grad       *preview
	dispImg, gradImg *ebiten.Image
}

func newGame(geom *ocean.Geometry, hub *diag.Hub, timeScale float64) *Game {
	return &Game{
		geom:      geom,
		hub:       hub,
		timeScale: timeScale,
		disp:      newPreview(geom.DisplacementTexture(), previewSize, displacementColor),
		grad:      newPreview(geom.HeightGradientTexture(), previewSize, gradientColor),
		dispImg:   ebiten.NewImage(previewSize, previewSize),
		gradImg:   ebiten.NewImage(previewSize, previewSize),
	}
}

// Update applies the controls and generates the next frame. A failed frame
// ends the run.
func (g *Game) Update() error {
	g.handleControls()
	return g.step()
}

// step generates the frame at the current simulation time and advances it.
func (g *Game) step() error {
	start := time.Now()
	if err := g.geom.Generate(g.simTime, nil); err != nil {
		return fmt.Errorf("frame at t=%.4f: %w", g.simTime, err)
	}
	g.lastGenDuration = time.Since(start)
	if g.hub != nil {
		g.hub.Publish(g.geom.Frames(), g.simTime, g.geom.Timings())
	}
	g.simTime += g.timeScale / float64(ebiten.TPS())
	return nil
}

func (g *Game) Layout(_, _ int) (int, int) { return 2 * previewSize, previewSize }
