package main

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/spatial/r2"
)

// handleControls processes the wind and amplitude hotkeys. Each change
// rebuilds the initial spectrum, so keys act on press rather than while held.
func (g *Game) handleControls() {
	p := g.geom.Params()
	speed, angle := p.WindSpeed, math.Atan2(p.WindDirection.Y, p.WindDirection.X)
	windChanged := false
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) {
		speed = math.Min(speed+windSpeedStep, maxWindSpeed)
		windChanged = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) {
		speed = math.Max(speed-windSpeedStep, 0)
		windChanged = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft) {
		angle += windTurnStep
		windChanged = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) {
		angle -= windTurnStep
		windChanged = true
	}
	if windChanged {
		g.setWind(windVector(speed, angle))
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract) {
		g.scaleAmplitude(1 / amplitudeStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyKPAdd) {
		g.scaleAmplitude(amplitudeStep)
	}
}

// windVector keeps the heading when the speed drops to zero.
func windVector(speed, angle float64) r2.Vec {
	if speed <= 0 {
		return r2.Vec{}
	}
	return r2.Vec{X: speed * math.Cos(angle), Y: speed * math.Sin(angle)}
}

func (g *Game) setWind(v r2.Vec) {
	if err := g.geom.SetWindVector(v); err != nil {
		log.Error().Err(err).Msg("wind change")
		return
	}
	p := g.geom.Params()
	log.Info().Float64("speed", p.WindSpeed).Float64("dir_x", p.WindDirection.X).Float64("dir_z", p.WindDirection.Y).Msg("wind changed")
}

// scaleAmplitude multiplies the amplitude, clamped to its bounds.
func (g *Game) scaleAmplitude(f float64) {
	a := clampAmplitude(g.geom.Params().Amplitude * f)
	if err := g.geom.SetAmplitude(a); err != nil {
		log.Error().Err(err).Msg("amplitude change")
		return
	}
	log.Info().Float64("amplitude", a).Msg("amplitude changed")
}

func clampAmplitude(a float64) float64 {
	return math.Max(minAmplitude, math.Min(maxAmplitude, a))
}
