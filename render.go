package main

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// Draw shows the displacement preview on the left, the height gradient on
// the right and the optional overlay.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.disp.Update() {
		g.dispImg.WritePixels(g.disp.Image().Pix)
	}
	if g.grad.Update() {
		g.gradImg.WritePixels(g.grad.Image().Pix)
	}
	screen.DrawImage(g.dispImg, nil)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(previewSize, 0)
	screen.DrawImage(g.gradImg, op)

	if *debugFlag {
		ebitenutil.DebugPrint(screen, g.overlayText())
	}
}

func (g *Game) overlayText() string {
	t := g.geom.Timings()
	p := g.geom.Params()
	return fmt.Sprintf("FPS: %.1f  TPS: %.1f\nFrame %d  t=%.2fs  gen %.2f ms\n"+
		"phase %.3f  fft %.3f  export %.3f  mipmap %.3f ms\n"+
		"wind %.1f m/s (%.2f, %.2f) arrows  amp %.2g +/-",
		ebiten.ActualFPS(), ebiten.ActualTPS(),
		g.geom.Frames(), g.simTime, g.lastGenDuration.Seconds()*1000,
		t.PhaseShiftMs, t.FFTMs, t.ExportMs, t.MipmapMs,
		p.WindSpeed, p.WindDirection.X, p.WindDirection.Y, p.Amplitude)
}
