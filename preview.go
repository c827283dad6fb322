package main

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"OSR/internal/gfx"
	"OSR/internal/ocean"
)

// preview turns one ocean texture into an RGBA image of a fixed size. It
// only reconverts when the texture changed.
type preview struct {
	tex        *gfx.Texture
	full       *image.RGBA
	scaled     *image.RGBA
	generation uint64
	colorize   func(v [4]float32) color.RGBA
}

func newPreview(tex *gfx.Texture, size int, colorize func([4]float32) color.RGBA) *preview {
	return &preview{
		tex:        tex,
		full:       image.NewRGBA(image.Rect(0, 0, tex.Width(), tex.Height())),
		scaled:     image.NewRGBA(image.Rect(0, 0, size, size)),
		generation: ^uint64(0),
		colorize:   colorize,
	}
}

// Update refreshes the scaled image and reports whether it changed.
func (p *preview) Update() bool {
	gen := p.tex.Generation()
	if gen == p.generation {
		return false
	}
	p.generation = gen
	w, h := p.tex.Width(), p.tex.Height()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p.full.SetRGBA(x, y, p.colorize(p.tex.Texel(x, y)))
		}
	}
	draw.ApproxBiLinear.Scale(p.scaled, p.scaled.Bounds(), p.full, p.full.Bounds(), draw.Src, nil)
	return true
}

func (p *preview) Image() *image.RGBA { return p.scaled }

// toByte maps [-1, 1] onto [0, 255].
func toByte(v float32) uint8 {
	v = v*0.5 + 0.5
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// displacementColor shows horizontal displacement in red and blue and
// height in green. Texels hold the biased unsigned encoding.
func displacementColor(v [4]float32) color.RGBA {
	return color.RGBA{
		R: toByte(ocean.DecodeDisplacement(v[0]) * displacementGain),
		G: toByte(ocean.DecodeDisplacement(v[1]) * displacementGain),
		B: toByte(ocean.DecodeDisplacement(v[2]) * displacementGain),
		A: 255,
	}
}

// gradientColor shows the X slope in red and the Z slope in green.
func gradientColor(v [4]float32) color.RGBA {
	return color.RGBA{
		R: toByte(v[0] * gradientGain),
		G: toByte(v[1] * gradientGain),
		B: 128,
		A: 255,
	}
}
