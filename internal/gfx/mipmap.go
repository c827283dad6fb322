package gfx

// GenerateMipmap rebuilds every level below 0 with a 2×2 box filter down to
// 1×1. Odd dimensions clamp the sample coordinates at the edge.
func (t *Texture) GenerateMipmap() {
	count := 1
	for w, h := t.width, t.height; w > 1 || h > 1; count++ {
		w, h = max(w/2, 1), max(h/2, 1)
	}
	bpp := t.format.BytesPerPixel()
	for len(t.levels) < count {
		w, h := t.LevelSize(len(t.levels))
		t.levels = append(t.levels, make([]byte, w*h*bpp))
	}
	t.levels = t.levels[:count]

	for level := 1; level < count; level++ {
		sw, sh := t.LevelSize(level - 1)
		dw, dh := t.LevelSize(level)
		src, dst := t.levels[level-1], t.levels[level]
		for y := 0; y < dh; y++ {
			y0, y1 := min(2*y, sh-1), min(2*y+1, sh-1)
			for x := 0; x < dw; x++ {
				x0, x1 := min(2*x, sw-1), min(2*x+1, sw-1)
				a := DecodeTexel(t.format, src[(y0*sw+x0)*bpp:])
				b := DecodeTexel(t.format, src[(y0*sw+x1)*bpp:])
				c := DecodeTexel(t.format, src[(y1*sw+x0)*bpp:])
				d := DecodeTexel(t.format, src[(y1*sw+x1)*bpp:])
				var avg [4]float32
				for ch := range avg {
					avg[ch] = (a[ch] + b[ch] + c[ch] + d[ch]) * 0.25
				}
				EncodeTexel(t.format, dst[(y*dw+x)*bpp:], avg)
			}
		}
	}
	t.generation++
}
