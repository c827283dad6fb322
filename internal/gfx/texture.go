// Package gfx is the renderer side of the texture handoff: 2D textures with a
// pixel format, sampler state and a mip chain, plus the texture units a
// renderer binds them to.
package gfx

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Format is the pixel format of a texture.
type Format int

const (
	// FormatRGBA8 is four unsigned normalized 8-bit channels.
	FormatRGBA8 Format = iota
	// FormatRGBA8SNorm is four signed normalized 8-bit channels.
	FormatRGBA8SNorm
	// FormatRG16F is two binary16 channels.
	FormatRG16F
)

func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatRGBA8SNorm:
		return "RGBA8_SNORM"
	case FormatRG16F:
		return "RG16F"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Channels is the number of components per texel.
func (f Format) Channels() int {
	if f == FormatRG16F {
		return 2
	}
	return 4
}

// BytesPerPixel is the texel size. All supported formats use four bytes.
func (f Format) BytesPerPixel() int {
	return 4
}

func (f Format) valid() bool {
	return f >= FormatRGBA8 && f <= FormatRG16F
}

type WrapMode int

const (
	WrapClampToEdge WrapMode = iota
	WrapRepeat
)

type Filter int

const (
	FilterNearest Filter = iota
	FilterLinear
	// FilterMipmap is trilinear minification across the mip chain.
	FilterMipmap
)

var nextTextureID atomic.Uint32

// Texture is a 2D texture whose level 0 storage can be aliased by a compute
// image. Only level 0 is written from outside; the other levels are derived
// by GenerateMipmap.
type Texture struct {
	id            uint32
	width, height int
	format        Format
	levels        [][]byte

	wrap          WrapMode
	minFilter     Filter
	magFilter     Filter
	maxAnisotropy float32
	generation    uint64
}

// NewTexture allocates a zeroed texture with a single level.
func NewTexture(width, height int, format Format) (*Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("texture size %dx%d must be positive", width, height)
	}
	if !format.valid() {
		return nil, fmt.Errorf("unknown texture format %v", format)
	}
	return &Texture{
		id:            nextTextureID.Add(1),
		width:         width,
		height:        height,
		format:        format,
		levels:        [][]byte{make([]byte, width*height*format.BytesPerPixel())},
		minFilter:     FilterLinear,
		magFilter:     FilterLinear,
		maxAnisotropy: 1,
	}, nil
}

func (t *Texture) ID() uint32            { return t.id }
func (t *Texture) Width() int            { return t.width }
func (t *Texture) Height() int           { return t.height }
func (t *Texture) Format() Format        { return t.format }
func (t *Texture) Wrap() WrapMode        { return t.wrap }
func (t *Texture) MinFilter() Filter     { return t.minFilter }
func (t *Texture) MagFilter() Filter     { return t.magFilter }
func (t *Texture) MaxAnisotropy() float32 { return t.maxAnisotropy }

func (t *Texture) SetWrapMode(w WrapMode) { t.wrap = w }
func (t *Texture) SetMinFilter(f Filter)  { t.minFilter = f }
func (t *Texture) SetMagFilter(f Filter)  { t.magFilter = f }

func (t *Texture) SetMaxAnisotropy(a float32) {
	if a < 1 {
		a = 1
	}
	t.maxAnisotropy = a
}

// Pixels returns the level 0 backing store, row-major and tightly packed.
func (t *Texture) Pixels() []byte { return t.levels[0] }

// LevelCount is the number of levels currently allocated.
func (t *Texture) LevelCount() int { return len(t.levels) }

// Level returns the storage of mip level i.
func (t *Texture) Level(i int) []byte { return t.levels[i] }

// LevelSize returns the dimensions of mip level i.
func (t *Texture) LevelSize(i int) (int, int) {
	return levelDim(t.width, i), levelDim(t.height, i)
}

// Generation increases every time the mip chain is regenerated. Renderers
// use it to notice new content.
func (t *Texture) Generation() uint64 { return t.generation }

// Texel decodes the texel at (x, y) of level 0.
func (t *Texture) Texel(x, y int) [4]float32 {
	off := (y*t.width + x) * t.format.BytesPerPixel()
	return DecodeTexel(t.format, t.levels[0][off:])
}

func levelDim(n, level int) int {
	n >>= uint(level)
	if n < 1 {
		return 1
	}
	return n
}

// EncodeTexel writes v into dst using format f. Channels beyond the format's
// channel count are ignored.
func EncodeTexel(f Format, dst []byte, v [4]float32) {
	switch f {
	case FormatRGBA8:
		for c := 0; c < 4; c++ {
			dst[c] = uint8(math.Round(float64(clamp(v[c], 0, 1) * 255)))
		}
	case FormatRGBA8SNorm:
		for c := 0; c < 4; c++ {
			dst[c] = uint8(int8(math.Round(float64(clamp(v[c], -1, 1) * 127))))
		}
	case FormatRG16F:
		PutHalf(dst[0:], v[0])
		PutHalf(dst[2:], v[1])
	}
}

// DecodeTexel reads a texel of format f from src.
func DecodeTexel(f Format, src []byte) [4]float32 {
	var v [4]float32
	switch f {
	case FormatRGBA8:
		for c := 0; c < 4; c++ {
			v[c] = float32(src[c]) / 255
		}
	case FormatRGBA8SNorm:
		for c := 0; c < 4; c++ {
			v[c] = clamp(float32(int8(src[c]))/127, -1, 1)
		}
	case FormatRG16F:
		v[0] = Half(src[0:])
		v[1] = Half(src[2:])
	}
	return v
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
