package ocean

import (
	"fmt"

	"OSR/internal/compute"
	"OSR/internal/gfx"
)

// SharedTexture is a renderer texture together with its compute view. The
// compute side may only write between acquire and release; the graphics side
// may only sample or build mipmaps outside that window.
type SharedTexture struct {
	graphics *gfx.Context
	tex      *gfx.Texture
	img      compute.Image
}

// NewSharedTexture creates a texture and shares it with dev. The result
// starts graphics owned with its mip chain built; the caller owns it and must
// call Release.
func NewSharedTexture(dev compute.Device, graphics *gfx.Context, width, height int, format gfx.Format) (*SharedTexture, error) {
	tex, err := graphics.NewTexture(width, height, format)
	if err != nil {
		return nil, err
	}
	tex.SetWrapMode(gfx.WrapRepeat)
	tex.SetMagFilter(gfx.FilterLinear)
	tex.SetMinFilter(gfx.FilterMipmap)
	tex.SetMaxAnisotropy(2)

	img, err := dev.NewSharedImage(tex)
	if err != nil {
		return nil, fmt.Errorf("sharing %s texture with %s: %w", format, dev.Name(), err)
	}
	tex.GenerateMipmap()
	return &SharedTexture{graphics: graphics, tex: tex, img: img}, nil
}

// Texture returns the graphics side of the pair.
func (s *SharedTexture) Texture() *gfx.Texture { return s.tex }

// Image returns the compute view. It is nil after Release.
func (s *SharedTexture) Image() compute.Image { return s.img }

// Owner reports which side may touch the texels.
func (s *SharedTexture) Owner() compute.Domain { return s.img.Owner() }

// GenerateMipmap rebuilds the mip chain from level 0.
func (s *SharedTexture) GenerateMipmap() error {
	if owner := s.img.Owner(); owner != compute.GraphicsOwned {
		return fmt.Errorf("mipmap generation on %s owned texture %d: %w", owner, s.tex.ID(), compute.ErrOwnership)
	}
	s.tex.GenerateMipmap()
	return nil
}

// Bind attaches the texture to a texture unit of the graphics context.
func (s *SharedTexture) Bind(unit int) error {
	return s.graphics.Bind(unit, s.tex)
}

// Release drops the compute view. Later calls are no-ops.
func (s *SharedTexture) Release() {
	if s.img != nil {
		s.img.Release()
		s.img = nil
	}
}
