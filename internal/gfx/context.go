package gfx

import "fmt"

// Context hands out textures and tracks what is bound to each texture unit.
// It is used from the render goroutine only.
type Context struct {
	units []*Texture
}

// NewContext creates a context with the given number of texture units.
func NewContext(units int) *Context {
	if units < 1 {
		units = 1
	}
	return &Context{units: make([]*Texture, units)}
}

func (c *Context) NewTexture(width, height int, format Format) (*Texture, error) {
	return NewTexture(width, height, format)
}

// Bind attaches tex to unit. A nil texture unbinds the unit.
func (c *Context) Bind(unit int, tex *Texture) error {
	if unit < 0 || unit >= len(c.units) {
		return fmt.Errorf("texture unit %d out of range [0,%d)", unit, len(c.units))
	}
	c.units[unit] = tex
	return nil
}

// Bound returns the texture attached to unit, or nil.
func (c *Context) Bound(unit int) *Texture {
	if unit < 0 || unit >= len(c.units) {
		return nil
	}
	return c.units[unit]
}

func (c *Context) Units() int { return len(c.units) }
