package compute

import (
	"fmt"
	"sync"
)

// Domain names the API that currently owns a shared image.
type Domain int

const (
	GraphicsOwned Domain = iota
	ComputeOwned
)

func (d Domain) String() string {
	switch d {
	case GraphicsOwned:
		return "graphics"
	case ComputeOwned:
		return "compute"
	default:
		return fmt.Sprintf("Domain(%d)", int(d))
	}
}

// Ownership is the acquire/release state tag shared by image
// implementations. The zero value is graphics owned.
type Ownership struct {
	mu    sync.Mutex
	owner Domain
}

func (o *Ownership) Owner() Domain {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.owner
}

// Acquire moves ownership to the compute domain.
func (o *Ownership) Acquire() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.owner != GraphicsOwned {
		return fmt.Errorf("acquire of %s owned image: %w", o.owner, ErrOwnership)
	}
	o.owner = ComputeOwned
	return nil
}

// Release moves ownership back to the graphics domain.
func (o *Ownership) Release() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.owner != ComputeOwned {
		return fmt.Errorf("release of %s owned image: %w", o.owner, ErrOwnership)
	}
	o.owner = GraphicsOwned
	return nil
}
