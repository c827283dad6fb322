//go:build opencl

package opencl

import (
	"fmt"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"

	"OSR/internal/compute"
)

type program struct {
	path    string
	program *cl.Program
}

func (p *program) CreateKernel(name string) (compute.Kernel, error) {
	k, err := p.program.CreateKernel(name)
	if err != nil {
		return nil, &compute.DeviceError{Op: fmt.Sprintf("create kernel %q from %s", name, p.path), Code: -46, Err: err}
	}
	return &kernel{name: name, kernel: k}, nil
}

func (p *program) Release() {
	if p.program != nil {
		p.program.Release()
		p.program = nil
	}
}

type kernel struct {
	name   string
	kernel *cl.Kernel
}

func (k *kernel) Name() string { return k.name }

func (k *kernel) SetArg(index int, value any) error {
	var err error
	switch v := value.(type) {
	case *buffer:
		err = k.kernel.SetArgBuffer(index, v.mem)
	case *Image:
		err = k.kernel.SetArgBuffer(index, v.mem)
	case int32:
		err = k.kernel.SetArgInt32(index, v)
	case float32:
		err = k.kernel.SetArgFloat32(index, v)
	case [4]float32:
		err = k.kernel.SetArgUnsafe(index, int(unsafe.Sizeof(v)), unsafe.Pointer(&v[0]))
	default:
		return &compute.DeviceError{
			Op:   fmt.Sprintf("set arg %d of %s to %T", index, k.name, value),
			Code: -50,
			Err:  compute.ErrInvalidArgument,
		}
	}
	if err != nil {
		return &compute.DeviceError{Op: fmt.Sprintf("set arg %d of %s", index, k.name), Code: -50, Err: err}
	}
	return nil
}

func (k *kernel) SetArgs(values ...any) error {
	for i, v := range values {
		if err := k.SetArg(i, v); err != nil {
			return err
		}
	}
	return nil
}

func (k *kernel) Release() {
	if k.kernel != nil {
		k.kernel.Release()
		k.kernel = nil
	}
}
