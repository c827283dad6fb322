package host

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	"OSR/internal/compute"
)

// KernelFunc resolves the arguments of one launch and returns the work item
// body, called once per index of the global range. Errors returned here fail
// the launch; the body itself cannot fail.
type KernelFunc func(args Args, global []int) (func(x, y int), error)

var (
	registryMu sync.RWMutex
	registry   = map[string]KernelFunc{}
)

// RegisterKernel makes fn available to programs that declare a kernel called
// name. It panics on duplicate registration.
func RegisterKernel(name string, fn KernelFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("host: kernel registered twice: " + name)
	}
	registry[name] = fn
}

func lookupKernel(name string) (KernelFunc, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	fn, ok := registry[name]
	return fn, ok
}

var kernelDecl = regexp.MustCompile(`(?m)(?:__kernel|kernel)\s+void\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

type program struct {
	path    string
	kernels map[string]KernelFunc
}

// BuildProgram scans source for kernel entry points and links each one to
// its registered Go implementation. A declared kernel without an
// implementation fails the build like a compiler error would.
func (d *Device) BuildProgram(path string, source []byte) (compute.Program, error) {
	if d.closed.Load() {
		return nil, compute.ErrReleased
	}
	matches := kernelDecl.FindAllSubmatch(source, -1)
	if len(matches) == 0 {
		return nil, &compute.BuildError{Program: path, Logs: map[string]string{
			d.Name(): fmt.Sprintf("%s: no kernel entry points found", path),
		}}
	}
	p := &program{path: path, kernels: make(map[string]KernelFunc, len(matches))}
	var missing []string
	for _, m := range matches {
		name := string(m[1])
		fn, ok := lookupKernel(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		p.kernels[name] = fn
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &compute.BuildError{Program: path, Logs: map[string]string{
			d.Name(): fmt.Sprintf("%s: no host implementation for kernels %v", path, missing),
		}}
	}
	d.log.Debug().Str("program", path).Int("kernels", len(p.kernels)).Msg("program built")
	return p, nil
}

func (p *program) CreateKernel(name string) (compute.Kernel, error) {
	fn, ok := p.kernels[name]
	if !ok {
		return nil, &compute.DeviceError{
			Op:   fmt.Sprintf("create kernel %q from %s", name, p.path),
			Code: -46,
			Err:  compute.ErrInvalidArgument,
		}
	}
	return &kernel{name: name, fn: fn}, nil
}

func (p *program) Release() {}

type kernel struct {
	name string
	fn   KernelFunc

	mu   sync.Mutex
	args []any
}

func (k *kernel) Name() string { return k.name }

func (k *kernel) SetArg(index int, value any) error {
	if index < 0 {
		return &compute.DeviceError{Op: "set arg of " + k.name, Code: -49, Err: compute.ErrInvalidArgument}
	}
	switch value.(type) {
	case *buffer, *Image, int32, float32, [4]float32:
	default:
		return &compute.DeviceError{
			Op:   fmt.Sprintf("set arg %d of %s to %T", index, k.name, value),
			Code: -50,
			Err:  compute.ErrInvalidArgument,
		}
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	for len(k.args) <= index {
		k.args = append(k.args, nil)
	}
	k.args[index] = value
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

func (k *kernel) snapshot() (Args, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for i, a := range k.args {
		if a == nil {
			return Args{}, &compute.DeviceError{
				Op:   fmt.Sprintf("enqueue %s: argument %d not set", k.name, i),
				Code: -52,
				Err:  compute.ErrInvalidArgument,
			}
		}
	}
	return Args{kernel: k.name, values: append([]any(nil), k.args...)}, nil
}

func (k *kernel) Release() {}

// Args gives typed access to the arguments of a launch.
type Args struct {
	kernel string
	values []any
}

func (a Args) get(i int) (any, error) {
	if i < 0 || i >= len(a.values) {
		return nil, fmt.Errorf("%s: argument %d not set: %w", a.kernel, i, compute.ErrInvalidArgument)
	}
	return a.values[i], nil
}

func argTypeError(kernel string, i int, want string, got any) error {
	return fmt.Errorf("%s: argument %d is %T, want %s: %w", kernel, i, got, want, compute.ErrInvalidArgument)
}

// Buffer returns the storage of a buffer argument.
func (a Args) Buffer(i int) ([]float32, error) {
	v, err := a.get(i)
	if err != nil {
		return nil, err
	}
	b, ok := v.(*buffer)
	if !ok {
		return nil, argTypeError(a.kernel, i, "buffer", v)
	}
	return Data(b)
}

// Image returns an image argument.
func (a Args) Image(i int) (*Image, error) {
	v, err := a.get(i)
	if err != nil {
		return nil, err
	}
	img, ok := v.(*Image)
	if !ok {
		return nil, argTypeError(a.kernel, i, "image", v)
	}
	return img, nil
}

func (a Args) Int32(i int) (int32, error) {
	v, err := a.get(i)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int32)
	if !ok {
		return 0, argTypeError(a.kernel, i, "int32", v)
	}
	return n, nil
}

func (a Args) Float32(i int) (float32, error) {
	v, err := a.get(i)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float32)
	if !ok {
		return 0, argTypeError(a.kernel, i, "float32", v)
	}
	return f, nil
}

func (a Args) Vec4(i int) ([4]float32, error) {
	v, err := a.get(i)
	if err != nil {
		return [4]float32{}, err
	}
	f, ok := v.([4]float32)
	if !ok {
		return [4]float32{}, argTypeError(a.kernel, i, "float4", v)
	}
	return f, nil
}
