//go:build opencl

package opencl

import (
	"fmt"
	"math/bits"

	"github.com/jgillich/go-opencl/cl"

	"OSR/internal/compute"
)

// Stockham radix-2 passes. Offsets, strides and distances count float2
// values.
const fftKernelSource = `__kernel void fft_radix2(
	__global const float2* src, int src_off,
	__global float2* dst, int dst_off,
	int n, int p, int elem_stride, int line_stride, int batch_dist)
{
	int i = get_global_id(0);
	int base = get_global_id(2) * batch_dist + get_global_id(1) * line_stride;
	__global const float2* x = src + src_off + base;
	__global float2* y = dst + dst_off + base;

	int k = i & (p - 1);
	float2 u0 = x[i * elem_stride];
	float2 u1 = x[(i + (n >> 1)) * elem_stride];
	float c;
	float s = sincos(M_PI_F * (float)k / (float)p, &c);
	float2 t = (float2)(u1.x * c - u1.y * s, u1.x * s + u1.y * c);

	int j = (i << 1) - k;
	y[j * elem_stride] = u0 + t;
	y[(j + p) * elem_stride] = u0 - t;
}

__kernel void hermitian_expand(
	__global const float2* src, int src_off,
	__global float2* dst, int dst_off,
	int n, int m)
{
	int x = get_global_id(0);
	int y = get_global_id(1);
	int b = get_global_id(2);
	int hw = (n >> 1) + 1;
	__global const float2* row = src + src_off + (b * m + y) * hw;
	float2 v;
	if (x < hw) {
		v = row[x];
	} else {
		v = row[n - x];
		v.y = -v.y;
	}
	dst[dst_off + (b * m + y) * n + x] = v;
}

__kernel void take_real(
	__global const float2* src, int src_off,
	__global float* dst, int n, int m)
{
	int x = get_global_id(0);
	int y = get_global_id(1);
	int b = get_global_id(2);
	float v = 0.0f;
	if (x < n) {
		v = src[src_off + (b * m + y) * n + x].x;
	}
	dst[(b * m + y) * (n + 2) + x] = v;
}
`

type fftPlan struct {
	desc    compute.FFTDesc
	program *cl.Program
	radix2  *cl.Kernel
	expand  *cl.Kernel
	real    *cl.Kernel

	// Scratch regions in float2 values: column results, expanded rows and
	// the row ping-pong target.
	offA, offB, offC int
}

func newFFTPlan(d *Device, desc compute.FFTDesc) (*fftPlan, error) {
	if err := desc.CheckHermitianInverse(); err != nil {
		return nil, err
	}
	n, m := desc.Lengths[0], desc.Lengths[1]
	if !compute.IsPowerOfTwo(n) || !compute.IsPowerOfTwo(m) {
		return nil, fmt.Errorf("fft lengths %dx%d are not powers of two: %w", n, m, compute.ErrUnsupportedLayout)
	}
	prog, err := d.BuildProgram("fft_radix2.cl", []byte(fftKernelSource))
	if err != nil {
		return nil, err
	}
	p := &fftPlan{desc: desc, program: prog.(*program).program}
	for name, dst := range map[string]**cl.Kernel{
		"fft_radix2":       &p.radix2,
		"hermitian_expand": &p.expand,
		"take_real":        &p.real,
	} {
		if *dst, err = p.program.CreateKernel(name); err != nil {
			p.Release()
			return nil, &compute.DeviceError{Op: "create fft kernel " + name, Code: -46, Err: err}
		}
	}
	half := desc.Batches * m * (n/2 + 1)
	full := desc.Batches * m * n
	p.offA, p.offB, p.offC = 0, half, half+full
	return p, nil
}

func (p *fftPlan) Desc() compute.FFTDesc { return p.desc }

func (p *fftPlan) TempBufferLen() int {
	return 2 * (p.offC + p.desc.Batches*p.desc.Lengths[0]*p.desc.Lengths[1])
}

func (p *fftPlan) Release() {
	for _, k := range []*cl.Kernel{p.radix2, p.expand, p.real} {
		if k != nil {
			k.Release()
		}
	}
	p.radix2, p.expand, p.real = nil, nil, nil
	if p.program != nil {
		p.program.Release()
		p.program = nil
	}
}

// fftRun collects the launches of one transform.
type fftRun struct {
	q    *Queue
	wait []*cl.Event
	evs  []*cl.Event
}

func (r *fftRun) launch(k *cl.Kernel, global []int, args ...any) error {
	for i, a := range args {
		var err error
		switch v := a.(type) {
		case *cl.MemObject:
			err = k.SetArgBuffer(i, v)
		case int:
			err = k.SetArgInt32(i, int32(v))
		}
		if err != nil {
			return &compute.DeviceError{Op: fmt.Sprintf("set fft arg %d", i), Code: -50, Err: err}
		}
	}
	// Only the first launch waits; the queue is in order.
	ev, err := r.q.queue.EnqueueNDRangeKernel(k, nil, global, nil, r.wait)
	if err != nil {
		return &compute.DeviceError{Op: "enqueue fft pass", Err: err}
	}
	r.wait = nil
	r.evs = append(r.evs, ev)
	return nil
}

func (r *fftRun) abort() {
	if len(r.evs) > 0 {
		_ = cl.WaitForEvents(r.evs)
	}
	for _, ev := range r.evs {
		ev.Release()
	}
}

func (p *fftPlan) Enqueue(q compute.Queue, buf, tmp compute.Buffer, wait []compute.Event) (compute.Event, error) {
	cq, ok := q.(*Queue)
	if !ok {
		return nil, &compute.DeviceError{Op: "enqueue fft", Code: -36, Err: compute.ErrForeignObject}
	}
	if p.radix2 == nil {
		return nil, &compute.DeviceError{Op: "enqueue fft", Code: -48, Err: compute.ErrReleased}
	}
	data, err := memOf(buf)
	if err != nil {
		return nil, &compute.DeviceError{Op: "enqueue fft", Code: -38, Err: err}
	}
	if tmp == nil {
		return nil, &compute.DeviceError{Op: "enqueue fft", Code: -38, Err: compute.ErrInvalidArgument}
	}
	scratch, err := memOf(tmp)
	if err != nil {
		return nil, &compute.DeviceError{Op: "enqueue fft", Code: -38, Err: err}
	}
	if buf.Len() < p.desc.BufferLen() || tmp.Len() < p.TempBufferLen() {
		return nil, &compute.DeviceError{Op: "enqueue fft", Code: -61, Err: compute.ErrInvalidArgument}
	}
	deps, err := clEvents(wait)
	if err != nil {
		return nil, err
	}

	n, m, batches := p.desc.Lengths[0], p.desc.Lengths[1], p.desc.Batches
	hw := n/2 + 1
	run := &fftRun{q: cq, wait: deps, evs: make([]*cl.Event, 0, p.passes())}
	if err := p.enqueue(run, data, scratch, n, m, hw, batches); err != nil {
		run.abort()
		return nil, err
	}
	return &event{
		name:  "fft",
		first: run.evs[0],
		last:  run.evs[len(run.evs)-1],
		all:   run.evs,
	}, nil
}

func (p *fftPlan) enqueue(run *fftRun, data, scratch *cl.MemObject, n, m, hw, batches int) error {
	// Columns: m-point transforms over the n/2+1 stored columns.
	src, srcOff := data, 0
	dst, dstOff := scratch, p.offA
	for pp := 1; pp < m; pp <<= 1 {
		if err := run.launch(p.radix2, []int{m / 2, hw, batches},
			src, srcOff, dst, dstOff, m, pp, hw, 1, m*hw); err != nil {
			return err
		}
		src, srcOff, dst, dstOff = dst, dstOff, src, srcOff
	}
	if err := run.launch(p.expand, []int{n, m, batches},
		src, srcOff, scratch, p.offB, n, m); err != nil {
		return err
	}

	// Rows: n-point transforms of the expanded spectrum.
	rowSrc, rowDst := p.offB, p.offC
	for pp := 1; pp < n; pp <<= 1 {
		if err := run.launch(p.radix2, []int{n / 2, m, batches},
			scratch, rowSrc, scratch, rowDst, n, pp, 1, n, m*n); err != nil {
			return err
		}
		rowSrc, rowDst = rowDst, rowSrc
	}
	return run.launch(p.real, []int{n + 2, m, batches}, scratch, rowSrc, data, n, m)
}

// passes is the number of kernel launches of one transform.
func (p *fftPlan) passes() int {
	n, m := p.desc.Lengths[0], p.desc.Lengths[1]
	return bits.Len(uint(m)) - 1 + bits.Len(uint(n)) - 1 + 2
}
