package ocean

import (
	"fmt"
	"math"

	"OSR/internal/compute"
	"OSR/internal/compute/host"
	"OSR/internal/gfx"
)

// Go implementations of the kernels in kernels/*.cl for the host device.
// They follow the program sources line by line.
func init() {
	host.RegisterKernel(phaseShiftKernel, phaseShiftHost)
	host.RegisterKernel(exportKernel, exportHost)
}

func phaseShiftHost(args host.Args, global []int) (func(x, y int), error) {
	initial, err := args.Buffer(phaseArgInitial)
	if err != nil {
		return nil, err
	}
	lx, err := args.Float32(phaseArgTileX)
	if err != nil {
		return nil, err
	}
	lz, err := args.Float32(phaseArgTileZ)
	if err != nil {
		return nil, err
	}
	nx, err := args.Int32(phaseArgGridX)
	if err != nil {
		return nil, err
	}
	ny, err := args.Int32(phaseArgGridY)
	if err != nil {
		return nil, err
	}
	t, err := args.Float32(phaseArgTime)
	if err != nil {
		return nil, err
	}
	out, err := args.Buffer(phaseArgOut)
	if err != nil {
		return nil, err
	}
	grid := Grid{X: int(nx), Y: int(ny)}
	half := grid.HalfX()
	if len(global) != 2 || global[0] != half || global[1] != grid.Y {
		return nil, fmt.Errorf("phase shift range %v for grid %s: %w", global, grid, compute.ErrInvalidArgument)
	}
	if len(initial) < 2*half*grid.Y {
		return nil, fmt.Errorf("initial spectrum holds %d values: %w", len(initial), compute.ErrInvalidArgument)
	}
	if len(out) < FFTBufferLen(grid, FFTBatches) {
		return nil, fmt.Errorf("fft buffer holds %d values: %w", len(out), compute.ErrInvalidArgument)
	}
	plane := grid.Y * (grid.X + 2)

	return func(i, j int) {
		src := 2 * (j*half + i)
		h0r, h0i := initial[src], initial[src+1]

		kx := 2 * math.Pi * float64(signedIndex(i, grid.X)) / float64(lx)
		kz := 2 * math.Pi * float64(signedIndex(j, grid.Y)) / float64(lz)
		k := math.Hypot(kx, kz)
		omega := math.Sqrt(Gravity * k)
		s, c := math.Sincos(omega * float64(t))
		cf, sf := float32(c), float32(s)
		hr := h0r*cf - h0i*sf
		hi := h0r*sf + h0i*cf

		dst := j*(grid.X+2) + 2*i
		put := func(batch int, re, im float32) {
			o := batch*plane + dst
			out[o], out[o+1] = re, im
		}
		put(batchHeight, hr, hi)
		if k < minWavenumber {
			put(batchDisplacementX, 0, 0)
			put(batchDisplacementZ, 0, 0)
			put(batchGradientX, 0, 0)
			put(batchGradientZ, 0, 0)
			return
		}
		// -i(k/|k|)h and ik·h.
		ux, uz := float32(kx/k), float32(kz/k)
		fx, fz := float32(kx), float32(kz)
		put(batchDisplacementX, ux*hi, -ux*hr)
		put(batchDisplacementZ, uz*hi, -uz*hr)
		put(batchGradientX, -fx*hi, fx*hr)
		put(batchGradientZ, -fz*hi, fz*hr)
	}, nil
}

func exportHost(args host.Args, global []int) (func(x, y int), error) {
	fft, err := args.Buffer(0)
	if err != nil {
		return nil, err
	}
	nx, err := args.Int32(1)
	if err != nil {
		return nil, err
	}
	ny, err := args.Int32(2)
	if err != nil {
		return nil, err
	}
	dispImg, err := args.Image(3)
	if err != nil {
		return nil, err
	}
	gradImg, err := args.Image(4)
	if err != nil {
		return nil, err
	}
	scale, err := args.Vec4(5)
	if err != nil {
		return nil, err
	}
	grid := Grid{X: int(nx), Y: int(ny)}
	if len(global) != 2 || global[0] != grid.X || global[1] != grid.Y {
		return nil, fmt.Errorf("export range %v for grid %s: %w", global, grid, compute.ErrInvalidArgument)
	}
	if len(fft) < FFTBufferLen(grid, FFTBatches) {
		return nil, fmt.Errorf("fft buffer holds %d values: %w", len(fft), compute.ErrInvalidArgument)
	}
	disp, err := dispImg.Pixels()
	if err != nil {
		return nil, err
	}
	grad, err := gradImg.Pixels()
	if err != nil {
		return nil, err
	}
	dispFormat, gradFormat := dispImg.Texture().Format(), gradImg.Texture().Format()
	for _, tex := range []*gfx.Texture{dispImg.Texture(), gradImg.Texture()} {
		if tex.Width() != grid.X || tex.Height() != grid.Y {
			return nil, fmt.Errorf("image %dx%d for grid %s: %w", tex.Width(), tex.Height(), grid, compute.ErrInvalidArgument)
		}
	}
	plane := grid.Y * (grid.X + 2)
	sx, sy, sz := scale[0], scale[1], scale[2]

	return func(x, y int) {
		src := y*(grid.X+2) + x
		h := fft[batchHeight*plane+src]
		dx := fft[batchDisplacementX*plane+src]
		dz := fft[batchDisplacementZ*plane+src]
		gx := fft[batchGradientX*plane+src]
		gz := fft[batchGradientZ*plane+src]

		texel := 4 * (y*grid.X + x)
		gfx.EncodeTexel(dispFormat, disp[texel:texel+4], [4]float32{EncodeDisplacement(dx * sx), EncodeDisplacement(h * sy), EncodeDisplacement(dz * sz), 1})
		gfx.EncodeTexel(gradFormat, grad[texel:texel+4], [4]float32{gx * sy / sx, gz * sy / sz, 0, 0})
	}, nil
}
