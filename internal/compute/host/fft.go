package host

import (
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/dsp/fourier"

	"OSR/internal/compute"
)

// fftPlan runs the Hermitian to real backward transform with gonum: a
// complex inverse down every stored column, then a real inverse along every
// row. Each batch has its own transforms and work slices so batches run in
// parallel.
type fftPlan struct {
	desc    compute.FFTDesc
	batches []*batchFFT
}

type batchFFT struct {
	cols *fourier.CmplxFFT
	rows *fourier.FFT

	col    []complex128
	colOut []complex128
	coeff  []complex128
	row    []float64
}

func newFFTPlan(desc compute.FFTDesc) (*fftPlan, error) {
	if err := desc.CheckHermitianInverse(); err != nil {
		return nil, err
	}
	n, m := desc.Lengths[0], desc.Lengths[1]
	p := &fftPlan{desc: desc, batches: make([]*batchFFT, desc.Batches)}
	for b := range p.batches {
		p.batches[b] = &batchFFT{
			cols:   fourier.NewCmplxFFT(m),
			rows:   fourier.NewFFT(n),
			col:    make([]complex128, m),
			colOut: make([]complex128, m),
			coeff:  make([]complex128, n/2+1),
			row:    make([]float64, n),
		}
	}
	return p, nil
}

func (p *fftPlan) Desc() compute.FFTDesc { return p.desc }

func (p *fftPlan) TempBufferLen() int { return 0 }

func (p *fftPlan) Release() {}

func (p *fftPlan) Enqueue(q compute.Queue, buf, _ compute.Buffer, wait []compute.Event) (compute.Event, error) {
	hq, ok := q.(*Queue)
	if !ok {
		return nil, &compute.DeviceError{Op: "enqueue fft", Code: -36, Err: compute.ErrForeignObject}
	}
	data, err := Data(buf)
	if err != nil {
		return nil, &compute.DeviceError{Op: "enqueue fft", Code: -38, Err: err}
	}
	if len(data) < p.desc.BufferLen() {
		return nil, &compute.DeviceError{
			Op:   fmt.Sprintf("enqueue fft: buffer holds %d values, plan needs %d", len(data), p.desc.BufferLen()),
			Code: -61,
			Err:  compute.ErrInvalidArgument,
		}
	}
	return hq.enqueue(&command{
		name: "fft",
		run:  func() error { return p.transform(data) },
	}, wait)
}

func (p *fftPlan) transform(data []float32) error {
	var g errgroup.Group
	for b, work := range p.batches {
		base := b * p.desc.OutDistance
		work := work
		g.Go(func() error {
			work.inverse(data[base:base+p.desc.OutDistance], p.desc.Lengths[0], p.desc.Lengths[1])
			return nil
		})
	}
	return g.Wait()
}

// inverse transforms one batch in place. Row j stores n/2+1 complex values
// on input and n reals followed by two zero pads on output.
func (w *batchFFT) inverse(data []float32, n, m int) {
	stride := n + 2
	for i := 0; i <= n/2; i++ {
		for j := 0; j < m; j++ {
			off := j*stride + 2*i
			w.col[j] = complex(float64(data[off]), float64(data[off+1]))
		}
		w.cols.Sequence(w.colOut, w.col)
		for j := 0; j < m; j++ {
			off := j*stride + 2*i
			data[off] = float32(real(w.colOut[j]))
			data[off+1] = float32(imag(w.colOut[j]))
		}
	}
	for j := 0; j < m; j++ {
		row := data[j*stride : (j+1)*stride]
		for i := range w.coeff {
			w.coeff[i] = complex(float64(row[2*i]), float64(row[2*i+1]))
		}
		w.rows.Sequence(w.row, w.coeff)
		for x, v := range w.row {
			row[x] = float32(v)
		}
		row[n] = 0
		row[n+1] = 0
	}
}
