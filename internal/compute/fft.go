package compute

import "fmt"

// FFTDirection selects the sign of the exponent.
type FFTDirection int

const (
	Forward FFTDirection = iota
	Backward
)

// FFTLayout names the element format of an FFT side.
type FFTLayout int

const (
	LayoutComplexInterleaved FFTLayout = iota
	LayoutHermitianInterleaved
	LayoutReal
)

// FFTDesc describes a batched 2D transform. Strides and distances are in
// elements of the respective layout: complex values for Hermitian input,
// scalars for real output.
type FFTDesc struct {
	Lengths     [2]int
	Batches     int
	Direction   FFTDirection
	In, Out     FFTLayout
	InStride    [2]int
	OutStride   [2]int
	InDistance  int
	OutDistance int
	Scale       float32
	InPlace     bool
}

// HermitianInverseDesc describes the in-place Hermitian to real backward
// transform over batches grids of n×m samples. Real rows are padded to n+2
// scalars so that a complex row of n/2+1 values fits in the same storage.
func HermitianInverseDesc(n, m, batches int) FFTDesc {
	return FFTDesc{
		Lengths:     [2]int{n, m},
		Batches:     batches,
		Direction:   Backward,
		In:          LayoutHermitianInterleaved,
		Out:         LayoutReal,
		InStride:    [2]int{1, n/2 + 1},
		OutStride:   [2]int{1, n + 2},
		InDistance:  m * (n/2 + 1),
		OutDistance: m * (n + 2),
		Scale:       1,
		InPlace:     true,
	}
}

// BufferLen is the float32 count of an in-place buffer for d.
func (d FFTDesc) BufferLen() int {
	return d.Batches * d.OutDistance
}

// CheckHermitianInverse verifies that d is exactly the layout produced by
// HermitianInverseDesc, the only one the devices implement.
func (d FFTDesc) CheckHermitianInverse() error {
	n, m := d.Lengths[0], d.Lengths[1]
	if n < 2 || m < 1 || n%2 != 0 {
		return fmt.Errorf("fft lengths %dx%d: %w", n, m, ErrUnsupportedLayout)
	}
	if d.Batches < 1 {
		return fmt.Errorf("fft batch count %d: %w", d.Batches, ErrUnsupportedLayout)
	}
	if d != HermitianInverseDesc(n, m, d.Batches) {
		return fmt.Errorf("fft description %+v: %w", d, ErrUnsupportedLayout)
	}
	return nil
}

// FFTPlan is a baked transform bound to one description.
type FFTPlan interface {
	Desc() FFTDesc
	// TempBufferLen is the scratch size in float32 values the plan needs at
	// enqueue time; zero means no scratch buffer.
	TempBufferLen() int
	// Enqueue runs the transform on buf using tmp as scratch (nil when
	// TempBufferLen is zero).
	Enqueue(q Queue, buf, tmp Buffer, wait []Event) (Event, error)
	Release()
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
