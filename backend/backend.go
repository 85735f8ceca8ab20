// Package backend provides dense complex matrices behind a small capability
// interface, so registers and operators can hold a handle to "where the data
// lives" instead of a concrete array type.
//
// Two layouts are available. The cpu backend stores interleaved complex128
// values in a gonum CDense and multiplies through cblas128. The gpu backend
// stores split real and imaginary planes, the layout device kernels consume,
// and evaluates the four real products of every complex product concurrently.
// Both produce identical logical results; Import moves data between them.
package backend

import (
	"fmt"
	"math/bits"
	"math/cmplx"

	"qcirc"
)

// Name is a backend token.
type Name string

const (
	CPU Name = "cpu"
	GPU Name = "gpu"
)

// Dense is a row-major complex matrix owned by one backend.
type Dense interface {
	Dims() (r, c int)
	At(i, j int) complex128
	Backend() Name
	// Data returns a row-major host copy of the elements.
	Data() []complex128
}

// Backend is the DenseArrayBackend capability set.
type Backend interface {
	Name() Name
	// New copies data (row-major, len r*c) into a new matrix. A nil slice
	// yields zeros.
	New(r, c int, data []complex128) Dense
	Zeros(r, c int) Dense
	Identity(n int) Dense
	Kron(a, b Dense) Dense
	MatMul(a, b Dense) (Dense, error)
	Add(a, b Dense) (Dense, error)
	// Import returns d in this backend's layout. Matrices already owned by
	// the backend are returned unchanged.
	Import(d Dense) Dense
}

var (
	cpuBackend Backend = cpu{}
	gpuBackend Backend = gpu{}
)

// Lookup resolves a backend token.
func Lookup(name string) (Backend, error) {
	switch Name(name) {
	case CPU:
		return cpuBackend, nil
	case GPU:
		return gpuBackend, nil
	}
	return nil, fmt.Errorf("%w: %q (use %q or %q)", qcirc.ErrInvalidBackend, name, CPU, GPU)
}

// Get is Lookup for a typed name.
func Get(name Name) (Backend, error) {
	return Lookup(string(name))
}

// Convert moves d to the named backend without changing its elements.
func Convert(d Dense, to Name) (Dense, error) {
	be, err := Get(to)
	if err != nil {
		return nil, err
	}
	return be.Import(d), nil
}

// Qubits returns log2(dim) and whether dim is a positive power of two.
func Qubits(dim int) (int, bool) {
	if dim <= 0 || dim&(dim-1) != 0 {
		return 0, false
	}
	return bits.TrailingZeros(uint(dim)), true
}

// EqualApprox reports whether a and b have the same shape and every element
// differs by at most tol in modulus. Backends may differ.
func EqualApprox(a, b Dense, tol float64) bool {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return false
	}
	ad, bd := a.Data(), b.Data()
	for i := range ad {
		if cmplx.Abs(ad[i]-bd[i]) > tol {
			return false
		}
	}
	return true
}

// FromRows builds a matrix from literal rows, the way gate tables are written.
func FromRows(be Backend, rows [][]complex128) Dense {
	r := len(rows)
	c := 0
	if r > 0 {
		c = len(rows[0])
	}
	data := make([]complex128, 0, r*c)
	for _, row := range rows {
		if len(row) != c {
			panic(fmt.Sprintf("backend: ragged rows (%d != %d)", len(row), c))
		}
		data = append(data, row...)
	}
	return be.New(r, c, data)
}

func checkMul(a, b Dense) (int, int, int, error) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ac != br {
		return 0, 0, 0, fmt.Errorf("%w: cannot multiply %dx%d by %dx%d", qcirc.ErrShapeMismatch, ar, ac, br, bc)
	}
	return ar, ac, bc, nil
}

func checkSame(a, b Dense) (int, int, error) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return 0, 0, fmt.Errorf("%w: cannot add %dx%d and %dx%d", qcirc.ErrShapeMismatch, ar, ac, br, bc)
	}
	return ar, ac, nil
}
