// Package gates defines unitary gates and the Kronecker-product machinery
// that places them on a register: Extend tiles a gate across channels, Embed
// positions it on chosen qubits under any set of controls, and Compose
// multiplies gates into one operator.
package gates

import (
	"fmt"
	"math/cmplx"

	"qcirc"
	"qcirc/backend"
	"qcirc/quantum"
)

// Tolerance bounds the element error accepted by unitarity checks.
const Tolerance = 1e-9

// Gate is an immutable square unitary of side 2^Partition.
type Gate struct {
	name      string
	matrix    backend.Dense
	partition int
}

// New validates m and wraps it as a gate. m must be square with a power of
// two side of at least 2, and unitary.
func New(name string, m backend.Dense) (Gate, error) {
	if m == nil {
		return Gate{}, fmt.Errorf("%w: gate %q has no matrix", qcirc.ErrInvalidOperand, name)
	}
	r, c := m.Dims()
	p, ok := backend.Qubits(r)
	if r != c || !ok || p == 0 {
		return Gate{}, fmt.Errorf("%w: gate %q is %dx%d, want square 2^p", qcirc.ErrShapeMismatch, name, r, c)
	}
	g := Gate{name: name, matrix: m, partition: p}
	if !IsUnitary(g) {
		return Gate{}, fmt.Errorf("%w: gate %q is not unitary", qcirc.ErrInvalidOperand, name)
	}
	return g, nil
}

func build(name string, m backend.Dense) Gate {
	r, _ := m.Dims()
	p, _ := backend.Qubits(r)
	return Gate{name: name, matrix: m, partition: p}
}

// Name is the gate's label.
func (g Gate) Name() string { return g.name }

// Matrix is the 2^Partition square unitary.
func (g Gate) Matrix() backend.Dense { return g.matrix }

// Partition is the number of qubits g acts on.
func (g Gate) Partition() int { return g.partition }

// Dim is the side of the matrix, 2^Partition.
func (g Gate) Dim() int { return 1 << g.partition }

// IsZero reports whether g is the zero value rather than a constructed gate.
func (g Gate) IsZero() bool { return g.matrix == nil }

// Backend names where the matrix lives; empty for the zero gate.
func (g Gate) Backend() backend.Name {
	if g.matrix == nil {
		return ""
	}
	return g.matrix.Backend()
}

// String renders g as name[partition].
func (g Gate) String() string {
	return fmt.Sprintf("%s[%d]", g.name, g.partition)
}

// ToBackend returns g with its matrix on the named backend.
func (g Gate) ToBackend(name backend.Name) (Gate, error) {
	m, err := backend.Convert(g.matrix, name)
	if err != nil {
		return Gate{}, err
	}
	g.matrix = m
	return g, nil
}

// WithName returns g relabelled.
func (g Gate) WithName(name string) Gate {
	g.name = name
	return g
}

func (g Gate) be() backend.Backend {
	be, err := backend.Get(g.Backend())
	if err != nil {
		panic(fmt.Sprintf("gates: %s lives on unknown backend %q", g.name, g.Backend()))
	}
	return be
}

// Adjoint returns the conjugate transpose of g.
func Adjoint(g Gate) Gate {
	d := g.Dim()
	src := g.matrix.Data()
	dst := make([]complex128, d*d)
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			dst[j*d+i] = cmplx.Conj(src[i*d+j])
		}
	}
	return Gate{name: g.name + "†", matrix: g.be().New(d, d, dst), partition: g.partition}
}

// IsUnitary reports whether g·g† is the identity within Tolerance.
func IsUnitary(g Gate) bool {
	be := g.be()
	prod, err := be.MatMul(g.matrix, Adjoint(g).matrix)
	if err != nil {
		return false
	}
	return backend.EqualApprox(prod, be.Identity(g.Dim()), Tolerance)
}

// InChannels and OutChannels are both the partition.
func (g Gate) InChannels() int { return g.partition }

func (g Gate) OutChannels() int { return g.partition }

// Parse is Apply with g as the receiver, so a gate can stand wherever a
// compiled circuit can.
func (g Gate) Parse(operand quantum.Operand) (*quantum.Register, error) {
	return Apply(g, operand)
}

// Apply evolves a register by g. Any other operand is rejected.
func Apply(g Gate, operand quantum.Operand) (*quantum.Register, error) {
	if g.IsZero() {
		return nil, fmt.Errorf("%w: zero gate", qcirc.ErrInvalidOperand)
	}
	reg, ok := operand.(*quantum.Register)
	if !ok || reg == nil {
		return nil, fmt.Errorf("%w: cannot apply %s to %T", qcirc.ErrInvalidOperand, g, operand)
	}
	out, err := reg.Evolve(g.matrix)
	if err != nil {
		return nil, fmt.Errorf("apply %s: %w", g, err)
	}
	return out, nil
}

// Compose multiplies gates of equal width into one, the first argument
// acting first.
func Compose(gs ...Gate) (Gate, error) {
	if len(gs) == 0 {
		return Gate{}, fmt.Errorf("%w: nothing to compose", qcirc.ErrInvalidOperand)
	}
	acc := gs[0]
	if acc.IsZero() {
		return Gate{}, fmt.Errorf("%w: zero gate at position 0", qcirc.ErrInvalidOperand)
	}
	be := acc.be()
	m := acc.matrix
	name := acc.name
	for i, g := range gs[1:] {
		if g.IsZero() {
			return Gate{}, fmt.Errorf("%w: zero gate at position %d", qcirc.ErrInvalidOperand, i+1)
		}
		if g.partition != acc.partition {
			return Gate{}, fmt.Errorf("%w: cannot compose %s with %s", qcirc.ErrShapeMismatch, acc, g)
		}
		var err error
		if m, err = be.MatMul(be.Import(g.matrix), m); err != nil {
			return Gate{}, err
		}
		name += "·" + g.name
	}
	return Gate{name: name, matrix: m, partition: acc.partition}, nil
}
