// Package circuits composes gates into operators: a Wire chains gates in
// sequence, a Connection runs wires side by side behind an entangling gate.
package circuits

import (
	"fmt"

	"qcirc"
	"qcirc/backend"
	"qcirc/gates"
	"qcirc/quantum"
)

// Operator is a compiled circuit fragment that evolves registers.
type Operator interface {
	Matrix() backend.Dense
	InChannels() int
	OutChannels() int
	Parse(operand quantum.Operand) (*quantum.Register, error)
}

var (
	_ Operator = gates.Gate{}
	_ Operator = (*Wire)(nil)
	_ Operator = (*Connection)(nil)
)

// Wire is an ordered list of gates compiled into one matrix at a fixed width.
// Every gate is tiled across the full width with gates.Extend. Wires are
// immutable; Retarget and ToBackend return new ones.
type Wire struct {
	be     backend.Backend
	gates  []gates.Gate
	width  int
	matrix backend.Dense
}

// NewWire compiles gs, first gate applied first, at the smallest width every
// gate partition divides.
func NewWire(name backend.Name, gs ...gates.Gate) (*Wire, error) {
	be, err := backend.Get(name)
	if err != nil {
		return nil, err
	}
	if len(gs) == 0 {
		return nil, fmt.Errorf("%w: wire needs at least one gate", qcirc.ErrInvalidOperand)
	}
	for i, g := range gs {
		if g.IsZero() {
			return nil, fmt.Errorf("%w: zero gate at position %d", qcirc.ErrInvalidOperand, i)
		}
	}
	return compile(be, append([]gates.Gate(nil), gs...), Width(gs...))
}

// Width is the channel count NewWire compiles gs at: the least common
// multiple of their partitions.
func Width(gs ...gates.Gate) int {
	width := 1
	for _, g := range gs {
		if !g.IsZero() {
			width = lcm(width, g.Partition())
		}
	}
	return width
}

func compile(be backend.Backend, gs []gates.Gate, width int) (*Wire, error) {
	var m backend.Dense
	for _, g := range gs {
		e, err := gates.Extend(g, width)
		if err != nil {
			return nil, fmt.Errorf("wire at width %d: %w", width, err)
		}
		em := be.Import(e.Matrix())
		if m == nil {
			m = em
			continue
		}
		if m, err = be.MatMul(em, m); err != nil {
			return nil, err
		}
	}
	return &Wire{be: be, gates: gs, width: width, matrix: m}, nil
}

// Retarget recompiles the wire for n channels. n must be a multiple of every
// gate partition.
func (w *Wire) Retarget(n int) (*Wire, error) {
	if n == w.width {
		return w, nil
	}
	return compile(w.be, w.gates, n)
}

// ToBackend returns the wire with its matrix on the named backend.
func (w *Wire) ToBackend(name backend.Name) (*Wire, error) {
	be, err := backend.Get(name)
	if err != nil {
		return nil, err
	}
	return &Wire{be: be, gates: w.gates, width: w.width, matrix: be.Import(w.matrix)}, nil
}

// Gates returns the wire's gates in application order.
func (w *Wire) Gates() []gates.Gate { return append([]gates.Gate(nil), w.gates...) }

// Matrix is the product of the extended gates, first gate rightmost.
func (w *Wire) Matrix() backend.Dense { return w.matrix }

// Backend names where the compiled matrix lives.
func (w *Wire) Backend() backend.Name { return w.be.Name() }

// InChannels and OutChannels are both the compiled width.
func (w *Wire) InChannels() int { return w.width }

func (w *Wire) OutChannels() int { return w.width }

// Parse evolves a register whose width equals the wire's.
func (w *Wire) Parse(operand quantum.Operand) (*quantum.Register, error) {
	return parse(w, operand)
}

func parse(op Operator, operand quantum.Operand) (*quantum.Register, error) {
	reg, ok := operand.(*quantum.Register)
	if !ok || reg == nil {
		return nil, fmt.Errorf("%w: cannot parse %T", qcirc.ErrInvalidOperand, operand)
	}
	if reg.Qubits() != op.InChannels() {
		return nil, fmt.Errorf("%w: register has %d qubits, operator expects %d", qcirc.ErrShapeMismatch, reg.Qubits(), op.InChannels())
	}
	return reg.Evolve(op.Matrix())
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	return a / gcd(a, b) * b
}
