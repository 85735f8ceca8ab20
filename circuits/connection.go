package circuits

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"qcirc"
	"qcirc/backend"
	"qcirc/gates"
	"qcirc/quantum"
)

// Connection feeds one wire into each channel of an entangling gate. Its
// matrix is kron(wires...) · gate: the gate acts on the register first and
// the wires act on its outputs.
type Connection struct {
	be     backend.Backend
	gate   gates.Gate
	wires  []*Wire
	matrix backend.Dense
}

// NewConnection needs exactly one wire per gate qubit. Each wire is
// recompiled for a single channel.
func NewConnection(name backend.Name, g gates.Gate, wires ...*Wire) (*Connection, error) {
	be, err := backend.Get(name)
	if err != nil {
		return nil, err
	}
	if g.IsZero() {
		return nil, fmt.Errorf("%w: connection needs a gate", qcirc.ErrInvalidOperand)
	}
	arity := g.Partition()
	if arity != len(wires) {
		return nil, fmt.Errorf("%w: %s takes %d wires, got %d", qcirc.ErrShapeMismatch, g, arity, len(wires))
	}
	for i, w := range wires {
		if w == nil {
			return nil, fmt.Errorf("%w: nil wire at position %d", qcirc.ErrInvalidOperand, i)
		}
	}

	channel := arity / len(wires)
	retargeted := make([]*Wire, len(wires))
	var eg errgroup.Group
	for i, w := range wires {
		eg.Go(func() error {
			rw, err := w.Retarget(channel)
			if err != nil {
				return fmt.Errorf("wire %d: %w", i, err)
			}
			retargeted[i] = rw
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	m := be.Import(retargeted[0].Matrix())
	for _, w := range retargeted[1:] {
		m = be.Kron(m, w.Matrix())
	}
	if rows, _ := m.Dims(); rows != g.Dim() {
		return nil, fmt.Errorf("%w: wires span dimension %d, %s has %d", qcirc.ErrShapeMismatch, rows, g, g.Dim())
	}
	if m, err = be.MatMul(m, be.Import(g.Matrix())); err != nil {
		return nil, err
	}
	return &Connection{be: be, gate: g, wires: retargeted, matrix: m}, nil
}

// ToBackend returns the connection with its matrix on the named backend.
func (c *Connection) ToBackend(name backend.Name) (*Connection, error) {
	be, err := backend.Get(name)
	if err != nil {
		return nil, err
	}
	return &Connection{be: be, gate: c.gate, wires: c.wires, matrix: be.Import(c.matrix)}, nil
}

// Gate is the gate the connection was built around.
func (c *Connection) Gate() gates.Gate { return c.gate }

// Wires returns the retargeted wires in listed order.
func (c *Connection) Wires() []*Wire { return append([]*Wire(nil), c.wires...) }

// Matrix is the compiled kron(wires)·gate operator.
func (c *Connection) Matrix() backend.Dense { return c.matrix }

// Backend names where the compiled matrix lives.
func (c *Connection) Backend() backend.Name { return c.be.Name() }

// InChannels is the register width the gate accepts.
func (c *Connection) InChannels() int {
	_, cols := c.gate.Matrix().Dims()
	n, _ := backend.Qubits(cols)
	return n
}

// OutChannels is the register width the connection produces.
func (c *Connection) OutChannels() int {
	rows, _ := c.gate.Matrix().Dims()
	n, _ := backend.Qubits(rows)
	return n
}

// Parse evolves a register whose width equals the gate's.
func (c *Connection) Parse(operand quantum.Operand) (*quantum.Register, error) {
	return parse(c, operand)
}
