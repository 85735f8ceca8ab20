package qasm

import (
	"fmt"

	"qcirc"
	"qcirc/gates"
)

// Compile multiplies every gate of the program, in step order, into one
// operator on NumQubits qubits. Barriers and measurements compile to
// nothing; an empty program compiles to the identity.
func (p *Program) Compile(r *gates.Registry) (gates.Gate, error) {
	return p.CompileSteps(r, -1)
}

// CompileSteps is Compile restricted to ops at or before step upTo. A
// negative upTo compiles everything.
func (p *Program) CompileSteps(r *gates.Registry, upTo int) (gates.Gate, error) {
	placed, err := p.Placed(r, upTo)
	if err != nil {
		return gates.Gate{}, err
	}
	if len(placed) == 0 {
		return gates.Extend(r.Must("identity"), p.NumQubits)
	}
	g, err := gates.Compose(placed...)
	if err != nil {
		return gates.Gate{}, err
	}
	return g.WithName("program"), nil
}

// Placed returns one full-register gate per executable op at or before step
// upTo, in step order.
func (p *Program) Placed(r *gates.Registry, upTo int) ([]gates.Gate, error) {
	if p.NumQubits < 1 {
		return nil, fmt.Errorf("%w: program has no qubits", qcirc.ErrInvalidState)
	}
	var placed []gates.Gate
	for _, op := range p.Ordered() {
		if upTo >= 0 && op.Step > upTo {
			break
		}
		if op.Name == Barrier || op.Name == Measure {
			continue
		}
		g, err := p.place(r, op)
		if err != nil {
			return nil, fmt.Errorf("step %d %s: %w", op.Step, op.Name, err)
		}
		placed = append(placed, g)
	}
	return placed, nil
}

func (p *Program) place(r *gates.Registry, op Op) (gates.Gate, error) {
	k, ok := kinds[op.Name]
	if !ok {
		return gates.Gate{}, fmt.Errorf("%w: unknown gate %q", qcirc.ErrInvalidOperand, op.Name)
	}
	if len(op.Controls) != k.controls || len(op.Targets) != k.targets {
		return gates.Gate{}, fmt.Errorf("%w: %s wants %d controls and %d targets", qcirc.ErrInvalidOperand, op.Name, k.controls, k.targets)
	}
	n := p.NumQubits
	for _, q := range op.Qubits() {
		if q < 0 || q >= n {
			return gates.Gate{}, fmt.Errorf("%w: qubit %d outside register of %d", qcirc.ErrInvalidState, q, n)
		}
	}

	if k.targets == 2 {
		if k.controls == 1 {
			return r.CSwapAt(n, op.Controls[0], op.Targets[0], op.Targets[1])
		}
		return r.SwapAt(n, op.Targets[0], op.Targets[1])
	}

	var base gates.Gate
	var err error
	if k.params > 0 {
		base, err = r.Parametric(k.base, op.Params...)
	} else {
		base, err = r.Get(k.base)
	}
	if err != nil {
		return gates.Gate{}, err
	}
	return gates.Embed(base, n, op.Targets[0], op.Controls...)
}
