package gates

import (
	"fmt"
	"sort"
	"strings"

	"qcirc"
	"qcirc/backend"
	"qcirc/quantum"
)

// Extend tiles g across qubits channels: the Kronecker product of
// qubits/Partition copies of g.
func Extend(g Gate, qubits int) (Gate, error) {
	if g.IsZero() {
		return Gate{}, fmt.Errorf("%w: zero gate", qcirc.ErrInvalidOperand)
	}
	if qubits <= 0 || qubits%g.partition != 0 {
		return Gate{}, fmt.Errorf("%w: cannot extend %s to %d qubits", qcirc.ErrShapeMismatch, g, qubits)
	}
	if qubits > quantum.MaxQubits {
		return Gate{}, fmt.Errorf("%w: %d qubits exceeds the register limit of %d", qcirc.ErrShapeMismatch, qubits, quantum.MaxQubits)
	}
	if qubits == g.partition {
		return g, nil
	}
	be := g.be()
	m := g.matrix
	for i := 1; i < qubits/g.partition; i++ {
		m = be.Kron(m, g.matrix)
	}
	return Gate{name: g.name, matrix: m, partition: qubits}, nil
}

func projectors(be backend.Backend) (p0, p1 backend.Dense) {
	return be.New(2, 2, []complex128{1, 0, 0, 0}), be.New(2, 2, []complex128{0, 0, 0, 1})
}

// |0><0| ⊗ I + |1><1| ⊗ u
func controlAbove(be backend.Backend, u backend.Dense) backend.Dense {
	p0, p1 := projectors(be)
	d, _ := u.Dims()
	m, _ := be.Add(be.Kron(p0, be.Identity(d)), be.Kron(p1, u))
	return m
}

// I ⊗ |0><0| + u ⊗ |1><1|
func controlBelow(be backend.Backend, u backend.Dense) backend.Dense {
	p0, p1 := projectors(be)
	d, _ := u.Dims()
	m, _ := be.Add(be.Kron(be.Identity(d), p0), be.Kron(u, p1))
	return m
}

// ControlAbove adds a control qubit immediately before g.
func ControlAbove(g Gate) Gate {
	return Gate{name: "c" + g.name, matrix: controlAbove(g.be(), g.matrix), partition: g.partition + 1}
}

// ControlBelow adds a control qubit immediately after g.
func ControlBelow(g Gate) Gate {
	return Gate{name: g.name + "c", matrix: controlBelow(g.be(), g.matrix), partition: g.partition + 1}
}

// Embed places g on an n-qubit register with its first qubit at target,
// conditioned on every listed control being 1. Controls may sit on either
// side of the target block, need not be adjacent to it, and come in any
// order; qubits between them are left alone.
func Embed(g Gate, n, target int, controls ...int) (Gate, error) {
	if g.IsZero() {
		return Gate{}, fmt.Errorf("%w: zero gate", qcirc.ErrInvalidOperand)
	}
	cs, err := checkPlacement(g, n, target, controls)
	if err != nil {
		return Gate{}, err
	}
	be := g.be()

	lo, hi := target, target+g.partition-1
	u := g.matrix
	if len(cs) > 0 {
		isControl := make(map[int]bool, len(cs))
		for _, c := range cs {
			isControl[c] = true
		}
		for ; lo > cs[0]; lo-- {
			if isControl[lo-1] {
				u = controlAbove(be, u)
			} else {
				u = be.Kron(be.Identity(2), u)
			}
		}
		for last := cs[len(cs)-1]; hi < last; hi++ {
			if isControl[hi+1] {
				u = controlBelow(be, u)
			} else {
				u = be.Kron(u, be.Identity(2))
			}
		}
	}
	if lo > 0 {
		u = be.Kron(be.Identity(1<<lo), u)
	}
	if rest := n - hi - 1; rest > 0 {
		u = be.Kron(u, be.Identity(1<<rest))
	}
	return Gate{name: embeddedName(g.name, target, cs), matrix: u, partition: n}, nil
}

func checkPlacement(g Gate, n, target int, controls []int) ([]int, error) {
	if n < g.partition {
		return nil, fmt.Errorf("%w: %s does not fit %d qubits", qcirc.ErrShapeMismatch, g, n)
	}
	if n > quantum.MaxQubits {
		return nil, fmt.Errorf("%w: %d qubits exceeds the register limit of %d", qcirc.ErrShapeMismatch, n, quantum.MaxQubits)
	}
	if target < 0 || target > n-g.partition {
		return nil, fmt.Errorf("%w: target %d outside [0, %d] for %s on %d qubits", qcirc.ErrShapeMismatch, target, n-g.partition, g, n)
	}
	cs := append([]int(nil), controls...)
	sort.Ints(cs)
	for i, c := range cs {
		switch {
		case c < 0 || c >= n:
			return nil, fmt.Errorf("%w: control %d outside [0, %d)", qcirc.ErrShapeMismatch, c, n)
		case c >= target && c < target+g.partition:
			return nil, fmt.Errorf("%w: control %d overlaps target block [%d, %d]", qcirc.ErrShapeMismatch, c, target, target+g.partition-1)
		case i > 0 && cs[i-1] == c:
			return nil, fmt.Errorf("%w: duplicate control %d", qcirc.ErrShapeMismatch, c)
		}
	}
	return cs, nil
}

func embeddedName(name string, target int, controls []int) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("c", len(controls)))
	b.WriteString(name)
	fmt.Fprintf(&b, "@%d", target)
	for _, c := range controls {
		fmt.Fprintf(&b, ",c%d", c)
	}
	return b.String()
}
