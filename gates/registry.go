package gates

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"qcirc"
	"qcirc/backend"
)

// Registry is the immutable gate library for one backend. Build it once and
// share the handle; lookups never allocate.
type Registry struct {
	be    backend.Backend
	gates map[string]Gate
}

// NewRegistry builds every named constant gate on the named backend.
func NewRegistry(name backend.Name) (*Registry, error) {
	be, err := backend.Get(name)
	if err != nil {
		return nil, err
	}
	r := &Registry{be: be, gates: make(map[string]Gate)}

	h := complex(1/math.Sqrt2, 0)
	t := cmplx.Exp(complex(0, math.Pi/4))
	one := map[string][][]complex128{
		"identity": {{1, 0}, {0, 1}},
		"hadamard": {{h, h}, {h, -h}},
		"x":        {{0, 1}, {1, 0}},
		"y":        {{0, -1i}, {1i, 0}},
		"z":        {{1, 0}, {0, -1}},
		"s":        {{1, 0}, {0, 1i}},
		"sdg":      {{1, 0}, {0, -1i}},
		"t":        {{1, 0}, {0, t}},
		"tdg":      {{1, 0}, {0, cmplx.Conj(t)}},
	}
	for n, rows := range one {
		r.gates[n] = build(n, backend.FromRows(be, rows))
	}
	r.gates["swap"] = build("swap", backend.FromRows(be, [][]complex128{
		{1, 0, 0, 0},
		{0, 0, 1, 0},
		{0, 1, 0, 0},
		{0, 0, 0, 1},
	}))

	for alias, n := range map[string]string{"cnot": "x", "cy": "y", "cz": "z"} {
		r.gates[alias] = ControlAbove(r.gates[n]).WithName(alias)
	}
	r.gates["ccnot"] = ControlAbove(r.gates["cnot"]).WithName("ccnot")
	r.gates["cswap"] = ControlAbove(r.gates["swap"]).WithName("cswap")

	for alias, n := range map[string]string{
		"id":      "identity",
		"h":       "hadamard",
		"cx":      "cnot",
		"toffoli": "ccnot",
		"ccx":     "ccnot",
		"fredkin": "cswap",
	} {
		r.gates[alias] = r.gates[n]
	}
	return r, nil
}

// Backend names where the registry's matrices live.
func (r *Registry) Backend() backend.Name { return r.be.Name() }

// Get returns the named gate.
func (r *Registry) Get(name string) (Gate, error) {
	g, ok := r.gates[name]
	if !ok {
		return Gate{}, fmt.Errorf("%w: unknown gate %q", qcirc.ErrInvalidOperand, name)
	}
	return g, nil
}

// Must is Get for names known at compile time.
func (r *Registry) Must(name string) Gate {
	g, err := r.Get(name)
	if err != nil {
		panic(err)
	}
	return g
}

// Names lists every registered name, aliases included.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.gates))
	for n := range r.gates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SwapAt exchanges qubits a and b of an n-qubit register with three CNOTs,
// so the pair need not be adjacent.
func (r *Registry) SwapAt(n, a, b int) (Gate, error) {
	if a == b {
		return Gate{}, fmt.Errorf("%w: swap of qubit %d with itself", qcirc.ErrShapeMismatch, a)
	}
	x := r.gates["x"]
	ab, err := Embed(x, n, b, a)
	if err != nil {
		return Gate{}, err
	}
	ba, err := Embed(x, n, a, b)
	if err != nil {
		return Gate{}, err
	}
	g, err := Compose(ab, ba, ab)
	if err != nil {
		return Gate{}, err
	}
	return g.WithName(fmt.Sprintf("swap@%d,%d", a, b)), nil
}

// CSwapAt exchanges qubits a and b when control c is 1.
func (r *Registry) CSwapAt(n, c, a, b int) (Gate, error) {
	if a == b {
		return Gate{}, fmt.Errorf("%w: swap of qubit %d with itself", qcirc.ErrShapeMismatch, a)
	}
	x := r.gates["x"]
	ba, err := Embed(x, n, a, b)
	if err != nil {
		return Gate{}, err
	}
	cab, err := Embed(x, n, b, c, a)
	if err != nil {
		return Gate{}, err
	}
	g, err := Compose(ba, cab, ba)
	if err != nil {
		return Gate{}, err
	}
	return g.WithName(fmt.Sprintf("cswap@%d,%d,c%d", a, b, c)), nil
}
