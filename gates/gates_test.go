package gates

import (
	"errors"
	"math"
	"math/cmplx"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qcirc"
	"qcirc/backend"
	"qcirc/internal/statevec"
	"qcirc/quantum"
)

func registry(t *testing.T, name backend.Name) *Registry {
	t.Helper()
	r, err := NewRegistry(name)
	require.NoError(t, err)
	return r
}

func randomState(t *testing.T, n int, seed uint64, name backend.Name) (*quantum.Register, *statevec.State) {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed+1))
	amps := make([]complex128, 1<<n)
	norm := 0.0
	for i := range amps {
		amps[i] = complex(rng.NormFloat64(), rng.NormFloat64())
		norm += real(amps[i])*real(amps[i]) + imag(amps[i])*imag(amps[i])
	}
	for i := range amps {
		amps[i] /= complex(math.Sqrt(norm), 0)
	}
	reg, err := quantum.FromAmplitudes(amps, name)
	require.NoError(t, err)
	ref := &statevec.State{Amplitudes: append([]complex128(nil), amps...), NumQubits: n}
	return reg, ref
}

func assertSameState(t *testing.T, want []complex128, got *quantum.Register) {
	t.Helper()
	amps := got.Amplitudes()
	require.Len(t, amps, len(want))
	for i := range want {
		assert.InDelta(t, 0, cmplx.Abs(want[i]-amps[i]), 1e-9, "amplitude %d: want %v got %v", i, want[i], amps[i])
	}
}

func TestRegistryGatesAreUnitary(t *testing.T) {
	for _, name := range []backend.Name{backend.CPU, backend.GPU} {
		r := registry(t, name)
		for _, n := range r.Names() {
			g := r.Must(n)
			assert.True(t, IsUnitary(g), n)
			assert.Equal(t, name, g.Backend(), n)
		}
	}
}

func TestRegistryPartitions(t *testing.T) {
	r := registry(t, backend.CPU)
	for name, p := range map[string]int{
		"identity": 1, "hadamard": 1, "x": 1, "y": 1, "z": 1, "s": 1, "t": 1,
		"cnot": 2, "cy": 2, "cz": 2, "swap": 2,
		"ccnot": 3, "toffoli": 3, "cswap": 3,
	} {
		g, err := r.Get(name)
		require.NoError(t, err, name)
		assert.Equal(t, p, g.Partition(), name)
	}

	_, err := r.Get("frobnicate")
	assert.True(t, errors.Is(err, qcirc.ErrInvalidOperand))
}

func TestNewRegistryInvalidBackend(t *testing.T) {
	_, err := NewRegistry("tpu")
	assert.True(t, errors.Is(err, qcirc.ErrInvalidBackend))
}

func TestNewValidates(t *testing.T) {
	be, _ := backend.Get(backend.CPU)

	_, err := New("bad", be.New(2, 2, []complex128{1, 1, 0, 1}))
	assert.True(t, errors.Is(err, qcirc.ErrInvalidOperand))

	_, err = New("wide", be.Zeros(2, 4))
	assert.True(t, errors.Is(err, qcirc.ErrShapeMismatch))

	_, err = New("three", be.Identity(3))
	assert.True(t, errors.Is(err, qcirc.ErrShapeMismatch))

	g, err := New("i4", be.Identity(4))
	require.NoError(t, err)
	assert.Equal(t, 2, g.Partition())
}

func TestExtend(t *testing.T) {
	r := registry(t, backend.CPU)
	be, _ := backend.Get(backend.CPU)
	h := r.Must("hadamard")

	hh, err := Extend(h, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, hh.Partition())
	assert.True(t, backend.EqualApprox(be.Kron(h.Matrix(), h.Matrix()), hh.Matrix(), 1e-12))

	same, err := Extend(h, 1)
	require.NoError(t, err)
	assert.Equal(t, h.Matrix(), same.Matrix())

	c4, err := Extend(r.Must("cnot"), 4)
	require.NoError(t, err)
	rows, _ := c4.Matrix().Dims()
	assert.Equal(t, 16, rows)

	_, err = Extend(r.Must("cnot"), 3)
	assert.True(t, errors.Is(err, qcirc.ErrShapeMismatch))
	_, err = Extend(h, 0)
	assert.True(t, errors.Is(err, qcirc.ErrShapeMismatch))
	_, err = Extend(Gate{}, 2)
	assert.True(t, errors.Is(err, qcirc.ErrInvalidOperand))
	_, err = Extend(h, quantum.MaxQubits+1)
	assert.True(t, errors.Is(err, qcirc.ErrShapeMismatch))
}

func TestEmbedMatchesReference(t *testing.T) {
	cases := []struct {
		name     string
		gate     string
		n        int
		target   int
		controls []int
	}{
		{"h alone", "hadamard", 3, 1, nil},
		{"x first", "x", 4, 0, nil},
		{"x last", "x", 4, 3, nil},
		{"cnot adjacent above", "x", 2, 1, []int{0}},
		{"cnot adjacent below", "x", 2, 0, []int{1}},
		{"cnot gap above", "x", 4, 3, []int{0}},
		{"cnot gap below", "x", 4, 0, []int{3}},
		{"toffoli split", "x", 3, 1, []int{0, 2}},
		{"toffoli unsorted", "x", 4, 1, []int{3, 0}},
		{"three controls spread", "y", 6, 2, []int{0, 4, 5}},
		{"four controls gaps", "hadamard", 7, 3, []int{6, 0, 5, 1}},
		{"controlled phase t", "t", 5, 4, []int{0, 2}},
	}
	for _, name := range []backend.Name{backend.CPU, backend.GPU} {
		r := registry(t, name)
		for i, tc := range cases {
			t.Run(string(name)+"/"+tc.name, func(t *testing.T) {
				g, err := Embed(r.Must(tc.gate), tc.n, tc.target, tc.controls...)
				require.NoError(t, err)
				assert.Equal(t, tc.n, g.Partition())
				assert.True(t, IsUnitary(g))

				reg, ref := randomState(t, tc.n, uint64(i+1), name)
				out, err := Apply(g, reg)
				require.NoError(t, err)
				require.NoError(t, ref.Apply(shortName(tc.gate), tc.target, tc.controls))
				assertSameState(t, ref.Amplitudes, out)
			})
		}
	}
}

func shortName(n string) string {
	if n == "hadamard" {
		return "h"
	}
	return n
}

func TestEmbedTwoQubitGate(t *testing.T) {
	r := registry(t, backend.CPU)
	g, err := Embed(r.Must("swap"), 4, 1, 3)
	require.NoError(t, err)

	reg, ref := randomState(t, 4, 99, backend.CPU)
	out, err := Apply(g, reg)
	require.NoError(t, err)
	ref.Swap(1, 2, 3)
	assertSameState(t, ref.Amplitudes, out)
}

func TestEmbedErrors(t *testing.T) {
	r := registry(t, backend.CPU)
	x := r.Must("x")
	for name, call := range map[string]func() error{
		"target out of range":   func() error { _, err := Embed(x, 3, 3); return err },
		"negative target":       func() error { _, err := Embed(x, 3, -1); return err },
		"wide gate":             func() error { _, err := Embed(r.Must("cnot"), 3, 2); return err },
		"control equals target": func() error { _, err := Embed(x, 3, 1, 1); return err },
		"control inside block":  func() error { _, err := Embed(r.Must("swap"), 4, 1, 2); return err },
		"duplicate control":     func() error { _, err := Embed(x, 3, 2, 0, 0); return err },
		"control out of range":  func() error { _, err := Embed(x, 3, 0, 3); return err },
		"too few qubits":        func() error { _, err := Embed(r.Must("ccnot"), 2, 0); return err },
		"register too wide":     func() error { _, err := Embed(x, 40, 0); return err },
	} {
		assert.True(t, errors.Is(call(), qcirc.ErrShapeMismatch), name)
	}
}

func TestIdentityLeavesStateUnchanged(t *testing.T) {
	r := registry(t, backend.GPU)
	reg, ref := randomState(t, 3, 5, backend.GPU)
	id, err := Extend(r.Must("identity"), 3)
	require.NoError(t, err)
	out, err := Apply(id, reg)
	require.NoError(t, err)
	assertSameState(t, ref.Amplitudes, out)
}

func TestEntanglement(t *testing.T) {
	r := registry(t, backend.CPU)
	h, err := Embed(r.Must("hadamard"), 2, 0)
	require.NoError(t, err)
	cnot, err := Embed(r.Must("x"), 2, 1, 0)
	require.NoError(t, err)
	bell, err := Compose(h, cnot)
	require.NoError(t, err)

	a := complex(1/math.Sqrt2, 0)
	for seed := uint64(0); seed < 20; seed++ {
		reg, err := quantum.NewRegister("00", backend.CPU,
			quantum.WithRand(rand.New(rand.NewPCG(seed, 3))))
		require.NoError(t, err)
		out, err := Apply(bell, reg)
		require.NoError(t, err)
		assertSameState(t, []complex128{a, 0, 0, a}, out)

		got, err := out.Measure()
		require.NoError(t, err)
		assert.Contains(t, []string{"00", "11"}, got)
	}
}

func TestComposeOrder(t *testing.T) {
	r := registry(t, backend.CPU)
	g, err := Compose(r.Must("x"), r.Must("hadamard"))
	require.NoError(t, err)

	reg, err := quantum.NewRegister("0", backend.CPU)
	require.NoError(t, err)
	out, err := Apply(g, reg)
	require.NoError(t, err)

	// H·X|0> = |->
	a := complex(1/math.Sqrt2, 0)
	assertSameState(t, []complex128{a, -a}, out)

	_, err = Compose()
	assert.True(t, errors.Is(err, qcirc.ErrInvalidOperand))
	_, err = Compose(r.Must("x"), r.Must("cnot"))
	assert.True(t, errors.Is(err, qcirc.ErrShapeMismatch))
}

func TestAdjoint(t *testing.T) {
	r := registry(t, backend.CPU)
	assert.True(t, backend.EqualApprox(r.Must("sdg").Matrix(), Adjoint(r.Must("s")).Matrix(), 1e-12))
	assert.True(t, backend.EqualApprox(r.Must("tdg").Matrix(), Adjoint(r.Must("t")).Matrix(), 1e-12))

	u := r.U3(0.3, 1.1, -0.7)
	id, err := Compose(u, Adjoint(u))
	require.NoError(t, err)
	be, _ := backend.Get(backend.CPU)
	assert.True(t, backend.EqualApprox(be.Identity(2), id.Matrix(), 1e-12))
}

type notARegister struct{}

func (notARegister) Dim() int              { return 2 }
func (notARegister) Backend() backend.Name { return backend.CPU }

func TestApplyErrors(t *testing.T) {
	r := registry(t, backend.CPU)
	_, err := Apply(r.Must("x"), notARegister{})
	assert.True(t, errors.Is(err, qcirc.ErrInvalidOperand))

	reg, err := quantum.NewRegister("00", backend.CPU)
	require.NoError(t, err)
	_, err = Apply(r.Must("x"), reg)
	assert.True(t, errors.Is(err, qcirc.ErrShapeMismatch))
}

func TestApplyAcrossBackends(t *testing.T) {
	r := registry(t, backend.GPU)
	reg, err := quantum.NewRegister("0", backend.CPU)
	require.NoError(t, err)
	out, err := Apply(r.Must("x"), reg)
	require.NoError(t, err)
	assert.Equal(t, backend.CPU, out.Backend())
	assertSameState(t, []complex128{0, 1}, out)
}

func TestSwapAt(t *testing.T) {
	r := registry(t, backend.CPU)
	g, err := r.SwapAt(5, 0, 3)
	require.NoError(t, err)
	reg, ref := randomState(t, 5, 11, backend.CPU)
	out, err := Apply(g, reg)
	require.NoError(t, err)
	ref.Swap(0, 3)
	assertSameState(t, ref.Amplitudes, out)

	_, err = r.SwapAt(3, 1, 1)
	assert.True(t, errors.Is(err, qcirc.ErrShapeMismatch))
}

func TestCSwapAt(t *testing.T) {
	r := registry(t, backend.GPU)
	g, err := r.CSwapAt(4, 3, 0, 2)
	require.NoError(t, err)
	reg, ref := randomState(t, 4, 12, backend.GPU)
	out, err := Apply(g, reg)
	require.NoError(t, err)
	ref.Swap(0, 2, 3)
	assertSameState(t, ref.Amplitudes, out)

	cs := r.Must("cswap")
	full, err := Embed(cs, 3, 0)
	require.NoError(t, err)
	viaThree, err := r.CSwapAt(3, 0, 1, 2)
	require.NoError(t, err)
	assert.True(t, backend.EqualApprox(full.Matrix(), viaThree.Matrix(), 1e-12))
}

func TestParametric(t *testing.T) {
	r := registry(t, backend.CPU)
	be, _ := backend.Get(backend.CPU)

	rx, err := r.Parametric("rx", math.Pi)
	require.NoError(t, err)
	want := backend.FromRows(be, [][]complex128{{0, -1i}, {-1i, 0}})
	assert.True(t, backend.EqualApprox(want, rx.Matrix(), 1e-12))

	p, err := r.Parametric("u1", math.Pi)
	require.NoError(t, err)
	assert.True(t, backend.EqualApprox(r.Must("z").Matrix(), p.Matrix(), 1e-12))

	u, err := r.Parametric("u3", math.Pi/2, 0, math.Pi)
	require.NoError(t, err)
	assert.True(t, backend.EqualApprox(r.Must("hadamard").Matrix(), u.Matrix(), 1e-12))

	for _, g := range []Gate{r.RX(0.4), r.RY(1.3), r.RZ(-2), r.Phase(0.5), u} {
		assert.True(t, IsUnitary(g), g.Name())
	}

	_, err = r.Parametric("rx")
	assert.True(t, errors.Is(err, qcirc.ErrInvalidOperand))
	_, err = r.Parametric("u3", 1)
	assert.True(t, errors.Is(err, qcirc.ErrInvalidOperand))
	_, err = r.Parametric("h", 1)
	assert.True(t, errors.Is(err, qcirc.ErrInvalidOperand))
}

func TestToBackend(t *testing.T) {
	r := registry(t, backend.CPU)
	g, err := r.Must("y").ToBackend(backend.GPU)
	require.NoError(t, err)
	assert.Equal(t, backend.GPU, g.Backend())
	assert.Equal(t, backend.CPU, r.Must("y").Backend())

	_, err = g.ToBackend("tpu")
	assert.True(t, errors.Is(err, qcirc.ErrInvalidBackend))
}
