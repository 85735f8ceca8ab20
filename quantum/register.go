// Package quantum holds qubit registers and the QRAM bank.
//
// A Register of n qubits is a 2^n x 1 amplitude column on one backend.
// Bit-strings are read most significant bit first, so qubit 0 is the
// leftmost character and basis index int(bits, 2).
package quantum

import (
	"fmt"
	"math/cmplx"
	"math/rand/v2"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"

	"qcirc"
	"qcirc/backend"
)

const (
	// MaxQubits bounds register width; a dense operator at this width is
	// already 4^24 elements.
	MaxQubits = 24

	// Tolerance is the slack allowed on the total probability.
	Tolerance = 1e-9
)

// Operand is anything an operator can be parsed against.
type Operand interface {
	Dim() int
	Backend() backend.Name
}

// Option configures a Register.
type Option func(*Register)

// WithRand draws measurements from r instead of the global source. The
// generator is shared by copies of the register.
func WithRand(r *rand.Rand) Option {
	return func(reg *Register) { reg.rng = r }
}

// Register is an n-qubit state vector on one backend. Operators never
// modify it; only Measure and ToBackend change it in place.
type Register struct {
	n    int
	be   backend.Backend
	data backend.Dense
	rng  *rand.Rand
}

// NewRegister prepares the computational basis state named by bits.
func NewRegister(bits string, name backend.Name, opts ...Option) (*Register, error) {
	if len(bits) == 0 || len(bits) > MaxQubits {
		return nil, fmt.Errorf("%w: register width %d outside 1..%d", qcirc.ErrInvalidState, len(bits), MaxQubits)
	}
	idx := 0
	for i, ch := range bits {
		switch ch {
		case '0':
			idx <<= 1
		case '1':
			idx = idx<<1 | 1
		default:
			return nil, fmt.Errorf("%w: %q has non-binary character %q at %d", qcirc.ErrInvalidState, bits, ch, i)
		}
	}
	be, err := backend.Get(name)
	if err != nil {
		return nil, err
	}
	d := 1 << len(bits)
	amps := make([]complex128, d)
	amps[idx] = 1
	return newRegister(len(bits), be, be.New(d, 1, amps), opts), nil
}

// FromAmplitudes wraps an explicit amplitude vector. Its length must be a
// power of two; normalization is not enforced, see Verify.
func FromAmplitudes(amps []complex128, name backend.Name, opts ...Option) (*Register, error) {
	n, ok := backend.Qubits(len(amps))
	if !ok || n == 0 || n > MaxQubits {
		return nil, fmt.Errorf("%w: %d amplitudes is not a register of 1..%d qubits", qcirc.ErrInvalidState, len(amps), MaxQubits)
	}
	be, err := backend.Get(name)
	if err != nil {
		return nil, err
	}
	return newRegister(n, be, be.New(len(amps), 1, amps), opts), nil
}

func newRegister(n int, be backend.Backend, data backend.Dense, opts []Option) *Register {
	r := &Register{n: n, be: be, data: data}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Qubits is the register width n.
func (r *Register) Qubits() int { return r.n }

// Dim is the number of amplitudes, 2^n.
func (r *Register) Dim() int { return 1 << r.n }

// Backend names where the amplitudes live.
func (r *Register) Backend() backend.Name { return r.be.Name() }

// Vector returns the amplitude column as stored.
func (r *Register) Vector() backend.Dense { return r.data }

// Amplitudes returns a host copy of the state.
func (r *Register) Amplitudes() []complex128 { return r.data.Data() }

// Copy returns a register with independent storage on the same backend.
func (r *Register) Copy() *Register {
	return &Register{n: r.n, be: r.be, data: r.be.New(r.Dim(), 1, r.data.Data()), rng: r.rng}
}

// ToBackend moves the amplitudes to the named backend. An unknown name
// leaves the register untouched.
func (r *Register) ToBackend(name backend.Name) error {
	if name == r.be.Name() {
		return nil
	}
	be, err := backend.Get(name)
	if err != nil {
		return err
	}
	r.be, r.data = be, be.Import(r.data)
	return nil
}

// Evolve returns op·state as a new register on this register's backend.
func (r *Register) Evolve(op backend.Dense) (*Register, error) {
	rows, cols := op.Dims()
	if cols != r.Dim() {
		return nil, fmt.Errorf("%w: operator has %d columns, register dimension is %d", qcirc.ErrShapeMismatch, cols, r.Dim())
	}
	n, ok := backend.Qubits(rows)
	if !ok || n == 0 {
		return nil, fmt.Errorf("%w: operator has %d rows", qcirc.ErrShapeMismatch, rows)
	}
	out, err := r.be.MatMul(r.be.Import(op), r.data)
	if err != nil {
		return nil, err
	}
	return &Register{n: n, be: r.be, data: out, rng: r.rng}, nil
}

// Probabilities returns |a_i|^2 for every basis state.
func (r *Register) Probabilities() []float64 {
	amps := r.data.Data()
	probs := make([]float64, len(amps))
	for i, a := range amps {
		probs[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return probs
}

// QubitProbability is the marginal distribution of one qubit.
type QubitProbability struct {
	Zero float64
	One  float64
}

// QubitProbabilities returns the marginal distribution of every qubit,
// indexed from the leftmost.
func (r *Register) QubitProbabilities() []QubitProbability {
	out := make([]QubitProbability, r.n)
	for i, p := range r.Probabilities() {
		for q := 0; q < r.n; q++ {
			if i&(1<<(r.n-1-q)) != 0 {
				out[q].One += p
			} else {
				out[q].Zero += p
			}
		}
	}
	return out
}

// Verify reports whether the total probability is 1 within Tolerance.
func (r *Register) Verify() bool {
	return scalar.EqualWithinAbs(floats.Sum(r.Probabilities()), 1, Tolerance)
}

// Measure samples a basis state, collapses the register onto it and
// returns its zero-padded bit-string.
func (r *Register) Measure() (string, error) {
	idx, err := r.draw()
	if err != nil {
		return "", err
	}
	amps := make([]complex128, r.Dim())
	amps[idx] = 1
	r.data = r.be.New(r.Dim(), 1, amps)
	return r.format(idx), nil
}

// Sample draws like Measure without collapsing the state.
func (r *Register) Sample() (string, error) {
	idx, err := r.draw()
	if err != nil {
		return "", err
	}
	return r.format(idx), nil
}

func (r *Register) draw() (int, error) {
	probs := r.Probabilities()
	total := floats.Sum(probs)
	if !scalar.EqualWithinAbs(total, 1, Tolerance) {
		return 0, fmt.Errorf("%w: probabilities sum to %.12f", qcirc.ErrInvalidNormalization, total)
	}
	cum := make([]float64, len(probs))
	floats.CumSum(cum, probs)

	var u float64
	if r.rng != nil {
		u = r.rng.Float64()
	} else {
		u = rand.Float64()
	}
	u *= total
	idx := sort.Search(len(cum), func(i int) bool { return cum[i] > u })
	// Rounding can leave u at or past the last partial sum.
	for idx >= len(cum) || probs[idx] == 0 {
		idx--
	}
	return idx, nil
}

func (r *Register) format(idx int) string {
	return fmt.Sprintf("%0*b", r.n, idx)
}

// String lists the non-negligible terms of the state in ket notation.
func (r *Register) String() string {
	var b strings.Builder
	for i, a := range r.data.Data() {
		if cmplx.Abs(a) < 1e-10 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(" + ")
		}
		fmt.Fprintf(&b, "(%.4g%+.4gi)|%s⟩", real(a), imag(a), r.format(i))
	}
	if b.Len() == 0 {
		return "0"
	}
	return b.String()
}
