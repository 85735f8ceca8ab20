// Package statevec is a gate-by-gate state-vector simulator that updates
// amplitudes in place with bit masks. It never builds an operator, which
// makes it an independent reference for the Kronecker-product embedding in
// package gates.
//
// Qubit 0 is the most significant bit of the basis index.
package statevec

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"
)

// Matrix2 is a single-qubit operator in row-major order.
type Matrix2 [2][2]complex128

// State is a dense amplitude vector, qubit 0 the most significant bit.
type State struct {
	Amplitudes []complex128
	NumQubits  int
}

// New returns |0...0> on n qubits.
func New(n int) *State {
	amps := make([]complex128, 1<<n)
	amps[0] = 1
	return &State{Amplitudes: amps, NumQubits: n}
}

// FromBits returns the basis state named by an MSB-first bit-string.
func FromBits(bits string) *State {
	s := New(len(bits))
	s.Amplitudes[0] = 0
	idx := 0
	for _, ch := range bits {
		idx <<= 1
		if ch == '1' {
			idx |= 1
		}
	}
	s.Amplitudes[idx] = 1
	return s
}

// Clone returns an independent copy.
func (s *State) Clone() *State {
	amps := make([]complex128, len(s.Amplitudes))
	copy(amps, s.Amplitudes)
	return &State{Amplitudes: amps, NumQubits: s.NumQubits}
}

func (s *State) mask(q int) int {
	return 1 << (s.NumQubits - 1 - q)
}

func (s *State) controlMask(controls []int) int {
	m := 0
	for _, c := range controls {
		m |= s.mask(c)
	}
	return m
}

// Apply runs a named single-qubit gate under any number of controls.
func (s *State) Apply(name string, target int, controls []int, params ...float64) error {
	m, err := Gate(name, params...)
	if err != nil {
		return err
	}
	s.Controlled(m, target, controls...)
	return nil
}

// Controlled applies m to target on the basis states where every control is 1.
func (s *State) Controlled(m Matrix2, target int, controls ...int) {
	bit := s.mask(target)
	cm := s.controlMask(controls)
	for i := range s.Amplitudes {
		if i&bit != 0 || i&cm != cm {
			continue
		}
		j := i | bit
		a0, a1 := s.Amplitudes[i], s.Amplitudes[j]
		s.Amplitudes[i] = m[0][0]*a0 + m[0][1]*a1
		s.Amplitudes[j] = m[1][0]*a0 + m[1][1]*a1
	}
}

// Swap exchanges qubits a and b on the basis states where every control is 1.
func (s *State) Swap(a, b int, controls ...int) {
	bit1, bit2 := s.mask(a), s.mask(b)
	cm := s.controlMask(controls)
	for i := range s.Amplitudes {
		if i&bit1 != 0 && i&bit2 == 0 && i&cm == cm {
			j := (i &^ bit1) | bit2
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

// Gate returns the single-qubit matrix for a lower-case gate name.
func Gate(name string, params ...float64) (Matrix2, error) {
	p := func(i int) float64 {
		if i < len(params) {
			return params[i]
		}
		return 0
	}
	h := complex(1/math.Sqrt2, 0)
	switch strings.ToLower(name) {
	case "id", "identity":
		return Matrix2{{1, 0}, {0, 1}}, nil
	case "h", "hadamard":
		return Matrix2{{h, h}, {h, -h}}, nil
	case "x":
		return Matrix2{{0, 1}, {1, 0}}, nil
	case "y":
		return Matrix2{{0, -1i}, {1i, 0}}, nil
	case "z":
		return Matrix2{{1, 0}, {0, -1}}, nil
	case "s":
		return Matrix2{{1, 0}, {0, 1i}}, nil
	case "sdg":
		return Matrix2{{1, 0}, {0, -1i}}, nil
	case "t":
		return Matrix2{{1, 0}, {0, cmplx.Exp(complex(0, math.Pi/4))}}, nil
	case "tdg":
		return Matrix2{{1, 0}, {0, cmplx.Exp(complex(0, -math.Pi/4))}}, nil
	case "rx":
		c, sn := complex(math.Cos(p(0)/2), 0), complex(0, -math.Sin(p(0)/2))
		return Matrix2{{c, sn}, {sn, c}}, nil
	case "ry":
		c, sn := complex(math.Cos(p(0)/2), 0), complex(math.Sin(p(0)/2), 0)
		return Matrix2{{c, -sn}, {sn, c}}, nil
	case "rz":
		ph := cmplx.Exp(complex(0, p(0)/2))
		return Matrix2{{cmplx.Conj(ph), 0}, {0, ph}}, nil
	case "p", "phase", "u1":
		return Matrix2{{1, 0}, {0, cmplx.Exp(complex(0, p(0)))}}, nil
	}
	return Matrix2{}, fmt.Errorf("statevec: unknown gate %q", name)
}
