// Package qcirc is a dense state-vector quantum circuit simulator.
//
// A register of n qubits is a column of 2^n complex amplitudes. Gates are
// unitary matrices embedded into the full space with Kronecker products,
// composed sequentially into wires and in parallel into connections, and
// applied by matrix multiplication. The sub-packages hold the pieces:
//
//   - backend: dense complex matrices on the cpu and gpu layouts
//   - quantum: registers, measurement and the QRAM bank
//   - gates: the gate registry, extension and positional embedding
//   - circuits: wires and connections
//   - engine: a facade binding one backend, logger and capacity limits
//   - qasm: an OpenQASM 2.0 subset front-end
//
// This package only carries the error kinds every sub-package wraps.
package qcirc

import "errors"

var (
	// ErrInvalidBackend is returned for a backend token other than "cpu" or "gpu".
	ErrInvalidBackend = errors.New("invalid backend")

	// ErrInvalidState is returned for a malformed bit-string or an out of range qubit.
	ErrInvalidState = errors.New("invalid state")

	// ErrShapeMismatch is returned when operator and operand dimensions disagree,
	// when a connection's gate arity differs from its wire count, or when control
	// and target positions overlap.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrInvalidOperand is returned when an operation receives the wrong kind of value.
	ErrInvalidOperand = errors.New("invalid operand")

	// ErrInvalidNormalization is returned when amplitudes do not sum to unit probability.
	ErrInvalidNormalization = errors.New("invalid normalization")

	// ErrAddressOutOfRange is returned by the QRAM bank for an unknown address.
	ErrAddressOutOfRange = errors.New("address out of range")

	// ErrCapacity is returned when a dense operator would exceed the configured limits.
	ErrCapacity = errors.New("capacity exceeded")
)
