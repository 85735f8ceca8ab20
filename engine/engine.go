// Package engine binds a backend, a gate registry and a logger into one
// facade for building and running circuits.
package engine

import (
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/mem"

	"qcirc"
	"qcirc/backend"
	"qcirc/circuits"
	"qcirc/gates"
	"qcirc/quantum"
)

// Defaults applied by New to zero-valued settings.
const (
	DefaultMaxQubits = 12
	DefaultClockHz   = 1.0
)

// Config selects the backend and the limits of an Engine.
type Config struct {
	Backend   backend.Name
	ClockHz   float64 // simulated gate rate used for benchmark estimates
	MaxQubits int
	Seed      uint64 // 0 draws measurements from the global source
}

// Engine creates registers and operators on a single backend and refuses
// operators too large to hold in memory.
type Engine struct {
	cfg    Config
	gates  *gates.Registry
	rng    *rand.Rand
	memory func() (uint64, error)
	log    zerolog.Logger
}

// New creates an engine. An unknown backend fails with ErrInvalidBackend.
func New(cfg Config, log zerolog.Logger) (*Engine, error) {
	if cfg.Backend == "" {
		cfg.Backend = backend.CPU
	}
	if cfg.ClockHz <= 0 {
		cfg.ClockHz = DefaultClockHz
	}
	if cfg.MaxQubits <= 0 {
		cfg.MaxQubits = DefaultMaxQubits
	}
	cfg.MaxQubits = min(cfg.MaxQubits, quantum.MaxQubits)

	reg, err := gates.NewRegistry(cfg.Backend)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:    cfg,
		gates:  reg,
		memory: availableMemory,
		log:    log.With().Str("component", "engine").Logger(),
	}
	if cfg.Seed != 0 {
		e.rng = rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	}

	e.log.Debug().
		Str("backend", string(cfg.Backend)).
		Int("max_qubits", cfg.MaxQubits).
		Float64("clock_hz", cfg.ClockHz).
		Msg("Engine ready")
	return e, nil
}

func availableMemory() (uint64, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return v.Available, nil
}

// Backend names where the engine builds registers and operators.
func (e *Engine) Backend() backend.Name { return e.cfg.Backend }

// Gates is the engine's gate registry.
func (e *Engine) Gates() *gates.Registry { return e.gates }

// Config returns the effective configuration, defaults applied.
func (e *Engine) Config() Config { return e.cfg }

// Logger is the engine's component logger.
func (e *Engine) Logger() *zerolog.Logger { return &e.log }

// checkCapacity fails with ErrCapacity when an n-qubit operator is over the
// configured width or its 16·4ⁿ bytes exceed available memory. A failed
// memory reading only logs.
func (e *Engine) checkCapacity(n int) error {
	if n > e.cfg.MaxQubits {
		return fmt.Errorf("%w: %d qubits exceeds the limit of %d", qcirc.ErrCapacity, n, e.cfg.MaxQubits)
	}
	need := uint64(16) << (2 * uint(n))
	avail, err := e.memory()
	if err != nil {
		e.log.Warn().Err(err).Msg("Failed to read available memory")
		return nil
	}
	if need > avail {
		return fmt.Errorf("%w: %d-qubit operator needs %d bytes, %d available", qcirc.ErrCapacity, n, need, avail)
	}
	return nil
}

// Register prepares the basis state bits on the engine backend.
func (e *Engine) Register(bits string) (*quantum.Register, error) {
	if err := e.checkCapacity(len(bits)); err != nil {
		return nil, err
	}
	var opts []quantum.Option
	if e.rng != nil {
		opts = append(opts, quantum.WithRand(e.rng))
	}
	return quantum.NewRegister(bits, e.cfg.Backend, opts...)
}

// Wire compiles gs into a wire on the engine backend.
func (e *Engine) Wire(gs ...gates.Gate) (*circuits.Wire, error) {
	if err := e.checkCapacity(circuits.Width(gs...)); err != nil {
		return nil, err
	}
	return circuits.NewWire(e.cfg.Backend, gs...)
}

// Connection builds g followed by wires on the engine backend.
func (e *Engine) Connection(g gates.Gate, wires ...*circuits.Wire) (*circuits.Connection, error) {
	if err := e.checkCapacity(g.Partition()); err != nil {
		return nil, err
	}
	return circuits.NewConnection(e.cfg.Backend, g, wires...)
}

// QRAM creates a register bank on the engine backend.
func (e *Engine) QRAM(regs ...*quantum.Register) (*quantum.QRAM, error) {
	return quantum.NewQRAM(e.cfg.Backend, regs...)
}

// Controlled places g on target of an n-qubit register under controls.
func (e *Engine) Controlled(g gates.Gate, n, target int, controls ...int) (gates.Gate, error) {
	if err := e.checkCapacity(n); err != nil {
		return gates.Gate{}, err
	}
	return gates.Embed(g, n, target, controls...)
}

func (e *Engine) place(name string, n, target int, controls ...int) (gates.Gate, error) {
	g, err := e.gates.Get(name)
	if err != nil {
		return gates.Gate{}, err
	}
	return e.Controlled(g, n, target, controls...)
}

// Hadamard places H on qubit t of an n-qubit register.
func (e *Engine) Hadamard(n, t int) (gates.Gate, error) { return e.place("hadamard", n, t) }

// X places Pauli-X on qubit t.
func (e *Engine) X(n, t int) (gates.Gate, error) { return e.place("x", n, t) }

// Y places Pauli-Y on qubit t.
func (e *Engine) Y(n, t int) (gates.Gate, error) { return e.place("y", n, t) }

// Z places Pauli-Z on qubit t.
func (e *Engine) Z(n, t int) (gates.Gate, error) { return e.place("z", n, t) }

// S places the S phase gate on qubit t.
func (e *Engine) S(n, t int) (gates.Gate, error) { return e.place("s", n, t) }

// T places the T phase gate on qubit t.
func (e *Engine) T(n, t int) (gates.Gate, error) { return e.place("t", n, t) }

// CNOT flips t when c is 1.
func (e *Engine) CNOT(n, c, t int) (gates.Gate, error) { return e.place("x", n, t, c) }

// CZ applies Z to t when c is 1.
func (e *Engine) CZ(n, c, t int) (gates.Gate, error) { return e.place("z", n, t, c) }

// Toffoli flips t when c1 and c2 are both 1.
func (e *Engine) Toffoli(n, c1, c2, t int) (gates.Gate, error) {
	return e.place("x", n, t, c1, c2)
}

// Phase places diag(1, e^{iφ}) on t.
func (e *Engine) Phase(n, t int, phi float64) (gates.Gate, error) {
	return e.Controlled(e.gates.Phase(phi), n, t)
}

// Swap exchanges qubits a and b, which need not be adjacent.
func (e *Engine) Swap(n, a, b int) (gates.Gate, error) {
	if err := e.checkCapacity(n); err != nil {
		return gates.Gate{}, err
	}
	return e.gates.SwapAt(n, a, b)
}

// CSwap exchanges qubits a and b when c is 1.
func (e *Engine) CSwap(n, c, a, b int) (gates.Gate, error) {
	if err := e.checkCapacity(n); err != nil {
		return gates.Gate{}, err
	}
	return e.gates.CSwapAt(n, c, a, b)
}
