package engine

import (
	"context"
	"fmt"
	"time"

	"qcirc"
	"qcirc/circuits"
	"qcirc/gates"
	"qcirc/qasm"
	"qcirc/quantum"
)

// Report summarises a benchmarked run.
type Report struct {
	Gates     int
	Elapsed   time.Duration // wall time of the simulation
	Estimated time.Duration // Gates at the configured clock rate
}

// GateCount is the number of gates a benchmark charges for op. A connection
// counts its entangling gate plus every gate on its wires.
func GateCount(op circuits.Operator) int {
	switch o := op.(type) {
	case *circuits.Wire:
		return len(o.Gates())
	case *circuits.Connection:
		n := 1
		for _, w := range o.Wires() {
			n += len(w.Gates())
		}
		return n
	}
	return 1
}

// Run evolves a copy of reg, moved to the engine backend, through op. reg
// itself is left untouched.
func (e *Engine) Run(ctx context.Context, op circuits.Operator, reg *quantum.Register) (*quantum.Register, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if op == nil || reg == nil {
		return nil, fmt.Errorf("%w: run needs an operator and a register", qcirc.ErrInvalidOperand)
	}
	if err := e.checkCapacity(op.InChannels()); err != nil {
		return nil, err
	}

	in := reg.Copy()
	if err := in.ToBackend(e.cfg.Backend); err != nil {
		return nil, err
	}
	out, err := op.Parse(in)
	if err != nil {
		e.log.Debug().Err(err).Int("qubits", reg.Qubits()).Msg("Run failed")
		return nil, err
	}

	e.log.Debug().
		Int("qubits", out.Qubits()).
		Str("backend", string(out.Backend())).
		Msg("Ran operator")
	return out, nil
}

// Benchmark is Run with timing. Estimated is what the gates would take on
// hardware clocked at ClockHz.
func (e *Engine) Benchmark(ctx context.Context, op circuits.Operator, reg *quantum.Register) (*quantum.Register, Report, error) {
	start := time.Now()
	out, err := e.Run(ctx, op, reg)
	if err != nil {
		return nil, Report{}, err
	}

	rep := Report{
		Gates:   GateCount(op),
		Elapsed: time.Since(start),
	}
	rep.Estimated = time.Duration(float64(rep.Gates) / e.cfg.ClockHz * float64(time.Second))

	e.log.Info().
		Int("gates", rep.Gates).
		Int("qubits", out.Qubits()).
		Dur("elapsed", rep.Elapsed).
		Dur("estimated", rep.Estimated).
		Msg("Benchmark complete")
	return out, rep, nil
}

// Histogram samples reg shots times without collapsing it and counts each
// outcome. Cancellation is checked between shots.
func (e *Engine) Histogram(ctx context.Context, reg *quantum.Register, shots int) (map[string]int, error) {
	if reg == nil {
		return nil, fmt.Errorf("%w: nil register", qcirc.ErrInvalidOperand)
	}
	if shots <= 0 {
		return nil, fmt.Errorf("%w: shots must be positive, got %d", qcirc.ErrInvalidOperand, shots)
	}
	counts := make(map[string]int)
	for i := 0; i < shots; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bits, err := reg.Sample()
		if err != nil {
			return nil, err
		}
		counts[bits]++
	}
	e.log.Debug().Int("shots", shots).Int("outcomes", len(counts)).Msg("Sampled register")
	return counts, nil
}

// Compile parses an OpenQASM program and multiplies it into one gate on the
// engine backend.
func (e *Engine) Compile(src string) (gates.Gate, *qasm.Program, error) {
	p, err := qasm.Parse(src)
	if err != nil {
		return gates.Gate{}, nil, err
	}
	g, err := e.CompileSteps(p, -1)
	if err != nil {
		return gates.Gate{}, nil, err
	}
	e.log.Debug().
		Int("qubits", p.NumQubits).
		Int("ops", len(p.Ops)).
		Int("steps", p.MaxSteps).
		Msg("Compiled program")
	return g, p, nil
}

// CompileSteps multiplies the ops of p at or before step upTo into one gate,
// refusing programs wider than the engine can hold before any operator is
// built. A negative upTo compiles everything.
func (e *Engine) CompileSteps(p *qasm.Program, upTo int) (gates.Gate, error) {
	if err := e.checkCapacity(p.NumQubits); err != nil {
		return gates.Gate{}, err
	}
	return p.CompileSteps(e.gates, upTo)
}

// Placed returns the full-register gates of p at or before step upTo, under
// the same capacity check as CompileSteps.
func (e *Engine) Placed(p *qasm.Program, upTo int) ([]gates.Gate, error) {
	if err := e.checkCapacity(p.NumQubits); err != nil {
		return nil, err
	}
	return p.Placed(e.gates, upTo)
}
