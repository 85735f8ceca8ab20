package engine

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qcirc"
	"qcirc/backend"
	"qcirc/gates"
	"qcirc/internal/logger"
	"qcirc/qasm"
	"qcirc/quantum"
)

func newEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := New(cfg, logger.Nop())
	require.NoError(t, err)
	return e
}

func measure(t *testing.T, e *Engine, g gates.Gate, bits string) string {
	t.Helper()
	reg, err := e.Register(bits)
	require.NoError(t, err)
	out, err := e.Run(context.Background(), g, reg)
	require.NoError(t, err)
	got, err := out.Measure()
	require.NoError(t, err)
	return got
}

func TestNewDefaults(t *testing.T) {
	e := newEngine(t, Config{})
	cfg := e.Config()
	assert.Equal(t, backend.CPU, cfg.Backend)
	assert.Equal(t, DefaultMaxQubits, cfg.MaxQubits)
	assert.Equal(t, DefaultClockHz, cfg.ClockHz)
	assert.Equal(t, backend.CPU, e.Gates().Backend())

	e = newEngine(t, Config{MaxQubits: 99})
	assert.Equal(t, quantum.MaxQubits, e.Config().MaxQubits)
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(Config{Backend: "tpu"}, logger.Nop())
	assert.ErrorIs(t, err, qcirc.ErrInvalidBackend)
}

func TestPositionalGates(t *testing.T) {
	for _, name := range []backend.Name{backend.CPU, backend.GPU} {
		t.Run(string(name), func(t *testing.T) {
			e := newEngine(t, Config{Backend: name})
			tests := []struct {
				name  string
				build func() (gates.Gate, error)
				in    string
				want  string
			}{
				{"x", func() (gates.Gate, error) { return e.X(3, 1) }, "000", "010"},
				{"cnot", func() (gates.Gate, error) { return e.CNOT(3, 0, 2) }, "100", "101"},
				{"cnot idle", func() (gates.Gate, error) { return e.CNOT(3, 0, 2) }, "001", "001"},
				{"swap", func() (gates.Gate, error) { return e.Swap(3, 0, 2) }, "100", "001"},
				{"toffoli", func() (gates.Gate, error) { return e.Toffoli(3, 2, 0, 1) }, "101", "111"},
				{"toffoli one control", func() (gates.Gate, error) { return e.Toffoli(3, 2, 0, 1) }, "001", "001"},
				{"cswap", func() (gates.Gate, error) { return e.CSwap(3, 0, 1, 2) }, "110", "101"},
				{"controlled", func() (gates.Gate, error) { return e.Controlled(e.Gates().Must("x"), 4, 3, 0, 1) }, "1100", "1101"},
			}
			for _, tt := range tests {
				g, err := tt.build()
				require.NoError(t, err, tt.name)
				assert.Equal(t, tt.want, measure(t, e, g, tt.in), tt.name)
			}
		})
	}
}

func TestPhaseMatchesZ(t *testing.T) {
	e := newEngine(t, Config{})
	p, err := e.Phase(2, 1, math.Pi)
	require.NoError(t, err)
	z, err := e.Z(2, 1)
	require.NoError(t, err)
	assert.True(t, backend.EqualApprox(p.Matrix(), z.Matrix(), 1e-12))

	cz, err := e.CZ(2, 0, 1)
	require.NoError(t, err)
	reg, err := quantum.FromAmplitudes([]complex128{0, 0, 0, 1}, backend.CPU)
	require.NoError(t, err)
	out, err := e.Run(context.Background(), cz, reg)
	require.NoError(t, err)
	assert.InDelta(t, -1, real(out.Amplitudes()[3]), 1e-12)
}

func TestSingleQubitAccessors(t *testing.T) {
	e := newEngine(t, Config{})
	for _, build := range []func(int, int) (gates.Gate, error){e.Hadamard, e.X, e.Y, e.Z, e.S, e.T} {
		g, err := build(3, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, g.Partition())
		assert.True(t, gates.IsUnitary(g))
	}
	_, err := e.X(3, 3)
	assert.ErrorIs(t, err, qcirc.ErrShapeMismatch)
}

func TestBellHistogram(t *testing.T) {
	e := newEngine(t, Config{Seed: 7})
	h, err := e.Hadamard(2, 0)
	require.NoError(t, err)
	cx, err := e.CNOT(2, 0, 1)
	require.NoError(t, err)
	w, err := e.Wire(h, cx)
	require.NoError(t, err)

	reg, err := e.Register("00")
	require.NoError(t, err)
	out, err := e.Run(context.Background(), w, reg)
	require.NoError(t, err)
	assert.True(t, out.Verify())

	counts, err := e.Histogram(context.Background(), out, 2000)
	require.NoError(t, err)
	assert.Len(t, counts, 2)
	assert.Equal(t, 2000, counts["00"]+counts["11"])
	assert.InDelta(t, 1000, counts["00"], 120)

	// Sampling leaves the state alone.
	assert.InDelta(t, 0.5, out.Probabilities()[0], 1e-9)
}

func TestSeededEnginesAgree(t *testing.T) {
	sample := func() map[string]int {
		e := newEngine(t, Config{Seed: 42})
		h, err := e.Hadamard(3, 0)
		require.NoError(t, err)
		reg, err := e.Register("011")
		require.NoError(t, err)
		out, err := e.Run(context.Background(), h, reg)
		require.NoError(t, err)
		counts, err := e.Histogram(context.Background(), out, 100)
		require.NoError(t, err)
		return counts
	}
	assert.Equal(t, sample(), sample())
}

func TestRunLeavesInputAlone(t *testing.T) {
	e := newEngine(t, Config{Backend: backend.GPU})
	x, err := e.X(1, 0)
	require.NoError(t, err)
	reg, err := quantum.NewRegister("0", backend.CPU)
	require.NoError(t, err)

	out, err := e.Run(context.Background(), x, reg)
	require.NoError(t, err)
	assert.Equal(t, backend.GPU, out.Backend())
	assert.Equal(t, backend.CPU, reg.Backend())
	assert.Equal(t, []complex128{1, 0}, reg.Amplitudes())
}

func TestRunErrors(t *testing.T) {
	e := newEngine(t, Config{})
	x, err := e.X(2, 0)
	require.NoError(t, err)
	reg, err := e.Register("000")
	require.NoError(t, err)

	_, err = e.Run(context.Background(), x, reg)
	assert.ErrorIs(t, err, qcirc.ErrShapeMismatch)

	_, err = e.Run(context.Background(), x, nil)
	assert.ErrorIs(t, err, qcirc.ErrInvalidOperand)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Run(ctx, x, reg)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = e.Histogram(ctx, reg, 10)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = e.Histogram(context.Background(), reg, 0)
	assert.ErrorIs(t, err, qcirc.ErrInvalidOperand)
}

func TestCapacityGuard(t *testing.T) {
	e := newEngine(t, Config{MaxQubits: 3})

	_, err := e.Register("0000")
	assert.ErrorIs(t, err, qcirc.ErrCapacity)
	_, err = e.Hadamard(4, 0)
	assert.ErrorIs(t, err, qcirc.ErrCapacity)
	_, err = e.Swap(5, 0, 1)
	assert.ErrorIs(t, err, qcirc.ErrCapacity)

	e.memory = func() (uint64, error) { return 1000, nil }
	_, err = e.Hadamard(3, 0) // 16·64 bytes
	assert.ErrorIs(t, err, qcirc.ErrCapacity)
	_, err = e.Hadamard(2, 0)
	assert.NoError(t, err)

	e.memory = func() (uint64, error) { return 0, errors.New("no meminfo") }
	_, err = e.Hadamard(3, 0)
	assert.NoError(t, err, "unreadable memory stats must not block")
}

func TestCapacityWarnsOnUnreadableMemory(t *testing.T) {
	var buf bytes.Buffer
	e, err := New(Config{}, zerolog.New(&buf).Level(zerolog.WarnLevel))
	require.NoError(t, err)
	e.memory = func() (uint64, error) { return 0, errors.New("no meminfo") }

	_, err = e.X(1, 0)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Failed to read available memory")
	assert.Contains(t, buf.String(), `"component":"engine"`)
}

func TestBenchmark(t *testing.T) {
	var buf bytes.Buffer
	e, err := New(Config{ClockHz: 2}, zerolog.New(&buf).Level(zerolog.InfoLevel))
	require.NoError(t, err)

	reg := e.Gates()
	h, x, cnot := reg.Must("hadamard"), reg.Must("x"), reg.Must("cnot")
	w1, err := e.Wire(h, x, h)
	require.NoError(t, err)
	w2, err := e.Wire(x)
	require.NoError(t, err)
	conn, err := e.Connection(cnot, w1, w2)
	require.NoError(t, err)

	in, err := e.Register("00")
	require.NoError(t, err)
	out, rep, err := e.Benchmark(context.Background(), conn, in)
	require.NoError(t, err)
	assert.True(t, out.Verify())
	assert.Equal(t, 5, rep.Gates)
	assert.Equal(t, 2500*time.Millisecond, rep.Estimated)
	assert.Greater(t, int64(rep.Elapsed), int64(0))
	assert.Contains(t, buf.String(), "Benchmark complete")

	_, rep, err = e.Benchmark(context.Background(), w1, mustRegister(t, e, "1"))
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Gates)
	assert.Equal(t, 1, GateCount(h))
}

func mustRegister(t *testing.T, e *Engine, bits string) *quantum.Register {
	t.Helper()
	reg, err := e.Register(bits)
	require.NoError(t, err)
	return reg
}

func TestCompileBell(t *testing.T) {
	e := newEngine(t, Config{Seed: 3})
	g, p, err := e.Compile(`OPENQASM 2.0;
include "qelib1.inc";
qreg q[2];
creg c[2];
h q[0];
cx q[0], q[1];
measure q[0] -> c[0];
measure q[1] -> c[1];`)
	require.NoError(t, err)
	assert.Equal(t, 2, p.NumQubits)
	assert.Equal(t, []int{0, 1}, p.Measured())

	out, err := e.Run(context.Background(), g, mustRegister(t, e, "00"))
	require.NoError(t, err)
	counts, err := e.Histogram(context.Background(), out, 200)
	require.NoError(t, err)
	for bits := range counts {
		assert.Contains(t, []string{"00", "11"}, bits)
	}

	small := newEngine(t, Config{MaxQubits: 2})
	_, _, err = small.Compile("qreg q[3];\nh q[0];")
	assert.ErrorIs(t, err, qcirc.ErrCapacity)
	_, _, err = small.Compile("reset q[0];")
	assert.ErrorIs(t, err, qcirc.ErrInvalidOperand)
}

func TestCompileStepsRefusesWidePrograms(t *testing.T) {
	e := newEngine(t, Config{MaxQubits: 3})

	for _, src := range []string{"qreg q[4];\nh q[0];", "qreg q[40];\nh q[0];\ncx q[0], q[39];"} {
		p, err := qasm.Parse(src)
		require.NoError(t, err)
		_, err = e.CompileSteps(p, -1)
		assert.ErrorIs(t, err, qcirc.ErrCapacity, src)
		_, err = e.Placed(p, -1)
		assert.ErrorIs(t, err, qcirc.ErrCapacity, src)
	}

	p, err := qasm.Parse("qreg q[3];\nx q[0];\nx q[2];")
	require.NoError(t, err)
	g, err := e.CompileSteps(p, 0)
	require.NoError(t, err)
	out, err := e.Run(context.Background(), g, mustRegister(t, e, "000"))
	require.NoError(t, err)
	bits, err := out.Measure()
	require.NoError(t, err)
	assert.Equal(t, "101", bits)

	gs, err := e.Placed(p, 0)
	require.NoError(t, err)
	assert.Len(t, gs, 2)
}

func TestQRAMOnEngineBackend(t *testing.T) {
	e := newEngine(t, Config{Backend: backend.GPU})
	reg, err := quantum.NewRegister("10", backend.CPU)
	require.NoError(t, err)

	bank, err := e.QRAM(reg)
	require.NoError(t, err)
	assert.Equal(t, backend.GPU, bank.Backend())
	got, err := bank.Fetch(0)
	require.NoError(t, err)
	assert.Same(t, reg, got)
	assert.Equal(t, backend.GPU, got.Backend())
	assert.Equal(t, []int{2}, bank.AddressLengths())
}
