package quantum

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qcirc"
	"qcirc/backend"
)

func mustRegister(t *testing.T, bits string, name backend.Name) *Register {
	t.Helper()
	r, err := NewRegister(bits, name)
	require.NoError(t, err)
	return r
}

func TestQRAMRoundTrip(t *testing.T) {
	a := mustRegister(t, "01", backend.CPU)
	b := mustRegister(t, "1", backend.CPU)

	bank, err := NewQRAM(backend.GPU, a, b)
	require.NoError(t, err)
	assert.Equal(t, 2, bank.Len())
	assert.Equal(t, []int{2, 1}, bank.AddressLengths())

	got, err := bank.Fetch(0)
	require.NoError(t, err)
	assert.Same(t, a, got)
	assert.Equal(t, backend.GPU, got.Backend())

	contents := bank.ReadContents()
	rows, cols := contents.Dims()
	assert.Equal(t, 6, rows)
	assert.Equal(t, 1, cols)
	assert.Equal(t, []complex128{0, 1, 0, 0, 0, 1}, contents.Data())
}

func TestQRAMDelete(t *testing.T) {
	bank, err := NewQRAM(backend.CPU)
	require.NoError(t, err)
	assert.Nil(t, bank.ReadContents())

	require.NoError(t, bank.Store(
		mustRegister(t, "0", backend.CPU),
		mustRegister(t, "11", backend.CPU),
		mustRegister(t, "101", backend.GPU),
	))
	require.NoError(t, bank.Delete(1))
	assert.Equal(t, []int{1, 3}, bank.AddressLengths())

	last, err := bank.Fetch(1)
	require.NoError(t, err)
	assert.Equal(t, backend.CPU, last.Backend())
	assert.Equal(t, 3, last.Qubits())
}

func TestQRAMKeepsRegisters(t *testing.T) {
	q1 := mustRegister(t, "0", backend.CPU)
	q2 := mustRegister(t, "10", backend.CPU)
	q3 := mustRegister(t, "111", backend.CPU)

	bank, err := NewQRAM(backend.CPU)
	require.NoError(t, err)
	require.NoError(t, bank.Store(q1, q2, q3))

	for addr, want := range []*Register{q1, q2, q3} {
		got, err := bank.Fetch(addr)
		require.NoError(t, err)
		assert.Same(t, want, got, "address %d", addr)
	}

	require.NoError(t, bank.Delete(0))
	got, err := bank.Fetch(0)
	require.NoError(t, err)
	assert.Same(t, q2, got)
	assert.Equal(t, []int{2, 3}, bank.AddressLengths())

	// measuring a fetched register is seen by the bank
	plus, err := FromAmplitudes([]complex128{complex(math.Sqrt2/2, 0), complex(math.Sqrt2/2, 0)}, backend.CPU)
	require.NoError(t, err)
	require.NoError(t, bank.Store(plus))
	fetched, err := bank.Fetch(2)
	require.NoError(t, err)
	bits, err := fetched.Measure()
	require.NoError(t, err)
	want := []complex128{1, 0}
	if bits == "1" {
		want = []complex128{0, 1}
	}
	data := bank.ReadContents().Data()
	assert.Equal(t, want, data[len(data)-2:])
}

func TestQRAMErrors(t *testing.T) {
	_, err := NewQRAM("tpu")
	assert.True(t, errors.Is(err, qcirc.ErrInvalidBackend))

	bank, err := NewQRAM(backend.CPU, mustRegister(t, "0", backend.CPU))
	require.NoError(t, err)

	_, err = bank.Fetch(1)
	assert.True(t, errors.Is(err, qcirc.ErrAddressOutOfRange))
	_, err = bank.Fetch(-1)
	assert.True(t, errors.Is(err, qcirc.ErrAddressOutOfRange))
	assert.True(t, errors.Is(bank.Delete(3), qcirc.ErrAddressOutOfRange))

	err = bank.Store(mustRegister(t, "1", backend.CPU), nil)
	assert.True(t, errors.Is(err, qcirc.ErrInvalidOperand))
	assert.Equal(t, 1, bank.Len())
}
