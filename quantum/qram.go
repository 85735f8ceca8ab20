package quantum

import (
	"fmt"

	"qcirc"
	"qcirc/backend"
)

// QRAM is an addressable bank of registers. Its contents read out as the
// vertical concatenation of every stored amplitude column.
type QRAM struct {
	be   backend.Backend
	regs []*Register
}

// NewQRAM creates a bank on the named backend, optionally pre-filled.
func NewQRAM(name backend.Name, regs ...*Register) (*QRAM, error) {
	be, err := backend.Get(name)
	if err != nil {
		return nil, err
	}
	q := &QRAM{be: be}
	if err := q.Store(regs...); err != nil {
		return nil, err
	}
	return q, nil
}

// Backend names where stored registers live.
func (q *QRAM) Backend() backend.Name { return q.be.Name() }

// Len is the number of stored registers.
func (q *QRAM) Len() int { return len(q.regs) }

// Store appends regs in order and moves each onto the bank's backend in
// place. The bank keeps the registers themselves; either all are stored or
// none.
func (q *QRAM) Store(regs ...*Register) error {
	for i, r := range regs {
		if r == nil {
			return fmt.Errorf("%w: nil register at position %d", qcirc.ErrInvalidOperand, i)
		}
	}
	for _, r := range regs {
		if err := r.ToBackend(q.be.Name()); err != nil {
			return err
		}
	}
	q.regs = append(q.regs, regs...)
	return nil
}

// Fetch returns the register stored at addr.
func (q *QRAM) Fetch(addr int) (*Register, error) {
	if err := q.check(addr); err != nil {
		return nil, err
	}
	return q.regs[addr], nil
}

// Delete removes the register at addr; later addresses shift down by one.
func (q *QRAM) Delete(addr int) error {
	if err := q.check(addr); err != nil {
		return err
	}
	q.regs = append(q.regs[:addr], q.regs[addr+1:]...)
	return nil
}

// AddressLengths returns the qubit count of every stored register.
func (q *QRAM) AddressLengths() []int {
	out := make([]int, len(q.regs))
	for i, r := range q.regs {
		out[i] = r.Qubits()
	}
	return out
}

// ReadContents stacks the stored amplitude columns. An empty bank reads nil.
func (q *QRAM) ReadContents() backend.Dense {
	if len(q.regs) == 0 {
		return nil
	}
	var data []complex128
	for _, r := range q.regs {
		data = append(data, r.Amplitudes()...)
	}
	return q.be.New(len(data), 1, data)
}

func (q *QRAM) check(addr int) error {
	if addr < 0 || addr >= len(q.regs) {
		return fmt.Errorf("%w: %d not in [0, %d)", qcirc.ErrAddressOutOfRange, addr, len(q.regs))
	}
	return nil
}
