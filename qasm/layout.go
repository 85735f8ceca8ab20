package qasm

// layout packs consecutive statements into timeline steps. Single-qubit
// gates share a step until one of their qubits is reused; multi-qubit gates,
// measurements and barriers always open a fresh step so the circuit view
// draws their connectors unobstructed.
type layout struct {
	step int
	used map[int]bool
}

func newLayout() *layout {
	return &layout{used: make(map[int]bool)}
}

func (l *layout) advance() {
	if len(l.used) > 0 {
		l.step++
		l.used = make(map[int]bool)
	}
}

// place assigns op.Step.
func (l *layout) place(op *Op) {
	qubits := op.Qubits()
	exclusive := op.Name == Barrier || op.Name == Measure || len(qubits) > 1
	if exclusive {
		l.advance()
	} else {
		for _, q := range qubits {
			if l.used[q] {
				l.advance()
				break
			}
		}
	}
	op.Step = l.step
	if op.Name == Barrier {
		l.step++
		return
	}
	for _, q := range qubits {
		l.used[q] = true
	}
	if exclusive {
		l.advance()
	}
}

// CanPlace reports whether a gate on qubits may be dropped into step without
// colliding with a multi-qubit op or barrier already there.
func (p *Program) CanPlace(step int, qubits []int) bool {
	for _, q := range qubits {
		op := p.OpAt(step, q)
		if op == nil {
			continue
		}
		if op.Name == Barrier || len(op.Qubits()) > 1 || len(qubits) > 1 {
			return false
		}
	}
	return true
}
