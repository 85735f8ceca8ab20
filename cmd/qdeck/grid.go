package main

import (
	"slices"
	"strings"

	"qcirc/qasm"
)

// cellInfo describes what occupies a single cell in the circuit grid.
type cellInfo struct {
	op           *qasm.Op
	isControl    bool
	isTarget     bool // target of a multi-qubit op
	vertAbove    bool
	vertBelow    bool
	passThrough  bool
	measureBelow bool
	isBarrier    bool
}

// cellAt returns rendering information for the cell at (step, qubit).
func cellAt(p *qasm.Program, step, qubit int) cellInfo {
	var info cellInfo

	if op := p.OpAt(step, qubit); op != nil {
		info.op = op
		info.isBarrier = op.Name == qasm.Barrier
		multi := len(op.Qubits()) > 1
		info.isControl = slices.Contains(op.Controls, qubit)
		info.isTarget = multi && slices.Contains(op.Targets, qubit)
	}

	for _, op := range p.Ops {
		if op.Step != step {
			continue
		}
		qs := op.Qubits()
		if len(qs) > 1 {
			lo, hi := slices.Min(qs), slices.Max(qs)
			if qubit >= lo && qubit <= hi {
				info.vertAbove = info.vertAbove || qubit > lo
				info.vertBelow = info.vertBelow || qubit < hi
				if qubit > lo && qubit < hi && info.op == nil {
					info.passThrough = true
				}
			}
		}
		if op.Name == qasm.Measure && qubit > op.Targets[0] {
			info.measureBelow = true
		}
	}
	return info
}

// measureAt returns the classical bit written at step, or -1.
func measureAt(p *qasm.Program, step int) int {
	for _, op := range p.Ops {
		if op.Step == step && op.Name == qasm.Measure {
			return op.Cbit
		}
	}
	return -1
}

// displayName is the label drawn inside a gate box. Controlled gates show
// the gate they control.
func displayName(op *qasm.Op) string {
	name := op.Name
	if len(op.Controls) > 0 {
		name = strings.TrimPrefix(name, "c")
	}
	switch name {
	case qasm.Measure:
		return "M"
	case "id":
		return "I"
	case "sdg":
		return "S†"
	case "tdg":
		return "T†"
	}
	return strings.ToUpper(name)
}

// targetSymbol returns the wire symbol for a target of a multi-qubit op, or
// "" when the target is drawn as a box.
func targetSymbol(op *qasm.Op) string {
	switch op.Name {
	case "cx", "ccx":
		return "⊕"
	case "cz":
		return "●"
	case "swap", "cswap":
		return "×"
	}
	return ""
}
