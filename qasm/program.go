// Package qasm reads and writes the OpenQASM 2.0 subset the simulator can
// execute and compiles programs into a single full-register gate.
//
// Qubit q[i] is position i of the register bit-string counted from the left,
// matching quantum.NewRegister.
package qasm

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"qcirc"
)

// Pre-compiled regexps for QASM parsing.
var (
	qregRegex    = regexp.MustCompile(`^qreg\s+(\w+)\s*\[(\d+)\]\s*;?$`)
	cregRegex    = regexp.MustCompile(`^creg\s+(\w+)\s*\[(\d+)\]\s*;?$`)
	measureRegex = regexp.MustCompile(`^measure\s+\w+\[(\d+)\]\s*->\s*\w+\[(\d+)\]\s*;?$`)
	barrierRegex = regexp.MustCompile(`^barrier(?:\s+.*)?;?$`)
	stmtRegex    = regexp.MustCompile(`^(\w+)\s*(?:\(([^)]*)\))?\s+(.+?)\s*;?$`)
	operandRegex = regexp.MustCompile(`^\w+\[(\d+)\]$`)
	noiseRegex   = regexp.MustCompile(`^//\s*noise\s`)
)

type kind struct {
	base     string // registry name of the uncontrolled gate
	controls int
	targets  int
	params   int
}

// kinds lists every executable statement.
var kinds = map[string]kind{
	"id":    {"identity", 0, 1, 0},
	"h":     {"hadamard", 0, 1, 0},
	"x":     {"x", 0, 1, 0},
	"y":     {"y", 0, 1, 0},
	"z":     {"z", 0, 1, 0},
	"s":     {"s", 0, 1, 0},
	"sdg":   {"sdg", 0, 1, 0},
	"t":     {"t", 0, 1, 0},
	"tdg":   {"tdg", 0, 1, 0},
	"rx":    {"rx", 0, 1, 1},
	"ry":    {"ry", 0, 1, 1},
	"rz":    {"rz", 0, 1, 1},
	"p":     {"p", 0, 1, 1},
	"u1":    {"p", 0, 1, 1},
	"u3":    {"u3", 0, 1, 3},
	"cx":    {"x", 1, 1, 0},
	"cy":    {"y", 1, 1, 0},
	"cz":    {"z", 1, 1, 0},
	"ch":    {"hadamard", 1, 1, 0},
	"crx":   {"rx", 1, 1, 1},
	"cry":   {"ry", 1, 1, 1},
	"crz":   {"rz", 1, 1, 1},
	"cp":    {"p", 1, 1, 1},
	"cu1":   {"p", 1, 1, 1},
	"ccx":   {"x", 2, 1, 0},
	"swap":  {"swap", 0, 2, 0},
	"cswap": {"swap", 1, 2, 0},
}

// IsGate reports whether name is an executable gate statement.
func IsGate(name string) bool {
	_, ok := kinds[name]
	return ok
}

// Arity returns the control, target and parameter counts of a gate statement.
func Arity(name string) (controls, targets, params int, ok bool) {
	k, ok := kinds[name]
	return k.controls, k.targets, k.params, ok
}

const (
	Barrier = "barrier"
	Measure = "measure"
)

// Op is one placed statement.
type Op struct {
	Name     string
	Controls []int
	Targets  []int
	Params   []float64
	Cbit     int // measure destination
	Step     int // position in the timeline
}

// Qubits returns every qubit the op touches, controls first.
func (o Op) Qubits() []int {
	return append(append([]int(nil), o.Controls...), o.Targets...)
}

// References reports whether the op touches qubit q. Barriers span every qubit.
func (o Op) References(q int) bool {
	return o.Name == Barrier || slices.Contains(o.Controls, q) || slices.Contains(o.Targets, q)
}

// Program is a parsed circuit.
type Program struct {
	NumQubits int
	NumCbits  int
	Ops       []Op
	MaxSteps  int
}

// Add places op at its Step, growing the register to fit.
func (p *Program) Add(op Op) {
	for _, q := range op.Qubits() {
		p.NumQubits = max(p.NumQubits, q+1)
	}
	if op.Name == Measure {
		p.NumCbits = max(p.NumCbits, op.Cbit+1)
	}
	p.Ops = append(p.Ops, op)
	p.MaxSteps = max(p.MaxSteps, op.Step+1)
}

// OpAt returns the op at step touching qubit, or nil.
func (p *Program) OpAt(step, qubit int) *Op {
	for i := range p.Ops {
		if op := &p.Ops[i]; op.Step == step && op.References(qubit) {
			return op
		}
	}
	return nil
}

// RemoveAt deletes any op at step touching qubit.
func (p *Program) RemoveAt(step, qubit int) {
	p.Ops = slices.DeleteFunc(p.Ops, func(op Op) bool {
		return op.Step == step && op.References(qubit)
	})
}

// DropQubit removes the highest qubit and every op that touches it.
func (p *Program) DropQubit() {
	if p.NumQubits <= 1 {
		return
	}
	q := p.NumQubits - 1
	p.Ops = slices.DeleteFunc(p.Ops, func(op Op) bool {
		return op.Name != Barrier && op.References(q)
	})
	p.NumQubits--
}

// Ordered returns the ops sorted by step, stable within a step.
func (p *Program) Ordered() []Op {
	ops := slices.Clone(p.Ops)
	slices.SortStableFunc(ops, func(a, b Op) int { return a.Step - b.Step })
	return ops
}

// Measured returns the measured qubits in program order.
func (p *Program) Measured() []int {
	var qs []int
	for _, op := range p.Ordered() {
		if op.Name == Measure {
			qs = append(qs, op.Targets[0])
		}
	}
	return qs
}

// Parse reads an OpenQASM 2.0 program and lays it out on a timeline.
// Statements the simulator cannot run (reset, classically conditioned gates,
// noise annotations) are rejected.
func Parse(src string) (*Program, error) {
	p := &Program{}
	declared := -1
	lay := newLayout()
	add := func(op Op) {
		lay.place(&op)
		p.Add(op)
	}

	for n, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		lineErr := func(format string, args ...any) error {
			return fmt.Errorf("line %d: "+format, append([]any{n + 1}, args...)...)
		}
		switch {
		case noiseRegex.MatchString(line):
			return nil, lineErr("%w: noise annotations are not supported", qcirc.ErrInvalidOperand)
		case line == "", strings.HasPrefix(line, "//"),
			strings.HasPrefix(line, "OPENQASM"), strings.HasPrefix(line, "include"):
			continue
		}

		if m := qregRegex.FindStringSubmatch(line); m != nil {
			declared, _ = strconv.Atoi(m[2])
			continue
		}
		if m := cregRegex.FindStringSubmatch(line); m != nil {
			c, _ := strconv.Atoi(m[2])
			p.NumCbits = max(p.NumCbits, c)
			continue
		}
		if barrierRegex.MatchString(line) {
			add(Op{Name: Barrier})
			continue
		}
		if m := measureRegex.FindStringSubmatch(line); m != nil {
			q, _ := strconv.Atoi(m[1])
			c, _ := strconv.Atoi(m[2])
			add(Op{Name: Measure, Targets: []int{q}, Cbit: c})
			continue
		}
		if strings.HasPrefix(line, "reset") || strings.HasPrefix(line, "if") {
			return nil, lineErr("%w: %q is not supported", qcirc.ErrInvalidOperand, line)
		}

		m := stmtRegex.FindStringSubmatch(line)
		if m == nil {
			return nil, lineErr("%w: cannot parse %q", qcirc.ErrInvalidOperand, line)
		}
		name := strings.ToLower(m[1])
		k, ok := kinds[name]
		if !ok {
			return nil, lineErr("%w: unknown gate %q", qcirc.ErrInvalidOperand, name)
		}
		params, err := ParseParams(m[2])
		if err != nil {
			return nil, lineErr("%w", err)
		}
		if len(params) != k.params {
			return nil, lineErr("%w: %s takes %d parameters, got %d", qcirc.ErrInvalidOperand, name, k.params, len(params))
		}
		var qubits []int
		for _, operand := range strings.Split(m[3], ",") {
			om := operandRegex.FindStringSubmatch(strings.TrimSpace(operand))
			if om == nil {
				return nil, lineErr("%w: bad operand %q", qcirc.ErrInvalidOperand, operand)
			}
			q, _ := strconv.Atoi(om[1])
			qubits = append(qubits, q)
		}
		if len(qubits) != k.controls+k.targets {
			return nil, lineErr("%w: %s takes %d qubits, got %d", qcirc.ErrInvalidOperand, name, k.controls+k.targets, len(qubits))
		}
		var controls []int
		if k.controls > 0 {
			controls = qubits[:k.controls:k.controls]
		}
		add(Op{
			Name:     name,
			Controls: controls,
			Targets:  qubits[k.controls:],
			Params:   params,
		})
	}

	if declared >= 0 {
		if p.NumQubits > declared {
			return nil, fmt.Errorf("%w: qubit %d used but qreg declares %d", qcirc.ErrInvalidState, p.NumQubits-1, declared)
		}
		p.NumQubits = declared
	}
	return p, nil
}

// QASM renders the program as OpenQASM 2.0.
func (p *Program) QASM() string {
	numQubits := max(p.NumQubits, 1)
	var sb strings.Builder
	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n\n")
	fmt.Fprintf(&sb, "qreg q[%d];\n", numQubits)
	fmt.Fprintf(&sb, "creg c[%d];\n\n", max(p.NumCbits, 1))

	for _, op := range p.Ordered() {
		switch op.Name {
		case Barrier:
			qubits := make([]string, numQubits)
			for q := range numQubits {
				qubits[q] = fmt.Sprintf("q[%d]", q)
			}
			fmt.Fprintf(&sb, "barrier %s;\n", strings.Join(qubits, ", "))
		case Measure:
			fmt.Fprintf(&sb, "measure q[%d] -> c[%d];\n", op.Targets[0], op.Cbit)
		default:
			sb.WriteString(op.Name)
			if len(op.Params) > 0 {
				ps := make([]string, len(op.Params))
				for i, v := range op.Params {
					ps[i] = FormatParam(v)
				}
				fmt.Fprintf(&sb, "(%s)", strings.Join(ps, ", "))
			}
			qs := op.Qubits()
			for i, q := range qs {
				if i == 0 {
					sb.WriteString(" ")
				} else {
					sb.WriteString(", ")
				}
				fmt.Fprintf(&sb, "q[%d]", q)
			}
			sb.WriteString(";\n")
		}
	}
	return sb.String()
}
