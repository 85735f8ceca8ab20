package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"qcirc/engine"
	"qcirc/qasm"
	"qcirc/quantum"
)

const sampleShots = 1024

// focus represents which panel/mode has keyboard input.
type focus int

const (
	focusCircuit focus = iota
	focusQASM
	focusMenu
	focusInputParam
	focusSelectExtra
	focusSelectTarget
	focusEditParam
)

// Model is the inspector state. The program is the single source of truth;
// the QASM editor and the state panel are derived from it.
type Model struct {
	eng *engine.Engine
	log zerolog.Logger

	prog        *qasm.Program
	cursorQubit int
	cursorStep  int
	width       int
	height      int
	qasmEditor  textarea.Model
	focus       focus
	lastQASM    string
	parseErr    error
	statusMsg   string

	// Menu state
	menuCat  int
	menuItem int

	// Placement of a multi-qubit or parameterised gate
	pending     menuItem
	params      []float64
	extras      []int // qubits picked between the cursor and the target
	targetQubit int
	paramInput  string

	// Simulation read-outs for the cursor step
	state       *quantum.Register
	simErr      error
	lastMeasure string
	shots       map[string]int
	report      *engine.Report
}

func newModel(eng *engine.Engine, log zerolog.Logger, qubits int) Model {
	ta := textarea.New()
	ta.Placeholder = "Edit QASM here..."
	ta.SetWidth(40)
	ta.SetHeight(20)
	ta.ShowLineNumbers = true
	ta.KeyMap.InsertNewline.SetEnabled(true)

	m := Model{
		eng:        eng,
		log:        log.With().Str("component", "qdeck").Logger(),
		prog:       &qasm.Program{NumQubits: max(qubits, 1)},
		qasmEditor: ta,
		focus:      focusCircuit,
	}
	m.sync()
	return m
}

// load replaces the program with parsed OpenQASM source.
func (m *Model) load(src string) error {
	p, err := qasm.Parse(src)
	if err != nil {
		return err
	}
	p.NumQubits = max(p.NumQubits, 1)
	m.prog = p
	m.cursorStep, m.cursorQubit = 0, 0
	m.sync()
	return nil
}

// sync regenerates the QASM view from the program and re-runs it.
func (m *Model) sync() {
	src := m.prog.QASM()
	m.qasmEditor.SetValue(src)
	m.lastQASM = src
	m.parseErr = nil
	m.simulate()
}

func (m *Model) parseQASMInput() {
	src := m.qasmEditor.Value()
	if src == m.lastQASM {
		return
	}
	m.lastQASM = src
	p, err := qasm.Parse(src)
	if err != nil {
		m.parseErr = err
		return
	}
	m.parseErr = nil
	p.NumQubits = max(p.NumQubits, 1)
	m.prog = p
	m.cursorQubit = min(m.cursorQubit, p.NumQubits-1)
	m.simulate()
}

// simulate evolves |0…0⟩ through every op up to the cursor step.
func (m *Model) simulate() {
	m.state, m.simErr = nil, nil
	m.lastMeasure, m.shots, m.report = "", nil, nil

	g, err := m.eng.CompileSteps(m.prog, m.cursorStep)
	if err != nil {
		m.fail(err)
		return
	}
	reg, err := m.eng.Register(strings.Repeat("0", m.prog.NumQubits))
	if err != nil {
		m.fail(err)
		return
	}
	out, err := m.eng.Run(context.Background(), g, reg)
	if err != nil {
		m.fail(err)
		return
	}
	m.state = out
}

func (m *Model) fail(err error) {
	m.simErr = err
	m.log.Debug().Err(err).Int("step", m.cursorStep).Msg("Simulation failed")
}

func (m *Model) measure() {
	if m.state == nil {
		return
	}
	collapsed := m.state.Copy()
	bits, err := collapsed.Measure()
	if err != nil {
		m.statusMsg = fmt.Sprintf("Measure error: %v", err)
		return
	}
	m.state, m.lastMeasure = collapsed, bits
}

func (m *Model) sample() {
	if m.state == nil {
		return
	}
	counts, err := m.eng.Histogram(context.Background(), m.state, sampleShots)
	if err != nil {
		m.statusMsg = fmt.Sprintf("Sample error: %v", err)
		return
	}
	m.shots = counts
}

// benchmark times the ops up to the cursor as a wire of full-register gates.
func (m *Model) benchmark() {
	gs, err := m.eng.Placed(m.prog, m.cursorStep)
	if err != nil {
		m.statusMsg = fmt.Sprintf("Benchmark error: %v", err)
		return
	}
	if len(gs) == 0 {
		m.statusMsg = "Nothing to benchmark before this step"
		return
	}
	w, err := m.eng.Wire(gs...)
	if err != nil {
		m.statusMsg = fmt.Sprintf("Benchmark error: %v", err)
		return
	}
	reg, err := m.eng.Register(strings.Repeat("0", m.prog.NumQubits))
	if err != nil {
		m.statusMsg = fmt.Sprintf("Benchmark error: %v", err)
		return
	}
	_, rep, err := m.eng.Benchmark(context.Background(), w, reg)
	if err != nil {
		m.statusMsg = fmt.Sprintf("Benchmark error: %v", err)
		return
	}
	m.report = &rep
}

// ──────────────────────────── Placement ────────────────────────────

func (m Model) selecting() bool {
	return m.focus == focusSelectTarget || m.focus == focusSelectExtra
}

func (m *Model) taken(q int) bool {
	return q == m.cursorQubit || slices.Contains(m.extras, q)
}

// firstFree returns the free qubit nearest the cursor, preferring lower wires.
func (m *Model) firstFree() int {
	for d := 1; d < m.prog.NumQubits; d++ {
		for _, q := range []int{m.cursorQubit + d, m.cursorQubit - d} {
			if q >= 0 && q < m.prog.NumQubits && !m.taken(q) {
				return q
			}
		}
	}
	return -1
}

func (m *Model) moveTarget(dir int) {
	for q := m.targetQubit + dir; q >= 0 && q < m.prog.NumQubits; q += dir {
		if !m.taken(q) {
			m.targetQubit = q
			return
		}
	}
}

func (m *Model) resetPending() {
	m.pending = menuItem{}
	m.params, m.extras, m.paramInput = nil, nil, ""
}

// choose starts placing a gate picked from the menu.
func (m *Model) choose(it menuItem) {
	m.resetPending()
	m.pending = it
	if it.params() > 0 {
		m.focus = focusInputParam
		return
	}
	m.pickQubits()
}

// pickQubits asks for the remaining qubits of the pending gate, or places it
// when the cursor qubit is all it needs.
func (m *Model) pickQubits() {
	need := m.pending.qubits()
	if need > m.prog.NumQubits {
		m.statusMsg = fmt.Sprintf("%s needs %d qubits", m.pending.name, need)
		m.resetPending()
		m.focus = focusCircuit
		return
	}
	switch {
	case need == 1:
		m.placeGate()
		m.focus = focusCircuit
	case len(m.extras) < need-2:
		m.focus = focusSelectExtra
		m.targetQubit = m.firstFree()
	default:
		m.focus = focusSelectTarget
		m.targetQubit = m.firstFree()
	}
}

// placeGate puts the pending gate at the cursor step. The cursor qubit comes
// first, then any extra picks, then the target; the leading qubits are the
// controls.
func (m *Model) placeGate() bool {
	it := m.pending
	step := m.cursorStep

	var op qasm.Op
	switch it.gate {
	case qasm.Barrier:
		for q := range m.prog.NumQubits {
			m.prog.RemoveAt(step, q)
		}
		op = qasm.Op{Name: qasm.Barrier}
	case qasm.Measure:
		op = qasm.Op{Name: qasm.Measure, Targets: []int{m.cursorQubit}, Cbit: m.cursorQubit}
	default:
		controls, _, _, _ := qasm.Arity(it.gate)
		qubits := append([]int{m.cursorQubit}, m.extras...)
		if it.qubits() > 1 {
			qubits = append(qubits, m.targetQubit)
		}
		op = qasm.Op{Name: it.gate, Targets: qubits[controls:], Params: m.params}
		if controls > 0 {
			op.Controls = qubits[:controls:controls]
		}
	}

	if qs := op.Qubits(); len(qs) > 0 && !m.prog.CanPlace(step, qs) {
		m.statusMsg = "Cannot place: qubit already used by another gate at this step"
		m.resetPending()
		return false
	}
	for _, q := range op.Qubits() {
		m.prog.RemoveAt(step, q)
	}
	op.Step = step
	m.prog.Add(op)
	m.log.Debug().Str("gate", op.Name).Ints("qubits", op.Qubits()).Int("step", step).Msg("Placed gate")

	m.resetPending()
	m.cursorStep++
	m.sync()
	return true
}

// ──────────────────────────── Init / Update ────────────────────────────

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.qasmEditor.SetWidth(max(msg.Width/4-6, 20))
		m.qasmEditor.SetHeight(max(msg.Height-6-4-8, 4))

	case tea.KeyMsg:
		key := msg.String()
		m.statusMsg = ""

		if key == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.focus {
		case focusCircuit:
			switch key {
			case "q":
				return m, tea.Quit
			case "tab":
				m.focus = focusQASM
				m.qasmEditor.Focus()
			case "ctrl+r":
				m.prog = &qasm.Program{NumQubits: m.prog.NumQubits}
				m.cursorStep = 0
				m.sync()
			case "ctrl+s":
				if err := os.WriteFile("circuit.qasm", []byte(m.prog.QASM()), 0o644); err != nil {
					m.statusMsg = fmt.Sprintf("Save error: %v", err)
				} else {
					m.statusMsg = "Saved circuit.qasm"
				}
			case "up", "k":
				if m.cursorQubit > 0 {
					m.cursorQubit--
				}
			case "down", "j":
				if m.cursorQubit < m.prog.NumQubits-1 {
					m.cursorQubit++
				}
			case "left", "h":
				if m.cursorStep > 0 {
					m.cursorStep--
					m.simulate()
				}
			case "right", "l":
				m.cursorStep++
				m.simulate()
			case "+", "=":
				if m.prog.NumQubits >= m.eng.Config().MaxQubits {
					m.statusMsg = fmt.Sprintf("At most %d qubits", m.eng.Config().MaxQubits)
					break
				}
				m.prog.NumQubits++
				m.sync()
			case "-":
				if m.prog.NumQubits > 1 {
					m.prog.DropQubit()
					m.cursorQubit = min(m.cursorQubit, m.prog.NumQubits-1)
					m.sync()
				}
			case "a":
				m.focus = focusMenu
				m.menuCat = 0
				m.menuItem = 0
			case "backspace", "delete":
				m.prog.RemoveAt(m.cursorStep, m.cursorQubit)
				m.sync()
			case "e":
				if op := m.prog.OpAt(m.cursorStep, m.cursorQubit); op != nil && len(op.Params) > 0 {
					m.paramInput = ""
					m.focus = focusEditParam
				}
			case "m":
				m.measure()
			case "s":
				m.sample()
			case "b":
				m.benchmark()
			}

		case focusMenu:
			switch key {
			case "esc":
				m.focus = focusCircuit
			case "up", "k":
				if m.menuItem > 0 {
					m.menuItem--
				}
			case "down", "j":
				if m.menuItem < len(gateMenu[m.menuCat].items)-1 {
					m.menuItem++
				}
			case "left", "h":
				if m.menuCat > 0 {
					m.menuCat--
					m.menuItem = 0
				}
			case "right", "l":
				if m.menuCat < len(gateMenu)-1 {
					m.menuCat++
					m.menuItem = 0
				}
			case "enter":
				m.choose(gateMenu[m.menuCat].items[m.menuItem])
			}

		case focusSelectExtra, focusSelectTarget:
			switch key {
			case "esc":
				m.focus = focusCircuit
				m.resetPending()
			case "up", "k":
				m.moveTarget(-1)
			case "down", "j":
				m.moveTarget(1)
			case "enter":
				if m.focus == focusSelectExtra {
					m.extras = append(m.extras, m.targetQubit)
					m.pickQubits()
					break
				}
				m.placeGate()
				m.focus = focusCircuit
			}

		case focusInputParam, focusEditParam:
			switch key {
			case "esc":
				m.focus = focusCircuit
				m.resetPending()
			case "backspace":
				if len(m.paramInput) > 0 {
					m.paramInput = m.paramInput[:len(m.paramInput)-1]
				}
			case "enter":
				m.submitParams()
			default:
				if len(key) == 1 && strings.ContainsAny(key, "0123456789.,-+eEpiPI*/ ") {
					m.paramInput += key
				}
			}

		case focusQASM:
			switch key {
			case "tab":
				m.focus = focusCircuit
				m.qasmEditor.Blur()
			default:
				var cmd tea.Cmd
				m.qasmEditor, cmd = m.qasmEditor.Update(msg)
				cmds = append(cmds, cmd)
				m.parseQASMInput()
			}
		}
	}

	return m, tea.Batch(cmds...)
}

// submitParams applies the typed parameter list to the pending gate or to
// the op under the cursor.
func (m *Model) submitParams() {
	params, err := qasm.ParseParams(m.paramInput)
	want := m.pending.params()
	var op *qasm.Op
	if m.focus == focusEditParam {
		op = m.prog.OpAt(m.cursorStep, m.cursorQubit)
		if op == nil {
			m.focus = focusCircuit
			return
		}
		want = len(op.Params)
	}
	if err != nil || len(params) != want {
		m.statusMsg = fmt.Sprintf("Invalid parameter: want %d numbers or pi expressions (e.g. pi/2, 3*pi/4)", want)
		return
	}
	m.paramInput = ""

	if op != nil {
		op.Params = params
		m.focus = focusCircuit
		m.sync()
		return
	}
	m.params = params
	m.pickQubits()
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	qasmWidth := m.width / 4
	stateWidth := m.width / 4
	circuitWidth := max(m.width-qasmWidth-stateWidth-6, 20)
	controlsHeight := 6
	panelHeight := max(m.height-controlsHeight-2, 6)

	topRow := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderCircuitPanel(circuitWidth, panelHeight),
		m.renderQASMPanel(qasmWidth, panelHeight),
		m.renderStatePanel(stateWidth, panelHeight),
	)
	frame := lipgloss.JoinVertical(lipgloss.Left, topRow, m.renderControlsPanel(m.width-4, controlsHeight-2))

	switch m.focus {
	case focusMenu:
		frame = overlayAt(frame, m.renderMenu(), 2, 2)
	case focusInputParam:
		frame = overlayAt(frame, m.renderParamInput(), 2, 2)
	case focusEditParam:
		frame = overlayAt(frame, m.renderEditParam(), 2, 2)
	}
	return frame
}
