package main

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"

	"qcirc/qasm"
)

// ──────────────────────────── Rendering helpers ────────────────────────────

// padCenter centres s within width columns.
func padCenter(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return string([]rune(s)[:width])
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}

// bar draws p in [0, 1] as a fixed-width meter.
func bar(p float64) string {
	n := min(max(int(math.Round(p*barW)), 0), barW)
	return barStyle.Render(strings.Repeat("█", n)) + dimStyle.Render(strings.Repeat("░", barW-n))
}

// ──────────────────────────── Cell rendering ────────────────────────────

type cellHighlight int

const (
	hlNone cellHighlight = iota
	hlCursor
	hlTargetSelect
)

// gateBox draws a boxed gate label. The box edges carry the vertical
// connector of a multi-qubit op through the cell.
func gateBox(name string, info cellInfo) (top, mid, bot string) {
	margin := (cellW - gateBoxW) / 2
	right := cellW - margin - gateBoxW
	edge := func(connected bool, joint string) string {
		if !connected {
			return strings.Repeat("─", gateNameW)
		}
		half := gateNameW / 2
		return strings.Repeat("─", half) + joint + strings.Repeat("─", gateNameW-half-1)
	}

	top = strings.Repeat(" ", margin) + gateStyle.Render("┌"+edge(info.vertAbove, "┴")+"┐") + strings.Repeat(" ", right)
	mid = strings.Repeat("─", margin) + gateStyle.Render("┤"+padCenter(name, gateNameW)+"├") + strings.Repeat("─", right)
	bot = strings.Repeat(" ", margin) + gateStyle.Render("└"+edge(info.vertBelow, "┬")+"┘") + strings.Repeat(" ", right)
	return top, mid, bot
}

// renderCell returns 3 lines (top, mid, bot) for a single cell, each cellW
// visual characters wide.
func renderCell(info cellInfo, hl cellHighlight) (top, mid, bot string) {
	emptyRow := strings.Repeat(" ", cellW)
	halfW := cellW / 2
	vertRow := strings.Repeat(" ", halfW) + "│" + strings.Repeat(" ", cellW-halfW-1)
	dblVertRow := strings.Repeat(" ", halfW) + cbitConnectorStyle.Render("║") + strings.Repeat(" ", cellW-halfW-1)

	symbol := ""
	if info.op != nil && !info.isBarrier {
		switch {
		case info.isControl:
			symbol = "●"
		case info.isTarget:
			symbol = targetSymbol(info.op)
		}
	}

	if hl == hlCursor || hl == hlTargetSelect {
		bdr := cursorBoxStyle
		if hl == hlTargetSelect {
			bdr = targetSelectStyle
		}
		innerW := cellW - 2
		dashL := (innerW - 1) / 2
		dashR := innerW - dashL - 1
		side := bdr.Render("║")

		if info.isBarrier {
			return vertRow, side + strings.Repeat("─", dashL) + "│" + strings.Repeat("─", dashR) + side, vertRow
		}

		top = bdr.Render("╔" + strings.Repeat("═", innerW) + "╗")
		bot = bdr.Render("╚" + strings.Repeat("═", innerW) + "╝")
		switch {
		case symbol != "":
			mid = side + strings.Repeat("─", dashL) + gateStyle.Render(symbol) + strings.Repeat("─", dashR) + side
		case info.op != nil:
			mid = side + "─┤" + gateStyle.Render(padCenter(displayName(info.op), gateNameW)) + "├─" + side
		case info.passThrough:
			mid = side + strings.Repeat("─", dashL) + "┼" + strings.Repeat("─", dashR) + side
		default:
			mid = side + strings.Repeat("─", innerW) + side
		}
		return top, mid, bot
	}

	dashL := (cellW - 1) / 2
	dashR := cellW - dashL - 1
	withVerts := func(m string) (string, string, string) {
		t, b := emptyRow, emptyRow
		if info.vertAbove {
			t = vertRow
		}
		if info.vertBelow {
			b = vertRow
		}
		if info.measureBelow {
			b = dblVertRow
		}
		return t, m, b
	}

	switch {
	case info.isBarrier:
		return vertRow, strings.Repeat("─", dashL) + "│" + strings.Repeat("─", dashR), vertRow
	case symbol != "":
		return withVerts(strings.Repeat("─", dashL) + gateStyle.Render(symbol) + strings.Repeat("─", dashR))
	case info.op != nil:
		top, mid, bot = gateBox(displayName(info.op), info)
		if info.measureBelow {
			bot = dblVertRow
		}
		return top, mid, bot
	case info.passThrough:
		top, mid, bot = vertRow, strings.Repeat("─", dashL)+"┼"+strings.Repeat("─", dashR), vertRow
		if info.measureBelow {
			bot = dblVertRow
		}
		return top, mid, bot
	case info.measureBelow:
		// a measurement further up drops to the classical wire through here
		top = dblVertRow
		if info.vertAbove {
			top = vertRow
		}
		return top, strings.Repeat("─", dashL) + cbitConnectorStyle.Render("╫") + strings.Repeat("─", dashR), dblVertRow
	}
	return withVerts(strings.Repeat("─", cellW))
}

// ──────────────────────────── Panel rendering ────────────────────────────

func (m Model) renderCircuitPanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Quantum Circuit"))
	sb.WriteString("\n\n")

	visible := max((width-labelVisualW-4)/cellW, 1)
	startStep := 0
	if m.cursorStep >= visible {
		startStep = m.cursorStep - visible + 1
	}
	endStep := startStep + visible

	if startStep > 0 {
		fmt.Fprintf(&sb, "  ◀ showing steps %d–%d\n", startStep, endStep-1)
	}

	header := strings.Repeat(" ", labelVisualW)
	for step := startStep; step < endStep; step++ {
		header += dimStyle.Render(padCenter(fmt.Sprintf("%d", step), cellW))
	}
	sb.WriteString(header + "\n")

	for qubit := range m.prog.NumQubits {
		topLine := strings.Repeat(" ", labelVisualW)
		midLine := qubitLabelStyle.Render(fmt.Sprintf("%-5s", fmt.Sprintf("q[%d]", qubit))) + "──"
		botLine := strings.Repeat(" ", labelVisualW)

		for step := startStep; step < endStep; step++ {
			hl := hlNone
			switch {
			case step == m.cursorStep && qubit == m.cursorQubit && m.focus != focusQASM:
				hl = hlCursor
			case step == m.cursorStep && qubit == m.targetQubit && m.selecting():
				hl = hlTargetSelect
			}
			top, mid, bot := renderCell(cellAt(m.prog, step, qubit), hl)
			topLine += top
			midLine += mid
			botLine += bot
		}

		sb.WriteString(topLine + "\n")
		sb.WriteString(midLine + "\n")
		sb.WriteString(botLine + "\n")
	}

	if m.prog.NumCbits > 0 {
		halfW := cellW / 2
		sepLine := strings.Repeat(" ", labelVisualW)
		cbitLine := cbitLabelStyle.Render(fmt.Sprintf("%-5s", fmt.Sprintf("c%d", m.prog.NumCbits))) + cbitWireStyle.Render("══")
		for step := startStep; step < endStep; step++ {
			cbit := measureAt(m.prog, step)
			if cbit < 0 {
				sepLine += strings.Repeat(" ", cellW)
				cbitLine += cbitWireStyle.Render(strings.Repeat("═", cellW))
				continue
			}
			sepLine += strings.Repeat(" ", halfW) + cbitConnectorStyle.Render("║") + strings.Repeat(" ", cellW-halfW-1)
			label := fmt.Sprintf("%d", cbit)
			dashL := (cellW - 1) / 2
			dashR := max(cellW-dashL-1-len(label), 0)
			cbitLine += cbitWireStyle.Render(strings.Repeat("═", dashL)) +
				cbitConnectorStyle.Render("╩"+label) +
				cbitWireStyle.Render(strings.Repeat("═", dashR))
		}
		sb.WriteString(sepLine + "\n")
		sb.WriteString(cbitLine + "\n")
	}

	if m.selecting() {
		fmt.Fprintf(&sb, "\n  %s", activeGateStyle.Render(m.pending.name))
		prompt := "  Select target qubit: "
		if m.focus == focusSelectExtra {
			prompt = "  Select next qubit: "
		}
		sb.WriteString(prompt)
		sb.WriteString(targetSelectStyle.Render(fmt.Sprintf("q[%d]", m.targetQubit)))
		sb.WriteString(dimStyle.Render("   ↑↓ Move  Enter Confirm  Esc Cancel"))
	} else {
		fmt.Fprintf(&sb, "\n  Position: Step %d, Qubit %d", m.cursorStep, m.cursorQubit)
		if m.statusMsg != "" {
			fmt.Fprintf(&sb, "  │  %s", activeGateStyle.Render(m.statusMsg))
		}
	}

	return circuitStyle.Width(width).Height(height).Render(sb.String())
}

func (m Model) renderQASMPanel(width, height int) string {
	var sb strings.Builder

	title := "QASM Editor"
	if m.focus == focusQASM {
		title += " [ACTIVE]"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(m.qasmEditor.View())
	if m.parseErr != nil {
		sb.WriteString("\n")
		sb.WriteString(errorStyle.Render(m.parseErr.Error()))
	}

	return qasmStyle.Width(width).Height(height).Render(sb.String())
}

// renderStatePanel shows the register after the cursor step: the non-zero
// amplitudes, per-qubit probabilities and the latest read-outs.
func (m Model) renderStatePanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("State after step %d", m.cursorStep)))
	sb.WriteString("\n\n")

	switch {
	case m.simErr != nil:
		sb.WriteString(errorStyle.Render(m.simErr.Error()))
	case m.state != nil:
		n := m.state.Qubits()
		probs := m.state.Probabilities()
		limit := max(height-2*n-12, 4)
		rows := 0
		for i, a := range m.state.Amplitudes() {
			if probs[i] < 1e-9 {
				continue
			}
			if rows == limit {
				sb.WriteString(dimStyle.Render("  …") + "\n")
				break
			}
			fmt.Fprintf(&sb, "|%0*b⟩ %+.3f%+.3fi %s %5.1f%%\n", n, i, real(a), imag(a), bar(probs[i]), 100*probs[i])
			rows++
		}

		sb.WriteString("\n")
		for q, qp := range m.state.QubitProbabilities() {
			fmt.Fprintf(&sb, "%s P(1) %s %.2f\n", qubitLabelStyle.Render(fmt.Sprintf("q[%d]", q)), bar(qp.One), qp.One)
		}
	}

	if m.lastMeasure != "" {
		fmt.Fprintf(&sb, "\n%s |%s⟩\n", activeGateStyle.Render("Measured"), m.lastMeasure)
	}
	if len(m.shots) > 0 {
		total := 0
		keys := make([]string, 0, len(m.shots))
		for k, c := range m.shots {
			keys = append(keys, k)
			total += c
		}
		slices.Sort(keys)
		fmt.Fprintf(&sb, "\n%s\n", activeGateStyle.Render(fmt.Sprintf("%d shots", total)))
		for _, k := range keys {
			fmt.Fprintf(&sb, "|%s⟩ %s %d\n", k, bar(float64(m.shots[k])/float64(total)), m.shots[k])
		}
	}
	if m.report != nil {
		fmt.Fprintf(&sb, "\n%s %d gates in %s, %s at clock rate\n",
			activeGateStyle.Render("Benchmark"), m.report.Gates, m.report.Elapsed, m.report.Estimated)
	}

	return stateStyle.Width(width).Height(height).Render(sb.String())
}

func (m Model) renderControlsPanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(activeGateStyle.Render("Navigate: "))
	sb.WriteString("↑↓/jk Move qubit  ←→/hl Move step  +/- Qubits")
	sb.WriteString("    ")
	sb.WriteString(activeGateStyle.Render("a"))
	sb.WriteString(" Add gate  ")
	sb.WriteString(activeGateStyle.Render("e"))
	sb.WriteString(" Edit params\n")

	sb.WriteString(activeGateStyle.Render("Run:      "))
	sb.WriteString("m Measure  s Sample  b Benchmark    ")
	sb.WriteString(activeGateStyle.Render("Actions: "))
	sb.WriteString("Tab Switch focus  Bksp Delete  ^R Reset  ^S Save  q/^C Quit")

	return controlsStyle.Width(width).Height(height).Render(sb.String())
}

// ──────────────────────────── Overlay ────────────────────────────

// overlayAt draws fg over bg with its top-left corner at column x, row y.
func overlayAt(bg, fg string, x, y int) string {
	lines := strings.Split(bg, "\n")
	for i, over := range strings.Split(fg, "\n") {
		row := y + i
		if row < 0 || row >= len(lines) {
			continue
		}
		base := lines[row]
		left := ansi.Truncate(base, x, "")
		if pad := x - ansi.StringWidth(left); pad > 0 {
			left += strings.Repeat(" ", pad)
		}
		right := ansi.TruncateLeft(base, x+ansi.StringWidth(over), "")
		lines[row] = left + over + right
	}
	return strings.Join(lines, "\n")
}

// popup is the title, body and key hints of a small overlay box.
func popup(title, body, hints string) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(body)
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render(hints))
	return menuBorderStyle.Render(sb.String())
}

func (m Model) renderParamInput() string {
	hint := "pi/2"
	if m.pending.example != "" {
		hint = m.pending.example
	}
	return popup("Enter Parameter", fmt.Sprintf("Value: %s_", m.paramInput), "Examples: "+hint+", 3*pi/4, 1.57")
}

func (m Model) renderEditParam() string {
	var current []string
	if op := m.prog.OpAt(m.cursorStep, m.cursorQubit); op != nil {
		for _, p := range op.Params {
			current = append(current, qasm.FormatParam(p))
		}
	}
	body := fmt.Sprintf("Current: %s\nValue: %s_", strings.Join(current, ", "), m.paramInput)
	return popup("Edit Parameters", body, "⏎ Ok  Esc ✕")
}
