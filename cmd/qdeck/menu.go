package main

import (
	"fmt"
	"strings"

	"qcirc/qasm"
)

// menuItem is a single gate choice. gate is the OpenQASM statement name.
type menuItem struct {
	name    string
	gate    string
	symbol  string
	example string // parameter hint, empty for fixed gates
}

// qubits is the number of qubits the gate occupies.
func (it menuItem) qubits() int {
	c, t, _, ok := qasm.Arity(it.gate)
	if !ok {
		return 1
	}
	return c + t
}

func (it menuItem) params() int {
	_, _, p, _ := qasm.Arity(it.gate)
	return p
}

type menuCategory struct {
	name  string
	items []menuItem
}

var gateMenu = []menuCategory{
	{
		name: "Single Qubit",
		items: []menuItem{
			{name: "Hadamard", gate: "h", symbol: "H"},
			{name: "Pauli-X (NOT)", gate: "x", symbol: "X"},
			{name: "Pauli-Y", gate: "y", symbol: "Y"},
			{name: "Pauli-Z", gate: "z", symbol: "Z"},
			{name: "Identity", gate: "id", symbol: "I"},
			{name: "Phase (S)", gate: "s", symbol: "S"},
			{name: "Phase Dagger (S†)", gate: "sdg", symbol: "S†"},
			{name: "T Gate", gate: "t", symbol: "T"},
			{name: "T Dagger (T†)", gate: "tdg", symbol: "T†"},
		},
	},
	{
		name: "Rotation",
		items: []menuItem{
			{name: "Rotate X", gate: "rx", symbol: "RX", example: "pi/2"},
			{name: "Rotate Y", gate: "ry", symbol: "RY", example: "pi/2"},
			{name: "Rotate Z", gate: "rz", symbol: "RZ", example: "pi/2"},
			{name: "Phase Shift", gate: "p", symbol: "P", example: "pi/4"},
			{name: "Universal U3", gate: "u3", symbol: "U3", example: "theta,phi,lambda"},
		},
	},
	{
		name: "Multi Qubit",
		items: []menuItem{
			{name: "CNOT", gate: "cx", symbol: "●─⊕"},
			{name: "Controlled-Y", gate: "cy", symbol: "●─Y"},
			{name: "Controlled-Z", gate: "cz", symbol: "●─●"},
			{name: "Controlled-H", gate: "ch", symbol: "●─H"},
			{name: "SWAP", gate: "swap", symbol: "×─×"},
			{name: "Toffoli (CCX)", gate: "ccx", symbol: "●─●─⊕"},
			{name: "Fredkin (CSWAP)", gate: "cswap", symbol: "●─×─×"},
			{name: "C-Rotate X", gate: "crx", symbol: "●─RX", example: "pi/2"},
			{name: "C-Rotate Y", gate: "cry", symbol: "●─RY", example: "pi/2"},
			{name: "C-Rotate Z", gate: "crz", symbol: "●─RZ", example: "pi/2"},
			{name: "C-Phase", gate: "cp", symbol: "●─P", example: "pi/4"},
		},
	},
	{
		name: "Measurement",
		items: []menuItem{
			{name: "Measure", gate: qasm.Measure, symbol: "M"},
			{name: "Barrier", gate: qasm.Barrier, symbol: "┃"},
		},
	},
}

// renderMenu renders the floating gate-picker popup.
func (m Model) renderMenu() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Add Gate"))
	sb.WriteString("\n")

	for i, cat := range gateMenu {
		name := " " + cat.name + " "
		if i == m.menuCat {
			sb.WriteString(activeGateStyle.Render(name))
		} else {
			sb.WriteString(dimStyle.Render(name))
		}
		if i < len(gateMenu)-1 {
			sb.WriteString(dimStyle.Render("│"))
		}
	}
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render(strings.Repeat("─", 42)))
	sb.WriteString("\n")

	cat := gateMenu[m.menuCat]
	for i, item := range cat.items {
		if i == m.menuItem {
			sb.WriteString(menuSelectedStyle.Render(" ▸ "))
			sb.WriteString(menuSelectedStyle.Render(fmt.Sprintf("%-18s", item.name)))
			sb.WriteString(gateStyle.Render(item.symbol))
		} else {
			sb.WriteString("   ")
			sb.WriteString(menuNormalStyle.Render(fmt.Sprintf("%-18s", item.name)))
			sb.WriteString(dimStyle.Render(item.symbol))
		}
		if item.qubits() > 1 {
			sb.WriteString(dimStyle.Render(" →target"))
		}
		if item.example != "" {
			sb.WriteString(dimStyle.Render(fmt.Sprintf(" (%s)", item.example)))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(dimStyle.Render(" ↑↓ Select  ←→ Cat  ⏎ Ok  Esc ✕"))

	return menuBorderStyle.Render(sb.String())
}
