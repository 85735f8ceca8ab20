// Command qdeck is a terminal inspector for qcirc circuits: place gates on a
// timeline or type OpenQASM, and watch the register evolve step by step.
//
// Usage:
//
//	qdeck [circuit.qasm]
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"gopkg.in/natefinch/lumberjack.v2"

	"qcirc/engine"
	"qcirc/internal/config"
	"qcirc/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "qdeck: %v\n", err)
		os.Exit(1)
	}

	logFile := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    10,
		MaxBackups: 3,
	}
	defer logFile.Close()

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: logFile,
	})
	logger.SetGlobalLogger(log)

	eng, err := engine.New(engine.Config{
		Backend:   cfg.Backend,
		ClockHz:   cfg.ClockHz,
		MaxQubits: cfg.MaxQubits,
		Seed:      cfg.Seed,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create engine")
	}

	m := newModel(eng, log, cfg.Qubits)
	if len(os.Args) > 1 {
		src, err := os.ReadFile(os.Args[1])
		if err != nil {
			log.Fatal().Err(err).Str("path", os.Args[1]).Msg("Failed to read circuit")
		}
		if err := m.load(string(src)); err != nil {
			fmt.Fprintf(os.Stderr, "qdeck: %s: %v\n", os.Args[1], err)
			os.Exit(1)
		}
	}

	log.Info().Str("backend", string(cfg.Backend)).Int("qubits", m.prog.NumQubits).Msg("Starting inspector")
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Error().Err(err).Msg("Inspector exited with error")
		fmt.Fprintf(os.Stderr, "qdeck: %v\n", err)
		os.Exit(1)
	}
}
