package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"FinCorr/internal/di"
	"FinCorr/internal/domain/models"
	"FinCorr/pkg/config"

	"github.com/shopspring/decimal"
)

var configPath = flag.String("config", "", "Path to the YAML config file. Built-in defaults (local SQLite store) are used when empty.")

// openToolkit loads the configuration and wires the use cases.
func openToolkit() (*di.Toolkit, error) {
	cfg := config.Default()
	if *configPath != "" {
		c, err := config.LoadWithEnv(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	return di.InitializeToolkit(cfg)
}

// watchList returns the configured symbols, or the built-in list when none are set.
func watchList(cfg *config.Config) []models.SymbolEntry {
	if len(cfg.Updater.Symbols) == 0 {
		return models.DefaultWatchList
	}
	out := make([]models.SymbolEntry, 0, len(cfg.Updater.Symbols))
	for _, s := range cfg.Updater.Symbols {
		out = append(out, models.SymbolEntry{Symbol: s.Symbol, Name: s.Name})
	}
	return out
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

func formatCoefficient(c models.Coefficient) string {
	if !c.Defined {
		return "n/a"
	}
	return decimal.NewFromFloat(c.Value).StringFixed(4)
}

func formatWindows(r models.CorrelationResult) string {
	parts := make([]string, 0, len(r.Windows))
	for _, w := range r.Windows {
		parts = append(parts, fmt.Sprintf("%dd=%s", w.Days, formatCoefficient(w.Coefficient)))
	}
	return strings.Join(parts, " ")
}
