// Package utils holds small helpers shared across the command-line
// entrypoints.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/feltcloth/tablestakes/internal/cards"
)

// FormatCards renders a hand or board as a space-separated string, e.g.
// "Ah Kd 7c".
func FormatCards(hand []cards.Card) string {
	if len(hand) == 0 {
		return "None"
	}
	parts := make([]string, len(hand))
	for i, c := range hand {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// EnsureDataDirExists creates the datadir and its logs subdirectory if they
// don't already exist.
func EnsureDataDirExists(datadir string) error {
	if err := os.MkdirAll(datadir, 0700); err != nil {
		return fmt.Errorf("failed to create datadir %s: %v", datadir, err)
	}
	logsDir := filepath.Join(datadir, "logs")
	if err := os.MkdirAll(logsDir, 0700); err != nil {
		return fmt.Errorf("failed to create logs directory %s: %v", logsDir, err)
	}
	return nil
}
