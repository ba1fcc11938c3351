//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// Research runs a research pass through the built CLI. Topic comes from the
// MARKET_SCOUT_TOPIC environment variable.
func Research() error {
	mg.Deps(Build)

	topic := os.Getenv("MARKET_SCOUT_TOPIC")
	if topic == "" {
		return fmt.Errorf("set MARKET_SCOUT_TOPIC to the topic to research")
	}

	cmd := exec.Command(filepath.Join(binDir, binName), "research", "--topic", topic)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Sweep purges expired cache entries through the built CLI.
func Sweep() error {
	mg.Deps(Build)

	cmd := exec.Command(filepath.Join(binDir, binName), "cache", "sweep")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
