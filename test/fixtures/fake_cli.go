// Package fixtures provides test helpers for integration tests.
package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FakeCLI stands in for the eztracker delivery CLI. It is a shell script
// that records its arguments (one per line) and exits with a configured
// code, so integration tests can assert the exact invocation.
type FakeCLI struct {
	Dir      string
	ExitCode int
	Stdout   string
	Stderr   string
}

// NewFakeCLI creates a fake CLI generator rooted at dir.
func NewFakeCLI(dir string) *FakeCLI {
	return &FakeCLI{Dir: dir}
}

// Path returns the fake CLI executable path.
func (f *FakeCLI) Path() string {
	return filepath.Join(f.Dir, "eztracker_cli")
}

func (f *FakeCLI) argsPath() string {
	return filepath.Join(f.Dir, "args.txt")
}

// Create writes the fake CLI script.
func (f *FakeCLI) Create() error {
	script := fmt.Sprintf(`#!/bin/sh
printf '%%s\n' "$@" > %q
`, f.argsPath())
	if f.Stdout != "" {
		script += fmt.Sprintf("printf '%%s' %q\n", f.Stdout)
	}
	if f.Stderr != "" {
		script += fmt.Sprintf("printf '%%s' %q >&2\n", f.Stderr)
	}
	script += fmt.Sprintf("exit %d\n", f.ExitCode)

	return os.WriteFile(f.Path(), []byte(script), 0755)
}

// Invoked reports whether the fake CLI has been called.
func (f *FakeCLI) Invoked() bool {
	_, err := os.Stat(f.argsPath())
	return err == nil
}

// RecordedArgs returns the arguments of the last invocation.
func (f *FakeCLI) RecordedArgs() ([]string, error) {
	data, err := os.ReadFile(f.argsPath())
	if err != nil {
		return nil, err
	}
	raw := strings.TrimRight(string(data), "\n")
	if raw == "" {
		return nil, nil
	}
	return strings.Split(raw, "\n"), nil
}
