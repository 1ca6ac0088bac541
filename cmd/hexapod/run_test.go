package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunCommand_ControllerErrorIsReturned(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hexapod.toml")
	data := "[hop]\ncrouch = [900,900,900,900,900,900,900,900,900,900,900,900]\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	saved := opts
	t.Cleanup(func() { opts = saved })
	opts.Config = path
	opts.LogLevel = "error"

	cmd := &RunCommand{Headless: true, Sim: true}
	err := cmd.Execute(nil)
	if err == nil || !strings.Contains(err.Error(), "create controller") {
		t.Errorf("Execute = %v, want controller error", err)
	}
}
