package database

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
)

func writePidFile(t *testing.T, dir, contents string) string {
	t.Helper()
	pidFile := filepath.Join(dir, "postmaster.pid")
	if err := os.WriteFile(pidFile, []byte(contents), 0644); err != nil {
		t.Fatalf("Failed to write postmaster.pid: %v", err)
	}
	return pidFile
}

func TestCleanupStalePostmasterRemovesDeadPidFile(t *testing.T) {
	dir := t.TempDir()

	// A short-lived child that has already been reaped gives us a PID
	// guaranteed not to be running
	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Fatalf("Failed to run helper process: %v", err)
	}
	deadPid := cmd.Process.Pid

	// postmaster.pid carries the PID on its first line followed by more fields
	pidFile := writePidFile(t, dir, strconv.Itoa(deadPid)+"\n/some/data/path\n")

	cleanupStalePostmaster(dir)

	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Errorf("Stale pid file should be removed, stat err: %v", err)
	}
}

func TestCleanupStalePostmasterIgnoresMissingFile(t *testing.T) {
	// No pid file at all; must be a no-op
	cleanupStalePostmaster(t.TempDir())
}

func TestCleanupStalePostmasterKeepsUnparseableFile(t *testing.T) {
	dir := t.TempDir()
	pidFile := writePidFile(t, dir, "not-a-pid\n")

	cleanupStalePostmaster(dir)

	if _, err := os.Stat(pidFile); err != nil {
		t.Errorf("Unparseable pid file should be left alone: %v", err)
	}
}
