//go:build windows

package app

import (
	"fmt"
	"io"
	"os"
)

var shutdownSignals = []os.Signal{os.Interrupt}

// stopDaemon terminates the daemon named in the PID file. Windows has no
// SIGTERM, so the process is killed and the PID file removed here.
func stopDaemon(out io.Writer) error {
	pid, err := readPID()
	if err != nil {
		return fmt.Errorf("no daemon running (could not read PID file: %v)", err)
	}

	proc, err := os.FindProcess(pid)
	if err != nil || !processExists(pid) {
		_ = os.Remove(pidFilePath())
		return fmt.Errorf("no daemon running (PID %d is not active, cleaned up stale PID file)", pid)
	}

	if err := proc.Kill(); err != nil {
		return fmt.Errorf("failed to stop daemon (PID %d): %w", pid, err)
	}
	_ = os.Remove(pidFilePath())
	fmt.Fprintf(out, "Stopped daemon (PID %d)\n", pid)
	return nil
}

// processExists reports whether pid is still running. FindProcess always
// succeeds on Windows, so a nil signal probes the handle.
func processExists(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(os.Signal(nil)) == nil
}
