//go:build !windows

package app

import (
	"fmt"
	"io"
	"os"
	"syscall"
)

var shutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// stopDaemon sends SIGTERM to the daemon named in the PID file.
func stopDaemon(out io.Writer) error {
	pid, err := readPID()
	if err != nil {
		return fmt.Errorf("no daemon running (could not read PID file: %v)", err)
	}

	if !processExists(pid) {
		_ = os.Remove(pidFilePath())
		return fmt.Errorf("no daemon running (PID %d is not active, cleaned up stale PID file)", pid)
	}

	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to stop daemon (PID %d): %w", pid, err)
	}
	// The daemon removes its own PID file on shutdown.
	fmt.Fprintf(out, "Stopped daemon (PID %d)\n", pid)
	return nil
}

// processExists sends signal 0 to pid.
func processExists(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}
