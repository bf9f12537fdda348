//go:build windows

package cmd

import (
	"os"
	"os/exec"
)

// setDaemonAttrs is a no-op on Windows (no Setsid equivalent).
func setDaemonAttrs(_ *exec.Cmd) {}

// shutdownSignals returns the OS signals to listen for graceful shutdown.
func shutdownSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}

// sigTERM on Windows can only terminate; there is no graceful stop signal.
func sigTERM() os.Signal { return os.Kill }

// sigKILL returns os.Kill.
func sigKILL() os.Signal { return os.Kill }
