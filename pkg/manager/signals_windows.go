//go:build windows

package manager

import (
	"os"

	"github.com/core-tools/hsu-init/pkg/supervisor"
)

// Only Ctrl+C is delivered on Windows.
var handledSignals = []os.Signal{os.Interrupt}

func signalCommand(sig os.Signal) (supervisor.CommandKind, bool) {
	if sig == os.Interrupt {
		return supervisor.CommandStop, true
	}
	return "", false
}
