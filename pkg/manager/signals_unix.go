//go:build !windows

package manager

import (
	"os"
	"syscall"

	"github.com/core-tools/hsu-init/pkg/supervisor"
)

var handledSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}

func signalCommand(sig os.Signal) (supervisor.CommandKind, bool) {
	switch sig {
	case os.Interrupt, syscall.SIGTERM:
		return supervisor.CommandStop, true
	case syscall.SIGHUP:
		return supervisor.CommandReload, true
	default:
		return "", false
	}
}
