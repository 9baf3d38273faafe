//go:build !windows

package process

import (
	"os"
	"syscall"

	"github.com/core-tools/hsu-init/pkg/errors"
)

// Terminate sends SIGTERM to the child. A child that already finished is
// not an error.
func (h *unixHandle) Terminate() error {
	if h.status != nil {
		return nil
	}
	err := h.process.Signal(syscall.SIGTERM)
	if err == nil || err == os.ErrProcessDone {
		return nil
	}
	return errors.NewProcessError("failed to send SIGTERM", err).WithContext("pid", h.process.Pid)
}
