//go:build windows

package process

import (
	"os"

	"github.com/core-tools/hsu-init/pkg/errors"
)

// Terminate kills the child; os.Process offers no softer signal on Windows.
func (h *windowsHandle) Terminate() error {
	if h.status != nil {
		return nil
	}
	err := h.cmd.Process.Kill()
	if err == nil || err == os.ErrProcessDone {
		return nil
	}
	return errors.NewProcessError("failed to kill process", err).WithContext("pid", h.cmd.Process.Pid)
}
