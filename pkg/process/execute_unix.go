//go:build !windows

package process

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/core-tools/hsu-init/pkg/errors"
)

// setupProcessAttributes configures Unix-specific process attributes
func setupProcessAttributes(cmd *exec.Cmd) {
	// Own process group: a terminal Ctrl+C reaches the manager only, which
	// then stops the children itself.
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// unixHandle reaps the child itself with wait4(WNOHANG); cmd.Wait is never
// called.
type unixHandle struct {
	process *os.Process
	status  *ExitStatus
}

func newHandle(cmd *exec.Cmd) Handle {
	return &unixHandle{process: cmd.Process}
}

func (h *unixHandle) Pid() int {
	return h.process.Pid
}

func (h *unixHandle) TryWait() (*ExitStatus, error) {
	if h.status != nil {
		return h.status, nil
	}

	var ws unix.WaitStatus
	for {
		pid, err := unix.Wait4(h.process.Pid, &ws, unix.WNOHANG, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, errors.NewProcessError("failed to poll process status", err).WithContext("pid", h.process.Pid)
		}
		if pid == 0 {
			return nil, nil
		}
		break
	}

	switch {
	case ws.Exited():
		h.status = &ExitStatus{Code: ws.ExitStatus()}
	case ws.Signaled():
		h.status = &ExitStatus{Code: -1, Signaled: true, Signal: ws.Signal().String()}
	default:
		// stopped or continued, still alive
		return nil, nil
	}

	_ = h.process.Release()
	return h.status, nil
}
