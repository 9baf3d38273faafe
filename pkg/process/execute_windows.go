//go:build windows

package process

import (
	"errors"
	"os/exec"
	"syscall"
)

// setupProcessAttributes configures Windows-specific process attributes.
// Children get their own process group so the console Ctrl+C reaches the
// manager only.
func setupProcessAttributes(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// windowsHandle has no non-blocking wait primitive in os/exec, so a waiter
// goroutine hands the result over a buffered channel.
type windowsHandle struct {
	cmd    *exec.Cmd
	done   chan *ExitStatus
	status *ExitStatus
}

func newHandle(cmd *exec.Cmd) Handle {
	h := &windowsHandle{
		cmd:  cmd,
		done: make(chan *ExitStatus, 1),
	}
	go func() {
		err := cmd.Wait()
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			h.done <- &ExitStatus{Code: -1}
			return
		}
		h.done <- &ExitStatus{Code: cmd.ProcessState.ExitCode()}
	}()
	return h
}

func (h *windowsHandle) Pid() int {
	return h.cmd.Process.Pid
}

func (h *windowsHandle) TryWait() (*ExitStatus, error) {
	if h.status != nil {
		return h.status, nil
	}
	select {
	case status := <-h.done:
		h.status = status
		return status, nil
	default:
		return nil, nil
	}
}
