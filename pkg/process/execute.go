package process

import (
	"errors"
	"os"
	"os/exec"

	domainerrors "github.com/core-tools/hsu-init/pkg/errors"
	"github.com/core-tools/hsu-init/pkg/logging"
)

// Command describes one child process. Executable is resolved with the
// platform lookup rules; Args are passed verbatim, no shell is involved.
type Command struct {
	ID         string
	Executable string
	Args       []string
}

// ExitStatus is the terminal status of a reaped child.
type ExitStatus struct {
	Code     int
	Signaled bool
	Signal   string
}

// Handle is the supervisor's non-owning view of a spawned child.
type Handle interface {
	Pid() int
	// TryWait never blocks. It returns nil while the child is running.
	TryWait() (*ExitStatus, error)
	// Terminate asks the child to exit.
	Terminate() error
}

// Spawner starts child processes.
type Spawner interface {
	Spawn(command Command) (Handle, error)
}

// Failure categories of a spawn error
const (
	ErrorCategoryExecutableNotFound = "executable_not_found"
	ErrorCategoryPermissionDenied   = "permission_denied"
	ErrorCategoryUnknown            = "unknown"
)

// ExecSpawner spawns children with os/exec. Children share the manager's
// stdout and stderr.
type ExecSpawner struct {
	Stdout *os.File
	Stderr *os.File
	logger logging.Logger
}

func NewExecSpawner(logger logging.Logger) *ExecSpawner {
	return &ExecSpawner{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		logger: logger,
	}
}

func (s *ExecSpawner) Spawn(command Command) (Handle, error) {
	if err := ValidateCommand(command); err != nil {
		return nil, err
	}

	s.logger.Debugf("Executing process, id: %s, executable: '%s', args: %v", command.ID, command.Executable, command.Args)

	cmd := exec.Command(command.Executable, command.Args...)
	// Files rather than arbitrary writers, so os/exec starts no copying
	// goroutines that would need cmd.Wait to finish.
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr

	// Platform-specific setup is handled in execute_windows.go or execute_unix.go
	setupProcessAttributes(cmd)

	if err := cmd.Start(); err != nil {
		category := classifyStartError(err)
		return nil, domainerrors.NewSpawnFailedError("failed to start the process", err).
			WithContext("id", command.ID).
			WithContext("executable", command.Executable).
			WithContext("category", category)
	}

	s.logger.Infof("Successfully executed process, id: %s, PID: %d", command.ID, cmd.Process.Pid)
	return newHandle(cmd), nil
}

func classifyStartError(err error) string {
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return ErrorCategoryExecutableNotFound
	case errors.Is(err, os.ErrPermission):
		return ErrorCategoryPermissionDenied
	default:
		return ErrorCategoryUnknown
	}
}

// Category returns the failure category recorded on a spawn error.
func Category(err error) string {
	if domainErr, ok := domainerrors.Find(err, domainerrors.ErrorTypeSpawnFailed); ok {
		if category, ok := domainErr.Context["category"].(string); ok {
			return category
		}
	}
	return ErrorCategoryUnknown
}
