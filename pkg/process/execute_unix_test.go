//go:build !windows

package process

import (
	"testing"
	"time"

	"github.com/core-tools/hsu-init/pkg/errors"
	"github.com/core-tools/hsu-init/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForExit(t *testing.T, handle Handle) *ExitStatus {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		status, err := handle.TryWait()
		require.NoError(t, err)
		if status != nil {
			return status
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("process %d did not exit", handle.Pid())
	return nil
}

func TestExecSpawner_ExitCodes(t *testing.T) {
	tests := []struct {
		name       string
		executable string
		args       []string
		code       int
	}{
		{"true", "true", nil, 0},
		{"false", "false", nil, 1},
		{"sh_exit_code", "sh", []string{"-c", "exit 7"}, 7},
	}

	spawner := NewExecSpawner(logging.Nop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handle, err := spawner.Spawn(Command{ID: tt.name, Executable: tt.executable, Args: tt.args})
			require.NoError(t, err)
			assert.Greater(t, handle.Pid(), 0)

			status := waitForExit(t, handle)
			assert.Equal(t, tt.code, status.Code)
			assert.False(t, status.Signaled)

			again, err := handle.TryWait()
			require.NoError(t, err)
			assert.Equal(t, status, again, "status is sticky after reaping")
		})
	}
}

func TestExecSpawner_TryWaitDoesNotBlock(t *testing.T) {
	spawner := NewExecSpawner(logging.Nop())
	handle, err := spawner.Spawn(Command{ID: "sleeper", Executable: "sleep", Args: []string{"5"}})
	require.NoError(t, err)

	start := time.Now()
	status, err := handle.TryWait()
	require.NoError(t, err)
	assert.Nil(t, status)
	assert.Less(t, time.Since(start), time.Second)

	require.NoError(t, handle.Terminate())
	status = waitForExit(t, handle)
	assert.True(t, status.Signaled)
	assert.Equal(t, "terminated", status.Signal)

	assert.NoError(t, handle.Terminate(), "terminating a reaped child is a no-op")
}

func TestExecSpawner_Failures(t *testing.T) {
	tests := []struct {
		name     string
		command  Command
		category string
	}{
		{
			name:     "not_in_path",
			command:  Command{ID: "x", Executable: "hsu-init-definitely-missing"},
			category: ErrorCategoryExecutableNotFound,
		},
		{
			name:     "missing_absolute_path",
			command:  Command{ID: "x", Executable: "/nonexistent/bin/app"},
			category: ErrorCategoryExecutableNotFound,
		},
	}

	spawner := NewExecSpawner(logging.Nop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handle, err := spawner.Spawn(tt.command)
			assert.Nil(t, handle)
			assert.True(t, errors.IsSpawnFailedError(err))
			assert.Equal(t, tt.category, Category(err))
		})
	}
}
