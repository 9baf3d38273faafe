package supervisor

import (
	"fmt"

	"github.com/core-tools/hsu-init/pkg/errors"
)

// ServiceState is the supervision state of one service during a run.
type ServiceState string

const (
	ServiceStatePending     ServiceState = "pending"      // Not started yet
	ServiceStateSpawning    ServiceState = "spawning"     // Spawn in progress
	ServiceStateRunning     ServiceState = "running"      // Child process alive
	ServiceStateExited      ServiceState = "exited"       // Child reaped
	ServiceStateSpawnFailed ServiceState = "spawn_failed" // Could not be started
	ServiceStateSkipped     ServiceState = "skipped"      // No ExecStart, nothing to run
	ServiceStateCancelled   ServiceState = "cancelled"    // Stop arrived before spawn
)

var validTransitions = map[ServiceState][]ServiceState{
	ServiceStatePending:  {ServiceStateSpawning, ServiceStateSkipped, ServiceStateCancelled, ServiceStateSpawnFailed},
	ServiceStateSpawning: {ServiceStateRunning, ServiceStateSpawnFailed},
	ServiceStateRunning:  {ServiceStateExited},
}

// IsFinal reports whether the state can no longer change.
func (s ServiceState) IsFinal() bool {
	return len(validTransitions[s]) == 0
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from ServiceState, to ServiceState) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func checkTransition(name string, from ServiceState, to ServiceState) error {
	if !CanTransition(from, to) {
		return errors.NewInternalError(
			fmt.Sprintf("invalid state transition: %s -> %s", from, to),
			nil,
		).WithContext(errors.ContextKeyUnit, name)
	}
	return nil
}
