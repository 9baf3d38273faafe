package supervisor

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OutcomeKind is the final result of supervising one service.
type OutcomeKind string

const (
	OutcomeExitCode    OutcomeKind = "exit_code"
	OutcomeSignaled    OutcomeKind = "signaled"
	OutcomeSpawnFailed OutcomeKind = "spawn_failed"
	OutcomeSkipped     OutcomeKind = "skipped"
	OutcomeCancelled   OutcomeKind = "cancelled"
	// OutcomeLost means the child's status could no longer be read.
	OutcomeLost OutcomeKind = "lost"
)

// Outcome is one service's entry in the report. Code is set for
// OutcomeExitCode, Signal for OutcomeSignaled, Reason otherwise.
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	Code   int         `json:"code,omitempty"`
	Signal string      `json:"signal,omitempty"`
	Reason string      `json:"reason,omitempty"`
}

func ExitCode(code int) Outcome {
	return Outcome{Kind: OutcomeExitCode, Code: code}
}

func Signaled(signal string) Outcome {
	return Outcome{Kind: OutcomeSignaled, Signal: signal}
}

func SpawnFailed(reason string) Outcome {
	return Outcome{Kind: OutcomeSpawnFailed, Reason: reason}
}

// Cancelled records why a service was never started.
func Cancelled(cause error) Outcome {
	return Outcome{Kind: OutcomeCancelled, Reason: cause.Error()}
}

// Success reports a clean exit, or a unit with nothing to run.
func (o Outcome) Success() bool {
	return (o.Kind == OutcomeExitCode && o.Code == 0) || o.Kind == OutcomeSkipped
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeExitCode:
		return fmt.Sprintf("ExitCode(%d)", o.Code)
	case OutcomeSignaled:
		return fmt.Sprintf("Signaled(%s)", o.Signal)
	case OutcomeSpawnFailed:
		return fmt.Sprintf("SpawnFailed(%s)", o.Reason)
	case OutcomeLost:
		return fmt.Sprintf("Lost(%s)", o.Reason)
	case OutcomeSkipped:
		return "Skipped"
	case OutcomeCancelled:
		return "Cancelled"
	default:
		return string(o.Kind)
	}
}

// Report is the result of one supervision run.
type Report struct {
	RunID      string             `json:"run_id"`
	Order      []string           `json:"order"`
	Outcomes   map[string]Outcome `json:"outcomes"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Stopped    bool               `json:"stopped"`
}

func newReport(startedAt time.Time) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Outcomes:  make(map[string]Outcome),
		StartedAt: startedAt,
	}
}

// Failed returns, in start order, the services whose outcome is not a success.
func (r *Report) Failed() []string {
	var failed []string
	for _, name := range r.Order {
		if outcome, ok := r.Outcomes[name]; ok && !outcome.Success() {
			failed = append(failed, name)
		}
	}
	return failed
}
