package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/clock"

	"github.com/core-tools/hsu-init/pkg/errors"
	"github.com/core-tools/hsu-init/pkg/logging"
	"github.com/core-tools/hsu-init/pkg/metrics"
	"github.com/core-tools/hsu-init/pkg/process"
	"github.com/core-tools/hsu-init/pkg/units"
)

// DefaultPollInterval is how often live children are checked for exit.
const DefaultPollInterval = 500 * time.Millisecond

// CommandKind is an operator request delivered to the control loop.
type CommandKind string

const (
	CommandStop   CommandKind = "stop"
	CommandReload CommandKind = "reload"
)

type Options struct {
	// Stagger is the pause after each successful spawn before the next one.
	Stagger time.Duration
	// PollInterval defaults to DefaultPollInterval.
	PollInterval time.Duration
	// Spawner defaults to process.NewExecSpawner.
	Spawner process.Spawner
	// Clock defaults to clock.WallClock.
	Clock clock.Clock
	// Metrics defaults to metrics.Discard.
	Metrics metrics.Recorder
	// PIDFiles is optional; when set, a PID file exists while a child runs.
	PIDFiles PIDFileWriter
}

// PIDFileWriter records the PIDs of running children.
type PIDFileWriter interface {
	WritePIDFile(unitName string, pid int) error
	RemovePIDFile(unitName string) error
}

// Supervisor starts services one at a time in the given order and then
// polls them until every child has exited. All run state is owned by the
// goroutine calling Run; other goroutines talk to it through Stop and
// Reload only.
type Supervisor struct {
	options  Options
	logger   logging.Logger
	commands chan CommandKind
}

func New(options Options, logger logging.Logger) *Supervisor {
	if options.PollInterval <= 0 {
		options.PollInterval = DefaultPollInterval
	}
	if options.Stagger < 0 {
		options.Stagger = 0
	}
	if options.Spawner == nil {
		options.Spawner = process.NewExecSpawner(logger)
	}
	if options.Clock == nil {
		options.Clock = clock.WallClock
	}
	if options.Metrics == nil {
		options.Metrics = metrics.Discard
	}
	return &Supervisor{
		options:  options,
		logger:   logger,
		commands: make(chan CommandKind, 8),
	}
}

// Stop asks the control loop to cancel services not yet started and to
// send a termination request to running ones. It does not wait.
func (s *Supervisor) Stop() {
	s.send(CommandStop)
}

// Reload is accepted and logged; the unit set of a run is fixed.
func (s *Supervisor) Reload() {
	s.send(CommandReload)
}

func (s *Supervisor) send(command CommandKind) {
	select {
	case s.commands <- command:
	default:
		s.logger.Warnf("Control queue full, dropping %s command", command)
	}
}

type entry struct {
	service units.Service
	state   ServiceState
	handle  process.Handle
	logger  logging.Logger
}

type run struct {
	*Supervisor
	ctxDone  <-chan struct{}
	entries  []*entry
	report   *Report
	stopping bool
}

// Run supervises ordered until every spawned child has exited, and returns
// the outcome of every service. Cancelling ctx has the same effect as Stop.
func (s *Supervisor) Run(ctx context.Context, ordered []units.Service) *Report {
	r := &run{
		Supervisor: s,
		ctxDone:    ctx.Done(),
		report:     newReport(s.options.Clock.Now()),
	}
	for _, service := range ordered {
		r.entries = append(r.entries, &entry{
			service: service,
			state:   ServiceStatePending,
			logger:  logging.UnitLogger(s.logger, service.Unit.Name),
		})
		r.report.Order = append(r.report.Order, service.Unit.Name)
	}

	s.logger.Infof("Supervision run %s starting %d services, stagger: %v, poll interval: %v",
		r.report.RunID, len(r.entries), s.options.Stagger, s.options.PollInterval)

	r.startAll()
	r.monitor()

	r.report.FinishedAt = s.options.Clock.Now()
	r.report.Stopped = r.stopping
	s.logger.Infof("Supervision run %s finished, failed services: %v", r.report.RunID, r.report.Failed())
	return r.report
}

func (r *run) startAll() {
	for i, e := range r.entries {
		r.drain()
		if r.stopping {
			r.finish(e, ServiceStateCancelled, Cancelled(errors.NewCancelledError("stopped before spawn", nil)))
			continue
		}

		if !r.start(e) {
			continue
		}
		if r.hasPendingAfter(i) {
			e.logger.Debugf("Sleeping for %v before next spawn", r.options.Stagger)
			r.wait(r.options.Stagger)
		}
	}
}

// start returns true when a child was spawned.
func (r *run) start(e *entry) bool {
	service := e.service

	executable, args, ok := service.Command()
	if !ok && service.ExecStart != nil {
		e.logger.Errorf("Not starting: ExecStart is blank")
		r.finish(e, ServiceStateSpawnFailed, SpawnFailed("empty ExecStart"))
		return false
	}
	if !ok {
		e.logger.Infof("No ExecStart, nothing to run")
		r.finish(e, ServiceStateSkipped, Outcome{Kind: OutcomeSkipped})
		return false
	}

	if !service.Type.Executable() {
		reason := fmt.Sprintf("unsupported service type %s", service.Type)
		e.logger.Errorf("Not starting: %s", reason)
		r.finish(e, ServiceStateSpawnFailed, SpawnFailed(reason))
		return false
	}

	r.transition(e, ServiceStateSpawning)
	handle, err := r.options.Spawner.Spawn(process.Command{
		ID:         service.Unit.Name,
		Executable: executable,
		Args:       args,
	})
	if err != nil {
		e.logger.Errorf("Failed to spawn (%s): %v", process.Category(err), err)
		r.finish(e, ServiceStateSpawnFailed, SpawnFailed(err.Error()))
		return false
	}

	e.handle = handle
	r.transition(e, ServiceStateRunning)
	r.options.Metrics.ServiceSpawned(service.Unit.Name)
	e.logger.Infof("Started, pid: %d", handle.Pid())
	if r.options.PIDFiles != nil {
		if err := r.options.PIDFiles.WritePIDFile(service.Unit.Name, handle.Pid()); err != nil {
			e.logger.Warnf("Failed to write PID file: %v", err)
		}
	}
	return true
}

func (r *run) hasPendingAfter(index int) bool {
	for _, e := range r.entries[index+1:] {
		if e.state == ServiceStatePending {
			return true
		}
	}
	return false
}

func (r *run) monitor() {
	for {
		live := 0
		for _, e := range r.entries {
			if e.state != ServiceStateRunning {
				continue
			}
			if !r.poll(e) {
				live++
			}
		}
		if live == 0 {
			return
		}
		r.wait(r.options.PollInterval)
	}
}

// poll returns true once the entry reached a final state.
func (r *run) poll(e *entry) bool {
	status, err := e.handle.TryWait()
	if err != nil {
		e.logger.Errorf("Lost track of process %d: %v", e.handle.Pid(), err)
		r.finish(e, ServiceStateExited, Outcome{Kind: OutcomeLost, Reason: err.Error()})
		return true
	}
	if status == nil {
		return false
	}

	outcome := ExitCode(status.Code)
	if status.Signaled {
		outcome = Signaled(status.Signal)
	}
	e.logger.Infof("Process %d finished: %s", e.handle.Pid(), outcome)
	r.finish(e, ServiceStateExited, outcome)
	return true
}

// wait sleeps for d on a timer that also serves the control queue and ctx.
// A stop request ends the wait early.
func (r *run) wait(d time.Duration) {
	timer := r.options.Clock.NewTimer(d)
	defer timer.Stop()

	for {
		select {
		case <-timer.Chan():
			return
		case command := <-r.commands:
			if r.handle(command) {
				return
			}
		case <-r.ctxDone:
			r.ctxDone = nil
			r.logger.Infof("Context cancelled, stopping services")
			if r.handle(CommandStop) {
				return
			}
		}
	}
}

// drain applies queued commands without blocking.
func (r *run) drain() {
	for {
		select {
		case command := <-r.commands:
			r.handle(command)
		case <-r.ctxDone:
			r.ctxDone = nil
			r.logger.Infof("Context cancelled, stopping services")
			r.handle(CommandStop)
		default:
			return
		}
	}
}

// handle applies a command and reports whether a pending wait should end.
func (r *run) handle(command CommandKind) bool {
	switch command {
	case CommandStop:
		if r.stopping {
			return false
		}
		r.logger.Infof("Stop requested")
		r.stopping = true
		for _, e := range r.entries {
			if e.state != ServiceStateRunning {
				continue
			}
			e.logger.Infof("Terminating process %d", e.handle.Pid())
			if err := e.handle.Terminate(); err != nil {
				e.logger.Errorf("Failed to terminate: %v", err)
			}
		}
		return true
	case CommandReload:
		r.logger.Infof("Reload requested; unit set is fixed for the current run, ignoring")
		return false
	default:
		r.logger.Warnf("Unknown command %q", command)
		return false
	}
}

func (r *run) transition(e *entry, to ServiceState) bool {
	if err := checkTransition(e.service.Unit.Name, e.state, to); err != nil {
		r.logger.Errorf("%v", err)
		return false
	}
	e.logger.Debugf("State %s -> %s", e.state, to)
	e.state = to
	return true
}

func (r *run) finish(e *entry, to ServiceState, outcome Outcome) {
	wasRunning := e.state == ServiceStateRunning
	if !r.transition(e, to) {
		return
	}
	if wasRunning && r.options.PIDFiles != nil {
		if err := r.options.PIDFiles.RemovePIDFile(e.service.Unit.Name); err != nil {
			e.logger.Warnf("Failed to remove PID file: %v", err)
		}
	}
	r.report.Outcomes[e.service.Unit.Name] = outcome
	r.options.Metrics.ServiceFinished(e.service.Unit.Name, metricsOutcome(outcome))
}

func metricsOutcome(outcome Outcome) string {
	switch outcome.Kind {
	case OutcomeExitCode, OutcomeLost:
		return metrics.OutcomeExited
	case OutcomeSignaled:
		return metrics.OutcomeSignaled
	case OutcomeSpawnFailed:
		return metrics.OutcomeSpawnFailed
	case OutcomeSkipped:
		return metrics.OutcomeSkipped
	default:
		return metrics.OutcomeCancelled
	}
}
