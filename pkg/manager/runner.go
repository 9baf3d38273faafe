package manager

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/core-tools/hsu-init/pkg/errors"
	"github.com/core-tools/hsu-init/pkg/logging"
	"github.com/core-tools/hsu-init/pkg/metrics"
	"github.com/core-tools/hsu-init/pkg/ordering"
	"github.com/core-tools/hsu-init/pkg/processfile"
	"github.com/core-tools/hsu-init/pkg/supervisor"
	"github.com/core-tools/hsu-init/pkg/units"
)

// Prepare loads the unit directory and orders the result. It logs the
// services found and the start order.
func Prepare(unitDirectory string, logger logging.Logger) ([]units.Service, error) {
	logger.Infof("Loading units from %s", unitDirectory)

	services, err := units.LoadDirectory(unitDirectory, logger)
	if err != nil {
		return nil, err
	}
	logger.Infof("Found %d services", len(services))

	ordered, err := ordering.Order(services)
	if err != nil {
		return nil, err
	}
	logger.Infof("Start order: %s", strings.Join(units.Names(ordered), ", "))

	return ordered, nil
}

// Check validates a configuration and its unit directory without starting
// anything, and returns the start order.
func Check(config *Config, logger logging.Logger) ([]string, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}
	ordered, err := Prepare(config.Manager.UnitDirectory, logger)
	if err != nil {
		return nil, err
	}
	return units.Names(ordered), nil
}

// Run loads, orders and supervises the configured units until every child
// has exited, the run duration elapses, or a stop signal arrives. Load and
// ordering errors are returned before anything is spawned.
func Run(ctx context.Context, config *Config, logger logging.Logger) (*supervisor.Report, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	logger.Infof("Manager runner starting...")

	if config.Manager.RunDuration > 0 {
		logger.Infof("Using RUN DURATION of %v", config.Manager.RunDuration)
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Manager.RunDuration)
		defer cancel()
	}

	ordered, err := Prepare(config.Manager.UnitDirectory, logger)
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector()
	collector.UnitsLoaded(len(ordered))

	options := supervisor.Options{
		Stagger:      config.Manager.Stagger,
		PollInterval: config.Manager.PollInterval,
		Metrics:      collector,
	}
	if config.Manager.PIDFiles != nil {
		pidFiles := processfile.NewProcessFileManager(*config.Manager.PIDFiles, logger)
		logger.Infof("Writing PID files to %s", pidFiles.Directory())
		options.PIDFiles = pidFiles
	}
	sup := supervisor.New(options, logger)

	logger.Infof("Enabling signal handling...")
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, handledSignals...)
	stopForwarding := forwardSignals(sig, sup, logger)

	report := sup.Run(ctx, ordered)

	signal.Stop(sig)
	stopForwarding()

	for _, name := range report.Order {
		logging.UnitLogger(logger, name).Infof("Outcome: %s", report.Outcomes[name])
	}
	logger.Infof("All processes finished")

	if config.Metrics.Textfile != "" {
		if err := collector.WriteTextfile(config.Metrics.Textfile); err != nil {
			return report, errors.NewIOError("failed to write metrics textfile", err).
				WithContext(errors.ContextKeyPath, config.Metrics.Textfile)
		}
		logger.Debugf("Metrics written to %s", config.Metrics.Textfile)
	}

	return report, nil
}

type controller interface {
	Stop()
	Reload()
}

// forwardSignals turns received signals into supervisor commands until the
// returned func is called.
func forwardSignals(sig <-chan os.Signal, target controller, logger logging.Logger) func() {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case receivedSignal := <-sig:
				logger.Infof("Manager runner received signal: %v", receivedSignal)
				command, ok := signalCommand(receivedSignal)
				if !ok {
					logger.Warnf("Ignoring signal %v", receivedSignal)
					continue
				}
				switch command {
				case supervisor.CommandStop:
					target.Stop()
				case supervisor.CommandReload:
					target.Reload()
				}
			case <-done:
				return
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}
