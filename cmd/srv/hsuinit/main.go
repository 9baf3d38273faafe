package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/core-tools/hsu-init/pkg/logging"
	"github.com/core-tools/hsu-init/pkg/manager"

	flags "github.com/jessevdk/go-flags"
)

type flagOptions struct {
	Config          string `long:"config" description:"path to the YAML configuration file"`
	Units           string `long:"units" description:"directory containing *.service unit files"`
	Stagger         string `long:"stagger" description:"seconds to wait between consecutive spawns"`
	PollInterval    string `long:"poll-interval" description:"interval between child status checks, e.g. 500ms"`
	LogLevel        string `long:"log-level" description:"debug, info, warn or error"`
	RunDuration     int    `long:"run-duration" description:"Duration in seconds to run the manager (debug feature)"`
	MetricsTextfile string `long:"metrics-textfile" description:"write Prometheus metrics to this file on exit"`
	Check           bool   `long:"check" description:"load and order units, print the start order and exit"`
}

func main() {
	var opts flagOptions
	var argv []string = os.Args[1:]
	var parser = flags.NewParser(&opts, flags.HelpFlag)
	var err error
	_, err = parser.ParseArgs(argv)
	if err != nil {
		fmt.Printf("Command line flags parsing failed: %v\n", err)
		os.Exit(1)
	}

	config := manager.DefaultConfig()
	if opts.Config != "" {
		config, err = manager.LoadConfigFromFile(opts.Config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
	}
	if opts.LogLevel != "" {
		config.Logging.Level = opts.LogLevel
	}

	logger, syncLogger, err := logging.NewZapLogger(config.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer syncLogger()

	logger = logging.WithPrefix(logger, "module: hsu-init , ")
	logger.Infof("opts: %+v", opts)

	if err := applyFlags(config, opts, logger); err != nil {
		logger.Errorf("Invalid flags: %v", err)
		syncLogger()
		os.Exit(1)
	}

	if opts.Check {
		order, err := manager.Check(config, logger)
		if err != nil {
			logger.Errorf("Check failed: %v", err)
			syncLogger()
			os.Exit(1)
		}
		fmt.Println(strings.Join(order, "\n"))
		return
	}

	report, err := manager.Run(context.Background(), config, logger)
	if err != nil {
		logger.Errorf("Manager run failed: %v", err)
		if report == nil {
			syncLogger()
			os.Exit(1)
		}
	}
	if report != nil && len(report.Failed()) > 0 {
		logger.Warnf("Services without a clean exit: %s", strings.Join(report.Failed(), ", "))
	}
}

// applyFlags lets command line values override the configuration file.
func applyFlags(config *manager.Config, opts flagOptions, logger logging.Logger) error {
	if opts.Units != "" {
		config.Manager.UnitDirectory = opts.Units
	}
	if opts.Stagger != "" {
		config.Manager.Stagger = manager.ParseStaggerSeconds(opts.Stagger, logger)
	}
	if opts.PollInterval != "" {
		interval, err := time.ParseDuration(opts.PollInterval)
		if err != nil {
			return fmt.Errorf("invalid poll interval %q: %w", opts.PollInterval, err)
		}
		config.Manager.PollInterval = interval
	}
	if opts.RunDuration > 0 {
		config.Manager.RunDuration = time.Duration(opts.RunDuration) * time.Second
	}
	if opts.MetricsTextfile != "" {
		config.Metrics.Textfile = opts.MetricsTextfile
	}
	return nil
}
