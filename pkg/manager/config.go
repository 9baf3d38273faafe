package manager

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/core-tools/hsu-init/pkg/errors"
	"github.com/core-tools/hsu-init/pkg/logging"
	"github.com/core-tools/hsu-init/pkg/processfile"
	"github.com/core-tools/hsu-init/pkg/supervisor"

	"gopkg.in/yaml.v3"
)

// DefaultUnitDirectory is used when neither the config file nor the command
// line names one.
const DefaultUnitDirectory = "/etc/hsu-init/units"

// Config represents the top-level configuration file structure
type Config struct {
	Manager ManagerConfigOptions `yaml:"manager"`
	Logging logging.Config       `yaml:"logging"`
	Metrics MetricsConfig        `yaml:"metrics,omitempty"`
}

// ManagerConfigOptions represents supervision configuration
type ManagerConfigOptions struct {
	UnitDirectory string        `yaml:"unit_directory"`
	Stagger       time.Duration `yaml:"stagger,omitempty"`
	PollInterval  time.Duration `yaml:"poll_interval,omitempty"`
	RunDuration   time.Duration `yaml:"run_duration,omitempty"` // Zero runs until every service exits

	// PIDFiles enables per-service PID files when set
	PIDFiles *processfile.ProcessFileConfig `yaml:"pid_files,omitempty"`
}

type MetricsConfig struct {
	// Textfile is written once supervision finishes. Empty disables export.
	Textfile string `yaml:"textfile,omitempty"`
}

// DefaultConfig is the configuration used when no file is given.
func DefaultConfig() *Config {
	config := &Config{}
	setConfigDefaults(config)
	return config
}

// LoadConfigFromFile loads manager configuration from a YAML file
func LoadConfigFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.NewIOError("failed to read configuration file", err).WithContext("filename", filename)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.NewValidationError("failed to parse YAML configuration", err).WithContext("filename", filename)
	}

	setConfigDefaults(&config)

	return &config, nil
}

// setConfigDefaults applies default values to configuration
func setConfigDefaults(config *Config) {
	if config.Manager.UnitDirectory == "" {
		config.Manager.UnitDirectory = DefaultUnitDirectory
	}
	if config.Manager.PollInterval == 0 {
		config.Manager.PollInterval = supervisor.DefaultPollInterval
	}

	defaults := logging.DefaultConfig()
	if config.Logging.Level == "" {
		config.Logging.Level = defaults.Level
	}
	if config.Logging.Format == "" {
		config.Logging.Format = defaults.Format
	}
	if config.Logging.Output == "" {
		config.Logging.Output = defaults.Output
	}
}

// ValidateConfig validates the entire configuration structure
func ValidateConfig(config *Config) error {
	if config == nil {
		return errors.NewValidationError("configuration cannot be nil", nil)
	}

	collection := errors.NewErrorCollection()
	collection.Add(validateManagerConfig(&config.Manager))
	collection.Add(validateLoggingConfig(&config.Logging))

	if collection.HasErrors() {
		return errors.NewValidationError("invalid configuration", collection.ToError())
	}
	return nil
}

func validateManagerConfig(config *ManagerConfigOptions) error {
	if config.UnitDirectory == "" {
		return errors.NewValidationError("unit directory cannot be empty", nil)
	}
	if config.Stagger < 0 {
		return errors.NewValidationError(
			fmt.Sprintf("stagger cannot be negative: %v", config.Stagger),
			nil,
		)
	}
	if config.PollInterval <= 0 {
		return errors.NewValidationError(
			fmt.Sprintf("poll interval must be positive: %v", config.PollInterval),
			nil,
		)
	}
	if config.PIDFiles != nil && config.PIDFiles.ServiceContext != "" &&
		config.PIDFiles.ServiceContext != processfile.SystemService &&
		config.PIDFiles.ServiceContext != processfile.UserService {
		return errors.NewValidationError(
			fmt.Sprintf("invalid PID file service context: %s", config.PIDFiles.ServiceContext),
			nil,
		).WithContext("valid_contexts", "system, user")
	}
	if config.RunDuration < 0 {
		return errors.NewValidationError(
			fmt.Sprintf("run duration cannot be negative: %v", config.RunDuration),
			nil,
		)
	}
	return nil
}

func validateLoggingConfig(config *logging.Config) error {
	valid := false
	for _, level := range logging.ValidLevels {
		if config.Level == level {
			valid = true
			break
		}
	}
	if !valid {
		return errors.NewValidationError(
			fmt.Sprintf("invalid log level: %s", config.Level),
			nil,
		).WithContext("valid_levels", strings.Join(logging.ValidLevels, ", "))
	}

	if config.Format != "console" && config.Format != "json" {
		return errors.NewValidationError(
			fmt.Sprintf("invalid log format: %s", config.Format),
			nil,
		).WithContext("valid_formats", "console, json")
	}
	return nil
}

// ParseStaggerSeconds reads a stagger given in whole seconds. A value that is
// not a non-negative integer yields zero and a warning.
func ParseStaggerSeconds(value string, logger logging.Logger) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds < 0 {
		logger.Warnf("Invalid stagger %q, using 0 seconds", value)
		return 0
	}
	return time.Duration(seconds) * time.Second
}
