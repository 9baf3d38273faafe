package processfile

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/core-tools/hsu-init/pkg/errors"
	"github.com/core-tools/hsu-init/pkg/logging"
)

// Default application name used for the PID file subdirectory
const DefaultAppName = "hsu-init"

const pidFileSuffix = ".pid"

// ProcessFileConfig holds configuration for per-service PID files
type ProcessFileConfig struct {
	// Base directory for PID files. If empty, uses OS-appropriate default
	BaseDirectory string `yaml:"base_directory,omitempty"`

	// Service context - affects directory selection
	ServiceContext ServiceContext `yaml:"service_context,omitempty"`

	// Application name for subdirectory creation
	AppName string `yaml:"app_name,omitempty"`

	// Create subdirectory for the app (recommended for system services)
	UseSubdirectory bool `yaml:"use_subdirectory,omitempty"`
}

// ServiceContext defines the context in which the manager runs
type ServiceContext string

const (
	// SystemService runs as a system service (daemon)
	SystemService ServiceContext = "system"

	// UserService runs as a user service
	UserService ServiceContext = "user"
)

// ProcessFileManager writes and removes the PID files of supervised services
type ProcessFileManager struct {
	config ProcessFileConfig
	logger logging.Logger
}

// NewProcessFileManager creates a new process file manager with the given configuration
func NewProcessFileManager(config ProcessFileConfig, logger logging.Logger) *ProcessFileManager {
	if config.AppName == "" {
		config.AppName = DefaultAppName
	}
	if config.ServiceContext == "" {
		config.ServiceContext = SystemService
	}

	return &ProcessFileManager{
		config: config,
		logger: logger,
	}
}

// Directory returns the directory holding the PID files.
func (m *ProcessFileManager) Directory() string {
	baseDir := m.getBaseDirectory()
	if m.config.UseSubdirectory {
		baseDir = filepath.Join(baseDir, m.config.AppName)
	}
	return baseDir
}

// PIDFilePath returns the PID file path of the named unit
func (m *ProcessFileManager) PIDFilePath(unitName string) string {
	return filepath.Join(m.Directory(), unitName+pidFileSuffix)
}

// WritePIDFile writes pid to the unit's PID file, creating the directory if needed
func (m *ProcessFileManager) WritePIDFile(unitName string, pid int) error {
	pidFilePath := m.PIDFilePath(unitName)
	m.logger.Debugf("Writing PID file, unit: %s, pid: %d, path: %s", unitName, pid, pidFilePath)

	if err := ensureDirectory(filepath.Dir(pidFilePath)); err != nil {
		return err
	}

	pidContent := fmt.Sprintf("%d\n", pid)
	if err := os.WriteFile(pidFilePath, []byte(pidContent), 0644); err != nil {
		return errors.NewIOError("failed to write PID file", err).WithContext("pid_file", pidFilePath).WithContext("pid", pid)
	}
	return nil
}

// ReadPIDFile reads the PID recorded for the unit
func (m *ProcessFileManager) ReadPIDFile(unitName string) (int, error) {
	pidFilePath := m.PIDFilePath(unitName)

	content, err := os.ReadFile(pidFilePath)
	if err != nil {
		return 0, errors.NewIOError("failed to read PID file", err).WithContext("pid_file", pidFilePath)
	}

	pidStr := strings.TrimSpace(string(content))
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return 0, errors.NewValidationError("invalid PID in PID file", err).WithContext("pid_file", pidFilePath).WithContext("content", pidStr)
	}
	return pid, nil
}

// RemovePIDFile deletes the unit's PID file. A missing file is not an error.
func (m *ProcessFileManager) RemovePIDFile(unitName string) error {
	pidFilePath := m.PIDFilePath(unitName)
	if err := os.Remove(pidFilePath); err != nil && !os.IsNotExist(err) {
		return errors.NewIOError("failed to remove PID file", err).WithContext("pid_file", pidFilePath)
	}
	return nil
}

// getBaseDirectory returns the appropriate base directory for PID files
func (m *ProcessFileManager) getBaseDirectory() string {
	if m.config.BaseDirectory != "" {
		return m.config.BaseDirectory
	}

	switch m.config.ServiceContext {
	case UserService:
		return getUserServiceDirectory()
	default:
		return getSystemServiceDirectory()
	}
}

func getSystemServiceDirectory() string {
	switch runtime.GOOS {
	case "windows":
		programData := os.Getenv("PROGRAMDATA")
		if programData == "" {
			programData = "C:\\ProgramData"
		}
		return programData

	case "darwin":
		return "/var/run"

	default:
		// Modern standard is /run, with fallback to /var/run
		if _, err := os.Stat("/run"); err == nil {
			return "/run"
		}
		return "/var/run"
	}
}

func getUserServiceDirectory() string {
	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			return os.TempDir()
		}
		return localAppData

	default:
		if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
			return runtimeDir
		}
		return os.TempDir()
	}
}

func ensureDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			return errors.NewIOError("failed to access PID file directory", err).WithContext("directory", dir)
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.NewIOError("failed to create PID file directory", err).WithContext("directory", dir)
		}
		return nil
	}
	if !info.IsDir() {
		return errors.NewValidationError("PID file path is not a directory", nil).WithContext(errors.ContextKeyPath, dir)
	}
	return nil
}
