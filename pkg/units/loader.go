package units

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/core-tools/hsu-init/pkg/errors"
	"github.com/core-tools/hsu-init/pkg/logging"
)

// LoadDirectory loads every *.service file directly inside path. Any broken
// unit fails the whole load, since starting a partial set risks an
// inconsistent system. The result is sorted by name; it is not ordered by
// dependencies.
func LoadDirectory(path string, logger logging.Logger) ([]Service, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.NewIOError("failed to read unit directory", err).WithContext(errors.ContextKeyPath, path)
	}

	var services []Service
	for _, entry := range entries {
		fileName := entry.Name()
		if !utf8.ValidString(fileName) {
			logger.Warnf("Skipping entry with undecodable file name, directory: %s, name: %q", path, fileName)
			continue
		}
		if !strings.HasSuffix(fileName, ServiceSuffix) {
			continue
		}

		// Stat follows symlinks, so linked unit files still load.
		filePath := filepath.Join(path, fileName)
		info, err := os.Stat(filePath)
		if err != nil {
			logger.Warnf("Skipping unreadable entry %s: %v", filePath, err)
			continue
		}
		if !info.Mode().IsRegular() {
			logger.Debugf("Skipping %s, not a regular file (mode: %v)", fileName, info.Mode())
			continue
		}

		name := strings.TrimSuffix(fileName, ServiceSuffix)
		service, err := LoadFile(filePath, name, logger)
		if err != nil {
			return nil, err
		}
		services = append(services, service)
	}

	if len(services) == 0 {
		return nil, errors.NewNoUnitsFoundError(path)
	}

	sort.Slice(services, func(i, j int) bool {
		return services[i].Unit.Name < services[j].Unit.Name
	})
	if err := ValidateServices(services); err != nil {
		return nil, err
	}

	logger.Infof("Loaded %d units from %s", len(services), path)
	return services, nil
}

// LoadFile loads a single unit file under the given unit name.
func LoadFile(filePath string, name string, logger logging.Logger) (Service, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return Service{}, errors.NewIOError("failed to open unit file", err).
			WithContext(errors.ContextKeyPath, filePath).
			WithContext(errors.ContextKeyUnit, name)
	}
	defer file.Close()

	sections, err := DecodeSections(file)
	if err != nil {
		return Service{}, withPath(err, filePath)
	}

	unitLogger := logging.UnitLogger(logger, name)
	if extra := sections.Extra(); len(extra) > 0 {
		unitLogger.Warnf("Ignoring sections %v in %s", extra, filePath)
	}

	service, err := BuildService(name, sections)
	if err != nil {
		return Service{}, withPath(err, filePath)
	}

	unitLogger.Debugf("Loaded unit: %s", service)
	return service, nil
}

func withPath(err error, filePath string) error {
	if domainErr, ok := err.(*errors.DomainError); ok {
		return domainErr.WithContext(errors.ContextKeyPath, filePath)
	}
	return err
}
