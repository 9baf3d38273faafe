package units

import (
	"strings"

	"github.com/core-tools/hsu-init/pkg/errors"
)

// ServiceSuffix is the file name suffix of loadable unit files.
const ServiceSuffix = ".service"

// ValidateUnitName checks the constraints on a unit name derived from a
// file name.
func ValidateUnitName(name string) error {
	if name == "" {
		return errors.NewValidationError("unit name cannot be empty", nil)
	}

	if strings.ContainsAny(name, `/\`) {
		return errors.NewValidationError("unit name cannot contain path separators: "+name, nil).
			WithContext(errors.ContextKeyUnit, name)
	}

	if strings.ContainsRune(name, 0) {
		return errors.NewValidationError("unit name cannot contain NUL bytes", nil)
	}

	return nil
}

// ValidateServices checks that names are valid and unique across the set.
func ValidateServices(services []Service) error {
	seen := make(map[string]struct{}, len(services))
	for _, service := range services {
		name := service.Unit.Name
		if err := ValidateUnitName(name); err != nil {
			return err
		}
		if _, exists := seen[name]; exists {
			return errors.NewDuplicateUnitError(name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
