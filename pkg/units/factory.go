package units

import (
	"github.com/core-tools/hsu-init/pkg/errors"
)

// Recognized keys of the [Unit] section
const (
	KeyDescription = "Description"
	KeyBefore      = "Before"
	KeyAfter       = "After"
	KeyWants       = "Wants"
)

// Recognized keys of the [Service] section
const (
	KeyExecStart = "ExecStart"
	KeyType      = "Type"
)

const (
	SectionUnit    = "Unit"
	SectionService = "Service"
)

// MakeUnit builds a Unit from the [Unit] section. Recognized keys are removed
// from properties; anything left afterwards is rejected so that a typo in a
// unit file fails the load instead of being ignored.
func MakeUnit(properties map[string]string, name string) (Unit, error) {
	if err := ValidateUnitName(name); err != nil {
		return Unit{}, err
	}

	unit := Unit{
		Name:        name,
		Description: take(properties, KeyDescription),
		Before:      take(properties, KeyBefore),
		After:       take(properties, KeyAfter),
		Wants:       take(properties, KeyWants),
	}

	if len(properties) > 0 {
		return Unit{}, errors.NewUnrecognizedOptionError(SectionUnit, keys(properties)).
			WithContext(errors.ContextKeyUnit, name)
	}
	return unit, nil
}

// MakeService builds a Service from the [Service] section, consuming
// properties the same way MakeUnit does. Type defaults to Simple.
func MakeService(properties map[string]string, unit Unit) (Service, error) {
	execStart := take(properties, KeyExecStart)

	serviceType := ServiceTypeSimple
	if value := take(properties, KeyType); value != nil {
		parsed, err := ParseServiceType(*value)
		if err != nil {
			return Service{}, err
		}
		serviceType = parsed
	}

	if len(properties) > 0 {
		return Service{}, errors.NewUnrecognizedOptionError(SectionService, keys(properties)).
			WithContext(errors.ContextKeyUnit, unit.Name)
	}

	return Service{
		Unit:      unit,
		Type:      serviceType,
		ExecStart: execStart,
	}, nil
}

// ParseServiceType matches value exactly against the known service types.
func ParseServiceType(value string) (ServiceType, error) {
	for _, serviceType := range serviceTypes {
		if string(serviceType) == value {
			return serviceType, nil
		}
	}
	return "", errors.NewUnknownServiceTypeError(value)
}

func take(properties map[string]string, key string) *string {
	value, ok := properties[key]
	if !ok {
		return nil
	}
	delete(properties, key)
	return &value
}

func keys(properties map[string]string) []string {
	result := make([]string, 0, len(properties))
	for key := range properties {
		result = append(result, key)
	}
	return result
}
