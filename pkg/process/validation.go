package process

import (
	"strings"

	"github.com/core-tools/hsu-init/pkg/errors"
)

// ValidateCommand validates a command before it is spawned
func ValidateCommand(command Command) error {
	if command.Executable == "" {
		return errors.NewValidationError("executable is required", nil).WithContext("id", command.ID)
	}

	if strings.ContainsRune(command.Executable, 0) {
		return errors.NewValidationError("executable contains a NUL byte", nil).WithContext("id", command.ID)
	}

	return nil
}
