package units

import (
	"fmt"
	"strings"
)

// Unit holds the identity and the ordering declarations of one unit file.
// Optional values are nil when the key is absent.
type Unit struct {
	Name        string
	Description *string
	Before      *string // if both units are started, this one starts first
	After       *string // if both units are started, this one starts second
	Wants       *string // depends on the named unit; ordered like After
}

// ServiceType mirrors the systemd Type= values. Only ServiceTypeSimple can
// be supervised.
type ServiceType string

const (
	ServiceTypeSimple  ServiceType = "Simple"
	ServiceTypeForking ServiceType = "Forking"
	ServiceTypeOneShot ServiceType = "OneShot"
	ServiceTypeNotify  ServiceType = "Notify"
	ServiceTypeDBus    ServiceType = "DBus"
	ServiceTypeIdle    ServiceType = "Idle"
)

var serviceTypes = []ServiceType{
	ServiceTypeSimple,
	ServiceTypeForking,
	ServiceTypeOneShot,
	ServiceTypeNotify,
	ServiceTypeDBus,
	ServiceTypeIdle,
}

// Executable reports whether the supervisor knows how to run this type.
func (t ServiceType) Executable() bool {
	return t == ServiceTypeSimple
}

// Service is a Unit plus what to execute. It is built once by the loader and
// never mutated afterwards.
type Service struct {
	Unit      Unit
	Type      ServiceType
	ExecStart *string
}

// Name is a shortcut for s.Unit.Name.
func (s Service) Name() string {
	return s.Unit.Name
}

// Command splits ExecStart into the executable and its arguments. ok is false
// when the service declares no process.
func (s Service) Command() (executable string, args []string, ok bool) {
	if s.ExecStart == nil {
		return "", nil, false
	}
	fields := strings.Fields(*s.ExecStart)
	if len(fields) == 0 {
		return "", nil, false
	}
	return fields[0], fields[1:], true
}

func (s Service) String() string {
	execStart := "<none>"
	if s.ExecStart != nil {
		execStart = *s.ExecStart
	}
	return fmt.Sprintf("%s (type: %s, exec: %s)", s.Unit.Name, s.Type, execStart)
}

// Names returns the service names in slice order.
func Names(services []Service) []string {
	names := make([]string, len(services))
	for i, service := range services {
		names[i] = service.Unit.Name
	}
	return names
}
