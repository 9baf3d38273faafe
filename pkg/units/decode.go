package units

import (
	"io"
	"regexp"
	"sort"

	"github.com/coreos/go-systemd/v22/unit"

	"github.com/core-tools/hsu-init/pkg/errors"
)

// continuation matches a trailing backslash, the line break and the
// indentation of the continued line.
var continuation = regexp.MustCompile(`\\\r?\n[ \t]*`)

// Sections maps a section name to its Key=Value pairs.
type Sections map[string]map[string]string

// DecodeSections reads systemd unit syntax. A repeated key keeps its last
// value and repeated section headers are merged. Continued lines are joined
// with a single space.
func DecodeSections(r io.Reader) (Sections, error) {
	decoded, err := unit.DeserializeSections(r)
	if err != nil {
		return nil, errors.NewMalformedUnitFileError("failed to decode unit file", err)
	}

	sections := make(Sections, len(decoded))
	for _, section := range decoded {
		properties, ok := sections[section.Section]
		if !ok {
			properties = make(map[string]string, len(section.Entries))
			sections[section.Section] = properties
		}
		for _, entry := range section.Entries {
			properties[entry.Name] = continuation.ReplaceAllString(entry.Value, " ")
		}
	}
	return sections, nil
}

// ParseService decodes one unit file and builds the Service it describes.
// Both the [Unit] and the [Service] sections must be present.
func ParseService(name string, r io.Reader) (Service, error) {
	sections, err := DecodeSections(r)
	if err != nil {
		return Service{}, err
	}
	return BuildService(name, sections)
}

// BuildService builds a Service from already decoded sections. Sections other
// than [Unit] and [Service] are not consulted.
func BuildService(name string, sections Sections) (Service, error) {
	unitSection, ok := sections[SectionUnit]
	if !ok {
		return Service{}, errors.NewMalformedUnitFileError("missing [Unit] section", nil).
			WithContext(errors.ContextKeyUnit, name)
	}
	serviceSection, ok := sections[SectionService]
	if !ok {
		return Service{}, errors.NewMalformedUnitFileError("missing [Service] section", nil).
			WithContext(errors.ContextKeyUnit, name)
	}

	u, err := MakeUnit(copyProperties(unitSection), name)
	if err != nil {
		return Service{}, err
	}
	return MakeService(copyProperties(serviceSection), u)
}

// Extra returns the names of sections BuildService ignores.
func (s Sections) Extra() []string {
	var extra []string
	for name := range s {
		if name != SectionUnit && name != SectionService {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return extra
}

func copyProperties(properties map[string]string) map[string]string {
	result := make(map[string]string, len(properties))
	for key, value := range properties {
		result[key] = value
	}
	return result
}
