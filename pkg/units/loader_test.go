package units

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/core-tools/hsu-init/pkg/errors"
	"github.com/core-tools/hsu-init/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLogger discards all output
type TestLogger struct{}

func (l *TestLogger) LogLevelf(level int, format string, args ...interface{}) {}
func (l *TestLogger) Debugf(format string, args ...interface{})               {}
func (l *TestLogger) Infof(format string, args ...interface{})                {}
func (l *TestLogger) Warnf(format string, args ...interface{})                {}
func (l *TestLogger) Errorf(format string, args ...interface{})               {}

var _ logging.Logger = (*TestLogger)(nil)

func writeUnitFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestParseService(t *testing.T) {
	content := `# web frontend
[Unit]
Description=Web frontend
After=db
Wants=cache

[Service]
ExecStart=/usr/bin/web --listen :8080
Type=Simple
`

	service, err := ParseService("web", strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, "web", service.Name())
	require.NotNil(t, service.Unit.Description)
	assert.Equal(t, "Web frontend", *service.Unit.Description)
	require.NotNil(t, service.Unit.After)
	assert.Equal(t, "db", *service.Unit.After)
	require.NotNil(t, service.Unit.Wants)
	assert.Equal(t, "cache", *service.Unit.Wants)
	assert.Nil(t, service.Unit.Before)
	require.NotNil(t, service.ExecStart)
	assert.Equal(t, "/usr/bin/web --listen :8080", *service.ExecStart)
	assert.Equal(t, ServiceTypeSimple, service.Type)
}

func TestParseService_LineContinuation(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []string
	}{
		{"indented", "[Unit]\n[Service]\nExecStart=/bin/echo a \\\n  b\n", []string{"a", "b"}},
		{"unindented", "[Unit]\n[Service]\nExecStart=/bin/echo a\\\nb\n", []string{"a", "b"}},
		{"several", "[Unit]\n[Service]\nExecStart=/bin/echo a \\\n\tb \\\n c\n", []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, err := ParseService("x", strings.NewReader(tt.content))
			require.NoError(t, err)

			executable, args, ok := service.Command()
			require.True(t, ok)
			assert.Equal(t, "/bin/echo", executable)
			assert.Equal(t, tt.expected, args)
			assert.NotContains(t, *service.ExecStart, "\\")
		})
	}
}

func TestParseService_RepeatedKeyLastWins(t *testing.T) {
	content := "[Unit]\nDescription=first\nDescription=second\n[Service]\nExecStart=/bin/true\n"

	service, err := ParseService("x", strings.NewReader(content))
	require.NoError(t, err)
	require.NotNil(t, service.Unit.Description)
	assert.Equal(t, "second", *service.Unit.Description)
}

func TestParseService_MissingSections(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing_service", "[Unit]\nDescription=x\n"},
		{"missing_unit", "[Service]\nExecStart=/bin/true\n"},
		{"wrong_case", "[unit]\nDescription=x\n[service]\nExecStart=/bin/true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseService("x", strings.NewReader(tt.content))
			assert.True(t, errors.IsMalformedUnitFileError(err), "got %v", err)
		})
	}
}

func TestParseService_PropagatesFactoryErrors(t *testing.T) {
	_, err := ParseService("x", strings.NewReader("[Unit]\nRequires=y\n[Service]\nExecStart=/bin/true\n"))
	assert.True(t, errors.IsUnrecognizedOptionError(err))

	_, err = ParseService("x", strings.NewReader("[Unit]\n[Service]\nType=Weird\n"))
	assert.True(t, errors.IsUnknownServiceTypeError(err))
}

func TestLoadDirectory(t *testing.T) {
	dir := writeUnitFiles(t, map[string]string{
		"b.service": "[Unit]\nDescription=b\n[Service]\nExecStart=/bin/true\n",
		"a.service": "[Unit]\nWants=b\n[Service]\nExecStart=/bin/true\n",
		"README.md": "not a unit",
		"c.timer":   "[Unit]\n",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.service"), 0o755))

	services, err := LoadDirectory(dir, &TestLogger{})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, Names(services))
}

func TestLoadDirectory_DoesNotRecurse(t *testing.T) {
	dir := writeUnitFiles(t, map[string]string{
		"top.service": "[Unit]\n[Service]\nType=Simple\n",
	})
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "deep.service"), []byte("[Unit]\n[Service]\nType=Simple\n"), 0o644))

	services, err := LoadDirectory(dir, &TestLogger{})
	require.NoError(t, err)
	assert.Equal(t, []string{"top"}, Names(services))
}

func TestLoadDirectory_NoUnitsFound(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"empty_directory", map[string]string{}},
		{"no_matching_files", map[string]string{"a.conf": "[Unit]\n", "service": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeUnitFiles(t, tt.files)
			_, err := LoadDirectory(dir, &TestLogger{})
			assert.True(t, errors.IsNoUnitsFoundError(err), "got %v", err)
		})
	}
}

func TestLoadDirectory_OneBadUnitFailsAll(t *testing.T) {
	dir := writeUnitFiles(t, map[string]string{
		"good.service": "[Unit]\n[Service]\nExecStart=/bin/true\n",
		"bad.service":  "[Unit]\nBogus=1\n[Service]\nExecStart=/bin/true\n",
	})

	services, err := LoadDirectory(dir, &TestLogger{})
	assert.Nil(t, services)

	domainErr, ok := errors.Find(err, errors.ErrorTypeUnrecognizedOption)
	require.True(t, ok)
	assert.Equal(t, []string{"Bogus"}, domainErr.Names(errors.ContextKeyOptions))
	assert.Equal(t, filepath.Join(dir, "bad.service"), domainErr.Context[errors.ContextKeyPath])
}

func TestLoadDirectory_MissingDirectory(t *testing.T) {
	_, err := LoadDirectory(filepath.Join(t.TempDir(), "missing"), &TestLogger{})
	assert.True(t, errors.IsIOError(err))
}

func TestLoadDirectory_EmptyUnitName(t *testing.T) {
	dir := writeUnitFiles(t, map[string]string{
		".service": "[Unit]\n[Service]\nType=Simple\n",
	})

	_, err := LoadDirectory(dir, &TestLogger{})
	assert.True(t, errors.IsValidationError(err))
}
