package manager

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/core-tools/hsu-init/pkg/errors"
	"github.com/core-tools/hsu-init/pkg/supervisor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUnitFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func configFor(unitDirectory string) *Config {
	config := DefaultConfig()
	config.Manager.UnitDirectory = unitDirectory
	config.Manager.PollInterval = 10 * time.Millisecond
	return config
}

func TestPrepare(t *testing.T) {
	dir := writeUnitFiles(t, map[string]string{
		"web.service":   "[Unit]\nAfter=db\n[Service]\nType=Simple\nExecStart=/usr/bin/web\n",
		"db.service":    "[Unit]\n[Service]\nType=Simple\nExecStart=/usr/bin/db\n",
		"cache.service": "[Unit]\nBefore=web\n[Service]\nType=Simple\n",
		"README.md":     "not a unit",
	})

	ordered, err := Prepare(dir, &TestLogger{})
	require.NoError(t, err)

	names := make([]string, len(ordered))
	for i, service := range ordered {
		names[i] = service.Unit.Name
	}
	assert.Equal(t, []string{"cache", "db", "web"}, names)
}

func TestPrepare_Errors(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		isError func(error) bool
	}{
		{
			name:    "empty directory",
			files:   map[string]string{},
			isError: errors.IsNoUnitsFoundError,
		},
		{
			name: "cycle",
			files: map[string]string{
				"a.service": "[Unit]\nAfter=b\n[Service]\nType=Simple\n",
				"b.service": "[Unit]\nAfter=a\n[Service]\nType=Simple\n",
			},
			isError: errors.IsCycleDetectedError,
		},
		{
			name: "unrecognized option",
			files: map[string]string{
				"a.service": "[Unit]\nRequires=b\n[Service]\nType=Simple\n",
			},
			isError: errors.IsUnrecognizedOptionError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Prepare(writeUnitFiles(t, tt.files), &TestLogger{})
			require.Error(t, err)
			assert.True(t, tt.isError(err), "unexpected error: %v", err)
		})
	}
}

func TestCheck(t *testing.T) {
	dir := writeUnitFiles(t, map[string]string{
		"a.service": "[Unit]\nWants=b\n[Service]\nType=Simple\n",
		"b.service": "[Unit]\n[Service]\nType=Simple\n",
		"c.service": "[Unit]\nAfter=a\n[Service]\nType=Simple\n",
	})

	order, err := Check(configFor(dir), &TestLogger{})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, order)

	invalid := configFor(dir)
	invalid.Logging.Level = "chatty"
	_, err = Check(invalid, &TestLogger{})
	assert.True(t, errors.IsValidationError(err))
}

func TestRun_LoadErrorSpawnsNothing(t *testing.T) {
	report, err := Run(context.Background(), configFor(t.TempDir()), &TestLogger{})
	assert.Nil(t, report)
	assert.True(t, errors.IsNoUnitsFoundError(err))
}

type recordingController struct {
	mu       sync.Mutex
	commands []supervisor.CommandKind
}

func (c *recordingController) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = append(c.commands, supervisor.CommandStop)
}

func (c *recordingController) Reload() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = append(c.commands, supervisor.CommandReload)
}

func (c *recordingController) recorded() []supervisor.CommandKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]supervisor.CommandKind(nil), c.commands...)
}

func TestForwardSignals_Interrupt(t *testing.T) {
	sig := make(chan os.Signal, 1)
	target := &recordingController{}
	stop := forwardSignals(sig, target, &TestLogger{})

	sig <- os.Interrupt
	assert.Eventually(t, func() bool {
		return len(target.recorded()) == 1
	}, time.Second, 5*time.Millisecond)

	stop()
	assert.Equal(t, []supervisor.CommandKind{supervisor.CommandStop}, target.recorded())
}
