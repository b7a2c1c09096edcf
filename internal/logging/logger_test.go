package logging

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel(" warning "))
	assert.Equal(t, INFO, ParseLevel("что-то"))
}

func TestWriterLogger_Threshold(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("test", &buf, WARN)

	logger.Info("скрыто")
	logger.Warn("видно %d", 1)

	assert.NotContains(t, buf.String(), "скрыто")
	assert.Contains(t, buf.String(), "[WARN] [test] видно 1")
}

func TestLoggerManager_ComponentFiles(t *testing.T) {
	dir := t.TempDir()
	old := LogDir
	LogDir = dir
	defer func() { LogDir = old }()

	lm := &LoggerManager{loggers: make(map[string]*Logger), consoleLevel: ERROR}
	a, err := lm.GetLogger("rebuild")
	require.NoError(t, err)
	b, err := lm.GetLogger("rebuild")
	require.NoError(t, err)
	assert.Same(t, a, b, "логгер компонента должен переиспользоваться")

	a.Debug("фаза сменилась")
	assert.Equal(t, []string{"rebuild"}, lm.ListComponents())
	require.NoError(t, lm.CloseAll())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
