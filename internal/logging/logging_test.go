package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLogger(t *testing.T) {
	t.Run("Should write timestamped lines to file and mirror to output", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "pipeline.log")
		var out bytes.Buffer

		logger, err := NewFileLogger(logPath, &out)
		require.NoError(t, err)
		defer logger.Close()

		logger.Logf("Task submitted successfully: %s", "task-123")

		data, err := os.ReadFile(logPath)
		require.NoError(t, err)

		linePattern := regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] Task submitted successfully: task-123\n$`)
		assert.Regexp(t, linePattern, string(data))
		assert.Equal(t, string(data), out.String(), "File and output should receive identical lines")
	})

	t.Run("Should append to an existing log file", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "pipeline.log")

		logger, err := NewFileLogger(logPath, &bytes.Buffer{})
		require.NoError(t, err)
		logger.Logf("first")
		require.NoError(t, logger.Close())

		logger, err = NewFileLogger(logPath, &bytes.Buffer{})
		require.NoError(t, err)
		logger.Logf("second")
		require.NoError(t, logger.Close())

		data, err := os.ReadFile(logPath)
		require.NoError(t, err)
		assert.Contains(t, string(data), "first")
		assert.Contains(t, string(data), "second")
	})

	t.Run("Should create missing parent directories", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "tools", "nested", "pipeline.log")

		logger, err := NewFileLogger(logPath, &bytes.Buffer{})
		require.NoError(t, err)
		defer logger.Close()

		_, err = os.Stat(logPath)
		assert.NoError(t, err)
	})
}

func TestCapture(t *testing.T) {
	t.Run("Should record formatted lines", func(t *testing.T) {
		capture := &Capture{}

		capture.Logf("attempt %d/%d", 1, 3)
		capture.Logf("done")

		assert.Len(t, capture.Lines, 2)
		assert.Equal(t, "attempt 1/3", capture.Lines[0])
		assert.True(t, capture.Contains("done"))
		assert.False(t, capture.Contains("missing"))
	})
}
