package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Logger is the minimal line-logging capability passed into pipeline
// components. Implementations must be safe for sequential use from a
// single pipeline run.
type Logger interface {
	Logf(format string, args ...interface{})
}

// FileLogger appends timestamped lines to a log file and mirrors them to
// an output writer (normally stdout), matching the pipeline log format
// "[YYYY-MM-DD HH:MM:SS] message".
type FileLogger struct {
	mu   sync.Mutex
	file *os.File
	out  io.Writer
}

// NewFileLogger opens (or creates) the log file in append mode, creating
// the parent directory if needed.
func NewFileLogger(path string, out io.Writer) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	if out == nil {
		out = os.Stdout
	}

	return &FileLogger{file: file, out: out}, nil
}

// Logf writes one timestamped line to the log file and the output writer
func (l *FileLogger) Logf(format string, args ...interface{}) {
	line := fmt.Sprintf("[%s] %s\n", time.Now().Format("2006-01-02 15:04:05"), fmt.Sprintf(format, args...))

	l.mu.Lock()
	defer l.mu.Unlock()

	l.file.WriteString(line)
	fmt.Fprint(l.out, line)
}

// Close closes the underlying log file
func (l *FileLogger) Close() error {
	return l.file.Close()
}

// Discard is a Logger that drops all lines. Useful in tests.
var Discard Logger = discardLogger{}

type discardLogger struct{}

func (discardLogger) Logf(format string, args ...interface{}) {}

// Capture is a Logger that records formatted lines in memory for test
// assertions.
type Capture struct {
	mu    sync.Mutex
	Lines []string
}

// Logf records the formatted message
func (c *Capture) Logf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Lines = append(c.Lines, fmt.Sprintf(format, args...))
}

// Contains reports whether any recorded line contains the substring
func (c *Capture) Contains(substr string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, line := range c.Lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}
