package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"dreampipe/internal/logging"
)

// ErrScriptNotFound indicates the conversion executable is absent; the
// invoker refuses to run without it.
var ErrScriptNotFound = errors.New("conversion script not found")

// Result captures one conversion script invocation. TimedOut and a
// non-zero ExitCode are distinct failure modes.
type Result struct {
	ExitCode int
	TimedOut bool
	Stdout   string
	Stderr   string
}

// Success reports whether the script ran to completion with exit code 0
func (r *Result) Success() bool {
	return !r.TimedOut && r.ExitCode == 0
}

// Service runs the external model conversion script. Failures are always
// reported as a Result or error to the caller, never fatal to the
// pipeline run.
type Service struct {
	scriptPath string
	timeout    time.Duration
	log        logging.Logger
}

// NewService creates a converter for the given script path with a hard
// wall-clock timeout per invocation
func NewService(scriptPath string, timeout time.Duration, log logging.Logger) *Service {
	return &Service{
		scriptPath: scriptPath,
		timeout:    timeout,
		log:        log,
	}
}

// Invoke runs the conversion script with MODEL_URL and NAME exported in
// its environment, capturing output and exit status. A missing script
// fails immediately with ErrScriptNotFound.
func (s *Service) Invoke(ctx context.Context, modelURL, name string) (*Result, error) {
	if _, err := os.Stat(s.scriptPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrScriptNotFound, s.scriptPath)
		}
		return nil, fmt.Errorf("failed to stat conversion script: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, s.scriptPath)
	cmd.Dir = filepath.Dir(s.scriptPath)
	cmd.Env = append(os.Environ(),
		"MODEL_URL="+modelURL,
		"NAME="+name,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	s.log.Logf("Running %s with MODEL_URL=%s...", filepath.Base(s.scriptPath), truncate(modelURL, 50))

	err := cmd.Run()

	result := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if runCtx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		result.ExitCode = -1
		return result, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, fmt.Errorf("failed to run conversion script: %w", err)
	}

	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
