package remote

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// ProcessResult is the outcome of a process that started.
type ProcessResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

func (p ProcessResult) Succeeded() bool {
	return p.ExitCode == 0
}

// Runner starts local processes. Run only returns an error when the
// process could not be launched; a non-zero exit is reported in the result.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (ProcessResult, error)
}

// ExecRunner runs processes with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (ProcessResult, error) {
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, name, args...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	err := command.Run()

	result := ProcessResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		if result.ExitCode < 0 && ctx.Err() != nil {
			// Killed because the context ended
			return result, ctx.Err()
		}
		return result, nil
	}
	if err != nil {
		return result, err
	}

	return result, nil
}
