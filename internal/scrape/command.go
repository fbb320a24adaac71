package scrape

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Command is a subprocess invocation.
type Command struct {
	Dir  string
	Name string
	Args []string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result holds a finished subprocess's captured output.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// CommandRunner runs subprocesses. ExecRunner is the real one.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner runs commands with os/exec and blocks until they exit.
type ExecRunner struct{}

// Run returns an error only when the process could not be started or was
// killed; a nonzero exit is reported through Result.ExitCode.
func (ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && ctx.Err() == nil {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("run %s: %w", c, err)
	}
	return res, nil
}
