// Package executor runs the system under test and the reference
// implementation.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Executor runs one invocation with the given argument set. It returns nil
// once the invocation has written its result.
type Executor interface {
	Execute(ctx context.Context, args []string) error
}

// Func adapts a function to Executor.
type Func func(ctx context.Context, args []string) error

// Execute implements Executor.
func (f Func) Execute(ctx context.Context, args []string) error {
	return f(ctx, args)
}

// ExitError reports a failed invocation with its captured output.
type ExitError struct {
	Executor string
	Argv     []string
	Output   string
	Err      error
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Output)
	if msg != "" {
		return fmt.Sprintf("%s: run %q failed: %v: %s", e.Executor, e.Argv, e.Err, msg)
	}
	return fmt.Sprintf("%s: run %q failed: %v", e.Executor, e.Argv, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Command runs an external program. The argument set is appended to Argv,
// so Argv carries the program and any fixed leading arguments, e.g.
// ["Rscript", "arima_css.R"].
type Command struct {
	// Name labels the executor in errors and logs.
	Name string

	Argv []string

	// Env is merged over the current environment.
	Env map[string]string

	// Dir is the working directory; empty means the current one.
	Dir string

	Logger *zap.Logger
}

// Execute implements Executor.
func (c Command) Execute(ctx context.Context, args []string) error {
	if len(c.Argv) == 0 {
		return fmt.Errorf("%s: empty argv", c.Name)
	}
	argv := make([]string, 0, len(c.Argv)+len(args))
	argv = append(argv, c.Argv...)
	argv = append(argv, args...)

	// #nosec G204 -- argv comes from the harness configuration.
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = c.Dir
	if len(c.Env) != 0 {
		keys := make([]string, 0, len(c.Env))
		for k := range c.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		merged := cmd.Environ()
		for _, k := range keys {
			merged = append(merged, fmt.Sprintf("%s=%s", k, c.Env[k]))
		}
		cmd.Env = merged
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log.Debug("exec", zap.String("executor", c.Name), zap.Strings("argv", argv))

	if err := cmd.Run(); err != nil {
		return &ExitError{Executor: c.Name, Argv: argv, Output: out.String(), Err: err}
	}
	if out.Len() > 0 {
		log.Debug("exec output", zap.String("executor", c.Name), zap.String("output", out.String()))
	}
	return nil
}
