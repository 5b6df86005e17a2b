// Package runner executes the binaries under test with a wall-clock budget.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrProcess is matched by every *ProcessError.
var ErrProcess = errors.New("process failure")

// Kind classifies a ProcessError.
type Kind string

const (
	KindTimeout Kind = "timeout"
	KindStderr  Kind = "stderr"
	KindExit    Kind = "exit"
	KindStart   Kind = "start"
)

// ProcessError is a failed invocation. Result holds whatever was captured before the failure.
type ProcessError struct {
	Binary string
	Kind   Kind
	Result Result
	Err    error
}

func (e *ProcessError) Error() string {
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("%s: timed out after %s", e.Binary, e.Result.Duration.Round(time.Millisecond))
	case KindStderr:
		return fmt.Sprintf("%s: wrote to stderr: %s", e.Binary, strings.TrimSpace(e.Result.Stderr))
	case KindExit:
		return fmt.Sprintf("%s: exit status %d", e.Binary, e.Result.ExitCode)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Binary, e.Kind, e.Err)
	}
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrProcess) hold.
func (e *ProcessError) Is(target error) bool {
	return target == ErrProcess
}

// Result is the captured outcome of one invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Executable runs a program on input and returns its output. Implementations report failures
// as *ProcessError.
type Executable interface {
	Run(ctx context.Context, input string, timeout time.Duration) (Result, error)
}

// Func adapts a plain function to Executable.
type Func func(ctx context.Context, input string, timeout time.Duration) (Result, error)

// Run calls f.
func (f Func) Run(ctx context.Context, input string, timeout time.Duration) (Result, error) {
	return f(ctx, input, timeout)
}

// Process runs a binary on disk.
type Process struct {
	Path string
	Args []string
	// Name labels errors and metrics; defaults to Path.
	Name string
}

// NewProcess returns a Process for path.
func NewProcess(name, path string, args ...string) *Process {
	return &Process{Path: path, Args: args, Name: name}
}

func (p *Process) name() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Path
}

// Run feeds input on stdin and waits at most timeout. The process is killed when the budget
// runs out. Non-empty stderr is a failure regardless of the exit status.
func (p *Process) Run(ctx context.Context, input string, timeout time.Duration) (Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, p.Path, p.Args...)
	cmd.Stdin = strings.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// children that inherit the pipes must not keep Wait blocked after the kill
	cmd.WaitDelay = 100 * time.Millisecond

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	fail := func(kind Kind, cause error) (Result, error) {
		return res, &ProcessError{Binary: p.name(), Kind: kind, Result: res, Err: cause}
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fail(KindTimeout, runCtx.Err())
	}
	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) && !errors.Is(err, exec.ErrWaitDelay) {
			return fail(KindStart, err)
		}
	}
	if res.Stderr != "" {
		return fail(KindStderr, err)
	}
	if res.ExitCode != 0 {
		return fail(KindExit, err)
	}
	return res, nil
}
