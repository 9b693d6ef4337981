package sandbox

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/shruti-bhere/ai-learning-platform/internal/models"
)

// waitDelay bounds how long Wait lingers on open pipes after the child is killed.
const waitDelay = 2 * time.Second

type Config struct {
	WorkDir         string
	Timeout         time.Duration
	TerminalTimeout time.Duration
	MaxConcurrent   int
}

// Runner executes snippets. At most Config.MaxConcurrent children run at a
// time; further callers queue until a slot frees or their context ends.
type Runner struct {
	cfg   Config
	slots chan struct{}
}

func NewRunner(cfg Config) *Runner {
	if cfg.WorkDir == "" {
		cfg.WorkDir = os.TempDir()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.TerminalTimeout <= 0 {
		cfg.TerminalTimeout = 5 * time.Second
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}

	return &Runner{
		cfg:   cfg,
		slots: make(chan struct{}, cfg.MaxConcurrent),
	}
}

func (r *Runner) acquire(ctx context.Context) error {
	select {
	case r.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) release() {
	<-r.slots
}

// Execute runs req and always describes the outcome in the returned result.
// The error is non-nil only when the run could not be set up at all (no
// temp space, toolchain missing); the result then carries the same message.
func (r *Runner) Execute(ctx context.Context, req models.ExecRequest) (models.ExecResult, error) {
	start := time.Now()

	lang, ok := Lookup(req.Language)
	if !ok {
		return models.ExecResult{
			Success:   false,
			Error:     fmt.Sprintf("Unsupported language: %s", req.Language),
			ErrorType: models.ExecErrorUnsupported,
			ExitCode:  -1,
		}, nil
	}

	if err := r.acquire(ctx); err != nil {
		return models.ExecResult{
			Success:   false,
			Error:     "Execution cancelled before it started",
			ErrorType: models.ExecErrorInternal,
			ExitCode:  -1,
		}, nil
	}
	defer r.release()

	res, err := r.execute(ctx, lang, req)
	res.DurationMs = time.Since(start).Milliseconds()
	return res, err
}

func (r *Runner) execute(ctx context.Context, lang Language, req models.ExecRequest) (models.ExecResult, error) {
	id, err := uniqueID()
	if err != nil {
		return internalFailure(err)
	}

	dir, err := os.MkdirTemp(r.cfg.WorkDir, "exec_"+id+"_")
	if err != nil {
		return internalFailure(fmt.Errorf("create work dir: %w", err))
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Printf("sandbox: cleanup of %s failed: %v", dir, err)
		}
	}()

	className := "Main_" + id
	fileName := "code_" + id + lang.Extension
	code := req.Code
	if lang.Name == Java {
		fileName = className + lang.Extension
		code = RewriteJava(code, className)
	}

	srcPath := filepath.Join(dir, fileName)
	if err := os.WriteFile(srcPath, []byte(code), 0o600); err != nil {
		return internalFailure(fmt.Errorf("write source: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	run := func(stdin, name string, args ...string) (procOutput, error) {
		out, err := r.run(ctx, dir, stdin, name, args...)
		out.stderr = hideWorkDir(out.stderr, dir)
		return out, err
	}

	var runArgs []string
	switch lang.Name {
	case Python:
		runArgs = []string{"python3", srcPath}
	case JavaScript:
		runArgs = []string{"node", srcPath}
	case Java:
		out, err := run("", "javac", "-d", dir, srcPath)
		if res, done, err := compileOutcome(out, err, r.cfg.Timeout); done {
			return res, err
		}
		runArgs = []string{"java", "-cp", dir, className}
	case Cpp:
		binary := filepath.Join(dir, "prog_"+id)
		out, err := run("", "g++", "-O2", "-o", binary, srcPath)
		if res, done, err := compileOutcome(out, err, r.cfg.Timeout); done {
			return res, err
		}
		runArgs = []string{binary}
	}

	out, err := run(req.Stdin, runArgs[0], runArgs[1:]...)
	return runOutcome(out, err, r.cfg.Timeout)
}

type procOutput struct {
	stdout   string
	stderr   string
	exitCode int
	timedOut bool
}

var errSpawn = errors.New("sandbox: could not start process")

// run executes one child process to completion. It returns errSpawn
// (wrapped) when the process never started.
func (r *Runner) run(ctx context.Context, dir, stdin, name string, args ...string) (procOutput, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = append(os.Environ(), "PYTHONDONTWRITEBYTECODE=1", "PYTHONUNBUFFERED=1")
	cmd.WaitDelay = waitDelay
	configureProcess(cmd)

	stdout := newCappedBuffer(maxOutputBytes)
	stderr := newCappedBuffer(maxOutputBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return procOutput{exitCode: -1}, fmt.Errorf("%w: %s: %v", errSpawn, name, err)
	}

	err := cmd.Wait()
	out := procOutput{
		stdout:   stdout.String(),
		stderr:   stderr.String(),
		exitCode: cmd.ProcessState.ExitCode(),
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		out.timedOut = true
		out.exitCode = -1
		return out, nil
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		out.exitCode = -1
		out.stderr = strings.TrimSpace(out.stderr + "\nExecution cancelled")
		return out, nil
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) && !errors.Is(err, exec.ErrWaitDelay) {
		return out, err
	}
	return out, nil
}

// compileOutcome reports whether the compile step already decided the result.
func compileOutcome(out procOutput, err error, timeout time.Duration) (models.ExecResult, bool, error) {
	if err != nil {
		res, ferr := internalFailure(err)
		return res, true, ferr
	}
	if out.timedOut {
		return timeoutResult(out, timeout), true, nil
	}
	if out.exitCode != 0 {
		return models.ExecResult{
			Success:   false,
			Output:    out.stdout,
			Error:     diagnostics(out),
			ErrorType: models.ExecErrorCompile,
			ExitCode:  out.exitCode,
		}, true, nil
	}
	return models.ExecResult{}, false, nil
}

func runOutcome(out procOutput, err error, timeout time.Duration) (models.ExecResult, error) {
	if err != nil {
		return internalFailure(err)
	}
	if out.timedOut {
		return timeoutResult(out, timeout), nil
	}
	if out.exitCode != 0 {
		diag := diagnostics(out)
		return models.ExecResult{
			Success:   false,
			Output:    out.stdout,
			Error:     diag,
			ErrorType: Classify(diag),
			ExitCode:  out.exitCode,
		}, nil
	}
	return models.ExecResult{
		Success:  true,
		Output:   out.stdout,
		Error:    out.stderr,
		ExitCode: 0,
	}, nil
}

func timeoutResult(out procOutput, timeout time.Duration) models.ExecResult {
	return models.ExecResult{
		Success:   false,
		Output:    out.stdout,
		Error:     fmt.Sprintf("Execution timed out after %s", timeout),
		ErrorType: models.ExecErrorTimeout,
		ExitCode:  -1,
	}
}

func internalFailure(err error) (models.ExecResult, error) {
	return models.ExecResult{
		Success:   false,
		Error:     err.Error(),
		ErrorType: models.ExecErrorInternal,
		ExitCode:  -1,
	}, err
}

// hideWorkDir strips the per-run directory from s so paths in tracebacks
// and compiler messages read as bare file names.
func hideWorkDir(s, dir string) string {
	if dir == "" {
		return s
	}
	s = strings.ReplaceAll(s, dir+string(filepath.Separator), "")
	return strings.ReplaceAll(s, dir, ".")
}

func diagnostics(out procOutput) string {
	if d := strings.TrimSpace(out.stderr); d != "" {
		return d
	}
	if d := strings.TrimSpace(out.stdout); d != "" {
		return d
	}
	return fmt.Sprintf("Process exited with code %d", out.exitCode)
}

var compileMarkers = []string{
	"error:",
	"SyntaxError",
	"IndentationError",
	"TabError",
	"cannot find symbol",
	"compilation terminated",
}

// Classify tells a compile-time failure from a runtime one by the
// diagnostics it printed.
func Classify(diag string) string {
	for _, marker := range compileMarkers {
		if strings.Contains(diag, marker) {
			return models.ExecErrorCompile
		}
	}
	return models.ExecErrorRuntime
}

func uniqueID() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d_%s", time.Now().UnixNano(), hex.EncodeToString(b)), nil
}
