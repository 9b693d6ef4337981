package sandbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shruti-bhere/ai-learning-platform/internal/models"
)

// shellCommands may be run with arbitrary (path-safe) arguments.
var shellCommands = map[string]bool{
	"ls":     true,
	"pwd":    true,
	"echo":   true,
	"date":   true,
	"whoami": true,
	"uname":  true,
	"cat":    true,
}

// toolCommands may only be asked for their version.
var toolCommands = map[string]string{
	"python3": "python3",
	"python":  "python3",
	"node":    "node",
	"java":    "java",
	"javac":   "javac",
	"g++":     "g++",
}

var versionFlags = map[string]bool{
	"--version": true,
	"-version":  true,
	"-v":        true,
	"-V":        true,
}

const shellMetachars = ";&|`$<>(){}\\\n\r*?!~"

func allowedCommands() []string {
	names := []string{"help", "clear"}
	for name := range shellCommands {
		names = append(names, name)
	}
	for name := range toolCommands {
		names = append(names, name+" --version")
	}
	sort.Strings(names)
	return names
}

func notAllowed(format string, args ...any) models.ExecResult {
	return models.ExecResult{
		Success:   false,
		Error:     fmt.Sprintf(format, args...),
		ErrorType: models.ExecErrorNotAllowed,
		ExitCode:  127,
	}
}

// ParseTerminalCommand checks line against the allow-list and returns the
// program and arguments to run. ok is false with a user-facing reason
// otherwise. help and clear come back with an empty program.
func ParseTerminalCommand(line string) (program string, args []string, reason string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil, "Empty command", false
	}
	if strings.ContainsAny(line, shellMetachars) {
		return "", nil, "Command not allowed: shell operators are not supported", false
	}

	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]

	switch {
	case name == "help" || name == "clear":
		return "", nil, "", true
	case shellCommands[name]:
		for _, a := range args {
			if filepath.IsAbs(a) || strings.Contains(a, "..") {
				return "", nil, fmt.Sprintf("Command not allowed: %s may only touch the workspace", name), false
			}
		}
		return name, args, "", true
	case toolCommands[name] != "":
		if len(args) != 1 || !versionFlags[args[0]] {
			return "", nil, fmt.Sprintf("Command not allowed: only '%s --version' is permitted", name), false
		}
		flag := args[0]
		if toolCommands[name] == "java" || toolCommands[name] == "javac" {
			flag = "-version"
		}
		return toolCommands[name], []string{flag}, "", true
	default:
		return "", nil, fmt.Sprintf("Command not allowed: %s", name), false
	}
}

// Terminal runs one allow-listed command inside the sandbox workspace with
// the terminal timeout.
func (r *Runner) Terminal(ctx context.Context, line string) (models.ExecResult, error) {
	program, args, reason, ok := ParseTerminalCommand(line)
	if !ok {
		return notAllowed("%s", reason), nil
	}

	switch strings.Fields(line)[0] {
	case "help":
		return models.ExecResult{
			Success: true,
			Output:  "Available commands: " + strings.Join(allowedCommands(), ", ") + "\n",
		}, nil
	case "clear":
		return models.ExecResult{Success: true}, nil
	}

	if err := r.acquire(ctx); err != nil {
		return models.ExecResult{Success: false, Error: "Command cancelled", ErrorType: models.ExecErrorInternal, ExitCode: -1}, nil
	}
	defer r.release()

	dir := filepath.Join(r.cfg.WorkDir, "terminal")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return internalFailure(fmt.Errorf("create terminal dir: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.TerminalTimeout)
	defer cancel()

	out, err := r.run(ctx, dir, "", program, args...)
	if err != nil {
		return internalFailure(err)
	}
	if out.timedOut {
		return timeoutResult(out, r.cfg.TerminalTimeout), nil
	}

	// Tools like java print their version on stderr.
	combined := out.stdout + out.stderr
	if out.exitCode != 0 {
		return models.ExecResult{
			Success:   false,
			Output:    out.stdout,
			Error:     diagnostics(out),
			ErrorType: models.ExecErrorRuntime,
			ExitCode:  out.exitCode,
		}, nil
	}
	return models.ExecResult{Success: true, Output: combined}, nil
}
