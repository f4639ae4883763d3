// SPDX-License-Identifier: MPL-2.0

package deps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/shell"
)

// stderrTailSize bounds the installer output kept for error messages.
const stderrTailSize = 4096

var (
	// ErrInstallFailed is the sentinel error wrapped by InstallError.
	ErrInstallFailed = errors.New("dependency installation failed")

	// ErrEmptyInstallerCommand is returned when the installer command has no fields.
	ErrEmptyInstallerCommand = errors.New("installer command is empty")

	// pipFlags keep pip quiet, non-interactive and free of bytecode.
	pipFlags = []string{"--no-input", "--disable-pip-version-check", "--no-color", "--no-compile"}
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// Installer installs requirement specifiers into a target directory.
	Installer interface {
		Install(ctx context.Context, specs []string, target string) error
	}

	// PipOption configures a PipInstaller.
	PipOption func(*PipInstaller)

	// PipInstaller runs "<command> install ... --target <dir> <specs...>".
	PipInstaller struct {
		command     []string
		env         []string
		stdout      io.Writer
		stderr      io.Writer
		execCommand ExecCommandFunc
	}

	// InstallError is returned when the installer cannot be started or exits
	// non-zero. It wraps ErrInstallFailed.
	InstallError struct {
		// Specs are the requirement specifiers that were being installed.
		Specs []string
		// ExitCode is the installer exit status, or -1 if it never ran.
		ExitCode int
		// Stderr holds the tail of the installer's error output.
		Stderr string
		// Err is the underlying exec error.
		Err error
	}
)

// NewPipInstaller parses command with shell quoting rules, e.g.
// `"/opt/my python/bin/python3" -m pip`.
func NewPipInstaller(command string, opts ...PipOption) (*PipInstaller, error) {
	fields, err := shell.Fields(command, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse installer command %q: %w", command, err)
	}
	if len(fields) == 0 {
		return nil, ErrEmptyInstallerCommand
	}

	p := &PipInstaller{
		command:     fields,
		stdout:      io.Discard,
		stderr:      io.Discard,
		execCommand: exec.CommandContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) PipOption {
	return func(p *PipInstaller) {
		p.execCommand = fn
	}
}

// WithEnv appends KEY=VALUE pairs to the installer environment.
func WithEnv(env []string) PipOption {
	return func(p *PipInstaller) {
		p.env = append(p.env, env...)
	}
}

// WithOutput forwards the installer's stdout and stderr.
func WithOutput(stdout, stderr io.Writer) PipOption {
	return func(p *PipInstaller) {
		if stdout != nil {
			p.stdout = stdout
		}
		if stderr != nil {
			p.stderr = stderr
		}
	}
}

// Command returns the parsed installer command.
func (p *PipInstaller) Command() []string {
	return slices.Clone(p.command)
}

// Args returns the arguments passed after the installer executable.
func (p *PipInstaller) Args(specs []string, target string) []string {
	args := slices.Clone(p.command[1:])
	args = append(args, "install")
	args = append(args, pipFlags...)
	args = append(args, "--target", target)
	return append(args, specs...)
}

// Install runs the installer and blocks until it exits.
func (p *PipInstaller) Install(ctx context.Context, specs []string, target string) error {
	cmd := p.execCommand(ctx, p.command[0], p.Args(specs, target)...)
	cmd.Env = append(cmd.Environ(), p.env...)
	cmd.Stdout = p.stdout

	tail := &tailBuffer{max: stderrTailSize}
	cmd.Stderr = io.MultiWriter(p.stderr, tail)

	if err := cmd.Run(); err != nil {
		installErr := &InstallError{
			Specs:    slices.Clone(specs),
			ExitCode: -1,
			Stderr:   strings.TrimSpace(tail.String()),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			installErr.ExitCode = exitErr.ExitCode()
		}
		return installErr
	}
	return nil
}

// Error implements the error interface for InstallError.
func (e *InstallError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "installing %s failed", strings.Join(e.Specs, ", "))
	if e.ExitCode >= 0 {
		fmt.Fprintf(&sb, " with exit status %d", e.ExitCode)
	} else if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	if e.Stderr != "" {
		sb.WriteString(":\n")
		sb.WriteString(e.Stderr)
	}
	return sb.String()
}

// Unwrap exposes ErrInstallFailed and the exec error.
func (e *InstallError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInstallFailed}
	}
	return []error{ErrInstallFailed, e.Err}
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	max int
	buf []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.max; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	return string(b.buf)
}
