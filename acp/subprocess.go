package acp

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// Subprocess spawns an agent (or client) binary and exposes its
// stdin/stdout as a duplex stream, for the common case where a client
// launches an agent as a child process (spec §4.6). It is not part of
// the protocol core proper — connections work over any io.Reader/
// io.Writer pair — but every real deployment needs this wiring, so it
// ships alongside it.
type Subprocess struct {
	cmd    *exec.Cmd
	Stdin  io.WriteCloser
	Stdout io.ReadCloser
}

// SpawnSubprocess starts command with args, wiring its stdin/stdout as
// pipes. The subprocess's stderr is left attached to this process's own
// stderr so a misbehaving peer's diagnostics aren't silently dropped.
func SpawnSubprocess(ctx context.Context, command string, args ...string) (*Subprocess, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("acp: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("acp: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("acp: start %s: %w", command, err)
	}

	return &Subprocess{cmd: cmd, Stdin: stdin, Stdout: stdout}, nil
}

// Wait blocks until the subprocess exits.
func (s *Subprocess) Wait() error {
	return s.cmd.Wait()
}

// Close closes the subprocess's stdin, signalling EOF, then gives it
// grace to exit before escalating to Kill.
func (s *Subprocess) Close(grace time.Duration) error {
	if err := s.Stdin.Close(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- s.cmd.Wait() }()

	select {
	case err := <-done:
		return err
	case <-time.After(grace):
		if err := s.cmd.Process.Kill(); err != nil {
			return fmt.Errorf("acp: kill subprocess after grace period: %w", err)
		}
		return <-done
	}
}
