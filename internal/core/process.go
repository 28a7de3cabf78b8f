package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/DonovanMods/instance-launcher/internal/domain"
)

// LaunchState is a step of one launch attempt
type LaunchState int

const (
	StateNotStarted LaunchState = iota
	StateRunningHooks
	StateHookFailed
	StateJavaResolving
	StateJavaMissing
	StateSpawning
	StateRunning
	StateExitedSuccess
	StateExitedFailure
	StateKilled
)

func (s LaunchState) String() string {
	switch s {
	case StateNotStarted:
		return "not started"
	case StateRunningHooks:
		return "running hooks"
	case StateHookFailed:
		return "hook failed"
	case StateJavaResolving:
		return "resolving java"
	case StateJavaMissing:
		return "java missing"
	case StateSpawning:
		return "spawning"
	case StateRunning:
		return "running"
	case StateExitedSuccess:
		return "exited"
	case StateExitedFailure:
		return "exited with failure"
	case StateKilled:
		return "killed"
	default:
		return fmt.Sprintf("LaunchState(%d)", int(s))
	}
}

// Terminal returns true if no further transition can follow
func (s LaunchState) Terminal() bool {
	switch s {
	case StateHookFailed, StateJavaMissing, StateExitedSuccess, StateExitedFailure, StateKilled:
		return true
	default:
		return false
	}
}

// StateFunc observes launch state transitions
type StateFunc func(LaunchState)

// Process supervises a running external process.
// A dedicated goroutine blocks on the OS wait; Wait and Kill observe its result.
type Process struct {
	name    string
	cmd     *exec.Cmd
	closers []io.Closer
	onState StateFunc

	done    chan struct{}
	waitErr error
	killed  atomic.Bool

	mu    sync.Mutex
	state LaunchState
}

// StartProcess starts cmd and begins supervising it. Closers are closed once
// the process has exited, e.g. the file its output goes to.
func StartProcess(name string, cmd *exec.Cmd, onState StateFunc, closers ...io.Closer) (*Process, error) {
	if err := cmd.Start(); err != nil {
		for _, c := range closers {
			c.Close()
		}
		return nil, &domain.SpawnError{Process: name, Err: err}
	}

	p := &Process{
		name:    name,
		cmd:     cmd,
		closers: closers,
		onState: onState,
		done:    make(chan struct{}),
	}
	p.setState(StateRunning)

	go p.wait()
	return p, nil
}

func (p *Process) wait() {
	err := p.cmd.Wait()
	for _, c := range p.closers {
		c.Close()
	}
	p.waitErr = err

	switch {
	case err == nil:
		p.setState(StateExitedSuccess)
	case p.killed.Load() && signalled(err):
		p.setState(StateKilled)
	default:
		p.setState(StateExitedFailure)
	}
	close(p.done)
}

// signalled reports whether the process ended by a signal rather than exiting
func signalled(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) && exitErr.ExitCode() == -1
}

func (p *Process) setState(s LaunchState) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
	if p.onState != nil {
		p.onState(s)
	}
}

// Name returns the process label used in errors
func (p *Process) Name() string {
	return p.name
}

// PID returns the operating system process id
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// State returns the current state of the process
func (p *Process) State() LaunchState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Done is closed when the process has exited
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the process exits or ctx is done.
// A zero exit code is nil; anything else is an *domain.ExitError, with code -1
// when the process ended without one (e.g. killed by a signal).
func (p *Process) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.result()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Kill terminates the process and waits for it like Wait.
// Killing a process that already exited is not an error in itself.
func (p *Process) Kill(ctx context.Context) error {
	select {
	case <-p.done:
		return p.result()
	default:
	}

	// A process that exits on its own meanwhile keeps its own outcome
	p.killed.Store(true)
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		p.killed.Store(false)
		return &domain.SpawnError{Process: p.name, Err: fmt.Errorf("killing: %w", err)}
	}
	return p.Wait(ctx)
}

func (p *Process) result() error {
	if p.waitErr == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(p.waitErr, &exitErr) {
		// ExitCode reports -1 when the process was terminated by a signal
		return &domain.ExitError{Process: p.name, Code: exitErr.ExitCode()}
	}
	return &domain.SpawnError{Process: p.name, Err: p.waitErr}
}
