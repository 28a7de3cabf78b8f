package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/DonovanMods/instance-launcher/internal/domain"
)

// Hook names, exported to hooks as ILM_HOOK
const (
	HookPreLaunch = "pre_launch"
	HookPostExit  = "post_exit"
)

// HookContext provides environment information for hook commands
type HookContext struct {
	ProfilePath string
	ProfileName string
	GameVersion string
	Loader      string
	HookName    string // e.g., "pre_launch"
}

// NewHookContext describes a profile for hooks of the given kind
func NewHookContext(p domain.Profile, hookName string) HookContext {
	return HookContext{
		ProfilePath: p.Path,
		ProfileName: p.Metadata.Name,
		GameVersion: p.Metadata.GameVersion,
		Loader:      p.Metadata.Loader.String(),
		HookName:    hookName,
	}
}

// HookResult contains the output from running a hook
type HookResult struct {
	Command  string
	Stdout   string
	Stderr   string
	ExitCode int
}

// HookRunner executes hook commands with an optional timeout and environment
type HookRunner struct {
	timeout time.Duration
}

// NewHookRunner creates a new hook runner; a zero timeout means none
func NewHookRunner(timeout time.Duration) *HookRunner {
	return &HookRunner{timeout: timeout}
}

// Run executes one hook command in the profile directory.
// The command is split on whitespace; there is no shell quoting.
func (r *HookRunner) Run(ctx context.Context, command string, hc HookContext) (*HookResult, error) {
	result := &HookResult{Command: command}

	fields := strings.Fields(command)
	if len(fields) == 0 {
		return result, fmt.Errorf("%w: empty %s hook", domain.ErrInput, hc.HookName)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	cmd.Dir = hc.ProfilePath
	cmd.WaitDelay = 100 * time.Millisecond // Allow graceful shutdown after context cancel
	cmd.Env = append(os.Environ(),
		"ILM_PROFILE_PATH="+hc.ProfilePath,
		"ILM_PROFILE_NAME="+hc.ProfileName,
		"ILM_GAME_VERSION="+hc.GameVersion,
		"ILM_LOADER="+hc.Loader,
		"ILM_HOOK="+hc.HookName,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			result.ExitCode = -1
			return result, fmt.Errorf("hook timed out after %v: %w", r.timeout, &domain.ExitError{Process: command, Code: -1})
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, &domain.ExitError{Process: command, Code: result.ExitCode}
		}
		return result, &domain.SpawnError{Process: command, Err: err}
	}

	return result, nil
}

// RunSequence runs commands strictly in order and stops at the first failure.
// Results of every command that ran are returned, including the failing one.
func (r *HookRunner) RunSequence(ctx context.Context, commands []string, hc HookContext) ([]*HookResult, error) {
	results := make([]*HookResult, 0, len(commands))
	for _, command := range commands {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := r.Run(ctx, command, hc)
		results = append(results, result)
		if err != nil {
			return results, fmt.Errorf("%s hook %q: %w", hc.HookName, command, err)
		}
	}
	return results, nil
}

// RunAll runs every command in order regardless of failures and returns the
// failures as warnings
func (r *HookRunner) RunAll(ctx context.Context, commands []string, hc HookContext) []error {
	var warnings []error
	for _, command := range commands {
		if _, err := r.Run(ctx, command, hc); err != nil {
			warnings = append(warnings, fmt.Errorf("%s hook %q: %w", hc.HookName, command, err))
		}
	}
	return warnings
}
