package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/DonovanMods/instance-launcher/internal/domain"
)

// SettingsProvider supplies the current global settings
type SettingsProvider interface {
	Get(ctx context.Context) (domain.Settings, error)
}

// VersionResolver looks up launch information for a game version.
// Unknown versions yield an error wrapping domain.ErrVersionNotFound.
type VersionResolver interface {
	Resolve(ctx context.Context, id string) (*domain.VersionInfo, error)
}

// ProcessSpawner starts the game process described by a LaunchSpec
type ProcessSpawner interface {
	Spawn(ctx context.Context, spec LaunchSpec) (*Process, error)
}

// LaunchSpec is everything needed to start the game for one profile
type LaunchSpec struct {
	ID          string
	Profile     domain.Profile
	Version     *domain.VersionInfo
	Java        string
	JavaArgs    []string
	Wrapper     string
	Memory      domain.MemorySettings
	Resolution  domain.WindowSize
	Credentials domain.Credentials
	OnState     StateFunc
}

// RunOption configures a single launch
type RunOption func(*runOptions)

type runOptions struct {
	id        string
	onState   StateFunc
	skipHooks bool
}

// WithLaunchID tags the launch, e.g. for naming its log file
func WithLaunchID(id string) RunOption {
	return func(o *runOptions) { o.id = id }
}

// WithStateFunc observes every state transition of the launch
func WithStateFunc(fn StateFunc) RunOption {
	return func(o *runOptions) { o.onState = fn }
}

// WithoutHooks skips pre-launch hooks
func WithoutHooks() RunOption {
	return func(o *runOptions) { o.skipHooks = true }
}

// Launcher runs the launch pipeline for profiles
type Launcher struct {
	settings SettingsProvider
	versions VersionResolver
	spawner  ProcessSpawner
	logger   *slog.Logger
}

// NewLauncher creates a launcher. A nil logger uses slog.Default().
func NewLauncher(settings SettingsProvider, versions VersionResolver, spawner ProcessSpawner, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{settings: settings, versions: versions, spawner: spawner, logger: logger}
}

// Run launches the game for a profile and returns the live process.
// Pre-launch hooks run strictly in order; the first failing hook stops the
// launch and nothing after it runs.
func (l *Launcher) Run(ctx context.Context, p domain.Profile, creds domain.Credentials, opts ...RunOption) (*Process, error) {
	spec, err := l.Prepare(ctx, p, creds, opts...)
	if err != nil {
		return nil, err
	}
	return l.Spawn(ctx, spec)
}

// Spawn starts a prepared launch
func (l *Launcher) Spawn(ctx context.Context, spec LaunchSpec) (*Process, error) {
	notify(spec.OnState, StateSpawning)
	proc, err := l.spawner.Spawn(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("launching %s: %w", spec.Profile.Metadata.Name, err)
	}
	l.logger.Info("game started", "profile", spec.Profile.Path, "pid", proc.PID(), "java", spec.Java)
	return proc, nil
}

// Prepare runs every launch step short of spawning the game: it resolves the
// version and settings, runs pre-launch hooks and selects the java runtime.
func (l *Launcher) Prepare(ctx context.Context, p domain.Profile, creds domain.Credentials, opts ...RunOption) (LaunchSpec, error) {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}
	notify(o.onState, StateNotStarted)

	var settings domain.Settings
	var version *domain.VersionInfo
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		settings, err = l.settings.Get(gctx)
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		version, err = l.versions.Resolve(gctx, p.Metadata.GameVersion)
		if err != nil {
			return fmt.Errorf("resolving version %s: %w", p.Metadata.GameVersion, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return LaunchSpec{}, err
	}

	eff := Resolve(p, settings)

	notify(o.onState, StateRunningHooks)
	if !o.skipHooks && len(eff.Hooks.PreLaunch) > 0 {
		runner := NewHookRunner(time.Duration(settings.HookTimeout) * time.Second)
		results, err := runner.RunSequence(ctx, eff.Hooks.PreLaunch, NewHookContext(p, HookPreLaunch))
		for _, r := range results {
			l.logger.Debug("pre-launch hook finished", "command", r.Command, "exit_code", r.ExitCode, "stdout", r.Stdout, "stderr", r.Stderr)
		}
		if err != nil {
			notify(o.onState, StateHookFailed)
			return LaunchSpec{}, err
		}
	}

	notify(o.onState, StateJavaResolving)
	java, err := SelectJava(eff.JavaInstall, version, settings)
	if err != nil {
		notify(o.onState, StateJavaMissing)
		return LaunchSpec{}, err
	}

	return LaunchSpec{
		ID:          o.id,
		Profile:     p,
		Version:     version,
		Java:        java,
		JavaArgs:    eff.JavaArgs,
		Wrapper:     eff.Hooks.Wrapper,
		Memory:      eff.Memory,
		Resolution:  eff.Resolution,
		Credentials: creds,
		OnState:     o.onState,
	}, nil
}

// RunPostExit runs the effective post-exit hooks of a profile in order.
// Failures do not stop later hooks and are returned as warnings.
func (l *Launcher) RunPostExit(ctx context.Context, p domain.Profile) []error {
	settings, err := l.settings.Get(ctx)
	if err != nil {
		return []error{fmt.Errorf("loading settings: %w", err)}
	}

	hooks := ResolveHooks(p, settings)
	if len(hooks.PostExit) == 0 {
		return nil
	}

	runner := NewHookRunner(time.Duration(settings.HookTimeout) * time.Second)
	warnings := runner.RunAll(ctx, hooks.PostExit, NewHookContext(p, HookPostExit))
	for _, w := range warnings {
		l.logger.Warn("post-exit hook failed", "profile", p.Path, "error", w)
	}
	return warnings
}

// SelectJava picks the runtime for a launch. A profile override wins;
// otherwise versions needing java 16 or newer use the java 17 runtime and
// older ones use the java 8 runtime. The chosen path must exist.
func SelectJava(override string, version *domain.VersionInfo, settings domain.Settings) (string, error) {
	java := override
	if java == "" {
		if version.RequiredJavaMajor() >= domain.JavaTierThreshold {
			java = settings.Java17Path
		} else {
			java = settings.Java8Path
		}
	}

	if java == "" {
		return "", fmt.Errorf("%w: no runtime configured for java %d", domain.ErrJavaNotFound, version.RequiredJavaMajor())
	}
	info, err := os.Stat(java)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", domain.ErrJavaNotFound, java)
	}
	return java, nil
}

func notify(fn StateFunc, s LaunchState) {
	if fn != nil {
		fn(s)
	}
}
