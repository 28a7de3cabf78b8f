package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/DonovanMods/instance-launcher/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSettings struct {
	settings domain.Settings
}

func (s staticSettings) Get(context.Context) (domain.Settings, error) {
	return s.settings, nil
}

type mapVersions map[string]*domain.VersionInfo

func (m mapVersions) Resolve(_ context.Context, id string) (*domain.VersionInfo, error) {
	v, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrVersionNotFound, id)
	}
	return v, nil
}

// recordingSpawner records specs and runs a trivial process in their place
type recordingSpawner struct {
	mu    sync.Mutex
	specs []LaunchSpec
}

func (s *recordingSpawner) Spawn(_ context.Context, spec LaunchSpec) (*Process, error) {
	s.mu.Lock()
	s.specs = append(s.specs, spec)
	s.mu.Unlock()
	return StartProcess(GameProcessName, exec.Command("sh", "-c", "exit 0"), spec.OnState)
}

func (s *recordingSpawner) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.specs)
}

type launcherFixture struct {
	settings domain.Settings
	java8    string
	java17   string
	spawner  *recordingSpawner
	profile  domain.Profile
}

func newLauncherFixture(t *testing.T) *launcherFixture {
	t.Helper()
	javaDir := t.TempDir()
	java8 := filepath.Join(javaDir, "java8")
	java17 := filepath.Join(javaDir, "java17")
	require.NoError(t, os.WriteFile(java8, nil, 0755))
	require.NoError(t, os.WriteFile(java17, nil, 0755))

	settings := domain.DefaultSettings()
	settings.Java8Path = java8
	settings.Java17Path = java17

	p, err := domain.NewProfile("Pack", "1.18.2", t.TempDir())
	require.NoError(t, err)

	return &launcherFixture{
		settings: settings,
		java8:    java8,
		java17:   java17,
		spawner:  &recordingSpawner{},
		profile:  *p,
	}
}

func (f *launcherFixture) launcher() *Launcher {
	versions := mapVersions{
		"1.12.2": {ID: "1.12.2", MainClass: "net.minecraft.launchwrapper.Launch"},
		"1.16.5": {ID: "1.16.5", JavaVersion: &domain.JavaVersion{Component: "jre-legacy", MajorVersion: 8}},
		"1.17.1": {ID: "1.17.1", JavaVersion: &domain.JavaVersion{Component: "java-runtime-alpha", MajorVersion: 16}},
		"1.18.2": {ID: "1.18.2", JavaVersion: &domain.JavaVersion{Component: "java-runtime-gamma", MajorVersion: 17}, MainClass: "net.minecraft.client.main.Main"},
	}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return NewLauncher(staticSettings{f.settings}, versions, f.spawner, logger)
}

func TestLauncher_JavaTier(t *testing.T) {
	tests := []struct {
		version string
		want    string
	}{
		{"1.12.2", "java8"},  // no requirement declared
		{"1.16.5", "java8"},  // major 8
		{"1.17.1", "java17"}, // major 16 is the threshold
		{"1.18.2", "java17"},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			f := newLauncherFixture(t)
			f.profile.SetGameVersion(tt.version)

			proc, err := f.launcher().Run(context.Background(), f.profile, domain.Credentials{Username: "Steve"})
			require.NoError(t, err)
			require.NoError(t, proc.Wait(context.Background()))

			require.Equal(t, 1, f.spawner.calls())
			assert.Equal(t, tt.want, filepath.Base(f.spawner.specs[0].Java))
		})
	}
}

func TestLauncher_JavaOverrideWins(t *testing.T) {
	f := newLauncherFixture(t)
	override := filepath.Join(t.TempDir(), "custom-java")
	require.NoError(t, os.WriteFile(override, nil, 0755))
	f.profile.SetJava(&domain.JavaSettings{Install: override})

	spec, err := f.launcher().Prepare(context.Background(), f.profile, domain.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, override, spec.Java)
}

func TestLauncher_JavaMissing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, f *launcherFixture)
	}{
		{"tier unset", func(_ *testing.T, f *launcherFixture) { f.settings.Java17Path = "" }},
		{"tier path missing on disk", func(t *testing.T, f *launcherFixture) { require.NoError(t, os.Remove(f.java17)) }},
		{"override missing on disk", func(_ *testing.T, f *launcherFixture) {
			f.profile.SetJava(&domain.JavaSettings{Install: "/nonexistent/java"})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLauncherFixture(t)
			tt.mutate(t, f)
			rec := &stateRecorder{}

			_, err := f.launcher().Run(context.Background(), f.profile, domain.Credentials{}, WithStateFunc(rec.record))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrJavaNotFound))
			assert.Equal(t, 0, f.spawner.calls())
			assert.Equal(t, StateJavaMissing, rec.all()[len(rec.all())-1])
		})
	}
}

func TestLauncher_VersionNotFound(t *testing.T) {
	f := newLauncherFixture(t)
	marker := filepath.Join(t.TempDir(), "marker")
	f.settings.Hooks.PreLaunch = []string{writeScript(t, t.TempDir(), "hook.sh", "touch "+marker+"\n")}
	f.profile.SetGameVersion("0.0.1")

	_, err := f.launcher().Run(context.Background(), f.profile, domain.Credentials{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrVersionNotFound))
	assert.Equal(t, 0, f.spawner.calls())

	// Hooks never ran
	_, statErr := os.Stat(marker)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLauncher_HookAbort(t *testing.T) {
	f := newLauncherFixture(t)
	scripts := t.TempDir()
	marker := filepath.Join(scripts, "marker")
	f.profile.SetHooks(&domain.Hooks{PreLaunch: []string{
		writeScript(t, scripts, "one.sh", "echo one >> "+marker+"\n"),
		writeScript(t, scripts, "two.sh", "exit 5\n"),
		writeScript(t, scripts, "three.sh", "echo three >> "+marker+"\n"),
	}})
	rec := &stateRecorder{}

	_, err := f.launcher().Run(context.Background(), f.profile, domain.Credentials{}, WithStateFunc(rec.record))
	require.Error(t, err)

	code, ok := domain.ExitCode(err)
	require.True(t, ok)
	assert.Equal(t, 5, code)

	content, readErr := os.ReadFile(marker)
	require.NoError(t, readErr)
	assert.Equal(t, "one\n", string(content))
	assert.Equal(t, 0, f.spawner.calls())
	assert.Equal(t, []LaunchState{StateNotStarted, StateRunningHooks, StateHookFailed}, rec.all())
}

func TestLauncher_HooksRunInProfileDirectory(t *testing.T) {
	f := newLauncherFixture(t)
	f.settings.Hooks.PreLaunch = []string{writeScript(t, t.TempDir(), "here.sh", "touch ran-here\n")}

	_, err := f.launcher().Prepare(context.Background(), f.profile, domain.Credentials{})
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(f.profile.Path, "ran-here"))
	assert.NoError(t, statErr)
}

func TestLauncher_WithoutHooks(t *testing.T) {
	f := newLauncherFixture(t)
	f.settings.Hooks.PreLaunch = []string{writeScript(t, t.TempDir(), "fail.sh", "exit 1\n")}

	_, err := f.launcher().Prepare(context.Background(), f.profile, domain.Credentials{}, WithoutHooks())
	assert.NoError(t, err)
}

func TestLauncher_StateSequence(t *testing.T) {
	f := newLauncherFixture(t)
	rec := &stateRecorder{}

	proc, err := f.launcher().Run(context.Background(), f.profile, domain.Credentials{}, WithStateFunc(rec.record), WithLaunchID("abc"))
	require.NoError(t, err)
	require.NoError(t, proc.Wait(context.Background()))

	assert.Equal(t, []LaunchState{
		StateNotStarted, StateRunningHooks, StateJavaResolving, StateSpawning, StateRunning, StateExitedSuccess,
	}, rec.all())
	assert.Equal(t, "abc", f.spawner.specs[0].ID)
}

func TestLauncher_PrepareResolvesEffectiveSettings(t *testing.T) {
	f := newLauncherFixture(t)
	f.settings.CustomJavaArgs = []string{"-Dglobal"}
	f.settings.Hooks.Wrapper = "gamemoderun"
	f.profile.SetResolution(&domain.WindowSize{Width: 1920, Height: 1080})

	creds := domain.Credentials{Username: "Steve", ID: "id", AccessToken: "token"}
	spec, err := f.launcher().Prepare(context.Background(), f.profile, creds)
	require.NoError(t, err)

	assert.Equal(t, []string{"-Dglobal"}, spec.JavaArgs)
	assert.Equal(t, "gamemoderun", spec.Wrapper)
	assert.Equal(t, domain.DefaultMemory(), spec.Memory)
	assert.Equal(t, domain.WindowSize{Width: 1920, Height: 1080}, spec.Resolution)
	assert.Equal(t, creds, spec.Credentials)
	assert.Equal(t, "1.18.2", spec.Version.ID)
}

func TestLauncher_RunPostExit(t *testing.T) {
	f := newLauncherFixture(t)
	scripts := t.TempDir()
	marker := filepath.Join(scripts, "marker")
	f.profile.SetHooks(&domain.Hooks{PostExit: []string{
		writeScript(t, scripts, "fail.sh", "exit 1\n"),
		writeScript(t, scripts, "after.sh", "echo after >> "+marker+"\n"),
	}})

	warnings := f.launcher().RunPostExit(context.Background(), f.profile)
	require.Len(t, warnings, 1)

	content, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, "after\n", string(content))
}

func TestSelectJava_NilVersionUsesJava8(t *testing.T) {
	f := newLauncherFixture(t)
	java, err := SelectJava("", nil, f.settings)
	require.NoError(t, err)
	assert.Equal(t, f.java8, java)
}
