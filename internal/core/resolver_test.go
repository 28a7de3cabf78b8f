package core

import (
	"testing"

	"github.com/DonovanMods/instance-launcher/internal/domain"

	"github.com/stretchr/testify/assert"
)

func testSettings() domain.Settings {
	minimum := uint32(256)
	s := domain.DefaultSettings()
	s.CustomJavaArgs = []string{"-Dglobal=1"}
	s.Memory = domain.MemorySettings{Minimum: &minimum, Maximum: 3072}
	s.GameResolution = domain.WindowSize{Width: 1280, Height: 720}
	s.Hooks = domain.Hooks{PreLaunch: []string{"echo global"}, Wrapper: "gamemoderun", PostExit: []string{"echo bye"}}
	return s
}

func TestResolveMemory(t *testing.T) {
	settings := testSettings()

	t.Run("profile override wins whole", func(t *testing.T) {
		p := domain.Profile{Memory: &domain.MemorySettings{Maximum: 8192}}
		got := ResolveMemory(p, settings)
		assert.Equal(t, uint32(8192), got.Maximum)
		assert.Nil(t, got.Minimum, "global minimum must not leak into a profile memory object")
	})

	t.Run("global when unset", func(t *testing.T) {
		got := ResolveMemory(domain.Profile{}, settings)
		assert.Equal(t, settings.Memory.Maximum, got.Maximum)
		assert.Equal(t, *settings.Memory.Minimum, *got.Minimum)

		// The result does not alias the settings
		*got.Minimum = 1
		assert.Equal(t, uint32(256), *settings.Memory.Minimum)
	})
}

func TestResolveJavaArgs(t *testing.T) {
	settings := testSettings()

	tests := []struct {
		name string
		java *domain.JavaSettings
		want []string
	}{
		{"no java override", nil, []string{"-Dglobal=1"}},
		{"install only", &domain.JavaSettings{Install: "/opt/java"}, []string{"-Dglobal=1"}},
		{"profile arguments", &domain.JavaSettings{ExtraArguments: []string{"-Dprofile=1"}}, []string{"-Dprofile=1"}},
		{"explicitly empty arguments", &domain.JavaSettings{ExtraArguments: []string{}}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveJavaArgs(domain.Profile{Java: tt.java}, settings)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveResolution(t *testing.T) {
	settings := testSettings()
	assert.Equal(t, settings.GameResolution, ResolveResolution(domain.Profile{}, settings))

	override := domain.WindowSize{Width: 1920, Height: 1080}
	assert.Equal(t, override, ResolveResolution(domain.Profile{Resolution: &override}, settings))
}

func TestResolveHooks(t *testing.T) {
	settings := testSettings()

	assert.Equal(t, settings.Hooks, ResolveHooks(domain.Profile{}, settings))

	// An empty profile hooks object disables the global hooks
	got := ResolveHooks(domain.Profile{Hooks: &domain.Hooks{}}, settings)
	assert.True(t, got.IsEmpty())

	got = ResolveHooks(domain.Profile{Hooks: &domain.Hooks{PreLaunch: []string{"echo mine"}}}, settings)
	assert.Equal(t, []string{"echo mine"}, got.PreLaunch)
	assert.Empty(t, got.Wrapper)
	assert.Empty(t, got.PostExit)
}

func TestResolve(t *testing.T) {
	settings := testSettings()
	p := domain.Profile{Java: &domain.JavaSettings{Install: "/opt/java17/bin/java"}}

	eff := Resolve(p, settings)
	assert.Equal(t, "/opt/java17/bin/java", eff.JavaInstall)
	assert.Equal(t, []string{"-Dglobal=1"}, eff.JavaArgs)
	assert.Equal(t, uint32(3072), eff.Memory.Maximum)
	assert.Equal(t, settings.GameResolution, eff.Resolution)
	assert.Equal(t, "gamemoderun", eff.Hooks.Wrapper)

	assert.Empty(t, Resolve(domain.Profile{}, settings).JavaInstall)
}
