package core

import (
	"slices"

	"github.com/DonovanMods/instance-launcher/internal/domain"
)

// Effective is the configuration a launch actually uses after applying
// profile overrides on top of the global settings
type Effective struct {
	JavaInstall string // Profile override only; empty means "pick by version"
	JavaArgs    []string
	Memory      domain.MemorySettings
	Resolution  domain.WindowSize
	Hooks       domain.Hooks
}

// Resolve merges a profile's overrides with the global settings.
// Each category is taken whole from the profile when present.
func Resolve(p domain.Profile, settings domain.Settings) Effective {
	eff := Effective{
		JavaArgs:   ResolveJavaArgs(p, settings),
		Memory:     ResolveMemory(p, settings),
		Resolution: ResolveResolution(p, settings),
		Hooks:      ResolveHooks(p, settings),
	}
	if p.Java != nil {
		eff.JavaInstall = p.Java.Install
	}
	return eff
}

// ResolveJavaArgs returns the profile's extra arguments when set, else the global ones
func ResolveJavaArgs(p domain.Profile, settings domain.Settings) []string {
	if p.Java != nil && p.Java.ExtraArguments != nil {
		return slices.Clone(p.Java.ExtraArguments)
	}
	return slices.Clone(settings.CustomJavaArgs)
}

// ResolveMemory returns the profile's memory object when set, else the global one
func ResolveMemory(p domain.Profile, settings domain.Settings) domain.MemorySettings {
	mem := settings.Memory
	if p.Memory != nil {
		mem = *p.Memory
	}
	if mem.Minimum != nil {
		minimum := *mem.Minimum
		mem.Minimum = &minimum
	}
	return mem
}

// ResolveResolution returns the profile's window size when set, else the global one
func ResolveResolution(p domain.Profile, settings domain.Settings) domain.WindowSize {
	if p.Resolution != nil {
		return *p.Resolution
	}
	return settings.GameResolution
}

// ResolveHooks returns the profile's hooks when set, else the global ones.
// A present profile hooks object supplies all three categories, even empty ones.
func ResolveHooks(p domain.Profile, settings domain.Settings) domain.Hooks {
	h := settings.Hooks
	if p.Hooks != nil {
		h = *p.Hooks
	}
	return domain.Hooks{
		PreLaunch: slices.Clone(h.PreLaunch),
		Wrapper:   h.Wrapper,
		PostExit:  slices.Clone(h.PostExit),
	}
}
