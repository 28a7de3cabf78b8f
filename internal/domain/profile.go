package domain

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/DonovanMods/instance-launcher/internal/linker"
)

// CurrentFormatVersion is the profile.json schema revision written by this build
const CurrentFormatVersion uint32 = 1

// SupportedIconFormats lists the file extensions accepted for profile icons
var SupportedIconFormats = []string{
	"bmp", "gif", "jpeg", "jpg", "jpe", "png", "svg", "svgz", "webp", "rgb", "mp4",
}

// ModLoader is the mod-loading runtime a profile's game version needs
type ModLoader int

const (
	LoaderVanilla ModLoader = iota // Default: no mod loader
	LoaderForge
	LoaderFabric
)

func (l ModLoader) String() string {
	switch l {
	case LoaderForge:
		return "forge"
	case LoaderFabric:
		return "fabric"
	default:
		return "vanilla"
	}
}

// ParseModLoader converts a string to ModLoader
func ParseModLoader(s string) (ModLoader, error) {
	switch strings.ToLower(s) {
	case "", "vanilla":
		return LoaderVanilla, nil
	case "forge":
		return LoaderForge, nil
	case "fabric":
		return LoaderFabric, nil
	default:
		return LoaderVanilla, fmt.Errorf("%w: unknown loader %q", ErrInput, s)
	}
}

// LoaderVersion identifies a specific build of a mod loader
type LoaderVersion struct {
	ID     string
	URL    string
	Stable bool
}

// Metadata holds the identifying information of a profile
type Metadata struct {
	Name          string
	Icon          string // Relative to the profile directory, e.g. "./icon.png"; empty when unset
	GameVersion   string
	Loader        ModLoader
	LoaderVersion *LoaderVersion
	FormatVersion uint32
}

// JavaSettings overrides the java runtime for a profile
type JavaSettings struct {
	Install        string   // Empty means "use the global default for the version"
	ExtraArguments []string // Nil means "use the global default arguments"
}

// MemorySettings bounds the java heap, in megabytes
type MemorySettings struct {
	Minimum *uint32
	Maximum uint32
}

// DefaultMemory returns the memory bounds used when nothing else is configured
func DefaultMemory() MemorySettings {
	return MemorySettings{Maximum: 2048}
}

// WindowSize is the game window resolution
type WindowSize struct {
	Width  uint16
	Height uint16
}

// DefaultResolution returns the resolution used when nothing else is configured
func DefaultResolution() WindowSize {
	return WindowSize{Width: 854, Height: 480}
}

// Hooks are external commands run around a launch
type Hooks struct {
	PreLaunch []string // Run in order before the game starts
	Wrapper   string   // Command the java invocation is wrapped in; empty when unset
	PostExit  []string // Run in order after the game exits
}

// IsEmpty returns true if no hooks are configured
func (h Hooks) IsEmpty() bool {
	return len(h.PreLaunch) == 0 && h.Wrapper == "" && len(h.PostExit) == 0
}

// Profile is a named, independently configured game instance bound to one directory.
// Nil override fields fall back to the global settings at launch time.
type Profile struct {
	Path       string // Canonical absolute directory; never serialized
	Metadata   Metadata
	Java       *JavaSettings
	Memory     *MemorySettings
	Resolution *WindowSize
	Hooks      *Hooks
}

// NewProfile creates a vanilla profile bound to an existing directory
func NewProfile(name, gameVersion, path string) (*Profile, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	canonical, err := CanonicalPath(path)
	if err != nil {
		return nil, err
	}

	return &Profile{
		Path: canonical,
		Metadata: Metadata{
			Name:          name,
			GameVersion:   gameVersion,
			Loader:        LoaderVanilla,
			FormatVersion: CurrentFormatVersion,
		},
	}, nil
}

// ValidateName rejects names that are empty after trimming.
// The name itself is stored as given.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty name for instance", ErrInput)
	}
	return nil
}

// CanonicalPath resolves path to an absolute path with symlinks evaluated.
// The path must exist.
func CanonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: resolving %s: %w", ErrIO, path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: canonicalizing %s: %w", ErrIO, path, err)
	}
	return resolved, nil
}

// SetName changes the display name
func (p *Profile) SetName(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	p.Metadata.Name = name
	return nil
}

// SetIcon copies the image at src into the profile directory as icon.<ext>
// and points the metadata at it. Unsupported extensions are rejected before
// anything is copied.
func (p *Profile) SetIcon(src string) error {
	ext := strings.TrimPrefix(filepath.Ext(src), ".")
	if !slices.Contains(SupportedIconFormats, ext) {
		return fmt.Errorf("%w: unsupported image type: %s", ErrInput, ext)
	}

	fileName := "icon." + ext
	var lnk linker.Linker = linker.NewCopy()
	if err := lnk.Deploy(src, filepath.Join(p.Path, fileName)); err != nil {
		return fmt.Errorf("%w: copying icon: %w", ErrIO, err)
	}

	previous := p.Metadata.Icon
	p.Metadata.Icon = "./" + fileName

	// Only an icon this profile wrote itself is cleaned up
	stale, ok := iconFileName(previous)
	if !ok || stale == fileName {
		return nil
	}
	stalePath := filepath.Join(p.Path, stale)
	deployed, err := lnk.IsDeployed(stalePath)
	if err != nil {
		return fmt.Errorf("%w: checking old icon: %w", ErrIO, err)
	}
	if deployed {
		if err := lnk.Undeploy(stalePath); err != nil {
			return fmt.Errorf("%w: removing old icon: %w", ErrIO, err)
		}
	}

	return nil
}

// iconFileName returns the file name of an icon reference of the form
// "./icon.<ext>" with a supported extension
func iconFileName(ref string) (string, bool) {
	if ref == "" || filepath.IsAbs(ref) {
		return "", false
	}
	name := filepath.Clean(ref)
	if name != filepath.Base(name) || !strings.HasPrefix(name, "icon.") {
		return "", false
	}
	if !slices.Contains(SupportedIconFormats, strings.TrimPrefix(name, "icon.")) {
		return "", false
	}
	return name, true
}

// SetGameVersion changes the game version
func (p *Profile) SetGameVersion(version string) {
	p.Metadata.GameVersion = version
}

// SetLoader changes the mod loader and its version
func (p *Profile) SetLoader(loader ModLoader, version *LoaderVersion) {
	p.Metadata.Loader = loader
	p.Metadata.LoaderVersion = version
}

// SetJava replaces the java override; nil clears it
func (p *Profile) SetJava(settings *JavaSettings) {
	p.Java = settings
}

// SetMemory replaces the memory override; nil clears it
func (p *Profile) SetMemory(settings *MemorySettings) {
	p.Memory = settings
}

// SetResolution replaces the resolution override; nil clears it
func (p *Profile) SetResolution(size *WindowSize) {
	p.Resolution = size
}

// SetHooks replaces the hooks override; nil clears it.
// Duplicate commands within a category are dropped, keeping the first occurrence.
func (p *Profile) SetHooks(hooks *Hooks) {
	if hooks != nil {
		hooks.PreLaunch = Dedupe(hooks.PreLaunch)
		hooks.PostExit = Dedupe(hooks.PostExit)
	}
	p.Hooks = hooks
}

// Clone returns a deep copy of the profile
func (p Profile) Clone() Profile {
	c := p
	if p.Metadata.LoaderVersion != nil {
		lv := *p.Metadata.LoaderVersion
		c.Metadata.LoaderVersion = &lv
	}
	if p.Java != nil {
		java := *p.Java
		java.ExtraArguments = slices.Clone(p.Java.ExtraArguments)
		c.Java = &java
	}
	if p.Memory != nil {
		mem := *p.Memory
		if p.Memory.Minimum != nil {
			minimum := *p.Memory.Minimum
			mem.Minimum = &minimum
		}
		c.Memory = &mem
	}
	if p.Resolution != nil {
		res := *p.Resolution
		c.Resolution = &res
	}
	if p.Hooks != nil {
		hooks := Hooks{
			PreLaunch: slices.Clone(p.Hooks.PreLaunch),
			Wrapper:   p.Hooks.Wrapper,
			PostExit:  slices.Clone(p.Hooks.PostExit),
		}
		c.Hooks = &hooks
	}
	return c
}

// Dedupe returns commands without repeats, preserving first-seen order
func Dedupe(commands []string) []string {
	if commands == nil {
		return nil
	}
	seen := make(map[string]bool, len(commands))
	out := make([]string, 0, len(commands))
	for _, c := range commands {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
