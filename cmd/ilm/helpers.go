package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/DonovanMods/instance-launcher/internal/core"
	"github.com/DonovanMods/instance-launcher/internal/domain"
)

// findProfile resolves ref to a stored profile. ref is a profile directory,
// or the exact name of exactly one profile.
func findProfile(svc *core.Service, ref string) (domain.Profile, error) {
	if p, ok := svc.Profiles().Get(ref); ok {
		return p, nil
	}

	var matches []domain.Profile
	for _, p := range svc.Profiles().Snapshot() {
		if strings.TrimSpace(p.Metadata.Name) == strings.TrimSpace(ref) {
			matches = append(matches, p)
		}
	}

	switch len(matches) {
	case 0:
		return domain.Profile{}, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		paths := make([]string, len(matches))
		for i, p := range matches {
			paths[i] = p.Path
		}
		return domain.Profile{}, fmt.Errorf("%w: %q matches several profiles, use a path: %s", domain.ErrInput, ref, strings.Join(paths, ", "))
	}
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printHookWarnings prints non-fatal hook errors to stderr
func printHookWarnings(errors []error) {
	for _, err := range errors {
		fmt.Fprintf(os.Stderr, "%s %v\n", colorYellow("Warning:"), err)
	}
}

// profileJSON is the --json view of a profile with its effective settings
type profileJSON struct {
	Path          string   `json:"path"`
	Name          string   `json:"name"`
	GameVersion   string   `json:"game_version"`
	Loader        string   `json:"loader"`
	LoaderVersion string   `json:"loader_version,omitempty"`
	Icon          string   `json:"icon,omitempty"`
	Java          string   `json:"java,omitempty"`
	JavaArgs      []string `json:"java_args,omitempty"`
	MemoryMin     *uint32  `json:"memory_min,omitempty"`
	MemoryMax     uint32   `json:"memory_max"`
	Width         uint16   `json:"width"`
	Height        uint16   `json:"height"`
	PreLaunch     []string `json:"pre_launch,omitempty"`
	Wrapper       string   `json:"wrapper,omitempty"`
	PostExit      []string `json:"post_exit,omitempty"`
}

func newProfileJSON(p domain.Profile, settings domain.Settings) profileJSON {
	eff := core.Resolve(p, settings)
	view := profileJSON{
		Path:        p.Path,
		Name:        p.Metadata.Name,
		GameVersion: p.Metadata.GameVersion,
		Loader:      p.Metadata.Loader.String(),
		Icon:        p.Metadata.Icon,
		Java:        eff.JavaInstall,
		JavaArgs:    eff.JavaArgs,
		MemoryMin:   eff.Memory.Minimum,
		MemoryMax:   eff.Memory.Maximum,
		Width:       eff.Resolution.Width,
		Height:      eff.Resolution.Height,
		PreLaunch:   eff.Hooks.PreLaunch,
		Wrapper:     eff.Hooks.Wrapper,
		PostExit:    eff.Hooks.PostExit,
	}
	if p.Metadata.LoaderVersion != nil {
		view.LoaderVersion = p.Metadata.LoaderVersion.ID
	}
	return view
}
