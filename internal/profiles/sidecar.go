package profiles

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DonovanMods/instance-launcher/internal/domain"
)

// SidecarFileName is the per-profile file holding the profile's configuration
const SidecarFileName = "profile.json"

// sidecarFile is the JSON representation of profile.json.
// Unset overrides are omitted; the profile path is never written.
type sidecarFile struct {
	Metadata   metadataJSON `json:"metadata"`
	Java       *javaJSON    `json:"java,omitempty"`
	Memory     *memoryJSON  `json:"memory,omitempty"`
	Resolution []uint16     `json:"resolution,omitempty"`
	Hooks      *hooksJSON   `json:"hooks,omitempty"`
}

type metadataJSON struct {
	Name          string             `json:"name"`
	Icon          string             `json:"icon,omitempty"`
	GameVersion   string             `json:"game_version"`
	Loader        string             `json:"loader,omitempty"`
	LoaderVersion *loaderVersionJSON `json:"loader_version,omitempty"`
	FormatVersion uint32             `json:"format_version"`
}

type loaderVersionJSON struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Stable bool   `json:"stable"`
}

type javaJSON struct {
	Install        string   `json:"install,omitempty"`
	ExtraArguments []string `json:"extra_arguments,omitempty"`
}

type memoryJSON struct {
	Minimum *uint32 `json:"minimum,omitempty"`
	Maximum uint32  `json:"maximum"`
}

type hooksJSON struct {
	PreLaunch []string `json:"pre_launch,omitempty"`
	Wrapper   string   `json:"wrapper,omitempty"`
	PostExit  []string `json:"post_exit,omitempty"`
}

// SidecarPath returns the location of profile.json inside a profile directory
func SidecarPath(dir string) string {
	return filepath.Join(dir, SidecarFileName)
}

// MarshalProfile encodes a profile as indented JSON with a trailing newline
func MarshalProfile(p domain.Profile) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toSidecar(p)); err != nil {
		return nil, fmt.Errorf("%w: encoding profile %s: %w", domain.ErrSerialization, p.Path, err)
	}
	return buf.Bytes(), nil
}

// UnmarshalProfile decodes profile.json contents. The returned profile has no path.
func UnmarshalProfile(data []byte) (domain.Profile, error) {
	var sc sidecarFile
	if err := json.Unmarshal(data, &sc); err != nil {
		return domain.Profile{}, fmt.Errorf("%w: decoding profile: %w", domain.ErrSerialization, err)
	}
	return fromSidecar(sc)
}

// ReadSidecar loads the profile stored in dir and binds it to dir
func ReadSidecar(dir string) (domain.Profile, error) {
	data, err := os.ReadFile(SidecarPath(dir))
	if err != nil {
		return domain.Profile{}, fmt.Errorf("%w: reading %s: %w", domain.ErrIO, SidecarPath(dir), err)
	}

	p, err := UnmarshalProfile(data)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("%s: %w", SidecarPath(dir), err)
	}
	p.Path = dir
	return p, nil
}

// WriteSidecar writes the profile to profile.json inside its directory
func WriteSidecar(p domain.Profile) error {
	data, err := MarshalProfile(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(SidecarPath(p.Path), data, 0644); err != nil {
		return fmt.Errorf("%w: writing %s: %w", domain.ErrIO, SidecarPath(p.Path), err)
	}
	return nil
}

func toSidecar(p domain.Profile) sidecarFile {
	sc := sidecarFile{
		Metadata: metadataJSON{
			Name:          p.Metadata.Name,
			Icon:          p.Metadata.Icon,
			GameVersion:   p.Metadata.GameVersion,
			Loader:        p.Metadata.Loader.String(),
			FormatVersion: p.Metadata.FormatVersion,
		},
	}
	if lv := p.Metadata.LoaderVersion; lv != nil {
		sc.Metadata.LoaderVersion = &loaderVersionJSON{ID: lv.ID, URL: lv.URL, Stable: lv.Stable}
	}
	if p.Java != nil {
		sc.Java = &javaJSON{Install: p.Java.Install, ExtraArguments: p.Java.ExtraArguments}
	}
	if p.Memory != nil {
		sc.Memory = &memoryJSON{Minimum: p.Memory.Minimum, Maximum: p.Memory.Maximum}
	}
	if p.Resolution != nil {
		sc.Resolution = []uint16{p.Resolution.Width, p.Resolution.Height}
	}
	if p.Hooks != nil {
		sc.Hooks = &hooksJSON{PreLaunch: p.Hooks.PreLaunch, Wrapper: p.Hooks.Wrapper, PostExit: p.Hooks.PostExit}
	}
	return sc
}

func fromSidecar(sc sidecarFile) (domain.Profile, error) {
	if sc.Metadata.Name == "" && sc.Metadata.GameVersion == "" && sc.Metadata.FormatVersion == 0 {
		return domain.Profile{}, fmt.Errorf("%w: missing metadata", domain.ErrSerialization)
	}
	if err := domain.ValidateName(sc.Metadata.Name); err != nil {
		return domain.Profile{}, fmt.Errorf("%w: %w", domain.ErrSerialization, err)
	}

	loader, err := domain.ParseModLoader(sc.Metadata.Loader)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("%w: %w", domain.ErrSerialization, err)
	}

	p := domain.Profile{
		Metadata: domain.Metadata{
			Name:          sc.Metadata.Name,
			Icon:          sc.Metadata.Icon,
			GameVersion:   sc.Metadata.GameVersion,
			Loader:        loader,
			FormatVersion: sc.Metadata.FormatVersion,
		},
	}
	if lv := sc.Metadata.LoaderVersion; lv != nil {
		p.Metadata.LoaderVersion = &domain.LoaderVersion{ID: lv.ID, URL: lv.URL, Stable: lv.Stable}
	}
	if sc.Java != nil {
		p.Java = &domain.JavaSettings{Install: sc.Java.Install, ExtraArguments: nilIfEmpty(sc.Java.ExtraArguments)}
	}
	if sc.Memory != nil {
		p.Memory = &domain.MemorySettings{Minimum: sc.Memory.Minimum, Maximum: sc.Memory.Maximum}
	}
	if sc.Resolution != nil {
		if len(sc.Resolution) != 2 {
			return domain.Profile{}, fmt.Errorf("%w: resolution must be [width, height], got %d values", domain.ErrSerialization, len(sc.Resolution))
		}
		p.Resolution = &domain.WindowSize{Width: sc.Resolution[0], Height: sc.Resolution[1]}
	}
	if sc.Hooks != nil {
		p.Hooks = &domain.Hooks{
			PreLaunch: domain.Dedupe(nilIfEmpty(sc.Hooks.PreLaunch)),
			Wrapper:   sc.Hooks.Wrapper,
			PostExit:  domain.Dedupe(nilIfEmpty(sc.Hooks.PostExit)),
		}
	}
	return p, nil
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

// isMissing reports whether err comes from a sidecar that does not exist
func isMissing(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
