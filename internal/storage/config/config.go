package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DonovanMods/instance-launcher/internal/domain"

	"gopkg.in/yaml.v3"
)

// SettingsFileName is the name of the settings file inside the config directory
const SettingsFileName = "settings.yaml"

// SettingsConfig is the YAML representation of the global settings
type SettingsConfig struct {
	Java8Path      string       `yaml:"java_8_path,omitempty"`
	Java17Path     string       `yaml:"java_17_path,omitempty"`
	CustomJavaArgs []string     `yaml:"custom_java_args,omitempty"`
	Memory         MemoryConfig `yaml:"memory"`
	GameResolution []uint16     `yaml:"game_resolution,flow"`
	Hooks          HooksConfig  `yaml:"hooks,omitempty"`
	HookTimeout    int          `yaml:"hook_timeout,omitempty"`
	Profiles       []string     `yaml:"profiles,omitempty"`
}

// MemoryConfig is the YAML representation of memory bounds
type MemoryConfig struct {
	Minimum *uint32 `yaml:"minimum,omitempty"`
	Maximum uint32  `yaml:"maximum"`
}

// HooksConfig is the YAML representation of the default hooks
type HooksConfig struct {
	PreLaunch []string `yaml:"pre_launch,omitempty"`
	Wrapper   string   `yaml:"wrapper,omitempty"`
	PostExit  []string `yaml:"post_exit,omitempty"`
}

// Load reads settings from the given directory.
// A missing file yields the defaults.
func Load(configDir string) (*domain.Settings, error) {
	return LoadFile(filepath.Join(configDir, SettingsFileName))
}

// LoadFile reads settings from a specific file.
// A missing file yields the defaults.
func LoadFile(path string) (*domain.Settings, error) {
	settings := domain.DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &settings, nil
		}
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	var cfg SettingsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing settings: %w", err)
	}

	settings.Java8Path = ExpandPath(cfg.Java8Path)
	settings.Java17Path = ExpandPath(cfg.Java17Path)
	settings.CustomJavaArgs = cfg.CustomJavaArgs
	settings.HookTimeout = cfg.HookTimeout
	for _, p := range cfg.Profiles {
		settings.Profiles = append(settings.Profiles, ExpandPath(p))
	}
	settings.Hooks = domain.Hooks{
		PreLaunch: domain.Dedupe(cfg.Hooks.PreLaunch),
		Wrapper:   cfg.Hooks.Wrapper,
		PostExit:  domain.Dedupe(cfg.Hooks.PostExit),
	}

	// An unset maximum keeps the default memory object
	if cfg.Memory.Maximum > 0 {
		settings.Memory = domain.MemorySettings{
			Minimum: cfg.Memory.Minimum,
			Maximum: cfg.Memory.Maximum,
		}
	}

	switch len(cfg.GameResolution) {
	case 0:
	case 2:
		settings.GameResolution = domain.WindowSize{Width: cfg.GameResolution[0], Height: cfg.GameResolution[1]}
	default:
		return nil, fmt.Errorf("parsing settings: game_resolution must be [width, height], got %d values", len(cfg.GameResolution))
	}

	if settings.HookTimeout < 0 {
		return nil, fmt.Errorf("parsing settings: hook_timeout must not be negative")
	}

	return &settings, nil
}

// Save writes settings to the given directory
func Save(configDir string, settings *domain.Settings) error {
	cfg := SettingsConfig{
		Java8Path:      settings.Java8Path,
		Java17Path:     settings.Java17Path,
		CustomJavaArgs: settings.CustomJavaArgs,
		Memory: MemoryConfig{
			Minimum: settings.Memory.Minimum,
			Maximum: settings.Memory.Maximum,
		},
		GameResolution: []uint16{settings.GameResolution.Width, settings.GameResolution.Height},
		Hooks: HooksConfig{
			PreLaunch: settings.Hooks.PreLaunch,
			Wrapper:   settings.Hooks.Wrapper,
			PostExit:  settings.Hooks.PostExit,
		},
		HookTimeout: settings.HookTimeout,
		Profiles:    settings.Profiles,
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	settingsPath := filepath.Join(configDir, SettingsFileName)
	if err := os.WriteFile(settingsPath, data, 0644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}

	return nil
}

// ExpandPath replaces a leading ~ with the user's home directory
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
