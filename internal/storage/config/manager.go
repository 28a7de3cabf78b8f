package config

import (
	"context"
	"slices"
	"sync"

	"github.com/DonovanMods/instance-launcher/internal/domain"
)

// Manager owns the in-memory global settings for the life of the process.
// It also tracks the directories of known profiles so the settings file
// lists the same profiles as the profile index.
type Manager struct {
	mu        sync.RWMutex
	configDir string
	settings  domain.Settings
}

// NewManager loads settings from configDir
func NewManager(configDir string) (*Manager, error) {
	settings, err := Load(configDir)
	if err != nil {
		return nil, err
	}
	return &Manager{configDir: configDir, settings: *settings}, nil
}

// NewManagerWith wraps already-loaded settings; Save writes them to configDir
func NewManagerWith(configDir string, settings domain.Settings) *Manager {
	return &Manager{configDir: configDir, settings: cloneSettings(settings)}
}

// Get returns a copy of the current settings
func (m *Manager) Get(_ context.Context) (domain.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneSettings(m.settings), nil
}

// Update applies fn to the settings under the write lock.
// Changes are discarded if fn returns an error.
func (m *Manager) Update(fn func(*domain.Settings) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := cloneSettings(m.settings)
	if err := fn(&next); err != nil {
		return err
	}
	m.settings = next
	return nil
}

// Track records path as a known profile directory
func (m *Manager) Track(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !slices.Contains(m.settings.Profiles, path) {
		m.settings.Profiles = append(m.settings.Profiles, path)
	}
}

// Untrack forgets path as a known profile directory
func (m *Manager) Untrack(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings.Profiles = slices.DeleteFunc(m.settings.Profiles, func(p string) bool {
		return p == path
	})
}

// Profiles returns the known profile directories
func (m *Manager) Profiles() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.settings.Profiles)
}

// Save writes the current settings to the config directory
func (m *Manager) Save() error {
	m.mu.RLock()
	settings := cloneSettings(m.settings)
	m.mu.RUnlock()
	return Save(m.configDir, &settings)
}

// ConfigDir returns the directory settings are saved to
func (m *Manager) ConfigDir() string {
	return m.configDir
}

func cloneSettings(s domain.Settings) domain.Settings {
	c := s
	c.CustomJavaArgs = slices.Clone(s.CustomJavaArgs)
	c.Profiles = slices.Clone(s.Profiles)
	c.Hooks.PreLaunch = slices.Clone(s.Hooks.PreLaunch)
	c.Hooks.PostExit = slices.Clone(s.Hooks.PostExit)
	if s.Memory.Minimum != nil {
		minimum := *s.Memory.Minimum
		c.Memory.Minimum = &minimum
	}
	return c
}
