// Package logs stores the console output of game launches, one file per launch.
package logs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const logExt = ".log"

// Entry describes one stored launch log
type Entry struct {
	LaunchID string
	Path     string
	Size     int64
	ModTime  time.Time
}

// Store manages launch logs under a base directory
type Store struct {
	basePath string
}

// New creates a new log store
func New(basePath string) *Store {
	return &Store{basePath: basePath}
}

// ProfileDir returns the directory holding the logs of a profile.
// The name combines the directory's base name with a hash of the full path,
// so profiles with the same folder name in different places do not collide.
func (s *Store) ProfileDir(profilePath string) string {
	sum := sha256.Sum256([]byte(profilePath))
	name := sanitize(filepath.Base(profilePath))
	return filepath.Join(s.basePath, fmt.Sprintf("%s-%s", name, hex.EncodeToString(sum[:])[:12]))
}

// Path returns the log file path for a launch
func (s *Store) Path(profilePath, launchID string) string {
	return filepath.Join(s.ProfileDir(profilePath), launchID+logExt)
}

// Create opens a new log file for a launch; the caller closes it
func (s *Store) Create(profilePath, launchID string) (*os.File, error) {
	dir := s.ProfileDir(profilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating log dir: %w", err)
	}

	f, err := os.OpenFile(s.Path(profilePath, launchID), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("creating log file: %w", err)
	}
	return f, nil
}

// List returns the logs of a profile, newest first
func (s *Store) List(profilePath string) ([]Entry, error) {
	dir := s.ProfileDir(profilePath)

	var entries []Entry
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), logExt) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		entries = append(entries, Entry{
			LaunchID: strings.TrimSuffix(d.Name(), logExt),
			Path:     path,
			Size:     info.Size(),
			ModTime:  info.ModTime(),
		})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing logs: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ModTime.After(entries[j].ModTime)
	})
	return entries, nil
}

// Prune deletes all but the newest keep logs of a profile
func (s *Store) Prune(profilePath string, keep int) error {
	entries, err := s.List(profilePath)
	if err != nil {
		return err
	}
	if keep < 0 {
		keep = 0
	}
	for _, e := range entries[min(keep, len(entries)):] {
		if err := os.Remove(e.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("pruning log %s: %w", e.LaunchID, err)
		}
	}
	return nil
}

// Delete removes all logs of a profile
func (s *Store) Delete(profilePath string) error {
	if err := os.RemoveAll(s.ProfileDir(profilePath)); err != nil {
		return fmt.Errorf("deleting logs: %w", err)
	}
	return nil
}

// Size returns the total size of a profile's logs
func (s *Store) Size(profilePath string) (int64, error) {
	entries, err := s.List(profilePath)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		total += e.Size
	}
	return total, nil
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}
