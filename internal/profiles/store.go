// Package profiles keeps the set of known profiles, keyed by their canonical
// directory. Each profile lives in a profile.json inside its directory and
// the list of directories is kept under a single key of a kv.Store.
package profiles

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/DonovanMods/instance-launcher/internal/domain"
	"github.com/DonovanMods/instance-launcher/internal/storage/kv"
)

// Registry is notified when profile directories become known or are forgotten
type Registry interface {
	Track(path string)
	Untrack(path string)
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger used for load warnings
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRegistry keeps reg in step with the store's key set
func WithRegistry(reg Registry) Option {
	return func(s *Store) {
		s.registry = reg
	}
}

// SkippedProfile records a directory that could not be loaded
type SkippedProfile struct {
	Path string
	Err  error
}

// Store is the in-memory set of profiles backed by sidecar files and a kv index
type Store struct {
	mu       sync.RWMutex
	persist  sync.Mutex // Held for the whole of Persist
	backend  kv.Store
	profiles map[string]domain.Profile
	skipped  []SkippedProfile
	registry Registry
	logger   *slog.Logger
}

// New creates an empty store on top of backend
func New(backend kv.Store, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		profiles: make(map[string]domain.Profile),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the store's contents with the profiles listed in the backend index.
// A profile whose sidecar cannot be read is skipped with a warning and left
// out of the key set, so the next Persist drops it from the index.
// A malformed index is an error; a missing index yields an empty store.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.backend.Get(ctx, IndexKey)
	if err != nil {
		return fmt.Errorf("%w: reading profile index: %w", domain.ErrIO, err)
	}

	var paths []string
	if data != nil {
		paths, err = DecodeIndex(data)
		if err != nil {
			return fmt.Errorf("loading profile index: %w", err)
		}
	}

	loaded, skipped, err := s.readAll(ctx, paths)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.profiles = make(map[string]domain.Profile, len(loaded))
	for _, p := range loaded {
		s.profiles[p.Path] = p
	}
	s.skipped = skipped
	s.mu.Unlock()

	for _, p := range loaded {
		s.track(p.Path)
	}
	return nil
}

// Seed adds the profiles stored in dirs to the store, skipping any that
// cannot be read the same way Load does. Existing entries are replaced.
func (s *Store) Seed(ctx context.Context, dirs []string) error {
	var paths []string
	var skipped []SkippedProfile
	for _, dir := range dirs {
		canonical, err := domain.CanonicalPath(dir)
		if err != nil {
			s.logger.Warn("skipping profile", "path", dir, "error", err)
			skipped = append(skipped, SkippedProfile{Path: dir, Err: err})
			continue
		}
		paths = append(paths, canonical)
	}

	loaded, failed, err := s.readAll(ctx, paths)
	if err != nil {
		return err
	}

	s.mu.Lock()
	for _, p := range loaded {
		s.profiles[p.Path] = p
	}
	s.skipped = append(s.skipped, append(skipped, failed...)...)
	s.mu.Unlock()

	for _, p := range loaded {
		s.track(p.Path)
	}
	return nil
}

// readAll reads every sidecar concurrently; results keep the order of paths
func (s *Store) readAll(ctx context.Context, paths []string) ([]domain.Profile, []SkippedProfile, error) {
	results := make([]domain.Profile, len(paths))
	errs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], errs[i] = ReadSidecar(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var loaded []domain.Profile
	var skipped []SkippedProfile
	for i, path := range paths {
		if errs[i] != nil {
			reason := "unreadable profile"
			if isMissing(errs[i]) {
				reason = "profile directory has no profile.json"
			}
			s.logger.Warn("skipping profile", "path", path, "reason", reason, "error", errs[i])
			skipped = append(skipped, SkippedProfile{Path: path, Err: errs[i]})
			continue
		}
		loaded = append(loaded, results[i])
	}
	return loaded, skipped, nil
}

// Insert adds or replaces a profile under its canonical path
func (s *Store) Insert(p domain.Profile) error {
	canonical, err := domain.CanonicalPath(p.Path)
	if err != nil {
		return err
	}
	p = p.Clone()
	p.Path = canonical

	s.mu.Lock()
	s.profiles[canonical] = p
	s.mu.Unlock()

	s.track(canonical)
	return nil
}

// InsertFrom reads the profile stored in dir and inserts it
func (s *Store) InsertFrom(_ context.Context, dir string) (domain.Profile, error) {
	canonical, err := domain.CanonicalPath(dir)
	if err != nil {
		return domain.Profile{}, err
	}

	p, err := ReadSidecar(canonical)
	if err != nil {
		return domain.Profile{}, err
	}

	if err := s.Insert(p); err != nil {
		return domain.Profile{}, err
	}
	return p.Clone(), nil
}

// Remove forgets the profile at path and returns it.
// Removing an unknown path is a no-op that reports existed == false.
// The profile's files are left on disk.
func (s *Store) Remove(path string) (domain.Profile, bool, error) {
	key, err := lookupKey(path)
	if err != nil {
		return domain.Profile{}, false, err
	}

	s.mu.Lock()
	p, ok := s.profiles[key]
	delete(s.profiles, key)
	s.mu.Unlock()

	if !ok {
		return domain.Profile{}, false, nil
	}
	s.untrack(key)
	return p, true, nil
}

// Persist writes every profile's sidecar and then rewrites the index.
// All writes run to completion; the first error encountered is returned.
func (s *Store) Persist(ctx context.Context) error {
	s.persist.Lock()
	defer s.persist.Unlock()

	snapshot := s.Snapshot()

	var g errgroup.Group
	for _, p := range snapshot {
		g.Go(func() error {
			return WriteSidecar(p)
		})
	}
	writeErr := g.Wait()

	paths := make([]string, len(snapshot))
	for i, p := range snapshot {
		paths[i] = p.Path
	}
	indexErr := s.writeIndex(ctx, paths)

	if writeErr != nil {
		return fmt.Errorf("persisting profiles: %w", writeErr)
	}
	if indexErr != nil {
		return fmt.Errorf("persisting profile index: %w", indexErr)
	}

	s.mu.Lock()
	s.skipped = nil
	s.mu.Unlock()
	return nil
}

func (s *Store) writeIndex(ctx context.Context, paths []string) error {
	data, err := EncodeIndex(paths)
	if err != nil {
		return err
	}

	batch := &kv.Batch{}
	batch.Insert(IndexKey, data)
	if err := s.backend.ApplyBatch(ctx, batch); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	return nil
}

// Get returns a copy of the profile at path
func (s *Store) Get(path string) (domain.Profile, bool) {
	key, err := lookupKey(path)
	if err != nil {
		return domain.Profile{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[key]
	if !ok {
		return domain.Profile{}, false
	}
	return p.Clone(), true
}

// Snapshot returns copies of all profiles, sorted by path
func (s *Store) Snapshot() []domain.Profile {
	s.mu.RLock()
	out := make([]domain.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Path < out[j].Path
	})
	return out
}

// Paths returns the sorted key set
func (s *Store) Paths() []string {
	s.mu.RLock()
	paths := make([]string, 0, len(s.profiles))
	for path := range s.profiles {
		paths = append(paths, path)
	}
	s.mu.RUnlock()

	slices.Sort(paths)
	return paths
}

// Len returns the number of profiles
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

// Skipped returns the directories the last Load or Seed could not read.
// The list is cleared by a successful Persist.
func (s *Store) Skipped() []SkippedProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.skipped)
}

func (s *Store) track(path string) {
	if s.registry != nil {
		s.registry.Track(path)
	}
}

func (s *Store) untrack(path string) {
	if s.registry != nil {
		s.registry.Untrack(path)
	}
}

// lookupKey returns the store key for path. A directory that no longer
// exists cannot be canonicalized, so its absolute cleaned path is used.
func lookupKey(path string) (string, error) {
	if canonical, err := domain.CanonicalPath(path); err == nil {
		return canonical, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: resolving %s: %w", domain.ErrIO, path, err)
	}
	return filepath.Clean(abs), nil
}
