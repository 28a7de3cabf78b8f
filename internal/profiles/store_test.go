package profiles_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/DonovanMods/instance-launcher/internal/domain"
	"github.com/DonovanMods/instance-launcher/internal/profiles"
	"github.com/DonovanMods/instance-launcher/internal/storage/kv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	mu      sync.Mutex
	tracked map[string]bool
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{tracked: make(map[string]bool)}
}

func (r *fakeRegistry) Track(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracked[path] = true
}

func (r *fakeRegistry) Untrack(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tracked, path)
}

func newProfile(t *testing.T, name string) domain.Profile {
	t.Helper()
	p, err := domain.NewProfile(name, "1.18.2", t.TempDir())
	require.NoError(t, err)
	return *p
}

func TestStore_InsertAndGet(t *testing.T) {
	store := profiles.New(kv.NewMemory())
	p := newProfile(t, "Pack")

	require.NoError(t, store.Insert(p))

	got, ok := store.Get(p.Path)
	require.True(t, ok)
	assert.Equal(t, p, got)
	assert.Equal(t, 1, store.Len())

	// Returned profiles are copies
	got.Metadata.Name = "changed"
	again, _ := store.Get(p.Path)
	assert.Equal(t, "Pack", again.Metadata.Name)
}

func TestStore_InsertCanonicalizes(t *testing.T) {
	store := profiles.New(kv.NewMemory())
	p := newProfile(t, "Pack")

	link := filepath.Join(t.TempDir(), "link")
	require.NoError(t, os.Symlink(p.Path, link))

	aliased := p.Clone()
	aliased.Path = link
	require.NoError(t, store.Insert(aliased))
	require.NoError(t, store.Insert(p))

	assert.Equal(t, 1, store.Len())
	assert.Equal(t, []string{p.Path}, store.Paths())

	_, ok := store.Get(link)
	assert.True(t, ok)
}

func TestStore_InsertMissingDirectory(t *testing.T) {
	store := profiles.New(kv.NewMemory())
	p := domain.Profile{Path: filepath.Join(t.TempDir(), "missing")}

	err := store.Insert(p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIO))
	assert.Equal(t, 0, store.Len())
}

func TestStore_RoundTripThroughBackend(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()

	first := profiles.New(backend)
	a := newProfile(t, "Alpha")
	b := newProfile(t, "Beta")
	b.SetMemory(&domain.MemorySettings{Maximum: 4096})
	require.NoError(t, first.Insert(a))
	require.NoError(t, first.Insert(b))
	require.NoError(t, first.Persist(ctx))

	second := profiles.New(backend)
	require.NoError(t, second.Load(ctx))

	assert.Equal(t, first.Snapshot(), second.Snapshot())
	assert.Empty(t, second.Skipped())
}

func TestStore_LoadWithoutIndex(t *testing.T) {
	store := profiles.New(kv.NewMemory())
	require.NoError(t, store.Load(context.Background()))
	assert.Equal(t, 0, store.Len())
}

func TestStore_LoadMalformedIndex(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	require.NoError(t, backend.Insert(ctx, profiles.IndexKey, []byte{0, 0, 0, 9}))

	err := profiles.New(backend).Load(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSerialization))
}

func TestStore_LoadSkipsUnreadableProfiles(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()

	good := newProfile(t, "Good")
	missing := newProfile(t, "Missing")
	broken := newProfile(t, "Broken")

	writer := profiles.New(backend)
	for _, p := range []domain.Profile{good, missing, broken} {
		require.NoError(t, writer.Insert(p))
	}
	require.NoError(t, writer.Persist(ctx))

	require.NoError(t, os.Remove(profiles.SidecarPath(missing.Path)))
	require.NoError(t, os.WriteFile(profiles.SidecarPath(broken.Path), []byte("{"), 0644))

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	store := profiles.New(backend, profiles.WithLogger(logger))
	require.NoError(t, store.Load(ctx))

	assert.Equal(t, []string{good.Path}, store.Paths())
	skipped := store.Skipped()
	require.Len(t, skipped, 2)
	assert.Contains(t, logs.String(), "skipping profile")
	assert.Contains(t, logs.String(), missing.Path)
	assert.Contains(t, logs.String(), broken.Path)

	// The next persist drops the skipped entries from the index
	require.NoError(t, store.Persist(ctx))
	assert.Empty(t, store.Skipped())

	data, err := backend.Get(ctx, profiles.IndexKey)
	require.NoError(t, err)
	paths, err := profiles.DecodeIndex(data)
	require.NoError(t, err)
	assert.Equal(t, []string{good.Path}, paths)
}

func TestStore_InsertFrom(t *testing.T) {
	p := newProfile(t, "Imported")
	p.SetLoader(domain.LoaderForge, nil)
	require.NoError(t, profiles.WriteSidecar(p))

	store := profiles.New(kv.NewMemory())
	got, err := store.InsertFrom(context.Background(), p.Path)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	stored, ok := store.Get(p.Path)
	require.True(t, ok)
	assert.Equal(t, domain.LoaderForge, stored.Metadata.Loader)
}

func TestStore_InsertFromWithoutSidecar(t *testing.T) {
	store := profiles.New(kv.NewMemory())
	_, err := store.InsertFrom(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIO))
	assert.Equal(t, 0, store.Len())
}

func TestStore_RemoveIsIdempotent(t *testing.T) {
	store := profiles.New(kv.NewMemory())
	p := newProfile(t, "Pack")
	require.NoError(t, store.Insert(p))

	removed, existed, err := store.Remove(p.Path)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, p, removed)

	_, existed, err = store.Remove(p.Path)
	require.NoError(t, err)
	assert.False(t, existed)
	assert.Equal(t, 0, store.Len())
}

func TestStore_RemoveAfterDirectoryDeleted(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "pack")
	require.NoError(t, os.Mkdir(dir, 0755))

	p, err := domain.NewProfile("Pack", "1.18.2", dir)
	require.NoError(t, err)

	store := profiles.New(kv.NewMemory())
	require.NoError(t, store.Insert(*p))
	require.NoError(t, os.RemoveAll(p.Path))

	_, existed, err := store.Remove(p.Path)
	require.NoError(t, err)
	assert.True(t, existed)
}

func TestStore_GetAndRemoveAgreeOnDeletedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pack")
	require.NoError(t, os.Mkdir(dir, 0755))

	p, err := domain.NewProfile("Pack", "1.18.2", dir)
	require.NoError(t, err)

	store := profiles.New(kv.NewMemory())
	require.NoError(t, store.Insert(*p))
	require.NoError(t, os.RemoveAll(p.Path))

	t.Chdir(filepath.Dir(p.Path))
	relative := "./" + filepath.Base(p.Path) + "/"

	got, ok := store.Get(relative)
	require.True(t, ok)
	assert.Equal(t, p.Path, got.Path)

	_, existed, err := store.Remove(relative)
	require.NoError(t, err)
	assert.True(t, existed)

	_, ok = store.Get(relative)
	assert.False(t, ok)
}

func TestStore_RegistryFollowsKeySet(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	reg := newFakeRegistry()
	store := profiles.New(backend, profiles.WithRegistry(reg))

	a := newProfile(t, "A")
	b := newProfile(t, "B")
	require.NoError(t, store.Insert(a))
	require.NoError(t, store.Insert(b))
	assert.Equal(t, map[string]bool{a.Path: true, b.Path: true}, reg.tracked)

	_, _, err := store.Remove(a.Path)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{b.Path: true}, reg.tracked)

	require.NoError(t, store.Persist(ctx))

	reloaded := newFakeRegistry()
	require.NoError(t, profiles.New(backend, profiles.WithRegistry(reloaded)).Load(ctx))
	assert.Equal(t, map[string]bool{b.Path: true}, reloaded.tracked)
}

func TestStore_Seed(t *testing.T) {
	a := newProfile(t, "A")
	require.NoError(t, profiles.WriteSidecar(a))
	empty := t.TempDir()

	store := profiles.New(kv.NewMemory(), profiles.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	require.NoError(t, store.Seed(context.Background(), []string{a.Path, empty, filepath.Join(empty, "gone")}))

	assert.Equal(t, []string{a.Path}, store.Paths())
	assert.Len(t, store.Skipped(), 2)
}

func TestStore_PersistContinuesAfterWriteFailure(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	store := profiles.New(backend)

	parent := t.TempDir()
	doomedDir := filepath.Join(parent, "doomed")
	require.NoError(t, os.Mkdir(doomedDir, 0755))
	doomed, err := domain.NewProfile("Doomed", "1.18.2", doomedDir)
	require.NoError(t, err)
	kept := newProfile(t, "Kept")

	require.NoError(t, store.Insert(*doomed))
	require.NoError(t, store.Insert(kept))
	require.NoError(t, os.RemoveAll(doomed.Path))

	err = store.Persist(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIO))

	// The healthy profile was still written
	_, statErr := os.Stat(profiles.SidecarPath(kept.Path))
	assert.NoError(t, statErr)

	// The index was rewritten from the snapshot
	data, err := backend.Get(ctx, profiles.IndexKey)
	require.NoError(t, err)
	paths, err := profiles.DecodeIndex(data)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{doomed.Path, kept.Path}, paths)
}

func TestStore_SnapshotSorted(t *testing.T) {
	store := profiles.New(kv.NewMemory())
	for _, name := range []string{"C", "A", "B"} {
		require.NoError(t, store.Insert(newProfile(t, name)))
	}

	snap := store.Snapshot()
	require.Len(t, snap, 3)
	for i := 1; i < len(snap); i++ {
		assert.Less(t, snap[i-1].Path, snap[i].Path)
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := profiles.New(kv.NewMemory())

	var wg sync.WaitGroup
	for i := range 8 {
		p := newProfile(t, "Pack")
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Insert(p))
			_ = store.Snapshot()
			if i%2 == 0 {
				assert.NoError(t, store.Persist(ctx))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, store.Len())
}
