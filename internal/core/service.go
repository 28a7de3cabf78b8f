package core

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/DonovanMods/instance-launcher/internal/domain"
	"github.com/DonovanMods/instance-launcher/internal/profiles"
	"github.com/DonovanMods/instance-launcher/internal/storage/config"
	"github.com/DonovanMods/instance-launcher/internal/storage/db"
	"github.com/DonovanMods/instance-launcher/internal/storage/logs"
)

// DatabaseFileName is the name of the state database inside the data directory
const DatabaseFileName = "ilm.db"

// LogsToKeep is how many launch logs are kept per profile
const LogsToKeep = 20

// ServiceConfig holds configuration for the core service
type ServiceConfig struct {
	ConfigDir  string          // Directory for settings.yaml
	DataDir    string          // Directory for the database and launch logs
	Logger     *slog.Logger    // Defaults to slog.Default()
	Clock      clockwork.Clock // Defaults to the real clock
	GameOutput io.Writer       // Optional copy of game output, e.g. the terminal
}

// Service ties settings, state storage, the profile store and the launcher together
type Service struct {
	settings *config.Manager
	db       *db.DB
	logs     *logs.Store
	store    *profiles.Store
	launcher *Launcher
	clock    clockwork.Clock
	logger   *slog.Logger

	configDir string
	dataDir   string
}

// NewService loads settings, opens the database and loads all known profiles
func NewService(ctx context.Context, cfg ServiceConfig) (*Service, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	settings, err := config.NewManager(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	database, err := db.New(filepath.Join(cfg.DataDir, DatabaseFileName))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	logStore := logs.New(filepath.Join(cfg.DataDir, "logs"))
	spawner := NewExecSpawner(logStore)
	if cfg.GameOutput != nil {
		spawner = spawner.WithOutput(cfg.GameOutput)
	}

	s := &Service{
		settings:  settings,
		db:        database,
		logs:      logStore,
		store:     profiles.New(database, profiles.WithLogger(logger), profiles.WithRegistry(settings)),
		launcher:  NewLauncher(settings, database, spawner, logger),
		clock:     clock,
		logger:    logger,
		configDir: cfg.ConfigDir,
		dataDir:   cfg.DataDir,
	}

	if err := s.loadProfiles(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return s, nil
}

// loadProfiles reads the profile index. Without one, the profile directories
// listed in the settings file seed the store. Afterwards the settings list
// is brought in line with the loaded profiles.
func (s *Service) loadProfiles(ctx context.Context) error {
	index, err := s.db.Get(ctx, profiles.IndexKey)
	if err != nil {
		return fmt.Errorf("reading profile index: %w", err)
	}

	if err := s.store.Load(ctx); err != nil {
		return fmt.Errorf("loading profiles: %w", err)
	}
	if index == nil {
		if known := s.settings.Profiles(); len(known) > 0 {
			s.logger.Debug("seeding profiles from settings", "count", len(known))
			if err := s.store.Seed(ctx, known); err != nil {
				return fmt.Errorf("loading profiles: %w", err)
			}
		}
	}

	// The registry lists exactly the store's keys
	keys := make(map[string]bool, s.store.Len())
	for _, path := range s.store.Paths() {
		keys[path] = true
		s.settings.Track(path)
	}
	for _, path := range s.settings.Profiles() {
		if !keys[path] {
			s.logger.Debug("forgetting unindexed profile", "path", path)
			s.settings.Untrack(path)
		}
	}
	return nil
}

// Close releases resources held by the service
func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Profiles returns the profile store
func (s *Service) Profiles() *profiles.Store {
	return s.store
}

// Settings returns the global settings manager
func (s *Service) Settings() *config.Manager {
	return s.settings
}

// DB returns the state database
func (s *Service) DB() *db.DB {
	return s.db
}

// Logs returns the launch log store
func (s *Service) Logs() *logs.Store {
	return s.logs
}

// Launcher returns the launch pipeline
func (s *Service) Launcher() *Launcher {
	return s.launcher
}

// ConfigDir returns the configuration directory
func (s *Service) ConfigDir() string {
	return s.configDir
}

// DataDir returns the data directory
func (s *Service) DataDir() string {
	return s.dataDir
}

// Save persists all profiles and the settings file
func (s *Service) Save(ctx context.Context) error {
	return errors.Join(s.store.Persist(ctx), s.settings.Save())
}

// GetProfile returns the profile stored for dir
func (s *Service) GetProfile(dir string) (domain.Profile, error) {
	p, ok := s.store.Get(dir)
	if !ok {
		return domain.Profile{}, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, dir)
	}
	return p, nil
}

// CreateProfile creates a vanilla profile in dir, creating the directory if needed
func (s *Service) CreateProfile(_ context.Context, name, gameVersion, dir string) (domain.Profile, error) {
	if err := domain.ValidateName(name); err != nil {
		return domain.Profile{}, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return domain.Profile{}, fmt.Errorf("%w: creating profile dir: %w", domain.ErrIO, err)
	}

	p, err := domain.NewProfile(name, gameVersion, dir)
	if err != nil {
		return domain.Profile{}, err
	}
	if _, exists := s.store.Get(p.Path); exists {
		return domain.Profile{}, fmt.Errorf("%w: %s is already a profile", domain.ErrInput, p.Path)
	}

	if err := s.store.Insert(*p); err != nil {
		return domain.Profile{}, err
	}
	return *p, nil
}

// ImportProfile adds an existing profile directory containing a profile.json
func (s *Service) ImportProfile(ctx context.Context, dir string) (domain.Profile, error) {
	return s.store.InsertFrom(ctx, dir)
}

// UpdateProfile applies fn to a copy of the profile at dir and stores the result
func (s *Service) UpdateProfile(dir string, fn func(*domain.Profile) error) (domain.Profile, error) {
	p, err := s.GetProfile(dir)
	if err != nil {
		return domain.Profile{}, err
	}
	if err := fn(&p); err != nil {
		return domain.Profile{}, err
	}
	if err := s.store.Insert(p); err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}

// RemoveProfile forgets the profile at dir. Its directory is left alone;
// with purge its launch history and logs are deleted too.
func (s *Service) RemoveProfile(ctx context.Context, dir string, purge bool) (domain.Profile, error) {
	p, existed, err := s.store.Remove(dir)
	if err != nil {
		return domain.Profile{}, err
	}
	if !existed {
		return domain.Profile{}, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, dir)
	}

	if purge {
		if err := s.db.DeleteLaunches(ctx, p.Path); err != nil {
			return p, err
		}
		if err := s.logs.Delete(p.Path); err != nil {
			return p, err
		}
	}
	return p, nil
}

// Credentials returns the credentials to launch with. An empty username picks
// the default stored account; an unknown username gets offline credentials.
func (s *Service) Credentials(ctx context.Context, username string) (domain.Credentials, error) {
	if username == "" {
		acct, err := s.db.GetDefaultAccount(ctx)
		if err != nil {
			return domain.Credentials{}, err
		}
		return acct.Credentials, nil
	}

	acct, err := s.db.GetAccount(ctx, username)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return OfflineCredentials(username), nil
	}
	if err != nil {
		return domain.Credentials{}, err
	}
	return acct.Credentials, nil
}

// OfflineCredentials derives credentials for playing without an account.
// The player ID is the name-based (version 3) UUID of "OfflinePlayer:<name>".
func OfflineCredentials(username string) domain.Credentials {
	sum := md5.Sum([]byte("OfflinePlayer:" + username))
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80
	return domain.Credentials{
		Username:    username,
		ID:          uuid.UUID(sum).String(),
		AccessToken: "0",
	}
}

// Launch starts the game for the profile at dir and records it in the launch history
func (s *Service) Launch(ctx context.Context, dir string, creds domain.Credentials, opts ...RunOption) (*Launch, error) {
	p, err := s.GetProfile(dir)
	if err != nil {
		return nil, err
	}

	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}

	id := uuid.NewString()
	spec, err := s.launcher.Prepare(ctx, p, creds, append(opts, WithLaunchID(id))...)
	if err != nil {
		return nil, err
	}
	proc, err := s.launcher.Spawn(ctx, spec)
	if err != nil {
		return nil, err
	}

	rec := &db.LaunchRecord{
		ID:          id,
		ProfilePath: p.Path,
		GameVersion: p.Metadata.GameVersion,
		JavaPath:    spec.Java,
		PID:         proc.PID(),
		StartedAt:   s.clock.Now(),
	}
	if err := s.db.RecordLaunchStart(ctx, rec); err != nil {
		s.logger.Warn("could not record launch", "profile", p.Path, "error", err)
	}
	if err := s.logs.Prune(p.Path, LogsToKeep); err != nil {
		s.logger.Warn("could not prune launch logs", "profile", p.Path, "error", err)
	}

	return &Launch{ID: id, Profile: p, Process: proc, service: s, skipHooks: o.skipHooks}, nil
}

// History returns the most recent launches of the profile at dir
func (s *Service) History(ctx context.Context, dir string, limit int) ([]db.LaunchRecord, error) {
	key := dir
	if canonical, err := domain.CanonicalPath(dir); err == nil {
		key = canonical
	}
	return s.db.GetLaunches(ctx, key, limit)
}

// Launch is a running game started by the Service
type Launch struct {
	ID      string
	Profile domain.Profile
	Process *Process

	service   *Service
	skipHooks bool
	once      sync.Once
	warnings  []error
}

// Wait blocks until the game exits, then records the outcome and runs the
// post-exit hooks. The error is the game's result as from Process.Wait.
func (l *Launch) Wait(ctx context.Context) error {
	err := l.Process.Wait(ctx)
	if ctx.Err() != nil && !isDone(l.Process) {
		return err
	}
	l.finish(ctx, err)
	return err
}

// Kill terminates the game and finishes the launch like Wait
func (l *Launch) Kill(ctx context.Context) error {
	err := l.Process.Kill(ctx)
	if !isDone(l.Process) {
		return err
	}
	l.finish(ctx, err)
	return err
}

// Warnings returns the post-exit hook failures of a finished launch
func (l *Launch) Warnings() []error {
	return l.warnings
}

func (l *Launch) finish(ctx context.Context, result error) {
	l.once.Do(func() {
		s := l.service
		code := 0
		if c, ok := domain.ExitCode(result); ok {
			code = c
		} else if result != nil {
			code = -1
		}
		killed := l.Process.State() == StateKilled

		recordCtx := context.WithoutCancel(ctx)
		if err := s.db.RecordLaunchEnd(recordCtx, l.ID, s.clock.Now(), code, killed); err != nil {
			s.logger.Warn("could not record launch end", "launch", l.ID, "error", err)
		}
		if !l.skipHooks {
			l.warnings = s.launcher.RunPostExit(recordCtx, l.Profile)
		}
	})
}

func isDone(p *Process) bool {
	select {
	case <-p.Done():
		return true
	default:
		return false
	}
}
