package db

import "fmt"

const currentVersion = 3

func (d *DB) migrate() error {
	// Create migrations table if it doesn't exist
	if _, err := d.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	// Get current version
	var version int
	err := d.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return fmt.Errorf("getting schema version: %w", err)
	}
	if version > currentVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentVersion)
	}

	// Apply migrations
	migrations := []func(*DB) error{
		migrateV1,
		migrateV2,
		migrateV3,
	}

	for i := version; i < len(migrations); i++ {
		if err := migrations[i](d); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := d.Exec("INSERT INTO schema_migrations (version) VALUES (?)", i+1); err != nil {
			return fmt.Errorf("recording migration %d: %w", i+1, err)
		}
	}

	return nil
}

func migrateV1(d *DB) error {
	statements := []string{
		`CREATE TABLE kv (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE versions (
			id TEXT PRIMARY KEY,
			java_component TEXT,
			java_major INTEGER,
			main_class TEXT NOT NULL DEFAULT '',
			classpath TEXT NOT NULL DEFAULT '',
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, stmt := range statements {
		if _, err := d.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:30], err)
		}
	}

	return nil
}

func migrateV2(d *DB) error {
	// Stored player accounts; is_default marks the one used when none is named
	_, err := d.Exec(`
		CREATE TABLE accounts (
			username TEXT PRIMARY KEY,
			player_id TEXT NOT NULL,
			access_token TEXT NOT NULL DEFAULT '',
			is_default INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func migrateV3(d *DB) error {
	statements := []string{
		`CREATE TABLE launches (
			id TEXT PRIMARY KEY,
			profile_path TEXT NOT NULL,
			game_version TEXT NOT NULL,
			java_path TEXT NOT NULL DEFAULT '',
			pid INTEGER,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			exit_code INTEGER,
			killed INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX idx_launches_profile ON launches(profile_path, started_at)`,
	}

	for _, stmt := range statements {
		if _, err := d.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:30], err)
		}
	}

	return nil
}
