package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// LaunchRecord is one game launch of a profile
type LaunchRecord struct {
	ID          string
	ProfilePath string
	GameVersion string
	JavaPath    string
	PID         int
	StartedAt   time.Time
	EndedAt     *time.Time // Nil while running, or if the launcher exited first
	ExitCode    *int
	Killed      bool
}

// RecordLaunchStart stores a new running launch
func (d *DB) RecordLaunchStart(ctx context.Context, rec *LaunchRecord) error {
	_, err := d.ExecContext(ctx, `
		INSERT INTO launches (id, profile_path, game_version, java_path, pid, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.ProfilePath, rec.GameVersion, rec.JavaPath, rec.PID, rec.StartedAt.UTC())
	if err != nil {
		return fmt.Errorf("recording launch: %w", err)
	}
	return nil
}

// RecordLaunchEnd stores the outcome of a launch
func (d *DB) RecordLaunchEnd(ctx context.Context, id string, endedAt time.Time, exitCode int, killed bool) error {
	result, err := d.ExecContext(ctx, `
		UPDATE launches SET ended_at = ?, exit_code = ?, killed = ?
		WHERE id = ?
	`, endedAt.UTC(), exitCode, killed, id)
	if err != nil {
		return fmt.Errorf("recording launch end: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("recording launch end: no launch %s", id)
	}
	return nil
}

// GetLaunches returns the most recent launches of a profile, newest first
func (d *DB) GetLaunches(ctx context.Context, profilePath string, limit int) ([]LaunchRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := d.QueryContext(ctx, `
		SELECT id, profile_path, game_version, java_path, pid, started_at, ended_at, exit_code, killed
		FROM launches
		WHERE profile_path = ?
		ORDER BY started_at DESC
		LIMIT ?
	`, profilePath, limit)
	if err != nil {
		return nil, fmt.Errorf("querying launches: %w", err)
	}
	defer rows.Close()

	var launches []LaunchRecord
	for rows.Next() {
		var rec LaunchRecord
		var pid sql.NullInt64
		var endedAt sql.NullTime
		var exitCode sql.NullInt64
		if err := rows.Scan(
			&rec.ID, &rec.ProfilePath, &rec.GameVersion, &rec.JavaPath, &pid,
			&rec.StartedAt, &endedAt, &exitCode, &rec.Killed,
		); err != nil {
			return nil, fmt.Errorf("scanning launch: %w", err)
		}
		rec.PID = int(pid.Int64)
		if endedAt.Valid {
			t := endedAt.Time
			rec.EndedAt = &t
		}
		if exitCode.Valid {
			code := int(exitCode.Int64)
			rec.ExitCode = &code
		}
		launches = append(launches, rec)
	}

	return launches, rows.Err()
}

// DeleteLaunches removes the launch history of a profile
func (d *DB) DeleteLaunches(ctx context.Context, profilePath string) error {
	if _, err := d.ExecContext(ctx, "DELETE FROM launches WHERE profile_path = ?", profilePath); err != nil {
		return fmt.Errorf("deleting launches: %w", err)
	}
	return nil
}
