package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/DonovanMods/instance-launcher/internal/domain"
)

// SaveVersion inserts or updates a version record
func (d *DB) SaveVersion(ctx context.Context, info *domain.VersionInfo) error {
	var component *string
	var major *int
	if info.JavaVersion != nil {
		component = &info.JavaVersion.Component
		major = &info.JavaVersion.MajorVersion
	}

	_, err := d.ExecContext(ctx, `
		INSERT INTO versions (id, java_component, java_major, main_class, classpath, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			java_component = excluded.java_component,
			java_major = excluded.java_major,
			main_class = excluded.main_class,
			classpath = excluded.classpath,
			updated_at = CURRENT_TIMESTAMP
	`, info.ID, component, major, info.MainClass, joinClasspath(info.Classpath))
	if err != nil {
		return fmt.Errorf("saving version: %w", err)
	}
	return nil
}

// Resolve returns the version record with the given ID.
// Returns domain.ErrVersionNotFound if there is no such record.
func (d *DB) Resolve(ctx context.Context, id string) (*domain.VersionInfo, error) {
	row := d.QueryRowContext(ctx, `
		SELECT id, java_component, java_major, main_class, classpath
		FROM versions
		WHERE id = ?
	`, id)

	info, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: invalid or unknown version: %s", domain.ErrVersionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting version: %w", err)
	}
	return info, nil
}

// ListVersions returns all version records ordered by ID
func (d *DB) ListVersions(ctx context.Context) ([]domain.VersionInfo, error) {
	rows, err := d.QueryContext(ctx, `
		SELECT id, java_component, java_major, main_class, classpath
		FROM versions
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying versions: %w", err)
	}
	defer rows.Close()

	var versions []domain.VersionInfo
	for rows.Next() {
		info, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning version: %w", err)
		}
		versions = append(versions, *info)
	}

	return versions, rows.Err()
}

// DeleteVersion removes a version record
func (d *DB) DeleteVersion(ctx context.Context, id string) error {
	result, err := d.ExecContext(ctx, "DELETE FROM versions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting version: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %s", domain.ErrVersionNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVersion(s scanner) (*domain.VersionInfo, error) {
	var info domain.VersionInfo
	var component sql.NullString
	var major sql.NullInt64
	var classpath string

	if err := s.Scan(&info.ID, &component, &major, &info.MainClass, &classpath); err != nil {
		return nil, err
	}

	if major.Valid {
		info.JavaVersion = &domain.JavaVersion{
			Component:    component.String,
			MajorVersion: int(major.Int64),
		}
	}
	info.Classpath = splitClasspath(classpath)

	return &info, nil
}

func joinClasspath(entries []string) string {
	return strings.Join(entries, string(os.PathListSeparator))
}

func splitClasspath(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, string(os.PathListSeparator))
}
