package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/DonovanMods/instance-launcher/internal/domain"
)

// StoredAccount represents player credentials stored in the database
type StoredAccount struct {
	domain.Credentials
	IsDefault bool
	UpdatedAt time.Time
}

// SaveAccount saves or updates an account. The first saved account becomes the default.
func (d *DB) SaveAccount(ctx context.Context, creds domain.Credentials) error {
	_, err := d.ExecContext(ctx, `
        INSERT INTO accounts (username, player_id, access_token, is_default, updated_at)
        VALUES (?, ?, ?, (SELECT COUNT(*) = 0 FROM accounts), CURRENT_TIMESTAMP)
        ON CONFLICT(username) DO UPDATE SET
            player_id = excluded.player_id,
            access_token = excluded.access_token,
            updated_at = CURRENT_TIMESTAMP
    `, creds.Username, creds.ID, creds.AccessToken)
	if err != nil {
		return fmt.Errorf("saving account: %w", err)
	}
	return nil
}

// GetAccount retrieves an account by username.
// Returns domain.ErrAccountNotFound if there is none.
func (d *DB) GetAccount(ctx context.Context, username string) (*StoredAccount, error) {
	return d.getAccount(ctx, `
        SELECT username, player_id, access_token, is_default, updated_at
        FROM accounts
        WHERE username = ?
    `, username)
}

// GetDefaultAccount retrieves the default account.
// Returns domain.ErrAccountNotFound if no account is stored.
func (d *DB) GetDefaultAccount(ctx context.Context) (*StoredAccount, error) {
	return d.getAccount(ctx, `
        SELECT username, player_id, access_token, is_default, updated_at
        FROM accounts
        ORDER BY is_default DESC, updated_at DESC
        LIMIT 1
    `)
}

func (d *DB) getAccount(ctx context.Context, query string, args ...any) (*StoredAccount, error) {
	var acct StoredAccount
	err := d.QueryRowContext(ctx, query, args...).Scan(
		&acct.Username, &acct.ID, &acct.AccessToken, &acct.IsDefault, &acct.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting account: %w", err)
	}
	return &acct, nil
}

// ListAccounts returns all stored accounts ordered by username
func (d *DB) ListAccounts(ctx context.Context) ([]StoredAccount, error) {
	rows, err := d.QueryContext(ctx, `
        SELECT username, player_id, access_token, is_default, updated_at
        FROM accounts
        ORDER BY username
    `)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var accounts []StoredAccount
	for rows.Next() {
		var acct StoredAccount
		if err := rows.Scan(&acct.Username, &acct.ID, &acct.AccessToken, &acct.IsDefault, &acct.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		accounts = append(accounts, acct)
	}

	return accounts, rows.Err()
}

// SetDefaultAccount marks username as the default account
func (d *DB) SetDefaultAccount(ctx context.Context, username string) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	result, err := tx.ExecContext(ctx, "UPDATE accounts SET is_default = 1 WHERE username = ?", username)
	if err != nil {
		return fmt.Errorf("setting default account: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrAccountNotFound
	}
	if _, err := tx.ExecContext(ctx, "UPDATE accounts SET is_default = 0 WHERE username != ?", username); err != nil {
		return fmt.Errorf("clearing default account: %w", err)
	}

	return tx.Commit()
}

// DeleteAccount removes an account
func (d *DB) DeleteAccount(ctx context.Context, username string) error {
	result, err := d.ExecContext(ctx, "DELETE FROM accounts WHERE username = ?", username)
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}
