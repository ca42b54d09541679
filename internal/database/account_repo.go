package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/skobu/mailrelay/pkg/models"
)

// ErrNotFound is returned when a record is not found
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists is returned when trying to insert a duplicate record
var ErrAlreadyExists = errors.New("record already exists")

// CreateAccount creates a new mailbox account
func (db *DB) CreateAccount(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (name, enabled, host, port, username, password, password_mode, password_prefix, password_suffix, poll_speed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	id, err := db.insertID(ctx, query,
		account.Name,
		account.Enabled,
		account.Host,
		account.Port,
		account.Username,
		account.Password,
		account.PasswordMode,
		account.PasswordPrefix,
		account.PasswordSuffix,
		account.PollSpeed,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	account.ID = id
	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

// GetAccountByID returns an account by ID
func (db *DB) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	var account models.Account
	query := db.Rebind(`SELECT * FROM accounts WHERE id = ?`)
	err := db.GetContext(ctx, &account, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// GetAllAccounts returns every account
func (db *DB) GetAllAccounts(ctx context.Context) ([]*models.Account, error) {
	var accounts []*models.Account
	query := `SELECT * FROM accounts ORDER BY id ASC`
	err := db.SelectContext(ctx, &accounts, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}
	return accounts, nil
}

// GetEnabledAccounts returns all enabled accounts
func (db *DB) GetEnabledAccounts(ctx context.Context) ([]*models.Account, error) {
	var accounts []*models.Account
	query := `SELECT * FROM accounts WHERE enabled = true ORDER BY id ASC`
	err := db.SelectContext(ctx, &accounts, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get enabled accounts: %w", err)
	}
	return accounts, nil
}

// UpdateAccount updates every mutable account field
func (db *DB) UpdateAccount(ctx context.Context, account *models.Account) error {
	query := db.Rebind(`
		UPDATE accounts
		SET name = ?, enabled = ?, host = ?, port = ?, username = ?, password = ?,
		    password_mode = ?, password_prefix = ?, password_suffix = ?, poll_speed = ?, updated_at = ?
		WHERE id = ?
	`)
	now := time.Now()
	_, err := db.ExecContext(ctx, query,
		account.Name,
		account.Enabled,
		account.Host,
		account.Port,
		account.Username,
		account.Password,
		account.PasswordMode,
		account.PasswordPrefix,
		account.PasswordSuffix,
		account.PollSpeed,
		now,
		account.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	account.UpdatedAt = now
	return nil
}

// SetAccountEnabled sets the enabled flag of an account
func (db *DB) SetAccountEnabled(ctx context.Context, id int64, enabled bool) error {
	query := db.Rebind(`UPDATE accounts SET enabled = ?, updated_at = ? WHERE id = ?`)
	_, err := db.ExecContext(ctx, query, enabled, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set account enabled: %w", err)
	}
	return nil
}

// DeleteAccount deletes an account. Cascades to rules scoped to it, its
// poller state and its delivery log.
func (db *DB) DeleteAccount(ctx context.Context, id int64) error {
	query := db.Rebind(`DELETE FROM accounts WHERE id = ?`)
	_, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}
