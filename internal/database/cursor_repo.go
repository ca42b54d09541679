package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/skobu/mailrelay/pkg/models"
)

// GetCursor returns the poll cursor of an account. ok is false when the
// account has never been seeded (no row yet).
func (db *DB) GetCursor(ctx context.Context, accountID int64) (*models.Cursor, bool, error) {
	var cursor models.Cursor
	query := db.Rebind(`SELECT * FROM poller_state WHERE account_id = ?`)
	err := db.GetContext(ctx, &cursor, query, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cursor: %w", err)
	}
	return &cursor, true, nil
}

// SetCursor persists the high-water UID and last-poll time of an account,
// inserting the row on first use
func (db *DB) SetCursor(ctx context.Context, accountID int64, lastUID uint32, polledAt time.Time) error {
	query := db.Rebind(`
		INSERT INTO poller_state (account_id, last_uid, last_poll_at)
		VALUES (?, ?, ?)
		ON CONFLICT (account_id) DO UPDATE SET last_uid = excluded.last_uid, last_poll_at = excluded.last_poll_at
	`)
	_, err := db.ExecContext(ctx, query, accountID, lastUID, polledAt)
	if err != nil {
		return fmt.Errorf("failed to set cursor: %w", err)
	}
	return nil
}

// TouchCursor updates only the last-poll time, leaving the UID untouched
func (db *DB) TouchCursor(ctx context.Context, accountID int64, polledAt time.Time) error {
	query := db.Rebind(`UPDATE poller_state SET last_poll_at = ? WHERE account_id = ?`)
	_, err := db.ExecContext(ctx, query, polledAt, accountID)
	if err != nil {
		return fmt.Errorf("failed to touch cursor: %w", err)
	}
	return nil
}
