package database

import (
	"context"
	"fmt"
	"time"

	"github.com/skobu/mailrelay/pkg/models"
)

// IsProcessed reports whether any delivery record exists for the
// (account, message) pair
func (db *DB) IsProcessed(ctx context.Context, accountID int64, uid string) (bool, error) {
	var n int
	query := db.Rebind(`SELECT COUNT(*) FROM processed_emails WHERE account_id = ? AND imap_uid = ?`)
	if err := db.GetContext(ctx, &n, query, accountID, uid); err != nil {
		return false, fmt.Errorf("failed to check processed email: %w", err)
	}
	return n > 0, nil
}

// RecordDelivery appends one delivery record. Inserting a duplicate
// (account, message, rule) entry is a no-op, not an error.
func (db *DB) RecordDelivery(ctx context.Context, rec *models.DeliveryRecord) error {
	query := db.Rebind(`
		INSERT INTO processed_emails (account_id, imap_uid, rule_id, sender, subject, status, error_message, chatwork_room_id, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id, imap_uid, rule_id) DO NOTHING
	`)
	now := time.Now()
	_, err := db.ExecContext(ctx, query,
		rec.AccountID,
		rec.UID,
		rec.RuleID,
		rec.Sender,
		rec.Subject,
		rec.Status,
		rec.ErrorMessage,
		rec.ChatworkRoomID,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to record delivery: %w", err)
	}
	rec.ProcessedAt = now
	return nil
}

// RecentDeliveries returns the newest delivery records, optionally filtered
// by account (0 = all accounts) and status ("" = all statuses)
func (db *DB) RecentDeliveries(ctx context.Context, accountID int64, status string, limit, offset int) ([]*models.DeliveryRecord, error) {
	query := `SELECT * FROM processed_emails`
	var conditions []string
	var params []interface{}

	if accountID != 0 {
		conditions = append(conditions, "account_id = ?")
		params = append(params, accountID)
	}
	if status != "" {
		conditions = append(conditions, "status = ?")
		params = append(params, status)
	}
	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY processed_at DESC, id DESC LIMIT ? OFFSET ?"
	params = append(params, limit, offset)

	var records []*models.DeliveryRecord
	if err := db.SelectContext(ctx, &records, db.Rebind(query), params...); err != nil {
		return nil, fmt.Errorf("failed to get deliveries: %w", err)
	}
	return records, nil
}

// DeliveryStats aggregates delivery outcomes of the last 24 hours,
// optionally for a single account (0 = all accounts)
func (db *DB) DeliveryStats(ctx context.Context, accountID int64) (*models.DeliveryStats, error) {
	query := `SELECT status, COUNT(*) AS count FROM processed_emails WHERE processed_at >= ?`
	params := []interface{}{time.Now().Add(-24 * time.Hour)}

	if accountID != 0 {
		query += " AND account_id = ?"
		params = append(params, accountID)
	}
	query += " GROUP BY status"

	rows := []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}{}
	if err := db.SelectContext(ctx, &rows, db.Rebind(query), params...); err != nil {
		return nil, fmt.Errorf("failed to get delivery stats: %w", err)
	}

	stats := &models.DeliveryStats{}
	for _, row := range rows {
		switch row.Status {
		case models.StatusSent:
			stats.Sent = row.Count
		case models.StatusFailed:
			stats.Failed = row.Count
		case models.StatusSkipped:
			stats.Skipped = row.Count
		}
	}
	return stats, nil
}
