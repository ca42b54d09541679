package models

import "time"

// Delivery statuses.
const (
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// DeliveryRecord is one append-only audit entry per (account, message, rule).
// Any record for (AccountID, UID) also serves as durable proof that the
// message has been evaluated, so it is never reprocessed. RuleID is 0 when
// no rule matched.
type DeliveryRecord struct {
	ID             int64     `db:"id"`
	AccountID      int64     `db:"account_id"`
	UID            string    `db:"imap_uid"` // IMAP UID as string key
	RuleID         int64     `db:"rule_id"`
	Sender         string    `db:"sender"`
	Subject        string    `db:"subject"`
	Status         string    `db:"status"`
	ErrorMessage   string    `db:"error_message"`
	ChatworkRoomID string    `db:"chatwork_room_id"`
	ProcessedAt    time.Time `db:"processed_at"`
}

// DeliveryStats aggregates delivery outcomes over the last 24 hours
type DeliveryStats struct {
	Sent    int `db:"-" json:"sent"`
	Failed  int `db:"-" json:"failed"`
	Skipped int `db:"-" json:"skipped"`
}

// Cursor is the per-account high-water mark. Messages with UID less than or
// equal to LastUID are never fetched again.
type Cursor struct {
	AccountID    int64      `db:"account_id"`
	LastUID      uint32     `db:"last_uid"`
	LastPolledAt *time.Time `db:"last_poll_at"`
}
