package models

import (
	"fmt"
	"time"
)

// Password modes for an account.
const (
	PasswordManual = "manual"
	PasswordDerive = "derive"
)

// Poll speed tiers and their intervals.
const (
	SpeedHigh   = "high"
	SpeedNormal = "normal"
	SpeedSlow   = "slow"
)

// PollInterval returns the poll interval for a speed tier.
// Unknown tiers fall back to the normal interval.
func PollInterval(speed string) time.Duration {
	switch speed {
	case SpeedHigh:
		return 30 * time.Second
	case SpeedSlow:
		return 90 * time.Second
	default:
		return 60 * time.Second
	}
}

// Account represents a watched IMAP mailbox and its polling configuration
type Account struct {
	ID             int64     `db:"id"`
	Name           string    `db:"name"`
	Enabled        bool      `db:"enabled"`
	Host           string    `db:"host"`
	Port           int       `db:"port"`
	Username       string    `db:"username"`
	Password       string    `db:"password"`        // Used when PasswordMode is "manual"
	PasswordMode   string    `db:"password_mode"`   // "manual" or "derive"
	PasswordPrefix string    `db:"password_prefix"` // "derive" mode only
	PasswordSuffix string    `db:"password_suffix"` // "derive" mode only
	PollSpeed      string    `db:"poll_speed"`      // "high", "normal" or "slow"
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Addr returns the host:port dial address of the account's IMAP server
func (a *Account) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}
