package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Rule match modes.
const (
	MatchAll = "all" // every condition must hold
	MatchAny = "any" // at least one condition must hold
)

// Condition fields.
const (
	FieldSender  = "sender"
	FieldSubject = "subject"
	FieldBody    = "body"
)

// Condition operators.
const (
	OpContains    = "contains"
	OpNotContains = "not_contains"
	OpEquals      = "equals"
	OpStartsWith  = "starts_with"
	OpEndsWith    = "ends_with"
	OpDomain      = "domain"
	OpMatches     = "matches"
)

// Condition is a single field/operator/value test composing a rule
type Condition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// Rule maps matching messages to a Chatwork room and message template.
// AccountID is NULL for rules that apply to every account.
type Rule struct {
	ID              int64         `db:"id"`
	Name            string        `db:"name"`
	Enabled         bool          `db:"enabled"`
	AccountID       sql.NullInt64 `db:"account_id"`
	MatchMode       string        `db:"match_mode"` // "all" or "any"
	Conditions      string        `db:"conditions"` // JSON array of Condition
	ChatworkRoomID  string        `db:"chatwork_room_id"`
	MessageTemplate string        `db:"message_template"` // empty = default template
	Priority        int           `db:"priority"`         // higher first
	CreatedAt       time.Time     `db:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at"`
}

// ParsedConditions decodes the stored conditions JSON. Malformed data is
// treated as an empty list, so the rule matches every message instead of
// going silent.
func (r *Rule) ParsedConditions() []Condition {
	if r.Conditions == "" {
		return nil
	}
	var conds []Condition
	if err := json.Unmarshal([]byte(r.Conditions), &conds); err != nil {
		return nil
	}
	return conds
}
