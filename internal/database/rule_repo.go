package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/skobu/mailrelay/pkg/models"
)

// CreateRule creates a new routing rule
func (db *DB) CreateRule(ctx context.Context, rule *models.Rule) error {
	query := `
		INSERT INTO rules (name, enabled, account_id, match_mode, conditions, chatwork_room_id, message_template, priority, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	conditions := rule.Conditions
	if conditions == "" {
		conditions = "[]"
	}
	id, err := db.insertID(ctx, query,
		rule.Name,
		rule.Enabled,
		rule.AccountID,
		rule.MatchMode,
		conditions,
		rule.ChatworkRoomID,
		rule.MessageTemplate,
		rule.Priority,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	rule.ID = id
	rule.Conditions = conditions
	rule.CreatedAt = now
	rule.UpdatedAt = now
	return nil
}

// GetRuleByID returns a rule by ID
func (db *DB) GetRuleByID(ctx context.Context, id int64) (*models.Rule, error) {
	var rule models.Rule
	query := db.Rebind(`SELECT * FROM rules WHERE id = ?`)
	err := db.GetContext(ctx, &rule, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return &rule, nil
}

// GetAllRules returns every rule, highest priority first
func (db *DB) GetAllRules(ctx context.Context) ([]*models.Rule, error) {
	var rules []*models.Rule
	query := `SELECT * FROM rules ORDER BY priority DESC, id ASC`
	err := db.SelectContext(ctx, &rules, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get rules: %w", err)
	}
	return rules, nil
}

// GetEnabledRules returns the enabled rules that apply to an account:
// rules scoped to it plus account-agnostic ones, highest priority first,
// ties broken by id ascending.
func (db *DB) GetEnabledRules(ctx context.Context, accountID int64) ([]*models.Rule, error) {
	var rules []*models.Rule
	query := db.Rebind(`
		SELECT * FROM rules
		WHERE enabled = true AND (account_id IS NULL OR account_id = ?)
		ORDER BY priority DESC, id ASC
	`)
	err := db.SelectContext(ctx, &rules, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get enabled rules: %w", err)
	}
	return rules, nil
}

// UpdateRule updates every mutable rule field
func (db *DB) UpdateRule(ctx context.Context, rule *models.Rule) error {
	query := db.Rebind(`
		UPDATE rules
		SET name = ?, enabled = ?, account_id = ?, match_mode = ?, conditions = ?,
		    chatwork_room_id = ?, message_template = ?, priority = ?, updated_at = ?
		WHERE id = ?
	`)
	now := time.Now()
	_, err := db.ExecContext(ctx, query,
		rule.Name,
		rule.Enabled,
		rule.AccountID,
		rule.MatchMode,
		rule.Conditions,
		rule.ChatworkRoomID,
		rule.MessageTemplate,
		rule.Priority,
		now,
		rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}
	rule.UpdatedAt = now
	return nil
}

// DeleteRule deletes a rule
func (db *DB) DeleteRule(ctx context.Context, id int64) error {
	query := db.Rebind(`DELETE FROM rules WHERE id = ?`)
	_, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	return nil
}
