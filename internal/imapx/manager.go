package imapx

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/skobu/mailrelay/pkg/models"
)

// Manager owns at most one live IMAP connection per account. Acquire hands
// out the cached connection while it stays usable and reconnects otherwise.
type Manager struct {
	mu          sync.Mutex
	clients     map[int64]*Client
	dialTimeout time.Duration
	logger      *slog.Logger
}

// NewManager creates a new connection manager
func NewManager(dialTimeout time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		clients:     make(map[int64]*Client),
		dialTimeout: dialTimeout,
		logger:      logger.With("component", "imap_manager"),
	}
}

// Acquire returns a usable connection for the account, reusing the cached
// one when possible. An unusable cached connection is closed and replaced.
func (m *Manager) Acquire(ctx context.Context, account *models.Account) (*Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cached, ok := m.clients[account.ID]; ok {
		if cached.Usable() {
			return cached, nil
		}
		m.logger.Warn("cached connection not usable, reconnecting", "account", account.Name)
		cached.Close()
		delete(m.clients, account.ID)
	}

	password, err := Password(account)
	if err != nil {
		return nil, err
	}

	client := NewClient(ClientConfig{
		Addr:        account.Addr(),
		Username:    account.Username,
		Password:    password,
		DialTimeout: m.dialTimeout,
	}, m.logger)

	if err := client.Connect(ctx); err != nil {
		return nil, err
	}

	m.clients[account.ID] = client
	m.logger.Info("IMAP connection established", "account", account.Name, "server", account.Addr())
	return client, nil
}

// Release closes and discards the cached connection of an account, if any.
// The next Acquire reconnects.
func (m *Manager) Release(accountID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if client, ok := m.clients[accountID]; ok {
		client.Close()
		delete(m.clients, accountID)
		m.logger.Info("IMAP connection released", "account_id", accountID)
	}
}

// ReleaseAll closes every cached connection
func (m *Manager) ReleaseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, client := range m.clients {
		client.Close()
		delete(m.clients, id)
	}
	m.logger.Info("all IMAP connections released")
}

// TestResult is the outcome of a connectivity test
type TestResult struct {
	OK           bool   `json:"ok"`
	MessageCount uint32 `json:"messageCount"`
	Error        string `json:"error,omitempty"`
}

// Test opens (or reuses) a connection and inspects the mailbox message
// count. Failures are reported in the result, never raised.
func (m *Manager) Test(ctx context.Context, account *models.Account) TestResult {
	client, err := m.Acquire(ctx, account)
	if err != nil {
		m.logger.Error("connection test failed", "account", account.Name, "error", err)
		return TestResult{Error: err.Error()}
	}

	count, err := client.MessageCount(ctx)
	if err != nil {
		m.logger.Error("connection test failed", "account", account.Name, "error", err)
		if IsTransient(err) {
			m.Release(account.ID)
		}
		return TestResult{Error: err.Error()}
	}

	m.logger.Info("connection test ok", "account", account.Name, "messages", count)
	return TestResult{OK: true, MessageCount: count}
}
