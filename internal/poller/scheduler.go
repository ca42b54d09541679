package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skobu/mailrelay/internal/imapx"
	"github.com/skobu/mailrelay/internal/parser"
	"github.com/skobu/mailrelay/pkg/models"
)

// An in-flight tick may not outlive this bound; without it a wedged
// connection would pin the account's busy flag forever.
const tickTimeout = 5 * time.Minute

// Store is the persistence surface the scheduler polls against
type Store interface {
	GetEnabledAccounts(ctx context.Context) ([]*models.Account, error)
	GetEnabledRules(ctx context.Context, accountID int64) ([]*models.Rule, error)
	GetCursor(ctx context.Context, accountID int64) (*models.Cursor, bool, error)
	SetCursor(ctx context.Context, accountID int64, lastUID uint32, polledAt time.Time) error
	TouchCursor(ctx context.Context, accountID int64, polledAt time.Time) error
	IsProcessed(ctx context.Context, accountID int64, uid string) (bool, error)
	RecordDelivery(ctx context.Context, rec *models.DeliveryRecord) error
}

// Mailbox is one usable mailbox connection for the duration of a tick
type Mailbox interface {
	Noop(ctx context.Context) error
	AcquireMailbox(ctx context.Context) (func(), error)
	UIDNext(ctx context.Context) (uint32, error)
	FetchSince(ctx context.Context, sinceUID uint32) ([]*imapx.RawMessage, error)
}

// ConnSource hands out mailbox connections per account
type ConnSource interface {
	Acquire(ctx context.Context, account *models.Account) (Mailbox, error)
	Release(accountID int64)
}

// Sender delivers rendered text to a chat room
type Sender interface {
	SendMessage(ctx context.Context, roomID, body string) error
}

// ManagerSource adapts an imapx.Manager to ConnSource
type ManagerSource struct {
	*imapx.Manager
}

// Acquire returns the manager's connection as a Mailbox
func (s ManagerSource) Acquire(ctx context.Context, account *models.Account) (Mailbox, error) {
	return s.Manager.Acquire(ctx, account)
}

// Scheduler owns one periodic poll task per enabled account. All state is
// instance-scoped so multiple schedulers can coexist.
type Scheduler struct {
	store      Store
	conns      ConnSource
	sender     Sender
	normalizer *parser.Normalizer
	logger     *slog.Logger

	mu      sync.Mutex
	pollers map[int64]*accountPoller
}

type accountPoller struct {
	account  *models.Account
	interval time.Duration
	stop     chan struct{}
	polling  atomic.Bool

	mu        sync.Mutex
	status    string
	lastError string
}

func (ap *accountPoller) setRunning() {
	ap.mu.Lock()
	defer ap.mu.Unlock()
	ap.status = models.PollerRunning
	ap.lastError = ""
}

func (ap *accountPoller) setError(err error) {
	ap.mu.Lock()
	defer ap.mu.Unlock()
	ap.status = models.PollerError
	ap.lastError = err.Error()
}

func (ap *accountPoller) state() models.PollerState {
	ap.mu.Lock()
	defer ap.mu.Unlock()
	return models.PollerState{
		Status:    ap.status,
		IsPolling: ap.polling.Load(),
		LastError: ap.lastError,
	}
}

// NewScheduler creates a new poll scheduler
func NewScheduler(store Store, conns ConnSource, sender Sender, normalizer *parser.Normalizer, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		store:      store,
		conns:      conns,
		sender:     sender,
		normalizer: normalizer,
		logger:     logger.With("component", "poller"),
		pollers:    make(map[int64]*accountPoller),
	}
}

// Start begins polling an account on its speed-tier interval. Starting an
// account that is already polled is a no-op.
func (s *Scheduler) Start(account *models.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pollers[account.ID]; exists {
		s.logger.Warn("poller already running", "account", account.Name)
		return
	}

	ap := &accountPoller{
		account:  account,
		interval: models.PollInterval(account.PollSpeed),
		stop:     make(chan struct{}),
		status:   models.PollerRunning,
	}
	s.pollers[account.ID] = ap

	s.logger.Info("poller started", "account", account.Name, "speed", account.PollSpeed, "interval", ap.interval)
	go s.run(ap)
}

// run executes an immediate first poll, then polls on a fixed interval
// until the account is stopped
func (s *Scheduler) run(ap *accountPoller) {
	s.pollOnce(ap)

	ticker := time.NewTicker(ap.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ap.stop:
			return
		case <-ticker.C:
			s.pollOnce(ap)
		}
	}
}

// Stop halts future ticks for an account. A tick already in flight finishes
// on its own.
func (s *Scheduler) Stop(accountID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ap, exists := s.pollers[accountID]
	if !exists {
		return
	}
	close(ap.stop)
	delete(s.pollers, accountID)

	ap.mu.Lock()
	ap.status = models.PollerStopped
	ap.mu.Unlock()

	s.logger.Info("poller stopped", "account_id", accountID)
}

// Restart is stop-then-start, picking up changed account settings
func (s *Scheduler) Restart(account *models.Account) {
	s.Stop(account.ID)
	s.Start(account)
}

// StartAll starts polling every currently enabled account. Accounts enabled
// later must be started individually.
func (s *Scheduler) StartAll(ctx context.Context) error {
	accounts, err := s.store.GetEnabledAccounts(ctx)
	if err != nil {
		return err
	}
	for _, account := range accounts {
		s.Start(account)
	}
	s.logger.Info("pollers started", "count", len(accounts))
	return nil
}

// StopAll stops every account's poller
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.pollers))
	for id := range s.pollers {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.Stop(id)
	}
	s.logger.Info("all pollers stopped")
}

// Status returns the poll state of one account. Unknown accounts report
// stopped.
func (s *Scheduler) Status(accountID int64) models.PollerState {
	s.mu.Lock()
	ap, exists := s.pollers[accountID]
	s.mu.Unlock()

	if !exists {
		return models.PollerState{Status: models.PollerStopped}
	}
	return ap.state()
}

// AllStatuses returns the poll state of every started account
func (s *Scheduler) AllStatuses() map[int64]models.PollerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make(map[int64]models.PollerState, len(s.pollers))
	for id, ap := range s.pollers {
		statuses[id] = ap.state()
	}
	return statuses
}
