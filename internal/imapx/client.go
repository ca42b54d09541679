package imapx

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

// ErrNotConnected is returned when a mailbox command is issued on a closed
// connection
var ErrNotConnected = fmt.Errorf("not connected")

// RawMessage is one fetched message before normalization
type RawMessage struct {
	UID      uint32
	Envelope *imap.Envelope
	Source   []byte
}

// ClientConfig configuration for an IMAP connection
type ClientConfig struct {
	Addr        string // host:port
	Username    string
	Password    string
	DialTimeout time.Duration
}

// Client is one IMAP connection to a single mailbox. Commands are serialized
// on the connection; AcquireMailbox additionally provides a cooperative lock
// so a whole poll tick owns the mailbox without interleaving.
type Client struct {
	config    ClientConfig
	client    *client.Client
	logger    *slog.Logger
	mu        sync.Mutex
	boxMu     sync.Mutex
	connected bool
}

// NewClient creates a new IMAP client
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	return &Client{
		config: cfg,
		logger: logger.With("username", cfg.Username),
	}
}

// Connect connects to the IMAP server and authenticates
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	c.logger.Info("connecting to IMAP server", "server", c.config.Addr)

	timeout := c.config.DialTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", c.config.Addr, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	imapClient, err := client.New(conn)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create IMAP client: %w", err)
	}

	if err := imapClient.Login(c.config.Username, c.config.Password); err != nil {
		imapClient.Logout()
		return fmt.Errorf("failed to login: %w", err)
	}

	c.client = imapClient
	c.connected = true
	c.logger.Info("connected to IMAP server")

	return nil
}

// Usable reports whether the connection can still serve commands
func (c *Client) Usable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected && c.client != nil
}

// AcquireMailbox takes the per-connection mailbox lock and selects INBOX.
// The caller holds the mailbox until it calls the returned release func.
// The lock only keeps this process from interleaving mailbox commands on
// one connection; it is no cross-process exclusion.
func (c *Client) AcquireMailbox(ctx context.Context) (func(), error) {
	c.boxMu.Lock()
	if _, err := c.selectInbox(); err != nil {
		c.boxMu.Unlock()
		return nil, err
	}
	return func() { c.boxMu.Unlock() }, nil
}

// Noop issues a NOOP keep-alive
func (c *Client) Noop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected || c.client == nil {
		return ErrNotConnected
	}
	if err := c.client.Noop(); err != nil {
		c.connected = false
		return fmt.Errorf("noop failed: %w", err)
	}
	return nil
}

func (c *Client) selectInbox() (*imap.MailboxStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected || c.client == nil {
		return nil, ErrNotConnected
	}
	mbox, err := c.client.Select("INBOX", false)
	if err != nil {
		c.connected = false
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}
	return mbox, nil
}

// MessageCount returns the number of messages currently in INBOX
func (c *Client) MessageCount(ctx context.Context) (uint32, error) {
	mbox, err := c.selectInbox()
	if err != nil {
		return 0, err
	}
	return mbox.Messages, nil
}

// UIDNext resolves the mailbox tail: the UID the next arriving message will
// be assigned. Falls back to scanning existing UIDs when the server omits
// UIDNEXT from the SELECT response.
func (c *Client) UIDNext(ctx context.Context) (uint32, error) {
	mbox, err := c.selectInbox()
	if err != nil {
		return 0, err
	}
	if mbox.UidNext > 0 {
		return mbox.UidNext, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected || c.client == nil {
		return 0, ErrNotConnected
	}
	uids, err := c.client.UidSearch(imap.NewSearchCriteria())
	if err != nil {
		return 0, fmt.Errorf("failed to search: %w", err)
	}
	var highest uint32
	for _, uid := range uids {
		if uid > highest {
			highest = uid
		}
	}
	return highest + 1, nil
}

// FetchSince fetches every message with UID > sinceUID, envelope plus raw
// source, in ascending UID order. Servers are allowed to return a superset
// of the requested range; callers must re-check UIDs against their cursor.
func (c *Client) FetchSince(ctx context.Context, sinceUID uint32) ([]*RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected || c.client == nil {
		return nil, ErrNotConnected
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddRange(sinceUID+1, 0) // 0 means * (all)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 100)
	done := make(chan error, 1)

	go func() {
		done <- c.client.UidFetch(seqSet, items, messages)
	}()

	var raws []*RawMessage
	for msg := range messages {
		raw := &RawMessage{UID: msg.Uid, Envelope: msg.Envelope}
		if body := msg.GetBody(section); body != nil {
			source, err := io.ReadAll(body)
			if err != nil {
				c.logger.Warn("failed to read message body", "uid", msg.Uid, "error", err)
			} else {
				raw.Source = source
			}
		}
		raws = append(raws, raw)
	}

	if err := <-done; err != nil {
		c.connected = false
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}

	sort.Slice(raws, func(i, j int) bool { return raws[i].UID < raws[j].UID })
	return raws, nil
}

// Close logs out and drops the connection. Logout is given a short grace
// period before the connection is torn down hard.
func (c *Client) Close() {
	c.mu.Lock()
	imapClient := c.client
	c.client = nil
	c.connected = false
	c.mu.Unlock()

	if imapClient == nil {
		return
	}

	done := make(chan struct{})
	go func() {
		imapClient.Logout()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		imapClient.Terminate()
	}
}
