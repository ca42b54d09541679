package parser

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skobu/mailrelay/internal/imapx"
)

func testNormalizer() *Normalizer {
	return NewNormalizer(slog.New(slog.DiscardHandler))
}

func addr(name, mailbox, host string) *imap.Address {
	return &imap.Address{PersonalName: name, MailboxName: mailbox, HostName: host}
}

func plainSource(subject, body string) []byte {
	return []byte("From: Alice <alice@example.com>\r\n" +
		"To: bob@example.com\r\n" +
		"Subject: " + subject + "\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		body + "\r\n")
}

func htmlSource(body string) []byte {
	return []byte("From: Alice <alice@example.com>\r\n" +
		"Subject: html\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		body + "\r\n")
}

func TestNormalizeEnvelopeFields(t *testing.T) {
	date := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	raw := &imapx.RawMessage{
		UID: 42,
		Envelope: &imap.Envelope{
			Subject: "Invoice",
			Date:    date,
			From:    []*imap.Address{addr("Alice", "alice", "example.com")},
			Cc:      []*imap.Address{addr("", "carol", "example.com")},
		},
		Source: plainSource("Invoice", "hello"),
	}

	msg, err := testNormalizer().Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), msg.UID)
	assert.Equal(t, "Invoice", msg.Subject)
	assert.Equal(t, "2026-03-04T05:06:07Z", msg.Date)
	assert.Equal(t, "alice@example.com", msg.SenderEmail)
	assert.Equal(t, "Alice", msg.SenderName)
	assert.Equal(t, "Alice <alice@example.com>", msg.Sender)
	assert.Equal(t, "carol@example.com", msg.CC)
	assert.Equal(t, "", msg.BCC)
	assert.Equal(t, "hello", msg.Body)
}

func TestNormalizeMissingSubject(t *testing.T) {
	raw := &imapx.RawMessage{UID: 1, Envelope: &imap.Envelope{}}
	msg, err := testNormalizer().Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "(no subject)", msg.Subject)
}

func TestNormalizePrefersPlainText(t *testing.T) {
	raw := &imapx.RawMessage{UID: 1, Source: plainSource("x", "plain body")}
	msg, err := testNormalizer().Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "plain body", msg.Body)
}

func TestNormalizeHTMLFallback(t *testing.T) {
	raw := &imapx.RawMessage{UID: 1, Source: htmlSource("<p>first</p><p>second &amp; third</p>")}
	msg, err := testNormalizer().Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond & third", msg.Body)
}

func TestNormalizeSnippetTruncated(t *testing.T) {
	body := strings.Repeat("a", 150)
	raw := &imapx.RawMessage{UID: 1, Source: plainSource("x", body)}
	msg, err := testNormalizer().Normalize(raw)
	require.NoError(t, err)
	assert.Len(t, msg.Snippet, 100)
	assert.Len(t, msg.Body, 150)
}

func TestNormalizeParseFailureSoft(t *testing.T) {
	// A header line without a colon is malformed.
	raw := &imapx.RawMessage{
		UID:      7,
		Envelope: &imap.Envelope{Subject: "looks fine"},
		Source:   []byte("this header line has no colon\r\n\r\nbody\r\n"),
	}
	msg, err := testNormalizer().Normalize(raw)
	require.Error(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, uint32(7), msg.UID)
	assert.Equal(t, "(parse failed)", msg.Subject)
	assert.Empty(t, msg.Body)
	assert.Empty(t, msg.SenderEmail)
}

func TestNormalizeNoSource(t *testing.T) {
	raw := &imapx.RawMessage{UID: 1, Envelope: &imap.Envelope{Subject: "s"}}
	msg, err := testNormalizer().Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "s", msg.Subject)
	assert.Empty(t, msg.Body)
}
