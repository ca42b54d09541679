package parser

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-message/mail"

	"github.com/skobu/mailrelay/internal/imapx"
	"github.com/skobu/mailrelay/pkg/models"
)

const (
	subjectMissing     = "(no subject)"
	subjectParseFailed = "(parse failed)"
	snippetRunes       = 100
)

// Normalizer flattens raw fetched messages into the record used for
// matching and rendering
type Normalizer struct {
	html   *HTMLParser
	logger *slog.Logger
}

// NewNormalizer creates a new message normalizer
func NewNormalizer(logger *slog.Logger) *Normalizer {
	return &Normalizer{
		html:   NewHTMLParser(),
		logger: logger.With("component", "normalizer"),
	}
}

// Normalize converts an envelope plus raw source into a NormalizedMessage.
// It fails soft: a malformed message yields a record with empty fields and
// the subject "(parse failed)", with the cause returned alongside, so one
// bad message never aborts a poll tick.
func (n *Normalizer) Normalize(raw *imapx.RawMessage) (*models.NormalizedMessage, error) {
	msg := &models.NormalizedMessage{UID: raw.UID, Subject: subjectMissing}

	if env := raw.Envelope; env != nil {
		if env.Subject != "" {
			msg.Subject = env.Subject
		}
		if !env.Date.IsZero() {
			msg.Date = env.Date.Format(time.RFC3339)
		}
		if len(env.From) > 0 {
			from := env.From[0]
			msg.SenderEmail = from.Address()
			msg.SenderName = from.PersonalName
			msg.Sender = formatAddress(from)
			if msg.SenderName == "" {
				msg.SenderName = msg.SenderEmail
			}
		}
		msg.CC = formatAddressList(env.Cc)
		msg.BCC = formatAddressList(env.Bcc)
	}

	body, err := n.extractBody(raw.Source)
	if err != nil {
		n.logger.Warn("failed to parse message", "uid", raw.UID, "error", err)
		return &models.NormalizedMessage{UID: raw.UID, Subject: subjectParseFailed}, err
	}
	msg.Body = body
	msg.Snippet = truncateRunes(body, snippetRunes)

	return msg, nil
}

// extractBody walks the MIME parts and prefers the plain-text body. When a
// message only carries HTML, the HTML is converted to text.
func (n *Normalizer) extractBody(source []byte) (string, error) {
	if len(source) == 0 {
		return "", nil
	}

	mr, err := mail.CreateReader(bytes.NewReader(source))
	if err != nil {
		return "", err
	}

	var bodyText, bodyHTML string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Keep whatever parts were readable.
			n.logger.Warn("failed to read message part", "error", err)
			break
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := header.ContentType()
		content, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain") && bodyText == "":
			bodyText = string(content)
		case strings.HasPrefix(contentType, "text/html") && bodyHTML == "":
			bodyHTML = string(content)
		}
	}

	if bodyText != "" {
		return strings.TrimSpace(bodyText), nil
	}
	if bodyHTML != "" {
		text, err := n.html.Parse(bodyHTML)
		if err != nil {
			return "", err
		}
		return text, nil
	}
	return "", nil
}

func formatAddress(addr *imap.Address) string {
	email := addr.Address()
	if addr.PersonalName != "" {
		return addr.PersonalName + " <" + email + ">"
	}
	return email
}

func formatAddressList(addrs []*imap.Address) string {
	if len(addrs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		parts = append(parts, formatAddress(addr))
	}
	return strings.Join(parts, ", ")
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
