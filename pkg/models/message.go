package models

// NormalizedMessage is the flattened form of one mail item, derived per
// fetch for matching and rendering. Never persisted.
type NormalizedMessage struct {
	UID         uint32
	Sender      string // "Name <addr>" display form
	SenderEmail string
	SenderName  string
	CC          string
	BCC         string
	Subject     string
	Date        string // RFC 3339, empty when the message carries no date
	Body        string // plain text, derived from HTML when no text part exists
	Snippet     string // first 100 runes of Body
}

// Field returns the message value a condition field selects.
// Unknown fields yield the empty string.
func (m *NormalizedMessage) Field(name string) string {
	switch name {
	case FieldSender:
		return m.SenderEmail
	case FieldSubject:
		return m.Subject
	case FieldBody:
		return m.Body
	}
	return ""
}
