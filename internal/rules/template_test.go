package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skobu/mailrelay/pkg/models"
)

func TestRenderUnknownPlaceholderLeftVerbatim(t *testing.T) {
	m := &models.NormalizedMessage{Subject: "Hi"}
	out := Render("{{subject}} / {unknown}", m, nil, "")
	assert.Equal(t, "Hi / {unknown}", out)
}

func TestRenderBothPlaceholderForms(t *testing.T) {
	m := &models.NormalizedMessage{Subject: "Hi", SenderEmail: "a@b.c"}
	out := Render("{subject} from {{senderEmail}}", m, nil, "")
	assert.Equal(t, "Hi from a@b.c", out)
}

func TestRenderBlankTemplateUsesDefault(t *testing.T) {
	m := &models.NormalizedMessage{
		Subject:     "Invoice",
		SenderName:  "Alice",
		SenderEmail: "alice@example.com",
		Date:        "2026-01-02T03:04:05Z",
		Body:        "pay up",
	}
	out := Render("  ", m, nil, "")
	assert.Contains(t, out, "[title]Mail forwarded: Invoice[/title]")
	assert.Contains(t, out, "From: Alice (alice@example.com)")
	assert.Contains(t, out, "pay up")
}

func TestRenderCCAndBCCLinesConditional(t *testing.T) {
	withoutCC := Render("", &models.NormalizedMessage{Subject: "x"}, nil, "")
	assert.NotContains(t, withoutCC, "CC:")
	assert.NotContains(t, withoutCC, "BCC:")

	withCC := Render("", &models.NormalizedMessage{Subject: "x", CC: "c@d.e", BCC: "f@g.h"}, nil, "")
	assert.Contains(t, withCC, "CC: c@d.e\n")
	assert.Contains(t, withCC, "BCC: f@g.h\n")
}

func TestRenderBodyShortTruncated(t *testing.T) {
	body := strings.Repeat("x", 600)
	out := Render("{{bodyShort}}", &models.NormalizedMessage{Body: body}, nil, "")
	assert.Len(t, out, 500)

	full := Render("{{body}}", &models.NormalizedMessage{Body: body}, nil, "")
	assert.Len(t, full, 600)
}

func TestRenderRuleAndAccountVariables(t *testing.T) {
	r := &models.Rule{Name: "invoices"}
	out := Render("{{ruleName}} on {{accountName}}", &models.NormalizedMessage{}, r, "billing")
	assert.Equal(t, "invoices on billing", out)

	// No rule: ruleName renders empty, not verbatim.
	out = Render("[{{ruleName}}]", &models.NormalizedMessage{}, nil, "")
	assert.Equal(t, "[]", out)
}
