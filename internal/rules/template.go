package rules

import (
	"regexp"
	"strings"

	"github.com/skobu/mailrelay/pkg/models"
)

const bodyShortRunes = 500

// DefaultTemplate is the boxed Chatwork layout used when a rule carries no
// template of its own
const DefaultTemplate = `[info][title]Mail forwarded: {{subject}}[/title]
From: {{senderName}} ({{senderEmail}})
{{ccLine}}{{bccLine}}Date: {{date}}
---
{{bodyShort}}
[/info]`

// Both {{name}} and {name} placeholder forms are accepted.
var placeholderRegex = regexp.MustCompile(`\{\{(\w+)\}\}|\{(\w+)\}`)

// Render expands a rule's template against a message. A blank template falls
// back to DefaultTemplate. Unknown placeholders are left verbatim so a typo
// in a user template never erases content.
func Render(template string, msg *models.NormalizedMessage, rule *models.Rule, accountName string) string {
	tpl := template
	if strings.TrimSpace(tpl) == "" {
		tpl = DefaultTemplate
	}

	vars := map[string]string{
		"sender":      msg.Sender,
		"senderEmail": msg.SenderEmail,
		"senderName":  msg.SenderName,
		"cc":          msg.CC,
		"bcc":         msg.BCC,
		"ccLine":      "",
		"bccLine":     "",
		"subject":     msg.Subject,
		"date":        msg.Date,
		"body":        msg.Body,
		"bodyShort":   truncateRunes(msg.Body, bodyShortRunes),
		"snippet":     msg.Snippet,
		"ruleName":    "",
		"accountName": accountName,
	}
	if msg.CC != "" {
		vars["ccLine"] = "CC: " + msg.CC + "\n"
	}
	if msg.BCC != "" {
		vars["bccLine"] = "BCC: " + msg.BCC + "\n"
	}
	if rule != nil {
		vars["ruleName"] = rule.Name
	}

	return placeholderRegex.ReplaceAllStringFunc(tpl, func(match string) string {
		name := strings.Trim(match, "{}")
		if value, ok := vars[name]; ok {
			return value
		}
		return match
	})
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
