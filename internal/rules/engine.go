package rules

import (
	"regexp"
	"strings"

	"github.com/skobu/mailrelay/pkg/models"
)

// Match filters rules down to those the message satisfies, preserving the
// order the store returned them in (priority descending, id ascending).
func Match(rules []*models.Rule, msg *models.NormalizedMessage) []*models.Rule {
	var matched []*models.Rule
	for _, rule := range rules {
		if evaluateRule(rule, msg) {
			matched = append(matched, rule)
		}
	}
	return matched
}

// evaluateRule applies a rule's conditions under its match mode. A rule
// without conditions matches every message; so does one whose stored
// condition data cannot be decoded (see Rule.ParsedConditions).
func evaluateRule(rule *models.Rule, msg *models.NormalizedMessage) bool {
	conditions := rule.ParsedConditions()
	if len(conditions) == 0 {
		return true
	}

	if rule.MatchMode == models.MatchAny {
		for _, cond := range conditions {
			if evaluateCondition(cond, msg) {
				return true
			}
		}
		return false
	}

	for _, cond := range conditions {
		if !evaluateCondition(cond, msg) {
			return false
		}
	}
	return true
}

// evaluateCondition runs a single field/operator/value test. Comparison is
// case-insensitive. An empty value makes the condition vacuously true.
// Unknown operators fail closed.
func evaluateCondition(cond models.Condition, msg *models.NormalizedMessage) bool {
	if cond.Value == "" {
		return true
	}

	target := strings.ToLower(msg.Field(cond.Field))
	value := strings.ToLower(cond.Value)

	switch cond.Operator {
	case models.OpContains:
		return strings.Contains(target, value)
	case models.OpNotContains:
		return !strings.Contains(target, value)
	case models.OpEquals:
		return target == value
	case models.OpStartsWith:
		return strings.HasPrefix(target, value)
	case models.OpEndsWith:
		return strings.HasSuffix(target, value)
	case models.OpDomain:
		return strings.HasSuffix(target, "@"+value)
	case models.OpMatches:
		re, err := regexp.Compile("(?i)" + cond.Value)
		if err != nil {
			return false
		}
		return re.MatchString(msg.Field(cond.Field))
	default:
		return false
	}
}
