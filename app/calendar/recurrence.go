package calendar

import (
	"log/slog"
	"strings"

	"github.com/teambition/rrule-go"
)

// ValidRules filters recurrence rules to those that parse as RFC 5545
// RRULEs, normalized with the "RRULE:" prefix the remote API expects.
// Invalid rules are dropped from the event, never failing it.
func ValidRules(rules []string) []string {
	if len(rules) == 0 {
		return nil
	}

	valid := make([]string, 0, len(rules))

	for _, rule := range rules {
		raw := strings.TrimSpace(rule)
		raw = strings.TrimPrefix(raw, "RRULE:")
		if raw == "" {
			continue
		}

		if _, err := rrule.StrToRRule(raw); err != nil {
			slog.Debug("Dropping invalid recurrence rule", "rule", rule, "error", err)
			continue
		}

		valid = append(valid, "RRULE:"+raw)
	}

	if len(valid) == 0 {
		return nil
	}

	return valid
}
