package model

import "strings"

// Finding is the outcome of one text-based rule check
type Finding struct {
	RuleID    string     `json:"rule_id"`
	Passed    bool       `json:"passed"`
	Severity  Severity   `json:"severity,omitempty"`
	Details   string     `json:"details"`
	Citations []Citation `json:"citations"`
	Tags      []string   `json:"tags,omitempty"` // ordered "key:value" annotations
}

// Common tag keys
const (
	TagReasonShort    = "reason_short"
	TagReasonDetailed = "reason_detailed"
	TagGuard          = "guard"
)

// Tag formats a "key:value" annotation
func Tag(key, value string) string {
	return key + ":" + value
}

// TagValue returns the value of the first tag with the given key
func (f Finding) TagValue(key string) (string, bool) {
	prefix := key + ":"
	for _, t := range f.Tags {
		if strings.HasPrefix(t, prefix) {
			return strings.TrimSpace(t[len(prefix):]), true
		}
	}
	return "", false
}

// Rewrite returns a copy of the finding with a new verdict and a note appended
// to the details. Citations and tags are copied, never shared.
func (f Finding) Rewrite(passed bool, note string, tags ...string) Finding {
	out := Finding{
		RuleID:    f.RuleID,
		Passed:    passed,
		Severity:  f.Severity,
		Details:   f.Details,
		Citations: append([]Citation(nil), f.Citations...),
		Tags:      append(append([]string(nil), f.Tags...), tags...),
	}
	if note != "" {
		if out.Details == "" {
			out.Details = note
		} else {
			out.Details = out.Details + " " + note
		}
	}
	return out
}
