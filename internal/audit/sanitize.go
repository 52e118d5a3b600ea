package audit

import "regexp"

// PII patterns replaced before an event is tagged and stored. Masking happens
// before tagging so verification never depends on raw PII being retained.
var (
	emailPattern    = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	ipv4Pattern     = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	userPathPattern = regexp.MustCompile(`(?:/home/|/Users/)[^\s/]+|[A-Za-z]:\\Users\\[^\s\\]+`)
	bearerPattern   = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/-]+=*`)
	secretPattern   = regexp.MustCompile(`(?i)\b(password|passwd|secret|token|api[_-]?key|key)\s*[:=]\s*\S+`)
)

// maskPII replaces personal or secret-bearing substrings with placeholders.
func maskPII(s string) string {
	if s == "" {
		return s
	}
	s = bearerPattern.ReplaceAllString(s, "[TOKEN]")
	s = secretPattern.ReplaceAllString(s, "$1=[REDACTED]")
	s = emailPattern.ReplaceAllString(s, "[EMAIL]")
	s = ipv4Pattern.ReplaceAllString(s, "[IP]")
	s = userPathPattern.ReplaceAllString(s, "[USER_PATH]")
	return s
}

// maskEvent returns a copy of the event with PII-bearing fields masked.
func maskEvent(e Event) Event {
	e.Message = maskPII(e.Message)
	e.Resource = maskPII(e.Resource)
	if len(e.Metadata) > 0 {
		masked := make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			masked[k] = maskPII(v)
		}
		e.Metadata = masked
	}
	return e
}
