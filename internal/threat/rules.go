package threat

import "regexp"

// rule describes one named detection pattern. A rule fires when at least one
// indicator matches and any condition holds; confidence scales with the
// fraction of indicators that matched.
type rule struct {
	Name           string
	Severity       Severity
	BaseConfidence float64
	Indicators     []*regexp.Regexp
	Condition      func(Event) bool
	Mitigations    []Mitigation
}

// evaluate returns the matched indicator patterns and the resulting
// confidence, or ok=false when the rule does not fire.
func (r rule) evaluate(event Event) (matched []string, confidence float64, ok bool) {
	if r.Condition != nil && !r.Condition(event) {
		return nil, 0, false
	}
	for _, indicator := range r.Indicators {
		if indicator.MatchString(event.Payload) || indicator.MatchString(event.Resource) {
			matched = append(matched, indicator.String())
		}
	}
	if len(matched) == 0 {
		return nil, 0, false
	}
	confidence = float64(len(matched)) / float64(len(r.Indicators)) * r.BaseConfidence
	return matched, confidence, true
}

func builtinRules() []rule {
	return []rule{
		{
			Name:           "xss_injection",
			Severity:       SeverityHigh,
			BaseConfidence: 90,
			Indicators: []*regexp.Regexp{
				regexp.MustCompile(`(?i)<script[^>]*>`),
				regexp.MustCompile(`(?i)\bon(?:error|load|click|mouseover)\s*=`),
				regexp.MustCompile(`(?i)javascript\s*:`),
			},
			Mitigations: []Mitigation{MitigationBlockSubject, MitigationHeightenMonitoring},
		},
		{
			Name:           "sql_injection",
			Severity:       SeverityHigh,
			BaseConfidence: 90,
			Indicators: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\bunion\s+(?:all\s+)?select\b`),
				regexp.MustCompile(`(?i);\s*(?:drop|delete|truncate)\s`),
				regexp.MustCompile(`(?i)(?:--|#|/\*)\s*$|'\s*or\s+'?1'?\s*=\s*'?1`),
			},
			Mitigations: []Mitigation{MitigationBlockSubject, MitigationHeightenMonitoring},
		},
		{
			Name:           "path_traversal",
			Severity:       SeverityHigh,
			BaseConfidence: 85,
			Indicators: []*regexp.Regexp{
				regexp.MustCompile(`(?:\.\./|\.\.\\)`),
				regexp.MustCompile(`(?i)%2e%2e(?:%2f|%5c)`),
				regexp.MustCompile(`\x00|%00`),
			},
			Mitigations: []Mitigation{MitigationBlockSubject, MitigationHeightenMonitoring},
		},
		{
			Name:           "command_injection",
			Severity:       SeverityCritical,
			BaseConfidence: 90,
			Indicators: []*regexp.Regexp{
				regexp.MustCompile(`[;&|]\s*(?:rm|cat|curl|wget|nc|sh|bash)\b`),
				regexp.MustCompile(`\$\([^)]*\)`),
				regexp.MustCompile("`[^`]+`"),
			},
			Mitigations: []Mitigation{MitigationQuarantineSubject, MitigationRequireReauth},
		},
		{
			Name:           "audit_tampering",
			Severity:       SeverityCritical,
			BaseConfidence: 95,
			Indicators: []*regexp.Regexp{
				regexp.MustCompile(`(?i)audit[-_./ ]?(?:log|trail|events?)`),
			},
			Condition: func(e Event) bool {
				return e.Action == "file.delete" || e.Action == "file.write"
			},
			Mitigations: []Mitigation{MitigationQuarantineSubject, MitigationRequireReauth},
		},
		{
			Name:           "credential_probe",
			Severity:       SeverityMedium,
			BaseConfidence: 70,
			Indicators: []*regexp.Regexp{
				regexp.MustCompile(`(?i)(?:/etc/(?:passwd|shadow)|\.ssh/|id_rsa|\.aws/credentials)`),
				regexp.MustCompile(`(?i)\b(?:api[-_]?key|secret[-_]?key|private[-_]?key)\b`),
			},
			Mitigations: []Mitigation{MitigationHeightenMonitoring, MitigationRequireReauth},
		},
		{
			Name:           "privilege_probe",
			Severity:       SeverityHigh,
			BaseConfidence: 80,
			Indicators: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\b(?:sudo|setuid|runas)\b`),
				regexp.MustCompile(`(?i)chmod\s+[0-7]*7[0-7]*`),
			},
			Mitigations: []Mitigation{MitigationResetPermissions, MitigationHeightenMonitoring},
		},
	}
}

// emissionThreshold derives the minimum rule confidence from sensitivity
// (1-10): higher sensitivity lowers the bar. At the default sensitivity of 5
// a single matched indicator on a three-indicator rule still clears it.
func emissionThreshold(sensitivity int) float64 {
	if sensitivity < 1 {
		sensitivity = 1
	}
	if sensitivity > 10 {
		sensitivity = 10
	}
	return float64(10-sensitivity) * 5
}
