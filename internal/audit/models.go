// Package audit records tamper-evident security events. Events are queued,
// masked, tagged, and chained so any retroactive edit is detectable from that
// position forward.
package audit

import "time"

// Severity orders events for alert routing and immediate-flush decisions.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Category classifies audit events by their source component.
type Category string

const (
	CategoryValidation    Category = "validation"
	CategoryAuthorization Category = "authorization"
	CategorySession       Category = "session"
	CategoryRateLimit     Category = "rate_limit"
	CategoryThreat        Category = "threat"
	CategorySystem        Category = "system"
)

// Event is one audit record. All fields are scalars or string maps so
// json.Marshal output is deterministic and the integrity tag reproducible.
// Immutable once logged.
type Event struct {
	ID           string            `json:"id"`
	Timestamp    time.Time         `json:"timestamp"`
	Severity     Severity          `json:"severity"`
	Category     Category          `json:"category"`
	Action       string            `json:"action"`
	Resource     string            `json:"resource,omitempty"`
	SubjectID    string            `json:"subject_id,omitempty"`
	Role         string            `json:"role,omitempty"`
	Success      bool              `json:"success"`
	Message      string            `json:"message"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	IntegrityTag string            `json:"integrity_tag,omitempty"`
}

// Filter selects events for queries. Zero values match everything.
type Filter struct {
	MinSeverity *Severity
	Category    Category
	From        time.Time
	To          time.Time
	SubjectID   string
	Resource    string
	Limit       int
}

// Matches reports whether the event passes every set filter field.
func (f Filter) Matches(e Event) bool {
	if f.MinSeverity != nil && e.Severity < *f.MinSeverity {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Timestamp.After(f.To) {
		return false
	}
	if f.SubjectID != "" && e.SubjectID != f.SubjectID {
		return false
	}
	if f.Resource != "" && e.Resource != f.Resource {
		return false
	}
	return true
}

// VerifyReport summarizes an integrity verification pass.
type VerifyReport struct {
	Checked      int  `json:"checked"`
	Corrupted    int  `json:"corrupted"`
	FirstCorrupt int  `json:"first_corrupt"` // -1 when the chain is intact
	Intact       bool `json:"intact"`
}
