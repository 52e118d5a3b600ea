// Package validation screens raw operation inputs against structural rules
// and the shared threat pattern library. Validation never returns an error:
// internal failure degrades to a conservative invalid result.
package validation

import "time"

// ThreatLevel grades how hostile an input looks, derived from the security
// score via fixed thresholds.
type ThreatLevel int

const (
	ThreatLow ThreatLevel = iota
	ThreatMedium
	ThreatHigh
	ThreatCritical
)

func (t ThreatLevel) String() string {
	switch t {
	case ThreatLow:
		return "low"
	case ThreatMedium:
		return "medium"
	case ThreatHigh:
		return "high"
	case ThreatCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// levelFromScore maps a 0-100 security score onto a threat level.
func levelFromScore(score int) ThreatLevel {
	switch {
	case score >= 80:
		return ThreatLow
	case score >= 60:
		return ThreatMedium
	case score >= 30:
		return ThreatHigh
	default:
		return ThreatCritical
	}
}

// Result is the outcome of one validation pass. IsValid is true iff Errors is
// empty; ThreatLevel always reflects SecurityScore, floored at High when a
// threat signature matched.
type Result struct {
	IsValid        bool
	SanitizedValue string
	Errors         []string
	Warnings       []string
	SecurityScore  int
	ThreatLevel    ThreatLevel
}

// Options tune a single validation call.
type Options struct {
	MaxLength                   int
	AllowedCharset              string // regexp character class body, e.g. `a-zA-Z0-9 ._/-`
	RequireAlphanumeric         bool
	PreventExecutableExtensions bool
	RequireScopeContainment     bool
	HTMLSanitize                bool
	RateLimitKey                string
	RateLimit                   int           // 0 uses the service default
	RateLimitWindow             time.Duration // 0 uses the service default
}
