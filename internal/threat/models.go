package threat

import "time"

// Severity ranks a detection from low to critical.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Mitigation names one action from the fixed response vocabulary.
type Mitigation string

const (
	MitigationBlockSubject       Mitigation = "block_subject"
	MitigationQuarantineSubject  Mitigation = "quarantine_subject"
	MitigationResetPermissions   Mitigation = "reset_permissions"
	MitigationHeightenMonitoring Mitigation = "heighten_monitoring"
	MitigationRequireReauth      Mitigation = "require_reauth"
)

// Event is one observed action fed into the analysis passes.
type Event struct {
	Timestamp time.Time
	SubjectID string
	Action    string
	Resource  string
	Payload   string
	Success   bool
}

// Detection is the outcome of an analysis pass. Confidence is 0-100;
// RiskScore combines severity and confidence, severity-dominant.
type Detection struct {
	ID                string       `json:"id"`
	Timestamp         time.Time    `json:"timestamp"`
	Severity          Severity     `json:"severity"`
	Type              string       `json:"type"`
	Confidence        float64      `json:"confidence"`
	RiskScore         float64      `json:"risk_score"`
	Indicators        []string     `json:"indicators"`
	Mitigations       []Mitigation `json:"mitigations"`
	AffectedResources []string     `json:"affected_resources,omitempty"`
	SubjectID         string       `json:"subject_id,omitempty"`
}

// riskScore weights severity over confidence so a critical detection with
// middling confidence still outranks a confident low one.
func riskScore(severity Severity, confidence float64) float64 {
	severityScore := float64(severity) / float64(SeverityCritical) * 100
	return 0.7*severityScore + 0.3*confidence
}
