package manager

import "aegis/internal/platform/config"

// features is the flag set a mode resolves to at construction. Hot paths
// check booleans, never the mode itself.
type features struct {
	Validation     bool
	Audit          bool
	Authorization  bool
	Detection      bool
	AutoResponse   bool
	RealTimeAlerts bool
}

// featuresFor resolves a mode into its flag set. Each mode is a strict
// superset of the one below; BASIC is pass-through and ENTERPRISE enables
// everything. Unknown modes resolve to SECURE.
func featuresFor(mode config.Mode) features {
	switch mode {
	case config.ModeBasic:
		return features{}
	case config.ModePerformance:
		return features{
			Validation: true,
			Audit:      true,
		}
	case config.ModeEnterprise:
		return features{
			Validation:     true,
			Audit:          true,
			Authorization:  true,
			Detection:      true,
			AutoResponse:   true,
			RealTimeAlerts: true,
		}
	default:
		return features{
			Validation:    true,
			Audit:         true,
			Authorization: true,
			Detection:     true,
		}
	}
}
