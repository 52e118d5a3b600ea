package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"aegis/internal/notify"
)

// AlertRule routes events at or above a severity floor, in any of the listed
// categories, to a named notification channel. Rules are static; every event
// is checked against all enabled rules regardless of persistence outcome.
type AlertRule struct {
	Name        string
	MinSeverity Severity
	Categories  []Category
	Channel     string
	Enabled     bool
}

func (r AlertRule) matches(e Event) bool {
	if !r.Enabled || e.Severity < r.MinSeverity {
		return false
	}
	if len(r.Categories) == 0 {
		return true
	}
	for _, cat := range r.Categories {
		if e.Category == cat {
			return true
		}
	}
	return false
}

// defaultAlertRules is the built-in routing table.
func defaultAlertRules() []AlertRule {
	return []AlertRule{
		{
			Name:        "critical-any",
			MinSeverity: SeverityCritical,
			Channel:     "pager",
			Enabled:     true,
		},
		{
			Name:        "threats-high",
			MinSeverity: SeverityHigh,
			Categories:  []Category{CategoryThreat},
			Channel:     "siem",
			Enabled:     true,
		},
		{
			Name:        "authz-denials",
			MinSeverity: SeverityWarning,
			Categories:  []Category{CategoryAuthorization, CategorySession},
			Channel:     "security-review",
			Enabled:     true,
		},
		{
			Name:        "abuse",
			MinSeverity: SeverityWarning,
			Categories:  []Category{CategoryRateLimit, CategoryValidation},
			Channel:     "abuse-desk",
			Enabled:     true,
		},
	}
}

// evaluateAlerts dispatches the event to every matching rule's channel.
func (s *Service) evaluateAlerts(ctx context.Context, e Event) {
	if s.notifier == nil {
		return
	}
	for _, rule := range s.alertRules {
		if !rule.matches(e) {
			continue
		}
		alert := notify.Alert{
			ID:        uuid.NewString(),
			Timestamp: time.Now(),
			Channel:   rule.Channel,
			Severity:  e.Severity.String(),
			Title:     e.Action,
			Body:      e.Message,
			Subject:   e.SubjectID,
			Metadata:  e.Metadata,
		}
		if err := s.notifier.Notify(ctx, alert); err != nil {
			s.logger.ErrorContext(ctx, "alert dispatch failed",
				"rule", rule.Name,
				"channel", rule.Channel,
				"error", err,
			)
			continue
		}
		s.metrics.IncAlertsSent()
	}
}
