package threat

import (
	"fmt"
	"strings"
	"time"
)

// eventClass buckets events for sequence matching.
type eventClass int

const (
	classNeutral eventClass = iota
	classRecon
	classPrivEsc
)

func classify(event Event) eventClass {
	action := strings.ToLower(event.Action)
	switch {
	case strings.HasPrefix(action, "list") || strings.HasPrefix(action, "enumerate") ||
		strings.HasPrefix(action, "scan") || action == "audit.export" || action == "config.get":
		return classRecon
	case action == "elevate" || action == "security.configure" || action == "config.set" ||
		strings.Contains(action, "grant"):
		return classPrivEsc
	default:
		return classNeutral
	}
}

// sequenceWindow inspects a bounded sliding window of recent events for
// known multi-step shapes. Callers hold the service mutex.
type sequenceWindow struct {
	events   []Event
	span     time.Duration
	capacity int
}

func newSequenceWindow(span time.Duration, capacity int) *sequenceWindow {
	return &sequenceWindow{span: span, capacity: capacity}
}

// observe appends the event, trims the window, and reports a composite
// detection when reconnaissance-class activity by the same subject precedes
// privilege-escalation-class activity inside the window.
func (w *sequenceWindow) observe(event Event, now time.Time) (Detection, bool) {
	w.events = append(w.events, event)
	w.trim(now)

	if classify(event) != classPrivEsc {
		return Detection{}, false
	}

	recon := 0
	var resources []string
	for _, prior := range w.events {
		if prior.SubjectID == event.SubjectID && classify(prior) == classRecon {
			recon++
			if prior.Resource != "" {
				resources = append(resources, prior.Resource)
			}
		}
	}
	if recon == 0 {
		return Detection{}, false
	}

	// Composite findings carry more confidence than either class alone.
	confidence := 70 + float64(recon)*5
	if confidence > 95 {
		confidence = 95
	}

	return Detection{
		Severity:   SeverityHigh,
		Type:       "recon_then_escalation",
		Confidence: confidence,
		Indicators: []string{
			fmt.Sprintf("%d reconnaissance events preceded %q within %s", recon, event.Action, w.span),
		},
		Mitigations:       []Mitigation{MitigationQuarantineSubject, MitigationResetPermissions, MitigationRequireReauth},
		AffectedResources: resources,
		SubjectID:         event.SubjectID,
	}, true
}

// trim drops events older than the span or beyond capacity, oldest first.
func (w *sequenceWindow) trim(now time.Time) {
	cutoff := now.Add(-w.span)
	start := 0
	for start < len(w.events) && w.events[start].Timestamp.Before(cutoff) {
		start++
	}
	if over := len(w.events) - start - w.capacity; over > 0 {
		start += over
	}
	if start > 0 {
		w.events = append(w.events[:0], w.events[start:]...)
	}
}

func (w *sequenceWindow) size() int {
	return len(w.events)
}
