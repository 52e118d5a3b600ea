package threat

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"aegis/internal/audit"
	"aegis/internal/threat/metrics"
)

// Auditor records detections in the audit trail; satisfied by *audit.Service.
type Auditor interface {
	Log(ctx context.Context, severity audit.Severity, category audit.Category, action, resource string, success bool, message string, metadata map[string]string)
}

// Service runs every event through three independent passes: rule matching,
// behavioral anomaly, and sequence analysis. All shared state is guarded by
// one mutex; Analyze is a short synchronous computation.
type Service struct {
	mu        sync.Mutex
	rules     []rule
	behavior  *behaviorTracker
	window    *sequenceWindow
	history   []Detection
	threshold float64

	maxHistory       int
	autoResponse     bool
	adaptiveLearning bool
	responder        *responder

	subsMu      sync.RWMutex
	subscribers []chan Detection

	auditor Auditor
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.auditor = a }
}

// WithAutoResponse enables mitigation dispatch; the resetter may be nil, in
// which case only process-local mitigations (block, quarantine, heighten)
// take effect.
func WithAutoResponse(permissions GrantResetter) Option {
	return func(s *Service) {
		s.autoResponse = true
		s.responder.permissions = permissions
	}
}

// WithSensitivity tunes the rule emission threshold, 1 (strict) to 10 (eager).
func WithSensitivity(sensitivity int) Option {
	return func(s *Service) { s.threshold = emissionThreshold(sensitivity) }
}

// WithAnomalyThreshold sets the relative deviation beyond which behavior is
// anomalous.
func WithAnomalyThreshold(threshold float64) Option {
	return func(s *Service) { s.behavior.threshold = threshold }
}

// WithAdaptiveLearning toggles the behavioral pass. When off, baselines
// neither learn nor emit; rule and sequence analysis still run.
func WithAdaptiveLearning(enabled bool) Option {
	return func(s *Service) { s.adaptiveLearning = enabled }
}

// WithPatternWindow bounds the sequence window by age and by count.
func WithPatternWindow(span time.Duration, maxEvents int) Option {
	return func(s *Service) {
		s.window.span = span
		s.window.capacity = maxEvents
	}
}

// WithMaxHistory bounds the detection history; oldest entries are evicted.
func WithMaxHistory(n int) Option {
	return func(s *Service) { s.maxHistory = n }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(opts ...Option) *Service {
	svc := &Service{
		rules:            builtinRules(),
		behavior:         newBehaviorTracker(2.0),
		window:           newSequenceWindow(10*time.Minute, 1000),
		threshold:        emissionThreshold(5),
		maxHistory:       1000,
		adaptiveLearning: true,
		logger:           slog.New(slog.DiscardHandler),
		now:              time.Now,
	}
	svc.responder = newResponder(nil, svc.logger)
	for _, opt := range opts {
		opt(svc)
	}
	svc.responder.logger = svc.logger
	return svc
}

// Analyze runs the event through all passes and returns every detection that
// cleared its threshold. Detections are recorded in bounded history, fanned
// out to subscribers, written to the audit trail, and, when auto-response is
// on, acted on.
func (s *Service) Analyze(ctx context.Context, event Event) []Detection {
	now := s.now()
	if event.Timestamp.IsZero() {
		event.Timestamp = now
	}
	s.metrics.IncAnalyzedEvents()

	s.mu.Lock()
	var detections []Detection

	threshold := s.threshold
	if s.responder.isHeightened(event.SubjectID) {
		// Subjects under heightened monitoring clear a lower bar.
		threshold /= 2
	}

	for _, r := range s.rules {
		matched, confidence, ok := r.evaluate(event)
		if !ok || confidence < threshold {
			continue
		}
		detections = append(detections, Detection{
			Severity:          r.Severity,
			Type:              r.Name,
			Confidence:        confidence,
			Indicators:        matched,
			Mitigations:       r.Mitigations,
			AffectedResources: nonEmpty(event.Resource),
			SubjectID:         event.SubjectID,
		})
	}

	if s.adaptiveLearning {
		if d, ok := s.behavior.observe(event, now); ok {
			detections = append(detections, d)
		}
	}
	if d, ok := s.window.observe(event, now); ok {
		detections = append(detections, d)
	}

	for i := range detections {
		detections[i].ID = uuid.NewString()
		detections[i].Timestamp = now
		detections[i].RiskScore = riskScore(detections[i].Severity, detections[i].Confidence)
		s.history = append(s.history, detections[i])
	}
	if over := len(s.history) - s.maxHistory; over > 0 {
		s.history = append(s.history[:0], s.history[over:]...)
	}
	s.metrics.SetTrackedEvents(s.window.size())
	s.metrics.SetBaselinePairs(s.behavior.size())
	s.mu.Unlock()

	for _, d := range detections {
		s.metrics.IncDetections(d.Type)
		s.publish(d)
		s.auditDetection(ctx, d)
		if s.autoResponse {
			s.responder.dispatch(ctx, d)
			s.metrics.IncMitigations()
		}
	}
	return detections
}

func nonEmpty(resource string) []string {
	if resource == "" {
		return nil
	}
	return []string{resource}
}

// Subscribe returns a channel receiving every future detection. Slow
// subscribers miss detections rather than block analysis.
func (s *Service) Subscribe() <-chan Detection {
	ch := make(chan Detection, 64)
	s.subsMu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.subsMu.Unlock()
	return ch
}

func (s *Service) publish(d Detection) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- d:
		default:
		}
	}
}

// History returns the most recent detections, newest last, up to limit
// (0 means all).
func (s *Service) History(limit int) []Detection {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := 0
	if limit > 0 && len(s.history) > limit {
		start = len(s.history) - limit
	}
	out := make([]Detection, len(s.history)-start)
	copy(out, s.history[start:])
	return out
}

// Blocked reports whether auto-response has blocked or quarantined the
// subject; the orchestrator consults this before serving requests.
func (s *Service) Blocked(subjectID string) bool {
	return s.responder.isBlocked(subjectID)
}

// Unblock lifts every restriction on the subject.
func (s *Service) Unblock(subjectID string) {
	s.responder.unblock(subjectID)
}

// Decay folds the current window into the behavior baselines and trims the
// sequence window; called on a timer so stale behavior stops biasing results.
func (s *Service) Decay() {
	now := s.now()
	s.mu.Lock()
	s.behavior.decay(now)
	s.window.trim(now)
	s.metrics.SetTrackedEvents(s.window.size())
	s.metrics.SetBaselinePairs(s.behavior.size())
	s.mu.Unlock()
}

// RunDecay runs the decay loop until the context ends.
func (s *Service) RunDecay(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Decay()
		}
	}
}

func (s *Service) auditDetection(ctx context.Context, d Detection) {
	if s.auditor == nil {
		return
	}
	s.auditor.Log(ctx, auditSeverity(d.Severity), audit.CategoryThreat, "threat_detected", firstOrEmpty(d.AffectedResources), false,
		d.Type, map[string]string{
			"detection_id": d.ID,
			"subject":      d.SubjectID,
			"confidence":   formatScore(d.Confidence),
			"risk_score":   formatScore(d.RiskScore),
		})
}

func auditSeverity(s Severity) audit.Severity {
	switch s {
	case SeverityCritical:
		return audit.SeverityCritical
	case SeverityHigh:
		return audit.SeverityHigh
	case SeverityMedium:
		return audit.SeverityWarning
	default:
		return audit.SeverityInfo
	}
}

func firstOrEmpty(resources []string) string {
	if len(resources) == 0 {
		return ""
	}
	return resources[0]
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
