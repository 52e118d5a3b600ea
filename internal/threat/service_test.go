package threat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"aegis/internal/audit"
)

type recordingAuditor struct {
	mu      sync.Mutex
	actions []string
}

func (r *recordingAuditor) Log(_ context.Context, _ audit.Severity, _ audit.Category, action, _ string, _ bool, _ string, _ map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
}

type recordingResetter struct {
	mu       sync.Mutex
	resets   []string
	expiries []string
}

func (r *recordingResetter) ResetGrants(_ context.Context, subjectID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets = append(r.resets, subjectID)
	return 1
}

func (r *recordingResetter) ExpireSessions(_ context.Context, subjectID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expiries = append(r.expiries, subjectID)
	return 1
}

type DetectorSuite struct {
	suite.Suite
	svc     *Service
	auditor *recordingAuditor
	now     time.Time
}

func (s *DetectorSuite) SetupTest() {
	s.auditor = &recordingAuditor{}
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s.svc = New(
		WithAuditor(s.auditor),
		WithSensitivity(5),
		WithAnomalyThreshold(2.0),
		WithPatternWindow(10*time.Minute, 100),
		WithMaxHistory(50),
		WithClock(func() time.Time { return s.now }),
	)
}

func (s *DetectorSuite) analyze(e Event) []Detection {
	return s.svc.Analyze(context.Background(), e)
}

func TestDetectorSuite(t *testing.T) {
	suite.Run(t, new(DetectorSuite))
}

func (s *DetectorSuite) TestInjectionPayloadFiresRule() {
	detections := s.analyze(Event{
		SubjectID: "user-1",
		Action:    "docs.generate",
		Payload:   `<script>alert(1)</script>`,
	})

	s.Require().Len(detections, 1)
	d := detections[0]
	s.Equal("xss_injection", d.Type)
	s.Equal(SeverityHigh, d.Severity)
	s.NotEmpty(d.ID)
	s.NotEmpty(d.Indicators)
	s.Contains(d.Mitigations, MitigationBlockSubject)
}

func (s *DetectorSuite) TestConfidenceScalesWithMatchedIndicators() {
	one := s.analyze(Event{SubjectID: "u", Action: "a", Payload: `1 UNION SELECT name FROM users`})
	two := s.analyze(Event{SubjectID: "u", Action: "a", Payload: `1 UNION SELECT 1; DROP TABLE users`})

	s.Require().Len(one, 1)
	s.Require().Len(two, 1)
	s.Greater(two[0].Confidence, one[0].Confidence)
	s.InDelta(90.0/3, one[0].Confidence, 0.01, "one of three indicators at base 90")
}

func (s *DetectorSuite) TestRiskScoreIsSeverityDominant() {
	confident := riskScore(SeverityLow, 100)
	severe := riskScore(SeverityCritical, 40)
	s.Greater(severe, confident)
}

func (s *DetectorSuite) TestCleanEventYieldsNothing() {
	detections := s.analyze(Event{SubjectID: "user-1", Action: "file.read", Payload: "quarterly report", Success: true})
	s.Empty(detections)
}

func (s *DetectorSuite) TestAuditTamperingRequiresMutation() {
	read := s.analyze(Event{SubjectID: "u", Action: "file.read", Resource: "logs/audit_trail.jsonl"})
	s.Empty(read)

	del := s.analyze(Event{SubjectID: "u", Action: "file.delete", Resource: "logs/audit_trail.jsonl"})
	s.Require().Len(del, 1)
	s.Equal("audit_tampering", del[0].Type)
	s.Equal(SeverityCritical, del[0].Severity)
}

func (s *DetectorSuite) TestBehavioralAnomalyAfterWarmup() {
	// Two quiet windows establish the baseline.
	for tick := 0; tick < 2; tick++ {
		for i := 0; i < 5; i++ {
			s.analyze(Event{SubjectID: "user-2", Action: "file.read", Success: true})
		}
		s.svc.Decay()
	}

	var anomalies []Detection
	for i := 0; i < 60; i++ {
		for _, d := range s.analyze(Event{SubjectID: "user-2", Action: "file.read", Success: true}) {
			if d.Type == "behavioral_anomaly" {
				anomalies = append(anomalies, d)
			}
		}
	}

	s.Require().NotEmpty(anomalies, "a 12x burst over baseline must register")
	s.GreaterOrEqual(anomalies[len(anomalies)-1].Severity, SeverityMedium)
}

func (s *DetectorSuite) TestNoAnomalyBeforeWarmup() {
	for i := 0; i < 100; i++ {
		for _, d := range s.analyze(Event{SubjectID: "user-3", Action: "file.write"}) {
			s.NotEqual("behavioral_anomaly", d.Type, "untrained baselines must stay silent")
		}
	}
}

func (s *DetectorSuite) TestReconThenEscalationComposite() {
	for i := 0; i < 3; i++ {
		s.analyze(Event{SubjectID: "user-4", Action: "list_files", Resource: "config/"})
		s.now = s.now.Add(time.Minute)
	}

	detections := s.analyze(Event{SubjectID: "user-4", Action: "elevate"})

	var composite *Detection
	for i := range detections {
		if detections[i].Type == "recon_then_escalation" {
			composite = &detections[i]
		}
	}
	s.Require().NotNil(composite)
	s.Equal(SeverityHigh, composite.Severity)
	s.Contains(composite.Mitigations, MitigationQuarantineSubject)
	s.Contains(composite.AffectedResources, "config/")
}

func (s *DetectorSuite) TestSequenceWindowExpires() {
	s.analyze(Event{SubjectID: "user-5", Action: "enumerate_users"})
	s.now = s.now.Add(11 * time.Minute) // beyond the 10 minute window

	detections := s.analyze(Event{SubjectID: "user-5", Action: "elevate"})
	for _, d := range detections {
		s.NotEqual("recon_then_escalation", d.Type, "stale recon must not count")
	}
}

func (s *DetectorSuite) TestHistoryIsBounded() {
	for i := 0; i < 60; i++ {
		s.analyze(Event{SubjectID: "u", Action: "a", Payload: `<script>x</script>`})
	}
	s.Len(s.svc.History(0), 50)
}

func (s *DetectorSuite) TestDetectionsAreAudited() {
	s.analyze(Event{SubjectID: "u", Action: "a", Payload: `../../etc/passwd`})

	s.auditor.mu.Lock()
	defer s.auditor.mu.Unlock()
	s.Contains(s.auditor.actions, "threat_detected")
}

func (s *DetectorSuite) TestSubscriberReceivesDetections() {
	ch := s.svc.Subscribe()

	s.analyze(Event{SubjectID: "u", Action: "a", Payload: `<script>x</script>`})

	select {
	case d := <-ch:
		s.Equal("xss_injection", d.Type)
	default:
		s.Fail("expected a published detection")
	}
}

func TestAutoResponseDispatchesMitigations(t *testing.T) {
	resetter := &recordingResetter{}
	svc := New(WithAutoResponse(resetter), WithSensitivity(5))

	svc.Analyze(context.Background(), Event{
		SubjectID: "attacker",
		Action:    "docs.generate",
		Payload:   `<script>x</script>`,
	})

	assert.True(t, svc.Blocked("attacker"))
	assert.False(t, svc.Blocked("bystander"))

	svc.Analyze(context.Background(), Event{
		SubjectID: "attacker-2",
		Action:    "file.delete",
		Resource:  "var/audit_log.jsonl",
	})

	resetter.mu.Lock()
	expiries := len(resetter.expiries)
	resetter.mu.Unlock()
	require.GreaterOrEqual(t, expiries, 1, "quarantine must expire the subject's sessions")
	assert.True(t, svc.Blocked("attacker-2"))

	svc.Unblock("attacker")
	assert.False(t, svc.Blocked("attacker"))
}

func TestAutoResponseOffLeavesSubjectsAlone(t *testing.T) {
	svc := New(WithSensitivity(5))

	svc.Analyze(context.Background(), Event{
		SubjectID: "user",
		Action:    "docs.generate",
		Payload:   `<script>x</script>`,
	})

	assert.False(t, svc.Blocked("user"))
}

func TestAdaptiveLearningOffSilencesBehavioralPass(t *testing.T) {
	svc := New(WithAdaptiveLearning(false), WithAnomalyThreshold(0.1))

	for tick := 0; tick < 3; tick++ {
		for i := 0; i < 50; i++ {
			for _, d := range svc.Analyze(context.Background(), Event{SubjectID: "u", Action: "file.read"}) {
				assert.NotEqual(t, "behavioral_anomaly", d.Type)
			}
		}
		svc.Decay()
	}
}

func TestEmissionThresholdTracksSensitivity(t *testing.T) {
	assert.Greater(t, emissionThreshold(1), emissionThreshold(9))
	assert.Equal(t, 0.0, emissionThreshold(10))
	assert.Equal(t, emissionThreshold(1), emissionThreshold(-3), "sensitivity is clamped")
}
