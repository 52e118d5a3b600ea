package audit_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"aegis/internal/audit"
	"aegis/internal/audit/store/memory"
	"aegis/internal/notify"
)

type captureNotifier struct {
	mu     sync.Mutex
	alerts []notify.Alert
}

func (n *captureNotifier) Notify(_ context.Context, alert notify.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert)
	return nil
}

func (n *captureNotifier) byChannel(channel string) []notify.Alert {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notify.Alert
	for _, a := range n.alerts {
		if a.Channel == channel {
			out = append(out, a)
		}
	}
	return out
}

// failingStore fails Append a fixed number of times, then delegates.
type failingStore struct {
	*memory.Store
	failures int
}

func (s *failingStore) Append(ctx context.Context, event audit.Event) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("sink unavailable")
	}
	return s.Store.Append(ctx, event)
}

type ServiceSuite struct {
	suite.Suite
	store    *memory.Store
	notifier *captureNotifier
	svc      *audit.Service
	ctx      context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = memory.New()
	s.notifier = &captureNotifier{}
	svc, err := audit.New(s.store, []byte("suite-key"),
		audit.WithNotifier(s.notifier),
	)
	s.Require().NoError(err)
	s.svc = svc
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestLogThenQueryRoundTrip() {
	s.svc.Log(s.ctx, audit.SeverityWarning, audit.CategoryValidation, "input_rejected", "doc.md", false,
		"pattern match on input", map[string]string{"operation": "generate"})

	minSev := audit.SeverityWarning
	events, err := s.svc.Query(s.ctx, audit.Filter{
		MinSeverity: &minSev,
		Category:    audit.CategoryValidation,
	})
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal("input_rejected", events[0].Action)
	s.Equal("doc.md", events[0].Resource)
	s.NotEmpty(events[0].ID)
	s.NotEmpty(events[0].IntegrityTag)
}

func (s *ServiceSuite) TestQueryFilters() {
	s.svc.Log(s.ctx, audit.SeverityInfo, audit.CategorySession, "session_started", "", true, "ok", nil)
	s.svc.Log(s.ctx, audit.SeverityHigh, audit.CategoryThreat, "threat_detected", "", false, "bad", nil)
	s.svc.Log(s.ctx, audit.SeverityCritical, audit.CategoryThreat, "threat_detected", "", false, "worse", nil)

	minSev := audit.SeverityHigh
	events, err := s.svc.Query(s.ctx, audit.Filter{MinSeverity: &minSev})
	s.Require().NoError(err)
	s.Len(events, 2)

	events, err = s.svc.Query(s.ctx, audit.Filter{Category: audit.CategoryThreat, Limit: 1})
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *ServiceSuite) TestVerifyIntegrityClean() {
	for range 20 {
		s.svc.Log(s.ctx, audit.SeverityInfo, audit.CategorySystem, "tick", "", true, "routine", nil)
	}
	report, err := s.svc.VerifyIntegrity(s.ctx)
	s.Require().NoError(err)
	s.True(report.Intact)
	s.Equal(20, report.Checked)
	s.Equal(0, report.Corrupted)
}

func (s *ServiceSuite) TestPIIMaskedBeforeStorage() {
	s.svc.Log(s.ctx, audit.SeverityWarning, audit.CategorySession, "login_failed", "", false,
		"bad password for dev@example.com from 10.0.0.5", nil)

	events, err := s.svc.Query(s.ctx, audit.Filter{Category: audit.CategorySession})
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal("bad password for [EMAIL] from [IP]", events[0].Message)
}

func (s *ServiceSuite) TestAlertRouting() {
	s.svc.Log(s.ctx, audit.SeverityCritical, audit.CategoryThreat, "threat_detected", "", false, "sequence attack", nil)

	// audit.SeverityCritical in audit.CategoryThreat matches both pager and siem rules.
	s.Len(s.notifier.byChannel("pager"), 1)
	s.Len(s.notifier.byChannel("siem"), 1)
}

func (s *ServiceSuite) TestAlertsIndependentOfPersistence() {
	store := &failingStore{Store: memory.New(), failures: 1000}
	notifier := &captureNotifier{}
	svc, err := audit.New(store, []byte("k"), audit.WithNotifier(notifier))
	s.Require().NoError(err)

	svc.Log(s.ctx, audit.SeverityCritical, audit.CategoryThreat, "threat_detected", "", false, "x", nil)
	s.Require().Error(svc.Flush(s.ctx))
	s.Len(notifier.byChannel("pager"), 1)
}

func (s *ServiceSuite) TestFailedFlushRequeuesAndRetries() {
	store := &failingStore{Store: memory.New(), failures: 1}
	svc, err := audit.New(store, []byte("k"))
	s.Require().NoError(err)

	svc.Log(s.ctx, audit.SeverityInfo, audit.CategorySystem, "a", "", true, "first", nil)
	svc.Log(s.ctx, audit.SeverityInfo, audit.CategorySystem, "b", "", true, "second", nil)

	s.Require().Error(svc.Flush(s.ctx))
	s.Equal(2, svc.Pending())

	// Retry succeeds and preserves order; the chain stays intact.
	s.Require().NoError(svc.Flush(s.ctx))
	s.Equal(0, svc.Pending())

	events, err := store.ReadAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal("a", events[0].Action)
	s.Equal("b", events[1].Action)

	report, err := svc.VerifyIntegrity(s.ctx)
	s.Require().NoError(err)
	s.True(report.Intact)
}

func (s *ServiceSuite) TestBoundedQueueDropsAndCounts() {
	svc, err := audit.New(memory.New(), []byte("k"), audit.WithQueueCapacity(5))
	s.Require().NoError(err)

	for range 8 {
		svc.Log(s.ctx, audit.SeverityInfo, audit.CategorySystem, "tick", "", true, "m", nil)
	}
	s.Equal(int64(3), svc.Dropped())
	s.Equal(5, svc.Pending())
}

func (s *ServiceSuite) TestCallerSuppliedTagDiscarded() {
	s.svc.LogEvent(s.ctx, audit.Event{
		Severity:     audit.SeverityInfo,
		Category:     audit.CategorySystem,
		Action:       "import",
		Message:      "replayed from upstream",
		IntegrityTag: "bogus-tag-from-caller",
	})
	s.svc.Log(s.ctx, audit.SeverityInfo, audit.CategorySystem, "tick", "", true, "routine", nil)
	s.Require().NoError(s.svc.Flush(s.ctx))

	events, err := s.store.ReadAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.NotEqual("bogus-tag-from-caller", events[0].IntegrityTag)

	report, err := s.svc.VerifyIntegrity(s.ctx)
	s.Require().NoError(err)
	s.True(report.Intact)
	s.Equal(2, report.Checked)
	s.Equal(0, report.Corrupted)
}

func (s *ServiceSuite) TestChainRestoredAcrossRestart() {
	s.svc.Log(s.ctx, audit.SeverityInfo, audit.CategorySystem, "before", "", true, "m", nil)
	s.Require().NoError(s.svc.Flush(s.ctx))

	// A second service over the same store continues the chain.
	svc2, err := audit.New(s.store, []byte("suite-key"))
	s.Require().NoError(err)
	svc2.Log(s.ctx, audit.SeverityInfo, audit.CategorySystem, "after", "", true, "m", nil)
	s.Require().NoError(svc2.Flush(s.ctx))

	report, err := svc2.VerifyIntegrity(s.ctx)
	s.Require().NoError(err)
	s.True(report.Intact)
	s.Equal(2, report.Checked)
}

func (s *ServiceSuite) TestImmediateFlushSignalForHighSeverity() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.svc.Run(ctx) }()

	s.svc.Log(s.ctx, audit.SeverityHigh, audit.CategoryThreat, "threat_detected", "", false, "m", nil)

	s.Eventually(func() bool {
		events, err := s.store.ReadAll(context.Background())
		return err == nil && len(events) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	s.Require().ErrorIs(<-done, context.Canceled)
}
