package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"aegis/internal/audit/metrics"
	"aegis/internal/notify"
)

// Store persists audit events in append order.
type Store interface {
	Append(ctx context.Context, event Event) error
	Query(ctx context.Context, filter Filter) ([]Event, error)
	// ReadAll returns every event in append order; integrity verification
	// replays the chain over this sequence.
	ReadAll(ctx context.Context) ([]Event, error)
	// PruneBefore removes events older than the cutoff where the backend
	// supports deletion. Append-only backends return 0.
	PruneBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Service queues, masks, seals, and persists audit events, and routes them to
// alert channels. Logging is non-blocking; persistence happens on a flush
// interval, immediately for severity >= High.
type Service struct {
	store  Store
	mirror Store // optional query mirror; appends are best-effort
	queue  *queue

	chainMu sync.Mutex
	chain   *chainState
	key     []byte

	alertRules []AlertRule
	notifier   notify.Notifier

	logger  *slog.Logger
	metrics *metrics.Metrics

	maskPII        bool
	retention      time.Duration
	flushInterval  time.Duration
	realTimeAlerts bool

	flushNow chan struct{}
	flushing atomic.Bool
	now      func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMirror adds a secondary store (typically PostgreSQL) that receives a
// best-effort copy of every sealed event for long-retention querying. The
// primary store stays the chain-verified source of truth.
func WithMirror(mirror Store) Option {
	return func(s *Service) { s.mirror = mirror }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithAlertRules(rules []AlertRule) Option {
	return func(s *Service) { s.alertRules = rules }
}

func WithQueueCapacity(capacity int) Option {
	return func(s *Service) { s.queue = newQueue(capacity) }
}

func WithMaskPII(mask bool) Option {
	return func(s *Service) { s.maskPII = mask }
}

func WithRetention(retention time.Duration) Option {
	return func(s *Service) { s.retention = retention }
}

func WithFlushInterval(interval time.Duration) Option {
	return func(s *Service) { s.flushInterval = interval }
}

func WithRealTimeAlerts(enabled bool) Option {
	return func(s *Service) { s.realTimeAlerts = enabled }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New constructs the audit service. The chain head is restored by replaying
// the store so appends continue the existing chain across restarts.
func New(store Store, signingKey []byte, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if len(signingKey) == 0 {
		return nil, fmt.Errorf("signing key is required")
	}

	svc := &Service{
		store:          store,
		queue:          newQueue(10000),
		chain:          newChainState(signingKey),
		key:            signingKey,
		alertRules:     defaultAlertRules(),
		maskPII:        true,
		retention:      90 * 24 * time.Hour,
		flushInterval:  5 * time.Second,
		realTimeAlerts: true,
		flushNow:       make(chan struct{}, 1),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.New(slog.DiscardHandler)
	}

	existing, err := store.ReadAll(context.Background())
	if err != nil {
		return nil, fmt.Errorf("restore audit chain: %w", err)
	}
	for _, entry := range existing {
		if err := svc.chain.advance(entry); err != nil {
			return nil, fmt.Errorf("restore audit chain: %w", err)
		}
	}

	return svc, nil
}

// Log enqueues an event. It never blocks and never returns an error to its
// caller: a full queue drops the oldest entry and counts it.
func (s *Service) Log(ctx context.Context, severity Severity, category Category, action, resource string, success bool, message string, metadata map[string]string) {
	event := Event{
		ID:        uuid.NewString(),
		Timestamp: s.now(),
		Severity:  severity,
		Category:  category,
		Action:    action,
		Resource:  resource,
		Success:   success,
		Message:   message,
		Metadata:  metadata,
	}
	s.LogEvent(ctx, event)
}

// LogEvent enqueues a pre-built event, assigning ID and timestamp when unset.
func (s *Service) LogEvent(ctx context.Context, event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	// Tags are assigned when the chain seals the event at flush time. A
	// caller-supplied tag would be appended as-is without advancing the
	// chain head, breaking verification for every later event.
	event.IntegrityTag = ""
	if s.maskPII {
		event = maskEvent(event)
	}

	before := s.queue.Dropped()
	s.queue.Enqueue(event)
	if dropped := s.queue.Dropped() - before; dropped > 0 {
		s.metrics.AddEventsDropped(float64(dropped))
	}
	s.metrics.IncEventsLogged()
	s.metrics.SetQueueDepth(s.queue.Len())

	// Alerting is independent of persistence outcome.
	if s.realTimeAlerts {
		s.evaluateAlerts(ctx, event)
	}

	if event.Severity >= SeverityHigh {
		select {
		case s.flushNow <- struct{}{}:
		default:
		}
	}
}

// Flush seals and persists every queued event. Only one flush runs at a time;
// a failed append requeues the unflushed remainder at the head.
func (s *Service) Flush(ctx context.Context) error {
	if !s.flushing.CompareAndSwap(false, true) {
		return nil
	}
	defer s.flushing.Store(false)

	batch := s.queue.DequeueAll()
	if len(batch) == 0 {
		return nil
	}

	s.chainMu.Lock()
	defer s.chainMu.Unlock()

	for i, event := range batch {
		sealed := event
		if sealed.IntegrityTag == "" {
			var err error
			sealed, err = s.chain.seal(event)
			if err != nil {
				s.metrics.IncFlushFailures()
				s.queue.Requeue(batch[i:])
				return fmt.Errorf("seal audit event: %w", err)
			}
		}
		if err := s.store.Append(ctx, sealed); err != nil {
			s.metrics.IncFlushFailures()
			// The event is already sealed; keep its tag so the chain
			// position is preserved on retry.
			batch[i] = sealed
			s.queue.Requeue(batch[i:])
			return fmt.Errorf("append audit event: %w", err)
		}
		if s.mirror != nil {
			if err := s.mirror.Append(ctx, sealed); err != nil {
				// Mirror failures never gate the primary trail.
				s.metrics.AddEventsDropped(1)
				s.logger.ErrorContext(ctx, "audit mirror append failed", "error", err)
			}
		}
	}

	s.metrics.SetQueueDepth(s.queue.Len())
	return nil
}

// Query returns persisted events matching the filter. Pending events are
// flushed first so a logged event is always observable to its logger.
func (s *Service) Query(ctx context.Context, filter Filter) ([]Event, error) {
	if err := s.Flush(ctx); err != nil {
		s.logger.ErrorContext(ctx, "flush before query failed", "error", err)
	}
	return s.store.Query(ctx, filter)
}

// VerifyIntegrity recomputes every tag and chain value, reporting the count
// and position of the first mismatch. A corrupted chain never blocks writes.
func (s *Service) VerifyIntegrity(ctx context.Context) (VerifyReport, error) {
	if err := s.Flush(ctx); err != nil {
		s.logger.ErrorContext(ctx, "flush before verify failed", "error", err)
	}
	entries, err := s.store.ReadAll(ctx)
	if err != nil {
		return VerifyReport{}, fmt.Errorf("read audit log: %w", err)
	}
	report := verifyChain(s.key, entries)
	if !report.Intact {
		s.logger.WarnContext(ctx, "audit chain corruption detected",
			"checked", report.Checked,
			"corrupted", report.Corrupted,
			"first_corrupt", report.FirstCorrupt,
		)
	}
	return report, nil
}

// Dropped reports how many events the bounded queue has discarded.
func (s *Service) Dropped() int64 { return s.queue.Dropped() }

// Pending reports how many events await flushing.
func (s *Service) Pending() int { return s.queue.Len() }

// Run drives periodic flushing and retention pruning until ctx is done.
// High-severity events trigger an immediate flush via the flushNow signal.
func (s *Service) Run(ctx context.Context) error {
	flushTicker := time.NewTicker(s.flushInterval)
	defer flushTicker.Stop()
	pruneTicker := time.NewTicker(time.Hour)
	defer pruneTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final drain so shutdown loses at most what a failed append
			// would have lost anyway.
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := s.Flush(flushCtx)
			cancel()
			if err != nil {
				s.logger.Error("final audit flush failed", "error", err)
			}
			return ctx.Err()
		case <-flushTicker.C:
			if err := s.Flush(ctx); err != nil {
				s.logger.ErrorContext(ctx, "audit flush failed", "error", err)
			}
		case <-s.flushNow:
			if err := s.Flush(ctx); err != nil {
				s.logger.ErrorContext(ctx, "audit flush failed", "error", err)
			}
		case <-pruneTicker.C:
			cutoff := s.now().Add(-s.retention)
			for _, store := range []Store{s.store, s.mirror} {
				if store == nil {
					continue
				}
				removed, err := store.PruneBefore(ctx, cutoff)
				if err != nil {
					s.logger.ErrorContext(ctx, "audit retention prune failed", "error", err)
					continue
				}
				if removed > 0 {
					s.logger.InfoContext(ctx, "audit retention prune", "removed", removed)
				}
			}
		}
	}
}
