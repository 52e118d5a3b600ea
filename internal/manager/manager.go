package manager

import (
	"context"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"aegis/internal/audit"
	"aegis/internal/manager/metrics"
	"aegis/internal/permission"
	"aegis/internal/platform/config"
	"aegis/internal/threat"
	"aegis/internal/validation"
	dErrors "aegis/pkg/domain-errors"
)

//go:generate mockgen -source=manager.go -destination=mocks/mocks.go -package=mocks

// Validator validates inputs; satisfied by *validation.Service.
type Validator interface {
	Validate(ctx context.Context, operation, input string, opts validation.Options) validation.Result
	RunCacheSweeper(ctx context.Context, interval time.Duration) error
}

// Auditor is the audit pipeline surface the orchestrator and the admin API
// need; satisfied by *audit.Service.
type Auditor interface {
	Log(ctx context.Context, severity audit.Severity, category audit.Category, action, resource string, success bool, message string, metadata map[string]string)
	Query(ctx context.Context, filter audit.Filter) ([]audit.Event, error)
	VerifyIntegrity(ctx context.Context) (audit.VerifyReport, error)
	Run(ctx context.Context) error
}

// Authorizer makes access decisions; satisfied by *permission.Service.
type Authorizer interface {
	StartSession(ctx context.Context, subjectID string, role permission.Role, userAgent string) (*permission.Session, error)
	EndSession(ctx context.Context, sessionID string)
	AuthorizeCommand(ctx context.Context, sessionID, commandID string) permission.Decision
	AuthorizeResource(ctx context.Context, sessionID, path, operation string) permission.Decision
}

// Detector analyzes events; satisfied by *threat.Service.
type Detector interface {
	Analyze(ctx context.Context, event threat.Event) []threat.Detection
	Blocked(subjectID string) bool
	RunDecay(ctx context.Context, interval time.Duration)
}

// Sweeper is a background maintenance loop; satisfied by the rate limit
// service.
type Sweeper interface {
	RunSweeper(ctx context.Context, interval time.Duration) error
}

// Deps are the subsystems the orchestrator coordinates, in their required
// initialization order: the validator carries the pattern library and rate
// limits, the detector's rules reference those patterns, the authorizer's
// tables come next, and monitoring starts last via Run.
type Deps struct {
	Validator  Validator
	Auditor    Auditor
	Authorizer Authorizer
	Detector   Detector
	Sweeper    Sweeper
}

// Counters is a point-in-time snapshot of aggregate activity.
type Counters struct {
	Validations      int64 `json:"validations"`
	EventsLogged     int64 `json:"events_logged"`
	PermissionChecks int64 `json:"permission_checks"`
	ThreatsDetected  int64 `json:"threats_detected"`
}

// Status describes the running configuration for the admin API.
type Status struct {
	Mode     config.Mode `json:"mode"`
	Features []string    `json:"features"`
	Counters Counters    `json:"counters"`
}

// Manager gates every subsystem behind the feature set its mode resolved to.
// Disabled validation and authorization answer permissively so hosts that
// chose a lighter mode pay no security latency; disabled audit and detection
// are silent no-ops. This asymmetry is deliberate: the read path fails open
// for speed, the observability path simply vanishes.
type Manager struct {
	features features
	mode     config.Mode
	deps     Deps

	validations      atomic.Int64
	eventsLogged     atomic.Int64
	permissionChecks atomic.Int64
	threatsDetected  atomic.Int64

	tracer  trace.Tracer
	metrics *metrics.Metrics
	logger  *slog.Logger

	decayInterval time.Duration
	sweepInterval time.Duration
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

func WithDecayInterval(interval time.Duration) Option {
	return func(m *Manager) { m.decayInterval = interval }
}

func WithSweepInterval(interval time.Duration) Option {
	return func(m *Manager) { m.sweepInterval = interval }
}

func New(mode config.Mode, deps Deps, opts ...Option) *Manager {
	m := &Manager{
		features:      featuresFor(mode),
		mode:          mode,
		deps:          deps,
		tracer:        otel.Tracer("aegis/manager"),
		logger:        slog.New(slog.DiscardHandler),
		decayInterval: time.Minute,
		sweepInterval: time.Minute,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger.Info("security manager initialized",
		"mode", string(mode),
		"validation", m.features.Validation,
		"audit", m.features.Audit,
		"authorization", m.features.Authorization,
		"detection", m.features.Detection)
	return m
}

// Validate checks an input, or passes it through untouched when validation
// is disabled for the active mode.
func (m *Manager) Validate(ctx context.Context, operation, input string, opts validation.Options) validation.Result {
	ctx, span := m.tracer.Start(ctx, "security.validate",
		trace.WithAttributes(attribute.String("operation", operation)))
	defer span.End()

	if !m.features.Validation {
		m.metrics.IncGatedCalls("validate")
		return validation.Result{
			IsValid:        true,
			SanitizedValue: input,
			SecurityScore:  100,
			ThreatLevel:    validation.ThreatLow,
		}
	}

	result := m.deps.Validator.Validate(ctx, operation, input, opts)
	m.validations.Add(1)
	m.metrics.IncValidations()
	span.SetAttributes(
		attribute.Bool("valid", result.IsValid),
		attribute.Int("security_score", result.SecurityScore),
	)
	return result
}

// Log queues an audit event, or does nothing when audit is disabled.
func (m *Manager) Log(ctx context.Context, severity audit.Severity, category audit.Category, action, resource string, success bool, message string, metadata map[string]string) {
	if !m.features.Audit {
		m.metrics.IncGatedCalls("log")
		return
	}
	m.deps.Auditor.Log(ctx, severity, category, action, resource, success, message, metadata)
	m.eventsLogged.Add(1)
	m.metrics.IncEventsLogged()
}

// AuthorizeCommand decides a command, answering permissively when
// authorization is disabled. Subjects blocked by threat response are denied
// even then: a standing mitigation outranks the latency trade.
func (m *Manager) AuthorizeCommand(ctx context.Context, sessionID, commandID string) permission.Decision {
	ctx, span := m.tracer.Start(ctx, "security.authorize_command",
		trace.WithAttributes(attribute.String("command", commandID)))
	defer span.End()

	if !m.features.Authorization {
		m.metrics.IncGatedCalls("authorize_command")
		return permission.Decision{Granted: true, Reason: "authorization disabled for this mode", SecurityScore: 100}
	}

	decision := m.deps.Authorizer.AuthorizeCommand(ctx, sessionID, commandID)
	m.permissionChecks.Add(1)
	m.metrics.IncPermissionChecks()
	span.SetAttributes(attribute.Bool("granted", decision.Granted))
	return decision
}

// AuthorizeResource decides path access, analogous to AuthorizeCommand.
func (m *Manager) AuthorizeResource(ctx context.Context, sessionID, path, operation string) permission.Decision {
	ctx, span := m.tracer.Start(ctx, "security.authorize_resource",
		trace.WithAttributes(attribute.String("resource_operation", operation)))
	defer span.End()

	if !m.features.Authorization {
		m.metrics.IncGatedCalls("authorize_resource")
		return permission.Decision{Granted: true, Reason: "authorization disabled for this mode", SecurityScore: 100}
	}

	decision := m.deps.Authorizer.AuthorizeResource(ctx, sessionID, path, operation)
	m.permissionChecks.Add(1)
	m.metrics.IncPermissionChecks()
	span.SetAttributes(attribute.Bool("granted", decision.Granted))
	return decision
}

// Analyze runs threat analysis, or returns nothing when detection is
// disabled.
func (m *Manager) Analyze(ctx context.Context, event threat.Event) []threat.Detection {
	ctx, span := m.tracer.Start(ctx, "security.analyze",
		trace.WithAttributes(attribute.String("action", event.Action)))
	defer span.End()

	if !m.features.Detection {
		m.metrics.IncGatedCalls("analyze")
		return nil
	}

	detections := m.deps.Detector.Analyze(ctx, event)
	m.threatsDetected.Add(int64(len(detections)))
	m.metrics.AddThreatsDetected(len(detections))
	span.SetAttributes(attribute.Int("detections", len(detections)))
	return detections
}

// StartSession opens a session regardless of mode; gating applies to
// decisions, not to session bookkeeping.
func (m *Manager) StartSession(ctx context.Context, subjectID string, role permission.Role, userAgent string) (*permission.Session, error) {
	if m.features.Detection && m.deps.Detector.Blocked(subjectID) {
		return nil, dErrors.Newf(dErrors.CodeForbidden, "subject %s is blocked by threat response", subjectID)
	}
	return m.deps.Authorizer.StartSession(ctx, subjectID, role, userAgent)
}

func (m *Manager) EndSession(ctx context.Context, sessionID string) {
	m.deps.Authorizer.EndSession(ctx, sessionID)
}

// Audit exposes the audit query surface for the admin API; nil when audit is
// disabled.
func (m *Manager) Audit() Auditor {
	if !m.features.Audit {
		return nil
	}
	return m.deps.Auditor
}

// Status reports the resolved mode, its enabled features, and the aggregate
// counters.
func (m *Manager) Status() Status {
	var enabled []string
	for name, on := range map[string]bool{
		"validation":       m.features.Validation,
		"audit":            m.features.Audit,
		"authorization":    m.features.Authorization,
		"detection":        m.features.Detection,
		"auto_response":    m.features.AutoResponse,
		"real_time_alerts": m.features.RealTimeAlerts,
	} {
		if on {
			enabled = append(enabled, name)
		}
	}
	sort.Strings(enabled)
	return Status{
		Mode:     m.mode,
		Features: enabled,
		Counters: Counters{
			Validations:      m.validations.Load(),
			EventsLogged:     m.eventsLogged.Load(),
			PermissionChecks: m.permissionChecks.Load(),
			ThreatsDetected:  m.threatsDetected.Load(),
		},
	}
}

// Run supervises every background loop the active mode needs and blocks
// until the context ends.
func (m *Manager) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if m.features.Audit {
		g.Go(func() error { return m.deps.Auditor.Run(ctx) })
	}
	if m.features.Validation {
		g.Go(func() error { return m.deps.Validator.RunCacheSweeper(ctx, m.sweepInterval) })
		if m.deps.Sweeper != nil {
			g.Go(func() error { return m.deps.Sweeper.RunSweeper(ctx, m.sweepInterval) })
		}
	}
	if m.features.Detection {
		g.Go(func() error {
			m.deps.Detector.RunDecay(ctx, m.decayInterval)
			return nil
		})
	}

	return g.Wait()
}
