package permission

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"aegis/internal/audit"
	rlmodels "aegis/internal/ratelimit/models"
	dErrors "aegis/pkg/domain-errors"
)

const (
	// elevationHardCap bounds every elevation regardless of what was asked.
	elevationHardCap = 15 * time.Minute
	// elevationMinRole is the minimum existing role allowed to elevate.
	elevationMinRole = RoleEditor
)

// Auditor records authorization decisions; satisfied by *audit.Service.
type Auditor interface {
	Log(ctx context.Context, severity audit.Severity, category audit.Category, action, resource string, success bool, message string, metadata map[string]string)
}

// Limiter applies per-command rate limits; satisfied by the rate limit
// service.
type Limiter interface {
	CheckN(ctx context.Context, key string, limit int, window time.Duration) (*rlmodels.Result, error)
}

// Session is handed back to the host at session start.
type Session struct {
	ID    string
	Token string
	Role  Role
}

// Service answers authorization questions for active sessions. Effective role
// permission sets are computed once at construction; every check starts with
// session validity and denies by default.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*UserContext

	permsByRole map[Role]map[Permission]bool
	commands    map[string][]Permission

	timeWindows   map[string]TimeWindow
	commandLimits map[string]CommandLimit

	tokens         *tokenIssuer
	auditor        Auditor
	limiter        Limiter
	sessionTimeout time.Duration

	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.auditor = a }
}

func WithLimiter(l Limiter) Option {
	return func(s *Service) { s.limiter = l }
}

func WithSessionTimeout(timeout time.Duration) Option {
	return func(s *Service) { s.sessionTimeout = timeout }
}

// WithTimeWindow restricts a command to a daily hour range.
func WithTimeWindow(commandID string, window TimeWindow) Option {
	return func(s *Service) { s.timeWindows[commandID] = window }
}

// WithCommandLimit adds a per-command rate limit.
func WithCommandLimit(commandID string, limit CommandLimit) Option {
	return func(s *Service) { s.commandLimits[commandID] = limit }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New builds the permission service, folding role grants into effective
// permission sets so inheritance is monotonic by construction.
func New(signingKey []byte, opts ...Option) (*Service, error) {
	if len(signingKey) == 0 {
		return nil, fmt.Errorf("signing key is required")
	}

	svc := &Service{
		sessions:       make(map[string]*UserContext),
		permsByRole:    foldRoleGrants(),
		commands:       commandPermissions,
		timeWindows:    make(map[string]TimeWindow),
		commandLimits:  make(map[string]CommandLimit),
		tokens:         newTokenIssuer(signingKey, 12*time.Hour),
		sessionTimeout: 30 * time.Minute,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.New(slog.DiscardHandler)
	}
	return svc, nil
}

// foldRoleGrants accumulates grants from the lowest role upward so each role
// is a strict superset of the one below.
func foldRoleGrants() map[Role]map[Permission]bool {
	folded := make(map[Role]map[Permission]bool)
	accumulated := make(map[Permission]bool)
	for role := RoleViewer; role <= RoleAdmin; role++ {
		for _, perm := range roleGrants[role] {
			accumulated[perm] = true
		}
		set := make(map[Permission]bool, len(accumulated))
		for perm := range accumulated {
			set[perm] = true
		}
		folded[role] = set
	}
	return folded
}

// StartSession creates a session for a subject and issues its token. The
// user agent string is parsed for audit metadata only.
func (s *Service) StartSession(ctx context.Context, subjectID string, role Role, rawUserAgent string) (*Session, error) {
	if subjectID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "subject id is required")
	}
	if role < RoleViewer || role > RoleAdmin {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	}

	sessionID := uuid.NewString()
	token, err := s.tokens.issue(subjectID, sessionID, role)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	uc := &UserContext{
		SessionID:       sessionID,
		SubjectID:       subjectID,
		Role:            role,
		TemporaryGrants: make(map[Permission]time.Time),
		LastActivity:    s.now(),
		Device:          describeDevice(rawUserAgent),
	}

	s.mu.Lock()
	s.sessions[sessionID] = uc
	s.mu.Unlock()

	s.auditDecision(ctx, audit.SeverityInfo, "session_started", "", subjectID, role, true,
		"session started", map[string]string{"device": uc.Device})
	return &Session{ID: sessionID, Token: token, Role: role}, nil
}

// ResumeSession validates a session token and returns the live session ID,
// denying when the session no longer exists.
func (s *Service) ResumeSession(_ context.Context, token string) (string, error) {
	claims, err := s.tokens.validate(token)
	if err != nil {
		return "", err
	}
	s.mu.RLock()
	_, ok := s.sessions[claims.SessionID]
	s.mu.RUnlock()
	if !ok {
		return "", dErrors.New(dErrors.CodeUnauthorized, "session no longer active")
	}
	return claims.SessionID, nil
}

// EndSession drops the session and its grants.
func (s *Service) EndSession(ctx context.Context, sessionID string) {
	s.mu.Lock()
	uc, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()

	if ok {
		s.auditDecision(ctx, audit.SeverityInfo, "session_ended", "", uc.SubjectID, uc.Role, true, "session ended", nil)
	}
}

// HasPermission reports whether the session currently holds the permission,
// through its role or an unexpired temporary grant. Expired grants are
// evicted lazily here, not by a sweeper.
func (s *Service) HasPermission(_ context.Context, sessionID string, perm Permission) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	uc, ok := s.sessions[sessionID]
	if !ok || s.expired(uc) {
		return false
	}
	return s.holdsLocked(uc, perm)
}

// holdsLocked checks role permissions then temporary grants; must be called
// with s.mu held for writes (grant eviction mutates the map).
func (s *Service) holdsLocked(uc *UserContext, perm Permission) bool {
	if s.permsByRole[uc.Role][perm] {
		return true
	}
	expiry, ok := uc.TemporaryGrants[perm]
	if !ok {
		return false
	}
	if !s.now().Before(expiry) {
		delete(uc.TemporaryGrants, perm)
		return false
	}
	return true
}

// AuthorizeCommand decides whether the session may run a command. Unmapped
// commands are denied by default; contextual restrictions are additive.
func (s *Service) AuthorizeCommand(ctx context.Context, sessionID, commandID string) Decision {
	s.mu.Lock()
	uc, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return s.deny(ctx, commandID, "", RoleViewer, "no active session", nil, 20)
	}
	if s.expired(uc) {
		subject, role := uc.SubjectID, uc.Role
		delete(s.sessions, sessionID)
		s.mu.Unlock()
		return s.deny(ctx, commandID, subject, role, "session expired", nil, 20)
	}

	required, mapped := s.commands[commandID]
	if !mapped {
		subject, role := uc.SubjectID, uc.Role
		s.mu.Unlock()
		return s.deny(ctx, commandID, subject, role,
			fmt.Sprintf("command %q is not authorized", commandID), nil, 30)
	}

	var missing []Permission
	for _, perm := range required {
		if !s.holdsLocked(uc, perm) {
			missing = append(missing, perm)
		}
	}
	subject, role := uc.SubjectID, uc.Role
	if len(missing) == 0 {
		uc.LastActivity = s.now()
	}
	s.mu.Unlock()

	if len(missing) > 0 {
		requiredRole := s.lowestRoleWith(missing)
		decision := Decision{
			Granted:            false,
			Reason:             fmt.Sprintf("missing permission %s; requires the %s role", missing[0], requiredRole),
			RequiredRole:       &requiredRole,
			MissingPermissions: missing,
			SecurityScore:      40,
		}
		s.auditDecision(ctx, audit.SeverityWarning, "command_denied", commandID, subject, role, false, decision.Reason, nil)
		return decision
	}

	// Contextual restrictions: every configured check must pass.
	if window, ok := s.timeWindows[commandID]; ok && !window.contains(s.now()) {
		return s.deny(ctx, commandID, subject, role,
			fmt.Sprintf("command %q is only permitted between %02d:00 and %02d:00", commandID, window.FromHour, window.ToHour),
			nil, 50)
	}
	if limit, ok := s.commandLimits[commandID]; ok && s.limiter != nil {
		result, err := s.limiter.CheckN(ctx, "command:"+commandID+":"+sessionID, limit.Limit, limit.Window)
		if err != nil {
			// Fail secure: an unverifiable limit denies.
			return s.deny(ctx, commandID, subject, role, "rate limit could not be verified", nil, 20)
		}
		if !result.Allowed {
			return s.deny(ctx, commandID, subject, role,
				fmt.Sprintf("command %q exceeded its rate limit", commandID), nil, 40)
		}
	}

	s.auditDecision(ctx, audit.SeverityInfo, "command_granted", commandID, subject, role, true, "command authorized", nil)
	return Decision{Granted: true, Reason: "authorized", SecurityScore: 100}
}

// AuthorizeResource decides access to a path for an operation. Write and
// delete escalate the required permission above the resource's read scope.
func (s *Service) AuthorizeResource(ctx context.Context, sessionID, path, operation string) Decision {
	required, err := resourcePermission(path, operation)
	if err != nil {
		return s.deny(ctx, path, "", RoleViewer, dErrors.MessageOf(err), nil, 30)
	}

	s.mu.Lock()
	uc, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return s.deny(ctx, path, "", RoleViewer, "no active session", nil, 20)
	}
	if s.expired(uc) {
		subject, role := uc.SubjectID, uc.Role
		delete(s.sessions, sessionID)
		s.mu.Unlock()
		return s.deny(ctx, path, subject, role, "session expired", nil, 20)
	}

	subject, role := uc.SubjectID, uc.Role
	holds := s.holdsLocked(uc, required)
	if holds {
		uc.LastActivity = s.now()
	}
	s.mu.Unlock()

	if !holds {
		requiredRole := s.lowestRoleWith([]Permission{required})
		decision := Decision{
			Granted:            false,
			Reason:             fmt.Sprintf("%s on this resource requires %s (%s role)", operation, required, requiredRole),
			RequiredRole:       &requiredRole,
			MissingPermissions: []Permission{required},
			SecurityScore:      40,
		}
		s.auditDecision(ctx, audit.SeverityWarning, "resource_denied", path, subject, role, false, decision.Reason, nil)
		return decision
	}

	s.auditDecision(ctx, audit.SeverityInfo, "resource_granted", path, subject, role, true, "resource access authorized", nil)
	return Decision{Granted: true, Reason: "authorized", SecurityScore: 100}
}

// resourcePermission maps (path, operation) to the permission it requires.
// Config-scoped paths escalate one level beyond regular resources.
func resourcePermission(path, operation string) (Permission, error) {
	configScoped := strings.HasPrefix(path, "config/") || strings.HasSuffix(path, ".conf")

	switch operation {
	case "read":
		if configScoped {
			return PermissionConfigRead, nil
		}
		return PermissionRead, nil
	case "write":
		if configScoped {
			return PermissionConfigWrite, nil
		}
		return PermissionWrite, nil
	case "delete":
		if configScoped {
			return PermissionSecurityAdmin, nil
		}
		return PermissionDelete, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown resource operation %q", operation)
	}
}

// Grant layers a temporary permission onto the session until expiry.
func (s *Service) Grant(ctx context.Context, sessionID string, perm Permission, duration time.Duration) error {
	if duration <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "grant duration must be positive")
	}

	s.mu.Lock()
	uc, ok := s.sessions[sessionID]
	if !ok || s.expired(uc) {
		s.mu.Unlock()
		return dErrors.New(dErrors.CodeUnauthorized, "no active session")
	}
	expiry := s.now().Add(duration)
	uc.TemporaryGrants[perm] = expiry
	subject, role := uc.SubjectID, uc.Role
	s.mu.Unlock()

	s.auditDecision(ctx, audit.SeverityWarning, "permission_granted", string(perm), subject, role, true,
		fmt.Sprintf("temporary grant of %s until %s", perm, expiry.Format(time.RFC3339)), nil)
	return nil
}

// Elevate layers the target role's extra permissions onto the session as
// temporary grants. The stored role never changes; the elevation duration is
// capped and a justification is mandatory.
func (s *Service) Elevate(ctx context.Context, sessionID string, target Role, justification string, duration time.Duration) error {
	if strings.TrimSpace(justification) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "elevation requires a justification")
	}
	if target <= RoleViewer || target > RoleAdmin {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid elevation target")
	}
	if duration <= 0 || duration > elevationHardCap {
		duration = elevationHardCap
	}

	s.mu.Lock()
	uc, ok := s.sessions[sessionID]
	if !ok || s.expired(uc) {
		s.mu.Unlock()
		return dErrors.New(dErrors.CodeUnauthorized, "no active session")
	}
	if uc.Role < elevationMinRole {
		subject, role := uc.SubjectID, uc.Role
		s.mu.Unlock()
		s.auditDecision(ctx, audit.SeverityWarning, "elevation_denied", target.String(), subject, role, false,
			fmt.Sprintf("elevation requires at least the %s role", elevationMinRole), nil)
		return dErrors.Newf(dErrors.CodeForbidden, "elevation requires at least the %s role", elevationMinRole)
	}
	if target <= uc.Role {
		s.mu.Unlock()
		return dErrors.New(dErrors.CodeInvalidInput, "target role does not exceed the current role")
	}

	expiry := s.now().Add(duration)
	for perm := range s.permsByRole[target] {
		if !s.permsByRole[uc.Role][perm] {
			uc.TemporaryGrants[perm] = expiry
		}
	}
	subject, role := uc.SubjectID, uc.Role
	s.mu.Unlock()

	s.auditDecision(ctx, audit.SeverityHigh, "role_elevated", target.String(), subject, role, true,
		fmt.Sprintf("elevated to %s until %s: %s", target, expiry.Format(time.RFC3339), justification), nil)
	return nil
}

// ResetGrants drops every temporary grant on the subject's sessions; used by
// threat auto-response.
func (s *Service) ResetGrants(ctx context.Context, subjectID string) int {
	s.mu.Lock()
	reset := 0
	var role Role
	for _, uc := range s.sessions {
		if uc.SubjectID != subjectID {
			continue
		}
		if len(uc.TemporaryGrants) > 0 {
			uc.TemporaryGrants = make(map[Permission]time.Time)
			reset++
		}
		role = uc.Role
	}
	s.mu.Unlock()

	if reset > 0 {
		s.auditDecision(ctx, audit.SeverityHigh, "grants_reset", "", subjectID, role, true,
			"temporary grants reset by threat response", nil)
	}
	return reset
}

// ExpireSessions drops the subject's sessions entirely, forcing re-auth.
func (s *Service) ExpireSessions(ctx context.Context, subjectID string) int {
	s.mu.Lock()
	var dropped []*UserContext
	for id, uc := range s.sessions {
		if uc.SubjectID == subjectID {
			dropped = append(dropped, uc)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, uc := range dropped {
		s.auditDecision(ctx, audit.SeverityHigh, "session_expired_forcibly", "", uc.SubjectID, uc.Role, true,
			"session terminated by threat response", nil)
	}
	return len(dropped)
}

// RolePermissions exposes the effective permission set of a role; used by
// tests and the status endpoint.
func (s *Service) RolePermissions(role Role) []Permission {
	perms := make([]Permission, 0, len(s.permsByRole[role]))
	for perm := range s.permsByRole[role] {
		perms = append(perms, perm)
	}
	return perms
}

func (s *Service) expired(uc *UserContext) bool {
	return s.now().Sub(uc.LastActivity) >= s.sessionTimeout
}

// lowestRoleWith returns the least privileged role holding every permission.
func (s *Service) lowestRoleWith(perms []Permission) Role {
	for role := RoleViewer; role <= RoleAdmin; role++ {
		all := true
		for _, perm := range perms {
			if !s.permsByRole[role][perm] {
				all = false
				break
			}
		}
		if all {
			return role
		}
	}
	return RoleAdmin
}

func (s *Service) deny(ctx context.Context, resource, subject string, role Role, reason string, missing []Permission, score int) Decision {
	decision := Decision{
		Granted:            false,
		Reason:             reason,
		MissingPermissions: missing,
		SecurityScore:      score,
	}
	s.auditDecision(ctx, audit.SeverityWarning, "access_denied", resource, subject, role, false, reason, nil)
	return decision
}

func (s *Service) auditDecision(ctx context.Context, severity audit.Severity, action, resource, subject string, role Role, success bool, message string, metadata map[string]string) {
	if s.auditor == nil {
		return
	}
	s.auditor.Log(ctx, severity, audit.CategoryAuthorization, action, resource, success, message, mergeMeta(metadata, subject, role))
}

func mergeMeta(metadata map[string]string, subject string, role Role) map[string]string {
	merged := make(map[string]string, len(metadata)+2)
	for k, v := range metadata {
		merged[k] = v
	}
	if subject != "" {
		merged["subject"] = subject
	}
	merged["role"] = role.String()
	return merged
}
