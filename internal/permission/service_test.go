package permission

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"aegis/internal/audit"
	rlmodels "aegis/internal/ratelimit/models"
)

type recordedDecision struct {
	Action   string
	Resource string
	Success  bool
}

type recordingAuditor struct {
	mu      sync.Mutex
	entries []recordedDecision
}

func (r *recordingAuditor) Log(_ context.Context, _ audit.Severity, _ audit.Category, action, resource string, success bool, _ string, _ map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, recordedDecision{Action: action, Resource: resource, Success: success})
}

func (r *recordingAuditor) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Action
	}
	return out
}

type stubLimiter struct {
	allowed bool
}

func (s *stubLimiter) CheckN(_ context.Context, key string, limit int, window time.Duration) (*rlmodels.Result, error) {
	return &rlmodels.Result{Allowed: s.allowed, Limit: limit}, nil
}

type PermissionSuite struct {
	suite.Suite
	svc     *Service
	auditor *recordingAuditor
	now     time.Time
}

func (s *PermissionSuite) SetupTest() {
	s.auditor = &recordingAuditor{}
	s.now = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	svc, err := New([]byte("test-signing-key"),
		WithAuditor(s.auditor),
		WithSessionTimeout(30*time.Minute),
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
	s.svc = svc
}

func (s *PermissionSuite) advance(d time.Duration) {
	s.now = s.now.Add(d)
}

func (s *PermissionSuite) startSession(role Role) string {
	sess, err := s.svc.StartSession(context.Background(), "user-1", role, "")
	s.Require().NoError(err)
	return sess.ID
}

func TestPermissionSuite(t *testing.T) {
	suite.Run(t, new(PermissionSuite))
}

func (s *PermissionSuite) TestRoleInheritanceIsStrictSuperset() {
	for role := RoleViewer; role < RoleAdmin; role++ {
		lower := s.svc.permsByRole[role]
		higher := s.svc.permsByRole[role+1]
		s.Greater(len(higher), len(lower), "each role must add permissions over %s", role)
		for perm := range lower {
			s.True(higher[perm], "%s must keep %s held by %s", role+1, perm, role)
		}
	}
}

func (s *PermissionSuite) TestUnmappedCommandDeniedForAdmin() {
	id := s.startSession(RoleAdmin)

	decision := s.svc.AuthorizeCommand(context.Background(), id, "system.shutdown")

	s.False(decision.Granted)
	s.Contains(decision.Reason, "not authorized")
}

func (s *PermissionSuite) TestCommandAuthorizationByRole() {
	viewer := s.startSession(RoleViewer)
	editor := s.startSession(RoleEditor)
	admin := s.startSession(RoleAdmin)

	s.True(s.svc.AuthorizeCommand(context.Background(), viewer, "file.read").Granted)
	s.False(s.svc.AuthorizeCommand(context.Background(), viewer, "file.write").Granted)

	s.True(s.svc.AuthorizeCommand(context.Background(), editor, "docs.generate").Granted)
	s.False(s.svc.AuthorizeCommand(context.Background(), editor, "config.set").Granted)

	s.True(s.svc.AuthorizeCommand(context.Background(), admin, "security.configure").Granted)
}

func (s *PermissionSuite) TestDenialNamesRequiredRole() {
	id := s.startSession(RoleViewer)

	decision := s.svc.AuthorizeCommand(context.Background(), id, "file.delete")

	s.False(decision.Granted)
	s.Require().NotNil(decision.RequiredRole)
	s.Equal(RoleMaintainer, *decision.RequiredRole)
	s.Equal([]Permission{PermissionDelete}, decision.MissingPermissions)
}

func (s *PermissionSuite) TestTemporaryGrantExpiryBoundary() {
	id := s.startSession(RoleViewer)
	ctx := context.Background()

	err := s.svc.Grant(ctx, id, PermissionWrite, 10*time.Minute)
	s.Require().NoError(err)

	s.advance(10*time.Minute - time.Millisecond)
	s.True(s.svc.HasPermission(ctx, id, PermissionWrite), "grant must hold just before expiry")

	s.advance(2 * time.Millisecond)
	s.False(s.svc.HasPermission(ctx, id, PermissionWrite), "grant must lapse at expiry")

	// Eviction is lazy: the lapsed grant is gone after the failed check.
	s.svc.mu.RLock()
	_, present := s.svc.sessions[id].TemporaryGrants[PermissionWrite]
	s.svc.mu.RUnlock()
	s.False(present)
}

func (s *PermissionSuite) TestSessionTimeoutDeniesEverything() {
	id := s.startSession(RoleAdmin)
	ctx := context.Background()

	s.advance(31 * time.Minute)

	s.False(s.svc.HasPermission(ctx, id, PermissionRead))
	decision := s.svc.AuthorizeCommand(ctx, id, "file.read")
	s.False(decision.Granted)
	s.Contains(decision.Reason, "session")
}

func (s *PermissionSuite) TestActivityExtendsSession() {
	id := s.startSession(RoleViewer)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		s.advance(20 * time.Minute)
		s.True(s.svc.AuthorizeCommand(ctx, id, "file.read").Granted)
	}
}

func (s *PermissionSuite) TestElevationRequiresJustification() {
	id := s.startSession(RoleEditor)

	err := s.svc.Elevate(context.Background(), id, RoleMaintainer, "   ", 5*time.Minute)
	s.Error(err)
}

func (s *PermissionSuite) TestViewerCannotElevate() {
	id := s.startSession(RoleViewer)

	err := s.svc.Elevate(context.Background(), id, RoleEditor, "need write access", 5*time.Minute)
	s.Error(err)
}

func (s *PermissionSuite) TestElevationLayersGrantsWithoutChangingRole() {
	id := s.startSession(RoleEditor)
	ctx := context.Background()

	err := s.svc.Elevate(ctx, id, RoleMaintainer, "incident 4312 cleanup", 5*time.Minute)
	s.Require().NoError(err)

	s.True(s.svc.HasPermission(ctx, id, PermissionDelete))
	s.svc.mu.RLock()
	role := s.svc.sessions[id].Role
	s.svc.mu.RUnlock()
	s.Equal(RoleEditor, role, "elevation must not touch the stored role")

	s.advance(6 * time.Minute)
	s.False(s.svc.HasPermission(ctx, id, PermissionDelete), "elevation must lapse")
}

func (s *PermissionSuite) TestElevationDurationIsCapped() {
	id := s.startSession(RoleEditor)
	ctx := context.Background()

	err := s.svc.Elevate(ctx, id, RoleMaintainer, "long migration", 4*time.Hour)
	s.Require().NoError(err)

	s.advance(elevationHardCap + time.Minute)
	s.False(s.svc.HasPermission(ctx, id, PermissionDelete))
}

func (s *PermissionSuite) TestResourceOperationsEscalate() {
	viewer := s.startSession(RoleViewer)
	editor := s.startSession(RoleEditor)
	maintainer := s.startSession(RoleMaintainer)
	admin := s.startSession(RoleAdmin)
	ctx := context.Background()

	s.True(s.svc.AuthorizeResource(ctx, viewer, "docs/readme.md", "read").Granted)
	s.False(s.svc.AuthorizeResource(ctx, viewer, "docs/readme.md", "write").Granted)
	s.True(s.svc.AuthorizeResource(ctx, editor, "docs/readme.md", "write").Granted)
	s.False(s.svc.AuthorizeResource(ctx, editor, "docs/readme.md", "delete").Granted)

	s.False(s.svc.AuthorizeResource(ctx, editor, "config/server.yaml", "read").Granted)
	s.True(s.svc.AuthorizeResource(ctx, maintainer, "config/server.yaml", "read").Granted)
	s.False(s.svc.AuthorizeResource(ctx, maintainer, "config/server.yaml", "write").Granted)
	s.True(s.svc.AuthorizeResource(ctx, admin, "config/server.yaml", "delete").Granted)
}

func (s *PermissionSuite) TestUnknownResourceOperationDenied() {
	id := s.startSession(RoleAdmin)

	decision := s.svc.AuthorizeResource(context.Background(), id, "docs/readme.md", "chmod")
	s.False(decision.Granted)
}

func (s *PermissionSuite) TestTimeWindowRestriction() {
	svc, err := New([]byte("test-signing-key"),
		WithClock(func() time.Time { return s.now }),
		WithSessionTimeout(24*time.Hour),
		WithTimeWindow("audit.export", TimeWindow{FromHour: 9, ToHour: 17}),
	)
	s.Require().NoError(err)

	sess, err := svc.StartSession(context.Background(), "user-1", RoleMaintainer, "")
	s.Require().NoError(err)

	s.True(svc.AuthorizeCommand(context.Background(), sess.ID, "audit.export").Granted, "14:00 is inside the window")

	s.now = time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)
	decision := svc.AuthorizeCommand(context.Background(), sess.ID, "audit.export")
	s.False(decision.Granted)
	s.Contains(decision.Reason, "permitted between")
}

func (s *PermissionSuite) TestCommandRateLimit() {
	svc, err := New([]byte("test-signing-key"),
		WithClock(func() time.Time { return s.now }),
		WithLimiter(&stubLimiter{allowed: false}),
		WithCommandLimit("docs.generate", CommandLimit{Limit: 5, Window: time.Minute}),
	)
	s.Require().NoError(err)

	sess, err := svc.StartSession(context.Background(), "user-1", RoleEditor, "")
	s.Require().NoError(err)

	decision := svc.AuthorizeCommand(context.Background(), sess.ID, "docs.generate")
	s.False(decision.Granted)
	s.Contains(decision.Reason, "rate limit")
}

func (s *PermissionSuite) TestEveryDecisionIsAudited() {
	id := s.startSession(RoleViewer)
	ctx := context.Background()

	s.svc.AuthorizeCommand(ctx, id, "file.read")
	s.svc.AuthorizeCommand(ctx, id, "file.delete")
	s.svc.AuthorizeCommand(ctx, id, "nonexistent.command")

	actions := s.auditor.actions()
	s.Contains(actions, "session_started")
	s.Contains(actions, "command_granted")
	s.Contains(actions, "command_denied")
	s.Contains(actions, "access_denied")
}

func (s *PermissionSuite) TestThreatResponseHelpers() {
	id := s.startSession(RoleEditor)
	ctx := context.Background()

	s.Require().NoError(s.svc.Grant(ctx, id, PermissionDelete, 10*time.Minute))
	s.Equal(1, s.svc.ResetGrants(ctx, "user-1"))
	s.False(s.svc.HasPermission(ctx, id, PermissionDelete))

	s.Equal(1, s.svc.ExpireSessions(ctx, "user-1"))
	s.False(s.svc.AuthorizeCommand(ctx, id, "file.read").Granted)
}

func TestEndSessionRemovesState(t *testing.T) {
	svc, err := New([]byte("test-signing-key"))
	require.NoError(t, err)

	sess, err := svc.StartSession(context.Background(), "user-2", RoleEditor, "")
	require.NoError(t, err)

	svc.EndSession(context.Background(), sess.ID)
	require.False(t, svc.HasPermission(context.Background(), sess.ID, PermissionRead))
}
