package threat

import (
	"context"
	"log/slog"
	"sync"
)

// GrantResetter is the permission-service surface the responder needs;
// satisfied by *permission.Service.
type GrantResetter interface {
	ResetGrants(ctx context.Context, subjectID string) int
	ExpireSessions(ctx context.Context, subjectID string) int
}

// responder applies the mitigation vocabulary. Block and quarantine are
// process-local sets the orchestrator consults before serving a subject;
// quarantine additionally drops the subject's sessions.
type responder struct {
	mu          sync.RWMutex
	blocked     map[string]bool
	quarantined map[string]bool
	heightened  map[string]bool

	permissions GrantResetter
	logger      *slog.Logger
}

func newResponder(permissions GrantResetter, logger *slog.Logger) *responder {
	return &responder{
		blocked:     make(map[string]bool),
		quarantined: make(map[string]bool),
		heightened:  make(map[string]bool),
		permissions: permissions,
		logger:      logger,
	}
}

// dispatch applies each mitigation on the detection to its subject.
func (r *responder) dispatch(ctx context.Context, detection Detection) {
	subject := detection.SubjectID
	if subject == "" {
		return
	}
	for _, mitigation := range detection.Mitigations {
		switch mitigation {
		case MitigationBlockSubject:
			r.mu.Lock()
			r.blocked[subject] = true
			r.mu.Unlock()
		case MitigationQuarantineSubject:
			r.mu.Lock()
			r.quarantined[subject] = true
			r.mu.Unlock()
			if r.permissions != nil {
				r.permissions.ExpireSessions(ctx, subject)
			}
		case MitigationResetPermissions:
			if r.permissions != nil {
				r.permissions.ResetGrants(ctx, subject)
			}
		case MitigationHeightenMonitoring:
			r.mu.Lock()
			r.heightened[subject] = true
			r.mu.Unlock()
		case MitigationRequireReauth:
			if r.permissions != nil {
				r.permissions.ExpireSessions(ctx, subject)
			}
		}
		r.logger.Warn("mitigation applied",
			"mitigation", string(mitigation),
			"subject", subject,
			"detection", detection.Type)
	}
}

func (r *responder) isBlocked(subject string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.blocked[subject] || r.quarantined[subject]
}

func (r *responder) isHeightened(subject string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.heightened[subject]
}

// unblock clears every restriction on the subject; an operator action.
func (r *responder) unblock(subject string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.blocked, subject)
	delete(r.quarantined, subject)
	delete(r.heightened, subject)
}
