// Package permission implements role-based authorization with strict-superset
// role inheritance, temporary grants, and time-bounded elevation.
package permission

import "time"

// Role orders privilege levels. A higher role always holds every permission
// of the roles below it.
type Role int

const (
	RoleViewer Role = iota
	RoleEditor
	RoleMaintainer
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleViewer:
		return "viewer"
	case RoleEditor:
		return "editor"
	case RoleMaintainer:
		return "maintainer"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Permission names a single grantable capability.
type Permission string

const (
	PermissionRead           Permission = "resource:read"
	PermissionWrite          Permission = "resource:write"
	PermissionDelete         Permission = "resource:delete"
	PermissionGenerate       Permission = "docs:generate"
	PermissionTemplateRender Permission = "template:render"
	PermissionConfigRead     Permission = "config:read"
	PermissionConfigWrite    Permission = "config:write"
	PermissionAuditRead      Permission = "audit:read"
	PermissionSecurityAdmin  Permission = "security:admin"
)

// roleGrants lists what each role adds on top of the role below it. The
// effective sets are folded once at construction so inheritance is strictly
// monotonic by build, not by discipline.
var roleGrants = map[Role][]Permission{
	RoleViewer:     {PermissionRead},
	RoleEditor:     {PermissionGenerate, PermissionTemplateRender, PermissionWrite},
	RoleMaintainer: {PermissionDelete, PermissionConfigRead, PermissionAuditRead},
	RoleAdmin:      {PermissionConfigWrite, PermissionSecurityAdmin},
}

// commandPermissions is the explicit allow-list mapping commands to required
// permissions. A command missing here is denied by default.
var commandPermissions = map[string][]Permission{
	"docs.generate":      {PermissionGenerate},
	"template.render":    {PermissionTemplateRender},
	"file.read":          {PermissionRead},
	"file.write":         {PermissionWrite},
	"file.delete":        {PermissionDelete},
	"config.get":         {PermissionConfigRead},
	"config.set":         {PermissionConfigWrite},
	"audit.export":       {PermissionAuditRead},
	"security.configure": {PermissionSecurityAdmin},
}

// UserContext is the per-session authorization state. The stored role never
// changes after session start; elevation layers temporary grants on top.
type UserContext struct {
	SessionID       string
	SubjectID       string
	Role            Role
	TemporaryGrants map[Permission]time.Time // permission -> expiry
	LastActivity    time.Time
	Device          string
}

// Decision is the outcome of one authorization check. Reason is safe to show
// to the caller: it names the missing role or permission, never internal rule
// identifiers.
type Decision struct {
	Granted            bool
	Reason             string
	RequiredRole       *Role
	MissingPermissions []Permission
	SecurityScore      int
}

// TimeWindow restricts a command to a daily hour range [FromHour, ToHour).
type TimeWindow struct {
	FromHour int
	ToHour   int
}

func (w TimeWindow) contains(t time.Time) bool {
	hour := t.Hour()
	if w.FromHour <= w.ToHour {
		return hour >= w.FromHour && hour < w.ToHour
	}
	// Window crossing midnight.
	return hour >= w.FromHour || hour < w.ToHour
}

// CommandLimit is a per-command fixed-window rate limit.
type CommandLimit struct {
	Limit  int
	Window time.Duration
}
