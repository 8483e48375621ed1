package domain

// SubjectType distinguishes authenticated caller kinds.
type SubjectType string

const (
	SubjectTypeWorker SubjectType = "WORKER"
	SubjectTypeAdmin  SubjectType = "ADMIN"
	SubjectTypeSystem SubjectType = "SYSTEM"
)

// AdminRole scopes what an admin principal may do.
type AdminRole string

const (
	AdminRoleModerator AdminRole = "MODERATOR"
	AdminRoleReviewer  AdminRole = "REVIEWER"
	AdminRoleSuper     AdminRole = "SUPER_ADMIN"
)

// SystemActorID marks mutations performed by the service itself, such
// as scheduler-driven expiry and appeal-approval cascades.
const SystemActorID = "system"
