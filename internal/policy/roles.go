package policy

// GlobalRole is the application-wide role carried by every user.
type GlobalRole string

const (
	GlobalAdmin   GlobalRole = "ADMIN"
	GlobalManager GlobalRole = "MANAGER"
	GlobalMember  GlobalRole = "MEMBER"
	GlobalAgent   GlobalRole = "AGENT"
)

// Rank orders global roles. Unknown roles rank zero and satisfy nothing.
func (r GlobalRole) Rank() int {
	switch r {
	case GlobalAdmin:
		return 3
	case GlobalManager:
		return 2
	case GlobalMember, GlobalAgent:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether r is ranked at or above min.
func (r GlobalRole) AtLeast(min GlobalRole) bool {
	return r.Rank() > 0 && r.Rank() >= min.Rank()
}

// Valid reports whether r is a known global role.
func (r GlobalRole) Valid() bool { return r.Rank() > 0 }

// OrgRole is a user's role inside one organization.
type OrgRole string

const (
	OrgOwner   OrgRole = "OWNER"
	OrgAdmin   OrgRole = "ADMIN"
	OrgManager OrgRole = "MANAGER"
	OrgMember  OrgRole = "MEMBER"
)

func (r OrgRole) Rank() int {
	switch r {
	case OrgOwner:
		return 4
	case OrgAdmin:
		return 3
	case OrgManager:
		return 2
	case OrgMember:
		return 1
	default:
		return 0
	}
}

func (r OrgRole) AtLeast(min OrgRole) bool {
	return r.Rank() > 0 && r.Rank() >= min.Rank()
}

func (r OrgRole) Valid() bool { return r.Rank() > 0 }

// TeamRole is a user's role inside one team.
type TeamRole string

const (
	TeamOwner  TeamRole = "OWNER"
	TeamAdmin  TeamRole = "ADMIN"
	TeamMember TeamRole = "MEMBER"
)

func (r TeamRole) Rank() int {
	switch r {
	case TeamOwner:
		return 3
	case TeamAdmin:
		return 2
	case TeamMember:
		return 1
	default:
		return 0
	}
}

func (r TeamRole) AtLeast(min TeamRole) bool {
	return r.Rank() > 0 && r.Rank() >= min.Rank()
}

func (r TeamRole) Valid() bool { return r.Rank() > 0 }

// MembershipStatus is the lifecycle state of a team membership.
type MembershipStatus string

const (
	StatusPending MembershipStatus = "PENDING"
	StatusActive  MembershipStatus = "ACTIVE"
)

// UserStatus is the account state of a user.
type UserStatus string

const (
	UserActive    UserStatus = "ACTIVE"
	UserInactive  UserStatus = "INACTIVE"
	UserSuspended UserStatus = "SUSPENDED"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "TODO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskInReview   TaskStatus = "IN_REVIEW"
	TaskDone       TaskStatus = "DONE"
	TaskCancelled  TaskStatus = "CANCELLED"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskInReview, TaskDone, TaskCancelled:
		return true
	default:
		return false
	}
}
