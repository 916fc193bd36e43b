package policy

// Scope is the kind of resource an action applies to.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeOrg
	ScopeTeam
	ScopeProject
	ScopeAttachment
)

func (s Scope) String() string {
	switch s {
	case ScopeOrg:
		return "organization"
	case ScopeTeam:
		return "team"
	case ScopeProject:
		return "project"
	case ScopeAttachment:
		return "attachment"
	default:
		return "none"
	}
}

// Action is the closed set of operations the evaluator knows about.
type Action int

const (
	ViewOrg Action = iota + 1
	UpdateOrg
	DeleteOrg
	InviteOrgMember

	ViewTeam
	UpdateTeam
	UpdateTeamMembership
	RemoveTeamMember
	InviteTeamMember
	CreateMeeting
	CancelMeeting

	ViewProject
	CreateTask
	ViewTask
	UpdateTask
	CommentOnTask
	UploadAttachment
	AddProjectMember
	DeleteProject

	ViewAttachment
)

var actionNames = map[Action]string{
	ViewOrg:              "view_org",
	UpdateOrg:            "update_org",
	DeleteOrg:            "delete_org",
	InviteOrgMember:      "invite_org_member",
	ViewTeam:             "view_team",
	UpdateTeam:           "update_team",
	UpdateTeamMembership: "update_team_membership",
	RemoveTeamMember:     "remove_team_member",
	InviteTeamMember:     "invite_team_member",
	CreateMeeting:        "create_meeting",
	CancelMeeting:        "cancel_meeting",
	ViewProject:          "view_project",
	CreateTask:           "create_task",
	ViewTask:             "view_task",
	UpdateTask:           "update_task",
	CommentOnTask:        "comment_on_task",
	UploadAttachment:     "upload_attachment",
	AddProjectMember:     "add_project_member",
	DeleteProject:        "delete_project",
	ViewAttachment:       "view_attachment",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "unknown"
}

// Scope returns the resource scope the action is evaluated against.
func (a Action) Scope() Scope {
	switch {
	case a >= ViewOrg && a <= InviteOrgMember:
		return ScopeOrg
	case a >= ViewTeam && a <= CancelMeeting:
		return ScopeTeam
	case a >= ViewProject && a <= DeleteProject:
		return ScopeProject
	case a == ViewAttachment:
		return ScopeAttachment
	default:
		return ScopeNone
	}
}

// Minimum membership role per action. Team actions absent from the table
// only need an active membership.
var (
	orgRequirements = map[Action]OrgRole{
		ViewOrg:         OrgMember,
		UpdateOrg:       OrgAdmin,
		DeleteOrg:       OrgAdmin,
		InviteOrgMember: OrgAdmin,
	}

	teamRequirements = map[Action]TeamRole{
		ViewTeam:             TeamMember,
		UpdateTeam:           TeamAdmin,
		UpdateTeamMembership: TeamAdmin,
		RemoveTeamMember:     TeamAdmin,
		InviteTeamMember:     TeamAdmin,
		CreateMeeting:        TeamAdmin,
		CancelMeeting:        TeamAdmin,
	}

	// Project actions need project access plus, for the listed ones, a
	// minimum global role.
	projectRequirements = map[Action]GlobalRole{
		AddProjectMember: GlobalManager,
		DeleteProject:    GlobalAdmin,
	}
)
