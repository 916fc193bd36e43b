package policy

import (
	"slices"

	"github.com/google/uuid"
)

// Principal is the authenticated caller. A nil *Principal means there is no
// valid session.
type Principal struct {
	UserID uuid.UUID
	Role   GlobalRole
	Email  string
	Name   string
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == GlobalAdmin
}

// Resource is a loaded entity plus the caller's membership context. A
// resource whose entity is nil stands for "not found".
type Resource interface {
	scope() Scope
	found() bool
}

type Org struct {
	ID           uuid.UUID
	Name         string
	AdminKeyHash []byte
}

type OrgMembership struct {
	UserID uuid.UUID
	Role   OrgRole
}

// OrgResource is an organization with the caller's own membership row.
// PresentedKey is the admin key supplied with the request, if any.
type OrgResource struct {
	Org          *Org
	Membership   *OrgMembership
	PresentedKey string
}

func (OrgResource) scope() Scope   { return ScopeOrg }
func (r OrgResource) found() bool { return r.Org != nil }

type Team struct {
	ID      uuid.UUID
	Name    string
	OwnerID uuid.UUID
}

type TeamMembership struct {
	ID     uuid.UUID
	TeamID uuid.UUID
	UserID uuid.UUID
	Role   TeamRole
	Status MembershipStatus
}

func (m *TeamMembership) Active() bool {
	return m != nil && m.Status == StatusActive
}

// TeamResource is a team with the caller's own membership row. Target is the
// membership acted upon by UpdateTeamMembership and RemoveTeamMember.
type TeamResource struct {
	Team       *Team
	Membership *TeamMembership
	Target     *TeamMembership
}

func (TeamResource) scope() Scope   { return ScopeTeam }
func (r TeamResource) found() bool { return r.Team != nil }

type Project struct {
	ID             uuid.UUID
	Key            string
	Name           string
	OrganizationID *uuid.UUID
	TeamID         *uuid.UUID
}

// ProjectResource carries the two membership facts that grant project access.
type ProjectResource struct {
	Project      *Project
	DirectMember bool
	TeamMember   bool
}

func (ProjectResource) scope() Scope   { return ScopeProject }
func (r ProjectResource) found() bool { return r.Project != nil }

type Attachment struct {
	ID         uuid.UUID
	TaskID     uuid.UUID
	UploaderID uuid.UUID
}

// TaskAccess is the slice of a task that governs attachment access.
type TaskAccess struct {
	CreatorID   uuid.UUID
	AssigneeIDs []uuid.UUID
}

func (t *TaskAccess) involves(userID uuid.UUID) bool {
	return t.CreatorID == userID || slices.Contains(t.AssigneeIDs, userID)
}

type AttachmentResource struct {
	Attachment *Attachment
	Task       *TaskAccess
}

func (AttachmentResource) scope() Scope { return ScopeAttachment }
func (r AttachmentResource) found() bool {
	return r.Attachment != nil && r.Task != nil
}
