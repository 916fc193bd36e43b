package database

import (
	"context"

	"github.com/google/uuid"

	"taskflex/internal/models"
	"taskflex/internal/policy"
)

// OrgContext is an organization plus the caller's own membership row.
type OrgContext struct {
	Org        *models.Organization
	Membership *models.OrganizationMember
}

// Resource builds the evaluator input. presentedKey is only consulted for
// DeleteOrg.
func (c *OrgContext) Resource(presentedKey string) policy.OrgResource {
	r := policy.OrgResource{PresentedKey: presentedKey}
	if c == nil || c.Org == nil {
		return r
	}
	r.Org = c.Org.Policy()
	if c.Membership != nil {
		r.Membership = &policy.OrgMembership{UserID: c.Membership.UserID, Role: c.Membership.Role}
	}
	return r
}

// TeamContext is a team plus the caller's own membership row.
type TeamContext struct {
	Team       *models.Team
	Membership *models.TeamMembership
}

// Resource builds the evaluator input; target is the membership being
// edited or removed, if any.
func (c *TeamContext) Resource(target *models.TeamMembership) policy.TeamResource {
	var r policy.TeamResource
	if c == nil || c.Team == nil {
		return r
	}
	r.Team = c.Team.Policy()
	r.Membership = c.Membership.Policy()
	r.Target = target.Policy()
	return r
}

// ProjectContext is a project plus how the caller reaches it.
type ProjectContext struct {
	Project      *models.Project
	DirectMember bool
	TeamMember   bool
}

func (c *ProjectContext) Resource() policy.ProjectResource {
	if c == nil || c.Project == nil {
		return policy.ProjectResource{}
	}
	return policy.ProjectResource{
		Project:      c.Project.Policy(),
		DirectMember: c.DirectMember,
		TeamMember:   c.TeamMember,
	}
}

// TaskContext is a task with every id the fanout engine may address.
type TaskContext struct {
	Task         *models.Task
	CommenterIDs []uuid.UUID
}

// Event converts the context for the fanout engine.
func (c *TaskContext) Event() policy.TaskContext {
	return policy.TaskContext{
		TaskRef:      c.Task.Ref(),
		CreatorID:    c.Task.CreatorID,
		AssigneeIDs:  c.Task.AssigneeIDs,
		WatcherIDs:   c.Task.WatcherIDs,
		CommenterIDs: c.CommenterIDs,
	}
}

// AttachmentContext is an attachment and the task it hangs off.
type AttachmentContext struct {
	Attachment *models.Attachment
	Task       *models.Task
}

func (c *AttachmentContext) Resource() policy.AttachmentResource {
	if c == nil || c.Attachment == nil || c.Task == nil {
		return policy.AttachmentResource{}
	}
	return policy.AttachmentResource{Attachment: c.Attachment.Policy(), Task: c.Task.Access()}
}

func (s *service) LoadOrgWithCallerMembership(ctx context.Context, orgID, userID uuid.UUID) (*OrgContext, error) {
	db := s.with(ctx)
	org, err := optional(db.Organizations.Get(orgID))
	if err != nil {
		return nil, translate("load organization", err)
	}
	out := &OrgContext{Org: org}
	if org == nil {
		return out, nil
	}
	out.Membership, err = optional(db.OrganizationMembers.GetByUserAndOrganization(userID, orgID))
	if err != nil {
		return nil, translate("load organization membership", err)
	}
	return out, nil
}

func (s *service) LoadTeamWithCallerMembership(ctx context.Context, teamID, userID uuid.UUID) (*TeamContext, error) {
	db := s.with(ctx)
	team, err := optional(db.Teams.Get(teamID))
	if err != nil {
		return nil, translate("load team", err)
	}
	out := &TeamContext{Team: team}
	if team == nil {
		return out, nil
	}
	out.Membership, err = optional(db.TeamMemberships.GetByUserAndTeam(userID, teamID))
	if err != nil {
		return nil, translate("load team membership", err)
	}
	return out, nil
}

// LoadTeamMembershipTarget always reads the row fresh; callers re-run the
// evaluator on it right before a delete.
func (s *service) LoadTeamMembershipTarget(ctx context.Context, membershipID uuid.UUID) (*models.TeamMembership, error) {
	tm, err := optional(s.with(ctx).TeamMemberships.Get(membershipID))
	if err != nil {
		return nil, translate("load team membership", err)
	}
	return tm, nil
}

// accessRow is the shape of the access query below.
type accessRow struct {
	DirectMember bool
	TeamMember   bool
}

func (s *service) LoadProjectWithAccessContext(ctx context.Context, projectID, userID uuid.UUID) (*ProjectContext, error) {
	db := s.with(ctx)
	project, err := optional(db.Projects.Get(projectID))
	if err != nil {
		return nil, translate("load project", err)
	}
	out := &ProjectContext{Project: project}
	if project == nil {
		return out, nil
	}

	query := `
		SELECT
			EXISTS (
				SELECT 1 FROM project_members pm
				WHERE pm.project_id = p.id AND pm.user_id = ?
			) AS direct_member,
			EXISTS (
				SELECT 1 FROM team_memberships tm
				WHERE tm.team_id = p.team_id AND tm.user_id = ? AND tm.status = ?
			) AS team_member
		FROM projects p
		WHERE p.id = ?`

	var row accessRow
	if err := db.Raw(query, userID, userID, policy.StatusActive, projectID).Scan(&row).Error; err != nil {
		return nil, translate("load project access", err)
	}
	out.DirectMember = row.DirectMember
	out.TeamMember = row.TeamMember
	return out, nil
}

func (s *service) LoadTaskNotificationContext(ctx context.Context, taskID uuid.UUID) (*TaskContext, error) {
	db := s.with(ctx)
	task, err := optional(db.Tasks.Get(taskID))
	if err != nil {
		return nil, translate("load task", err)
	}
	out := &TaskContext{Task: task}
	if task == nil {
		return out, nil
	}
	out.CommenterIDs, err = db.Comments.AuthorIDs(taskID)
	if err != nil {
		return nil, translate("load task commenters", err)
	}
	return out, nil
}

func (s *service) LoadAttachmentWithTask(ctx context.Context, attachmentID uuid.UUID) (*AttachmentContext, error) {
	db := s.with(ctx)
	att, err := optional(db.Attachments.Get(attachmentID))
	if err != nil {
		return nil, translate("load attachment", err)
	}
	out := &AttachmentContext{Attachment: att}
	if att == nil {
		return out, nil
	}
	out.Task, err = optional(db.Tasks.Get(att.TaskID))
	if err != nil {
		return nil, translate("load attachment task", err)
	}
	return out, nil
}
