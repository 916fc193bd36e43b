package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"taskflex/internal/models"
	"taskflex/internal/policy"
)

func (s *service) CreateTeam(ctx context.Context, team *models.Team) error {
	return translate("create team", s.with(ctx).Teams.CreateWithOwner(team))
}

func (s *service) ListTeams(ctx context.Context, userID uuid.UUID) ([]models.Team, error) {
	teams, err := s.with(ctx).Teams.ForUser(userID)
	return teams, translate("list teams", err)
}

func (s *service) TeamMembers(ctx context.Context, teamID uuid.UUID) ([]models.TeamMembership, error) {
	members, err := s.with(ctx).TeamMemberships.ForTeam(teamID)
	return members, translate("list team members", err)
}

func (s *service) ActiveTeamMemberIDs(ctx context.Context, teamID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.with(ctx).TeamMemberships.ActiveUserIDs(teamID)
	return ids, translate("list active team members", err)
}

func (s *service) UpdateTeam(ctx context.Context, team *models.Team) error {
	return translate("update team", s.with(ctx).Teams.UpdateDetails(team))
}

// InviteTeamMember creates a PENDING membership. Only ADMIN and MEMBER may
// be granted; an existing membership of any status is a conflict.
func (s *service) InviteTeamMember(ctx context.Context, teamID, userID, inviterID uuid.UUID, role policy.TeamRole) (*models.TeamMembership, error) {
	if role == "" {
		role = policy.TeamMember
	}
	if !assignableTeamRole(role) {
		return nil, translate("invite team member", ErrValidation)
	}
	tm, err := s.with(ctx).TeamMemberships.Invite(teamID, userID, inviterID, role)
	if err != nil {
		return nil, translate("invite team member", err)
	}
	return tm, nil
}

// AcceptTeamInvitation activates the pending membership identified by token.
// Only the invited user may accept it.
func (s *service) AcceptTeamInvitation(ctx context.Context, token string, userID uuid.UUID) (*models.TeamMembership, error) {
	var accepted *models.TeamMembership
	err := s.db.Transaction(ctx, func(tx *models.DB) error {
		tm, err := tx.TeamMemberships.GetPendingByToken(token)
		if err != nil {
			return err
		}
		if tm.UserID != userID {
			return policy.ErrForbidden
		}
		if err := tm.Accept(tx.DB); err != nil {
			return err
		}
		accepted = tm
		return nil
	})
	if errors.Is(err, policy.ErrForbidden) {
		return nil, fmt.Errorf("accept invitation: %w", err)
	}
	if err != nil {
		return nil, translate("accept invitation", err)
	}
	return accepted, nil
}

// UpdateTeamMemberRole re-roles a non-owner membership. Last write wins.
func (s *service) UpdateTeamMemberRole(ctx context.Context, membershipID uuid.UUID, role policy.TeamRole) error {
	if !assignableTeamRole(role) {
		return translate("update team member", ErrValidation)
	}
	db := s.with(ctx)
	tm, err := db.TeamMemberships.Get(membershipID)
	if err != nil {
		return translate("update team member", err)
	}
	if tm.IsOwner() {
		return fmt.Errorf("update team member: %w", policy.ErrCannotRemoveOwner)
	}
	return translate("update team member", db.TeamMemberships.UpdateRole(membershipID, role))
}

// RemoveTeamMember deletes a membership. The owner row is refused here as
// well as in the evaluator, against the freshest read.
func (s *service) RemoveTeamMember(ctx context.Context, membershipID uuid.UUID) error {
	db := s.with(ctx)
	tm, err := db.TeamMemberships.Get(membershipID)
	if err != nil {
		return translate("remove team member", err)
	}
	if tm.IsOwner() {
		return fmt.Errorf("remove team member: %w", policy.ErrCannotRemoveOwner)
	}
	return translate("remove team member", db.TeamMemberships.Delete(membershipID))
}

func assignableTeamRole(r policy.TeamRole) bool {
	return r == policy.TeamAdmin || r == policy.TeamMember
}

func (s *service) ListMeetings(ctx context.Context, teamID uuid.UUID) ([]models.Meeting, error) {
	meetings, err := s.with(ctx).Meetings.ForTeam(teamID)
	return meetings, translate("list meetings", err)
}

func (s *service) CreateMeeting(ctx context.Context, meeting *models.Meeting) error {
	if meeting.Title == "" || !meeting.EndTime.After(meeting.StartTime) {
		return translate("create meeting", ErrValidation)
	}
	return translate("create meeting", s.with(ctx).Meetings.Create(meeting))
}

func (s *service) GetMeeting(ctx context.Context, teamID, meetingID uuid.UUID) (*models.Meeting, error) {
	m, err := s.with(ctx).Meetings.GetForTeam(teamID, meetingID)
	return m, translate("get meeting", err)
}

func (s *service) DeleteMeeting(ctx context.Context, meetingID uuid.UUID) error {
	return translate("delete meeting", s.with(ctx).Meetings.Delete(meetingID))
}
