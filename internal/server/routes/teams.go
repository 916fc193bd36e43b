package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskflex/internal/database"
	"taskflex/internal/models"
	"taskflex/internal/policy"
)

type TeamRoutes struct {
	handler
}

func NewTeamRoutes(server ServerInterface) *TeamRoutes {
	return &TeamRoutes{handler{server: server}}
}

func (tr *TeamRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(tr.server)

	g := r.Group("/teams", middleware.AuthMiddleware())
	g.POST("", tr.createTeamHandler)
	g.GET("", tr.listTeamsHandler)
	g.GET("/:teamID", tr.getTeamHandler)
	g.PUT("/:teamID", tr.updateTeamHandler)
	g.POST("/:teamID/invitations", tr.inviteMemberHandler)
	g.PUT("/:teamID/members/:membershipID", tr.updateMemberHandler)
	g.DELETE("/:teamID/members/:membershipID", tr.removeMemberHandler)

	g.GET("/:teamID/meetings", tr.listMeetingsHandler)
	g.POST("/:teamID/meetings", tr.createMeetingHandler)
	g.DELETE("/:teamID/meetings/:meetingID", tr.cancelMeetingHandler)

	r.POST("/team-invitations/:token/accept", middleware.AuthMiddleware(), tr.acceptInvitationHandler)
}

// loadTeam loads the team named in the path and checks a. When withTarget
// is set the membership named by :membershipID is read fresh and handed to
// the evaluator as well.
func (tr *TeamRoutes) loadTeam(c *gin.Context, a policy.Action, withTarget bool) (*database.TeamContext, *models.TeamMembership, bool) {
	teamID, ok := uuidParam(c, "teamID")
	if !ok {
		return nil, nil, false
	}
	ctx := c.Request.Context()
	tc, err := tr.db().LoadTeamWithCallerMembership(ctx, teamID, principal(c).UserID)
	if err != nil {
		respondError(c, err)
		return nil, nil, false
	}

	var target *models.TeamMembership
	if withTarget && tc.Team != nil {
		membershipID, ok := uuidParam(c, "membershipID")
		if !ok {
			return nil, nil, false
		}
		if target, err = tr.db().LoadTeamMembershipTarget(ctx, membershipID); err != nil {
			respondError(c, err)
			return nil, nil, false
		}
	}

	if !authorize(c, a, tc.Resource(target)) {
		return nil, nil, false
	}
	return tc, target, true
}

func (tr *TeamRoutes) createTeamHandler(c *gin.Context) {
	var req struct {
		Name           string     `json:"name" binding:"required"`
		Description    string     `json:"description"`
		OrganizationID *uuid.UUID `json:"organizationId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p := principal(c)
	ctx := c.Request.Context()
	if req.OrganizationID != nil {
		oc, err := tr.db().LoadOrgWithCallerMembership(ctx, *req.OrganizationID, p.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		if !authorize(c, policy.ViewOrg, oc.Resource("")) {
			return
		}
	}

	team := &models.Team{
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		OrganizationID: req.OrganizationID,
		OwnerID:        p.UserID,
	}
	if err := tr.db().CreateTeam(ctx, team); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"team": team})
}

func (tr *TeamRoutes) listTeamsHandler(c *gin.Context) {
	teams, err := tr.db().ListTeams(c.Request.Context(), principal(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"teams": teams})
}

func (tr *TeamRoutes) getTeamHandler(c *gin.Context) {
	tc, _, ok := tr.loadTeam(c, policy.ViewTeam, false)
	if !ok {
		return
	}
	members, err := tr.db().TeamMembers(c.Request.Context(), tc.Team.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"team": models.TeamDetail{Team: *tc.Team, Members: members}})
}

func (tr *TeamRoutes) updateTeamHandler(c *gin.Context) {
	tc, _, ok := tr.loadTeam(c, policy.UpdateTeam, false)
	if !ok {
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	team := tc.Team
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			respondError(c, database.ErrValidation)
			return
		}
		team.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		team.Description = *req.Description
	}
	if err := tr.db().UpdateTeam(c.Request.Context(), team); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"team": team})
}

// inviteMemberHandler creates a pending membership for an existing user and
// returns the single-use invitation link.
func (tr *TeamRoutes) inviteMemberHandler(c *gin.Context) {
	tc, _, ok := tr.loadTeam(c, policy.InviteTeamMember, false)
	if !ok {
		return
	}

	var req struct {
		Email string          `json:"email" binding:"required,email"`
		Role  policy.TeamRole `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p := principal(c)
	ctx := c.Request.Context()
	user, err := tr.db().GetUserByEmail(ctx, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	invite, err := tr.db().InviteTeamMember(ctx, tc.Team.ID, user.ID, p.UserID, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	tr.publish(c, policy.TeamInvited{
		Team:          tc.Team.Ref(),
		MembershipID:  invite.ID,
		InvitedUserID: user.ID,
		InviterName:   p.Name,
	})
	c.JSON(http.StatusCreated, gin.H{
		"membership":     invite,
		"invitationLink": invite.InvitationLink(tr.server.GetConfig().InvitationsBase),
	})
}

func (tr *TeamRoutes) acceptInvitationHandler(c *gin.Context) {
	p := principal(c)
	ctx := c.Request.Context()

	membership, err := tr.db().AcceptTeamInvitation(ctx, c.Param("token"), p.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	tc, err := tr.db().LoadTeamWithCallerMembership(ctx, membership.TeamID, p.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	members, err := tr.db().TeamMembers(ctx, membership.TeamID)
	if err != nil {
		respondError(c, err)
		return
	}
	if tc.Team != nil {
		audience := make([]policy.TeamMembership, 0, len(members))
		for i := range members {
			audience = append(audience, *members[i].Policy())
		}
		tr.publish(c, policy.TeamInviteAccepted{
			Team:            tc.Team.Ref(),
			Members:         audience,
			AcceptingUserID: p.UserID,
			AcceptingName:   p.Name,
		})
	}
	c.JSON(http.StatusOK, gin.H{"membership": membership})
}

func (tr *TeamRoutes) updateMemberHandler(c *gin.Context) {
	_, target, ok := tr.loadTeam(c, policy.UpdateTeamMembership, true)
	if !ok {
		return
	}

	var req struct {
		Role policy.TeamRole `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := tr.db().UpdateTeamMemberRole(c.Request.Context(), target.ID, req.Role); err != nil {
		respondError(c, err)
		return
	}
	target.Role = req.Role
	c.JSON(http.StatusOK, gin.H{"membership": target})
}

func (tr *TeamRoutes) removeMemberHandler(c *gin.Context) {
	_, target, ok := tr.loadTeam(c, policy.RemoveTeamMember, true)
	if !ok {
		return
	}
	if err := tr.db().RemoveTeamMember(c.Request.Context(), target.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}
