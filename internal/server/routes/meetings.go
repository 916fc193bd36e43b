package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskflex/internal/models"
	"taskflex/internal/policy"
)

func (tr *TeamRoutes) listMeetingsHandler(c *gin.Context) {
	tc, _, ok := tr.loadTeam(c, policy.ViewTeam, false)
	if !ok {
		return
	}
	meetings, err := tr.db().ListMeetings(c.Request.Context(), tc.Team.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meetings": meetings})
}

func (tr *TeamRoutes) createMeetingHandler(c *gin.Context) {
	tc, _, ok := tr.loadTeam(c, policy.CreateMeeting, false)
	if !ok {
		return
	}

	var req struct {
		Title       string    `json:"title" binding:"required"`
		Description string    `json:"description"`
		StartTime   time.Time `json:"startTime" binding:"required"`
		EndTime     time.Time `json:"endTime" binding:"required,gtfield=StartTime"`
		MeetLink    string    `json:"meetLink" binding:"omitempty,url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p := principal(c)
	ctx := c.Request.Context()
	meeting := &models.Meeting{
		TeamID:      tc.Team.ID,
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime.UTC(),
		EndTime:     req.EndTime.UTC(),
		MeetLink:    req.MeetLink,
		CreatedByID: p.UserID,
	}
	if err := tr.db().CreateMeeting(ctx, meeting); err != nil {
		respondError(c, err)
		return
	}

	memberIDs, err := tr.db().ActiveTeamMemberIDs(ctx, tc.Team.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	tr.publish(c, policy.MeetingScheduled{
		Team:      tc.Team.Ref(),
		Meeting:   meeting.Ref(),
		MemberIDs: memberIDs,
		ActorID:   p.UserID,
		ActorName: p.Name,
	})
	c.JSON(http.StatusCreated, gin.H{"meeting": meeting})
}

// cancelMeetingHandler notifies the team before the meeting row goes away.
func (tr *TeamRoutes) cancelMeetingHandler(c *gin.Context) {
	tc, _, ok := tr.loadTeam(c, policy.CancelMeeting, false)
	if !ok {
		return
	}
	meetingID, ok := uuidParam(c, "meetingID")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	meeting, err := tr.db().GetMeeting(ctx, tc.Team.ID, meetingID)
	if err != nil {
		respondError(c, err)
		return
	}
	memberIDs, err := tr.db().ActiveTeamMemberIDs(ctx, tc.Team.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	tr.publish(c, policy.MeetingCancelled{
		Team:      tc.Team.Ref(),
		Meeting:   meeting.Ref(),
		MemberIDs: memberIDs,
	})
	if err := tr.db().DeleteMeeting(ctx, meeting.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Meeting cancelled"})
}
