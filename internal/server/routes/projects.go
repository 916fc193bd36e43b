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

type ProjectRoutes struct {
	handler
}

func NewProjectRoutes(server ServerInterface) *ProjectRoutes {
	return &ProjectRoutes{handler{server: server}}
}

func (pr *ProjectRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(pr.server)

	g := r.Group("/projects", middleware.AuthMiddleware())
	g.POST("", pr.createProjectHandler)
	g.GET("", pr.listProjectsHandler)
	g.GET("/:projectID", pr.getProjectHandler)
	g.POST("/:projectID/members", pr.addMemberHandler)
	g.DELETE("/:projectID", pr.deleteProjectHandler)
	g.POST("/:projectID/tasks", pr.createTaskHandler)
}

func (h handler) loadProject(c *gin.Context, projectID uuid.UUID, a policy.Action) (*database.ProjectContext, bool) {
	pc, err := h.db().LoadProjectWithAccessContext(c.Request.Context(), projectID, principal(c).UserID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if !authorize(c, a, pc.Resource()) {
		return nil, false
	}
	return pc, true
}

func (pr *ProjectRoutes) projectFromPath(c *gin.Context, a policy.Action) (*database.ProjectContext, bool) {
	projectID, ok := uuidParam(c, "projectID")
	if !ok {
		return nil, false
	}
	return pr.loadProject(c, projectID, a)
}

// createProjectHandler creates a project; the caller becomes its first
// direct member. A project attached to a team or organization requires the
// caller to be able to see it.
func (pr *ProjectRoutes) createProjectHandler(c *gin.Context) {
	var req struct {
		Key            string     `json:"key" binding:"required,max=16"`
		Name           string     `json:"name" binding:"required"`
		Description    string     `json:"description"`
		OrganizationID *uuid.UUID `json:"organizationId"`
		TeamID         *uuid.UUID `json:"teamId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p := principal(c)
	ctx := c.Request.Context()
	if req.OrganizationID != nil {
		oc, err := pr.db().LoadOrgWithCallerMembership(ctx, *req.OrganizationID, p.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		if !authorize(c, policy.ViewOrg, oc.Resource("")) {
			return
		}
	}
	if req.TeamID != nil {
		tc, err := pr.db().LoadTeamWithCallerMembership(ctx, *req.TeamID, p.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		if !authorize(c, policy.ViewTeam, tc.Resource(nil)) {
			return
		}
	}

	project := &models.Project{
		Key:            strings.TrimSpace(req.Key),
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		OrganizationID: req.OrganizationID,
		TeamID:         req.TeamID,
		CreatedByID:    p.UserID,
	}
	if err := pr.db().CreateProject(ctx, project); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project": project})
}

func (pr *ProjectRoutes) listProjectsHandler(c *gin.Context) {
	projects, err := pr.db().ListProjects(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (pr *ProjectRoutes) getProjectHandler(c *gin.Context) {
	pc, ok := pr.projectFromPath(c, policy.ViewProject)
	if !ok {
		return
	}
	tasks, err := pr.db().ProjectTasks(c.Request.Context(), pc.Project.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": pc.Project, "tasks": tasks})
}

func (pr *ProjectRoutes) addMemberHandler(c *gin.Context) {
	pc, ok := pr.projectFromPath(c, policy.AddProjectMember)
	if !ok {
		return
	}

	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	user, err := pr.db().GetUserByEmail(ctx, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := pr.db().AddProjectMember(ctx, pc.Project.ID, user.ID); err != nil {
		respondError(c, err)
		return
	}

	pr.publish(c, policy.MemberAdded{
		Scope:        policy.ScopeProject,
		ResourceID:   pc.Project.ID,
		ResourceName: pc.Project.Name,
		NewMemberID:  user.ID,
		ActorName:    principal(c).Name,
	})
	c.JSON(http.StatusCreated, gin.H{"message": "Member added"})
}

func (pr *ProjectRoutes) deleteProjectHandler(c *gin.Context) {
	pc, ok := pr.projectFromPath(c, policy.DeleteProject)
	if !ok {
		return
	}
	if err := pr.db().DeleteProject(c.Request.Context(), pc.Project.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
}
