package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskflex/internal/database"
	"taskflex/internal/models"
	"taskflex/internal/policy"
)

const adminKeyHeader = "X-Admin-Key"

type OrganizationRoutes struct {
	handler
}

func NewOrganizationRoutes(server ServerInterface) *OrganizationRoutes {
	return &OrganizationRoutes{handler{server: server}}
}

func (or *OrganizationRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(or.server)

	g := r.Group("/organizations", middleware.AuthMiddleware())
	g.POST("", or.createOrganizationHandler)
	g.GET("", or.listOrganizationsHandler)
	g.GET("/:orgID", or.getOrganizationHandler)
	g.PUT("/:orgID", or.updateOrganizationHandler)
	g.POST("/:orgID/admin-key", or.rotateAdminKeyHandler)
	g.DELETE("/:orgID", or.deleteOrganizationHandler)
	g.POST("/:orgID/members", or.addMemberHandler)
}

// loadOrg loads the organization named in the path and checks a.
func (or *OrganizationRoutes) loadOrg(c *gin.Context, a policy.Action, presentedKey string) (*database.OrgContext, bool) {
	orgID, ok := uuidParam(c, "orgID")
	if !ok {
		return nil, false
	}
	oc, err := or.db().LoadOrgWithCallerMembership(c.Request.Context(), orgID, principal(c).UserID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if !authorize(c, a, oc.Resource(presentedKey)) {
		return nil, false
	}
	return oc, true
}

// createOrganizationHandler creates an organization owned by the caller.
// The plaintext admin key is only ever returned here.
func (or *OrganizationRoutes) createOrganizationHandler(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	plain, hash, err := policy.NewAdminKey()
	if err != nil {
		respondError(c, err)
		return
	}

	p := principal(c)
	org := &models.Organization{
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		AdminKeyHash: hash,
		CreatedByID:  p.UserID,
	}
	if err := or.db().CreateOrganization(c.Request.Context(), org, p.UserID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"organization": models.CreatedOrganization{Organization: *org, AdminKey: plain}})
}

func (or *OrganizationRoutes) listOrganizationsHandler(c *gin.Context) {
	orgs, err := or.db().ListOrganizations(c.Request.Context(), principal(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"organizations": orgs})
}

func (or *OrganizationRoutes) getOrganizationHandler(c *gin.Context) {
	oc, ok := or.loadOrg(c, policy.ViewOrg, "")
	if !ok {
		return
	}
	members, err := or.db().OrganizationMembers(c.Request.Context(), oc.Org.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"organization": models.OrganizationDetail{Organization: *oc.Org, Members: members}})
}

func (or *OrganizationRoutes) updateOrganizationHandler(c *gin.Context) {
	oc, ok := or.loadOrg(c, policy.UpdateOrg, "")
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

	org := oc.Org
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			respondError(c, database.ErrValidation)
			return
		}
		org.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		org.Description = *req.Description
	}
	if err := or.db().UpdateOrganization(c.Request.Context(), org); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"organization": org})
}

func (or *OrganizationRoutes) rotateAdminKeyHandler(c *gin.Context) {
	oc, ok := or.loadOrg(c, policy.UpdateOrg, "")
	if !ok {
		return
	}

	plain, hash, err := policy.NewAdminKey()
	if err != nil {
		respondError(c, err)
		return
	}
	if err := or.db().SetOrganizationAdminKey(c.Request.Context(), oc.Org.ID, hash); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"adminKey": plain})
}

// deleteOrganizationHandler requires the admin key, sent either in the
// X-Admin-Key header or as adminKey in the JSON body.
func (or *OrganizationRoutes) deleteOrganizationHandler(c *gin.Context) {
	key := c.GetHeader(adminKeyHeader)
	if key == "" && c.Request.ContentLength != 0 {
		var req struct {
			AdminKey string `json:"adminKey"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		key = req.AdminKey
	}

	oc, ok := or.loadOrg(c, policy.DeleteOrg, key)
	if !ok {
		return
	}
	if err := or.db().DeleteOrganization(c.Request.Context(), oc.Org.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Organization deleted"})
}

// addMemberHandler adds an existing user, looked up by email.
func (or *OrganizationRoutes) addMemberHandler(c *gin.Context) {
	oc, ok := or.loadOrg(c, policy.InviteOrgMember, "")
	if !ok {
		return
	}

	var req struct {
		Email string         `json:"email" binding:"required,email"`
		Role  policy.OrgRole `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	user, err := or.db().GetUserByEmail(ctx, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	member, err := or.db().AddOrganizationMember(ctx, oc.Org.ID, user.ID, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	p := principal(c)
	or.publish(c, policy.MemberAdded{
		Scope:        policy.ScopeOrg,
		ResourceID:   oc.Org.ID,
		ResourceName: oc.Org.Name,
		NewMemberID:  user.ID,
		ActorName:    p.Name,
	})
	c.JSON(http.StatusCreated, gin.H{"member": member})
}
