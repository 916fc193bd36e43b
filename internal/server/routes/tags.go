package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskflex/internal/models"
)

type TagRoutes struct {
	handler
}

func NewTagRoutes(server ServerInterface) *TagRoutes {
	return &TagRoutes{handler{server: server}}
}

func (tr *TagRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(tr.server)

	r.GET("/tags", middleware.AuthMiddleware(), tr.listTagsHandler)
	r.POST("/tags", middleware.AuthMiddleware(), tr.createTagHandler)
}

func (tr *TagRoutes) listTagsHandler(c *gin.Context) {
	tags, err := tr.db().ListTags(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

func (tr *TagRoutes) createTagHandler(c *gin.Context) {
	var req struct {
		Name  string `json:"name" binding:"required,max=64"`
		Color string `json:"color" binding:"omitempty,hexcolor"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	tag := &models.Tag{Name: strings.TrimSpace(req.Name), Color: req.Color}
	if err := tr.db().CreateTag(c.Request.Context(), tag); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tag": tag})
}
