package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type UserRoutes struct {
	handler
}

func NewUserRoutes(server ServerInterface) *UserRoutes {
	return &UserRoutes{handler{server: server}}
}

func (ur *UserRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(ur.server)

	r.GET("/user", middleware.AuthMiddleware(), ur.userHandler)
}

func (ur *UserRoutes) userHandler(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"user_id":       user.ID,
		"email":         user.Email,
		"name":          user.Name,
		"avatar_url":    user.AvatarURL,
		"role":          user.Role,
		"authenticated": true,
	})
}
