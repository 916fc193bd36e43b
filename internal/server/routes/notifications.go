package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskflex/internal/models"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 100
)

type NotificationRoutes struct {
	handler
}

func NewNotificationRoutes(server ServerInterface) *NotificationRoutes {
	return &NotificationRoutes{handler{server: server}}
}

func (nr *NotificationRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(nr.server)

	g := r.Group("/notifications", middleware.AuthMiddleware())
	g.GET("", nr.getUserNotificationsHandler)
	g.POST("/read-all", nr.markAllReadHandler)
	g.POST("/:id/read", nr.markNotificationAsReadHandler)
	g.DELETE("/:id", nr.deleteNotificationHandler)
}

// getUserNotificationsHandler returns the caller's notifications, newest
// first, with the unread count.
func (nr *NotificationRoutes) getUserNotificationsHandler(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultNotificationLimit)))
	if err != nil || limit <= 0 {
		limit = defaultNotificationLimit
	}
	// Cap the limit to prevent excessive queries
	limit = min(limit, maxNotificationLimit)
	unreadOnly, _ := strconv.ParseBool(c.Query("unread"))

	notifications, unread, err := nr.db().ListNotifications(c.Request.Context(), principal(c).UserID, models.NotificationFilter{
		UnreadOnly: unreadOnly,
		Limit:      limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications, "unreadCount": unread})
}

// Another user's notification is reported as not found.
func (nr *NotificationRoutes) markNotificationAsReadHandler(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := nr.db().MarkNotificationRead(c.Request.Context(), principal(c).UserID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

func (nr *NotificationRoutes) markAllReadHandler(c *gin.Context) {
	n, err := nr.db().MarkAllNotificationsRead(c.Request.Context(), principal(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

func (nr *NotificationRoutes) deleteNotificationHandler(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := nr.db().DeleteNotification(c.Request.Context(), principal(c).UserID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
}
