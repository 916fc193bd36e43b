package routes

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"taskflex/internal/logging"
	"taskflex/internal/models"
	"taskflex/internal/policy"
)

const (
	sessionUserKey = "user_id"
	principalKey   = "principal"
	userKey        = "user"
)

type Middleware struct {
	server ServerInterface
}

func NewMiddleware(server ServerInterface) *Middleware {
	return &Middleware{server: server}
}

// AuthMiddleware resolves the session into a *policy.Principal. Requests
// without a valid session, or from a user that is no longer active, are
// rejected with 401.
func (m *Middleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		raw, ok := session.Get(sessionUserKey).(string)
		if !ok {
			abortWithError(c, policy.ErrUnauthorized)
			return
		}

		userID, err := uuid.Parse(raw)
		if err != nil {
			session.Clear()
			_ = session.Save()
			abortWithError(c, policy.ErrUnauthorized)
			return
		}

		user, err := m.server.GetDB().GetUser(c.Request.Context(), userID)
		if err != nil || user.Status != policy.UserActive {
			if err != nil {
				zerolog.Ctx(c.Request.Context()).Debug().Err(err).Msg("session user not loaded")
			}
			abortWithError(c, policy.ErrUnauthorized)
			return
		}

		c.Set(userKey, user)
		c.Set(principalKey, user.Principal())
		c.Set(logging.UserIDKey, user.ID.String())

		ctx := zerolog.Ctx(c.Request.Context()).With().Str("user_id", user.ID.String()).Logger().WithContext(c.Request.Context())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// principal returns the caller set by AuthMiddleware, or nil.
func principal(c *gin.Context) *policy.Principal {
	p, _ := c.Get(principalKey)
	pp, _ := p.(*policy.Principal)
	return pp
}

func currentUser(c *gin.Context) *models.User {
	u, _ := c.Get(userKey)
	uu, _ := u.(*models.User)
	return uu
}
