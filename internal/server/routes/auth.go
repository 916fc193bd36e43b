package routes

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/markbates/goth/gothic"
	"github.com/rs/zerolog"

	"taskflex/internal/models"
)

type AuthRoutes struct {
	handler
}

func NewAuthRoutes(server ServerInterface) *AuthRoutes {
	return &AuthRoutes{handler{server: server}}
}

func (ar *AuthRoutes) RegisterRoutes(r *gin.Engine) {
	r.GET("/auth/:provider", ar.authHandler)
	r.GET("/auth/:provider/callback", ar.authCallbackHandler)
	r.GET("/logout", ar.logoutHandler)
}

// gothRequest rewrites the request so gothic can find the provider.
func gothRequest(c *gin.Context, path string) *http.Request {
	provider := c.Param("provider")

	req := c.Request.Clone(c.Request.Context())
	req.URL.Path = "/auth/" + provider + path

	q := req.URL.Query()
	q.Add("provider", provider)
	req.URL.RawQuery = q.Encode()
	return req
}

func (ar *AuthRoutes) authHandler(c *gin.Context) {
	gothic.BeginAuthHandler(c.Writer, gothRequest(c, ""))
}

func (ar *AuthRoutes) authCallbackHandler(c *gin.Context) {
	gothUser, err := gothic.CompleteUserAuth(c.Writer, gothRequest(c, "/callback"))
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Warn().Err(err).Str("provider", c.Param("provider")).Msg("oauth callback failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "authentication failed"})
		return
	}

	name := gothUser.Name
	if name == "" {
		name = gothUser.NickName
	}
	user := &models.User{
		Provider:   gothUser.Provider,
		ProviderID: gothUser.UserID,
		Email:      strings.ToLower(gothUser.Email),
		Name:       name,
		AvatarURL:  gothUser.AvatarURL,
	}

	if err := ar.db().UpsertOAuthUser(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID.String())
	if err := session.Save(); err != nil {
		respondError(c, err)
		return
	}

	zerolog.Ctx(c.Request.Context()).Info().Str("user_id", user.ID.String()).Str("provider", user.Provider).Msg("user signed in")
	c.Redirect(http.StatusTemporaryRedirect, strings.TrimRight(ar.server.GetConfig().FrontendURL, "/")+"/home")
}

func (ar *AuthRoutes) logoutHandler(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	_ = session.Save()

	_ = gothic.Logout(c.Writer, c.Request)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
