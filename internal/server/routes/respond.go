package routes

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"taskflex/internal/database"
	"taskflex/internal/policy"
	"taskflex/internal/storage"
)

// statusFor maps a domain error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, policy.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, policy.ErrForbidden), errors.Is(err, policy.ErrCannotRemoveOwner):
		return http.StatusForbidden
	case errors.Is(err, policy.ErrNotFound), errors.Is(err, database.ErrNotFound), errors.Is(err, storage.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, policy.ErrMissingCredential), errors.Is(err, database.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, storage.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(c *gin.Context, err error) (int, gin.H) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("request failed")
		return status, gin.H{"error": "internal server error"}
	}
	return status, gin.H{"error": err.Error()}
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(errorBody(c, err))
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(errorBody(c, err))
}

func badRequest(c *gin.Context, err error) {
	respondError(c, fmt.Errorf("%w: %v", database.ErrValidation, err))
}

// authorize evaluates the action and writes the denial response. It reports
// whether the handler may continue.
func authorize(c *gin.Context, a policy.Action, r policy.Resource) bool {
	d := policy.CanPerform(principal(c), a, r)
	if d.Allowed {
		return true
	}
	zerolog.Ctx(c.Request.Context()).Debug().
		Stringer("action", a).
		Stringer("decision", d).
		Msg("access denied")
	respondError(c, d.Err())
	return false
}

// uuidParam parses a path parameter. A malformed id cannot name an existing
// row, so it is reported as not found.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, fmt.Errorf("%s: %w", name, policy.ErrNotFound))
		return uuid.Nil, false
	}
	return id, true
}

// publish delivers the notifications for e. Delivery problems are logged by
// the dispatcher and never fail the request.
func (h handler) publish(c *gin.Context, e policy.Event) {
	h.server.GetPublisher().Publish(c.Request.Context(), e)
}

// handler is embedded by every route group.
type handler struct {
	server ServerInterface
}

func (h handler) db() database.Service {
	return h.server.GetDB()
}
