package events

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akoun-dev/panelevent/internal/auth"
	"github.com/akoun-dev/panelevent/internal/middleware"
	"github.com/akoun-dev/panelevent/internal/models"
	"github.com/akoun-dev/panelevent/pkg/response"
)

// ContextEvent is the gin context key for the event loaded by RequireOrganizer.
const ContextEvent = "event"

// Finder looks up events by id.
type Finder interface {
	GetByID(ctx context.Context, id string) (*models.Event, error)
}

// RequireOrganizer allows the request only for the event's organizer or an admin.
// Call after middleware.JWT. The loaded event is stored under ContextEvent.
func RequireOrganizer(finder Finder, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		eventID := c.Param("id")
		e, err := finder.GetByID(c.Request.Context(), eventID)
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "event not found")
			c.Abort()
			return
		}
		if err != nil {
			logger.Error("load event failed", zap.Error(err), zap.String("event_id", eventID))
			response.Internal(c, "failed to load event")
			c.Abort()
			return
		}
		userID, _ := c.Get(middleware.ContextUserID)
		uid, _ := userID.(uuid.UUID)
		if c.GetString(middleware.ContextUserRole) != auth.RoleAdmin && uid != e.OrganizerID {
			response.Forbidden(c, "not the organizer of this event")
			c.Abort()
			return
		}
		c.Set(ContextEvent, e)
		c.Next()
	}
}
