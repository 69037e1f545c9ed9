package emaillogs

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akoun-dev/panelevent/pkg/response"
)

// Handler handles email log HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates an email logs handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// ListByEvent handles GET /events/:id/emails. Call after events.RequireOrganizer.
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID := c.Param("id")
	logs, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		h.logger.Error("list email logs failed", zap.Error(err), zap.String("event_id", eventID))
		response.Internal(c, "failed to load email logs")
		return
	}
	response.OK(c, logs)
}
