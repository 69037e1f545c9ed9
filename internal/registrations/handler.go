package registrations

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akoun-dev/panelevent/internal/models"
	"github.com/akoun-dev/panelevent/pkg/response"
)

// RegisterRequest is the body for POST /events/:id/register.
type RegisterRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	IsPublic  *bool  `json:"isPublic"` // defaults to true
	Token     string `json:"token"`    // from the registration link; ?token= is accepted too
}

// CheckResponse is the body of GET /events/:id/check-registration.
type CheckResponse struct {
	IsRegistered bool                      `json:"isRegistered"`
	Registration *models.EventRegistration `json:"registration,omitempty"`
}

// Handler handles registration HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// IssueLink handles GET /events/:id/register. Mints a registration link and its QR code.
// Call after events.RequireOrganizer.
func (h *Handler) IssueLink(c *gin.Context) {
	eventID := c.Param("id")
	issued, err := h.svc.IssueToken(c.Request.Context(), eventID)
	if err != nil {
		h.fail(c, err, eventID)
		return
	}
	response.OK(c, issued)
}

// Register handles POST /events/:id/register.
func (h *Handler) Register(c *gin.Context) {
	eventID := c.Param("id")
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	token := req.Token
	if token == "" {
		token = c.Query("token")
	}
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	reg, err := h.svc.RegisterAttendee(c.Request.Context(), eventID, Attendee{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		IsPublic:  isPublic,
	}, token)
	if err != nil {
		h.fail(c, err, eventID)
		return
	}
	response.Created(c, reg)
}

// CheckRegistration handles GET /events/:id/check-registration?email=.
func (h *Handler) CheckRegistration(c *gin.Context) {
	eventID := c.Param("id")
	email := c.Query("email")
	if email == "" {
		response.BadRequest(c, "email required")
		return
	}
	reg, err := h.svc.CheckRegistration(c.Request.Context(), eventID, email)
	if err != nil {
		h.fail(c, err, eventID)
		return
	}
	response.OK(c, CheckResponse{IsRegistered: reg != nil, Registration: reg})
}

// CountPublic handles GET /events/:id/registrations/count.
func (h *Handler) CountPublic(c *gin.Context) {
	eventID := c.Param("id")
	n, err := h.svc.CountPublicRegistrations(c.Request.Context(), eventID)
	if err != nil {
		h.fail(c, err, eventID)
		return
	}
	response.OK(c, gin.H{"count": n})
}

// fail maps service errors to responses. Domain outcomes are answered with their
// own message; anything else is logged and reported generically.
func (h *Handler) fail(c *gin.Context, err error, eventID string) {
	var dup *DuplicateError
	switch {
	case errors.As(err, &dup):
		var data interface{}
		if dup.Existing != nil {
			data = gin.H{"registrationId": dup.Existing.ID, "registeredAt": dup.Existing.RegisteredAt}
		}
		response.Fail(c, http.StatusConflict, dup.Error(), data)
	case errors.Is(err, ErrTokenInvalid):
		response.Gone(c, ErrTokenInvalid.Error())
	case errors.Is(err, ErrEventNotFound):
		response.NotFound(c, "event not found")
	case errors.Is(err, ErrRegistrationClosed):
		response.Forbidden(c, ErrRegistrationClosed.Error())
	case errors.Is(err, ErrInvalidAttendee):
		response.BadRequest(c, ErrInvalidAttendee.Error())
	default:
		h.logger.Error("registration request failed", zap.Error(err), zap.String("event_id", eventID), zap.String("path", c.FullPath()))
		response.Internal(c, "internal error")
	}
}
