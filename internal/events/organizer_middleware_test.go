package events

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/akoun-dev/panelevent/internal/auth"
	"github.com/akoun-dev/panelevent/internal/middleware"
	"github.com/akoun-dev/panelevent/internal/models"
)

type finderFunc func(ctx context.Context, id string) (*models.Event, error)

func (f finderFunc) GetByID(ctx context.Context, id string) (*models.Event, error) { return f(ctx, id) }

func TestRequireOrganizer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	organizer := uuid.New()
	finder := finderFunc(func(_ context.Context, id string) (*models.Event, error) {
		switch id {
		case "evt-1":
			return &models.Event{ID: id, OrganizerID: organizer}, nil
		case "broken":
			return nil, errors.New("connection reset")
		}
		return nil, ErrNotFound
	})

	cases := []struct {
		name    string
		eventID string
		userID  uuid.UUID
		role    string
		want    int
	}{
		{"organizer", "evt-1", organizer, auth.RoleOrganizer, http.StatusOK},
		{"admin", "evt-1", uuid.New(), auth.RoleAdmin, http.StatusOK},
		{"other organizer", "evt-1", uuid.New(), auth.RoleOrganizer, http.StatusForbidden},
		{"missing event", "evt-9", organizer, auth.RoleOrganizer, http.StatusNotFound},
		{"store failure", "broken", organizer, auth.RoleOrganizer, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/events/:id", func(c *gin.Context) {
				c.Set(middleware.ContextUserID, tc.userID)
				c.Set(middleware.ContextUserRole, tc.role)
			}, RequireOrganizer(finder, nil), func(c *gin.Context) {
				e := c.MustGet(ContextEvent).(*models.Event)
				c.String(http.StatusOK, e.ID)
			})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/"+tc.eventID, nil))
			assert.Equal(t, tc.want, w.Code)
		})
	}
}
