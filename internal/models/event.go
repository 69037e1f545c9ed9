package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is the subset of an event row the registration flow reads.
type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	OrganizerID uuid.UUID  `json:"organizerId"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	IsActive    bool       `json:"isActive"`
	IsPublic    bool       `json:"isPublic"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// AcceptsRegistrations reports whether attendees may still register at now.
func (e *Event) AcceptsRegistrations(now time.Time) bool {
	if !e.IsActive {
		return false
	}
	return e.EndDate == nil || !now.After(*e.EndDate)
}
