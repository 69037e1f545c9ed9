package models

import (
	"time"

	"github.com/google/uuid"
)

// EventRegistration is an attendee registration for an event.
// At most one row exists per (event_id, lower(email)).
type EventRegistration struct {
	ID           uuid.UUID `json:"id"`
	EventID      string    `json:"eventId"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	IsPublic     bool      `json:"isPublic"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// RegistrationToken authorizes one registration for an event through a shared link.
type RegistrationToken struct {
	Token     string    `json:"token"`
	EventID   string    `json:"eventId"`
	ExpiresAt time.Time `json:"expiresAt"`
	Used      bool      `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// Redeemable reports whether the token can still be redeemed for eventID at now.
// Every condition is evaluated before they are combined.
func (t *RegistrationToken) Redeemable(eventID string, now time.Time) bool {
	sameEvent := t.EventID == eventID
	unused := !t.Used
	unexpired := !now.After(t.ExpiresAt)
	return sameEvent && unused && unexpired
}
