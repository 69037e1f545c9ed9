package registrations

import (
	"errors"

	"github.com/akoun-dev/panelevent/internal/events"
	"github.com/akoun-dev/panelevent/internal/models"
)

var (
	// ErrEventNotFound is returned when the event does not exist.
	ErrEventNotFound = events.ErrNotFound
	// ErrNotFound is returned by stores when a token or registration does not exist.
	ErrNotFound = errors.New("not found")
	// ErrTokenInvalid covers absent, expired, used and other-event tokens alike.
	ErrTokenInvalid = errors.New("registration link expired or already used")
	// ErrRegistrationClosed is returned when the event no longer accepts registrations.
	ErrRegistrationClosed = errors.New("event is not accepting registrations")
	// ErrInvalidAttendee is returned when a name is missing or the email is malformed.
	ErrInvalidAttendee = errors.New("first name, last name and a valid email are required")
	// ErrDuplicateRegistration is returned by stores on a (event, email) conflict.
	// Service callers receive it wrapped in a *DuplicateError.
	ErrDuplicateRegistration = errors.New("already registered for this event")
)

// DuplicateError reports that the email is already registered for the event.
// Existing is nil when the registration could not be read back.
type DuplicateError struct {
	Existing *models.EventRegistration
}

func (e *DuplicateError) Error() string { return ErrDuplicateRegistration.Error() }

// Is makes errors.Is(err, ErrDuplicateRegistration) match.
func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicateRegistration }
