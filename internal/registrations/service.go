// Package registrations issues shareable registration links for events and
// gates attendee registration on those links and on per-event email uniqueness.
package registrations

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/akoun-dev/panelevent/internal/events"
	"github.com/akoun-dev/panelevent/internal/models"
)

// TokenTTL is how long an issued registration link stays redeemable.
const TokenTTL = 24 * time.Hour

// TokenStore persists registration tokens.
type TokenStore interface {
	CreateToken(ctx context.Context, t *models.RegistrationToken) error
	// GetToken returns ErrNotFound when no token has this exact value.
	GetToken(ctx context.Context, token string) (*models.RegistrationToken, error)
	// MarkTokenUsed sets used=true; already-used or absent tokens are left alone without error.
	MarkTokenUsed(ctx context.Context, token string) error
}

// TokenClaim asks CreateRegistration to consume a token in the same atomic unit as the insert.
type TokenClaim struct {
	Token string
	Now   time.Time
}

// RegistrationStore persists event registrations.
type RegistrationStore interface {
	// CreateRegistration inserts reg and fills ID and RegisteredAt.
	// It returns ErrDuplicateRegistration when (event, lower(email)) already exists and,
	// for a non-nil claim, ErrTokenInvalid when the token cannot be consumed for reg.EventID at claim.Now.
	// Either failure leaves neither the row nor the token change behind.
	CreateRegistration(ctx context.Context, reg *models.EventRegistration, claim *TokenClaim) error
	// GetRegistrationByEventAndEmail matches email case-insensitively; ErrNotFound if absent.
	GetRegistrationByEventAndEmail(ctx context.Context, eventID, email string) (*models.EventRegistration, error)
	CountPublicByEvent(ctx context.Context, eventID string) (int, error)
}

// Store is the persistence the service needs.
type Store interface {
	TokenStore
	RegistrationStore
}

// Notifier is told about every successful registration.
type Notifier interface {
	RegistrationConfirmed(ctx context.Context, e *models.Event, reg *models.EventRegistration) error
}

// Config tunes the service.
type Config struct {
	BaseURL      string           // site URL registration links are built on, without trailing slash
	RequireToken bool             // registration without a link token is rejected
	Now          func() time.Time // defaults to time.Now
}

// Attendee is the registration input.
type Attendee struct {
	FirstName string
	LastName  string
	Email     string
	IsPublic  bool
}

// IssuedToken is a freshly minted, persisted registration link.
type IssuedToken struct {
	Token      string    `json:"token"`
	URL        string    `json:"url"`
	QRCodeData string    `json:"qrCodeData"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Service implements link issuance and the registration gate.
type Service struct {
	store    Store
	events   events.Finder
	notifier Notifier
	cfg      Config
	logger   *zap.Logger
}

// NewService creates a registration service. notifier may be nil.
func NewService(store Store, finder events.Finder, notifier Notifier, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Service{store: store, events: finder, notifier: notifier, cfg: cfg, logger: logger}
}

// IssueToken mints a registration token for eventID and returns once it is stored.
// Earlier tokens for the event stay valid.
func (s *Service) IssueToken(ctx context.Context, eventID string) (*IssuedToken, error) {
	if _, err := s.event(ctx, eventID); err != nil {
		return nil, err
	}
	value, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	tok := &models.RegistrationToken{
		Token:     value,
		EventID:   eventID,
		ExpiresAt: s.cfg.Now().Add(TokenTTL),
	}
	if err := s.store.CreateToken(ctx, tok); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}

	link := registrationURL(s.cfg.BaseURL, eventID, value)
	qr, err := qrDataURI(link)
	if err != nil {
		return nil, err
	}
	s.logger.Info("registration link issued", zap.String("event_id", eventID), zap.Time("expires_at", tok.ExpiresAt))
	return &IssuedToken{Token: value, URL: link, QRCodeData: qr, ExpiresAt: tok.ExpiresAt}, nil
}

// ValidateToken reports whether token is currently redeemable for eventID.
// It does not change the token.
func (s *Service) ValidateToken(ctx context.Context, token, eventID string) (bool, error) {
	if token == "" {
		return false, nil
	}
	tok, err := s.store.GetToken(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get token: %w", err)
	}
	return tok.Redeemable(eventID, s.cfg.Now()), nil
}

// MarkUsed flags token as used. It does not validate; RegisterAttendee consumes
// tokens atomically and is the path that guarantees single use.
func (s *Service) MarkUsed(ctx context.Context, token string) error {
	if err := s.store.MarkTokenUsed(ctx, token); err != nil {
		return fmt.Errorf("mark token used: %w", err)
	}
	return nil
}

// RegisterAttendee registers a for eventID. A non-empty token is consumed in the same
// atomic unit as the insert. Possible domain errors are ErrEventNotFound,
// ErrRegistrationClosed, ErrInvalidAttendee, ErrTokenInvalid and *DuplicateError.
func (s *Service) RegisterAttendee(ctx context.Context, eventID string, a Attendee, token string) (*models.EventRegistration, error) {
	e, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	now := s.cfg.Now()
	if !e.AcceptsRegistrations(now) {
		return nil, ErrRegistrationClosed
	}
	if token == "" && s.cfg.RequireToken {
		return nil, ErrTokenInvalid
	}

	reg := &models.EventRegistration{
		EventID:   eventID,
		FirstName: strings.TrimSpace(a.FirstName),
		LastName:  strings.TrimSpace(a.LastName),
		Email:     strings.TrimSpace(a.Email),
		IsPublic:  a.IsPublic,
	}
	if reg.FirstName == "" || reg.LastName == "" || !validEmail(reg.Email) {
		return nil, ErrInvalidAttendee
	}
	var claim *TokenClaim
	if token != "" {
		claim = &TokenClaim{Token: token, Now: now}
	}

	err = s.store.CreateRegistration(ctx, reg, claim)
	switch {
	case errors.Is(err, ErrDuplicateRegistration):
		return nil, s.duplicate(ctx, eventID, reg.Email)
	case errors.Is(err, ErrTokenInvalid):
		return nil, ErrTokenInvalid
	case err != nil:
		return nil, fmt.Errorf("create registration: %w", err)
	}

	s.logger.Info("attendee registered",
		zap.String("event_id", eventID),
		zap.String("registration_id", reg.ID.String()),
		zap.Bool("via_link", claim != nil),
	)
	if s.notifier != nil {
		if err := s.notifier.RegistrationConfirmed(ctx, e, reg); err != nil {
			s.logger.Warn("registration confirmation not queued", zap.Error(err), zap.String("registration_id", reg.ID.String()))
		}
	}
	return reg, nil
}

// CheckRegistration returns the registration for (eventID, email), or nil if there is none.
func (s *Service) CheckRegistration(ctx context.Context, eventID, email string) (*models.EventRegistration, error) {
	reg, err := s.store.GetRegistrationByEventAndEmail(ctx, eventID, strings.TrimSpace(email))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return reg, nil
}

// CountPublicRegistrations counts the event's registrations flagged public.
func (s *Service) CountPublicRegistrations(ctx context.Context, eventID string) (int, error) {
	if _, err := s.event(ctx, eventID); err != nil {
		return 0, err
	}
	n, err := s.store.CountPublicByEvent(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return n, nil
}

func (s *Service) event(ctx context.Context, eventID string) (*models.Event, error) {
	e, err := s.events.GetByID(ctx, eventID)
	if errors.Is(err, ErrEventNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (s *Service) duplicate(ctx context.Context, eventID, email string) error {
	existing, err := s.store.GetRegistrationByEventAndEmail(ctx, eventID, email)
	if err != nil {
		s.logger.Debug("existing registration not readable", zap.Error(err), zap.String("event_id", eventID))
		return &DuplicateError{}
	}
	return &DuplicateError{Existing: existing}
}
