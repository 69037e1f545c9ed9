package registrations

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akoun-dev/panelevent/internal/models"
	"github.com/akoun-dev/panelevent/pkg/database"
)

// registrationEmailIndex is the unique index over (event_id, lower(email)).
const registrationEmailIndex = "uq_event_registrations_event_email"

var _ Store = (*Repository)(nil)

// Repository handles registration and token persistence in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateToken inserts a registration token with used=false.
func (r *Repository) CreateToken(ctx context.Context, t *models.RegistrationToken) error {
	const q = `INSERT INTO registration_tokens (token, event_id, expires_at, used)
		VALUES ($1, $2, $3, FALSE)
		RETURNING used, created_at`
	if err := r.pool.QueryRow(ctx, q, t.Token, t.EventID, t.ExpiresAt).Scan(&t.Used, &t.CreatedAt); err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// GetToken returns a token by its exact value.
func (r *Repository) GetToken(ctx context.Context, token string) (*models.RegistrationToken, error) {
	const q = `SELECT token, event_id, expires_at, used, created_at FROM registration_tokens WHERE token = $1`
	var t models.RegistrationToken
	err := r.pool.QueryRow(ctx, q, token).Scan(&t.Token, &t.EventID, &t.ExpiresAt, &t.Used, &t.CreatedAt)
	if database.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select token: %w", err)
	}
	return &t, nil
}

// MarkTokenUsed sets used for a token.
func (r *Repository) MarkTokenUsed(ctx context.Context, token string) error {
	const q = `UPDATE registration_tokens SET used = TRUE WHERE token = $1 AND used = FALSE`
	if _, err := r.pool.Exec(ctx, q, token); err != nil {
		return fmt.Errorf("update token: %w", err)
	}
	return nil
}

// CreateRegistration inserts a registration, consuming claim's token in the same transaction.
// The conditional update serializes concurrent redemptions of one token on its row lock.
func (r *Repository) CreateRegistration(ctx context.Context, reg *models.EventRegistration, claim *TokenClaim) error {
	const consume = `UPDATE registration_tokens SET used = TRUE
		WHERE token = $1 AND event_id = $2 AND used = FALSE AND expires_at >= $3`
	const insert = `INSERT INTO event_registrations (event_id, first_name, last_name, email, is_public)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, registered_at`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if claim != nil {
		tag, err := tx.Exec(ctx, consume, claim.Token, reg.EventID, claim.Now)
		if err != nil {
			return fmt.Errorf("consume token: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrTokenInvalid
		}
	}

	err = tx.QueryRow(ctx, insert, reg.EventID, reg.FirstName, reg.LastName, reg.Email, reg.IsPublic).
		Scan(&reg.ID, &reg.RegisteredAt)
	if database.IsUniqueViolation(err, registrationEmailIndex) {
		return ErrDuplicateRegistration
	}
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetRegistrationByEventAndEmail returns the registration for event+email, ignoring email case.
func (r *Repository) GetRegistrationByEventAndEmail(ctx context.Context, eventID, email string) (*models.EventRegistration, error) {
	const q = `SELECT id, event_id, first_name, last_name, email, is_public, registered_at
		FROM event_registrations WHERE event_id = $1 AND lower(email) = lower($2)`
	var reg models.EventRegistration
	err := r.pool.QueryRow(ctx, q, eventID, email).
		Scan(&reg.ID, &reg.EventID, &reg.FirstName, &reg.LastName, &reg.Email, &reg.IsPublic, &reg.RegisteredAt)
	if database.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select registration: %w", err)
	}
	return &reg, nil
}

// CountPublicByEvent returns the number of public registrations for an event.
func (r *Repository) CountPublicByEvent(ctx context.Context, eventID string) (int, error) {
	const q = `SELECT COUNT(*) FROM event_registrations WHERE event_id = $1 AND is_public`
	var n int
	if err := r.pool.QueryRow(ctx, q, eventID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return n, nil
}
