// Package events gives the registration flow read access to the event table.
package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akoun-dev/panelevent/internal/models"
	"github.com/akoun-dev/panelevent/pkg/database"
)

// ErrNotFound is returned when no event has the requested id.
var ErrNotFound = errors.New("event not found")

// Repository reads events from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an event repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID returns an event by ID, or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	const q = `SELECT id, title, organizer_id, start_date, end_date, is_active, is_public, created_at, updated_at
		FROM events WHERE id = $1`
	var e models.Event
	err := r.pool.QueryRow(ctx, q, id).Scan(&e.ID, &e.Title, &e.OrganizerID, &e.StartDate, &e.EndDate, &e.IsActive, &e.IsPublic, &e.CreatedAt, &e.UpdatedAt)
	if database.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	return &e, nil
}

// Create inserts an event. The event service owns this table; Create exists for seeding and tests.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (id, title, organizer_id, start_date, end_date, is_active, is_public)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`
	if err := r.pool.QueryRow(ctx, q, e.ID, e.Title, e.OrganizerID, e.StartDate, e.EndDate, e.IsActive, e.IsPublic).
		Scan(&e.CreatedAt, &e.UpdatedAt); err != nil {
		return fmt.Errorf("create event %s: %w", e.ID, err)
	}
	return nil
}
