package registrations

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akoun-dev/panelevent/internal/events"
	"github.com/akoun-dev/panelevent/internal/models"
	"github.com/akoun-dev/panelevent/pkg/database"
)

// testPool connects to TEST_DATABASE_URL and migrates it; the test is skipped when unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, dsn, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, database.Migrate(ctx, pool, zap.NewNop()))
	return pool
}

func seedEvent(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()
	e := &models.Event{
		ID:          "evt-" + uuid.NewString(),
		Title:       "Integration",
		OrganizerID: uuid.New(),
		StartDate:   time.Now().Add(48 * time.Hour),
		IsActive:    true,
		IsPublic:    true,
	}
	require.NoError(t, events.NewRepository(pool).Create(context.Background(), e))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM events WHERE id = $1`, e.ID)
	})
	return e.ID
}

func TestRepositoryTokenRoundTrip(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	eventID := seedEvent(t, pool)

	value, err := generateToken()
	require.NoError(t, err)
	tok := &models.RegistrationToken{Token: value, EventID: eventID, ExpiresAt: time.Now().Add(TokenTTL)}
	require.NoError(t, repo.CreateToken(ctx, tok))
	assert.False(t, tok.Used)

	got, err := repo.GetToken(ctx, value)
	require.NoError(t, err)
	assert.Equal(t, eventID, got.EventID)
	assert.False(t, got.Used)

	require.NoError(t, repo.MarkTokenUsed(ctx, value))
	require.NoError(t, repo.MarkTokenUsed(ctx, value))
	got, err = repo.GetToken(ctx, value)
	require.NoError(t, err)
	assert.True(t, got.Used)

	_, err = repo.GetToken(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryUniqueEmailPerEvent(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	eventID := seedEvent(t, pool)

	first := &models.EventRegistration{EventID: eventID, FirstName: "Jane", LastName: "Doe", Email: "jane@x.com", IsPublic: true}
	require.NoError(t, repo.CreateRegistration(ctx, first, nil))
	assert.NotEqual(t, uuid.Nil, first.ID)

	again := &models.EventRegistration{EventID: eventID, FirstName: "Jane", LastName: "Doe", Email: "JANE@x.com", IsPublic: true}
	assert.ErrorIs(t, repo.CreateRegistration(ctx, again, nil), ErrDuplicateRegistration)

	got, err := repo.GetRegistrationByEventAndEmail(ctx, eventID, "Jane@X.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	n, err := repo.CountPublicByEvent(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRepositoryConcurrentRegistration(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	eventID := seedEvent(t, pool)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg := &models.EventRegistration{EventID: eventID, FirstName: "Jane", LastName: "Doe", Email: "jane@x.com"}
			err := repo.CreateRegistration(ctx, reg, nil)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if !errors.Is(err, ErrDuplicateRegistration) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, successes)
}

func TestRepositoryTokenClaim(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	eventID := seedEvent(t, pool)
	now := time.Now()

	value, err := generateToken()
	require.NoError(t, err)
	require.NoError(t, repo.CreateToken(ctx, &models.RegistrationToken{Token: value, EventID: eventID, ExpiresAt: now.Add(time.Hour)}))

	reg := func(email string) *models.EventRegistration {
		return &models.EventRegistration{EventID: eventID, FirstName: "G", LastName: "Uest", Email: email}
	}

	t.Run("expired at claim time", func(t *testing.T) {
		err := repo.CreateRegistration(ctx, reg("late@x.com"), &TokenClaim{Token: value, Now: now.Add(2 * time.Hour)})
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("duplicate rolls back consumption", func(t *testing.T) {
		require.NoError(t, repo.CreateRegistration(ctx, reg("dup@x.com"), nil))
		err := repo.CreateRegistration(ctx, reg("dup@x.com"), &TokenClaim{Token: value, Now: now})
		assert.ErrorIs(t, err, ErrDuplicateRegistration)
		got, err := repo.GetToken(ctx, value)
		require.NoError(t, err)
		assert.False(t, got.Used)
	})

	t.Run("single redemption under concurrency", func(t *testing.T) {
		const attempts = 6
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
		)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				err := repo.CreateRegistration(ctx, reg(fmt.Sprintf("g%d@x.com", i)), &TokenClaim{Token: value, Now: now})
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					successes++
				} else if !errors.Is(err, ErrTokenInvalid) {
					t.Errorf("unexpected error: %v", err)
				}
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 1, successes)
	})
}
