package registrations

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/akoun-dev/panelevent/internal/events"
	"github.com/akoun-dev/panelevent/internal/models"
)

var errStoreDown = errors.New("store down")

// memStore mimics the Postgres repository: one lock stands in for the
// transaction and the unique index.
type memStore struct {
	mu     sync.Mutex
	tokens map[string]models.RegistrationToken
	regs   []models.EventRegistration
	fail   error
}

func newMemStore() *memStore {
	return &memStore{tokens: make(map[string]models.RegistrationToken)}
}

func (m *memStore) CreateToken(_ context.Context, t *models.RegistrationToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	if _, ok := m.tokens[t.Token]; ok {
		return errors.New("token exists")
	}
	t.CreatedAt = time.Now()
	m.tokens[t.Token] = *t
	return nil
}

func (m *memStore) GetToken(_ context.Context, token string) (*models.RegistrationToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	t, ok := m.tokens[token]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (m *memStore) MarkTokenUsed(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	if t, ok := m.tokens[token]; ok {
		t.Used = true
		m.tokens[token] = t
	}
	return nil
}

func (m *memStore) CreateRegistration(_ context.Context, reg *models.EventRegistration, claim *TokenClaim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	var tok models.RegistrationToken
	if claim != nil {
		t, ok := m.tokens[claim.Token]
		if !ok || !t.Redeemable(reg.EventID, claim.Now) {
			return ErrTokenInvalid
		}
		tok = t
	}
	for _, r := range m.regs {
		if r.EventID == reg.EventID && strings.EqualFold(r.Email, reg.Email) {
			return ErrDuplicateRegistration
		}
	}
	if claim != nil {
		tok.Used = true
		m.tokens[tok.Token] = tok
	}
	reg.ID = uuid.New()
	reg.RegisteredAt = time.Now()
	m.regs = append(m.regs, *reg)
	return nil
}

func (m *memStore) GetRegistrationByEventAndEmail(_ context.Context, eventID, email string) (*models.EventRegistration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	for _, r := range m.regs {
		if r.EventID == eventID && strings.EqualFold(r.Email, email) {
			r := r
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) CountPublicByEvent(_ context.Context, eventID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return 0, m.fail
	}
	n := 0
	for _, r := range m.regs {
		if r.EventID == eventID && r.IsPublic {
			n++
		}
	}
	return n, nil
}

func (m *memStore) rows(eventID, email string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.regs {
		if r.EventID == eventID && strings.EqualFold(r.Email, email) {
			n++
		}
	}
	return n
}

func (m *memStore) setFail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

type memEvents map[string]*models.Event

func (m memEvents) GetByID(_ context.Context, id string) (*models.Event, error) {
	e, ok := m[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	return e, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	regs []uuid.UUID
	err  error
}

func (n *recordingNotifier) RegistrationConfirmed(_ context.Context, _ *models.Event, reg *models.EventRegistration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.regs = append(n.regs, reg.ID)
	return n.err
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	svc      *Service
	store    *memStore
	clock    *clock
	notifier *recordingNotifier
}

func newFixture(cfg Config) *fixture {
	past := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	evts := memEvents{
		"evt-1":  {ID: "evt-1", Title: "Go Meetup", IsActive: true},
		"evt-2":  {ID: "evt-2", Title: "Rust Meetup", IsActive: true},
		"closed": {ID: "closed", Title: "Past Summit", IsActive: true, EndDate: &past},
		"draft":  {ID: "draft", Title: "Draft", IsActive: false},
	}
	f := &fixture{
		store:    newMemStore(),
		clock:    &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		notifier: &recordingNotifier{},
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://events.example.com/"
	}
	cfg.Now = f.clock.Now
	f.svc = NewService(f.store, evts, f.notifier, cfg, nil)
	return f
}

func jane() Attendee {
	return Attendee{FirstName: "Jane", LastName: "Doe", Email: "jane@x.com", IsPublic: true}
}
