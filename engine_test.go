package authcore

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/bookline/authcore/password"
)

// 32 bytes, the HS256 minimum.
var testSecret = []byte("0123456789abcdef0123456789abcdef")

type mockPersonRepository struct {
	mu     sync.Mutex
	byID   map[int64]Identity
	nextID int64

	createErr error
	getErr    error

	getByUsernameCalls int
	getByEmailCalls    int
	getByIDCalls       int
	createCalls        int
	updateHashCalls    int
	markVerifiedCalls  int
}

func newMockPersonRepository() *mockPersonRepository {
	return &mockPersonRepository{byID: make(map[int64]Identity), nextID: 1}
}

func (m *mockPersonRepository) add(identity Identity) Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if identity.ID == 0 {
		identity.ID = m.nextID
	}
	if identity.ID >= m.nextID {
		m.nextID = identity.ID + 1
	}
	m.byID[identity.ID] = identity
	return identity
}

func (m *mockPersonRepository) GetByUsername(_ context.Context, username string) (Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getByUsernameCalls++
	if m.getErr != nil {
		return Identity{}, m.getErr
	}
	for _, person := range m.byID {
		if person.Username == username {
			return person, nil
		}
	}
	return Identity{}, ErrNotFound
}

func (m *mockPersonRepository) GetByEmail(_ context.Context, email string) (Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getByEmailCalls++
	if m.getErr != nil {
		return Identity{}, m.getErr
	}
	for _, person := range m.byID {
		if strings.EqualFold(person.Email, email) {
			return person, nil
		}
	}
	return Identity{}, ErrNotFound
}

func (m *mockPersonRepository) GetByID(_ context.Context, id int64) (Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getByIDCalls++
	if m.getErr != nil {
		return Identity{}, m.getErr
	}
	person, ok := m.byID[id]
	if !ok {
		return Identity{}, ErrNotFound
	}
	return person, nil
}

func (m *mockPersonRepository) Create(_ context.Context, input CreatePersonInput) (Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.createErr != nil {
		return Identity{}, m.createErr
	}
	for _, person := range m.byID {
		if person.Username == input.Username || strings.EqualFold(person.Email, input.Email) {
			return Identity{}, ErrAccountExists
		}
	}
	person := Identity{
		ID:           m.nextID,
		Username:     input.Username,
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		Address:      input.Address,
	}
	m.nextID++
	m.byID[person.ID] = person
	return person, nil
}

func (m *mockPersonRepository) UpdatePasswordHash(_ context.Context, id int64, newHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateHashCalls++
	person, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	person.PasswordHash = newHash
	m.byID[id] = person
	return nil
}

func (m *mockPersonRepository) MarkEmailVerified(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markVerifiedCalls++
	person, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	person.EmailVerified = true
	m.byID[id] = person
	return nil
}

type sentEmail struct {
	To      string
	Subject string
	Body    string
}

type mockEmailSender struct {
	mu      sync.Mutex
	sent    []sentEmail
	sendErr error
}

func (m *mockEmailSender) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentEmail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *mockEmailSender) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *mockEmailSender) last(t *testing.T) sentEmail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatal("no email was sent")
	}
	return m.sent[len(m.sent)-1]
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.JWT.Secret = testSecret
	return cfg
}

func newTestEngine(t *testing.T, rdb *redis.Client, repo PersonRepository, sender EmailSender) *Engine {
	t.Helper()

	engine, err := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithPersonRepository(repo).
		WithEmailSender(sender).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return engine
}

// mustHash hashes a password for seeding mock accounts.
func mustHash(t *testing.T, plaintext string) string {
	t.Helper()

	hash, err := password.New().Hash(plaintext)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	return hash
}

// seedAccount registers a ready-to-login identity in the mock repository.
func seedAccount(t *testing.T, repo *mockPersonRepository, username, pass, email string) Identity {
	t.Helper()

	return repo.add(Identity{
		Username:     username,
		PasswordHash: mustHash(t, pass),
		Role:         "customer",
		Name:         "Test Person",
		Email:        email,
	})
}
