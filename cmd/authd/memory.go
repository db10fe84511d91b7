package main

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	authcore "github.com/bookline/authcore"
)

// memoryRepository is an in-process PersonRepository. It exists so authd can
// run standalone; production deployments supply their own repository backed
// by the account database.
type memoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]authcore.Identity
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{nextID: 1, byID: make(map[int64]authcore.Identity)}
}

func (r *memoryRepository) GetByUsername(_ context.Context, username string) (authcore.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, person := range r.byID {
		if person.Username == username {
			return person, nil
		}
	}
	return authcore.Identity{}, authcore.ErrNotFound
}

func (r *memoryRepository) GetByEmail(_ context.Context, email string) (authcore.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, person := range r.byID {
		if strings.EqualFold(person.Email, email) {
			return person, nil
		}
	}
	return authcore.Identity{}, authcore.ErrNotFound
}

func (r *memoryRepository) GetByID(_ context.Context, id int64) (authcore.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	person, ok := r.byID[id]
	if !ok {
		return authcore.Identity{}, authcore.ErrNotFound
	}
	return person, nil
}

func (r *memoryRepository) Create(_ context.Context, input authcore.CreatePersonInput) (authcore.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, person := range r.byID {
		if person.Username == input.Username || strings.EqualFold(person.Email, input.Email) {
			return authcore.Identity{}, authcore.ErrAccountExists
		}
	}
	now := time.Now().UTC()
	person := authcore.Identity{
		ID:           r.nextID,
		Username:     input.Username,
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		Address:      input.Address,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.nextID++
	r.byID[person.ID] = person
	return person, nil
}

func (r *memoryRepository) UpdatePasswordHash(_ context.Context, id int64, newHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	person, ok := r.byID[id]
	if !ok {
		return authcore.ErrNotFound
	}
	person.PasswordHash = newHash
	person.UpdatedAt = time.Now().UTC()
	r.byID[id] = person
	return nil
}

func (r *memoryRepository) MarkEmailVerified(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	person, ok := r.byID[id]
	if !ok {
		return authcore.ErrNotFound
	}
	person.EmailVerified = true
	person.UpdatedAt = time.Now().UTC()
	r.byID[id] = person
	return nil
}

// logEmailSender writes outgoing mail to the log instead of delivering it.
// Useful for local runs; swap in an SMTP or provider-backed sender otherwise.
type logEmailSender struct {
	logger *zap.Logger
}

func (s *logEmailSender) Send(_ context.Context, to, subject, body string) error {
	s.logger.Info("outgoing email",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
