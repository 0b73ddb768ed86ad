// Package memory holds process-local repositories used for STORE_BACKEND=memory
// and by tests. They keep the same uniqueness guarantees as the Postgres ones.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/skyport/internal/domain/entity"
	"github.com/oksasatya/skyport/internal/domain/repository"
)

type UserRepository struct {
	mu         sync.RWMutex
	byID       map[string]*entity.User
	byUsername map[string]string
	byEmail    map[string]string
	now        func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:       make(map[string]*entity.User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
		now:        time.Now,
	}
}

// Create checks both unique keys and inserts under one lock.
func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUsername[u.Username]; ok {
		return repository.ErrDuplicateUsername
	}
	if _, ok := r.byEmail[u.Email]; ok {
		return repository.ErrDuplicateEmail
	}

	now := r.now().UTC()
	u.ID = uuid.NewString()
	u.CreatedAt = now
	u.UpdatedAt = now

	stored := *u
	r.byID[u.ID] = &stored
	r.byUsername[u.Username] = u.ID
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(r.byUsername[username])
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(r.byEmail[email])
}

func (r *UserRepository) lookup(id string) (*entity.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) SetConfirmed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	if u.Confirmed {
		return nil
	}
	now := r.now().UTC()
	u.Confirmed = true
	u.ConfirmedAt = &now
	u.UpdatedAt = now
	return nil
}

func (r *UserRepository) SearchByUsername(_ context.Context, q string, limit int) ([]entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q = strings.ToLower(q)
	var out []entity.User
	for _, u := range r.byID {
		if strings.Contains(strings.ToLower(u.Username), q) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete removes a user. Accounts are never deleted by the web flows; this
// exists so callers can model a session outliving its account.
func (r *UserRepository) Delete(_ context.Context, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byUsername[username]
	if !ok {
		return
	}
	u := r.byID[id]
	delete(r.byEmail, u.Email)
	delete(r.byUsername, username)
	delete(r.byID, id)
}

var _ repository.UserRepository = (*UserRepository)(nil)
