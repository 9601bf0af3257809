// Package memory is an in-process repository.Manager used by tests. It mirrors
// the unique indexes of the SQL schema and gives RunInTx all-or-nothing
// semantics.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/signverse/signverse-backend/internal/models"
	"github.com/signverse/signverse-backend/internal/repository"
)

type state struct {
	users   map[uuid.UUID]models.User
	pending map[uuid.UUID]models.PendingRegistration
}

func (s *state) clone() *state {
	c := &state{
		users:   make(map[uuid.UUID]models.User, len(s.users)),
		pending: make(map[uuid.UUID]models.PendingRegistration, len(s.pending)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.pending {
		c.pending[k] = v
	}
	return c
}

type Store struct {
	mu    sync.Mutex
	state *state
}

func New() *Store {
	return &Store{state: &state{
		users:   make(map[uuid.UUID]models.User),
		pending: make(map[uuid.UUID]models.PendingRegistration),
	}}
}

func (s *Store) Users() repository.Users {
	return &users{run: s.locked}
}

func (s *Store) PendingRegistrations() repository.PendingRegistrations {
	return &pending{run: s.locked}
}

func (s *Store) RunInTx(ctx context.Context, fn func(tx repository.Manager) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.state.clone()
	if err := fn(&txManager{state: staged}); err != nil {
		return err
	}
	s.state = staged
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

// UserCount and PendingCount let tests assert on store contents.
func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.users)
}

func (s *Store) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.pending)
}

func (s *Store) locked(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

type txManager struct {
	state *state
}

func (t *txManager) run(fn func(st *state) error) error { return fn(t.state) }

func (t *txManager) Users() repository.Users { return &users{run: t.run} }

func (t *txManager) PendingRegistrations() repository.PendingRegistrations {
	return &pending{run: t.run}
}

func (t *txManager) RunInTx(_ context.Context, fn func(tx repository.Manager) error) error {
	return fn(t)
}

func (t *txManager) Ping(context.Context) error { return nil }

type runner func(fn func(st *state) error) error

type users struct {
	run runner
}

func (r *users) Create(_ context.Context, user *models.User) error {
	return r.run(func(st *state) error {
		if user.ID == uuid.Nil {
			user.ID = uuid.New()
		}
		for _, u := range st.users {
			if u.Email == user.Email || u.ID == user.ID {
				return repository.ErrDuplicate
			}
		}
		now := time.Now()
		if user.CreatedAt.IsZero() {
			user.CreatedAt = now
		}
		user.UpdatedAt = now
		st.users[user.ID] = *user
		return nil
	})
}

func (r *users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	var found *models.User
	err := r.run(func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				u := u
				found = &u
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

func (r *users) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	var found *models.User
	err := r.run(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		found = &u
		return nil
	})
	return found, err
}

func (r *users) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	return r.run(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		u.LastLogin = &at
		u.UpdatedAt = time.Now()
		st.users[id] = u
		return nil
	})
}

func (r *users) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	return r.run(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		u.PasswordHash = passwordHash
		u.UpdatedAt = time.Now()
		st.users[id] = u
		return nil
	})
}

type pending struct {
	run runner
}

func (r *pending) Create(_ context.Context, p *models.PendingRegistration) error {
	return r.run(func(st *state) error {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		for _, existing := range st.pending {
			if existing.Email == p.Email ||
				existing.VerificationTokenHash == p.VerificationTokenHash ||
				existing.ID == p.ID {
				return repository.ErrDuplicate
			}
		}
		now := time.Now()
		p.CreatedAt = now
		p.UpdatedAt = now
		st.pending[p.ID] = *p
		return nil
	})
}

func (r *pending) find(match func(p models.PendingRegistration) bool) (*models.PendingRegistration, error) {
	var found *models.PendingRegistration
	err := r.run(func(st *state) error {
		for _, p := range st.pending {
			if match(p) {
				p := p
				found = &p
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

func (r *pending) FindByEmail(_ context.Context, email string) (*models.PendingRegistration, error) {
	return r.find(func(p models.PendingRegistration) bool { return p.Email == email })
}

func (r *pending) FindActiveByEmail(_ context.Context, email string, now time.Time) (*models.PendingRegistration, error) {
	return r.find(func(p models.PendingRegistration) bool {
		return p.Email == email && !p.IsExpired(now)
	})
}

func (r *pending) FindActiveByTokenHash(_ context.Context, tokenHash string, now time.Time) (*models.PendingRegistration, error) {
	return r.find(func(p models.PendingRegistration) bool {
		return p.VerificationTokenHash == tokenHash && !p.IsExpired(now)
	})
}

func (r *pending) UpdateToken(_ context.Context, id uuid.UUID, tokenHash string, expires time.Time) error {
	return r.run(func(st *state) error {
		p, ok := st.pending[id]
		if !ok {
			return repository.ErrNotFound
		}
		for otherID, other := range st.pending {
			if otherID != id && other.VerificationTokenHash == tokenHash {
				return repository.ErrDuplicate
			}
		}
		p.VerificationTokenHash = tokenHash
		p.VerificationTokenExpires = expires
		p.UpdatedAt = time.Now()
		st.pending[id] = p
		return nil
	})
}

func (r *pending) Delete(_ context.Context, id uuid.UUID) error {
	return r.run(func(st *state) error {
		if _, ok := st.pending[id]; !ok {
			return repository.ErrNotFound
		}
		delete(st.pending, id)
		return nil
	})
}

func (r *pending) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.run(func(st *state) error {
		for id, p := range st.pending {
			if p.IsExpired(now) {
				delete(st.pending, id)
				n++
			}
		}
		return nil
	})
	return n, err
}
