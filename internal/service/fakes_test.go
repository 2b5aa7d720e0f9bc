package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"taskflow/internal/domain"
	"taskflow/internal/repository"
)

type memUsers struct {
	mu       sync.Mutex
	byID     map[string]*domain.User
	seq      int
	setErr   error
	getErr   error
	setCalls int
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*domain.User{}}
}

func (m *memUsers) Init(context.Context) error { return nil }

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return fmt.Errorf("insert: %w", repository.ErrDuplicate)
		}
	}
	m.seq++
	u.ID = fmt.Sprintf("u%d", m.seq)
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.byID {
		if u.Email == domain.NormalizeEmail(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) SetRefreshToken(_ context.Context, id, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.setErr != nil {
		return m.setErr
	}
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.RefreshToken = token
	return nil
}

type memTasks struct {
	mu    sync.Mutex
	tasks []domain.Task
	seq   int
	err   error
}

func (m *memTasks) Init(context.Context) error { return nil }

func (m *memTasks) Create(_ context.Context, t *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.seq++
	t.ID = fmt.Sprintf("t%d", m.seq)
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt
	m.tasks = append(m.tasks, *t)
	return nil
}

func (m *memTasks) ListByOwner(_ context.Context, owner string) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []domain.Task{}
	for i := len(m.tasks) - 1; i >= 0; i-- {
		if m.tasks[i].Owner == owner {
			out = append(out, m.tasks[i])
		}
	}
	return out, nil
}

func (m *memTasks) GetForOwner(_ context.Context, id, owner string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.index(id, owner); i >= 0 {
		cp := m.tasks[i]
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memTasks) UpdateForOwner(_ context.Context, t *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(t.ID, t.Owner)
	if i < 0 {
		return repository.ErrNotFound
	}
	t.UpdatedAt = time.Now().UTC()
	m.tasks[i] = *t
	return nil
}

func (m *memTasks) DeleteForOwner(_ context.Context, id, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(id, owner)
	if i < 0 {
		return repository.ErrNotFound
	}
	m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
	return nil
}

func (m *memTasks) index(id, owner string) int {
	for i := range m.tasks {
		if m.tasks[i].ID == id && m.tasks[i].Owner == owner {
			return i
		}
	}
	return -1
}

type fakeRelay struct {
	uploadErr error
	uploads   []string
	deleted   []string
}

func (f *fakeRelay) Upload(_ context.Context, localPath string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads = append(f.uploads, localPath)
	return fmt.Sprintf("https://cdn.test/avatars/%d.png", len(f.uploads)), nil
}

func (f *fakeRelay) Delete(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

type memRevocations struct {
	revoked map[string]time.Time
}

func (m *memRevocations) Revoke(_ context.Context, id string, until time.Time) error {
	if m.revoked == nil {
		m.revoked = map[string]time.Time{}
	}
	m.revoked[id] = until
	return nil
}

func (m *memRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	_, ok := m.revoked[id]
	return ok, nil
}
