package post

import (
	"context"
	"sync"
	"time"

	"telecast/internal/domain"
	"telecast/pkg/logger"
)

// Memory is the default in-process store. All state is lost on restart;
// every operation takes the store lock so no caller can observe a
// half-updated record.
type Memory struct {
	mu     sync.RWMutex
	posts  map[string]domain.Post
	logger logger.Logger
}

func NewMemory(log logger.Logger) *Memory {
	return &Memory{
		posts:  make(map[string]domain.Post),
		logger: log.WithComponent("PostStoreMemory"),
	}
}

var _ Repository = (*Memory)(nil)

func (m *Memory) Put(_ context.Context, p domain.Post) (domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.posts[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.Buttons = cloneButtons(p.Buttons)

	m.posts[p.ID] = p
	return p, nil
}

func (m *Memory) Get(_ context.Context, id string) (*domain.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := p
	cp.Buttons = cloneButtons(p.Buttons)
	return &cp, nil
}

func (m *Memory) List(_ context.Context) ([]*domain.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Post, 0, len(m.posts))
	for _, p := range m.posts {
		cp := p
		cp.Buttons = cloneButtons(p.Buttons)
		out = append(out, &cp)
	}
	return out, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.posts, id)
	return nil
}

func (m *Memory) UpdateStatus(_ context.Context, id string, upd StatusUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[id]
	if !ok {
		m.logger.Debug("Status update for missing post, skipping", "post_id", id)
		return nil
	}

	p.Status = upd.Status
	p.Error = upd.Error
	p.SentAt = upd.SentAt
	m.posts[id] = p
	return nil
}

func cloneButtons(buttons []domain.Button) []domain.Button {
	if buttons == nil {
		return nil
	}
	out := make([]domain.Button, len(buttons))
	copy(out, buttons)
	return out
}
