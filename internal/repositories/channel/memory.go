package channel

import (
	"context"
	"sort"
	"sync"
	"time"

	"telecast/internal/domain"
	"telecast/pkg/logger"
)

type Memory struct {
	mu      sync.Mutex
	entries map[string]domain.ChannelRegistration
	ttl     time.Duration
	now     func() time.Time
	logger  logger.Logger
}

func NewMemory(ttl time.Duration, log logger.Logger) *Memory {
	return &Memory{
		entries: make(map[string]domain.ChannelRegistration),
		ttl:     ttl,
		now:     time.Now,
		logger:  log.WithComponent("ChannelRegistry"),
	}
}

var _ Registry = (*Memory)(nil)

func (m *Memory) Register(_ context.Context, ev domain.ChannelEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[ev.ChannelID] = domain.ChannelRegistration{
		ChannelID:    ev.ChannelID,
		Title:        ev.Title,
		Handle:       ev.Handle,
		Kind:         ev.Kind,
		RegisteredAt: m.now(),
	}
	m.logger.Info("Channel registered", "channel_id", ev.ChannelID, "title", ev.Title)
	return nil
}

func (m *Memory) Unregister(_ context.Context, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[channelID]; ok {
		delete(m.entries, channelID)
		m.logger.Info("Channel unregistered", "channel_id", channelID)
	}
	return nil
}

// ListActive filters out entries older than the TTL and evicts them as a
// side effect of the read.
func (m *Memory) ListActive(_ context.Context) ([]*domain.ChannelRegistration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	active := make([]*domain.ChannelRegistration, 0, len(m.entries))
	for id, reg := range m.entries {
		if now.Sub(reg.RegisteredAt) > m.ttl {
			delete(m.entries, id)
			continue
		}
		cp := reg
		active = append(active, &cp)
	}

	sort.Slice(active, func(i, j int) bool {
		return active[i].RegisteredAt.After(active[j].RegisteredAt)
	})
	return active, nil
}
