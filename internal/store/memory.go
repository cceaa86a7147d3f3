package store

import (
	"context"
	"slices"
	"sync"

	"tubescribe.app/bot/internal/model"
)

// Memory is the in-process fallback store, used when no redis is configured or
// the configured one is unreachable at startup. State does not survive a
// restart.
type Memory struct {
	mu        sync.Mutex
	sets      map[string][]string
	histories map[string][]model.ChatTurn
}

func NewMemory() *Memory {
	return &Memory{
		sets:      make(map[string][]string),
		histories: make(map[string][]model.ChatTurn),
	}
}

func (m *Memory) IsMember(_ context.Context, set, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Contains(m.sets[set], id)
}

func (m *Memory) AddMember(_ context.Context, set, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !slices.Contains(m.sets[set], id) {
		m.sets[set] = append(m.sets[set], id)
	}
}

func (m *Memory) AllMembers(_ context.Context, set string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sets[set])
}

func (m *Memory) RemoveMember(_ context.Context, set, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := slices.Index(m.sets[set], id); i >= 0 {
		m.sets[set] = slices.Delete(m.sets[set], i, i+1)
	}
}

func (m *Memory) History(_ context.Context, userID string) []model.ChatTurn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.histories[historyKey(userID)])
}

func (m *Memory) AppendHistory(_ context.Context, userID string, turn model.ChatTurn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := historyKey(userID)
	m.histories[key] = append(m.histories[key], turn)
}

func (m *Memory) ResetHistory(_ context.Context, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.histories, historyKey(userID))
}
