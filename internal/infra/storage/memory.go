package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps actions, votes and agents in plain maps and slices.
// Used by tests and by throwaway games that opt out of persistence.
type MemoryStore struct {
	mu      sync.RWMutex
	actions []ActionRecord
	votes   []VoteRecord
	agents  map[string]AgentRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{agents: make(map[string]AgentRecord)}
}

func (m *MemoryStore) AppendAction(ctx context.Context, rec ActionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, rec)
	return nil
}

func (m *MemoryStore) ActionsByGame(ctx context.Context, gameID string) ([]ActionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ActionRecord, 0)
	for _, a := range m.actions {
		if a.GameID == gameID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemoryStore) AppendVote(ctx context.Context, rec VoteRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.votes = append(m.votes, rec)
	return nil
}

func (m *MemoryStore) VotesByRound(ctx context.Context, gameID string, round int, phase string) ([]VoteRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]VoteRecord, 0)
	for _, v := range m.votes {
		if v.GameID == gameID && v.Round == round && v.Phase == phase {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *MemoryStore) UpsertAgent(ctx context.Context, rec AgentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agents[rec.ID] = rec
	return nil
}

func (m *MemoryStore) GetAgent(ctx context.Context, id string) (*AgentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.agents[id]
	if !ok {
		return nil, fmt.Errorf("agent %s not registered", id)
	}
	return &rec, nil
}

func (m *MemoryStore) SetCallbackDisabled(ctx context.Context, id string, disabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.agents[id]
	if !ok {
		return fmt.Errorf("agent %s not registered", id)
	}
	rec.CallbackDisabled = disabled
	m.agents[id] = rec
	return nil
}
