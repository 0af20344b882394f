package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/duskvale/werearena/internal/domain/seat"
	"github.com/duskvale/werearena/internal/events"
	"github.com/duskvale/werearena/internal/infra/storage"
	"github.com/duskvale/werearena/internal/platform/logger"
)

// SeatSpec names one seat of a new game and optionally links an agent.
type SeatSpec struct {
	Name    string `json:"name"`
	AgentID string `json:"agent_id,omitempty"`
}

// ManagerConfig wires a manager.
type ManagerConfig struct {
	Modes     map[string]Mode
	Decisions DecisionSource
	Actions   storage.ActionRepository
	Votes     storage.VoteRepository
	Persister events.Persister
	Logger    *logger.Logger
	// Release is handed to every engine, see Config.Release.
	Release func(agentID string)
	// Watch is called with each new game's event log so the observer
	// hub can start polling it.
	Watch func(ctx context.Context, gameID string, log *events.Log)
}

// Manager starts games and tracks the running ones.
type Manager struct {
	cfg   ManagerConfig
	mu    sync.Mutex
	games map[string]*Engine
}

func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		cfg:   cfg,
		games: make(map[string]*Engine),
	}
}

// Start assembles a game from a mode and seat specs and runs it on its
// own goroutine.
func (m *Manager) Start(ctx context.Context, modeName string, seats []SeatSpec) (*Game, error) {
	mode, ok := m.cfg.Modes[modeName]
	if !ok {
		return nil, fmt.Errorf("unknown mode %q", modeName)
	}
	if len(seats) != len(mode.Roles) {
		return nil, fmt.Errorf("mode %s seats %d players, got %d", modeName, len(mode.Roles), len(seats))
	}

	names := make([]string, len(seats))
	agentIDs := make([]string, len(seats))
	for i, s := range seats {
		if s.Name == "" {
			return nil, fmt.Errorf("seat %d has no name", i+1)
		}
		names[i] = s.Name
		agentIDs[i] = s.AgentID
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	roster, err := seat.Assign(mode.Roles, names, agentIDs, rng)
	if err != nil {
		return nil, err
	}

	g := &Game{
		ID:     uuid.NewString(),
		Mode:   mode,
		Status: StatusLobby,
		Phase:  PhaseLobby,
	}
	evlog := events.NewLog(m.cfg.Persister)
	eng := NewEngine(Config{
		Game:      g,
		Roster:    roster,
		Decisions: m.cfg.Decisions,
		Actions:   m.cfg.Actions,
		Votes:     m.cfg.Votes,
		Events:    evlog,
		Logger:    m.cfg.Logger,
		Rng:       rng,
		Release:   m.cfg.Release,
	})

	m.mu.Lock()
	m.games[g.ID] = eng
	m.mu.Unlock()

	if m.cfg.Watch != nil {
		m.cfg.Watch(ctx, g.ID, evlog)
	}
	go eng.Run(ctx)
	return g, nil
}

// Get returns a tracked engine.
func (m *Manager) Get(gameID string) (*Engine, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	eng, ok := m.games[gameID]
	return eng, ok
}
