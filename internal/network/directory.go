package network

import (
	"context"
	"time"

	"github.com/duskvale/werearena/internal/decision"
	"github.com/duskvale/werearena/internal/infra/storage"
	"github.com/duskvale/werearena/internal/platform/logger"
)

const directoryOpTimeout = 5 * time.Second

// AgentDirectory adapts the persisted agent registry to the acquisition
// chain. The callback-disabled flag lives in storage so the downgrade
// survives restarts.
type AgentDirectory struct {
	repo storage.AgentRepository
	log  *logger.Logger
}

func NewAgentDirectory(repo storage.AgentRepository, log *logger.Logger) *AgentDirectory {
	return &AgentDirectory{repo: repo, log: log}
}

func (d *AgentDirectory) Agent(id string) (decision.AgentInfo, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), directoryOpTimeout)
	defer cancel()
	rec, err := d.repo.GetAgent(ctx, id)
	if err != nil {
		return decision.AgentInfo{}, false
	}
	return decision.AgentInfo{
		ID:               rec.ID,
		CallbackURL:      rec.CallbackURL,
		Secret:           rec.Secret,
		CallbackDisabled: rec.CallbackDisabled,
	}, true
}

func (d *AgentDirectory) DisableCallback(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), directoryOpTimeout)
	defer cancel()
	return d.repo.SetCallbackDisabled(ctx, id, true)
}

// Register upserts an agent registration.
func (d *AgentDirectory) Register(ctx context.Context, rec storage.AgentRecord) error {
	return d.repo.UpsertAgent(ctx, rec)
}
