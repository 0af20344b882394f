// Package storage persists the append-only action log, vote records and
// the agent directory. The action log is the sole source of truth for
// single-use and consecutive-use ability state; nothing in the engine keeps
// a counter that this package cannot rebuild.
package storage

import (
	"context"
	"time"
)

// ActionRecord is one appended action. Outcome carries the resolved effect
// ("protected", "wolf", "none", a death cause) so replays need no joins.
type ActionRecord struct {
	ID           string    `db:"id"`
	GameID       string    `db:"game_id"`
	Round        int       `db:"round"`
	Phase        string    `db:"phase"`
	Actor        int       `db:"actor"`
	Kind         string    `db:"kind"`
	Target       int       `db:"target"`
	SecondTarget int       `db:"second_target"`
	Outcome      string    `db:"outcome"`
	CreatedAt    time.Time `db:"created_at"`
}

// VoteRecord is one ballot entry. Phase distinguishes the pack's night
// ballot from the public day vote.
type VoteRecord struct {
	GameID string `db:"game_id"`
	Round  int    `db:"round"`
	Phase  string `db:"phase"`
	Voter  int    `db:"voter"`
	Target int    `db:"target"`
}

// AgentRecord is one registered agent in the directory.
type AgentRecord struct {
	ID               string `db:"agent_id"`
	CallbackURL      string `db:"callback_url"`
	Secret           string `db:"secret"`
	CallbackDisabled bool   `db:"callback_disabled"`
}

// ActionRepository appends and replays action records.
type ActionRepository interface {
	AppendAction(ctx context.Context, rec ActionRecord) error
	ActionsByGame(ctx context.Context, gameID string) ([]ActionRecord, error)
}

// VoteRepository appends and replays ballot entries.
type VoteRepository interface {
	AppendVote(ctx context.Context, rec VoteRecord) error
	VotesByRound(ctx context.Context, gameID string, round int, phase string) ([]VoteRecord, error)
}

// AgentRepository stores the agent directory. The disabled flag must
// survive restarts.
type AgentRepository interface {
	UpsertAgent(ctx context.Context, rec AgentRecord) error
	GetAgent(ctx context.Context, id string) (*AgentRecord, error)
	SetCallbackDisabled(ctx context.Context, id string, disabled bool) error
}
