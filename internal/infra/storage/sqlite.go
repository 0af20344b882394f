package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

const schema = `
CREATE TABLE IF NOT EXISTS actions (
	id            TEXT PRIMARY KEY,
	game_id       TEXT NOT NULL,
	round         INTEGER NOT NULL,
	phase         TEXT NOT NULL,
	actor         INTEGER NOT NULL,
	kind          TEXT NOT NULL,
	target        INTEGER NOT NULL DEFAULT 0,
	second_target INTEGER NOT NULL DEFAULT 0,
	outcome       TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_actions_game ON actions(game_id, round);

CREATE TABLE IF NOT EXISTS votes (
	game_id TEXT NOT NULL,
	round   INTEGER NOT NULL,
	phase   TEXT NOT NULL,
	voter   INTEGER NOT NULL,
	target  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_votes_game ON votes(game_id, round, phase);

CREATE TABLE IF NOT EXISTS agents (
	agent_id          TEXT PRIMARY KEY,
	callback_url      TEXT NOT NULL DEFAULT '',
	secret            TEXT NOT NULL DEFAULT '',
	callback_disabled INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS game_events (
	id        TEXT PRIMARY KEY,
	game_id   TEXT NOT NULL,
	round     INTEGER NOT NULL,
	type      TEXT NOT NULL,
	payload   TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_game_events_game ON game_events(game_id);
`

// SQLiteStore implements every repository over a single sqlite file using
// the pure-Go driver.
type SQLiteStore struct {
	db *sqlx.DB
}

// Open connects and applies the schema. path may be ":memory:".
func Open(path string) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// The driver serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent games.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) AppendAction(ctx context.Context, rec ActionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO actions (id, game_id, round, phase, actor, kind, target, second_target, outcome, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.GameID, rec.Round, rec.Phase, rec.Actor, rec.Kind,
		rec.Target, rec.SecondTarget, rec.Outcome, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("append action: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ActionsByGame(ctx context.Context, gameID string) ([]ActionRecord, error) {
	var out []ActionRecord
	err := s.db.SelectContext(ctx, &out,
		`SELECT * FROM actions WHERE game_id = ? ORDER BY created_at, id`, gameID)
	if err != nil {
		return nil, fmt.Errorf("actions by game: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) AppendVote(ctx context.Context, rec VoteRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO votes (game_id, round, phase, voter, target) VALUES (?, ?, ?, ?, ?)`,
		rec.GameID, rec.Round, rec.Phase, rec.Voter, rec.Target)
	if err != nil {
		return fmt.Errorf("append vote: %w", err)
	}
	return nil
}

func (s *SQLiteStore) VotesByRound(ctx context.Context, gameID string, round int, phase string) ([]VoteRecord, error) {
	var out []VoteRecord
	err := s.db.SelectContext(ctx, &out,
		`SELECT * FROM votes WHERE game_id = ? AND round = ? AND phase = ?`, gameID, round, phase)
	if err != nil {
		return nil, fmt.Errorf("votes by round: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) UpsertAgent(ctx context.Context, rec AgentRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agents (agent_id, callback_url, secret, callback_disabled)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(agent_id) DO UPDATE SET
			callback_url = excluded.callback_url,
			secret = excluded.secret,
			callback_disabled = excluded.callback_disabled`,
		rec.ID, rec.CallbackURL, rec.Secret, rec.CallbackDisabled)
	if err != nil {
		return fmt.Errorf("upsert agent: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetAgent(ctx context.Context, id string) (*AgentRecord, error) {
	var rec AgentRecord
	err := s.db.GetContext(ctx, &rec,
		`SELECT * FROM agents WHERE agent_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get agent %s: %w", id, err)
	}
	return &rec, nil
}

func (s *SQLiteStore) SetCallbackDisabled(ctx context.Context, id string, disabled bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE agents SET callback_disabled = ? WHERE agent_id = ?`, disabled, id)
	if err != nil {
		return fmt.Errorf("set callback disabled: %w", err)
	}
	return nil
}

// PersistGameEvent writes one serialized event row. Satisfies the event
// log's write-through persister via a small adapter in the network layer.
func (s *SQLiteStore) PersistGameEvent(ctx context.Context, id, gameID string, round int, typ, payload string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO game_events (id, game_id, round, type, payload, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, gameID, round, typ, payload, at)
	if err != nil {
		return fmt.Errorf("persist game event: %w", err)
	}
	return nil
}
