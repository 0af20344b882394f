package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/duskvale/werearena/internal/decision"
	"github.com/duskvale/werearena/internal/domain/role"
	"github.com/duskvale/werearena/internal/domain/seat"
	"github.com/duskvale/werearena/internal/events"
	"github.com/duskvale/werearena/internal/infra/storage"
	"github.com/duskvale/werearena/internal/platform/logger"
	"github.com/duskvale/werearena/internal/platform/metrics"
)

// Status is the lifecycle of one game.
type Status string

const (
	StatusLobby    Status = "lobby"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Game is the mutable header of one match. Everything that matters for
// replay lives in the action log, not here.
type Game struct {
	ID     string
	Mode   Mode
	Status Status
	Round  int
	Phase  Phase
	Result WinState
}

// DecisionSource obtains one decision per seat turn. Implemented by the
// acquisition chain; tests script it.
type DecisionSource interface {
	Acquire(ctx context.Context, req decision.Request) decision.Decision
}

// Action kinds the engine appends beyond the agent-requested ones.
const (
	kindDeath          = "death"
	kindWitchSave      = "witch_save"
	kindWitchPoison    = "witch_poison"
	kindElderLife      = "elder_extra_life"
	kindIdiotReveal    = "idiot_reveal"
	kindStripAbilities = "abilities_stripped"
	kindKnightDuel     = "knight_duel"
)

// Config wires an engine.
type Config struct {
	Game      *Game
	Roster    *seat.Roster
	Decisions DecisionSource
	Actions   storage.ActionRepository
	Votes     storage.VoteRepository
	Events    *events.Log
	Logger    *logger.Logger
	Rng       *rand.Rand
	// Release is called once per linked agent when the game ends, so
	// pending poll requests do not outlive the match.
	Release func(agentID string)
}

// Engine drives one game from its first night to game over. One goroutine
// owns it; the only concurrent entry point is Snapshot.
type Engine struct {
	// headerMu guards writes to the game header so Snapshot can be
	// served while the engine goroutine runs.
	headerMu sync.Mutex

	game      *Game
	roster    *seat.Roster
	decisions DecisionSource
	actions   storage.ActionRepository
	votes     storage.VoteRepository
	ledger    *storage.Ledger
	events    *events.Log
	log       *logger.Logger
	rng       *rand.Rand
	release   func(agentID string)

	abilitiesStripped bool
	coupleA, coupleB  seat.ID
	transcript        []string
	lastVictim        seat.ID
	roundDeaths       []seat.ID
}

func NewEngine(cfg Config) *Engine {
	rng := cfg.Rng
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{
		game:      cfg.Game,
		roster:    cfg.Roster,
		decisions: cfg.Decisions,
		actions:   cfg.Actions,
		votes:     cfg.Votes,
		ledger:    storage.NewLedger(cfg.Actions, cfg.Game.ID),
		events:    cfg.Events,
		log:       cfg.Logger,
		rng:       rng,
		release:   cfg.Release,
	}
}

// Game exposes the match header for managers and tests.
func (e *Engine) Game() *Game { return e.game }

// Snapshot copies the game header. Safe to call from any goroutine while
// the engine is running.
func (e *Engine) Snapshot() Game {
	e.headerMu.Lock()
	defer e.headerMu.Unlock()
	return *e.game
}

// Events exposes the match's event log for observers.
func (e *Engine) Events() *events.Log { return e.events }

// Run plays the match to completion and returns the result. A panic
// anywhere in the loop ends the game in a drawn, no-score state with all
// agents released.
func (e *Engine) Run(ctx context.Context) WinState {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("game %s: engine fault: %v", e.game.ID, r)
			e.finish(WinState{Finished: true, Reason: "engine fault, no result"})
		}
	}()

	e.restore(ctx)
	e.headerMu.Lock()
	e.game.Status = StatusPlaying
	e.headerMu.Unlock()
	metrics.Get().RecordGameStarted()
	e.log.Info("game %s: starting, mode %s, %d seats", e.game.ID, e.game.Mode.Name, len(e.roster.All()))

	for e.game.Status == StatusPlaying {
		if ctx.Err() != nil {
			e.finish(WinState{Finished: true, Reason: "cancelled, no result"})
			break
		}
		if e.game.Round >= e.game.Mode.MaxRounds {
			// The cap favors the village: undiscovered wolves have
			// run out of nights.
			e.finish(WinState{Finished: true, Winner: role.TeamVillager, Reason: "round cap reached"})
			break
		}
		e.headerMu.Lock()
		e.game.Round++
		e.headerMu.Unlock()
		e.transcript = e.transcript[:0]
		e.roundDeaths = e.roundDeaths[:0]
		e.lastVictim = 0

		e.runNight(ctx)
		if e.game.Status != StatusPlaying {
			break
		}
		e.runDay(ctx)
	}
	return e.game.Result
}

// restore rebuilds derived state from the action log. A recovered engine
// sees exactly what the crashed one had appended.
func (e *Engine) restore(ctx context.Context) {
	recs, err := e.actions.ActionsByGame(ctx, e.game.ID)
	if err != nil {
		e.log.Error("game %s: restore: %v", e.game.ID, err)
		return
	}
	for _, r := range recs {
		if r.Round > e.game.Round {
			e.headerMu.Lock()
			e.game.Round = r.Round
			e.headerMu.Unlock()
		}
		switch r.Kind {
		case kindDeath:
			if s := e.roster.Get(seat.ID(r.Actor)); s != nil {
				s.Alive = false
			}
		case kindIdiotReveal:
			if s := e.roster.Get(seat.ID(r.Actor)); s != nil {
				s.VoteStripped = true
			}
		case kindStripAbilities:
			e.abilitiesStripped = true
		case string(decision.KindCupidLink):
			e.coupleA, e.coupleB = seat.ID(r.Target), seat.ID(r.SecondTarget)
		}
	}
	if len(recs) > 0 {
		e.log.Info("game %s: restored %d actions up to round %d", e.game.ID, len(recs), e.game.Round)
	}
}

func (e *Engine) finish(win WinState) {
	if e.game.Status == StatusFinished {
		return
	}
	e.headerMu.Lock()
	e.game.Status = StatusFinished
	e.game.Phase = PhaseGameOver
	e.game.Result = win
	e.headerMu.Unlock()
	e.emit(events.TypeGameOver, 0, 0, map[string]interface{}{
		"winner": string(win.Winner),
		"reason": win.Reason,
	})
	metrics.Get().RecordGameFinished()
	e.log.Info("game %s: finished, winner=%q reason=%q", e.game.ID, win.Winner, win.Reason)

	if e.release != nil {
		for _, s := range e.roster.All() {
			if s.AgentID != "" {
				e.release(s.AgentID)
			}
		}
	}
	// The game-over entry was the last append; the persist worker can
	// drain and stop.
	e.events.Close()
}

func (e *Engine) setPhase(p Phase) {
	e.headerMu.Lock()
	e.game.Phase = p
	e.headerMu.Unlock()
	e.emit(events.TypePhaseChange, 0, 0, map[string]interface{}{"phase": string(p)})
}

func (e *Engine) emit(t events.Type, actor, target seat.ID, payload map[string]interface{}) {
	e.events.Append(events.Event{
		GameID:  e.game.ID,
		Round:   e.game.Round,
		Phase:   string(e.game.Phase),
		Type:    t,
		Actor:   int(actor),
		Target:  int(target),
		Payload: payload,
	})
}

// record appends one action. Append failures are logged, not fatal: the
// log stays the source of truth and a hole in it is loud.
func (e *Engine) record(ctx context.Context, kind string, actor, target, second seat.ID, outcome string) {
	err := e.actions.AppendAction(ctx, storage.ActionRecord{
		GameID:       e.game.ID,
		Round:        e.game.Round,
		Phase:        string(e.game.Phase),
		Actor:        int(actor),
		Kind:         kind,
		Target:       int(target),
		SecondTarget: int(second),
		Outcome:      outcome,
	})
	if err != nil {
		e.log.Error("game %s: append %s: %v", e.game.ID, kind, err)
	}
}

func (e *Engine) hasUsed(ctx context.Context, kind string, actor seat.ID) bool {
	used, err := e.ledger.HasUsed(ctx, kind, int(actor))
	if err != nil {
		e.log.Error("game %s: ledger %s: %v", e.game.ID, kind, err)
		return false
	}
	return used
}

// request assembles the acquisition input for one seat turn.
func (e *Engine) request(s *seat.Seat, kind decision.ActionKind) decision.Request {
	alive := e.roster.Alive()
	candidates := make([]decision.Candidate, 0, len(alive))
	wolfSeats := make(map[seat.ID]bool)
	for _, c := range alive {
		candidates = append(candidates, decision.Candidate{ID: c.Number, Name: c.Name})
		if c.Role.VotesInWolfBallot() {
			wolfSeats[c.Number] = true
		}
	}

	req := decision.Request{
		Context: decision.Context{
			GameID:     e.game.ID,
			Round:      e.game.Round,
			Phase:      string(e.game.Phase),
			Kind:       kind,
			Seat:       int(s.Number),
			SeatName:   s.Name,
			Role:       string(s.Role),
			Alive:      e.roster.AliveNames(),
			Dead:       e.roster.DeadNames(),
			Transcript: append([]string(nil), e.transcript...),
		},
		AgentID:     s.AgentID,
		Candidates:  candidates,
		Exclude:     s.Number,
		WolfSeats:   wolfSeats,
		Temperature: 0.7,
	}
	if s.Role.KnowsTeammates() {
		for _, w := range e.roster.WolfBallot() {
			if w.Number != s.Number {
				req.Teammates = append(req.Teammates, w.Name)
			}
		}
	}
	return req
}

// couplePartner returns the living other half of the linked couple.
func (e *Engine) couplePartner(id seat.ID) (seat.ID, bool) {
	switch id {
	case e.coupleA:
		if e.coupleB != 0 {
			return e.coupleB, true
		}
	case e.coupleB:
		if e.coupleA != 0 {
			return e.coupleA, true
		}
	}
	return 0, false
}

// aliveTarget validates a chosen target against the current roster.
func (e *Engine) aliveTarget(id seat.ID) *seat.Seat {
	s := e.roster.Get(id)
	if s == nil || !s.Alive {
		return nil
	}
	return s
}

func seatLabel(s *seat.Seat) string {
	return fmt.Sprintf("%d (%s)", s.Number, s.Name)
}
