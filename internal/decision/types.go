// Package decision implements the decision acquisition protocol: how the
// engine obtains one decision per seat turn over four ordered channels
// (push callback, poll queue, generative fallback, random fallback), plus
// the interpretation layer that turns untrusted agent text into decisions.
package decision

import (
	"errors"

	"github.com/duskvale/werearena/internal/domain/seat"
)

// ActionKind names the decision being requested from a seat.
type ActionKind string

const (
	KindSpeak          ActionKind = "speak"
	KindLastWords      ActionKind = "last_words"
	KindVote           ActionKind = "vote"
	KindWolfKill       ActionKind = "wolf_kill"
	KindWitchDecide    ActionKind = "witch_decide"
	KindGuardProtect   ActionKind = "guard_protect"
	KindSeerCheck      ActionKind = "seer_check"
	KindHunterShoot    ActionKind = "hunter_shoot"
	KindCupidLink      ActionKind = "cupid_link"
	KindDreamPairCheck ActionKind = "dream_pair_check"
	KindEnchant        ActionKind = "enchant_target"
	KindKnightSpeak    ActionKind = "knight_speak"
)

// WitchAction is the canonical night choice of the potion holder.
type WitchAction string

const (
	WitchSave   WitchAction = "save"
	WitchPoison WitchAction = "poison"
	WitchNone   WitchAction = "none"
)

// Decision is the engine-facing result of one acquisition. Zero targets
// mean "no target".
type Decision struct {
	Kind         ActionKind
	Message      string
	Target       seat.ID
	SecondTarget seat.ID
	WitchAction  WitchAction
	Flip         bool
}

// Candidate is one resolvable target: a living seat the actor may name.
type Candidate struct {
	ID   seat.ID
	Name string
}

// Context is the payload shown to an agent when its decision is requested.
// The same shape is pushed to callbacks and returned from the poll API.
type Context struct {
	GameID     string            `json:"game_id"`
	Round      int               `json:"round"`
	Phase      string            `json:"phase"`
	Kind       ActionKind        `json:"action"`
	Seat       int               `json:"seat"`
	SeatName   string            `json:"seat_name"`
	Role       string            `json:"role"`
	Alive      []string          `json:"alive"`
	Dead       []string          `json:"dead,omitempty"`
	Teammates  []string          `json:"teammates,omitempty"`
	Transcript []string          `json:"transcript,omitempty"`
	Knowledge  map[string]string `json:"knowledge,omitempty"`
}

// Request is the engine-side acquisition input: the agent payload plus the
// resolution data that never leaves the server.
type Request struct {
	Context
	AgentID     string
	Candidates  []Candidate
	Exclude     seat.ID
	WolfSeats   map[seat.ID]bool
	Temperature float32
}

// ErrUnresolvedTarget marks a response whose target could not be matched
// to any eligible seat. Callers treat the decision as failed rather than
// guessing.
var ErrUnresolvedTarget = errors.New("target could not be resolved to an eligible seat")
