// Package events holds the per-game append-only event log. The log is the
// outbound record of everything observers may see; gameplay state questions
// are answered from the action store, not from here.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/duskvale/werearena/internal/platform/metrics"
)

// Type discriminates log entries.
type Type string

const (
	TypePhaseChange       Type = "PHASE_CHANGE"
	TypeMessage           Type = "MESSAGE"
	TypeVoteCast          Type = "VOTE_CAST"
	TypeVoteTally         Type = "VOTE_TALLY"
	TypeDeath             Type = "DEATH"
	TypeRoleReveal        Type = "ROLE_REVEAL"
	TypeSeerResult        Type = "SEER_RESULT"
	TypeDreamResult       Type = "DREAM_RESULT"
	TypeCoupleLinked      Type = "COUPLE_LINKED"
	TypeElderLifeSpent    Type = "ELDER_LIFE_SPENT"
	TypeIdiotRevealed     Type = "IDIOT_REVEALED"
	TypeAbilitiesStripped Type = "ABILITIES_STRIPPED"
	TypeKnightDuel        Type = "KNIGHT_DUEL"
	TypeCallbackDisabled  Type = "CALLBACK_DISABLED"
	TypeGameOver          Type = "GAME_OVER"
)

// Event is one immutable log entry.
type Event struct {
	ID        string                 `json:"id"`
	GameID    string                 `json:"game_id"`
	Round     int                    `json:"round"`
	Phase     string                 `json:"phase"`
	Type      Type                   `json:"type"`
	Actor     int                    `json:"actor,omitempty"`
	Target    int                    `json:"target,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Persister receives every appended event. Implementations must tolerate
// being called from multiple goroutines.
type Persister interface {
	PersistEvent(Event) error
}

// Log is an in-memory append-only event sequence with optional
// write-through persistence. A single worker drains appended events to
// the persister so rows land in append order.
type Log struct {
	mu        sync.RWMutex
	events    []Event
	persistCh chan Event
}

// NewLog creates a log. persister may be nil.
func NewLog(persister Persister) *Log {
	l := &Log{events: make([]Event, 0, 256)}
	if persister != nil {
		l.persistCh = make(chan Event, 512)
		go func() {
			for e := range l.persistCh {
				_ = persister.PersistEvent(e)
			}
		}()
	}
	return l
}

// Append stamps and stores the event. ID and Timestamp are filled when
// absent so call sites stay terse.
func (l *Log) Append(e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()

	metrics.Get().RecordEventWritten()

	if l.persistCh != nil {
		l.persistCh <- e
	}
}

// Close stops the persist worker once its backlog drains. Append must not
// be called afterwards.
func (l *Log) Close() {
	if l.persistCh != nil {
		close(l.persistCh)
	}
}

// Len returns the number of appended events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Replay returns a copy of the full sequence in append order.
func (l *Log) Replay() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Since returns a copy of the events at index offset and later. Used by
// pollers that track how far they have broadcast.
func (l *Log) Since(offset int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if offset < 0 {
		offset = 0
	}
	if offset >= len(l.events) {
		return nil
	}
	out := make([]Event, len(l.events)-offset)
	copy(out, l.events[offset:])
	return out
}

// ByRound returns the events of one round in append order.
func (l *Log) ByRound(round int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, 0)
	for _, e := range l.events {
		if e.Round == round {
			out = append(out, e)
		}
	}
	return out
}

// ByType returns every event of the given type in append order.
func (l *Log) ByType(t Type) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, 0)
	for _, e := range l.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
