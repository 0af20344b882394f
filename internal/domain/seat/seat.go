// Package seat models the table: numbered positions, the role each holds
// and whether the occupant is still alive.
package seat

import (
	"fmt"
	"math/rand"

	"github.com/duskvale/werearena/internal/domain/role"
)

// ID is a 1-based seat number.
type ID int

// Seat is one position at the table.
type Seat struct {
	Number ID
	Role   role.Name
	Name   string
	// AgentID links the seat to the controlling agent. Empty means the
	// seat is driven by the fallback channels only.
	AgentID string
	Alive   bool
	// VoteStripped is set when the occupant permanently loses voting
	// rights (the revealed idiot). It is reconstructed from the action
	// log on recovery, never trusted on its own.
	VoteStripped bool
}

// Roster is the fixed set of seats for one game. Seat numbers are dense,
// 1..N, and never change after assignment.
type Roster struct {
	seats []*Seat
}

// NewRoster wraps an already-built seat list.
func NewRoster(seats []*Seat) *Roster {
	return &Roster{seats: seats}
}

// Assign shuffles roles onto named seats. len(roles) must equal
// len(names); agentIDs may be shorter, missing entries mean no agent.
func Assign(roles []role.Name, names []string, agentIDs []string, rng *rand.Rand) (*Roster, error) {
	if len(roles) != len(names) {
		return nil, fmt.Errorf("assign: %d roles for %d seats", len(roles), len(names))
	}
	for _, r := range roles {
		if !r.Valid() {
			return nil, fmt.Errorf("assign: unknown role %q", r)
		}
	}
	shuffled := make([]role.Name, len(roles))
	copy(shuffled, roles)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	seats := make([]*Seat, len(names))
	for i, name := range names {
		agentID := ""
		if i < len(agentIDs) {
			agentID = agentIDs[i]
		}
		seats[i] = &Seat{
			Number:  ID(i + 1),
			Role:    shuffled[i],
			Name:    name,
			AgentID: agentID,
			Alive:   true,
		}
	}
	return &Roster{seats: seats}, nil
}

// Get returns the seat with the given number, or nil.
func (r *Roster) Get(id ID) *Seat {
	if id < 1 || int(id) > len(r.seats) {
		return nil
	}
	return r.seats[id-1]
}

// All returns every seat in table order.
func (r *Roster) All() []*Seat {
	return r.seats
}

// Alive returns the living seats in table order.
func (r *Roster) Alive() []*Seat {
	out := make([]*Seat, 0, len(r.seats))
	for _, s := range r.seats {
		if s.Alive {
			out = append(out, s)
		}
	}
	return out
}

// AliveNames returns the display names of the living seats.
func (r *Roster) AliveNames() []string {
	out := make([]string, 0, len(r.seats))
	for _, s := range r.seats {
		if s.Alive {
			out = append(out, s.Name)
		}
	}
	return out
}

// DeadNames returns the display names of the dead seats.
func (r *Roster) DeadNames() []string {
	out := make([]string, 0)
	for _, s := range r.seats {
		if !s.Alive {
			out = append(out, s.Name)
		}
	}
	return out
}

// AliveByRole returns the first living seat holding the role, or nil.
func (r *Roster) AliveByRole(n role.Name) *Seat {
	for _, s := range r.seats {
		if s.Alive && s.Role == n {
			return s
		}
	}
	return nil
}

// WolfBallot returns the living seats that join the nightly kill vote.
func (r *Roster) WolfBallot() []*Seat {
	out := make([]*Seat, 0)
	for _, s := range r.seats {
		if s.Alive && s.Role.VotesInWolfBallot() {
			out = append(out, s)
		}
	}
	return out
}

// AliveTeamCounts tallies living seats per alignment.
func (r *Roster) AliveTeamCounts() (wolves, villagers int) {
	for _, s := range r.seats {
		if !s.Alive {
			continue
		}
		if s.Role.Team() == role.TeamWolf {
			wolves++
		} else {
			villagers++
		}
	}
	return wolves, villagers
}

// NextAlive returns living seats starting at the seat after `after`,
// wrapping around the table. With after == 0 the order starts at seat 1.
func (r *Roster) NextAlive(after ID) []*Seat {
	n := len(r.seats)
	out := make([]*Seat, 0, n)
	for i := 0; i < n; i++ {
		idx := (int(after) + i) % n
		s := r.seats[idx]
		if s.Alive {
			out = append(out, s)
		}
	}
	return out
}
