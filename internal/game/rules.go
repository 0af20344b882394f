// Package game holds the simulation engine: the rules, night resolution,
// the death-trigger chain and the phase state machine that drives a match
// from lobby to game over.
package game

import (
	"github.com/duskvale/werearena/internal/domain/role"
	"github.com/duskvale/werearena/internal/domain/seat"
)

// WinState is the result of a win evaluation.
type WinState struct {
	Finished bool
	// Winner is empty for a no-score abnormal termination.
	Winner role.Team
	Reason string
}

// CheckWin evaluates the victory conditions over the current seats.
// Villagers win the moment no wolf-side seat breathes; wolves win when
// they reach numeric parity. The madman counts on the wolf side.
func CheckWin(seats []*seat.Seat) WinState {
	wolves, villagers := 0, 0
	for _, s := range seats {
		if !s.Alive {
			continue
		}
		if s.Role.Team() == role.TeamWolf {
			wolves++
		} else {
			villagers++
		}
	}
	if wolves == 0 {
		return WinState{Finished: true, Winner: role.TeamVillager, Reason: "all wolves eliminated"}
	}
	if wolves >= villagers {
		return WinState{Finished: true, Winner: role.TeamWolf, Reason: "wolves reached parity"}
	}
	return WinState{}
}

// VotePair is one ballot entry.
type VotePair struct {
	Voter  seat.ID
	Target seat.ID
}

// ResolveVote tallies a ballot. The unique top target wins; an empty
// ballot or a tie among the top count eliminates nobody.
func ResolveVote(pairs []VotePair) (seat.ID, bool) {
	if len(pairs) == 0 {
		return 0, false
	}
	counts := make(map[seat.ID]int)
	for _, p := range pairs {
		if p.Target == 0 {
			continue
		}
		counts[p.Target]++
	}

	var top seat.ID
	best, tied := 0, false
	for target, n := range counts {
		switch {
		case n > best:
			top, best, tied = target, n, false
		case n == best:
			tied = true
		}
	}
	if best == 0 || tied {
		return 0, false
	}
	return top, true
}
