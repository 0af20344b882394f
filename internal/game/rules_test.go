package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/duskvale/werearena/internal/domain/role"
	"github.com/duskvale/werearena/internal/domain/seat"
)

func seats(alive map[role.Name]int, dead map[role.Name]int) []*seat.Seat {
	out := []*seat.Seat{}
	n := 1
	add := func(m map[role.Name]int, isAlive bool) {
		for r, count := range m {
			for i := 0; i < count; i++ {
				out = append(out, &seat.Seat{Number: seat.ID(n), Role: r, Alive: isAlive})
				n++
			}
		}
	}
	add(alive, true)
	add(dead, false)
	return out
}

func TestCheckWin(t *testing.T) {
	tests := []struct {
		name   string
		alive  map[role.Name]int
		dead   map[role.Name]int
		done   bool
		winner role.Team
	}{
		{
			name:  "game continues while wolves are outnumbered",
			alive: map[role.Name]int{role.Wolf: 1, role.Villager: 2, role.Seer: 1},
			done:  false,
		},
		{
			name:   "villagers win when the last wolf falls",
			alive:  map[role.Name]int{role.Villager: 3, role.Seer: 1},
			dead:   map[role.Name]int{role.Wolf: 2},
			done:   true,
			winner: role.TeamVillager,
		},
		{
			name:   "wolves win at exact parity",
			alive:  map[role.Name]int{role.Wolf: 2, role.Villager: 2},
			done:   true,
			winner: role.TeamWolf,
		},
		{
			name:   "wolves win when outnumbering",
			alive:  map[role.Name]int{role.Wolf: 2, role.Villager: 1},
			done:   true,
			winner: role.TeamWolf,
		},
		{
			name:   "madman tips parity toward the wolves",
			alive:  map[role.Name]int{role.Wolf: 1, role.Madman: 1, role.Villager: 2},
			done:   true,
			winner: role.TeamWolf,
		},
		{
			name:   "lone madman left does not hand villagers the win",
			alive:  map[role.Name]int{role.Madman: 1, role.Villager: 1},
			done:   true,
			winner: role.TeamWolf,
		},
		{
			name:   "empty table counts as a villager win",
			dead:   map[role.Name]int{role.Wolf: 1, role.Villager: 1},
			done:   true,
			winner: role.TeamVillager,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			win := CheckWin(seats(tt.alive, tt.dead))
			assert.Equal(t, tt.done, win.Finished)
			if tt.done {
				assert.Equal(t, tt.winner, win.Winner)
			}
		})
	}
}

func TestResolveVote(t *testing.T) {
	tests := []struct {
		name  string
		pairs []VotePair
		want  seat.ID
		ok    bool
	}{
		{
			name:  "unique plurality wins",
			pairs: []VotePair{{1, 3}, {2, 3}, {4, 1}},
			want:  3, ok: true,
		},
		{
			name:  "tie eliminates nobody",
			pairs: []VotePair{{1, 3}, {2, 4}, {3, 4}, {4, 3}},
			ok:    false,
		},
		{
			name: "empty ballot eliminates nobody",
			ok:   false,
		},
		{
			name:  "abstentions only eliminate nobody",
			pairs: []VotePair{{1, 0}, {2, 0}},
			ok:    false,
		},
		{
			name:  "single vote decides",
			pairs: []VotePair{{1, 2}},
			want:  2, ok: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveVote(tt.pairs)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
