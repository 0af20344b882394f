package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveNight(t *testing.T) {
	tests := []struct {
		name       string
		in         NightInputs
		deaths     []Death
		elderSpent bool
	}{
		{
			name: "quiet night",
			in:   NightInputs{},
		},
		{
			name:   "unopposed kill lands",
			in:     NightInputs{WolfTarget: 3},
			deaths: []Death{{Seat: 3, Cause: CauseWolfKill}},
		},
		{
			name: "guard match blocks the kill",
			in:   NightInputs{WolfTarget: 3, GuardTarget: 3},
		},
		{
			name: "witch save blocks the kill",
			in:   NightInputs{WolfTarget: 3, WitchSaved: true},
		},
		{
			name:   "enchanted guard protects nobody",
			in:     NightInputs{WolfTarget: 3, GuardTarget: 3, Enchanted: 3},
			deaths: []Death{{Seat: 3, Cause: CauseWolfKill}},
		},
		{
			name:       "elder converts the kill into the extra life",
			in:         NightInputs{WolfTarget: 5, ElderSeat: 5},
			elderSpent: true,
		},
		{
			name:   "spent elder life no longer protects",
			in:     NightInputs{WolfTarget: 5, ElderSeat: 5, ElderLifeUsed: true},
			deaths: []Death{{Seat: 5, Cause: CauseWolfKill}},
		},
		{
			name:   "poison on the wolf victim kills once",
			in:     NightInputs{WolfTarget: 3, PoisonTarget: 3},
			deaths: []Death{{Seat: 3, Cause: CauseWolfKill}},
		},
		{
			name: "kill and poison on different seats",
			in:   NightInputs{WolfTarget: 3, PoisonTarget: 4},
			deaths: []Death{
				{Seat: 3, Cause: CauseWolfKill},
				{Seat: 4, Cause: CausePoison},
			},
		},
		{
			name:   "poison lands even when the kill was saved",
			in:     NightInputs{WolfTarget: 3, WitchSaved: true, PoisonTarget: 4},
			deaths: []Death{{Seat: 4, Cause: CausePoison}},
		},
		{
			name:   "poison ignores the guard",
			in:     NightInputs{GuardTarget: 4, PoisonTarget: 4},
			deaths: []Death{{Seat: 4, Cause: CausePoison}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ResolveNight(tt.in)
			assert.Equal(t, tt.deaths, out.Deaths)
			assert.Equal(t, tt.elderSpent, out.ElderLifeSpent)
			assert.LessOrEqual(t, len(out.Deaths), 2)
		})
	}
}
