package game

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskvale/werearena/internal/decision"
	"github.com/duskvale/werearena/internal/domain/role"
	"github.com/duskvale/werearena/internal/domain/seat"
	"github.com/duskvale/werearena/internal/events"
	"github.com/duskvale/werearena/internal/infra/storage"
	"github.com/duskvale/werearena/internal/platform/logger"
)

type sourceFunc func(req decision.Request) decision.Decision

func (f sourceFunc) Acquire(ctx context.Context, req decision.Request) decision.Decision {
	return f(req)
}

// newTestEngine builds an engine over fixed seats (no role shuffle) and a
// scripted decision source.
func newTestEngine(roles []role.Name, mode Mode, fn sourceFunc) (*Engine, *storage.MemoryStore) {
	seatList := make([]*seat.Seat, len(roles))
	for i, r := range roles {
		seatList[i] = &seat.Seat{
			Number: seat.ID(i + 1),
			Role:   r,
			Name:   fmt.Sprintf("P%d", i+1),
			Alive:  true,
		}
	}
	store := storage.NewMemoryStore()
	g := &Game{ID: "test-game", Mode: mode, Status: StatusPlaying, Round: 1}
	eng := NewEngine(Config{
		Game:      g,
		Roster:    seat.NewRoster(seatList),
		Decisions: fn,
		Actions:   store,
		Votes:     store,
		Events:    events.NewLog(nil),
		Logger:    logger.NewLogger(),
		Rng:       rand.New(rand.NewSource(1)),
	})
	return eng, store
}

func silentSource() sourceFunc {
	return func(req decision.Request) decision.Decision {
		return decision.Decision{Kind: req.Kind}
	}
}

func TestHunterShotChains(t *testing.T) {
	shots := 0
	fn := func(req decision.Request) decision.Decision {
		if req.Kind == decision.KindHunterShoot {
			shots++
			return decision.Decision{Kind: req.Kind, Target: 2}
		}
		return decision.Decision{Kind: req.Kind}
	}
	eng, _ := newTestEngine(
		[]role.Name{role.Hunter, role.Wolf, role.Villager, role.Villager},
		DefaultModes()["mini3"], fn)

	eng.processDeaths(context.Background(), []Death{{Seat: 1, Cause: CauseWolfKill}})

	assert.Equal(t, 1, shots)
	assert.False(t, eng.roster.Get(1).Alive)
	assert.False(t, eng.roster.Get(2).Alive, "the hunter took the wolf down")
	assert.Equal(t, StatusFinished, eng.Game().Status)
	assert.Equal(t, role.TeamVillager, eng.Game().Result.Winner)
}

func TestPoisonSilencesTheHunter(t *testing.T) {
	shots := 0
	fn := func(req decision.Request) decision.Decision {
		if req.Kind == decision.KindHunterShoot {
			shots++
			return decision.Decision{Kind: req.Kind, Target: 2}
		}
		return decision.Decision{Kind: req.Kind}
	}
	eng, _ := newTestEngine(
		[]role.Name{role.Hunter, role.Wolf, role.Villager, role.Villager},
		DefaultModes()["mini3"], fn)

	eng.processDeaths(context.Background(), []Death{{Seat: 1, Cause: CausePoison}})

	assert.Zero(t, shots, "a poisoned hunter never fires")
	assert.True(t, eng.roster.Get(2).Alive)
}

func TestStrippedAbilitiesSilenceTheHunter(t *testing.T) {
	shots := 0
	fn := func(req decision.Request) decision.Decision {
		if req.Kind == decision.KindHunterShoot {
			shots++
		}
		return decision.Decision{Kind: req.Kind}
	}
	eng, _ := newTestEngine(
		[]role.Name{role.Hunter, role.Wolf, role.Villager, role.Villager},
		DefaultModes()["mini3"], fn)
	eng.abilitiesStripped = true

	eng.processDeaths(context.Background(), []Death{{Seat: 1, Cause: CauseWolfKill}})
	assert.Zero(t, shots)
}

func TestRevengeFiresOnlyOnVote(t *testing.T) {
	var shotBy []seat.ID
	fn := func(req decision.Request) decision.Decision {
		if req.Kind == decision.KindHunterShoot {
			shotBy = append(shotBy, seat.ID(req.Seat))
			return decision.Decision{Kind: req.Kind, Target: 4}
		}
		return decision.Decision{Kind: req.Kind}
	}
	eng, _ := newTestEngine(
		[]role.Name{role.WolfKing, role.Wolf, role.Villager, role.Villager, role.Villager, role.Villager},
		DefaultModes()["mini3"], fn)

	// A night kill on the wolf king fires nothing.
	eng.processDeaths(context.Background(), []Death{{Seat: 1, Cause: CauseWolfKill}})
	assert.Empty(t, shotBy)
	eng.roster.Get(1).Alive = true

	// A vote elimination fires the revenge.
	eng.processDeaths(context.Background(), []Death{{Seat: 1, Cause: CauseVote}})
	require.Len(t, shotBy, 1)
	assert.Equal(t, seat.ID(1), shotBy[0])
	assert.False(t, eng.roster.Get(4).Alive)
}

func TestHeartbreakCascades(t *testing.T) {
	eng, _ := newTestEngine(
		[]role.Name{role.Villager, role.Seer, role.Wolf, role.Villager, role.Villager},
		DefaultModes()["mini3"], silentSource())
	eng.coupleA, eng.coupleB = 1, 2

	eng.processDeaths(context.Background(), []Death{{Seat: 1, Cause: CauseWolfKill}})

	assert.False(t, eng.roster.Get(1).Alive)
	assert.False(t, eng.roster.Get(2).Alive, "the partner dies of heartbreak")
}

func TestDeathChainDepthCap(t *testing.T) {
	// Six hunters in a row, each shooting the next. The chain must stop
	// at the cap, not ricochet through the whole table.
	fn := func(req decision.Request) decision.Decision {
		if req.Kind == decision.KindHunterShoot {
			return decision.Decision{Kind: req.Kind, Target: seat.ID(req.Seat + 1)}
		}
		return decision.Decision{Kind: req.Kind}
	}
	roles := []role.Name{
		role.Hunter, role.Hunter, role.Hunter, role.Hunter, role.Hunter, role.Hunter,
		role.Wolf,
		role.Villager, role.Villager, role.Villager, role.Villager, role.Villager,
	}
	eng, _ := newTestEngine(roles, DefaultModes()["mini3"], fn)

	eng.processDeaths(context.Background(), []Death{{Seat: 1, Cause: CauseVote}})

	for i := 1; i <= 5; i++ {
		assert.False(t, eng.roster.Get(seat.ID(i)).Alive, "seat %d", i)
	}
	assert.True(t, eng.roster.Get(6).Alive, "the chain stops at the depth cap")
}

func TestDeathsAreReplayable(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(
		[]role.Name{role.Villager, role.Wolf, role.Villager, role.Villager},
		DefaultModes()["mini3"], silentSource())

	eng.processDeaths(ctx, []Death{{Seat: 1, Cause: CauseWolfKill}})
	require.False(t, eng.roster.Get(1).Alive)

	// A fresh engine over the same store reconstructs the death.
	seatList := []*seat.Seat{
		{Number: 1, Role: role.Villager, Name: "P1", Alive: true},
		{Number: 2, Role: role.Wolf, Name: "P2", Alive: true},
		{Number: 3, Role: role.Villager, Name: "P3", Alive: true},
		{Number: 4, Role: role.Villager, Name: "P4", Alive: true},
	}
	g := &Game{ID: "test-game", Mode: DefaultModes()["mini3"], Status: StatusLobby}
	recovered := NewEngine(Config{
		Game:      g,
		Roster:    seat.NewRoster(seatList),
		Decisions: silentSource(),
		Actions:   store,
		Votes:     store,
		Events:    events.NewLog(nil),
		Logger:    logger.NewLogger(),
	})
	recovered.restore(ctx)
	assert.False(t, recovered.roster.Get(1).Alive)
	assert.True(t, recovered.roster.Get(2).Alive)
}
