package game

import (
	"context"
	"sync"
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

func TestRunWolfWinEndToEnd(t *testing.T) {
	// Three seats: the wolf kills the villager on night one and reaches
	// parity with the seer.
	fn := func(req decision.Request) decision.Decision {
		switch req.Kind {
		case decision.KindWolfKill:
			return decision.Decision{Kind: req.Kind, Target: 3}
		case decision.KindSeerCheck:
			return decision.Decision{Kind: req.Kind, Target: 1}
		}
		return decision.Decision{Kind: req.Kind}
	}
	eng, _ := newTestEngine(
		[]role.Name{role.Wolf, role.Seer, role.Villager},
		DefaultModes()["mini3"], fn)
	eng.Game().Status = StatusLobby
	eng.Game().Round = 0

	win := eng.Run(context.Background())

	assert.True(t, win.Finished)
	assert.Equal(t, role.TeamWolf, win.Winner)
	assert.Equal(t, 1, eng.Game().Round)
	assert.Equal(t, StatusFinished, eng.Game().Status)

	// The seer got a result before the dawn verdict.
	checks := eng.Events().ByType(events.TypeSeerResult)
	require.Len(t, checks, 1)
	assert.Equal(t, "wolf", checks[0].Payload["result"])
}

func TestRunRoundCapFavorsVillagers(t *testing.T) {
	eng, _ := newTestEngine(
		[]role.Name{role.Wolf, role.Seer, role.Villager, role.Villager},
		DefaultModes()["mini3"], silentSource())
	eng.Game().Status = StatusLobby
	eng.Game().Round = 0

	win := eng.Run(context.Background())

	assert.True(t, win.Finished)
	assert.Equal(t, role.TeamVillager, win.Winner)
	assert.Equal(t, "round cap reached", win.Reason)
	assert.Equal(t, DefaultModes()["mini3"].MaxRounds, eng.Game().Round)
}

func TestRunFaultEndsDrawnWithAgentsReleased(t *testing.T) {
	var mu sync.Mutex
	released := []string{}
	fn := func(req decision.Request) decision.Decision {
		panic("scripted fault")
	}
	eng, _ := newTestEngine(
		[]role.Name{role.Wolf, role.Seer, role.Villager},
		DefaultModes()["mini3"], fn)
	for _, s := range eng.roster.All() {
		s.AgentID = "agent-" + s.Name
	}
	eng.release = func(agentID string) {
		mu.Lock()
		defer mu.Unlock()
		released = append(released, agentID)
	}
	eng.Game().Status = StatusLobby
	eng.Game().Round = 0

	win := eng.Run(context.Background())

	assert.True(t, win.Finished)
	assert.Empty(t, win.Winner, "a fault scores nobody")
	assert.Equal(t, StatusFinished, eng.Game().Status)
	assert.Len(t, released, 3, "every linked agent is released")
}

func TestSnapshotIsSafeDuringRun(t *testing.T) {
	eng, _ := newTestEngine(
		[]role.Name{role.Wolf, role.Seer, role.Villager, role.Villager},
		DefaultModes()["mini3"], silentSource())
	eng.Game().Status = StatusLobby
	eng.Game().Round = 0

	// A status reader hammers the header while the game plays out.
	stop := make(chan struct{})
	var readerDone sync.WaitGroup
	readerDone.Add(1)
	go func() {
		defer readerDone.Done()
		for {
			select {
			case <-stop:
				return
			default:
				_ = eng.Snapshot()
			}
		}
	}()

	win := eng.Run(context.Background())
	close(stop)
	readerDone.Wait()

	assert.True(t, win.Finished)
	g := eng.Snapshot()
	assert.Equal(t, StatusFinished, g.Status)
	assert.Equal(t, win, g.Result)
}

func TestWolfRequestsCarryTeammates(t *testing.T) {
	eng, _ := newTestEngine(
		[]role.Name{role.Wolf, role.Wolf, role.Madman, role.Villager},
		DefaultModes()["mini3"], silentSource())

	// Pack members are named on every turn, not just the kill ballot.
	for _, kind := range []decision.ActionKind{decision.KindWolfKill, decision.KindSpeak, decision.KindVote} {
		req := eng.request(eng.roster.Get(1), kind)
		assert.Equal(t, []string{"P2"}, req.Teammates)
	}

	// The madman scores with the wolves but never learns who they are.
	assert.Empty(t, eng.request(eng.roster.Get(3), decision.KindSpeak).Teammates)
	assert.Empty(t, eng.request(eng.roster.Get(4), decision.KindVote).Teammates)
}

func TestIdiotSurvivesFirstVoteOnly(t *testing.T) {
	ctx := context.Background()
	fn := func(req decision.Request) decision.Decision {
		if req.Kind == decision.KindVote {
			if req.Seat == 2 {
				return decision.Decision{Kind: req.Kind, Target: 1}
			}
			return decision.Decision{Kind: req.Kind, Target: 2}
		}
		return decision.Decision{Kind: req.Kind}
	}
	eng, _ := newTestEngine(
		[]role.Name{role.Wolf, role.Idiot, role.Villager, role.Villager, role.Villager},
		DefaultModes()["mini3"], fn)

	eng.dayVote(ctx)
	idiot := eng.roster.Get(2)
	assert.True(t, idiot.Alive, "the idiot survives the first verdict")
	assert.True(t, idiot.VoteStripped)

	eng.Game().Round++
	eng.dayVote(ctx)
	assert.False(t, idiot.Alive, "the exception spends itself")
}

func TestElderVoteOutStripsAbilities(t *testing.T) {
	ctx := context.Background()
	fn := func(req decision.Request) decision.Decision {
		if req.Kind == decision.KindVote {
			return decision.Decision{Kind: req.Kind, Target: 2}
		}
		return decision.Decision{Kind: req.Kind}
	}
	eng, store := newTestEngine(
		[]role.Name{role.Wolf, role.Elder, role.Seer, role.Villager, role.Villager},
		DefaultModes()["mini3"], fn)

	eng.dayVote(ctx)

	assert.False(t, eng.roster.Get(2).Alive)
	assert.True(t, eng.abilitiesStripped)

	// The punishment is replayable.
	recs, err := store.ActionsByGame(ctx, "test-game")
	require.NoError(t, err)
	found := false
	for _, r := range recs {
		if r.Kind == kindStripAbilities {
			found = true
		}
	}
	assert.True(t, found)
}

func TestKnightDuelCutsTheDayShort(t *testing.T) {
	ctx := context.Background()
	speeches := 0
	fn := func(req decision.Request) decision.Decision {
		switch req.Kind {
		case decision.KindKnightSpeak:
			return decision.Decision{Kind: req.Kind, Flip: true, Target: 3}
		case decision.KindSpeak:
			speeches++
		}
		return decision.Decision{Kind: req.Kind}
	}
	eng, _ := newTestEngine(
		[]role.Name{role.Knight, role.Wolf, role.Wolf, role.Villager, role.Villager, role.Villager},
		DefaultModes()["mini3"], fn)

	duel := eng.dayDiscuss(ctx)

	assert.True(t, duel)
	assert.Zero(t, speeches, "the knight opens and nobody else speaks")
	assert.True(t, eng.roster.Get(1).Alive, "the accused was a wolf, the knight stands")
	assert.False(t, eng.roster.Get(3).Alive)

	// The duel is single-use: with it spent, the knight just speaks.
	eng.Game().Round++
	duel = eng.dayDiscuss(ctx)
	assert.False(t, duel)
}

func TestKnightDuelAgainstVillagerKillsKnight(t *testing.T) {
	ctx := context.Background()
	fn := func(req decision.Request) decision.Decision {
		if req.Kind == decision.KindKnightSpeak {
			return decision.Decision{Kind: req.Kind, Flip: true, Target: 4}
		}
		return decision.Decision{Kind: req.Kind}
	}
	eng, _ := newTestEngine(
		[]role.Name{role.Knight, role.Wolf, role.Villager, role.Villager, role.Villager},
		DefaultModes()["mini3"], fn)

	duel := eng.dayDiscuss(ctx)

	assert.True(t, duel)
	assert.False(t, eng.roster.Get(1).Alive, "a wrong accusation costs the knight")
	assert.True(t, eng.roster.Get(4).Alive)
}

func TestGuardCannotRepeatTarget(t *testing.T) {
	ctx := context.Background()
	fn := func(req decision.Request) decision.Decision {
		if req.Kind == decision.KindGuardProtect {
			return decision.Decision{Kind: req.Kind, Target: 3}
		}
		return decision.Decision{Kind: req.Kind}
	}
	eng, _ := newTestEngine(
		[]role.Name{role.Wolf, role.Guard, role.Villager, role.Villager},
		DefaultModes()["mini3"], fn)

	got := eng.nightGuard(ctx)
	assert.Equal(t, seat.ID(3), got)

	// Same target on the immediately following night is dropped.
	eng.Game().Round++
	got = eng.nightGuard(ctx)
	assert.Zero(t, got, "consecutive-night repeat degrades to no action")

	// One night of distance makes the target legal again.
	eng.Game().Round++
	got = eng.nightGuard(ctx)
	assert.Equal(t, seat.ID(3), got)
}

func TestDreamPairCannotRepeatConsecutively(t *testing.T) {
	ctx := context.Background()
	pair := []seat.ID{1, 3}
	fn := func(req decision.Request) decision.Decision {
		if req.Kind == decision.KindDreamPairCheck {
			return decision.Decision{Kind: req.Kind, Target: pair[0], SecondTarget: pair[1]}
		}
		return decision.Decision{Kind: req.Kind}
	}
	eng, _ := newTestEngine(
		[]role.Name{role.Wolf, role.DreamWeaver, role.Villager, role.Villager},
		DefaultModes()["mini3"], fn)

	eng.nightDream(ctx)
	results := eng.Events().ByType(events.TypeDreamResult)
	require.Len(t, results, 1)
	assert.Equal(t, false, results[0].Payload["same_team"])

	// The same pair, even reversed, is dropped on the following night.
	eng.Game().Round++
	pair = []seat.ID{3, 1}
	eng.nightDream(ctx)
	assert.Len(t, eng.Events().ByType(events.TypeDreamResult), 1)

	// One night of distance makes the pair legal again.
	eng.Game().Round++
	eng.nightDream(ctx)
	assert.Len(t, eng.Events().ByType(events.TypeDreamResult), 2)
}

func TestRestoreRebuildsCoupleLink(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(
		[]role.Name{role.Wolf, role.Cupid, role.Villager, role.Villager},
		DefaultModes()["mini3"], silentSource())

	require.NoError(t, store.AppendAction(ctx, storage.ActionRecord{
		GameID: "test-game", Round: 1, Actor: 2,
		Kind: string(decision.KindCupidLink), Target: 3, SecondTarget: 4,
	}))

	eng.restore(ctx)

	partner, ok := eng.couplePartner(3)
	require.True(t, ok)
	assert.Equal(t, seat.ID(4), partner)
	partner, ok = eng.couplePartner(4)
	require.True(t, ok)
	assert.Equal(t, seat.ID(3), partner)
}

func TestWitchPotionsAreSingleUse(t *testing.T) {
	ctx := context.Background()
	fn := func(req decision.Request) decision.Decision {
		if req.Kind == decision.KindWitchDecide {
			return decision.Decision{Kind: req.Kind, WitchAction: decision.WitchSave}
		}
		return decision.Decision{Kind: req.Kind}
	}
	eng, store := newTestEngine(
		[]role.Name{role.Wolf, role.Witch, role.Villager, role.Villager},
		DefaultModes()["mini3"], fn)

	saved, poison := eng.nightWitch(ctx, 3)
	assert.True(t, saved)
	assert.Zero(t, poison)

	// Second save attempt downgrades to no action, replayed from the log.
	eng.Game().Round++
	saved, _ = eng.nightWitch(ctx, 4)
	assert.False(t, saved, "the antidote is spent")

	recs, err := store.ActionsByGame(ctx, "test-game")
	require.NoError(t, err)
	saves := 0
	for _, r := range recs {
		if r.Kind == kindWitchSave {
			saves++
		}
	}
	assert.Equal(t, 1, saves)
}

func TestElderExtraLifeOncePerGame(t *testing.T) {
	fn := func(req decision.Request) decision.Decision {
		if req.Kind == decision.KindWolfKill {
			return decision.Decision{Kind: req.Kind, Target: 2}
		}
		return decision.Decision{Kind: req.Kind}
	}
	eng, _ := newTestEngine(
		[]role.Name{role.Wolf, role.Elder, role.Villager, role.Villager, role.Villager, role.Villager},
		DefaultModes()["mini3"], fn)
	eng.Game().Status = StatusLobby
	eng.Game().Round = 0

	win := eng.Run(context.Background())

	// Night one is absorbed by the extra life, night two lands. The
	// vote never converges on anyone, so only the wolf does damage.
	assert.True(t, win.Finished)
	spent := eng.Events().ByType(events.TypeElderLifeSpent)
	assert.Len(t, spent, 1)
	assert.False(t, eng.roster.Get(2).Alive)
}

func TestManagerStartRejectsBadInput(t *testing.T) {
	m := NewManager(ManagerConfig{
		Modes:     DefaultModes(),
		Decisions: silentSource(),
		Actions:   storage.NewMemoryStore(),
		Votes:     storage.NewMemoryStore(),
		Logger:    logger.NewLogger(),
	})

	_, err := m.Start(context.Background(), "no_such_mode", nil)
	assert.Error(t, err)

	_, err = m.Start(context.Background(), "mini3", []SeatSpec{{Name: "only one"}})
	assert.Error(t, err)
}
