package game

import (
	"context"

	"github.com/duskvale/werearena/internal/decision"
	"github.com/duskvale/werearena/internal/domain/role"
	"github.com/duskvale/werearena/internal/domain/seat"
	"github.com/duskvale/werearena/internal/events"
	"github.com/duskvale/werearena/internal/infra/storage"
)

// runNight walks the mode's night order, collects the phase results and
// resolves them into deaths at dawn.
func (e *Engine) runNight(ctx context.Context) {
	var in NightInputs
	for _, ph := range e.game.Mode.NightOrder {
		e.setPhase(ph)
		switch ph {
		case PhaseNightCupid:
			e.nightCupid(ctx)
		case PhaseNightDream:
			e.nightDream(ctx)
		case PhaseNightEnchant:
			in.Enchanted = e.nightEnchant(ctx)
		case PhaseNightGuard:
			in.GuardTarget = e.nightGuard(ctx)
		case PhaseNightWolves:
			in.WolfTarget = e.nightWolves(ctx)
		case PhaseNightWitch:
			in.WitchSaved, in.PoisonTarget = e.nightWitch(ctx, in.WolfTarget)
		case PhaseNightSeer:
			e.nightSeer(ctx)
		}
	}

	if elder := e.roster.AliveByRole(role.Elder); elder != nil {
		in.ElderSeat = elder.Number
		in.ElderLifeUsed = e.hasUsed(ctx, kindElderLife, 0)
	}

	out := ResolveNight(in)
	if out.ElderLifeSpent {
		e.record(ctx, kindElderLife, in.ElderSeat, 0, 0, "spent")
		e.emit(events.TypeElderLifeSpent, in.ElderSeat, 0, nil)
	}
	if len(out.Deaths) > 0 {
		e.lastVictim = out.Deaths[0].Seat
	}
	e.processDeaths(ctx, out.Deaths)
}

// nightCupid links the couple, first night only.
func (e *Engine) nightCupid(ctx context.Context) {
	if e.game.Round != 1 || e.abilitiesStripped || e.coupleA != 0 {
		return
	}
	c := e.roster.AliveByRole(role.Cupid)
	if c == nil {
		return
	}
	d := e.decisions.Acquire(ctx, e.request(c, decision.KindCupidLink))
	a, b := e.aliveTarget(d.Target), e.aliveTarget(d.SecondTarget)
	if a == nil || b == nil || a.Number == b.Number {
		e.log.Warn("game %s: couple link unusable, no couple this game", e.game.ID)
		return
	}
	e.coupleA, e.coupleB = a.Number, b.Number
	e.record(ctx, string(decision.KindCupidLink), c.Number, a.Number, b.Number, "linked")
	e.emit(events.TypeCoupleLinked, c.Number, 0, map[string]interface{}{
		"first": int(a.Number), "second": int(b.Number),
	})
}

func samePair(a1, b1, a2, b2 seat.ID) bool {
	return (a1 == a2 && b1 == b2) || (a1 == b2 && b1 == a2)
}

// nightDream compares two seats' alignments for the dream weaver. The
// same pair on consecutive nights is silently dropped.
func (e *Engine) nightDream(ctx context.Context) {
	if e.abilitiesStripped {
		return
	}
	w := e.roster.AliveByRole(role.DreamWeaver)
	if w == nil {
		return
	}
	d := e.decisions.Acquire(ctx, e.request(w, decision.KindDreamPairCheck))
	a, b := e.aliveTarget(d.Target), e.aliveTarget(d.SecondTarget)
	if a == nil || b == nil || a.Number == b.Number {
		e.log.Warn("game %s: dream pair unusable, no check tonight", e.game.ID)
		return
	}
	lastA, lastB, lastRound, err := e.ledger.LastPair(ctx, string(decision.KindDreamPairCheck), int(w.Number))
	if err == nil && lastRound == e.game.Round-1 &&
		samePair(seat.ID(lastA), seat.ID(lastB), a.Number, b.Number) {
		e.log.Warn("game %s: dream pair repeats last night, dropped", e.game.ID)
		return
	}
	same := a.Role.Team() == b.Role.Team()
	outcome := "different_team"
	if same {
		outcome = "same_team"
	}
	e.record(ctx, string(decision.KindDreamPairCheck), w.Number, a.Number, b.Number, outcome)
	e.emit(events.TypeDreamResult, w.Number, 0, map[string]interface{}{
		"first": int(a.Number), "second": int(b.Number), "same_team": same,
	})
}

// nightEnchant picks the seat whose protection is nullified tonight.
// A wolf-side ability: the elder punishment does not touch it.
func (e *Engine) nightEnchant(ctx context.Context) seat.ID {
	en := e.roster.AliveByRole(role.Enchanter)
	if en == nil {
		return 0
	}
	d := e.decisions.Acquire(ctx, e.request(en, decision.KindEnchant))
	t := e.aliveTarget(d.Target)
	if t == nil {
		return 0
	}
	e.record(ctx, string(decision.KindEnchant), en.Number, t.Number, 0, "enchanted")
	return t.Number
}

// nightGuard protects one seat, never the same one on consecutive nights.
func (e *Engine) nightGuard(ctx context.Context) seat.ID {
	if e.abilitiesStripped {
		return 0
	}
	g := e.roster.AliveByRole(role.Guard)
	if g == nil {
		return 0
	}
	d := e.decisions.Acquire(ctx, e.request(g, decision.KindGuardProtect))
	t := e.aliveTarget(d.Target)
	if t == nil {
		return 0
	}
	last, lastRound, err := e.ledger.LastTarget(ctx, string(decision.KindGuardProtect), int(g.Number))
	if err == nil && seat.ID(last) == t.Number && lastRound == e.game.Round-1 {
		e.log.Warn("game %s: guard repeats last night's target, protection dropped", e.game.ID)
		return 0
	}
	e.record(ctx, string(decision.KindGuardProtect), g.Number, t.Number, 0, "protected")
	return t.Number
}

// nightWolves runs the pack's kill ballot. A tie means no kill tonight.
func (e *Engine) nightWolves(ctx context.Context) seat.ID {
	var pairs []VotePair
	for _, w := range e.roster.WolfBallot() {
		d := e.decisions.Acquire(ctx, e.request(w, decision.KindWolfKill))
		t := e.aliveTarget(d.Target)
		if t == nil {
			continue
		}
		pairs = append(pairs, VotePair{Voter: w.Number, Target: t.Number})
		e.voteRecord(ctx, w.Number, t.Number)
	}
	target, ok := ResolveVote(pairs)
	if !ok {
		e.record(ctx, string(decision.KindWolfKill), 0, 0, 0, "no_consensus")
		return 0
	}
	e.record(ctx, string(decision.KindWolfKill), 0, target, 0, "chosen")
	return target
}

func boolWord(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// nightWitch decides the potions. Exhausted potions downgrade the choice
// to no action; they are never double-spent.
func (e *Engine) nightWitch(ctx context.Context, wolfTarget seat.ID) (saved bool, poison seat.ID) {
	if e.abilitiesStripped {
		return false, 0
	}
	w := e.roster.AliveByRole(role.Witch)
	if w == nil {
		return false, 0
	}
	saveUsed := e.hasUsed(ctx, kindWitchSave, w.Number)
	poisonUsed := e.hasUsed(ctx, kindWitchPoison, w.Number)
	if saveUsed && poisonUsed {
		return false, 0
	}

	req := e.request(w, decision.KindWitchDecide)
	victim := ""
	if t := e.roster.Get(wolfTarget); t != nil && !saveUsed {
		victim = t.Name
	}
	req.Knowledge = map[string]string{
		"tonight_victim":   victim,
		"save_available":   boolWord(!saveUsed),
		"poison_available": boolWord(!poisonUsed),
	}
	d := e.decisions.Acquire(ctx, req)

	switch d.WitchAction {
	case decision.WitchSave:
		if saveUsed || wolfTarget == 0 {
			e.log.Warn("game %s: witch save unavailable, treated as no action", e.game.ID)
			return false, 0
		}
		e.record(ctx, kindWitchSave, w.Number, wolfTarget, 0, "saved")
		return true, 0
	case decision.WitchPoison:
		t := e.aliveTarget(d.Target)
		if poisonUsed || t == nil {
			e.log.Warn("game %s: witch poison unavailable, treated as no action", e.game.ID)
			return false, 0
		}
		e.record(ctx, kindWitchPoison, w.Number, t.Number, 0, "poisoned")
		return false, t.Number
	}
	return false, 0
}

// nightSeer inspects one seat. Prior results ride along as knowledge.
func (e *Engine) nightSeer(ctx context.Context) {
	if e.abilitiesStripped {
		return
	}
	s := e.roster.AliveByRole(role.Seer)
	if s == nil {
		return
	}
	req := e.request(s, decision.KindSeerCheck)
	if recs, err := e.actions.ActionsByGame(ctx, e.game.ID); err == nil {
		know := make(map[string]string)
		for _, r := range recs {
			if r.Kind == string(decision.KindSeerCheck) && r.Actor == int(s.Number) {
				if t := e.roster.Get(seat.ID(r.Target)); t != nil {
					know["checked_"+t.Name] = r.Outcome
				}
			}
		}
		if len(know) > 0 {
			req.Knowledge = know
		}
	}
	d := e.decisions.Acquire(ctx, req)
	t := e.aliveTarget(d.Target)
	if t == nil {
		e.log.Warn("game %s: seer check unusable, no result tonight", e.game.ID)
		return
	}
	outcome := "villager"
	if t.Role.AppearsWolf() {
		outcome = "wolf"
	}
	e.record(ctx, string(decision.KindSeerCheck), s.Number, t.Number, 0, outcome)
	e.emit(events.TypeSeerResult, s.Number, t.Number, map[string]interface{}{"result": outcome})
}

// runDay announces the dawn, runs the discussion and the vote.
func (e *Engine) runDay(ctx context.Context) {
	e.setPhase(PhaseDayAnnounce)
	e.announceDawn(ctx)
	if e.game.Status != StatusPlaying {
		return
	}

	e.setPhase(PhaseDayDiscuss)
	duel := e.dayDiscuss(ctx)
	if e.game.Status != StatusPlaying {
		return
	}
	if duel {
		// The duel replaced the rest of the day: remaining speeches
		// and the vote are skipped, the win check already ran.
		return
	}

	e.setPhase(PhaseDayVote)
	e.dayVote(ctx)
}

// say publishes a table message and appends it to the round transcript.
func (e *Engine) say(s *seat.Seat, msg string) {
	e.transcript = append(e.transcript, s.Name+": "+msg)
	e.emit(events.TypeMessage, s.Number, 0, map[string]interface{}{"text": msg})
}

// announceDawn reports the night's deaths and collects last words.
func (e *Engine) announceDawn(ctx context.Context) {
	if len(e.roundDeaths) == 0 {
		e.emit(events.TypeMessage, 0, 0, map[string]interface{}{
			"text": "The night passed quietly. Nobody died.",
		})
		return
	}
	for _, id := range e.roundDeaths {
		s := e.roster.Get(id)
		if s == nil {
			continue
		}
		d := e.decisions.Acquire(ctx, e.request(s, decision.KindLastWords))
		if d.Message != "" {
			e.say(s, d.Message)
		}
	}
}

// dayDiscuss runs the speech round starting at the seat after the night's
// victim, then a rebuttal pass in open seat order. Returns true when a
// knight duel cut the day short.
func (e *Engine) dayDiscuss(ctx context.Context) bool {
	for _, s := range e.roster.NextAlive(e.lastVictim) {
		if s.Role == role.Knight && !e.abilitiesStripped && !e.hasUsed(ctx, kindKnightDuel, s.Number) {
			if e.knightTurn(ctx, s) {
				return true
			}
			continue
		}
		d := e.decisions.Acquire(ctx, e.request(s, decision.KindSpeak))
		if d.Message != "" {
			e.say(s, d.Message)
		}
	}
	for _, s := range e.roster.NextAlive(0) {
		d := e.decisions.Acquire(ctx, e.request(s, decision.KindSpeak))
		if d.Message != "" {
			e.say(s, d.Message)
		}
	}
	return false
}

// knightTurn lets the knight speak or flip. A flip resolves the duel on
// the spot: the accused wolf dies, or the knight pays with their life.
func (e *Engine) knightTurn(ctx context.Context, s *seat.Seat) bool {
	d := e.decisions.Acquire(ctx, e.request(s, decision.KindKnightSpeak))
	if !d.Flip {
		if d.Message != "" {
			e.say(s, d.Message)
		}
		return false
	}
	t := e.aliveTarget(d.Target)
	if t == nil || t.Number == s.Number {
		if d.Message != "" {
			e.say(s, d.Message)
		}
		return false
	}
	e.record(ctx, kindKnightDuel, s.Number, t.Number, 0, "duel")
	e.emit(events.TypeKnightDuel, s.Number, t.Number, nil)
	e.emit(events.TypeRoleReveal, s.Number, 0, map[string]interface{}{"role": string(s.Role)})
	if t.Role.AppearsWolf() {
		e.processDeaths(ctx, []Death{{Seat: t.Number, Cause: CauseDuel}})
	} else {
		e.processDeaths(ctx, []Death{{Seat: s.Number, Cause: CauseDuel}})
	}
	return true
}

// dayVote runs the public ballot and resolves the elimination, with the
// idiot's reveal exception and the elder punishment checked first.
func (e *Engine) dayVote(ctx context.Context) {
	var pairs []VotePair
	for _, s := range e.roster.Alive() {
		if s.VoteStripped {
			continue
		}
		d := e.decisions.Acquire(ctx, e.request(s, decision.KindVote))
		t := e.aliveTarget(d.Target)
		if t == nil || t.Number == s.Number {
			continue
		}
		pairs = append(pairs, VotePair{Voter: s.Number, Target: t.Number})
		e.voteRecord(ctx, s.Number, t.Number)
		e.emit(events.TypeVoteCast, s.Number, t.Number, nil)
	}

	target, ok := ResolveVote(pairs)
	if !ok {
		e.emit(events.TypeVoteTally, 0, 0, map[string]interface{}{"eliminated": ""})
		return
	}
	s := e.roster.Get(target)
	e.emit(events.TypeVoteTally, 0, target, map[string]interface{}{"eliminated": s.Name})

	if s.Role == role.Idiot && !e.abilitiesStripped && !e.hasUsed(ctx, kindIdiotReveal, s.Number) {
		// Survives the vote, loses the ballot forever.
		s.VoteStripped = true
		e.record(ctx, kindIdiotReveal, s.Number, 0, 0, "revealed")
		e.emit(events.TypeIdiotRevealed, s.Number, 0, nil)
		e.emit(events.TypeRoleReveal, s.Number, 0, map[string]interface{}{"role": string(s.Role)})
		return
	}
	if s.Role == role.Elder {
		e.abilitiesStripped = true
		e.record(ctx, kindStripAbilities, s.Number, 0, 0, "elder_voted_out")
		e.emit(events.TypeAbilitiesStripped, s.Number, 0, nil)
	}

	lw := e.decisions.Acquire(ctx, e.request(s, decision.KindLastWords))
	if lw.Message != "" {
		e.say(s, lw.Message)
	}
	e.processDeaths(ctx, []Death{{Seat: target, Cause: CauseVote}})
}

func (e *Engine) voteRecord(ctx context.Context, voter, target seat.ID) {
	err := e.votes.AppendVote(ctx, storage.VoteRecord{
		GameID: e.game.ID,
		Round:  e.game.Round,
		Phase:  string(e.game.Phase),
		Voter:  int(voter),
		Target: int(target),
	})
	if err != nil {
		e.log.Error("game %s: append vote: %v", e.game.ID, err)
	}
}
