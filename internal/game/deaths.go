package game

import (
	"context"

	"github.com/duskvale/werearena/internal/decision"
	"github.com/duskvale/werearena/internal/domain/role"
	"github.com/duskvale/werearena/internal/domain/seat"
	"github.com/duskvale/werearena/internal/events"
)

// maxChainDepth caps cascading triggers. A shot couple member whose
// partner is a hunter is fine; an endless ricochet is not.
const maxChainDepth = 4

// processDeaths drains a work queue of deaths, firing heartbreaks and
// death triggers as it goes. The win condition is evaluated after every
// single death; the first decisive one ends the game with the rest of the
// queue abandoned.
func (e *Engine) processDeaths(ctx context.Context, deaths []Death) {
	type queued struct {
		d     Death
		depth int
	}
	queue := make([]queued, 0, len(deaths))
	for _, d := range deaths {
		queue = append(queue, queued{d: d})
	}

	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]

		s := e.roster.Get(it.d.Seat)
		if s == nil || !s.Alive {
			continue
		}
		s.Alive = false
		e.roundDeaths = append(e.roundDeaths, s.Number)
		e.record(ctx, kindDeath, s.Number, 0, 0, string(it.d.Cause))
		e.emit(events.TypeDeath, s.Number, 0, map[string]interface{}{
			"cause": string(it.d.Cause), "name": s.Name,
		})
		e.emit(events.TypeRoleReveal, s.Number, 0, map[string]interface{}{"role": string(s.Role)})

		if it.depth >= maxChainDepth {
			e.log.Warn("game %s: death chain cap reached at seat %s", e.game.ID, seatLabel(s))
		} else {
			if p, ok := e.couplePartner(s.Number); ok {
				queue = append(queue, queued{d: Death{Seat: p, Cause: CauseHeartbreak}, depth: it.depth + 1})
			}
			switch s.Role.Trigger() {
			case role.TriggerShootOnDeath:
				// Poison leaves no time to shoot, and the elder
				// punishment strips the trigger outright.
				if it.d.Cause != CausePoison && !e.abilitiesStripped {
					if t := e.acquireShot(ctx, s); t != 0 {
						queue = append(queue, queued{d: Death{Seat: t, Cause: CauseHunterShot}, depth: it.depth + 1})
					}
				}
			case role.TriggerRevengeOnElimination:
				if it.d.Cause == CauseVote {
					if t := e.acquireShot(ctx, s); t != 0 {
						queue = append(queue, queued{d: Death{Seat: t, Cause: CauseRevenge}, depth: it.depth + 1})
					}
				}
			case role.TriggerNone:
			}
		}

		if win := CheckWin(e.roster.All()); win.Finished {
			e.finish(win)
			return
		}
	}
}

// acquireShot asks a dying seat for its takedown target. Unresolvable or
// dead targets waste the shot.
func (e *Engine) acquireShot(ctx context.Context, s *seat.Seat) seat.ID {
	d := e.decisions.Acquire(ctx, e.request(s, decision.KindHunterShoot))
	t := e.aliveTarget(d.Target)
	if t == nil || t.Number == s.Number {
		e.log.Warn("game %s: seat %s takedown target unusable, shot wasted", e.game.ID, seatLabel(s))
		return 0
	}
	e.record(ctx, string(decision.KindHunterShoot), s.Number, t.Number, 0, "shot")
	return t.Number
}
