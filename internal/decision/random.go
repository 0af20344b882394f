package decision

import (
	"math/rand"

	"github.com/duskvale/werearena/internal/domain/seat"
)

const fallbackLine = "I have nothing to add right now."

// RandomDecision builds a structurally valid decision without consulting
// anyone. The terminal acquisition channel: it always succeeds.
func RandomDecision(rng *rand.Rand, req Request) Decision {
	d := Decision{Kind: req.Kind}

	eligible := make([]Candidate, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		if c.ID != req.Exclude {
			eligible = append(eligible, c)
		}
	}
	pick := func(pool []Candidate) seat.ID {
		if len(pool) == 0 {
			return 0
		}
		return pool[rng.Intn(len(pool))].ID
	}

	switch req.Kind {
	case KindSpeak, KindLastWords, KindKnightSpeak:
		d.Message = fallbackLine

	case KindWitchDecide:
		// Potions are single-use; a coin flip would waste them.
		d.WitchAction = WitchNone

	case KindWolfKill:
		// Bias toward non-pack targets so a mute pack still hunts.
		pool := make([]Candidate, 0, len(eligible))
		for _, c := range eligible {
			if !req.WolfSeats[c.ID] {
				pool = append(pool, c)
			}
		}
		if len(pool) == 0 {
			pool = eligible
		}
		d.Target = pick(pool)

	case KindCupidLink, KindDreamPairCheck:
		if len(eligible) >= 2 {
			i := rng.Intn(len(eligible))
			j := rng.Intn(len(eligible) - 1)
			if j >= i {
				j++
			}
			d.Target = eligible[i].ID
			d.SecondTarget = eligible[j].ID
		}

	case KindVote, KindGuardProtect, KindSeerCheck, KindHunterShoot, KindEnchant:
		d.Target = pick(eligible)
	}
	return d
}
