package game

import "github.com/duskvale/werearena/internal/domain/seat"

// Cause classifies a death for triggers and announcements.
type Cause string

const (
	CauseWolfKill   Cause = "wolf_kill"
	CausePoison     Cause = "poison"
	CauseVote       Cause = "vote"
	CauseHeartbreak Cause = "heartbreak"
	CauseHunterShot Cause = "hunter_shot"
	CauseRevenge    Cause = "revenge"
	CauseDuel       Cause = "duel"
)

// Death is one seat going down, with the cause that produced it.
type Death struct {
	Seat  seat.ID
	Cause Cause
}

// NightInputs collects the resolved night-phase choices. Zero seat IDs
// mean the ability was not used or its holder is gone.
type NightInputs struct {
	WolfTarget   seat.ID
	GuardTarget  seat.ID
	WitchSaved   bool
	PoisonTarget seat.ID
	// Enchanted has its protection nullified this night.
	Enchanted seat.ID
	// ElderSeat is the extra-life holder, if alive.
	ElderSeat     seat.ID
	ElderLifeUsed bool
}

// NightOutcome is what the dawn announces.
type NightOutcome struct {
	Deaths []Death
	// ElderLifeSpent is set when the wolf kill was converted into the
	// elder's extra life instead of a death.
	ElderLifeSpent bool
}

// ResolveNight reduces the night's choices to deaths. Pure function: at
// most one wolf-kill death and one poison death come out, never more.
func ResolveNight(in NightInputs) NightOutcome {
	var out NightOutcome

	guard := in.GuardTarget
	if guard != 0 && guard == in.Enchanted {
		// Enchantment nullifies the protection on its target.
		guard = 0
	}

	var wolfVictim seat.ID
	if in.WolfTarget != 0 {
		blocked := guard == in.WolfTarget || in.WitchSaved
		switch {
		case blocked:
			// kill absorbed
		case in.WolfTarget == in.ElderSeat && !in.ElderLifeUsed:
			out.ElderLifeSpent = true
		default:
			wolfVictim = in.WolfTarget
			out.Deaths = append(out.Deaths, Death{Seat: wolfVictim, Cause: CauseWolfKill})
		}
	}

	if in.PoisonTarget != 0 && in.PoisonTarget != wolfVictim {
		out.Deaths = append(out.Deaths, Death{Seat: in.PoisonTarget, Cause: CausePoison})
	}
	return out
}
