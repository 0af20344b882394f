// Package role defines the closed set of playable roles, their team
// alignment and their death triggers. The set is closed on purpose: every
// switch over Name lists all members so that adding a role forces a review
// of each dispatch site.
package role

// Team is the win-condition alignment of a role.
type Team string

const (
	TeamVillager Team = "villager"
	TeamWolf     Team = "wolf"
)

// Trigger is an effect that fires when the holder dies.
type Trigger int

const (
	TriggerNone Trigger = iota
	// TriggerShootOnDeath lets the holder take one seat down with them,
	// unless they died of poison or abilities are stripped.
	TriggerShootOnDeath
	// TriggerRevengeOnElimination fires only on a daytime vote elimination.
	TriggerRevengeOnElimination
)

// Name identifies a role.
type Name string

const (
	Villager    Name = "villager"
	Wolf        Name = "wolf"
	WolfKing    Name = "wolf_king"
	WhiteWolf   Name = "white_wolf"
	Madman      Name = "madman"
	Enchanter   Name = "enchanter"
	Seer        Name = "seer"
	Witch       Name = "witch"
	Guard       Name = "guard"
	Hunter      Name = "hunter"
	Cupid       Name = "cupid"
	Elder       Name = "elder"
	Idiot       Name = "idiot"
	Knight      Name = "knight"
	DreamWeaver Name = "dream_weaver"
)

// All lists every playable role.
var All = []Name{
	Villager, Wolf, WolfKing, WhiteWolf, Madman, Enchanter,
	Seer, Witch, Guard, Hunter, Cupid, Elder, Idiot, Knight, DreamWeaver,
}

// Valid reports whether n is a member of the closed role set.
func (n Name) Valid() bool {
	switch n {
	case Villager, Wolf, WolfKing, WhiteWolf, Madman, Enchanter,
		Seer, Witch, Guard, Hunter, Cupid, Elder, Idiot, Knight, DreamWeaver:
		return true
	}
	return false
}

// Team returns the alignment used for win arithmetic. The madman carries no
// wolf privileges but counts toward the wolf side when wins are evaluated.
func (n Name) Team() Team {
	switch n {
	case Wolf, WolfKing, WhiteWolf, Madman, Enchanter:
		return TeamWolf
	case Villager, Seer, Witch, Guard, Hunter, Cupid, Elder, Idiot, Knight, DreamWeaver:
		return TeamVillager
	}
	return TeamVillager
}

// Trigger returns the on-death effect of the role.
func (n Name) Trigger() Trigger {
	switch n {
	case Hunter:
		return TriggerShootOnDeath
	case WolfKing, WhiteWolf:
		return TriggerRevengeOnElimination
	case Villager, Wolf, Madman, Enchanter, Seer, Witch, Guard, Cupid,
		Elder, Idiot, Knight, DreamWeaver:
		return TriggerNone
	}
	return TriggerNone
}

// VotesInWolfBallot reports whether the role joins the pack's nightly kill
// ballot. The madman is wolf-aligned for scoring only and is excluded.
func (n Name) VotesInWolfBallot() bool {
	switch n {
	case Wolf, WolfKing, WhiteWolf, Enchanter:
		return true
	}
	return false
}

// KnowsTeammates reports whether the role is told who the other pack
// members are. Matches the ballot membership.
func (n Name) KnowsTeammates() bool {
	return n.VotesInWolfBallot()
}

// AppearsWolf is what a seer check reveals about the role. The madman
// checks as a villager even though it scores with the wolves.
func (n Name) AppearsWolf() bool {
	return n.VotesInWolfBallot()
}
