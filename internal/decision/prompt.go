package decision

import (
	"fmt"
	"strings"
)

// taskLine tells the model what to answer and in which tagged format, so
// the free-text parser has labels to latch onto.
func taskLine(kind ActionKind) string {
	switch kind {
	case KindSpeak:
		return "Give your table speech for this round. Plain text, no preamble."
	case KindLastWords:
		return "You are dying. Give your last words. Plain text."
	case KindVote:
		return "Vote one player out. Answer with a line `TARGET: <name>`."
	case KindWolfKill:
		return "Choose tonight's kill with your pack. Answer with a line `TARGET: <name>`."
	case KindWitchDecide:
		return "Decide your potion use. Answer with `ACTION: save`, `ACTION: poison` plus `TARGET: <name>`, or `ACTION: none`."
	case KindGuardProtect:
		return "Choose one player to protect tonight. Answer with a line `TARGET: <name>`."
	case KindSeerCheck:
		return "Choose one player to inspect tonight. Answer with a line `TARGET: <name>`."
	case KindHunterShoot:
		return "You may take one player down with you. Answer with a line `TARGET: <name>`."
	case KindCupidLink:
		return "Link two players as a couple. Answer with lines `FIRST: <name>` and `SECOND: <name>`."
	case KindDreamPairCheck:
		return "Choose two players to compare in the dream. Answer with lines `FIRST: <name>` and `SECOND: <name>`."
	case KindEnchant:
		return "Choose one player to enchant tonight. Answer with a line `TARGET: <name>`."
	case KindKnightSpeak:
		return "Speak, or reveal yourself and duel. Answer `FLIP: no` plus your speech, or `FLIP: yes` plus `TARGET: <name>`."
	}
	return "Answer in plain text."
}

// BuildPrompt renders the request for the generative channel.
func BuildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, seat %d, playing the role %q in a werewolf game.\n",
		req.SeatName, req.Seat, req.Role)
	fmt.Fprintf(&b, "Round %d, phase %s.\n", req.Round, req.Phase)
	fmt.Fprintf(&b, "Alive players: %s.\n", strings.Join(req.Alive, ", "))
	if len(req.Dead) > 0 {
		fmt.Fprintf(&b, "Dead players: %s.\n", strings.Join(req.Dead, ", "))
	}
	if len(req.Teammates) > 0 {
		fmt.Fprintf(&b, "Your packmates: %s.\n", strings.Join(req.Teammates, ", "))
	}
	for k, v := range req.Knowledge {
		fmt.Fprintf(&b, "Known: %s = %s.\n", k, v)
	}
	if len(req.Transcript) > 0 {
		b.WriteString("Table talk this round:\n")
		for _, line := range req.Transcript {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}
	b.WriteString("\n")
	b.WriteString(taskLine(req.Kind))
	b.WriteString("\n")
	return b.String()
}
