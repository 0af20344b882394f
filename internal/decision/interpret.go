package decision

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/duskvale/werearena/internal/domain/seat"
)

const (
	maxMessageLen = 500
	maxFieldLen   = 50
	// Fragments shorter than this never match in reverse, a one- or
	// two-character reply would hit half the table.
	minReverseLen = 3
)

const quoteChars = "\"'`“”‘’「」『』«»"

var (
	fenceRe = regexp.MustCompile("(?s)```.*?```")
	urlRe   = regexp.MustCompile(`https?://\S+`)
	// Bracketed speaker tags agents use to impersonate the moderator,
	// in both ASCII and full-width bracket styles.
	asciiTagRe = regexp.MustCompile(`(?i)\[\s*(system|admin|administrator|moderator|referee|host|judge)[^\]]*\]`)
	wideTagRe  = regexp.MustCompile(`(?i)【\s*(system|admin|administrator|moderator|referee|host|judge)[^】]*】`)
)

// Sanitize strips code fences, URLs and moderator-impersonation tags from
// agent text. Length caps are applied separately per field.
func Sanitize(text string) string {
	text = fenceRe.ReplaceAllString(text, " ")
	text = urlRe.ReplaceAllString(text, " ")
	text = asciiTagRe.ReplaceAllString(text, " ")
	text = wideTagRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func stripQuotes(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(quoteChars, r) {
			return -1
		}
		return r
	}, s)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// ResolveTarget maps free text to one eligible seat. Matching is staged:
// exact substring containment of a candidate name, then a retry with quote
// characters stripped, then reverse containment for cleaned text of at
// least three characters (the reply is a fragment of the name).
func ResolveTarget(text string, candidates []Candidate, exclude seat.ID) (seat.ID, bool) {
	for _, c := range candidates {
		if c.ID == exclude || c.Name == "" {
			continue
		}
		if strings.Contains(text, c.Name) {
			return c.ID, true
		}
	}

	cleaned := strings.TrimSpace(stripQuotes(text))
	if cleaned != text {
		for _, c := range candidates {
			if c.ID == exclude || c.Name == "" {
				continue
			}
			if strings.Contains(cleaned, c.Name) {
				return c.ID, true
			}
		}
	}

	if utf8.RuneCountInString(cleaned) >= minReverseLen {
		for _, c := range candidates {
			if c.ID == exclude {
				continue
			}
			if strings.Contains(c.Name, cleaned) {
				return c.ID, true
			}
		}
	}
	return 0, false
}

// ExtractField pulls the value of a `LABEL: value` line out of text. The
// label match is case-insensitive and accepts half- and full-width colons.
// An empty remainder falls through to the next non-empty line.
func ExtractField(text, label string) (string, bool) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		idx := strings.IndexAny(line, ":：")
		if idx < 0 {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(line[:idx]), label) {
			continue
		}
		rest := line[idx:]
		_, size := utf8.DecodeRuneInString(rest)
		val := strings.TrimSpace(rest[size:])
		if val == "" {
			for j := i + 1; j < len(lines); j++ {
				val = strings.TrimSpace(lines[j])
				if val != "" {
					break
				}
			}
		}
		val = strings.Trim(val, quoteChars+" ")
		if val == "" {
			continue
		}
		return truncateRunes(val, maxFieldLen), true
	}
	return "", false
}

// Keyword families for the potion decision. Checked in a fixed order so
// that "do nothing, don't poison anyone" reads as doing nothing.
var (
	witchNoneWords   = []string{"none", "nothing", "no action", "pass", "skip", "neither", "abstain"}
	witchPoisonWords = []string{"poison", "toxin", "venom", "kill"}
	witchSaveWords   = []string{"save", "heal", "rescue", "antidote", "cure", "revive"}
)

// ClassifyWitchAction reduces free text to a canonical potion choice.
// Unclassifiable text means no action.
func ClassifyWitchAction(text string) WitchAction {
	t := strings.ToLower(strings.TrimSpace(text))
	switch t {
	case "save":
		return WitchSave
	case "poison":
		return WitchPoison
	case "none":
		return WitchNone
	}
	for _, w := range witchNoneWords {
		if strings.Contains(t, w) {
			return WitchNone
		}
	}
	for _, w := range witchPoisonWords {
		if strings.Contains(t, w) {
			return WitchPoison
		}
	}
	for _, w := range witchSaveWords {
		if strings.Contains(t, w) {
			return WitchSave
		}
	}
	return WitchNone
}

var (
	flipNoWords  = []string{"pass", "stay", "speak", "continue", "wait"}
	flipYesWords = []string{"flip", "reveal", "duel", "challenge", "yes"}
)

// ClassifyFlip reduces free text to the knight's flip choice. The
// declining family wins, a hesitant "no, not yet, maybe duel later"
// stays hidden.
func ClassifyFlip(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	switch t {
	case "flip", "yes":
		return true
	case "no", "speak":
		return false
	}
	for _, w := range flipNoWords {
		if strings.Contains(t, w) {
			return false
		}
	}
	for _, w := range flipYesWords {
		if strings.Contains(t, w) {
			return true
		}
	}
	return false
}

// resolveField resolves a target from a tagged field when present,
// otherwise from the whole text.
func resolveField(text, label string, candidates []Candidate, exclude seat.ID) (seat.ID, bool) {
	if v, ok := ExtractField(text, label); ok {
		if id, ok2 := ResolveTarget(v, candidates, exclude); ok2 {
			return id, true
		}
	}
	return ResolveTarget(text, candidates, exclude)
}

// resolveTwo finds two distinct targets in the text: tagged fields first,
// then a scan over the remaining candidates.
func resolveTwo(text string, candidates []Candidate, exclude seat.ID) (seat.ID, seat.ID, bool) {
	first, ok := resolveField(text, "target", candidates, exclude)
	if !ok {
		first, ok = resolveField(text, "first", candidates, exclude)
	}
	if !ok {
		return 0, 0, false
	}

	rest := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.ID != first {
			rest = append(rest, c)
		}
	}
	if v, ok := ExtractField(text, "second"); ok {
		if id, ok2 := ResolveTarget(v, rest, exclude); ok2 {
			return first, id, true
		}
	}
	second, ok := ResolveTarget(text, rest, exclude)
	if !ok {
		return 0, 0, false
	}
	return first, second, true
}

// ParseFree interprets a free-text reply (generative channel or tolerant
// agents) into a decision for the requested kind. Unresolvable targets
// fail the parse; the caller falls through, it never guesses.
func ParseFree(kind ActionKind, text string, candidates []Candidate, exclude seat.ID) (Decision, error) {
	text = Sanitize(text)
	d := Decision{Kind: kind}

	switch kind {
	case KindSpeak, KindLastWords:
		d.Message = truncateRunes(text, maxMessageLen)
		return d, nil

	case KindVote, KindWolfKill, KindGuardProtect, KindSeerCheck, KindHunterShoot, KindEnchant:
		id, ok := resolveField(text, "target", candidates, exclude)
		if !ok {
			return d, ErrUnresolvedTarget
		}
		d.Target = id
		return d, nil

	case KindWitchDecide:
		if v, ok := ExtractField(text, "action"); ok {
			d.WitchAction = ClassifyWitchAction(v)
		} else {
			d.WitchAction = ClassifyWitchAction(text)
		}
		if d.WitchAction == WitchPoison {
			id, ok := resolveField(text, "target", candidates, exclude)
			if !ok {
				return d, ErrUnresolvedTarget
			}
			d.Target = id
		}
		return d, nil

	case KindCupidLink, KindDreamPairCheck:
		a, b, ok := resolveTwo(text, candidates, exclude)
		if !ok {
			return d, ErrUnresolvedTarget
		}
		d.Target, d.SecondTarget = a, b
		return d, nil

	case KindKnightSpeak:
		if v, ok := ExtractField(text, "flip"); ok {
			d.Flip = ClassifyFlip(v)
		} else {
			d.Flip = ClassifyFlip(text)
		}
		if d.Flip {
			id, ok := resolveField(text, "target", candidates, exclude)
			if !ok {
				// A flip with no resolvable opponent degrades to an
				// ordinary speech.
				d.Flip = false
				d.Message = truncateRunes(text, maxMessageLen)
				return d, nil
			}
			d.Target = id
			return d, nil
		}
		d.Message = truncateRunes(text, maxMessageLen)
		return d, nil
	}

	d.Message = truncateRunes(text, maxMessageLen)
	return d, nil
}
