package decision

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/duskvale/werearena/internal/domain/seat"
)

// RawDecision is the structured payload agents send over the callback and
// poll channels. Targets are display names; resolution maps them to seats.
type RawDecision struct {
	Action       string `json:"action,omitempty"`
	Message      string `json:"message,omitempty"`
	Target       string `json:"target,omitempty"`
	SecondTarget string `json:"second_target,omitempty"`
	WitchAction  string `json:"witch_action,omitempty"`
	Flip         bool   `json:"flip,omitempty"`
}

const speakSchema = `{
	"type": "object",
	"required": ["message"],
	"properties": {"message": {"type": "string", "minLength": 1}}
}`

const targetedSchema = `{
	"type": "object",
	"required": ["target"],
	"properties": {"target": {"type": "string", "minLength": 1}}
}`

const pairSchema = `{
	"type": "object",
	"required": ["target", "second_target"],
	"properties": {
		"target": {"type": "string", "minLength": 1},
		"second_target": {"type": "string", "minLength": 1}
	}
}`

const witchSchema = `{
	"type": "object",
	"required": ["witch_action"],
	"properties": {"witch_action": {"enum": ["save", "poison", "none"]}},
	"if": {"properties": {"witch_action": {"const": "poison"}}},
	"then": {
		"required": ["witch_action", "target"],
		"properties": {"target": {"type": "string", "minLength": 1}}
	}
}`

const knightSchema = `{
	"type": "object",
	"properties": {
		"flip": {"type": "boolean"},
		"message": {"type": "string"},
		"target": {"type": "string"}
	},
	"if": {"properties": {"flip": {"const": true}}, "required": ["flip"]},
	"then": {
		"required": ["target"],
		"properties": {"target": {"type": "string", "minLength": 1}}
	}
}`

var schemas = map[ActionKind]*jsonschema.Schema{}

func init() {
	compile := func(kind ActionKind, src string) {
		schemas[kind] = jsonschema.MustCompileString(string(kind)+".json", src)
	}
	compile(KindSpeak, speakSchema)
	compile(KindLastWords, speakSchema)
	compile(KindVote, targetedSchema)
	compile(KindWolfKill, targetedSchema)
	compile(KindGuardProtect, targetedSchema)
	compile(KindSeerCheck, targetedSchema)
	compile(KindHunterShoot, targetedSchema)
	compile(KindEnchant, targetedSchema)
	compile(KindCupidLink, pairSchema)
	compile(KindDreamPairCheck, pairSchema)
	compile(KindWitchDecide, witchSchema)
	compile(KindKnightSpeak, knightSchema)
}

// ValidateStructured checks a structured payload against the contract for
// the requested kind. The error names the violated constraint so the
// failure can be logged with field-level detail.
func ValidateStructured(kind ActionKind, body []byte) (*RawDecision, error) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("decision payload is not valid JSON: %w", err)
	}
	if sch, ok := schemas[kind]; ok {
		if err := sch.Validate(v); err != nil {
			return nil, fmt.Errorf("decision payload violates %s contract: %w", kind, err)
		}
	}
	var rd RawDecision
	if err := json.Unmarshal(body, &rd); err != nil {
		return nil, fmt.Errorf("decision payload shape: %w", err)
	}
	if (kind == KindCupidLink || kind == KindDreamPairCheck) && rd.Target == rd.SecondTarget {
		return nil, fmt.Errorf("decision payload violates %s contract: targets must be distinct", kind)
	}
	return &rd, nil
}

// InterpretStructured turns a validated payload into a decision, resolving
// target names against the eligible candidates.
func InterpretStructured(kind ActionKind, rd *RawDecision, candidates []Candidate, exclude seat.ID) (Decision, error) {
	d := Decision{Kind: kind}

	resolve := func(name string) (seat.ID, error) {
		id, ok := ResolveTarget(Sanitize(name), candidates, exclude)
		if !ok {
			return 0, ErrUnresolvedTarget
		}
		return id, nil
	}

	switch kind {
	case KindSpeak, KindLastWords:
		d.Message = truncateRunes(Sanitize(rd.Message), maxMessageLen)
		return d, nil

	case KindVote, KindWolfKill, KindGuardProtect, KindSeerCheck, KindHunterShoot, KindEnchant:
		id, err := resolve(rd.Target)
		if err != nil {
			return d, err
		}
		d.Target = id
		return d, nil

	case KindWitchDecide:
		d.WitchAction = WitchAction(rd.WitchAction)
		if d.WitchAction == WitchPoison {
			id, err := resolve(rd.Target)
			if err != nil {
				return d, err
			}
			d.Target = id
		}
		return d, nil

	case KindCupidLink, KindDreamPairCheck:
		a, err := resolve(rd.Target)
		if err != nil {
			return d, err
		}
		b, err := resolve(rd.SecondTarget)
		if err != nil {
			return d, err
		}
		if a == b {
			return d, ErrUnresolvedTarget
		}
		d.Target, d.SecondTarget = a, b
		return d, nil

	case KindKnightSpeak:
		d.Flip = rd.Flip
		if d.Flip {
			id, err := resolve(rd.Target)
			if err != nil {
				return d, err
			}
			d.Target = id
			return d, nil
		}
		d.Message = truncateRunes(Sanitize(rd.Message), maxMessageLen)
		return d, nil
	}

	d.Message = truncateRunes(Sanitize(rd.Message), maxMessageLen)
	return d, nil
}
