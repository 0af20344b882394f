package game

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/duskvale/werearena/internal/domain/role"
)

// Phase is one stop of the state machine.
type Phase string

const (
	PhaseLobby        Phase = "lobby"
	PhaseNightCupid   Phase = "night_cupid"
	PhaseNightDream   Phase = "night_dream"
	PhaseNightEnchant Phase = "night_enchant"
	PhaseNightGuard   Phase = "night_guard"
	PhaseNightWolves  Phase = "night_wolves"
	PhaseNightWitch   Phase = "night_witch"
	PhaseNightSeer    Phase = "night_seer"
	PhaseDayAnnounce  Phase = "day_announce"
	PhaseDayDiscuss   Phase = "day_discuss"
	PhaseDayVote      Phase = "day_vote"
	PhaseGameOver     Phase = "game_over"
)

// Mode is one playable configuration: which roles sit down, in what order
// the night proceeds, and when the round cap forces an end.
type Mode struct {
	Name       string      `yaml:"name"`
	Roles      []role.Name `yaml:"roles"`
	NightOrder []Phase     `yaml:"night_order"`
	MaxRounds  int         `yaml:"max_rounds"`
}

// Validate rejects modes the engine cannot run.
func (m Mode) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("mode without a name")
	}
	if len(m.Roles) < 3 {
		return fmt.Errorf("mode %s: needs at least 3 seats, has %d", m.Name, len(m.Roles))
	}
	wolves := 0
	for _, r := range m.Roles {
		if !r.Valid() {
			return fmt.Errorf("mode %s: unknown role %q", m.Name, r)
		}
		if r.VotesInWolfBallot() {
			wolves++
		}
	}
	if wolves == 0 {
		return fmt.Errorf("mode %s: no wolves, the night would never end anyone", m.Name)
	}
	if len(m.NightOrder) == 0 {
		return fmt.Errorf("mode %s: empty night order", m.Name)
	}
	for _, p := range m.NightOrder {
		switch p {
		case PhaseNightCupid, PhaseNightDream, PhaseNightEnchant,
			PhaseNightGuard, PhaseNightWolves, PhaseNightWitch, PhaseNightSeer:
		default:
			return fmt.Errorf("mode %s: %q is not a night phase", m.Name, p)
		}
	}
	if m.MaxRounds <= 0 {
		return fmt.Errorf("mode %s: max_rounds must be positive", m.Name)
	}
	return nil
}

// fullNightOrder is the canonical ordering used by the standard mode.
var fullNightOrder = []Phase{
	PhaseNightCupid,
	PhaseNightDream,
	PhaseNightEnchant,
	PhaseNightGuard,
	PhaseNightWolves,
	PhaseNightWitch,
	PhaseNightSeer,
}

// DefaultModes returns the built-in registry.
func DefaultModes() map[string]Mode {
	standard9 := Mode{
		Name: "standard9",
		Roles: []role.Name{
			role.Wolf, role.Wolf, role.Wolf,
			role.Seer, role.Witch, role.Hunter,
			role.Villager, role.Villager, role.Villager,
		},
		NightOrder: []Phase{PhaseNightGuard, PhaseNightWolves, PhaseNightWitch, PhaseNightSeer},
		MaxRounds:  12,
	}
	full12 := Mode{
		Name: "full12",
		Roles: []role.Name{
			role.Wolf, role.Wolf, role.WolfKing, role.Enchanter,
			role.Seer, role.Witch, role.Guard, role.Hunter,
			role.Cupid, role.Elder, role.Idiot, role.Knight,
		},
		NightOrder: fullNightOrder,
		MaxRounds:  15,
	}
	mini3 := Mode{
		Name:       "mini3",
		Roles:      []role.Name{role.Wolf, role.Seer, role.Villager},
		NightOrder: []Phase{PhaseNightWolves, PhaseNightSeer},
		MaxRounds:  5,
	}
	return map[string]Mode{
		standard9.Name: standard9,
		full12.Name:    full12,
		mini3.Name:     mini3,
	}
}

type modesFile struct {
	Modes []Mode `yaml:"modes"`
}

// LoadModes merges a YAML mode file over the built-in registry. An empty
// path returns the registry unchanged.
func LoadModes(path string) (map[string]Mode, error) {
	modes := DefaultModes()
	if path == "" {
		return modes, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read modes file: %w", err)
	}
	var f modesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse modes file: %w", err)
	}
	for _, m := range f.Modes {
		if len(m.NightOrder) == 0 {
			m.NightOrder = fullNightOrder
		}
		if m.MaxRounds == 0 {
			m.MaxRounds = 15
		}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		modes[m.Name] = m
	}
	return modes, nil
}
