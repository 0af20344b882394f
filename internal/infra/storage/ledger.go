package storage

import (
	"context"
	"fmt"
)

// Ledger answers ability-state questions for one game by scanning the
// action log. There is no in-memory counter to drift: a crashed engine
// that replays the log gets the same answers.
type Ledger struct {
	actions ActionRepository
	gameID  string
}

func NewLedger(actions ActionRepository, gameID string) *Ledger {
	return &Ledger{actions: actions, gameID: gameID}
}

// HasUsed reports whether an effective action of the kind exists. actor 0
// matches any actor.
func (l *Ledger) HasUsed(ctx context.Context, kind string, actor int) (bool, error) {
	recs, err := l.actions.ActionsByGame(ctx, l.gameID)
	if err != nil {
		return false, fmt.Errorf("ledger has-used %s: %w", kind, err)
	}
	for _, r := range recs {
		if r.Kind == kind && (actor == 0 || r.Actor == actor) {
			return true, nil
		}
	}
	return false, nil
}

// LastTarget returns the target and round of the actor's most recent
// action of the kind. target 0 means no prior action.
func (l *Ledger) LastTarget(ctx context.Context, kind string, actor int) (target, round int, err error) {
	recs, err := l.actions.ActionsByGame(ctx, l.gameID)
	if err != nil {
		return 0, 0, fmt.Errorf("ledger last-target %s: %w", kind, err)
	}
	for _, r := range recs {
		if r.Kind == kind && r.Actor == actor {
			target, round = r.Target, r.Round
		}
	}
	return target, round, nil
}

// LastPair returns both targets and the round of the actor's most recent
// two-target action of the kind.
func (l *Ledger) LastPair(ctx context.Context, kind string, actor int) (a, b, round int, err error) {
	recs, err := l.actions.ActionsByGame(ctx, l.gameID)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("ledger last-pair %s: %w", kind, err)
	}
	for _, r := range recs {
		if r.Kind == kind && r.Actor == actor {
			a, b, round = r.Target, r.SecondTarget, r.Round
		}
	}
	return a, b, round, nil
}

// CoupleLink returns the linked pair recorded by the matchmaker, if any.
func (l *Ledger) CoupleLink(ctx context.Context, kind string) (a, b int, ok bool, err error) {
	recs, err := l.actions.ActionsByGame(ctx, l.gameID)
	if err != nil {
		return 0, 0, false, fmt.Errorf("ledger couple-link: %w", err)
	}
	for _, r := range recs {
		if r.Kind == kind {
			return r.Target, r.SecondTarget, true, nil
		}
	}
	return 0, 0, false, nil
}
