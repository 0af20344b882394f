// Package ai wraps the generative completion backends used as the
// third decision-acquisition channel.
package ai

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when no backend is configured.
var ErrUnavailable = errors.New("generative provider unavailable")

// Provider produces a free-text completion for a prompt. Implementations
// own their retry policy; a returned error means the channel is exhausted
// and the caller should fall through to the next one.
type Provider interface {
	Complete(ctx context.Context, prompt string, temperature float32) (string, error)
	Name() string
	IsAvailable() bool
}
