package decision

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/duskvale/werearena/internal/infra/ai"
	"github.com/duskvale/werearena/internal/platform/logger"
	"github.com/duskvale/werearena/internal/platform/metrics"
)

const (
	// SignatureHeader carries the hex HMAC-SHA256 of the request body.
	SignatureHeader = "X-Arena-Signature"

	callbackTimeout        = 30 * time.Second
	maxCallbackFailures    = 3
	maxCallbackResponseLen = 64 << 10
)

// Channel names the acquisition channel that produced a decision.
type Channel string

const (
	ChannelCallback   Channel = "callback"
	ChannelPoll       Channel = "poll"
	ChannelGenerative Channel = "generative"
	ChannelRandom     Channel = "random"
)

// AgentInfo is the directory view the acquirer needs.
type AgentInfo struct {
	ID               string
	CallbackURL      string
	Secret           string
	CallbackDisabled bool
}

// Directory looks up registered agents and records the durable
// callback-disable downgrade.
type Directory interface {
	Agent(id string) (AgentInfo, bool)
	DisableCallback(id string) error
}

// Acquirer obtains one decision per request by walking the four channels
// in order. It always returns a decision: the random channel cannot fail.
type Acquirer struct {
	httpClient *http.Client
	queue      *PendingQueue
	provider   ai.Provider
	dir        Directory
	log        *logger.Logger

	mu       sync.Mutex
	failures map[string]int
	rng      *rand.Rand

	pollTimeout time.Duration
}

// NewAcquirer wires the channels. provider and dir may be nil, the chain
// simply skips them.
func NewAcquirer(queue *PendingQueue, provider ai.Provider, dir Directory, log *logger.Logger, rng *rand.Rand) *Acquirer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Acquirer{
		httpClient:  &http.Client{Timeout: callbackTimeout},
		queue:       queue,
		provider:    provider,
		dir:         dir,
		log:         log,
		failures:    make(map[string]int),
		rng:         rng,
		pollTimeout: DefaultPollTimeout,
	}
}

// SetPollTimeout overrides the poll wait, used by fast tests.
func (a *Acquirer) SetPollTimeout(d time.Duration) {
	if d > 0 {
		a.pollTimeout = d
	}
}

// Sign computes the hex HMAC-SHA256 signature of body under secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// NoteLiveness resets the agent's consecutive-failure counter. Called by
// the gateway whenever the agent shows up on any channel.
func (a *Acquirer) NoteLiveness(agentID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.failures, agentID)
}

// Acquire walks the channels in order and returns the first decision.
func (a *Acquirer) Acquire(ctx context.Context, req Request) Decision {
	if d, ok := a.tryCallback(ctx, req); ok {
		metrics.Get().RecordDecision(string(ChannelCallback))
		return d
	}
	if d, ok := a.tryPoll(ctx, req); ok {
		metrics.Get().RecordDecision(string(ChannelPoll))
		return d
	}
	if d, ok := a.tryGenerative(ctx, req); ok {
		metrics.Get().RecordDecision(string(ChannelGenerative))
		return d
	}
	metrics.Get().RecordDecision(string(ChannelRandom))

	a.mu.Lock()
	defer a.mu.Unlock()
	return RandomDecision(a.rng, req)
}

func (a *Acquirer) tryCallback(ctx context.Context, req Request) (Decision, bool) {
	if req.AgentID == "" || a.dir == nil {
		return Decision{}, false
	}
	info, ok := a.dir.Agent(req.AgentID)
	if !ok || info.CallbackURL == "" || info.CallbackDisabled {
		return Decision{}, false
	}

	body, err := json.Marshal(req.Context)
	if err != nil {
		return Decision{}, false
	}

	cctx, cancel := context.WithTimeout(ctx, callbackTimeout)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(cctx, http.MethodPost, info.CallbackURL, bytes.NewReader(body))
	if err != nil {
		a.recordCallbackFailure(req.AgentID)
		return Decision{}, false
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if info.Secret != "" {
		httpReq.Header.Set(SignatureHeader, Sign(body, info.Secret))
	}

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		a.log.Warn("callback to agent %s failed: %v", req.AgentID, err)
		a.recordCallbackFailure(req.AgentID)
		return Decision{}, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		a.log.Warn("callback to agent %s returned %d", req.AgentID, resp.StatusCode)
		a.recordCallbackFailure(req.AgentID)
		return Decision{}, false
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxCallbackResponseLen))
	if err != nil {
		a.recordCallbackFailure(req.AgentID)
		return Decision{}, false
	}
	rd, err := ValidateStructured(req.Kind, respBody)
	if err != nil {
		a.log.Warn("agent %s: %v", req.AgentID, err)
		a.recordCallbackFailure(req.AgentID)
		return Decision{}, false
	}
	d, err := InterpretStructured(req.Kind, rd, req.Candidates, req.Exclude)
	if err != nil {
		a.log.Warn("agent %s decision rejected: %v", req.AgentID, err)
		a.recordCallbackFailure(req.AgentID)
		return Decision{}, false
	}

	a.NoteLiveness(req.AgentID)
	return d, true
}

// recordCallbackFailure counts consecutive failures and durably disables
// the callback after the threshold. The agent is downgraded, not banned:
// its next turn routes to the poll and generative channels.
func (a *Acquirer) recordCallbackFailure(agentID string) {
	metrics.Get().RecordCallbackFailure()

	a.mu.Lock()
	a.failures[agentID]++
	count := a.failures[agentID]
	a.mu.Unlock()

	if count < maxCallbackFailures {
		return
	}
	metrics.Get().RecordCallbackDisable()
	a.log.Warn("agent %s: %d consecutive callback failures, disabling callback", agentID, count)
	if err := a.dir.DisableCallback(agentID); err != nil {
		a.log.Error("disable callback for %s: %v", agentID, err)
	}
}

func (a *Acquirer) tryPoll(ctx context.Context, req Request) (Decision, bool) {
	if req.AgentID == "" || a.queue == nil {
		return Decision{}, false
	}
	ch := a.queue.Create(req, a.pollTimeout)
	select {
	case d := <-ch:
		if d == nil {
			return Decision{}, false
		}
		return *d, true
	case <-ctx.Done():
		a.queue.Cancel(req.AgentID)
		return Decision{}, false
	}
}

func (a *Acquirer) tryGenerative(ctx context.Context, req Request) (Decision, bool) {
	if a.provider == nil || !a.provider.IsAvailable() {
		return Decision{}, false
	}
	text, err := a.provider.Complete(ctx, BuildPrompt(req), req.Temperature)
	if err != nil {
		a.log.Warn("generative channel for seat %d: %v", req.Seat, err)
		return Decision{}, false
	}
	d, err := ParseFree(req.Kind, text, req.Candidates, req.Exclude)
	if err != nil {
		a.log.Warn("generative reply for seat %d unusable: %v", req.Seat, err)
		return Decision{}, false
	}
	return d, true
}
