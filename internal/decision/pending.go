package decision

import (
	"sync"
	"time"
)

// DefaultPollTimeout bounds how long the engine waits on the poll channel
// before falling through.
const DefaultPollTimeout = 60 * time.Second

type pendingEntry struct {
	req  Request
	ch   chan *Decision
	once sync.Once

	// timer is written and stopped only under the queue mutex.
	timer *time.Timer
}

// fulfill delivers at most one result. Late timers and duplicate resolves
// collapse into the first delivery.
func (p *pendingEntry) fulfill(d *Decision) {
	p.once.Do(func() {
		p.ch <- d
		close(p.ch)
	})
}

// PendingQueue holds at most one outstanding decision request per agent.
// Creating a new request cancels the prior one; an expired or cancelled
// request yields nil to its waiter.
type PendingQueue struct {
	mu      sync.Mutex
	byAgent map[string]*pendingEntry
	timeout time.Duration
}

func NewPendingQueue(timeout time.Duration) *PendingQueue {
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}
	return &PendingQueue{
		byAgent: make(map[string]*pendingEntry),
		timeout: timeout,
	}
}

// Create registers a pending request for the agent and returns the channel
// the engine waits on. The channel receives the resolved decision, or nil
// on timeout or cancellation.
func (q *PendingQueue) Create(req Request, timeout time.Duration) <-chan *Decision {
	if timeout <= 0 {
		timeout = q.timeout
	}
	entry := &pendingEntry{
		req: req,
		ch:  make(chan *Decision, 1),
	}

	q.mu.Lock()
	entry.timer = time.AfterFunc(timeout, func() {
		q.remove(req.AgentID, entry)
		entry.fulfill(nil)
	})
	prev := q.byAgent[req.AgentID]
	if prev != nil {
		prev.timer.Stop()
	}
	q.byAgent[req.AgentID] = entry
	q.mu.Unlock()

	if prev != nil {
		prev.fulfill(nil)
	}
	return entry.ch
}

// remove detaches the entry if it is still the agent's current one.
func (q *PendingQueue) remove(agentID string, entry *pendingEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.byAgent[agentID] == entry {
		delete(q.byAgent, agentID)
	}
}

// Resolve delivers a decision to the agent's pending request. Returns
// false when nothing is pending; duplicate and late calls are ignored.
func (q *PendingQueue) Resolve(agentID string, d *Decision) bool {
	if d == nil {
		return false
	}
	q.mu.Lock()
	entry := q.byAgent[agentID]
	if entry != nil {
		delete(q.byAgent, agentID)
		entry.timer.Stop()
	}
	q.mu.Unlock()

	if entry == nil {
		return false
	}
	entry.fulfill(d)
	return true
}

// Peek returns the agent-visible payload of the pending request without
// consuming it.
func (q *PendingQueue) Peek(agentID string) (Context, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	entry, ok := q.byAgent[agentID]
	if !ok {
		return Context{}, false
	}
	return entry.req.Context, true
}

// PendingRequest returns the full pending request, including the
// resolution data the respond endpoint needs. Non-consuming.
func (q *PendingQueue) PendingRequest(agentID string) (Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	entry, ok := q.byAgent[agentID]
	if !ok {
		return Request{}, false
	}
	return entry.req, true
}

// Cancel releases the agent's pending request, if any. The waiter
// receives nil.
func (q *PendingQueue) Cancel(agentID string) {
	q.mu.Lock()
	entry := q.byAgent[agentID]
	if entry != nil {
		delete(q.byAgent, agentID)
		entry.timer.Stop()
	}
	q.mu.Unlock()

	if entry != nil {
		entry.fulfill(nil)
	}
}
