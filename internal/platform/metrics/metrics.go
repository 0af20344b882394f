// Package metrics collects engine counters with atomics and serves them as
// JSON and in Prometheus text format.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

type Collector struct {
	startTime time.Time

	gamesStarted  atomic.Int64
	gamesFinished atomic.Int64
	eventsWritten atomic.Int64

	decisionCallback   atomic.Int64
	decisionPoll       atomic.Int64
	decisionGenerative atomic.Int64
	decisionRandom     atomic.Int64

	callbackFailures atomic.Int64
	callbackDisables atomic.Int64

	wsConnections atomic.Int64
	wsBroadcasts  atomic.Int64
}

var (
	defaultCollector *Collector
	once             sync.Once
)

// Get returns the process-wide collector.
func Get() *Collector {
	once.Do(func() {
		defaultCollector = &Collector{startTime: time.Now()}
	})
	return defaultCollector
}

func (c *Collector) RecordGameStarted()  { c.gamesStarted.Add(1) }
func (c *Collector) RecordGameFinished() { c.gamesFinished.Add(1) }
func (c *Collector) RecordEventWritten() { c.eventsWritten.Add(1) }

// RecordDecision counts one acquired decision by the channel that
// ultimately produced it.
func (c *Collector) RecordDecision(channel string) {
	switch channel {
	case "callback":
		c.decisionCallback.Add(1)
	case "poll":
		c.decisionPoll.Add(1)
	case "generative":
		c.decisionGenerative.Add(1)
	default:
		c.decisionRandom.Add(1)
	}
}

func (c *Collector) RecordCallbackFailure() { c.callbackFailures.Add(1) }
func (c *Collector) RecordCallbackDisable() { c.callbackDisables.Add(1) }
func (c *Collector) RecordWSConnection()    { c.wsConnections.Add(1) }
func (c *Collector) RecordWSBroadcast()     { c.wsBroadcasts.Add(1) }

// Snapshot returns the current counter values.
func (c *Collector) Snapshot() map[string]int64 {
	return map[string]int64{
		"uptime_seconds":      int64(time.Since(c.startTime).Seconds()),
		"games_started":       c.gamesStarted.Load(),
		"games_finished":      c.gamesFinished.Load(),
		"events_written":      c.eventsWritten.Load(),
		"decision_callback":   c.decisionCallback.Load(),
		"decision_poll":       c.decisionPoll.Load(),
		"decision_generative": c.decisionGenerative.Load(),
		"decision_random":     c.decisionRandom.Load(),
		"callback_failures":   c.callbackFailures.Load(),
		"callback_disables":   c.callbackDisables.Load(),
		"ws_connections":      c.wsConnections.Load(),
		"ws_broadcasts":       c.wsBroadcasts.Load(),
	}
}

// Handler serves the snapshot as JSON.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(c.Snapshot())
	}
}

// PrometheusHandler serves the snapshot in Prometheus text format.
func (c *Collector) PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		for name, value := range c.Snapshot() {
			fmt.Fprintf(w, "# TYPE arena_%s counter\n", name)
			fmt.Fprintf(w, "arena_%s %d\n", name, value)
		}
	}
}
