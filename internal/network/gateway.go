package network

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/duskvale/werearena/internal/decision"
	"github.com/duskvale/werearena/internal/infra/storage"
	"github.com/duskvale/werearena/internal/platform/logger"
)

const maxRespondBody = 64 << 10

// Gateway is the agent-facing HTTP API: registration, the pending-turn
// poll and the respond endpoint of the pull channel.
type Gateway struct {
	queue *decision.PendingQueue
	acq   *decision.Acquirer
	dir   *AgentDirectory
	log   *logger.Logger
}

func NewGateway(queue *decision.PendingQueue, acq *decision.Acquirer, dir *AgentDirectory, log *logger.Logger) *Gateway {
	return &Gateway{queue: queue, acq: acq, dir: dir, log: log}
}

// Register attaches the gateway's routes.
func (g *Gateway) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/agent/register", g.handleRegister)
	mux.HandleFunc("/api/agent/pending", g.handlePending)
	mux.HandleFunc("/api/agent/respond", g.handleRespond)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type registerRequest struct {
	AgentID     string `json:"agent_id"`
	CallbackURL string `json:"callback_url,omitempty"`
	Secret      string `json:"secret,omitempty"`
}

func (g *Gateway) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "POST only"})
		return
	}
	var req registerRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRespondBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if req.AgentID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "agent_id is required"})
		return
	}
	err := g.dir.Register(r.Context(), storage.AgentRecord{
		ID:          req.AgentID,
		CallbackURL: req.CallbackURL,
		Secret:      req.Secret,
	})
	if err != nil {
		g.log.Error("register agent %s: %v", req.AgentID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "registration failed"})
		return
	}
	g.log.Info("agent %s registered, callback=%t", req.AgentID, req.CallbackURL != "")
	writeJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}

func (g *Gateway) handlePending(w http.ResponseWriter, r *http.Request) {
	agentID := r.URL.Query().Get("agent_id")
	if agentID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "agent_id is required"})
		return
	}
	// Any poll is a liveness signal, even an empty-handed one.
	g.acq.NoteLiveness(agentID)

	ctx, ok := g.queue.Peek(agentID)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]string{"status": "no_turn"})
		return
	}
	writeJSON(w, http.StatusOK, ctx)
}

func (g *Gateway) handleRespond(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "POST only"})
		return
	}
	agentID := r.URL.Query().Get("agent_id")
	if agentID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "agent_id is required"})
		return
	}
	g.acq.NoteLiveness(agentID)

	pending, ok := g.queue.PendingRequest(agentID)
	if !ok {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no pending turn"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRespondBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
		return
	}
	rd, err := decision.ValidateStructured(pending.Kind, body)
	if err != nil {
		g.log.Warn("agent %s: %v", agentID, err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	d, err := decision.InterpretStructured(pending.Kind, rd, pending.Candidates, pending.Exclude)
	if err != nil {
		g.log.Warn("agent %s respond: %v", agentID, err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if !g.queue.Resolve(agentID, &d) {
		// The turn expired between the peek and the resolve.
		writeJSON(w, http.StatusConflict, map[string]string{"error": "turn already settled"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}
