package network

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskvale/werearena/internal/decision"
	"github.com/duskvale/werearena/internal/infra/storage"
	"github.com/duskvale/werearena/internal/platform/logger"
)

func newTestGateway(t *testing.T) (*Gateway, *decision.PendingQueue, *httptest.Server) {
	t.Helper()
	log := logger.NewLogger()
	store := storage.NewMemoryStore()
	dir := NewAgentDirectory(store, log)
	queue := decision.NewPendingQueue(time.Second)
	acq := decision.NewAcquirer(queue, nil, dir, log, nil)
	gw := NewGateway(queue, acq, dir, log)

	mux := http.NewServeMux()
	gw.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return gw, queue, srv
}

func pendingVote(agentID string) decision.Request {
	return decision.Request{
		Context: decision.Context{
			GameID: "g1", Round: 2, Phase: "day_vote", Kind: decision.KindVote,
			Seat: 1, SeatName: "Amelie", Role: "villager",
			Alive: []string{"Amelie", "Bertrand", "Coral"},
		},
		AgentID: agentID,
		Candidates: []decision.Candidate{
			{ID: 1, Name: "Amelie"}, {ID: 2, Name: "Bertrand"}, {ID: 3, Name: "Coral"},
		},
		Exclude: 1,
	}
}

func TestPendingEndpoint(t *testing.T) {
	_, queue, srv := newTestGateway(t)

	resp, err := http.Get(srv.URL + "/api/agent/pending?agent_id=a1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	queue.Create(pendingVote("a1"), time.Second)
	resp2, err := http.Get(srv.URL + "/api/agent/pending?agent_id=a1")
	require.NoError(t, err)
	defer resp2.Body.Close()
	body, err := io.ReadAll(resp2.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"action":"vote"`)

	// Peeking twice is harmless: the turn is still pending.
	_, ok := queue.Peek("a1")
	assert.True(t, ok)
}

func TestRespondEndpointResolvesTurn(t *testing.T) {
	_, queue, srv := newTestGateway(t)
	ch := queue.Create(pendingVote("a1"), time.Second)

	resp, err := http.Post(
		srv.URL+"/api/agent/respond?agent_id=a1",
		"application/json",
		strings.NewReader(`{"target":"Coral"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	d := <-ch
	require.NotNil(t, d)
	assert.Equal(t, decision.KindVote, d.Kind)
	assert.Equal(t, 3, int(d.Target))
}

func TestRespondEndpointRejectsContractViolations(t *testing.T) {
	_, queue, srv := newTestGateway(t)
	queue.Create(pendingVote("a1"), time.Second)

	resp, err := http.Post(
		srv.URL+"/api/agent/respond?agent_id=a1",
		"application/json",
		strings.NewReader(`{"message":"not a vote"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The turn survives a bad response.
	_, ok := queue.Peek("a1")
	assert.True(t, ok)
}

func TestRespondEndpointWithoutPendingTurn(t *testing.T) {
	_, _, srv := newTestGateway(t)

	resp, err := http.Post(
		srv.URL+"/api/agent/respond?agent_id=ghost",
		"application/json",
		strings.NewReader(`{"target":"Coral"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
