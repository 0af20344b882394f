// Package main is a scripted agent for exercising a running arena
// server. It registers, polls for pending turns and answers every one
// with a structurally valid decision. Useful for smoke tests and for
// filling seats no real agent claims.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"
)

type turnContext struct {
	GameID   string   `json:"game_id"`
	Round    int      `json:"round"`
	Phase    string   `json:"phase"`
	Action   string   `json:"action"`
	Seat     int      `json:"seat"`
	SeatName string   `json:"seat_name"`
	Role     string   `json:"role"`
	Alive    []string `json:"alive"`
	Status   string   `json:"status"`
}

func main() {
	serverURL := flag.String("url", "http://localhost:8080", "Arena server base URL")
	agentID := flag.String("agent", "mock-1", "Agent ID to register as")
	interval := flag.Duration("interval", 500*time.Millisecond, "Poll interval")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	if err := register(client, *serverURL, *agentID); err != nil {
		log.Fatalf("register: %v", err)
	}
	log.Printf("[MOCK-AGENT] Registered as %s, polling %s every %v", *agentID, *serverURL, *interval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			log.Println("[MOCK-AGENT] Stopping.")
			return
		case <-ticker.C:
			if err := pollOnce(client, *serverURL, *agentID); err != nil {
				log.Printf("[MOCK-AGENT] poll: %v", err)
			}
		}
	}
}

func register(client *http.Client, base, agentID string) error {
	body, _ := json.Marshal(map[string]string{"agent_id": agentID})
	resp, err := client.Post(base+"/api/agent/register", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	return nil
}

func pollOnce(client *http.Client, base, agentID string) error {
	resp, err := client.Get(base + "/api/agent/pending?agent_id=" + agentID)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var turn turnContext
	if err := json.NewDecoder(resp.Body).Decode(&turn); err != nil {
		return err
	}
	if turn.Action == "" || turn.Status == "no_turn" {
		return nil
	}

	answer := decide(turn)
	body, _ := json.Marshal(answer)
	respond, err := client.Post(
		base+"/api/agent/respond?agent_id="+agentID,
		"application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer respond.Body.Close()
	log.Printf("[MOCK-AGENT] %s round %d: answered %s -> %d", turn.Phase, turn.Round, turn.Action, respond.StatusCode)
	return nil
}

// decide builds a minimal valid answer per action kind. Targeted kinds
// pick the first living player that is not this seat.
func decide(turn turnContext) map[string]interface{} {
	target := firstOther(turn, "")
	switch turn.Action {
	case "speak", "last_words", "knight_speak":
		return map[string]interface{}{
			"message": fmt.Sprintf("%s has nothing to add this %s.", turn.SeatName, turn.Phase),
		}
	case "witch_decide":
		return map[string]interface{}{"witch_action": "none"}
	case "cupid_link", "dream_pair_check":
		second := firstOther(turn, target)
		return map[string]interface{}{"target": target, "second_target": second}
	default:
		return map[string]interface{}{"target": target}
	}
}

func firstOther(turn turnContext, skip string) string {
	for _, name := range turn.Alive {
		if name != turn.SeatName && name != skip {
			return name
		}
	}
	return ""
}
