// Package main is the entry point for the arena game server. It only
// handles dependency injection and server initialization, no game logic
// belongs here.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/duskvale/werearena/internal/decision"
	"github.com/duskvale/werearena/internal/events"
	"github.com/duskvale/werearena/internal/game"
	"github.com/duskvale/werearena/internal/infra/ai"
	"github.com/duskvale/werearena/internal/infra/storage"
	"github.com/duskvale/werearena/internal/network"
	"github.com/duskvale/werearena/internal/platform/logger"
	"github.com/duskvale/werearena/internal/platform/metrics"
)

const shutdownGrace = 10 * time.Second

// sqlitePersister adapts the sqlite store to the event log's
// write-through persister. The full event is kept as the payload so a
// transcript can be rebuilt from the table alone.
type sqlitePersister struct {
	store *storage.SQLiteStore
}

func (p *sqlitePersister) PersistEvent(e events.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.store.PersistGameEvent(ctx, e.ID, e.GameID, e.Round, string(e.Type), string(payload), e.Timestamp)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	log.Println("[ARENA-SERVER] Initializing werewolf arena server...")
	_ = godotenv.Load()

	appLogger := logger.NewLogger()

	dbPath := envOr("ARENA_DB", "arena.db")
	appLogger.Info("Opening sqlite database %s...", dbPath)
	store, err := storage.Open(dbPath)
	if err != nil {
		appLogger.Error("open storage: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	modes, err := game.LoadModes(os.Getenv("ARENA_MODES"))
	if err != nil {
		appLogger.Error("load modes: %v", err)
		os.Exit(1)
	}
	appLogger.Info("%d game modes loaded", len(modes))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := network.NewHub(appLogger)
	go hub.Run(ctx)

	queue := decision.NewPendingQueue(decision.DefaultPollTimeout)
	dir := network.NewAgentDirectory(store, appLogger)

	var provider ai.Provider
	openaiProvider := ai.NewOpenAIProvider(os.Getenv("OPENAI_API_KEY"), os.Getenv("ARENA_AI_MODEL"), appLogger)
	if openaiProvider.IsAvailable() {
		appLogger.Info("Generative channel enabled via %s", openaiProvider.Name())
		provider = openaiProvider
	} else {
		appLogger.Warn("OPENAI_API_KEY not set, generative channel disabled")
	}

	acquirer := decision.NewAcquirer(queue, provider, dir, appLogger, nil)

	manager := game.NewManager(game.ManagerConfig{
		Modes:     modes,
		Decisions: acquirer,
		Actions:   store,
		Votes:     store,
		Persister: &sqlitePersister{store: store},
		Logger:    appLogger,
		Release:   queue.Cancel,
		Watch:     hub.WatchLog,
	})

	gateway := network.NewGateway(queue, acquirer, dir, appLogger)

	mux := http.NewServeMux()
	gateway.Register(mux)
	mux.HandleFunc("/ws", network.ServeWS(hub, appLogger))
	mux.HandleFunc("/metrics", metrics.Get().Handler())
	mux.HandleFunc("/metrics/prometheus", metrics.Get().PrometheusHandler())

	mux.HandleFunc("/api/game/start", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		type startRequest struct {
			Mode  string          `json:"mode"`
			Seats []game.SeatSpec `json:"seats"`
		}
		var req startRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
		g, err := manager.Start(ctx, req.Mode, req.Seats)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		appLogger.Info("game %s started, mode=%s seats=%d", g.ID, req.Mode, len(req.Seats))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "started",
			"game_id": g.ID,
			"mode":    req.Mode,
		})
	})

	mux.HandleFunc("/api/game/status", func(w http.ResponseWriter, r *http.Request) {
		gameID := r.URL.Query().Get("game_id")
		eng, ok := manager.Get(gameID)
		if !ok {
			http.Error(w, "unknown game", http.StatusNotFound)
			return
		}
		g := eng.Snapshot()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"game_id": g.ID,
			"status":  string(g.Status),
			"round":   g.Round,
			"phase":   string(g.Phase),
			"result":  g.Result,
		})
	})

	addr := envOr("ARENA_ADDR", ":8080")
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		appLogger.Info("HTTP API & WS server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Println("[ARENA-SERVER] Server running. Press Ctrl+C to exit.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[ARENA-SERVER] Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("shutdown: %v", err)
	}
}
