package network

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskvale/werearena/internal/platform/logger"
)

func TestHubShutdownClosesClients(t *testing.T) {
	h := NewHub(logger.NewLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	c := &Client{hub: h, send: make(chan []byte, 1), log: h.log}
	require.True(t, h.attach(c))

	cancel()
	select {
	case _, open := <-c.send:
		assert.False(t, open, "shutdown closes the observer's queue")
	case <-time.After(time.Second):
		t.Fatal("send channel not closed on shutdown")
	}
}

func TestHubAttachAndDetachAfterShutdown(t *testing.T) {
	h := NewHub(logger.NewLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	cancel()
	<-h.done

	c := &Client{hub: h, send: make(chan []byte, 1), log: h.log}
	finished := make(chan struct{})
	go func() {
		assert.False(t, h.attach(c), "late observers are turned away")
		h.detach(c)
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("attach or detach blocked after shutdown")
	}
}
