package events

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderedPersister struct {
	mu  sync.Mutex
	ids []string
}

func (p *orderedPersister) PersistEvent(e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, e.ID)
	return nil
}

func (p *orderedPersister) snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.ids...)
}

func TestPersistedRowsKeepAppendOrder(t *testing.T) {
	p := &orderedPersister{}
	l := NewLog(p)

	want := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		id := fmt.Sprintf("ev-%03d", i)
		want = append(want, id)
		l.Append(Event{ID: id, GameID: "g1", Type: TypeMessage})
	}
	l.Close()

	require.Eventually(t, func() bool {
		return len(p.snapshot()) == len(want)
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, want, p.snapshot())

	// The in-memory sequence matches too.
	replay := l.Replay()
	require.Len(t, replay, len(want))
	for i, e := range replay {
		assert.Equal(t, want[i], e.ID)
	}
}
