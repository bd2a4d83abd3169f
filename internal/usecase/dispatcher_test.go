package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/crypto_arbitrage/internal/domain"
	"github.com/vitos/crypto_arbitrage/internal/usecase"
	"go.uber.org/zap"
)

type item struct {
	ID  int64
	Seq int
}

// serialCheckHandler fails the test if two items with the same id are handled concurrently.
type serialCheckHandler struct {
	mu       sync.Mutex
	active   map[int64]bool
	handled  map[int64][]int
	overlaps int
	total    int
	done     chan struct{}
	want     int
}

func newSerialCheckHandler(want int) *serialCheckHandler {
	return &serialCheckHandler{
		active:  make(map[int64]bool),
		handled: make(map[int64][]int),
		done:    make(chan struct{}),
		want:    want,
	}
}

func (h *serialCheckHandler) Handle(ctx context.Context, it item) error {
	h.mu.Lock()
	if h.active[it.ID] {
		h.overlaps++
	}
	h.active[it.ID] = true
	h.mu.Unlock()

	time.Sleep(time.Millisecond)

	h.mu.Lock()
	h.active[it.ID] = false
	h.handled[it.ID] = append(h.handled[it.ID], it.Seq)
	h.total++
	if h.total == h.want {
		close(h.done)
	}
	h.mu.Unlock()
	return nil
}

func TestShardFor(t *testing.T) {
	assert.Equal(t, 3, usecase.ShardFor(13, 10))
	assert.Equal(t, 0, usecase.ShardFor(20, 10))
	assert.Equal(t, 7, usecase.ShardFor(-3, 10))
}

func TestDispatcher_FullQueueDrops(t *testing.T) {
	d := usecase.NewDispatcher(
		usecase.DispatcherConfig{Name: "test", Shards: 2, QueueSize: 1},
		func(ctx context.Context) ([]item, error) { return nil, nil },
		newSerialCheckHandler(0),
		func(it item) int64 { return it.ID },
		zap.NewNop(),
	)

	require.NoError(t, d.Dispatch(item{ID: 4}))
	// Same shard, queue of one, no workers running.
	assert.ErrorIs(t, d.Dispatch(item{ID: 6}), domain.ErrQueueFull)
	// Other shard still has room.
	assert.NoError(t, d.Dispatch(item{ID: 5}))
	assert.Equal(t, int64(1), d.Dropped())
}

func TestDispatcher_PollQueuesDuplicatesUntilFull(t *testing.T) {
	d := usecase.NewDispatcher(
		usecase.DispatcherConfig{Name: "test", Shards: 1, QueueSize: 2},
		func(ctx context.Context) ([]item, error) { return []item{{ID: 7}}, nil },
		newSerialCheckHandler(0),
		func(it item) int64 { return it.ID },
		zap.NewNop(),
	)
	ctx := context.Background()

	// Duplicate snapshots of one id are not suppressed.
	require.NoError(t, d.Poll(ctx))
	require.NoError(t, d.Poll(ctx))
	assert.Equal(t, int64(0), d.Dropped())

	// Overflow is dropped without failing the poll; the next poll sends the id again.
	require.NoError(t, d.Poll(ctx))
	assert.Equal(t, int64(1), d.Dropped())
}

func TestDispatcher_SerializesPerID(t *testing.T) {
	const ids, dupes = 6, 5
	handler := newSerialCheckHandler(ids * dupes)

	var (
		mu     sync.Mutex
		polled bool
	)
	source := func(ctx context.Context) ([]item, error) {
		mu.Lock()
		defer mu.Unlock()
		if polled {
			return nil, nil
		}
		polled = true
		var items []item
		for seq := 0; seq < dupes; seq++ {
			for id := int64(0); id < ids; id++ {
				items = append(items, item{ID: id, Seq: seq})
			}
		}
		return items, nil
	}

	d := usecase.NewDispatcher(
		usecase.DispatcherConfig{Name: "test", Shards: 3, QueueSize: 64, Interval: 5 * time.Millisecond},
		source, handler,
		func(it item) int64 { return it.ID },
		zap.NewNop(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(stopped)
	}()

	select {
	case <-handler.done:
	case <-time.After(5 * time.Second):
		t.Fatal("items were not all handled")
	}
	cancel()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not stop")
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()
	assert.Zero(t, handler.overlaps)
	for id := int64(0); id < ids; id++ {
		assert.Equal(t, []int{0, 1, 2, 3, 4}, handler.handled[id], "id %d handled in poll order", id)
	}
}
