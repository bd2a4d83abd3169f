package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vitos/crypto_arbitrage/internal/domain"
	"go.uber.org/zap"
)

// Handler processes one dispatched item. It is only ever called by the worker owning the item's shard.
type Handler[T any] interface {
	Handle(ctx context.Context, item T) error
}

// SourceFunc returns the items to dispatch on one poll.
type SourceFunc[T any] func(ctx context.Context) ([]T, error)

type DispatcherConfig struct {
	Name      string
	Shards    int
	QueueSize int
	Interval  time.Duration
}

// Dispatcher polls a source and routes every item to the worker at index id mod Shards.
// Each worker drains its own queue sequentially, so all work for one id is serialized.
// Duplicate snapshots of the same id may queue up; handlers must be idempotent.
type Dispatcher[T any] struct {
	cfg     DispatcherConfig
	source  SourceFunc[T]
	handler Handler[T]
	keyOf   func(T) int64
	queues  []chan T
	dropped atomic.Int64
	logger  *zap.Logger
}

func NewDispatcher[T any](cfg DispatcherConfig, source SourceFunc[T], handler Handler[T], keyOf func(T) int64, logger *zap.Logger) *Dispatcher[T] {
	if cfg.Shards <= 0 {
		cfg.Shards = 10
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 200 * time.Millisecond
	}

	queues := make([]chan T, cfg.Shards)
	for i := range queues {
		queues[i] = make(chan T, cfg.QueueSize)
	}
	return &Dispatcher[T]{
		cfg:     cfg,
		source:  source,
		handler: handler,
		keyOf:   keyOf,
		queues:  queues,
		logger:  logger.With(zap.String("dispatcher", cfg.Name)),
	}
}

// ShardFor maps an id onto [0, shards).
func ShardFor(id int64, shards int) int {
	s := int(id % int64(shards))
	if s < 0 {
		s += shards
	}
	return s
}

// Dispatch enqueues item on its shard without blocking. Duplicates of an id are queued;
// only a full queue rejects the item, and the next poll offers it again.
func (d *Dispatcher[T]) Dispatch(item T) error {
	select {
	case d.queues[ShardFor(d.keyOf(item), len(d.queues))] <- item:
		return nil
	default:
		d.dropped.Add(1)
		return domain.ErrQueueFull
	}
}

// Dropped is the number of items discarded because their shard queue was full.
func (d *Dispatcher[T]) Dropped() int64 {
	return d.dropped.Load()
}

// Poll dispatches one batch from the source.
func (d *Dispatcher[T]) Poll(ctx context.Context) error {
	items, err := d.source(ctx)
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := d.Dispatch(item); err != nil {
			d.logger.Warn("Shard queue full, dropping snapshot", zap.Int64("id", d.keyOf(item)))
		}
	}
	return nil
}

// Run starts the workers and polls until ctx is cancelled, then waits for in-flight items to finish.
func (d *Dispatcher[T]) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i, q := range d.queues {
		wg.Add(1)
		go func(shard int, queue <-chan T) {
			defer wg.Done()
			d.work(ctx, shard, queue)
		}(i, q)
	}

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			d.logger.Info("Dispatcher stopped")
			return
		case <-ticker.C:
			if err := d.Poll(ctx); err != nil {
				d.logger.Error("Failed to poll", zap.Error(err))
			}
		}
	}
}

func (d *Dispatcher[T]) work(ctx context.Context, shard int, queue <-chan T) {
	// In-flight exchange and store calls run to completion after shutdown starts.
	callCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case item := <-queue:
			if err := d.handler.Handle(callCtx, item); err != nil {
				d.logger.Error("Handler failed",
					zap.Int("shard", shard),
					zap.Int64("id", d.keyOf(item)),
					zap.Error(err))
			}
		}
	}
}
