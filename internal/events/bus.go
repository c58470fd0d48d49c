// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vesper Contributors

package events

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/samber/oops"
)

// Handler consumes a published event. Errors returned by a handler are logged
// and never stop delivery to the remaining subscribers of the same event.
type Handler func(ctx context.Context, event Event) error

// asyncQueueSize bounds the number of pending asynchronous dispatches.
// Publish never blocks: when the queue is full the dispatch is dropped
// with a warning.
const asyncQueueSize = 256

type subscription struct {
	handler Handler
	async   bool
}

type task struct {
	sub   subscription
	event Event
}

// Bus dispatches domain events to subscribers. Synchronous subscribers run
// inline on the publisher's goroutine, in registration order. Asynchronous
// subscribers are handed off to the dispatcher goroutine started by Start,
// so Publish never suspends the caller; this matters because Publish is
// frequently called while the movement lock is held.
type Bus struct {
	mu      sync.RWMutex
	subs    map[Type][]subscription
	queue   chan task
	started atomic.Bool
	done    chan struct{}
	logger  *slog.Logger
}

// NewBus creates a new event bus. Asynchronous subscribers do not run until
// Start is called.
func NewBus() *Bus {
	return &Bus{
		subs:   make(map[Type][]subscription),
		queue:  make(chan task, asyncQueueSize),
		done:   make(chan struct{}),
		logger: slog.Default(),
	}
}

// Subscribe registers a synchronous handler for an event type. Duplicate
// subscriptions are permitted and each fires independently.
func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[t] = append(b.subs[t], subscription{handler: h})
}

// SubscribeAsync registers an asynchronous handler for an event type. The
// handler runs on the dispatcher goroutine, decoupled from the publisher.
func (b *Bus) SubscribeAsync(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[t] = append(b.subs[t], subscription{handler: h, async: true})
}

// Publish dispatches an event. Synchronous subscribers run inline in
// registration order; a failing subscriber does not prevent delivery to the
// rest. Asynchronous subscribers are enqueued for the dispatcher and skipped
// with a warning if the dispatcher has not been started.
func (b *Bus) Publish(ctx context.Context, event Event) {
	RecordEventPublished(event.Type)

	b.mu.RLock()
	subs := b.subs[event.Type]
	b.mu.RUnlock()

	for _, sub := range subs {
		if !sub.async {
			b.invoke(ctx, sub, event, dispatchSync)
			continue
		}
		if !b.started.Load() {
			b.logger.Warn("async handler skipped: dispatcher not started",
				"event_type", event.Type,
				"event_id", event.ID.String())
			RecordAsyncDropped(event.Type)
			continue
		}
		select {
		case b.queue <- task{sub: sub, event: event}:
		default:
			b.logger.Warn("async handler dropped: dispatch queue full",
				"event_type", event.Type,
				"event_id", event.ID.String())
			RecordAsyncDropped(event.Type)
		}
	}
}

// Start launches the dispatcher goroutine that drains the asynchronous
// dispatch queue. The dispatcher runs until ctx is cancelled; Done reports
// when it has exited. Start may be called at most once.
func (b *Bus) Start(ctx context.Context) error {
	if !b.started.CompareAndSwap(false, true) {
		return oops.Code("BUS_ALREADY_STARTED").Errorf("event bus dispatcher already started")
	}
	go b.run(ctx)
	return nil
}

// Done reports when the dispatcher goroutine has exited.
func (b *Bus) Done() <-chan struct{} {
	return b.done
}

func (b *Bus) run(ctx context.Context) {
	defer close(b.done)
	for {
		// Cancellation is checked on its own first so shutdown wins over a
		// queue that still has tasks ready.
		select {
		case <-ctx.Done():
			b.drainQueue()
			return
		default:
		}
		select {
		case <-ctx.Done():
			b.drainQueue()
			return
		case t := <-b.queue:
			b.invoke(ctx, t.sub, t.event, dispatchAsync)
		}
	}
}

// drainQueue empties the dispatch queue at shutdown without running the
// handlers. Each abandoned task is logged and counted, so an accepted
// dispatch that never ran is as visible as one dropped at enqueue.
func (b *Bus) drainQueue() {
	for {
		select {
		case t := <-b.queue:
			b.logger.Warn("async handler abandoned: dispatcher stopping",
				"event_type", t.event.Type,
				"event_id", t.event.ID.String())
			RecordAsyncDropped(t.event.Type)
		default:
			return
		}
	}
}

// Dispatch mode labels for handler failure metrics.
const (
	dispatchSync  = "sync"
	dispatchAsync = "async"
)

// invoke runs a single handler, containing panics and logging failures so one
// subscriber can never abort delivery to the others.
func (b *Bus) invoke(ctx context.Context, sub subscription, event Event, mode string) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"event_type", event.Type,
				"event_id", event.ID.String(),
				"mode", mode,
				"panic", r)
			RecordHandlerFailure(event.Type, mode)
		}
	}()
	if err := sub.handler(ctx, event); err != nil {
		b.logger.Error("event handler failed",
			"event_type", event.Type,
			"event_id", event.ID.String(),
			"mode", mode,
			"error", err)
		RecordHandlerFailure(event.Type, mode)
	}
}
