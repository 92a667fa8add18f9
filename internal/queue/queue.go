// Package queue decouples webhook acceptance from dispatch work so that a
// slow model completion never stalls ingestion of the next delivery.
package queue

import (
	"context"
	"sync"

	"github.com/figurabot/figura/internal/logging"
)

// defaultWorkers bounds how many updates are processed concurrently.
const defaultWorkers = 4

// Handler processes one raw update body.
type Handler func(ctx context.Context, raw []byte)

// Queue is a buffered work queue with a fixed worker pool. Enqueue is the
// accept path and never blocks; workers run the handler. Updates already
// accepted are drained before shutdown completes.
type Queue struct {
	jobs    chan []byte
	handler Handler
	workers int
	wg      sync.WaitGroup
}

// New creates a queue over the given handler. workers <= 0 uses the default.
func New(handler Handler, workers int) *Queue {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Queue{
		jobs:    make(chan []byte, 256),
		handler: handler,
		workers: workers,
	}
}

// Start launches the worker pool. On context cancellation each worker
// finishes whatever is still buffered, then exits; Start returns
// immediately.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for {
				select {
				case <-ctx.Done():
					q.drain(context.WithoutCancel(ctx))
					return
				case raw := <-q.jobs:
					q.handler(ctx, raw)
				}
			}
		}()
	}
}

// drain runs every job already accepted before shutdown began. The
// detached context keeps outbound calls working while the server winds
// down.
func (q *Queue) drain(ctx context.Context) {
	for {
		select {
		case raw := <-q.jobs:
			q.handler(ctx, raw)
		default:
			return
		}
	}
}

// Enqueue hands one raw update body to the worker pool without blocking
// the accept path. A full buffer drops the update; Telegram redelivers
// undispatched webhooks on its side.
func (q *Queue) Enqueue(raw []byte) {
	select {
	case q.jobs <- raw:
	default:
		logging.Warnf("[Queue] buffer full, dropping update")
	}
}

// Wait blocks until all workers have exited.
func (q *Queue) Wait() {
	q.wg.Wait()
}
