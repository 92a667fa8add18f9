package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	got  [][]byte
	done chan struct{}
	want int
}

func newRecorder(want int) *recorder {
	return &recorder{done: make(chan struct{}), want: want}
}

func (r *recorder) handle(ctx context.Context, raw []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, raw)
	if len(r.got) == r.want {
		close(r.done)
	}
}

func (r *recorder) wait(t *testing.T) [][]byte {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not receive all payloads in time")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.got
}

func TestEnqueueReachesHandler(t *testing.T) {
	rec := newRecorder(3)
	q := New(rec.handle, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	q.Enqueue([]byte("a"))
	q.Enqueue([]byte("b"))
	q.Enqueue([]byte("c"))

	got := rec.wait(t)
	seen := map[string]bool{}
	for _, raw := range got {
		seen[string(raw)] = true
	}
	assert.True(t, seen["a"] && seen["b"] && seen["c"], "got %v", seen)
}

func TestCancelStopsWorkers(t *testing.T) {
	q := New(func(ctx context.Context, raw []byte) {}, 3)

	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		q.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not exit after cancel")
	}
}

func TestBufferedJobsDrainOnCancel(t *testing.T) {
	rec := newRecorder(3)
	q := New(rec.handle, 1)

	q.Enqueue([]byte("a"))
	q.Enqueue([]byte("b"))
	q.Enqueue([]byte("c"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.Start(ctx)
	q.Wait()

	assert.Len(t, rec.wait(t), 3, "accepted jobs must survive shutdown")
}

func TestEnqueueNeverBlocksWhenFull(t *testing.T) {
	q := New(func(ctx context.Context, raw []byte) {}, 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 300; i++ {
			q.Enqueue([]byte("x"))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked on a full buffer")
	}
}

func TestDefaultWorkerCount(t *testing.T) {
	q := New(func(ctx context.Context, raw []byte) {}, 0)
	require.Equal(t, defaultWorkers, q.workers)
}
