package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/attest-tracker/constants"
	"github.com/joseph-ayodele/attest-tracker/internal/common"
	"github.com/joseph-ayodele/attest-tracker/internal/ingest"
)

type fakeIngestor struct {
	mu       sync.Mutex
	paths    []string
	reqIDs   []string
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
	gate     chan struct{}
}

func (f *fakeIngestor) IngestPath(ctx context.Context, path string) (ingest.Result, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.gate != nil {
		<-f.gate
	}
	time.Sleep(f.delay)
	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.reqIDs = append(f.reqIDs, common.RequestIDFromContext(ctx))
	f.mu.Unlock()
	if path == "bad" {
		return ingest.Result{}, errors.New("boom")
	}
	return ingest.Result{SourceName: path, Outcome: constants.OutcomeAdmitted}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIngestQueueProcessesAllAndDrains(t *testing.T) {
	f := &fakeIngestor{delay: 5 * time.Millisecond}
	q := NewIngestQueue(f, quietLogger(), WithWorkers(3), WithQueueSize(4))

	ctx := context.Background()
	for _, p := range []string{"a", "b", "bad", "c", "d", "e", "f"} {
		require.NoError(t, q.Enqueue(ctx, Job{Path: p, RequestID: "req-" + p}))
	}
	q.Shutdown(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "b", "bad", "c", "d", "e", "f"}, f.paths)
	assert.Contains(t, f.reqIDs, "req-bad")
	assert.LessOrEqual(t, f.peak.Load(), int32(3))
}

func TestIngestQueueRejectsAfterShutdown(t *testing.T) {
	q := NewIngestQueue(&fakeIngestor{}, quietLogger())
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())
	assert.ErrorIs(t, q.Enqueue(context.Background(), Job{Path: "late"}), ErrQueueClosed)
}

func TestIngestQueueBackpressureHonorsContext(t *testing.T) {
	gate := make(chan struct{})
	f := &fakeIngestor{gate: gate}
	var depths []int
	var mu sync.Mutex
	q := NewIngestQueue(f, quietLogger(), WithWorkers(1), WithQueueSize(1), WithDepthReporter(func(n int) {
		mu.Lock()
		depths = append(depths, n)
		mu.Unlock()
	}))

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, Job{Path: "held"}))
	// wait until the worker picked it up and blocks on the gate
	require.Eventually(t, func() bool { return f.inFlight.Load() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, q.Enqueue(ctx, Job{Path: "buffered"}))
	assert.Equal(t, 1, q.Len())

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Enqueue(short, Job{Path: "overflow"}), context.DeadlineExceeded)

	close(gate)
	q.Shutdown(ctx)
	f.mu.Lock()
	assert.ElementsMatch(t, []string{"held", "buffered"}, f.paths)
	f.mu.Unlock()
	mu.Lock()
	assert.NotEmpty(t, depths)
	mu.Unlock()
}
