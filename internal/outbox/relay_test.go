package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu      sync.Mutex
	batches [][]Entry
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, entries []Entry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.batches = append(p.batches, append([]Entry(nil), entries...))
	return nil
}

func (p *recordingPublisher) published() []Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Entry
	for _, b := range p.batches {
		out = append(out, b...)
	}
	return out
}

func appendEvents(t *testing.T, store *InMemoryStore, n int) {
	t.Helper()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		require.NoError(t, store.Append(context.Background(), NewEvent(TypeCreated, int64(i+1), int64(i+1), now)))
	}
}

func TestRelayFlushPublishesInBatches(t *testing.T) {
	store := NewInMemoryStore()
	appendEvents(t, store, 5)
	pub := &recordingPublisher{}
	metrics := NewMetrics(prometheus.NewRegistry())

	relay := NewRelay(store, pub, WithBatchSize(2), WithMetrics(metrics))
	n, err := relay.Flush(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Len(t, pub.batches, 3)
	assert.Equal(t, 0, store.Pending())
	assert.Equal(t, float64(5), testutil.ToFloat64(metrics.Published))

	n, err = relay.Flush(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "published entries are not sent twice")
}

func TestRelayFlushKeepsEntriesOnPublishFailure(t *testing.T) {
	store := NewInMemoryStore()
	appendEvents(t, store, 3)
	pub := &recordingPublisher{err: errors.New("broker down")}
	metrics := NewMetrics(prometheus.NewRegistry())

	_, err := NewRelay(store, pub, WithMetrics(metrics)).Flush(context.Background())

	require.Error(t, err)
	assert.Equal(t, 3, store.Pending())
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.Failed))

	pub.err = nil
	n, err := NewRelay(store, pub).Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRelayRunStopsOnCancel(t *testing.T) {
	store := NewInMemoryStore()
	appendEvents(t, store, 1)
	pub := &recordingPublisher{}
	relay := NewRelay(store, pub, WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	require.Eventually(t, func() bool { return len(pub.published()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestEventPayload(t *testing.T) {
	e := NewEvent(TypeMerged, 1, 7, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	e.Repointed = 3
	e.RequestID = "req-1"

	body, err := e.Payload()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "contact.merged", decoded["type"])
	assert.Equal(t, float64(1), decoded["primaryContactId"])
	assert.Equal(t, float64(7), decoded["contactId"])
	assert.Equal(t, float64(3), decoded["repointed"])
	assert.Equal(t, "2024-03-01T12:00:00Z", decoded["occurredAt"])
	assert.Equal(t, "1", e.AggregateID())
}
