package publisher

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
	"github.com/twmb/franz-go/pkg/kgo"

	"mockview/internal/proctor/metrics"
	"mockview/internal/proctor/models"
)

type fakeProducer struct {
	mu      sync.Mutex
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		if f.err == nil {
			f.records = append(f.records, r)
		}
		out = append(out, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return out
}

func (f *fakeProducer) Records() []*kgo.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*kgo.Record(nil), f.records...)
}

func event(session string, remaining int) models.Event {
	return models.Event{Type: models.EventDeduction, SessionID: session, Reason: "Tab switched", Points: 2, Remaining: remaining}
}

func TestRingBufferDropsOldest(t *testing.T) {
	b := NewRingBuffer(3)
	for i := range 5 {
		b.Enqueue(event("s", i))
	}
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, int64(2), b.Dropped())

	batch := b.DequeueBatch(10)
	require.Len(t, batch, 3)
	assert.Equal(t, []int{2, 3, 4}, []int{batch[0].Remaining, batch[1].Remaining, batch[2].Remaining})
	assert.Nil(t, b.DequeueBatch(1))
}

func TestNewKafkaValidates(t *testing.T) {
	_, err := NewKafka(nil, "proctor-events")
	assert.ErrorContains(t, err, "producer is required")

	_, err = NewKafka(&fakeProducer{}, "")
	assert.ErrorContains(t, err, "topic is required")
}

func TestFlushProducesKeyedJSON(t *testing.T) {
	prod := &fakeProducer{}
	k, err := NewKafka(prod, "proctor-events", WithBatchSize(2))
	require.NoError(t, err)

	for i := range 3 {
		require.NoError(t, k.Publish(context.Background(), event("session-1", 8-i)))
	}
	require.NoError(t, k.Flush(context.Background()))
	require.Len(t, prod.Records(), 2)

	rec := prod.Records()[0]
	assert.Equal(t, "proctor-events", rec.Topic)
	assert.Equal(t, []byte("session-1"), rec.Key)
	var decoded models.Event
	require.NoError(t, json.Unmarshal(rec.Value, &decoded))
	assert.Equal(t, 8, decoded.Remaining)

	require.NoError(t, k.Flush(context.Background()))
	assert.Len(t, prod.Records(), 3)
}

func TestFlushCountsFailures(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	prod := &fakeProducer{err: errors.New("broker down")}
	k, err := NewKafka(prod, "proctor-events", WithMetrics(m))
	require.NoError(t, err)

	require.NoError(t, k.Publish(context.Background(), event("s", 1)))
	err = k.Flush(context.Background())
	assert.ErrorContains(t, err, "broker down")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EventsDropped))
}

func TestRunDrainsOnShutdown(t *testing.T) {
	prod := &fakeProducer{}
	k, err := NewKafka(prod, "proctor-events", WithFlushInterval(time.Hour), WithBatchSize(1))
	require.NoError(t, err)

	for i := range 4 {
		require.NoError(t, k.Publish(context.Background(), event("s", i)))
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, k.Run(ctx))
	assert.Len(t, prod.Records(), 4)
}

func TestMemoryPublisher(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Publish(context.Background(), event("s", 1)))
	require.NoError(t, m.Publish(context.Background(), models.Event{Type: models.EventAutoSubmit}))
	assert.Equal(t, []models.EventType{models.EventDeduction, models.EventAutoSubmit}, m.Types())
}
