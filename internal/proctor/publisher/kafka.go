// Package publisher ships proctoring events off the request path.
//
// Events are buffered in memory and flushed in batches by a background
// worker so a slow broker never delays a deduction.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"mockview/internal/proctor/metrics"
	"mockview/internal/proctor/models"
)

// Producer is the subset of *kgo.Client the publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

type Kafka struct {
	producer      Producer
	topic         string
	buffer        *RingBuffer
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

type Option func(*Kafka)

func WithLogger(logger *slog.Logger) Option {
	return func(k *Kafka) {
		if logger != nil {
			k.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(k *Kafka) { k.metrics = m }
}

func WithBatchSize(n int) Option {
	return func(k *Kafka) {
		if n > 0 {
			k.batchSize = n
		}
	}
}

func WithFlushInterval(d time.Duration) Option {
	return func(k *Kafka) {
		if d > 0 {
			k.flushInterval = d
		}
	}
}

func WithBufferSize(n int) Option {
	return func(k *Kafka) { k.buffer = NewRingBuffer(n) }
}

func NewKafka(producer Producer, topic string, opts ...Option) (*Kafka, error) {
	if producer == nil {
		return nil, errors.New("kafka producer is required")
	}
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	k := &Kafka{
		producer:      producer,
		topic:         topic,
		buffer:        NewRingBuffer(0),
		batchSize:     100,
		flushInterval: 500 * time.Millisecond,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k, nil
}

// Publish enqueues the event. It never blocks on the broker.
func (k *Kafka) Publish(_ context.Context, event models.Event) error {
	if k.buffer.Enqueue(event) {
		k.metrics.AddEventsDropped(1)
	}
	return nil
}

// Run flushes batches until ctx is done, then drains what is left.
func (k *Kafka) Run(ctx context.Context) error {
	ticker := time.NewTicker(k.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			for k.buffer.Len() > 0 {
				if err := k.Flush(drainCtx); err != nil {
					k.logger.WarnContext(drainCtx, "final event flush failed", "error", err, "pending", k.buffer.Len())
					return nil
				}
			}
			return nil
		case <-ticker.C:
			if err := k.Flush(ctx); err != nil {
				k.logger.WarnContext(ctx, "event flush failed", "error", err)
			}
		}
	}
}

// Flush produces one batch. Records that fail are dropped and counted.
func (k *Kafka) Flush(ctx context.Context) error {
	batch := k.buffer.DequeueBatch(k.batchSize)
	if len(batch) == 0 {
		return nil
	}
	records := make([]*kgo.Record, 0, len(batch))
	for _, ev := range batch {
		value, err := json.Marshal(ev)
		if err != nil {
			k.logger.ErrorContext(ctx, "failed to encode session event", "error", err, "type", string(ev.Type))
			continue
		}
		records = append(records, &kgo.Record{
			Topic:     k.topic,
			Key:       []byte(ev.SessionID),
			Value:     value,
			Timestamp: ev.Timestamp,
		})
	}
	results := k.producer.ProduceSync(ctx, records...)
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		k.metrics.AddEventsDropped(failed)
		return fmt.Errorf("produce session events: %d of %d failed: %w", failed, len(records), results.FirstErr())
	}
	return nil
}

// EnsureTopic creates topic if it does not exist yet.
func EnsureTopic(ctx context.Context, adm *kadm.Client, topic string, partitions int32, replicationFactor int16) error {
	resp, err := adm.CreateTopics(ctx, partitions, replicationFactor, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}
