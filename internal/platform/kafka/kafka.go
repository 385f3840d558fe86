// Package kafka builds the franz-go client used to publish session events.
package kafka

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"mockview/internal/platform/config"
)

// Client bundles the producer and its admin view.
type Client struct {
	*kgo.Client
	Admin *kadm.Client
}

// New returns nil when no brokers are configured.
func New(ctx context.Context, cfg config.Kafka) (*Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerLinger(0),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if err := cl.Ping(ctx); err != nil {
		cl.Close()
		return nil, fmt.Errorf("kafka ping failed: %w", err)
	}
	return &Client{Client: cl, Admin: kadm.NewClient(cl)}, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx)
}
