// Package kafka feeds the dispatcher from a notification topic. Domain
// workflows running in other processes publish NotificationEvents as JSON;
// this consumer is their fan-out router call site. Ingestion inherits the
// dispatcher's at-most-once semantics: a record is committed once handed
// over, delivered or not.
package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"onyx/internal/platform/config"
	"onyx/internal/realtime/models"
)

// Dispatcher is the hand-off contract for consumed events.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev models.NotificationEvent)
}

type Consumer struct {
	client     *kgo.Client
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewConsumer connects a consumer group to the notification topic. Returns
// nil when no brokers are configured (ingest disabled).
func NewConsumer(cfg config.KafkaConfig, dispatcher Dispatcher, logger *slog.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(cfg.Topic),
	)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		client:     client,
		dispatcher: dispatcher,
		logger:     logger,
	}, nil
}

// Run polls the topic until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.client.Close()

	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "kafka fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		fetches.EachRecord(func(record *kgo.Record) {
			var ev models.NotificationEvent
			if err := json.Unmarshal(record.Value, &ev); err != nil {
				c.logger.WarnContext(ctx, "discarding malformed notification record",
					"topic", record.Topic,
					"offset", record.Offset,
					"error", err,
				)
				return
			}
			c.dispatcher.Dispatch(ctx, ev)
		})
	}
}
