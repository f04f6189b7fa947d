package newsfeed

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaConfig holds settings for the Kafka-backed news source.
type KafkaConfig struct {
	Brokers       []string
	Topic         string
	GroupID       string
	ChannelBuffer int
}

// KafkaSource consumes the news wire from a Kafka topic. Deployments
// that already run the wire through a broker use this instead of SSE.
type KafkaSource struct {
	reader *kafka.Reader
	log    *zap.Logger

	items  chan Item
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewKafkaSource(cfg KafkaConfig, log *zap.Logger) *KafkaSource {
	if cfg.ChannelBuffer <= 0 {
		cfg.ChannelBuffer = 1024
	}
	return &KafkaSource{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: cfg.Brokers,
			Topic:   cfg.Topic,
			GroupID: cfg.GroupID,
		}),
		log:   log,
		items: make(chan Item, cfg.ChannelBuffer),
	}
}

func (k *KafkaSource) Start(ctx context.Context) (<-chan Item, error) {
	ctx, k.cancel = context.WithCancel(ctx)
	k.wg.Add(1)
	go k.consumeLoop(ctx)
	return k.items, nil
}

func (k *KafkaSource) Close() error {
	if k.cancel != nil {
		k.cancel()
	}
	err := k.reader.Close()
	k.wg.Wait()
	close(k.items)
	return err
}

func (k *KafkaSource) consumeLoop(ctx context.Context) {
	defer k.wg.Done()

	for {
		msg, err := k.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			k.log.Warn("kafka fetch failed", zap.Error(err))
			continue
		}

		var item Item
		if err := json.Unmarshal(msg.Value, &item); err != nil {
			k.log.Warn("unparseable news message",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
			_ = k.reader.CommitMessages(ctx, msg)
			continue
		}

		select {
		case k.items <- Normalize(item):
		case <-ctx.Done():
			return
		}
		_ = k.reader.CommitMessages(ctx, msg)
	}
}
