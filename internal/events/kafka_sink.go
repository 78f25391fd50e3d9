package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/spec-kit/skilllink-support/internal/config"
)

// KafkaSink forwards ticket events to a Kafka topic keyed by ticket number.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

// NewSaramaConfig returns the producer settings used for the event stream.
func NewSaramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_8_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Successes = true
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	return cfg
}

// NewKafkaSink dials the configured brokers. It returns (nil, nil) when no
// brokers are configured.
func NewKafkaSink(cfg config.KafkaConfig, logger *zap.Logger) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	if cfg.Topic == "" {
		return nil, errors.New("KAFKA_TOPIC must be set when KAFKA_BROKERS is configured")
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, NewSaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	logger.Info("kafka event sink enabled", zap.Strings("brokers", cfg.Brokers), zap.String("topic", cfg.Topic))
	return NewKafkaSinkWithProducer(producer, cfg.Topic, logger), nil
}

// NewKafkaSinkWithProducer wraps an existing producer.
func NewKafkaSinkWithProducer(producer sarama.SyncProducer, topic string, logger *zap.Logger) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic, logger: logger}
}

// Register subscribes the sink to every ticket event.
func (k *KafkaSink) Register(dispatcher Dispatcher) {
	if k == nil || dispatcher == nil {
		return
	}
	dispatcher.Subscribe(EventTicketCreated, k.Handle)
	dispatcher.Subscribe(EventTicketStatusChanged, k.Handle)
}

// Handle publishes a single event.
func (k *KafkaSink) Handle(_ context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(event.TicketNumber),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send event: %w", err)
	}
	k.logger.Debug("event published",
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_number", event.TicketNumber),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

// Close flushes and closes the producer.
func (k *KafkaSink) Close() error {
	if k == nil || k.producer == nil {
		return nil
	}
	return k.producer.Close()
}
