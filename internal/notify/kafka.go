package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	catalogMessageKey = "catalog"
	seqHeader         = "seq"
)

// MessageWriter is the part of *kafka.Writer the forwarder needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter builds an async writer. Delivery failures are only reported
// to the logger.
func NewKafkaWriter(brokers []string, topic string, logger *zap.Logger) *kafka.Writer {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		Async:                  true,
		BatchTimeout:           50 * time.Millisecond,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("kafka delivery failed", zap.String("topic", topic), zap.Int("messages", len(messages)), zap.Error(err))
			}
		},
	}
}

// KafkaForwarder publishes every catalog event as one message keyed by
// "catalog", so all listings land on the same partition. Pool workers may
// write events out of order; consumers keep the message with the highest
// "seq" header.
type KafkaForwarder struct {
	writer MessageWriter
	logger *zap.Logger
}

func NewKafkaForwarder(writer MessageWriter, logger *zap.Logger) (*KafkaForwarder, error) {
	if writer == nil {
		return nil, fmt.Errorf("writer is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &KafkaForwarder{
		writer: writer,
		logger: logger,
	}, nil
}

func (f *KafkaForwarder) Handle(ctx context.Context, event CatalogChanged) {
	if err := f.Forward(ctx, event); err != nil {
		f.logger.Error("forward catalog change", zap.Error(err))
	}
}

func (f *KafkaForwarder) Forward(ctx context.Context, event CatalogChanged) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(catalogMessageKey),
		Value: value,
		Time:  event.At,
		Headers: []kafka.Header{
			{Key: seqHeader, Value: []byte(strconv.FormatUint(event.Seq, 10))},
		},
	}

	if err := f.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writer.WriteMessages: %w", err)
	}

	return nil
}

func (f *KafkaForwarder) Close() error {
	if err := f.writer.Close(); err != nil {
		return fmt.Errorf("writer.Close: %w", err)
	}
	return nil
}
