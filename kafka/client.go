package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/google/uuid"
)

// Verify KafkaClient implements Client interface
var _ Client = (*KafkaClient)(nil)

// KafkaClient implements the Client interface. Sending is a stateless
// pass-through to the underlying producer; every Send/SendBatch call waits
// for its delivery reports.
type KafkaClient struct {
	producer *kafka.Producer
	config   *ClientConfig
	tracer   *TracingService
	logger   Logger
	closed   int32 // atomic: 0=open, 1=closed
	drained  chan struct{}
}

// NewClient creates a new Kafka producer client
func NewClient(opts ...ClientOption) (*KafkaClient, error) {
	config := newDefaultClientConfig()
	for _, opt := range opts {
		opt(config)
	}

	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	if config.ClientID == "" {
		config.ClientID = "kafka-go-" + uuid.NewString()
	}

	producer, err := kafka.NewProducer(newClientConfigMap(config))
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	logger := config.Logger
	if logger == nil {
		logger = NewDefaultLogger(config.LogLevel)
	}

	client := &KafkaClient{
		producer: producer,
		config:   config,
		logger:   logger,
		drained:  make(chan struct{}),
	}

	if config.Tracing != nil && config.Tracing.Enabled {
		client.tracer = NewTracingService(config.Tracing)
	}

	go client.drainEvents()

	return client, nil
}

// newClientConfigMap translates a ClientConfig into librdkafka settings
func newClientConfigMap(config *ClientConfig) *kafka.ConfigMap {
	configMap := &kafka.ConfigMap{
		"bootstrap.servers": strings.Join(config.Brokers, ","),
		"client.id":         config.ClientID,
		"acks":              int(config.Acks),
	}

	if config.ConnectionTimeout > 0 {
		configMap.SetKey("socket.connection.setup.timeout.ms", int(config.ConnectionTimeout.Milliseconds()))
	}

	if config.RequestTimeout > 0 {
		configMap.SetKey("request.timeout.ms", int(config.RequestTimeout.Milliseconds()))
	}

	if config.Compression != CompressionNone {
		configMap.SetKey("compression.type", compressionName(config.Compression))
	}

	if config.Idempotent {
		configMap.SetKey("enable.idempotence", true)
	}

	applySecurity(configMap, config.SSL, config.SASL)
	configMap.SetKey("log_level", int(config.LogLevel))

	return configMap
}

// Send sends a single message to a topic and waits for its delivery report
func (c *KafkaClient) Send(ctx context.Context, topic string, msg *Message) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return ErrClosed
	}
	return c.sendAll(ctx, topic, []*Message{msg})
}

// SendBatch sends multiple messages to a single topic and waits for all
// delivery reports. The returned error joins every produce and delivery
// failure.
func (c *KafkaClient) SendBatch(ctx context.Context, topic string, msgs []*Message) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return ErrClosed
	}
	if len(msgs) == 0 {
		return nil
	}
	return c.sendAll(ctx, topic, msgs)
}

// sendAll produces msgs to topic and waits for one delivery report per
// successfully produced message.
func (c *KafkaClient) sendAll(ctx context.Context, topic string, msgs []*Message) error {
	deliveryChan := make(chan kafka.Event, len(msgs))
	spans := make([]func(error), 0, len(msgs))
	var errs []error

	produced := 0
	for _, msg := range msgs {
		var endSpan func(error)
		if c.tracer != nil {
			var msgCtx context.Context
			msgCtx, endSpan = c.tracer.StartPublishSpan(ctx, topic, msg)
			c.tracer.Inject(msgCtx, msg)
		}

		if err := c.producer.Produce(c.buildMessage(topic, msg), deliveryChan); err != nil {
			errs = append(errs, fmt.Errorf("failed to produce message: %w", err))
			if endSpan != nil {
				endSpan(err)
			}
			continue
		}

		produced++
		if endSpan != nil {
			spans = append(spans, endSpan)
		}
	}

	for i := 0; i < produced; i++ {
		select {
		case e := <-deliveryChan:
			report := e.(*kafka.Message)
			var deliveryErr error
			if report.TopicPartition.Error != nil {
				deliveryErr = fmt.Errorf("delivery failed: %w", report.TopicPartition.Error)
				errs = append(errs, deliveryErr)
			}
			if i < len(spans) {
				spans[i](deliveryErr)
			}
		case <-ctx.Done():
			for j := i; j < len(spans); j++ {
				spans[j](ctx.Err())
			}
			return ctx.Err()
		}
	}

	return errors.Join(errs...)
}

// Flush waits for all in-flight messages to be delivered
func (c *KafkaClient) Flush(timeout time.Duration) error {
	remaining := c.producer.Flush(int(timeout.Milliseconds()))
	if remaining > 0 {
		return fmt.Errorf("%d messages still in flight after flush", remaining)
	}
	return nil
}

// Close flushes in-flight messages and closes the producer
func (c *KafkaClient) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}

	close(c.drained)
	c.producer.Flush(10000)
	c.producer.Close()
	return nil
}

// buildMessage builds a kafka.Message from a Message
func (c *KafkaClient) buildMessage(topic string, msg *Message) *kafka.Message {
	kafkaMsg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Key:   msg.Key,
		Value: msg.Value,
	}

	if msg.Partition > 0 {
		kafkaMsg.TopicPartition.Partition = msg.Partition
	}

	if !msg.Timestamp.IsZero() {
		kafkaMsg.Timestamp = msg.Timestamp
	}

	for k, v := range msg.Headers {
		kafkaMsg.Headers = append(kafkaMsg.Headers, kafka.Header{Key: k, Value: v})
	}

	return kafkaMsg
}

// drainEvents logs asynchronous producer events so the events channel
// never backs up.
func (c *KafkaClient) drainEvents() {
	for {
		select {
		case <-c.drained:
			return
		case e, ok := <-c.producer.Events():
			if !ok {
				return
			}
			switch ev := e.(type) {
			case *kafka.Message:
				if ev.TopicPartition.Error != nil {
					c.logger.Error("delivery failed: %v", ev.TopicPartition.Error)
				}
			case kafka.Error:
				c.logger.Error("producer error: %v", ev)
			}
		}
	}
}
