package kafka

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// Verify Consumer implements the Records contract
var _ Records = (*Consumer)(nil)

// wakeCheckInterval bounds how long a blocked Fetch can go without
// observing a Wakeup. The underlying client has no wake primitive, so
// Fetch polls in slices of at most this length.
const wakeCheckInterval = 100 * time.Millisecond

// Consumer is a subscribed consumer session backed by confluent-kafka-go.
// It implements Records so it can drive a poll loop. A Consumer must not
// be shared between a running poll loop and other goroutines; Wakeup and
// Close are the only methods safe to call concurrently with Fetch.
type Consumer struct {
	consumer *kafka.Consumer
	config   *ConsumerConfig
	logger   Logger

	woken  int32 // atomic: 1 = wake requested
	closed int32 // atomic: 0=open, 1=closed
}

// NewConsumer creates a consumer and subscribes it to the configured topics
func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	config := newDefaultConsumerConfig()
	for _, opt := range opts {
		opt(config)
	}

	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	if config.GroupID == "" {
		return nil, fmt.Errorf("group ID is required")
	}

	if len(config.Topics) == 0 {
		return nil, fmt.Errorf("at least one topic is required")
	}

	consumer, err := kafka.NewConsumer(newConsumerConfigMap(config))
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	if err := consumer.SubscribeTopics(config.Topics, nil); err != nil {
		consumer.Close()
		return nil, fmt.Errorf("failed to subscribe to topics: %w", err)
	}

	logger := config.Logger
	if logger == nil {
		logger = NewDefaultLogger(config.LogLevel)
	}

	return &Consumer{
		consumer: consumer,
		config:   config,
		logger:   logger,
	}, nil
}

// newConsumerConfigMap translates a ConsumerConfig into librdkafka settings
func newConsumerConfigMap(config *ConsumerConfig) *kafka.ConfigMap {
	configMap := &kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(config.Brokers, ","),
		"group.id":           config.GroupID,
		"auto.offset.reset":  offsetReset(config.FromBeginning),
		"enable.auto.commit": config.AutoCommit,
	}

	if config.SessionTimeout > 0 {
		configMap.SetKey("session.timeout.ms", int(config.SessionTimeout.Milliseconds()))
	}

	if config.HeartbeatInterval > 0 {
		configMap.SetKey("heartbeat.interval.ms", int(config.HeartbeatInterval.Milliseconds()))
	}

	if config.AutoCommitInterval > 0 {
		configMap.SetKey("auto.commit.interval.ms", int(config.AutoCommitInterval.Milliseconds()))
	}

	if config.PartitionAssignor != "" {
		configMap.SetKey("partition.assignment.strategy", string(config.PartitionAssignor))
	}

	applySecurity(configMap, config.SSL, config.SASL)
	configMap.SetKey("log_level", int(config.LogLevel))

	return configMap
}

// Fetch returns the next batch of records. It returns as soon as at least
// one record is ready, draining whatever else is already buffered up to
// MaxBatchRecords; otherwise it waits up to timeout and returns an empty
// batch. A Wakeup during the wait makes Fetch return ErrFetchInterrupted.
func (c *Consumer) Fetch(timeout time.Duration) ([]*Message, error) {
	if atomic.LoadInt32(&c.closed) == 1 {
		return nil, ErrClosed
	}

	deadline := time.Now().Add(timeout)

	for {
		if atomic.CompareAndSwapInt32(&c.woken, 1, 0) {
			return nil, ErrFetchInterrupted
		}

		slice := time.Until(deadline)
		if slice > wakeCheckInterval {
			slice = wakeCheckInterval
		}
		if slice < 0 {
			slice = 0
		}

		event := c.consumer.Poll(int(slice.Milliseconds()))
		if event == nil {
			if time.Until(deadline) <= 0 {
				// Timeout with no data is a normal, empty batch
				return []*Message{}, nil
			}
			continue
		}

		switch ev := event.(type) {
		case *kafka.Message:
			return c.drainBatch(ev), nil
		case kafka.Error:
			if isFatalBrokerError(ev) {
				return nil, fmt.Errorf("fetch failed: %w", ev)
			}
			// librdkafka retries transient conditions itself
			c.logger.Warn("transient broker error: %v", ev)
		default:
			c.logger.Debug("ignoring event: %v", event)
		}
	}
}

// drainBatch collects records that are already buffered, starting with
// first, without waiting for more.
func (c *Consumer) drainBatch(first *kafka.Message) []*Message {
	limit := c.config.MaxBatchRecords
	batch := make([]*Message, 0, limit)
	batch = append(batch, convertMessage(first))

	for len(batch) < limit {
		event := c.consumer.Poll(0)
		if event == nil {
			break
		}
		msg, ok := event.(*kafka.Message)
		if !ok {
			c.logger.Debug("ignoring event while draining: %v", event)
			continue
		}
		batch = append(batch, convertMessage(msg))
	}

	return batch
}

// Wakeup unblocks an in-flight Fetch, making it return ErrFetchInterrupted.
// Safe to call from any goroutine; a wake with no fetch in flight applies
// to the next one.
func (c *Consumer) Wakeup() {
	atomic.StoreInt32(&c.woken, 1)
}

// CommitRecord persists that msg has been fully processed. The committed
// position is the record offset plus one, so a restarted consumer resumes
// after it.
func (c *Consumer) CommitRecord(msg *Message) error {
	return c.CommitOffset(TopicPartition{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
	})
}

// CommitOffset persists that the record at tp.Offset has been fully
// processed (commits tp.Offset + 1).
func (c *Consumer) CommitOffset(tp TopicPartition) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return ErrClosed
	}

	_, err := c.consumer.CommitOffsets([]kafka.TopicPartition{{
		Topic:     &tp.Topic,
		Partition: tp.Partition,
		Offset:    kafka.Offset(tp.Offset + 1),
	}})
	if err != nil {
		return fmt.Errorf("failed to commit offset: %w", err)
	}
	return nil
}

// Assignment returns the currently assigned topic partitions
func (c *Consumer) Assignment() ([]TopicPartition, error) {
	assigned, err := c.consumer.Assignment()
	if err != nil {
		return nil, fmt.Errorf("failed to read assignment: %w", err)
	}

	partitions := make([]TopicPartition, len(assigned))
	for i, tp := range assigned {
		partitions[i] = TopicPartition{
			Topic:     *tp.Topic,
			Partition: tp.Partition,
			Offset:    int64(tp.Offset),
		}
	}
	return partitions, nil
}

// Close leaves the group and releases the session
func (c *Consumer) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	return c.consumer.Close()
}

// convertMessage converts a kafka.Message to a Message
func convertMessage(msg *kafka.Message) *Message {
	var headers Headers
	if len(msg.Headers) > 0 {
		headers = make(Headers, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = h.Value
		}
	}

	return &Message{
		Key:           msg.Key,
		Value:         msg.Value,
		Headers:       headers,
		Topic:         *msg.TopicPartition.Topic,
		Partition:     msg.TopicPartition.Partition,
		Offset:        int64(msg.TopicPartition.Offset),
		Timestamp:     msg.Timestamp,
		TimestampType: convertTimestampType(msg.TimestampType),
	}
}

func convertTimestampType(t kafka.TimestampType) TimestampType {
	switch t {
	case kafka.TimestampCreateTime:
		return TimestampCreateTime
	case kafka.TimestampLogAppendTime:
		return TimestampLogAppendTime
	default:
		return TimestampNotAvailable
	}
}

// isFatalBrokerError reports whether a broker error event should end the
// fetch instead of being retried by the underlying client.
func isFatalBrokerError(err kafka.Error) bool {
	return err.IsFatal() || err.Code() == kafka.ErrAllBrokersDown
}

func offsetReset(fromBeginning bool) string {
	if fromBeginning {
		return "earliest"
	}
	return "latest"
}
