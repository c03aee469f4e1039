package kafka

import (
	"context"
	"time"
)

// Headers is a map of header key-value pairs
type Headers map[string][]byte

// TimestampType describes how a record's timestamp was assigned
type TimestampType int

const (
	// TimestampNotAvailable - broker did not report a timestamp
	TimestampNotAvailable TimestampType = iota
	// TimestampCreateTime - timestamp set by the producer
	TimestampCreateTime
	// TimestampLogAppendTime - timestamp set by the broker on append
	TimestampLogAppendTime
)

// Message represents a Kafka record. Once a message has been handed to a
// handler it must be treated as read-only.
type Message struct {
	Key           []byte
	Value         []byte
	Headers       Headers
	Topic         string
	Partition     int32
	Offset        int64
	Timestamp     time.Time
	TimestampType TimestampType
}

// TopicPartition identifies a position within a topic partition
type TopicPartition struct {
	Topic     string
	Partition int32
	Offset    int64
}

// PartitionAny lets the broker pick the partition
const PartitionAny int32 = -1

// Acks configuration for producer acknowledgment
type Acks int

const (
	// AcksNone - No acknowledgment
	AcksNone Acks = 0
	// AcksLeader - Leader acknowledgment only
	AcksLeader Acks = 1
	// AcksAll - All replicas acknowledgment
	AcksAll Acks = -1
)

// Compression types for message compression
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGZIP
	CompressionSnappy
	CompressionLZ4
	CompressionZSTD
)

// PartitionAssignor represents partition assignment strategy
type PartitionAssignor string

const (
	AssignorRange             PartitionAssignor = "range"
	AssignorRoundRobin        PartitionAssignor = "roundrobin"
	AssignorCooperativeSticky PartitionAssignor = "cooperative-sticky"
)

// LogLevel represents logging level
type LogLevel int

const (
	LogLevelNone  LogLevel = 0
	LogLevelError LogLevel = 1
	LogLevelWarn  LogLevel = 2
	LogLevelInfo  LogLevel = 3
	LogLevelDebug LogLevel = 4
)

// HealthStatus represents health check status
type HealthStatus string

const (
	HealthStatusUp   HealthStatus = "UP"
	HealthStatusDown HealthStatus = "DOWN"
)

// HealthResult represents health check result
type HealthResult struct {
	Status  HealthStatus           `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
	Error   error                  `json:"error,omitempty"`
}

// RecordHandler processes a single record. A non-nil error ends the poll
// loop that dispatched the record.
type RecordHandler func(ctx context.Context, msg *Message) error

// ErrorHook observes the failure that is about to end a poll loop
type ErrorHook func(err error)

// Records is the narrow contract a poll loop needs from a consumer session.
// Implementations are not safe for concurrent Fetch/CommitRecord calls; a
// running poll loop owns the session exclusively.
type Records interface {
	// Fetch returns a batch of records. It returns immediately when data is
	// ready, otherwise blocks up to timeout and returns an empty batch.
	// A Wakeup while blocked makes it return ErrFetchInterrupted.
	Fetch(timeout time.Duration) ([]*Message, error)

	// Wakeup asynchronously unblocks an in-flight Fetch
	Wakeup()

	// CommitRecord marks the record as fully processed (commits offset+1)
	CommitRecord(msg *Message) error

	// Close releases the session. Call at most once.
	Close() error
}

// Client interface defines the producer API
type Client interface {
	// Send sends a single message to a topic and waits for delivery
	Send(ctx context.Context, topic string, msg *Message) error

	// SendBatch sends multiple messages to a single topic
	SendBatch(ctx context.Context, topic string, msgs []*Message) error

	// Flush waits for all in-flight messages to be delivered
	Flush(timeout time.Duration) error

	// Close closes the client
	Close() error
}
