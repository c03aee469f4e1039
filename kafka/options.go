package kafka

import (
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// ClientConfig holds all producer client configuration
type ClientConfig struct {
	// Connection
	Brokers           []string
	ClientID          string
	ConnectionTimeout time.Duration
	RequestTimeout    time.Duration

	// SSL/SASL
	SSL  bool
	SASL *SASLConfig

	// Producer settings
	Acks        Acks
	Compression Compression
	Idempotent  bool

	// Logging
	LogLevel LogLevel
	Logger   Logger

	// Tracing
	Tracing *TracingConfig
}

// SASLConfig holds SASL authentication configuration
type SASLConfig struct {
	Mechanism string
	Username  string
	Password  string
}

// ClientOption is a function that configures the client
type ClientOption func(*ClientConfig)

// Default values
var (
	DefaultConnectionTimeout  = 10 * time.Second
	DefaultRequestTimeout     = 30 * time.Second
	DefaultSessionTimeout     = 30 * time.Second
	DefaultHeartbeatInterval  = 3 * time.Second
	DefaultAutoCommitInterval = 5 * time.Second
	DefaultMaxBatchRecords    = 500
)

// WithBrokers sets the Kafka broker addresses
func WithBrokers(brokers ...string) ClientOption {
	return func(c *ClientConfig) {
		c.Brokers = brokers
	}
}

// WithClientID sets the client ID. A random one is generated when unset.
func WithClientID(clientID string) ClientOption {
	return func(c *ClientConfig) {
		c.ClientID = clientID
	}
}

// WithConnectionTimeout sets the connection timeout
func WithConnectionTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.ConnectionTimeout = timeout
	}
}

// WithRequestTimeout sets the request timeout
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.RequestTimeout = timeout
	}
}

// WithSSL enables SSL
func WithSSL(enabled bool) ClientOption {
	return func(c *ClientConfig) {
		c.SSL = enabled
	}
}

// WithSASL sets SASL authentication
func WithSASL(sasl *SASLConfig) ClientOption {
	return func(c *ClientConfig) {
		c.SASL = sasl
	}
}

// WithAcks sets the acknowledgment level
func WithAcks(acks Acks) ClientOption {
	return func(c *ClientConfig) {
		c.Acks = acks
	}
}

// WithCompression sets the compression type
func WithCompression(compression Compression) ClientOption {
	return func(c *ClientConfig) {
		c.Compression = compression
	}
}

// WithIdempotent enables idempotent producer
func WithIdempotent(enabled bool) ClientOption {
	return func(c *ClientConfig) {
		c.Idempotent = enabled
	}
}

// WithLogLevel sets the log level
func WithLogLevel(level LogLevel) ClientOption {
	return func(c *ClientConfig) {
		c.LogLevel = level
	}
}

// WithLogger sets a custom logger
func WithLogger(logger Logger) ClientOption {
	return func(c *ClientConfig) {
		c.Logger = logger
	}
}

// WithTracing sets tracing configuration
func WithTracing(tracing *TracingConfig) ClientOption {
	return func(c *ClientConfig) {
		c.Tracing = tracing
	}
}

// newDefaultClientConfig creates a new client config with default values
func newDefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		ConnectionTimeout: DefaultConnectionTimeout,
		RequestTimeout:    DefaultRequestTimeout,
		Acks:              AcksAll,
		Compression:       CompressionNone,
		LogLevel:          LogLevelInfo,
	}
}

// applySecurity sets the security.protocol and SASL keys shared by client
// and consumer config maps.
func applySecurity(configMap *kafka.ConfigMap, ssl bool, sasl *SASLConfig) {
	if ssl {
		configMap.SetKey("security.protocol", "ssl")
	}

	if sasl != nil {
		if ssl {
			configMap.SetKey("security.protocol", "sasl_ssl")
		} else {
			configMap.SetKey("security.protocol", "sasl_plaintext")
		}
		configMap.SetKey("sasl.mechanism", sasl.Mechanism)
		configMap.SetKey("sasl.username", sasl.Username)
		configMap.SetKey("sasl.password", sasl.Password)
	}
}

func compressionName(compression Compression) string {
	switch compression {
	case CompressionGZIP:
		return "gzip"
	case CompressionSnappy:
		return "snappy"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return "none"
	}
}
