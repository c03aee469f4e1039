package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConsumer_RequiresBrokersGroupAndTopics(t *testing.T) {
	_, err := NewConsumer()
	require.ErrorContains(t, err, "brokers are required")

	_, err = NewConsumer(ConsumerWithBrokers("localhost:9092"))
	require.ErrorContains(t, err, "group ID is required")

	_, err = NewConsumer(
		ConsumerWithBrokers("localhost:9092"),
		WithGroupID("g1"),
	)
	require.ErrorContains(t, err, "at least one topic is required")
}

func TestConsumerConfig_Defaults(t *testing.T) {
	config := newDefaultConsumerConfig()

	assert.Equal(t, DefaultSessionTimeout, config.SessionTimeout)
	assert.Equal(t, DefaultHeartbeatInterval, config.HeartbeatInterval)
	assert.Equal(t, DefaultAutoCommitInterval, config.AutoCommitInterval)
	assert.Equal(t, DefaultMaxBatchRecords, config.MaxBatchRecords)
	assert.Equal(t, AssignorRange, config.PartitionAssignor)
	assert.True(t, config.AutoCommit)
	assert.False(t, config.FromBeginning)
}

func TestConsumerOptions_Apply(t *testing.T) {
	config := newDefaultConsumerConfig()
	opts := []ConsumerOption{
		ConsumerWithBrokers("b1:9092", "b2:9092"),
		WithGroupID("g1"),
		WithTopics("orders", "payments"),
		WithSessionTimeout(45 * time.Second),
		WithAutoCommit(false),
		WithFromBeginning(true),
		WithPartitionAssignor(AssignorCooperativeSticky),
		WithMaxBatchRecords(64),
	}
	for _, opt := range opts {
		opt(config)
	}

	assert.Equal(t, []string{"b1:9092", "b2:9092"}, config.Brokers)
	assert.Equal(t, "g1", config.GroupID)
	assert.Equal(t, []string{"orders", "payments"}, config.Topics)
	assert.Equal(t, 45*time.Second, config.SessionTimeout)
	assert.False(t, config.AutoCommit)
	assert.True(t, config.FromBeginning)
	assert.Equal(t, AssignorCooperativeSticky, config.PartitionAssignor)
	assert.Equal(t, 64, config.MaxBatchRecords)
}

func TestWithMaxBatchRecords_IgnoresNonPositive(t *testing.T) {
	config := newDefaultConsumerConfig()
	WithMaxBatchRecords(0)(config)
	assert.Equal(t, DefaultMaxBatchRecords, config.MaxBatchRecords)
}

func TestNewConsumerConfigMap(t *testing.T) {
	config := newDefaultConsumerConfig()
	config.Brokers = []string{"b1:9092", "b2:9092"}
	config.GroupID = "g1"
	config.FromBeginning = true
	config.SASL = &SASLConfig{Mechanism: "PLAIN", Username: "u", Password: "p"}

	configMap := newConsumerConfigMap(config)

	servers, err := configMap.Get("bootstrap.servers", "")
	require.NoError(t, err)
	assert.Equal(t, "b1:9092,b2:9092", servers)

	reset, err := configMap.Get("auto.offset.reset", "")
	require.NoError(t, err)
	assert.Equal(t, "earliest", reset)

	protocol, err := configMap.Get("security.protocol", "")
	require.NoError(t, err)
	assert.Equal(t, "sasl_plaintext", protocol)

	mechanism, err := configMap.Get("sasl.mechanism", "")
	require.NoError(t, err)
	assert.Equal(t, "PLAIN", mechanism)
}
