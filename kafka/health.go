package kafka

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// HealthChecker probes broker connectivity through the admin client
type HealthChecker struct {
	brokers []string
	timeout time.Duration
}

// NewHealthChecker creates a health checker for the given brokers
func NewHealthChecker(brokers []string) *HealthChecker {
	return &HealthChecker{
		brokers: brokers,
		timeout: 10 * time.Second,
	}
}

// SetTimeout sets the health check timeout
func (h *HealthChecker) SetTimeout(timeout time.Duration) {
	h.timeout = timeout
}

// Check reports whether at least one broker answers a metadata request
func (h *HealthChecker) Check(ctx context.Context) *HealthResult {
	metadata, result := h.metadata(ctx, nil)
	if result != nil {
		return result
	}

	if len(metadata.Brokers) == 0 {
		return down(fmt.Errorf("no brokers available"), nil)
	}

	return &HealthResult{
		Status: HealthStatusUp,
		Details: map[string]interface{}{
			"brokers": len(metadata.Brokers),
			"topics":  len(metadata.Topics),
		},
	}
}

// CheckTopic reports whether topic exists and carries no topic-level error
func (h *HealthChecker) CheckTopic(ctx context.Context, topic string) *HealthResult {
	metadata, result := h.metadata(ctx, &topic)
	if result != nil {
		return result
	}

	topicMeta, ok := metadata.Topics[topic]
	if !ok {
		return down(fmt.Errorf("topic not found: %s", topic), map[string]interface{}{"topic": topic})
	}

	if topicMeta.Error.Code() != kafka.ErrNoError {
		return down(topicMeta.Error, map[string]interface{}{"topic": topic})
	}

	return &HealthResult{
		Status: HealthStatusUp,
		Details: map[string]interface{}{
			"topic":          topic,
			"partitionCount": len(topicMeta.Partitions),
		},
	}
}

// metadata fetches cluster metadata, honoring the context deadline when it
// is shorter than the configured timeout.
func (h *HealthChecker) metadata(ctx context.Context, topic *string) (*kafka.Metadata, *HealthResult) {
	if err := ctx.Err(); err != nil {
		return nil, down(err, nil)
	}

	adminClient, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": strings.Join(h.brokers, ","),
	})
	if err != nil {
		return nil, down(err, nil)
	}
	defer adminClient.Close()

	timeout := h.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	allTopics := topic == nil
	metadata, err := adminClient.GetMetadata(topic, allTopics, int(timeout.Milliseconds()))
	if err != nil {
		return nil, down(err, nil)
	}

	return metadata, nil
}

func down(err error, details map[string]interface{}) *HealthResult {
	if details == nil {
		details = map[string]interface{}{}
	}
	details["error"] = err.Error()
	return &HealthResult{
		Status:  HealthStatusDown,
		Error:   err,
		Details: details,
	}
}
