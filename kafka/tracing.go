package kafka

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Semantic convention attributes for messaging
const (
	MessagingSystemKey              = "messaging.system"
	MessagingDestinationNameKey     = "messaging.destination.name"
	MessagingDestinationPartitionID = "messaging.destination.partition.id"
	MessagingOperationNameKey       = "messaging.operation.name"
	MessagingKafkaOffsetKey         = "messaging.kafka.offset"
	MessagingKafkaMessageKeyKey     = "messaging.kafka.message.key"
)

// TracingConfig holds OpenTelemetry tracing configuration
type TracingConfig struct {
	Enabled       bool
	TracerName    string
	TracerVersion string
}

// TracingService provides OpenTelemetry tracing for Kafka operations
type TracingService struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// NewTracingService creates a new tracing service
func NewTracingService(config *TracingConfig) *TracingService {
	tracerName := config.TracerName
	if tracerName == "" {
		tracerName = "github.com/streamloop/kafka-go"
	}

	tracerVersion := config.TracerVersion
	if tracerVersion == "" {
		tracerVersion = Version
	}

	return &TracingService{
		tracer:     otel.Tracer(tracerName, trace.WithInstrumentationVersion(tracerVersion)),
		propagator: otel.GetTextMapPropagator(),
	}
}

// StartPublishSpan starts a producer span for publishing msg to topic
func (t *TracingService) StartPublishSpan(ctx context.Context, topic string, msg *Message) (context.Context, func(error)) {
	ctx, span := t.tracer.Start(ctx, fmt.Sprintf("%s publish", topic),
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String(MessagingSystemKey, "kafka"),
			attribute.String(MessagingDestinationNameKey, topic),
			attribute.String(MessagingOperationNameKey, "publish"),
		),
	)

	if msg.Key != nil {
		span.SetAttributes(attribute.String(MessagingKafkaMessageKeyKey, string(msg.Key)))
	}

	return ctx, endSpanFunc(span)
}

// StartProcessSpan starts a consumer span for processing a fetched record.
// Trace context is extracted from the record headers so the span joins the
// producer's trace.
func (t *TracingService) StartProcessSpan(ctx context.Context, msg *Message) (context.Context, func(error)) {
	ctx = t.propagator.Extract(ctx, headerCarrier{msg: msg})

	ctx, span := t.tracer.Start(ctx, fmt.Sprintf("%s process", msg.Topic),
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String(MessagingSystemKey, "kafka"),
			attribute.String(MessagingDestinationNameKey, msg.Topic),
			attribute.Int(MessagingDestinationPartitionID, int(msg.Partition)),
			attribute.String(MessagingOperationNameKey, "process"),
			attribute.Int64(MessagingKafkaOffsetKey, msg.Offset),
		),
	)

	if msg.Key != nil {
		span.SetAttributes(attribute.String(MessagingKafkaMessageKeyKey, string(msg.Key)))
	}

	return ctx, endSpanFunc(span)
}

// Inject writes the trace context from ctx into the message headers
func (t *TracingService) Inject(ctx context.Context, msg *Message) {
	t.propagator.Inject(ctx, headerCarrier{msg: msg})
}

func endSpanFunc(span trace.Span) func(error) {
	return func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// headerCarrier implements propagation.TextMapCarrier over Message headers
type headerCarrier struct {
	msg *Message
}

func (c headerCarrier) Get(key string) string {
	return string(c.msg.Headers[key])
}

func (c headerCarrier) Set(key, val string) {
	if c.msg.Headers == nil {
		c.msg.Headers = make(Headers)
	}
	c.msg.Headers[key] = []byte(val)
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.msg.Headers))
	for k := range c.msg.Headers {
		keys = append(keys, k)
	}
	return keys
}
