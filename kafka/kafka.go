// Package kafka provides an ergonomic wrapper around confluent-kafka-go
// for producing, consuming, and (de)serializing records, plus a background
// poll-loop abstraction for continuous consumption.
//
// The poll loop repeatedly fetches a batch of records from a consumer,
// dispatches each record in order to a handler, and keeps going until it is
// stopped or a fetch/handler failure ends it. Cancellation is cooperative:
// the stop request is observed at iteration boundaries, so an in-flight
// record is never half-processed. Stopping blocks until the loop has fully
// exited and returns the loop's terminal outcome.
//
// Quick Start:
//
//	// Create consumer
//	consumer, err := kafka.NewConsumer(
//	    kafka.ConsumerWithBrokers("localhost:9092"),
//	    kafka.WithGroupID("my-group"),
//	    kafka.WithTopics("orders"),
//	)
//
//	// Start a poll loop
//	loop := kafka.StartPollLoop(consumer, func(ctx context.Context, msg *kafka.Message) error {
//	    // Process record
//	    return nil
//	}, kafka.WithAutoClose(true))
//
//	// ... later: stop and inspect the outcome
//	if err := loop.Stop(); err != nil {
//	    log.Fatalf("loop died: %v", err)
//	}
//
// Producing is a plain pass-through to the underlying client:
//
//	client, err := kafka.NewClient(kafka.WithBrokers("localhost:9092"))
//	err = client.Send(ctx, "orders", &kafka.Message{Value: payload})
package kafka

// Version of the library
const Version = "1.0.0"
