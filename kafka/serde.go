package kafka

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
)

// Serializer turns a value into record bytes
type Serializer[T any] func(T) ([]byte, error)

// Deserializer turns record bytes back into a value
type Deserializer[T any] func([]byte) (T, error)

// JSONSerializer returns a Serializer that encodes values as JSON
func JSONSerializer[T any]() Serializer[T] {
	return func(v T) ([]byte, error) {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize value: %w", err)
		}
		return data, nil
	}
}

// JSONDeserializer returns a Deserializer that decodes JSON record values
func JSONDeserializer[T any]() Deserializer[T] {
	return func(data []byte) (T, error) {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return v, fmt.Errorf("failed to deserialize value: %w", err)
		}
		return v, nil
	}
}

// StringSerializer encodes a string value verbatim
func StringSerializer() Serializer[string] {
	return func(v string) ([]byte, error) {
		return []byte(v), nil
	}
}

// StringDeserializer decodes a record value as a string
func StringDeserializer() Deserializer[string] {
	return func(data []byte) (string, error) {
		return string(data), nil
	}
}

// EncodeMessage builds a Message from a key and a typed value
func EncodeMessage[T any](serialize Serializer[T], key []byte, value T) (*Message, error) {
	data, err := serialize(value)
	if err != nil {
		return nil, err
	}
	return &Message{Key: key, Value: data}, nil
}

// DecodeHandler adapts a typed handler into a RecordHandler. A decode
// failure is a handler failure: it ends the poll loop that dispatched the
// record.
func DecodeHandler[T any](deserialize Deserializer[T], handler func(ctx context.Context, value T, msg *Message) error) RecordHandler {
	return func(ctx context.Context, msg *Message) error {
		value, err := deserialize(msg.Value)
		if err != nil {
			return fmt.Errorf("decode failed for topic %s offset %d: %w", msg.Topic, msg.Offset, err)
		}
		return handler(ctx, value, msg)
	}
}
