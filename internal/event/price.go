// Package event carries market events between the API and the worker over Redis streams.
package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kointos-backend/pkg/common"

	"github.com/redis/go-redis/v9"
)

// PriceEvent announces a new price for a symbol.
type PriceEvent struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	At     time.Time `json:"at"`

	// PublishedBy is the subject of the identity that wrote the price.
	PublishedBy string `json:"publishedBy,omitempty"`
}

// Publisher emits price events.
type Publisher interface {
	PublishPrice(ctx context.Context, evt PriceEvent) error
}

// StreamAdder is the part of the Redis client the publisher uses.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisPublisher appends events to the price update stream.
type RedisPublisher struct {
	client StreamAdder
	maxLen int64
}

// NewRedisPublisher creates a publisher. maxLen caps the stream length; zero leaves it unbounded.
func NewRedisPublisher(client StreamAdder, maxLen int64) *RedisPublisher {
	return &RedisPublisher{client: client, maxLen: maxLen}
}

// PublishPrice appends evt as JSON under the payload field.
func (p *RedisPublisher) PublishPrice(ctx context.Context, evt PriceEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal price event: %w", err)
	}
	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: common.RedisStreamPriceUpdate,
		Values: map[string]interface{}{common.RedisStreamPayloadKey: string(payload)},
		MaxLen: p.maxLen,
		Approx: p.maxLen > 0,
	}).Err()
}

// DecodePriceEvent reads a PriceEvent from a stream message.
func DecodePriceEvent(msg redis.XMessage) (PriceEvent, error) {
	var evt PriceEvent
	raw, ok := msg.Values[common.RedisStreamPayloadKey].(string)
	if !ok {
		return evt, errors.New("field 'payload' not found or not a string in stream message")
	}
	if err := json.Unmarshal([]byte(raw), &evt); err != nil {
		return evt, fmt.Errorf("failed to unmarshal price event: %w", err)
	}
	if evt.Symbol == "" {
		return evt, errors.New("price event without symbol")
	}
	return evt, nil
}
