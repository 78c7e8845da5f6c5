package redis

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

// Producer appends match jobs to the Redis list read by Consumer.
type Producer struct {
	client *redis.Client
	key    string
}

// NewProducer creates a producer for the same list a Consumer reads.
func NewProducer(cfg Config) (*Producer, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &Producer{client: newClient(cfg), key: cfg.Key}, nil
}

// Push appends payloads in order and returns the queue length afterwards.
func (p *Producer) Push(ctx context.Context, payloads ...[]byte) (int64, error) {
	if len(payloads) == 0 {
		return p.client.LLen(ctx, p.key).Result()
	}
	values := make([]interface{}, len(payloads))
	for i, payload := range payloads {
		values[i] = payload
	}
	n, err := p.client.RPush(ctx, p.key, values...).Result()
	if err != nil {
		return 0, fmt.Errorf("push to %s: %w", p.key, err)
	}
	return n, nil
}

// Close closes the producer.
func (p *Producer) Close() error {
	return p.client.Close()
}
