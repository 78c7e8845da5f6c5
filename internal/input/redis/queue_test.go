package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducerConsumerRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := Config{Addr: mr.Addr(), Key: "jobs", BlockTimeout: 50 * time.Millisecond}

	producer, err := NewProducer(cfg)
	require.NoError(t, err)
	defer producer.Close()
	consumer, err := NewConsumer(cfg)
	require.NoError(t, err)
	defer consumer.Close()

	ctx := context.Background()
	n, err := producer.Push(ctx, []byte(`{"a":1}`), []byte(`{"b":2}`))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	first, err := consumer.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(first))

	second, err := consumer.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"b":2}`, string(second))
}

func TestConsumerPopEmptyQueue(t *testing.T) {
	mr := miniredis.RunT(t)
	consumer, err := NewConsumer(Config{Addr: mr.Addr(), Key: "jobs", BlockTimeout: 20 * time.Millisecond})
	require.NoError(t, err)
	defer consumer.Close()

	payload, err := consumer.Pop(context.Background())
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestConfigRequiresKey(t *testing.T) {
	_, err := NewConsumer(Config{Addr: "127.0.0.1:6379"})
	assert.Error(t, err)
	_, err = NewProducer(Config{})
	assert.Error(t, err)
}
