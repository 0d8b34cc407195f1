package redis

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/solar-lifecycle-api/pkg/logger"
	"github.com/jwalitptl/solar-lifecycle-api/pkg/metrics"
)

func TestNewRedisBroker_InvalidURL(t *testing.T) {
	_, err := NewRedisBroker(context.Background(), Config{URL: "not a url"}, logger.Nop(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse Redis URL")
}

func TestPublish_OpensBreakerAfterRepeatedFailures(t *testing.T) {
	// Nothing listens on port 1, so every publish fails fast.
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	m := metrics.NewMetrics(prometheus.NewRegistry(), "test")
	b := newBroker(client, logger.Nop(), m)
	t.Cleanup(func() { b.Close() })

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		err := b.Publish(ctx, "lifecycle_events", map[string]string{"n": "x"})
		require.Error(t, err)
	}

	err := b.Publish(ctx, "lifecycle_events", map[string]string{"n": "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, float64(6), testutil.ToFloat64(m.RedisOperations.WithLabelValues("publish", "error")))
}

func TestPublish_RejectsUnencodableMessage(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	b := newBroker(client, logger.Nop(), nil)
	t.Cleanup(func() { b.Close() })

	err := b.Publish(context.Background(), "lifecycle_events", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to marshal message")
}
