package topicmgr

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 3, cfg.ConsumerPollRetryTimes)
	assert.Equal(t, int32(1<<20), cfg.ReceiveBufferBytes)
	assert.False(t, cfg.ConcurrentTopicDeletionAllowed)
	assert.Equal(t, int64(DefaultTopicRetentionPolicy/time.Millisecond), cfg.DefaultTopicRetentionPolicyMs)
}

func TestOptsApplyOverDefaults(t *testing.T) {
	cfg := DefaultConfig()
	opts := []Opt{
		WithBootstrap("broker-a:9092", "broker-b:9092"),
		WithCacheTTL(time.Minute),
		WithConcurrentTopicDeletionAllowed(true),
		WithKafkaOperationTimeout(10 * time.Second),
	}
	for _, o := range opts {
		o(&cfg)
	}

	assert.Equal(t, []string{"broker-a:9092", "broker-b:9092"}, cfg.Bootstrap)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.True(t, cfg.ConcurrentTopicDeletionAllowed)
	assert.Equal(t, 10*time.Second, cfg.KafkaOperationTimeout)
}

func TestEnvOverridesAppliesValidValues(t *testing.T) {
	t.Setenv("consumer.poll.retry.times", "7")
	t.Setenv("receive.buffer.bytes", "2048")
	t.Setenv("CLUSTER_BOOTSTRAP_SERVERS", "b1:9092,b2:9092,b3:9092")

	cfg := DefaultConfig()
	require.NoError(t, cfg.EnvOverrides())

	assert.Equal(t, 7, cfg.ConsumerPollRetryTimes)
	assert.Equal(t, int32(2048), cfg.ReceiveBufferBytes)
	assert.Equal(t, []string{"b1:9092", "b2:9092", "b3:9092"}, cfg.Bootstrap)
}

func TestEnvOverridesIgnoresUnsetVars(t *testing.T) {
	os.Unsetenv("consumer.poll.retry.times")
	cfg := DefaultConfig()
	before := cfg.ConsumerPollRetryTimes

	require.NoError(t, cfg.EnvOverrides())

	assert.Equal(t, before, cfg.ConsumerPollRetryTimes)
}

func TestEnvOverridesReportsMalformedValue(t *testing.T) {
	t.Setenv("consumer.poll.retry.times", "not-a-number")
	cfg := DefaultConfig()

	err := cfg.EnvOverrides()
	require.Error(t, err)
}

func TestSplitCommaList(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a,b,c", []string{"a", "b", "c"}},
		{"a,,b", []string{"a", "b"}},
		{",a,", []string{"a"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, splitCommaList(tc.in))
	}
}
