package topicmgr

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/flowbase-io/topicmgr/tmmetrics"
)

// Eternal is the retention value meaning "never expire", mirroring the
// source system's effectively-infinite retention.
const Eternal int64 = math.MaxInt64

// BufferReplayMinimalSafetyMargin is added on top of rewind+bootstrap time
// when deriving expected retention for hybrid stores.
const BufferReplayMinimalSafetyMargin = 2 * 24 * time.Hour

// MinimumTopicDeletionStatusPollTimes bounds the legacy delete-polling loop
// from below, regardless of how short kafkaOperationTimeoutMs is configured.
const MinimumTopicDeletionStatusPollTimes = 10

// MaxTopicDeleteRetries bounds EnsureTopicIsDeletedAndBlockWithRetry.
const MaxTopicDeleteRetries = 3

// DefaultTopicRetentionPolicy is used whenever a create call does not
// request an eternal topic and does not supply its own retention.
const DefaultTopicRetentionPolicy = 5 * 24 * time.Hour

// Config holds every tunable the Topic Manager and its collaborators read.
// New starts from DefaultConfig and applies Opt functions on top; of the
// fields left at their zero value, only Logger is filled in by New.
type Config struct {
	Bootstrap []string

	CacheTTL time.Duration

	ConsumerPollRetryTimes      int
	ConsumerPollRetryBackoffMs  time.Duration
	ReceiveBufferBytes          int32
	KafkaAdminConfigRetryWindow time.Duration

	KafkaOperationTimeout     time.Duration
	FastKafkaOperationTimeout time.Duration
	TopicDeletionPollInterval time.Duration

	ConcurrentTopicDeletionAllowed bool
	DefaultTopicRetentionPolicyMs  int64

	Logger      *zap.Logger
	MetricsSink tmmetrics.Sink
	Registerer  prometheus.Registerer
}

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() Config {
	return Config{
		CacheTTL:                       5 * time.Minute,
		ConsumerPollRetryTimes:         3,
		ConsumerPollRetryBackoffMs:     0,
		ReceiveBufferBytes:             1 << 20,
		KafkaAdminConfigRetryWindow:    30 * time.Second,
		KafkaOperationTimeout:          30 * time.Second,
		FastKafkaOperationTimeout:      1 * time.Second,
		TopicDeletionPollInterval:      500 * time.Millisecond,
		ConcurrentTopicDeletionAllowed: false,
		DefaultTopicRetentionPolicyMs:  int64(DefaultTopicRetentionPolicy / time.Millisecond),
	}
}

// Opt configures a Config at construction time.
type Opt func(*Config)

// WithBootstrap sets the broker bootstrap list. Required.
func WithBootstrap(bootstrap ...string) Opt {
	return func(c *Config) { c.Bootstrap = bootstrap }
}

// WithLogger sets the structured logger. Defaults to zap.NewNop().
func WithLogger(log *zap.Logger) Opt {
	return func(c *Config) { c.Logger = log }
}

// WithMetricsSink sets the optional metrics sink.
func WithMetricsSink(sink tmmetrics.Sink) Opt {
	return func(c *Config) { c.MetricsSink = sink }
}

// WithRegisterer sets the Prometheus registerer used to build a default
// PrometheusSink when no explicit MetricsSink is supplied.
func WithRegisterer(reg prometheus.Registerer) Opt {
	return func(c *Config) { c.Registerer = reg }
}

// WithCacheTTL overrides the topic-config cache TTL.
func WithCacheTTL(ttl time.Duration) Opt {
	return func(c *Config) { c.CacheTTL = ttl }
}

// WithConcurrentTopicDeletionAllowed toggles whether
// EnsureTopicIsDeletedAndBlock may run concurrently with a deletion the
// broker already reports as underway for the same topic. When false (the
// default), a second concurrent delete is rejected with
// tmerrors.ErrDeletionBusy instead of racing the first to completion.
func WithConcurrentTopicDeletionAllowed(allowed bool) Opt {
	return func(c *Config) { c.ConcurrentTopicDeletionAllowed = allowed }
}

// WithKafkaOperationTimeout overrides the default (non-fast) per-retry-cycle
// deadline used by create/delete/polling operations.
func WithKafkaOperationTimeout(d time.Duration) Opt {
	return func(c *Config) { c.KafkaOperationTimeout = d }
}

// envOverride calls apply with the named environment variable's value if it
// is set and non-empty; otherwise it does nothing. A value apply rejects is
// returned as an error naming the key.
func envOverride(key string, apply func(string) error) error {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return nil
	}
	if err := apply(raw); err != nil {
		return fmt.Errorf("env %s=%q: %w", key, raw, err)
	}
	return nil
}

// EnvOverrides applies the process environment's topic-manager settings on
// top of c, matching the keys named in the external-interfaces contract:
// consumer.poll.retry.times, consumer.poll.retry.backoff.ms,
// kafka.admin.get.topic.config.max.retry.time.sec, receive.buffer.bytes, and
// CLUSTER_BOOTSTRAP_SERVERS. Malformed values are reported but do not
// prevent the rest of the overrides from applying.
func (c *Config) EnvOverrides() error {
	var errs []error

	errs = append(errs, envOverride("consumer.poll.retry.times", func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.ConsumerPollRetryTimes = n
		return nil
	}))
	errs = append(errs, envOverride("consumer.poll.retry.backoff.ms", func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.ConsumerPollRetryBackoffMs = time.Duration(n) * time.Millisecond
		return nil
	}))
	errs = append(errs, envOverride("kafka.admin.get.topic.config.max.retry.time.sec", func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.KafkaAdminConfigRetryWindow = time.Duration(n) * time.Second
		return nil
	}))
	errs = append(errs, envOverride("receive.buffer.bytes", func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.ReceiveBufferBytes = int32(n)
		return nil
	}))
	errs = append(errs, envOverride("CLUSTER_BOOTSTRAP_SERVERS", func(v string) error {
		c.Bootstrap = splitCommaList(v)
		return nil
	}))

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func splitCommaList(v string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(v); i++ {
		if i == len(v) || v[i] == ',' {
			if i > start {
				out = append(out, v[start:i])
			}
			start = i + 1
		}
	}
	return out
}
