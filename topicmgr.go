// Package topicmgr is a single-broker-cluster façade over topic lifecycle
// and metadata: creating topics with precise retention and compaction
// policies, observing their readiness, updating configuration, deleting
// them reliably despite asynchronous broker behavior, and answering
// offset/metadata queries.
//
// Manager composes an admin client wrapper, a partition offset fetcher, and
// a topic config cache. It is not globally locked: UpdateTopicCompactionPolicy,
// ListTopics, ContainsTopicAndAllPartitionsAreOnline, and Close are
// mutually exclusive with each other via one instance mutex;
// EnsureTopicIsDeletedAndBlock deliberately is not, so a slow delete never
// freezes unrelated metadata queries.
package topicmgr

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/grafana/dskit/backoff"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/flowbase-io/topicmgr/adminwrap"
	"github.com/flowbase-io/topicmgr/clientfactory"
	"github.com/flowbase-io/topicmgr/configcache"
	"github.com/flowbase-io/topicmgr/offsetfetcher"
	"github.com/flowbase-io/topicmgr/rawconsumer"
	"github.com/flowbase-io/topicmgr/tmerrors"
	"github.com/flowbase-io/topicmgr/tmmetrics"
)

// CreateTopicOptions carries the inputs to CreateTopic. Eternal and
// RetentionMs are mutually exclusive: when Eternal is true, RetentionMs is
// ignored and the topic is created with Eternal retention.
type CreateTopicOptions struct {
	Eternal           bool
	RetentionMs       int64
	Compaction        bool
	MinCompactionLagMs int64
	// MinInSyncReplicas is present/absent: 0 means "caller did not set it".
	MinInSyncReplicas int
	UseFastTimeout    bool
}

func (o CreateTopicOptions) resolveRetentionMs(defaultMs int64) int64 {
	if o.Eternal {
		return Eternal
	}
	if o.RetentionMs > 0 {
		return o.RetentionMs
	}
	return defaultMs
}

func (o CreateTopicOptions) toTopicConfig(defaultRetentionMs int64) adminwrap.TopicConfig {
	cfg := adminwrap.TopicConfig{
		RetentionMs:       o.resolveRetentionMs(defaultRetentionMs),
		MinInSyncReplicas: o.MinInSyncReplicas,
	}
	if o.Compaction {
		cfg.CleanupPolicy = adminwrap.CleanupPolicyCompact
		cfg.MinCompactionLagMs = o.MinCompactionLagMs
	} else {
		cfg.CleanupPolicy = adminwrap.CleanupPolicyDelete
	}
	return cfg
}

// Manager is the Topic Manager. Construct with New.
type Manager struct {
	cfg     Config
	factory *clientfactory.Factory
	log     *zap.Logger
	metrics tmmetrics.Sink

	mu sync.Mutex // guards UpdateTopicCompactionPolicy, ListTopics, ContainsTopicAndAllPartitionsAreOnline, Close

	readAdminOnce sync.Once
	readAdminErr  error
	readAdmin     *adminwrap.Client

	writeAdminOnce sync.Once
	writeAdminErr  error
	writeAdmin     *adminwrap.Client

	fetcherOnce sync.Once
	fetcherErr  error
	fetcher     *offsetfetcher.WithOffsetLister

	cache *configcache.Cache

	closed bool
}

// New constructs a Manager bound to one bootstrap endpoint. Admin clients
// are lazily constructed on first use.
func New(opts ...Opt) (*Manager, error) {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if len(cfg.Bootstrap) == 0 {
		return nil, fmt.Errorf("topicmgr: bootstrap list cannot be empty")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	metrics := cfg.MetricsSink
	if metrics == nil && cfg.Registerer != nil {
		metrics = tmmetrics.NewPrometheusSink(cfg.Registerer)
	}

	var factoryOpts []clientfactory.Opt
	if cfg.Registerer != nil {
		hooks := tmmetrics.NewConsumerHooksOpt(cfg.Registerer, "topicmgr")
		factoryOpts = append(factoryOpts, clientfactory.WithExtraOpts(kgo.WithHooks(hooks)))
	}

	return &Manager{
		cfg:     cfg,
		factory: clientfactory.New(cfg.Bootstrap, cfg.Logger, factoryOpts...),
		log:     cfg.Logger,
		metrics: metrics,
		cache:   configcache.New(cfg.CacheTTL),
	}, nil
}

func (m *Manager) recordOp(op string, start time.Time, err error) {
	if m.metrics == nil {
		return
	}
	bootstrap := ""
	if len(m.cfg.Bootstrap) > 0 {
		bootstrap = m.cfg.Bootstrap[0]
	}
	m.metrics.IncOperation(op, bootstrap, err == nil)
	m.metrics.ObserveLatency(op, bootstrap, time.Since(start))
}

func (m *Manager) getReadAdmin() (*adminwrap.Client, error) {
	m.readAdminOnce.Do(func() {
		m.readAdmin, m.readAdminErr = m.factory.NewAdmin()
	})
	return m.readAdmin, m.readAdminErr
}

func (m *Manager) getWriteAdmin() (*adminwrap.Client, error) {
	m.writeAdminOnce.Do(func() {
		m.writeAdmin, m.writeAdminErr = m.factory.NewAdmin()
	})
	return m.writeAdmin, m.writeAdminErr
}

func (m *Manager) getFetcher() (*offsetfetcher.WithOffsetLister, error) {
	m.fetcherOnce.Do(func() {
		admin, err := m.getReadAdmin()
		if err != nil {
			m.fetcherErr = err
			return
		}
		rc, err := m.factory.NewRawConsumer(rawconsumer.Config{
			PollRetryTimes:      m.cfg.ConsumerPollRetryTimes,
			PollRetryBackoffMin: m.cfg.ConsumerPollRetryBackoffMs,
			PollRetryBackoffMax: 2 * time.Second,
		})
		if err != nil {
			m.fetcherErr = err
			return
		}
		m.fetcher = offsetfetcher.NewWithOffsetLister(admin, rc, admin, m.log)
	})
	return m.fetcher, m.fetcherErr
}

// CreateTopic creates topic with the given partition count and replication
// factor, applying opts' retention/compaction/min-ISR policy. If the topic
// already exists, create recovers by waiting for readiness and then
// reconciling retention to the requested value, rather than failing.
func (m *Manager) CreateTopic(ctx context.Context, topic string, partitions int32, replicationFactor int16, opts CreateTopicOptions) error {
	start := time.Now()
	writeAdmin, err := m.getWriteAdmin()
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}

	timeout := m.cfg.KafkaOperationTimeout
	if opts.UseFastTimeout {
		timeout = m.cfg.FastKafkaOperationTimeout
	}
	deadline := time.Now().Add(timeout)
	cctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	desired := opts.toTopicConfig(m.cfg.DefaultTopicRetentionPolicyMs)

	retry := backoff.New(cctx, backoff.Config{
		MinBackoff: 200 * time.Millisecond,
		MaxBackoff: 1 * time.Second,
		MaxRetries: 10,
	})

	var lastErr error
	topicExisted := false
	for retry.Ongoing() {
		err := writeAdmin.CreateTopic(cctx, topic, partitions, replicationFactor, desired)
		if err == nil {
			lastErr = nil
			break
		}
		if errors.Is(err, tmerrors.ErrTopicExists) {
			topicExisted = true
			lastErr = nil
			break
		}
		lastErr = err
		if !m.isCreateRetriable(err) {
			wrapped := tmerrors.NewTimeoutError("create_topic:"+topic, time.Since(start), err)
			m.recordOp("create_topic", start, wrapped)
			return wrapped
		}
		m.log.Warn("create topic failed, retrying", zap.String("topic", topic), zap.Error(err))
		retry.Wait()
	}
	if lastErr != nil {
		err := tmerrors.NewTimeoutError("create_topic:"+topic, time.Since(start), lastErr)
		m.recordOp("create_topic", start, err)
		return err
	}

	if topicExisted {
		m.log.Info("create topic recovered from existing topic", zap.String("topic", topic))
		if _, err := m.waitForReadiness(cctx, topic, int(partitions)); err != nil {
			m.recordOp("create_topic", start, err)
			return err
		}
		if _, err := m.updateTopicRetentionLocked(cctx, topic, desired.RetentionMs); err != nil {
			m.recordOp("create_topic", start, err)
			return err
		}
		m.recordOp("create_topic", start, nil)
		return nil
	}

	m.cache.Put(topic, desired)
	if _, err := m.waitForReadiness(cctx, topic, int(partitions)); err != nil {
		m.recordOp("create_topic", start, err)
		return err
	}
	m.recordOp("create_topic", start, nil)
	return nil
}

// isCreateRetriable reports whether err is one of the two create failures
// the spec names as retry-worthy: an invalid replication factor (the
// cluster hasn't finished electing enough brokers yet) or a request
// timeout. This is narrower than tmerrors.IsRetriable's general
// kerr-marked-retriable check: kerr itself flags InvalidReplicationFactor
// as non-retriable (it is, for most callers), but this spec's create policy
// retries it anyway since a too-small broker set at topic-creation time is
// routinely transient during cluster bootstrap.
func (m *Manager) isCreateRetriable(err error) bool {
	return errors.Is(err, kerr.InvalidReplicationFactor) || errors.Is(err, kerr.RequestTimedOut)
}

func (m *Manager) waitForReadiness(ctx context.Context, topic string, expectedPartitions int) (bool, error) {
	start := time.Now()
	admin, err := m.getReadAdmin()
	if err != nil {
		return false, err
	}
	ready, err := admin.ContainsTopicWithExpectationAndRetry(ctx, topic, expectedPartitions)
	if err != nil {
		return false, tmerrors.NewTimeoutError("wait_for_readiness:"+topic, time.Since(start), err)
	}
	if !ready {
		return false, tmerrors.NewTimeoutError("wait_for_readiness:"+topic, time.Since(start), ctx.Err())
	}
	return true, nil
}

// ContainsTopicAndAllPartitionsAreOnline reports whether topic exists, its
// partition count matches expectedPartitions (when > 0), and every
// partition has at least one in-sync replica.
func (m *Manager) ContainsTopicAndAllPartitionsAreOnline(ctx context.Context, topic string, expectedPartitions int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.containsTopicAndAllPartitionsAreOnline(ctx, topic, expectedPartitions)
}

func (m *Manager) containsTopicAndAllPartitionsAreOnline(ctx context.Context, topic string, expectedPartitions int) (bool, error) {
	admin, err := m.getReadAdmin()
	if err != nil {
		return false, err
	}
	descs, err := admin.ListTopics(ctx, topic)
	if err != nil {
		return false, fmt.Errorf("contains topic %s: %w", topic, err)
	}
	desc, ok := descs[topic]
	if !ok {
		return false, nil
	}
	if expectedPartitions > 0 && len(desc.Partitions) != expectedPartitions {
		return false, nil
	}
	if len(desc.Partitions) == 0 {
		m.log.Warn("partition info fetch returned nothing, treating as not ready", zap.String("topic", topic))
		return false, nil
	}
	for _, p := range desc.Partitions {
		if !p.Online {
			return false, nil
		}
	}
	return true, nil
}

// UpdateTopicRetention writes a new retention.ms if it differs from the
// broker's current value, and reports whether it made a change. Idempotent.
func (m *Manager) UpdateTopicRetention(ctx context.Context, topic string, retentionMs int64) (bool, error) {
	start := time.Now()
	changed, err := m.updateTopicRetentionLocked(ctx, topic, retentionMs)
	m.recordOp("update_topic_retention", start, err)
	return changed, err
}

func (m *Manager) updateTopicRetentionLocked(ctx context.Context, topic string, retentionMs int64) (bool, error) {
	current, err := m.getTopicConfig(ctx, topic)
	if err != nil {
		return false, err
	}
	if current.RetentionMs == retentionMs {
		return false, nil
	}
	writeAdmin, err := m.getWriteAdmin()
	if err != nil {
		return false, err
	}
	next := current
	next.RetentionMs = retentionMs
	if err := writeAdmin.AlterTopicConfig(ctx, topic, next); err != nil {
		return false, fmt.Errorf("update topic retention %s: %w", topic, err)
	}
	m.cache.Put(topic, next)
	return true, nil
}

// UpdateTopicCompactionPolicy updates cleanup.policy and
// min.compaction.lag.ms only if they differ from the broker's current
// values. Mutually exclusive with ListTopics,
// ContainsTopicAndAllPartitionsAreOnline, and Close on this instance.
func (m *Manager) UpdateTopicCompactionPolicy(ctx context.Context, topic string, compaction bool, minCompactionLagMs int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	current, err := m.getTopicConfig(ctx, topic)
	if err != nil {
		m.recordOp("update_compaction_policy", start, err)
		return false, err
	}

	desiredPolicy := adminwrap.CleanupPolicyDelete
	desiredLag := int64(0)
	if compaction {
		desiredPolicy = adminwrap.CleanupPolicyCompact
		desiredLag = minCompactionLagMs
	}
	currentPolicy := current.CleanupPolicy
	if currentPolicy == "" {
		currentPolicy = adminwrap.CleanupPolicyDelete
	}
	currentLag := current.MinCompactionLagMs

	if currentPolicy == desiredPolicy && currentLag == desiredLag {
		m.recordOp("update_compaction_policy", start, nil)
		return false, nil
	}

	writeAdmin, err := m.getWriteAdmin()
	if err != nil {
		m.recordOp("update_compaction_policy", start, err)
		return false, err
	}
	next := current
	next.CleanupPolicy = desiredPolicy
	next.MinCompactionLagMs = desiredLag
	if err := writeAdmin.AlterTopicConfig(ctx, topic, next); err != nil {
		err = fmt.Errorf("update compaction policy %s: %w", topic, err)
		m.recordOp("update_compaction_policy", start, err)
		return false, err
	}
	m.cache.Put(topic, next)
	m.recordOp("update_compaction_policy", start, nil)
	return true, nil
}

// UpdateTopicMinInSyncReplicas updates min.insync.replicas only if it
// differs from the broker's current value.
func (m *Manager) UpdateTopicMinInSyncReplicas(ctx context.Context, topic string, minIsr int) (bool, error) {
	start := time.Now()
	current, err := m.getTopicConfig(ctx, topic)
	if err != nil {
		m.recordOp("update_min_isr", start, err)
		return false, err
	}
	if current.MinInSyncReplicas == minIsr {
		m.recordOp("update_min_isr", start, nil)
		return false, nil
	}
	writeAdmin, err := m.getWriteAdmin()
	if err != nil {
		m.recordOp("update_min_isr", start, err)
		return false, err
	}
	next := current
	next.MinInSyncReplicas = minIsr
	if err := writeAdmin.AlterTopicConfig(ctx, topic, next); err != nil {
		err = fmt.Errorf("update min isr %s: %w", topic, err)
		m.recordOp("update_min_isr", start, err)
		return false, err
	}
	m.cache.Put(topic, next)
	m.recordOp("update_min_isr", start, nil)
	return true, nil
}

// getTopicConfig reads through the cache, populating it on a miss.
func (m *Manager) getTopicConfig(ctx context.Context, topic string) (adminwrap.TopicConfig, error) {
	if cfg, ok := m.cache.Get(topic); ok {
		return cfg, nil
	}
	admin, err := m.getReadAdmin()
	if err != nil {
		return adminwrap.TopicConfig{}, err
	}
	cfg, err := admin.DescribeTopicConfig(ctx, topic)
	if err != nil {
		return adminwrap.TopicConfig{}, fmt.Errorf("get topic config %s: %w", topic, err)
	}
	m.cache.Put(topic, cfg)
	return cfg, nil
}

// GetTopicConfigWithRetry retries transient describe-config failures for up
// to cfg.KafkaAdminConfigRetryWindow.
func (m *Manager) GetTopicConfigWithRetry(ctx context.Context, topic string) (adminwrap.TopicConfig, error) {
	cctx, cancel := context.WithTimeout(ctx, m.cfg.KafkaAdminConfigRetryWindow)
	defer cancel()
	retry := backoff.New(cctx, backoff.Config{
		MinBackoff: 200 * time.Millisecond,
		MaxBackoff: 2 * time.Second,
		MaxRetries: 0,
	})
	var lastErr error
	for retry.Ongoing() {
		cfg, err := m.getTopicConfig(cctx, topic)
		if err == nil {
			return cfg, nil
		}
		if errors.Is(err, tmerrors.ErrTopicDoesNotExist) {
			return adminwrap.TopicConfig{}, err
		}
		if !tmerrors.IsRetriable(err) {
			return adminwrap.TopicConfig{}, err
		}
		lastErr = err
		retry.Wait()
	}
	return adminwrap.TopicConfig{}, tmerrors.NewTimeoutError("get_topic_config:"+topic, m.cfg.KafkaAdminConfigRetryWindow, lastErr)
}

// ListTopics lists every topic on the cluster. Mutually exclusive with
// UpdateTopicCompactionPolicy, ContainsTopicAndAllPartitionsAreOnline, and
// Close on this instance.
func (m *Manager) ListTopics(ctx context.Context) (map[string]adminwrap.TopicDescription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	admin, err := m.getReadAdmin()
	if err != nil {
		return nil, err
	}
	return admin.ListTopics(ctx)
}

// EnsureTopicIsDeletedAndBlock issues a delete for topic and blocks until
// the broker confirms removal (or the operation's deadline expires).
// Deliberately NOT guarded by the instance mutex, so a slow delete does not
// freeze unrelated metadata reads; at-most-one-delete-in-flight is the
// caller's responsibility, defensively backstopped by the already-gone
// check in step 1.
func (m *Manager) EnsureTopicIsDeletedAndBlock(ctx context.Context, topic string) error {
	start := time.Now()
	ready, err := m.containsTopicAndAllPartitionsAreOnline(ctx, topic, 0)
	if err != nil {
		return err
	}
	if !ready {
		// Already gone, or never existed.
		m.recordOp("delete_topic", start, nil)
		return nil
	}

	if !m.cfg.ConcurrentTopicDeletionAllowed {
		admin, err := m.getReadAdmin()
		if err != nil {
			return err
		}
		underway, err := admin.IsTopicDeletionUnderway(ctx, topic)
		if err != nil {
			return fmt.Errorf("ensure topic is deleted %s: %w", topic, err)
		}
		if underway {
			m.recordOp("delete_topic", start, tmerrors.ErrDeletionBusy)
			return fmt.Errorf("%s: %w", topic, tmerrors.ErrDeletionBusy)
		}
	}

	writeAdmin, err := m.getWriteAdmin()
	if err != nil {
		return err
	}

	deadline := time.Now().Add(m.cfg.KafkaOperationTimeout)
	dctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	if err := writeAdmin.DeleteTopic(dctx, topic); err != nil {
		if errors.Is(err, tmerrors.ErrTopicDoesNotExist) {
			m.recordOp("delete_topic", start, nil)
			return nil
		}
		m.recordOp("delete_topic", start, err)
		return fmt.Errorf("delete topic %s: %w", topic, err)
	}

	readAdmin, err := m.getReadAdmin()
	if err != nil {
		return err
	}

	pollInterval := m.cfg.TopicDeletionPollInterval
	maxIterations := int(m.cfg.KafkaOperationTimeout / pollInterval)
	if maxIterations < MinimumTopicDeletionStatusPollTimes {
		maxIterations = MinimumTopicDeletionStatusPollTimes
	}

	recreateEvery := 5
	for i := 0; i < maxIterations; i++ {
		select {
		case <-dctx.Done():
			err := tmerrors.NewTimeoutError("delete_topic:"+topic, time.Since(start), dctx.Err())
			m.recordOp("delete_topic", start, err)
			return err
		default:
		}

		exists, err := readAdmin.TopicExists(dctx, topic)
		if err != nil {
			m.log.Warn("delete topic existence poll failed", zap.String("topic", topic), zap.Error(err))
		} else if !exists {
			m.recordOp("delete_topic", start, nil)
			return nil
		}

		if i > 0 && i%recreateEvery == 0 {
			// The cadence counter doubles each time it fires, capped (with
			// overflow guard) at 100 iterations. No client is recreated
			// here: every iteration polls through the same read admin.
			recreateEvery *= 2
			if recreateEvery <= 0 || recreateEvery > 100 {
				recreateEvery = 100
			}
		}

		time.Sleep(pollInterval)
	}

	err = tmerrors.NewTimeoutError("delete_topic:"+topic, time.Since(start), context.DeadlineExceeded)
	m.recordOp("delete_topic", start, err)
	return err
}

// EnsureTopicIsDeletedAndBlockWithRetry retries
// EnsureTopicIsDeletedAndBlock up to MaxTopicDeleteRetries times on timeout
// or execution failure.
func (m *Manager) EnsureTopicIsDeletedAndBlockWithRetry(ctx context.Context, topic string) error {
	var lastErr error
	for attempt := 0; attempt < MaxTopicDeleteRetries; attempt++ {
		lastErr = m.EnsureTopicIsDeletedAndBlock(ctx, topic)
		if lastErr == nil {
			return nil
		}
		m.log.Warn("ensure topic deleted attempt failed", zap.String("topic", topic), zap.Int("attempt", attempt), zap.Error(lastErr))
	}
	return lastErr
}

// IsTruncated reports whether topic is truncated: it does not exist, or its
// retention.ms is known and at or below thresholdMs. Unknown retention is
// treated as not truncated.
func (m *Manager) IsTruncated(ctx context.Context, topic string, thresholdMs int64) (bool, error) {
	cfg, err := m.getTopicConfig(ctx, topic)
	if err != nil {
		if errors.Is(err, tmerrors.ErrTopicDoesNotExist) {
			return true, nil
		}
		return false, err
	}
	if cfg.RetentionMs <= 0 {
		return false, nil
	}
	return cfg.RetentionMs <= thresholdMs, nil
}

// GetExpectedRetentionTimeMs derives the retention a hybrid store should use
// given a rewind time and a bootstrap-to-online time. Pure function: no
// side effects, monotone nondecreasing in both inputs, never below
// DefaultTopicRetentionPolicyMs.
func (m *Manager) GetExpectedRetentionTimeMs(rewind time.Duration, bootstrapToOnline time.Duration) int64 {
	derived := rewind + bootstrapToOnline + BufferReplayMinimalSafetyMargin
	derivedMs := int64(derived / time.Millisecond)
	if derivedMs < m.cfg.DefaultTopicRetentionPolicyMs {
		return m.cfg.DefaultTopicRetentionPolicyMs
	}
	return derivedMs
}

// GetReplicationFactor returns the largest replica-set size observed across
// topic's partitions.
func (m *Manager) GetReplicationFactor(ctx context.Context, topic string) (int, error) {
	admin, err := m.getReadAdmin()
	if err != nil {
		return 0, err
	}
	descs, err := admin.ListTopics(ctx, topic)
	if err != nil {
		return 0, fmt.Errorf("get replication factor %s: %w", topic, err)
	}
	desc, ok := descs[topic]
	if !ok {
		return 0, fmt.Errorf("get replication factor %s: %w", topic, tmerrors.ErrTopicDoesNotExist)
	}
	maxReplicas := 0
	for _, p := range desc.Partitions {
		if len(p.Replicas) > maxReplicas {
			maxReplicas = len(p.Replicas)
		}
	}
	return maxReplicas, nil
}

// GetTopicCompactionEnabled reports whether topic's cleanup.policy is
// compact.
func (m *Manager) GetTopicCompactionEnabled(ctx context.Context, topic string) (bool, error) {
	cfg, err := m.getTopicConfig(ctx, topic)
	if err != nil {
		return false, err
	}
	return cfg.CleanupPolicy == adminwrap.CleanupPolicyCompact, nil
}

// GetKafkaBootstrapServers returns the bootstrap list this Manager is bound
// to.
func (m *Manager) GetKafkaBootstrapServers() []string {
	return m.cfg.Bootstrap
}

// PartitionsFor, GetPartitionLatestOffsetAndRetry,
// GetPartitionEarliestOffsetAndRetry, GetPartitionOffsetByTime, and
// GetProducerTimestampOfLastDataRecord delegate to the composed offset
// fetcher, lazily constructing it on first use. The fetcher's
// GetTopicLatestOffsets has no Manager counterpart.

// PartitionsFor lists partition info for topic.
func (m *Manager) PartitionsFor(ctx context.Context, topic string) ([]adminwrap.PartitionInfo, error) {
	f, err := m.getFetcher()
	if err != nil {
		return nil, err
	}
	return f.PartitionsFor(ctx, topic)
}

// GetPartitionLatestOffsetAndRetry returns the latest offset for tp.
func (m *Manager) GetPartitionLatestOffsetAndRetry(ctx context.Context, tp offsetfetcher.TopicPartition, retries int) (int64, error) {
	f, err := m.getFetcher()
	if err != nil {
		return 0, err
	}
	return f.GetPartitionLatestOffsetAndRetry(ctx, tp, retries)
}

// GetPartitionEarliestOffsetAndRetry returns the earliest offset for tp.
func (m *Manager) GetPartitionEarliestOffsetAndRetry(ctx context.Context, tp offsetfetcher.TopicPartition, retries int) (int64, error) {
	f, err := m.getFetcher()
	if err != nil {
		return 0, err
	}
	return f.GetPartitionEarliestOffsetAndRetry(ctx, tp, retries)
}

// GetPartitionOffsetByTime looks up the first offset at or after
// timestampMs for tp.
func (m *Manager) GetPartitionOffsetByTime(ctx context.Context, tp offsetfetcher.TopicPartition, timestampMs int64) (int64, error) {
	f, err := m.getFetcher()
	if err != nil {
		return 0, err
	}
	return f.GetPartitionOffsetByTime(ctx, tp, timestampMs)
}

// GetProducerTimestampOfLastDataRecord returns the Kafka record timestamp
// of the non-control record at tp's tail offset, as described on
// offsetfetcher's method of the same name.
func (m *Manager) GetProducerTimestampOfLastDataRecord(ctx context.Context, tp offsetfetcher.TopicPartition, retries int) (time.Time, error) {
	f, err := m.getFetcher()
	if err != nil {
		return time.Time{}, err
	}
	return f.GetProducerTimestampOfLastDataRecord(ctx, tp, retries)
}

// Close releases the offset fetcher's raw consumer, the read-only admin,
// and the write-only admin, in that order, logging (not failing) on each
// one's error. Mutually exclusive with UpdateTopicCompactionPolicy,
// ListTopics, and ContainsTopicAndAllPartitionsAreOnline on this instance.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	if m.fetcher != nil {
		m.fetcher.Close()
	}
	if m.readAdmin != nil {
		if err := m.readAdmin.Close(); err != nil {
			m.log.Warn("close read admin", zap.Error(err))
		}
	}
	if m.writeAdmin != nil {
		if err := m.writeAdmin.Close(); err != nil {
			m.log.Warn("close write admin", zap.Error(err))
		}
	}
	m.log.Debug("topic manager closed")
	return nil
}
