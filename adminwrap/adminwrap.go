// Package adminwrap wraps a franz-go admin client behind two narrow
// interfaces, ReadOnlyAdmin and WriteOnlyAdmin, so the orchestrator never
// has to assume both directions share a connection or even an
// implementation.
package adminwrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/grafana/dskit/backoff"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/flowbase-io/topicmgr/tmerrors"
)

// Config keys this package reads and writes. unclean.leader.election.enable
// is always written as "false"; max.message.bytes and segment.bytes are
// optional and only written when the caller supplies a non-zero value.
const (
	ConfigRetentionMs         = "retention.ms"
	ConfigCleanupPolicy       = "cleanup.policy"
	ConfigMinCompactionLagMs  = "min.compaction.lag.ms"
	ConfigMinInSyncReplicas   = "min.insync.replicas"
	ConfigUncleanLeaderElect  = "unclean.leader.election.enable"
	ConfigMaxMessageBytes     = "max.message.bytes"
	ConfigSegmentBytes        = "segment.bytes"
	ConfigMessageTimestampTy  = "message.timestamp.type"
	CleanupPolicyDelete       = "delete"
	CleanupPolicyCompact      = "compact"
	MessageTimestampLogAppend = "LogAppendTime"
)

// UnknownRetentionMs is the sentinel GetAllTopicRetentions reports for a
// topic whose config read failed. A topic whose config was read but carries
// no retention.ms entry reports 0, not this sentinel.
const UnknownRetentionMs int64 = -1

// TopicConfig is the subset of per-topic broker configuration the topic
// manager cares about. MinInSyncReplicas, MaxMessageBytes, and SegmentBytes
// are "present or absent" values: zero means "caller did not set it",
// matching the broker's own optional-config semantics rather than writing
// an explicit zero.
type TopicConfig struct {
	RetentionMs        int64
	CleanupPolicy      string
	MinCompactionLagMs int64
	MinInSyncReplicas  int
	MaxMessageBytes    int
	SegmentBytes       int
}

// PartitionInfo is the liveness/placement detail for one partition.
type PartitionInfo struct {
	Partition int32
	Leader    int32
	Replicas  []int32
	ISR       []int32
	Online    bool
}

// TopicDescription is everything ListTopics returns about one topic.
type TopicDescription struct {
	Name       string
	Partitions []PartitionInfo
	Config     TopicConfig
}

// ReadOnlyAdmin is the read surface of the admin client wrapper.
type ReadOnlyAdmin interface {
	ListTopics(ctx context.Context, topics ...string) (map[string]TopicDescription, error)
	DescribeTopicConfig(ctx context.Context, topic string) (TopicConfig, error)
	TopicExists(ctx context.Context, topic string) (bool, error)
	IsTopicDeletionUnderway(ctx context.Context, topic string) (bool, error)
	GetSomeTopicConfigs(ctx context.Context, topics []string) (map[string]TopicConfig, error)
	GetAllTopicRetentions(ctx context.Context) (map[string]int64, error)
	ContainsTopicWithExpectationAndRetry(ctx context.Context, topic string, expectedPartitions int) (bool, error)
}

// WriteOnlyAdmin is the write surface of the admin client wrapper.
type WriteOnlyAdmin interface {
	CreateTopic(ctx context.Context, topic string, partitions int32, replicationFactor int16, cfg TopicConfig) error
	DeleteTopic(ctx context.Context, topic string) error
	AlterTopicConfig(ctx context.Context, topic string, cfg TopicConfig) error
	UpdatePartitionCount(ctx context.Context, topic string, newPartitionCount int) error
}

// Client implements both ReadOnlyAdmin and WriteOnlyAdmin over one
// *kadm.Client. Nothing stops a caller from handing out two Clients wrapping
// two different kadm.Clients for the read and write roles; the orchestrator
// never assumes otherwise.
type Client struct {
	adm *kadm.Client
	cl  *kgo.Client
	log *zap.Logger
}

// New wraps an existing kadm.Client together with the *kgo.Client it was
// built from (kadm.NewClient(cl) keeps no exported handle back to cl, so
// Close needs it retained separately). log may be nil, in which case a
// no-op logger is used.
func New(adm *kadm.Client, cl *kgo.Client, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{adm: adm, cl: cl, log: log}
}

// Close releases the underlying kgo.Client. Safe to call on a Client built
// around a nil kgo.Client (e.g. in tests that only exercise translation
// helpers); a nil *kgo.Client is a no-op.
func (c *Client) Close() error {
	if c.cl != nil {
		c.cl.Close()
	}
	return nil
}

func toConfigEntries(cfg TopicConfig) map[string]*string {
	entries := map[string]*string{
		ConfigRetentionMs:        kadm.StringPtr(fmt.Sprintf("%d", cfg.RetentionMs)),
		ConfigCleanupPolicy:      kadm.StringPtr(cfg.CleanupPolicy),
		ConfigUncleanLeaderElect: kadm.StringPtr("false"),
		ConfigMessageTimestampTy: kadm.StringPtr(MessageTimestampLogAppend),
	}
	if cfg.CleanupPolicy == CleanupPolicyCompact && cfg.MinCompactionLagMs > 0 {
		entries[ConfigMinCompactionLagMs] = kadm.StringPtr(fmt.Sprintf("%d", cfg.MinCompactionLagMs))
	}
	if cfg.MinInSyncReplicas > 0 {
		entries[ConfigMinInSyncReplicas] = kadm.StringPtr(fmt.Sprintf("%d", cfg.MinInSyncReplicas))
	}
	if cfg.MaxMessageBytes > 0 {
		entries[ConfigMaxMessageBytes] = kadm.StringPtr(fmt.Sprintf("%d", cfg.MaxMessageBytes))
	}
	if cfg.SegmentBytes > 0 {
		entries[ConfigSegmentBytes] = kadm.StringPtr(fmt.Sprintf("%d", cfg.SegmentBytes))
	}
	return entries
}

// CreateTopic creates topic with the given partition count, replication
// factor, and configuration. If the topic already exists, this returns
// tmerrors.ErrTopicExists so the orchestrator can decide whether that is
// fine (idempotent create) or an error (strict create).
func (c *Client) CreateTopic(ctx context.Context, topic string, partitions int32, replicationFactor int16, cfg TopicConfig) error {
	resp, err := c.adm.CreateTopics(ctx, partitions, replicationFactor, toConfigEntries(cfg), topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	result, ok := resp[topic]
	if !ok {
		return fmt.Errorf("create topic %s: no response from broker", topic)
	}
	if result.Err != nil {
		classified := tmerrors.Classify(result.Err)
		if errors.Is(classified, tmerrors.ErrTopicExists) {
			return fmt.Errorf("create topic %s: %w", topic, classified)
		}
		return fmt.Errorf("create topic %s: %w", topic, classified)
	}
	c.log.Info("topic created",
		zap.String("topic", topic),
		zap.Int32("partitions", partitions),
		zap.Int16("replication_factor", replicationFactor),
	)
	return nil
}

// DeleteTopic requests deletion of topic. A not-found response is treated as
// success (delete is idempotent at this layer; it is the orchestrator's job
// to poll for actual removal).
func (c *Client) DeleteTopic(ctx context.Context, topic string) error {
	resp, err := c.adm.DeleteTopics(ctx, topic)
	if err != nil {
		return fmt.Errorf("delete topic %s: %w", topic, err)
	}
	result, ok := resp[topic]
	if !ok {
		return fmt.Errorf("delete topic %s: no response from broker", topic)
	}
	if result.Err != nil {
		classified := tmerrors.Classify(result.Err)
		if errors.Is(classified, tmerrors.ErrTopicDoesNotExist) {
			return nil
		}
		return fmt.Errorf("delete topic %s: %w", topic, classified)
	}
	c.log.Info("topic deleted", zap.String("topic", topic))
	return nil
}

// AlterTopicConfig replaces the tracked config keys for topic with cfg's
// values. Unset optional fields (MinInSyncReplicas == 0, etc.) are left
// untouched on the broker rather than cleared.
func (c *Client) AlterTopicConfig(ctx context.Context, topic string, cfg TopicConfig) error {
	entries := toConfigEntries(cfg)
	alters := make([]kadm.AlterConfig, 0, len(entries))
	for k, v := range entries {
		alters = append(alters, kadm.AlterConfig{Op: kadm.SetConfig, Name: k, Value: v})
	}
	resp, err := c.adm.AlterTopicConfigs(ctx, alters, topic)
	if err != nil {
		return fmt.Errorf("alter topic config %s: %w", topic, err)
	}
	result, ok := resp[topic]
	if !ok {
		return fmt.Errorf("alter topic config %s: no response from broker", topic)
	}
	if result.Err != nil {
		return fmt.Errorf("alter topic config %s: %w", topic, tmerrors.Classify(result.Err))
	}
	return nil
}

// UpdatePartitionCount increases the partition count for topic. Kafka does
// not support shrinking partition counts; callers must ensure
// newPartitionCount is not smaller than the current count.
func (c *Client) UpdatePartitionCount(ctx context.Context, topic string, newPartitionCount int) error {
	resp, err := c.adm.UpdatePartitions(ctx, newPartitionCount, topic)
	if err != nil {
		return fmt.Errorf("update partition count %s: %w", topic, err)
	}
	result, ok := resp[topic]
	if !ok {
		return fmt.Errorf("update partition count %s: no response from broker", topic)
	}
	if result.Err != nil {
		return fmt.Errorf("update partition count %s: %w", topic, tmerrors.Classify(result.Err))
	}
	return nil
}

// ListTopics describes the given topics, or every topic on the cluster if
// none are given.
func (c *Client) ListTopics(ctx context.Context, topics ...string) (map[string]TopicDescription, error) {
	details, err := c.adm.ListTopics(ctx, topics...)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	out := make(map[string]TopicDescription, len(details))
	for name, td := range details {
		if td.Err != nil {
			if errors.Is(tmerrors.Classify(td.Err), tmerrors.ErrTopicDoesNotExist) {
				continue
			}
			return nil, fmt.Errorf("list topics: topic %s: %w", name, tmerrors.Classify(td.Err))
		}
		desc := TopicDescription{Name: name}
		for _, pd := range td.Partitions.Sorted() {
			desc.Partitions = append(desc.Partitions, PartitionInfo{
				Partition: pd.Partition,
				Leader:    pd.Leader,
				Replicas:  pd.Replicas,
				ISR:       pd.ISR,
				Online:    pd.Err == nil && len(pd.ISR) > 0,
			})
		}
		out[name] = desc
	}
	return out, nil
}

// DescribeTopicConfig reads back the broker's current configuration for
// topic.
func (c *Client) DescribeTopicConfig(ctx context.Context, topic string) (TopicConfig, error) {
	resp, err := c.adm.DescribeTopicConfigs(ctx, topic)
	if err != nil {
		return TopicConfig{}, fmt.Errorf("describe topic config %s: %w", topic, err)
	}
	rc, ok := resp[topic]
	if !ok {
		return TopicConfig{}, fmt.Errorf("describe topic config %s: no response from broker", topic)
	}
	if rc.Err != nil {
		return TopicConfig{}, fmt.Errorf("describe topic config %s: %w", topic, tmerrors.Classify(rc.Err))
	}
	return resourceConfigToTopicConfig(rc.Configs), nil
}

// resourceConfigToTopicConfig parses the broker's raw config-entry list into
// the subset this package tracks. Shared by DescribeTopicConfig and
// GetSomeTopicConfigs so both read the same keys the same way.
func resourceConfigToTopicConfig(entries []kadm.Config) TopicConfig {
	var cfg TopicConfig
	for _, e := range entries {
		if e.Value == nil {
			continue
		}
		switch e.Key {
		case ConfigRetentionMs:
			fmt.Sscanf(*e.Value, "%d", &cfg.RetentionMs)
		case ConfigCleanupPolicy:
			cfg.CleanupPolicy = *e.Value
		case ConfigMinCompactionLagMs:
			fmt.Sscanf(*e.Value, "%d", &cfg.MinCompactionLagMs)
		case ConfigMinInSyncReplicas:
			fmt.Sscanf(*e.Value, "%d", &cfg.MinInSyncReplicas)
		case ConfigMaxMessageBytes:
			fmt.Sscanf(*e.Value, "%d", &cfg.MaxMessageBytes)
		case ConfigSegmentBytes:
			fmt.Sscanf(*e.Value, "%d", &cfg.SegmentBytes)
		}
	}
	return cfg
}

// GetSomeTopicConfigs batch-fetches configuration for every topic in topics
// in a single round trip, rather than one DescribeTopicConfig call per
// topic. Topics the broker reports an error for, or does not answer for,
// are omitted from the result rather than failing the whole batch; the call
// itself fails only when the describe request as a whole fails.
func (c *Client) GetSomeTopicConfigs(ctx context.Context, topics []string) (map[string]TopicConfig, error) {
	if len(topics) == 0 {
		return map[string]TopicConfig{}, nil
	}
	resp, err := c.adm.DescribeTopicConfigs(ctx, topics...)
	if err != nil {
		return nil, fmt.Errorf("get some topic configs: %w", err)
	}
	out := make(map[string]TopicConfig, len(topics))
	for _, topic := range topics {
		rc, ok := resp[topic]
		if !ok {
			continue
		}
		if rc.Err != nil {
			c.log.Warn("get some topic configs: topic failed, omitting",
				zap.String("topic", topic), zap.Error(rc.Err))
			continue
		}
		out[topic] = resourceConfigToTopicConfig(rc.Configs)
	}
	return out, nil
}

// GetAllTopicRetentions returns retention.ms for every topic on the cluster.
// A topic whose retention could not be read (config fetch failure) maps to
// UnknownRetentionMs rather than being omitted, so callers can distinguish
// "checked and unknown" from "never asked about".
func (c *Client) GetAllTopicRetentions(ctx context.Context) (map[string]int64, error) {
	descs, err := c.ListTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("get all topic retentions: %w", err)
	}
	names := make([]string, 0, len(descs))
	for name := range descs {
		names = append(names, name)
	}
	configs, err := c.GetSomeTopicConfigs(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("get all topic retentions: %w", err)
	}
	out := make(map[string]int64, len(names))
	for _, name := range names {
		cfg, ok := configs[name]
		if !ok {
			out[name] = UnknownRetentionMs
			continue
		}
		out[name] = cfg.RetentionMs
	}
	return out, nil
}

// TopicExists reports whether topic currently exists on the cluster.
func (c *Client) TopicExists(ctx context.Context, topic string) (bool, error) {
	details, err := c.adm.ListTopics(ctx, topic)
	if err != nil {
		return false, fmt.Errorf("topic exists %s: %w", topic, err)
	}
	return details.Has(topic), nil
}

// IsTopicDeletionUnderway reports whether topic still exists but every
// partition is currently offline. kadm's metadata surface has no dedicated
// in-flight-deletion flag (that lives in broker-internal/ZK state this
// client never sees), so "exists with every partition offline" is the
// closest observable proxy: a topic mid-teardown stops reporting a leader
// for its partitions well before it disappears from ListTopics entirely.
func (c *Client) IsTopicDeletionUnderway(ctx context.Context, topic string) (bool, error) {
	descs, err := c.ListTopics(ctx, topic)
	if err != nil {
		return false, fmt.Errorf("is topic deletion underway %s: %w", topic, err)
	}
	desc, ok := descs[topic]
	if !ok || len(desc.Partitions) == 0 {
		return false, nil
	}
	for _, p := range desc.Partitions {
		if p.Online {
			return false, nil
		}
	}
	return true, nil
}

// ContainsTopicWithExpectationAndRetry polls ListTopics until topic exists
// with exactly expectedPartitions partitions (when expectedPartitions > 0)
// and every partition is online, using dskit/backoff bounded only by ctx's
// deadline. This is the one generic, reusable "wait for topic readiness"
// primitive; callers needing a bounded wait should pass a context with a
// deadline.
func (c *Client) ContainsTopicWithExpectationAndRetry(ctx context.Context, topic string, expectedPartitions int) (bool, error) {
	retry := backoff.New(ctx, backoff.Config{
		MinBackoff: 200 * time.Millisecond,
		MaxBackoff: 200 * time.Millisecond,
		MaxRetries: 0, // bounded only by ctx's deadline
	})
	for {
		ready, err := c.containsTopicWithExpectation(ctx, topic, expectedPartitions)
		if err == nil && ready {
			return true, nil
		}
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		retry.Wait()
		if !retry.Ongoing() && ctx.Err() != nil {
			return false, ctx.Err()
		}
	}
}

func (c *Client) containsTopicWithExpectation(ctx context.Context, topic string, expectedPartitions int) (bool, error) {
	descs, err := c.ListTopics(ctx, topic)
	if err != nil {
		return false, fmt.Errorf("contains topic %s: %w", topic, err)
	}
	desc, ok := descs[topic]
	if !ok || len(desc.Partitions) == 0 {
		return false, nil
	}
	if expectedPartitions > 0 && len(desc.Partitions) != expectedPartitions {
		return false, nil
	}
	for _, p := range desc.Partitions {
		if !p.Online {
			return false, nil
		}
	}
	return true, nil
}

// ListEndOffsets, ListStartOffsets, and ListOffsetsAfterMilli delegate
// directly to the wrapped kadm.Client. They exist on Client (rather than
// only on the raw kadm type) so offsetfetcher can depend on this package's
// own Client without reaching past it for a second, separately-constructed
// kadm handle.

// ListEndOffsets returns the newest (high watermark) offset for each
// partition of the given topics.
func (c *Client) ListEndOffsets(ctx context.Context, topics ...string) (kadm.ListedOffsets, error) {
	return c.adm.ListEndOffsets(ctx, topics...)
}

// ListStartOffsets returns the oldest (log start) offset for each partition
// of the given topics.
func (c *Client) ListStartOffsets(ctx context.Context, topics ...string) (kadm.ListedOffsets, error) {
	return c.adm.ListStartOffsets(ctx, topics...)
}

// ListOffsetsAfterMilli returns the first offset after the given millisecond
// timestamp for each partition of the given topics.
func (c *Client) ListOffsetsAfterMilli(ctx context.Context, millisecond int64, topics ...string) (kadm.ListedOffsets, error) {
	return c.adm.ListOffsetsAfterMilli(ctx, millisecond, topics...)
}

var _ ReadOnlyAdmin = (*Client)(nil)
var _ WriteOnlyAdmin = (*Client)(nil)
