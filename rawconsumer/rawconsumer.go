// Package rawconsumer wraps a franz-go client configured for direct
// partition consumption (no consumer group, no balancing). It mirrors the
// subset of kgo.Client's API the topic manager needs: subscribe/unsubscribe
// to explicit partitions, pause/resume fetching, and polling.
//
// Client is not safe for concurrent use. Every exported method must be
// called while the owning component holds whatever lock it uses to
// serialize access; this package does not lock internally, matching the
// underlying kgo.Client's own direct-partition API.
package rawconsumer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/grafana/dskit/backoff"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/flowbase-io/topicmgr/tmerrors"
)

// LowestOffset is the sentinel meaning "start from earliest available".
// Mirrors offsetfetcher.LowestOffset; duplicated here rather than imported
// since offsetfetcher already imports this package.
const LowestOffset int64 = -1

// Config controls retry behavior for Poll.
type Config struct {
	PollRetryTimes      int
	PollRetryBackoffMin time.Duration
	PollRetryBackoffMax time.Duration
}

// DefaultConfig mirrors the spec's default consumer.poll.retry.* values.
func DefaultConfig() Config {
	return Config{
		PollRetryTimes:      3,
		PollRetryBackoffMin: 0,
		PollRetryBackoffMax: 2 * time.Second,
	}
}

// Client wraps one *kgo.Client used purely for direct-partition consumption.
type Client struct {
	cl  *kgo.Client
	cfg Config
	log *zap.Logger

	subscribed map[string]map[int32]struct{}
	observed   map[string]map[int32]int64
}

// New builds a Client around an already-constructed kgo.Client. The caller
// owns bootstrap/TLS/SASL options; this package only adds the direct-
// partition consumption behavior on top.
func New(cl *kgo.Client, cfg Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		cl:         cl,
		cfg:        cfg,
		log:        log,
		subscribed: make(map[string]map[int32]struct{}),
		observed:   make(map[string]map[int32]int64),
	}
}

// Subscribe assigns topic-partition at the offset derived from
// lastReadOffset: if lastReadOffset is greater than LowestOffset, it seeks
// to lastReadOffset+1 (resume just past the last record the caller
// processed); otherwise it seeks to the earliest available offset. Calling
// Subscribe for a topic-partition that is already assigned is a no-op (the
// assignment is left exactly as it was, not reset).
func (c *Client) Subscribe(topic string, partition int32, lastReadOffset int64) {
	if c.IsSubscribed(topic, partition) {
		c.log.Warn("subscribe: topic-partition already subscribed, skipping",
			zap.String("topic", topic), zap.Int32("partition", partition))
		return
	}

	offset := kgo.NewOffset().AtStart()
	if lastReadOffset > LowestOffset {
		offset = kgo.NewOffset().At(lastReadOffset + 1)
	}
	c.cl.AddConsumePartitions(map[string]map[int32]kgo.Offset{topic: {partition: offset}})
	if c.subscribed[topic] == nil {
		c.subscribed[topic] = make(map[int32]struct{})
	}
	c.subscribed[topic][partition] = struct{}{}
}

// ResetOffset seeks an already-subscribed topic-partition back to the
// earliest available offset. Returns tmerrors.ErrUnsubscribedTopicPartition
// if topic-partition is not currently assigned.
func (c *Client) ResetOffset(topic string, partition int32) error {
	if err := c.EnsureSubscribed(topic, partition); err != nil {
		return err
	}
	c.cl.AddConsumePartitions(map[string]map[int32]kgo.Offset{
		topic: {partition: kgo.NewOffset().AtStart()},
	})
	delete(c.observed[topic], partition)
	return nil
}

// Unsubscribe removes the given partitions of topic from consumption.
func (c *Client) Unsubscribe(topic string, partitions []int32) {
	c.cl.RemoveConsumePartitions(map[string][]int32{topic: partitions})
	for _, p := range partitions {
		delete(c.subscribed[topic], p)
		delete(c.observed[topic], p)
	}
	if len(c.subscribed[topic]) == 0 {
		delete(c.subscribed, topic)
	}
}

// BatchUnsubscribe removes every tracked partition across all topics in a
// single call to the underlying client.
func (c *Client) BatchUnsubscribe(topics map[string][]int32) {
	c.cl.RemoveConsumePartitions(topics)
	for topic, partitions := range topics {
		for _, p := range partitions {
			delete(c.subscribed[topic], p)
			delete(c.observed[topic], p)
		}
		if len(c.subscribed[topic]) == 0 {
			delete(c.subscribed, topic)
		}
	}
}

// IsSubscribed reports whether topic-partition is currently assigned.
func (c *Client) IsSubscribed(topic string, partition int32) bool {
	parts, ok := c.subscribed[topic]
	if !ok {
		return false
	}
	_, ok = parts[partition]
	return ok
}

// HasSubscription reports whether any partition of topic is currently
// assigned.
func (c *Client) HasSubscription(topic string) bool {
	return len(c.subscribed[topic]) > 0
}

// HasAnySubscription reports whether this client has any assignment at all,
// across every topic.
func (c *Client) HasAnySubscription() bool {
	return len(c.subscribed) > 0
}

// GetAssignment returns the partitions currently assigned per topic, sorted
// ascending within each topic.
func (c *Client) GetAssignment() map[string][]int32 {
	out := make(map[string][]int32, len(c.subscribed))
	for topic, parts := range c.subscribed {
		ps := make([]int32, 0, len(parts))
		for p := range parts {
			ps = append(ps, p)
		}
		sort.Slice(ps, func(i, j int) bool { return ps[i] < ps[j] })
		out[topic] = ps
	}
	return out
}

// Pause stops fetching for the subscribed topic-partitions among
// partitions, without dropping the assignment. Partitions not currently
// subscribed are silently skipped.
func (c *Client) Pause(topic string, partitions ...int32) {
	toPause := c.filterSubscribed(topic, partitions)
	if len(toPause) == 0 {
		return
	}
	c.cl.PauseFetchPartitions(map[string][]int32{topic: toPause})
}

// Resume resumes fetching for the subscribed topic-partitions among
// partitions that were previously paused. Partitions not currently
// subscribed are silently skipped.
func (c *Client) Resume(topic string, partitions ...int32) {
	toResume := c.filterSubscribed(topic, partitions)
	if len(toResume) == 0 {
		return
	}
	c.cl.ResumeFetchPartitions(map[string][]int32{topic: toResume})
}

func (c *Client) filterSubscribed(topic string, partitions []int32) []int32 {
	var out []int32
	for _, p := range partitions {
		if c.IsSubscribed(topic, p) {
			out = append(out, p)
		}
	}
	return out
}

// Poll fetches the next batch of records, retrying transient failures up to
// cfg.PollRetryTimes with an exponential backoff bounded by
// PollRetryBackoffMin/Max. Every record's offset is recorded as this
// client's latest observed position for its topic-partition.
func (c *Client) Poll(ctx context.Context) (kgo.Fetches, error) {
	retry := backoff.New(ctx, backoff.Config{
		MinBackoff: c.cfg.PollRetryBackoffMin,
		MaxBackoff: c.cfg.PollRetryBackoffMax,
		MaxRetries: c.cfg.PollRetryTimes,
	})

	var lastErr error
	for retry.Ongoing() {
		fetches := c.cl.PollFetches(ctx)
		if err := fetches.Err(); err != nil {
			if err == context.Canceled || err == context.DeadlineExceeded {
				return kgo.Fetches{}, err
			}
			if !tmerrors.IsRetriable(err) {
				return kgo.Fetches{}, err
			}
			lastErr = err
			c.log.Warn("poll fetch error, retrying", zap.Error(err))
			retry.Wait()
			continue
		}
		c.recordObserved(fetches)
		return fetches, nil
	}
	if lastErr == nil {
		lastErr = retry.Err()
	}
	return kgo.Fetches{}, fmt.Errorf("poll exhausted retries: %w", lastErr)
}

func (c *Client) recordObserved(fetches kgo.Fetches) {
	fetches.EachRecord(func(rec *kgo.Record) {
		if c.observed[rec.Topic] == nil {
			c.observed[rec.Topic] = make(map[int32]int64)
		}
		if cur, seen := c.observed[rec.Topic][rec.Partition]; !seen || rec.Offset > cur {
			c.observed[rec.Topic][rec.Partition] = rec.Offset
		}
	})
}

// LatestOffset returns the highest offset this client has observed for
// topic-partition via Poll, and whether any record has been observed yet.
func (c *Client) LatestOffset(topic string, partition int32) (int64, bool) {
	parts, ok := c.observed[topic]
	if !ok {
		return 0, false
	}
	off, ok := parts[partition]
	return off, ok
}

// OffsetLag returns how many records this client has yet to observe for
// topic-partition, given the broker's current end offset (obtained
// separately, e.g. via offsetfetcher's kadm-backed ListEndOffsets). Reports
// false if no record has been observed yet for that partition.
func (c *Client) OffsetLag(topic string, partition int32, brokerEndOffset int64) (int64, bool) {
	observed, ok := c.LatestOffset(topic, partition)
	if !ok {
		return 0, false
	}
	lag := brokerEndOffset - observed - 1
	if lag < 0 {
		lag = 0
	}
	return lag, true
}

// Close releases the underlying client.
func (c *Client) Close() {
	c.cl.Close()
}

// EnsureSubscribed returns tmerrors.ErrUnsubscribedTopicPartition if
// topic-partition is not currently assigned. Callers that must operate on a
// specific partition (seeking, pausing) use this as a guard.
func (c *Client) EnsureSubscribed(topic string, partition int32) error {
	if !c.IsSubscribed(topic, partition) {
		return fmt.Errorf("%s[%d]: %w", topic, partition, tmerrors.ErrUnsubscribedTopicPartition)
	}
	return nil
}
