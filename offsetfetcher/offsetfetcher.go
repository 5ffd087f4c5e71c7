// Package offsetfetcher implements retry-hardened offset and partition
// metadata queries against a read-only admin client and a shared, non-
// thread-safe raw consumer. All access to the raw consumer is serialized by
// this package's own mutex; callers never need to coordinate with each
// other.
package offsetfetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/grafana/dskit/backoff"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/flowbase-io/topicmgr/adminwrap"
	"github.com/flowbase-io/topicmgr/rawconsumer"
	"github.com/flowbase-io/topicmgr/tmerrors"
)

// LowestOffset is the sentinel meaning "start from earliest available".
const LowestOffset int64 = -1

// TopicPartition identifies one partition of one topic.
type TopicPartition struct {
	Topic     string
	Partition int32
}

func (tp TopicPartition) String() string {
	return fmt.Sprintf("%s[%d]", tp.Topic, tp.Partition)
}

// PartitionInfo is what partitionsFor reports for one partition.
type PartitionInfo = adminwrap.PartitionInfo

// Fetcher composes a read-only admin client with a raw consumer to answer
// offset and metadata queries.
type Fetcher struct {
	admin    adminwrap.ReadOnlyAdmin
	consumer *rawconsumer.Client
	log      *zap.Logger

	mu sync.Mutex // serializes all access to consumer
}

// New builds a Fetcher. consumer is owned exclusively by this Fetcher once
// passed in; no other component may call its methods concurrently.
func New(admin adminwrap.ReadOnlyAdmin, consumer *rawconsumer.Client, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{admin: admin, consumer: consumer, log: log}
}

func retryConfig(attempts int) backoff.Config {
	if attempts <= 0 {
		attempts = 1
	}
	return backoff.Config{
		MinBackoff: 100 * time.Millisecond,
		MaxBackoff: 2 * time.Second,
		MaxRetries: attempts,
	}
}

// Close releases the fetcher's exclusively-owned raw consumer.
func (f *Fetcher) Close() {
	f.consumer.Close()
}

// PartitionsFor lists partition info for topic.
func (f *Fetcher) PartitionsFor(ctx context.Context, topic string) ([]PartitionInfo, error) {
	descs, err := f.admin.ListTopics(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("partitions for %s: %w", topic, err)
	}
	desc, ok := descs[topic]
	if !ok {
		return nil, fmt.Errorf("partitions for %s: %w", topic, tmerrors.ErrTopicDoesNotExist)
	}
	return desc.Partitions, nil
}

// kadmLister is satisfied by *kadm.Client; offset listing needs the real
// kadm surface because adminwrap.ReadOnlyAdmin does not expose it (offset
// listing is this package's concern, not the admin wrapper's).
type kadmLister interface {
	ListEndOffsets(ctx context.Context, topics ...string) (kadm.ListedOffsets, error)
	ListStartOffsets(ctx context.Context, topics ...string) (kadm.ListedOffsets, error)
	ListOffsetsAfterMilli(ctx context.Context, millisecond int64, topics ...string) (kadm.ListedOffsets, error)
}

// WithOffsetLister wires the real kadm client used purely for offset
// listing queries, which have no equivalent on ReadOnlyAdmin.
type WithOffsetLister struct {
	*Fetcher
	lister kadmLister
}

// NewWithOffsetLister builds a Fetcher that can also answer offset queries.
func NewWithOffsetLister(admin adminwrap.ReadOnlyAdmin, consumer *rawconsumer.Client, lister kadmLister, log *zap.Logger) *WithOffsetLister {
	return &WithOffsetLister{Fetcher: New(admin, consumer, log), lister: lister}
}

// GetTopicLatestOffsets returns a function bound to ctx that maps a topic to
// partition -> latest offset for every partition of that topic, or to an
// empty map on error.
func (w *WithOffsetLister) GetTopicLatestOffsets(ctx context.Context) func(topic string) map[int32]int64 {
	return func(topic string) map[int32]int64 {
		out := make(map[int32]int64)
		offsets, err := w.lister.ListEndOffsets(ctx, topic)
		if err != nil {
			w.log.Warn("get topic latest offsets failed", zap.String("topic", topic), zap.Error(err))
			return out
		}
		offsets.Each(func(lo kadm.ListedOffset) {
			if lo.Err == nil {
				out[lo.Partition] = lo.Offset
			}
		})
		return out
	}
}

// GetPartitionLatestOffsetAndRetry returns the latest (end) offset for tp,
// retrying transient broker faults up to retries times.
func (w *WithOffsetLister) GetPartitionLatestOffsetAndRetry(ctx context.Context, tp TopicPartition, retries int) (int64, error) {
	return w.retryOffset(ctx, tp, retries, w.lister.ListEndOffsets)
}

// GetPartitionEarliestOffsetAndRetry returns the earliest (start) offset for
// tp, retrying transient broker faults up to retries times.
func (w *WithOffsetLister) GetPartitionEarliestOffsetAndRetry(ctx context.Context, tp TopicPartition, retries int) (int64, error) {
	return w.retryOffset(ctx, tp, retries, w.lister.ListStartOffsets)
}

// lookupOffset indexes a ListedOffsets result directly rather than relying
// on a convenience method, since ListedOffsets is a plain
// map[string]map[int32]ListedOffset.
func lookupOffset(offsets kadm.ListedOffsets, topic string, partition int32) (kadm.ListedOffset, bool) {
	byPartition, ok := offsets[topic]
	if !ok {
		return kadm.ListedOffset{}, false
	}
	lo, ok := byPartition[partition]
	return lo, ok
}

type listFn func(ctx context.Context, topics ...string) (kadm.ListedOffsets, error)

func (w *WithOffsetLister) retryOffset(ctx context.Context, tp TopicPartition, retries int, list listFn) (int64, error) {
	retry := backoff.New(ctx, retryConfig(retries))
	var lastErr error
	for retry.Ongoing() {
		offsets, err := list(ctx, tp.Topic)
		if err != nil {
			lastErr = err
			retry.Wait()
			continue
		}
		lo, found := lookupOffset(offsets, tp.Topic, tp.Partition)
		if !found {
			lastErr = fmt.Errorf("%s: %w", tp, tmerrors.ErrTopicDoesNotExist)
			retry.Wait()
			continue
		}
		if lo.Err != nil {
			if !tmerrors.IsRetriable(lo.Err) {
				return 0, fmt.Errorf("%s: %w", tp, lo.Err)
			}
			lastErr = lo.Err
			retry.Wait()
			continue
		}
		return lo.Offset, nil
	}
	if lastErr == nil {
		lastErr = retry.Err()
	}
	return 0, fmt.Errorf("%s: exhausted retries: %w", tp, lastErr)
}

// GetPartitionOffsetByTime looks up the first offset at or after
// timestampMs.
func (w *WithOffsetLister) GetPartitionOffsetByTime(ctx context.Context, tp TopicPartition, timestampMs int64) (int64, error) {
	offsets, err := w.lister.ListOffsetsAfterMilli(ctx, timestampMs, tp.Topic)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", tp, err)
	}
	lo, found := lookupOffset(offsets, tp.Topic, tp.Partition)
	if !found {
		return 0, fmt.Errorf("%s: %w", tp, tmerrors.ErrTopicDoesNotExist)
	}
	if lo.Err != nil {
		return 0, fmt.Errorf("%s: %w", tp, lo.Err)
	}
	return lo.Offset, nil
}

// GetProducerTimestampOfLastDataRecord seeks the shared raw consumer to the
// tail of tp (end offset minus one) and returns the Kafka record timestamp
// (kgo.Record.Timestamp) of the newest non-control record it polls from
// there, retrying transient faults up to retries times. For a topic using
// LogAppendTime that timestamp is the broker's append time; no timestamp
// embedded in the record value is decoded. Only records at or after the
// tail offset are examined: if the tail offset holds a control record, no
// earlier data record is read and the call returns an error. This is the
// one query with no metadata-only answer: it must read an actual record.
func (w *WithOffsetLister) GetProducerTimestampOfLastDataRecord(ctx context.Context, tp TopicPartition, retries int) (time.Time, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	latest, err := w.GetPartitionLatestOffsetAndRetry(ctx, tp, retries)
	if err != nil {
		return time.Time{}, err
	}
	if latest <= 0 {
		return time.Time{}, fmt.Errorf("%s: %w", tp, tmerrors.ErrTopicDoesNotExist)
	}

	seekAt := latest - 1
	w.consumer.Subscribe(tp.Topic, tp.Partition, seekAt-1)
	defer w.consumer.Unsubscribe(tp.Topic, []int32{tp.Partition})

	retry := backoff.New(ctx, retryConfig(retries))
	var lastErr error
	for retry.Ongoing() {
		fetches, err := w.consumer.Poll(ctx)
		if err != nil {
			lastErr = err
			retry.Wait()
			continue
		}
		var found *kgo.Record
		fetches.EachRecord(func(rec *kgo.Record) {
			if rec.Topic != tp.Topic || rec.Partition != tp.Partition {
				return
			}
			if rec.Attrs.IsControl() {
				return
			}
			if found == nil || rec.Offset > found.Offset {
				found = rec
			}
		})
		if found != nil {
			return found.Timestamp, nil
		}
		lastErr = fmt.Errorf("%s: no data record observed at offset %d", tp, seekAt)
		retry.Wait()
	}
	if lastErr == nil {
		lastErr = retry.Err()
	}
	return time.Time{}, fmt.Errorf("%s: %w", tp, lastErr)
}
