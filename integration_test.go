package topicmgr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/flowbase-io/topicmgr/offsetfetcher"
	"github.com/flowbase-io/topicmgr/tmerrors"
)

// skipIfNoKafka skips the test unless a real cluster is reachable at
// KAFKA_INTEGRATION_TEST_BROKERS (or localhost:9092 by default) and the
// caller has opted in via KAFKA_INTEGRATION_TEST=true.
func skipIfNoKafka(t *testing.T) []string {
	t.Helper()
	if os.Getenv("KAFKA_INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set KAFKA_INTEGRATION_TEST=true to run.")
	}
	brokers := os.Getenv("KAFKA_INTEGRATION_TEST_BROKERS")
	if brokers == "" {
		brokers = "localhost:9092"
	}
	return splitCommaList(brokers)
}

func TestIntegration_CreateListDelete(t *testing.T) {
	brokers := skipIfNoKafka(t)
	logger := zaptest.NewLogger(t)

	m, err := New(WithBootstrap(brokers...), WithLogger(logger), WithKafkaOperationTimeout(30*time.Second))
	require.NoError(t, err)
	defer m.Close()

	topic := fmt.Sprintf("topicmgr.integration.%d", time.Now().UnixNano())
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	require.NoError(t, m.CreateTopic(ctx, topic, 3, 1, CreateTopicOptions{RetentionMs: 3600000}))
	defer m.EnsureTopicIsDeletedAndBlock(context.Background(), topic)

	ready, err := m.ContainsTopicAndAllPartitionsAreOnline(ctx, topic, 3)
	require.NoError(t, err)
	assert.True(t, ready)

	topics, err := m.ListTopics(ctx)
	require.NoError(t, err)
	assert.Contains(t, topics, topic)

	cfg, err := m.GetTopicConfigWithRetry(ctx, topic)
	require.NoError(t, err)
	assert.Equal(t, int64(3600000), cfg.RetentionMs)

	require.NoError(t, m.EnsureTopicIsDeletedAndBlock(ctx, topic))

	exists, err := m.ContainsTopicAndAllPartitionsAreOnline(ctx, topic, 0)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestIntegration_CreateIsIdempotentAndReconcilesRetention(t *testing.T) {
	brokers := skipIfNoKafka(t)
	logger := zaptest.NewLogger(t)

	m, err := New(WithBootstrap(brokers...), WithLogger(logger))
	require.NoError(t, err)
	defer m.Close()

	topic := fmt.Sprintf("topicmgr.integration.idempotent.%d", time.Now().UnixNano())
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	require.NoError(t, m.CreateTopic(ctx, topic, 1, 1, CreateTopicOptions{RetentionMs: 1000000}))
	defer m.EnsureTopicIsDeletedAndBlock(context.Background(), topic)

	require.NoError(t, m.CreateTopic(ctx, topic, 1, 1, CreateTopicOptions{RetentionMs: 2000000}))

	cfg, err := m.GetTopicConfigWithRetry(ctx, topic)
	require.NoError(t, err)
	assert.Equal(t, int64(2000000), cfg.RetentionMs)
}

func TestIntegration_CompactionAndMinISR(t *testing.T) {
	brokers := skipIfNoKafka(t)
	logger := zaptest.NewLogger(t)

	m, err := New(WithBootstrap(brokers...), WithLogger(logger))
	require.NoError(t, err)
	defer m.Close()

	topic := fmt.Sprintf("topicmgr.integration.compact.%d", time.Now().UnixNano())
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	require.NoError(t, m.CreateTopic(ctx, topic, 1, 1, CreateTopicOptions{}))
	defer m.EnsureTopicIsDeletedAndBlock(context.Background(), topic)

	changed, err := m.UpdateTopicCompactionPolicy(ctx, topic, true, 60000)
	require.NoError(t, err)
	assert.True(t, changed)

	enabled, err := m.GetTopicCompactionEnabled(ctx, topic)
	require.NoError(t, err)
	assert.True(t, enabled)

	changed, err = m.UpdateTopicMinInSyncReplicas(ctx, topic, 1)
	require.NoError(t, err)
	assert.False(t, changed, "single-broker cluster already defaults min.insync.replicas to 1")
}

func TestIntegration_ConcurrentDeleteRejectedWithErrDeletionBusy(t *testing.T) {
	brokers := skipIfNoKafka(t)
	logger := zaptest.NewLogger(t)

	m, err := New(WithBootstrap(brokers...), WithLogger(logger), WithKafkaOperationTimeout(20*time.Second))
	require.NoError(t, err)
	defer m.Close()

	topic := fmt.Sprintf("topicmgr.integration.deletebusy.%d", time.Now().UnixNano())
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	require.NoError(t, m.CreateTopic(ctx, topic, 1, 1, CreateTopicOptions{}))

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		firstErr = m.EnsureTopicIsDeletedAndBlock(ctx, topic)
	}()

	// Give the first delete time to land and for its partitions to go
	// offline, so the second call observes deletion as underway rather
	// than racing to issue its own delete first.
	time.Sleep(2 * time.Second)

	secondErr := m.EnsureTopicIsDeletedAndBlock(ctx, topic)
	wg.Wait()

	assert.Error(t, secondErr)
	assert.True(t, errors.Is(secondErr, tmerrors.ErrDeletionBusy))
	assert.NoError(t, firstErr)
}

func TestIntegration_OffsetQueries(t *testing.T) {
	brokers := skipIfNoKafka(t)
	logger := zaptest.NewLogger(t)

	m, err := New(WithBootstrap(brokers...), WithLogger(logger))
	require.NoError(t, err)
	defer m.Close()

	topic := fmt.Sprintf("topicmgr.integration.offsets.%d", time.Now().UnixNano())
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	require.NoError(t, m.CreateTopic(ctx, topic, 1, 1, CreateTopicOptions{}))
	defer m.EnsureTopicIsDeletedAndBlock(context.Background(), topic)

	tp := offsetfetcher.TopicPartition{Topic: topic, Partition: 0}

	earliest, err := m.GetPartitionEarliestOffsetAndRetry(ctx, tp, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(0), earliest)

	latest, err := m.GetPartitionLatestOffsetAndRetry(ctx, tp, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(0), latest)

	parts, err := m.PartitionsFor(ctx, topic)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.True(t, parts[0].Online)
}
