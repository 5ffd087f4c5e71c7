package topicmgr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flowbase-io/topicmgr/adminwrap"
)

func TestNewRejectsEmptyBootstrap(t *testing.T) {
	m, err := New()
	require.Error(t, err)
	assert.Nil(t, m)
}

func TestNewAppliesNopLoggerByDefault(t *testing.T) {
	m, err := New(WithBootstrap("localhost:9092"))
	require.NoError(t, err)
	require.NotNil(t, m)
	require.NotNil(t, m.log)
	assert.NotPanics(t, func() { m.log.Info("logger is usable") })
}

func TestNewHonorsExplicitLogger(t *testing.T) {
	logger := zap.NewExample()
	m, err := New(WithBootstrap("localhost:9092"), WithLogger(logger))
	require.NoError(t, err)
	assert.Same(t, logger, m.log)
}

func TestGetKafkaBootstrapServers(t *testing.T) {
	m, err := New(WithBootstrap("b1:9092", "b2:9092"))
	require.NoError(t, err)
	assert.Equal(t, []string{"b1:9092", "b2:9092"}, m.GetKafkaBootstrapServers())
}

func TestCloseIsIdempotentWithoutAnyRealClient(t *testing.T) {
	m, err := New(WithBootstrap("localhost:9092"))
	require.NoError(t, err)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

func TestCloseReleasesBothAdminsWhenConstructed(t *testing.T) {
	m, err := New(WithBootstrap("localhost:9092"))
	require.NoError(t, err)

	// Simulate both admins having been lazily constructed, without
	// dialing a broker: adminwrap.Client.Close tolerates a nil
	// underlying kgo.Client.
	m.readAdmin = adminwrap.New(nil, nil, nil)
	m.writeAdmin = adminwrap.New(nil, nil, nil)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

func TestGetExpectedRetentionTimeMsFloorsAtDefault(t *testing.T) {
	m, err := New(WithBootstrap("localhost:9092"))
	require.NoError(t, err)

	got := m.GetExpectedRetentionTimeMs(time.Minute, time.Minute)
	assert.Equal(t, m.cfg.DefaultTopicRetentionPolicyMs, got)
}

func TestGetExpectedRetentionTimeMsScalesWithInputs(t *testing.T) {
	m, err := New(WithBootstrap("localhost:9092"))
	require.NoError(t, err)

	rewind := 10 * 24 * time.Hour
	bootstrap := 1 * time.Hour
	got := m.GetExpectedRetentionTimeMs(rewind, bootstrap)

	want := int64((rewind + bootstrap + BufferReplayMinimalSafetyMargin) / time.Millisecond)
	assert.Equal(t, want, got)
	assert.Greater(t, got, m.cfg.DefaultTopicRetentionPolicyMs)
}

func TestGetExpectedRetentionTimeMsMonotone(t *testing.T) {
	m, err := New(WithBootstrap("localhost:9092"))
	require.NoError(t, err)

	a := m.GetExpectedRetentionTimeMs(time.Hour, time.Hour)
	b := m.GetExpectedRetentionTimeMs(2*time.Hour, time.Hour)
	assert.GreaterOrEqual(t, b, a)
}

func TestCreateTopicOptionsResolveRetentionMsEternal(t *testing.T) {
	opts := CreateTopicOptions{Eternal: true, RetentionMs: 1000}
	assert.Equal(t, Eternal, opts.resolveRetentionMs(5000))
}

func TestCreateTopicOptionsResolveRetentionMsExplicit(t *testing.T) {
	opts := CreateTopicOptions{RetentionMs: 1000}
	assert.Equal(t, int64(1000), opts.resolveRetentionMs(5000))
}

func TestCreateTopicOptionsResolveRetentionMsDefault(t *testing.T) {
	opts := CreateTopicOptions{}
	assert.Equal(t, int64(5000), opts.resolveRetentionMs(5000))
}

func TestCreateTopicOptionsToTopicConfigCompaction(t *testing.T) {
	opts := CreateTopicOptions{Compaction: true, MinCompactionLagMs: 60000, MinInSyncReplicas: 2}
	cfg := opts.toTopicConfig(86400000)

	assert.Equal(t, "compact", cfg.CleanupPolicy)
	assert.Equal(t, int64(60000), cfg.MinCompactionLagMs)
	assert.Equal(t, 2, cfg.MinInSyncReplicas)
}

func TestCreateTopicOptionsToTopicConfigDelete(t *testing.T) {
	opts := CreateTopicOptions{}
	cfg := opts.toTopicConfig(86400000)

	assert.Equal(t, "delete", cfg.CleanupPolicy)
	assert.Equal(t, int64(86400000), cfg.RetentionMs)
}
