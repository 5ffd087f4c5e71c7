package adminwrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kadm"
)

func TestToConfigEntriesAlwaysSetsCoreKeys(t *testing.T) {
	entries := toConfigEntries(TopicConfig{RetentionMs: 86400000, CleanupPolicy: CleanupPolicyDelete})

	require.Contains(t, entries, ConfigRetentionMs)
	assert.Equal(t, "86400000", *entries[ConfigRetentionMs])

	require.Contains(t, entries, ConfigCleanupPolicy)
	assert.Equal(t, CleanupPolicyDelete, *entries[ConfigCleanupPolicy])

	require.Contains(t, entries, ConfigUncleanLeaderElect)
	assert.Equal(t, "false", *entries[ConfigUncleanLeaderElect])

	require.Contains(t, entries, ConfigMessageTimestampTy)
	assert.Equal(t, MessageTimestampLogAppend, *entries[ConfigMessageTimestampTy])
}

func TestToConfigEntriesOmitsUnsetOptionalFields(t *testing.T) {
	entries := toConfigEntries(TopicConfig{RetentionMs: 1 << 62, CleanupPolicy: CleanupPolicyDelete})

	assert.NotContains(t, entries, ConfigMinCompactionLagMs)
	assert.NotContains(t, entries, ConfigMinInSyncReplicas)
	assert.NotContains(t, entries, ConfigMaxMessageBytes)
	assert.NotContains(t, entries, ConfigSegmentBytes)
}

func TestToConfigEntriesSetsMinCompactionLagOnlyForCompact(t *testing.T) {
	deleteEntries := toConfigEntries(TopicConfig{CleanupPolicy: CleanupPolicyDelete, MinCompactionLagMs: 1000})
	assert.NotContains(t, deleteEntries, ConfigMinCompactionLagMs)

	compactEntries := toConfigEntries(TopicConfig{CleanupPolicy: CleanupPolicyCompact, MinCompactionLagMs: 1000})
	require.Contains(t, compactEntries, ConfigMinCompactionLagMs)
	assert.Equal(t, "1000", *compactEntries[ConfigMinCompactionLagMs])
}

func TestToConfigEntriesSetsOptionalIntegersWhenPositive(t *testing.T) {
	entries := toConfigEntries(TopicConfig{
		MinInSyncReplicas: 2,
		MaxMessageBytes:   1048576,
		SegmentBytes:      536870912,
	})

	require.Contains(t, entries, ConfigMinInSyncReplicas)
	assert.Equal(t, "2", *entries[ConfigMinInSyncReplicas])

	require.Contains(t, entries, ConfigMaxMessageBytes)
	assert.Equal(t, "1048576", *entries[ConfigMaxMessageBytes])

	require.Contains(t, entries, ConfigSegmentBytes)
	assert.Equal(t, "536870912", *entries[ConfigSegmentBytes])
}

func TestClientSatisfiesBothAdminInterfaces(t *testing.T) {
	var _ ReadOnlyAdmin = (*Client)(nil)
	var _ WriteOnlyAdmin = (*Client)(nil)
}

func TestResourceConfigToTopicConfigParsesKnownKeys(t *testing.T) {
	str := func(v string) *string { return &v }
	entries := []kadm.Config{
		{Key: ConfigRetentionMs, Value: str("86400000")},
		{Key: ConfigCleanupPolicy, Value: str(CleanupPolicyCompact)},
		{Key: ConfigMinCompactionLagMs, Value: str("60000")},
		{Key: ConfigMinInSyncReplicas, Value: str("2")},
		{Key: ConfigMaxMessageBytes, Value: str("1048576")},
		{Key: ConfigSegmentBytes, Value: str("536870912")},
	}

	cfg := resourceConfigToTopicConfig(entries)

	assert.Equal(t, int64(86400000), cfg.RetentionMs)
	assert.Equal(t, CleanupPolicyCompact, cfg.CleanupPolicy)
	assert.Equal(t, int64(60000), cfg.MinCompactionLagMs)
	assert.Equal(t, 2, cfg.MinInSyncReplicas)
	assert.Equal(t, 1048576, cfg.MaxMessageBytes)
	assert.Equal(t, 536870912, cfg.SegmentBytes)
}

func TestResourceConfigToTopicConfigSkipsNilValues(t *testing.T) {
	entries := []kadm.Config{{Key: ConfigRetentionMs, Value: nil}}

	cfg := resourceConfigToTopicConfig(entries)

	assert.Equal(t, int64(0), cfg.RetentionMs)
}

func TestCloseToleratesNilUnderlyingClient(t *testing.T) {
	c := New(nil, nil, nil)
	assert.NoError(t, c.Close())
}
