package tmmetrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestIncOperationRecordsSuccessAndFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewPrometheusSink(reg)

	sink.IncOperation("create_topic", "broker:9092", true)
	sink.IncOperation("create_topic", "broker:9092", false)

	metrics, err := reg.Gather()
	require.NoError(t, err)

	var counter *dto.MetricFamily
	for _, mf := range metrics {
		if mf.GetName() == "topicmgr_operations_total" {
			counter = mf
		}
	}
	require.NotNil(t, counter)
	require.Len(t, counter.Metric, 2)
}

func TestObserveLatencyRecordsSamples(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewPrometheusSink(reg)

	sink.ObserveLatency("list_topics", "broker:9092", 250*time.Millisecond)

	metrics, err := reg.Gather()
	require.NoError(t, err)

	var hist *dto.MetricFamily
	for _, mf := range metrics {
		if mf.GetName() == "topicmgr_operation_duration_seconds" {
			hist = mf
		}
	}
	require.NotNil(t, hist)
	require.Len(t, hist.Metric, 1)
	require.EqualValues(t, 1, hist.Metric[0].Histogram.GetSampleCount())
}

func TestNewConsumerHooksOptBuildsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConsumerHooksOpt(reg, "topicmgr")
	require.NotNil(t, m)
}
