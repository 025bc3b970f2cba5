package aws

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metric names emitted by the workflows.
const (
	MetricOrdersCreated       = "OrdersCreated"
	MetricOrdersCancelled     = "OrdersCancelled"
	MetricStockConflicts      = "StockConflicts"
	MetricTrackingPropagation = "TrackingPropagationFailures"
)

// MetricsRecorder emits business counters to CloudWatch. Emission is
// best-effort: a failed PutMetricData is logged and never surfaced to the
// request that triggered it.
type MetricsRecorder struct {
	client    CloudWatchAPI
	namespace string
	nowFunc   func() time.Time
}

// NewMetricsRecorder returns a recorder bound to a CloudWatch namespace.
func NewMetricsRecorder(client CloudWatchAPI, namespace string) *MetricsRecorder {
	return &MetricsRecorder{
		client:    client,
		namespace: namespace,
		nowFunc:   time.Now,
	}
}

// Count emits a count-of-one datum for the named metric.
func (r *MetricsRecorder) Count(ctx context.Context, name string) {
	if r == nil || r.client == nil {
		return
	}
	now := r.nowFunc()
	one := 1.0
	input := &cloudwatch.PutMetricDataInput{
		Namespace: &r.namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: &name,
				Timestamp:  &now,
				Unit:       cwtypes.StandardUnitCount,
				Value:      &one,
			},
		},
	}
	if _, err := r.client.PutMetricData(ctx, input); err != nil {
		slog.Warn("put metric data failed", "metric", name, "err", err)
	}
}
