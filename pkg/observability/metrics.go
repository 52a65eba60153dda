package observability

import (
	"context"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// Metric names
const (
	MetricSagaCompensationFailures = "SagaCompensationFailures"
	MetricSignUps                  = "SignUps"
	MetricMealsCreated             = "MealsCreated"
	MetricMealsQueued              = "MealsQueued"
)

// CloudWatchAPI is the subset of the CloudWatch client metrics need
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metrics handles application metrics. A Metrics without a client only logs.
type Metrics struct {
	namespace string
	client    CloudWatchAPI
	logger    *zap.Logger
	now       func() time.Time
}

// NewMetrics creates a new metrics instance; client may be nil
func NewMetrics(namespace string, client CloudWatchAPI, logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Metrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
		now:       time.Now,
	}
}

// RecordBusinessMetric records a count-like business metric
func (m *Metrics) RecordBusinessMetric(ctx context.Context, name string, value float64, dimensions map[string]string) {
	m.put(ctx, types.MetricDatum{
		MetricName: aws.String(name),
		Dimensions: toDimensions(dimensions),
		Value:      aws.Float64(value),
		Unit:       types.StandardUnitCount,
		Timestamp:  aws.Time(m.now()),
	})
}

// RecordCompensationFailure counts a rollback step that did not succeed.
// These need an operator: the system may be left inconsistent.
func (m *Metrics) RecordCompensationFailure(ctx context.Context, saga, compensation string) {
	m.RecordBusinessMetric(ctx, MetricSagaCompensationFailures, 1, map[string]string{
		"Saga":         saga,
		"Compensation": compensation,
	})
}

// RecordLatency records latency for any operation
func (m *Metrics) RecordLatency(ctx context.Context, operation string, latency time.Duration) {
	m.put(ctx, types.MetricDatum{
		MetricName: aws.String("OperationLatency"),
		Dimensions: toDimensions(map[string]string{"Operation": operation}),
		Value:      aws.Float64(float64(latency.Milliseconds())),
		Unit:       types.StandardUnitMilliseconds,
		Timestamp:  aws.Time(m.now()),
	})
}

func (m *Metrics) put(ctx context.Context, datum types.MetricDatum) {
	if m.client == nil {
		m.logger.Debug("metric",
			zap.String("name", aws.ToString(datum.MetricName)),
			zap.Float64("value", aws.ToFloat64(datum.Value)))
		return
	}

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: []types.MetricDatum{datum},
	})
	if err != nil {
		// metrics never fail the operation they describe
		m.logger.Warn("failed to send metric",
			zap.String("name", aws.ToString(datum.MetricName)),
			zap.Error(err))
	}
}

func toDimensions(dimensions map[string]string) []types.Dimension {
	names := make([]string, 0, len(dimensions))
	for name := range dimensions {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]types.Dimension, 0, len(names))
	for _, name := range names {
		out = append(out, types.Dimension{
			Name:  aws.String(name),
			Value: aws.String(dimensions[name]),
		})
	}
	return out
}
