package metrics

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	namespace                = "EternalUnion/Studio"
	httpStatusServerError    = 500
	cloudwatchTimeoutSeconds = 5
)

// MetricPutter is the CloudWatch call the client needs; *cloudwatch.Client satisfies it.
type MetricPutter interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Client wraps CloudWatch client for custom metrics
type Client struct {
	client      MetricPutter
	enabled     bool
	environment string
	async       bool
}

// NewClient creates a new CloudWatch metrics client
func NewClient(ctx context.Context, environment string) (*Client, error) {
	// Only enable in production
	if environment != "production" {
		log.Printf("📊 CloudWatch Metrics: DISABLED (environment: %s)", environment)
		return &Client{
			enabled:     false,
			environment: environment,
		}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("⚠️  Failed to load AWS config for CloudWatch: %v", err)
		return &Client{enabled: false}, nil
	}

	log.Printf("📊 CloudWatch Metrics: ✅ ENABLED (namespace: %s)", namespace)
	return newClientWith(cloudwatch.NewFromConfig(cfg), environment, true), nil
}

func newClientWith(putter MetricPutter, environment string, async bool) *Client {
	return &Client{
		client:      putter,
		enabled:     true,
		environment: environment,
		async:       async,
	}
}

// RecordAPIRequest records an API request metric
func (m *Client) RecordAPIRequest(_ context.Context, endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	m.dispatch(func() {
		metricName := "APIRequests"
		if statusCode >= httpStatusServerError {
			metricName = "APIErrors"
		}

		dimensions := []types.Dimension{
			{Name: aws.String("Endpoint"), Value: aws.String(endpoint)},
			{Name: aws.String("Environment"), Value: aws.String(m.environment)},
		}

		if err := m.putMetric(metricName, 1, types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record %s metric: %v", metricName, err)
		}

		latencyMs := float64(duration.Milliseconds())
		if err := m.putMetric("APILatency", latencyMs, types.StandardUnitMilliseconds, dimensions); err != nil {
			log.Printf("Failed to record APILatency metric: %v", err)
		}
	})
}

// RecordGeneration records the duration of one image call
func (m *Client) RecordGeneration(_ context.Context, op string, duration time.Duration, success bool) {
	if !m.enabled {
		return
	}

	m.dispatch(func() {
		dimensions := []types.Dimension{
			{Name: aws.String("Operation"), Value: aws.String(op)},
			{Name: aws.String("Success"), Value: aws.String(boolToString(success))},
			{Name: aws.String("Environment"), Value: aws.String(m.environment)},
		}

		durationMs := float64(duration.Milliseconds())
		if err := m.putMetric("GenerationDuration", durationMs, types.StandardUnitMilliseconds, dimensions); err != nil {
			log.Printf("Failed to record GenerationDuration metric: %v", err)
		}
	})
}

// RecordBatch records a finished batch run and how many photos it produced
func (m *Client) RecordBatch(_ context.Context, outcome string, completed int) {
	if !m.enabled {
		return
	}

	m.dispatch(func() {
		dimensions := []types.Dimension{
			{Name: aws.String("Outcome"), Value: aws.String(outcome)},
			{Name: aws.String("Environment"), Value: aws.String(m.environment)},
		}

		if err := m.putMetric("BatchRuns", 1, types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record BatchRuns metric: %v", err)
		}
		if err := m.putMetric("BatchPhotos", float64(completed), types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record BatchPhotos metric: %v", err)
		}
	})
}

func (m *Client) dispatch(fn func()) {
	if m.async {
		go fn()
		return
	}
	fn()
}

// putMetric sends a metric to CloudWatch
func (m *Client) putMetric(
	metricName string,
	value float64,
	unit types.StandardUnit,
	dimensions []types.Dimension,
) error {
	if !m.enabled || m.client == nil {
		return nil
	}

	timeout := time.Duration(cloudwatchTimeoutSeconds) * time.Second
	cwCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	_, err := m.client.PutMetricData(cwCtx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Value:      aws.Float64(value),
				Unit:       unit,
				Timestamp:  aws.Time(time.Now()),
				Dimensions: dimensions,
			},
		},
	})

	return err
}

func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
