package metrics

import (
	"context"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// CloudWatchAPI is the subset of the CloudWatch client the sink uses.
type CloudWatchAPI interface {
	PutMetricData(
		ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options),
	) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchSink publishes each event as one custom metric datum.
type CloudWatchSink struct {
	client CloudWatchAPI
}

// NewCloudWatchSink creates a new CloudWatch-backed sink.
func NewCloudWatchSink(client CloudWatchAPI) *CloudWatchSink {
	return &CloudWatchSink{client: client}
}

func (s *CloudWatchSink) Emit(ctx context.Context, event *Event) error {
	_, err := s.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(event.Namespace),
		MetricData: []types.MetricDatum{{
			MetricName: aws.String(event.Name),
			Dimensions: cloudWatchDimensions(event.Dimensions),
			Unit:       types.StandardUnit(event.Unit),
			Value:      aws.Float64(event.Value),
			Timestamp:  aws.Time(event.Timestamp),
		}},
	})

	return err
}

// cloudWatchDimensions sorts by name and drops empty values, which CloudWatch rejects.
func cloudWatchDimensions(dims map[string]string) []types.Dimension {
	names := make([]string, 0, len(dims))

	for name, value := range dims {
		if value != "" {
			names = append(names, name)
		}
	}

	sort.Strings(names)

	out := make([]types.Dimension, 0, len(names))
	for _, name := range names {
		out = append(out, types.Dimension{Name: aws.String(name), Value: aws.String(dims[name])})
	}

	return out
}
