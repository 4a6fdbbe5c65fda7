package container

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/do"
	"github.com/serroba/url-redirector/internal/messaging"
	"github.com/serroba/url-redirector/internal/metrics"
	"go.uber.org/zap"
)

// MetricsPackage provides the sink selected by --metrics-sink, bounded by
// --metrics-timeout and optionally detached from the request.
func MetricsPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*prometheus.Registry, error) {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		return reg, nil
	})

	do.Provide(injector, func(i *do.Injector) (metrics.Sink, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		sink, err := newSink(i, opts.MetricsSink)
		if err != nil {
			return nil, err
		}

		timeout, _, err := opts.Durations()
		if err != nil {
			return nil, err
		}

		if opts.MetricsDetached {
			return metrics.NewDetachedSink(sink, timeout, logger), nil
		}

		return metrics.WithTimeout(sink, timeout), nil
	})
}

func newSink(i *do.Injector, name string) (metrics.Sink, error) {
	switch name {
	case SinkLog:
		return metrics.NewLogSink(do.MustInvoke[*zap.Logger](i)), nil
	case SinkCloudWatch:
		return metrics.NewCloudWatchSink(do.MustInvoke[*cloudwatch.Client](i)), nil
	case SinkPrometheus:
		return metrics.NewPrometheusSink(do.MustInvoke[*prometheus.Registry](i)), nil
	case SinkStream:
		group := do.MustInvoke[*messaging.PublisherGroup](i)
		publish := messaging.NewPublishFunc[metrics.Event](group.Publisher(), metrics.TopicRedirectRequest)

		return metrics.NewStreamSink(publish), nil
	default:
		return nil, fmt.Errorf("unknown metrics sink %q", name)
	}
}

// PublisherGroupPackage provides the Redis stream publisher used by the stream sink.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*RedisClient](i)
		logger := do.MustInvoke[*zap.Logger](i)

		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client:     client.Client,
			Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
		}, messaging.NewZapLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("create stream publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
}

// ConsumerGroupPackage provides the consumer group that forwards streamed
// metric events to the sink named in ConsumerOptions.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		opts := do.MustInvoke[*ConsumerOptions](i)
		client := do.MustInvoke[*RedisClient](i)
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client.Client,
			Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
			ConsumerGroup: opts.ConsumerGroup,
		}, messaging.NewZapLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("create stream subscriber: %w", err)
		}

		sink, err := newSink(i, opts.MetricsSink)
		if err != nil {
			return nil, err
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(
			subscriber,
			metrics.TopicRedirectRequest,
			metrics.Forward(metrics.WithTimeout(sink, opts.EmitTimeout)),
			logger,
		))

		return group, nil
	})
}
