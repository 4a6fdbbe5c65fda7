package container

import (
	"errors"
	"fmt"
	"time"
)

// Store backends selectable with --store.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreDynamoDB = "dynamodb"
)

// Metric sinks selectable with --metrics-sink.
const (
	SinkLog        = "log"
	SinkCloudWatch = "cloudwatch"
	SinkPrometheus = "prometheus"
	SinkStream     = "stream"
)

// Options configures the server. humacli also reads each option from SERVICE_<NAME>.
type Options struct {
	Port            int    `default:"8888"           help:"Port to listen on"                                      short:"p"`
	Store           string `default:"memory"         help:"Record store: memory, redis, postgres or dynamodb"      short:"s"`
	TableName       string `default:"ShortenedUrls"  help:"Table holding redirect records"`
	PrimaryKey      string `default:"urlId"          help:"Primary-key attribute of the table"`
	RedisAddr       string `default:"localhost:6379" help:"Redis server address"                                   short:"r"`
	DatabaseURL     string `default:""               help:"PostgreSQL connection string"`
	MetricsSink     string `default:"log"            help:"Metric sink: log, cloudwatch, prometheus or stream"`
	MetricsDetached bool   `default:"false"          help:"Emit redirect metrics off the request path"`
	MetricsTimeout  string `default:"5s"             help:"Upper bound for a single metric emit, 0 disables"`
	CacheTTL        string `default:"0s"             help:"Redis read cache lifetime for resolved records, 0 disables"`
	Scheme          string `default:"https"          help:"Scheme of the URL returned from create"`
	LogFormat       string `default:"console"        help:"Log format: console or json"`
}

// LogSettings is implemented by every options type that configures the logger.
type LogSettings interface {
	Format() string
}

func (o *Options) Format() string {
	return o.LogFormat
}

// Durations parses the duration options.
func (o *Options) Durations() (metricsTimeout, cacheTTL time.Duration, err error) {
	metricsTimeout, err = time.ParseDuration(o.MetricsTimeout)
	if err != nil {
		return 0, 0, fmt.Errorf("metrics-timeout: %w", err)
	}

	cacheTTL, err = time.ParseDuration(o.CacheTTL)
	if err != nil {
		return 0, 0, fmt.Errorf("cache-ttl: %w", err)
	}

	return metricsTimeout, cacheTTL, nil
}

// Validate rejects unknown backends before anything is wired.
func (o *Options) Validate() error {
	switch o.Store {
	case StoreMemory, StoreRedis, StorePostgres, StoreDynamoDB:
	default:
		return fmt.Errorf("unknown store %q", o.Store)
	}

	switch o.MetricsSink {
	case SinkLog, SinkCloudWatch, SinkPrometheus, SinkStream:
	default:
		return fmt.Errorf("unknown metrics sink %q", o.MetricsSink)
	}

	if o.TableName == "" || o.PrimaryKey == "" {
		return errors.New("table-name and primary-key are required")
	}

	if o.Store == StorePostgres && o.DatabaseURL == "" {
		return errors.New("database-url is required for the postgres store")
	}

	_, _, err := o.Durations()

	return err
}

// ConsumerOptions configures the metrics consumer from the environment.
type ConsumerOptions struct {
	RedisAddr     string        `env:"REDIS_ADDR"      envDefault:"localhost:6379"`
	LogFormat     string        `env:"LOG_FORMAT"      envDefault:"console"`
	ConsumerGroup string        `env:"CONSUMER_GROUP"  envDefault:"redirect-metrics"`
	MetricsSink   string        `env:"METRICS_SINK"    envDefault:"log"`
	EmitTimeout   time.Duration `env:"METRICS_TIMEOUT" envDefault:"5s"`
}

func (o *ConsumerOptions) Format() string {
	return o.LogFormat
}

// Validate rejects sinks the consumer cannot forward to.
func (o *ConsumerOptions) Validate() error {
	switch o.MetricsSink {
	case SinkLog, SinkCloudWatch:
		return nil
	default:
		return fmt.Errorf("consumer cannot forward to metrics sink %q", o.MetricsSink)
	}
}
