package container

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
)

// RedisClient lets the injector close the shared Redis client.
type RedisClient struct {
	*redis.Client
}

func (c *RedisClient) Shutdown() error {
	return c.Close()
}

// PostgresPool lets the injector close the shared connection pool.
type PostgresPool struct {
	*pgxpool.Pool
}

func (p *PostgresPool) Shutdown() error {
	p.Close()

	return nil
}

// NewLogger builds a production (json) or development (console) logger.
func NewLogger(format string) (*zap.Logger, error) {
	if format == "json" {
		return zap.NewProduction()
	}

	return zap.NewDevelopment()
}

// LoggerPackage provides the process logger. It needs a LogSettings value.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		settings := do.MustInvoke[LogSettings](i)

		return NewLogger(settings.Format())
	})
}

// RedisPackage provides the Redis client shared by the store, cache and stream.
func RedisPackage(injector *do.Injector, addr string) {
	do.Provide(injector, func(_ *do.Injector) (*RedisClient, error) {
		return &RedisClient{Client: redis.NewClient(&redis.Options{Addr: addr})}, nil
	})
}

// PostgresPackage provides the connection pool for the postgres store.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*PostgresPool, error) {
		opts := do.MustInvoke[*Options](i)

		pool, err := pgxpool.New(context.Background(), opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		return &PostgresPool{Pool: pool}, nil
	})
}

// AWSPackage provides the DynamoDB and CloudWatch clients from the default credential chain.
func AWSPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (aws.Config, error) {
		return config.LoadDefaultConfig(context.Background())
	})

	do.Provide(injector, func(i *do.Injector) (*dynamodb.Client, error) {
		return dynamodb.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (*cloudwatch.Client, error) {
		return cloudwatch.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
}
