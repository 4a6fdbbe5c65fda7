package container

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/samber/do"
	"github.com/serroba/url-redirector/internal/health"
	"github.com/serroba/url-redirector/internal/redirect"
	"github.com/serroba/url-redirector/internal/store"
	"go.uber.org/zap"
)

// RepositoryPackage provides the record store selected by --store, wrapped in
// the Redis read cache when --cache-ttl is set, and the health handler.
func RepositoryPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (redirect.Repository, error) {
		opts := do.MustInvoke[*Options](i)

		repo, err := newRepository(i, opts)
		if err != nil {
			return nil, err
		}

		_, cacheTTL, err := opts.Durations()
		if err != nil {
			return nil, err
		}

		if cacheTTL > 0 && opts.Store != StoreMemory && opts.Store != StoreRedis {
			client := do.MustInvoke[*RedisClient](i)
			repo = store.NewRedisCacheRepository(repo, client.Client, cacheTTL, do.MustInvoke[*zap.Logger](i))
		}

		return repo, nil
	})

	do.Provide(injector, func(i *do.Injector) (*health.Handler, error) {
		opts := do.MustInvoke[*Options](i)
		checks := map[string]health.Checker{}

		if checker, ok := do.MustInvoke[redirect.Repository](i).(health.Checker); ok {
			checks["store"] = checker
		}

		if opts.MetricsSink == SinkStream {
			client := do.MustInvoke[*RedisClient](i)
			checks["stream"] = health.CheckerFunc(func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			})
		}

		return health.NewHandler(checks), nil
	})
}

func newRepository(i *do.Injector, opts *Options) (redirect.Repository, error) {
	switch opts.Store {
	case StoreMemory:
		return store.NewMemoryStore(opts.PrimaryKey, nil), nil
	case StoreRedis:
		client := do.MustInvoke[*RedisClient](i)

		return store.NewRedisStore(client.Client, opts.TableName, opts.PrimaryKey), nil
	case StorePostgres:
		pool := do.MustInvoke[*PostgresPool](i)
		pg := store.NewPostgresStore(pool.Pool, opts.TableName, opts.PrimaryKey)

		if err := pg.EnsureSchema(context.Background()); err != nil {
			return nil, fmt.Errorf("ensure postgres schema: %w", err)
		}

		return pg, nil
	case StoreDynamoDB:
		return store.NewDynamoStore(do.MustInvoke[*dynamodb.Client](i), opts.TableName, opts.PrimaryKey), nil
	default:
		return nil, fmt.Errorf("unknown store %q", opts.Store)
	}
}
