package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v10"
	"github.com/samber/do"
	"github.com/serroba/url-redirector/internal/container"
	"github.com/serroba/url-redirector/internal/messaging"
	"go.uber.org/zap"
)

func main() {
	opts := &container.ConsumerOptions{}
	if err := env.Parse(opts); err != nil {
		log.Fatalf("parse environment: %v", err)
	}

	injector := do.New()
	do.ProvideValue(injector, opts)
	do.ProvideValue[container.LogSettings](injector, opts)
	container.LoggerPackage(injector)
	container.RedisPackage(injector, opts.RedisAddr)
	container.AWSPackage(injector)
	container.ConsumerGroupPackage(injector)

	logger := do.MustInvoke[*zap.Logger](injector)
	defer func() { _ = logger.Sync() }()

	if err := opts.Validate(); err != nil {
		logger.Fatal("invalid options", zap.Error(err))
	}

	group := do.MustInvoke[*messaging.ConsumerGroup](injector)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := group.Start(ctx); err != nil {
		logger.Fatal("failed to start consumer group", zap.Error(err))
	}

	logger.Info("consumer started",
		zap.String("consumer_group", opts.ConsumerGroup),
		zap.String("metrics_sink", opts.MetricsSink),
	)

	<-ctx.Done()

	logger.Info("shutting down")

	if err := injector.Shutdown(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
}
