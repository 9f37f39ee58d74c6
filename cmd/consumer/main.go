package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/samber/do"
	"github.com/serroba/translation-sim/internal/container"
	"github.com/serroba/translation-sim/internal/messaging"
	"go.uber.org/zap"
)

func main() {
	if err := container.LoadEnv(); err != nil {
		log.Fatalf("load env: %v", err)
	}

	cli := humacli.New(func(hooks humacli.Hooks, opts *container.Options) {
		injector := do.New()
		do.ProvideValue(injector, opts)
		container.LoggerPackage(injector)
		container.RedisPackage(injector)
		container.PostgresPackage(injector)
		container.AuditStorePackage(injector)
		container.ConsumerGroupPackage(injector)

		logger := do.MustInvoke[*zap.Logger](injector)

		if err := opts.Validate(); err != nil {
			logger.Fatal("invalid configuration", zap.Error(err))
		}

		hooks.OnStart(func() {
			group := do.MustInvoke[*messaging.ConsumerGroup](injector)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			if err := group.Start(ctx); err != nil {
				logger.Fatal("failed to start consumer group", zap.Error(err))
			}

			logger.Info("auditing job events", zap.String("sink", opts.EventsSink))

			// Wait for shutdown signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			<-sigChan

			logger.Info("shutting down")
			cancel()

			if err := injector.Shutdown(); err != nil {
				logger.Error("shutdown error", zap.Error(err))
			}

			logger.Info("shutdown complete")
		})
	})

	cli.Run()
}
