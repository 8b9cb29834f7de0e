package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lk2023060901/execution-console/internal/conf"
	"github.com/lk2023060901/execution-console/internal/pkg/logger"
	pkgredis "github.com/lk2023060901/execution-console/internal/pkg/redis"
	"github.com/lk2023060901/execution-console/internal/server"
)

func newDevServerCommand(cli *CLI) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "dev-server",
		Short: "Serve a local execution and auth API with seeded executions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := cli.loadConfig()
			if err != nil {
				return cli.fail(err)
			}
			if cmd.Flags().Changed("host") {
				config.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				config.Server.Port = port
			}

			log, err := logger.New(&config.Log)
			if err != nil {
				return cli.fail(fmt.Errorf("failed to initialize logger: %w", err))
			}
			defer log.Sync()

			store, err := server.NewSeededStore()
			if err != nil {
				return cli.fail(err)
			}
			if config.Server.SeedFile != "" {
				data, err := os.ReadFile(config.Server.SeedFile)
				if err != nil {
					return cli.fail(fmt.Errorf("failed to read seed file: %w", err))
				}
				if err := store.LoadSeed(data); err != nil {
					return cli.fail(err)
				}
			}

			limiter, closeLimiter, err := newAuthLimiter(config, log)
			if err != nil {
				return cli.fail(err)
			}
			defer closeLimiter()

			httpServer := server.NewHTTPServer(config, store, limiter, log)
			errCh := make(chan error, 1)
			go func() {
				errCh <- httpServer.Start()
			}()
			fmt.Fprintf(cli.out, "Serving http://%s/api/v1 (%d executions)\n", httpServer.Addr(), len(store.ExecutionIDs()))

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case err := <-errCh:
				if err != nil {
					return cli.fail(err)
				}
				return nil
			case <-quit:
			case <-cmd.Context().Done():
			}

			log.Info("shutting down dev server...")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Stop(ctx); err != nil {
				log.Error("dev server forced to shutdown", zap.Error(err))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (default server.host)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default server.port)")
	return cmd
}

// newAuthLimiter 根据 server.rate_limit 创建登录限流器，未配置时返回 nil
func newAuthLimiter(config *conf.Config, log *logger.Logger) (server.Limiter, func(), error) {
	rl := config.Server.RateLimit
	if rl.MaxRequests <= 0 {
		return nil, func() {}, nil
	}
	if rl.Backend != conf.StorageRedis {
		return server.NewMemoryLimiter(rl.MaxRequests, rl.Window), func() {}, nil
	}

	client, err := pkgredis.New(&config.Redis, log)
	if err != nil {
		return nil, nil, err
	}
	return server.NewRedisLimiter(client, rl.MaxRequests, rl.Window), func() { _ = client.Close() }, nil
}
