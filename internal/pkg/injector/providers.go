package injector

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lk2023060901/execution-console/internal/conf"
	"github.com/lk2023060901/execution-console/internal/pkg/httpclient"
	"github.com/lk2023060901/execution-console/internal/pkg/logger"
	pkgredis "github.com/lk2023060901/execution-console/internal/pkg/redis"
	"github.com/lk2023060901/execution-console/internal/router"
	"github.com/lk2023060901/execution-console/internal/session"
)

// Provider functions for dependencies that need configuration

func provideLogger(config *conf.Config) (*logger.Logger, func(), error) {
	log, err := logger.New(&config.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.SetGlobal(log)
	return log, func() { _ = log.Sync() }, nil
}

// provideTokenStore 根据 storage.backend 选择 token 存储
func provideTokenStore(config *conf.Config, log *logger.Logger) (session.TokenStore, func(), error) {
	switch config.Storage.Backend {
	case conf.StorageRedis:
		client, err := pkgredis.New(&config.Redis, log)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := client.Close(); err != nil {
				log.Warn("failed to close redis client", zap.Error(err))
			}
		}
		return session.NewRedisStore(client, config.Storage.KeyPrefix), cleanup, nil
	case conf.StorageMemory:
		return session.NewMemoryStore(), func() {}, nil
	default:
		return session.NewFileStore(config.Storage.Path), func() {}, nil
	}
}

func provideHTTPClient(config *conf.Config, sess *session.Session, log *logger.Logger) (*httpclient.Client, error) {
	return httpclient.New(&config.API, sess, log)
}

func provideHistory() *router.History {
	return router.NewHistory()
}
