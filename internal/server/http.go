package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lk2023060901/execution-console/internal/conf"
	"github.com/lk2023060901/execution-console/internal/pkg/logger"
)

// HTTPServer 本地开发用的执行/认证 API
type HTTPServer struct {
	server *http.Server
	logger *logger.Logger
}

func NewHTTPServer(config *conf.Config, store *Store, limiter Limiter, log *logger.Logger) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)

	router := NewRouter(store, Options{
		JWTSecret:    config.Server.JWTSecret,
		RequireAuth:  config.Server.RequireAuth,
		AllowOrigins: config.Server.AllowOrigins,
		AuthLimiter:  limiter,
	}, log)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)

	return &HTTPServer{
		server: &http.Server{
			Addr:    addr,
			Handler: router,
		},
		logger: log,
	}
}

// Addr 监听地址
func (s *HTTPServer) Addr() string {
	return s.server.Addr
}

func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}
