package injector

import (
	"context"

	authbiz "github.com/lk2023060901/execution-console/internal/auth/biz"
	"github.com/lk2023060901/execution-console/internal/conf"
	execbiz "github.com/lk2023060901/execution-console/internal/execution/biz"
	"github.com/lk2023060901/execution-console/internal/pkg/httpclient"
	"github.com/lk2023060901/execution-console/internal/pkg/logger"
	"github.com/lk2023060901/execution-console/internal/router"
	"github.com/lk2023060901/execution-console/internal/session"
)

// App encapsulates all application dependencies
type App struct {
	Config     *conf.Config
	Logger     *logger.Logger
	Session    *session.Session
	Store      session.TokenStore
	Client     *httpclient.Client
	History    *router.History
	Auth       *authbiz.AuthUseCase
	Executions *execbiz.ExecutionUseCase
}

// RestoreSession loads the persisted token into the in-memory session.
func (a *App) RestoreSession(ctx context.Context) error {
	return session.Restore(ctx, a.Session, a.Store)
}

func newApp(
	config *conf.Config,
	log *logger.Logger,
	sess *session.Session,
	store session.TokenStore,
	client *httpclient.Client,
	history *router.History,
	authUC *authbiz.AuthUseCase,
	execUC *execbiz.ExecutionUseCase,
) *App {
	return &App{
		Config:     config,
		Logger:     log,
		Session:    sess,
		Store:      store,
		Client:     client,
		History:    history,
		Auth:       authUC,
		Executions: execUC,
	}
}
