//go:build wireinject
// +build wireinject

package injector

import (
	"github.com/google/wire"

	authbiz "github.com/lk2023060901/execution-console/internal/auth/biz"
	authdata "github.com/lk2023060901/execution-console/internal/auth/data"
	"github.com/lk2023060901/execution-console/internal/conf"
	execbiz "github.com/lk2023060901/execution-console/internal/execution/biz"
	execdata "github.com/lk2023060901/execution-console/internal/execution/data"
	"github.com/lk2023060901/execution-console/internal/router"
	"github.com/lk2023060901/execution-console/internal/session"
)

// ProviderSet is the Wire provider set for all dependencies
var ProviderSet = wire.NewSet(
	// Ambient
	provideLogger,

	// Session & transport
	sessionProviderSet,

	// Repositories
	repositoryProviderSet,

	// Use cases
	useCaseProviderSet,
)

var sessionProviderSet = wire.NewSet(
	session.New,
	provideTokenStore,
	provideHTTPClient,
	provideHistory,
	wire.Bind(new(router.Navigator), new(*router.History)),
)

// Repository providers
var repositoryProviderSet = wire.NewSet(
	authdata.NewAuthRepo,
	wire.Bind(new(authbiz.AuthRepo), new(*authdata.AuthRepo)),
	execdata.NewExecutionRepo,
	wire.Bind(new(execbiz.ExecutionRepo), new(*execdata.ExecutionRepo)),
)

// Use case providers
var useCaseProviderSet = wire.NewSet(
	authbiz.NewAuthUseCase,
	execbiz.NewExecutionUseCase,
)

// InitializeApp initializes the application with Wire
func InitializeApp(config *conf.Config) (*App, func(), error) {
	wire.Build(ProviderSet, newApp)
	return nil, nil, nil
}
