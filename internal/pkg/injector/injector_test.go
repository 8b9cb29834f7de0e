package injector

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authbiz "github.com/lk2023060901/execution-console/internal/auth/biz"
	"github.com/lk2023060901/execution-console/internal/conf"
	execbiz "github.com/lk2023060901/execution-console/internal/execution/biz"
	"github.com/lk2023060901/execution-console/internal/pkg/httpclient"
	"github.com/lk2023060901/execution-console/internal/pkg/logger"
	"github.com/lk2023060901/execution-console/internal/router"
	"github.com/lk2023060901/execution-console/internal/server"
	"github.com/lk2023060901/execution-console/internal/session"
)

func setupApp(t *testing.T, requireAuth bool) *App {
	gin.SetMode(gin.TestMode)
	store, err := server.NewSeededStore()
	require.NoError(t, err)

	srv := httptest.NewServer(server.NewRouter(store, server.Options{RequireAuth: requireAuth}, logger.NewNop()))
	t.Cleanup(srv.Close)

	config := &conf.Config{
		API:     httpclient.Config{BaseURL: srv.URL + "/api/v1"},
		Storage: conf.StorageConfig{Backend: conf.StorageMemory},
		Log:     *logger.DefaultConfig(),
		UI:      conf.UIConfig{Color: "never"},
	}

	app, cleanup, err := InitializeApp(config)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return app
}

func TestInitializeApp_SignupThenView(t *testing.T) {
	app := setupApp(t, true)
	ctx := context.Background()

	assert.IsType(t, &session.MemoryStore{}, app.Store)
	assert.False(t, app.Session.Authenticated())

	_, err := app.Executions.Get(ctx, "exec_01")
	var apiErr *httpclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)

	form := authbiz.NewSignupForm(app.Auth)
	form.Username = "alice"
	form.Email = "alice@example.com"
	form.Password = "secret123"
	require.NoError(t, form.Submit(ctx))

	assert.True(t, app.Session.Authenticated())
	assert.Equal(t, router.Projects, app.History.Current())

	snap := app.Executions.NewViewer().Load(ctx, "exec_01")
	require.Equal(t, execbiz.StateReady, snap.State)
	assert.Equal(t, "You are a helpful travel assistant.", snap.SystemPrompt)
	assert.Len(t, snap.Messages, 3)
}

func TestApp_RestoreSession(t *testing.T) {
	app := setupApp(t, false)
	ctx := context.Background()

	require.NoError(t, app.Store.Save(ctx, "persisted"))
	require.NoError(t, app.RestoreSession(ctx))
	assert.Equal(t, "persisted", app.Session.Token())
}
