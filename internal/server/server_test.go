package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/lk2023060901/execution-console/internal/pkg/logger"
)

func setupRouter(t *testing.T, opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	store, err := NewSeededStore()
	require.NoError(t, err)
	return NewRouter(store, opts, logger.NewNop())
}

func do(r http.Handler, method, path string, body interface{}, header http.Header) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSeedStore(t *testing.T) {
	store, err := NewSeededStore()
	require.NoError(t, err)
	assert.Equal(t, []string{"exec_01", "exec_02", "exec_03"}, store.ExecutionIDs())

	assert.Error(t, NewStore().LoadSeed([]byte(`{"identifier":"x"}`)))
	assert.Error(t, NewStore().LoadSeed([]byte(`[{"status":"pending"}]`)))
}

func TestGetExecution(t *testing.T) {
	r := setupRouter(t, Options{})

	w := do(r, http.MethodGet, "/api/v1/executions/exec_01", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "exec_01", gjson.Get(w.Body.String(), "identifier").String())
	assert.NotEmpty(t, w.Header().Get(logger.RequestIDHeader))

	w = do(r, http.MethodGet, "/api/v1/executions/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "execution not found", gjson.Get(w.Body.String(), "message").String())
}

func TestReExecute(t *testing.T) {
	r := setupRouter(t, Options{})

	w := do(r, http.MethodPost, "/api/v1/executions/exec_01/re-execute",
		map[string]interface{}{"project": "demo", "model": "gpt-4o-mini", "temperature": 0.1}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	newID := gjson.Get(w.Body.String(), "data.identifier").String()
	require.NotEmpty(t, newID)

	w = do(r, http.MethodGet, "/api/v1/executions/"+newID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, "pending", gjson.Get(body, "status").String())
	assert.Equal(t, "gpt-4o-mini", gjson.Get(body, "thread_execution_params_template.model").String())
	assert.False(t, gjson.Get(body, "output").Exists())

	w = do(r, http.MethodPost, "/api/v1/executions/exec_01/re-execute", map[string]interface{}{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/executions/nope/re-execute", map[string]string{"project": "p"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSignupAndLogin(t *testing.T) {
	r := setupRouter(t, Options{RequireAuth: true})

	signup := map[string]string{"username": "alice", "email": "alice@example.com", "password": "secret123"}
	w := do(r, http.MethodPost, "/api/v1/auth/signup", signup, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, gjson.Get(w.Body.String(), "data.token").String())

	w = do(r, http.MethodPost, "/api/v1/auth/signup", signup, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "taken", gjson.Get(w.Body.String(), "message").String())

	w = do(r, http.MethodPost, "/api/v1/auth/login", map[string]string{"account": "alice@example.com", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/api/v1/auth/login", map[string]string{"account": "alice", "password": "secret123"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	token := gjson.Get(w.Body.String(), "data.tokens.access_token").String()
	require.NotEmpty(t, token)

	w = do(r, http.MethodGet, "/api/v1/executions/exec_01", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/api/v1/executions/exec_01", nil, http.Header{"Authorization": {"Bearer " + token}})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS(t *testing.T) {
	r := setupRouter(t, Options{AllowOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/executions/exec_01", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
