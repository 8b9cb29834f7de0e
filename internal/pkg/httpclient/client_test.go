package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lk2023060901/execution-console/internal/pkg/errors"
	"github.com/lk2023060901/execution-console/internal/pkg/logger"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func setupTestClient(t *testing.T, handler http.HandlerFunc, tokens TokenSource) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(&Config{BaseURL: srv.URL + "/api/v1/"}, tokens, logger.NewNop())
	require.NoError(t, err)
	return client
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{name: "valid", config: &Config{BaseURL: "http://localhost:8080"}},
		{name: "missing base url", config: &Config{}, wantErr: true},
		{name: "unsupported scheme", config: &Config{BaseURL: "ftp://host"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 30*time.Second, tt.config.Timeout)
			assert.Equal(t, "execview", tt.config.UserAgent)
		})
	}
}

func TestClient_DoSendsHeaders(t *testing.T) {
	var got *http.Request
	var gotBody string
	client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"identifier":"new-1"}`))
	}, staticToken("tok"))

	var out struct {
		Identifier string `json:"identifier"`
	}
	err := client.Post(context.Background(), "executions/e1/re-execute", map[string]string{"project": "p"}, &out)
	require.NoError(t, err)

	assert.Equal(t, "new-1", out.Identifier)
	assert.Equal(t, "/api/v1/executions/e1/re-execute", got.URL.Path)
	assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.NotEmpty(t, got.Header.Get(logger.RequestIDHeader))
	assert.JSONEq(t, `{"project":"p"}`, gotBody)
}

func TestClient_NoTokenNoAuthorization(t *testing.T) {
	var auth string
	client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}, staticToken(""))

	require.NoError(t, client.Get(context.Background(), "/ping", nil))
	assert.Empty(t, auth)
}

func TestClient_UnwrapsEnvelope(t *testing.T) {
	client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":0,"message":"Success","data":{"identifier":"e1"}}`))
	}, nil)

	var out map[string]string
	require.NoError(t, client.Get(context.Background(), "/executions/e1", &out))
	assert.Equal(t, "e1", out["identifier"])
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantStatus  int
		wantMessage string
	}{
		{"message field", http.StatusConflict, `{"message":"taken"}`, http.StatusConflict, "taken"},
		{"error string", http.StatusBadRequest, `{"error":"bad input"}`, http.StatusBadRequest, "bad input"},
		{"nested error", http.StatusUnauthorized, `{"error":{"message":"expired"}}`, http.StatusUnauthorized, "expired"},
		{"detail field", http.StatusUnprocessableEntity, `{"detail":"nope"}`, http.StatusUnprocessableEntity, "nope"},
		{"no json", http.StatusBadGateway, `upstream down`, http.StatusBadGateway, "http 502"},
		{"envelope code", http.StatusOK, `{"code":1002,"message":"Resource not found","data":null}`, http.StatusOK, "Resource not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, nil)

			err := client.Get(context.Background(), "/x", &struct{}{})
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantStatus, apiErr.Status)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.Equal(t, tt.wantMessage, apperrors.UserMessage(err, "fallback"))
		})
	}
}

func TestClient_MalformedBody(t *testing.T) {
	client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"identifier":`))
	}, nil)

	err := client.Get(context.Background(), "/x", &struct{}{})
	assert.True(t, apperrors.Is(err, apperrors.ErrMalformedData))
}

func TestClient_ContextCanceled(t *testing.T) {
	client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := client.Get(ctx, "/x", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, apperrors.Is(err, apperrors.ErrNetwork))
}
