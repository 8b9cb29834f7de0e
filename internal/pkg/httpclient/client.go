package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	apperrors "github.com/lk2023060901/execution-console/internal/pkg/errors"
	"github.com/lk2023060901/execution-console/internal/pkg/logger"
)

// TokenSource 提供当前的 Bearer Token，每次请求都会重新读取
type TokenSource interface {
	Token() string
}

// Client 执行/认证 API 的 HTTP 客户端
type Client struct {
	config     *Config
	httpClient *http.Client
	tokens     TokenSource
	logger     *logger.Logger
}

// New 创建 API 客户端，tokens 可以为 nil
func New(cfg *Config, tokens TokenSource, log *logger.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.L()
	}

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: logger.NewTransport(http.DefaultTransport, log),
		},
		tokens: tokens,
		logger: log,
	}, nil
}

// BaseURL 返回规范化后的基础地址
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Get 发送 GET 请求并将结果解码到 result
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	return c.Do(ctx, http.MethodGet, path, nil, result)
}

// Post 发送 JSON POST 请求并将结果解码到 result
func (c *Client) Post(ctx context.Context, path string, body, result interface{}) error {
	return c.Do(ctx, http.MethodPost, path, body, result)
}

// Do 执行 HTTP 请求
//
// 2xx 响应若是 {code, message, data} 信封则解出 data，否则整体解码；
// 非 2xx 响应返回 *APIError。
func (c *Client) Do(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := c.resolve(path)

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrInvalidParams, "marshal request body")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInvalidParams, "create request")
	}
	c.applyHeaders(req, body != nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// context.Canceled 仍可通过 errors.Is 识别
		return apperrors.Wrap(err, apperrors.ErrNetwork)
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrNetwork, "read response")
	}
	requestID := resp.Header.Get(logger.RequestIDHeader)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(resp.StatusCode, int(gjson.GetBytes(respData, "code").Int()), respData, requestID)
		c.logger.WithContext(ctx).Debug("api error",
			zap.String("method", method),
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message),
		)
		return apiErr
	}

	payload, err := unwrapEnvelope(resp.StatusCode, respData, requestID)
	if err != nil {
		return err
	}
	if result == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, result); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrMalformedData, "decode %s %s", method, path)
	}
	return nil
}

// unwrapEnvelope 解开 {code, message, data} 信封；其他形状原样返回
func unwrapEnvelope(status int, body []byte, requestID string) ([]byte, error) {
	if !gjson.ValidBytes(body) {
		if len(bytes.TrimSpace(body)) == 0 {
			return nil, nil
		}
		return nil, apperrors.New(apperrors.ErrMalformedData, "response is not valid JSON")
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return body, nil
	}
	code := root.Get("code")
	data := root.Get("data")
	if !code.Exists() || code.Type != gjson.Number || (!data.Exists() && !root.Get("message").Exists()) {
		return body, nil
	}
	if code.Int() != 0 {
		return nil, newAPIError(status, int(code.Int()), body, requestID)
	}
	if !data.Exists() {
		return nil, nil
	}
	return []byte(data.Raw), nil
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.config.BaseURL + path
}

func (c *Client) applyHeaders(req *http.Request, hasBody bool) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if id := logger.GetRequestID(req.Context()); id != "" {
		req.Header.Set(logger.RequestIDHeader, id)
	}
}

