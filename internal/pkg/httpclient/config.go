package httpclient

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config API 客户端配置
type Config struct {
	// BaseURL API 基础地址，例如 http://localhost:8080/api/v1
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Timeout 请求超时时间
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// UserAgent 请求头 User-Agent
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
}

// Validate 验证配置并补全默认值
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("httpclient: base_url is required")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("httpclient: invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("httpclient: base_url must be http or https, got %q", c.BaseURL)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}

	if c.UserAgent == "" {
		c.UserAgent = "execview"
	}

	return nil
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		BaseURL:   "http://localhost:8080/api/v1",
		Timeout:   30 * time.Second,
		UserAgent: "execview",
	}
}
