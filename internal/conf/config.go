package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lk2023060901/execution-console/internal/pkg/httpclient"
	"github.com/lk2023060901/execution-console/internal/pkg/logger"
	"github.com/lk2023060901/execution-console/internal/pkg/redis"
)

// EnvPrefix prefixes every environment override, e.g. EXECVIEW_API_BASE_URL.
const EnvPrefix = "EXECVIEW"

// Storage backends for the API token.
const (
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

type Config struct {
	API     httpclient.Config `mapstructure:"api"`
	Storage StorageConfig     `mapstructure:"storage"`
	Redis   redis.Config      `mapstructure:"redis"`
	Log     logger.Config     `mapstructure:"log"`
	UI      UIConfig          `mapstructure:"ui"`
	Server  ServerConfig      `mapstructure:"server"`
}

type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	Path      string `mapstructure:"path"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type UIConfig struct {
	CollapseLines int    `mapstructure:"collapse_lines"`
	Markdown      bool   `mapstructure:"markdown"`
	TokenEstimate bool   `mapstructure:"token_estimate"`
	Color         string `mapstructure:"color"` // auto, always, never
	Width         int    `mapstructure:"width"`
	Project       string `mapstructure:"project"`
}

// ServerConfig configures the development API served by `execview dev-server`.
type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	JWTSecret    string   `mapstructure:"jwt_secret"`
	RequireAuth  bool     `mapstructure:"require_auth"`
	AllowOrigins []string `mapstructure:"allow_origins"`
	SeedFile     string   `mapstructure:"seed_file"`

	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig limits signup and login attempts per client IP.
// MaxRequests <= 0 disables the limiter.
type RateLimitConfig struct {
	Backend     string        `mapstructure:"backend"` // memory, redis
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

// DefaultDir is ~/.execview, or .execview when the home directory is unknown.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".execview"
	}
	return filepath.Join(home, ".execview")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8080/api/v1")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.user_agent", "execview")

	v.SetDefault("storage.backend", StorageFile)
	v.SetDefault("storage.path", filepath.Join(DefaultDir(), "credentials.yaml"))
	v.SetDefault("storage.key_prefix", "execview:")

	rd := redis.DefaultConfig()
	v.SetDefault("redis.mode", string(rd.Mode))
	v.SetDefault("redis.addr", rd.Addr)
	v.SetDefault("redis.sentinel_addrs", []string{})
	v.SetDefault("redis.master_name", "")
	v.SetDefault("redis.cluster_addrs", []string{})
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", rd.DB)
	v.SetDefault("redis.pool_size", rd.PoolSize)
	v.SetDefault("redis.dial_timeout", rd.DialTimeout)
	v.SetDefault("redis.read_timeout", rd.ReadTimeout)
	v.SetDefault("redis.write_timeout", rd.WriteTimeout)

	lg := logger.DefaultConfig()
	v.SetDefault("log.level", lg.Level)
	v.SetDefault("log.format", lg.Format)
	v.SetDefault("log.output", lg.Output)
	v.SetDefault("log.enablecaller", lg.EnableCaller)
	v.SetDefault("log.enablestacktrace", lg.EnableStacktrace)
	v.SetDefault("log.file.filename", filepath.Join(DefaultDir(), "logs", "execview.log"))
	v.SetDefault("log.file.maxsize", lg.File.MaxSize)
	v.SetDefault("log.file.maxage", lg.File.MaxAge)
	v.SetDefault("log.file.maxbackups", lg.File.MaxBackups)
	v.SetDefault("log.file.compress", lg.File.Compress)

	v.SetDefault("ui.collapse_lines", 6)
	v.SetDefault("ui.markdown", false)
	v.SetDefault("ui.token_estimate", false)
	v.SetDefault("ui.color", "auto")
	v.SetDefault("ui.width", 0)
	v.SetDefault("ui.project", "default")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.jwt_secret", "execview-dev-secret")
	v.SetDefault("server.require_auth", false)
	v.SetDefault("server.allow_origins", []string{})
	v.SetDefault("server.seed_file", "")
	v.SetDefault("server.rate_limit.backend", "memory")
	v.SetDefault("server.rate_limit.max_requests", 0)
	v.SetDefault("server.rate_limit.window", 5*time.Minute)
}

// New returns a viper instance with defaults and environment overrides
// registered. Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads path (or config.yaml in DefaultDir when path is empty).
// A missing default file is not an error; a missing explicit file is.
func LoadConfig(path string) (*Config, error) {
	return Load(New(), path)
}

// Load reads the config file into v and decodes the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultDir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Storage.Path = ExpandHome(config.Storage.Path)
	config.Log.File.Filename = ExpandHome(config.Log.File.Filename)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the sections the CLI always uses. The api and redis
// sections are validated by their clients when constructed.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageFile:
		if c.Storage.Path == "" {
			return errors.New("storage.path is required for the file backend")
		}
	case StorageRedis, StorageMemory:
	default:
		return fmt.Errorf("invalid storage.backend %q, must be one of: file, redis, memory", c.Storage.Backend)
	}

	if c.UI.CollapseLines < 0 {
		return errors.New("ui.collapse_lines must be >= 0")
	}
	switch c.UI.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("invalid ui.color %q, must be one of: auto, always, never", c.UI.Color)
	}

	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
