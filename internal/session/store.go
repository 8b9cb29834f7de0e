package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	apperrors "github.com/lk2023060901/execution-console/internal/pkg/errors"
	"github.com/lk2023060901/execution-console/internal/pkg/redis"
)

// FileStore keeps the token in a YAML file readable only by the owner.
type FileStore struct {
	path string
	mu   sync.Mutex
}

type credentials struct {
	APIToken string `yaml:"api_token"`
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", apperrors.Wrapf(err, apperrors.ErrStorage, "read %s", s.path)
	}

	var creds credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return "", apperrors.Wrapf(err, apperrors.ErrStorage, "parse %s", s.path)
	}
	return creds.APIToken, nil
}

func (s *FileStore) Save(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(credentials{APIToken: token})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrStorage)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrStorage, "create %s", filepath.Dir(s.path))
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrStorage, "write %s", tmp)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return apperrors.Wrapf(err, apperrors.ErrStorage, "replace %s", s.path)
	}
	return nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return apperrors.Wrapf(err, apperrors.ErrStorage, "remove %s", s.path)
	}
	return nil
}

// RedisStore keeps the token under <prefix>api_token.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, key: prefix + TokenKey}
}

func (s *RedisStore) Key() string {
	return s.key
}

func (s *RedisStore) Load(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key)
	if redis.IsNil(err) {
		return "", nil
	}
	if err != nil {
		return "", apperrors.Wrapf(err, apperrors.ErrStorage, "redis get %s", s.key)
	}
	return token, nil
}

func (s *RedisStore) Save(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.key, token, 0); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrStorage, "redis set %s", s.key)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if _, err := s.client.Del(ctx, s.key); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrStorage, "redis del %s", s.key)
	}
	return nil
}

// MemoryStore keeps the token for the lifetime of the process and counts
// writes.
type MemoryStore struct {
	mu     sync.Mutex
	token  string
	saves  int
	clears int
	err    error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// FailWith makes every subsequent operation return err.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *MemoryStore) Load(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	return s.token, nil
}

func (s *MemoryStore) Save(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.token = token
	s.saves++
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.token = ""
	s.clears++
	return nil
}

// Saves returns how many times Save succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Clears returns how many times Clear succeeded.
func (s *MemoryStore) Clears() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clears
}

var (
	_ TokenStore = (*FileStore)(nil)
	_ TokenStore = (*RedisStore)(nil)
	_ TokenStore = (*MemoryStore)(nil)
)

// Describe names the backend of store.
func Describe(store TokenStore) string {
	switch s := store.(type) {
	case *FileStore:
		return "file " + s.Path()
	case *RedisStore:
		return "redis " + s.Key()
	case *MemoryStore:
		return "memory"
	default:
		return fmt.Sprintf("%T", store)
	}
}
