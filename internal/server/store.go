package server

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = errors.New("username or email already taken")
	ErrInvalidCredentials = errors.New("invalid account or password")
	ErrExecutionNotFound  = errors.New("execution not found")
)

//go:embed seed.json
var defaultSeed []byte

// User 注册用户
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// ReExecuteBody 重新执行请求体
type ReExecuteBody struct {
	Project     string   `json:"project" binding:"required"`
	TemplateID  string   `json:"template_id"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
}

// Store 内存数据存储，执行记录保存原始 JSON 以保持字段顺序
type Store struct {
	mu         sync.RWMutex
	users      map[string]*User
	executions map[string]json.RawMessage
	order      []string
}

// NewStore 创建空存储
func NewStore() *Store {
	return &Store{
		users:      make(map[string]*User),
		executions: make(map[string]json.RawMessage),
	}
}

// NewSeededStore 创建带示例执行记录的存储
func NewSeededStore() (*Store, error) {
	s := NewStore()
	if err := s.LoadSeed(defaultSeed); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadSeed 导入 JSON 数组形式的执行记录
func (s *Store) LoadSeed(data []byte) error {
	if !gjson.ValidBytes(data) {
		return errors.New("seed: invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return errors.New("seed: expected an array of executions")
	}

	var err error
	root.ForEach(func(_, item gjson.Result) bool {
		err = s.PutExecution(json.RawMessage(item.Raw))
		return err == nil
	})
	return err
}

// PutExecution 写入或覆盖一条执行记录
func (s *Store) PutExecution(raw json.RawMessage) error {
	id := gjson.GetBytes(raw, "identifier").String()
	if id == "" {
		return errors.New("execution has no identifier")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.executions[id]; !ok {
		s.order = append(s.order, id)
	}
	s.executions[id] = append(json.RawMessage(nil), raw...)
	return nil
}

// Execution 获取执行记录
func (s *Store) Execution(id string) (json.RawMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.executions[id]
	return raw, ok
}

// ExecutionIDs 按写入顺序返回所有执行 id
func (s *Store) ExecutionIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string(nil), s.order...)
}

// ReExecute 复制原执行记录并应用覆盖参数，返回新的执行 id
func (s *Store) ReExecute(id string, body ReExecuteBody) (string, error) {
	raw, ok := s.Execution(id)
	if !ok {
		return "", ErrExecutionNotFound
	}

	var exec map[string]interface{}
	if err := json.Unmarshal(raw, &exec); err != nil {
		return "", fmt.Errorf("decode execution %s: %w", id, err)
	}

	newID := uuid.Must(uuid.NewV7()).String()
	exec["identifier"] = newID
	exec["status"] = "pending"
	exec["created_at"] = time.Now().UTC().Format(time.RFC3339Nano)
	delete(exec, "output")
	delete(exec, "content")
	delete(exec, "execution_time")
	delete(exec, "execution_response_metadata")

	tmpl, _ := exec["thread_execution_params_template"].(map[string]interface{})
	if tmpl == nil {
		tmpl = map[string]interface{}{}
	}
	if body.Model != "" {
		tmpl["model"] = body.Model
	}
	if body.Temperature != nil {
		tmpl["temperature"] = *body.Temperature
	}
	exec["thread_execution_params_template"] = tmpl
	if body.TemplateID != "" {
		exec["thread_execution_params_template_id"] = body.TemplateID
	}

	out, err := json.Marshal(exec)
	if err != nil {
		return "", err
	}
	if err := s.PutExecution(out); err != nil {
		return "", err
	}
	return newID, nil
}

// CreateUser 注册用户，用户名和邮箱均需唯一
func (s *Store) CreateUser(username, email, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) || strings.EqualFold(u.Email, email) {
			return nil, ErrUserExists
		}
	}

	user := &User{
		ID:           uuid.Must(uuid.NewV7()).String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	s.users[user.ID] = user
	return user, nil
}

// Authenticate 通过用户名或邮箱校验密码
func (s *Store) Authenticate(account, password string) (*User, error) {
	s.mu.RLock()
	var found *User
	for _, u := range s.users {
		if strings.EqualFold(u.Username, account) || strings.EqualFold(u.Email, account) {
			found = u
			break
		}
	}
	s.mu.RUnlock()

	if found == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(found.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return found, nil
}
