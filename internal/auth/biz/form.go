package biz

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	apperrors "github.com/lk2023060901/execution-console/internal/pkg/errors"
)

// Messages shown when a failure carries no message of its own.
const (
	SignupFailedMessage = "Signup failed. Please try again."
	LoginFailedMessage  = "Login failed. Please try again."
)

// formState is the loading flag and error text shared by the auth forms.
type formState struct {
	loading atomic.Bool
	mu      sync.RWMutex
	err     string
}

func (s *formState) Loading() bool {
	return s.loading.Load()
}

// ErrorText returns the message to render, or "" when there is none.
func (s *formState) ErrorText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *formState) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = msg
}

// run clears the error and holds the loading flag while submit runs. A
// failure is recorded as its user message, or fallback when it has none.
func (s *formState) run(ctx context.Context, fallback string, validate func() error, submit func(context.Context) error) error {
	s.setError("")
	if err := validate(); err != nil {
		s.setError(apperrors.UserMessage(err, fallback))
		return err
	}
	if !s.loading.CompareAndSwap(false, true) {
		return apperrors.New(apperrors.ErrTooManyRequests, "submission already in progress")
	}
	defer s.loading.Store(false)

	if err := submit(ctx); err != nil {
		s.setError(apperrors.UserMessage(err, fallback))
		return err
	}
	return nil
}

// SignupForm 注册表单
type SignupForm struct {
	Username     string
	Email        string
	Password     string
	ShowPassword bool

	uc *AuthUseCase
	formState
}

func NewSignupForm(uc *AuthUseCase) *SignupForm {
	return &SignupForm{uc: uc}
}

// TogglePassword 切换密码明文显示
func (f *SignupForm) TogglePassword() {
	f.ShowPassword = !f.ShowPassword
}

// DisplayPassword 按当前可见性返回密码框内容
func (f *SignupForm) DisplayPassword() string {
	return maskPassword(f.Password, f.ShowPassword)
}

// Validate 三个字段均必填，邮箱需包含 @
func (f *SignupForm) Validate() error {
	switch {
	case strings.TrimSpace(f.Username) == "":
		return apperrors.New(apperrors.ErrAuthInvalidInput, "Username is required.")
	case strings.TrimSpace(f.Email) == "":
		return apperrors.New(apperrors.ErrAuthInvalidInput, "Email is required.")
	case !strings.Contains(f.Email, "@"):
		return apperrors.New(apperrors.ErrAuthInvalidInput, "Please enter a valid email address.")
	case f.Password == "":
		return apperrors.New(apperrors.ErrAuthInvalidInput, "Password is required.")
	}
	return nil
}

// Submit 提交注册
func (f *SignupForm) Submit(ctx context.Context) error {
	return f.run(ctx, SignupFailedMessage, f.Validate, func(ctx context.Context) error {
		return f.uc.Signup(ctx, f.Username, strings.TrimSpace(f.Email), f.Password)
	})
}

// LoginForm 登录表单，Account 可以是用户名或邮箱
type LoginForm struct {
	Account      string
	Password     string
	ShowPassword bool

	uc *AuthUseCase
	formState
}

func NewLoginForm(uc *AuthUseCase) *LoginForm {
	return &LoginForm{uc: uc}
}

func (f *LoginForm) TogglePassword() {
	f.ShowPassword = !f.ShowPassword
}

func (f *LoginForm) DisplayPassword() string {
	return maskPassword(f.Password, f.ShowPassword)
}

func (f *LoginForm) Validate() error {
	switch {
	case strings.TrimSpace(f.Account) == "":
		return apperrors.New(apperrors.ErrAuthInvalidInput, "Username or email is required.")
	case f.Password == "":
		return apperrors.New(apperrors.ErrAuthInvalidInput, "Password is required.")
	}
	return nil
}

// Submit 提交登录
func (f *LoginForm) Submit(ctx context.Context) error {
	return f.run(ctx, LoginFailedMessage, f.Validate, func(ctx context.Context) error {
		return f.uc.Login(ctx, strings.TrimSpace(f.Account), f.Password)
	})
}

func maskPassword(password string, show bool) string {
	if show {
		return password
	}
	return strings.Repeat("•", len([]rune(password)))
}
