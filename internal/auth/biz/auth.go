package biz

import (
	"context"

	"go.uber.org/zap"

	apperrors "github.com/lk2023060901/execution-console/internal/pkg/errors"
	"github.com/lk2023060901/execution-console/internal/pkg/logger"
	"github.com/lk2023060901/execution-console/internal/router"
	"github.com/lk2023060901/execution-console/internal/session"
)

// AuthRepo 认证接口，成功时返回 API token
type AuthRepo interface {
	Signup(ctx context.Context, username, email, password string) (string, error)
	Login(ctx context.Context, account, password string) (string, error)
}

// AuthUseCase 认证业务逻辑
type AuthUseCase struct {
	repo    AuthRepo
	store   session.TokenStore
	session *session.Session
	nav     router.Navigator
	logger  *logger.Logger
}

func NewAuthUseCase(repo AuthRepo, store session.TokenStore, sess *session.Session, nav router.Navigator, log *logger.Logger) *AuthUseCase {
	if log == nil {
		log = logger.L()
	}
	return &AuthUseCase{
		repo:    repo,
		store:   store,
		session: sess,
		nav:     nav,
		logger:  log,
	}
}

// Signup 注册，成功后保存 token 并跳转到项目列表
func (uc *AuthUseCase) Signup(ctx context.Context, username, email, password string) error {
	token, err := uc.repo.Signup(ctx, username, email, password)
	if err != nil {
		uc.logger.Warn("signup failed", zap.String("username", username), zap.Error(err))
		return err
	}
	return uc.establish(ctx, token)
}

// Login 登录，成功后保存 token 并跳转到项目列表
func (uc *AuthUseCase) Login(ctx context.Context, account, password string) error {
	token, err := uc.repo.Login(ctx, account, password)
	if err != nil {
		uc.logger.Warn("login failed", zap.String("account", account), zap.Error(err))
		return err
	}
	return uc.establish(ctx, token)
}

// Logout 清除持久化的 token 与当前会话，回到登录页
func (uc *AuthUseCase) Logout(ctx context.Context) error {
	if err := uc.store.Clear(ctx); err != nil {
		return err
	}
	uc.session.Clear()
	uc.nav.Navigate(router.Login, true)
	return nil
}

// establish 持久化 token 一次，写入会话，然后以 replace 方式跳转
func (uc *AuthUseCase) establish(ctx context.Context, token string) error {
	if token == "" {
		return apperrors.New(apperrors.ErrAuthNoToken)
	}
	if err := uc.store.Save(ctx, token); err != nil {
		uc.logger.Error("failed to persist api token", zap.Error(err))
		return err
	}
	uc.session.SetToken(token)
	uc.nav.Navigate(router.Projects, true)
	return nil
}
