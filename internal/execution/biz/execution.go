package biz

import (
	"context"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/lk2023060901/execution-console/internal/pkg/errors"
	"github.com/lk2023060901/execution-console/internal/pkg/logger"
	"github.com/lk2023060901/execution-console/internal/router"
)

// ReExecuteRequest 重新执行请求，空字段沿用原执行的配置
type ReExecuteRequest struct {
	Project     string   `json:"project"`
	TemplateID  string   `json:"template_id,omitempty"`
	Model       string   `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// ExecutionRepo 执行数据仓库接口
type ExecutionRepo interface {
	Get(ctx context.Context, id string) (*Execution, error)
	ReExecute(ctx context.Context, id string, req *ReExecuteRequest) (string, error)
}

// ExecutionUseCase 执行页面的业务逻辑
type ExecutionUseCase struct {
	repo ExecutionRepo
	nav  router.Navigator
	log  *logger.Logger
}

func NewExecutionUseCase(repo ExecutionRepo, nav router.Navigator, log *logger.Logger) *ExecutionUseCase {
	if log == nil {
		log = logger.L()
	}
	return &ExecutionUseCase{repo: repo, nav: nav, log: log}
}

// NewViewer 创建绑定到同一仓库的 Viewer
func (uc *ExecutionUseCase) NewViewer() *Viewer {
	return NewViewer(uc.repo, uc.log)
}

// Get 获取单个执行记录
func (uc *ExecutionUseCase) Get(ctx context.Context, id string) (*Execution, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.New(apperrors.ErrInvalidParams, "execution id is required")
	}
	exec, err := uc.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if exec == nil {
		return nil, apperrors.New(apperrors.ErrExecutionNotFound)
	}
	return exec, nil
}

// ReExecute 以新的配置重新执行，成功后跳转到新执行的页面
func (uc *ExecutionUseCase) ReExecute(ctx context.Context, project, id string, req ReExecuteRequest) (string, error) {
	if project == "" {
		return "", apperrors.New(apperrors.ErrInvalidParams, "project is required")
	}
	if id == "" {
		return "", apperrors.New(apperrors.ErrInvalidParams, "execution id is required")
	}
	if req.Temperature != nil && (*req.Temperature < 0 || *req.Temperature > 2) {
		return "", apperrors.New(apperrors.ErrInvalidParams, "temperature must be between 0 and 2")
	}
	req.Project = project

	newID, err := uc.repo.ReExecute(ctx, id, &req)
	if err != nil {
		return "", err
	}
	if newID == "" {
		return "", apperrors.New(apperrors.ErrReExecuteFailed, "response carried no identifier")
	}

	uc.log.WithContext(ctx).Info("execution re-executed",
		zap.String("project", project),
		zap.String("execution_id", id),
		zap.String("new_execution_id", newID),
	)
	uc.nav.Navigate(router.ExecutionPath(project, newID), false)
	return newID, nil
}

// Back 返回执行列表
func (uc *ExecutionUseCase) Back(project string) {
	uc.nav.Navigate(router.ExecutionsPath(project), false)
}

// OpenThread 跳转到执行所属的会话，无会话时返回 false
func (uc *ExecutionUseCase) OpenThread(project string, exec *Execution) bool {
	if exec == nil || !exec.HasThread() {
		return false
	}
	uc.nav.Navigate(router.ThreadPath(project, exec.ThreadID), false)
	return true
}

// OpenTemplate 跳转到参数模板，无模板 id 时返回 false
func (uc *ExecutionUseCase) OpenTemplate(project string, exec *Execution) bool {
	if exec == nil || exec.ParamsTemplateID == "" {
		return false
	}
	uc.nav.Navigate(router.TemplatePath(project, exec.ParamsTemplateID), false)
	return true
}
