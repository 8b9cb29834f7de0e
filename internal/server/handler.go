package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lk2023060901/execution-console/internal/auth"
	"github.com/lk2023060901/execution-console/internal/pkg/logger"
	"github.com/lk2023060901/execution-console/internal/pkg/response"
)

// Options 路由选项
type Options struct {
	JWTSecret    string
	RequireAuth  bool     // 执行接口是否需要 Bearer token
	AllowOrigins []string // 为空时不启用 CORS
	AuthLimiter  Limiter  // 注册/登录限流，nil 时不限流
}

// Handler 执行与认证接口
type Handler struct {
	store  *Store
	jwt    *auth.JWTManager
	logger *logger.Logger
}

// NewRouter 创建 gin 路由，接口挂在 /api/v1 下
func NewRouter(store *Store, opts Options, log *logger.Logger) *gin.Engine {
	if log == nil {
		log = logger.L()
	}
	if opts.JWTSecret == "" {
		opts.JWTSecret = "execview-dev-secret"
	}

	router := gin.New()
	router.Use(logger.GinRecovery(log))
	router.Use(logger.GinLogger(log))
	if len(opts.AllowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  opts.AllowOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:  []string{"Authorization", "Content-Type", logger.RequestIDHeader},
			ExposeHeaders: []string{logger.RequestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	h := &Handler{
		store:  store,
		jwt:    auth.NewJWTManager(opts.JWTSecret, ""),
		logger: log,
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api/v1")
	h.RegisterRoutes(api, opts)
	return router
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, opts Options) {
	authGroup := r.Group("/auth")
	if opts.AuthLimiter != nil {
		authGroup.Use(RateLimit(opts.AuthLimiter, h.logger))
	}
	{
		authGroup.POST("/signup", h.Signup)
		authGroup.POST("/login", h.Login)
	}

	executions := r.Group("/executions")
	if opts.RequireAuth {
		executions.Use(JWTAuth(h.jwt, h.logger))
	}
	{
		executions.GET("/:id", h.GetExecution)
		executions.POST("/:id/re-execute", h.ReExecute)
	}
}

// SignupRequest 注册请求
type SignupRequest struct {
	Username string `json:"username" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// Signup 注册并直接签发 token
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.store.CreateUser(req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			response.Conflict(c, "taken")
			return
		}
		h.logger.Error("failed to register user", zap.Error(err), zap.String("email", req.Email))
		response.InternalError(c, "signup failed")
		return
	}

	token, err := h.jwt.GenerateAccessToken(user.ID, user.Username, user.Email)
	if err != nil {
		response.InternalError(c, "failed to issue token")
		return
	}

	response.Created(c, gin.H{
		"user_id": user.ID,
		"token":   token,
	})
}

// LoginRequest 登录请求
type LoginRequest struct {
	Account  string `json:"account" binding:"required"` // 用户名或邮箱
	Password string `json:"password" binding:"required"`
}

// Login 登录，token 放在 tokens.access_token
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.store.Authenticate(req.Account, req.Password)
	if err != nil {
		h.logger.Warn("login failed", zap.String("account", req.Account), zap.String("ip", c.ClientIP()))
		response.Unauthorized(c, "invalid account or password")
		return
	}

	token, err := h.jwt.GenerateAccessToken(user.ID, user.Username, user.Email)
	if err != nil {
		response.InternalError(c, "failed to issue token")
		return
	}

	response.Success(c, gin.H{
		"require_2fa": false,
		"tokens": gin.H{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   int(auth.AccessTokenDuration.Seconds()),
		},
	})
}

// GetExecution 返回原始执行记录（不带信封，与执行服务保持一致）
func (h *Handler) GetExecution(c *gin.Context) {
	raw, ok := h.store.Execution(c.Param("id"))
	if !ok {
		response.NotFound(c, "execution not found")
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

// ReExecute 复制执行记录并返回新的 identifier
func (h *Handler) ReExecute(c *gin.Context) {
	var body ReExecuteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	newID, err := h.store.ReExecute(c.Param("id"), body)
	if err != nil {
		if errors.Is(err, ErrExecutionNotFound) {
			response.NotFound(c, "execution not found")
			return
		}
		h.logger.Error("re-execute failed", zap.Error(err))
		response.InternalError(c, "re-execute failed")
		return
	}

	h.logger.Info("execution re-executed",
		zap.String("project", body.Project),
		zap.String("execution_id", c.Param("id")),
		zap.String("new_execution_id", newID))
	response.Created(c, gin.H{"identifier": newID})
}
