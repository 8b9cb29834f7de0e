package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lk2023060901/execution-console/internal/auth"
	"github.com/lk2023060901/execution-console/internal/pkg/logger"
	"github.com/lk2023060901/execution-console/internal/pkg/response"
)

// JWTAuth JWT 认证中间件
func JWTAuth(jwtManager *auth.JWTManager, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization")
			return
		}

		token, err := auth.ExtractTokenFromHeader(authHeader)
		if err != nil {
			response.Unauthorized(c, "invalid authorization header format")
			return
		}

		// 验证 token
		claims, err := jwtManager.VerifyAccessToken(token)
		if err != nil {
			log.Warn("invalid access token",
				zap.Error(err),
				zap.String("ip", c.ClientIP()))
			response.Unauthorized(c, "invalid or expired token")
			return
		}

		// 将用户信息注入到上下文
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)

		c.Next()
	}
}
