package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"parkqr-http-service/internal/domain/models"
	"parkqr-http-service/internal/domain/services"
	"parkqr-http-service/internal/error/code"
	"parkqr-http-service/internal/error/response"
	"parkqr-http-service/internal/infrastructure/config"
)

var jwtService services.InterfaceJWTService

// CallerContextKey 调用者上下文在gin.Context中的键
const CallerContextKey = "caller_context"

// EditModeHeader SUPER写操作的显式编辑意图头
const EditModeHeader = "X-Edit-Mode"

// InitAuthMiddleware 初始化认证中间件
func InitAuthMiddleware(cfg *config.Config, db *gorm.DB) {
	jwtService = services.NewJWTService(cfg, db)
}

// extractToken 从授权头中提取token
func extractToken(authHeader string) string {
	// 检查并移除 "Bearer " 前缀
	if len(authHeader) > 7 && strings.HasPrefix(authHeader, "Bearer ") {
		return authHeader[7:]
	}
	return authHeader
}

// Authentication 验证令牌并构建调用者上下文
func Authentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.FailErr(c, code.New(code.ErrUnauthenticated))
			c.Abort()
			return
		}

		claims, err := jwtService.ExtractClaims(extractToken(authHeader))
		if err != nil {
			response.FailErr(c, code.New(code.ErrTokenInvalid))
			c.Abort()
			return
		}

		caller := &services.CallerContext{
			ProfileID:  claims.ProfileID,
			Role:       claims.Role,
			ComplexID:  claims.ComplexID,
			BuildingID: claims.BuildingID,
			UnitID:     claims.UnitID,
			Email:      claims.Email,
			EditMode:   strings.EqualFold(c.GetHeader(EditModeHeader), "true"),
		}
		c.Set(CallerContextKey, caller)
		c.Next()
	}
}

// RequireRoles 限定路由只允许指定角色访问
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		caller := GetCaller(c)
		if caller == nil {
			response.FailErr(c, code.New(code.ErrUnauthenticated))
			c.Abort()
			return
		}
		if !allowed[caller.Role] {
			response.FailErr(c, code.New(code.ErrForbidden))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin 限定路由只允许管理角色访问
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(models.RoleSuper, models.RoleMain, models.RoleSub)
}

// GetCaller 从gin上下文取出调用者上下文，未认证时返回nil
func GetCaller(c *gin.Context) *services.CallerContext {
	value, exists := c.Get(CallerContextKey)
	if !exists {
		return nil
	}
	caller, ok := value.(*services.CallerContext)
	if !ok {
		return nil
	}
	return caller
}
