package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"parkqr-http-service/internal/app/controllers"
	"parkqr-http-service/internal/app/middleware"
	"parkqr-http-service/internal/domain/services"
	"parkqr-http-service/internal/domain/services/container"
	"parkqr-http-service/internal/infrastructure/config"
)

// SetupRouter 初始化并返回配置好的路由
func SetupRouter(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// 初始化 Gin
	r := gin.Default()

	// 添加 CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With, X-Edit-Mode")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
	// 设置正确的Content-Type，确保UTF-8编码
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		c.Next()
	})

	// 创建服务容器
	serviceContainer := container.NewServiceContainer(db, cfg)
	// 初始化中间件
	middleware.InitAuthMiddleware(cfg, db)
	if redisService, ok := serviceContainer.GetService("redis").(*services.RedisService); ok {
		middleware.InitCacheMiddleware(redisService.Client)
	}

	// 添加 Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 注册路由
	registerRoutes(r, serviceContainer)
	return r
}

// registerRoutes 配置所有API路由
func registerRoutes(
	r *gin.Engine,
	container *container.ServiceContainer,
) {
	api := r.Group("/api")
	registerPublicRoutes(api, container)
	registerAuthenticatedRoutes(api, container)
}

// registerPublicRoutes 注册公共路由
func registerPublicRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 公共入口按IP限流 - 每秒10个请求，最多突发20个
	api.Use(middleware.IPRateLimiter(10, 20))

	// 健康检查路由
	api.GET("/ping", controllers.HandleHealthFunc(container, "ping"))
	api.GET("/health", controllers.HandleHealthFunc(container, "ping"))
	healthGroup := api.Group("/health")
	healthGroup.GET("/status", middleware.Cache(5*time.Second), controllers.HandleHealthFunc(container, "status"))

	// 认证路由
	api.POST("/auth/login", controllers.HandleJWTFunc(container, "login"))

	// 邀请公共入口：按令牌查询与接受
	api.GET("/invites/lookup", controllers.HandleInviteFunc(container, "lookupInvite"))
	api.POST("/invites/accept", controllers.HandleInviteFunc(container, "acceptInvite"))

	// 无人值守扫码入口，按路径限流防止枚举码
	scanGroup := api.Group("/scan")
	scanGroup.Use(middleware.PathRateLimiter(20, 40))
	scanGroup.POST("/public", controllers.HandleScanFunc(container, "scanPublic"))
}

// registerAuthenticatedRoutes 注册需要认证的路由
func registerAuthenticatedRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	auth := api.Group("/")
	auth.Use(middleware.Authentication())
	// 认证后的通用限流 - 每秒30个请求，最多突发50个
	auth.Use(middleware.IPRateLimiter(30, 50))

	// 邀请管理
	auth.POST("/invites", controllers.HandleInviteFunc(container, "submitInvite"))
	auth.GET("/invites", controllers.HandleInviteFunc(container, "listInvites"))
	auth.POST("/invites/bulk", middleware.RequireAdmin(), controllers.HandleInviteFunc(container, "bulkInvite"))

	// QR签发与审批
	auth.POST("/qr/requests", controllers.HandleQRFunc(container, "requestQR"))
	auth.POST("/qrs/extra", controllers.HandleQRFunc(container, "extraIssue"))
	auth.POST("/approvals", middleware.RequireAdmin(), controllers.HandleQRFunc(container, "approve"))

	// 值守扫码
	auth.POST("/scan", middleware.PathRateLimiter(20, 40), controllers.HandleScanFunc(container, "scanAttended"))

	// 账户
	auth.GET("/profiles/me", controllers.HandleProfileFunc(container, "getMe"))
	auth.PUT("/profiles/me", controllers.HandleProfileFunc(container, "updateMe"))
	auth.GET("/profiles", middleware.RequireAdmin(), controllers.HandleProfileFunc(container, "listProfiles"))
	auth.DELETE("/profiles/:id", middleware.RequireAdmin(), controllers.HandleProfileFunc(container, "deleteProfile"))

	// 通知
	auth.GET("/notifications", controllers.HandleNotificationFunc(container, "listNotifications"))
	auth.PUT("/notifications/:id/read", controllers.HandleNotificationFunc(container, "markRead"))

	// 小区配置：菜单开关。解析结果在服务层走Redis缓存，响应本身不缓存（因调用者而异）
	auth.GET("/settings/menus", middleware.RequireAdmin(), controllers.HandleSettingsFunc(container, "getMenuToggles"))
	auth.PUT("/settings/menus", middleware.RequireAdmin(), controllers.HandleSettingsFunc(container, "updateMenuToggles"))
}
