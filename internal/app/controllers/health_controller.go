package controllers

import (
	"github.com/gin-gonic/gin"

	"parkqr-http-service/internal/domain/services/container"
	"parkqr-http-service/internal/error/code"
	"parkqr-http-service/internal/error/response"
)

// HealthCheckController 健康检查控制器
type HealthCheckController struct {
	Container *container.ServiceContainer
}

// NewHealthCheckController 创建健康检查控制器实例
func NewHealthCheckController(container *container.ServiceContainer) *HealthCheckController {
	return &HealthCheckController{Container: container}
}

// HandleHealthFunc 返回一个处理健康检查请求的Gin处理函数
func HandleHealthFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewHealthCheckController(container)

		switch method {
		case "ping":
			controller.Ping(ctx)
		case "status":
			controller.Status(ctx)
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// Ping 健康检查端点
func (h *HealthCheckController) Ping(c *gin.Context) {
	response.Success(c, gin.H{
		"status":  "healthy",
		"message": "pong",
	})
}

// Status 返回数据库连通状态
func (h *HealthCheckController) Status(c *gin.Context) {
	dbStatus := "up"
	if sqlDB, err := h.Container.GetDB().DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "down"
	}
	response.Success(c, gin.H{
		"status":   "healthy",
		"database": dbStatus,
	})
}
